// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/oficiohq/oficio/internal/config"
	"github.com/oficiohq/oficio/internal/infrastructure"
	"github.com/oficiohq/oficio/pkg/middleware"
	"github.com/oficiohq/oficio/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// The returned Domain exposes the systems for background wiring.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, *Domain, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(cfg, runtime)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, cfg); err != nil {
		return nil, nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.MaxBytes(cfg.API.MaxRequestSizeBytes()))

	return m, domain, nil
}
