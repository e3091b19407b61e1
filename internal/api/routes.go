package api

import (
	"net/http"

	"github.com/oficiohq/oficio/internal/config"
	"github.com/oficiohq/oficio/pkg/openapi"
	"github.com/oficiohq/oficio/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) error {
	routes.Register(
		mux,
		domain.Correspondence.Handler().Routes(),
		domain.Catalog.Handler().Routes(),
	)

	spec, err := openapi.MarshalJSON(buildSpec(cfg))
	if err != nil {
		return err
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(spec))

	return nil
}
