package config

import (
	"fmt"
	"os"

	"github.com/oficiohq/oficio/pkg/formatting"
	"github.com/oficiohq/oficio/pkg/middleware"
	"github.com/oficiohq/oficio/pkg/openapi"
	"github.com/oficiohq/oficio/pkg/pagination"
)

const EnvAPIMaxRequestSize = "OFICIO_API_MAX_REQUEST_SIZE"

var corsEnv = &middleware.CORSEnv{
	Enabled:          "OFICIO_CORS_ENABLED",
	Origins:          "OFICIO_CORS_ORIGINS",
	AllowedMethods:   "OFICIO_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "OFICIO_CORS_ALLOWED_HEADERS",
	AllowCredentials: "OFICIO_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "OFICIO_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "OFICIO_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "OFICIO_PAGINATION_MAX_PAGE_SIZE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "OFICIO_OPENAPI_TITLE",
	Description: "OFICIO_OPENAPI_DESCRIPTION",
}

// APIConfig holds API routing, CORS, and pagination settings.
type APIConfig struct {
	BasePath       string                `toml:"base_path"`
	MaxRequestSize string                `toml:"max_request_size"`
	CORS           middleware.CORSConfig `toml:"cors"`
	Pagination     pagination.Config     `toml:"pagination"`
	OpenAPI        openapi.Config        `toml:"openapi"`
}

// MaxRequestSizeBytes returns the request body cap in bytes.
func (c *APIConfig) MaxRequestSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxRequestSize)
	if err != nil {
		return 1024 * 1024 // 1MB fallback
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxRequestSize != "" {
		c.MaxRequestSize = overlay.MaxRequestSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxRequestSize == "" {
		c.MaxRequestSize = "1MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIMaxRequestSize); v != "" {
		c.MaxRequestSize = v
	}
}

func (c *APIConfig) validate() error {
	if _, err := formatting.ParseBytes(c.MaxRequestSize); err != nil {
		return fmt.Errorf("invalid max_request_size: %w", err)
	}
	return nil
}
