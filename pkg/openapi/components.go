package openapi

import "maps"

// NewComponents creates Components with the shared error schema and the
// error responses every endpoint reuses.
func NewComponents() *Components {
	errorContent := map[string]*MediaType{
		"application/json": {Schema: SchemaRef("Error")},
	}

	return &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type: "object",
				Properties: map[string]*Schema{
					"error": {Type: "string", Description: "Error message"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest": {
				Description: "Malformed request or invalid query",
				Content:     errorContent,
			},
			"NotFound": {
				Description: "Resource not found",
				Content:     errorContent,
			},
			"Conflict": {
				Description: "Illegal transition or stale version",
				Content:     errorContent,
			},
			"UnprocessableEntity": {
				Description: "Validation failure",
				Content:     errorContent,
			},
		},
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}
