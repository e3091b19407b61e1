// Package catalog manages the reference data correspondence records link
// to: the public entities that send requests and the request types that
// carry response deadlines.
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Entity is an external organization that originates correspondence.
type Entity struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
}

// RequestType classifies inbound requests and fixes their response
// deadline in days.
type RequestType struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SlaDays   int       `json:"slaDays"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateEntityCommand carries the data for registering an entity.
type CreateEntityCommand struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// CreateRequestTypeCommand carries the data for registering a request type.
type CreateRequestTypeCommand struct {
	Name    string `json:"name"`
	SlaDays int    `json:"slaDays"`
}
