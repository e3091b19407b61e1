package api

import (
	"fmt"

	"github.com/oficiohq/oficio/internal/catalog"
	"github.com/oficiohq/oficio/internal/config"
	"github.com/oficiohq/oficio/internal/correspondence"
	"github.com/oficiohq/oficio/internal/store"
	"github.com/oficiohq/oficio/internal/sweeper"
	"github.com/oficiohq/oficio/pkg/clock"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Correspondence correspondence.System
	Catalog        catalog.System
	Sweeper        *sweeper.Sweeper
}

// NewDomain creates all domain systems from the API runtime. The catalog
// doubles as the deadline source for correspondence intake.
func NewDomain(cfg *config.Config, runtime *Runtime) (*Domain, error) {
	db := runtime.Database

	recordStore, err := store.Open(db.Driver(), db.Connection())
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}

	clk := clock.System()

	catalogSystem := catalog.New(
		db.Connection(),
		db.Driver(),
		clk,
		runtime.Logger,
	)

	correspondenceSystem := correspondence.New(
		recordStore,
		clk,
		cfg.Sla.Policy(),
		catalogSystem,
		runtime.Logger,
		runtime.Pagination,
	)

	sweep := sweeper.New(
		correspondenceSystem,
		recordStore,
		clk,
		runtime.Logger,
		&cfg.Sweeper,
	)

	return &Domain{
		Correspondence: correspondenceSystem,
		Catalog:        catalogSystem,
		Sweeper:        sweep,
	}, nil
}
