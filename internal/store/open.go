package store

import (
	"context"
	"fmt"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverJSON     = "json"
	DriverMemory   = "memory"
)

// Options selects and configures a Store implementation.
type Options struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	DSN      string `yaml:"dsn"`
	Capacity int    `yaml:"capacity"`
}

// Open constructs the Store named by o.Driver.
func Open(ctx context.Context, o Options) (Store, error) {
	switch o.Driver {
	case "", DriverSQLite:
		return NewSQLiteStore(o.Path, o.Capacity)
	case DriverPostgres:
		if o.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires a dsn")
		}
		return NewPostgresStore(ctx, o.DSN, o.Capacity)
	case DriverJSON:
		return NewJSONStore(o.Path, o.Capacity)
	case DriverMemory:
		return NewMemoryStore(o.Capacity), nil
	}
	return nil, fmt.Errorf("unknown store driver %q (valid: sqlite, postgres, json, memory)", o.Driver)
}
