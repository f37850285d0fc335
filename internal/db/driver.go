package db

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tordrt/datadict/internal/dict"
)

// Config holds the pieces a driver needs to connect.
// DSN, when set, is used as is; otherwise it is built from the other fields.
type Config struct {
	Driver   string
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Params   map[string]string
}

// Driver is one native client connection
type Driver interface {
	Connect(ctx context.Context, cfg Config) error
	Query(ctx context.Context, query string, args ...any) (*Result, error)
	Exec(ctx context.Context, query string, args ...any) (*Result, error)
	// LastInsertID reports the key generated by the most recent insert into table
	LastInsertID(ctx context.Context, table string) (int64, bool)
	Close() error
}

// Factory creates an unconnected driver
type Factory func() Driver

type registration struct {
	dialect *dict.Dialect
	factory Factory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]registration)
)

// Register makes a driver available under name. It panics on a duplicate name.
func Register(name string, dialect *dict.Dialect, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("db: Register factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic("db: Register called twice for driver " + name)
	}
	registry[name] = registration{dialect: dialect, factory: factory}
}

// Drivers returns the sorted names of the registered drivers
func Drivers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return driverNames()
}

func lookup(name string) (registration, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	reg, ok := registry[strings.ToLower(name)]
	if !ok {
		return registration{}, fmt.Errorf("%w: %q (available: %s)", ErrDriverNotInstalled, name, strings.Join(driverNames(), ", "))
	}
	return reg, nil
}

func driverNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
