// Package prefs holds the core.Preferences implementations.
package prefs

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shubhammm008/Infosys-Team5/core"
)

// Store is a core.Preferences that owns a connection.
type Store interface {
	core.Preferences
	Close() error
}

// Open returns the store selected by conf.Prefs.Driver.
func Open(ctx context.Context, conf *core.Config) (Store, error) {
	switch conf.Prefs.Driver {
	case "memory", "":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(ctx, conf.Prefs.Path)
	case "redis":
		return OpenRedis(ctx, conf.Prefs.RedisURL, conf.AppName)
	}
	return nil, errors.Errorf("unknown preference driver %q", conf.Prefs.Driver)
}
