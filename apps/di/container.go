// Package di assembles the application services from a core.Config.
package di

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shubhammm008/Infosys-Team5/core"
	"github.com/shubhammm008/Infosys-Team5/core/auth"
	"github.com/shubhammm008/Infosys-Team5/core/course"
	"github.com/shubhammm008/Infosys-Team5/core/learning"
	"github.com/shubhammm008/Infosys-Team5/core/org"
	"github.com/shubhammm008/Infosys-Team5/core/user"
	emailsvc "github.com/shubhammm008/Infosys-Team5/services/email"
	logsvc "github.com/shubhammm008/Infosys-Team5/services/logger"
	"github.com/shubhammm008/Infosys-Team5/services/otp"
	"github.com/shubhammm008/Infosys-Team5/services/supabase"
	"github.com/shubhammm008/Infosys-Team5/storage/database"
	"github.com/shubhammm008/Infosys-Team5/storage/database/memdb"
	"github.com/shubhammm008/Infosys-Team5/storage/fallback"
	"github.com/shubhammm008/Infosys-Team5/storage/prefs"
	"github.com/shubhammm008/Infosys-Team5/storage/traced"
)

// Auth providers and backends selectable in the configuration.
const (
	ProviderSupabase = "supabase"
	ProviderLocal    = "local"
	ProviderNone     = "none"

	BackendSupabase = "supabase"
	BackendSQL      = "sql"
	BackendMemory   = "memory"
)

type Container struct {
	Conf   *core.Config
	Logger core.Logger
	Email  core.EmailService
	// Outbox collects the mail sent in test mode.
	Outbox *emailsvc.Outbox

	Prefs   prefs.Store
	Local   *fallback.Store
	DB      *sqlx.DB // nil unless the sql backend is selected
	Backend core.Backend

	Users    *user.Service
	Orgs     *org.Service
	Courses  *course.Service
	Learning *learning.Service
	Auth     *auth.Service

	closers []func() error
}

// Options override parts of the container, mostly for tests.
type Options struct {
	Logger core.Logger
	// TraceWriter receives the spans when tracing is on; os.Stderr when nil.
	TraceWriter io.Writer
}

// New builds every service. Close releases what it opened, even on error.
func New(ctx context.Context, conf *core.Config, opts Options) (c *Container, err error) {
	c = &Container{Conf: conf, Logger: opts.Logger}
	defer func() {
		if err != nil {
			_ = c.Close()
			c = nil
		}
	}()

	// =========================================================================
	// Logging & mail

	if c.Logger == nil {
		logger, flush, err := logsvc.New(conf)
		if err != nil {
			return nil, errors.Wrap(err, "setting up logger")
		}
		c.Logger = logger
		c.onClose(func() error { flush(); return nil })
	}
	if conf.TestMode {
		c.Outbox = new(emailsvc.Outbox)
	}
	c.Email = emailsvc.New(conf, c.Logger, c.Outbox)

	// =========================================================================
	// Local storage

	if c.Prefs, err = prefs.Open(ctx, conf); err != nil {
		return nil, errors.Wrap(err, "opening preferences")
	}
	c.onClose(c.Prefs.Close)

	if c.Local, err = fallback.Open(ctx, c.Prefs, fallback.Options{Logger: c.Logger}); err != nil {
		return nil, errors.Wrap(err, "opening fallback store")
	}

	// =========================================================================
	// Backend

	if c.Backend, err = c.newBackend(ctx); err != nil {
		return nil, err
	}
	if conf.Tracing {
		w := opts.TraceWriter
		if w == nil {
			w = os.Stderr
		}
		tp, shutdown, err := traced.NewStdoutProvider(w)
		if err != nil {
			return nil, err
		}
		c.onClose(func() error { return shutdown(context.Background()) })
		c.Backend = traced.Wrap(c.Backend, tp)
	}

	c.Users = user.NewService(c.Backend)
	c.Orgs = org.NewService(c.Backend)
	c.Courses = course.NewService(c.Backend)
	c.Learning = learning.NewService(c.Backend)

	// =========================================================================
	// Authentication

	provider, err := c.newProvider(ctx)
	if err != nil {
		return nil, err
	}
	c.Auth = auth.NewService(auth.Options{
		Provider:         provider,
		Profiles:         c.Users,
		Local:            c.Local,
		Prefs:            c.Prefs,
		Logger:           c.Logger,
		SignUpLatency:    conf.SignUpLatency,
		SkipVerification: conf.SkipVerification,
	})

	c.Logger.Info(fmt.Sprintf("Application initialized : version %q", conf.Build), map[string]interface{}{
		"backend":  conf.Backend,
		"provider": conf.AuthProvider,
		"prefs":    conf.Prefs.Driver,
	})
	return c, nil
}

func (c *Container) onClose(fn func() error) {
	c.closers = append(c.closers, fn)
}

// Close releases the resources in reverse order of acquisition.
func (c *Container) Close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

func (c *Container) newBackend(ctx context.Context) (core.Backend, error) {
	switch c.Conf.Backend {
	case BackendSupabase:
		client, err := supabase.NewClientFromConfig(c.Conf)
		if errors.Is(err, supabase.ErrNotConfigured) {
			c.Logger.Warn("Supabase is not configured, using the in-memory backend")
			return memdb.Open(), nil
		}
		return supabase.NewBackend(client), nil
	case BackendSQL:
		db, err := database.Open(ctx, c.Conf.Database)
		if err != nil {
			return nil, errors.Wrap(err, "setting up database")
		}
		c.DB = db
		c.onClose(db.Close)
		if err = database.Migrate(ctx, db, "up"); err != nil {
			return nil, errors.Wrap(err, "migrating database")
		}
		return database.NewBackend(db), nil
	case BackendMemory, "":
		return memdb.Open(), nil
	}
	return nil, errors.Errorf("unknown backend %q", c.Conf.Backend)
}

// newProvider returns nil when authentication runs on the fallback store only.
func (c *Container) newProvider(ctx context.Context) (auth.Provider, error) {
	switch c.Conf.AuthProvider {
	case ProviderSupabase:
		client, err := supabase.NewClientFromConfig(c.Conf)
		if errors.Is(err, supabase.ErrNotConfigured) {
			c.Logger.Warn("Supabase is not configured, authentication uses the local store only")
			return nil, nil
		}
		return supabase.NewAuth(client), nil
	case ProviderLocal:
		p, err := otp.New(ctx, otp.Options{
			Prefs:       c.Prefs,
			Email:       c.Email,
			Logger:      c.Logger,
			Secret:      c.Conf.SecretKey,
			Issuer:      c.Conf.AppName,
			CodeTTL:     c.Conf.OTPTTL,
			CodeLength:  c.Conf.OTPLength,
			MaxAttempts: c.Conf.OTPAttempts,
			SessionTTL:  c.Conf.SessionTTL,
		})
		if err != nil {
			return nil, errors.Wrap(err, "setting up local auth")
		}
		return p, nil
	case ProviderNone, "":
		return nil, nil
	}
	return nil, errors.Errorf("unknown auth provider %q", c.Conf.AuthProvider)
}
