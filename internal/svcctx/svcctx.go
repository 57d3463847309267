// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/formfieldlabs/formfield/internal/analysis"
	"github.com/formfieldlabs/formfield/internal/config"
	"github.com/formfieldlabs/formfield/internal/documents"
	"github.com/formfieldlabs/formfield/internal/home"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Config    *config.Manager
	Registry  *analysis.Registry
	Store     analysis.ResultStore
	Documents *documents.Manager
	Logger    *slog.Logger
	Home      *home.Dir
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// RegistryFrom extracts the analysis job registry from context.
func RegistryFrom(ctx context.Context) *analysis.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// StoreFrom extracts the durable result store from context.
func StoreFrom(ctx context.Context) analysis.ResultStore {
	if s := ServicesFrom(ctx); s != nil {
		return s.Store
	}
	return nil
}

// DocumentsFrom extracts the document manager from context.
func DocumentsFrom(ctx context.Context) *documents.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Documents
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}
