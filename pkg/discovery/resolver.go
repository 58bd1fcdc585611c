package discovery

import (
	"context"
	"log/slog"
)

// Finder locates one companion.
// Implemented by MDNSBrowser.
type Finder interface {
	FindFirst(ctx context.Context) (*CompanionService, error)
}

// Resolver turns a discovery lookup into a dialable address. It satisfies
// link.Resolver.
type Resolver struct {
	finder Finder
	logger *slog.Logger
}

// NewResolver creates a resolver backed by finder.
func NewResolver(finder Finder, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{finder: finder, logger: logger}
}

// Resolve browses for a companion and returns its host:port.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	svc, err := r.finder.FindFirst(ctx)
	if err != nil {
		return "", err
	}
	addr, err := svc.Address()
	if err != nil {
		return "", err
	}
	r.logger.Info("companion discovered", "instance", svc.InstanceName, "name", svc.Name, "addr", addr, "version", svc.Version)
	return addr, nil
}

var _ Finder = (*MDNSBrowser)(nil)
