// Package admin serves the operator dashboard: platform counters and the
// audit trail.
package admin

import (
	"context"
	"errors"
	"log/slog"

	dErrors "vericred/pkg/domain-errors"
	"vericred/pkg/platform/audit"
)

// LogLimit is how many audit entries the dashboard shows, newest first.
const LogLimit = 20

// ProfileCounter counts registry rows. Satisfied by the registry stores.
type ProfileCounter interface {
	CountPrimaries(ctx context.Context) (int, error)
	CountSecondaries(ctx context.Context) (int, error)
}

// EntityCounter counts business rows. Satisfied by the entity stores.
type EntityCounter interface {
	CountEntities(ctx context.Context) (int, error)
	CountInvoices(ctx context.Context) (int, error)
}

// EvaluationCounter counts verification records. Satisfied by the
// verification record stores.
type EvaluationCounter interface {
	Count(ctx context.Context) (int, error)
}

// Stats is a snapshot of platform volume.
type Stats struct {
	Primaries   int
	Secondaries int
	Entities    int
	Invoices    int
	Evaluations int
}

// Service aggregates counters and audit history for operators.
type Service struct {
	profiles    ProfileCounter
	entities    EntityCounter
	evaluations EvaluationCounter
	auditor     audit.Store
	logger      *slog.Logger
}

func NewService(profiles ProfileCounter, entities EntityCounter, evaluations EvaluationCounter, auditor audit.Store, logger *slog.Logger) (*Service, error) {
	if profiles == nil {
		return nil, errors.New("profile counter is required")
	}
	if entities == nil {
		return nil, errors.New("entity counter is required")
	}
	if evaluations == nil {
		return nil, errors.New("evaluation counter is required")
	}
	if auditor == nil {
		return nil, errors.New("audit store is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		profiles:    profiles,
		entities:    entities,
		evaluations: evaluations,
		auditor:     auditor,
		logger:      logger,
	}, nil
}

// Stats returns current platform counters.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var (
		stats Stats
		err   error
	)
	if stats.Primaries, err = s.profiles.CountPrimaries(ctx); err != nil {
		return Stats{}, dErrors.Wrap(dErrors.CodeInternal, "could not count primary profiles", err)
	}
	if stats.Secondaries, err = s.profiles.CountSecondaries(ctx); err != nil {
		return Stats{}, dErrors.Wrap(dErrors.CodeInternal, "could not count secondary profiles", err)
	}
	if stats.Entities, err = s.entities.CountEntities(ctx); err != nil {
		return Stats{}, dErrors.Wrap(dErrors.CodeInternal, "could not count entities", err)
	}
	if stats.Invoices, err = s.entities.CountInvoices(ctx); err != nil {
		return Stats{}, dErrors.Wrap(dErrors.CodeInternal, "could not count invoices", err)
	}
	if stats.Evaluations, err = s.evaluations.Count(ctx); err != nil {
		return Stats{}, dErrors.Wrap(dErrors.CodeInternal, "could not count evaluations", err)
	}
	return stats, nil
}

// Logs returns the latest audit entries, newest first.
func (s *Service) Logs(ctx context.Context) ([]audit.Entry, error) {
	entries, err := s.auditor.List(ctx, LogLimit)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not list audit entries", err)
	}
	return entries, nil
}
