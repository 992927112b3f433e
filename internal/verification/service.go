package verification

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"vericred/internal/entity"
	"vericred/internal/otp"
	"vericred/internal/registry"
	"vericred/internal/scoring"
	dErrors "vericred/pkg/domain-errors"
	"vericred/pkg/platform/audit"
	"vericred/pkg/platform/tx"
	"vericred/pkg/requestcontext"
)

// Profiles resolves identity profiles. Satisfied by *registry.Service.
// Absence surfaces as a CodeNotFound domain error and is treated as a soft
// miss, never a failure.
type Profiles interface {
	GetPrimary(ctx context.Context, number string) (registry.PrimaryProfile, error)
	GetSecondary(ctx context.Context, number string) (registry.SecondaryProfile, error)
}

// Entities resolves business entities and their ledgers. Satisfied by
// *entity.Service.
type Entities interface {
	Get(ctx context.Context, registration string) (entity.Entity, error)
	Filings(ctx context.Context, registration string) ([]entity.Filing, error)
	Invoices(ctx context.Context, registration string) ([]entity.Invoice, error)
}

// Challenges proves OTP possession. Satisfied by *otp.Service.
type Challenges interface {
	HasVerified(ctx context.Context, channel otp.Channel, value string) (bool, error)
}

// RecordStore persists evaluation traces; see internal/verification/store.
type RecordStore interface {
	Save(ctx context.Context, r Record) error
}

// Observer receives evaluation counters. Satisfied by
// internal/verification/metrics.
type Observer interface {
	ObserveEvaluation(recommendation string, finalScore int)
	IncRejection(reason string)
}

// Service runs full credit checks.
type Service struct {
	profiles   Profiles
	entities   Entities
	challenges Challenges
	records    RecordStore
	auditor    audit.Store
	publisher  audit.Publisher
	atomic     tx.Atomic
	logger     *slog.Logger
	observer   Observer
	tracer     trace.Tracer
}

func NewService(profiles Profiles, entities Entities, challenges Challenges, records RecordStore, auditor audit.Store, publisher audit.Publisher, atomic tx.Atomic, logger *slog.Logger, observer Observer) (*Service, error) {
	if profiles == nil {
		return nil, errors.New("profile service is required")
	}
	if entities == nil {
		return nil, errors.New("entity service is required")
	}
	if challenges == nil {
		return nil, errors.New("challenge service is required")
	}
	if records == nil {
		return nil, errors.New("record store is required")
	}
	if auditor == nil {
		return nil, errors.New("audit store is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if publisher == nil {
		publisher = audit.NopPublisher{}
	}
	if atomic == nil {
		atomic = tx.Passthrough
	}
	return &Service{
		profiles:   profiles,
		entities:   entities,
		challenges: challenges,
		records:    records,
		auditor:    auditor,
		publisher:  publisher,
		atomic:     atomic,
		logger:     logger,
		observer:   observer,
		tracer:     otel.Tracer("vericred/verification"),
	}, nil
}

// lookup results. A nil pointer means the subject was not found; lookups
// degrade scoring inputs instead of failing the evaluation.
type subjects struct {
	primary   *registry.PrimaryProfile
	secondary *registry.SecondaryProfile
	entity    *entity.Entity
	filings   []entity.Filing
	invoices  []entity.Invoice
}

// Evaluate runs the full check. The primary number must carry a verified OTP
// challenge; consumption is not required, so evaluations are repeatable on
// one proof.
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) (Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "verification.Evaluate",
		trace.WithAttributes(attribute.String("registration", req.Registration)))
	defer span.End()

	verified, err := s.challenges.HasVerified(ctx, otp.ChannelPrimaryID, req.PrimaryNumber)
	if err != nil {
		return Outcome{}, err
	}
	if !verified {
		return Outcome{}, dErrors.New(dErrors.CodeBadRequest, "primary identity OTP verification is required before a full check")
	}

	subj, err := s.gather(ctx, req)
	if err != nil {
		return Outcome{}, err
	}

	outcome := s.score(ctx, subj)

	record := Record{
		ID:               uuid.NewString(),
		PrimaryNumber:    req.PrimaryNumber,
		SecondaryNumber:  req.SecondaryNumber,
		Registration:     req.Registration,
		OwnerScore:       outcome.OwnerScore,
		EntityScore:      outcome.EntityScore,
		TransactionScore: outcome.TransactionScore,
		FinalScore:       outcome.CreditScore,
		RiskCategory:     string(outcome.RiskCategory),
		Recommendation:   string(outcome.Recommendation),
		CreatedAt:        requestcontext.Now(ctx),
	}
	entry := audit.Entry{
		ID:        uuid.NewString(),
		Actor:     s.actor(ctx),
		Action:    audit.ActionEvaluateCredit,
		Entity:    "Entity",
		EntityID:  req.Registration,
		RequestID: requestcontext.RequestID(ctx),
		Timestamp: record.CreatedAt,
	}

	// Record and audit entry land together or not at all.
	err = s.atomic(ctx, func(ctx context.Context) error {
		if err := s.records.Save(ctx, record); err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "could not save verification record", err)
		}
		if err := s.auditor.Append(ctx, entry); err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "could not record audit entry", err)
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	s.publisher.Publish(ctx, entry)

	if s.observer != nil {
		s.observer.ObserveEvaluation(string(outcome.Recommendation), outcome.CreditScore)
		for _, reason := range outcome.Reasons {
			s.observer.IncRejection(reason)
		}
	}
	s.logger.InfoContext(ctx, "credit evaluation completed",
		"request_id", requestcontext.RequestID(ctx),
		"registration", req.Registration,
		"credit_score", outcome.CreditScore,
		"risk_category", outcome.RiskCategory,
		"recommendation", outcome.Recommendation,
		"verified", outcome.Verified,
	)
	return outcome, nil
}

// gather runs the three subject lookups concurrently. A CodeNotFound result
// leaves the pointer nil; any other error is fatal.
func (s *Service) gather(ctx context.Context, req EvaluateRequest) (subjects, error) {
	ctx, span := s.tracer.Start(ctx, "verification.gather")
	defer span.End()

	var subj subjects
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.profiles.GetPrimary(gctx, req.PrimaryNumber)
		if err != nil {
			return softMiss(err)
		}
		subj.primary = &p
		return nil
	})
	g.Go(func() error {
		sp, err := s.profiles.GetSecondary(gctx, req.SecondaryNumber)
		if err != nil {
			return softMiss(err)
		}
		subj.secondary = &sp
		return nil
	})
	g.Go(func() error {
		e, err := s.entities.Get(gctx, req.Registration)
		if err != nil {
			return softMiss(err)
		}
		subj.entity = &e

		filings, err := s.entities.Filings(gctx, req.Registration)
		if err != nil {
			return err
		}
		invoices, err := s.entities.Invoices(gctx, req.Registration)
		if err != nil {
			return err
		}
		subj.filings = filings
		subj.invoices = invoices
		return nil
	})

	if err := g.Wait(); err != nil {
		return subjects{}, err
	}
	return subj, nil
}

func softMiss(err error) error {
	if dErrors.CodeOf(err) == dErrors.CodeNotFound {
		return nil
	}
	return err
}

// score turns the gathered subjects into an outcome: component scores,
// aggregate, risk tier and the override pass.
func (s *Service) score(ctx context.Context, subj subjects) Outcome {
	secondaryLinked := subj.secondary != nil && subj.secondary.Linked &&
		subj.primary != nil && subj.secondary.PrimaryID == subj.primary.ID
	crossMismatch := subj.secondary != nil && subj.primary != nil &&
		subj.secondary.PrimaryID != subj.primary.ID
	blacklisted := subj.primary != nil && subj.primary.Blacklisted

	// Reaching this path already proved OTP possession, and prior defaults
	// are not tracked.
	ownerScore := scoring.OwnerScore(true, secondaryLinked, blacklisted, 0, crossMismatch)

	entityScore := scoring.EntityScoreDefault
	transactionScore := scoring.TransactionScoreDefault
	if subj.entity != nil {
		complianceAvg := 0.0
		if len(subj.filings) > 0 {
			sum := 0
			for _, f := range subj.filings {
				sum += f.ComplianceScore
			}
			complianceAvg = float64(sum) / float64(len(subj.filings))
		}
		ageYears := requestcontext.Now(ctx).Year() - subj.entity.CreatedAt.Year()
		entityScore = scoring.EntityScore(true, complianceAvg, ageYears, subj.entity.Suspended)

		if total := len(subj.invoices); total > 0 {
			paid, defaulted, delaySum := 0, 0, 0
			for _, inv := range subj.invoices {
				switch inv.Status {
				case entity.InvoicePaid:
					paid++
				case entity.InvoiceDefaulted:
					defaulted++
				}
				delaySum += inv.DelayDays
			}
			transactionScore = scoring.TransactionScore(
				total,
				float64(paid)/float64(total),
				float64(defaulted)/float64(total),
				float64(delaySum)/float64(total),
			)
		}
	}

	finalScore := scoring.FinalScore(ownerScore, entityScore, transactionScore)
	risk := scoring.RiskCategory(finalScore)

	outcome := Outcome{
		Verified:         true,
		CreditScore:      finalScore,
		RiskCategory:     risk,
		Recommendation:   scoring.RecommendationFor(risk),
		OwnerScore:       ownerScore,
		EntityScore:      entityScore,
		TransactionScore: transactionScore,
		Reasons:          []string{},
	}

	if blacklisted {
		outcome.reject(ReasonIdentityBlacklisted)
	}
	if subj.entity != nil && subj.entity.Suspended {
		outcome.reject(ReasonEntitySuspended)
	}
	if finalScore < rejectThreshold {
		outcome.reject(ReasonLowCreditScore)
	}
	return outcome
}

func (o *Outcome) reject(reason string) {
	o.Verified = false
	o.Recommendation = scoring.Reject
	o.Reasons = append(o.Reasons, reason)
}

// actor distinguishes gateway-authenticated calls from internal admin calls.
func (s *Service) actor(ctx context.Context) string {
	if actor := requestcontext.Actor(ctx); actor != "" {
		return actor
	}
	return audit.ActorAdmin
}
