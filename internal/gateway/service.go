package gateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	dErrors "vericred/pkg/domain-errors"
	"vericred/pkg/platform/audit"
	"vericred/pkg/platform/sentinel"
	"vericred/pkg/requestcontext"
)

// Store is the persistence interface for consumers. Satisfied by the
// implementations in internal/gateway/store.
type Store interface {
	Save(ctx context.Context, c Consumer) error
	GetByAPIKey(ctx context.Context, apiKey string) (Consumer, error)
}

// Observer receives authentication counters. Satisfied by
// internal/gateway/metrics.
type Observer interface {
	IncAuthenticated(consumer string)
	IncRejected(reason string)
}

// Service issues consumer credentials and authenticates signed requests.
type Service struct {
	store     Store
	auditor   audit.Store
	publisher audit.Publisher
	logger    *slog.Logger
	observer  Observer
}

func NewService(store Store, auditor audit.Store, publisher audit.Publisher, logger *slog.Logger, observer Observer) (*Service, error) {
	if store == nil {
		return nil, errors.New("consumer store is required")
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
	return &Service{
		store:     store,
		auditor:   auditor,
		publisher: publisher,
		logger:    logger,
		observer:  observer,
	}, nil
}

// IssueKeys registers a new consumer and returns its credentials. The secret
// is returned exactly once; only its holder can sign requests.
func (s *Service) IssueKeys(ctx context.Context, name string) (Consumer, error) {
	if name == "" {
		return Consumer{}, dErrors.New(dErrors.CodeValidation, "consumer name is required")
	}

	apiKey, err := randomToken("api_", 16)
	if err != nil {
		return Consumer{}, dErrors.Wrap(dErrors.CodeInternal, "could not generate API key", err)
	}
	secret, err := randomToken("sec_", 24)
	if err != nil {
		return Consumer{}, dErrors.Wrap(dErrors.CodeInternal, "could not generate webhook secret", err)
	}

	c := Consumer{
		ID:        uuid.NewString(),
		Name:      name,
		APIKey:    apiKey,
		Secret:    secret,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Save(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Consumer{}, dErrors.New(dErrors.CodeConflict, "generated API key conflicts, retry key issuance")
		}
		return Consumer{}, dErrors.Wrap(dErrors.CodeInternal, "could not save gateway consumer", err)
	}

	entry := audit.Entry{
		ID:        uuid.NewString(),
		Actor:     audit.ActorAdmin,
		Action:    audit.ActionIssueKeys,
		Entity:    "Consumer",
		EntityID:  c.ID,
		RequestID: requestcontext.RequestID(ctx),
		Timestamp: c.CreatedAt,
	}
	if err := s.auditor.Append(ctx, entry); err != nil {
		return Consumer{}, dErrors.Wrap(dErrors.CodeInternal, "could not record audit entry", err)
	}
	s.publisher.Publish(ctx, entry)

	s.logger.InfoContext(ctx, "gateway keys issued",
		"request_id", requestcontext.RequestID(ctx),
		"consumer", c.Name,
		"consumer_id", c.ID,
	)
	return c, nil
}

// Authenticate validates a signed request. Checks run in a fixed order so
// partners get stable failure modes: unknown key, malformed timestamp, stale
// timestamp, signature mismatch.
func (s *Service) Authenticate(ctx context.Context, apiKey, timestamp string, body []byte, signature string) (Consumer, error) {
	c, err := s.store.GetByAPIKey(ctx, apiKey)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.reject("unknown_key")
		return Consumer{}, dErrors.New(dErrors.CodeUnauthorized, "unknown API key")
	}
	if err != nil {
		return Consumer{}, dErrors.Wrap(dErrors.CodeInternal, "could not look up gateway consumer", err)
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		s.reject("malformed_timestamp")
		return Consumer{}, dErrors.New(dErrors.CodeBadRequest, "timestamp must be Unix seconds")
	}
	if drift := time.Since(time.Unix(ts, 0)); drift > MaxClockSkew || drift < -MaxClockSkew {
		s.reject("stale_timestamp")
		return Consumer{}, dErrors.New(dErrors.CodeUnauthorized, fmt.Sprintf("timestamp outside the %s window", MaxClockSkew))
	}

	if !VerifySignature(c.Secret, timestamp, body, signature) {
		s.reject("bad_signature")
		return Consumer{}, dErrors.New(dErrors.CodeUnauthorized, "signature mismatch")
	}

	if s.observer != nil {
		s.observer.IncAuthenticated(c.Name)
	}
	return c, nil
}

func (s *Service) reject(reason string) {
	if s.observer != nil {
		s.observer.IncRejected(reason)
	}
}

func randomToken(prefix string, bytes int) (string, error) {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return prefix + hex.EncodeToString(buf), nil
}
