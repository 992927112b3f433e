// Package audit records who did what to which record. Entries are append-only
// and written inside the same unit of work as the mutation they describe, so a
// failed transaction leaves neither the mutation nor its audit trace behind.
package audit

import (
	"context"
	"time"
)

// Actor tags for audit entries. The verification pipeline distinguishes
// internal admin calls from gateway-authenticated external calls.
const (
	ActorAdmin   = "ADMIN"
	ActorGateway = "EXTERNAL_GATEWAY"
)

// Actions recorded by the platform.
const (
	ActionCreateIdentity  = "CREATE_IDENTITY"
	ActionCreateSecondary = "CREATE_SECONDARY"
	ActionCreateEntity    = "CREATE_ENTITY"
	ActionEvaluateCredit  = "EVALUATE_CREDIT"
	ActionIssueKeys       = "ISSUE_GATEWAY_KEYS"
)

// Entry is one immutable audit record.
type Entry struct {
	ID        string
	Actor     string
	Action    string
	Entity    string
	EntityID  string
	RequestID string
	Timestamp time.Time
}

// Store persists audit entries. Append must honor a transaction found on the
// context (pkg/platform/tx) so callers can pair it with other writes.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
}

// Publisher mirrors committed audit entries to an external sink. Publishing is
// fire-and-forget: it runs after commit and failures are logged, never
// surfaced to the caller whose mutation already succeeded.
type Publisher interface {
	Publish(ctx context.Context, entry Entry)
}

// NopPublisher discards entries; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Entry) {}
