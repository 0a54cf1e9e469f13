package domain

import "context"

type RecordStore interface {
	Create(ctx context.Context, kind Kind, rec Record) (Record, error)
	GetByID(ctx context.Context, kind Kind, id string) (Record, error)
	List(ctx context.Context, kind Kind) ([]Record, error)
	// Replace swaps the whole document; there are no partial updates.
	Replace(ctx context.Context, kind Kind, id string, rec Record) (Record, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// RateLimiter checks and records one attempt for key in a single atomic step.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (Verification, error)
}

type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

type EventPublisher interface {
	PublishContact(ctx context.Context, ev ContactEvent) error
}

type Gallery interface {
	List(ctx context.Context, id string) ([]string, error)
}
