package claim

import (
	"context"
	"errors"
	"time"
)

// ErrStoreUnavailable wraps failures talking to the claims datastore.
var ErrStoreUnavailable = errors.New("claims store unavailable")

// Submission is one stored claims row.
type Submission struct {
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submitted_at"`
	Fields      Record    `json:"fields"`
}

// Store persists finalized claims. Each Insert adds a new row; there is no
// deduplication.
type Store interface {
	Insert(ctx context.Context, rec Record) (*Submission, error)
	// List returns rows newest first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]Submission, error)
	Ping(ctx context.Context) error
}

// Publisher emits claim events to the message bus.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}
