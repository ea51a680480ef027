package session

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyID is returned when saving a record without a session id.
var ErrEmptyID = errors.New("session: empty session id")

// Store abstracts session persistence for the Sessions middleware.
// Implementations must be safe for concurrent use. A missing or expired record
// is reported as ok == false with a nil error.
type Store interface {
	Get(ctx context.Context, id string) (data map[string]any, ok bool, err error)
	Save(ctx context.Context, id string, data map[string]any, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// Pinger is implemented by stores that can report whether their backend is
// reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func copyMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
