package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/aretw0/povrewrite/pkg/ports"
)

// Locker implements ports.Locker for a single process.
type Locker struct {
	mu   sync.Mutex
	held map[string]time.Time
}

// NewLocker creates an in-process locker.
func NewLocker() *Locker {
	return &Locker{held: make(map[string]time.Time)}
}

// TryLock acquires key unless it is held and its TTL has not expired.
// A zero TTL never expires.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if expires, ok := l.held[key]; ok && (expires.IsZero() || now.Before(expires)) {
		return nil, domain.ErrOperationActive
	}

	var expires time.Time
	if ttl > 0 {
		expires = now.Add(ttl)
	}
	l.held[key] = expires

	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if held, ok := l.held[key]; ok && held.Equal(expires) {
				delete(l.held, key)
			}
		})
		return nil
	}, nil
}
