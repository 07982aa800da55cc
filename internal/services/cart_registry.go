package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CartRegistry keeps one CartService per remote session so calls on a
// session stay sequential across requests. It is process-local.
type CartRegistry struct {
	mu      sync.Mutex
	carts   map[string]*CartService
	client  BokunAPI
	audit   AuditSink
	idleTTL time.Duration
	logger  *logrus.Logger
}

// NewCartRegistry creates a new cart registry
func NewCartRegistry(client BokunAPI, audit AuditSink, idleTTL time.Duration, logger *logrus.Logger) *CartRegistry {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &CartRegistry{
		carts:   make(map[string]*CartService),
		client:  client,
		audit:   audit,
		idleTTL: idleTTL,
		logger:  logger,
	}
}

// Open returns the session's cart, fetching it from Bokun on first use.
// An empty sessionID starts a new session.
func (r *CartRegistry) Open(ctx context.Context, sessionID string) (*CartService, error) {
	if sessionID != "" {
		if cart, ok := r.Get(sessionID); ok {
			return cart, nil
		}
	}

	cart, err := OpenCart(ctx, r.client, sessionID, r.audit, r.logger)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// another request may have opened the same session meanwhile
	if existing, ok := r.carts[cart.SessionID()]; ok {
		return existing, nil
	}
	r.carts[cart.SessionID()] = cart

	return cart, nil
}

// Get returns a registered cart
func (r *CartRegistry) Get(sessionID string) (*CartService, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[sessionID]
	return cart, ok
}

// Remove discards a session, typically after confirmation
func (r *CartRegistry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, sessionID)
}

// Len returns the number of registered sessions
func (r *CartRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.carts)
}

// EvictIdle drops sessions unused for longer than the idle TTL. The remote
// carts are left as they are.
func (r *CartRegistry) EvictIdle(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, cart := range r.carts {
		if now.Sub(cart.LastUsed()) > r.idleTTL {
			delete(r.carts, id)
			evicted++
		}
	}

	if evicted > 0 {
		r.logger.WithFields(logrus.Fields{
			"evicted":   evicted,
			"remaining": len(r.carts),
		}).Info("Evicted idle cart sessions")
	}

	return evicted
}
