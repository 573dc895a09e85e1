package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/futig/rag-assistant/internal/config"
	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/metrics"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Factory builds a new session bound to ctx
type Factory func(ctx context.Context, id string) *Session

// Registry keeps sessions in memory and closes those idle for longer than the TTL.
// A session waiting for the backend is never closed for being idle.
type Registry struct {
	ctx     context.Context
	cache   *cache.Cache
	factory Factory
	logger  *zap.Logger

	// serializes GetOrCreate so one id never gets two sessions
	mu      sync.Mutex
	closing atomic.Bool
}

func NewRegistry(ctx context.Context, cfg config.SessionConfig, factory Factory, logger *zap.Logger) *Registry {
	r := &Registry{
		ctx:     ctx,
		cache:   cache.New(cfg.TTL, cfg.CleanupInterval),
		factory: factory,
		logger:  logger,
	}
	r.cache.OnEvicted(r.evicted)

	return r
}

// evicted runs outside the cache lock, so a busy session can be put back
func (r *Registry) evicted(id string, value any) {
	s, ok := value.(*Session)
	if !ok {
		return
	}

	// Add fails when GetOrCreate has already replaced the entry
	if !r.closing.Load() && s.ctx.Err() == nil && s.Busy() {
		if err := r.cache.Add(id, s, cache.DefaultExpiration); err == nil {
			r.logger.Debug("busy session kept past its TTL", zap.String("session_id", id))
			return
		}
	}

	s.Close()
	metrics.ActiveSessions.Dec()
	r.logger.Debug("session evicted", zap.String("session_id", id))
}

// GetOrCreate returns the session for id, creating it when missing.
// Every call restarts the idle timer.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if value, ok := r.cache.Get(id); ok {
		s := value.(*Session)
		r.cache.SetDefault(id, s)
		return s
	}

	// an expired entry would otherwise be overwritten without its eviction hook
	r.cache.DeleteExpired()
	if value, ok := r.cache.Get(id); ok {
		return value.(*Session)
	}

	s := r.factory(r.ctx, id)
	r.cache.SetDefault(id, s)
	metrics.ActiveSessions.Inc()
	r.logger.Debug("session created", zap.String("session_id", id))

	return s
}

// Touch restarts the idle timer of a live session, e.g. while a browser tab keeps it open
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if value, ok := r.cache.Get(id); ok {
		r.cache.SetDefault(id, value)
	}
}

// Get returns an existing session without creating one
func (r *Registry) Get(id string) (*Session, error) {
	value, ok := r.cache.Get(id)
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return value.(*Session), nil
}

// Delete closes and forgets a session
func (r *Registry) Delete(id string) {
	if value, ok := r.cache.Get(id); ok {
		value.(*Session).Close()
	}
	r.cache.Delete(id)
}

func (r *Registry) Count() int {
	return r.cache.ItemCount()
}

// Close closes every session, e.g. on shutdown
func (r *Registry) Close() {
	r.closing.Store(true)
	r.cache.DeleteExpired()
	for id := range r.cache.Items() {
		r.cache.Delete(id)
	}
}
