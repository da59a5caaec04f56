package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tb0hdan/odoo-query-mcp/pkg/models"
)

const recordTimeout = 5 * time.Second

// Recorder persists executions off the request path.
type Recorder struct {
	store  Storage
	logger zerolog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewRecorder returns a recorder writing to store. A nil store drops records.
func NewRecorder(store Storage, logger zerolog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger.With().Str("component", "recorder").Logger(),
	}
}

// Record writes exec asynchronously. It deliberately ignores the request
// context so a cancelled call is still audited.
func (r *Recorder) Record(exec *models.SkillExecution) {
	if r == nil || r.store == nil || exec == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.logger.Warn().Str("skill", exec.SkillName).Msg("Recorder closed, dropping execution")
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := r.store.CreateSkillExecution(ctx, exec); err != nil {
			r.logger.Warn().Err(err).Str("skill", exec.SkillName).Msg("Failed to record execution")
		}
	}()
}

// Wait blocks until every pending write finished.
func (r *Recorder) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}

// Close stops accepting records and waits for pending writes until ctx is
// done. Each write is bounded by recordTimeout, so the waiter exits on its
// own shortly after ctx expires.
func (r *Recorder) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
