package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/tb0hdan/odoo-query-mcp/pkg/models"
)

func TestRecorder_Record(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	rec := NewRecorder(store, zerolog.Nop())
	for i := 0; i < 3; i++ {
		rec.Record(&models.SkillExecution{SkillName: "crm_pipeline", Success: true})
	}
	rec.Wait()

	_, total, err := store.GetSkillExecutions(context.Background(), ExecutionFilter{SkillName: "crm_pipeline"}, 10, 0)
	if err != nil {
		t.Fatalf("failed to list executions: %v", err)
	}
	if total != 3 {
		t.Errorf("expected 3 recorded executions, got %d", total)
	}
}

func TestRecorder_NilStore(t *testing.T) {
	rec := NewRecorder(nil, zerolog.Nop())
	rec.Record(&models.SkillExecution{SkillName: "crm_pipeline"})
	rec.Wait()

	var nilRec *Recorder
	nilRec.Record(&models.SkillExecution{})
	nilRec.Wait()
}

// blockingStore holds every write until release is closed.
type blockingStore struct {
	Storage
	release chan struct{}
}

func (b *blockingStore) CreateSkillExecution(ctx context.Context, _ *models.SkillExecution) error {
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestRecorder_CloseDropsLateRecords(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	rec := NewRecorder(store, zerolog.Nop())
	rec.Record(&models.SkillExecution{SkillName: "crm_pipeline"})
	if err := rec.Close(context.Background()); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	rec.Record(&models.SkillExecution{SkillName: "crm_pipeline"})
	rec.Wait()

	_, total, err := store.GetSkillExecutions(context.Background(), ExecutionFilter{}, 10, 0)
	if err != nil {
		t.Fatalf("failed to list executions: %v", err)
	}
	if total != 1 {
		t.Errorf("expected only the record made before Close, got %d", total)
	}
}

func TestRecorder_CloseHonoursContext(t *testing.T) {
	store := &blockingStore{release: make(chan struct{})}
	rec := NewRecorder(store, zerolog.Nop())
	rec.Record(&models.SkillExecution{SkillName: "crm_pipeline"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := rec.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	close(store.release)
	rec.Wait()
}
