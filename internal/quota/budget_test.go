package quota

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/westend/backend/internal/kv"
)

func TestBudgetRefusesAtLimit(t *testing.T) {
	ctx := context.Background()
	b := NewBudget(kv.NewMemoryStore(time.Minute), 1000, zerolog.Nop())

	ok, err := b.Allow(ctx)
	if err != nil || !ok {
		t.Fatalf("expected fresh budget to allow, ok=%v err=%v", ok, err)
	}
	if _, err := b.Record(ctx, 600); err != nil {
		t.Fatalf("record: %v", err)
	}
	if ok, _ := b.Allow(ctx); !ok {
		t.Fatalf("expected 600/1000 to allow")
	}
	used, err := b.Record(ctx, 400)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if used != 1000 {
		t.Fatalf("expected 1000 used, got %d", used)
	}
	if ok, _ := b.Allow(ctx); ok {
		t.Fatalf("expected budget to refuse once limit reached")
	}
}

func TestBudgetWindowResets(t *testing.T) {
	ctx := context.Background()
	b := NewBudget(kv.NewMemoryStore(time.Minute), 100, zerolog.Nop())
	b.Window = 30 * time.Millisecond

	if _, err := b.Record(ctx, 100); err != nil {
		t.Fatalf("record: %v", err)
	}
	if ok, _ := b.Allow(ctx); ok {
		t.Fatalf("expected refusal inside window")
	}
	time.Sleep(60 * time.Millisecond)
	if ok, _ := b.Allow(ctx); !ok {
		t.Fatalf("expected budget to reopen after window")
	}
	used, limit, err := b.Usage(ctx)
	if err != nil || used != 0 || limit != 100 {
		t.Fatalf("expected 0/100 after reset, got %d/%d err=%v", used, limit, err)
	}
}

func TestBudgetRecordZeroIsNoop(t *testing.T) {
	ctx := context.Background()
	b := NewBudget(kv.NewMemoryStore(time.Minute), 100, zerolog.Nop())
	used, err := b.Record(ctx, 0)
	if err != nil || used != 0 {
		t.Fatalf("expected no-op, got %d err=%v", used, err)
	}
	if _, ok, _ := b.Store.Get(ctx, DefaultKey); ok {
		t.Fatalf("zero usage must not open a window")
	}
}
