package sweeper_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/oficiohq/oficio/internal/correspondence"
	"github.com/oficiohq/oficio/internal/store"
	"github.com/oficiohq/oficio/internal/sweeper"
	"github.com/oficiohq/oficio/pkg/clock"
	"github.com/oficiohq/oficio/pkg/pagination"
)

var policy = correspondence.Policy{
	DefaultDays:     5,
	AtRiskPercent:   70,
	CriticalPercent: 90,
}

func newSweepFixture(t *testing.T, fake *clock.Fake) (*sweeper.Sweeper, correspondence.System) {
	t.Helper()

	mem := store.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pageCfg := pagination.Config{DefaultPageSize: 20, MaxPageSize: 200}
	sys := correspondence.New(mem, fake, policy, nil, logger, pageCfg)

	cfg := &sweeper.Config{Enabled: true}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("config Finalize: %v", err)
	}

	return sweeper.New(sys, mem, fake, logger, cfg), sys
}

func TestSweepExpiresOverdueRecords(t *testing.T) {
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	fake := clock.NewFake(base)
	sw, sys := newSweepFixture(t, fake)
	ctx := context.Background()

	stale, err := sys.Create(ctx, correspondence.CreateCommand{
		Subject: "Solicitud antigua",
		Sender:  "ana@example.com",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	fake.Advance(3 * 24 * time.Hour)
	fresh, err := sys.Create(ctx, correspondence.CreateCommand{
		Subject: "Solicitud reciente",
		Sender:  "maria@example.com",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Six days after the first record: past its deadline, the second
	// record still inside its window.
	fake.Advance(3 * 24 * time.Hour)

	n, err := sw.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Sweep() = %d, want 1 expired record", n)
	}

	got, err := sys.Find(ctx, stale.ID)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got.Stage != correspondence.StageExpired {
		t.Errorf("stale record stage = %s, want expired", got.Stage)
	}

	got, err = sys.Find(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got.Stage != correspondence.StageReceived {
		t.Errorf("fresh record stage = %s, want received", got.Stage)
	}

	history, err := sys.History(ctx, stale.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 || history[0].Actor != sweeper.Actor {
		t.Errorf("history = %+v, want one sweep-attributed entry", history)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	fake := clock.NewFake(base)
	sw, sys := newSweepFixture(t, fake)
	ctx := context.Background()

	rec, err := sys.Create(ctx, correspondence.CreateCommand{
		Subject: "Solicitud",
		Sender:  "ana@example.com",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	fake.Advance(10 * 24 * time.Hour)

	if n, err := sw.Sweep(ctx); err != nil || n != 1 {
		t.Fatalf("first Sweep() = %d, %v, want 1, nil", n, err)
	}
	if n, err := sw.Sweep(ctx); err != nil || n != 0 {
		t.Fatalf("second Sweep() = %d, %v, want 0, nil", n, err)
	}

	history, err := sys.History(ctx, rec.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 {
		t.Errorf("history length = %d, repeat sweeps must not append", len(history))
	}
}

func TestSweepEmptyStore(t *testing.T) {
	fake := clock.NewFake(time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC))
	sw, _ := newSweepFixture(t, fake)

	if n, err := sw.Sweep(context.Background()); err != nil || n != 0 {
		t.Errorf("Sweep() on empty store = %d, %v, want 0, nil", n, err)
	}
}
