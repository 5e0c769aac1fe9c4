package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/core"
	"fintrack/internal/kv"
	"fintrack/internal/kv/memory"
	"fintrack/internal/repository"
)

var april2024 = time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC)

type staticUsers []core.Profile

func (s staticUsers) Users(context.Context) ([]core.Profile, error) { return s, nil }

type failingUsers struct{}

func (failingUsers) Users(context.Context) ([]core.Profile, error) {
	return nil, errors.New("users db unreadable")
}

func seedCards(t *testing.T, store kv.Store, userID string, cards ...core.CreditCard) {
	t.Helper()
	repo := repository.NewCreditCards(kv.Namespace(store, userID))
	if err := repo.SaveAll(context.Background(), cards); err != nil {
		t.Fatal(err)
	}
}

func statusOf(t *testing.T, store kv.Store, userID, cardID string) core.CreditCard {
	t.Helper()
	c, err := repository.NewCreditCards(kv.Namespace(store, userID)).Get(context.Background(), cardID)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSweepAll(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedCards(t, store, "user-a",
		core.CreditCard{ID: "card-old", Status: core.StatusActive, Expiry: &core.Expiry{Month: 3, Year: 2024}},
		core.CreditCard{ID: "card-new", Status: core.StatusActive, Expiry: &core.Expiry{Month: 4, Year: 2024}},
	)
	seedCards(t, store, "user-b",
		core.CreditCard{ID: "card-b", Status: core.StatusActive, Expiry: &core.Expiry{Month: 1, Year: 2020}},
	)
	seedCards(t, store, kv.AnonymousUser,
		core.CreditCard{ID: "card-anon", Status: core.StatusActive, Expiry: &core.Expiry{Month: 1, Year: 2021}},
	)

	w := NewExpirySweeper(store, staticUsers{{ID: "user-a"}, {ID: "user-b"}}, nil).
		WithClock(func() time.Time { return april2024 })

	n, err := w.SweepAll(ctx)
	if err != nil {
		t.Fatalf("SweepAll() error = %v", err)
	}
	if n != 3 {
		t.Errorf("SweepAll() changed %d cards, want 3", n)
	}
	if c := statusOf(t, store, "user-a", "card-old"); c.IsActive() || c.CancellationReason != core.ReasonExpired {
		t.Errorf("card-old = %+v", c)
	}
	if c := statusOf(t, store, "user-a", "card-new"); !c.IsActive() {
		t.Errorf("card-new deactivated: %+v", c)
	}

	n, err = w.SweepAll(ctx)
	if err != nil || n != 0 {
		t.Errorf("second SweepAll() = %d, %v", n, err)
	}
}

func TestSweepKeepsCardsWrittenByAnotherProcess(t *testing.T) {
	ctx := context.Background()
	cfg := backend.Config{
		Type:         backend.LocalBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "fintrack.db"),
		CacheSize:    8,
		CacheTTL:     time.Hour,
	}
	f := backend.NewFactory(nil)
	workerDB, err := f.CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer workerDB.Close()
	cliDB, err := f.CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer cliDB.Close()

	seedCards(t, cliDB.Store, "user-a",
		core.CreditCard{ID: "card-old", Status: core.StatusActive, Expiry: &core.Expiry{Month: 3, Year: 2024}})

	now := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)
	w := NewExpirySweeper(workerDB.Store, staticUsers{{ID: "user-a"}}, nil).
		WithClock(func() time.Time { return now })
	if n, err := w.SweepUser(ctx, "user-a"); err != nil || n != 0 {
		t.Fatalf("SweepUser() in March = %d, %v", n, err)
	}

	seedCards(t, cliDB.Store, "user-a",
		core.CreditCard{ID: "card-old", Status: core.StatusActive, Expiry: &core.Expiry{Month: 3, Year: 2024}},
		core.CreditCard{ID: "card-added", Status: core.StatusActive, Expiry: &core.Expiry{Month: 1, Year: 2027}})

	now = april2024
	if n, err := w.SweepUser(ctx, "user-a"); err != nil || n != 1 {
		t.Fatalf("SweepUser() in April = %d, %v", n, err)
	}
	if c := statusOf(t, cliDB.Store, "user-a", "card-old"); c.IsActive() {
		t.Errorf("card-old still active: %+v", c)
	}
	if c := statusOf(t, cliDB.Store, "user-a", "card-added"); !c.IsActive() {
		t.Errorf("card-added = %+v, want kept and active", c)
	}
}

func TestSweepAllUserListFailure(t *testing.T) {
	w := NewExpirySweeper(memory.New(), failingUsers{}, nil)
	if _, err := w.SweepAll(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestHandleChange(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	w := NewExpirySweeper(store, staticUsers{}, nil).WithClock(func() time.Time { return april2024 })

	tests := []struct {
		name       string
		event      amqp.ChangeEvent
		wantActive bool
	}{
		{"budget change is ignored", amqp.ChangeEvent{UserID: "user-a", Collection: "budgets", Operation: "create"}, true},
		{"expire event is ignored", amqp.ChangeEvent{UserID: "user-a", Collection: "credit-cards", Operation: "expire"}, true},
		{"card change sweeps", amqp.ChangeEvent{UserID: "user-a", Collection: "credit-cards", Operation: "update"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seedCards(t, store, "user-a",
				core.CreditCard{ID: "card-1", Status: core.StatusActive, Expiry: &core.Expiry{Month: 2, Year: 2024}})

			if err := w.HandleChange(ctx, &tt.event); err != nil {
				t.Fatalf("HandleChange() error = %v", err)
			}
			if got := statusOf(t, store, "user-a", "card-1").IsActive(); got != tt.wantActive {
				t.Errorf("active = %v, want %v", got, tt.wantActive)
			}
		})
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := memory.New()
	seedCards(t, store, kv.AnonymousUser,
		core.CreditCard{ID: "card-1", Status: core.StatusActive, Expiry: &core.Expiry{Month: 2, Year: 2024}})
	w := NewExpirySweeper(store, staticUsers{}, nil).WithClock(func() time.Time { return april2024 })

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, time.Hour) }()

	deadline := time.After(2 * time.Second)
	for statusOf(t, store, kv.AnonymousUser, "card-1").IsActive() {
		select {
		case <-deadline:
			t.Fatal("startup sweep did not run")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop")
	}
}
