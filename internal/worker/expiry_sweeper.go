package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/kv"
	"fintrack/internal/log"
	"fintrack/internal/repository"
	"fintrack/internal/services"
)

// UserLister lists the users whose namespaces are swept. *session.Manager satisfies it.
type UserLister interface {
	Users(ctx context.Context) ([]core.Profile, error)
}

// ExpirySweeper applies credit-card expiry maintenance outside of user requests.
type ExpirySweeper struct {
	store       kv.Store
	users       UserLister
	now         func() time.Time
	concurrency int
	logger      *log.Logger
}

func NewExpirySweeper(store kv.Store, users UserLister, logger *log.Logger) *ExpirySweeper {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExpirySweeper{
		store:       store,
		users:       users,
		now:         time.Now,
		concurrency: 4,
		logger:      logger.WithComponent(log.ComponentWorker),
	}
}

// WithClock replaces the time source.
func (w *ExpirySweeper) WithClock(now func() time.Time) *ExpirySweeper {
	w.now = now
	return w
}

// SweepUser expires the cards of one user and returns how many changed.
func (w *ExpirySweeper) SweepUser(ctx context.Context, userID string) (int, error) {
	svc := services.New(w.store, userID,
		services.WithClock(w.now),
		services.WithLogger(w.logger))
	n, err := svc.CreditCards.ExpireNow(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep %s: %w", userID, err)
	}
	if n > 0 {
		w.logger.InfoContext(ctx, "Expired credit cards",
			log.FieldUserID, userID, log.FieldCount, n)
	}
	return n, nil
}

// SweepAll sweeps every registered user plus the anonymous namespace.
// A failing user does not stop the others; their errors are joined.
func (w *ExpirySweeper) SweepAll(ctx context.Context) (int, error) {
	profiles, err := w.users.Users(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	ids := make([]string, 0, len(profiles)+1)
	ids = append(ids, kv.AnonymousUser)
	for _, p := range profiles {
		ids = append(ids, p.ID)
	}

	var (
		total int64
		errs  = make([]error, len(ids))
		g     errgroup.Group
	)
	g.SetLimit(w.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			n, err := w.SweepUser(ctx, id)
			errs[i] = err
			atomic.AddInt64(&total, int64(n))
			return nil
		})
	}
	_ = g.Wait()

	w.logger.InfoContext(ctx, "Expiry sweep finished",
		log.FieldOperation, log.OpSweep, "users", len(ids), log.FieldCount, total)
	return int(total), errors.Join(errs...)
}

// HandleChange sweeps the event's user when a card or account changed.
// Expiry events are ignored so the sweeper never reacts to its own work.
func (w *ExpirySweeper) HandleChange(ctx context.Context, event *amqp.ChangeEvent) error {
	switch event.Collection {
	case repository.CollectionCreditCards, repository.CollectionAccounts:
	default:
		return nil
	}
	if event.Operation == log.OpExpire {
		return nil
	}
	_, err := w.SweepUser(ctx, event.UserID)
	return err
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (w *ExpirySweeper) Run(ctx context.Context, interval time.Duration) error {
	if _, err := w.SweepAll(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup sweep failed", log.FieldError, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.SweepAll(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic sweep failed", log.FieldError, err)
			}
		}
	}
}
