// Package services combines the repositories with the integrity rules. Each
// service is scoped to one user's namespace of the store.
package services

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/kv"
	"fintrack/internal/log"
	"fintrack/internal/repository"
)

// Publisher receives a change event after every successful mutation.
// *amqp.Client satisfies it.
type Publisher interface {
	PublishChange(ctx context.Context, event amqp.ChangeEvent) error
}

// Option configures Services.
type Option func(*options)

type options struct {
	now       func() time.Time
	publisher Publisher
	logger    *log.Logger
}

// WithClock injects the time source used by expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithPublisher enables change events. A nil publisher disables them.
func WithPublisher(p Publisher) Option {
	return func(o *options) { o.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Services bundles every service of one user.
type Services struct {
	UserID       string
	Accounts     *AccountService
	CreditCards  *CreditCardService
	Budgets      *BudgetService
	Transactions *TransactionService
	Profile      *ProfileService
	Repos        *repository.Set
}

// New scopes store to userID and wires the services over it.
func New(store kv.Store, userID string, opts ...Option) *Services {
	o := options{now: time.Now, logger: log.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	ns := kv.Namespace(store, userID)
	b := &base{
		userID:    ns.UserID(),
		repos:     repository.NewSet(ns),
		now:       o.now,
		publisher: o.publisher,
		logger:    o.logger.WithUser(ns.UserID()),
	}

	cards := &CreditCardService{base: b.component(log.ComponentCards)}
	accounts := &AccountService{base: b.component(log.ComponentAccounts), cards: cards}
	return &Services{
		UserID:       b.userID,
		Accounts:     accounts,
		CreditCards:  cards,
		Budgets:      &BudgetService{base: b.component(log.ComponentBudgets)},
		Transactions: &TransactionService{base: b.component(log.ComponentLedger)},
		Profile:      &ProfileService{base: b.component(log.ComponentProfile)},
		Repos:        b.repos,
	}
}

type base struct {
	userID    string
	repos     *repository.Set
	now       func() time.Time
	publisher Publisher
	logger    *log.Logger
}

func (b *base) component(name string) *base {
	c := *b
	c.logger = b.logger.WithComponent(name)
	return &c
}

// changed logs a mutation and publishes its event. Publish failures are
// logged and never returned.
func (b *base) changed(ctx context.Context, collection, op, id string) {
	b.logger.InfoContext(ctx, "Entity changed",
		log.NewFields().WithOperation(op).WithEntity(collection, id).ToSlice()...)
	if b.publisher == nil {
		return
	}
	event := amqp.ChangeEvent{
		UserID:     b.userID,
		Collection: collection,
		Operation:  op,
		EntityID:   id,
		Timestamp:  b.now(),
	}
	if err := b.publisher.PublishChange(ctx, event); err != nil {
		b.logger.ErrorContext(ctx, "Failed to publish change event",
			log.NewFields().WithOperation(op).WithEntity(collection, id).
				WithError(err).WithErrorType(log.ErrorTypeNetwork).ToSlice()...)
	}
}

// refused logs a rule violation at warn and returns err unchanged.
func (b *base) refused(ctx context.Context, op string, err error) error {
	var ie *core.IntegrityError
	if errors.As(err, &ie) {
		b.logger.WarnContext(ctx, "Mutation refused",
			log.NewFields().WithOperation(op).WithRule(ie.Rule, ie.Reason).
				WithErrorType(log.ErrorTypeIntegrity).ToSlice()...)
	}
	return err
}

// exists reports whether lookup found its target, passing through other errors.
func exists(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, core.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
