package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/kv"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/session"
)

// App is the state shared by every command of one process run.
type App struct {
	Store    kv.Store
	Sessions *session.Manager
	Currency string
	Out      io.Writer
	Err      io.Writer
	Now      func() time.Time

	logger    *log.Logger
	publisher services.Publisher
	closers   []func() error
}

// NewApp opens the configured backend and, when AMQP_URL is set, the change
// event publisher. A broker that cannot be reached only disables events.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	app := NewAppWithStore(result.Store, logger)
	app.Currency = cfg.Currency
	app.closers = append(app.closers, result.Close)

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
		} else {
			app.publisher = client
			app.closers = append(app.closers, client.Close)
		}
	}
	return app, nil
}

// NewAppWithStore builds an App over an already opened store.
func NewAppWithStore(store kv.Store, logger *log.Logger) *App {
	if logger == nil {
		logger = log.Discard()
	}
	return &App{
		Store:    store,
		Sessions: session.NewManager(store, session.WithLogger(logger)),
		Currency: core.DefaultCurrency,
		Out:      os.Stdout,
		Err:      os.Stderr,
		Now:      time.Now,
		logger:   logger.WithComponent(log.ComponentCLI),
	}
}

// Close releases the backend and the publisher.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// UserID returns the signed-in user, or the anonymous marker.
func (a *App) UserID(ctx context.Context) (string, error) {
	p, err := a.Sessions.Current(ctx)
	if errors.Is(err, session.ErrNotSignedIn) {
		return kv.AnonymousUser, nil
	}
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// Services returns the services scoped to the current user.
func (a *App) Services(ctx context.Context) (*services.Services, error) {
	userID, err := a.UserID(ctx)
	if err != nil {
		return nil, err
	}
	return services.New(a.Store, userID,
		services.WithClock(a.Now),
		services.WithPublisher(a.publisher),
		services.WithLogger(a.logger)), nil
}

// Money formats an amount in the configured currency.
func (a *App) Money(m core.Money) string {
	return m.Format(a.Currency)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.Out, format, args...)
}

// fail reports err on the error stream and maps it to an exit status.
func (a *App) fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(a.Err, "Error: %v\n", err)
	a.logger.Debug("Command failed", log.FieldError, err, log.FieldErrorType, errorType(err))
	if errors.Is(err, core.ErrValidation) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

func errorType(err error) string {
	switch {
	case errors.Is(err, core.ErrValidation):
		return log.ErrorTypeValidation
	case errors.Is(err, core.ErrIntegrityViolation):
		return log.ErrorTypeIntegrity
	case errors.Is(err, core.ErrNotFound):
		return log.ErrorTypeNotFound
	case errors.Is(err, core.ErrBackendUnavailable):
		return log.ErrorTypeConfiguration
	}
	return ""
}

func (a *App) usage(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(a.Err, "Error: "+format+"\n", args...)
	return subcommands.ExitUsageError
}

// Commands returns every fintrack command bound to app, with its group.
func Commands(app *App) map[string][]subcommands.Command {
	return map[string][]subcommands.Command{
		"session": {
			&registerCmd{app: app}, &loginCmd{app: app}, &logoutCmd{app: app}, &whoamiCmd{app: app},
			&profileCmd{app: app}, &profileEditCmd{app: app},
		},
		"accounts": {
			&accountsCmd{app: app}, &accountAddCmd{app: app}, &accountEditCmd{app: app},
			&accountCloseCmd{app: app}, &accountReopenCmd{app: app}, &accountDeleteCmd{app: app},
		},
		"cards": {
			&cardsCmd{app: app}, &cardAddCmd{app: app}, &cardEditCmd{app: app}, &cardCancelCmd{app: app},
			&cardReactivateCmd{app: app}, &cardDeleteCmd{app: app},
		},
		"budgets": {
			&budgetsCmd{app: app}, &budgetAddCmd{app: app},
			&budgetEditCmd{budgetAddCmd: budgetAddCmd{app: app}}, &budgetDeleteCmd{app: app},
		},
		"transactions": {
			&expenseAddCmd{app: app}, &expenseEditCmd{expenseAddCmd: expenseAddCmd{app: app}},
			&incomeAddCmd{app: app}, &incomeEditCmd{incomeAddCmd: incomeAddCmd{app: app}},
			&transactionDeleteCmd{app: app}, &transactionsCmd{app: app},
		},
		"reports": {&overviewCmd{app: app}},
		"backup":  {&exportCmd{app: app}, &importCmd{app: app}},
	}
}

// Register adds every command to the commander.
func Register(c *subcommands.Commander, app *App) {
	for group, cmds := range Commands(app) {
		for _, cmd := range cmds {
			c.Register(cmd, group)
		}
	}
}

// parseDate accepts YYYY-MM-DD and defaults to today.
func (a *App) parseDate(s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.DateOf(a.Now()), nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}
	return d, nil
}

// idFlag registers the common -id flag.
func idFlag(f *flag.FlagSet, p *string, what string) {
	f.StringVar(p, "id", "", what+" id (required)")
}

// visited returns the flags given on the command line, so edit commands
// change only what was asked for.
func visited(f *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return set
}

// splitList splits a comma separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
