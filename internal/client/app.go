package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/MKhiriev/go-record-sync/internal/adapter"
	"github.com/MKhiriev/go-record-sync/internal/config"
	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/service"
	"github.com/MKhiriev/go-record-sync/internal/store"
	"github.com/MKhiriev/go-record-sync/internal/tui"
	"github.com/MKhiriev/go-record-sync/internal/utils"
	"github.com/MKhiriev/go-record-sync/internal/workers"
	"github.com/MKhiriev/go-record-sync/models"
)

const usage = `usage: recordsync [flags] <command> [args]

commands:
  push                               push pending outbox entries once
  watch                              push pending outbox entries periodically
  enqueue <Type> <LocalKey> <json>   save a local entity in the outbox
  pull <Type> <Id> <Field>...        print one remote record
  query <statement>                  print every record a statement selects
  browse <Type> <Field>...           browse records interactively
  browse <statement>
  delete <Type> <Id>...              delete remote records
  failures [limit]                   print recent sync failures`

const defaultFailuresLimit = 20

type App struct {
	remote   adapter.RemoteStore
	storages *store.Storages
	ui       *tui.TUI

	pushJob service.PushJob
	queries service.QueryService
	worker  *workers.PushWorker

	retry int
	args  []string
	out   io.Writer

	logger *logger.Logger
}

// NewApp builds the application around already constructed dependencies.
// ui may be nil when the browse command is not needed.
func NewApp(remote adapter.RemoteStore, storages *store.Storages, ui *tui.TUI, cfg *config.ClientConfig, log *logger.Logger) (*App, error) {
	if remote == nil || storages == nil || cfg == nil {
		return nil, fmt.Errorf("client: remote store, storages and config are required")
	}
	if log == nil {
		log = logger.Nop()
	}

	job := service.NewPushJob(storages, remote, cfg.Sync.Retry, cfg.Sync.BatchSize, log)
	return &App{
		remote:   remote,
		storages: storages,
		ui:       ui,
		pushJob:  job,
		queries:  service.NewQueryService(remote, remote, nil, log),
		worker:   workers.NewPushWorker(job, cfg.Workers.SyncInterval, log),
		retry:    cfg.Sync.Retry,
		args:     cfg.Args,
		out:      os.Stdout,
		logger:   log.WithComponent("client"),
	}, nil
}

// SetOutput redirects command output, stdout by default.
func (a *App) SetOutput(w io.Writer) {
	a.out = w
}

func (a *App) Run(ctx context.Context) error {
	if len(a.args) == 0 {
		return fmt.Errorf("%w\n%s", ErrUsage, usage)
	}

	command, args := a.args[0], a.args[1:]
	traceID := uuid.NewString()
	ctx = context.WithValue(ctx, utils.TraceIDCtxKey, traceID)
	a.logger.Debug().
		Str("command", command).
		Strs("args", args).
		Str("trace_id", traceID).
		Msg("running command")

	switch command {
	case "push":
		return a.push(ctx)
	case "watch":
		return workers.NewWorkers(a.worker).Run(ctx)
	case "enqueue":
		return a.enqueue(ctx, args)
	case "pull":
		return a.pull(ctx, args)
	case "query":
		return a.query(ctx, args)
	case "browse":
		return a.browse(ctx, args)
	case "delete":
		return a.delete(ctx, args)
	case "failures":
		return a.failures(ctx, args)
	case "help":
		_, err := fmt.Fprintln(a.out, usage)
		return err
	}
	return fmt.Errorf("%w: %q\n%s", ErrUnknownCommand, command, usage)
}

func (a *App) push(ctx context.Context) error {
	report, err := a.pushJob.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("push outbox: %w", err)
	}
	_, err = fmt.Fprintf(a.out, "pushed %d, failed %d\n", report.Pushed, report.Failed)
	return err
}

func (a *App) enqueue(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: enqueue <Type> <LocalKey> <json>", ErrUsage)
	}

	fields := make(map[string]any)
	if err := json.Unmarshal([]byte(args[2]), &fields); err != nil {
		return fmt.Errorf("%w: fields must be a JSON object: %w", ErrUsage, err)
	}
	entry := models.OutboxEntry{ObjectType: args[0], LocalKey: args[1], Fields: fields}
	if id, ok := fields[models.FieldID].(string); ok {
		entry.RemoteID = id
		delete(fields, models.FieldID)
	}

	saved, err := a.storages.Outbox.Save(ctx, entry)
	if err != nil {
		return fmt.Errorf("save outbox entry: %w", err)
	}
	return a.print(saved)
}

func (a *App) pull(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: pull <Type> <Id> <Field>...", ErrUsage)
	}

	rec, err := service.NewSyncEngine(args[0], nil, a.remote, a.logger).
		WithPullFields(args[2:]...).
		Pull(ctx, args[1])
	if err != nil {
		return fmt.Errorf("pull %s %s: %w", args[0], args[1], err)
	}
	if rec == nil {
		return fmt.Errorf("%w: %s %s", ErrRecordNotFound, args[0], args[1])
	}
	return a.print(rec)
}

func (a *App) query(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: query <statement>", ErrUsage)
	}

	c, err := a.queries.Query(ctx, models.Query{Raw: strings.Join(args, " ")})
	if err != nil {
		return err
	}
	records, err := c.All(ctx)
	if err != nil {
		return fmt.Errorf("read query results: %w", err)
	}
	if records == nil {
		records = []models.Record{}
	}
	return a.print(records)
}

func (a *App) browse(ctx context.Context, args []string) error {
	if a.ui == nil {
		return fmt.Errorf("client: browse needs a terminal ui")
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: browse <Type> <Field>... | browse <statement>", ErrUsage)
	}

	q := models.Query{ObjectType: args[0], Fields: args[1:]}
	if strings.EqualFold(args[0], "select") || len(args) == 1 && strings.Contains(args[0], " ") {
		q = models.Query{Raw: strings.Join(args, " ")}
	}
	return a.ui.Browse(ctx, q)
}

func (a *App) delete(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: delete <Type> <Id>...", ErrUsage)
	}

	results, err := service.NewSyncEngine(args[0], a.remote, nil, a.logger).Delete(ctx, args[1:]...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", args[0], err)
	}
	return a.print(results)
}

func (a *App) failures(ctx context.Context, args []string) error {
	limit := defaultFailuresLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: failures [limit]", ErrUsage)
		}
		limit = n
	}

	list, err := a.storages.Failures.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("list sync failures: %w", err)
	}
	if list == nil {
		list = []models.SyncFailure{}
	}
	return a.print(list)
}

func (a *App) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
