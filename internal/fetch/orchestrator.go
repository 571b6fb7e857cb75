package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/raphaelgruber/staffdash/internal/gateway"
	"github.com/raphaelgruber/staffdash/internal/metrics"
)

// Defaults for Options fields left at zero.
const (
	DefaultPageSize    = 100
	DefaultFanOutLimit = 4
	DefaultFanOutWarn  = 50
)

// Options configures an Orchestrator.
type Options struct {
	PageSize    int
	FanOutLimit int
	FanOutWarn  int
	Logger      *slog.Logger
	Collector   *metrics.Collector
}

// Orchestrator runs fetch tasks concurrently against a gateway.
type Orchestrator struct {
	gw          gateway.Resources
	pageSize    int
	fanOutLimit int
	fanOutWarn  int
	logger      *slog.Logger
	collector   *metrics.Collector
	tracer      trace.Tracer
}

// New creates an orchestrator.
func New(gw gateway.Resources, opts Options) *Orchestrator {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.FanOutLimit <= 0 {
		opts.FanOutLimit = DefaultFanOutLimit
	}
	if opts.FanOutWarn <= 0 {
		opts.FanOutWarn = DefaultFanOutWarn
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Orchestrator{
		gw:          gw,
		pageSize:    opts.PageSize,
		fanOutLimit: opts.FanOutLimit,
		fanOutWarn:  opts.FanOutWarn,
		logger:      opts.Logger,
		collector:   opts.Collector,
		tracer:      otel.Tracer("github.com/raphaelgruber/staffdash/internal/fetch"),
	}
}

// Task fetches one collection into a destination result.
type Task struct {
	name string
	run  func(ctx context.Context, o *Orchestrator) error
}

// Name identifies the task in logs and spans.
func (t Task) Name() string {
	return t.name
}

// Run executes tasks concurrently and returns once every task has resolved.
// Failed requests become degraded results; only ErrAuthExpired is returned,
// which also cancels the remaining requests.
func (o *Orchestrator) Run(ctx context.Context, tasks ...Task) error {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.name
	}
	ctx, span := o.tracer.Start(ctx, "fetch.batch", trace.WithAttributes(
		attribute.StringSlice("fetch.tasks", names),
	))
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error {
			return t.run(gctx, o)
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "authorization expired")
		return err
	}
	return nil
}

// degrade records a failed collection. Returns err when it must propagate.
func (o *Orchestrator) degrade(coll gateway.Collection, err error) error {
	if gateway.IsAuthExpired(err) {
		return err
	}
	o.collector.Inc(metrics.EventDegradedFetch, 1)
	o.logger.Warn("collection fetch failed, continuing with partial data", "collection", coll, "error", err)
	return nil
}

func (o *Orchestrator) withPageSize(opts gateway.ListOptions) gateway.ListOptions {
	if opts.Limit <= 0 {
		opts.Limit = o.pageSize
	}
	return opts
}

// List fetches one page of coll into dst.
// A page that reports more data is marked truncated; only the first page is fetched.
func List[T any](coll gateway.Collection, opts gateway.ListOptions, dst *Result[T]) Task {
	return Task{
		name: "list " + string(coll),
		run: func(ctx context.Context, o *Orchestrator) error {
			page, err := gateway.ListAs[T](ctx, o.gw, coll, o.withPageSize(opts))
			if err != nil {
				*dst = Failed[T](coll, err)
				return o.degrade(coll, err)
			}
			*dst = Result[T]{
				Collection: coll,
				Items:      page.Items,
				Total:      page.Total,
				Truncated:  page.HasNext,
				Skipped:    page.Skipped,
			}
			if page.HasNext {
				o.logger.Warn("collection truncated to first page", "collection", coll, "fetched", len(page.Items), "total", page.Total)
			}
			if page.Skipped > 0 {
				o.logger.Warn("skipped undecodable records", "collection", coll, "skipped", page.Skipped)
			}
			return nil
		},
	}
}

// Record fetches a single record by id into dst.
// A missing record yields an empty, non-degraded result.
func Record[T any](coll gateway.Collection, id string, dst *Result[T]) Task {
	return Task{
		name: "get " + string(coll),
		run: func(ctx context.Context, o *Orchestrator) error {
			v, err := gateway.GetAs[T](ctx, o.gw, coll, id)
			switch {
			case err == nil:
				*dst = Ok(coll, []T{v})
			case errors.Is(err, gateway.ErrNotFound):
				*dst = Ok[T](coll, nil)
			default:
				*dst = Failed[T](coll, err)
				return o.degrade(coll, err)
			}
			return nil
		},
	}
}

// FanOut fetches coll once per owner id (filtering on ownerField) into dst.
// At most FanOutLimit requests run at once. Failed owners are logged and
// listed in dst.FailedOwners; the records of the others are kept, in owner order.
func FanOut[T any](coll gateway.Collection, ownerField string, ownerIDs []string, dst *Result[T]) Task {
	return Task{
		name: "fanout " + string(coll),
		run: func(ctx context.Context, o *Orchestrator) error {
			owners := uniqueNonEmpty(ownerIDs)
			if len(owners) > o.fanOutWarn {
				o.logger.Warn("large per-record fan-out", "collection", coll, "owners", len(owners), "limit", o.fanOutLimit)
			}

			pages := make([][]T, len(owners))
			errs := make([]error, len(owners))
			truncated := make([]bool, len(owners))

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(o.fanOutLimit)
			for i, owner := range owners {
				g.Go(func() error {
					page, err := gateway.ListAs[T](gctx, o.gw, coll, gateway.Owned(ownerField, owner, o.pageSize))
					if err != nil {
						if gateway.IsAuthExpired(err) {
							return err
						}
						errs[i] = err
						return nil
					}
					pages[i] = page.Items
					truncated[i] = page.HasNext
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				*dst = Failed[T](coll, err)
				return err
			}

			res := Result[T]{Collection: coll, Items: []T{}}
			var firstErr error
			for i, owner := range owners {
				if errs[i] != nil {
					o.logger.Warn("fan-out request failed", "collection", coll, ownerField, owner, "error", errs[i])
					res.FailedOwners = append(res.FailedOwners, owner)
					if firstErr == nil {
						firstErr = errs[i]
					}
					continue
				}
				res.Items = append(res.Items, pages[i]...)
				res.Truncated = res.Truncated || truncated[i]
			}
			res.Total = len(res.Items)
			if firstErr != nil {
				o.collector.Inc(metrics.EventFanOutFailure, int64(len(res.FailedOwners)))
				res.Err = fmt.Errorf("%d of %d %s requests failed: %w", len(res.FailedOwners), len(owners), coll, firstErr)
			}
			*dst = res
			return nil
		},
	}
}

func uniqueNonEmpty(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
