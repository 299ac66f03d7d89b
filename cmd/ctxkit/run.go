package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lccmrx/go-context-kit/pkg/baggage"
	"github.com/lccmrx/go-context-kit/pkg/config"
	"github.com/lccmrx/go-context-kit/pkg/log"
	"github.com/lccmrx/go-context-kit/pkg/metadata"
	"github.com/lccmrx/go-context-kit/pkg/metadata/fields"
	"github.com/lccmrx/go-context-kit/pkg/telemetry"
	"github.com/lccmrx/go-context-kit/pkg/telemetry/meter"
	"github.com/lccmrx/go-context-kit/pkg/telemetry/tracer"
	"github.com/lccmrx/go-context-kit/pkg/worker"
)

type runOptions struct {
	tasks       int
	user        string
	skipBaggage bool
}

func newRunCommand() *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a demo workload over the worker pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.ReadConfig(cfgFile)
			if err != nil {
				return err
			}
			return run(ctx, cfg, opts, os.Stdout)
		},
	}

	cmd.Flags().IntVar(&opts.tasks, "tasks", 10, "number of tasks to dispatch")
	cmd.Flags().StringVar(&opts.user, "user", "", "user id attached to the baggage (exported to traces, never logged)")
	cmd.Flags().BoolVar(&opts.skipBaggage, "skip-baggage", false, "dispatch one extra task without baggage")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, opts runOptions, w io.Writer) error {
	log.Setup(cfg.Log, w)

	if err := telemetry.New(ctx, cfg.Telemetry.Options()...); err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		if err := telemetry.Shutdown(context.Background()); err != nil {
			slog.Error("failed to shut down telemetry", "error", err)
		}
	}()

	factory := baggage.NewFactory(cfg.Baggage, baggage.WithTODOHook(meter.TODOHook(ctx)))
	pool := worker.New(append(cfg.Worker.Options(), worker.WithBaggageFactory(factory))...)

	b := factory.TopLevel()
	fields.SetRequestID(&b, uuid.NewString())
	if opts.user != "" {
		fields.SetUserID(&b, opts.user)
	}
	ctx = metadata.NewContext(ctx, b)

	ctx, span := tracer.Start(ctx, "ctxkit.run")
	defer span.End()

	slog.InfoContext(ctx, "dispatching tasks", "tasks", opts.tasks, "baggage", metadata.FromContext(ctx).String())

	for i := range opts.tasks {
		if _, err := pool.Dispatch(ctx, task(i)); err != nil {
			pool.Wait()
			return fmt.Errorf("failed to dispatch task %d: %w", i, err)
		}
	}

	if opts.skipBaggage {
		if _, err := pool.Dispatch(context.Background(), task(opts.tasks)); err != nil {
			pool.Wait()
			return fmt.Errorf("failed to dispatch task without baggage: %w", err)
		}
	}

	pool.Wait()
	slog.InfoContext(ctx, "all tasks finished")

	return nil
}

func task(i int) worker.TaskFunc {
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		ctx, span := tracer.Start(ctx, "ctxkit.task")
		defer span.End()

		slog.InfoContext(ctx, "task running", "index", i)
		_, todo := baggage.TODOFrom(metadata.FromContext(ctx))
		meter.Counter(ctx, "ctxkit.tasks", 1, meter.WithAttribute("todo", todo))
		return nil
	}
}
