package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/reqarchitect/validation/pkg/cmd"
	"github.com/reqarchitect/validation/pkg/engine"
	"github.com/reqarchitect/validation/pkg/evaluators"
	"github.com/reqarchitect/validation/pkg/log"
	"github.com/reqarchitect/validation/pkg/otelhelper"
)

func main() {
	command := &cli.Command{
		Name:                  "validation-scheduler",
		Usage:                 "Run validation cycles for tenants on a cron schedule",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "scheduler-id",
				Aliases: []string{"id"},
				Usage:   "Custom scheduler ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("SCHEDULER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, redis, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:     "element-providers",
				Usage:    "Element provider endpoints as type=url pairs, comma separated",
				Required: true,
				Sources:  cli.EnvVars("ELEMENT_PROVIDER_ENDPOINTS"),
			},
			&cli.StringFlag{
				Name:     "tenants",
				Usage:    "Comma-separated tenant IDs to validate on each tick",
				Required: true,
				Sources:  cli.EnvVars("VALIDATION_TENANTS"),
			},
			&cli.StringFlag{
				Name:    "schedule",
				Usage:   "Cron expression for validation runs",
				Value:   "0 3 * * *",
				Sources: cli.EnvVars("VALIDATION_SCHEDULE"),
			},
			&cli.DurationFlag{
				Name:    "cycle-timeout",
				Usage:   "Hard deadline for one validation cycle",
				Value:   5 * time.Minute,
				Sources: cli.EnvVars("CYCLE_TIMEOUT"),
			},
			&cli.DurationFlag{
				Name:    "provider-timeout",
				Usage:   "Per-request timeout for element provider calls",
				Value:   10 * time.Second,
				Sources: cli.EnvVars("PROVIDER_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			schedulerID := command.String("scheduler-id")
			if schedulerID == "" {
				schedulerID = fmt.Sprintf("scheduler-%s", uuid.New().String()[:8])
			}

			logger := log.WithModule("validation-scheduler").With("scheduler_id", schedulerID)
			logger.InfoContext(ctx, "Initializing validation scheduler")

			tracerProvider, err := otelhelper.InitTracer(ctx, "validation-scheduler")
			if err != nil {
				logger.WarnContext(ctx, "Tracing disabled, failed to initialize tracer", "error", err)
			} else {
				defer func() {
					if err := tracerProvider.Shutdown(ctx); err != nil {
						slog.Error("Failed to shutdown tracer provider", "error", err)
					}
				}()
			}

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			providerClient := cmd.NewProviderClient(
				command.String("element-providers"),
				command.Duration("provider-timeout"),
				logger,
			)

			validationEngine := engine.NewEngine(
				persistence,
				providerClient,
				evaluators.DefaultRegistry(logger),
				eventBus,
				command.Duration("cycle-timeout"),
				logger,
			)

			tenants := splitTenants(command.String("tenants"))
			if len(tenants) == 0 {
				return fmt.Errorf("no tenants configured")
			}

			scheduler := NewScheduler(schedulerID, validationEngine, tenants, command.String("schedule"), logger)

			return scheduler.Start(ctx)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

func splitTenants(spec string) []string {
	tenants := make([]string, 0)

	for _, tenant := range strings.Split(spec, ",") {
		tenant = strings.TrimSpace(tenant)
		if tenant != "" {
			tenants = append(tenants, tenant)
		}
	}

	return tenants
}
