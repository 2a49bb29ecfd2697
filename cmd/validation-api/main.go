package main

import (
	"context"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/reqarchitect/validation/pkg/cmd"
	"github.com/reqarchitect/validation/pkg/log"
	"github.com/reqarchitect/validation/pkg/otelhelper"
)

const defaultPort = 9094

func main() {
	command := &cli.Command{
		Name:                  "validation-api",
		Usage:                 "Run validation cycles and serve architecture validation results",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
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
				Name:     "jwt-secret",
				Usage:    "HS256 secret for verifying bearer tokens",
				Required: true,
				Sources:  cli.EnvVars("JWT_SECRET"),
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

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing validation API")

			tracerProvider, err := otelhelper.InitTracer(ctx, "validation-api")
			if err != nil {
				logger.WarnContext(ctx, "Tracing disabled, failed to initialize tracer", "error", err)
			} else {
				defer func() {
					if err := tracerProvider.Shutdown(ctx); err != nil {
						logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
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

			api := NewAPI(
				logger,
				persistence,
				providerClient,
				eventBus,
				command.String("jwt-secret"),
				command.Duration("cycle-timeout"),
			)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start validation API", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
