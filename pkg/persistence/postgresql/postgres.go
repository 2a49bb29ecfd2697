// Package postgresql provides PostgreSQL persistence for validation state.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver
	"github.com/reqarchitect/validation/pkg/persistence"
	"github.com/reqarchitect/validation/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db            *sql.DB
	logger        *slog.Logger
	ruleRepo      *RuleRepository
	exceptionRepo *ExceptionRepository
	cycleRepo     *CycleRepository
	issueRepo     *IssueRepository
	scorecardRepo *ScorecardRepository
	matrixRepo    *MatrixRepository
}

// NewPersistence creates a new PostgreSQL persistence layer and runs pending
// schema migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:            database,
		logger:        logger,
		ruleRepo:      NewRuleRepository(database, logger),
		exceptionRepo: NewExceptionRepository(database, logger),
		cycleRepo:     NewCycleRepository(database, logger),
		issueRepo:     NewIssueRepository(database, logger),
		scorecardRepo: NewScorecardRepository(database, logger),
		matrixRepo:    NewMatrixRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Rules() persistence.RuleRepository { return p.ruleRepo }

func (p *Persistence) Exceptions() persistence.ExceptionRepository { return p.exceptionRepo }

func (p *Persistence) Cycles() persistence.CycleRepository { return p.cycleRepo }

func (p *Persistence) Issues() persistence.IssueRepository { return p.issueRepo }

func (p *Persistence) Scorecards() persistence.ScorecardRepository { return p.scorecardRepo }

func (p *Persistence) Matrix() persistence.MatrixRepository { return p.matrixRepo }
