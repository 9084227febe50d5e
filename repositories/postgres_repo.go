package repositories

import (
	"context"
	"fmt"
	"strings"

	"cpusched/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const selectJobsStatement = `SELECT id, burst_time, priority, memory_required FROM jobs ORDER BY arrival, id`

// querier is the part of *pgxpool.Pool the job repo needs
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgreSqlRepo represents a job source backed by the jobs table of PostgreSql
type PostgreSqlRepo struct {
	conn       querier
	pool       *pgxpool.Pool
	name       string
	psqlLogger *zap.Logger
}

// ConnString returns dsn when it is a postgres URL, else builds one from cfg
func ConnString(dsn string, cfg domain.PostgresConfig) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return dsn
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", cfg.PsqlUser, cfg.PsqlPass, cfg.DbHost, cfg.DbPort, cfg.DbName)
}

// NewPostgreSqlRepo connects to PostgreSql and checks the connection
func NewPostgreSqlRepo(ctx context.Context, dsn string, cfg domain.PostgresConfig, logger *zap.Logger) (*PostgreSqlRepo, error) {
	url := ConnString(dsn, cfg)
	dbPool, err := pgxpool.New(ctx, url)
	if err != nil {
		logger.Error("could not connect to database", zap.Error(err))
		return nil, err
	}

	// check connection
	err = dbPool.Ping(ctx)
	if err != nil {
		dbPool.Close()
		logger.Error("could not ping", zap.Error(err))
		return nil, err
	}

	repo := newPostgreSqlRepo(dbPool, dbPool.Config().ConnConfig.Host, logger)
	repo.pool = dbPool
	return repo, nil
}

func newPostgreSqlRepo(conn querier, host string, logger *zap.Logger) *PostgreSqlRepo {
	return &PostgreSqlRepo{conn: conn, name: "postgres://" + host + "/jobs", psqlLogger: logger}
}

// Name returns the table location without credentials
func (p *PostgreSqlRepo) Name() string {
	return p.name
}

// Stream sends every row of the jobs table as an id:burst:priority:memory line
func (p *PostgreSqlRepo) Stream(ctx context.Context, lines chan<- domain.JobDescriptor) error {
	rows, err := p.conn.Query(ctx, selectJobsStatement)
	if err != nil {
		p.psqlLogger.Error("could not retrieve jobs", zap.Error(err))
		return err
	}
	defer rows.Close()

	lineNo := 0
	for rows.Next() {
		lineNo++
		var id, burst, priority, memory int
		if err = rows.Scan(&id, &burst, &priority, &memory); err != nil {
			p.psqlLogger.Error("could not scan job row", zap.Int("row", lineNo), zap.Error(err))
			return err
		}
		descriptor := domain.JobDescriptor{Line: lineNo, Raw: fmt.Sprintf("%d:%d:%d:%d", id, burst, priority, memory)}
		select {
		case lines <- descriptor:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err = rows.Err(); err != nil {
		p.psqlLogger.Error("could not iterate jobs", zap.Error(err))
		return err
	}
	p.psqlLogger.Info("Successfully retrieved jobs", zap.Int("rows", lineNo))
	return nil
}

// CloseConnection closes the pool
func (p *PostgreSqlRepo) CloseConnection() {
	if p.pool != nil {
		p.pool.Close()
	}
}
