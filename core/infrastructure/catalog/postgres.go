package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/hyperterse/querycheck/core/domain/fieldtypes"
	"github.com/hyperterse/querycheck/core/domain/search"
	"github.com/hyperterse/querycheck/core/infrastructure/logging"
	apperrors "github.com/hyperterse/querycheck/core/shared/errors"
)

// PostgresResolver reads field types from a table shaped like
//
//	stream_id text, field_name text, physical_type text,
//	first_seen timestamptz, last_seen timestamptz
type PostgresResolver struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresResolver opens a pgx pool and checks it with a ping
func NewPostgresResolver(ctx context.Context, connectionString, table string) (*PostgresResolver, error) {
	log := logging.New("catalog:postgres")
	log.Debugf("Opening PostgreSQL connection pool (pgx/v5)")

	config, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrCodeConfiguration, "failed to parse postgres connection string", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrCodeConnectionFailed, "failed to create postgres connection pool", err)
	}

	log.Debugf("Testing connection with ping")
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.WrapError(apperrors.ErrCodeConnectionFailed, "failed to ping postgres database", err)
	}

	log.Debugf("PostgreSQL connection pool opened successfully")
	return &PostgresResolver{pool: pool, table: quoteQualifiedName(table)}, nil
}

func (p *PostgresResolver) Name() string {
	return "postgres"
}

func (p *PostgresResolver) FieldTypesByStreamIDs(ctx context.Context, streamIDs []string, tr search.TimeRange) (fieldtypes.FieldTypes, error) {
	from, to, err := timeBounds(tr)
	if err != nil {
		return fieldtypes.FieldTypes{}, err
	}

	statement, args := postgresStatement(p.table, streamIDs)
	args = append(args, from, to)

	rows, err := p.pool.Query(ctx, statement, args...)
	if err != nil {
		return fieldtypes.FieldTypes{}, fmt.Errorf("failed to query field types: %w", err)
	}

	fields, err := pgx.CollectRows(rows, pgx.RowToStructByPos[fieldRow])
	if err != nil {
		return fieldtypes.FieldTypes{}, fmt.Errorf("failed to read field types: %w", err)
	}
	return fieldTypesFromRows(fields), nil
}

// postgresStatement builds the lookup; the time bounds are always the last two arguments
func postgresStatement(table string, streamIDs []string) (string, []any) {
	if len(streamIDs) == 0 {
		return fmt.Sprintf(
			"SELECT DISTINCT field_name, physical_type FROM %s WHERE last_seen >= $1 AND first_seen <= $2",
			table,
		), nil
	}
	return fmt.Sprintf(
		"SELECT DISTINCT field_name, physical_type FROM %s WHERE stream_id = ANY($1) AND last_seen >= $2 AND first_seen <= $3",
		table,
	), []any{streamIDs}
}

// quoteQualifiedName quotes each part of a possibly schema-qualified name
func quoteQualifiedName(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = pq.QuoteIdentifier(part)
	}
	return strings.Join(parts, ".")
}

// Close closes the connection pool
func (p *PostgresResolver) Close() error {
	if p.pool != nil {
		log := logging.New("catalog:postgres")
		log.Debugf("Closing PostgreSQL connection pool")
		p.pool.Close()
	}
	return nil
}
