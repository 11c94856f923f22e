package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlinks/internal/shortener"
)

const (
	codeConstraint = "links_code_key"
	urlConstraint  = "links_original_url_key"

	linkColumns = `id::text, title, original_url, code, clicks, created_at, updated_at, last_clicked`
)

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed link store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Create(ctx context.Context, link *shortener.Link) error {
	query := `
		INSERT INTO links (title, original_url, code, clicks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, created_at, updated_at
	`

	err := p.pool.QueryRow(ctx, query,
		link.Title,
		link.OriginalURL,
		string(link.Code),
		link.Clicks,
		link.CreatedAt,
		link.UpdatedAt,
	).Scan(&link.ID, &link.CreatedAt, &link.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}

	return nil
}

func (p *PostgresStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE code = $1`

	return p.getOne(ctx, query, string(code))
}

func (p *PostgresStore) GetByURL(ctx context.Context, originalURL string) (*shortener.Link, error) {
	// The md5 predicate lets the planner use the unique digest index.
	query := `SELECT ` + linkColumns + ` FROM links WHERE md5(original_url) = md5($1) AND original_url = $1`

	return p.getOne(ctx, query, originalURL)
}

func (p *PostgresStore) RecordVisit(ctx context.Context, code shortener.Code, at time.Time) (*shortener.Link, error) {
	query := `
		UPDATE links
		SET clicks       = clicks + 1,
		    last_clicked = GREATEST(COALESCE(last_clicked, $2), $2),
		    updated_at   = GREATEST(updated_at, $2)
		WHERE code = $1
		RETURNING ` + linkColumns

	return p.getOne(ctx, query, string(code), at)
}

func (p *PostgresStore) List(ctx context.Context, limit int) ([]*shortener.Link, error) {
	// seq breaks created_at ties by insertion order, newest first.
	query := `SELECT ` + linkColumns + ` FROM links ORDER BY created_at DESC, seq DESC`
	args := []any{}

	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list links: %w", err)
	}

	links, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*shortener.Link, error) {
		return scanLink(row)
	})
	if err != nil {
		return nil, fmt.Errorf("store: list links: %w", err)
	}

	return links, nil
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) getOne(ctx context.Context, query string, args ...any) (*shortener.Link, error) {
	link, err := scanLink(p.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, fmt.Errorf("store: query link: %w", err)
	}

	return link, nil
}

func scanLink(row pgx.Row) (*shortener.Link, error) {
	var link shortener.Link

	err := row.Scan(
		&link.ID,
		&link.Title,
		&link.OriginalURL,
		&link.Code,
		&link.Clicks,
		&link.CreatedAt,
		&link.UpdatedAt,
		&link.LastClicked,
	)
	if err != nil {
		return nil, err
	}

	return &link, nil
}

// mapWriteError translates unique violations into repository errors.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return fmt.Errorf("store: insert link: %w", err)
	}

	switch pgErr.ConstraintName {
	case codeConstraint:
		return shortener.ErrCodeExists
	case urlConstraint:
		return shortener.ErrURLExists
	default:
		return fmt.Errorf("store: insert link: %w", err)
	}
}

// Compile-time check.
var _ shortener.Repository = (*PostgresStore)(nil)
