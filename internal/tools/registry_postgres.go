package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRegistry persists client records in PostgreSQL.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

func NewPostgresRegistry(ctx context.Context, databaseURL string) (*PostgresRegistry, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initRegistrySchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresRegistry{pool: pool}, nil
}

func initRegistrySchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS clients (
			name TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_clients_name_lower ON clients (lower(name));`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init registry schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (r *PostgresRegistry) Get(ctx context.Context, name string) (Client, error) {
	var c Client
	err := r.pool.QueryRow(ctx,
		`SELECT name, email, phone, notes FROM clients WHERE lower(name) = lower($1)`,
		name,
	).Scan(&c.Name, &c.Email, &c.Phone, &c.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, ErrClientNotFound
	}
	if err != nil {
		return Client{}, fmt.Errorf("query client: %w", err)
	}
	return c, nil
}

func (r *PostgresRegistry) Add(ctx context.Context, c Client) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO clients (name, email, phone, notes) VALUES ($1, $2, $3, $4)`,
		c.Name, c.Email, c.Phone, c.Notes,
	)
	if err != nil {
		return fmt.Errorf("add client: %w", err)
	}
	return nil
}

func (r *PostgresRegistry) Update(ctx context.Context, c Client) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE clients SET
			email = COALESCE(NULLIF($2, ''), email),
			phone = COALESCE(NULLIF($3, ''), phone),
			notes = COALESCE(NULLIF($4, ''), notes)
		 WHERE lower(name) = lower($1)`,
		c.Name, c.Email, c.Phone, c.Notes,
	)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

func (r *PostgresRegistry) List(ctx context.Context) ([]Client, error) {
	rows, err := r.pool.Query(ctx, `SELECT name, email, phone, notes FROM clients ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.Name, &c.Email, &c.Phone, &c.Notes); err != nil {
			return nil, fmt.Errorf("scan client row: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client rows: %w", err)
	}
	return clients, nil
}

func (r *PostgresRegistry) Close() error {
	r.pool.Close()
	return nil
}
