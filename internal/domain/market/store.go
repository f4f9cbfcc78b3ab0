package market

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Store reads and seeds the company table.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ListCompanies returns every company in catalog order.
func (s *Store) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, activity, turnover, employees_count, country
		FROM company
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("market: list companies: %w", err)
	}
	defer rows.Close()

	out := make([]Company, 0)
	for rows.Next() {
		c, scanErr := scanCompany(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCompanyByName returns the company with exactly that name.
func (s *Store) GetCompanyByName(ctx context.Context, name string) (*Company, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, activity, turnover, employees_count, country
		FROM company
		WHERE name = ?
		LIMIT 1
	`, name)

	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("market: get company: %w", err)
	}
	return c, nil
}

// Seed inserts companies that are not present yet and reports how many were added.
func (s *Store) Seed(ctx context.Context, companies []Company) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("market: seed: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck
	}()

	inserted := 0
	for _, c := range companies {
		res, execErr := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO company (name, activity, turnover, employees_count, country)
			VALUES (?, ?, ?, ?, ?)
		`, c.Name, c.Activity, c.Turnover, c.EmployeesCount, c.Country)
		if execErr != nil {
			return 0, fmt.Errorf("market: seed %q: %w", c.Name, execErr)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("market: seed: commit: %w", err)
	}
	return inserted, nil
}

type companyScanner interface {
	Scan(dest ...any) error
}

func scanCompany(scan companyScanner) (*Company, error) {
	var c Company
	if err := scan.Scan(&c.Name, &c.Activity, &c.Turnover, &c.EmployeesCount, &c.Country); err != nil {
		return nil, err
	}
	return &c, nil
}
