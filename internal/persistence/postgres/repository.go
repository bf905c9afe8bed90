// Package postgres provides a pgx-backed roster store, the persistent
// alternative to the in-memory default.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/extracurricular/internal/domain"
	"example.com/extracurricular/internal/observability"
)

// Store persists activities and their rosters in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS activities (
    name TEXT PRIMARY KEY,
    description TEXT NOT NULL,
    schedule TEXT NOT NULL,
    max_participants INT NOT NULL CHECK (max_participants > 0)
);
CREATE TABLE IF NOT EXISTS participants (
    activity_name TEXT NOT NULL REFERENCES activities(name) ON DELETE CASCADE,
    email TEXT NOT NULL,
    position INT NOT NULL,
    PRIMARY KEY (activity_name, email)
);`
	_, err := s.pool.Exec(ctx, ddl)
	return err
}

// Seed inserts the catalog, skipping activities that already exist so a
// restart never clobbers live rosters.
func (s *Store) Seed(ctx context.Context, catalog []domain.Activity) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, activity := range catalog {
		tag, err := tx.Exec(ctx,
			`INSERT INTO activities (name, description, schedule, max_participants)
             VALUES ($1,$2,$3,$4) ON CONFLICT (name) DO NOTHING`,
			activity.Name, activity.Description, activity.Schedule, activity.MaxParticipants,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			continue
		}
		for i, email := range activity.Participants {
			if _, err := tx.Exec(ctx,
				`INSERT INTO participants (activity_name, email, position) VALUES ($1,$2,$3)`,
				activity.Name, email, i,
			); err != nil {
				return err
			}
		}
	}
	return tx.Commit(ctx)
}

// List implements domain.Store.
func (s *Store) List(ctx context.Context) (map[string]domain.Activity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, description, schedule, max_participants FROM activities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.Activity)
	for rows.Next() {
		var activity domain.Activity
		if err := rows.Scan(&activity.Name, &activity.Description, &activity.Schedule, &activity.MaxParticipants); err != nil {
			return nil, err
		}
		activity.Participants = []string{}
		out[activity.Name] = activity
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prows, err := s.pool.Query(ctx,
		`SELECT activity_name, email FROM participants ORDER BY activity_name, position`)
	if err != nil {
		return nil, err
	}
	defer prows.Close()

	for prows.Next() {
		var name, email string
		if err := prows.Scan(&name, &email); err != nil {
			return nil, err
		}
		activity, ok := out[name]
		if !ok {
			continue
		}
		activity.Participants = append(activity.Participants, email)
		out[name] = activity
	}
	return out, prows.Err()
}

// Get implements domain.Store.
func (s *Store) Get(ctx context.Context, name string) (*domain.Activity, error) {
	return s.fetch(ctx, s.pool, name, false)
}

// Signup registers the email inside a transaction. The activity row is locked
// so concurrent signups cannot overshoot the capacity.
func (s *Store) Signup(ctx context.Context, name, email string) (*domain.Activity, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	activity, err := s.fetch(ctx, tx, name, true)
	if err != nil {
		return nil, err
	}
	if activity.IsRegistered(email) {
		return nil, domain.ErrAlreadyRegistered
	}
	if len(activity.Participants) >= activity.MaxParticipants {
		return nil, domain.ErrActivityFull
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO participants (activity_name, email, position) VALUES ($1,$2,$3)`,
		name, email, len(activity.Participants),
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	observability.RecordRosterMutation(time.Now().UTC())
	activity.Participants = append(activity.Participants, email)
	return activity, nil
}

// Remove deletes the email and compacts the remaining positions so signup
// order is preserved.
func (s *Store) Remove(ctx context.Context, name, email string) (*domain.Activity, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	activity, err := s.fetch(ctx, tx, name, true)
	if err != nil {
		return nil, err
	}
	if !activity.IsRegistered(email) {
		return nil, domain.ErrParticipantNotFound
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM participants WHERE activity_name=$1 AND email=$2`, name, email,
	); err != nil {
		return nil, err
	}

	remaining := make([]string, 0, len(activity.Participants)-1)
	for _, participant := range activity.Participants {
		if participant != email {
			remaining = append(remaining, participant)
		}
	}
	for i, participant := range remaining {
		if _, err := tx.Exec(ctx,
			`UPDATE participants SET position=$1 WHERE activity_name=$2 AND email=$3`,
			i, name, participant,
		); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	observability.RecordRosterMutation(time.Now().UTC())
	activity.Participants = remaining
	return activity, nil
}

// Reset wipes all rosters and reinstalls the default catalog. Test hook.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE participants, activities`); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	return s.Seed(ctx, domain.DefaultCatalog())
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *Store) fetch(ctx context.Context, q querier, name string, forUpdate bool) (*domain.Activity, error) {
	query := `SELECT name, description, schedule, max_participants FROM activities WHERE name=$1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var activity domain.Activity
	row := q.QueryRow(ctx, query, name)
	if err := row.Scan(&activity.Name, &activity.Description, &activity.Schedule, &activity.MaxParticipants); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrActivityNotFound
		}
		return nil, err
	}

	rows, err := q.Query(ctx,
		`SELECT email FROM participants WHERE activity_name=$1 ORDER BY position`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activity.Participants = []string{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		activity.Participants = append(activity.Participants, email)
	}
	return &activity, rows.Err()
}
