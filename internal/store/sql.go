package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver
)

const profileColumns = "id, selected_language, state, village, preferred_crop, fcm_token, updated_at"

// SQLStore keeps profiles in PostgreSQL (driver "pgx") or SQLite (driver "sqlite").
type SQLStore struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// NewSQLStore opens the database, checks it is reachable and creates the
// user_profiles table when missing.
func NewSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver != "pgx" && driver != "sqlite" {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	if dsn == "" {
		return nil, errors.New("database dsn is empty")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == "sqlite" {
		// One physical connection; in-memory databases live and die with it.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(8)
		db.SetConnMaxIdleTime(2 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	s := &SQLStore{
		db:     db,
		driver: driver,
		now:    func() time.Time { return time.Now().UTC() },
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) migrate(ctx context.Context) error {
	tsType := "TEXT"
	if s.driver == "pgx" {
		tsType = "TIMESTAMPTZ"
	}
	ddl := `CREATE TABLE IF NOT EXISTS user_profiles (
  id                TEXT PRIMARY KEY,
  selected_language TEXT,
  state             TEXT,
  village           TEXT,
  preferred_crop    TEXT,
  fcm_token         TEXT,
  updated_at        ` + tsType + `
)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create user_profiles: %w", err)
	}
	return nil
}

// Get returns the profile stored under id.
func (s *SQLStore) Get(ctx context.Context, id string) (Profile, error) {
	q := "SELECT " + profileColumns + " FROM user_profiles WHERE id = " + placeholder(s.driver, 1)
	p, err := scanProfile(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile %s: %w", id, err)
	}
	return p, nil
}

// ListAlertable returns every profile with a village, ordered by id.
func (s *SQLStore) ListAlertable(ctx context.Context) ([]Profile, error) {
	q := "SELECT " + profileColumns + " FROM user_profiles WHERE village IS NOT NULL AND village <> '' ORDER BY id"
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var result []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return result, nil
}

// Upsert inserts p or merges its non-nil fields into the stored row.
func (s *SQLStore) Upsert(ctx context.Context, p Profile) error {
	next := newPlaceholderGenerator(s.driver)
	q := fmt.Sprintf(`INSERT INTO user_profiles (%s)
VALUES (%s, %s, %s, %s, %s, %s, %s)
ON CONFLICT (id) DO UPDATE SET
  selected_language = COALESCE(excluded.selected_language, user_profiles.selected_language),
  state             = COALESCE(excluded.state, user_profiles.state),
  village           = COALESCE(excluded.village, user_profiles.village),
  preferred_crop    = COALESCE(excluded.preferred_crop, user_profiles.preferred_crop),
  fcm_token         = COALESCE(excluded.fcm_token, user_profiles.fcm_token),
  updated_at        = excluded.updated_at`,
		profileColumns, next(), next(), next(), next(), next(), next(), next())

	_, err := s.db.ExecContext(ctx, q,
		p.ID,
		nullable(p.SelectedLanguage),
		nullable(p.State),
		nullable(p.Village),
		nullable(p.PreferredCrop),
		nullable(p.FCMToken),
		s.now().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", p.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (Profile, error) {
	var (
		p                                 Profile
		lang, state, village, crop, token sql.NullString
		updated                           sql.NullString
	)
	if err := row.Scan(&p.ID, &lang, &state, &village, &crop, &token, &updated); err != nil {
		return Profile{}, err
	}
	p.SelectedLanguage = fromNull(lang)
	p.State = fromNull(state)
	p.Village = fromNull(village)
	p.PreferredCrop = fromNull(crop)
	p.FCMToken = fromNull(token)
	if updated.Valid {
		if ts, err := time.Parse(time.RFC3339Nano, updated.String); err == nil {
			p.UpdatedAt = ts.UTC()
		}
	}
	return p, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// placeholder returns the n-th (1-based) bind parameter for the driver.
func placeholder(driver string, n int) string {
	if driver == "pgx" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func newPlaceholderGenerator(driver string) func() string {
	counter := 0
	return func() string {
		counter++
		return placeholder(driver, counter)
	}
}
