/*
Package sqlite provides a SQLite-backed fixture upstream.

PURPOSE:
  Demo employers are served from recorded upstream response bodies instead of
  a live HR-data provider. Each employer's bodies are stored verbatim, in the
  shapes that employer's provider uses, and handed to the engine through the
  gather.Provider interface. Nothing the engine computes is written back.

KEY TABLES:
  employers:  Demo employer records
  fragments:  Raw response bodies keyed by (employer, endpoint, lookup_key)

MIGRATION:
  Schema is versioned under migrations/ and applied on New() with
  golang-migrate from the embedded filesystem.

CONCURRENCY:
  Uses sync.RWMutex around writes. Reads go straight to the pool.

USAGE:
  store, err := sqlite.New("./data/workforce.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  g := gather.New(store.Employer("ramp"))

SEE ALSO:
  - seed.go: Demo employers
  - store/memory: In-memory provider for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/workforce-engine/gather"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store holds demo employers and their recorded upstream responses.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Employer is a demo employer record.
type Employer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// New opens the database at dbPath and applies pending migrations.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	// m.Close would also close s.db, so only the source is closed here.
	defer src.Close()

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("migration setup: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// =============================================================================
// EMPLOYERS
// =============================================================================

func (s *Store) SaveEmployer(ctx context.Context, e Employer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employers (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		e.ID, e.Name, e.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

// GetEmployer returns nil when id is unknown.
func (s *Store) GetEmployer(ctx context.Context, id string) (*Employer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM employers WHERE id = ?`, id)
	e, err := scanEmployer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) ListEmployers(ctx context.Context) ([]Employer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM employers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employer
	for rows.Next() {
		e, err := scanEmployer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployer(row scanner) (Employer, error) {
	var e Employer
	var created string
	if err := row.Scan(&e.ID, &e.Name, &created); err != nil {
		return Employer{}, err
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return e, nil
}

// =============================================================================
// FRAGMENTS
// =============================================================================

// SaveFragment records a raw response body, replacing any previous one.
func (s *Store) SaveFragment(ctx context.Context, employerID string, endpoint gather.Endpoint, key string, body []byte) error {
	if !endpoint.Valid() {
		return fmt.Errorf("unknown endpoint %q", endpoint)
	}
	if !json.Valid(body) {
		return fmt.Errorf("%s/%s/%s: body is not valid JSON", employerID, endpoint, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fragments (employer_id, endpoint, lookup_key, body_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(employer_id, endpoint, lookup_key)
		DO UPDATE SET body_json = excluded.body_json, updated_at = excluded.updated_at`,
		employerID, string(endpoint), key, string(body), time.Now().UTC().Format(time.RFC3339))
	return err
}

// SaveFragmentJSON encodes v and records it.
func (s *Store) SaveFragmentJSON(ctx context.Context, employerID string, endpoint gather.Endpoint, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s/%s: %w", employerID, endpoint, key, err)
	}
	return s.SaveFragment(ctx, employerID, endpoint, key, body)
}

// LoadFragment returns the recorded body, or an error wrapping gather.ErrNoData.
func (s *Store) LoadFragment(ctx context.Context, employerID string, endpoint gather.Endpoint, key string) ([]byte, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT body_json FROM fragments
		WHERE employer_id = ? AND endpoint = ? AND lookup_key = ?`,
		employerID, string(endpoint), key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s %q: %w", employerID, endpoint, key, gather.ErrNoData)
	}
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

// CountFragments reports how many bodies are recorded for an employer.
func (s *Store) CountFragments(ctx context.Context, employerID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fragments WHERE employer_id = ?`, employerID).Scan(&n)
	return n, err
}

// Reset deletes all employers and fragments.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM fragments`); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM employers`)
	return err
}

// =============================================================================
// PROVIDER
// =============================================================================

// EmployerProvider serves one employer's recorded bodies as a gather.Provider.
type EmployerProvider struct {
	store *Store
	id    string
}

var _ gather.Provider = (*EmployerProvider)(nil)

func (s *Store) Employer(id string) *EmployerProvider {
	return &EmployerProvider{store: s, id: id}
}

func (p *EmployerProvider) Directory(ctx context.Context) ([]byte, error) {
	return p.store.LoadFragment(ctx, p.id, gather.EndpointDirectory, "")
}

func (p *EmployerProvider) Individual(ctx context.Context, individualID string) ([]byte, error) {
	return p.store.LoadFragment(ctx, p.id, gather.EndpointIndividual, individualID)
}

func (p *EmployerProvider) Employment(ctx context.Context, individualID string) ([]byte, error) {
	return p.store.LoadFragment(ctx, p.id, gather.EndpointEmployment, individualID)
}

func (p *EmployerProvider) Benefits(ctx context.Context) ([]byte, error) {
	return p.store.LoadFragment(ctx, p.id, gather.EndpointBenefits, "")
}

func (p *EmployerProvider) Deductions(ctx context.Context, benefitID, _ string) ([]byte, error) {
	return p.store.LoadFragment(ctx, p.id, gather.EndpointDeductions, benefitID)
}

func (p *EmployerProvider) PayStatements(ctx context.Context, individualID string) ([]byte, error) {
	return p.store.LoadFragment(ctx, p.id, gather.EndpointPayStatements, individualID)
}
