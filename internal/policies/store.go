package policies

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"parlay-ev-bot/internal/analysis"
)

// Stored is a boost policy with its last update time.
type Stored struct {
	analysis.BoostPolicy
	UpdatedAt time.Time `json:"updated_at"`
}

// DB handles boost policy storage
type DB struct {
	db *sql.DB
}

// NewDB opens (or creates) the policy database
func NewDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS boost_policies (
		bookmaker TEXT NOT NULL,
		sport TEXT NOT NULL,
		boost_percent REAL NOT NULL,
		min_legs INTEGER NOT NULL DEFAULT 0,
		require_same_event INTEGER NOT NULL DEFAULT 0,
		forbid_same_event INTEGER NOT NULL DEFAULT 0,
		allow_single_event INTEGER NOT NULL DEFAULT 0,
		min_odds_threshold INTEGER NOT NULL DEFAULT 0,
		correlation_profile TEXT NOT NULL DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (bookmaker, sport)
	);

	CREATE INDEX IF NOT EXISTS idx_boost_policies_sport ON boost_policies(sport);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

const selectPolicy = `
	SELECT bookmaker, sport, boost_percent, min_legs, require_same_event, forbid_same_event,
		allow_single_event, min_odds_threshold, correlation_profile, updated_at
	FROM boost_policies`

// Upsert validates and stores a policy, replacing any policy for the same
// bookmaker and sport.
func (d *DB) Upsert(p analysis.BoostPolicy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := d.db.Exec(`
		INSERT INTO boost_policies (bookmaker, sport, boost_percent, min_legs, require_same_event,
			forbid_same_event, allow_single_event, min_odds_threshold, correlation_profile, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(bookmaker, sport) DO UPDATE SET
			boost_percent = excluded.boost_percent,
			min_legs = excluded.min_legs,
			require_same_event = excluded.require_same_event,
			forbid_same_event = excluded.forbid_same_event,
			allow_single_event = excluded.allow_single_event,
			min_odds_threshold = excluded.min_odds_threshold,
			correlation_profile = excluded.correlation_profile,
			updated_at = CURRENT_TIMESTAMP
	`, p.Bookmaker, p.Sport, p.BoostPercent, p.MinLegs, p.RequireSameEventLegs,
		p.ForbidSameEventLegs, p.AllowSingleEvent, p.MinOddsThreshold, p.CorrelationProfile)
	if err != nil {
		return fmt.Errorf("upserting policy %s/%s: %w", p.Bookmaker, p.Sport, err)
	}
	return nil
}

// Seed inserts policies that are not stored yet and leaves existing ones
// alone. Returns how many were added.
func (d *DB) Seed(policies []analysis.BoostPolicy) (int, error) {
	added := 0
	for _, p := range policies {
		existing, err := d.Get(p.Bookmaker, p.Sport)
		if err != nil {
			return added, err
		}
		if existing != nil {
			continue
		}
		if err := d.Upsert(p); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// Get retrieves the policy for a bookmaker and sport. Returns nil, nil when
// none is stored.
func (d *DB) Get(bookmaker, sport string) (*Stored, error) {
	row := d.db.QueryRow(selectPolicy+` WHERE bookmaker = ? AND sport = ?`, bookmaker, sport)

	s, err := scanPolicy(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning policy: %w", err)
	}
	return s, nil
}

// List retrieves all policies ordered by bookmaker and sport.
func (d *DB) List() ([]Stored, error) {
	rows, err := d.db.Query(selectPolicy + ` ORDER BY bookmaker, sport`)
	if err != nil {
		return nil, fmt.Errorf("querying policies: %w", err)
	}
	defer rows.Close()

	var out []Stored
	for rows.Next() {
		s, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning policy row: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Delete removes a policy.
func (d *DB) Delete(bookmaker, sport string) error {
	_, err := d.db.Exec("DELETE FROM boost_policies WHERE bookmaker = ? AND sport = ?", bookmaker, sport)
	if err != nil {
		return fmt.Errorf("deleting policy: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row scanner) (*Stored, error) {
	var s Stored
	err := row.Scan(&s.Bookmaker, &s.Sport, &s.BoostPercent, &s.MinLegs, &s.RequireSameEventLegs,
		&s.ForbidSameEventLegs, &s.AllowSingleEvent, &s.MinOddsThreshold, &s.CorrelationProfile, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
