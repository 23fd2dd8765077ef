// Package indexdb maintains a queryable sqlite index of finished
// challenges. It is a derived read model fed asynchronously from the sim
// loop; the JSONL event logs remain the source of truth and the index can
// be rebuilt from them.
package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"pregame.city/internal/sim/arena"
	"pregame.city/internal/sim/catalogs"
	"pregame.city/internal/sim/tuning"
)

const (
	commitEvery   = 256
	commitMaxWait = 2 * time.Second
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan arena.ResultRow
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Wide buffer so a burst of simultaneous challenge ends never
		// stalls the sim loop.
		ch: make(chan arena.ResultRow, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads. NORMAL is a decent
	// durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS challenge_results (
			session_id TEXT PRIMARY KEY,
			tick INTEGER NOT NULL,
			player_id TEXT NOT NULL,
			sport TEXT NOT NULL,
			challenge_id TEXT NOT NULL,
			final_score INTEGER NOT NULL,
			hits INTEGER NOT NULL,
			xp_earned INTEGER NOT NULL,
			coins_earned INTEGER NOT NULL,
			reason TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_player_tick ON challenge_results(player_id, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_results_challenge ON challenge_results(sport, challenge_id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordResult queues one finished challenge for indexing. Never blocks:
// if the indexer falls behind, rows are dropped and the JSONL event logs
// remain the source of truth.
func (s *SQLiteIndex) RecordResult(r arena.ResultRow) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
	}
}

// UpsertCatalogs snapshots the loaded catalogs and applied tuning into the
// index so result rows can be interpreted against the config that produced
// them.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv

	read := func(name, digest, file string) {
		b, err := os.ReadFile(filepath.Join(configDir, file))
		if err != nil {
			return
		}
		rows = append(rows, kv{name: name, digest: digest, json: b})
	}
	if configDir != "" {
		read("zones", cats.Zones.Digest, "zones.json")
		read("sports", cats.Sports.Digest, "sports.json")
		read("progression", cats.Progression.Digest, "progression.json")
	}

	// Tuning: store the values we actually apply (canonical JSON).
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// PlayerResults returns the most recent indexed results for one player,
// newest first.
func (s *SQLiteIndex) PlayerResults(ctx context.Context, playerID string, limit int) ([]arena.ResultRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, tick, player_id, sport, challenge_id,
		       final_score, hits, xp_earned, coins_earned, reason
		FROM challenge_results
		WHERE player_id = ?
		ORDER BY tick DESC
		LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []arena.ResultRow
	for rows.Next() {
		var r arena.ResultRow
		var tick int64
		if err := rows.Scan(&r.SessionID, &tick, &r.PlayerID, &r.Sport, &r.ChallengeID,
			&r.FinalScore, &r.Hits, &r.XPEarned, &r.CoinsEarned, &r.Reason); err != nil {
			return nil, err
		}
		r.Tick = uint64(tick)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	insert, err := s.db.Prepare(`INSERT OR REPLACE INTO challenge_results(
		session_id, tick, player_id, sport, challenge_id,
		final_score, hits, xp_earned, coins_earned, reason, recorded_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		// Drain so RecordResult never blocks even with a broken schema.
		for range s.ch {
		}
		return
	}
	defer insert.Close()

	var (
		tx      *sql.Tx
		opCount int
	)

	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
	}

	// The ticker bounds how long a partial batch can sit uncommitted; a
	// channel-only loop would hold small batches open until Close.
	ticker := time.NewTicker(commitMaxWait)
	defer ticker.Stop()

	for {
		select {
		case r, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			if tx == nil {
				txx, err := s.db.BeginTx(context.Background(), nil)
				if err != nil {
					time.Sleep(50 * time.Millisecond)
					continue
				}
				tx = txx
				opCount = 0
			}

			now := time.Now().UTC().Format(time.RFC3339Nano)
			if _, err := tx.Stmt(insert).Exec(
				r.SessionID,
				int64(r.Tick),
				r.PlayerID,
				r.Sport,
				r.ChallengeID,
				r.FinalScore,
				r.Hits,
				r.XPEarned,
				r.CoinsEarned,
				r.Reason,
				now,
			); err != nil {
				_ = tx.Rollback()
				tx = nil
				opCount = 0
				continue
			}
			opCount++

			if opCount >= commitEvery {
				commit()
			}
		case <-ticker.C:
			commit()
		}
	}
}
