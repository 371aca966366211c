package recorder

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"SwingScanner/internal/model"
)

// SQLiteRecorder persists scan history to a SQLite database.
type SQLiteRecorder struct {
	db  *sqlx.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for concurrent readers while a scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logger.With().Str("component", "sqlite_recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id             TEXT PRIMARY KEY,
			scan_timestamp INTEGER NOT NULL,
			tickers        INTEGER,
			scanned        INTEGER,
			failed         INTEGER,
			setups         INTEGER,
			duration_ms    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_runs_ts ON scan_runs(scan_timestamp)`,

		`CREATE TABLE IF NOT EXISTS market_regime (
			scan_timestamp  INTEGER PRIMARY KEY,
			label           TEXT NOT NULL,
			is_bullish      INTEGER NOT NULL,
			benchmark_close REAL,
			benchmark_ema   REAL,
			detail          TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS scan_setups (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id        TEXT NOT NULL,
			scan_timestamp INTEGER NOT NULL,
			ticker         TEXT NOT NULL,
			sector         TEXT,
			setup_type     TEXT NOT NULL,
			entry          REAL,
			stop_loss      REAL,
			take_profit    REAL,
			risk_reward    REAL,
			setup_date     TEXT,
			metadata       TEXT,
			UNIQUE(scan_timestamp, ticker, setup_type)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_setups_ticker ON scan_setups(ticker)`,

		`CREATE TABLE IF NOT EXISTS sr_zones (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_timestamp INTEGER NOT NULL,
			ticker         TEXT NOT NULL,
			zone_type      TEXT NOT NULL,
			level          REAL NOT NULL,
			upper          REAL,
			lower          REAL,
			UNIQUE(scan_timestamp, ticker, level)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

const (
	sqliteUpsertRun = `INSERT INTO scan_runs
		(id, scan_timestamp, tickers, scanned, failed, setups, duration_ms)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			tickers=excluded.tickers, scanned=excluded.scanned, failed=excluded.failed,
			setups=excluded.setups, duration_ms=excluded.duration_ms`

	sqliteUpsertRegime = `INSERT INTO market_regime
		(scan_timestamp, label, is_bullish, benchmark_close, benchmark_ema, detail)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(scan_timestamp) DO UPDATE SET
			label=excluded.label, is_bullish=excluded.is_bullish,
			benchmark_close=excluded.benchmark_close, benchmark_ema=excluded.benchmark_ema,
			detail=excluded.detail`

	sqliteUpsertSetup = `INSERT INTO scan_setups
		(scan_id, scan_timestamp, ticker, sector, setup_type, entry, stop_loss, take_profit,
		 risk_reward, setup_date, metadata)
		VALUES (:scan_id, :scan_timestamp, :ticker, :sector, :setup_type, :entry, :stop_loss,
		 :take_profit, :risk_reward, :setup_date, :metadata)
		ON CONFLICT(scan_timestamp, ticker, setup_type) DO UPDATE SET
			scan_id=excluded.scan_id, sector=excluded.sector, entry=excluded.entry,
			stop_loss=excluded.stop_loss, take_profit=excluded.take_profit,
			risk_reward=excluded.risk_reward, setup_date=excluded.setup_date,
			metadata=excluded.metadata`

	sqliteUpsertZone = `INSERT INTO sr_zones
		(scan_timestamp, ticker, zone_type, level, upper, lower)
		VALUES (:scan_timestamp, :ticker, :zone_type, :level, :upper, :lower)
		ON CONFLICT(scan_timestamp, ticker, level) DO UPDATE SET
			zone_type=excluded.zone_type, upper=excluded.upper, lower=excluded.lower`
)

func (r *SQLiteRecorder) RecordScan(ctx context.Context, res *model.ScanResult) error {
	setups, err := setupRows(res)
	if err != nil {
		return fmt.Errorf("encode setups: %w", err)
	}
	zones := zoneRows(res)

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ts := res.Timestamp.Unix()
	if _, err := tx.ExecContext(ctx, sqliteUpsertRun,
		res.ID, ts, res.Tickers, res.Scanned, res.Failed, len(res.Setups), res.Duration.Milliseconds(),
	); err != nil {
		return fmt.Errorf("insert scan run: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sqliteUpsertRegime,
		ts, string(res.Regime.Label), res.Regime.IsBullish,
		res.Regime.BenchmarkClose, res.Regime.BenchmarkEMA, res.Regime.Detail,
	); err != nil {
		return fmt.Errorf("insert regime: %w", err)
	}
	for _, row := range setups {
		if _, err := tx.NamedExecContext(ctx, sqliteUpsertSetup, row); err != nil {
			return fmt.Errorf("upsert setup %s/%s: %w", row.Ticker, row.SetupType, err)
		}
	}
	for _, row := range zones {
		if _, err := tx.NamedExecContext(ctx, sqliteUpsertZone, row); err != nil {
			return fmt.Errorf("upsert zone %s@%.2f: %w", row.Ticker, row.Level, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.log.Debug().Str("scan_id", res.ID).Int("setups", len(setups)).Int("zones", len(zones)).Msg("scan recorded")
	return nil
}

// StoredSetup is a persisted setup row as read back from scan_setups.
type StoredSetup struct {
	ScanID     string  `db:"scan_id"`
	ScanTS     int64   `db:"scan_timestamp"`
	Ticker     string  `db:"ticker"`
	Sector     string  `db:"sector"`
	SetupType  string  `db:"setup_type"`
	Entry      float64 `db:"entry"`
	StopLoss   float64 `db:"stop_loss"`
	TakeProfit float64 `db:"take_profit"`
	RiskReward float64 `db:"risk_reward"`
	SetupDate  string  `db:"setup_date"`
	Metadata   string  `db:"metadata"`
}

// SetupsAt returns the setups recorded for a scan timestamp, ordered by ticker then type.
func (r *SQLiteRecorder) SetupsAt(ctx context.Context, scanTS int64) ([]StoredSetup, error) {
	var out []StoredSetup
	err := r.db.SelectContext(ctx, &out, `SELECT scan_id, scan_timestamp, ticker, sector, setup_type,
		entry, stop_loss, take_profit, risk_reward, setup_date, metadata
		FROM scan_setups WHERE scan_timestamp = ? ORDER BY ticker, setup_type`, scanTS)
	if err != nil {
		return nil, fmt.Errorf("select setups: %w", err)
	}
	return out, nil
}

// ZonesAt returns the zones recorded for a ticker at a scan timestamp, ascending by level.
func (r *SQLiteRecorder) ZonesAt(ctx context.Context, scanTS int64, ticker string) ([]model.Zone, error) {
	var out []model.Zone
	err := r.db.SelectContext(ctx, &out, `SELECT zone_type, level, upper, lower
		FROM sr_zones WHERE scan_timestamp = ? AND ticker = ? ORDER BY level`, scanTS, ticker)
	if err != nil {
		return nil, fmt.Errorf("select zones: %w", err)
	}
	return out, nil
}

// LastRegime returns the most recently recorded regime, or nil when none exists.
func (r *SQLiteRecorder) LastRegime(ctx context.Context) (*model.MarketRegime, error) {
	var rows []struct {
		Label  string  `db:"label"`
		Bull   bool    `db:"is_bullish"`
		Close  float64 `db:"benchmark_close"`
		EMA    float64 `db:"benchmark_ema"`
		Detail string  `db:"detail"`
	}
	err := r.db.SelectContext(ctx, &rows, `SELECT label, is_bullish, benchmark_close, benchmark_ema, detail
		FROM market_regime ORDER BY scan_timestamp DESC LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("select regime: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	return &model.MarketRegime{
		IsBullish:      row.Bull,
		BenchmarkClose: row.Close,
		BenchmarkEMA:   row.EMA,
		Label:          model.RegimeLabel(row.Label),
		Detail:         row.Detail,
	}, nil
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
