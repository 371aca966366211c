package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"SwingScanner/internal/model"
)

// PostgresRecorder persists scan history to PostgreSQL.
type PostgresRecorder struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewPostgresRecorder connects to dsn, verifies the connection and runs migrations.
func NewPostgresRecorder(ctx context.Context, dsn string, logger zerolog.Logger) (*PostgresRecorder, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	poolConfig.MaxConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &PostgresRecorder{pool: pool, log: logger.With().Str("component", "postgres_recorder").Logger()}
	if err := r.migrate(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	r.log.Info().Str("database", poolConfig.ConnConfig.Database).Msg("postgres recorder connected")
	return r, nil
}

func (r *PostgresRecorder) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id             TEXT PRIMARY KEY,
			scan_timestamp TIMESTAMPTZ NOT NULL,
			tickers        INTEGER,
			scanned        INTEGER,
			failed         INTEGER,
			setups         INTEGER,
			duration_ms    BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS market_regime (
			scan_timestamp  TIMESTAMPTZ PRIMARY KEY,
			label           VARCHAR(16) NOT NULL,
			is_bullish      BOOLEAN NOT NULL,
			benchmark_close DOUBLE PRECISION,
			benchmark_ema   DOUBLE PRECISION,
			detail          TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS scan_setups (
			id             BIGSERIAL PRIMARY KEY,
			scan_id        TEXT NOT NULL,
			scan_timestamp TIMESTAMPTZ NOT NULL,
			ticker         VARCHAR(16) NOT NULL,
			sector         TEXT,
			setup_type     VARCHAR(16) NOT NULL,
			entry          DOUBLE PRECISION,
			stop_loss      DOUBLE PRECISION,
			take_profit    DOUBLE PRECISION,
			risk_reward    DOUBLE PRECISION,
			setup_date     DATE,
			metadata       JSONB,
			UNIQUE (scan_timestamp, ticker, setup_type)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_setups_ticker ON scan_setups(ticker)`,
		`CREATE TABLE IF NOT EXISTS sr_zones (
			id             BIGSERIAL PRIMARY KEY,
			scan_timestamp TIMESTAMPTZ NOT NULL,
			ticker         VARCHAR(16) NOT NULL,
			zone_type      VARCHAR(16) NOT NULL,
			level          DOUBLE PRECISION NOT NULL,
			upper          DOUBLE PRECISION,
			lower          DOUBLE PRECISION,
			UNIQUE (scan_timestamp, ticker, level)
		)`,
	}
	for _, s := range stmts {
		if _, err := r.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *PostgresRecorder) RecordScan(ctx context.Context, res *model.ScanResult) error {
	setups, err := setupRows(res)
	if err != nil {
		return fmt.Errorf("encode setups: %w", err)
	}
	zones := zoneRows(res)
	ts := res.Timestamp.Truncate(time.Second).UTC()

	batch := &pgx.Batch{}
	batch.Queue(`INSERT INTO scan_runs (id, scan_timestamp, tickers, scanned, failed, setups, duration_ms)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET tickers=EXCLUDED.tickers, scanned=EXCLUDED.scanned,
			failed=EXCLUDED.failed, setups=EXCLUDED.setups, duration_ms=EXCLUDED.duration_ms`,
		res.ID, ts, res.Tickers, res.Scanned, res.Failed, len(res.Setups), res.Duration.Milliseconds())
	batch.Queue(`INSERT INTO market_regime (scan_timestamp, label, is_bullish, benchmark_close, benchmark_ema, detail)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (scan_timestamp) DO UPDATE SET label=EXCLUDED.label, is_bullish=EXCLUDED.is_bullish,
			benchmark_close=EXCLUDED.benchmark_close, benchmark_ema=EXCLUDED.benchmark_ema, detail=EXCLUDED.detail`,
		ts, string(res.Regime.Label), res.Regime.IsBullish, res.Regime.BenchmarkClose, res.Regime.BenchmarkEMA, res.Regime.Detail)
	for _, s := range setups {
		batch.Queue(`INSERT INTO scan_setups (scan_id, scan_timestamp, ticker, sector, setup_type, entry,
			stop_loss, take_profit, risk_reward, setup_date, metadata)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10::date,$11::jsonb)
			ON CONFLICT (scan_timestamp, ticker, setup_type) DO UPDATE SET scan_id=EXCLUDED.scan_id,
				sector=EXCLUDED.sector, entry=EXCLUDED.entry, stop_loss=EXCLUDED.stop_loss,
				take_profit=EXCLUDED.take_profit, risk_reward=EXCLUDED.risk_reward,
				setup_date=EXCLUDED.setup_date, metadata=EXCLUDED.metadata`,
			s.ScanID, ts, s.Ticker, s.Sector, s.SetupType, s.Entry,
			s.StopLoss, s.TakeProfit, s.RiskReward, s.SetupDate, s.Metadata)
	}
	for _, z := range zones {
		batch.Queue(`INSERT INTO sr_zones (scan_timestamp, ticker, zone_type, level, upper, lower)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (scan_timestamp, ticker, level) DO UPDATE SET zone_type=EXCLUDED.zone_type,
				upper=EXCLUDED.upper, lower=EXCLUDED.lower`,
			ts, z.Ticker, string(z.Type), z.Level, z.Upper, z.Lower)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.log.Debug().Str("scan_id", res.ID).Int("statements", batch.Len()).Msg("scan recorded")
	return nil
}

func (r *PostgresRecorder) Close() error {
	r.log.Info().Msg("closing postgres recorder")
	r.pool.Close()
	return nil
}
