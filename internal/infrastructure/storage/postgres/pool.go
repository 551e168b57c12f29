// Package postgres provides PostgreSQL infrastructure components.
package postgres

import (
	"context"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storeledger/pkg/logger"
)

// PoolConfig holds connection pool configuration. Zero values keep the
// pgxpool defaults (or the DSN's pool_* parameters).
type PoolConfig struct {
	DSN             string
	ApplicationName string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	// ConnectTimeout bounds the initial ping.
	ConnectTimeout time.Duration
}

// DefaultPoolConfig returns the server defaults for dsn.
func DefaultPoolConfig(dsn string) PoolConfig {
	return PoolConfig{
		DSN:             dsn,
		ApplicationName: "storeledger",
		MaxConns:        25,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
}

func (c PoolConfig) pgxConfig() (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	if c.MaxConns > 0 {
		pc.MaxConns = c.MaxConns
	}
	if c.MinConns > 0 {
		pc.MinConns = c.MinConns
	}
	if c.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = c.MaxConnLifetime
	}
	if c.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = c.MaxConnIdleTime
	}
	if c.ApplicationName != "" {
		pc.ConnConfig.RuntimeParams["application_name"] = c.ApplicationName
	}

	// Quantities and costs are NUMERIC; scan them straight into decimal.Decimal.
	pc.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	return pc, nil
}

// Pool is the process-wide connection pool.
type Pool struct {
	*pgxpool.Pool
}

// NewPool opens a pool and pings the database once.
func NewPool(ctx context.Context, cfg PoolConfig) (*Pool, error) {
	pc, err := cfg.pgxConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Close is safe on a zero Pool.
func (p *Pool) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}

// PoolStats is the pool snapshot reported by the health endpoint.
type PoolStats struct {
	TotalConns    int32 `json:"totalConns"`
	AcquiredConns int32 `json:"acquiredConns"`
	IdleConns     int32 `json:"idleConns"`
	MaxConns      int32 `json:"maxConns"`
	// WaitedAcquires counts acquires that had to wait for a free connection.
	WaitedAcquires int64         `json:"waitedAcquires"`
	AcquireWait    time.Duration `json:"acquireWait"`
}

// Saturated reports whether every connection is checked out.
func (s PoolStats) Saturated() bool {
	return s.MaxConns > 0 && s.AcquiredConns >= s.MaxConns
}

// Stats returns the current pool statistics.
func (p *Pool) Stats() PoolStats {
	st := p.Stat()
	return PoolStats{
		TotalConns:     st.TotalConns(),
		AcquiredConns:  st.AcquiredConns(),
		IdleConns:      st.IdleConns(),
		MaxConns:       st.MaxConns(),
		WaitedAcquires: st.EmptyAcquireCount(),
		AcquireWait:    st.AcquireDuration(),
	}
}

// LogStats writes the pool statistics, at warn level when the pool is saturated.
func (p *Pool) LogStats(ctx context.Context) {
	s := p.Stats()
	kv := []any{
		"total", s.TotalConns,
		"acquired", s.AcquiredConns,
		"idle", s.IdleConns,
		"max", s.MaxConns,
		"waited_acquires", s.WaitedAcquires,
	}
	if s.Saturated() {
		logger.Warn(ctx, "database pool saturated", kv...)
		return
	}
	logger.Info(ctx, "database pool stats", kv...)
}
