package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ameeeetster/iga-risk-engine/internal/infrastructure/config"
)

// ConnectionPool wraps a pgx pool with health checks and a circuit
// breaker guarding acquisition.
type ConnectionPool struct {
	pool            *pgxpool.Pool
	config          *config.DatabaseConfig
	logger          *zap.Logger
	healthCheckStop chan struct{}
	circuitBreaker  *CircuitBreaker
}

// CircuitBreaker implements circuit breaker pattern for database connections
type CircuitBreaker struct {
	mu              sync.Mutex
	failureCount    int
	lastFailureTime time.Time
	state           CircuitState
	timeout         time.Duration
	threshold       int
}

type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// NewConnectionPool creates a new connection pool
func NewConnectionPool(cfg *config.DatabaseConfig, logger *zap.Logger) (*ConnectionPool, error) {
	pool := &ConnectionPool{
		config:          cfg,
		logger:          logger,
		healthCheckStop: make(chan struct{}),
		circuitBreaker: &CircuitBreaker{
			timeout:   30 * time.Second,
			threshold: 10,
			state:     CircuitClosed,
		},
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	pool.configurePgxPool(poolConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool.pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	go pool.healthCheckRoutine()

	logger.Info("database connection pool initialized",
		zap.Int("max_connections", int(poolConfig.MaxConns)))

	return pool, nil
}

// configurePgxPool applies pool settings from config with defaults.
func (p *ConnectionPool) configurePgxPool(poolConfig *pgxpool.Config) {
	if p.config.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(p.config.MaxOpenConns)
	} else {
		poolConfig.MaxConns = 25
	}
	if p.config.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(p.config.MaxIdleConns)
	} else {
		poolConfig.MinConns = 5
	}
	if p.config.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = p.config.ConnMaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	poolConfig.ConnConfig.ConnectTimeout = 5 * time.Second
	poolConfig.ConnConfig.RuntimeParams = map[string]string{
		"application_name":  "iga_risk_engine",
		"timezone":          "UTC",
		"lock_timeout":      "10s",
		"statement_timeout": "30s",
	}

	poolConfig.BeforeAcquire = func(ctx context.Context, conn *pgx.Conn) bool {
		if !p.circuitBreaker.Allow() {
			return false
		}
		ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		if err := conn.Ping(ctx); err != nil {
			p.circuitBreaker.RecordFailure()
			return false
		}
		p.circuitBreaker.RecordSuccess()
		return true
	}
}

// Pool returns the underlying pgx pool.
func (p *ConnectionPool) Pool() *pgxpool.Pool {
	return p.pool
}

// healthCheckRoutine performs periodic health checks
func (p *ConnectionPool) healthCheckRoutine() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.performHealthCheck()
		case <-p.healthCheckStop:
			return
		}
	}
}

func (p *ConnectionPool) performHealthCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.pool.Ping(ctx); err != nil {
		p.logger.Error("database health check failed", zap.Error(err))
		p.circuitBreaker.RecordFailure()
	}
}

// Close closes all database connections
func (p *ConnectionPool) Close() error {
	close(p.healthCheckStop)
	p.pool.Close()
	p.logger.Info("database connection pool closed")
	return nil
}

// CircuitBreaker methods
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if time.Since(cb.lastFailureTime) > cb.timeout {
			cb.state = CircuitHalfOpen
			return true
		}
		return false
	case CircuitHalfOpen:
		return true
	}
	return false
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	cb.state = CircuitClosed
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = time.Now()

	if cb.failureCount >= cb.threshold {
		cb.state = CircuitOpen
	}
}
