package health

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

type Checker interface {
	Check(ctx context.Context) CheckResult
}

// ProbeRunner runs readiness checkers with a per-check timeout and caches the
// combined result briefly so probe storms do not hammer the backing stores.
type ProbeRunner struct {
	timeout  time.Duration
	cacheTTL time.Duration

	mu       sync.Mutex
	checkers []Checker
	cachedAt time.Time
	cached   []CheckResult
}

func NewProbeRunner(timeout, cacheTTL time.Duration) *ProbeRunner {
	return &ProbeRunner{timeout: timeout, cacheTTL: cacheTTL}
}

func (p *ProbeRunner) Register(c Checker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkers = append(p.checkers, c)
}

func (p *ProbeRunner) Ready(ctx context.Context) (bool, []CheckResult) {
	p.mu.Lock()
	if time.Since(p.cachedAt) < p.cacheTTL && p.cached != nil {
		results := p.cached
		p.mu.Unlock()
		return allHealthy(results), results
	}
	checkers := make([]Checker, len(p.checkers))
	copy(checkers, p.checkers)
	p.mu.Unlock()

	results := make([]CheckResult, 0, len(checkers))
	for _, c := range checkers {
		checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
		results = append(results, c.Check(checkCtx))
		cancel()
	}

	p.mu.Lock()
	p.cached = results
	p.cachedAt = time.Now()
	p.mu.Unlock()
	return allHealthy(results), results
}

func allHealthy(results []CheckResult) bool {
	for _, r := range results {
		if !r.Healthy {
			return false
		}
	}
	return true
}

type RedisChecker struct{ Client redis.UniversalClient }

func (c RedisChecker) Check(ctx context.Context) CheckResult {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return CheckResult{Name: "redis", Error: err.Error()}
	}
	return CheckResult{Name: "redis", Healthy: true}
}

type DatabaseChecker struct{ DB *gorm.DB }

func (c DatabaseChecker) Check(ctx context.Context) CheckResult {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return CheckResult{Name: "database", Error: err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return CheckResult{Name: "database", Error: err.Error()}
	}
	return CheckResult{Name: "database", Healthy: true}
}
