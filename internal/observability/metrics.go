// Package observability holds the Prometheus metrics and OpenTelemetry tracing setup.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// ReactionsTotal counts applied reaction transitions, e.g. like/neutral->liked.
	ReactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devconnector_reactions_total",
		Help: "Total number of applied reaction transitions",
	}, []string{"action", "transition"})

	// ReactionConflicts counts compare-and-swap retries caused by concurrent reactions.
	ReactionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devconnector_reaction_conflicts_total",
		Help: "Total number of reaction updates retried after a concurrent change",
	})

	// CommentsTotal counts comment ledger operations.
	CommentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devconnector_comments_total",
		Help: "Total number of comment operations",
	}, []string{"operation"})

	// AccountDeletions counts cascade deletions by outcome.
	AccountDeletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devconnector_account_deletions_total",
		Help: "Total number of account cascade deletions",
	}, []string{"outcome"})

	// GitHubRequests counts upstream GitHub calls by outcome.
	GitHubRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devconnector_github_requests_total",
		Help: "Total number of GitHub API requests",
	}, []string{"outcome"})

	// RedisErrorRate counts Redis errors by command.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devconnector_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devconnector_cache_lookups_total",
		Help: "Total number of cache lookups by result",
	}, []string{"result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "devconnector_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

const startTimeKey = "observability:start_time"

// RegisterDatabaseMetrics installs gorm callbacks that feed DatabaseQueryLatency.
func RegisterDatabaseMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(startTimeKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startTimeKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			DatabaseQueryLatency.WithLabelValues(operation, tx.Statement.Table).
				Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		name     string
		register func(string, func(*gorm.DB)) error
		after    func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, s := range steps {
		if err := s.register("observability:before_"+s.name, before); err != nil {
			return err
		}
		if err := s.after("observability:after_"+s.name, after(s.name)); err != nil {
			return err
		}
	}
	return nil
}
