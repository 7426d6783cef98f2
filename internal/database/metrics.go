package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolCollector exports pgxpool statistics on every scrape.
type PoolCollector struct {
	pool *pgxpool.Pool

	acquired      *prometheus.Desc
	idle          *prometheus.Desc
	total         *prometheus.Desc
	max           *prometheus.Desc
	acquires      *prometheus.Desc
	emptyAcquires *prometheus.Desc
	acquireWait   *prometheus.Desc
}

func NewPoolCollector(pool *pgxpool.Pool) *PoolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("c2d_console_db_pool_"+name, help, nil, nil)
	}
	return &PoolCollector{
		pool:          pool,
		acquired:      desc("acquired_conns", "Connections currently checked out."),
		idle:          desc("idle_conns", "Idle connections in the pool."),
		total:         desc("total_conns", "All open connections."),
		max:           desc("max_conns", "Configured pool size."),
		acquires:      desc("acquires_total", "Successful connection acquisitions."),
		emptyAcquires: desc("empty_acquires_total", "Acquisitions that had to wait for a connection."),
		acquireWait:   desc("acquire_wait_seconds_total", "Time spent waiting to acquire connections."),
	}
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquired
	ch <- c.idle
	ch <- c.total
	ch <- c.max
	ch <- c.acquires
	ch <- c.emptyAcquires
	ch <- c.acquireWait
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.GaugeValue, float64(s.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(s.TotalConns()))
	ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, float64(s.MaxConns()))
	ch <- prometheus.MustNewConstMetric(c.acquires, prometheus.CounterValue, float64(s.AcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.emptyAcquires, prometheus.CounterValue, float64(s.EmptyAcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.acquireWait, prometheus.CounterValue, s.AcquireDuration().Seconds())
}

// RegisterPoolMetrics adds the pool collector to reg.
func (db *DB) RegisterPoolMetrics(reg prometheus.Registerer) error {
	return reg.Register(NewPoolCollector(db.Pool))
}
