// internal/utils/metrics/collector.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "plasma"

// Collector владеет собственным реестром, поэтому несколько экземпляров
// (например, в тестах) не конфликтуют при регистрации.
type Collector struct {
	registry *prometheus.Registry

	rpcLatency   *prometheus.HistogramVec
	rpcErrors    *prometheus.CounterVec
	refreshes    *prometheus.CounterVec
	poolReserves *prometheus.GaugeVec
	poolSlot     *prometheus.GaugeVec
	poolPrice    *prometheus.GaugeVec
	protocolFees *prometheus.GaugeVec
}

// PoolState - срез состояния пула для экспорта
type PoolState struct {
	Slot                    uint64
	BaseReserve             uint64
	QuoteReserve            uint64
	SpotPrice               float64 // quote за base
	UncollectedProtocolFees uint64
}

// NewCollector создает коллектор и регистрирует все метрики
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		rpcLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rpc_latency_seconds",
				Help:      "RPC request latency in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"method", "endpoint"},
		),
		rpcErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rpc_errors_total",
				Help:      "Failed RPC requests",
			},
			[]string{"method", "endpoint"},
		),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pool_refresh_total",
				Help:      "Pool snapshot refresh attempts",
			},
			[]string{"pool", "status"},
		),
		poolReserves: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_reserve",
				Help:      "Current AMM reserves in atoms",
			},
			[]string{"pool", "side"},
		),
		poolSlot: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_snapshot_slot",
				Help:      "Slot of the latest pool snapshot",
			},
			[]string{"pool"},
		),
		poolPrice: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_spot_price",
				Help:      "Quote per base price of the live reserves",
			},
			[]string{"pool"},
		),
		protocolFees: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_uncollected_protocol_fees",
				Help:      "Protocol fees accumulated but not yet collected, in quote atoms",
			},
			[]string{"pool"},
		),
	}

	c.registry.MustRegister(c.rpcLatency, c.rpcErrors, c.refreshes,
		c.poolReserves, c.poolSlot, c.poolPrice, c.protocolFees)
	return c
}

// Registry возвращает реестр для экспорта через promhttp
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRPCLatency записывает метрики RPC-запроса
func (c *Collector) RecordRPCLatency(method, endpoint string, duration time.Duration, success bool) {
	c.rpcLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	if !success {
		c.rpcErrors.WithLabelValues(method, endpoint).Inc()
	}
}

// RecordRefresh учитывает попытку обновления снапшота пула
func (c *Collector) RecordRefresh(pool string, success bool) {
	status := "success"
	if !success {
		status = "failed"
	}
	c.refreshes.WithLabelValues(pool, status).Inc()
}

// UpdatePoolState обновляет резервы, цену, комиссии и слот пула
func (c *Collector) UpdatePoolState(pool string, state PoolState) {
	c.poolReserves.WithLabelValues(pool, "base").Set(float64(state.BaseReserve))
	c.poolReserves.WithLabelValues(pool, "quote").Set(float64(state.QuoteReserve))
	c.poolSlot.WithLabelValues(pool).Set(float64(state.Slot))
	c.poolPrice.WithLabelValues(pool).Set(state.SpotPrice)
	c.protocolFees.WithLabelValues(pool).Set(float64(state.UncollectedProtocolFees))
}
