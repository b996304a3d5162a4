// Package metrics exposes the engine's Prometheus counters and gauges,
// served by internal/httpserver at /metrics (§4.10).
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	DetectorFires = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detector_fires_total",
			Help: "Closed candles on which the movement detector fired and armed a position.",
		},
		[]string{"symbol"},
	)

	EntriesOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entries_opened_total",
			Help: "Positions opened after an armed position's threshold breached.",
		},
		[]string{"symbol", "direction"},
	)

	LadderAdvances = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ladder_advances_total",
			Help: "Trailing-stop ratchets performed as price cleared a ladder rung.",
		},
		[]string{"symbol"},
	)

	GatewayErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_errors_total",
			Help: "Exchange REST or websocket operations that failed after retry.",
		},
		[]string{"symbol", "kind"},
	)

	StaleArmsExpired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stale_arms_expired_total",
			Help: "Armed positions reset to idle by housekeeping after exceeding arm_ttl.",
		},
		[]string{"symbol"},
	)

	ArmedPositions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "armed_positions",
			Help: "Positions currently armed, by symbol.",
		},
		[]string{"symbol"},
	)

	OpenPositions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "open_positions",
			Help: "Positions currently open, by symbol.",
		},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(
		DetectorFires,
		EntriesOpened,
		LadderAdvances,
		GatewayErrors,
		StaleArmsExpired,
		ArmedPositions,
		OpenPositions,
	)
}
