package obs

import "github.com/prometheus/client_golang/prometheus"

// Metrics covers the coordinator's hot paths.
type Metrics struct {
	LockAcquireTotal *prometheus.CounterVec // result=success|conflict|error
	LockReleaseTotal *prometheus.CounterVec // result=success|denied|error
	PieceMoveTotal   *prometheus.CounterVec // result=success|placed|denied|error
	BroadcastTotal   *prometheus.CounterVec // event name

	CursorDroppedTotal prometheus.Counter
	SweepClearedTotal  prometheus.Counter
	LocksHeld          prometheus.Gauge
	ConnectionsActive  prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LockAcquireTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "piece_lock_acquire_total",
				Help: "Total piece lock attempts by result",
			},
			[]string{"result"},
		),
		LockReleaseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "piece_lock_release_total",
				Help: "Total piece lock releases by result",
			},
			[]string{"result"},
		),
		PieceMoveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "piece_move_total",
				Help: "Total piece moves by result",
			},
			[]string{"result"},
		),
		BroadcastTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_broadcast_total",
				Help: "Total session broadcasts by event",
			},
			[]string{"event"},
		),
		CursorDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cursor_updates_dropped_total",
			Help: "Cursor updates dropped by the per-connection throttle",
		}),
		SweepClearedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lock_sweep_cleared_total",
			Help: "Stale durable lock mirrors cleared by the reconciliation sweep",
		}),
		LocksHeld: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "piece_locks_held",
			Help: "Durable lock mirrors currently held",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_connections_active",
			Help: "Live realtime connections on this process",
		}),
	}

	reg.MustRegister(
		m.LockAcquireTotal,
		m.LockReleaseTotal,
		m.PieceMoveTotal,
		m.BroadcastTotal,
		m.CursorDroppedTotal,
		m.SweepClearedTotal,
		m.LocksHeld,
		m.ConnectionsActive,
	)

	return m
}
