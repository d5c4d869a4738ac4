package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulse_sessions_created_total",
		Help: "Total number of sessions created.",
	})
	SessionsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_sessions_ended_total",
		Help: "Total number of sessions ended, by reason.",
	}, []string{"reason"})
	PromptsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_prompts_published_total",
		Help: "Total number of prompts published, by kind.",
	}, []string{"kind"})
	Responses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_responses_total",
		Help: "Total number of submitted responses, by result.",
	}, []string{"result"})
	TransactionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulse_transaction_conflicts_total",
		Help: "Total number of storage transactions retried after a conflict.",
	})
	NotificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulse_notifications_dropped_total",
		Help: "Total number of change notifications dropped because a queue was full.",
	})
	ActiveSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pulse_active_subscriptions",
		Help: "Number of live change subscriptions.",
	})
	WorkerRestarts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_worker_restarts_total",
		Help: "Total number of background worker restarts after an error or a panic.",
	}, []string{"worker"})
	ProcessCPU = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pulse_process_cpu_percent",
		Help: "CPU usage of the server process at the last sample.",
	})
)
