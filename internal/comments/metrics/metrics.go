// metrics — счётчики пайплайна модерации; экспонируются на служебном
// HTTP через promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Decisions — автоматические решения пайплайна по итоговому статусу.
	Decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "comments",
		Subsystem: "moderation",
		Name:      "decisions_total",
		Help:      "Automatic moderation decisions by resulting status.",
	}, []string{"status"})

	// RateLimited — отправки, отклонённые до пайплайна за нарушение
	// минимального интервала.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "comments",
		Subsystem: "moderation",
		Name:      "rate_limited_total",
		Help:      "Submissions rejected for violating the minimum spacing.",
	})

	// TrackerEvictions — личности, выгруженные janitor'ом трекера.
	TrackerEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "comments",
		Subsystem: "tracker",
		Name:      "evictions_total",
		Help:      "Idle identities evicted from the behavioral tracker.",
	})

	// ExtractTruncated — входы, не уложившиеся в лимиты экстрактора.
	ExtractTruncated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "comments",
		Subsystem: "moderation",
		Name:      "extract_truncated_total",
		Help:      "Inputs that exceeded the signal extractor scan limits.",
	})

	// Reports — зарегистрированные жалобы по причинам.
	Reports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "comments",
		Subsystem: "reports",
		Name:      "submitted_total",
		Help:      "Submitted reports by reason.",
	}, []string{"reason"})
)
