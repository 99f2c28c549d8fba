package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "form_submissions_total",
		Help: "Relayed form submissions by outcome.",
	}, []string{"outcome"})

	SideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "form_side_effect_failures_total",
		Help: "Swallowed failures of best-effort side effects.",
	}, []string{"effect"})

	Webhooks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cms_webhooks_total",
		Help: "CMS webhook deliveries by result.",
	}, []string{"result"})
)
