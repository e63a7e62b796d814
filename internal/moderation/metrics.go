package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cu_moderation_decisions_total",
		Help: "Moderation decisions for new comments by content type and outcome.",
	}, []string{"content_type", "decision"})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cu_moderation_notifications_total",
		Help: "Comment notification emails by result.",
	}, []string{"result"})

	spamChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cu_akismet_checks_total",
		Help: "Akismet comment checks by result.",
	}, []string{"result"})
)
