// Package metrics регистрирует метрики Prometheus движка квоты и прав доступа.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

const namespace = "cleaner"

// Metrics: набор метрик движка.
type Metrics struct {
	authorizations     *prometheus.CounterVec
	deletions          prometheus.Counter
	verificationFailed prometheus.Counter
	scans              *prometheus.CounterVec
	purchases          *prometheus.CounterVec
	transitions        *prometheus.CounterVec
	status             *prometheus.GaugeVec
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		authorizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorizations_total",
			Help:      "Deletion authorization decisions by result.",
		}, []string{"result"}),
		deletions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletions_recorded_total",
			Help:      "Files recorded as deleted.",
		}),
		verificationFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_failures_total",
			Help:      "Store transactions that failed verification.",
		}),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entitlement_scans_total",
			Help:      "Entitlement scans by result.",
		}, []string{"result"}),
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchases_total",
			Help:      "Purchase attempts by outcome.",
		}, []string{"outcome", "failure"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Subscription status transitions.",
		}, []string{"from", "to", "legal"}),
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscription_status",
			Help:      "Current subscription status, 1 for the active one.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.authorizations, m.deletions, m.verificationFailed, m.scans, m.purchases, m.transitions, m.status)
	return m
}

// Authorization учитывает решение авторизатора.
func (m *Metrics) Authorization(d models.Decision, requested int) {
	switch {
	case !d.Allowed:
		m.authorizations.WithLabelValues("denied").Inc()
	case d.Partial(requested):
		m.authorizations.WithLabelValues("partial").Inc()
	default:
		m.authorizations.WithLabelValues("allowed").Inc()
	}
}

// Deleted учитывает записанные удаления.
func (m *Metrics) Deleted(n int) {
	m.deletions.Add(float64(n))
}

// VerificationFailed учитывает непрошедшую проверку транзакцию.
func (m *Metrics) VerificationFailed() {
	m.verificationFailed.Inc()
}

// Scan учитывает пересчёт прав.
func (m *Metrics) Scan(err error) {
	if err != nil {
		m.scans.WithLabelValues("error").Inc()
		return
	}
	m.scans.WithLabelValues("ok").Inc()
}

// Purchase учитывает исход покупки.
func (m *Metrics) Purchase(r models.PurchaseResult) {
	m.purchases.WithLabelValues(string(r.Outcome), string(r.Failure)).Inc()
}

// Transition учитывает смену статуса подписки.
func (m *Metrics) Transition(from, to models.SubscriptionStatus, legal bool) {
	l := "true"
	if !legal {
		l = "false"
	}
	m.transitions.WithLabelValues(string(from), string(to), l).Inc()
}

// Status выставляет текущий статус подписки.
func (m *Metrics) Status(s models.SubscriptionStatus) {
	for _, st := range []models.SubscriptionStatus{models.StatusFree, models.StatusTrial, models.StatusPremium, models.StatusExpired} {
		v := 0.0
		if st == s {
			v = 1
		}
		m.status.WithLabelValues(string(st)).Set(v)
	}
}
