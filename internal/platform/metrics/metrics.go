package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the trust layer.
// Transaction retry counts live in the docstore package, next to the retry
// loop that observes them.
type Metrics struct {
	SignatureVerifications *prometheus.CounterVec
	VerifyDuration         prometheus.Histogram
	UIDsLinked             prometheus.Counter
	UsersDestroyed         prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		SignatureVerifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "uidtrust_signature_verifications_total",
			Help: "Signature verification attempts by outcome",
		}, []string{"outcome"}),
		VerifyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "uidtrust_signature_verify_duration_seconds",
			Help:    "Latency of signature verification including oracle round trips",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		UIDsLinked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "uidtrust_uid_recipients_linked_total",
			Help: "Successful UID recipient authorizations recorded",
		}),
		UsersDestroyed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "uidtrust_users_destroyed_total",
			Help: "User records destroyed after on-chain UID burns",
		}),
	}
}

// NewForTest creates metrics on a throwaway registry so parallel tests do not
// collide on the default registerer.
func NewForTest() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		SignatureVerifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "uidtrust_signature_verifications_total",
			Help: "Signature verification attempts by outcome",
		}, []string{"outcome"}),
		VerifyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "uidtrust_signature_verify_duration_seconds",
			Help: "Latency of signature verification including oracle round trips",
		}),
		UIDsLinked: factory.NewCounter(prometheus.CounterOpts{
			Name: "uidtrust_uid_recipients_linked_total",
			Help: "Successful UID recipient authorizations recorded",
		}),
		UsersDestroyed: factory.NewCounter(prometheus.CounterOpts{
			Name: "uidtrust_users_destroyed_total",
			Help: "User records destroyed after on-chain UID burns",
		}),
	}
}
