package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Sign-in metrics

	SignInsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentpay",
		Name:      "sign_ins_total",
		Help:      "Total sign-in attempts, by provider and outcome.",
	}, []string{"provider", "outcome"})

	SignInDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agentpay",
		Name:      "sign_in_duration_seconds",
		Help:      "Time from credential submission to session issue.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"provider"})

	// Provisioning metrics

	ProvisioningTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentpay",
		Name:      "provisioning_total",
		Help:      "Linked-account provisioning decisions, by outcome.",
	}, []string{"outcome"})

	ProvisioningDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "agentpay",
		Name:      "provisioning_duration_seconds",
		Help:      "Duration of holder creation at the financial-data provider.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	})

	// Session metrics

	GateTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentpay",
		Name:      "gate_transitions_total",
		Help:      "Phone-gate transitions, by resulting state.",
	}, []string{"to"})

	SessionRotationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "agentpay",
		Name:      "session_rotations_total",
		Help:      "Number of session tokens re-signed on use.",
	})

	SessionRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentpay",
		Name:      "session_rejections_total",
		Help:      "Presented session tokens that were not accepted, by reason.",
	}, []string{"reason"})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agentpay",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentpay",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		SignInsTotal,
		SignInDuration,
		ProvisioningTotal,
		ProvisioningDuration,
		GateTransitionsTotal,
		SessionRotationsTotal,
		SessionRejectionsTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
