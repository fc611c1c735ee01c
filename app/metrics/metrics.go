package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultOK              = "ok"
	ResultError           = "error"
	ResultInvalidAmount   = "invalid_amount"
	ResultRemoteRejected  = "remote_rejected"
	ResultAccepted        = "accepted"
	ResultDuplicate       = "duplicate"
	ResultRejected        = "rejected"
	ResultUnknownEnvLabel = "unknown"
)

var (
	InvoicesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dagpay_invoices_created_total",
		Help: "Invoice creation attempts by environment and result",
	}, []string{"environment", "result"})

	StatusCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dagpay_status_callbacks_total",
		Help: "Inbound status callbacks by environment and verification result",
	}, []string{"environment", "result"})

	GatewayDuration = promauto.NewSummaryVec(prometheus.SummaryOpts{
		Name:       "dagpay_gateway_duration_seconds",
		Help:       "Gateway API call duration and result",
		MaxAge:     time.Minute,
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}, []string{"environment", "method", "result"})
)

func ObserveGatewayCall(environment, method string, started time.Time, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	GatewayDuration.WithLabelValues(environment, method, result).Observe(time.Since(started).Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}
