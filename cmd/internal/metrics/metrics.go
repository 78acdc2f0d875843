package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// GenerationOutcomes 는 워커가 generate 이벤트를 끝낸 결과를 센다.
	// outcome: completed | failed | duplicate | republished
	GenerationOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edugen_generation_outcomes_total",
			Help: "Total number of generate events handled by the worker, by outcome",
		},
		[]string{"outcome", "error_kind"},
	)
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edugen_provider_call_duration_milliseconds",
			Help:    "AI provider call duration in milliseconds",
			Buckets: []float64{250, 500, 1000, 2000, 5000, 10000, 20000, 40000, 60000},
		},
		[]string{"provider", "status"},
	)
	// QuotaDecisions 는 API 의 사용량 예약 결과를 센다. result: accepted | exceeded | error
	QuotaDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edugen_quota_decisions_total",
			Help: "Total number of quota reservations, by result",
		},
		[]string{"result"},
	)
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edugen_events_published_total",
			Help: "Total number of generation events published, by type and status",
		},
		[]string{"type", "status"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edugen_http_requests_total",
			Help: "Total number of HTTP requests served by the API",
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(GenerationOutcomes)
	prometheus.MustRegister(ProviderLatency)
	prometheus.MustRegister(QuotaDecisions)
	prometheus.MustRegister(EventsPublished)
	prometheus.MustRegister(HTTPRequests)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// PublishStatus 는 발행 오류를 레이블 값으로 바꾼다.
func PublishStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
