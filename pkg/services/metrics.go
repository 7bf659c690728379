package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/models"
)

// Metrics records question pipeline outcomes.
type Metrics struct {
	questionsTotal *prometheus.CounterVec
	warningsTotal  *prometheus.CounterVec
	llmTokensTotal *prometheus.CounterVec
	durationMs     *prometheus.HistogramVec
	resultRows     prometheus.Histogram
}

// NewMetrics creates the pipeline collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		questionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlassistant_questions_total",
				Help: "Total number of questions by final state and failure kind.",
			},
			[]string{"state", "failure"},
		),
		warningsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlassistant_validation_warnings_total",
				Help: "Total number of non-fatal validation warnings by code.",
			},
			[]string{"code"},
		),
		llmTokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlassistant_llm_tokens_total",
				Help: "Total number of language model tokens by call and direction.",
			},
			[]string{"call", "direction"},
		),
		durationMs: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sqlassistant_question_duration_ms",
				Help:    "End-to-end question latency in milliseconds.",
				Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
			},
			[]string{"state"},
		),
		resultRows: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sqlassistant_result_rows",
				Help:    "Rows returned by executed queries.",
				Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.questionsTotal, m.warningsTotal, m.llmTokensTotal, m.durationMs, m.resultRows)
	}
	return m
}

// ObserveAnswer records the outcome of one question.
func (m *Metrics) ObserveAnswer(answer *models.Answer, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.questionsTotal.WithLabelValues(string(answer.State), answer.Failure).Inc()
	m.durationMs.WithLabelValues(string(answer.State)).Observe(float64(elapsed.Milliseconds()))
}

// ObserveWarning counts one validation warning.
func (m *Metrics) ObserveWarning(code string) {
	if m == nil {
		return
	}
	m.warningsTotal.WithLabelValues(code).Inc()
}

// ObserveTokens adds token usage for an LLM call ("sql" or "answer").
func (m *Metrics) ObserveTokens(call string, prompt, completion int) {
	if m == nil {
		return
	}
	m.llmTokensTotal.WithLabelValues(call, "prompt").Add(float64(prompt))
	m.llmTokensTotal.WithLabelValues(call, "completion").Add(float64(completion))
}

// ObserveRows records the size of an executed result.
func (m *Metrics) ObserveRows(n int) {
	if m == nil {
		return
	}
	m.resultRows.Observe(float64(n))
}

