package services

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/models"
)

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAnswer(&models.Answer{State: models.StateDone}, time.Second)
		m.ObserveWarning("unrecognized_join")
		m.ObserveTokens("sql", 10, 2)
		m.ObserveRows(3)
	})
}

func TestMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveAnswer(&models.Answer{State: models.StateFailed, Failure: "unknown_table"}, 150*time.Millisecond)
	m.ObserveRows(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.questionsTotal.WithLabelValues("failed", "unknown_table")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.resultRows))

	families, err := reg.Gather()
	assert.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "sqlassistant_questions_total")
	assert.Contains(t, names, "sqlassistant_question_duration_ms")
}

func TestNewMetrics_NilRegisterer(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(nil).ObserveWarning("suspicious_literal")
	})
}
