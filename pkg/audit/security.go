// Package audit provides security audit logging for SIEM consumption.
// Events about generated SQL are logged as structured JSON under the
// "security_audit" logger name so they can be filtered and alerted on.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/logging"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventSuspiciousLiteral is logged when libinjection matches a string literal
	// the model wrote into generated SQL.
	EventSuspiciousLiteral SecurityEventType = "suspicious_literal"
	// EventStatementRejected is logged when generated SQL is refused as unsafe.
	EventStatementRejected SecurityEventType = "statement_rejected"
	// EventQueryExecution is logged for every executed query.
	EventQueryExecution SecurityEventType = "query_execution"
)

// SecurityEvent is one auditable event.
type SecurityEvent struct {
	Timestamp  time.Time         `json:"timestamp"`
	EventType  SecurityEventType `json:"event_type"`
	QuestionID uuid.UUID         `json:"question_id"`
	ClientIP   string            `json:"client_ip,omitempty"`
	Details    any               `json:"details"`
	Severity   string            `json:"severity"` // info, warning, critical
}

// StatementDetails describes the SQL an event refers to. SQL is passed
// through logging.SanitizeQuery before it is recorded.
type StatementDetails struct {
	SQL    string `json:"sql"`
	Reason string `json:"reason,omitempty"`
	Rows   *int   `json:"rows,omitempty"`
}

// SecurityAuditor logs security events. A nil *SecurityAuditor discards them.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates an auditor logging under "security_audit".
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogSuspiciousLiteral records a libinjection hit inside generated SQL. The
// query still runs; the event exists so repeated probing is visible.
func (a *SecurityAuditor) LogSuspiciousLiteral(ctx context.Context, questionID uuid.UUID, sqlText, finding string) {
	if a == nil {
		return
	}
	a.log(ctx, zap.WarnLevel, "Suspicious literal in generated SQL", SecurityEvent{
		EventType:  EventSuspiciousLiteral,
		QuestionID: questionID,
		Details:    StatementDetails{SQL: logging.SanitizeQuery(sqlText), Reason: finding},
		Severity:   "warning",
	})
}

// LogStatementRejected records generated SQL refused before execution.
// Logged at ERROR with "critical" severity.
func (a *SecurityAuditor) LogStatementRejected(ctx context.Context, questionID uuid.UUID, sqlText, reason string) {
	if a == nil {
		return
	}
	a.log(ctx, zap.ErrorLevel, "Generated SQL rejected as unsafe", SecurityEvent{
		EventType:  EventStatementRejected,
		QuestionID: questionID,
		Details:    StatementDetails{SQL: logging.SanitizeQuery(sqlText), Reason: reason},
		Severity:   "critical",
	})
}

// LogQueryExecution records an executed query for the audit trail.
// Note: this logs once per answered question.
func (a *SecurityAuditor) LogQueryExecution(ctx context.Context, questionID uuid.UUID, sqlText string, rows int) {
	if a == nil {
		return
	}
	a.log(ctx, zap.InfoLevel, "Query executed", SecurityEvent{
		EventType:  EventQueryExecution,
		QuestionID: questionID,
		Details:    StatementDetails{SQL: logging.SanitizeQuery(sqlText), Rows: &rows},
		Severity:   "info",
	})
}

func (a *SecurityAuditor) log(ctx context.Context, level zapcore.Level, msg string, event SecurityEvent) {
	event.Timestamp = time.Now().UTC()
	event.ClientIP = ClientIPFromContext(ctx)

	// Marshaling known types cannot fail.
	eventJSON, _ := json.Marshal(event)

	a.logger.Log(level, msg,
		zap.String("event_json", string(eventJSON)),
		zap.String("event_type", string(event.EventType)),
		zap.String("question_id", event.QuestionID.String()),
		zap.String("client_ip", event.ClientIP),
		zap.String("severity", event.Severity),
	)
}
