package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/audit"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/apperrors"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/config"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/llm"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/logging"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/models"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/prompts"
	sqlutil "github.com/LankeSathwik7/sql-query-assistant/pkg/sql"
)

// QuestionService answers natural-language questions against the datasource.
type QuestionService interface {
	// Ask runs the full pipeline for one question. It never returns an error:
	// every failure is reported through Answer.State, Answer.Failure and
	// Answer.Message. Answer.SQL is only set once the query passed validation.
	Ask(ctx context.Context, question string) *models.Answer
}

// QuestionServiceDeps are the collaborators of the question pipeline.
type QuestionServiceDeps struct {
	Schema    SchemaService
	Executor  datasource.QueryExecutor
	LLM       llm.LLMClient
	LLMConfig config.LLMConfig
	Assistant config.AssistantConfig
	Metrics   *Metrics
	// Auditor is optional; nil disables security audit events.
	Auditor   *audit.SecurityAuditor
	Logger    *zap.Logger
}

type questionService struct {
	schema      SchemaService
	executor    datasource.QueryExecutor
	client      llm.LLMClient
	synthesizer *AnswerSynthesizer
	llmCfg      config.LLMConfig
	assistant   config.AssistantConfig
	metrics     *Metrics
	auditor     *audit.SecurityAuditor
	logger      *zap.Logger
}

// NewQuestionService wires the pipeline. Instances hold no per-question state
// and may serve concurrent requests.
func NewQuestionService(deps QuestionServiceDeps) QuestionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &questionService{
		schema:      deps.Schema,
		executor:    deps.Executor,
		client:      deps.LLM,
		synthesizer: NewAnswerSynthesizer(deps.LLM, deps.LLMConfig, deps.Assistant, deps.Metrics, logger),
		llmCfg:      deps.LLMConfig,
		assistant:   deps.Assistant,
		metrics:     deps.Metrics,
		auditor:     deps.Auditor,
		logger:      logger.Named("question"),
	}
}

// run carries one question through the pipeline.
type run struct {
	answer  *models.Answer
	query   models.GeneratedQuery
	logger  *zap.Logger
	started time.Time
}

func (r *run) advance(state models.PipelineState) {
	r.answer.State = state
	r.logger.Debug("Pipeline state", zap.String("state", string(state)))
}

func (s *questionService) Ask(ctx context.Context, question string) *models.Answer {
	id := uuid.New()
	ctx = llm.WithRequestID(ctx, id)

	r := &run{
		answer: &models.Answer{
			ID:       id,
			Question: question,
			Results:  models.ResultSet{Columns: []string{}, Rows: []map[string]any{}},
			State:    models.StateIdle,
		},
		logger:  s.logger.With(zap.String("question_id", id.String())),
		started: time.Now(),
	}

	s.pipeline(ctx, r)

	r.answer.Elapsed = time.Since(r.started)
	s.metrics.ObserveAnswer(r.answer, r.answer.Elapsed)

	if r.answer.Failed() {
		r.logger.Info("Question failed",
			zap.String("failure", r.answer.Failure),
			zap.Duration("elapsed", r.answer.Elapsed))
	} else {
		r.logger.Info("Question answered",
			zap.Int("rows", len(r.answer.Results.Rows)),
			zap.Duration("elapsed", r.answer.Elapsed))
	}
	return r.answer
}

func (s *questionService) pipeline(ctx context.Context, r *run) {
	snapshot, err := s.schema.Snapshot(ctx)
	if err != nil {
		s.fail(r, err)
		return
	}
	r.advance(models.StateSchemaLoaded)

	aliases := AssignAliases(snapshot.TableNames())
	prompt := prompts.BuildSQLGenerationPrompt(snapshot, aliases, r.answer.Question, s.schema.Dialect())
	r.advance(models.StatePromptBuilt)

	resp, err := s.client.Complete(ctx, prompt, llm.CompletionOptions{
		Temperature: s.llmCfg.SQLTemperature,
		MaxTokens:   s.llmCfg.SQLMaxTokens,
	})
	if err != nil {
		s.fail(r, modelUnavailable(err))
		return
	}
	s.metrics.ObserveTokens("sql", resp.PromptTokens, resp.CompletionTokens)
	r.query.Raw = resp.Content
	r.advance(models.StateSQLGenerated)

	sanitized, err := sqlutil.Sanitize(r.query.Raw, snapshot)
	if err != nil {
		s.auditRejection(ctx, r, r.query.Raw, err)
		s.fail(r, err)
		return
	}
	r.query.Sanitized = sanitized
	r.advance(models.StateSQLSanitized)

	validation, err := sqlutil.ValidateAgainstSchema(sanitized, snapshot, sqlutil.ValidationOptions{
		RejectUnrecognizedJoins: s.assistant.RejectUnrecognizedJoins,
	})
	for _, w := range validation.Warnings {
		r.logger.Warn("Validation warning", zap.String("code", w.Code), zap.String("detail", w.Message))
		r.answer.Warnings = append(r.answer.Warnings, w.Message)
		s.metrics.ObserveWarning(w.Code)
		if w.Code == sqlutil.WarnSuspiciousLiteral {
			s.auditor.LogSuspiciousLiteral(ctx, r.answer.ID, sanitized, w.Message)
		}
	}
	if err != nil {
		s.auditRejection(ctx, r, sanitized, err)
		s.fail(r, err)
		return
	}
	r.query.Validated = true
	r.answer.SQL = sanitized
	r.advance(models.StateSQLValidated)

	// An execution failure continues to synthesis with an empty result set.
	var execErr error
	result, err := s.executor.Query(ctx, r.query.Sanitized, s.assistant.MaxResultRows)
	if err != nil {
		execErr = err
		r.logger.Warn("Query execution failed",
			zap.String("sql", logging.SanitizeQuery(r.query.Sanitized)),
			zap.String("error", logging.SanitizeError(err)))
	} else {
		r.answer.Results = *toResultSet(result)
		s.metrics.ObserveRows(len(r.answer.Results.Rows))
		s.auditor.LogQueryExecution(ctx, r.answer.ID, r.query.Sanitized, len(r.answer.Results.Rows))
	}
	r.advance(models.StateSQLExecuted)

	text, err := s.synthesizer.Synthesize(ctx, r.answer.Question, r.answer.SQL, &r.answer.Results)
	if err != nil {
		s.fail(r, err)
		return
	}
	r.advance(models.StateAnswerSynthesized)

	if execErr != nil {
		r.answer.Message = apperrors.KindExecution.UserMessage() + " " + text
		r.answer.State = models.StateFailed
		r.answer.Failure = string(apperrors.KindExecution)
		return
	}

	r.answer.Message = text
	r.advance(models.StateDone)
}

// auditRejection records SQL refused as an unsafe statement.
func (s *questionService) auditRejection(ctx context.Context, r *run, sqlText string, err error) {
	if apperrors.KindOf(err) == apperrors.KindUnsafeStatement {
		s.auditor.LogStatementRejected(ctx, r.answer.ID, sqlText, err.Error())
	}
}

// fail moves the run to the failed state with the user message for err's kind.
func (s *questionService) fail(r *run, err error) {
	kind := apperrors.KindOf(err)
	from := r.answer.State

	r.answer.State = models.StateFailed
	r.answer.Failure = string(kind)
	r.answer.Message = kind.UserMessage()

	fields := []zap.Field{
		zap.String("stage", string(from)),
		zap.String("failure", string(kind)),
		zap.String("error", logging.SanitizeError(err)),
	}
	if kind.Fatal() {
		r.logger.Error("Pipeline aborted", fields...)
	} else {
		r.logger.Warn("Pipeline stopped", fields...)
	}
}

// MaxQuestionLength bounds accepted question text in characters.
const MaxQuestionLength = 2000

// ErrInvalidQuestion rejects blank or oversized questions before Ask.
var ErrInvalidQuestion = errors.New("invalid question")

// NormalizeQuestion trims q and checks it can be asked.
func NormalizeQuestion(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", fmt.Errorf("%w: question must not be empty", ErrInvalidQuestion)
	}
	if utf8.RuneCountInString(q) > MaxQuestionLength {
		return "", fmt.Errorf("%w: question exceeds %d characters", ErrInvalidQuestion, MaxQuestionLength)
	}
	return q, nil
}
