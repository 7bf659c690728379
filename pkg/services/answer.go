package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/apperrors"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/config"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/llm"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/models"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/prompts"
)

// NoResultsMessage answers an empty result set without calling the model.
const NoResultsMessage = "No results found for your question"

// AnswerSynthesizer phrases a result set as a natural-language answer.
type AnswerSynthesizer struct {
	client         llm.LLMClient
	temperature    float64
	maxTokens      int
	sampleRows     int
	synthesizeZero bool
	metrics        *Metrics
	logger         *zap.Logger
}

// NewAnswerSynthesizer creates a synthesizer using the answer settings of cfg.
func NewAnswerSynthesizer(client llm.LLMClient, llmCfg config.LLMConfig, assistantCfg config.AssistantConfig, metrics *Metrics, logger *zap.Logger) *AnswerSynthesizer {
	return &AnswerSynthesizer{
		client:         client,
		temperature:    llmCfg.AnswerTemperature,
		maxTokens:      llmCfg.AnswerMaxTokens,
		sampleRows:     assistantCfg.SampleRows,
		synthesizeZero: assistantCfg.SynthesizeEmptyResults,
		metrics:        metrics,
		logger:         logger.Named("answer"),
	}
}

// Synthesize returns the answer text. Empty results short-circuit to
// NoResultsMessage unless the synthesizer is configured to always ask the
// model. Model failures wrap apperrors.ErrModelUnavailable.
func (s *AnswerSynthesizer) Synthesize(ctx context.Context, question, sqlUsed string, results *models.ResultSet) (string, error) {
	if results.IsEmpty() && !s.synthesizeZero {
		return NoResultsMessage, nil
	}

	prompt := prompts.BuildAnswerPrompt(question, sqlUsed, results, s.sampleRows)

	resp, err := s.client.Complete(ctx, prompt, llm.CompletionOptions{
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", modelUnavailable(err)
	}
	s.metrics.ObserveTokens("answer", resp.PromptTokens, resp.CompletionTokens)

	answer := strings.TrimSpace(resp.Content)
	if answer == "" {
		return "", fmt.Errorf("%w: empty answer", apperrors.ErrModelUnavailable)
	}

	s.logger.Debug("Synthesized answer", zap.Int("length", len(answer)))
	return answer, nil
}

// modelUnavailable makes sure err classifies as KindModelUnavailable.
func modelUnavailable(err error) error {
	if apperrors.KindOf(err) == apperrors.KindModelUnavailable {
		return err
	}
	return fmt.Errorf("%w: %w", apperrors.ErrModelUnavailable, err)
}
