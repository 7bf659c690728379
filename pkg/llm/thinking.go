package llm

import (
	"regexp"
	"strings"
)

// thinkTagPattern matches <think>...</think> blocks that reasoning models emit
// ahead of their answer.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// thinkContentPattern extracts the content inside <think>...</think> tags.
var thinkContentPattern = regexp.MustCompile(`(?s)<think>(.*?)</think>`)

// StripThinking removes a leading <think>...</think> block from a completion.
func StripThinking(response string) string {
	return thinkTagPattern.ReplaceAllString(response, "")
}

// ExtractThinking extracts the content from <think>...</think> tags in an LLM response.
// Returns empty string if no thinking tags are found.
func ExtractThinking(response string) string {
	matches := thinkContentPattern.FindStringSubmatch(response)
	if len(matches) >= 2 {
		return strings.TrimSpace(matches[1])
	}
	return ""
}
