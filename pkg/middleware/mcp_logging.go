package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/logging"
)

// maxLoggedArgument bounds string arguments in MCP request logs.
const maxLoggedArgument = 200

var sensitiveArgument = regexp.MustCompile(`(?i)password|secret|token|key|credential`)

// rpcCall is the part of a JSON-RPC request worth logging.
type rpcCall struct {
	Method string `json:"method"`
	Params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

// rpcOutcome is the part of a JSON-RPC response worth logging.
type rpcOutcome struct {
	Result struct {
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// MCPRequestLogger logs MCP JSON-RPC traffic: every request at Debug, and
// for tools/call the outcome with its duration. A nil logger disables it.
func MCPRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			call, ok := peekCall(w, r, logger)
			if !ok {
				return
			}

			logger.Debug("MCP request",
				zap.String("method", call.Method),
				zap.String("tool", call.Params.Name),
				zap.Any("arguments", sanitizeArguments(call.Params.Arguments)))

			tee := &teeWriter{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(tee, r)

			if call.Method == "tools/call" {
				logOutcome(logger, call.Params.Name, tee.buf.Bytes(), time.Since(start))
			}
		})
	}
}

// peekCall decodes the request body and restores it for the next handler.
// Batches and malformed bodies decode to a zero call; the MCP server
// rejects them itself.
func peekCall(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (rpcCall, bool) {
	var call rpcCall
	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("Failed to read MCP request body", zap.Error(err))
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return call, false
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if err := json.Unmarshal(body, &call); err != nil {
		logger.Debug("Failed to parse MCP request JSON", zap.Error(err))
	}
	return call, true
}

func logOutcome(logger *zap.Logger, tool string, body []byte, elapsed time.Duration) {
	var out rpcOutcome
	if err := json.Unmarshal(body, &out); err != nil {
		logger.Debug("Failed to parse MCP response JSON", zap.Error(err))
		return
	}

	level, msg := zapcore.InfoLevel, "MCP tool call"
	fields := []zap.Field{zap.String("tool", tool), zap.Duration("duration", elapsed)}
	switch {
	case out.Error != nil:
		level, msg = zapcore.WarnLevel, "MCP tool call failed"
		fields = append(fields,
			zap.Int("error_code", out.Error.Code),
			zap.String("error_message", out.Error.Message))
	case out.Result.IsError:
		msg = "MCP tool returned error result"
	}
	logger.Log(level, msg, fields...)
}

// teeWriter keeps a copy of the response body.
type teeWriter struct {
	http.ResponseWriter
	buf bytes.Buffer
}

func (t *teeWriter) Write(b []byte) (int, error) {
	t.buf.Write(b)
	return t.ResponseWriter.Write(b)
}

func (t *teeWriter) Flush() {
	if f, ok := t.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// sanitizeArguments redacts credential-like keys and truncates strings.
func sanitizeArguments(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}

	out := make(map[string]any, len(args))
	for k, v := range args {
		switch s, isString := v.(string); {
		case sensitiveArgument.MatchString(k):
			out[k] = logging.RedactedText
		case isString:
			out[k] = logging.TruncateString(s, maxLoggedArgument)
		default:
			out[k] = v
		}
	}
	return out
}
