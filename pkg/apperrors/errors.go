package apperrors

import "errors"

var (
	ErrNotFound = errors.New("not found")

	ErrNoSchema            = errors.New("no schema available")
	ErrModelUnavailable    = errors.New("language model unavailable")
	ErrSchemaUnsatisfiable = errors.New("required data not available in the schema")
	ErrEmptyGeneration     = errors.New("model returned no SQL")
	ErrUnknownTable        = errors.New("unknown table")
	ErrUnknownColumn       = errors.New("unknown column")
	ErrUnrecognizedJoin    = errors.New("join does not match a declared foreign key")
	ErrUnsafeStatement     = errors.New("statement is not a single read-only query")
	ErrExecution           = errors.New("query execution failed")
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindNone                Kind = ""
	KindNoSchema            Kind = "no_schema"
	KindModelUnavailable    Kind = "model_unavailable"
	KindSchemaUnsatisfiable Kind = "schema_unsatisfiable"
	KindEmptyGeneration     Kind = "empty_generation"
	KindUnknownTable        Kind = "unknown_table"
	KindUnknownColumn       Kind = "unknown_column"
	KindUnrecognizedJoin    Kind = "unrecognized_join"
	KindUnsafeStatement     Kind = "unsafe_statement"
	KindExecution           Kind = "execution_error"
	KindInternal            Kind = "internal"
)

// CannotAnswerMessage is shown when the question cannot be answered from the schema.
const CannotAnswerMessage = "I cannot answer this question with the available data. Please try a different question."

var kindBySentinel = []struct {
	err  error
	kind Kind
}{
	{ErrNoSchema, KindNoSchema},
	{ErrModelUnavailable, KindModelUnavailable},
	{ErrSchemaUnsatisfiable, KindSchemaUnsatisfiable},
	{ErrEmptyGeneration, KindEmptyGeneration},
	{ErrUnknownTable, KindUnknownTable},
	{ErrUnknownColumn, KindUnknownColumn},
	{ErrUnrecognizedJoin, KindUnrecognizedJoin},
	{ErrUnsafeStatement, KindUnsafeStatement},
	{ErrExecution, KindExecution},
}

// KindOf classifies err by the sentinel it wraps.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, m := range kindBySentinel {
		if errors.Is(err, m.err) {
			return m.kind
		}
	}
	return KindInternal
}

// CannotAnswer reports whether the kind belongs to the "cannot answer with
// available data" message class rather than a connectivity or execution error.
func (k Kind) CannotAnswer() bool {
	switch k {
	case KindSchemaUnsatisfiable, KindEmptyGeneration, KindUnknownTable,
		KindUnknownColumn, KindUnrecognizedJoin, KindUnsafeStatement:
		return true
	}
	return false
}

// Fatal reports whether the kind stops the pipeline before any answer can be
// produced by the model.
func (k Kind) Fatal() bool {
	return k == KindNoSchema || k == KindModelUnavailable
}

// UserMessage returns the user-facing message for a kind.
func (k Kind) UserMessage() string {
	switch {
	case k == KindNone:
		return ""
	case k == KindSchemaUnsatisfiable:
		return "The required data is not available in this database. " + CannotAnswerMessage
	case k.CannotAnswer():
		return CannotAnswerMessage
	case k == KindNoSchema:
		return "No database schema is available. Check the database connection and try again."
	case k == KindModelUnavailable:
		return "The language model service is unavailable. Please try again later."
	case k == KindExecution:
		return "The query could not be executed against the database."
	}
	return "An unexpected error occurred while answering the question."
}
