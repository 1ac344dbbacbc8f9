// Package diagnostics is the core's error sink (spec.md §6, §7): an
// ErrorCode-keyed, phase-tagged DiagnosticError type and a Sink that
// accumulates them in source order, plus a debug trace channel.
//
// Grounded on mcgru/funxy's internal/diagnostics package (the sibling
// checkout of this repo's teacher that carries this file; see DESIGN.md),
// adapted to this core's own error codes and phases.
package diagnostics

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/funvibe/funxy/internal/pos"
)

// Phase names which subsystem raised a diagnostic.
type Phase string

const (
	PhaseChecker Phase = "checker"
	PhaseCodegen Phase = "codegen"
)

// ErrorCode identifies one diagnosable condition. See spec.md §7 for the
// taxonomy (resolution / type / structural / internal errors).
type ErrorCode string

const (
	ErrUndeclaredIdentifier     ErrorCode = "C001" // resolution
	ErrProcedureRequired        ErrorCode = "C002" // resolution: Call names a non-procedure
	ErrConstantOrVariableNeeded ErrorCode = "C003" // resolution: identifier expr names neither
	ErrIncompatibleTypes        ErrorCode = "C004" // type
	ErrNotAnLValue              ErrorCode = "C005" // type: assignment target, dereference operand
	ErrConditionNotBoolean      ErrorCode = "C006" // type: If/While condition
	ErrWriteNotInteger          ErrorCode = "C007" // type: Write expression
	ErrFieldNotInRecord         ErrorCode = "C008" // type: FieldAccess
	ErrNotARecord               ErrorCode = "C009" // type: FieldAccess on non-record
	ErrNotAPointer              ErrorCode = "C010" // type: PointerDereference on non-pointer
	ErrUnknownTypeName          ErrorCode = "C011" // resolution: New / RecordConstructor type name
	ErrNoMatchingOperator       ErrorCode = "C012" // type: no intersection member accepts the args
	ErrRecordConstructorArity   ErrorCode = "C013" // structural
	ErrReadNotInteger           ErrorCode = "C014" // type: Read target
	ErrInternalCodegenOnError   ErrorCode = "I001" // internal, fatal
	ErrInternalUnknownOperator  ErrorCode = "I002" // internal, fatal
)

var templates = map[ErrorCode]string{
	ErrUndeclaredIdentifier:     "undeclared identifier %q",
	ErrProcedureRequired:        "procedure identifier required, got %s %q",
	ErrConstantOrVariableNeeded: "constant or variable identifier required, got %s %q",
	ErrIncompatibleTypes:        "incompatible types: cannot coerce %s to %s",
	ErrNotAnLValue:               "variable expected, got value of type %s",
	ErrConditionNotBoolean:      "condition must have type boolean, got %s",
	ErrWriteNotInteger:          "write expects an integer expression, got %s",
	ErrFieldNotInRecord:         "record %s has no field %q",
	ErrNotARecord:               "expected a record, got %s",
	ErrNotAPointer:              "expected a pointer, got %s",
	ErrUnknownTypeName:          "undeclared type %q",
	ErrNoMatchingOperator:       "no overload of %q accepts argument type %s",
	ErrRecordConstructorArity:   "record %s expects %d field values, got %d",
	ErrReadNotInteger:           "read expects an integer variable, got %s",
	ErrInternalCodegenOnError:   "code generator invoked on an Error node: %s",
	ErrInternalUnknownOperator:  "unknown operator tag %q",
}

// DiagnosticError is one reported problem.
type DiagnosticError struct {
	Code     ErrorCode
	Phase    Phase
	Position pos.Position
	Args     []interface{}
}

func (e *DiagnosticError) Error() string {
	template, ok := templates[e.Code]
	if !ok {
		return fmt.Sprintf("unknown error code: %s", e.Code)
	}
	message := fmt.Sprintf(template, e.Args...)
	phaseStr := ""
	if e.Phase != "" {
		phaseStr = fmt.Sprintf("[%s] ", e.Phase)
	}
	return fmt.Sprintf("%serror at %s [%s]: %s", phaseStr, e.Position, e.Code, message)
}

// IsFatal reports whether this diagnostic names one of the two "broken
// invariant between checker and generator" conditions spec.md §7 calls
// fatal.
func (e *DiagnosticError) IsFatal() bool {
	return e.Code == ErrInternalCodegenOnError || e.Code == ErrInternalUnknownOperator
}

// FatalError is what Sink.Fatal panics with; the driver recovers it at the
// top level and turns it back into a returned error (spec.md §7: fatal
// errors abort compilation, they do not propagate as ordinary control
// flow).
type FatalError struct {
	*DiagnosticError
}

// Sink accumulates diagnostics in report order and exposes a debug-message
// trace channel, indentation-tracked like the teacher's own trace helpers.
// Each Sink carries a run ID (github.com/google/uuid) stamped into every
// debug line, so debug output from multiple Sinks sharing one writer (as
// happens in table-driven tests) can be told apart; it plays no part in any
// control-flow decision.
type Sink struct {
	RunID uuid.UUID

	errors []*DiagnosticError
	seen   map[string]bool

	Out        io.Writer
	debugDepth int
	color      bool
}

// NewSink creates a Sink whose debug trace goes to out. Debug lines are
// ANSI-colorized when out is a terminal (github.com/mattn/go-isatty),
// mirroring the teacher's own terminal-gated output in
// internal/evaluator/builtins_term.go.
func NewSink(out io.Writer) *Sink {
	color := false
	if f, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Sink{
		RunID: uuid.New(),
		errors: nil,
		seen:   make(map[string]bool),
		Out:    out,
		color:  color,
	}
}

// NewSilentSink creates a Sink with no debug writer, the common case in
// tests that only care about reported diagnostics.
func NewSilentSink() *Sink {
	return NewSink(io.Discard)
}

func dedupeKey(code ErrorCode, p pos.Position, args []interface{}) string {
	return fmt.Sprintf("%s@%s:%v", code, p, args)
}

// Error reports a non-fatal diagnostic, deduplicating by position, code,
// and arguments so that a downstream Error-typed expression does not
// recreate the same complaint twice (spec.md §7's absorption policy).
func (s *Sink) Error(phase Phase, code ErrorCode, p pos.Position, args ...interface{}) {
	key := dedupeKey(code, p, args)
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.errors = append(s.errors, &DiagnosticError{Code: code, Phase: phase, Position: p, Args: args})
}

// Fatal reports an internal, unrecoverable diagnostic and panics with a
// FatalError. The driver is expected to recover this panic at the
// compilation boundary (spec.md §7).
func (s *Sink) Fatal(phase Phase, code ErrorCode, p pos.Position, args ...interface{}) {
	err := &DiagnosticError{Code: code, Phase: phase, Position: p, Args: args}
	s.errors = append(s.errors, err)
	panic(FatalError{DiagnosticError: err})
}

// DebugMessage writes an indented, optionally colorized trace line.
func (s *Sink) DebugMessage(format string, args ...interface{}) {
	indent := strings.Repeat("  ", s.debugDepth)
	line := fmt.Sprintf(format, args...)
	prefix := fmt.Sprintf("[%s] ", s.RunID.String()[:8])
	if s.color {
		fmt.Fprintf(s.Out, "\x1b[90m%s%s%s\x1b[0m\n", prefix, indent, line)
		return
	}
	fmt.Fprintf(s.Out, "%s%s%s\n", prefix, indent, line)
}

// IncDebug/DecDebug track trace indentation across nested checker/generator
// recursion (e.g. one level per nested procedure).
func (s *Sink) IncDebug() { s.debugDepth++ }
func (s *Sink) DecDebug() {
	if s.debugDepth > 0 {
		s.debugDepth--
	}
}

// Errors returns every reported diagnostic, sorted by source position so
// that user-visible output is in source order (spec.md §7).
func (s *Sink) Errors() []*DiagnosticError {
	out := make([]*DiagnosticError, len(s.errors))
	copy(out, s.errors)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Position, out[j].Position
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return out
}

// HasErrors reports whether any diagnostic has been reported. The driver
// must not generate code when this is true (spec.md §7).
func (s *Sink) HasErrors() bool { return len(s.errors) > 0 }
