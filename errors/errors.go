package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRegistry  Phase = "registry"  // atom classification and spelling
	PhaseTransfer  Phase = "transfer"  // sequence hand-off and reconstruction
	PhaseEncode    Phase = "encode"    // Go to native memory
	PhaseDecode    Phase = "decode"    // native memory to Go
	PhaseAlloc     Phase = "alloc"     // native heap management
	PhaseBoundary  Phase = "boundary"  // crossing a call boundary
	PhaseDeclare   Phase = "declare"   // signature validation and emission
	PhaseLoad      Phase = "load"      // heap backend creation
	PhaseConform   Phase = "conform"   // conformance suite
	PhaseConfigure Phase = "configure" // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindOutOfBounds       Kind = "out_of_bounds"
	KindInvalidData       Kind = "invalid_data"
	KindAllocation        Kind = "allocation"
	KindInvalidUTF8       Kind = "invalid_utf8"
	KindOverflow          Kind = "overflow"
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindContractViolation Kind = "contract_violation"
	KindUseAfterConsume   Kind = "use_after_consume"
	KindDoubleFree        Kind = "double_free"
	KindAssertion         Kind = "assertion"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	GoType     string
	NativeType string
	Detail     string
	Path       []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.NativeType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.NativeType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", native type ")
			b.WriteString(e.NativeType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("native type ")
			b.WriteString(e.NativeType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.NativeType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsViolation reports whether e marks a broken ownership or type contract.
func (e *Error) IsViolation() bool {
	switch e.Kind {
	case KindContractViolation, KindUseAfterConsume, KindDoubleFree:
		return true
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// NativeType sets the native type spelling
func (b *Builder) NativeType(t string) *Builder {
	b.err.NativeType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Panic raises the constructed error. Reserved for contract violations.
func (b *Builder) Panic() {
	panic(b.Build())
}

// Convenience constructors for common error patterns

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// MemoryAccess wraps a failed read or write of native memory.
func MemoryAccess(phase Phase, addr, length uint32, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("memory access at 0x%x (%d bytes)", addr, length),
		Value:  addr,
		Cause:  cause,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindOverflow,
		Path:       path,
		NativeType: targetType,
		Detail:     fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:      value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Load creates a heap backend loading error
func Load(detail string, cause error) *Error {
	return Wrap(PhaseLoad, KindInvalidData, cause, detail)
}

// Assertion creates a conformance assertion failure
func Assertion(expr string) *Error {
	return &Error{
		Phase:  PhaseConform,
		Kind:   KindAssertion,
		Detail: expr,
	}
}

// Contract violations are programming errors. They are raised with panic and
// must never be converted into values at a call boundary.

// Violation panics with a contract violation.
func Violation(phase Phase, format string, args ...any) {
	New(phase, KindContractViolation).Detail(format, args...).Panic()
}

// UseAfterConsume panics because a disarmed value was touched again.
func UseAfterConsume(phase Phase, what string) {
	panic(&Error{
		Phase:  phase,
		Kind:   KindUseAfterConsume,
		Detail: what + " used after its custody was transferred",
	})
}

// DoubleFree panics because a block was released twice or never allocated.
func DoubleFree(ptr, size uint32) {
	panic(&Error{
		Phase:  PhaseAlloc,
		Kind:   KindDoubleFree,
		Detail: fmt.Sprintf("free of unallocated block 0x%x (%d bytes)", ptr, size),
		Value:  ptr,
	})
}

// AsViolation reports whether a recovered panic value is a contract violation.
func AsViolation(r any) (*Error, bool) {
	e, ok := r.(*Error)
	if !ok || !e.IsViolation() {
		return nil, false
	}
	return e, true
}

// MissingSymbol represents a single declared but unbound symbol
type MissingSymbol struct {
	Side   string // "native" or "managed"
	Symbol string // e.g., "c_return_box"
}

// MissingSymbolsError is returned when declarations and implementations diverge
type MissingSymbolsError struct {
	Symbols []MissingSymbol
}

// NewMissingSymbolsError creates an error from a list of "side#symbol" strings
func NewMissingSymbolsError(symbols []string) *MissingSymbolsError {
	result := &MissingSymbolsError{
		Symbols: make([]MissingSymbol, 0, len(symbols)),
	}
	for _, s := range symbols {
		side, sym := parseSymbolKey(s)
		result.Symbols = append(result.Symbols, MissingSymbol{
			Side:   side,
			Symbol: sym,
		})
	}
	return result
}

func parseSymbolKey(key string) (side, symbol string) {
	side, symbol, found := strings.Cut(key, "#")
	if found {
		return side, symbol
	}
	return key, ""
}

func (e *MissingSymbolsError) Error() string {
	if len(e.Symbols) == 0 {
		return "[declare] missing_symbol: no symbols specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("missing %d symbol(s):\n", len(e.Symbols)))

	// Group by side for cleaner output
	bySide := make(map[string][]string)
	var order []string
	for _, s := range e.Symbols {
		if _, exists := bySide[s.Side]; !exists {
			order = append(order, s.Side)
		}
		bySide[s.Side] = append(bySide[s.Side], s.Symbol)
	}

	for _, side := range order {
		b.WriteString("\n  ")
		b.WriteString(side)
		b.WriteString(":\n")
		for _, sym := range bySide[side] {
			b.WriteString("    - ")
			b.WriteString(sym)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *MissingSymbolsError) Is(target error) bool {
	_, ok := target.(*MissingSymbolsError)
	return ok
}
