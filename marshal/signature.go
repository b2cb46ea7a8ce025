package marshal

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/wippyai/xbridge/atom"
	"github.com/wippyai/xbridge/errors"
)

// Type is a declared bridge type.
type Type struct {
	Category Category
	// Atom is set for scalars.
	Atom atom.Atom
	// Name names a struct, or the pointee of a box or unique.
	Name string
	// Fields lists a struct's members in layout order.
	Fields []Field
	// Elem is a sequence's element type.
	Elem *Type
}

// Field is a named struct member.
type Field struct {
	Name string
	Type Type
}

func AtomType(a atom.Atom) Type {
	if a.IsString() {
		if a == atom.NativeString {
			return NativeStringType()
		}
		return ManagedStringType()
	}
	return Type{Category: CategoryScalar, Atom: a}
}

func StructType(name string, fields ...Field) Type {
	return Type{Category: CategoryStruct, Name: name, Fields: fields}
}

func StrType() Type           { return Type{Category: CategoryStr} }
func NativeStringType() Type  { return Type{Category: CategoryNativeString} }
func ManagedStringType() Type { return Type{Category: CategoryManagedString} }

func BoxType(name string) Type    { return Type{Category: CategoryBox, Name: name} }
func UniqueType(name string) Type { return Type{Category: CategoryUnique, Name: name} }

func SeqType(elem Type) Type {
	return Type{Category: CategorySequence, Elem: &elem}
}

func (t Type) String() string {
	switch t.Category {
	case CategoryScalar:
		return t.Atom.String()
	case CategoryStruct, CategoryBox, CategoryUnique:
		if t.Name != "" {
			return t.Category.String() + "<" + t.Name + ">"
		}
	case CategorySequence:
		if t.Elem != nil {
			return "sequence<" + t.Elem.String() + ">"
		}
	}
	return t.Category.String()
}

// Param is a named argument with the passing mode chosen at the call site.
type Param struct {
	Name string
	Type Type
	Mode Mode
}

// Signature declares one bridged function.
type Signature struct {
	Name   string
	Params []Param
	// Result is nil for a call that returns nothing.
	Result *Type
	// Fallible calls return a failure message instead of a value on error.
	Fallible bool
}

// Returns sets the result type.
func (s Signature) Returns(t Type) Signature {
	s.Result = &t
	return s
}

// Validate checks the signature against the marshaling contract and returns
// the first violation found.
func (s Signature) Validate() error {
	if !isSymbol(s.Name) {
		return declErr(s.Name, "", "invalid symbol name %q", s.Name)
	}
	seen := make(map[string]bool, len(s.Params))
	for _, p := range s.Params {
		if !isSymbol(p.Name) {
			return declErr(s.Name, p.Name, "invalid parameter name %q", p.Name)
		}
		if seen[p.Name] {
			return declErr(s.Name, p.Name, "duplicate parameter")
		}
		seen[p.Name] = true
		if err := p.Type.validate(); err != nil {
			return declErr(s.Name, p.Name, "%v", err)
		}
		if _, ok := ContractOf(p.Type.Category).Resolve(p.Mode); !ok {
			return declErr(s.Name, p.Name, "%s cannot be passed with mode %s", p.Type, p.Mode)
		}
	}
	if s.Result != nil {
		if err := s.Result.validate(); err != nil {
			return declErr(s.Name, "return", "%v", err)
		}
		if ContractOf(s.Result.Category).Return == NotReturnable {
			return declErr(s.Name, "return", "%s cannot be returned", s.Result)
		}
	}
	return nil
}

func declErr(fn, at, format string, args ...any) error {
	b := errors.New(errors.PhaseDeclare, errors.KindInvalidInput).Detail(format, args...)
	if at != "" {
		b.Path(fn, at)
	} else if fn != "" {
		b.Path(fn)
	}
	return b.Build()
}

func (t Type) validate() error {
	if t.Category >= categoryCount {
		return fmt.Errorf("unknown category %d", uint8(t.Category))
	}
	switch t.Category {
	case CategoryScalar:
		if !t.Atom.Valid() || t.Atom.IsString() {
			return fmt.Errorf("scalar must be an integer or bool atom, got %s", t.Atom)
		}
	case CategoryStruct:
		if !isSymbol(t.Name) {
			return fmt.Errorf("struct needs a name")
		}
		if len(t.Fields) == 0 {
			return fmt.Errorf("struct %s has no fields", t.Name)
		}
		for _, f := range t.Fields {
			switch f.Type.Category {
			case CategoryScalar, CategoryStruct, CategoryNativeString, CategoryManagedString:
			default:
				return fmt.Errorf("field %s.%s: %s is not a plain member", t.Name, f.Name, f.Type)
			}
			if err := f.Type.validate(); err != nil {
				return fmt.Errorf("field %s.%s: %w", t.Name, f.Name, err)
			}
		}
	case CategoryBox, CategoryUnique:
		if !isSymbol(t.Name) {
			return fmt.Errorf("%s needs a pointee name", t.Category)
		}
	case CategorySequence:
		if t.Elem == nil {
			return fmt.Errorf("sequence without element type")
		}
		if !ContractOf(t.Elem.Category).Element {
			return fmt.Errorf("%s cannot be a sequence element", t.Elem)
		}
		if err := t.Elem.validate(); err != nil {
			return err
		}
		if t.Elem.Category == CategoryStruct && !t.Elem.fixed() {
			return fmt.Errorf("struct %s has non-scalar leaves and cannot be a sequence element", t.Elem.Name)
		}
	}
	return nil
}

// fixed reports whether every leaf of a struct is a scalar atom.
func (t Type) fixed() bool {
	switch t.Category {
	case CategoryScalar:
		return true
	case CategoryStruct:
		for _, f := range t.Fields {
			if !f.Type.fixed() {
				return false
			}
		}
		return true
	}
	return false
}

func isSymbol(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r < unicode.MaxASCII && unicode.IsLetter(r)) {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

// SymbolName converts a Go identifier to the native snake_case symbol:
// ReturnUniquePtrVectorU8 becomes return_unique_ptr_vector_u8.
func SymbolName(goName string) string {
	runes := []rune(goName)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Resolver maps bridge-definition tokens to types. Built-in scalars are
// recognized only through atom.Classify; every other token must name a
// user type registered with Define.
type Resolver struct {
	types map[string]Type
}

func NewResolver() *Resolver {
	return &Resolver{types: make(map[string]Type)}
}

// Define registers a user type under name.
func (r *Resolver) Define(name string, t Type) {
	r.types[name] = t
}

// Resolve returns the type named by token.
func (r *Resolver) Resolve(token string) (Type, error) {
	if a, ok := atom.Classify(token); ok {
		return AtomType(a), nil
	}
	if t, ok := r.types[token]; ok {
		return t, nil
	}
	return Type{}, errors.NotFound(errors.PhaseDeclare, "type", token)
}
