package marshal

import (
	"strings"

	"github.com/wippyai/xbridge/atom"
)

// Native spellings of the non-atom carrier types. Atom spellings always come
// from atom.Native so generated declarations match the registry bit for bit.
const (
	nativeStr    = "xb_str"
	nativeBox    = "xb_box"
	nativeResult = "xb_result"
)

// NativeSpelling returns the C type used for t in position (argument with
// the given mode, or return value when ret is true).
func (t Type) NativeSpelling(mode Mode, ret bool) string {
	switch t.Category {
	case CategoryScalar:
		return t.Atom.Native()
	case CategoryStruct:
		return "struct " + t.Name
	case CategoryStr:
		return nativeStr
	case CategoryNativeString:
		return atom.NativeString.Native()
	case CategoryManagedString:
		s := atom.ManagedString.Native()
		if !ret && mode != ModeConsume {
			return "const " + s + " *"
		}
		return s
	case CategoryBox:
		return nativeBox
	case CategoryUnique:
		if !ret && mode != ModeConsume {
			return "const struct " + t.Name + " *"
		}
		return "struct " + t.Name + " *"
	case CategorySequence:
		elem := seqSuffix(*t.Elem)
		switch {
		case ret:
			return "xb_vec_" + elem + " *"
		case mode == ModeConsume:
			return "xb_vec_" + elem
		default:
			return "xb_slice_" + elem
		}
	}
	return "void"
}

func seqSuffix(t Type) string {
	if t.Category == CategoryStruct {
		return strings.ToLower(t.Name)
	}
	return t.NativeSpelling(ModeDefault, false)
}

// NativeDecl renders the C prototype for s. Fallible calls return an
// xb_result and deliver their value through a trailing out pointer.
func (s Signature) NativeDecl() string {
	var b strings.Builder

	ret := "void"
	if s.Result != nil {
		ret = s.Result.NativeSpelling(ModeDefault, true)
	}
	if s.Fallible {
		b.WriteString(nativeResult)
	} else {
		b.WriteString(ret)
	}
	if !strings.HasSuffix(b.String(), "*") {
		b.WriteByte(' ')
	}
	b.WriteString(s.Name)
	b.WriteByte('(')

	var params []string
	for _, p := range s.Params {
		params = append(params, joinDecl(p.Type.NativeSpelling(p.Mode, false), p.Name))
	}
	if s.Fallible && s.Result != nil {
		params = append(params, joinDecl(ret+" *", "out"))
	}
	if len(params) == 0 {
		b.WriteString("void")
	} else {
		b.WriteString(strings.Join(params, ", "))
	}
	b.WriteString(");")
	return b.String()
}

func joinDecl(typ, name string) string {
	if strings.HasSuffix(typ, "*") {
		return typ + name
	}
	return typ + " " + name
}

// Header renders a complete native header for sigs: includes, struct
// definitions in dependency order, then one prototype per signature.
// Every signature must validate.
func Header(sigs []Signature) (string, error) {
	for _, s := range sigs {
		if err := s.Validate(); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	b.WriteString("// Code generated by bridgecheck. DO NOT EDIT.\n\n")
	b.WriteString("#pragma once\n\n")
	b.WriteString("#include <stdbool.h>\n#include <stddef.h>\n#include <stdint.h>\n#include <sys/types.h>\n\n")
	b.WriteString("#include \"xbridge.h\"\n")

	seen := make(map[string]bool)
	var structs []Type
	var visit func(t Type)
	visit = func(t Type) {
		switch t.Category {
		case CategoryStruct:
			if seen[t.Name] {
				return
			}
			seen[t.Name] = true
			for _, f := range t.Fields {
				visit(f.Type)
			}
			structs = append(structs, t)
		case CategorySequence:
			visit(*t.Elem)
		}
	}
	for _, s := range sigs {
		for _, p := range s.Params {
			visit(p.Type)
		}
		if s.Result != nil {
			visit(*s.Result)
		}
	}

	for _, st := range structs {
		b.WriteString("\nstruct ")
		b.WriteString(st.Name)
		b.WriteString(" {\n")
		for _, f := range st.Fields {
			b.WriteString("  ")
			b.WriteString(joinDecl(f.Type.NativeSpelling(ModeConsume, false), f.Name))
			b.WriteString(";\n")
		}
		b.WriteString("};\n")
	}

	b.WriteByte('\n')
	for _, s := range sigs {
		b.WriteString(s.NativeDecl())
		b.WriteByte('\n')
	}
	return b.String(), nil
}
