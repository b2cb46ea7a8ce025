package marshal

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/xbridge/atom"
	"github.com/wippyai/xbridge/errors"
)

var sharedType = StructType("Shared", Field{Name: "z", Type: AtomType(atom.Usize)})

func TestAtomType(t *testing.T) {
	if got := AtomType(atom.U8).Category; got != CategoryScalar {
		t.Errorf("u8 category = %s", got)
	}
	if got := AtomType(atom.NativeString).Category; got != CategoryNativeString {
		t.Errorf("NativeString category = %s", got)
	}
	if got := AtomType(atom.ManagedString).Category; got != CategoryManagedString {
		t.Errorf("string category = %s", got)
	}
}

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{AtomType(atom.I32), "int32"},
		{sharedType, "struct<Shared>"},
		{BoxType("R"), "box<R>"},
		{UniqueType("C"), "unique<C>"},
		{SeqType(AtomType(atom.U8)), "sequence<uint8>"},
		{StrType(), "str"},
		{ManagedStringType(), "managed_string"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		sig  Signature
		path []string
	}{
		{
			name: "bad symbol",
			sig:  Signature{Name: "c-return"},
			path: []string{"c-return"},
		},
		{
			name: "duplicate param",
			sig: Signature{Name: "f", Params: []Param{
				{Name: "a", Type: AtomType(atom.U8)},
				{Name: "a", Type: AtomType(atom.U8)},
			}},
			path: []string{"f", "a"},
		},
		{
			name: "string atom as scalar",
			sig: Signature{Name: "f", Params: []Param{
				{Name: "s", Type: Type{Category: CategoryScalar, Atom: atom.ManagedString}},
			}},
			path: []string{"f", "s"},
		},
		{
			name: "scalar consumed",
			sig: Signature{Name: "f", Params: []Param{
				{Name: "n", Type: AtomType(atom.U32), Mode: ModeConsume},
			}},
			path: []string{"f", "n"},
		},
		{
			name: "box borrowed",
			sig: Signature{Name: "f", Params: []Param{
				{Name: "b", Type: BoxType("R"), Mode: ModeBorrow},
			}},
			path: []string{"f", "b"},
		},
		{
			name: "str returned",
			sig:  Signature{Name: "f"}.Returns(StrType()),
			path: []string{"f", "return"},
		},
		{
			name: "struct without fields",
			sig:  Signature{Name: "f"}.Returns(StructType("Empty")),
			path: []string{"f", "return"},
		},
		{
			name: "struct with box member",
			sig: Signature{Name: "f"}.Returns(StructType("S",
				Field{Name: "b", Type: BoxType("R")})),
			path: []string{"f", "return"},
		},
		{
			name: "unnamed unique",
			sig:  Signature{Name: "f"}.Returns(Type{Category: CategoryUnique}),
			path: []string{"f", "return"},
		},
		{
			name: "sequence of strings",
			sig:  Signature{Name: "f"}.Returns(SeqType(ManagedStringType())),
			path: []string{"f", "return"},
		},
		{
			name: "sequence of struct with string leaf",
			sig: Signature{Name: "f"}.Returns(SeqType(StructType("S",
				Field{Name: "s", Type: NativeStringType()}))),
			path: []string{"f", "return"},
		},
		{
			name: "sequence without element",
			sig:  Signature{Name: "f"}.Returns(Type{Category: CategorySequence}),
			path: []string{"f", "return"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sig.Validate()
			if err == nil {
				t.Fatal("expected a declaration error")
			}
			e, ok := err.(*errors.Error)
			if !ok {
				t.Fatalf("error type %T", err)
			}
			if e.Phase != errors.PhaseDeclare || e.Kind != errors.KindInvalidInput {
				t.Errorf("got %s/%s", e.Phase, e.Kind)
			}
			if diff := cmp.Diff(tt.path, e.Path); diff != "" {
				t.Errorf("path mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	sigs := []Signature{
		{Name: "c_return_primitive"},
		Signature{Name: "c_return_shared"}.Returns(sharedType),
		Signature{Name: "c_return_vec"}.Returns(SeqType(sharedType)),
		{Name: "c_take_str", Params: []Param{{Name: "s", Type: StrType()}}},
		{Name: "c_take_string", Params: []Param{{Name: "s", Type: ManagedStringType(), Mode: ModeConsume}}},
		{Name: "c_take_vec", Params: []Param{{Name: "v", Type: SeqType(AtomType(atom.U8)), Mode: ModeBorrow}}},
		{Name: "c_take_nested", Params: []Param{{Name: "s", Type: StructType("Outer",
			Field{Name: "inner", Type: sharedType},
			Field{Name: "label", Type: ManagedStringType()})}}},
		{Name: "c_try_void", Fallible: true},
	}
	for _, s := range sigs {
		if err := s.Validate(); err != nil {
			t.Errorf("%s: %v", s.Name, err)
		}
	}
}

func TestSymbolName(t *testing.T) {
	tests := map[string]string{
		"ReturnPrimitive":         "return_primitive",
		"ReturnUniquePtrVectorU8": "return_unique_ptr_vector_u8",
		"TakeRefC":                "take_ref_c",
		"TryReturnVoid":           "try_return_void",
		"HTTPServer":              "http_server",
		"already_snake":           "already_snake",
	}
	for in, want := range tests {
		if got := SymbolName(in); got != want {
			t.Errorf("SymbolName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolver(t *testing.T) {
	r := NewResolver()
	r.Define("Shared", sharedType)

	got, err := r.Resolve("uint")
	if err != nil || got.Category != CategoryScalar || got.Atom != atom.Usize {
		t.Errorf("Resolve(uint) = %v, %v", got, err)
	}
	got, err = r.Resolve("Shared")
	if err != nil || got.Name != "Shared" {
		t.Errorf("Resolve(Shared) = %v, %v", got, err)
	}
	if _, err := r.Resolve("size_t"); err == nil {
		t.Error("native spellings are not bridge tokens")
	}
}
