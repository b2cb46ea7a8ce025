package conformance

import (
	"reflect"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/xbridge/atom"
	"github.com/wippyai/xbridge/errors"
	"github.com/wippyai/xbridge/marshal"
)

// Declared types of the test library.
var (
	SharedType = marshal.StructType("Shared", marshal.Field{Name: "z", Type: marshal.AtomType(atom.Usize)})
	RType      = marshal.BoxType("R")
	CType      = marshal.UniqueType("C")
)

func fn(name string, params ...marshal.Param) marshal.Signature {
	return marshal.Signature{Name: name, Params: params}
}

func try(name string) marshal.Signature {
	return marshal.Signature{Name: name, Fallible: true}
}

func param(name string, t marshal.Type, mode marshal.Mode) marshal.Param {
	return marshal.Param{Name: name, Type: t, Mode: mode}
}

// Signatures declares every symbol of the test library whose shape the
// marshaling contract can express. Calls that return references, borrowed
// strs or float vectors are exercised by the suite but have no declaration.
func Signatures() []marshal.Signature {
	usize := marshal.AtomType(atom.Usize)
	u8s := marshal.SeqType(marshal.AtomType(atom.U8))
	shareds := marshal.SeqType(SharedType)
	str := marshal.StrType()
	ms := marshal.ManagedStringType()
	ns := marshal.NativeStringType()
	def, consume := marshal.ModeDefault, marshal.ModeConsume

	return []marshal.Signature{
		fn("c_return_primitive").Returns(usize),
		fn("c_return_shared").Returns(SharedType),
		fn("c_return_box").Returns(RType),
		fn("c_return_unique_ptr").Returns(CType),
		fn("c_return_managed_string").Returns(ms),
		fn("c_return_unique_ptr_string").Returns(ns),
		fn("c_return_unique_ptr_vector_u8").Returns(u8s),
		fn("c_return_unique_ptr_vector_shared").Returns(shareds),

		try("c_try_return_void"),
		try("c_try_return_primitive").Returns(usize),
		try("c_fail_return_primitive").Returns(usize),
		try("c_try_return_string").Returns(ns),
		try("c_fail_return_string").Returns(ns),
		try("c_try_return_box").Returns(RType),
		try("c_try_return_managed_string").Returns(ms),
		try("c_try_return_unique_ptr_string").Returns(ns),

		fn("c_take_primitive", param("n", usize, def)),
		fn("c_take_shared", param("shared", SharedType, def)),
		fn("c_take_box", param("r", RType, consume)),
		fn("c_take_ref_c", param("c", CType, def)),
		fn("c_take_unique_ptr", param("c", CType, consume)),
		fn("c_take_str", param("s", str, def)),
		fn("c_take_managed_string", param("s", ms, consume)),
		fn("c_take_unique_ptr_string", param("s", ns, consume)),
		fn("c_take_unique_ptr_vector_u8", param("v", u8s, consume)),
		fn("c_take_unique_ptr_vector_shared", param("v", shareds, consume)),
		fn("c_take_vec_u8", param("v", u8s, def)),
		fn("c_take_vec_shared", param("v", shareds, def)),

		fn("r_return_primitive").Returns(usize),
		fn("r_return_shared").Returns(SharedType),
		fn("r_return_box").Returns(RType),
		fn("r_return_unique_ptr").Returns(CType),
		fn("r_return_managed_string").Returns(ms),
		fn("r_return_unique_ptr_string").Returns(ns),
		fn("r_take_primitive", param("n", usize, def)),
		fn("r_take_shared", param("shared", SharedType, def)),
		fn("r_take_box", param("r", RType, consume)),
		fn("r_take_unique_ptr", param("c", CType, consume)),
		fn("r_take_ref_c", param("c", CType, def)),
		fn("r_take_str", param("s", str, def)),
		fn("r_take_managed_string", param("s", ms, consume)),
		fn("r_take_unique_ptr_string", param("s", ns, consume)),
		try("r_try_return_void"),
		try("r_try_return_primitive").Returns(usize),
		try("r_fail_return_primitive").Returns(usize),
	}
}

// ManagedSymbols lists the r_* symbols the Managed interface implements.
func ManagedSymbols() []string {
	t := reflect.TypeOf((*Managed)(nil)).Elem()
	out := make([]string, 0, t.NumMethod())
	for i := range t.NumMethod() {
		out = append(out, "r_"+marshal.SymbolName(t.Method(i).Name))
	}
	return out
}

// Bind checks declarations against implementations. Every declared c_*
// symbol needs a suite case and every declared r_* symbol a Managed method;
// any that lack one are reported together.
func Bind(sigs []marshal.Signature, cases []Case) error {
	have := make(map[string]bool)
	for _, c := range cases {
		have[c.Symbol] = true
	}
	for _, sym := range ManagedSymbols() {
		have[sym] = true
	}

	var missing []string
	for _, s := range sigs {
		if have[s.Name] {
			continue
		}
		side := "native"
		if strings.HasPrefix(s.Name, "r_") {
			side = "managed"
		}
		missing = append(missing, side+"#"+s.Name)
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	Logger().Debug("unbound declarations", zap.Strings("symbols", missing))
	return errors.NewMissingSymbolsError(missing)
}
