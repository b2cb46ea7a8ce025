package conformance

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/xbridge/errors"
	"github.com/wippyai/xbridge/marshal"
)

func TestSignaturesValidate(t *testing.T) {
	for _, s := range Signatures() {
		assert.NoError(t, s.Validate(), s.Name)
	}
}

func TestBind(t *testing.T) {
	require.NoError(t, Bind(Signatures(), Suite()))
}

func TestBindReportsMissing(t *testing.T) {
	sigs := append(Signatures(), marshal.Signature{Name: "r_unknown"})
	cases := Suite()[1:]

	err := Bind(sigs, cases)
	var missing *errors.MissingSymbolsError
	require.True(t, stderrors.As(err, &missing))
	assert.Equal(t, []errors.MissingSymbol{
		{Side: "managed", Symbol: "r_unknown"},
		{Side: "native", Symbol: "c_return_primitive"},
	}, missing.Symbols)
}

func TestManagedSymbols(t *testing.T) {
	syms := ManagedSymbols()
	assert.Contains(t, syms, "r_take_ref_r")
	assert.Contains(t, syms, "r_return_unique_ptr_string")
	assert.Contains(t, syms, "r_fail_return_primitive")
	for _, s := range syms {
		assert.True(t, strings.HasPrefix(s, "r_"), s)
	}
}

func TestSignaturesHeader(t *testing.T) {
	out, err := marshal.Header(Signatures())
	require.NoError(t, err)
	assert.Contains(t, out, "struct Shared {\n  size_t z;\n};")
	assert.Contains(t, out, "xb_vec_shared *c_return_unique_ptr_vector_shared(void);")
	assert.Contains(t, out, "xb_result c_fail_return_string(xb_string *out);")
	assert.Contains(t, out, "void c_take_vec_u8(xb_slice_uint8_t v);")
	assert.Contains(t, out, "void r_take_ref_c(const struct C *c);")
}
