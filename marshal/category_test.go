package marshal

import (
	"testing"

	"github.com/wippyai/xbridge/errors"
)

func expectPanic(t *testing.T, kind errors.Kind, fn func()) {
	t.Helper()
	defer func() {
		e, ok := errors.AsViolation(recover())
		if !ok {
			t.Fatalf("expected a %s panic", kind)
		}
		if e.Kind != kind {
			t.Errorf("Kind = %s, want %s (%v)", e.Kind, kind, e)
		}
	}()
	fn()
}

func TestContractTable(t *testing.T) {
	tests := []struct {
		cat     Category
		arg     ArgRule
		ret     ReturnRule
		element bool
		wrap    bool
	}{
		{CategoryScalar, ByValue, ReturnByValue, true, false},
		{CategoryStruct, ByValue, ReturnByValue, true, false},
		{CategoryStr, Borrowed, NotReturnable, false, false},
		{CategoryNativeString, Consumed, NewlyOwned, false, false},
		{CategoryManagedString, BorrowedOrConsumed, NewlyOwned, false, false},
		{CategoryBox, Consumed, NewlyOwned, false, false},
		{CategoryUnique, BorrowedOrConsumed, NewlyOwned, false, false},
		{CategorySequence, BorrowedOrConsumed, NewlyOwned, false, true},
	}
	if len(tests) != len(Categories()) {
		t.Fatalf("table covers %d categories, have %d", len(tests), len(Categories()))
	}
	for _, tt := range tests {
		t.Run(tt.cat.String(), func(t *testing.T) {
			c := ContractOf(tt.cat)
			if c.Arg != tt.arg {
				t.Errorf("Arg = %s, want %s", c.Arg, tt.arg)
			}
			if c.Return != tt.ret {
				t.Errorf("Return = %v, want %v", c.Return, tt.ret)
			}
			if c.Element != tt.element {
				t.Errorf("Element = %v, want %v", c.Element, tt.element)
			}
			if c.WrapUnique != tt.wrap {
				t.Errorf("WrapUnique = %v, want %v", c.WrapUnique, tt.wrap)
			}
		})
	}
}

func TestContractOfUnknown(t *testing.T) {
	expectPanic(t, errors.KindContractViolation, func() {
		ContractOf(Category(200))
	})
	if Category(200).String() != "unknown" {
		t.Error("unknown category should stringify as unknown")
	}
}

func TestContractResolve(t *testing.T) {
	tests := []struct {
		cat  Category
		mode Mode
		want ArgRule
		ok   bool
	}{
		{CategoryScalar, ModeDefault, ByValue, true},
		{CategoryScalar, ModeBorrow, 0, false},
		{CategoryScalar, ModeConsume, 0, false},
		{CategoryStr, ModeDefault, Borrowed, true},
		{CategoryStr, ModeBorrow, Borrowed, true},
		{CategoryStr, ModeConsume, 0, false},
		{CategoryBox, ModeDefault, Consumed, true},
		{CategoryBox, ModeBorrow, 0, false},
		{CategoryBox, ModeConsume, Consumed, true},
		{CategorySequence, ModeDefault, Borrowed, true},
		{CategorySequence, ModeBorrow, Borrowed, true},
		{CategorySequence, ModeConsume, Consumed, true},
		{CategoryUnique, ModeConsume, Consumed, true},
	}
	for _, tt := range tests {
		got, ok := ContractOf(tt.cat).Resolve(tt.mode)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("%s/%s: got (%s, %v), want (%s, %v)", tt.cat, tt.mode, got, ok, tt.want, tt.ok)
		}
	}
}
