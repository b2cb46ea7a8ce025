package resource

import (
	"errors"
	"testing"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

func (o *testObserver) types() []EventType {
	out := make([]EventType, len(o.events))
	for i, e := range o.events {
		out[i] = e.Type
	}
	return out
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	h := table.Insert(KindBox, "test")
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	val, ok := table.Get(h, KindBox)
	if !ok || val != "test" {
		t.Fatalf("Get = %v, %v", val, ok)
	}
	if _, ok := table.Get(h, KindManagedString); ok {
		t.Fatal("Get with wrong kind should fail")
	}

	val, err := table.Take(h, KindBox)
	if err != nil || val != "test" {
		t.Fatalf("Take = %v, %v", val, err)
	}
	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Take")
	}
	if _, err := table.Take(h, KindBox); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("second Take = %v, want ErrStaleHandle", err)
	}
}

func TestTable_TakeDoesNotDrop(t *testing.T) {
	table := NewTable()
	drops := 0
	h1 := table.Insert(KindBox, dropCounter{&drops})
	h2 := table.Insert(KindBox, dropCounter{&drops})

	if _, err := table.Take(h1, KindBox); err != nil {
		t.Fatal(err)
	}
	if drops != 0 {
		t.Fatal("Take must not destroy the value")
	}
	if err := table.Drop(h2, KindBox); err != nil {
		t.Fatal(err)
	}
	if drops != 1 {
		t.Fatalf("drops = %d, want 1", drops)
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	h := table.Insert(KindBox, "a")
	_, release, err := table.Borrow(h, KindBox)
	if err != nil {
		t.Fatal(err)
	}
	if err := table.Drop(h, KindBox); !errors.Is(err, ErrOutstandingBorrow) {
		t.Fatalf("Drop while borrowed = %v", err)
	}
	release()
	release() // idempotent
	if err := table.Drop(h, KindBox); err != nil {
		t.Fatal(err)
	}
	h2 := table.Insert(KindManagedString, "b")
	if _, err := table.Take(h2, KindManagedString); err != nil {
		t.Fatal(err)
	}

	want := []EventType{EventCreated, EventBorrowed, EventBorrowReturned, EventDropped, EventCreated, EventTaken}
	got := obs.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
	if obs.events[5].Kind != KindManagedString {
		t.Errorf("taken event kind = %s", obs.events[5].Kind)
	}

	table.Unsubscribe(obs)
	table.Insert(KindBox, "c")
	if len(obs.events) != len(want) {
		t.Error("unsubscribed observer received an event")
	}
}

func TestTable_Close(t *testing.T) {
	table := NewTable()
	drops := 0
	table.Insert(KindBox, dropCounter{&drops})
	table.Insert(KindManagedString, "s")
	table.Insert(KindBox, dropCounter{&drops})

	if err := table.Close(); err != nil {
		t.Fatal(err)
	}
	if drops != 2 {
		t.Errorf("drops = %d, want 2", drops)
	}
	if h := table.Insert(KindBox, 1); h != 0 {
		t.Error("Insert after Close should return 0")
	}
}

func TestTyped(t *testing.T) {
	table := NewTable()
	ints := NewTyped[int](table, KindBox)
	strs := NewTyped[string](table, KindBox)

	hi := ints.Insert(2020)
	hs := strs.Insert("box")

	if v, ok := ints.Get(hi); !ok || v != 2020 {
		t.Fatalf("Get = %v, %v", v, ok)
	}
	if _, ok := ints.Get(hs); ok {
		t.Fatal("int view must not read a string box")
	}
	if _, err := ints.Take(hs); !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("Take of foreign type = %v, want ErrKindMismatch", err)
	}
	if ints.Len() != 1 || strs.Len() != 1 {
		t.Errorf("Len ints=%d strs=%d", ints.Len(), strs.Len())
	}

	v, release, err := ints.Borrow(hi)
	if err != nil || v != 2020 {
		t.Fatalf("Borrow = %v, %v", v, err)
	}
	if _, err := ints.Take(hi); !errors.Is(err, ErrOutstandingBorrow) {
		t.Fatalf("Take while borrowed = %v", err)
	}
	release()

	got, err := ints.Take(hi)
	if err != nil || got != 2020 {
		t.Fatalf("Take = %v, %v", got, err)
	}
	if err := strs.Drop(hs); err != nil {
		t.Fatal(err)
	}
	if table.Len() != 0 {
		t.Errorf("Len = %d", table.Len())
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindAny:           "any",
		KindBox:           "box",
		KindManagedString: "managed_string",
		Kind(42):          "kind(42)",
	}
	for k, want := range cases {
		if k.String() != want {
			t.Errorf("Kind(%d).String() = %q, want %q", uint32(k), k.String(), want)
		}
	}
}
