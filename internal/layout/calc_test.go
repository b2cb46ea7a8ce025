package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.bytecodealliance.org/wit"
)

func TestCalculatePrimitives(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		typ   wit.Type
		name  string
		size  uint32
		align uint32
	}{
		{wit.Bool{}, "bool", 1, 1},
		{wit.U8{}, "u8", 1, 1},
		{wit.S8{}, "s8", 1, 1},
		{wit.U16{}, "u16", 2, 2},
		{wit.S16{}, "s16", 2, 2},
		{wit.U32{}, "u32", 4, 4},
		{wit.S32{}, "s32", 4, 4},
		{wit.U64{}, "u64", 8, 8},
		{wit.S64{}, "s64", 8, 8},
		{wit.F32{}, "f32", 4, 4},
		{wit.F64{}, "f64", 8, 8},
		{wit.String{}, "string", 8, 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := c.Calculate(tc.typ)
			if info.Size != tc.size {
				t.Errorf("size: got %d, want %d", info.Size, tc.size)
			}
			if info.Align != tc.align {
				t.Errorf("align: got %d, want %d", info.Align, tc.align)
			}
		})
	}
}

func TestCalculateRecord(t *testing.T) {
	c := NewCalculator()

	t.Run("empty", func(t *testing.T) {
		info := c.Calculate(&wit.TypeDef{Kind: &wit.Record{}})
		if info.Size != 0 || info.Align != 1 {
			t.Errorf("got size %d align %d, want 0/1", info.Size, info.Align)
		}
	})

	t.Run("single_u32", func(t *testing.T) {
		record := &wit.Record{Fields: []wit.Field{{Name: "z", Type: wit.U32{}}}}
		info := c.Calculate(&wit.TypeDef{Kind: record})
		want := Info{Size: 4, Align: 4, Offsets: []uint32{0}}
		if diff := cmp.Diff(want, info); diff != "" {
			t.Errorf("layout mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("padding", func(t *testing.T) {
		record := &wit.Record{Fields: []wit.Field{
			{Name: "a", Type: wit.U8{}},
			{Name: "b", Type: wit.U64{}},
			{Name: "c", Type: wit.U16{}},
		}}
		info := c.Calculate(&wit.TypeDef{Kind: record})
		want := Info{Size: 24, Align: 8, Offsets: []uint32{0, 8, 16}}
		if diff := cmp.Diff(want, info); diff != "" {
			t.Errorf("layout mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("cached", func(t *testing.T) {
		td := &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{{Name: "x", Type: wit.U16{}}}}}
		first := c.Calculate(td)
		second := c.Calculate(td)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("cached layout differs:\n%s", diff)
		}
	})
}

func TestRecordHelper(t *testing.T) {
	c := NewCalculator()
	info := c.Record(wit.Bool{}, wit.U32{}, wit.U8{})
	want := Info{Size: 12, Align: 4, Offsets: []uint32{0, 4, 8}}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}
}

func TestCalculateListAndTuple(t *testing.T) {
	c := NewCalculator()

	list := c.Calculate(&wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}})
	if list.Size != 8 || list.Align != 4 {
		t.Errorf("list: got %d/%d, want 8/4", list.Size, list.Align)
	}

	tuple := c.Calculate(&wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.U8{}, wit.U32{}}}})
	if tuple.Size != 8 || tuple.Align != 4 {
		t.Errorf("tuple: got %d/%d, want 8/4", tuple.Size, tuple.Align)
	}
}

func TestDescriptorLayout(t *testing.T) {
	c := NewCalculator()
	got := c.Record(wit.U32{}, wit.U32{}, wit.U32{})
	if diff := cmp.Diff(Descriptor, got); diff != "" {
		t.Errorf("descriptor layout mismatch (-want +got):\n%s", diff)
	}
}
