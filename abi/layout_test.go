package abi

import (
	"testing"

	"github.com/wasmerio/wai"
)

func calc(t *testing.T, c *Calculator, ty wai.Type) Info {
	t.Helper()
	info, err := c.Calculate(ty)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	return info
}

func TestCalculatePrimitives(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		typ   wai.Type
		name  string
		size  uint32
		align uint32
	}{
		{wai.Bool{}, "bool", 1, 1},
		{wai.U8{}, "u8", 1, 1},
		{wai.S8{}, "s8", 1, 1},
		{wai.U16{}, "u16", 2, 2},
		{wai.S16{}, "s16", 2, 2},
		{wai.U32{}, "u32", 4, 4},
		{wai.S32{}, "s32", 4, 4},
		{wai.U64{}, "u64", 8, 8},
		{wai.S64{}, "s64", 8, 8},
		{wai.F32{}, "float32", 4, 4},
		{wai.F64{}, "float64", 8, 8},
		{wai.Char{}, "char", 4, 4},
		{wai.String{}, "string", 8, 4},
		{wai.Unit{}, "unit", 0, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := calc(t, c, tc.typ)
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
		td := &wai.TypeDef{Kind: &wai.Record{}}
		info := calc(t, c, td)
		if info.Size != 0 || info.Align != 1 {
			t.Errorf("got size %d align %d, want 0, 1", info.Size, info.Align)
		}
	})

	t.Run("pair_of_u32", func(t *testing.T) {
		td := &wai.TypeDef{Kind: &wai.Record{
			Fields: []wai.Field{
				{Name: "x", Type: wai.U32{}},
				{Name: "y", Type: wai.U32{}},
			},
		}}
		info := calc(t, c, td)
		if info.Size != 8 || info.Align != 4 {
			t.Errorf("got size %d align %d, want 8, 4", info.Size, info.Align)
		}
		if info.FieldOffs["x"] != 0 || info.FieldOffs["y"] != 4 {
			t.Errorf("offsets = %v, want x=0 y=4", info.FieldOffs)
		}
	})

	t.Run("mixed_alignment", func(t *testing.T) {
		td := &wai.TypeDef{Kind: &wai.Record{
			Fields: []wai.Field{
				{Name: "a", Type: wai.U8{}},
				{Name: "b", Type: wai.U32{}},
				{Name: "c", Type: wai.U8{}},
			},
		}}
		info := calc(t, c, td)
		if info.FieldOffs["a"] != 0 || info.FieldOffs["b"] != 4 || info.FieldOffs["c"] != 8 {
			t.Errorf("offsets = %v, want a=0 b=4 c=8", info.FieldOffs)
		}
		if info.Size != 12 || info.Align != 4 {
			t.Errorf("got size %d align %d, want 12, 4", info.Size, info.Align)
		}
	})

	t.Run("u64_tail_padding", func(t *testing.T) {
		td := &wai.TypeDef{Kind: &wai.Record{
			Fields: []wai.Field{
				{Name: "big", Type: wai.U64{}},
				{Name: "small", Type: wai.U8{}},
			},
		}}
		info := calc(t, c, td)
		if info.Size != 16 || info.Align != 8 {
			t.Errorf("got size %d align %d, want 16, 8", info.Size, info.Align)
		}
	})
}

func TestCalculateVariant(t *testing.T) {
	c := NewCalculator()

	t.Run("payload_less_three_cases", func(t *testing.T) {
		td := &wai.TypeDef{Kind: &wai.Variant{
			Cases: []wai.Case{{Name: "all"}, {Name: "none"}, {Name: "some"}},
		}}
		info := calc(t, c, td)
		if info.Size != 1 || info.Align != 1 {
			t.Errorf("got size %d align %d, want 1, 1", info.Size, info.Align)
		}
	})

	t.Run("u64_payload", func(t *testing.T) {
		td := &wai.TypeDef{Kind: &wai.Variant{
			Cases: []wai.Case{
				{Name: "none"},
				{Name: "some", Type: wai.U64{}},
			},
		}}
		info := calc(t, c, td)
		// 1-byte discriminant padded to the 8-byte payload boundary
		if info.Size != 16 || info.Align != 8 {
			t.Errorf("got size %d align %d, want 16, 8", info.Size, info.Align)
		}
	})

	t.Run("wide_discriminant", func(t *testing.T) {
		cases := make([]wai.Case, 300)
		for i := range cases {
			cases[i] = wai.Case{Name: "c"}
		}
		td := &wai.TypeDef{Kind: &wai.Variant{Cases: cases}}
		info := calc(t, c, td)
		if info.Size != 2 || info.Align != 2 {
			t.Errorf("got size %d align %d, want 2, 2", info.Size, info.Align)
		}
	})
}

func TestDiscriminantSize(t *testing.T) {
	tests := []struct {
		cases int
		want  uint32
	}{
		{1, 1},
		{2, 1},
		{256, 1},
		{257, 2},
		{300, 2},
		{65536, 2},
		{65537, 4},
	}
	for _, tc := range tests {
		if got := DiscriminantSize(tc.cases); got != tc.want {
			t.Errorf("DiscriminantSize(%d) = %d, want %d", tc.cases, got, tc.want)
		}
	}
}

func TestCalculateEnum(t *testing.T) {
	c := NewCalculator()

	small := &wai.TypeDef{Kind: &wai.Enum{Cases: make([]wai.EnumCase, 3)}}
	info := calc(t, c, small)
	if info.Size != 1 || info.Align != 1 {
		t.Errorf("3-case enum: got size %d align %d, want 1, 1", info.Size, info.Align)
	}

	big := &wai.TypeDef{Kind: &wai.Enum{Cases: make([]wai.EnumCase, 300)}}
	info = calc(t, c, big)
	if info.Size != 2 || info.Align != 2 {
		t.Errorf("300-case enum: got size %d align %d, want 2, 2", info.Size, info.Align)
	}
}

func TestCalculateOptionAndExpected(t *testing.T) {
	c := NewCalculator()

	opt := &wai.TypeDef{Kind: &wai.Option{Type: wai.U32{}}}
	info := calc(t, c, opt)
	if info.Size != 8 || info.Align != 4 {
		t.Errorf("option<u32>: got size %d align %d, want 8, 4", info.Size, info.Align)
	}

	exp := &wai.TypeDef{Kind: &wai.Expected{OK: wai.String{}, Err: wai.U32{}}}
	info = calc(t, c, exp)
	// discriminant at 0, payload at 4, string payload is 8 bytes
	if info.Size != 12 || info.Align != 4 {
		t.Errorf("expected<string, u32>: got size %d align %d, want 12, 4", info.Size, info.Align)
	}

	unitBoth := &wai.TypeDef{Kind: &wai.Expected{OK: wai.Unit{}, Err: wai.Unit{}}}
	info = calc(t, c, unitBoth)
	if info.Size != 1 || info.Align != 1 {
		t.Errorf("expected<_, _>: got size %d align %d, want 1, 1", info.Size, info.Align)
	}
}

func TestCalculateFlags(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		n     int
		size  uint32
		align uint32
	}{
		{1, 1, 1},
		{8, 1, 1},
		{9, 2, 2},
		{16, 2, 2},
		{17, 4, 4},
		{32, 4, 4},
		{33, 8, 4},
		{64, 8, 4},
		{65, 12, 4},
	}
	for _, tc := range tests {
		td := &wai.TypeDef{Kind: &wai.Flags{Flags: make([]wai.Flag, tc.n)}}
		info := calc(t, c, td)
		if info.Size != tc.size || info.Align != tc.align {
			t.Errorf("%d flags: got size %d align %d, want %d, %d",
				tc.n, info.Size, info.Align, tc.size, tc.align)
		}
	}
}

func TestCalculateListAndHandles(t *testing.T) {
	c := NewCalculator()

	list := &wai.TypeDef{Kind: &wai.List{Type: wai.U64{}}}
	info := calc(t, c, list)
	if info.Size != 8 || info.Align != 4 {
		t.Errorf("list: got size %d align %d, want 8, 4", info.Size, info.Align)
	}

	for _, kind := range []wai.TypeDefKind{
		&wai.Resource{},
		&wai.Future{Type: wai.U32{}},
		&wai.Stream{Element: wai.U8{}, End: wai.Unit{}},
	} {
		info := calc(t, c, &wai.TypeDef{Kind: kind})
		if info.Size != 4 || info.Align != 4 {
			t.Errorf("%T: got size %d align %d, want 4, 4", kind, info.Size, info.Align)
		}
	}
}

func TestCalculateAlias(t *testing.T) {
	c := NewCalculator()

	base := &wai.TypeDef{Name: "base", Kind: &wai.Record{
		Fields: []wai.Field{{Name: "v", Type: wai.U16{}}},
	}}
	alias := &wai.TypeDef{Name: "alias", Kind: &wai.Alias{Type: base}}

	info := calc(t, c, alias)
	if info.Size != 2 || info.Align != 2 {
		t.Errorf("alias: got size %d align %d, want 2, 2", info.Size, info.Align)
	}
}

func TestCalculatorCaches(t *testing.T) {
	c := NewCalculator()
	td := &wai.TypeDef{Kind: &wai.Record{
		Fields: []wai.Field{{Name: "x", Type: wai.U32{}}},
	}}
	first := calc(t, c, td)
	second := calc(t, c, td)
	if first.Size != second.Size || first.Align != second.Align {
		t.Error("cached result differs")
	}
}

func TestAlignTo(t *testing.T) {
	tests := []struct {
		ptr, align, want uint32
	}{
		{0, 1, 0},
		{0, 8, 0},
		{1, 1, 1},
		{1, 4, 4},
		{4, 4, 4},
		{5, 4, 8},
		{9, 8, 16},
	}
	for _, tc := range tests {
		if got := AlignTo(tc.ptr, tc.align); got != tc.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", tc.ptr, tc.align, got, tc.want)
		}
	}
}
