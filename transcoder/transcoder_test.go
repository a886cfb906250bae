package transcoder

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/wasmerio/wai"
	"github.com/wasmerio/wai/abi"
	"github.com/wasmerio/wai/errors"
)

func roundTripStack(t *testing.T, ty wai.Type, value any) any {
	t.Helper()
	mem := NewLinearMemory(4096)
	list := NewAllocationList()
	defer list.FreeAndRelease(mem)

	enc := NewEncoder()
	flat, err := enc.EncodeParams([]wai.Type{ty}, []any{value}, mem, mem, list)
	if err != nil {
		t.Fatalf("EncodeParams failed: %v", err)
	}

	dec := NewDecoder()
	out, err := dec.DecodeParams([]wai.Type{ty}, flat, mem)
	if err != nil {
		t.Fatalf("DecodeParams failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("decoded %d values, want 1", len(out))
	}
	return out[0]
}

func roundTripMemory(t *testing.T, ty wai.Type, value any) any {
	t.Helper()
	mem := NewLinearMemory(4096)
	list := NewAllocationList()
	defer list.FreeAndRelease(mem)

	enc := NewEncoder()
	info, err := abi.NewCalculator().Calculate(ty)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	addr, err := mem.Alloc(info.Size, info.Align)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if err := enc.Store(ty, value, addr, mem, mem, list); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	out, err := NewDecoder().Load(ty, addr, mem)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return out
}

func checkRoundTrip(t *testing.T, ty wai.Type, value any) {
	t.Helper()
	if got := roundTripStack(t, ty, value); !reflect.DeepEqual(got, value) {
		t.Errorf("stack round trip: got %#v, want %#v", got, value)
	}
	if got := roundTripMemory(t, ty, value); !reflect.DeepEqual(got, value) {
		t.Errorf("memory round trip: got %#v, want %#v", got, value)
	}
}

func TestRoundTripPrimitives(t *testing.T) {
	checkRoundTrip(t, wai.Bool{}, true)
	checkRoundTrip(t, wai.U8{}, uint8(200))
	checkRoundTrip(t, wai.U16{}, uint16(60000))
	checkRoundTrip(t, wai.U32{}, uint32(4000000000))
	checkRoundTrip(t, wai.U64{}, uint64(1)<<63)
	checkRoundTrip(t, wai.S8{}, int8(-100))
	checkRoundTrip(t, wai.S16{}, int16(-30000))
	checkRoundTrip(t, wai.S32{}, int32(-2000000000))
	checkRoundTrip(t, wai.S64{}, int64(-1)<<40)
	checkRoundTrip(t, wai.F32{}, float32(3.5))
	checkRoundTrip(t, wai.F64{}, 2.718281828)
	checkRoundTrip(t, wai.Char{}, 'λ')
	checkRoundTrip(t, wai.String{}, "hello, wasm")
	checkRoundTrip(t, wai.String{}, "")
}

func TestRoundTripRecord(t *testing.T) {
	point := &wai.TypeDef{Name: "point", Kind: &wai.Record{
		Fields: []wai.Field{
			{Name: "x", Type: wai.U32{}},
			{Name: "y", Type: wai.U32{}},
		},
	}}
	checkRoundTrip(t, point, map[string]any{"x": uint32(7), "y": uint32(9)})
}

func TestRoundTripNestedRecord(t *testing.T) {
	inner := &wai.TypeDef{Name: "inner", Kind: &wai.Record{
		Fields: []wai.Field{
			{Name: "tag", Type: wai.U8{}},
			{Name: "label", Type: wai.String{}},
		},
	}}
	outer := &wai.TypeDef{Name: "outer", Kind: &wai.Record{
		Fields: []wai.Field{
			{Name: "id", Type: wai.U64{}},
			{Name: "inner", Type: inner},
		},
	}}
	checkRoundTrip(t, outer, map[string]any{
		"id": uint64(42),
		"inner": map[string]any{
			"tag":   uint8(3),
			"label": "nested",
		},
	})
}

func TestRoundTripLists(t *testing.T) {
	bytes := &wai.TypeDef{Kind: &wai.List{Type: wai.U8{}}}
	checkRoundTrip(t, bytes, []byte{1, 2, 3, 250})
	checkRoundTrip(t, bytes, []byte{})

	strs := &wai.TypeDef{Kind: &wai.List{Type: wai.String{}}}
	checkRoundTrip(t, strs, []any{"a", "bc", "def"})

	nums := &wai.TypeDef{Kind: &wai.List{Type: wai.U64{}}}
	checkRoundTrip(t, nums, []any{uint64(1), uint64(2), uint64(3)})
}

func TestRoundTripTuple(t *testing.T) {
	tup := &wai.TypeDef{Kind: &wai.Tuple{Types: []wai.Type{wai.U8{}, wai.U32{}, wai.String{}}}}
	checkRoundTrip(t, tup, []any{uint8(1), uint32(2), "three"})
}

func TestRoundTripVariant(t *testing.T) {
	filter := &wai.TypeDef{Name: "filter", Kind: &wai.Variant{
		Cases: []wai.Case{
			{Name: "all"},
			{Name: "none"},
			{Name: "some", Type: &wai.TypeDef{Kind: &wai.List{Type: wai.String{}}}},
		},
	}}
	checkRoundTrip(t, filter, Variant{Case: "all"})
	checkRoundTrip(t, filter, Variant{Case: "some", Payload: []any{"x", "y"}})
}

func TestRoundTripOptionExpected(t *testing.T) {
	opt := &wai.TypeDef{Kind: &wai.Option{Type: wai.U32{}}}
	checkRoundTrip(t, opt, Option{})
	checkRoundTrip(t, opt, Option{Some: true, Value: uint32(17)})

	exp := &wai.TypeDef{Kind: &wai.Expected{OK: wai.String{}, Err: wai.U32{}}}
	checkRoundTrip(t, exp, Expected{Value: "fine"})
	checkRoundTrip(t, exp, Expected{IsErr: true, Value: uint32(13)})

	unitOK := &wai.TypeDef{Kind: &wai.Expected{OK: wai.Unit{}, Err: wai.U32{}}}
	checkRoundTrip(t, unitOK, Expected{})
	checkRoundTrip(t, unitOK, Expected{IsErr: true, Value: uint32(5)})
}

func TestRoundTripEnumFlags(t *testing.T) {
	color := &wai.TypeDef{Kind: &wai.Enum{
		Cases: []wai.EnumCase{{Name: "red"}, {Name: "green"}, {Name: "blue"}},
	}}
	checkRoundTrip(t, color, "green")

	perms := &wai.TypeDef{Kind: &wai.Flags{
		Flags: []wai.Flag{{Name: "read"}, {Name: "write"}, {Name: "exec"}},
	}}
	checkRoundTrip(t, perms, []string{"read", "exec"})
}

func TestRoundTripWideFlags(t *testing.T) {
	// flags beyond one 32-bit word occupy consecutive u32s
	members := make([]wai.Flag, 40)
	names := make([]string, len(members))
	for i := range members {
		members[i] = wai.Flag{Name: fmt.Sprintf("f%d", i)}
		names[i] = members[i].Name
	}
	wide := &wai.TypeDef{Kind: &wai.Flags{Flags: members}}

	// one bit in each word
	checkRoundTrip(t, wide, []string{"f0", "f39"})
	checkRoundTrip(t, wide, []string{"f31", "f32"})
	checkRoundTrip(t, wide, names)

	info, err := abi.NewCalculator().Calculate(wide)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if info.Size != 8 || info.Align != 4 {
		t.Fatalf("40 flags: got size %d align %d, want size 8 align 4", info.Size, info.Align)
	}
}

func TestRoundTripUnion(t *testing.T) {
	u := &wai.TypeDef{Kind: &wai.Union{Types: []wai.Type{wai.U32{}, wai.String{}}}}
	checkRoundTrip(t, u, Union{Case: 0, Value: uint32(9)})
	checkRoundTrip(t, u, Union{Case: 1, Value: "text"})
}

func TestRoundTripHandle(t *testing.T) {
	res := &wai.TypeDef{Name: "file", Kind: &wai.Resource{}}
	checkRoundTrip(t, res, Handle(12))
}

func TestParamSpill(t *testing.T) {
	mem := NewLinearMemory(4096)
	list := NewAllocationList()
	defer list.FreeAndRelease(mem)

	types := make([]wai.Type, 17)
	values := make([]any, 17)
	for i := range types {
		types[i] = wai.U32{}
		values[i] = uint32(i * 11)
	}

	flat, err := NewEncoder().EncodeParams(types, values, mem, mem, list)
	if err != nil {
		t.Fatalf("EncodeParams failed: %v", err)
	}
	if len(flat) != 1 {
		t.Fatalf("spilled params should produce 1 pointer slot, got %d", len(flat))
	}

	out, err := NewDecoder().DecodeParams(types, flat, mem)
	if err != nil {
		t.Fatalf("DecodeParams failed: %v", err)
	}
	for i := range values {
		if out[i] != values[i] {
			t.Errorf("param %d = %v, want %v", i, out[i], values[i])
		}
	}
}

func TestIndirectResult(t *testing.T) {
	mem := NewLinearMemory(4096)
	list := NewAllocationList()
	defer list.FreeAndRelease(mem)

	// a string result is two slots, so it travels behind a return pointer
	ty := wai.String{}
	retptr, err := mem.Alloc(8, 4)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if err := NewEncoder().Store(ty, "indirect result", retptr, mem, mem, list); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	out, err := NewDecoder().DecodeResult(ty, []uint64{uint64(retptr)}, mem)
	if err != nil {
		t.Fatalf("DecodeResult failed: %v", err)
	}
	if out != "indirect result" {
		t.Errorf("result = %q", out)
	}
}

func TestEncodeErrors(t *testing.T) {
	mem := NewLinearMemory(1024)
	enc := NewEncoder()

	t.Run("type mismatch", func(t *testing.T) {
		_, err := enc.EncodeParams([]wai.Type{wai.U32{}}, []any{"nope"}, mem, mem, nil)
		want := errors.New(errors.PhaseEncode, errors.KindInvalidData).Build()
		if !stderrors.Is(err, want) {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("count mismatch", func(t *testing.T) {
		_, err := enc.EncodeParams([]wai.Type{wai.U32{}}, nil, mem, mem, nil)
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("range overflow", func(t *testing.T) {
		_, err := enc.EncodeParams([]wai.Type{wai.U8{}}, []any{300}, mem, mem, nil)
		want := errors.New(errors.PhaseEncode, errors.KindOverflow).Build()
		if !stderrors.Is(err, want) {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("surrogate char", func(t *testing.T) {
		_, err := enc.EncodeParams([]wai.Type{wai.Char{}}, []any{rune(0xD800)}, mem, mem, nil)
		if err == nil {
			t.Fatal("surrogate should be rejected")
		}
	})

	t.Run("unknown variant case", func(t *testing.T) {
		v := &wai.TypeDef{Name: "v", Kind: &wai.Variant{Cases: []wai.Case{{Name: "a"}}}}
		_, err := enc.EncodeParams([]wai.Type{v}, []any{Variant{Case: "b"}}, mem, mem, nil)
		if err == nil {
			t.Fatal("unknown case should be rejected")
		}
	})
}

func TestDecodeErrors(t *testing.T) {
	mem := NewLinearMemory(1024)
	dec := NewDecoder()

	t.Run("enum discriminant out of range", func(t *testing.T) {
		e := &wai.TypeDef{Kind: &wai.Enum{Cases: []wai.EnumCase{{Name: "only"}}}}
		_, err := dec.DecodeParams([]wai.Type{e}, []uint64{5}, mem)
		want := errors.New(errors.PhaseDecode, errors.KindInvalidData).Build()
		if !stderrors.Is(err, want) {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("slot count mismatch", func(t *testing.T) {
		_, err := dec.DecodeParams([]wai.Type{wai.U32{}}, []uint64{1, 2}, mem)
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("invalid char", func(t *testing.T) {
		_, err := dec.DecodeParams([]wai.Type{wai.Char{}}, []uint64{0x110000}, mem)
		if err == nil {
			t.Fatal("out of range codepoint should be rejected")
		}
	})

	t.Run("invalid utf8 string", func(t *testing.T) {
		ptr, _ := mem.Alloc(4, 1)
		if err := mem.Write(ptr, []byte{0xff, 0xfe, 0x01, 0x02}); err != nil {
			t.Fatal(err)
		}
		_, err := dec.DecodeParams([]wai.Type{wai.String{}}, []uint64{uint64(ptr), 4}, mem)
		if err == nil {
			t.Fatal("invalid UTF-8 should be rejected")
		}
	})

	t.Run("unknown flag bits", func(t *testing.T) {
		f := &wai.TypeDef{Kind: &wai.Flags{Flags: []wai.Flag{{Name: "a"}}}}
		_, err := dec.DecodeParams([]wai.Type{f}, []uint64{0b10}, mem)
		if err == nil {
			t.Fatal("unknown bit should be rejected")
		}
	})
}

func TestAllocationTracking(t *testing.T) {
	mem := NewLinearMemory(4096)
	list := NewAllocationList()
	defer list.Release()

	_, err := NewEncoder().EncodeParams(
		[]wai.Type{wai.String{}, wai.String{}},
		[]any{"one", "two"},
		mem, mem, list)
	if err != nil {
		t.Fatalf("EncodeParams failed: %v", err)
	}
	if list.Count() != 2 {
		t.Errorf("allocation count = %d, want 2", list.Count())
	}
	list.Free(mem)
}

func TestLinearMemoryGrows(t *testing.T) {
	mem := NewLinearMemory(16)
	ptr, err := mem.Alloc(1000, 8)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if err := mem.Write(ptr, make([]byte, 1000)); err != nil {
		t.Errorf("Write after growth failed: %v", err)
	}
	if mem.Size() < ptr+1000 {
		t.Errorf("memory did not grow: size %d", mem.Size())
	}
}

func TestLinearMemoryBounds(t *testing.T) {
	mem := NewLinearMemory(64)
	if _, err := mem.Read(60, 8); err == nil {
		t.Error("out of bounds read should fail")
	}
	if err := mem.WriteU64(100, 1); err == nil {
		t.Error("out of bounds write should fail")
	}
}
