package abi

import (
	"testing"

	"go.bytecodealliance.org/wit"

	"github.com/wasmerio/wai"
)

// These tests pin the layout rules against an independent canonical ABI
// implementation by building the same shapes twice and comparing.

type shape struct {
	name string
	ours wai.Type
	wits wit.Type
}

func conformanceShapes() []shape {
	return []shape{
		{"bool", wai.Bool{}, wit.Bool{}},
		{"u8", wai.U8{}, wit.U8{}},
		{"u16", wai.U16{}, wit.U16{}},
		{"u32", wai.U32{}, wit.U32{}},
		{"u64", wai.U64{}, wit.U64{}},
		{"s64", wai.S64{}, wit.S64{}},
		{"float32", wai.F32{}, wit.F32{}},
		{"float64", wai.F64{}, wit.F64{}},
		{"char", wai.Char{}, wit.Char{}},
		{"string", wai.String{}, wit.String{}},
		{
			"record_pair",
			&wai.TypeDef{Kind: &wai.Record{Fields: []wai.Field{
				{Name: "x", Type: wai.U32{}},
				{Name: "y", Type: wai.U32{}},
			}}},
			&wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
				{Name: "x", Type: wit.U32{}},
				{Name: "y", Type: wit.U32{}},
			}}},
		},
		{
			"record_padded",
			&wai.TypeDef{Kind: &wai.Record{Fields: []wai.Field{
				{Name: "a", Type: wai.U8{}},
				{Name: "b", Type: wai.U64{}},
				{Name: "c", Type: wai.U16{}},
			}}},
			&wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
				{Name: "a", Type: wit.U8{}},
				{Name: "b", Type: wit.U64{}},
				{Name: "c", Type: wit.U16{}},
			}}},
		},
		{
			"variant_mixed",
			&wai.TypeDef{Kind: &wai.Variant{Cases: []wai.Case{
				{Name: "none"},
				{Name: "num", Type: wai.U64{}},
				{Name: "text", Type: wai.String{}},
			}}},
			&wit.TypeDef{Kind: &wit.Variant{Cases: []wit.Case{
				{Name: "none"},
				{Name: "num", Type: wit.U64{}},
				{Name: "text", Type: wit.String{}},
			}}},
		},
		{
			"option_u32",
			&wai.TypeDef{Kind: &wai.Option{Type: wai.U32{}}},
			&wit.TypeDef{Kind: &wit.Option{Type: wit.U32{}}},
		},
		{
			"expected_string_u32",
			&wai.TypeDef{Kind: &wai.Expected{OK: wai.String{}, Err: wai.U32{}}},
			&wit.TypeDef{Kind: &wit.Result{OK: wit.String{}, Err: wit.U32{}}},
		},
		{
			"tuple",
			&wai.TypeDef{Kind: &wai.Tuple{Types: []wai.Type{wai.U8{}, wai.U32{}, wai.U8{}}}},
			&wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.U8{}, wit.U32{}, wit.U8{}}}},
		},
		{
			"enum_small",
			&wai.TypeDef{Kind: &wai.Enum{Cases: make([]wai.EnumCase, 5)}},
			&wit.TypeDef{Kind: &wit.Enum{Cases: make([]wit.EnumCase, 5)}},
		},
		{
			"flags_wide",
			&wai.TypeDef{Kind: &wai.Flags{Flags: make([]wai.Flag, 40)}},
			&wit.TypeDef{Kind: &wit.Flags{Flags: make([]wit.Flag, 40)}},
		},
		{
			"list",
			&wai.TypeDef{Kind: &wai.List{Type: wai.U64{}}},
			&wit.TypeDef{Kind: &wit.List{Type: wit.U64{}}},
		},
	}
}

func TestLayoutConformance(t *testing.T) {
	c := NewCalculator()
	for _, s := range conformanceShapes() {
		t.Run(s.name, func(t *testing.T) {
			info, err := c.Calculate(s.ours)
			if err != nil {
				t.Fatalf("Calculate failed: %v", err)
			}
			if uint32(s.wits.Size()) != info.Size {
				t.Errorf("size = %d, reference says %d", info.Size, s.wits.Size())
			}
			if uint32(s.wits.Align()) != info.Align {
				t.Errorf("align = %d, reference says %d", info.Align, s.wits.Align())
			}
		})
	}
}

func TestFlatShapeConformance(t *testing.T) {
	for _, s := range conformanceShapes() {
		t.Run(s.name, func(t *testing.T) {
			ours := FlattenType(s.ours)
			ref := s.wits.Flat()
			if len(ours) != len(ref) {
				t.Errorf("flat slot count: ours %d, reference %d", len(ours), len(ref))
			}
		})
	}
}
