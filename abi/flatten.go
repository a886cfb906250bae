package abi

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wasmerio/wai"
)

// CoreValType is a core wasm value type.
type CoreValType = api.ValueType

// FlattenType maps a resolved type onto its core value slots.
func FlattenType(t wai.Type) []CoreValType {
	switch v := t.(type) {
	case wai.Bool, wai.U8, wai.U16, wai.U32, wai.S8, wai.S16, wai.S32, wai.Char:
		return []CoreValType{api.ValueTypeI32}
	case wai.U64, wai.S64:
		return []CoreValType{api.ValueTypeI64}
	case wai.F32:
		return []CoreValType{api.ValueTypeF32}
	case wai.F64:
		return []CoreValType{api.ValueTypeF64}
	case wai.String:
		return []CoreValType{api.ValueTypeI32, api.ValueTypeI32} // ptr, len
	case wai.Unit:
		return nil
	case *wai.TypeDef:
		return flattenTypeDef(v)
	default:
		return []CoreValType{api.ValueTypeI32}
	}
}

func flattenTypeDef(td *wai.TypeDef) []CoreValType {
	switch kind := td.Kind.(type) {
	case *wai.Alias:
		return FlattenType(kind.Type)

	case *wai.Record:
		var flat []CoreValType
		for _, f := range kind.Fields {
			flat = append(flat, FlattenType(f.Type)...)
		}
		return flat

	case *wai.Tuple:
		var flat []CoreValType
		for _, t := range kind.Types {
			flat = append(flat, FlattenType(t)...)
		}
		return flat

	case *wai.List:
		return []CoreValType{api.ValueTypeI32, api.ValueTypeI32} // ptr, len

	case *wai.Enum:
		return []CoreValType{api.ValueTypeI32}

	case *wai.Flags:
		// one i32 per 32-flag word
		words := (len(kind.Flags) + 31) / 32
		if words < 1 {
			words = 1
		}
		slots := make([]CoreValType, words)
		for i := range slots {
			slots[i] = api.ValueTypeI32
		}
		return slots

	case *wai.Option:
		return flattenCases([]wai.Type{kind.Type})

	case *wai.Expected:
		return flattenCases([]wai.Type{kind.OK, kind.Err})

	case *wai.Variant:
		return flattenCases(variantPayloads(kind))

	case *wai.Union:
		return flattenCases(kind.Types)

	case *wai.Resource, *wai.Future, *wai.Stream:
		return []CoreValType{api.ValueTypeI32} // handle

	default:
		return []CoreValType{api.ValueTypeI32}
	}
}

// flattenCases flattens a discriminated type: an i32 discriminant followed
// by the per-slot join of every case payload.
func flattenCases(payloads []wai.Type) []CoreValType {
	flat := []CoreValType{api.ValueTypeI32}
	var joined []CoreValType
	for _, p := range payloads {
		if p == nil {
			continue
		}
		caseFlat := FlattenType(p)
		for i, ct := range caseFlat {
			if i < len(joined) {
				joined[i] = joinTypes(joined[i], ct)
			} else {
				joined = append(joined, ct)
			}
		}
	}
	return append(flat, joined...)
}

// joinTypes unifies two core types occupying the same payload slot. Equal
// types stay as-is, i32/f32 join to i32, and any 64-bit participant widens
// the slot to i64.
func joinTypes(a, b CoreValType) CoreValType {
	if a == b {
		return a
	}
	if (a == api.ValueTypeI32 && b == api.ValueTypeF32) ||
		(a == api.ValueTypeF32 && b == api.ValueTypeI32) {
		return api.ValueTypeI32
	}
	return api.ValueTypeI64
}

// Signature is the core calling convention of one function after applying
// the flattening limits.
type Signature struct {
	Params  []CoreValType
	Results []CoreValType

	// ParamsIndirect is set when the flattened parameters overflowed
	// MaxFlatParams and are passed through a single pointer into linear
	// memory.
	ParamsIndirect bool

	// ResultsIndirect is set when the flattened result overflowed
	// MaxFlatResults and is written through a caller-provided return
	// pointer appended as the last parameter.
	ResultsIndirect bool
}

// FlattenFunction computes the core signature of a resolved function.
func FlattenFunction(fn *wai.Function) Signature {
	var sig Signature

	for _, p := range fn.Params {
		sig.Params = append(sig.Params, FlattenType(p.Type)...)
	}
	if len(sig.Params) > MaxFlatParams {
		sig.Params = []CoreValType{api.ValueTypeI32}
		sig.ParamsIndirect = true
	}

	if fn.Result != nil {
		sig.Results = FlattenType(fn.Result)
	}
	if len(sig.Results) > MaxFlatResults {
		sig.Params = append(sig.Params, api.ValueTypeI32)
		sig.Results = nil
		sig.ResultsIndirect = true
	}

	return sig
}
