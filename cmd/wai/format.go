package main

import (
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero/api"

	"github.com/wasmerio/wai"
	"github.com/wasmerio/wai/abi"
)

// typeString renders a type the way it would appear in source. Anonymous
// typedefs print structurally; named ones print their name.
func typeString(t wai.Type) string {
	switch v := t.(type) {
	case wai.Bool:
		return "bool"
	case wai.U8:
		return "u8"
	case wai.S8:
		return "s8"
	case wai.U16:
		return "u16"
	case wai.S16:
		return "s16"
	case wai.U32:
		return "u32"
	case wai.S32:
		return "s32"
	case wai.U64:
		return "u64"
	case wai.S64:
		return "s64"
	case wai.F32:
		return "float32"
	case wai.F64:
		return "float64"
	case wai.Char:
		return "char"
	case wai.String:
		return "string"
	case wai.Unit:
		return "unit"
	case *wai.TypeDef:
		if v.Name != "" {
			return v.Name
		}
		return kindTypeString(v.Kind)
	default:
		return fmt.Sprintf("%T", t)
	}
}

func kindTypeString(k wai.TypeDefKind) string {
	switch v := k.(type) {
	case *wai.Alias:
		return typeString(v.Type)
	case *wai.Option:
		return "option<" + typeString(v.Type) + ">"
	case *wai.Expected:
		return "expected<" + typeString(v.OK) + ", " + typeString(v.Err) + ">"
	case *wai.List:
		return "list<" + typeString(v.Type) + ">"
	case *wai.Tuple:
		parts := make([]string, len(v.Types))
		for i, t := range v.Types {
			parts[i] = typeString(t)
		}
		return "tuple<" + strings.Join(parts, ", ") + ">"
	case *wai.Future:
		return "future<" + typeString(v.Type) + ">"
	case *wai.Stream:
		return "stream<" + typeString(v.Element) + ", " + typeString(v.End) + ">"
	case *wai.Union:
		parts := make([]string, len(v.Types))
		for i, t := range v.Types {
			parts[i] = typeString(t)
		}
		return "union { " + strings.Join(parts, " | ") + " }"
	default:
		return kindString(k)
	}
}

// kindString names a typedef's kind for listings.
func kindString(k wai.TypeDefKind) string {
	switch k.(type) {
	case *wai.Alias:
		return "type"
	case *wai.Record:
		return "record"
	case *wai.Flags:
		return "flags"
	case *wai.Variant:
		return "variant"
	case *wai.Enum:
		return "enum"
	case *wai.Union:
		return "union"
	case *wai.Option:
		return "option"
	case *wai.Expected:
		return "expected"
	case *wai.List:
		return "list"
	case *wai.Tuple:
		return "tuple"
	case *wai.Future:
		return "future"
	case *wai.Stream:
		return "stream"
	case *wai.Resource:
		return "resource"
	default:
		return fmt.Sprintf("%T", k)
	}
}

func functionSummary(fn *wai.Function) string {
	var params []string
	for _, p := range fn.Params {
		params = append(params, p.Name+": "+typeString(p.Type))
	}
	name := fn.Name
	if fn.Resource != nil {
		name = fn.Resource.Name + "." + name
	}
	async := ""
	if fn.IsAsync {
		async = "async "
	}
	result := ""
	if fn.Result != nil {
		result = " -> " + typeString(fn.Result)
	}
	return name + ": " + async + "func(" + strings.Join(params, ", ") + ")" + result
}

func coreSignature(sig abi.Signature) string {
	var b strings.Builder
	b.WriteString("(")
	for i, vt := range sig.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(api.ValueTypeName(vt))
	}
	b.WriteString(")")
	if len(sig.Results) > 0 {
		b.WriteString(" -> (")
		for i, vt := range sig.Results {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(api.ValueTypeName(vt))
		}
		b.WriteString(")")
	}
	switch {
	case sig.ParamsIndirect && sig.ResultsIndirect:
		b.WriteString("  [params and results indirect]")
	case sig.ParamsIndirect:
		b.WriteString("  [params indirect]")
	case sig.ResultsIndirect:
		b.WriteString("  [results indirect]")
	}
	return b.String()
}

// functionDetail builds the full report for one function: signature,
// per-parameter layout, and the flattened core signature.
func functionDetail(calc *abi.Calculator, fn *wai.Function) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", functionSummary(fn))
	fmt.Fprintf(&b, "  kind: %s\n", fn.Kind)

	for _, p := range fn.Params {
		info, err := calc.Calculate(p.Type)
		if err != nil {
			fmt.Fprintf(&b, "  param %s: %v\n", p.Name, err)
			continue
		}
		fmt.Fprintf(&b, "  param %s: %s (size %d, align %d)\n",
			p.Name, typeString(p.Type), info.Size, info.Align)
	}
	if fn.Result != nil {
		info, err := calc.Calculate(fn.Result)
		if err != nil {
			fmt.Fprintf(&b, "  result: %v\n", err)
		} else {
			fmt.Fprintf(&b, "  result: %s (size %d, align %d)\n",
				typeString(fn.Result), info.Size, info.Align)
		}
	}

	fmt.Fprintf(&b, "  core: %s\n", coreSignature(abi.FlattenFunction(fn)))
	return b.String()
}

// typeDetail builds the full report for one typedef: layout plus member
// breakdown where the kind has members.
func typeDetail(calc *abi.Calculator, td *wai.TypeDef) string {
	var b strings.Builder
	info, err := calc.Calculate(td)
	if err != nil {
		fmt.Fprintf(&b, "%s %s: %v\n", kindString(td.Kind), td.Name, err)
		return b.String()
	}
	fmt.Fprintf(&b, "%s %s (size %d, align %d)\n",
		kindString(td.Kind), td.Name, info.Size, info.Align)

	switch v := td.Kind.(type) {
	case *wai.Alias:
		fmt.Fprintf(&b, "  = %s\n", typeString(v.Type))
	case *wai.Record:
		for _, f := range v.Fields {
			fmt.Fprintf(&b, "  %s: %s (offset %d)\n",
				f.Name, typeString(f.Type), info.FieldOffs[f.Name])
		}
	case *wai.Variant:
		for i, c := range v.Cases {
			payload := ""
			if c.Type != nil {
				payload = "(" + typeString(c.Type) + ")"
			}
			fmt.Fprintf(&b, "  case %d: %s%s\n", i, c.Name, payload)
		}
	case *wai.Enum:
		for i, c := range v.Cases {
			fmt.Fprintf(&b, "  case %d: %s\n", i, c.Name)
		}
	case *wai.Union:
		for i, t := range v.Types {
			fmt.Fprintf(&b, "  case %d: %s\n", i, typeString(t))
		}
	case *wai.Flags:
		for i, f := range v.Flags {
			fmt.Fprintf(&b, "  bit %d: %s\n", i, f.Name)
		}
	case *wai.Resource:
		for _, fn := range v.Functions {
			fmt.Fprintf(&b, "  %s\n", functionSummary(fn))
		}
	default:
		fmt.Fprintf(&b, "  = %s\n", kindTypeString(td.Kind))
	}
	return b.String()
}
