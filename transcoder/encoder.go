package transcoder

import (
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/tetratelabs/wazero/api"

	"github.com/wasmerio/wai"
	"github.com/wasmerio/wai/abi"
	"github.com/wasmerio/wai/errors"
)

// Encoder lowers Go values into stack slots and linear memory.
type Encoder struct {
	calc *abi.Calculator
}

func NewEncoder() *Encoder {
	return &Encoder{calc: abi.NewCalculator()}
}

// NewEncoderWithCalculator shares a calculator, and its layout cache, with
// the caller.
func NewEncoderWithCalculator(c *abi.Calculator) *Encoder {
	return &Encoder{calc: c}
}

func encodeErr(detail string, args ...any) *errors.Builder {
	return errors.New(errors.PhaseEncode, errors.KindInvalidData).Detail(detail, args...)
}

// EncodeParams lowers one call's parameters. When the flattened form
// exceeds MaxFlatParams the parameters are stored into a single allocated
// block and the returned slots hold just its pointer.
func (e *Encoder) EncodeParams(paramTypes []wai.Type, values []any, mem Memory, alloc Allocator, list *AllocationList) ([]uint64, error) {
	if len(paramTypes) != len(values) {
		return nil, encodeErr("parameter count mismatch: expected %d, got %d", len(paramTypes), len(values)).Build()
	}

	slots := 0
	for _, t := range paramTypes {
		slots += len(abi.FlattenType(t))
	}
	if slots > abi.MaxFlatParams {
		return e.spillParams(paramTypes, values, mem, alloc, list)
	}

	var flat []uint64
	for i, t := range paramTypes {
		if err := e.lowerToStack(t, values[i], &flat, mem, alloc, list); err != nil {
			return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err,
				"failed to encode parameter "+strconv.Itoa(i))
		}
	}
	return flat, nil
}

// spillParams stores every parameter into one block laid out like a record
// of the parameter types.
func (e *Encoder) spillParams(paramTypes []wai.Type, values []any, mem Memory, alloc Allocator, list *AllocationList) ([]uint64, error) {
	size, align := uint32(0), uint32(1)
	offsets := make([]uint32, len(paramTypes))
	for i, t := range paramTypes {
		info, err := e.calc.Calculate(t)
		if err != nil {
			return nil, err
		}
		size = abi.AlignTo(size, info.Align)
		offsets[i] = size
		size += info.Size
		if info.Align > align {
			align = info.Align
		}
	}
	size = abi.AlignTo(size, align)

	ptr, err := alloc.Alloc(size, align)
	if err != nil {
		return nil, err
	}
	if list != nil {
		list.Add(ptr, size, align)
	}
	for i, t := range paramTypes {
		if err := e.Store(t, values[i], ptr+offsets[i], mem, alloc, list); err != nil {
			return nil, err
		}
	}
	return []uint64{api.EncodeU32(ptr)}, nil
}

// lowerToStack appends the flattened slots of one value.
func (e *Encoder) lowerToStack(t wai.Type, v any, flat *[]uint64, mem Memory, alloc Allocator, list *AllocationList) error {
	switch ty := t.(type) {
	case wai.Bool:
		b, err := asBool(v)
		if err != nil {
			return err
		}
		if b {
			*flat = append(*flat, 1)
		} else {
			*flat = append(*flat, 0)
		}
		return nil

	case wai.U8:
		n, err := asUint(v, math.MaxUint8)
		if err != nil {
			return err
		}
		*flat = append(*flat, api.EncodeU32(uint32(n)))
		return nil
	case wai.U16:
		n, err := asUint(v, math.MaxUint16)
		if err != nil {
			return err
		}
		*flat = append(*flat, api.EncodeU32(uint32(n)))
		return nil
	case wai.U32:
		n, err := asUint(v, math.MaxUint32)
		if err != nil {
			return err
		}
		*flat = append(*flat, api.EncodeU32(uint32(n)))
		return nil
	case wai.U64:
		n, err := asUint(v, math.MaxUint64)
		if err != nil {
			return err
		}
		*flat = append(*flat, n)
		return nil

	case wai.S8:
		n, err := asInt(v, math.MinInt8, math.MaxInt8)
		if err != nil {
			return err
		}
		*flat = append(*flat, api.EncodeI32(int32(n)))
		return nil
	case wai.S16:
		n, err := asInt(v, math.MinInt16, math.MaxInt16)
		if err != nil {
			return err
		}
		*flat = append(*flat, api.EncodeI32(int32(n)))
		return nil
	case wai.S32:
		n, err := asInt(v, math.MinInt32, math.MaxInt32)
		if err != nil {
			return err
		}
		*flat = append(*flat, api.EncodeI32(int32(n)))
		return nil
	case wai.S64:
		n, err := asInt(v, math.MinInt64, math.MaxInt64)
		if err != nil {
			return err
		}
		*flat = append(*flat, api.EncodeI64(n))
		return nil

	case wai.F32:
		f, ok := v.(float32)
		if !ok {
			return encodeErr("expected float32, got %T", v).Build()
		}
		*flat = append(*flat, api.EncodeF32(f))
		return nil
	case wai.F64:
		f, ok := v.(float64)
		if !ok {
			return encodeErr("expected float64, got %T", v).Build()
		}
		*flat = append(*flat, api.EncodeF64(f))
		return nil

	case wai.Char:
		r, err := asChar(v)
		if err != nil {
			return err
		}
		*flat = append(*flat, api.EncodeU32(uint32(r)))
		return nil

	case wai.String:
		ptr, n, err := e.lowerString(v, mem, alloc, list)
		if err != nil {
			return err
		}
		*flat = append(*flat, api.EncodeU32(ptr), api.EncodeU32(n))
		return nil

	case wai.Unit:
		return nil

	case *wai.TypeDef:
		return e.lowerTypeDefToStack(ty, v, flat, mem, alloc, list)
	}
	return encodeErr("cannot lower type %T", t).Build()
}

func (e *Encoder) lowerTypeDefToStack(td *wai.TypeDef, v any, flat *[]uint64, mem Memory, alloc Allocator, list *AllocationList) error {
	switch kind := td.Kind.(type) {
	case *wai.Alias:
		return e.lowerToStack(kind.Type, v, flat, mem, alloc, list)

	case *wai.Record:
		fields, ok := v.(map[string]any)
		if !ok {
			return encodeErr("record %s: expected map[string]any, got %T", td.Name, v).Build()
		}
		for _, f := range kind.Fields {
			fv, ok := fields[f.Name]
			if !ok {
				return encodeErr("record %s: missing field %q", td.Name, f.Name).Build()
			}
			if err := e.lowerToStack(f.Type, fv, flat, mem, alloc, list); err != nil {
				return err
			}
		}
		return nil

	case *wai.Tuple:
		elems, ok := v.([]any)
		if !ok || len(elems) != len(kind.Types) {
			return encodeErr("tuple: expected %d elements, got %T", len(kind.Types), v).Build()
		}
		for i, t := range kind.Types {
			if err := e.lowerToStack(t, elems[i], flat, mem, alloc, list); err != nil {
				return err
			}
		}
		return nil

	case *wai.List:
		ptr, n, err := e.lowerList(kind, v, mem, alloc, list)
		if err != nil {
			return err
		}
		*flat = append(*flat, api.EncodeU32(ptr), api.EncodeU32(n))
		return nil

	case *wai.Enum:
		idx, err := enumIndex(kind, v)
		if err != nil {
			return err
		}
		*flat = append(*flat, api.EncodeU32(idx))
		return nil

	case *wai.Flags:
		bits, err := flagBits(kind, v)
		if err != nil {
			return err
		}
		words := flagWords(len(kind.Flags))
		for w := 0; w < words; w++ {
			*flat = append(*flat, api.EncodeU32(uint32(bits>>(32*w))))
		}
		return nil

	case *wai.Variant:
		val, ok := v.(Variant)
		if !ok {
			return encodeErr("variant %s: expected transcoder.Variant, got %T", td.Name, v).Build()
		}
		idx, cs := findCase(kind, val.Case)
		if cs == nil {
			return encodeErr("variant %s: unknown case %q", td.Name, val.Case).Build()
		}
		return e.lowerCases(td, uint32(idx), cs.Type, val.Payload, flat, mem, alloc, list)

	case *wai.Union:
		val, ok := v.(Union)
		if !ok {
			return encodeErr("union: expected transcoder.Union, got %T", v).Build()
		}
		if int(val.Case) >= len(kind.Types) {
			return encodeErr("union: case %d out of range", val.Case).Build()
		}
		return e.lowerCases(td, val.Case, kind.Types[val.Case], val.Value, flat, mem, alloc, list)

	case *wai.Option:
		val, ok := v.(Option)
		if !ok {
			return encodeErr("option: expected transcoder.Option, got %T", v).Build()
		}
		if !val.Some {
			return e.lowerCases(td, 0, nil, nil, flat, mem, alloc, list)
		}
		return e.lowerCases(td, 1, kind.Type, val.Value, flat, mem, alloc, list)

	case *wai.Expected:
		val, ok := v.(Expected)
		if !ok {
			return encodeErr("expected: expected transcoder.Expected, got %T", v).Build()
		}
		if val.IsErr {
			return e.lowerCases(td, 1, kind.Err, val.Value, flat, mem, alloc, list)
		}
		return e.lowerCases(td, 0, kind.OK, val.Value, flat, mem, alloc, list)

	case *wai.Resource, *wai.Future, *wai.Stream:
		h, ok := v.(Handle)
		if !ok {
			return encodeErr("handle: expected transcoder.Handle, got %T", v).Build()
		}
		*flat = append(*flat, api.EncodeU32(uint32(h)))
		return nil
	}
	return encodeErr("cannot lower typedef kind %T", td.Kind).Build()
}

// lowerCases lowers one discriminated value: the discriminant slot, the
// selected payload, then zero padding up to the joined payload width.
func (e *Encoder) lowerCases(td *wai.TypeDef, disc uint32, payloadType wai.Type, payload any, flat *[]uint64, mem Memory, alloc Allocator, list *AllocationList) error {
	total := len(abi.FlattenType(td))
	start := len(*flat)
	*flat = append(*flat, api.EncodeU32(disc))

	if payloadType != nil {
		if _, isUnit := payloadType.(wai.Unit); !isUnit {
			if err := e.lowerToStack(payloadType, payload, flat, mem, alloc, list); err != nil {
				return err
			}
		}
	}
	for len(*flat)-start < total {
		*flat = append(*flat, 0)
	}
	return nil
}

func (e *Encoder) lowerString(v any, mem Memory, alloc Allocator, list *AllocationList) (ptr, length uint32, err error) {
	s, ok := v.(string)
	if !ok {
		return 0, 0, encodeErr("expected string, got %T", v).Build()
	}
	if len(s) > MaxStringSize {
		return 0, 0, errors.New(errors.PhaseEncode, errors.KindOverflow).
			Detail("string of %d bytes exceeds limit", len(s)).
			Build()
	}
	if !utf8.ValidString(s) {
		return 0, 0, encodeErr("string is not valid UTF-8").Build()
	}
	if len(s) == 0 {
		return 0, 0, nil
	}

	ptr, err = alloc.Alloc(uint32(len(s)), 1)
	if err != nil {
		return 0, 0, err
	}
	if list != nil {
		list.Add(ptr, uint32(len(s)), 1)
	}
	if err := mem.Write(ptr, []byte(s)); err != nil {
		return 0, 0, err
	}
	return ptr, uint32(len(s)), nil
}

func (e *Encoder) lowerList(kind *wai.List, v any, mem Memory, alloc Allocator, list *AllocationList) (ptr, length uint32, err error) {
	// byte fast path
	if _, isU8 := rootType(kind.Type).(wai.U8); isU8 {
		if b, ok := v.([]byte); ok {
			return e.lowerBytes(b, mem, alloc, list)
		}
	}

	elems, ok := v.([]any)
	if !ok {
		return 0, 0, encodeErr("list: expected []any, got %T", v).Build()
	}
	if len(elems) > MaxListLength {
		return 0, 0, errors.New(errors.PhaseEncode, errors.KindOverflow).
			Detail("list of %d elements exceeds limit", len(elems)).
			Build()
	}
	if len(elems) == 0 {
		return 0, 0, nil
	}

	el, err := e.calc.Calculate(kind.Type)
	if err != nil {
		return 0, 0, err
	}
	total := el.Size * uint32(len(elems))
	ptr, err = alloc.Alloc(total, el.Align)
	if err != nil {
		return 0, 0, err
	}
	if list != nil {
		list.Add(ptr, total, el.Align)
	}
	for i, elem := range elems {
		addr := ptr + uint32(i)*el.Size
		if err := e.Store(kind.Type, elem, addr, mem, alloc, list); err != nil {
			return 0, 0, err
		}
	}
	return ptr, uint32(len(elems)), nil
}

func (e *Encoder) lowerBytes(b []byte, mem Memory, alloc Allocator, list *AllocationList) (ptr, length uint32, err error) {
	if len(b) == 0 {
		return 0, 0, nil
	}
	ptr, err = alloc.Alloc(uint32(len(b)), 1)
	if err != nil {
		return 0, 0, err
	}
	if list != nil {
		list.Add(ptr, uint32(len(b)), 1)
	}
	if err := mem.Write(ptr, b); err != nil {
		return 0, 0, err
	}
	return ptr, uint32(len(b)), nil
}

// Store writes one value into linear memory at addr using its canonical
// layout.
func (e *Encoder) Store(t wai.Type, v any, addr uint32, mem Memory, alloc Allocator, list *AllocationList) error {
	switch ty := t.(type) {
	case wai.Bool:
		b, err := asBool(v)
		if err != nil {
			return err
		}
		var u uint8
		if b {
			u = 1
		}
		return mem.WriteU8(addr, u)

	case wai.U8:
		n, err := asUint(v, math.MaxUint8)
		if err != nil {
			return err
		}
		return mem.WriteU8(addr, uint8(n))
	case wai.U16:
		n, err := asUint(v, math.MaxUint16)
		if err != nil {
			return err
		}
		return mem.WriteU16(addr, uint16(n))
	case wai.U32:
		n, err := asUint(v, math.MaxUint32)
		if err != nil {
			return err
		}
		return mem.WriteU32(addr, uint32(n))
	case wai.U64:
		n, err := asUint(v, math.MaxUint64)
		if err != nil {
			return err
		}
		return mem.WriteU64(addr, n)

	case wai.S8:
		n, err := asInt(v, math.MinInt8, math.MaxInt8)
		if err != nil {
			return err
		}
		return mem.WriteU8(addr, uint8(int8(n)))
	case wai.S16:
		n, err := asInt(v, math.MinInt16, math.MaxInt16)
		if err != nil {
			return err
		}
		return mem.WriteU16(addr, uint16(int16(n)))
	case wai.S32:
		n, err := asInt(v, math.MinInt32, math.MaxInt32)
		if err != nil {
			return err
		}
		return mem.WriteU32(addr, uint32(int32(n)))
	case wai.S64:
		n, err := asInt(v, math.MinInt64, math.MaxInt64)
		if err != nil {
			return err
		}
		return mem.WriteU64(addr, uint64(n))

	case wai.F32:
		f, ok := v.(float32)
		if !ok {
			return encodeErr("expected float32, got %T", v).Build()
		}
		return mem.WriteU32(addr, math.Float32bits(f))
	case wai.F64:
		f, ok := v.(float64)
		if !ok {
			return encodeErr("expected float64, got %T", v).Build()
		}
		return mem.WriteU64(addr, math.Float64bits(f))

	case wai.Char:
		r, err := asChar(v)
		if err != nil {
			return err
		}
		return mem.WriteU32(addr, uint32(r))

	case wai.String:
		ptr, n, err := e.lowerString(v, mem, alloc, list)
		if err != nil {
			return err
		}
		if err := mem.WriteU32(addr, ptr); err != nil {
			return err
		}
		return mem.WriteU32(addr+4, n)

	case wai.Unit:
		return nil

	case *wai.TypeDef:
		return e.storeTypeDef(ty, v, addr, mem, alloc, list)
	}
	return encodeErr("cannot store type %T", t).Build()
}

func (e *Encoder) storeTypeDef(td *wai.TypeDef, v any, addr uint32, mem Memory, alloc Allocator, list *AllocationList) error {
	switch kind := td.Kind.(type) {
	case *wai.Alias:
		return e.Store(kind.Type, v, addr, mem, alloc, list)

	case *wai.Record:
		fields, ok := v.(map[string]any)
		if !ok {
			return encodeErr("record %s: expected map[string]any, got %T", td.Name, v).Build()
		}
		info, err := e.calc.Calculate(td)
		if err != nil {
			return err
		}
		for _, f := range kind.Fields {
			fv, ok := fields[f.Name]
			if !ok {
				return encodeErr("record %s: missing field %q", td.Name, f.Name).Build()
			}
			if err := e.Store(f.Type, fv, addr+info.FieldOffs[f.Name], mem, alloc, list); err != nil {
				return err
			}
		}
		return nil

	case *wai.Tuple:
		elems, ok := v.([]any)
		if !ok || len(elems) != len(kind.Types) {
			return encodeErr("tuple: expected %d elements, got %T", len(kind.Types), v).Build()
		}
		offset := uint32(0)
		for i, t := range kind.Types {
			el, err := e.calc.Calculate(t)
			if err != nil {
				return err
			}
			offset = abi.AlignTo(offset, el.Align)
			if err := e.Store(t, elems[i], addr+offset, mem, alloc, list); err != nil {
				return err
			}
			offset += el.Size
		}
		return nil

	case *wai.List:
		ptr, n, err := e.lowerList(kind, v, mem, alloc, list)
		if err != nil {
			return err
		}
		if err := mem.WriteU32(addr, ptr); err != nil {
			return err
		}
		return mem.WriteU32(addr+4, n)

	case *wai.Enum:
		idx, err := enumIndex(kind, v)
		if err != nil {
			return err
		}
		return writeDisc(mem, addr, abi.DiscriminantSize(len(kind.Cases)), idx)

	case *wai.Flags:
		bits, err := flagBits(kind, v)
		if err != nil {
			return err
		}
		return writeFlags(mem, addr, len(kind.Flags), bits)

	case *wai.Variant:
		val, ok := v.(Variant)
		if !ok {
			return encodeErr("variant %s: expected transcoder.Variant, got %T", td.Name, v).Build()
		}
		idx, cs := findCase(kind, val.Case)
		if cs == nil {
			return encodeErr("variant %s: unknown case %q", td.Name, val.Case).Build()
		}
		payloads := casePayloads(kind)
		return e.storeCases(len(kind.Cases), payloads, uint32(idx), cs.Type, val.Payload, addr, mem, alloc, list)

	case *wai.Union:
		val, ok := v.(Union)
		if !ok {
			return encodeErr("union: expected transcoder.Union, got %T", v).Build()
		}
		if int(val.Case) >= len(kind.Types) {
			return encodeErr("union: case %d out of range", val.Case).Build()
		}
		return e.storeCases(len(kind.Types), kind.Types, val.Case, kind.Types[val.Case], val.Value, addr, mem, alloc, list)

	case *wai.Option:
		val, ok := v.(Option)
		if !ok {
			return encodeErr("option: expected transcoder.Option, got %T", v).Build()
		}
		payloads := []wai.Type{kind.Type}
		if !val.Some {
			return e.storeCases(2, payloads, 0, nil, nil, addr, mem, alloc, list)
		}
		return e.storeCases(2, payloads, 1, kind.Type, val.Value, addr, mem, alloc, list)

	case *wai.Expected:
		val, ok := v.(Expected)
		if !ok {
			return encodeErr("expected: expected transcoder.Expected, got %T", v).Build()
		}
		payloads := []wai.Type{kind.OK, kind.Err}
		if val.IsErr {
			return e.storeCases(2, payloads, 1, kind.Err, val.Value, addr, mem, alloc, list)
		}
		return e.storeCases(2, payloads, 0, kind.OK, val.Value, addr, mem, alloc, list)

	case *wai.Resource, *wai.Future, *wai.Stream:
		h, ok := v.(Handle)
		if !ok {
			return encodeErr("handle: expected transcoder.Handle, got %T", v).Build()
		}
		return mem.WriteU32(addr, uint32(h))
	}
	return encodeErr("cannot store typedef kind %T", td.Kind).Build()
}

func (e *Encoder) storeCases(numCases int, payloads []wai.Type, disc uint32, payloadType wai.Type, payload any, addr uint32, mem Memory, alloc Allocator, list *AllocationList) error {
	if err := writeDisc(mem, addr, abi.DiscriminantSize(numCases), disc); err != nil {
		return err
	}
	if payloadType == nil {
		return nil
	}
	if _, isUnit := payloadType.(wai.Unit); isUnit {
		return nil
	}
	offset, err := e.calc.PayloadOffset(numCases, payloads)
	if err != nil {
		return err
	}
	return e.Store(payloadType, payload, addr+offset, mem, alloc, list)
}

func writeDisc(mem Memory, addr, width, value uint32) error {
	switch width {
	case 1:
		return mem.WriteU8(addr, uint8(value))
	case 2:
		return mem.WriteU16(addr, uint16(value))
	default:
		return mem.WriteU32(addr, value)
	}
}

func writeFlags(mem Memory, addr uint32, numFlags int, bits uint64) error {
	switch {
	case numFlags == 0:
		return nil
	case numFlags <= 8:
		return mem.WriteU8(addr, uint8(bits))
	case numFlags <= 16:
		return mem.WriteU16(addr, uint16(bits))
	case numFlags <= 32:
		return mem.WriteU32(addr, uint32(bits))
	case numFlags <= 64:
		// wider sets are consecutive u32 words, low word first
		for w := uint32(0); w < uint32(flagWords(numFlags)); w++ {
			if err := mem.WriteU32(addr+4*w, uint32(bits>>(32*w))); err != nil {
				return err
			}
		}
		return nil
	}
	// flagBits rejects >64 flags before this point
	return errors.New(errors.PhaseEncode, errors.KindUnsupported).
		Detail("flags with more than 64 members").
		Build()
}

func findCase(v *wai.Variant, name string) (int, *wai.Case) {
	for i := range v.Cases {
		if v.Cases[i].Name == name {
			return i, &v.Cases[i]
		}
	}
	return 0, nil
}

func casePayloads(v *wai.Variant) []wai.Type {
	types := make([]wai.Type, len(v.Cases))
	for i, cs := range v.Cases {
		types[i] = cs.Type
	}
	return types
}

func enumIndex(e *wai.Enum, v any) (uint32, error) {
	name, ok := v.(string)
	if !ok {
		return 0, encodeErr("enum: expected case name string, got %T", v).Build()
	}
	for i, cs := range e.Cases {
		if cs.Name == name {
			return uint32(i), nil
		}
	}
	return 0, encodeErr("enum: unknown case %q", name).Build()
}

// flagWords is the number of 32-flag words a flag set occupies on the
// stack, at least one.
func flagWords(numFlags int) int {
	words := (numFlags + 31) / 32
	if words < 1 {
		words = 1
	}
	return words
}

func flagBits(f *wai.Flags, v any) (uint64, error) {
	if len(f.Flags) > 64 {
		return 0, errors.New(errors.PhaseEncode, errors.KindUnsupported).
			Detail("flags with more than 64 members").
			Build()
	}
	names, ok := v.([]string)
	if !ok {
		return 0, encodeErr("flags: expected []string, got %T", v).Build()
	}
	var bits uint64
	for _, name := range names {
		found := false
		for i, fl := range f.Flags {
			if fl.Name == name {
				bits |= 1 << uint(i)
				found = true
				break
			}
		}
		if !found {
			return 0, encodeErr("flags: unknown flag %q", name).Build()
		}
	}
	return bits, nil
}

func rootType(t wai.Type) wai.Type {
	td, ok := t.(*wai.TypeDef)
	if !ok {
		return t
	}
	root := td.Root()
	if alias, ok := root.Kind.(*wai.Alias); ok {
		return alias.Type
	}
	return root
}

func asBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, encodeErr("expected bool, got %T", v).Build()
	}
	return b, nil
}

func asChar(v any) (rune, error) {
	var r rune
	switch c := v.(type) {
	case rune:
		r = c
	case int:
		r = rune(c)
	default:
		return 0, encodeErr("expected rune, got %T", v).Build()
	}
	if r < 0 || r > 0x10FFFF || (r >= 0xD800 && r <= 0xDFFF) {
		return 0, encodeErr("U+%04X is not a Unicode scalar value", r).Build()
	}
	return r, nil
}

// asUint accepts the unsigned integer types plus int, range-checked
// against the target width.
func asUint(v any, max uint64) (uint64, error) {
	var n uint64
	switch i := v.(type) {
	case uint8:
		n = uint64(i)
	case uint16:
		n = uint64(i)
	case uint32:
		n = uint64(i)
	case uint64:
		n = i
	case uint:
		n = uint64(i)
	case int:
		if i < 0 {
			return 0, encodeErr("negative value %d for unsigned type", i).Build()
		}
		n = uint64(i)
	default:
		return 0, encodeErr("expected unsigned integer, got %T", v).Build()
	}
	if n > max {
		return 0, errors.New(errors.PhaseEncode, errors.KindOverflow).
			Detail("value %d exceeds maximum %d", n, max).
			Build()
	}
	return n, nil
}

// asInt accepts the signed integer types plus int, range-checked.
func asInt(v any, min, max int64) (int64, error) {
	var n int64
	switch i := v.(type) {
	case int8:
		n = int64(i)
	case int16:
		n = int64(i)
	case int32:
		n = int64(i)
	case int64:
		n = i
	case int:
		n = int64(i)
	default:
		return 0, encodeErr("expected signed integer, got %T", v).Build()
	}
	if n < min || n > max {
		return 0, errors.New(errors.PhaseEncode, errors.KindOverflow).
			Detail("value %d outside range [%d, %d]", n, min, max).
			Build()
	}
	return n, nil
}
