package transcoder

import (
	"math"
	"unicode/utf8"

	"github.com/tetratelabs/wazero/api"

	"github.com/wasmerio/wai"
	"github.com/wasmerio/wai/abi"
	"github.com/wasmerio/wai/errors"
)

// Decoder lifts stack slots and linear memory back into Go values.
type Decoder struct {
	calc *abi.Calculator
}

func NewDecoder() *Decoder {
	return &Decoder{calc: abi.NewCalculator()}
}

func NewDecoderWithCalculator(c *abi.Calculator) *Decoder {
	return &Decoder{calc: c}
}

func decodeErr(detail string, args ...any) *errors.Builder {
	return errors.New(errors.PhaseDecode, errors.KindInvalidData).Detail(detail, args...)
}

// DecodeParams lifts one call's parameters from its flat slots. When the
// flattened form exceeds MaxFlatParams the single slot is the pointer to a
// spilled parameter block.
func (d *Decoder) DecodeParams(paramTypes []wai.Type, flat []uint64, mem Memory) ([]any, error) {
	slots := 0
	for _, t := range paramTypes {
		slots += len(abi.FlattenType(t))
	}

	if slots > abi.MaxFlatParams {
		if len(flat) != 1 {
			return nil, decodeErr("spilled parameters need 1 pointer slot, got %d", len(flat)).Build()
		}
		return d.loadParams(paramTypes, api.DecodeU32(flat[0]), mem)
	}

	if len(flat) != slots {
		return nil, decodeErr("expected %d stack slots, got %d", slots, len(flat)).Build()
	}
	out := make([]any, 0, len(paramTypes))
	pos := 0
	for _, t := range paramTypes {
		v, err := d.liftFromStack(t, flat, &pos, mem)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *Decoder) loadParams(paramTypes []wai.Type, ptr uint32, mem Memory) ([]any, error) {
	out := make([]any, 0, len(paramTypes))
	offset := uint32(0)
	for _, t := range paramTypes {
		info, err := d.calc.Calculate(t)
		if err != nil {
			return nil, err
		}
		offset = abi.AlignTo(offset, info.Align)
		v, err := d.Load(t, ptr+offset, mem)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		offset += info.Size
	}
	return out, nil
}

// DecodeResult lifts a function result. A result too wide for the flat
// limit arrives behind a return pointer in the single slot.
func (d *Decoder) DecodeResult(t wai.Type, flat []uint64, mem Memory) (any, error) {
	if t == nil {
		return nil, nil
	}
	slots := len(abi.FlattenType(t))
	if slots > abi.MaxFlatResults {
		if len(flat) != 1 {
			return nil, decodeErr("indirect result needs 1 pointer slot, got %d", len(flat)).Build()
		}
		return d.Load(t, api.DecodeU32(flat[0]), mem)
	}
	if len(flat) != slots {
		return nil, decodeErr("expected %d result slots, got %d", slots, len(flat)).Build()
	}
	pos := 0
	return d.liftFromStack(t, flat, &pos, mem)
}

func (d *Decoder) liftFromStack(t wai.Type, flat []uint64, pos *int, mem Memory) (any, error) {
	take := func() (uint64, error) {
		if *pos >= len(flat) {
			return 0, decodeErr("stack underflow at slot %d", *pos).Build()
		}
		v := flat[*pos]
		*pos++
		return v, nil
	}

	switch ty := t.(type) {
	case wai.Bool:
		v, err := take()
		if err != nil {
			return nil, err
		}
		return v != 0, nil
	case wai.U8:
		v, err := take()
		if err != nil {
			return nil, err
		}
		return uint8(api.DecodeU32(v)), nil
	case wai.U16:
		v, err := take()
		if err != nil {
			return nil, err
		}
		return uint16(api.DecodeU32(v)), nil
	case wai.U32:
		v, err := take()
		if err != nil {
			return nil, err
		}
		return api.DecodeU32(v), nil
	case wai.U64:
		return take()
	case wai.S8:
		v, err := take()
		if err != nil {
			return nil, err
		}
		return int8(api.DecodeI32(v)), nil
	case wai.S16:
		v, err := take()
		if err != nil {
			return nil, err
		}
		return int16(api.DecodeI32(v)), nil
	case wai.S32:
		v, err := take()
		if err != nil {
			return nil, err
		}
		return api.DecodeI32(v), nil
	case wai.S64:
		v, err := take()
		if err != nil {
			return nil, err
		}
		return int64(v), nil
	case wai.F32:
		v, err := take()
		if err != nil {
			return nil, err
		}
		return api.DecodeF32(v), nil
	case wai.F64:
		v, err := take()
		if err != nil {
			return nil, err
		}
		return api.DecodeF64(v), nil
	case wai.Char:
		v, err := take()
		if err != nil {
			return nil, err
		}
		return liftChar(api.DecodeU32(v))
	case wai.String:
		p, err := take()
		if err != nil {
			return nil, err
		}
		n, err := take()
		if err != nil {
			return nil, err
		}
		return d.liftString(api.DecodeU32(p), api.DecodeU32(n), mem)
	case wai.Unit:
		return nil, nil
	case *wai.TypeDef:
		return d.liftTypeDefFromStack(ty, flat, pos, mem)
	}
	return nil, decodeErr("cannot lift type %T", t).Build()
}

func (d *Decoder) liftTypeDefFromStack(td *wai.TypeDef, flat []uint64, pos *int, mem Memory) (any, error) {
	switch kind := td.Kind.(type) {
	case *wai.Alias:
		return d.liftFromStack(kind.Type, flat, pos, mem)

	case *wai.Record:
		out := make(map[string]any, len(kind.Fields))
		for _, f := range kind.Fields {
			v, err := d.liftFromStack(f.Type, flat, pos, mem)
			if err != nil {
				return nil, err
			}
			out[f.Name] = v
		}
		return out, nil

	case *wai.Tuple:
		out := make([]any, 0, len(kind.Types))
		for _, t := range kind.Types {
			v, err := d.liftFromStack(t, flat, pos, mem)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case *wai.List:
		p, n, err := takePair(flat, pos)
		if err != nil {
			return nil, err
		}
		return d.liftList(kind, p, n, mem)

	case *wai.Enum:
		v, err := takeOne(flat, pos)
		if err != nil {
			return nil, err
		}
		return enumName(kind, api.DecodeU32(v))

	case *wai.Flags:
		var bits uint64
		for w := 0; w < flagWords(len(kind.Flags)); w++ {
			v, err := takeOne(flat, pos)
			if err != nil {
				return nil, err
			}
			bits |= uint64(api.DecodeU32(v)) << (32 * w)
		}
		return flagNames(kind, bits)

	case *wai.Variant:
		return d.liftCasesFromStack(td, flat, pos, mem, func(disc uint32) (wai.Type, func(any) any, error) {
			if int(disc) >= len(kind.Cases) {
				return nil, nil, decodeErr("variant %s: discriminant %d out of range", td.Name, disc).Build()
			}
			cs := kind.Cases[disc]
			return cs.Type, func(p any) any { return Variant{Case: cs.Name, Payload: p} }, nil
		})

	case *wai.Union:
		return d.liftCasesFromStack(td, flat, pos, mem, func(disc uint32) (wai.Type, func(any) any, error) {
			if int(disc) >= len(kind.Types) {
				return nil, nil, decodeErr("union: discriminant %d out of range", disc).Build()
			}
			return kind.Types[disc], func(p any) any { return Union{Case: disc, Value: p} }, nil
		})

	case *wai.Option:
		return d.liftCasesFromStack(td, flat, pos, mem, func(disc uint32) (wai.Type, func(any) any, error) {
			switch disc {
			case 0:
				return nil, func(any) any { return Option{} }, nil
			case 1:
				return kind.Type, func(p any) any { return Option{Some: true, Value: p} }, nil
			}
			return nil, nil, decodeErr("option: discriminant %d out of range", disc).Build()
		})

	case *wai.Expected:
		return d.liftCasesFromStack(td, flat, pos, mem, func(disc uint32) (wai.Type, func(any) any, error) {
			switch disc {
			case 0:
				return kind.OK, func(p any) any { return Expected{Value: p} }, nil
			case 1:
				return kind.Err, func(p any) any { return Expected{IsErr: true, Value: p} }, nil
			}
			return nil, nil, decodeErr("expected: discriminant %d out of range", disc).Build()
		})

	case *wai.Resource, *wai.Future, *wai.Stream:
		v, err := takeOne(flat, pos)
		if err != nil {
			return nil, err
		}
		return Handle(api.DecodeU32(v)), nil
	}
	return nil, decodeErr("cannot lift typedef kind %T", td.Kind).Build()
}

// liftCasesFromStack lifts one discriminated value and advances past the
// joined payload width regardless of which case was selected.
func (d *Decoder) liftCasesFromStack(td *wai.TypeDef, flat []uint64, pos *int, mem Memory, pick func(uint32) (wai.Type, func(any) any, error)) (any, error) {
	total := len(abi.FlattenType(td))
	start := *pos

	v, err := takeOne(flat, pos)
	if err != nil {
		return nil, err
	}
	payloadType, wrap, err := pick(api.DecodeU32(v))
	if err != nil {
		return nil, err
	}

	var payload any
	if payloadType != nil {
		if _, isUnit := payloadType.(wai.Unit); !isUnit {
			payload, err = d.liftFromStack(payloadType, flat, pos, mem)
			if err != nil {
				return nil, err
			}
		}
	}

	if start+total > len(flat) {
		return nil, decodeErr("stack underflow lifting %s", td.Name).Build()
	}
	*pos = start + total
	return wrap(payload), nil
}

func takeOne(flat []uint64, pos *int) (uint64, error) {
	if *pos >= len(flat) {
		return 0, decodeErr("stack underflow at slot %d", *pos).Build()
	}
	v := flat[*pos]
	*pos++
	return v, nil
}

func takePair(flat []uint64, pos *int) (uint32, uint32, error) {
	a, err := takeOne(flat, pos)
	if err != nil {
		return 0, 0, err
	}
	b, err := takeOne(flat, pos)
	if err != nil {
		return 0, 0, err
	}
	return api.DecodeU32(a), api.DecodeU32(b), nil
}

// Load reads one value from linear memory at addr using its canonical
// layout.
func (d *Decoder) Load(t wai.Type, addr uint32, mem Memory) (any, error) {
	switch ty := t.(type) {
	case wai.Bool:
		v, err := mem.ReadU8(addr)
		if err != nil {
			return nil, err
		}
		return v != 0, nil
	case wai.U8:
		return mem.ReadU8(addr)
	case wai.U16:
		return mem.ReadU16(addr)
	case wai.U32:
		return mem.ReadU32(addr)
	case wai.U64:
		return mem.ReadU64(addr)
	case wai.S8:
		v, err := mem.ReadU8(addr)
		if err != nil {
			return nil, err
		}
		return int8(v), nil
	case wai.S16:
		v, err := mem.ReadU16(addr)
		if err != nil {
			return nil, err
		}
		return int16(v), nil
	case wai.S32:
		v, err := mem.ReadU32(addr)
		if err != nil {
			return nil, err
		}
		return int32(v), nil
	case wai.S64:
		v, err := mem.ReadU64(addr)
		if err != nil {
			return nil, err
		}
		return int64(v), nil
	case wai.F32:
		v, err := mem.ReadU32(addr)
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(v), nil
	case wai.F64:
		v, err := mem.ReadU64(addr)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(v), nil
	case wai.Char:
		v, err := mem.ReadU32(addr)
		if err != nil {
			return nil, err
		}
		return liftChar(v)
	case wai.String:
		p, err := mem.ReadU32(addr)
		if err != nil {
			return nil, err
		}
		n, err := mem.ReadU32(addr + 4)
		if err != nil {
			return nil, err
		}
		return d.liftString(p, n, mem)
	case wai.Unit:
		return nil, nil
	case *wai.TypeDef:
		return d.loadTypeDef(ty, addr, mem)
	}
	return nil, decodeErr("cannot load type %T", t).Build()
}

func (d *Decoder) loadTypeDef(td *wai.TypeDef, addr uint32, mem Memory) (any, error) {
	switch kind := td.Kind.(type) {
	case *wai.Alias:
		return d.Load(kind.Type, addr, mem)

	case *wai.Record:
		info, err := d.calc.Calculate(td)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(kind.Fields))
		for _, f := range kind.Fields {
			v, err := d.Load(f.Type, addr+info.FieldOffs[f.Name], mem)
			if err != nil {
				return nil, err
			}
			out[f.Name] = v
		}
		return out, nil

	case *wai.Tuple:
		out := make([]any, 0, len(kind.Types))
		offset := uint32(0)
		for _, t := range kind.Types {
			el, err := d.calc.Calculate(t)
			if err != nil {
				return nil, err
			}
			offset = abi.AlignTo(offset, el.Align)
			v, err := d.Load(t, addr+offset, mem)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
			offset += el.Size
		}
		return out, nil

	case *wai.List:
		p, err := mem.ReadU32(addr)
		if err != nil {
			return nil, err
		}
		n, err := mem.ReadU32(addr + 4)
		if err != nil {
			return nil, err
		}
		return d.liftList(kind, p, n, mem)

	case *wai.Enum:
		disc, err := readDisc(mem, addr, abi.DiscriminantSize(len(kind.Cases)))
		if err != nil {
			return nil, err
		}
		return enumName(kind, disc)

	case *wai.Flags:
		bits, err := readFlags(mem, addr, len(kind.Flags))
		if err != nil {
			return nil, err
		}
		return flagNames(kind, bits)

	case *wai.Variant:
		payloads := casePayloads(kind)
		return d.loadCases(len(kind.Cases), payloads, addr, mem, func(disc uint32) (wai.Type, func(any) any, error) {
			if int(disc) >= len(kind.Cases) {
				return nil, nil, decodeErr("variant %s: discriminant %d out of range", td.Name, disc).Build()
			}
			cs := kind.Cases[disc]
			return cs.Type, func(p any) any { return Variant{Case: cs.Name, Payload: p} }, nil
		})

	case *wai.Union:
		return d.loadCases(len(kind.Types), kind.Types, addr, mem, func(disc uint32) (wai.Type, func(any) any, error) {
			if int(disc) >= len(kind.Types) {
				return nil, nil, decodeErr("union: discriminant %d out of range", disc).Build()
			}
			return kind.Types[disc], func(p any) any { return Union{Case: disc, Value: p} }, nil
		})

	case *wai.Option:
		return d.loadCases(2, []wai.Type{kind.Type}, addr, mem, func(disc uint32) (wai.Type, func(any) any, error) {
			switch disc {
			case 0:
				return nil, func(any) any { return Option{} }, nil
			case 1:
				return kind.Type, func(p any) any { return Option{Some: true, Value: p} }, nil
			}
			return nil, nil, decodeErr("option: discriminant %d out of range", disc).Build()
		})

	case *wai.Expected:
		return d.loadCases(2, []wai.Type{kind.OK, kind.Err}, addr, mem, func(disc uint32) (wai.Type, func(any) any, error) {
			switch disc {
			case 0:
				return kind.OK, func(p any) any { return Expected{Value: p} }, nil
			case 1:
				return kind.Err, func(p any) any { return Expected{IsErr: true, Value: p} }, nil
			}
			return nil, nil, decodeErr("expected: discriminant %d out of range", disc).Build()
		})

	case *wai.Resource, *wai.Future, *wai.Stream:
		v, err := mem.ReadU32(addr)
		if err != nil {
			return nil, err
		}
		return Handle(v), nil
	}
	return nil, decodeErr("cannot load typedef kind %T", td.Kind).Build()
}

func (d *Decoder) loadCases(numCases int, payloads []wai.Type, addr uint32, mem Memory, pick func(uint32) (wai.Type, func(any) any, error)) (any, error) {
	disc, err := readDisc(mem, addr, abi.DiscriminantSize(numCases))
	if err != nil {
		return nil, err
	}
	payloadType, wrap, err := pick(disc)
	if err != nil {
		return nil, err
	}

	var payload any
	if payloadType != nil {
		if _, isUnit := payloadType.(wai.Unit); !isUnit {
			offset, err := d.calc.PayloadOffset(numCases, payloads)
			if err != nil {
				return nil, err
			}
			payload, err = d.Load(payloadType, addr+offset, mem)
			if err != nil {
				return nil, err
			}
		}
	}
	return wrap(payload), nil
}

func (d *Decoder) liftString(ptr, length uint32, mem Memory) (string, error) {
	if length == 0 {
		return "", nil
	}
	if length > MaxStringSize {
		return "", errors.New(errors.PhaseDecode, errors.KindOverflow).
			Detail("string of %d bytes exceeds limit", length).
			Build()
	}
	b, err := mem.Read(ptr, length)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", decodeErr("string at %d is not valid UTF-8", ptr).Build()
	}
	return string(b), nil
}

func (d *Decoder) liftList(kind *wai.List, ptr, length uint32, mem Memory) (any, error) {
	if length > MaxListLength {
		return nil, errors.New(errors.PhaseDecode, errors.KindOverflow).
			Detail("list of %d elements exceeds limit", length).
			Build()
	}

	if _, isU8 := rootType(kind.Type).(wai.U8); isU8 {
		if length == 0 {
			return []byte{}, nil
		}
		return mem.Read(ptr, length)
	}

	out := make([]any, 0, length)
	if length == 0 {
		return out, nil
	}
	el, err := d.calc.Calculate(kind.Type)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < length; i++ {
		v, err := d.Load(kind.Type, ptr+i*el.Size, mem)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func readDisc(mem Memory, addr, width uint32) (uint32, error) {
	switch width {
	case 1:
		v, err := mem.ReadU8(addr)
		return uint32(v), err
	case 2:
		v, err := mem.ReadU16(addr)
		return uint32(v), err
	default:
		return mem.ReadU32(addr)
	}
}

func readFlags(mem Memory, addr uint32, numFlags int) (uint64, error) {
	switch {
	case numFlags == 0:
		return 0, nil
	case numFlags <= 8:
		v, err := mem.ReadU8(addr)
		return uint64(v), err
	case numFlags <= 16:
		v, err := mem.ReadU16(addr)
		return uint64(v), err
	case numFlags <= 32:
		v, err := mem.ReadU32(addr)
		return uint64(v), err
	case numFlags <= 64:
		var bits uint64
		for w := uint32(0); w < uint32(flagWords(numFlags)); w++ {
			v, err := mem.ReadU32(addr + 4*w)
			if err != nil {
				return 0, err
			}
			bits |= uint64(v) << (32 * w)
		}
		return bits, nil
	}
	return 0, errors.New(errors.PhaseDecode, errors.KindUnsupported).
		Detail("flags with more than 64 members").
		Build()
}

func enumName(e *wai.Enum, disc uint32) (string, error) {
	if int(disc) >= len(e.Cases) {
		return "", decodeErr("enum: discriminant %d out of range", disc).Build()
	}
	return e.Cases[disc].Name, nil
}

func flagNames(f *wai.Flags, bits uint64) ([]string, error) {
	if len(f.Flags) > 64 {
		return nil, errors.New(errors.PhaseDecode, errors.KindUnsupported).
			Detail("flags with more than 64 members").
			Build()
	}
	if len(f.Flags) < 64 && bits>>uint(len(f.Flags)) != 0 {
		return nil, decodeErr("flags: unknown bits set in %#x", bits).Build()
	}
	var names []string
	for i, fl := range f.Flags {
		if bits&(1<<uint(i)) != 0 {
			names = append(names, fl.Name)
		}
	}
	return names, nil
}

func liftChar(v uint32) (rune, error) {
	r := rune(v)
	if v > 0x10FFFF || (r >= 0xD800 && r <= 0xDFFF) {
		return 0, decodeErr("U+%04X is not a Unicode scalar value", v).Build()
	}
	return r, nil
}
