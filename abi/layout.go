package abi

import (
	"github.com/wasmerio/wai"
	"github.com/wasmerio/wai/errors"
)

// Info is the memory layout of one type. FieldOffs is populated for
// records only.
type Info struct {
	Size      uint32
	Align     uint32
	FieldOffs map[string]uint32
}

// Calculator computes and memoizes type layouts. Typedefs are cached by
// identity, so one calculator should be reused across a whole interface.
// A Calculator is not safe for concurrent use.
type Calculator struct {
	cache map[*wai.TypeDef]Info
}

// NewCalculator creates an empty calculator.
func NewCalculator() *Calculator {
	return &Calculator{
		cache: make(map[*wai.TypeDef]Info),
	}
}

// Calculate returns the layout of a resolved type.
func (c *Calculator) Calculate(t wai.Type) (Info, error) {
	switch t.(type) {
	case wai.Bool, wai.U8, wai.S8:
		return Info{Size: 1, Align: 1}, nil
	case wai.U16, wai.S16:
		return Info{Size: 2, Align: 2}, nil
	case wai.U32, wai.S32, wai.F32, wai.Char:
		return Info{Size: 4, Align: 4}, nil
	case wai.U64, wai.S64, wai.F64:
		return Info{Size: 8, Align: 8}, nil
	case wai.String:
		return Info{Size: 8, Align: 4}, nil // [ptr: u32, len: u32]
	case wai.Unit:
		return Info{Size: 0, Align: 1}, nil
	case *wai.TypeDef:
		return c.calculateTypeDef(t.(*wai.TypeDef))
	default:
		return Info{}, errors.Internal("no layout for type %T", t)
	}
}

func (c *Calculator) calculateTypeDef(t *wai.TypeDef) (Info, error) {
	if cached, ok := c.cache[t]; ok {
		return cached, nil
	}

	var info Info
	var err error

	switch kind := t.Kind.(type) {
	case *wai.Alias:
		info, err = c.Calculate(kind.Type)
	case *wai.Record:
		info, err = c.calculateRecord(kind)
	case *wai.Tuple:
		info, err = c.calculateSequence(kind.Types)
	case *wai.Flags:
		info = calculateFlags(kind)
	case *wai.Variant:
		info, err = c.calculateCases(len(kind.Cases), variantPayloads(kind))
	case *wai.Enum:
		size := DiscriminantSize(len(kind.Cases))
		info = Info{Size: size, Align: size}
	case *wai.Union:
		info, err = c.calculateCases(len(kind.Types), kind.Types)
	case *wai.Option:
		info, err = c.calculateCases(2, []wai.Type{kind.Type})
	case *wai.Expected:
		info, err = c.calculateCases(2, []wai.Type{kind.OK, kind.Err})
	case *wai.List:
		info = Info{Size: 8, Align: 4}
	case *wai.Resource, *wai.Future, *wai.Stream:
		// opaque i32 handle
		info = Info{Size: 4, Align: 4}
	default:
		err = errors.Internal("no layout for typedef kind %T", t.Kind)
	}
	if err != nil {
		return Info{}, err
	}

	c.cache[t] = info
	return info, nil
}

func (c *Calculator) calculateRecord(r *wai.Record) (Info, error) {
	if len(r.Fields) == 0 {
		return Info{Size: 0, Align: 1}, nil
	}

	fieldOffs := make(map[string]uint32, len(r.Fields))
	maxAlign := uint32(1)
	offset := uint32(0)

	for _, field := range r.Fields {
		fl, err := c.Calculate(field.Type)
		if err != nil {
			return Info{}, err
		}

		offset = AlignTo(offset, fl.Align)
		fieldOffs[field.Name] = offset

		if fl.Align > maxAlign {
			maxAlign = fl.Align
		}
		offset += fl.Size
	}

	return Info{
		Size:      AlignTo(offset, maxAlign),
		Align:     maxAlign,
		FieldOffs: fieldOffs,
	}, nil
}

func (c *Calculator) calculateSequence(types []wai.Type) (Info, error) {
	if len(types) == 0 {
		return Info{Size: 0, Align: 1}, nil
	}

	maxAlign := uint32(1)
	offset := uint32(0)

	for _, t := range types {
		el, err := c.Calculate(t)
		if err != nil {
			return Info{}, err
		}
		offset = AlignTo(offset, el.Align)
		if el.Align > maxAlign {
			maxAlign = el.Align
		}
		offset += el.Size
	}

	return Info{
		Size:  AlignTo(offset, maxAlign),
		Align: maxAlign,
	}, nil
}

// calculateCases lays out a discriminated type: the smallest discriminant
// for numCases, then the largest payload at its alignment. Payload entries
// may be nil for payload-less cases.
func (c *Calculator) calculateCases(numCases int, payloads []wai.Type) (Info, error) {
	if numCases == 0 {
		return Info{Size: 0, Align: 1}, nil
	}

	discSize := DiscriminantSize(numCases)
	maxAlign := discSize
	maxSize := uint32(0)

	for _, p := range payloads {
		if p == nil {
			continue
		}
		if _, isUnit := p.(wai.Unit); isUnit {
			continue
		}
		pl, err := c.Calculate(p)
		if err != nil {
			return Info{}, err
		}
		if pl.Align > maxAlign {
			maxAlign = pl.Align
		}
		if pl.Size > maxSize {
			maxSize = pl.Size
		}
	}

	payloadOffset := AlignTo(discSize, maxAlign)
	return Info{
		Size:  AlignTo(payloadOffset+maxSize, maxAlign),
		Align: maxAlign,
	}, nil
}

// PayloadOffset returns the offset of the payload slot in a discriminated
// type with the given case payloads.
func (c *Calculator) PayloadOffset(numCases int, payloads []wai.Type) (uint32, error) {
	discSize := DiscriminantSize(numCases)
	maxAlign := discSize
	for _, p := range payloads {
		if p == nil {
			continue
		}
		pl, err := c.Calculate(p)
		if err != nil {
			return 0, err
		}
		if pl.Align > maxAlign {
			maxAlign = pl.Align
		}
	}
	return AlignTo(discSize, maxAlign), nil
}

func calculateFlags(f *wai.Flags) Info {
	n := len(f.Flags)
	switch {
	case n == 0:
		return Info{Size: 0, Align: 1}
	case n <= 8:
		return Info{Size: 1, Align: 1}
	case n <= 16:
		return Info{Size: 2, Align: 2}
	case n <= 32:
		return Info{Size: 4, Align: 4}
	}
	// more than 32 flags pack into consecutive u32s
	numU32s := uint32((n + 31) / 32)
	return Info{Size: numU32s * 4, Align: 4}
}

func variantPayloads(v *wai.Variant) []wai.Type {
	types := make([]wai.Type, len(v.Cases))
	for i, cs := range v.Cases {
		types[i] = cs.Type
	}
	return types
}
