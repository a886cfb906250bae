package lexer

import (
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/unicode/rangetable"
)

// bidiControls are the directional override and isolate codepoints. They can
// make rendered source disagree with what the compiler sees, so they are
// rejected outright.
var bidiControls = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x061c, Hi: 0x061c, Stride: 1}, // arabic letter mark
		{Lo: 0x200e, Hi: 0x200f, Stride: 1}, // LRM, RLM
		{Lo: 0x202a, Hi: 0x202e, Stride: 1}, // LRE..RLO
		{Lo: 0x2066, Hi: 0x2069, Stride: 1}, // LRI..PDI
	},
	LatinOffset: 0,
}

// disallowedControls are control codes other than tab, line feed, and
// carriage return.
var disallowedControls = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0000, Hi: 0x0008, Stride: 1},
		{Lo: 0x000b, Hi: 0x000c, Stride: 1},
		{Lo: 0x000e, Hi: 0x001f, Stride: 1},
		{Lo: 0x007f, Hi: 0x009f, Stride: 1},
	},
	LatinOffset: 4,
}

// disallowed merges every codepoint class a document may not contain:
// bidirectional controls, bare control codes, and the strongly-discouraged
// noncharacters (U+FDD0..U+FDEF and the last two codepoints of every plane).
var disallowed = buildDisallowed()

func buildDisallowed() *unicode.RangeTable {
	nonchars := []rune{}
	for r := rune(0xfdd0); r <= 0xfdef; r++ {
		nonchars = append(nonchars, r)
	}
	for plane := rune(0); plane <= 0x10; plane++ {
		base := plane << 16
		nonchars = append(nonchars, base|0xfffe, base|0xffff)
	}
	return rangetable.Merge(bidiControls, disallowedControls, rangetable.New(nonchars...))
}

// isDisallowed reports whether a document may not contain r at all.
func isDisallowed(r rune) bool {
	return unicode.Is(disallowed, r)
}

// describeDisallowed names the class a rejected rune belongs to.
func describeDisallowed(r rune) string {
	switch {
	case unicode.Is(bidiControls, r):
		return "bidirectional control character"
	case unicode.Is(disallowedControls, r):
		return "control code"
	default:
		return "strongly-discouraged codepoint"
	}
}

// isIdentStart reports whether r may begin a hyphen-delimited identifier
// segment: a non-uppercase letter whose canonical combining class is zero.
func isIdentStart(r rune) bool {
	if !unicode.IsLetter(r) || unicode.IsUpper(r) || unicode.IsTitle(r) {
		return false
	}
	return norm.NFC.PropertiesString(string(r)).CCC() == 0
}

// isIdentContinue reports whether r may continue a segment.
func isIdentContinue(r rune) bool {
	if r >= '0' && r <= '9' {
		return true
	}
	return unicode.IsLetter(r) && !unicode.IsUpper(r) && !unicode.IsTitle(r)
}
