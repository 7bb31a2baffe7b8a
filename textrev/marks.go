package textrev

import "unicode"

// CombiningMarks lists the zero-width combining diacritical blocks that stay
// attached to the preceding base character during reversal.
var CombiningMarks = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0300, Hi: 0x036F, Stride: 1}, // Combining Diacritical Marks
		{Lo: 0x1DC0, Hi: 0x1DFF, Stride: 1}, // Combining Diacritical Marks Supplement
		{Lo: 0x20D0, Hi: 0x20FF, Stride: 1}, // Combining Diacritical Marks for Symbols
		{Lo: 0xFE20, Hi: 0xFE2F, Stride: 1}, // Combining Half Marks
	},
}

// IsCombiningMark reports whether r is a combining diacritical mark.
func IsCombiningMark(r rune) bool {
	return unicode.Is(CombiningMarks, r)
}
