package ingest

import (
	"strings"
	"unicode"
)

// MinPrintableRatio is the share of printable runes below which directly
// extracted text is considered garbage.
const MinPrintableRatio = 0.85

// UsableText reports whether directly extracted page text is worth keeping.
// Empty pages and pages dominated by control or private-use runes are not.
func UsableText(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	return printableRatio(text) >= MinPrintableRatio
}

func printableRatio(text string) float64 {
	total, printable := 0, 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	switch {
	case r >= 0xE000 && r <= 0xF8FF:
		return true
	case r == unicode.ReplacementChar:
		return true
	case r < 0x20 && r != '\n' && r != '\r' && r != '\t':
		return true
	}
	return false
}
