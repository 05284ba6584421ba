package asm

import "strings"

// ----------------------------------------------------------------------------
// Lexer / cleaner

// This section strips comments and whitespace from the raw Assembler source,
// the trivial preprocessing step that sits in front of the parser combinators
// in parsing.go. Line numbers of the *raw* input are preserved so syntax
// errors can point back at the exact offending source line, even though
// blank lines and whole-comment lines never reach the parser.

// CleanedLine is one non-empty, comment-and-whitespace-stripped instruction,
// tagged with its 1-based line number in the original source.
type CleanedLine struct {
	Text   string
	LineNo int
}

// Clean strips `//` line comments and all whitespace from each raw line,
// dropping any line that becomes empty, and returns the surviving
// instructions in source order together with their original line numbers.
func Clean(rawLines []string) []CleanedLine {
	cleaned := make([]CleanedLine, 0, len(rawLines))

	for i, raw := range rawLines {
		line := raw
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		line = stripSpaces(line)

		if line == "" {
			continue
		}
		cleaned = append(cleaned, CleanedLine{Text: line, LineNo: i + 1})
	}

	return cleaned
}

// stripSpaces removes every whitespace character from s. Assembler
// instructions carry no internal spaces once comments are removed.
func stripSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
