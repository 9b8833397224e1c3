// Package document holds versioned open-buffer state: source text, its
// line-start table, and the parsed CST, with UTF-16 offset conversion
// for LSP position interop.
package document

import (
	"unicode/utf16"

	"github.com/metal-analyzer/metal-analyzer/internal/syntax"
)

// Position is an LSP-style 0-based line/character position, where
// character is a UTF-16 code-unit count.
type Position struct {
	Line      int
	Character int
}

// Document is one open buffer. LineOffsets is always the byte offset of
// every line start, rebuilt atomically whenever Text changes.
type Document struct {
	URI         string
	Text        string
	Version     int
	LineOffsets []uint32
	Tree        *syntax.Tree
}

// New builds a Document from initial content, computing line offsets
// and parsing the CST.
func New(uri, text string, version int) *Document {
	d := &Document{URI: uri, Version: version}
	d.setText(text)
	return d
}

// Replace performs a full-text replacement, rebuilding line offsets and
// the CST from scratch (the owning store decides when incremental
// range-based updates are worth attempting; this type always has a
// consistent whole-document tree after Replace returns).
func (d *Document) Replace(text string, version int) {
	d.Version = version
	d.setText(text)
}

// ApplyRangeChange applies a single incremental edit (start/end byte
// offsets into the pre-edit text, replaced by newText), then reparses.
// Offsets must already be converted from UTF-16 positions.
func (d *Document) ApplyRangeChange(startByte, endByte uint32, newText string, version int) {
	if int(startByte) > len(d.Text) || int(endByte) > len(d.Text) || startByte > endByte {
		// Malformed edit: fall back to treating newText as a full replace
		// rather than corrupting the buffer.
		d.Replace(newText, version)
		return
	}
	next := d.Text[:startByte] + newText + d.Text[endByte:]
	d.Version = version
	d.setText(next)
}

func (d *Document) setText(text string) {
	d.Text = text
	d.LineOffsets = computeLineOffsets(text)
	d.Tree = syntax.Parse([]byte(text))
}

func computeLineOffsets(text string) []uint32 {
	offsets := []uint32{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			offsets = append(offsets, uint32(i+1))
		}
	}
	return offsets
}

// LineCount returns the number of lines in the document.
func (d *Document) LineCount() int { return len(d.LineOffsets) }

// LineLengthUTF16 returns the UTF-16 code-unit length of a line
// (excluding its terminating newline).
func (d *Document) LineLengthUTF16(line int) int {
	if line < 0 || line >= len(d.LineOffsets) {
		return 0
	}
	start := d.LineOffsets[line]
	end := uint32(len(d.Text))
	if line+1 < len(d.LineOffsets) {
		end = d.LineOffsets[line+1]
		// Trim the newline itself.
		if end > start && d.Text[end-1] == '\n' {
			end--
		}
	}
	return utf16Len(d.Text[start:end])
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += len(utf16.Encode([]rune{r}))
	}
	return n
}

// OffsetOf converts a UTF-16 Position to a byte offset into Text.
// position.Character is interpreted as a UTF-16 code-unit count from
// the start of the line.
func (d *Document) OffsetOf(pos Position) uint32 {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(d.LineOffsets) {
		return uint32(len(d.Text))
	}
	lineStart := d.LineOffsets[pos.Line]
	lineEnd := uint32(len(d.Text))
	if pos.Line+1 < len(d.LineOffsets) {
		lineEnd = d.LineOffsets[pos.Line+1]
	}
	line := d.Text[lineStart:lineEnd]

	units := 0
	byteOff := 0
	for _, r := range line {
		if units >= pos.Character {
			break
		}
		byteOff += runeByteLen(r)
		units += len(utf16.Encode([]rune{r}))
	}
	return lineStart + uint32(byteOff)
}

// PositionOf converts a byte offset into Text to a UTF-16 Position.
func (d *Document) PositionOf(offset uint32) Position {
	if offset > uint32(len(d.Text)) {
		offset = uint32(len(d.Text))
	}
	line := 0
	for line+1 < len(d.LineOffsets) && d.LineOffsets[line+1] <= offset {
		line++
	}
	lineStart := d.LineOffsets[line]
	units := utf16Len(d.Text[lineStart:offset])
	return Position{Line: line, Character: units}
}

func runeByteLen(r rune) int {
	switch {
	case r < 0x80:
		return 1
	case r < 0x800:
		return 2
	case r < 0x10000:
		return 3
	default:
		return 4
	}
}
