// Package legacy reads the older GOLD-family "enhanced grammar tables"
// binary format (§6): a read-only importer that maps a legacy grammar
// file's symbol/rule/group/DFA/LALR tables onto the current grammar and
// compiler types, so a grammar authored for that format can be loaded and
// run without re-deriving it from source.
//
// The on-disk shape mirrors the GOLD format's own record model (a magic
// header followed by a stream of tagged records, each a sequence of typed
// entries) but is this package's own concrete encoding: no byte-exact GOLD
// .egt/.cgt fixture was available to match against, so field widths and
// string encoding were chosen for a clean Go reader rather than wire
// compatibility with Devin Cook's original tool (see DESIGN.md).
package legacy

import (
	"encoding/binary"
	"fmt"
)

// magic identifies a legacy grammar table file, the same role GOLD's own
// "GOLD Parser Tables/vX.X" header string plays.
var magic = [8]byte{'F', 'K', 'L', 'E', 'L', 'E', 'G', '\x00'}

// entry type tags, one byte each, matching GOLD's own E/b/B/I/S entry
// kinds (empty, byte, boolean, UInt16, string) used throughout every
// record table.
const (
	entryEmpty  byte = 'E'
	entryByte   byte = 'b'
	entryBool   byte = 'B'
	entryUInt16 byte = 'I'
	entryString byte = 'S'
)

// record type tags, one per legacy table.
const (
	recParameters byte = 'p'
	recCounts     byte = 't'
	recSymbol     byte = 'S'
	recCharSet    byte = 'h'
	recRule       byte = 'r'
	recGroup      byte = 'g'
	recDFAState   byte = 'd'
	recLALRState  byte = 'l'
	recInitial    byte = 'i'
)

// symKind enumerates the legacy symbol kinds (§6), in the exact order the
// format table assigns them.
type symKind byte

const (
	symNonterminal symKind = iota
	symTerminal
	symNoise
	symEndOfInput
	symGroupStart
	symGroupEnd
	symError
)

// entry is one decoded field of a record.
type entry struct {
	tag byte
	b   byte
	s   string
	u   uint16
}

// reader walks the flat entry stream of a legacy file one record at a
// time.
type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader { return &reader{data: data} }

func (r *reader) byte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("legacy: unexpected end of file at offset %d", r.pos)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) uint16() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, fmt.Errorf("legacy: truncated uint16 at offset %d", r.pos)
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) string() (string, error) {
	start := r.pos
	for {
		if r.pos >= len(r.data) {
			return "", fmt.Errorf("legacy: unterminated string at offset %d", start)
		}
		if r.data[r.pos] == 0 {
			s := string(r.data[start:r.pos])
			r.pos++
			return s, nil
		}
		r.pos++
	}
}

func (r *reader) entry() (entry, error) {
	tag, err := r.byte()
	if err != nil {
		return entry{}, err
	}
	e := entry{tag: tag}
	switch tag {
	case entryEmpty:
	case entryByte, entryBool:
		b, err := r.byte()
		if err != nil {
			return entry{}, err
		}
		e.b = b
	case entryUInt16:
		u, err := r.uint16()
		if err != nil {
			return entry{}, err
		}
		e.u = u
	case entryString:
		s, err := r.string()
		if err != nil {
			return entry{}, err
		}
		e.s = s
	default:
		return entry{}, fmt.Errorf("legacy: unknown entry tag %q at offset %d", tag, r.pos-1)
	}
	return e, nil
}

// record is one decoded table row: its type tag and every entry in it.
type record struct {
	tag     byte
	entries []entry
}

func (r *reader) record() (record, bool, error) {
	if r.pos >= len(r.data) {
		return record{}, false, nil
	}
	tag, err := r.byte()
	if err != nil {
		return record{}, false, err
	}
	count, err := r.uint16()
	if err != nil {
		return record{}, false, err
	}
	rec := record{tag: tag, entries: make([]entry, count)}
	for i := 0; i < int(count); i++ {
		e, err := r.entry()
		if err != nil {
			return record{}, false, err
		}
		rec.entries[i] = e
	}
	return rec, true, nil
}

func (rec record) uint16At(i int) uint16 {
	if i >= len(rec.entries) {
		return 0
	}
	return rec.entries[i].u
}

func (rec record) stringAt(i int) string {
	if i >= len(rec.entries) {
		return ""
	}
	return rec.entries[i].s
}

func (rec record) boolAt(i int) bool {
	if i >= len(rec.entries) {
		return false
	}
	return rec.entries[i].b != 0
}

func (rec record) byteAt(i int) byte {
	if i >= len(rec.entries) {
		return 0
	}
	return rec.entries[i].b
}
