// Package artifact persists a compiled grammar (symbol graph, DFA, and
// LALR table) to a single binary blob and reads it back (§4.6). The
// container is a small fixed header — written with raw encoding/binary,
// since a reader must be able to parse it before it knows enough to hand
// the rest off to a codec — followed by one `rezi`-encoded payload holding
// every logical stream (string/blob data, table rows, DFA states, LR
// states) as ordinary Go struct fields. Semantic callbacks
// (grammar.TransformFunc / grammar.FuseFunc) are never part of the
// artifact: they are Go closures, not data, and are re-attached by handle
// when an artifact is loaded back into a live Grammar (see Callbacks in
// decode.go).
package artifact

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// magic identifies a Farkle grammar artifact: exactly the four bytes "FKLE",
// mirroring the fixed magic every container format (ELF, PNG, the legacy
// GOLD .egt/.cgt formats this repo also reads) leads with. The format
// version is carried separately in the header.
var magic = [4]byte{'F', 'K', 'L', 'E'}

// FormatVersion is the container layout version. Bumped whenever the
// payload schema changes in a way older readers can't ignore.
const FormatVersion uint16 = 1

// header is the fixed-width preamble read before the rezi payload.
type header struct {
	Magic      [4]byte
	Version    uint16
	PayloadLen uint32
	GrammarID  [16]byte // uuid.UUID bytes
	Checksum   [32]byte // blake2b-256 of the payload
}

const headerSize = 4 + 2 + 4 + 16 + 32

func writeHeader(buf *bytes.Buffer, h header) error {
	if _, err := buf.Write(h.Magic[:]); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, h.Version); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, h.PayloadLen); err != nil {
		return err
	}
	if _, err := buf.Write(h.GrammarID[:]); err != nil {
		return err
	}
	if _, err := buf.Write(h.Checksum[:]); err != nil {
		return err
	}
	return nil
}

func readHeader(data []byte) (header, []byte, error) {
	if len(data) < headerSize {
		return header{}, nil, fmt.Errorf("artifact: truncated header: need %d bytes, have %d", headerSize, len(data))
	}
	var h header
	copy(h.Magic[:], data[0:4])
	if h.Magic != magic {
		return header{}, nil, fmt.Errorf("artifact: bad magic %q", h.Magic)
	}
	h.Version = binary.BigEndian.Uint16(data[4:6])
	h.PayloadLen = binary.BigEndian.Uint32(data[6:10])
	copy(h.GrammarID[:], data[10:26])
	copy(h.Checksum[:], data[26:58])
	rest := data[headerSize:]
	if uint32(len(rest)) < h.PayloadLen {
		return header{}, nil, fmt.Errorf("artifact: truncated payload: need %d bytes, have %d", h.PayloadLen, len(rest))
	}
	return h, rest[:h.PayloadLen], nil
}

func checksum(payload []byte) [32]byte {
	return blake2b.Sum256(payload)
}
