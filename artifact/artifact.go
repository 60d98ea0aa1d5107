package artifact

import (
	"bytes"
	"fmt"

	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
)

// Save compiles c into a self-contained artifact blob: a fixed header
// (magic, format version, payload length, a fresh grammar identity, and a
// checksum of the payload) followed by one rezi-encoded GrammarPayload.
func Save(c Compiled) ([]byte, uuid.UUID, error) {
	p, err := ToPayload(c)
	if err != nil {
		return nil, uuid.UUID{}, err
	}

	payload := rezi.EncBinary(&p)
	id := uuid.New()

	var buf bytes.Buffer
	h := header{
		Magic:      magic,
		Version:    FormatVersion,
		PayloadLen: uint32(len(payload)),
		GrammarID:  [16]byte(id),
		Checksum:   checksum(payload),
	}
	if err := writeHeader(&buf, h); err != nil {
		return nil, uuid.UUID{}, fmt.Errorf("artifact: writing header: %w", err)
	}
	buf.Write(payload)
	return buf.Bytes(), id, nil
}

// Load parses an artifact blob produced by Save, verifies its checksum, and
// reconstructs the compiled grammar using cb to re-attach semantic
// callbacks. The returned uuid.UUID is the grammar identity Save minted.
func Load(data []byte, cb Callbacks) (Compiled, uuid.UUID, error) {
	h, payload, err := readHeader(data)
	if err != nil {
		return Compiled{}, uuid.UUID{}, err
	}
	if h.Version != FormatVersion {
		return Compiled{}, uuid.UUID{}, fmt.Errorf("artifact: unsupported format version %d (want %d)", h.Version, FormatVersion)
	}
	if checksum(payload) != h.Checksum {
		return Compiled{}, uuid.UUID{}, fmt.Errorf("artifact: checksum mismatch; artifact is corrupt")
	}

	var p GrammarPayload
	if _, err := rezi.DecBinary(payload, &p); err != nil {
		return Compiled{}, uuid.UUID{}, fmt.Errorf("artifact: decoding payload: %w", err)
	}

	g, table, dfa, err := FromPayload(p, cb)
	if err != nil {
		return Compiled{}, uuid.UUID{}, err
	}
	return Compiled{Grammar: g, Table: table, DFA: dfa}, uuid.UUID(h.GrammarID), nil
}
