package vrsnap

import (
	"bytes"
	"encoding/gob"
	"hash/crc32"
)

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// wireCheckpoint is exactly what gets gob-encoded into a checkpoint file:
// the vr.CheckpointStore metadata plus a CRC32 over Data, so a half-written
// or bit-rotted file is caught on Load rather than handed back as if it
// were good.
type wireCheckpoint struct {
	OpNumber uint64
	Digest   []byte
	CRC      uint32
	Data     []byte
}

func encodeWireCheckpoint(opNumber uint64, digest, data []byte) ([]byte, error) {
	w := wireCheckpoint{
		OpNumber: opNumber,
		Digest:   digest,
		CRC:      crc32.Checksum(data, crcTable),
		Data:     data,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeWireCheckpoint(b []byte) (wireCheckpoint, error) {
	var w wireCheckpoint
	if len(b) == 0 {
		return w, ErrEmptyCheckpoint
	}
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&w); err != nil {
		return w, err
	}
	if len(w.Data) == 0 {
		return w, ErrEmptyCheckpoint
	}
	if crc32.Checksum(w.Data, crcTable) != w.CRC {
		return w, ErrCRCMismatch
	}
	return w, nil
}
