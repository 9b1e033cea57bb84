package vrpb

import (
	"bytes"
	"encoding/gob"
)

// Marshal encodes msg with encoding/gob, the same codec this module's
// checkpoint storage uses for Checkpoint metadata.
func (msg Message) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes b produced by Marshal into msg.
func (msg *Message) Unmarshal(b []byte) error {
	return gob.NewDecoder(bytes.NewReader(b)).Decode(msg)
}

// Size returns the length of msg's gob encoding, or 0 if msg cannot be
// encoded. MessageBinaryEncoder does not use it; it frames each message
// with the length of Marshal's output.
func (msg Message) Size() int {
	b, err := msg.Marshal()
	if err != nil {
		return 0
	}
	return len(b)
}

// Marshal encodes cp with encoding/gob.
func (cp Checkpoint) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes b produced by Checkpoint.Marshal into cp.
func (cp *Checkpoint) Unmarshal(b []byte) error {
	return gob.NewDecoder(bytes.NewReader(b)).Decode(cp)
}
