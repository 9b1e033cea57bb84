package vrpb

import (
	"encoding/binary"
	"io"
)

// MessageBinaryEncoder frames a sequence of Messages on an io.Writer with a
// big-endian length prefix ahead of each gob-encoded Message, so a
// transport (out of this module's scope) has a ready-made way to put a
// Message on a stream.
type MessageBinaryEncoder struct {
	w io.Writer
}

// NewMessageBinaryEncoder returns a new MessageBinaryEncoder with given writer.
func NewMessageBinaryEncoder(w io.Writer) *MessageBinaryEncoder {
	return &MessageBinaryEncoder{w: w}
}

// Encode writes msg to the underlying writer.
func (enc *MessageBinaryEncoder) Encode(msg *Message) error {
	b, err := msg.Marshal()
	if err != nil {
		return err
	}

	if err := binary.Write(enc.w, binary.BigEndian, uint64(len(b))); err != nil {
		return err
	}

	_, err = enc.w.Write(b)
	return err
}

// MessageBinaryDecoder decodes Messages framed by MessageBinaryEncoder.
type MessageBinaryDecoder struct {
	r io.Reader
}

// NewMessageBinaryDecoder returns a new MessageBinaryDecoder with given reader.
func NewMessageBinaryDecoder(r io.Reader) *MessageBinaryDecoder {
	return &MessageBinaryDecoder{r: r}
}

// Decode reads the next framed Message from the underlying reader.
func (dec *MessageBinaryDecoder) Decode() (Message, error) {
	var n uint64
	if err := binary.Read(dec.r, binary.BigEndian, &n); err != nil {
		return Message{}, err
	}

	b := make([]byte, int(n))
	if _, err := io.ReadFull(dec.r, b); err != nil {
		return Message{}, err
	}

	var msg Message
	err := msg.Unmarshal(b)
	return msg, err
}
