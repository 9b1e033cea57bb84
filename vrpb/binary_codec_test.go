package vrpb

import (
	"bytes"
	"reflect"
	"testing"
)

func TestMessageBinaryEncoderDecoder(t *testing.T) {
	tests := []Message{
		{
			Type:         MESSAGE_TYPE_PREPARE,
			View:         1,
			From:         0,
			To:           1,
			OpNumber:     3,
			CommitNumber: 2,
			Entry:        Entry{View: 1, OpNumber: 3, ClientID: 5, RequestNumber: 1, Operation: []byte("set x=1")},
		},
		{
			Type: MESSAGE_TYPE_DO_VIEW_CHANGE,
			View: 2,
			From: 1,
			To:   2,
			LogTail: []Entry{
				{View: 1, OpNumber: 1, ClientID: 5, RequestNumber: 1, Operation: []byte("a")},
				{View: 1, OpNumber: 2, ClientID: 5, RequestNumber: 2, Operation: []byte("b")},
			},
			LastNormalView: 1,
			OpNumber:       2,
			CommitNumber:   1,
		},
		{Type: MESSAGE_TYPE_COMMIT, View: 0, CommitNumber: 4},
	}

	for i, tt := range tests {
		b := &bytes.Buffer{}

		enc := NewMessageBinaryEncoder(b)
		if err := enc.Encode(&tt); err != nil {
			t.Fatalf("#%d: unexpected encode error: %v", i, err)
		}

		dec := NewMessageBinaryDecoder(b)
		m, err := dec.Decode()
		if err != nil {
			t.Fatalf("#%d: unexpected decode error: %v", i, err)
		}

		if !reflect.DeepEqual(m, tt) {
			t.Fatalf("#%d: message = %+v, want %+v", i, m, tt)
		}
	}
}

func TestCheckpointMarshalUnmarshal(t *testing.T) {
	cp := Checkpoint{OpNumber: 100, Digest: []byte{1, 2, 3, 4}}

	b, err := cp.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	var got Checkpoint
	if err := got.Unmarshal(b); err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(cp, got) {
		t.Fatalf("checkpoint = %+v, want %+v", got, cp)
	}
}
