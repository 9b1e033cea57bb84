package vr

import (
	"testing"

	"github.com/misalcedo/vr/vrpb"
)

// deliverExcept is deliver but drops messages addressed to `skip`, used to
// simulate one replica missing an operation entirely.
func deliverExcept(rs []*replica, msgs []vrpb.Message, skip uint64) []vrpb.Message {
	var produced []vrpb.Message
	for _, m := range msgs {
		if m.To == skip {
			continue
		}
		rs[m.To].step(m)
		out, _ := rs[m.To].drainOutbox()
		produced = append(produced, out...)
	}
	return produced
}

func runToQuiescenceExcept(rs []*replica, seed []vrpb.Message, skip uint64) {
	pending := seed
	for i := 0; i < 20 && len(pending) > 0; i++ {
		pending = deliverExcept(rs, pending, skip)
	}
}

func TestGapInPrepareTriggersStateTransfer(t *testing.T) {
	rs := cluster3(t)
	primary := rs[0]

	// op 1 reaches everyone.
	primary.handleRequest(1, 1, []byte("op1"))
	msgs, _ := primary.drainOutbox()
	runToQuiescence(rs, msgs)

	// op 2 never reaches replica 2.
	primary.handleRequest(1, 2, []byte("op2"))
	msgs, _ = primary.drainOutbox()
	runToQuiescenceExcept(rs, msgs, 2)

	// op 3 is delivered to replica 2 directly, well ahead of what it holds.
	primary.handleRequest(1, 3, []byte("op3"))
	msgs, _ = primary.drainOutbox()
	prepareTo2, ok := findMessage(filterTo(msgs, 2), vrpb.MESSAGE_TYPE_PREPARE)
	if !ok {
		t.Fatal("no Prepare addressed to replica 2")
	}

	rs[2].step(prepareTo2)
	if rs[2].status != StatusTransferring {
		t.Fatalf("replica 2 status = %v, want StatusTransferring", rs[2].status)
	}

	getState, _ := rs[2].drainOutbox()
	pending := getState
	for i := 0; i < 20 && len(pending) > 0 && rs[2].status == StatusTransferring; i++ {
		pending = deliver(rs, pending)
	}

	if rs[2].status != StatusNormal {
		t.Fatalf("replica 2 status after transfer = %v, want StatusNormal", rs[2].status)
	}
	for _, op := range []uint64{1, 2, 3} {
		if _, ok := rs[2].log.entryAt(op); !ok {
			t.Fatalf("replica 2 missing entry %d after state transfer", op)
		}
	}
}

func filterTo(msgs []vrpb.Message, to uint64) []vrpb.Message {
	var out []vrpb.Message
	for _, m := range msgs {
		if m.To == to {
			out = append(out, m)
		}
	}
	return out
}
