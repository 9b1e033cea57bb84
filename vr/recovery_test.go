package vr

import (
	"testing"

	"github.com/misalcedo/vr/vrpb"
)

func TestRecoveryAdoptsPrimaryLog(t *testing.T) {
	rs := cluster3(t)
	primary := rs[0]

	primary.handleRequest(1, 1, []byte("op1"))
	msgs, _ := primary.drainOutbox()
	runToQuiescence(rs, msgs)
	if primary.commitNumber != 1 {
		t.Fatalf("setup: primary did not commit, commitNumber=%d", primary.commitNumber)
	}

	// Replica 2 "restarts" with a clean replica object but keeps its index.
	rs[2] = newReplica(testConfig(2, 3))
	rs[2].beginRecovery()
	seed, _ := rs[2].drainOutbox()

	pending := seed
	for i := 0; i < 20 && len(pending) > 0; i++ {
		pending = deliver(rs, pending)
	}

	if rs[2].status != StatusNormal {
		t.Fatalf("recovering replica status = %v, want StatusNormal", rs[2].status)
	}
	if rs[2].view != 0 {
		t.Fatalf("recovering replica view = %d, want 0", rs[2].view)
	}
	if _, ok := rs[2].log.entryAt(1); !ok {
		t.Fatalf("recovering replica did not adopt entry 1 from the primary")
	}
}

func TestRecoveryResponseIgnoredForStaleNonce(t *testing.T) {
	rs := cluster3(t)
	r := rs[2]
	r.beginRecovery()
	r.drainOutbox()

	stale := vrpb.Message{Type: vrpb.MESSAGE_TYPE_RECOVERY_RESPONSE, Nonce: r.recovery.nonce + 1, From: 0, View: 0}
	r.handleRecoveryResponse(stale)
	if len(r.recovery.responses) != 0 {
		t.Fatalf("stale-nonce response was recorded")
	}
}

func TestRecoveryRestartsOnGracePeriodExpiry(t *testing.T) {
	rs := cluster3(t)
	r := rs[2]
	r.beginRecovery()
	r.drainOutbox()
	firstNonce := r.recovery.nonce

	for i := 0; i < r.cfg.ViewChangeGraceTicks; i++ {
		r.tick()
	}

	if r.recovery.nonce == firstNonce {
		t.Fatalf("recovery did not restart with a fresh nonce after grace period")
	}
}
