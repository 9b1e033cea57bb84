package vr

import (
	"testing"

	"github.com/misalcedo/vr/vrpb"
)

func TestCheckpointTakenAtInterval(t *testing.T) {
	rs := cluster3(t)
	primary := rs[0]
	primary.cfg.CheckpointInterval = 2
	primary.cfg.RetainedCheckpoints = 1

	for i := uint64(1); i <= 4; i++ {
		primary.handleRequest(1, i, []byte("op"))
		msgs, _ := primary.drainOutbox()
		runToQuiescence(rs, msgs)
	}

	// Checkpoints are taken at op 2 and op 4. With only one retained
	// checkpoint, taking the second (at op 4) pushes the count to M+1=2,
	// dropping the oldest (op 2) and compacting the log to what was the
	// second-oldest of that pair: op 4 itself.
	if primary.latestCheckpoint.OpNumber != 4 {
		t.Fatalf("latestCheckpoint.OpNumber = %d, want 4", primary.latestCheckpoint.OpNumber)
	}
	if primary.log.base != 4 {
		t.Fatalf("log.base = %d, want 4 after compaction", primary.log.base)
	}
	if _, ok := primary.log.entryAt(2); ok {
		t.Fatalf("entry 2 should have been compacted away")
	}
}

// TestCheckpointRetentionKeepsMBeforeCompacting verifies spec.md §4.F's
// retention rule directly: the log is not compacted at all until more than
// RetainedCheckpoints (M) checkpoints exist, and when the (M+1)th is taken,
// log_base advances only to the op-number of the second-oldest retained
// checkpoint, not to the brand new one.
func TestCheckpointRetentionKeepsMBeforeCompacting(t *testing.T) {
	r := newTestReplica(0, 3)
	r.cfg.CheckpointInterval = 10
	r.cfg.RetainedCheckpoints = 2

	takeCheckpointAt := func(op uint64) {
		for i := r.log.lastOpNumber() + 1; i <= op; i++ {
			r.log.append(vrpb.Entry{View: 0, OpNumber: i, ClientID: 1, RequestNumber: i, Operation: []byte("op")})
		}
		r.commitNumber = op
		r.maybeTriggerCheckpoint()
	}

	takeCheckpointAt(10)
	if r.log.base != 0 {
		t.Fatalf("log.base = %d, want 0 with only one of two retained checkpoints taken", r.log.base)
	}

	takeCheckpointAt(20)
	if r.log.base != 0 {
		t.Fatalf("log.base = %d, want 0 with exactly two (M=2) retained checkpoints taken", r.log.base)
	}

	takeCheckpointAt(30)
	// Three checkpoints now exist (10, 20, 30), one more than M=2. The
	// oldest (10) is dropped; log_base lands on the new oldest, 20 — not
	// on 30, the checkpoint that was just taken.
	if r.log.base != 20 {
		t.Fatalf("log.base = %d, want 20 (the second-oldest retained checkpoint)", r.log.base)
	}
	if _, ok := r.log.entryAt(15); ok {
		t.Fatalf("entry 15 should have been compacted away below log_base 20")
	}
	if _, ok := r.log.entryAt(25); !ok {
		t.Fatalf("entry 25 should still be retained above log_base 20")
	}
}

// TestCheckpointTriggeredAfterBatchedCommitAdvance guards against checking
// the checkpoint boundary with a modulus: a single call that advances
// commitNumber by several ops at once (e.g. a primary draining a backlog
// of PrepareOks) must still take a checkpoint once the K-op difference is
// crossed, even though the new commitNumber isn't a multiple of K.
func TestCheckpointTriggeredAfterBatchedCommitAdvance(t *testing.T) {
	r := newTestReplica(0, 3)
	r.cfg.CheckpointInterval = 2
	r.cfg.RetainedCheckpoints = 10

	for i := uint64(1); i <= 3; i++ {
		r.log.append(vrpb.Entry{View: 0, OpNumber: i, ClientID: 1, RequestNumber: i, Operation: []byte("op")})
	}
	for _, peer := range []uint64{1, 2} {
		r.prepared.ack(peer, 3)
	}

	// A single call advances commitNumber straight from 0 to 3 in one
	// loop; 3 is not a multiple of CheckpointInterval=2, but the
	// difference (3-0=3) has crossed the K=2 boundary.
	r.tryAdvanceCommitAsPrimary()

	if r.commitNumber != 3 {
		t.Fatalf("commitNumber = %d, want 3", r.commitNumber)
	}
	if r.latestCheckpoint.OpNumber != 3 {
		t.Fatalf("checkpoint not taken after a batched commit jump from 0 to 3 with CheckpointInterval=2: latestCheckpoint.OpNumber = %d", r.latestCheckpoint.OpNumber)
	}
}

func TestRestoreCheckpointRebuildsServiceAndClientTable(t *testing.T) {
	rs := cluster3(t)
	primary := rs[0]
	primary.cfg.CheckpointInterval = 2

	primary.handleRequest(1, 1, []byte("a"))
	msgs, _ := primary.drainOutbox()
	runToQuiescence(rs, msgs)
	primary.handleRequest(1, 2, []byte("b"))
	msgs, _ = primary.drainOutbox()
	runToQuiescence(rs, msgs)

	cp := primary.latestCheckpoint
	store := primary.cfg.CheckpointStore.(*fakeCheckpointStore)
	raw, err := store.Load(cp)
	if err != nil {
		t.Fatal(err)
	}

	fresh := newReplica(testConfig(3, 4))
	if err := fresh.restoreCheckpoint(cp, raw); err != nil {
		t.Fatal(err)
	}

	freshSvc := fresh.cfg.Service.(*fakeService)
	if len(freshSvc.ops) != 2 || freshSvc.ops[0] != "a" || freshSvc.ops[1] != "b" {
		t.Fatalf("restored service ops = %v", freshSvc.ops)
	}
	entry, cmp := fresh.clients.compare(1, 2)
	if cmp != requestDuplicate || entry.Pending {
		t.Fatalf("restored client table entry = %+v, cmp = %v", entry, cmp)
	}
	if fresh.log.base != cp.OpNumber || fresh.commitNumber != cp.OpNumber {
		t.Fatalf("restored log base/commit = %d/%d, want %d", fresh.log.base, fresh.commitNumber, cp.OpNumber)
	}
	if len(fresh.checkpoints) != 1 || fresh.checkpoints[0].OpNumber != cp.OpNumber {
		t.Fatalf("restored checkpoint history = %v, want exactly [%v]", fresh.checkpoints, cp)
	}
}

// TestCheckpointCompactionEvictsSupersededClientEntries exercises the
// client-table eviction spec.md §9 calls for: once a client's entry has
// both been answered (not Pending) and fallen at or below the new
// log_base, it is dropped to bound the table's growth; an entry that is
// still the client's only request (and so could still be retried) is kept
// as long as its op remains above log_base.
func TestCheckpointCompactionEvictsSupersededClientEntries(t *testing.T) {
	r := newTestReplica(0, 3)
	r.cfg.CheckpointInterval = 10
	r.cfg.RetainedCheckpoints = 1

	appendAndCommit := func(clientID, requestNumber, op uint64) {
		r.log.append(vrpb.Entry{View: 0, OpNumber: op, ClientID: clientID, RequestNumber: requestNumber, Operation: []byte("op")})
		r.clients.start(clientID, requestNumber, op)
		r.commitNumber = op
		r.executeEntry(op)
	}

	appendAndCommit(1, 1, 1) // client 1's only request, stays old.
	for op := uint64(2); op <= 10; op++ {
		appendAndCommit(2, op-1, op) // keep client 2's entry fresh.
	}
	r.maybeTriggerCheckpoint() // checkpoint at op 10; still within M=1, no compaction yet.
	for op := uint64(11); op <= 20; op++ {
		appendAndCommit(2, op-1, op)
	}
	// With M=1, taking a second checkpoint (op 20) drops the oldest (op
	// 10) and compacts log_base to the one retained checkpoint, op 20.
	r.maybeTriggerCheckpoint()
	if r.log.base != 20 {
		t.Fatalf("log.base = %d, want 20", r.log.base)
	}

	// A few more commits after compaction, with no further checkpoint,
	// leave client 2's entry comfortably above the new log_base.
	for op := uint64(21); op <= 25; op++ {
		appendAndCommit(2, op-1, op)
	}

	if _, cmp := r.clients.compare(1, 1); cmp != requestNew {
		t.Fatalf("client 1's entry (op 1, at or below log_base 20) should have been evicted")
	}
	if entry, cmp := r.clients.compare(2, 24); cmp != requestDuplicate || entry.Pending {
		t.Fatalf("client 2's entry (op 25, above log_base 20) should have been retained, got cmp=%v entry=%+v", cmp, entry)
	}
}
