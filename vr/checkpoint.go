package vr

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"hash/crc32"

	"github.com/misalcedo/vr/vrpb"
)

var checkpointCRCTable = crc32.MakeTable(crc32.Castagnoli)

// checkpointPayload is what actually gets handed to CheckpointStore.Save:
// the Service's own snapshot bytes plus enough replica bookkeeping
// (the client table, and the view the checkpoint was taken in) to resume
// Normal operation after restoring it, without replaying the log beneath
// it. vrpb.Checkpoint on the wire only ever carries OpNumber and a digest
// of this payload — the payload itself only ever moves through
// CheckpointStore. A NEW_STATE or RECOVERY_RESPONSE message names a
// checkpoint by CheckpointRef, and the receiving replica loads it from its
// own CheckpointStore; no message carries the payload bytes.
type checkpointPayload struct {
	ServiceSnapshot []byte
	ClientTable     map[uint64]vrpb.ClientTableEntry
	View            uint64
}

func (p checkpointPayload) encode() ([]byte, uint32, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		return nil, 0, err
	}
	b := buf.Bytes()
	return b, crc32.Checksum(b, checkpointCRCTable), nil
}

func decodeCheckpointPayload(b []byte) (checkpointPayload, error) {
	var p checkpointPayload
	err := gob.NewDecoder(bytes.NewReader(b)).Decode(&p)
	return p, err
}

func digestBytes(crc uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, crc)
	return b
}

// maybeTriggerCheckpoint is called after every commit-number advance. Once
// the commit number has moved at least CheckpointInterval ops beyond the
// most recent checkpoint, it takes a new one and persists it. This is a
// difference check, not a modulus: a single call can advance commitNumber
// by many ops at once (a primary draining a backlog of PrepareOks, or a
// backup catching up via view-change or state-transfer), and the boundary
// must not be missed just because the new commitNumber doesn't happen to
// be a multiple of the interval.
func (r *replica) maybeTriggerCheckpoint() {
	if r.commitNumber <= r.latestCheckpoint.OpNumber {
		return
	}
	if r.commitNumber-r.latestCheckpoint.OpNumber < r.cfg.CheckpointInterval {
		return
	}

	payload := checkpointPayload{
		ServiceSnapshot: r.cfg.Service.Take(),
		ClientTable:     r.clients.snapshot(),
		View:            r.lastNormalView,
	}
	b, crc, err := payload.encode()
	if err != nil {
		r.logger.Errorf("vr: replica %d failed to encode checkpoint at op %d: %v", r.index, r.commitNumber, err)
		return
	}

	cp := vrpb.Checkpoint{OpNumber: r.commitNumber, Digest: digestBytes(crc)}
	if err := r.cfg.CheckpointStore.Save(cp, b); err != nil {
		r.logger.Errorf("vr: replica %d failed to save checkpoint at op %d: %v", r.index, r.commitNumber, err)
		return
	}

	r.latestCheckpoint = cp
	r.retainCheckpoint(cp)

	oldest := r.checkpoints[0]
	if err := r.cfg.CheckpointStore.Discard(oldest); err != nil {
		r.logger.Warningf("vr: replica %d failed to discard checkpoints older than op %d: %v", r.index, oldest.OpNumber, err)
	}
}

// retainCheckpoint appends cp to the bounded history of checkpoints this
// replica keeps available for state transfer. Once more than
// RetainedCheckpoints (M) exist, it drops the oldest and advances log_base
// only to the op-number of the now-oldest retained checkpoint — the
// second-oldest of the M+1 that existed a moment ago — so a peer can still
// state-transfer a log tail from any checkpoint still on the list, rather
// than having the log compacted straight to the checkpoint just taken.
func (r *replica) retainCheckpoint(cp vrpb.Checkpoint) {
	r.checkpoints = append(r.checkpoints, cp)
	if len(r.checkpoints) <= r.cfg.RetainedCheckpoints {
		return
	}
	r.checkpoints = r.checkpoints[1:]
	logBase := r.checkpoints[0].OpNumber
	r.log.compactTo(logBase)
	r.clients.evictBelow(logBase)
}

// restoreCheckpoint applies a checkpoint's payload to both the Service and
// this replica's own bookkeeping, used by Recovery and State-Transfer. The
// checkpoint history this replica remembers is reset to just cp: whatever
// came before it belongs to a lineage this replica never held locally, so
// there is nothing older of its own left to retain.
func (r *replica) restoreCheckpoint(cp vrpb.Checkpoint, raw []byte) error {
	payload, err := decodeCheckpointPayload(raw)
	if err != nil {
		return err
	}
	if err := r.cfg.Service.Restore(payload.ServiceSnapshot); err != nil {
		return err
	}
	r.clients.adopt(payload.ClientTable)
	r.log.adoptSuffix(cp.OpNumber, nil)
	r.commitNumber = cp.OpNumber
	r.latestCheckpoint = cp
	r.checkpoints = []vrpb.Checkpoint{cp}
	r.lastNormalView = payload.View
	return nil
}
