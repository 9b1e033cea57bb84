package vr

import "github.com/misalcedo/vr/vrpb"

// transferState tracks a replica that has fallen behind — it saw a Prepare
// or Commit referencing an op number or commit number it cannot reach from
// its own log — and is pulling the missing suffix from a peer.
type transferState struct {
	targetOp uint64
	elapsed  int
}

// beginStateTransfer switches into StatusTransferring to catch the log up
// to targetOp. Re-entering with a smaller or equal target while already
// transferring is a no-op; a larger target replaces it.
func (r *replica) beginStateTransfer(targetOp uint64) {
	if r.status == StatusTransferring && r.transfer.targetOp >= targetOp {
		return
	}
	r.status = StatusTransferring
	r.transfer = &transferState{targetOp: targetOp}
	r.prepared = nil
	r.softDirty = true
	r.requestState()
}

func (r *replica) requestState() {
	target := r.primaryIndex(r.view)
	if target == r.index {
		// Don't know a better peer than ourselves; ask the next replica
		// in index order, which is at least a live cluster member.
		target = (r.index + 1) % r.clusterSize
	}
	r.send(target, func(m *vrpb.Message) {
		m.Type = vrpb.MESSAGE_TYPE_GET_STATE
		m.OpNumber = r.log.lastOpNumber()
	})
}

// handleGetState answers a peer asking to catch up from msg.OpNumber. If
// that point has already been compacted out of this replica's log, it
// points the requester at the latest checkpoint instead of a log tail.
func (r *replica) handleGetState(msg vrpb.Message) {
	if r.status != StatusNormal {
		return
	}
	if msg.OpNumber < r.log.base {
		r.send(msg.From, func(m *vrpb.Message) {
			m.Type = vrpb.MESSAGE_TYPE_NEW_STATE
			m.CheckpointRef = r.latestCheckpoint
		})
		return
	}
	r.send(msg.From, func(m *vrpb.Message) {
		m.Type = vrpb.MESSAGE_TYPE_NEW_STATE
		m.LogBase = msg.OpNumber
		m.LogTail = r.log.after(msg.OpNumber)
		m.CommitNumber = r.commitNumber
	})
}

func (r *replica) handleNewState(msg vrpb.Message) {
	if r.status != StatusTransferring {
		return
	}

	if !msg.CheckpointRef.IsEmpty() {
		snapshot, err := r.cfg.CheckpointStore.Load(msg.CheckpointRef)
		if err != nil {
			r.logger.Warningf("vr: replica %d could not load checkpoint %d to catch up, falling back to recovery: %v", r.index, msg.CheckpointRef.OpNumber, err)
			r.beginRecovery()
			return
		}
		if err := r.restoreCheckpoint(msg.CheckpointRef, snapshot); err != nil {
			r.logger.Panicf("vr: replica %d failed to restore checkpoint %d: %v", r.index, msg.CheckpointRef.OpNumber, err)
		}
		r.requestState()
		return
	}

	if msg.LogBase > r.log.lastOpNumber() {
		// The world moved on since we asked; try again from where we are now.
		r.requestState()
		return
	}
	for _, e := range msg.LogTail {
		if e.OpNumber > r.log.lastOpNumber() {
			r.log.append(e)
		}
	}
	for r.commitNumber < msg.CommitNumber && r.commitNumber < r.log.lastOpNumber() {
		r.executeEntry(r.commitNumber + 1)
		r.commitNumber++
	}

	if r.log.lastOpNumber() < r.transfer.targetOp {
		r.requestState()
		return
	}

	r.view = msg.View
	r.lastNormalView = msg.View
	r.status = StatusNormal
	r.transfer = nil
	r.commitWatchdogElapsed = 0
	if r.isPrimary() {
		r.prepared = newProgressSet(r.clusterSize, r.index)
	}
	r.softDirty = true
}

func (r *replica) tickTransfer() {
	r.transfer.elapsed++
	if r.transfer.elapsed >= r.cfg.ViewChangeGraceTicks {
		r.transfer.elapsed = 0
		r.requestState()
	}
}
