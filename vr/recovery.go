package vr

import "github.com/misalcedo/vr/vrpb"

// recoveryState tracks a restarted replica's attempt to reconstruct its
// state from the rest of the cluster before trusting anything on disk.
type recoveryState struct {
	nonce     uint64
	responses map[uint64]vrpb.Message
	elapsed   int
}

// beginRecovery starts (or restarts, with a fresh nonce) a recovery round.
// A stale RecoveryResponse carrying an earlier nonce can never be mistaken
// for a response to the current round.
func (r *replica) beginRecovery() {
	r.status = StatusRecovering
	r.recovery = &recoveryState{nonce: r.nonces.Next(), responses: make(map[uint64]vrpb.Message)}
	r.softDirty = true
	r.broadcast(func(m *vrpb.Message) {
		m.Type = vrpb.MESSAGE_TYPE_RECOVERY
		m.Nonce = r.recovery.nonce
	})
}

// handleRecovery answers a peer's recovery nonce. Only a replica in Normal
// status answers, and only the primary includes its log in the response;
// a recovering replica needs at least one primary response to make
// forward progress, which is why its own copy is worthless for this.
func (r *replica) handleRecovery(msg vrpb.Message) {
	if r.status != StatusNormal {
		return
	}
	r.send(msg.From, func(m *vrpb.Message) {
		m.Type = vrpb.MESSAGE_TYPE_RECOVERY_RESPONSE
		m.Nonce = msg.Nonce
		m.CommitNumber = r.commitNumber
		if r.isPrimary() {
			m.LogBase = r.log.base
			m.LogTail = append([]vrpb.Entry(nil), r.log.entries...)
			m.OpNumber = r.log.lastOpNumber()
			if r.log.base > 0 {
				m.CheckpointRef = r.latestCheckpoint
			}
		}
	})
}

func (r *replica) handleRecoveryResponse(msg vrpb.Message) {
	if r.status != StatusRecovering || r.recovery == nil || msg.Nonce != r.recovery.nonce {
		return
	}
	r.recovery.responses[msg.From] = msg
	if len(r.recovery.responses) < r.quorum() {
		return
	}

	var bestView uint64
	bestSet := false
	for _, m := range r.recovery.responses {
		if !bestSet || m.View > bestView {
			bestView, bestSet = m.View, true
		}
	}

	primaryResp, ok := r.findPrimaryRecoveryResponse(bestView)
	if !ok {
		// Have a quorum of responses but none from bestView's primary yet;
		// wait for more, or let tickRecovery restart the round.
		return
	}

	if !primaryResp.CheckpointRef.IsEmpty() {
		snapshot, err := r.cfg.CheckpointStore.Load(primaryResp.CheckpointRef)
		if err != nil {
			r.logger.Warningf("vr: replica %d could not load checkpoint %d during recovery, retrying: %v", r.index, primaryResp.CheckpointRef.OpNumber, err)
			r.beginRecovery()
			return
		}
		if err := r.restoreCheckpoint(primaryResp.CheckpointRef, snapshot); err != nil {
			r.logger.Panicf("vr: replica %d failed to restore checkpoint %d during recovery: %v", r.index, primaryResp.CheckpointRef.OpNumber, err)
		}
	}

	oldCommit := r.commitNumber
	r.log.adoptSuffix(primaryResp.LogBase, primaryResp.LogTail)
	start := oldCommit
	if r.log.base > start {
		start = r.log.base
	}
	for op := start + 1; op <= primaryResp.CommitNumber && op <= r.log.lastOpNumber(); op++ {
		r.executeEntry(op)
	}
	r.commitNumber = primaryResp.CommitNumber
	r.becomeNormal(bestView)
}

func (r *replica) findPrimaryRecoveryResponse(view uint64) (vrpb.Message, bool) {
	primary := r.primaryIndex(view)
	for from, m := range r.recovery.responses {
		if m.View == view && from == primary {
			return m, true
		}
	}
	return vrpb.Message{}, false
}

func (r *replica) tickRecovery() {
	r.recovery.elapsed++
	if r.recovery.elapsed >= r.cfg.ViewChangeGraceTicks {
		r.beginRecovery()
	}
}
