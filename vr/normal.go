package vr

import "github.com/misalcedo/vr/vrpb"

// handleRequest processes a client operation submitted directly to this
// replica (via Node.Propose) or relayed to it as a REQUEST message because
// it is believed to be primary. Non-primaries drop the request; the host
// is expected to route requests to whichever replica it last heard was
// primary and retry elsewhere on ErrNotPrimary.
func (r *replica) handleRequest(clientID, requestNumber uint64, operation []byte) error {
	if !r.isPrimary() {
		return ErrNotPrimary
	}

	entry, cmp := r.clients.compare(clientID, requestNumber)
	switch cmp {
	case requestDuplicate:
		if !entry.Pending {
			r.reply(clientID, requestNumber, entry.Reply)
		}
		return nil
	case requestStale:
		return nil
	}

	op := r.log.nextOpNumber()
	var prediction []byte
	hasPrediction := false
	if p, ok := r.cfg.Service.Predict(operation); ok {
		prediction, hasPrediction = p, true
	}

	e := vrpb.Entry{
		View:          r.view,
		OpNumber:      op,
		ClientID:      clientID,
		RequestNumber: requestNumber,
		Operation:     operation,
		HasPrediction: hasPrediction,
		Prediction:    prediction,
	}
	r.log.append(e)
	r.clients.start(clientID, requestNumber, op)
	r.broadcastPrepare(e)
	r.tryAdvanceCommitAsPrimary()
	return nil
}

func (r *replica) broadcastPrepare(e vrpb.Entry) {
	// A Prepare carries the commit number too, so it stands in for the
	// next Commit heartbeat.
	r.heartbeatElapsed = 0
	r.broadcast(func(m *vrpb.Message) {
		m.Type = vrpb.MESSAGE_TYPE_PREPARE
		m.OpNumber = e.OpNumber
		m.CommitNumber = r.commitNumber
		m.Entry = e
	})
}

// handlePrepare is a backup's response to a Prepare from the primary of
// its current view.
func (r *replica) handlePrepare(msg vrpb.Message) {
	if msg.View < r.view || r.isPrimary() {
		return
	}
	if msg.View > r.view {
		r.logger.Infof("vr: replica %d saw prepare for future view %d while in view %d, ignoring until StartView arrives", r.index, msg.View, r.view)
		return
	}
	if r.status != StatusNormal {
		return
	}

	switch {
	case msg.OpNumber < r.log.nextOpNumber():
		// Already logged this op (retransmission); just re-acknowledge.
	case msg.OpNumber == r.log.nextOpNumber():
		r.log.append(msg.Entry)
	default:
		// Gap: we're missing entries between our log and this one.
		r.beginStateTransfer(msg.OpNumber)
		return
	}

	r.commitWatchdogElapsed = 0
	r.advanceCommitFromPrimary(msg.CommitNumber)
	r.send(msg.From, func(m *vrpb.Message) {
		m.Type = vrpb.MESSAGE_TYPE_PREPARE_OK
		m.OpNumber = msg.OpNumber
	})
}

// handlePrepareOk is the primary's response to a backup's acknowledgement.
func (r *replica) handlePrepareOk(msg vrpb.Message) {
	if !r.isPrimary() || msg.View != r.view {
		return
	}
	r.prepared.ack(msg.From, msg.OpNumber)
	r.tryAdvanceCommitAsPrimary()
}

// handleCommit applies the primary's heartbeat, which carries the latest
// commit number even when there is no new entry to Prepare.
func (r *replica) handleCommit(msg vrpb.Message) {
	if msg.View < r.view || r.isPrimary() {
		return
	}
	if msg.View > r.view || r.status != StatusNormal {
		return
	}
	r.commitWatchdogElapsed = 0
	r.advanceCommitFromPrimary(msg.CommitNumber)
}

// tryAdvanceCommitAsPrimary executes every entry, in order, that has now
// reached a quorum of PREPARE_OK acknowledgements (counting the primary
// itself as one of the f+1).
func (r *replica) tryAdvanceCommitAsPrimary() {
	for {
		next := r.commitNumber + 1
		if next > r.log.lastOpNumber() {
			break
		}
		if r.prepared.countAtLeast(next) < r.quorum()-1 {
			break
		}
		r.executeEntry(next)
		r.commitNumber = next
	}
	r.maybeTriggerCheckpoint()
}

// advanceCommitFromPrimary executes entries up to newCommit as directed by
// the primary. If this replica's log does not yet reach newCommit, it
// falls back to state transfer rather than stalling indefinitely.
func (r *replica) advanceCommitFromPrimary(newCommit uint64) {
	for r.commitNumber < newCommit && r.commitNumber < r.log.lastOpNumber() {
		r.executeEntry(r.commitNumber + 1)
		r.commitNumber++
	}
	if r.commitNumber < newCommit {
		r.beginStateTransfer(newCommit)
		return
	}
	r.maybeTriggerCheckpoint()
}

func (r *replica) executeEntry(op uint64) {
	entry, ok := r.log.entryAt(op)
	if !ok {
		r.logger.Panicf("vr: replica %d asked to execute op %d it does not hold", r.index, op)
	}
	reply := r.cfg.Service.Execute(op, entry.Operation, entry.Prediction, entry.HasPrediction)
	r.clients.finish(entry.ClientID, entry.RequestNumber, op, reply)
	if r.isPrimary() {
		r.reply(entry.ClientID, entry.RequestNumber, reply)
	}
}

func (r *replica) tickNormal() {
	if r.isPrimary() {
		r.heartbeatElapsed++
		if r.heartbeatElapsed >= r.cfg.PrimaryHeartbeatTicks {
			r.heartbeatElapsed = 0
			r.broadcast(func(m *vrpb.Message) {
				m.Type = vrpb.MESSAGE_TYPE_COMMIT
				m.CommitNumber = r.commitNumber
			})
		}
		return
	}
	r.commitWatchdogElapsed++
	if r.commitWatchdogElapsed >= r.cfg.CommitWatchdogTicks {
		r.beginViewChange(r.view + 1)
	}
}
