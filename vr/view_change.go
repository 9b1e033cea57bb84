package vr

import "github.com/misalcedo/vr/vrpb"

// viewChangeState tracks one replica's participation in the attempt to
// move the cluster to a new view: the StartViewChange votes it has seen
// for that view, and — if this replica is the new view's prospective
// primary — the DoViewChange messages it is collecting to decide the
// merged log.
type viewChangeState struct {
	targetView       uint64
	startVotes       map[uint64]bool
	sentDoViewChange bool
	doViewChanges    map[uint64]vrpb.Message
	elapsed          int
}

// beginViewChange abandons whatever the replica was doing and starts
// campaigning for view v, either because its own commit watchdog fired or
// because it heard another replica already campaigning for v or later.
func (r *replica) beginViewChange(v uint64) {
	if r.status == StatusViewChange && r.vc != nil && r.vc.targetView >= v {
		return
	}
	r.logger.Infof("vr: replica %d starting view change to view %d", r.index, v)
	r.status = StatusViewChange
	r.view = v
	r.vc = &viewChangeState{targetView: v, startVotes: map[uint64]bool{r.index: true}}
	r.prepared = nil
	r.softDirty = true
	r.broadcast(func(m *vrpb.Message) {
		m.Type = vrpb.MESSAGE_TYPE_START_VIEW_CHANGE
		m.View = v
	})
	r.maybeSendDoViewChange()
}

func (r *replica) handleStartViewChange(msg vrpb.Message) {
	if msg.View < r.view {
		return
	}
	if msg.View > r.view {
		r.beginViewChange(msg.View)
	}
	if r.vc == nil || r.vc.targetView != msg.View {
		return
	}
	r.vc.startVotes[msg.From] = true
	r.maybeSendDoViewChange()
}

func (r *replica) maybeSendDoViewChange() {
	if r.vc.sentDoViewChange || len(r.vc.startVotes) < r.quorum() {
		return
	}
	r.vc.sentDoViewChange = true

	target := r.primaryIndex(r.vc.targetView)
	dvc := vrpb.Message{
		Type:           vrpb.MESSAGE_TYPE_DO_VIEW_CHANGE,
		View:           r.vc.targetView,
		From:           r.index,
		To:             target,
		LogBase:        r.log.base,
		LogTail:        append([]vrpb.Entry(nil), r.log.entries...),
		LastNormalView: r.lastNormalView,
		OpNumber:       r.log.lastOpNumber(),
		CommitNumber:   r.commitNumber,
	}
	if target == r.index {
		r.recordDoViewChange(dvc)
		return
	}
	r.outboxMsgs = append(r.outboxMsgs, dvc)
}

func (r *replica) handleDoViewChange(msg vrpb.Message) {
	if msg.View > r.view {
		r.beginViewChange(msg.View)
	}
	if msg.View != r.view || r.primaryIndex(r.view) != r.index {
		return
	}
	if r.vc == nil || r.vc.targetView != msg.View {
		return
	}
	r.recordDoViewChange(msg)
}

func (r *replica) recordDoViewChange(msg vrpb.Message) {
	if r.vc.doViewChanges == nil {
		r.vc.doViewChanges = make(map[uint64]vrpb.Message)
	}
	r.vc.doViewChanges[msg.From] = msg
	r.maybeBecomePrimary()
}

// maybeBecomePrimary merges the logs carried by a quorum of DoViewChange
// messages once they have all arrived: the merged log is the one with the
// highest last_normal_view, breaking ties by the highest op number.
func (r *replica) maybeBecomePrimary() {
	if len(r.vc.doViewChanges) < r.quorum() {
		return
	}

	var best vrpb.Message
	bestSet := false
	newCommit := uint64(0)
	reportedOp := make(map[uint64]uint64, len(r.vc.doViewChanges))
	for from, m := range r.vc.doViewChanges {
		reportedOp[from] = m.OpNumber
		if m.CommitNumber > newCommit {
			newCommit = m.CommitNumber
		}
		if !bestSet || m.LastNormalView > best.LastNormalView ||
			(m.LastNormalView == best.LastNormalView && m.OpNumber > best.OpNumber) {
			best, bestSet = m, true
		}
	}

	oldCommit := r.commitNumber
	r.log.adoptSuffix(best.LogBase, best.LogTail)

	targetView := r.vc.targetView
	r.becomeNormal(targetView)

	start := oldCommit
	if r.log.base > start {
		start = r.log.base
	}
	for op := start + 1; op <= newCommit && op <= r.log.lastOpNumber(); op++ {
		r.executeEntry(op)
	}
	r.commitNumber = newCommit

	r.prepared.reset(r.clusterSize, r.index, reportedOp, r.log.lastOpNumber())

	tail := append([]vrpb.Entry(nil), r.log.entries...)
	r.broadcast(func(m *vrpb.Message) {
		m.Type = vrpb.MESSAGE_TYPE_START_VIEW
		m.LogBase = r.log.base
		m.LogTail = tail
		m.CommitNumber = r.commitNumber
	})
	r.tryAdvanceCommitAsPrimary()
}

func (r *replica) handleStartView(msg vrpb.Message) {
	if msg.View < r.view {
		return
	}
	if r.status == StatusNormal && r.view == msg.View {
		return
	}

	oldCommit := r.commitNumber
	r.log.adoptSuffix(msg.LogBase, msg.LogTail)

	start := oldCommit
	if r.log.base > start {
		start = r.log.base
	}
	for op := start + 1; op <= msg.CommitNumber && op <= r.log.lastOpNumber(); op++ {
		r.executeEntry(op)
	}
	r.commitNumber = msg.CommitNumber

	r.becomeNormal(msg.View)
	r.send(msg.From, func(m *vrpb.Message) {
		m.Type = vrpb.MESSAGE_TYPE_PREPARE_OK
		m.OpNumber = r.log.lastOpNumber()
	})
}

// tickViewChange escalates to the next view if a quorum of StartViewChange
// votes, or of DoViewChange messages, fails to materialize before the
// grace period elapses — a replica stuck on a partitioned or since-dead
// prospective primary must not wait forever.
func (r *replica) tickViewChange() {
	r.vc.elapsed++
	if r.vc.elapsed >= r.cfg.ViewChangeGraceTicks {
		r.beginViewChange(r.vc.targetView + 1)
	}
}
