package vr

import "github.com/misalcedo/vr/vrpb"

// replicaLog is the in-memory suffix of the replicated log: everything
// after base, the op number of the oldest checkpoint the replica still
// retains. Entries at or before base have been compacted away; their
// effect on Service state is captured in that checkpoint instead.
type replicaLog struct {
	base    uint64
	entries []vrpb.Entry // entries[i] has OpNumber == base+1+i
}

func newReplicaLog(base uint64) *replicaLog {
	return &replicaLog{base: base}
}

// lastOpNumber is the op number of the newest entry this replica holds,
// or base if the suffix is empty.
func (l *replicaLog) lastOpNumber() uint64 {
	return l.base + uint64(len(l.entries))
}

func (l *replicaLog) nextOpNumber() uint64 {
	return l.lastOpNumber() + 1
}

// entryAt returns the entry at op, or ok=false if op has been compacted
// away (op <= base) or has not been appended yet (op > lastOpNumber()).
func (l *replicaLog) entryAt(op uint64) (vrpb.Entry, bool) {
	if op <= l.base || op > l.lastOpNumber() {
		return vrpb.Entry{}, false
	}
	return l.entries[op-l.base-1], true
}

func (l *replicaLog) append(e vrpb.Entry) {
	l.entries = append(l.entries, e)
}

// truncateSuffixAfter drops every entry with OpNumber > op. No protocol
// handler calls it: a view-change log merge replaces the suffix through
// adoptSuffix instead.
func (l *replicaLog) truncateSuffixAfter(op uint64) {
	if op < l.base {
		op = l.base
	}
	n := op - l.base
	if n < uint64(len(l.entries)) {
		l.entries = l.entries[:n]
	}
}

// after returns a copy of every entry with OpNumber > op, in order. Used
// to build the log_tail of a NewState response.
func (l *replicaLog) after(op uint64) []vrpb.Entry {
	if op < l.base {
		op = l.base
	}
	idx := op - l.base
	if idx >= uint64(len(l.entries)) {
		return nil
	}
	out := make([]vrpb.Entry, len(l.entries)-int(idx))
	copy(out, l.entries[idx:])
	return out
}

// adoptSuffix replaces this log's suffix wholesale: base becomes newBase
// and entries becomes a copy of tail. Used when a replica accepts a
// StartView or RecoveryResponse log, when a new primary installs the
// merged view-change log, and when a checkpoint is restored.
func (l *replicaLog) adoptSuffix(newBase uint64, tail []vrpb.Entry) {
	l.base = newBase
	l.entries = append([]vrpb.Entry(nil), tail...)
}

// compactTo drops every entry with OpNumber <= newBase, to be called once
// a checkpoint at newBase has been durably saved. It is a no-op if newBase
// is not ahead of the current base.
func (l *replicaLog) compactTo(newBase uint64) {
	if newBase <= l.base {
		return
	}
	idx := newBase - l.base
	if idx > uint64(len(l.entries)) {
		idx = uint64(len(l.entries))
	}
	l.entries = append([]vrpb.Entry(nil), l.entries[idx:]...)
	l.base = newBase
}
