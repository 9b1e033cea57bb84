package vr

// progress tracks, from the primary's perspective, how far one backup has
// acknowledged the log — the highest op number for which that backup has
// sent PREPARE_OK (or is implied to have, via a later PREPARE_OK or a
// view-change log it contributed).
type progress struct {
	ackedOpNumber uint64
}

// progressSet holds a progress entry for every replica other than self.
type progressSet struct {
	self  uint64
	peers map[uint64]*progress
}

func newProgressSet(clusterSize, self uint64) *progressSet {
	ps := &progressSet{self: self, peers: make(map[uint64]*progress)}
	for i := uint64(0); i < clusterSize; i++ {
		if i == self {
			continue
		}
		ps.peers[i] = &progress{}
	}
	return ps
}

// ack records that replica index has acknowledged up to and including
// opNumber; acknowledgements never move backward.
func (ps *progressSet) ack(index, opNumber uint64) {
	p, ok := ps.peers[index]
	if !ok {
		return
	}
	if opNumber > p.ackedOpNumber {
		p.ackedOpNumber = opNumber
	}
}

// countAtLeast returns how many backups (not counting self) have
// acknowledged at least op.
func (ps *progressSet) countAtLeast(op uint64) int {
	n := 0
	for _, p := range ps.peers {
		if p.ackedOpNumber >= op {
			n++
		}
	}
	return n
}

// reset rebuilds the set for a fresh term of office, seeding each peer's
// acknowledged op number at min(reported, cap) so a newly elected primary
// does not over-trust a backup's self-reported progress from the log
// merge that elected it.
func (ps *progressSet) reset(clusterSize, self uint64, reported map[uint64]uint64, cap uint64) {
	ps.self = self
	ps.peers = make(map[uint64]*progress)
	for i := uint64(0); i < clusterSize; i++ {
		if i == self {
			continue
		}
		acked := reported[i]
		if acked > cap {
			acked = cap
		}
		ps.peers[i] = &progress{ackedOpNumber: acked}
	}
}
