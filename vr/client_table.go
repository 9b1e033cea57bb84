package vr

import "github.com/misalcedo/vr/vrpb"

// requestComparison classifies an incoming client request number against
// the client table's record of that client's last request number.
type requestComparison int

const (
	requestStale     requestComparison = iota // s < last: drop it, already superseded
	requestDuplicate                          // s == last: resend cached reply if not still pending
	requestNew                                // s > last: admit it (strict mode additionally requires s == last+1)
)

// clientTable tracks, per client, the highest request number the replica
// has seen and (once known) its reply, so that a retransmitted request
// never executes against the Service twice.
type clientTable struct {
	entries map[uint64]vrpb.ClientTableEntry
	strict  bool
}

func newClientTable(strict bool) *clientTable {
	return &clientTable{entries: make(map[uint64]vrpb.ClientTableEntry), strict: strict}
}

func (t *clientTable) compare(clientID, requestNumber uint64) (vrpb.ClientTableEntry, requestComparison) {
	entry, ok := t.entries[clientID]
	if !ok {
		return vrpb.ClientTableEntry{}, requestNew
	}
	switch {
	case requestNumber < entry.LastRequestNumber:
		return entry, requestStale
	case requestNumber == entry.LastRequestNumber:
		return entry, requestDuplicate
	case t.strict && requestNumber != entry.LastRequestNumber+1:
		return entry, requestStale
	default:
		return entry, requestNew
	}
}

func (t *clientTable) start(clientID, requestNumber, opNumber uint64) {
	t.entries[clientID] = vrpb.ClientTableEntry{LastRequestNumber: requestNumber, Pending: true, OpNumber: opNumber}
}

func (t *clientTable) finish(clientID, requestNumber, opNumber uint64, reply []byte) {
	t.entries[clientID] = vrpb.ClientTableEntry{LastRequestNumber: requestNumber, Pending: false, Reply: reply, OpNumber: opNumber}
}

// evictBelow drops every non-pending entry whose originating op has fallen
// at or below logBase. An entry still Pending is never evicted — its reply
// has not been computed yet, so there is nothing to replay if dropped and
// dropping it would turn a legitimate retry into a spurious new request.
func (t *clientTable) evictBelow(logBase uint64) {
	for id, e := range t.entries {
		if !e.Pending && e.OpNumber <= logBase {
			delete(t.entries, id)
		}
	}
}

// adopt overwrites this table wholesale, used when accepting a checkpoint
// or NewState snapshot whose client table supersedes the local one.
func (t *clientTable) adopt(snapshot map[uint64]vrpb.ClientTableEntry) {
	t.entries = make(map[uint64]vrpb.ClientTableEntry, len(snapshot))
	for k, v := range snapshot {
		t.entries[k] = v
	}
}

// snapshot returns a copy suitable for embedding in a checkpoint.
func (t *clientTable) snapshot() map[uint64]vrpb.ClientTableEntry {
	out := make(map[uint64]vrpb.ClientTableEntry, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}
