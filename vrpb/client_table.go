package vrpb

// ClientTableEntry is the per-client row a replica keeps to deduplicate
// requests and replay cached replies: {last_request_number, last_reply |
// Pending}. Pending is true while the operation naming LastRequestNumber
// has been accepted into the log but not yet committed and executed.
// OpNumber is the log position LastRequestNumber was assigned, used to
// decide when the entry is old enough to evict once it falls below the
// replica's log_base.
type ClientTableEntry struct {
	LastRequestNumber uint64
	Pending           bool
	Reply             []byte
	OpNumber          uint64
}
