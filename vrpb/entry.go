package vrpb

// Entry is a single slot in a replica's log: the client's operation plus
// the viewstamp (view, op-number) it was assigned and, when the primary
// resolved a non-deterministic value before appending, the prediction the
// service must be replayed with everywhere.
type Entry struct {
	View          uint64
	OpNumber      uint64
	ClientID      uint64
	RequestNumber uint64
	Operation     []byte

	// HasPrediction distinguishes an explicit nil/empty prediction from "the
	// primary never called Predict for this operation".
	HasPrediction bool
	Prediction    []byte
}

// IsEmpty reports whether e has the zero View, OpNumber, ClientID and
// Operation.
func (e Entry) IsEmpty() bool {
	return e.OpNumber == 0 && e.View == 0 && e.ClientID == 0 && len(e.Operation) == 0
}

// DescribeEntry renders e in a human-readable, single-line form for logs.
func DescribeEntry(e Entry) string {
	return sprintfEntry(e)
}
