package vr

import "github.com/misalcedo/vr/vrpb"

// SoftState is the subset of a replica's state that the host is likely to
// want to react to directly, such as to retarget where it forwards client
// requests. It is included in Ready only when it has changed since the
// last Ready.
type SoftState struct {
	View      uint64
	Status    Status
	IsPrimary bool
}

// Ready is a batch of work the replica's actor loop has produced since the
// host last called Advance: outbound messages to hand to a Transport, and
// client replies to deliver. The host must not mutate the slices it reads
// out of a Ready.
type Ready struct {
	SoftState     *SoftState
	MessagesToSend []vrpb.Message
	RepliesToSend  []ClientReply
}

// ContainsUpdates reports whether there is anything in rd worth draining;
// the actor loop only ever offers a Ready when this would be true.
func (rd Ready) ContainsUpdates() bool {
	return rd.SoftState != nil || len(rd.MessagesToSend) > 0 || len(rd.RepliesToSend) > 0
}
