package vr

import "github.com/misalcedo/vr/vrpb"

// Transport delivers a single outbound Message to the replica named in its
// To field. The engine never calls Transport directly: outbound messages
// are batched into Ready and it is the host's job to drain Ready.
// MessagesToSend through a Transport (or anything else, such as an
// in-process channel in a simulation) after each Advance.
type Transport interface {
	Send(msg vrpb.Message) error
}
