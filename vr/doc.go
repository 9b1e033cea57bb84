// Package vr implements the replica-side protocol engine for Viewstamped
// Replication: Normal operation, View-Change, Recovery, State-Transfer, and
// checkpointing/log-compaction, plus the message-routing and timer rules
// that tie them together. A cluster of 2f+1 replicas running this engine
// stays in agreement on a totally ordered log of client operations despite
// crashes, message loss, reordering, and duplication, tolerating up to f
// failures.
//
// The engine is a single logical actor per replica: exactly one goroutine,
// started by StartNode, ever touches a replica's state, whether the event
// arrives as an inbound vrpb.Message, a Tick, or a client Propose call. The
// host drains outbound work — messages to send, replies to deliver — from
// the channel returned by Node.Ready and must call Node.Advance once it has
// done so.
//
// Transport delivery, the host service being replicated, and durable
// checkpoint storage are supplied by the host through the Transport,
// Service, and CheckpointStore interfaces; this package only defines when
// to call them, never how they move bytes.
package vr
