package vr

// Service is the state machine being replicated. The engine calls Execute
// once per committed operation, in log order, on every replica — including
// the primary, which never executes speculatively. Predict lets a primary
// resolve a non-deterministic value before an operation commits; the
// engine stores whatever it returns in the log entry and hands it back to
// every replica's later Execute call so Execute can be deterministic given
// the operation plus that value, rather than each replica resolving the
// non-determinism independently and risking disagreement.
//
// Take and Restore move a Service's entire state to and from an opaque
// byte slice for checkpointing and state transfer. Implementations must
// make Take safe to call while Execute may be invoked again afterward.
// The engine invokes Take and Restore synchronously on the replica's
// goroutine and waits for them to return before continuing.
type Service interface {
	// Execute applies operation, already committed at the given op
	// number, and returns the reply to hand back to the client. When
	// hasPrediction is true, prediction is the value the primary's
	// Predict call resolved for this operation before it committed, and
	// Execute must use it (not recompute its own non-deterministic
	// value) so every replica's execution agrees.
	Execute(opNumber uint64, operation, prediction []byte, hasPrediction bool) []byte

	// Predict optionally resolves a non-deterministic value for operation
	// on the primary before it is appended; the engine stores it in the
	// log entry and passes it to every replica's Execute. Implementations
	// with nothing to resolve should return (nil, false).
	Predict(operation []byte) (prediction []byte, ok bool)

	// Take returns a byte-serialized snapshot of the Service's state as
	// of the most recently executed operation.
	Take() []byte

	// Restore replaces the Service's entire state with the snapshot
	// previously returned by Take, as part of state transfer or recovery.
	Restore(snapshot []byte) error
}
