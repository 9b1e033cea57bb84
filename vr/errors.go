package vr

import "errors"

// Sentinel errors returned by Node and CheckpointStore implementations.
var (
	// ErrStopped is returned by Node methods after Stop has been called.
	ErrStopped = errors.New("vr: node stopped")

	// ErrNotPrimary is returned by Propose when the local replica does not
	// believe itself to be primary for its current view. The caller should
	// retry against the primary implied by the view, or wait for a
	// SoftState update.
	ErrNotPrimary = errors.New("vr: not primary")

	// ErrStaleMessage names a message whose view or op_number this replica
	// has already moved past. The engine does not return it: handlers drop
	// such messages silently and Step returns nil.
	ErrStaleMessage = errors.New("vr: stale message")

	// ErrCompacted is returned by CheckpointStore.Load when the requested
	// checkpoint has already been compacted away.
	ErrCompacted = errors.New("vr: requested entry has been compacted")

	// ErrUnavailable is returned when a checkpoint or log range was
	// requested that the store never held, as distinct from having
	// compacted it away.
	ErrUnavailable = errors.New("vr: requested state unavailable")

	// ErrCheckpointCorrupt is returned by CheckpointStore.Load or Latest
	// when a stored checkpoint fails its integrity check.
	ErrCheckpointCorrupt = errors.New("vr: checkpoint failed integrity check")

	// ErrNoQuorum names the failure to assemble f+1 agreeing replicas. The
	// engine does not return it: a view-change or recovery attempt that
	// gathers no quorum within its grace period is simply restarted by the
	// tick timers.
	ErrNoQuorum = errors.New("vr: failed to assemble quorum")
)
