package vr

import "github.com/misalcedo/vr/vrpb"

// CheckpointStore durably persists and retrieves Service snapshots taken at
// checkpoint boundaries. The engine decides when a checkpoint is taken and
// when an old one may be discarded; this interface only has to make that
// decision durable. vrsnap.Snapshotter is this module's concrete,
// file-backed implementation.
type CheckpointStore interface {
	// Save durably stores snapshot as the checkpoint at opNumber with the
	// given digest, and returns once it is safe to treat the checkpoint as
	// committed to disk.
	Save(cp vrpb.Checkpoint, snapshot []byte) error

	// Load returns the Service snapshot bytes previously saved for cp.
	// It returns ErrCompacted if a checkpoint once existed at cp.OpNumber
	// but has since been superseded, and ErrUnavailable if none was ever
	// stored there.
	Load(cp vrpb.Checkpoint) ([]byte, error)

	// Latest returns the most recently saved checkpoint's metadata, or
	// the zero Checkpoint (IsEmpty() true) if none has been saved yet.
	Latest() (vrpb.Checkpoint, error)

	// Discard releases any checkpoint older than keepFrom's op number,
	// retaining at least the RetainedCheckpoints most recent ones. It is
	// called after a new checkpoint is durably saved.
	Discard(keepFrom vrpb.Checkpoint) error
}
