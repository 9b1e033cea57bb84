package vrsnap

import "errors"

var (
	// ErrNoCheckpoint names a store that has never saved a checkpoint.
	// Snapshotter does not return it: Latest reports an empty store as the
	// zero Checkpoint with a nil error.
	ErrNoCheckpoint = errors.New("vrsnap: no checkpoint saved yet")

	// ErrCRCMismatch is returned by decodeWireCheckpoint when a checkpoint
	// file's stored checksum does not match its contents; Load and Latest
	// report that to their callers as vr.ErrCheckpointCorrupt.
	ErrCRCMismatch = errors.New("vrsnap: crc mismatch")

	// ErrEmptyCheckpoint is returned by decodeWireCheckpoint for a
	// checkpoint file that exists but holds no data, which should never
	// happen outside of a crash mid-write that this package's atomic rename
	// should prevent; Load and Latest report it as vr.ErrCheckpointCorrupt.
	ErrEmptyCheckpoint = errors.New("vrsnap: empty checkpoint file")
)
