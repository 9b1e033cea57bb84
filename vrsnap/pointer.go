package vrsnap

import (
	"bytes"
	"encoding/gob"

	"github.com/boltdb/bolt"

	"github.com/misalcedo/vr/vrpb"
)

var pointerBucket = []byte("pointer")

const pointerKey = "latest"

// pointerRecord is the boltdb-backed form of what spec.md §6 calls "a
// pointer file naming ... the latest committed checkpoint": enough to
// find the right checkpoint file on disk without scanning the directory.
// The view a checkpoint was taken in travels inside the checkpoint
// payload itself (vr's checkpointPayload.View), so it is not duplicated
// here — a second durable copy of the same fact could drift from the
// payload's own record on a crash between the two writes.
type pointerRecord struct {
	OpNumber uint64
	Digest   []byte
}

// openPointerDB opens (creating if necessary) the single-file boltdb
// database Snapshotter uses as its pointer file, grounded on
// gyuho-db/mvcc/backend's use of boltdb as the embedded store backing a
// small amount of metadata that must survive a restart. A Snapshotter
// that never calls recordPointer still works: Latest falls back to
// scanning the checkpoint directory, so the pointer database is a fast
// path, not a hard requirement.
func openPointerDB(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(pointerBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (s *Snapshotter) recordPointer(cp vrpb.Checkpoint) error {
	if s.pointerDB == nil {
		return nil
	}
	rec := pointerRecord{OpNumber: cp.OpNumber, Digest: cp.Digest}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return err
	}
	return s.pointerDB.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(pointerBucket).Put([]byte(pointerKey), buf.Bytes())
	})
}

// readPointer returns the durably recorded pointer, or ok=false if none
// has ever been written (a fresh Snapshotter, or one whose pointer
// database could not be opened).
func (s *Snapshotter) readPointer() (pointerRecord, bool) {
	if s.pointerDB == nil {
		return pointerRecord{}, false
	}
	var rec pointerRecord
	found := false
	_ = s.pointerDB.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(pointerBucket).Get([]byte(pointerKey))
		if v == nil {
			return nil
		}
		if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&rec); err != nil {
			return err
		}
		found = true
		return nil
	})
	return rec, found
}
