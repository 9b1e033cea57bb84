package vrsnap

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/boltdb/bolt"

	"github.com/misalcedo/vr/vr"
	"github.com/misalcedo/vr/vrpb"
	"github.com/misalcedo/vr/xlog"
)

const checkpointFileSuffix = ".checkpoint"
const pointerFileName = "pointer.db"

// Snapshotter is a directory-backed vr.CheckpointStore. Each checkpoint
// lives in its own file named by op number so that Discard can drop old
// ones by simply removing files, with no compaction step of its own. A
// small boltdb database alongside them (pointerFileName) is the pointer
// file spec.md §6 names: it lets Latest answer without listing the
// directory, at the cost of nothing worse than a directory scan if it is
// ever missing or stale.
type Snapshotter struct {
	dir    string
	retain int
	logger *xlog.Logger

	pointerDB *bolt.DB

	mu     sync.Mutex
	latest vrpb.Checkpoint
	loaded bool
}

// New returns a Snapshotter backed by dir, creating it if necessary, that
// keeps at least the `retain` most recently saved checkpoints on disk.
func New(dir string, retain int) (*Snapshotter, error) {
	if retain <= 0 {
		retain = 1
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	pdb, err := openPointerDB(filepath.Join(dir, pointerFileName))
	if err != nil {
		return nil, err
	}
	return &Snapshotter{dir: dir, retain: retain, pointerDB: pdb, logger: xlog.NewLogger("vrsnap", xlog.INFO)}, nil
}

// Close releases the pointer database's file handle. A Snapshotter that
// is never closed still works correctly for the lifetime of the process;
// Close only matters to let another process open the same directory.
func (s *Snapshotter) Close() error {
	if s.pointerDB == nil {
		return nil
	}
	return s.pointerDB.Close()
}

func checkpointFileName(opNumber uint64) string {
	return fmt.Sprintf("%016x%s", opNumber, checkpointFileSuffix)
}

func parseCheckpointFileName(name string) (uint64, bool) {
	if !strings.HasSuffix(name, checkpointFileSuffix) {
		return 0, false
	}
	hex := strings.TrimSuffix(name, checkpointFileSuffix)
	op, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return 0, false
	}
	return op, true
}

// checkpointOpNumbers returns every op number this store currently holds a
// file for, sorted ascending.
func (s *Snapshotter) checkpointOpNumbers() ([]uint64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var ops []uint64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if op, ok := parseCheckpointFileName(e.Name()); ok {
			ops = append(ops, op)
		}
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops, nil
}

// Save implements vr.CheckpointStore.
func (s *Snapshotter) Save(cp vrpb.Checkpoint, snapshot []byte) error {
	b, err := encodeWireCheckpoint(cp.OpNumber, cp.Digest, snapshot)
	if err != nil {
		return err
	}

	fname := filepath.Join(s.dir, checkpointFileName(cp.OpNumber))
	tmp, err := os.CreateTemp(s.dir, "tmp-checkpoint-")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), fname); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	s.mu.Lock()
	if !s.loaded || cp.OpNumber >= s.latest.OpNumber {
		s.latest, s.loaded = cp, true
	}
	s.mu.Unlock()

	if err := s.recordPointer(cp); err != nil {
		s.logger.Warningf("vrsnap: failed to record pointer for checkpoint at op %d: %v", cp.OpNumber, err)
	}
	return nil
}

// Load implements vr.CheckpointStore.
func (s *Snapshotter) Load(cp vrpb.Checkpoint) ([]byte, error) {
	fname := filepath.Join(s.dir, checkpointFileName(cp.OpNumber))
	raw, err := os.ReadFile(fname)
	if err != nil {
		if os.IsNotExist(err) {
			ops, lerr := s.checkpointOpNumbers()
			if lerr == nil && len(ops) > 0 && cp.OpNumber < ops[0] {
				return nil, vr.ErrCompacted
			}
			return nil, vr.ErrUnavailable
		}
		return nil, err
	}

	w, err := decodeWireCheckpoint(raw)
	if err != nil {
		renameBroken(fname)
		return nil, vr.ErrCheckpointCorrupt
	}
	return w.Data, nil
}

// Latest implements vr.CheckpointStore.
func (s *Snapshotter) Latest() (vrpb.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.latest, nil
	}

	if rec, ok := s.readPointer(); ok {
		raw, err := os.ReadFile(filepath.Join(s.dir, checkpointFileName(rec.OpNumber)))
		if err == nil {
			if w, derr := decodeWireCheckpoint(raw); derr == nil {
				s.latest = vrpb.Checkpoint{OpNumber: w.OpNumber, Digest: w.Digest}
				s.loaded = true
				return s.latest, nil
			}
		}
		s.logger.Warningf("vrsnap: pointer named checkpoint at op %d but it could not be read, falling back to a directory scan", rec.OpNumber)
	}

	ops, err := s.checkpointOpNumbers()
	if err != nil {
		return vrpb.EmptyCheckpoint, err
	}
	if len(ops) == 0 {
		s.latest, s.loaded = vrpb.EmptyCheckpoint, true
		return vrpb.EmptyCheckpoint, nil
	}

	newest := ops[len(ops)-1]
	raw, err := os.ReadFile(filepath.Join(s.dir, checkpointFileName(newest)))
	if err != nil {
		return vrpb.EmptyCheckpoint, err
	}
	w, err := decodeWireCheckpoint(raw)
	if err != nil {
		return vrpb.EmptyCheckpoint, vr.ErrCheckpointCorrupt
	}

	s.latest = vrpb.Checkpoint{OpNumber: w.OpNumber, Digest: w.Digest}
	s.loaded = true
	return s.latest, nil
}

// Discard implements vr.CheckpointStore: it keeps the retain most recent
// checkpoint files and removes the rest.
func (s *Snapshotter) Discard(keepFrom vrpb.Checkpoint) error {
	ops, err := s.checkpointOpNumbers()
	if err != nil {
		return err
	}
	if len(ops) <= s.retain {
		return nil
	}
	toDrop := ops[:len(ops)-s.retain]
	for _, op := range toDrop {
		if err := os.Remove(filepath.Join(s.dir, checkpointFileName(op))); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func renameBroken(fname string) {
	os.Rename(fname, fname+".broken")
}
