package vr

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/misalcedo/vr/vrpb"
)

// fakeService is a minimal deterministic Service: Execute appends the
// operation to an in-memory log and returns a reply describing where it
// landed, so tests can assert both the reply and the replicated order. If
// a prediction is supplied, the reply echoes it instead of recomputing
// anything, so tests can assert the prediction is what actually determined
// the outcome rather than being cross-checked against.
type fakeService struct {
	ops        []string
	predictors map[string][]byte
}

func (s *fakeService) Execute(opNumber uint64, operation, prediction []byte, hasPrediction bool) []byte {
	s.ops = append(s.ops, string(operation))
	if hasPrediction {
		return []byte(fmt.Sprintf("ok:%d:%s:predicted:%s", opNumber, operation, prediction))
	}
	return []byte(fmt.Sprintf("ok:%d:%s", opNumber, operation))
}

func (s *fakeService) Predict(operation []byte) ([]byte, bool) {
	p, ok := s.predictors[string(operation)]
	return p, ok
}

func (s *fakeService) Take() []byte {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s.ops); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func (s *fakeService) Restore(snapshot []byte) error {
	var ops []string
	if err := gob.NewDecoder(bytes.NewReader(snapshot)).Decode(&ops); err != nil {
		return err
	}
	s.ops = ops
	return nil
}

// fakeCheckpointStore is an in-memory CheckpointStore good enough for unit
// tests that never restart a process.
type fakeCheckpointStore struct {
	byOp   map[uint64][]byte
	latest vrpb.Checkpoint
}

func newFakeCheckpointStore() *fakeCheckpointStore {
	return &fakeCheckpointStore{byOp: make(map[uint64][]byte)}
}

func (f *fakeCheckpointStore) Save(cp vrpb.Checkpoint, snapshot []byte) error {
	f.byOp[cp.OpNumber] = snapshot
	if cp.OpNumber >= f.latest.OpNumber {
		f.latest = cp
	}
	return nil
}

func (f *fakeCheckpointStore) Load(cp vrpb.Checkpoint) ([]byte, error) {
	b, ok := f.byOp[cp.OpNumber]
	if !ok {
		return nil, ErrUnavailable
	}
	return b, nil
}

func (f *fakeCheckpointStore) Latest() (vrpb.Checkpoint, error) {
	return f.latest, nil
}

func (f *fakeCheckpointStore) Discard(keepFrom vrpb.Checkpoint) error {
	for op := range f.byOp {
		if op < keepFrom.OpNumber {
			delete(f.byOp, op)
		}
	}
	return nil
}

func testConfig(index, clusterSize uint64) Config {
	cfg := DefaultConfig()
	cfg.Index = index
	cfg.ClusterSize = clusterSize
	cfg.Service = &fakeService{}
	cfg.CheckpointStore = newFakeCheckpointStore()
	cfg.Logger = discardLogger{}
	return cfg
}

// newTestReplica returns a replica already in StatusNormal at view 0, as
// if it had just finished recovering at cluster startup.
func newTestReplica(index, clusterSize uint64) *replica {
	r := newReplica(testConfig(index, clusterSize))
	r.becomeNormal(0)
	r.drainOutbox()
	return r
}

// findMessage returns the first outbound message of type t, if any.
func findMessage(msgs []vrpb.Message, t vrpb.MessageType) (vrpb.Message, bool) {
	for _, m := range msgs {
		if m.Type == t {
			return m, true
		}
	}
	return vrpb.Message{}, false
}

func countMessages(msgs []vrpb.Message, t vrpb.MessageType) int {
	n := 0
	for _, m := range msgs {
		if m.Type == t {
			n++
		}
	}
	return n
}
