package vr

import (
	"time"

	"github.com/misalcedo/vr/idutil"
	"github.com/misalcedo/vr/vrpb"
)

// replica holds all of one cluster member's protocol state. Exactly one
// goroutine — the one run by node.run — ever calls its methods,
// so nothing here needs its own locking.
type replica struct {
	cfg    Config
	logger Logger

	index       uint64
	clusterSize uint64

	status         Status
	view           uint64
	lastNormalView uint64

	log          *replicaLog
	clients      *clientTable
	commitNumber uint64

	prepared *progressSet // non-nil only while status == StatusNormal && isPrimary()

	vc       *viewChangeState  // non-nil only while status == StatusViewChange
	recovery *recoveryState    // non-nil only while status == StatusRecovering
	transfer *transferState    // non-nil only while status == StatusTransferring

	latestCheckpoint vrpb.Checkpoint
	checkpoints      []vrpb.Checkpoint // oldest first; at most cfg.RetainedCheckpoints+1 long, momentarily, inside retainCheckpoint

	commitWatchdogElapsed int
	heartbeatElapsed      int

	nonces *idutil.Generator

	outboxMsgs    []vrpb.Message
	outboxReplies []ClientReply
	softDirty     bool
}

// ClientReply is a completed client operation's result, handed to the host
// through Ready so it can be delivered back over whatever transport the
// client used to submit the request.
type ClientReply struct {
	ClientID      uint64
	RequestNumber uint64
	View          uint64
	Payload       []byte
}

func newReplica(cfg Config) *replica {
	r := &replica{
		cfg:         cfg,
		logger:      cfg.Logger,
		index:       cfg.Index,
		clusterSize: cfg.ClusterSize,
		status:      StatusRecovering,
		log:         newReplicaLog(0),
		clients:     newClientTable(cfg.StrictClientRequestNumbers),
		nonces:      idutil.NewGenerator(uint16(cfg.Index), time.Now()),
	}
	if r.logger == nil {
		r.logger = newDefaultLogger()
	}
	return r
}

func (r *replica) primaryIndex(view uint64) uint64 {
	return view % r.clusterSize
}

func (r *replica) isPrimary() bool {
	return r.status == StatusNormal && r.primaryIndex(r.view) == r.index
}

func (r *replica) quorum() int {
	return r.cfg.quorum()
}

func (r *replica) send(to uint64, build func(*vrpb.Message)) {
	msg := vrpb.Message{From: r.index, To: to, View: r.view}
	build(&msg)
	r.outboxMsgs = append(r.outboxMsgs, msg)
}

func (r *replica) broadcast(build func(*vrpb.Message)) {
	for i := uint64(0); i < r.clusterSize; i++ {
		if i == r.index {
			continue
		}
		r.send(i, build)
	}
}

func (r *replica) reply(clientID, requestNumber uint64, payload []byte) {
	r.outboxReplies = append(r.outboxReplies, ClientReply{
		ClientID:      clientID,
		RequestNumber: requestNumber,
		View:          r.view,
		Payload:       payload,
	})
}

// becomeNormal transitions into Normal operation at view v, clearing any
// view-change, recovery, or transfer state that led up to it.
func (r *replica) becomeNormal(v uint64) {
	r.status = StatusNormal
	r.view = v
	r.lastNormalView = v
	r.vc = nil
	r.recovery = nil
	r.transfer = nil
	r.commitWatchdogElapsed = 0
	r.heartbeatElapsed = 0
	if r.isPrimary() {
		r.prepared = newProgressSet(r.clusterSize, r.index)
	} else {
		r.prepared = nil
	}
	r.softDirty = true
}

func (r *replica) status_() Status { return r.status }

// drainOutbox hands back and clears everything the replica has queued for
// the host since the last drain.
func (r *replica) drainOutbox() ([]vrpb.Message, []ClientReply) {
	msgs, replies := r.outboxMsgs, r.outboxReplies
	r.outboxMsgs, r.outboxReplies = nil, nil
	return msgs, replies
}
