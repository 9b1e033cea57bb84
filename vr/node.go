package vr

import (
	"context"

	"github.com/misalcedo/vr/vrpb"
)

// Node is the actor-facing API a host embeds to run one replica. Exactly
// one goroutine, started by StartNode, drives the replica's state; every
// other goroutine talks to it only through this interface.
type Node interface {
	// Tick advances the replica's internal timers by one unit. The host
	// decides what a unit means by calling this on a steady cadence, e.g.
	// once per 100ms. It returns at once unless 128 earlier ticks are
	// still queued, in which case it waits for the actor loop to take one.
	Tick()

	// Step hands the replica an inbound message received over the wire.
	Step(ctx context.Context, msg vrpb.Message) error

	// Propose submits a client operation directly, without going through
	// Step and a REQUEST message; useful when the host itself is the
	// client-facing edge. It returns ErrNotPrimary without blocking if
	// this replica does not believe itself to be primary.
	Propose(ctx context.Context, clientID, requestNumber uint64, operation []byte) error

	// Ready returns the channel the host should receive from in a select
	// loop; it carries outbound messages and client replies to deliver.
	Ready() <-chan Ready

	// Advance must be called once the host has finished acting on the
	// most recently received Ready, to let the actor loop prepare the
	// next one.
	Advance()

	// Status returns a point-in-time snapshot of the replica's state, safe
	// to call from any goroutine.
	Status() NodeStatus

	// Stop shuts the actor loop down. Subsequent Step and Propose calls
	// return ErrStopped; Tick and Advance return without effect, and
	// Status returns the zero NodeStatus.
	Stop()
}

// NodeStatus is the point-in-time snapshot returned by Node.Status.
type NodeStatus struct {
	Index          uint64
	View           uint64
	Status         Status
	IsPrimary      bool
	OpNumber       uint64
	CommitNumber   uint64
	LogBase        uint64
	LastNormalView uint64
}

type proposeRequest struct {
	clientID      uint64
	requestNumber uint64
	operation     []byte
	result        chan error
}

type stepRequest struct {
	msg    vrpb.Message
	result chan error
}

type node struct {
	recvc    chan stepRequest
	proposec chan proposeRequest
	tickc    chan struct{}
	readyc   chan Ready
	advancec chan struct{}
	statusc  chan chan NodeStatus
	stopc    chan struct{}
	donec    chan struct{}
}

// StartNode constructs a replica from cfg, starts its actor goroutine in
// StatusRecovering (or, with cfg.Bootstrap, in StatusNormal at view 0),
// and returns the Node handle to drive it. cfg must pass validate();
// StartNode panics if it does not.
func StartNode(cfg Config) Node {
	if err := cfg.validate(); err != nil {
		panic(err)
	}
	n := &node{
		recvc:    make(chan stepRequest),
		proposec: make(chan proposeRequest),
		tickc:    make(chan struct{}, 128),
		readyc:   make(chan Ready),
		advancec: make(chan struct{}),
		statusc:  make(chan chan NodeStatus),
		stopc:    make(chan struct{}),
		donec:    make(chan struct{}),
	}
	r := newReplica(cfg)
	go n.run(r)
	return n
}

func (n *node) run(r *replica) {
	if r.cfg.Bootstrap {
		r.becomeNormal(0)
	} else {
		r.beginRecovery()
	}
	rd := r.collectReady()

	var advancec chan struct{}
	for {
		var readyc chan Ready
		if rd.ContainsUpdates() && advancec == nil {
			readyc = n.readyc
		}

		select {
		case sr := <-n.recvc:
			r.step(sr.msg)
			sr.result <- nil
		case pr := <-n.proposec:
			pr.result <- r.handleRequest(pr.clientID, pr.requestNumber, pr.operation)
		case <-n.tickc:
			r.tick()
		case c := <-n.statusc:
			c <- r.snapshotStatus()
		case readyc <- rd:
			advancec = n.advancec
			rd = Ready{}
		case <-advancec:
			advancec = nil
		case <-n.stopc:
			close(n.donec)
			return
		}

		rd = mergeReady(rd, r.collectReady())
	}
}

func mergeReady(base, fresh Ready) Ready {
	if fresh.SoftState != nil {
		base.SoftState = fresh.SoftState
	}
	base.MessagesToSend = append(base.MessagesToSend, fresh.MessagesToSend...)
	base.RepliesToSend = append(base.RepliesToSend, fresh.RepliesToSend...)
	return base
}

func (r *replica) collectReady() Ready {
	msgs, replies := r.drainOutbox()
	var ss *SoftState
	if r.softDirty {
		ss = &SoftState{View: r.view, Status: r.status, IsPrimary: r.isPrimary()}
		r.softDirty = false
	}
	return Ready{SoftState: ss, MessagesToSend: msgs, RepliesToSend: replies}
}

func (r *replica) snapshotStatus() NodeStatus {
	return NodeStatus{
		Index:          r.index,
		View:           r.view,
		Status:         r.status,
		IsPrimary:      r.isPrimary(),
		OpNumber:       r.log.lastOpNumber(),
		CommitNumber:   r.commitNumber,
		LogBase:        r.log.base,
		LastNormalView: r.lastNormalView,
	}
}

func (n *node) Tick() {
	select {
	case n.tickc <- struct{}{}:
	case <-n.donec:
	}
}

func (n *node) Step(ctx context.Context, msg vrpb.Message) error {
	sr := stepRequest{msg: msg, result: make(chan error, 1)}
	select {
	case n.recvc <- sr:
	case <-n.donec:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-sr.result:
		return err
	case <-n.donec:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *node) Propose(ctx context.Context, clientID, requestNumber uint64, operation []byte) error {
	pr := proposeRequest{clientID: clientID, requestNumber: requestNumber, operation: operation, result: make(chan error, 1)}
	select {
	case n.proposec <- pr:
	case <-n.donec:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-pr.result:
		return err
	case <-n.donec:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *node) Ready() <-chan Ready { return n.readyc }

func (n *node) Advance() {
	select {
	case n.advancec <- struct{}{}:
	case <-n.donec:
	}
}

func (n *node) Status() NodeStatus {
	c := make(chan NodeStatus, 1)
	select {
	case n.statusc <- c:
	case <-n.donec:
		return NodeStatus{}
	}
	select {
	case st := <-c:
		return st
	case <-n.donec:
		return NodeStatus{}
	}
}

func (n *node) Stop() {
	select {
	case n.stopc <- struct{}{}:
	case <-n.donec:
	}
}
