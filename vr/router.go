package vr

import "github.com/misalcedo/vr/vrpb"

// step dispatches an inbound Message to the handler for its Type. It is
// the sole entry point the actor loop uses for anything arriving off the
// wire; Propose (client operations submitted locally) goes through
// handleRequest directly instead. A Recovering replica drops everything
// except RecoveryResponse; in the other statuses each handler checks the
// replica's status itself.
func (r *replica) step(msg vrpb.Message) {
	if r.status == StatusRecovering && msg.Type != vrpb.MESSAGE_TYPE_RECOVERY_RESPONSE {
		return
	}
	switch msg.Type {
	case vrpb.MESSAGE_TYPE_REQUEST:
		r.handleRequest(msg.ClientID, msg.RequestNumber, msg.Operation)
	case vrpb.MESSAGE_TYPE_PREPARE:
		r.handlePrepare(msg)
	case vrpb.MESSAGE_TYPE_PREPARE_OK:
		r.handlePrepareOk(msg)
	case vrpb.MESSAGE_TYPE_COMMIT:
		r.handleCommit(msg)
	case vrpb.MESSAGE_TYPE_START_VIEW_CHANGE:
		r.handleStartViewChange(msg)
	case vrpb.MESSAGE_TYPE_DO_VIEW_CHANGE:
		r.handleDoViewChange(msg)
	case vrpb.MESSAGE_TYPE_START_VIEW:
		r.handleStartView(msg)
	case vrpb.MESSAGE_TYPE_GET_STATE:
		r.handleGetState(msg)
	case vrpb.MESSAGE_TYPE_NEW_STATE:
		r.handleNewState(msg)
	case vrpb.MESSAGE_TYPE_RECOVERY:
		r.handleRecovery(msg)
	case vrpb.MESSAGE_TYPE_RECOVERY_RESPONSE:
		r.handleRecoveryResponse(msg)
	default:
		r.logger.Warningf("vr: replica %d dropping message of unknown type %v", r.index, msg.Type)
	}
}

// tick advances this replica's timers by one unit, whatever the host
// chooses that unit to mean — the engine itself is clock-agnostic.
func (r *replica) tick() {
	switch r.status {
	case StatusNormal:
		r.tickNormal()
	case StatusViewChange:
		r.tickViewChange()
	case StatusRecovering:
		r.tickRecovery()
	case StatusTransferring:
		r.tickTransfer()
	}
}
