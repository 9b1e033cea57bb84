package vr

import "fmt"

// Config carries everything a replica needs to start: its place in the
// cluster, the timer cadences that drive view changes and heartbeats, the
// checkpoint/compaction policy, and the host-provided collaborators.
type Config struct {
	// Index is this replica's position in the cluster, 0-based. The
	// primary of view v is always the replica at index v % ClusterSize.
	Index uint64

	// ClusterSize is the number of replicas, 2f+1 for some f >= 1.
	ClusterSize uint64

	// CommitWatchdogTicks is how many consecutive Tick calls a backup
	// will wait without hearing from the primary (a Prepare or a Commit
	// heartbeat) before starting a view change.
	CommitWatchdogTicks int

	// PrimaryHeartbeatTicks is how often, in Tick calls, a primary with
	// nothing new to Prepare sends a Commit message to keep backups from
	// timing out.
	PrimaryHeartbeatTicks int

	// ViewChangeGraceTicks bounds how long a replica waits in
	// StatusViewChange or StatusRecovering for a quorum before
	// re-broadcasting its StartViewChange or Recovery message with a
	// fresh nonce.
	ViewChangeGraceTicks int

	// CheckpointInterval is K: every replica takes its own checkpoint once
	// its commit number is at least K ops past its latest checkpoint.
	CheckpointInterval uint64

	// RetainedCheckpoints is M: the number of most recent checkpoints a
	// replica keeps available for state transfer before compacting the
	// log underneath an older one.
	RetainedCheckpoints int

	// StrictClientRequestNumbers requires each client's request numbers
	// to arrive as exactly last+1; when false, any requestNumber greater
	// than last is accepted as new. Defaults to true (strict) via
	// DefaultConfig.
	StrictClientRequestNumbers bool

	// Service is the state machine being replicated.
	Service Service

	// CheckpointStore durably keeps the checkpoints the engine takes.
	// Config has no Transport: outbound messages reach the host through
	// Node.Ready.
	CheckpointStore CheckpointStore

	// Logger receives diagnostic output. Defaults to a *xlog.Logger
	// scoped to "vr" when nil.
	Logger Logger

	// Bootstrap starts the replica directly in StatusNormal at view 0
	// instead of StatusRecovering. Set it only for a cluster's very first
	// boot, when no other replica has any state to recover from either;
	// a replica restarting after a crash must leave this false so it
	// recovers its state from the rest of the cluster instead of
	// silently rejoining with an empty log.
	Bootstrap bool
}

// DefaultConfig returns a Config with the tick cadences and policy knobs
// this package recommends, leaving Index, ClusterSize, Service and
// CheckpointStore for the caller to fill in.
func DefaultConfig() Config {
	return Config{
		CommitWatchdogTicks:        10,
		PrimaryHeartbeatTicks:      3,
		ViewChangeGraceTicks:       20,
		CheckpointInterval:         100,
		RetainedCheckpoints:        3,
		StrictClientRequestNumbers: true,
	}
}

func (c *Config) validate() error {
	if c.ClusterSize < 3 || c.ClusterSize%2 == 0 {
		return fmt.Errorf("vr: cluster size must be odd and at least 3, got %d", c.ClusterSize)
	}
	if c.Index >= c.ClusterSize {
		return fmt.Errorf("vr: replica index %d out of range for cluster size %d", c.Index, c.ClusterSize)
	}
	if c.CommitWatchdogTicks <= 0 {
		return fmt.Errorf("vr: CommitWatchdogTicks must be positive")
	}
	if c.PrimaryHeartbeatTicks <= 0 {
		return fmt.Errorf("vr: PrimaryHeartbeatTicks must be positive")
	}
	if c.PrimaryHeartbeatTicks >= c.CommitWatchdogTicks {
		return fmt.Errorf("vr: PrimaryHeartbeatTicks must be smaller than CommitWatchdogTicks or backups will spuriously time out")
	}
	if c.ViewChangeGraceTicks <= 0 {
		return fmt.Errorf("vr: ViewChangeGraceTicks must be positive")
	}
	if c.CheckpointInterval == 0 {
		return fmt.Errorf("vr: CheckpointInterval must be positive")
	}
	if c.RetainedCheckpoints <= 0 {
		return fmt.Errorf("vr: RetainedCheckpoints must be positive")
	}
	if c.Service == nil {
		return fmt.Errorf("vr: Service must not be nil")
	}
	if c.CheckpointStore == nil {
		return fmt.Errorf("vr: CheckpointStore must not be nil")
	}
	return nil
}

// quorum is f+1, the minimum number of replicas (including self where
// applicable) that must agree before a view change, recovery, or commit
// may proceed.
func (c *Config) quorum() int {
	return int(c.ClusterSize)/2 + 1
}
