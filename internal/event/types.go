package event

const (
	EventNavArrived  = "nav.arrived"
	EventNavMode     = "nav.mode"
	EventNavRecovery = "nav.recovery"
	EventNavDisabled = "nav.disabled"
	EventNavTarget   = "nav.target"
	EventRunState    = "run.state"
	EventRunTarget   = "run.target"
)

type ArrivedEvent struct {
	X, Y, Z int
	HasY    bool
}

type TargetEvent struct {
	X, Y, Z int
	HasY    bool
	Index   int
}

type ModeEvent struct {
	From string
	To   string
}

type RecoveryPhase string

const (
	RecoveryClimb    RecoveryPhase = "climb"
	RecoveryPathfind RecoveryPhase = "pathfind"
	RecoveryFinished RecoveryPhase = "finished"
	RecoveryFailed   RecoveryPhase = "failed"
)

type RecoveryEvent struct {
	Phase  RecoveryPhase
	Reason string
	GoalX  int
	GoalY  int
	GoalZ  int
}

type DisabledEvent struct {
	Reason string
}

type RunStateEvent struct {
	From string
	To   string
}

type RunTargetEvent struct {
	Dimension string
	X, Y, Z   int
	Status    string
}
