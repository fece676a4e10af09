package pipeline

// State is the orchestrator lifecycle phase.
type State int32

const (
	StateIdle State = iota
	StateScanning
	StateUploading
	StateDraining
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateUploading:
		return "uploading"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
