package workflow

// State is a step of a translation run.
type State int

const (
	StateIdle State = iota
	StatePopulating
	StateTranslating
	StateAssembling
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePopulating:
		return "populating"
	case StateTranslating:
		return "translating"
	case StateAssembling:
		return "assembling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition follows s within a run.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
