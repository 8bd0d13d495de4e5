package region

// State is a stage of one region translation request. A request moves
// through the stages in declaration order and ends in Done or Failed.
type State int

const (
	StateIdle State = iota
	StateInitializing
	StateRecognizing
	StateSelectingBackend
	StateTranslating
	StateMerging
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:             "idle",
	StateInitializing:     "initializing",
	StateRecognizing:      "recognizing",
	StateSelectingBackend: "selecting_backend",
	StateTranslating:      "translating",
	StateMerging:          "merging",
	StateDone:             "done",
	StateFailed:           "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether s ends a request.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
