package transfer

// State is the lifecycle position of a Session.
type State int

const (
	StateIdle State = iota
	StatePreparing
	StateEncrypting
	StateOpeningAtomic
	StateContinuing
	StateFetching
	StateDecrypting
	StateCompleted
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:          "idle",
	StatePreparing:     "preparing",
	StateEncrypting:    "encrypting",
	StateOpeningAtomic: "opening_atomic",
	StateContinuing:    "continuing",
	StateFetching:      "fetching",
	StateDecrypting:    "decrypting",
	StateCompleted:     "completed",
	StateFailed:        "failed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}
