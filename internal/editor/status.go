package editor

// State is the orchestrator's busy indicator.
type State string

const (
	StateIdle    State = "idle"
	StatePending State = "pending"
	StateFailed  State = "failed"
)

// Status is what the presentation layer renders next to the image. Failed
// carries the last error text and does not block the next action.
type Status struct {
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s Status) Pending() bool { return s.State == StatePending }
