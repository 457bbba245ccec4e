package voice

// State is the lifecycle position of a controller.
type State string

const (
	StateIdle          State = "idle"
	StateConnecting    State = "connecting"
	StateConnected     State = "connected"
	StateDisconnecting State = "disconnecting"
)

// Status is a read-only snapshot for renderers.
type Status struct {
	State             State  `json:"state"`
	SessionID         string `json:"sessionId,omitempty"`
	AgentID           string `json:"agentId,omitempty"`
	UserID            string `json:"userId,omitempty"`
	Identity          string `json:"identity,omitempty"`
	MicrophoneEnabled bool   `json:"microphoneEnabled"`
	Muted             bool   `json:"muted"`
}

// Active reports whether a session owns (or is acquiring) a room.
func (s Status) Active() bool {
	return s.State != StateIdle
}
