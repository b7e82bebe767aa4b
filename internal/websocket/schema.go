package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventTick     Event = "tick"
	EventFinished Event = "finished"
	EventPong     Event = "pong"
	EventError    Event = "error"
)

// TickResponse is the countdown frame pushed once per second while an
// exam session is active, and once more when it finishes.
type TickResponse struct {
	Event         Event  `json:"event"`
	State         string `json:"state"`
	TimeLeft      int    `json:"time_left"`
	CurrentIndex  int    `json:"current_index"`
	AnsweredCount int    `json:"answered_count"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
