package server

const (
	eventNewScore    = "new-score"
	eventDeleteScore = "delete-score"
)

// scoreEvent is the envelope pushed to dashboard sessions.
type scoreEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type deletePayload struct {
	ID uint `json:"id"`
}
