package domain

import "time"

// Event is a tagged notification variant delivered through the fan-out hub.
// The set of implementations is closed; each carries a fully typed payload
// so a missing field is a compile error, not a silent hole on the wire.
type Event interface {
	EventName() string
}

// ChallengeCreated is sent to the challenged user when a challenge is issued.
type ChallengeCreated struct {
	ChallengeID string    `json:"challengeId"`
	Challenger  string    `json:"challengerId"`
	Category    string    `json:"category"`
	Difficulty  string    `json:"difficulty"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Message     string    `json:"message"`
}

func (ChallengeCreated) EventName() string { return "challenge:created" }

// ChallengeAccepted is sent to the challenger when their challenge is accepted.
type ChallengeAccepted struct {
	ChallengeID string `json:"challengeId"`
	Message     string `json:"message"`
}

func (ChallengeAccepted) EventName() string { return "challenge:accepted" }

// ChallengeDeclined is sent to the challenger when their challenge is declined.
type ChallengeDeclined struct {
	ChallengeID string `json:"challengeId"`
	Message     string `json:"message"`
}

func (ChallengeDeclined) EventName() string { return "challenge:declined" }

// ChallengeProgress tells one participant that their opponent has finished.
// It deliberately carries no score.
type ChallengeProgress struct {
	ChallengeID string `json:"challengeId"`
	Message     string `json:"message"`
}

func (ChallengeProgress) EventName() string { return "challenge:progress" }

// ChallengeScores pairs both outcome slots for the completion payload.
type ChallengeScores struct {
	Challenger ChallengeScore `json:"challenger"`
	Challenged ChallengeScore `json:"challenged"`
}

// ChallengeCompleted is sent to both participants once both slots are filled.
type ChallengeCompleted struct {
	ChallengeID string          `json:"challengeId"`
	WinnerID    string          `json:"winnerId,omitempty"`
	IsDraw      bool            `json:"isDraw"`
	Scores      ChallengeScores `json:"scores"`
}

func (ChallengeCompleted) EventName() string { return "challenge:completed" }
