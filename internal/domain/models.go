package domain

import "time"

// OptionCount is the number of options every question carries. Selected and
// correct answer indexes are always in [0, OptionCount).
const OptionCount = 4

// Question models a single MCQ with exactly one correct option.
type Question struct {
	Text             string   `json:"questionText" bson:"questionText"`
	Options          []string `json:"options" bson:"options"`
	CorrectIndex     int      `json:"correctAnswerIndex" bson:"correctAnswerIndex"`
	Explanation      string   `json:"explanation" bson:"explanation"`
	Points           int      `json:"points" bson:"points"`
	TimeLimitSeconds int      `json:"timeLimit" bson:"timeLimit"`
}

// Quiz is an immutable question set produced by the catalog. Only the
// aggregate statistics (TimesAttempted, AverageScore) are ever updated
// after creation.
type Quiz struct {
	ID             string     `json:"id" bson:"_id"`
	Title          string     `json:"title" bson:"title"`
	Category       string     `json:"category" bson:"category"`
	Difficulty     string     `json:"difficulty" bson:"difficulty"`
	Questions      []Question `json:"questions" bson:"questions"`
	TotalPoints    int        `json:"totalPoints" bson:"totalPoints"`
	TimesAttempted int        `json:"timesAttempted" bson:"timesAttempted"`
	AverageScore   int        `json:"averageScore" bson:"averageScore"`
	CreatedAt      time.Time  `json:"createdAt" bson:"createdAt"`
}

// QuestionView is the answer-free form of a question shown to a player.
type QuestionView struct {
	Text             string   `json:"questionText"`
	Options          []string `json:"options"`
	Points           int      `json:"points"`
	TimeLimitSeconds int      `json:"timeLimit"`
}

// QuizView is the quiz as served to a player: no correct indexes, no
// explanations.
type QuizView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Category    string         `json:"category"`
	Difficulty  string         `json:"difficulty"`
	Questions   []QuestionView `json:"questions"`
	TotalPoints int            `json:"totalPoints"`
}

// PlayerView strips the answer key for delivery to a participant.
func (q Quiz) PlayerView() QuizView {
	questions := make([]QuestionView, len(q.Questions))
	for i, question := range q.Questions {
		questions[i] = QuestionView{
			Text:             question.Text,
			Options:          question.Options,
			Points:           question.Points,
			TimeLimitSeconds: question.TimeLimitSeconds,
		}
	}
	return QuizView{
		ID:          q.ID,
		Title:       q.Title,
		Category:    q.Category,
		Difficulty:  q.Difficulty,
		Questions:   questions,
		TotalPoints: q.TotalPoints,
	}
}

// AnswerSubmission is one user's answer to one question.
type AnswerSubmission struct {
	QuestionIndex    int `json:"questionIndex"`
	SelectedAnswer   int `json:"selectedAnswer"`
	TimeSpentSeconds int `json:"timeSpent"`
}

// GradedAnswer is the graded form of an AnswerSubmission.
type GradedAnswer struct {
	QuestionIndex    int  `json:"questionIndex" bson:"questionIndex"`
	SelectedAnswer   int  `json:"selectedAnswer" bson:"selectedAnswer"`
	IsCorrect        bool `json:"isCorrect" bson:"isCorrect"`
	PointsEarned     int  `json:"pointsEarned" bson:"pointsEarned"`
	TimeSpentSeconds int  `json:"timeSpent" bson:"timeSpent"`
}

// GradingResult aggregates the grading of one full submission.
type GradingResult struct {
	Answers         []GradedAnswer `json:"answers"`
	Score           int            `json:"score"`
	Percentage      int            `json:"percentage"`
	TotalQuestions  int            `json:"totalQuestions"`
	CorrectAnswers  int            `json:"correctAnswers"`
	DurationSeconds int            `json:"duration"`
}

// QuizAttempt is the persisted record of one grading event. Attempts are
// write-once: a new submission always produces a new attempt.
type QuizAttempt struct {
	ID              string         `json:"id" bson:"_id"`
	UserID          string         `json:"userId" bson:"userId"`
	QuizID          string         `json:"quizId" bson:"quizId"`
	ChallengeID     string         `json:"challengeId,omitempty" bson:"challengeId,omitempty"`
	Answers         []GradedAnswer `json:"answers" bson:"answers"`
	Score           int            `json:"score" bson:"score"`
	Percentage      int            `json:"percentage" bson:"percentage"`
	TotalQuestions  int            `json:"totalQuestions" bson:"totalQuestions"`
	CorrectAnswers  int            `json:"correctAnswers" bson:"correctAnswers"`
	DurationSeconds int            `json:"duration" bson:"duration"`
	CompletedAt     time.Time      `json:"completedAt" bson:"completedAt"`
	CreatedAt       time.Time      `json:"createdAt" bson:"createdAt"`
}

// ChallengeStatus is the lifecycle state of a challenge. Transitions only
// move forward: pending -> accepted -> completed, with declined and expired
// as terminal branches off pending.
type ChallengeStatus string

const (
	StatusPending   ChallengeStatus = "pending"
	StatusAccepted  ChallengeStatus = "accepted"
	StatusDeclined  ChallengeStatus = "declined"
	StatusCompleted ChallengeStatus = "completed"
	StatusExpired   ChallengeStatus = "expired"
)

// Terminal reports whether no further transition is permitted from s.
func (s ChallengeStatus) Terminal() bool {
	return s == StatusDeclined || s == StatusCompleted || s == StatusExpired
}

// ChallengeScore is one participant's outcome slot inside a challenge.
// It is an owned value embedded in the challenge document, never a
// separately referenced entity. Completed is monotonic.
type ChallengeScore struct {
	UserID      string     `json:"userId" bson:"userId"`
	AttemptID   string     `json:"attemptId,omitempty" bson:"attemptId,omitempty"`
	Score       int        `json:"score" bson:"score"`
	Percentage  int        `json:"percentage" bson:"percentage"`
	Completed   bool       `json:"completed" bson:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}

// Challenge is a head-to-head quiz session between two distinct users.
type Challenge struct {
	ID              string          `json:"id" bson:"_id"`
	ChallengerID    string          `json:"challengerId" bson:"challengerId"`
	ChallengedID    string          `json:"challengedId" bson:"challengedId"`
	QuizID          string          `json:"quizId" bson:"quizId"`
	Category        string          `json:"category" bson:"category"`
	Difficulty      string          `json:"difficulty" bson:"difficulty"`
	Status          ChallengeStatus `json:"status" bson:"status"`
	ChallengerScore ChallengeScore  `json:"challengerScore" bson:"challengerScore"`
	ChallengedScore ChallengeScore  `json:"challengedScore" bson:"challengedScore"`
	WinnerID        string          `json:"winnerId,omitempty" bson:"winnerId,omitempty"`
	IsDraw          bool            `json:"isDraw" bson:"isDraw"`
	ExpiresAt       time.Time       `json:"expiresAt" bson:"expiresAt"`
	AcceptedAt      *time.Time      `json:"acceptedAt,omitempty" bson:"acceptedAt,omitempty"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt" bson:"createdAt"`
}

// IsParticipant reports whether userID is one of the two players.
func (c Challenge) IsParticipant(userID string) bool {
	return c.ChallengerID == userID || c.ChallengedID == userID
}

// ScoreFor returns the slot owned by userID. ok is false for non-participants.
func (c Challenge) ScoreFor(userID string) (ChallengeScore, bool) {
	switch userID {
	case c.ChallengerID:
		return c.ChallengerScore, true
	case c.ChallengedID:
		return c.ChallengedScore, true
	}
	return ChallengeScore{}, false
}

// Opponent returns the other participant's id.
func (c Challenge) Opponent(userID string) string {
	if userID == c.ChallengerID {
		return c.ChallengedID
	}
	return c.ChallengerID
}

// BothCompleted reports whether both score slots are filled.
func (c Challenge) BothCompleted() bool {
	return c.ChallengerScore.Completed && c.ChallengedScore.Completed
}
