package interview

import (
	"time"

	"mockmate/internal/questions"
	"mockmate/internal/sessions"
	"mockmate/internal/stages"
)

// Phase is the engine lifecycle.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseInProgress Phase = "in_progress"
	PhaseComplete   Phase = "complete"
)

// Score categories carried in every state. Nothing in the engine writes them.
var scoreCategories = []string{"technical", "behavioral", "communication", "culture_fit", "overall"}

// StartInput describes a new interview. SessionID is generated when empty.
type StartInput struct {
	SessionID  string `json:"sessionId,omitempty"`
	UserID     string `json:"userId,omitempty"`
	Role       string `json:"role"`
	Level      string `json:"level"`
	ResumeText string `json:"resumeText,omitempty"`
}

// Question is a dispensed question with its place in the plan.
type Question struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	Stage            string          `json:"stage"`
	StageDescription string          `json:"stageDescription,omitempty"`
	Skill            string          `json:"skill,omitempty"`
	Difficulty       int             `json:"difficulty,omitempty"`
	Progress         stages.Progress `json:"progress"`
}

// AskedQuestion is a question snapshot kept in the in-memory state.
type AskedQuestion struct {
	questions.Record
	Skipped bool      `json:"skipped"`
	AskedAt time.Time `json:"askedAt"`
}

// State is a read-only snapshot of one interview.
type State struct {
	SessionID         string             `json:"sessionId"`
	UserID            string             `json:"userId,omitempty"`
	Role              string             `json:"role"`
	Level             string             `json:"level"`
	Phase             Phase              `json:"phase"`
	PlanVersion       string             `json:"planVersion"`
	CurrentStageIndex int                `json:"currentStageIndex"`
	CurrentStage      string             `json:"currentStage"`
	AskedQuestions    []AskedQuestion    `json:"askedQuestions"`
	Answers           []sessions.Answer  `json:"answers"`
	CurrentQuestion   *Question          `json:"currentQuestion"`
	Topics            []string           `json:"topics,omitempty"`
	Scores            map[string]float64 `json:"scores"`
	StartedAt         time.Time          `json:"startedAt"`
}

func (s State) clone() State {
	out := s
	out.AskedQuestions = append([]AskedQuestion(nil), s.AskedQuestions...)
	out.Answers = append([]sessions.Answer(nil), s.Answers...)
	out.Topics = append([]string(nil), s.Topics...)
	if s.CurrentQuestion != nil {
		q := *s.CurrentQuestion
		out.CurrentQuestion = &q
	}
	out.Scores = make(map[string]float64, len(s.Scores))
	for k, v := range s.Scores {
		out.Scores[k] = v
	}
	return out
}

// StartResult is returned by Start.
type StartResult struct {
	SessionID string    `json:"sessionId"`
	State     State     `json:"state"`
	Question  *Question `json:"question"`
}

// SubmitResult is the outcome of an answer or skip. A mismatch is reported
// here with Success false rather than as an error.
type SubmitResult struct {
	Success           bool      `json:"success"`
	Error             string    `json:"error,omitempty"`
	NextQuestion      *Question `json:"nextQuestion"`
	InterviewComplete bool      `json:"interviewComplete"`
}
