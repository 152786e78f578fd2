package sessions

import "time"

const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Meta identifies who a session is for.
type Meta struct {
	UserID string `json:"userId,omitempty"`
	Role   string `json:"role"`
	Level  string `json:"level"`
}

// AskedQuestion is one entry of the session ledger.
type AskedQuestion struct {
	QuestionID   string    `json:"questionId"`
	QuestionText string    `json:"questionText"`
	Stage        string    `json:"stage,omitempty"`
	Skipped      bool      `json:"skipped,omitempty"`
	AskedAt      time.Time `json:"askedAt"`
}

// Session is the durable record of one interview. It is always written whole.
type Session struct {
	ID               string          `json:"sessionId"`
	UserID           string          `json:"userId,omitempty"`
	Role             string          `json:"role"`
	Level            string          `json:"level"`
	AskedQuestions   []AskedQuestion `json:"askedQuestions"`
	AskedQuestionIDs []string        `json:"askedQuestionIds"`
	Status           string          `json:"status"`
	StartedAt        time.Time       `json:"startedAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	CompletedAt      *time.Time      `json:"completedAt,omitempty"`
	Summary          *Summary        `json:"summary,omitempty"`
}

// HasAsked reports whether questionID is already in the ledger.
func (s Session) HasAsked(questionID string) bool {
	for _, id := range s.AskedQuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

func (s Session) clone() Session {
	out := s
	out.AskedQuestions = append([]AskedQuestion(nil), s.AskedQuestions...)
	out.AskedQuestionIDs = append([]string(nil), s.AskedQuestionIDs...)
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	if s.Summary != nil {
		sum := s.Summary.clone()
		out.Summary = &sum
	}
	return out
}

// Answer is a candidate response captured during the interview.
type Answer struct {
	QuestionID string    `json:"questionId"`
	Answer     string    `json:"answer"`
	Stage      string    `json:"stage"`
	Timestamp  time.Time `json:"timestamp"`
}

// StageCount is the number of questions asked in a stage against its quota.
type StageCount struct {
	Stage string `json:"stage"`
	Asked int    `json:"asked"`
	Quota int    `json:"quota"`
}

// SummaryQuestion is one asked question as reported in a summary.
type SummaryQuestion struct {
	QuestionID string    `json:"questionId"`
	Text       string    `json:"text"`
	Stage      string    `json:"stage"`
	Difficulty int       `json:"difficulty,omitempty"`
	Skill      string    `json:"skill,omitempty"`
	Skipped    bool      `json:"skipped"`
	AskedAt    time.Time `json:"askedAt"`
}

// Summary is the frozen report of a completed interview.
type Summary struct {
	SessionID        string             `json:"sessionId"`
	UserID           string             `json:"userId,omitempty"`
	Role             string             `json:"role"`
	Level            string             `json:"level"`
	PlanVersion      string             `json:"planVersion"`
	StartedAt        time.Time          `json:"startedAt"`
	CompletedAt      time.Time          `json:"completedAt"`
	DurationMinutes  int                `json:"durationMinutes"`
	PlannedQuestions int                `json:"plannedQuestions"`
	QuestionsAsked   int                `json:"questionsAsked"`
	Answered         int                `json:"answered"`
	Skipped          int                `json:"skipped"`
	EndedEarly       bool               `json:"endedEarly"`
	StageBreakdown   []StageCount       `json:"stageBreakdown"`
	Questions        []SummaryQuestion  `json:"questions"`
	Answers          []Answer           `json:"answers"`
	Scores           map[string]float64 `json:"scores"`
}

func (s Summary) clone() Summary {
	out := s
	out.StageBreakdown = append([]StageCount(nil), s.StageBreakdown...)
	out.Questions = append([]SummaryQuestion(nil), s.Questions...)
	out.Answers = append([]Answer(nil), s.Answers...)
	if s.Scores != nil {
		out.Scores = make(map[string]float64, len(s.Scores))
		for k, v := range s.Scores {
			out.Scores[k] = v
		}
	}
	return out
}

// Stats is a lightweight view of a session.
type Stats struct {
	SessionID       string     `json:"sessionId"`
	Status          string     `json:"status"`
	QuestionsAsked  int        `json:"questionsAsked"`
	StartedAt       time.Time  `json:"startedAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	DurationMinutes *int       `json:"durationMinutes"`
}
