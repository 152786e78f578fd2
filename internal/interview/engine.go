package interview

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mockmate/internal/questions"
	"mockmate/internal/selector"
	"mockmate/internal/sessions"
	"mockmate/internal/shared/metrics"
	"mockmate/internal/stages"
)

// Deps are the collaborators shared by every engine.
type Deps struct {
	Plan      *stages.Sequencer
	Questions *questions.Repository
	Selector  *selector.Selector
	Sessions  *sessions.Service
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.Selector == nil {
		d.Selector = selector.New(d.Logger, d.Metrics.IncRecycled)
	}
	return d
}

// Engine drives one interview through the stage plan. All methods are
// serialized by an internal mutex, so concurrent calls for the same session
// never interleave.
type Engine struct {
	mu      sync.Mutex
	deps    Deps
	logger  *zap.Logger
	state   State
	summary *sessions.Summary
}

// NewEngine returns an engine in the not-started phase.
func NewEngine(deps Deps) *Engine {
	deps = deps.withDefaults()
	return &Engine{
		deps:   deps,
		logger: deps.Logger,
		state:  State{Phase: PhaseNotStarted},
	}
}

// Start creates the session record and dispenses the first question.
func (e *Engine) Start(ctx context.Context, in StartInput) (StartResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Phase != PhaseNotStarted {
		return StartResult{}, ErrAlreadyStarted
	}
	role := strings.TrimSpace(in.Role)
	if role == "" {
		return StartResult{}, fmt.Errorf("%w: role is required", ErrInvalidInput)
	}
	level := strings.ToLower(strings.TrimSpace(in.Level))
	if level == "" {
		return StartResult{}, fmt.Errorf("%w: level is required", ErrInvalidInput)
	}
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	sess, err := e.deps.Sessions.Create(ctx, sessionID, sessions.Meta{
		UserID: in.UserID,
		Role:   role,
		Level:  level,
	})
	if err != nil {
		return StartResult{}, err
	}

	scores := make(map[string]float64, len(scoreCategories))
	for _, c := range scoreCategories {
		scores[c] = 0
	}
	e.state = State{
		SessionID:         sess.ID,
		UserID:            sess.UserID,
		Role:              role,
		Level:             level,
		Phase:             PhaseInProgress,
		PlanVersion:       e.deps.Plan.Version(),
		CurrentStageIndex: 0,
		CurrentStage:      e.deps.Plan.StageOf(0),
		AskedQuestions:    []AskedQuestion{},
		Answers:           []sessions.Answer{},
		Topics:            selector.DetectTopics(in.ResumeText),
		Scores:            scores,
		StartedAt:         sess.StartedAt,
	}
	e.logger = e.deps.Logger.With(zap.String("session_id", sess.ID))
	e.deps.Metrics.IncStarted()
	e.logger.Info("interview started",
		zap.String("role", role),
		zap.String("level", level),
		zap.String("plan_version", e.state.PlanVersion),
		zap.Strings("topics", e.state.Topics),
	)

	q, err := e.nextQuestion(ctx)
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{SessionID: sess.ID, State: e.state.clone(), Question: copyQuestion(q)}, nil
}

// NextQuestion returns the pending question, selecting one when none is pending.
// A nil question with a nil error means every stage quota is consumed.
func (e *Engine) NextQuestion(ctx context.Context) (*Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Phase == PhaseNotStarted {
		return nil, ErrNotStarted
	}
	q, err := e.nextQuestion(ctx)
	return copyQuestion(q), err
}

// SubmitAnswer records answer for the current question and dispenses the next one.
func (e *Engine) SubmitAnswer(ctx context.Context, questionID, answer string) (SubmitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkActive(); err != nil {
		return SubmitResult{}, err
	}
	current := e.state.CurrentQuestion
	if current == nil || current.ID != questionID {
		e.deps.Metrics.IncAnswer(metrics.OutcomeMismatch)
		expected := ""
		if current != nil {
			expected = current.ID
		}
		e.logger.Info("answer rejected",
			zap.String("question_id", questionID),
			zap.String("expected_question_id", expected),
		)
		return SubmitResult{Success: false, Error: MismatchMessage}, nil
	}
	return e.advance(ctx, answer, false)
}

// Skip records the current question as skipped and dispenses the next one.
// Skipped questions stay in the ledger so they are never selected again.
func (e *Engine) Skip(ctx context.Context) (SubmitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkActive(); err != nil {
		return SubmitResult{}, err
	}
	if e.state.CurrentQuestion == nil {
		q, err := e.nextQuestion(ctx)
		if err != nil {
			return SubmitResult{}, err
		}
		if q == nil {
			return SubmitResult{Success: true, InterviewComplete: true}, nil
		}
	}
	return e.advance(ctx, "", true)
}

// Summary seals the session and returns the frozen report. Later calls return
// the same report. sealed is true only for the call that sealed the session.
func (e *Engine) Summary(ctx context.Context) (sum sessions.Summary, sealed bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Phase == PhaseNotStarted {
		return sessions.Summary{}, false, ErrNotStarted
	}
	if e.summary != nil {
		return *e.summary, false, nil
	}

	built := e.buildSummary(e.deps.Now())
	sess, err := e.deps.Sessions.Complete(ctx, e.state.SessionID, built)
	if err != nil {
		return sessions.Summary{}, false, err
	}
	stored := built
	if sess.Summary != nil {
		stored = *sess.Summary
	}
	e.summary = &stored
	e.state.Phase = PhaseComplete
	e.state.CurrentQuestion = nil

	e.deps.Metrics.ObserveCompleted(stored.DurationMinutes)
	e.logger.Info("interview completed",
		zap.Int("questions_asked", stored.QuestionsAsked),
		zap.Int("duration_minutes", stored.DurationMinutes),
		zap.Bool("ended_early", stored.EndedEarly),
	)
	return stored, true, nil
}

// State returns a snapshot of the in-memory state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// SessionID returns the id assigned at start.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.SessionID
}

// Stats reads session statistics from the store.
func (e *Engine) Stats(ctx context.Context) (sessions.Stats, error) {
	return e.deps.Sessions.Stats(ctx, e.SessionID())
}

func (e *Engine) checkActive() error {
	switch {
	case e.state.Phase == PhaseNotStarted:
		return ErrNotStarted
	case e.summary != nil:
		return ErrSessionCompleted
	case e.state.Phase == PhaseComplete:
		return ErrSessionCompleted
	}
	return nil
}

// nextQuestion must be called with e.mu held.
func (e *Engine) nextQuestion(ctx context.Context) (*Question, error) {
	if e.state.Phase == PhaseComplete {
		return nil, nil
	}
	if e.state.CurrentQuestion != nil {
		return e.state.CurrentQuestion, nil
	}

	asked := len(e.state.AskedQuestions)
	if asked >= e.deps.Plan.Total() {
		e.state.Phase = PhaseComplete
		e.logger.Info("all stage quotas consumed", zap.Int("questions_asked", asked))
		return nil, nil
	}

	if idx := e.deps.Plan.StageIndexOf(asked); idx > e.state.CurrentStageIndex {
		e.logger.Info("stage advanced",
			zap.String("from", e.state.CurrentStage),
			zap.String("to", e.deps.Plan.StageOf(asked)),
		)
		e.state.CurrentStageIndex = idx
	}
	stage := e.deps.Plan.StageOf(asked)
	e.state.CurrentStage = stage

	exclude, err := e.exclusion(ctx)
	if err != nil {
		return nil, err
	}
	criteria := selector.Criteria{
		Stage:      stage,
		Role:       e.state.Role,
		Level:      e.state.Level,
		ExcludeIDs: exclude,
	}
	if e.deps.Plan.ResumeTargeted(stage) {
		criteria.Topics = e.state.Topics
	}

	rec, ok := e.deps.Selector.Select(criteria, e.deps.Questions.LoadAll())
	if !ok {
		e.logger.Error("stage has no questions", zap.String("stage", stage))
		return nil, fmt.Errorf("%w: %s", ErrStageEmpty, stage)
	}

	q := &Question{
		ID:               rec.ID,
		Text:             rec.Text,
		Stage:            stage,
		StageDescription: e.deps.Plan.Description(stage),
		Skill:            rec.Skill,
		Difficulty:       rec.Difficulty,
		Progress:         e.deps.Plan.ProgressOf(asked),
	}
	e.state.CurrentQuestion = q
	e.deps.Metrics.IncDispensed(stage)
	e.logger.Debug("question dispensed",
		zap.String("question_id", rec.ID),
		zap.String("stage", stage),
		zap.Int("position", asked+1),
	)
	return q, nil
}

// exclusion unions the session ledger with the user's other sessions.
func (e *Engine) exclusion(ctx context.Context) ([]string, error) {
	own, err := e.deps.Sessions.AskedQuestionIDs(ctx, e.state.SessionID)
	if err != nil {
		return nil, err
	}
	if e.state.UserID == "" {
		return own, nil
	}
	prev, err := e.deps.Sessions.PreviouslyAskedQuestionIDs(ctx, e.state.UserID, e.state.SessionID)
	if err != nil {
		return nil, err
	}
	return append(own, prev...), nil
}

// advance persists the current question to the ledger, then updates local
// state and selects the next question. Must be called with e.mu held.
func (e *Engine) advance(ctx context.Context, answer string, skipped bool) (SubmitResult, error) {
	current := *e.state.CurrentQuestion
	now := e.deps.Now()

	if err := e.deps.Sessions.AddAskedQuestion(ctx, e.state.SessionID, sessions.AskedQuestion{
		QuestionID:   current.ID,
		QuestionText: current.Text,
		Stage:        current.Stage,
		Skipped:      skipped,
		AskedAt:      now,
	}); err != nil {
		return SubmitResult{}, err
	}

	if _, err := e.deps.Questions.IncrementUsage(ctx, current.ID); err != nil {
		e.logger.Warn("increment usage failed", zap.String("question_id", current.ID), zap.Error(err))
	}

	rec, _ := e.deps.Questions.Get(current.ID)
	rec.ID, rec.Text, rec.Stage = current.ID, current.Text, current.Stage
	e.state.AskedQuestions = append(e.state.AskedQuestions, AskedQuestion{Record: rec, Skipped: skipped, AskedAt: now})
	if skipped {
		e.deps.Metrics.IncAnswer(metrics.OutcomeSkipped)
	} else {
		e.state.Answers = append(e.state.Answers, sessions.Answer{
			QuestionID: current.ID,
			Answer:     answer,
			Stage:      current.Stage,
			Timestamp:  now,
		})
		e.deps.Metrics.IncAnswer(metrics.OutcomeAnswered)
	}
	e.state.CurrentQuestion = nil

	next, err := e.nextQuestion(ctx)
	if err != nil {
		return SubmitResult{Success: true}, err
	}
	return SubmitResult{
		Success:           true,
		NextQuestion:      copyQuestion(next),
		InterviewComplete: next == nil,
	}, nil
}

func (e *Engine) buildSummary(completedAt time.Time) sessions.Summary {
	plan := e.deps.Plan
	asked := make(map[string]int)
	list := make([]sessions.SummaryQuestion, 0, len(e.state.AskedQuestions))
	skipped := 0
	for _, q := range e.state.AskedQuestions {
		asked[q.Stage]++
		if q.Skipped {
			skipped++
		}
		list = append(list, sessions.SummaryQuestion{
			QuestionID: q.ID,
			Text:       q.Text,
			Stage:      q.Stage,
			Difficulty: q.Difficulty,
			Skill:      q.Skill,
			Skipped:    q.Skipped,
			AskedAt:    q.AskedAt,
		})
	}
	breakdown := make([]sessions.StageCount, 0, len(plan.Stages()))
	for _, stage := range plan.Stages() {
		breakdown = append(breakdown, sessions.StageCount{Stage: stage, Asked: asked[stage], Quota: plan.Quota(stage)})
	}
	scores := make(map[string]float64, len(e.state.Scores))
	for k, v := range e.state.Scores {
		scores[k] = v
	}

	return sessions.Summary{
		SessionID:        e.state.SessionID,
		UserID:           e.state.UserID,
		Role:             e.state.Role,
		Level:            e.state.Level,
		PlanVersion:      e.state.PlanVersion,
		StartedAt:        e.state.StartedAt,
		CompletedAt:      completedAt,
		DurationMinutes:  sessions.DurationMinutes(e.state.StartedAt, completedAt),
		PlannedQuestions: plan.Total(),
		QuestionsAsked:   len(e.state.AskedQuestions),
		Answered:         len(e.state.Answers),
		Skipped:          skipped,
		EndedEarly:       len(e.state.AskedQuestions) < plan.Total(),
		StageBreakdown:   breakdown,
		Questions:        list,
		Answers:          append([]sessions.Answer(nil), e.state.Answers...),
		Scores:           scores,
	}
}

func copyQuestion(q *Question) *Question {
	if q == nil {
		return nil
	}
	out := *q
	return &out
}
