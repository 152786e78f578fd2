package selector

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"mockmate/internal/questions"
)

// Criteria narrows the pool for one pick.
type Criteria struct {
	Stage      string
	Role       string
	Level      string
	Topics     []string
	ExcludeIDs []string
}

// Step records how one filter tier changed the candidate set.
type Step struct {
	Tier     string `json:"tier"`
	Initial  int    `json:"initial"`
	Left     int    `json:"left"`
	Fallback bool   `json:"fallback"`
}

// Result is the outcome of a traced selection.
type Result struct {
	Question *questions.Record
	Recycled bool
	Steps    []Step
}

// Selector picks the next question through a cascade of filters.
// It holds no catalog state; callers pass the pool on every call.
type Selector struct {
	logger    *zap.Logger
	onRecycle func(stage string)
}

// New builds a Selector. onRecycle, if set, is called whenever exclusion
// exhausts the candidates and the narrowed set is reused.
func New(logger *zap.Logger, onRecycle func(stage string)) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{logger: logger, onRecycle: onRecycle}
}

// Select returns the best candidate for c, or false when the stage has no records.
func (s *Selector) Select(c Criteria, pool []questions.Record) (questions.Record, bool) {
	res := s.Trace(c, pool)
	if res.Question == nil {
		return questions.Record{}, false
	}
	return *res.Question, true
}

// SelectMultiple picks up to count distinct records, excluding each pick from the next.
func (s *Selector) SelectMultiple(c Criteria, pool []questions.Record, count int) []questions.Record {
	exclude := append([]string(nil), c.ExcludeIDs...)
	chosen := make(map[string]struct{}, count)
	out := make([]questions.Record, 0, count)
	for len(out) < count {
		next := c
		next.ExcludeIDs = exclude
		rec, ok := s.Select(next, pool)
		if !ok {
			break
		}
		if _, dup := chosen[rec.ID]; dup {
			break
		}
		chosen[rec.ID] = struct{}{}
		exclude = append(exclude, rec.ID)
		out = append(out, rec)
	}
	return out
}

// Trace runs the cascade and reports every tier.
func (s *Selector) Trace(c Criteria, pool []questions.Record) Result {
	var res Result
	stage := normalize(c.Stage)

	candidates := filter(pool, func(r questions.Record) bool { return normalize(r.Stage) == stage })
	res.Steps = append(res.Steps, Step{Tier: "stage", Initial: len(pool), Left: len(candidates)})
	if len(candidates) == 0 {
		s.logSteps(c, res.Steps)
		return res
	}

	candidates = s.byRole(c.Role, candidates, &res)

	band := BandFor(c.Level)
	candidates = narrow("difficulty", candidates, func(r questions.Record) bool { return band.Contains(r.Difficulty) }, &res)

	if len(c.Topics) > 0 {
		candidates = narrow("topics", candidates, func(r questions.Record) bool { return matchesTopic(r.Skill, c.Topics) }, &res)
	}

	excluded := make(map[string]struct{}, len(c.ExcludeIDs))
	for _, id := range c.ExcludeIDs {
		excluded[id] = struct{}{}
	}
	remaining := filter(candidates, func(r questions.Record) bool {
		_, skip := excluded[r.ID]
		return !skip
	})
	step := Step{Tier: "exclusion", Initial: len(candidates), Left: len(remaining)}
	if len(remaining) == 0 {
		remaining = candidates
		step.Fallback = true
		res.Recycled = true
		s.logger.Warn("pool exhausted, recycling",
			zap.String("stage", stage),
			zap.String("role", c.Role),
			zap.String("level", c.Level),
			zap.Int("excluded", len(c.ExcludeIDs)),
			zap.Int("recycled", len(candidates)),
		)
		if s.onRecycle != nil {
			s.onRecycle(stage)
		}
	}
	res.Steps = append(res.Steps, step)

	ranked := append([]questions.Record(nil), remaining...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.UsageCount != b.UsageCount {
			return a.UsageCount < b.UsageCount
		}
		if wa, wb := a.EffectiveWeight(), b.EffectiveWeight(); wa != wb {
			return wa > wb
		}
		return a.ID < b.ID
	})
	head := ranked[0]
	res.Question = &head

	s.logSteps(c, res.Steps)
	return res
}

// byRole keeps exact and "any" matches, then same-domain records, then the whole stage.
func (s *Selector) byRole(role string, candidates []questions.Record, res *Result) []questions.Record {
	role = normalize(role)
	if role == "" || role == questions.RoleAny {
		res.Steps = append(res.Steps, Step{Tier: "role", Initial: len(candidates), Left: len(candidates)})
		return candidates
	}

	matched := filter(candidates, func(r questions.Record) bool {
		return r.AnyRole() || normalize(r.Role) == role
	})
	if len(matched) > 0 {
		res.Steps = append(res.Steps, Step{Tier: "role", Initial: len(candidates), Left: len(matched)})
		return matched
	}

	domain := DomainOf(role)
	sameDomain := filter(candidates, func(r questions.Record) bool { return normalize(r.Domain) == domain })
	if len(sameDomain) > 0 {
		res.Steps = append(res.Steps, Step{Tier: "role_domain", Initial: len(candidates), Left: len(sameDomain), Fallback: true})
		return sameDomain
	}
	res.Steps = append(res.Steps, Step{Tier: "role", Initial: len(candidates), Left: len(candidates), Fallback: true})
	return candidates
}

// narrow applies keep and falls back to the incoming set when nothing survives.
func narrow(tier string, candidates []questions.Record, keep func(questions.Record) bool, res *Result) []questions.Record {
	out := filter(candidates, keep)
	if len(out) == 0 {
		res.Steps = append(res.Steps, Step{Tier: tier, Initial: len(candidates), Left: len(candidates), Fallback: true})
		return candidates
	}
	res.Steps = append(res.Steps, Step{Tier: tier, Initial: len(candidates), Left: len(out)})
	return out
}

func (s *Selector) logSteps(c Criteria, steps []Step) {
	if ce := s.logger.Check(zap.DebugLevel, "question selection"); ce != nil {
		fields := []zap.Field{zap.String("stage", c.Stage), zap.String("role", c.Role), zap.String("level", c.Level)}
		for _, st := range steps {
			fields = append(fields, zap.Any(st.Tier, st))
		}
		ce.Write(fields...)
	}
}

func filter(in []questions.Record, keep func(questions.Record) bool) []questions.Record {
	out := make([]questions.Record, 0, len(in))
	for _, r := range in {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
