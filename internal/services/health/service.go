package health

import (
	"context"
	"sort"
	"time"
)

const checkTimeout = 2 * time.Second

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

// Report is the payload served at /health.
type Report struct {
	OK          bool              `json:"ok"`
	PlanVersion string            `json:"planVersion,omitempty"`
	Catalog     int               `json:"catalogQuestions"`
	Active      int               `json:"activeInterviews"`
	Checks      map[string]string `json:"checks,omitempty"`
}

// Service encapsulates health-related checks.
type Service struct {
	planVersion string
	catalogSize func() int
	active      func() int
	checks      map[string]Check
}

// NewService constructs a new health service. catalogSize and active may be nil.
func NewService(planVersion string, catalogSize, active func() int) *Service {
	return &Service{
		planVersion: planVersion,
		catalogSize: catalogSize,
		active:      active,
		checks:      make(map[string]Check),
	}
}

// AddCheck registers a named dependency check such as a database ping.
func (s *Service) AddCheck(name string, check Check) {
	s.checks[name] = check
}

// Status runs every check and reports ok only when all pass and the catalog is loaded.
func (s *Service) Status(ctx context.Context) Report {
	r := Report{OK: true, PlanVersion: s.planVersion}
	if s.catalogSize != nil {
		r.Catalog = s.catalogSize()
		if r.Catalog == 0 {
			r.OK = false
		}
	}
	if s.active != nil {
		r.Active = s.active()
	}
	if len(s.checks) == 0 {
		return r
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	r.Checks = make(map[string]string, len(names))
	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := s.checks[name](cctx)
		cancel()
		if err != nil {
			r.OK = false
			r.Checks[name] = err.Error()
			continue
		}
		r.Checks[name] = "ok"
	}
	return r
}
