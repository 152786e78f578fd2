package questions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"mockmate/internal/shared/storage/object"
)

// DefaultStageAliases maps legacy catalog stage names onto the seven stage plan.
var DefaultStageAliases = map[string]string{
	"introduction":     "introduction",
	"warmup":           "warmup",
	"resume":           "resume_based",
	"resume_technical": "resume_based",
	"resume_based":     "resume_based",
	"technical":        "technical",
	"interview":        "technical",
	"behavioral":       "behavioral",
	"pressure":         "behavioral",
	"communication":    "behavioral",
	"teamwork":         "behavioral",
	"leadership":       "behavioral",
	"personality":      "behavioral",
	"real_life":        "real_world",
	"real_world":       "real_world",
	"hr_closing":       "hr_closing",
	"closing":          "hr_closing",
	"hr":               "hr_closing",
}

type filenameRule struct {
	stage    string
	keywords []string
}

var filenameRules = []filenameRule{
	{stage: "introduction", keywords: []string{"introduction", "intro"}},
	{stage: "warmup", keywords: []string{"warmup", "warm_up"}},
	{stage: "resume_based", keywords: []string{"resume", "experience", "project"}},
	{stage: "behavioral", keywords: []string{"behavioral", "behavior", "communication", "teamwork", "leadership", "motivation", "personality", "failure"}},
	{stage: "real_world", keywords: []string{"real_world", "realworld", "real", "scenario", "edge_case", "tradeoff"}},
	{stage: "hr_closing", keywords: []string{"hr", "closing", "career", "culture"}},
}

// LoaderOptions controls catalog loading.
type LoaderOptions struct {
	Prefix       string
	Aliases      map[string]string
	DefaultStage string
	Logger       *zap.Logger
}

// LoadReport summarizes a catalog load.
type LoadReport struct {
	Files   []string `json:"files"`
	Failed  []string `json:"failed,omitempty"`
	Loaded  int      `json:"loaded"`
	Dropped int      `json:"dropped"`
}

// maxCatalogFile bounds a single catalog file held in memory.
const maxCatalogFile = 32 << 20

// LoadCatalog reads every JSON catalog file under opts.Prefix.
// Unreadable files are reported and skipped; records without id or text are dropped.
func LoadCatalog(ctx context.Context, store object.Store, opts LoaderOptions) ([]Record, LoadReport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	aliases := opts.Aliases
	if aliases == nil {
		aliases = DefaultStageAliases
	}
	defaultStage := opts.DefaultStage
	if defaultStage == "" {
		defaultStage = "technical"
	}

	infos, err := store.List(ctx, opts.Prefix)
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("list catalog: %w", err)
	}

	var (
		report  LoadReport
		records []Record
		seen    = make(map[string]struct{})
	)
	for _, info := range infos {
		key := info.Key
		if !isCatalogFile(key) {
			continue
		}
		if info.Size > maxCatalogFile {
			logger.Error("catalog file too large", zap.String("file", key), zap.Int64("bytes", info.Size))
			report.Failed = append(report.Failed, key)
			continue
		}
		raw, err := readCatalogFile(ctx, store, key)
		if err != nil {
			logger.Error("catalog file unreadable", zap.String("file", key), zap.Error(err))
			report.Failed = append(report.Failed, key)
			continue
		}

		fileStage := stageFromFilename(key, defaultStage)
		kept := 0
		for _, rr := range raw {
			rec, ok := rr.toRecord(aliases, fileStage)
			if !ok {
				report.Dropped++
				continue
			}
			if _, dup := seen[rec.ID]; dup {
				logger.Warn("duplicate question id dropped", zap.String("question_id", rec.ID), zap.String("file", key))
				report.Dropped++
				continue
			}
			seen[rec.ID] = struct{}{}
			records = append(records, rec)
			kept++
		}
		report.Files = append(report.Files, key)
		logger.Info("catalog file loaded", zap.String("file", key), zap.Int("questions", kept))
	}
	report.Loaded = len(records)
	logger.Info("catalog loaded",
		zap.Int("questions", report.Loaded),
		zap.Int("files", len(report.Files)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("dropped", report.Dropped),
	)
	return records, report, nil
}

func isCatalogFile(key string) bool {
	base := strings.ToLower(path.Base(key))
	if !strings.HasSuffix(base, ".json") {
		return false
	}
	return !strings.Contains(base, "embeddings") && base != "taxonomy.json"
}

func readCatalogFile(ctx context.Context, store object.Store, key string) ([]rawRecord, error) {
	data, err := object.ReadAll(ctx, store, key, maxCatalogFile)
	if err != nil {
		return nil, err
	}
	return decodeCatalog(data)
}

// decodeCatalog accepts a bare array or an object wrapping it under "questions" or "data".
func decodeCatalog(data []byte) ([]rawRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '[' {
		var out []rawRecord
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var wrapped struct {
		Questions []rawRecord `json:"questions"`
		Data      []rawRecord `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	if len(wrapped.Questions) > 0 {
		return wrapped.Questions, nil
	}
	return wrapped.Data, nil
}

func stageFromFilename(key, fallback string) string {
	name := strings.TrimSuffix(strings.ToLower(path.Base(key)), ".json")
	for _, rule := range filenameRules {
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) {
				return rule.stage
			}
		}
	}
	return fallback
}

type rawRecord struct {
	ID         flexString     `json:"id"`
	Question   string         `json:"question"`
	Text       string         `json:"text"`
	Stage      string         `json:"stage"`
	Role       string         `json:"role"`
	Domain     string         `json:"domain"`
	Skill      string         `json:"skill"`
	Difficulty flexDifficulty `json:"difficulty"`
	Weight     float64        `json:"weight"`
}

func (rr rawRecord) toRecord(aliases map[string]string, fileStage string) (Record, bool) {
	id := strings.TrimSpace(string(rr.ID))
	text := strings.TrimSpace(rr.Question)
	if text == "" {
		text = strings.TrimSpace(rr.Text)
	}
	if id == "" || text == "" {
		return Record{}, false
	}

	stage := fileStage
	if s := strings.ToLower(strings.TrimSpace(rr.Stage)); s != "" {
		if mapped, ok := aliases[s]; ok {
			stage = mapped
		} else {
			stage = s
		}
	}

	role := strings.ToLower(strings.TrimSpace(rr.Role))
	if role == "" {
		role = RoleAny
	}
	return Record{
		ID:         id,
		Text:       text,
		Stage:      stage,
		Role:       role,
		Domain:     strings.ToLower(strings.TrimSpace(rr.Domain)),
		Skill:      strings.ToLower(strings.TrimSpace(rr.Skill)),
		Difficulty: int(rr.Difficulty),
		Weight:     rr.Weight,
	}, true
}

// flexString accepts JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexDifficulty accepts 1-5 as a number or string, or easy/medium/hard.
// Anything else decodes to 0, meaning unrated.
type flexDifficulty int

var namedDifficulty = map[string]int{
	"easy":   2,
	"medium": 3,
	"hard":   4,
}

func (f *flexDifficulty) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	var n int
	switch t := v.(type) {
	case float64:
		n = int(t)
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		if named, ok := namedDifficulty[s]; ok {
			n = named
		} else if parsed, err := strconv.Atoi(s); err == nil {
			n = parsed
		}
	}
	if n < 1 || n > 5 {
		n = 0
	}
	*f = flexDifficulty(n)
	return nil
}
