package selector

import "strings"

// Band is an inclusive difficulty range.
type Band struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether difficulty d is inside the band. Unrated records (0) always fit.
func (b Band) Contains(d int) bool {
	if d <= 0 {
		return true
	}
	return d >= b.Min && d <= b.Max
}

const defaultLevel = "mid"

var levelBands = map[string]Band{
	"intern":    {Min: 1, Max: 2},
	"entry":     {Min: 2, Max: 3},
	"fresher":   {Min: 2, Max: 3},
	"junior":    {Min: 2, Max: 4},
	"mid":       {Min: 2, Max: 4},
	"senior":    {Min: 3, Max: 5},
	"lead":      {Min: 4, Max: 5},
	"staff":     {Min: 4, Max: 5},
	"principal": {Min: 4, Max: 5},
}

// BandFor returns the difficulty band for a seniority level. Unknown levels use mid.
func BandFor(level string) Band {
	if b, ok := levelBands[strings.ToLower(strings.TrimSpace(level))]; ok {
		return b
	}
	return levelBands[defaultLevel]
}
