package selector

import (
	"strings"
	"unicode"
)

type topicRule struct {
	topic    string
	keywords []string
}

var topicRules = []topicRule{
	{topic: "react", keywords: []string{"react", "reactjs", "react.js", "jsx"}},
	{topic: "vue", keywords: []string{"vue", "vuejs", "vue.js"}},
	{topic: "angular", keywords: []string{"angular", "angularjs"}},
	{topic: "nodejs", keywords: []string{"node", "nodejs", "node.js", "express"}},
	{topic: "python", keywords: []string{"python", "django", "flask", "fastapi"}},
	{topic: "java", keywords: []string{"java", "spring", "springboot"}},
	{topic: "database", keywords: []string{"mongodb", "mysql", "postgresql", "sql", "database"}},
	{topic: "cloud", keywords: []string{"aws", "azure", "gcp", "docker", "kubernetes"}},
	{topic: "frontend", keywords: []string{"frontend", "front-end", "ui", "css", "html"}},
	{topic: "backend", keywords: []string{"backend", "back-end", "api", "server"}},
	{topic: "mobile", keywords: []string{"react native", "flutter", "ios", "android"}},
	{topic: "leadership", keywords: []string{"lead", "manager", "team lead", "mentor"}},
}

// DetectTopics returns the resume topics found in text, in a fixed order.
func DetectTopics(text string) []string {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return nil
	}
	var out []string
	for _, rule := range topicRules {
		for _, kw := range rule.keywords {
			if containsWord(lower, kw) {
				out = append(out, rule.topic)
				break
			}
		}
	}
	return out
}

// matchesTopic reports whether a record skill relates to any topic.
func matchesTopic(skill string, topics []string) bool {
	skill = strings.ToLower(strings.TrimSpace(skill))
	if skill == "" {
		return true
	}
	for _, t := range topics {
		if strings.Contains(skill, t) || strings.Contains(t, skill) {
			return true
		}
	}
	return false
}

// containsWord finds kw in text where it is not embedded in a longer word.
func containsWord(text, kw string) bool {
	for start := 0; start <= len(text)-len(kw); {
		i := strings.Index(text[start:], kw)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(kw)
		if boundary(text, i-1) && boundary(text, end) {
			return true
		}
		start = i + 1
	}
	return false
}

func boundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	r := rune(text[i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
