package keywords

import "strings"

// labelSpecializations expands a label into the capability keywords it implies.
var labelSpecializations = map[string][]string{
	"bug":                {"debugging", "error", "fix", "troubleshooting"},
	"defect":             {"debugging", "error", "fix"},
	"regression":         {"debugging", "testing", "regression"},
	"crash":              {"debugging", "error", "crash"},
	"enhancement":        {"feature", "improvement", "implementation"},
	"feature":            {"feature", "implementation"},
	"feature-request":    {"feature", "implementation"},
	"documentation":      {"docs", "documentation", "writing", "readme"},
	"docs":               {"docs", "documentation", "writing"},
	"performance":        {"performance", "optimization", "profiling", "latency"},
	"optimization":       {"performance", "optimization"},
	"testing":            {"testing", "tests", "qa", "coverage"},
	"test":               {"testing", "tests", "qa"},
	"tests":              {"testing", "tests", "qa"},
	"security":           {"security", "vulnerability", "authentication", "audit"},
	"ui":                 {"ui", "design", "css", "frontend", "components"},
	"ux":                 {"ux", "design", "usability", "accessibility"},
	"ui/ux":              {"ui", "ux", "design", "css", "frontend", "accessibility"},
	"design":             {"design", "ui", "ux", "css"},
	"accessibility":      {"accessibility", "a11y", "ui", "frontend"},
	"frontend":           {"frontend", "react", "ui", "css", "javascript"},
	"backend":            {"backend", "api", "server", "database"},
	"api":                {"api", "backend", "rest", "endpoint"},
	"database":           {"database", "sql", "schema", "migration"},
	"data":               {"data", "pipeline", "etl", "analytics"},
	"analytics":          {"analytics", "data", "metrics"},
	"research":           {"research", "investigation", "analysis"},
	"investigation":      {"research", "investigation", "analysis"},
	"question":           {"research", "support", "question"},
	"devops":             {"devops", "cicd", "docker", "deployment"},
	"infrastructure":     {"infrastructure", "devops", "deployment", "cloud"},
	"ci":                 {"cicd", "devops", "githubactions"},
	"deployment":         {"deployment", "devops", "release"},
	"refactor":           {"refactoring", "architecture", "cleanup"},
	"architecture":       {"architecture", "design", "refactoring"},
	"planning":           {"planning", "roadmap", "coordination"},
	"project-management": {"planning", "coordination", "roadmap"},
	"epic":               {"planning", "coordination"},
	"mobile":             {"mobile", "ios", "android", "reactnative"},
}

// SpecializationsFor returns the keywords a label expands to. Lookup is
// case-insensitive; labels of the form "type: bug" or "area/frontend" are also
// looked up by each part when the full name has no entry.
func SpecializationsFor(label string) []string {
	name := strings.ToLower(strings.TrimSpace(label))
	if name == "" {
		return nil
	}
	if kws, ok := labelSpecializations[name]; ok {
		return kws
	}

	var out []string
	for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == ':' || r == '/' }) {
		if kws, ok := labelSpecializations[strings.TrimSpace(part)]; ok {
			out = append(out, kws...)
		}
	}
	return out
}
