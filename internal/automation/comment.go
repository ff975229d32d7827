package automation

import (
	"fmt"
	"strings"

	"github.com/danielolaszy/triage/pkg/models"
)

const (
	assignmentHeader = "## 🤖 Agent Assignment Suggestion\n\n"
	triageHeader     = "## 🔍 Triage Summary\n\n"
	commentFooter    = "\n---\n*This comment was generated automatically by triage.*\n"

	confirmationFooter = "\n> A maintainer must confirm this suggestion before work starts. " +
		"Replace the `" + SuggestedAgentLabelPrefix + "` label with `" + AgentLabelPrefix + "` to confirm.\n"
)

// ConfidenceMarker returns the emoji shown next to a confidence tier.
func ConfidenceMarker(c models.Confidence) string {
	switch c {
	case models.ConfidenceHigh:
		return "🟢"
	case models.ConfidenceMedium:
		return "🟡"
	default:
		return "🔴"
	}
}

// GenerateAssignmentComment renders the suggestion comment for up to three
// matches. With no matches it renders the fallback asking for labels. The
// output depends only on its arguments.
func GenerateAssignmentComment(matches []models.AgentMatch, keywords []string) string {
	var b strings.Builder
	b.WriteString(assignmentHeader)

	if len(matches) == 0 {
		b.WriteString("No confident match was found for this issue. ")
		b.WriteString("Consider adding labels (for example `bug`, `enhancement` or `documentation`) so it can be routed.\n")
	} else {
		b.WriteString("Based on the issue content, these agents are the best fit:\n\n")
		if len(matches) > commentMatchLimit {
			matches = matches[:commentMatchLimit]
		}
		for i, m := range matches {
			fmt.Fprintf(&b, "%d. %s **%s** (%s confidence, score %d)\n", i+1, ConfidenceMarker(m.Confidence), m.AgentName, m.Confidence, m.Score)
			if m.MatchReason != "" {
				fmt.Fprintf(&b, "   %s\n", m.MatchReason)
			}
		}
	}

	writeKeywords(&b, keywords)
	b.WriteString(commentFooter)
	return b.String()
}

// GenerateTriageComment renders the triage summary posted when automatic
// assignment is off.
func GenerateTriageComment(result models.TriageResult, keywords []string) string {
	var b strings.Builder
	b.WriteString(triageHeader)

	if len(result.SuggestedAgents) == 0 {
		b.WriteString("No agent matched this issue.\n")
	} else {
		b.WriteString("**Suggested agents:**\n\n")
		for _, m := range result.SuggestedAgents {
			fmt.Fprintf(&b, "- %s %s (score %d)\n", ConfidenceMarker(m.Confidence), m.AgentName, m.Score)
		}
	}

	if len(result.SuggestedLabels) > 0 {
		fmt.Fprintf(&b, "\n**Suggested labels:** %s\n", strings.Join(result.SuggestedLabels, ", "))
	}

	writeKeywords(&b, keywords)

	if result.RequiresManualReview {
		b.WriteString("\n⚠️ **Manual review needed:** no agent reached medium confidence.\n")
	}
	b.WriteString(commentFooter)
	return b.String()
}

func writeKeywords(b *strings.Builder, keywords []string) {
	if len(keywords) == 0 {
		return
	}
	if len(keywords) > commentKeywordLimit {
		keywords = keywords[:commentKeywordLimit]
	}
	fmt.Fprintf(b, "\n**Detected keywords:** %s\n", strings.Join(keywords, ", "))
}
