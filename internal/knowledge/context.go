package knowledge

import (
	"fmt"
	"strings"

	"github.com/spherical-ai/asha/internal/domain"
)

// RecentTurns is the number of trailing conversation turns kept in an
// AIContext.
const RecentTurns = 10

const basePrompt = "You are Asha, an AI assistant for JobsForHer Foundation. Your purpose is to help women advance in their careers by providing accurate information about job opportunities, events, mentorship programs, and professional development resources. Always be supportive, encouraging, and empowering in your responses. Focus on factual information and avoid gender stereotypes."

type focus struct {
	terms  []string
	suffix string
}

// First matching focus wins.
var focuses = []focus{
	{
		terms:  []string{"job", "career"},
		suffix: " The user appears to be interested in career opportunities, so prioritize information about relevant job listings, skills required for different roles, and career development strategies.",
	},
	{
		terms:  []string{"event", "workshop"},
		suffix: " The user appears to be interested in events, so prioritize information about upcoming workshops, webinars, and networking opportunities.",
	},
	{
		terms:  []string{"mentor", "guidance"},
		suffix: " The user appears to be seeking mentorship or guidance, so prioritize information about mentorship programs, career coaching, and professional development resources.",
	},
}

// AIContext is everything a generator would need to answer the query.
type AIContext struct {
	SystemInstructions string                    `json:"systemInstructions"`
	KnowledgeContext   string                    `json:"knowledgeContext"`
	RecentConversation []domain.ConversationTurn `json:"recentConversation"`
}

// FormatContext renders retrieved chunks as numbered reference notes.
func FormatContext(results []domain.ScoredResult[domain.KnowledgeChunk]) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Reference information:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, r.Item.Content)
		fmt.Fprintf(&b, "Source: %s\n\n", r.Item.Source)
	}
	return b.String()
}

// BuildAIContext combines the persona prompt, the formatted knowledge and the
// tail of the conversation.
func BuildAIContext(query string, history []domain.ConversationTurn, results []domain.ScoredResult[domain.KnowledgeChunk]) AIContext {
	lower := strings.ToLower(query)
	instructions := basePrompt
	for _, f := range focuses {
		if containsAny(lower, f.terms) {
			instructions += f.suffix
			break
		}
	}

	recent := history
	if len(recent) > RecentTurns {
		recent = recent[len(recent)-RecentTurns:]
	}
	if recent == nil {
		recent = []domain.ConversationTurn{}
	}

	return AIContext{
		SystemInstructions: instructions,
		KnowledgeContext:   FormatContext(results),
		RecentConversation: recent,
	}
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
