package nlp

import (
	"regexp"
	"strings"
	"time"

	"github.com/spherical-ai/asha/internal/domain"
	"github.com/spherical-ai/asha/internal/lexicon"
)

// DefaultHistoryLimit is the number of turns FormatHistory keeps when no
// limit is given.
const DefaultHistoryLimit = 10

var (
	nonWordPattern    = regexp.MustCompile(`[^\w\s]`)
	emailPattern      = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern      = regexp.MustCompile(`(\+\d{1,3}[\s.-])?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}`)
	creditCardPattern = regexp.MustCompile(`\b(?:\d{4}[ -]?){3}\d{4}\b`)
)

// Conversation bundles the small heuristics applied to raw chat messages.
type Conversation struct {
	greetings     []string
	questionWords map[string]bool
	commonWords   map[string]bool
}

func NewConversation(lx *lexicon.Lexicon) *Conversation {
	return &Conversation{
		greetings:     lowerAll(lx.Conversation.Greetings),
		questionWords: toSet(lx.Conversation.QuestionWords),
		commonWords:   toSet(lx.Conversation.CommonWords),
	}
}

// IsGreeting reports whether the message is, or starts with, a greeting.
func (c *Conversation) IsGreeting(text string) bool {
	lower := strings.TrimSpace(strings.ToLower(text))
	if lower == "" {
		return false
	}
	for _, g := range c.greetings {
		if lower == g || strings.HasPrefix(lower, g+" ") || strings.HasPrefix(lower, g+",") {
			return true
		}
	}
	return false
}

// IsQuestion reports whether the message ends with '?' or opens with a
// question word.
func (c *Conversation) IsQuestion(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if strings.HasSuffix(trimmed, "?") {
		return true
	}
	first, _, _ := strings.Cut(strings.ToLower(trimmed), " ")
	return c.questionWords[first]
}

// ExtractKeywords returns the distinct non-trivial words of a message in
// order of first appearance.
func (c *Conversation) ExtractKeywords(text string) []string {
	cleaned := nonWordPattern.ReplaceAllString(strings.ToLower(text), "")
	seen := make(map[string]bool)
	out := []string{}
	for _, w := range strings.Fields(cleaned) {
		if len(w) <= 2 || c.commonWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// SensitiveInfo lists personal data spotted in a message.
type SensitiveInfo struct {
	HasSensitiveInfo bool     `json:"hasSensitiveInfo"`
	Emails           []string `json:"emails"`
	Phones           []string `json:"phones"`
	CreditCards      []string `json:"creditCards"`
}

// DetectSensitiveInfo flags email addresses, phone numbers and card numbers.
func DetectSensitiveInfo(text string) SensitiveInfo {
	info := SensitiveInfo{
		Emails:      matchesOrEmpty(emailPattern, text),
		Phones:      matchesOrEmpty(phonePattern, text),
		CreditCards: matchesOrEmpty(creditCardPattern, text),
	}
	info.HasSensitiveInfo = len(info.Emails)+len(info.Phones)+len(info.CreditCards) > 0
	return info
}

func matchesOrEmpty(re *regexp.Regexp, text string) []string {
	m := re.FindAllString(text, -1)
	if m == nil {
		return []string{}
	}
	return m
}

// HistoryMessage is a conversation turn in the role/content shape used for
// model context.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FormatHistory keeps the last limit turns and maps senders to roles.
func FormatHistory(turns []domain.ConversationTurn, limit int) []HistoryMessage {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]HistoryMessage, 0, len(turns))
	for _, t := range turns {
		role := "assistant"
		if t.Sender == domain.SenderUser {
			role = "user"
		}
		out = append(out, HistoryMessage{Role: role, Content: t.Text})
	}
	return out
}

// DayGroup is a run of consecutive turns sharing a calendar day.
type DayGroup struct {
	Date  time.Time                 `json:"date"`
	Turns []domain.ConversationTurn `json:"turns"`
}

// GroupByDate splits turns into runs by calendar day in loc. A nil loc
// means time.Local.
func GroupByDate(turns []domain.ConversationTurn, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.Local
	}
	var groups []DayGroup
	for _, t := range turns {
		ts := t.Timestamp.In(loc)
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc)
		if n := len(groups); n == 0 || !groups[n-1].Date.Equal(day) {
			groups = append(groups, DayGroup{Date: day})
		}
		last := &groups[len(groups)-1]
		last.Turns = append(last.Turns, t)
	}
	return groups
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = true
	}
	return set
}
