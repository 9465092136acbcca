// Package chat turns a user message into an assistant reply by running the
// understanding, retrieval and ranking stages and filling a reply template.
package chat

import (
	"fmt"
	"strings"

	"github.com/spherical-ai/asha/internal/domain"
	"github.com/spherical-ai/asha/internal/nlp"
)

// EventDateLayout renders event dates in replies.
const EventDateLayout = "1/2/2006"

const (
	welcomeText = "Hello! I'm Asha, an AI assistant for JobsForHer Foundation. I can help you explore career opportunities, find job listings, learn about community events, or connect with mentorship programs. How can I assist you today?"

	jobPromptText = "I'd be happy to help you find job opportunities that match your interests and skills. Could you tell me more about the type of roles you're looking for or any specific industries you're interested in?"

	eventPromptText = "There are several upcoming events hosted by JobsForHer Foundation. These events cover networking opportunities, skill development workshops, and career fairs. Would you like me to show you events in a specific category or time frame?"

	mentorshipPromptText = "JobsForHer Foundation offers various mentorship programs designed to help women advance in their careers. These programs connect mentees with experienced professionals who provide guidance, feedback, and support. What type of mentorship are you looking for?"

	helpText = "I'd be happy to help! As Asha, I can assist you with:\n" +
		"    \n" +
		"1. Finding job opportunities tailored to your skills and interests\n" +
		"2. Discovering upcoming events and workshops\n" +
		"3. Exploring mentorship programs\n" +
		"4. Providing information about women's career development resources\n" +
		"\n" +
		"What would you like to know more about?"

	fallbackText = "Thank you for your message. I'm Asha, an AI assistant dedicated to helping women advance in their careers. I can provide information about job opportunities, events, mentorship programs, and more. Could you please specify what kind of career information you're looking for, and I'll do my best to assist you?"
)

// Reply is a composed assistant message.
type Reply struct {
	Text       string             `json:"text"`
	Attachment *domain.Attachment `json:"attachment,omitempty"`
	// KnowledgeContext is passed through for downstream generators. It never
	// affects template choice.
	KnowledgeContext string `json:"knowledgeContext,omitempty"`
}

// Composer selects a reply template.
type Composer struct {
	conv *nlp.Conversation
}

func NewComposer(conv *nlp.Conversation) *Composer {
	return &Composer{conv: conv}
}

// Compose picks the reply for message. A greeting wins over any intent; the
// remaining branches match on substrings of the intent name.
func (c *Composer) Compose(message string, intent domain.Intent, attachment *domain.Attachment, knowledgeContext string) Reply {
	reply := Reply{Attachment: attachment, KnowledgeContext: knowledgeContext}
	name := string(intent)

	switch {
	case c.conv.IsGreeting(message):
		reply.Text = welcomeText
	case strings.Contains(name, "job"):
		reply.Text = jobText(attachment)
	case strings.Contains(name, "event"):
		reply.Text = eventText(attachment)
	case strings.Contains(name, "mentor"):
		reply.Text = mentorshipText(attachment)
	case strings.Contains(name, "help"):
		reply.Text = helpText
	default:
		reply.Text = fallbackText
	}
	return reply
}

func jobText(a *domain.Attachment) string {
	j, ok := attachmentData[*domain.Job](a)
	if !ok {
		return jobPromptText
	}
	return fmt.Sprintf("I found a job opportunity that might interest you: %s at %s. This %s position is located in %s. Would you like me to find more similar opportunities?",
		j.Title, j.Company, j.Type, j.Location)
}

func eventText(a *domain.Attachment) string {
	e, ok := attachmentData[*domain.Event](a)
	if !ok {
		return eventPromptText
	}
	where := "at " + e.Location
	if e.Virtual {
		where = "virtually"
	}
	return fmt.Sprintf("I found an upcoming event you might be interested in: \"%s\" on %s. It will be held %s. Would you like more details about this event?",
		e.Title, e.Date.Format(EventDateLayout), where)
}

func mentorshipText(a *domain.Attachment) string {
	m, ok := attachmentData[*domain.Mentorship](a)
	if !ok {
		return mentorshipPromptText
	}
	return fmt.Sprintf("I found a mentorship program that might be a good fit: \"%s\" led by %s. This program focuses on %s and runs for %s. Would you like to learn more about how to apply?",
		m.Title, m.Mentor, m.Focus, m.Duration)
}

func attachmentData[T domain.Candidate](a *domain.Attachment) (T, bool) {
	var zero T
	if a == nil || a.Data == nil {
		return zero, false
	}
	v, ok := a.Data.(T)
	if !ok || v.Validate() != nil {
		return zero, false
	}
	return v, true
}
