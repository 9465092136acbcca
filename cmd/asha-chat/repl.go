package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spherical-ai/asha/cmd/asha-chat/ui"
	"github.com/spherical-ai/asha/internal/api/rpc"
	"github.com/spherical-ai/asha/internal/chat"
	"github.com/spherical-ai/asha/internal/domain"
)

// Exchange is one answered message, whichever backend produced it.
type Exchange struct {
	SessionID  string
	MessageID  string
	Intent     string
	Text       string
	Attachment *domain.Attachment
	HasBias    bool
	Warnings   []string
}

// Sender delivers a message to the assistant.
type Sender interface {
	Send(ctx context.Context, sessionID, text string) (*Exchange, error)
}

// localSender runs the assistant in-process.
type localSender struct {
	assistant *chat.Assistant
}

func (s localSender) Send(ctx context.Context, sessionID, text string) (*Exchange, error) {
	resp, err := s.assistant.Process(ctx, chat.Message{SessionID: sessionID, Text: text})
	if err != nil {
		return nil, err
	}
	return &Exchange{
		SessionID:  resp.SessionID,
		MessageID:  resp.MessageID,
		Intent:     string(resp.Intent),
		Text:       resp.Reply.Text,
		Attachment: resp.Reply.Attachment,
		HasBias:    resp.Bias.HasBias,
		Warnings:   resp.Warnings,
	}, nil
}

// remoteSender talks to a running API server over Connect.
type remoteSender struct {
	client *rpc.Client
}

func (s remoteSender) Send(ctx context.Context, sessionID, text string) (*Exchange, error) {
	resp, err := s.client.Chat(ctx, &rpc.ChatRequest{SessionID: sessionID, Text: text})
	if err != nil {
		return nil, err
	}
	return &Exchange{
		SessionID:  resp.SessionID,
		MessageID:  resp.MessageID,
		Intent:     resp.Intent,
		Text:       resp.Text,
		Attachment: resp.Attachment,
		HasBias:    resp.HasBias,
		Warnings:   resp.Warnings,
	}, nil
}

// REPL reads user lines and slash commands until /quit or end of input.
type REPL struct {
	sender    Sender
	display   *ui.Display
	sessionID string
	timeout   time.Duration
	now       func() time.Time
	loc       *time.Location

	// transcript is what this client has seen of the session.
	transcript []domain.ConversationTurn
}

func NewREPL(sender Sender, display *ui.Display, sessionID string) *REPL {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &REPL{
		sender:    sender,
		display:   display,
		sessionID: sessionID,
		timeout:   30 * time.Second,
		now:       time.Now,
		loc:       time.Local,
	}
}

const helpText = `Commands:
  /history         show this session's messages
  /clear           start a new session
  /import <file>   send every non-empty line of a file
  /help            show this help
  /quit            exit`

// Run processes input until /quit or EOF.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	r.display.Banner(r.sessionID)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		r.display.Prompt()
		if !scanner.Scan() {
			fmt.Fprintln(r.display.Out())
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.HasPrefix(line, "/") {
			if quit := r.command(ctx, line); quit {
				return nil
			}
			continue
		}
		r.send(ctx, line, true)
	}
}

// command runs a slash command and reports whether the REPL should exit.
func (r *REPL) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		r.display.Info("Goodbye")
		return true
	case "/help":
		fmt.Fprintln(r.display.Out(), helpText)
	case "/history":
		r.display.History(r.transcript, r.loc)
	case "/clear":
		r.transcript = nil
		r.sessionID = uuid.NewString()
		r.display.Success("Started new session %s", r.sessionID)
	case "/import":
		if arg == "" {
			r.display.Error("usage: /import <file>")
			return false
		}
		r.importFile(ctx, arg)
	default:
		r.display.Error("unknown command %s, try /help", name)
	}
	return false
}

// send delivers one message. interactive controls the spinner and reply
// rendering; imports only record the transcript.
func (r *REPL) send(ctx context.Context, text string, interactive bool) bool {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var spin *ui.Spinner
	if interactive {
		spin = ui.NewSpinner(r.display.Out(), "thinking…")
		spin.Start()
	}
	sent := r.now()
	ex, err := r.sender.Send(ctx, r.sessionID, text)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		r.display.Error("%v", err)
		return false
	}

	r.sessionID = ex.SessionID
	r.transcript = append(r.transcript,
		domain.ConversationTurn{SessionID: ex.SessionID, Sender: domain.SenderUser, Text: text, Timestamp: sent},
		domain.ConversationTurn{ID: ex.MessageID, SessionID: ex.SessionID, Sender: domain.SenderAssistant, Text: ex.Text, Timestamp: r.now()},
	)

	if interactive {
		if ex.HasBias {
			r.display.Warning("Your message was rephrased with gender-neutral language")
		}
		for _, w := range ex.Warnings {
			r.display.Warning("%s", w)
		}
		r.display.Reply(ex.Text)
		r.display.Attachment(ex.Attachment)
	}
	return true
}

func (r *REPL) importFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		r.display.Error("read %s: %v", path, err)
		return
	}
	var lines []string
	for _, l := range strings.Split(string(data), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		r.display.Warning("%s has no messages", path)
		return
	}

	bar := ui.NewProgressBar(r.display.Out(), int64(len(lines)), "importing")
	ok := 0
	for _, l := range lines {
		if ctx.Err() != nil {
			break
		}
		if r.send(ctx, l, false) {
			ok++
		}
		bar.Add(1)
	}
	bar.Finish()
	r.display.Success("Imported %d of %d messages", ok, len(lines))
}
