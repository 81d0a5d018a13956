// Package services – ConversationService
//
// This file implements ConversationService, the application-level component
// that owns the chat lifecycle for a user: seeding the welcome turn, running
// crisis detection, building the model context window, calling the external
// model, and persisting the user/assistant turn pair.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include the user identifier and crisis flag where applicable.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mindhaven/go-support-backend/internal/domain"
	"github.com/mindhaven/go-support-backend/internal/llm"
	"github.com/mindhaven/go-support-backend/internal/prompt"
	"github.com/mindhaven/go-support-backend/internal/safety"
)

// ChatStore defines the transcript persistence contract required by
// ConversationService. *store.DataStore satisfies it.
type ChatStore interface {
	// LoadChat returns the user's transcript, empty when none exists.
	LoadChat(user string) ([]domain.ChatTurn, error)

	// UpdateChat applies fn to the stored transcript under the user's lock.
	UpdateChat(user string, fn func([]domain.ChatTurn) ([]domain.ChatTurn, error)) error

	// ClearChat resets the transcript to the empty sequence.
	ClearChat(user string) error
}

// ConversationService coordinates transcript persistence, crisis handling,
// and model calls.
type ConversationService struct {
	Store    ChatStore
	Model    llm.Client
	Detector *safety.Detector

	// SystemPrompt frames every context window sent to the model.
	SystemPrompt string
	// HistoryLimit caps how many prior turns accompany a new message.
	HistoryLimit int
	// Timeout bounds each model call.
	Timeout time.Duration
}

// NewConversationService constructs a ConversationService with the default
// framing prompt, history window, and detector.
func NewConversationService(store ChatStore, model llm.Client, timeout time.Duration) *ConversationService {
	return &ConversationService{
		Store:        store,
		Model:        model,
		Detector:     safety.DefaultDetector,
		SystemPrompt: prompt.SystemPrompt,
		HistoryLimit: prompt.DefaultHistoryLimit,
		Timeout:      timeout,
	}
}

// Transcript returns the user's chat history, seeding a personalized welcome
// turn on first use so the page never renders empty.
func (s *ConversationService) Transcript(ctx context.Context, user string) ([]domain.ChatTurn, error) {
	tr := otel.Tracer("services/ConversationService")
	_, span := tr.Start(ctx, "Transcript",
		trace.WithAttributes(attribute.String("user.id", user)),
	)
	defer span.End()

	var out []domain.ChatTurn
	err := s.Store.UpdateChat(user, func(turns []domain.ChatTurn) ([]domain.ChatTurn, error) {
		if len(turns) == 0 {
			turns = append(turns, domain.ChatTurn{
				Sender:    domain.SenderAssistant,
				Text:      welcomeText(user),
				Timestamp: domain.Timestamp(time.Now()),
			})
		}
		out = turns
		return turns, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reply is the outcome of handling one chat message.
type Reply struct {
	// Text is the assistant reply as persisted and returned to the client.
	Text string
	// Crisis reports whether the incoming message was flagged.
	Crisis bool
}

// Handle processes one user message: detects crisis phrases, builds the
// bounded context window from the stored transcript, calls the model, and
// appends the user/assistant pair to the transcript.
//
// A model failure is not an error: the fixed fallback reply is persisted and
// returned instead, so the user always gets a response that names the 988
// line. Only persistence failures propagate.
func (s *ConversationService) Handle(ctx context.Context, user, message string) (*Reply, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "Handle",
		trace.WithAttributes(attribute.String("user.id", user)),
	)
	defer span.End()

	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	crisis := s.Detector.Detect(message)
	span.SetAttributes(attribute.Bool("chat.crisis", crisis))

	// Snapshot the transcript outside the lock so the (potentially slow)
	// model call does not serialize other requests for this user.
	history, err := s.Store.LoadChat(user)
	if err != nil {
		return nil, err
	}

	window := prompt.Build(s.SystemPrompt, history, message, s.HistoryLimit)
	text := s.generate(ctx, window, crisis)

	now := domain.Timestamp(time.Now())
	err = s.Store.UpdateChat(user, func(turns []domain.ChatTurn) ([]domain.ChatTurn, error) {
		turns = append(turns,
			domain.ChatTurn{Sender: domain.SenderUser, Text: message, Timestamp: now},
			domain.ChatTurn{Sender: domain.SenderAssistant, Text: text, Timestamp: now},
		)
		return turns, nil
	})
	if err != nil {
		return nil, err
	}
	return &Reply{Text: text, Crisis: crisis}, nil
}

// generate calls the model under the configured timeout and applies the
// crisis prefix or fallback text.
func (s *ConversationService) generate(ctx context.Context, window []llm.Turn, crisis bool) string {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	text, err := s.Model.Generate(ctx, window)
	if err != nil {
		log.Warn().Err(err).Msg("model call failed, using fallback reply")
		// The fallback already carries crisis contact lines, no prefix.
		return safety.FallbackReply
	}
	if crisis {
		return safety.CrisisResources + text
	}
	return text
}

// Clear erases the user's transcript. The welcome turn is re-seeded on the
// next Transcript call, not here.
func (s *ConversationService) Clear(ctx context.Context, user string) error {
	tr := otel.Tracer("services/ConversationService")
	_, span := tr.Start(ctx, "Clear",
		trace.WithAttributes(attribute.String("user.id", user)),
	)
	defer span.End()

	return s.Store.ClearChat(user)
}

func welcomeText(user string) string {
	return fmt.Sprintf("Hello %s! I'm here to provide compassionate mental health support. "+
		"I'm not a replacement for professional therapy, but I'm here to listen and help you "+
		"through difficult moments. How are you feeling today?", user)
}
