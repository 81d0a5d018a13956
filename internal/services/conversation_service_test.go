package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mindhaven/go-support-backend/internal/domain"
	"github.com/mindhaven/go-support-backend/internal/llm"
	"github.com/mindhaven/go-support-backend/internal/safety"
)

// fakeChatStore is an in-memory ChatStore.
type fakeChatStore struct {
	data    map[string][]domain.ChatTurn
	loadErr error
	saveErr error
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{data: map[string][]domain.ChatTurn{}}
}

func (f *fakeChatStore) LoadChat(user string) ([]domain.ChatTurn, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return append([]domain.ChatTurn(nil), f.data[user]...), nil
}

func (f *fakeChatStore) UpdateChat(user string, fn func([]domain.ChatTurn) ([]domain.ChatTurn, error)) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	next, err := fn(append([]domain.ChatTurn(nil), f.data[user]...))
	if err != nil {
		return err
	}
	f.data[user] = next
	return nil
}

func (f *fakeChatStore) ClearChat(user string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.data[user] = []domain.ChatTurn{}
	return nil
}

// fakeModel returns a canned reply and records the last window it saw.
type fakeModel struct {
	reply  string
	err    error
	window []llm.Turn
}

func (f *fakeModel) Generate(_ context.Context, turns []llm.Turn) (string, error) {
	f.window = turns
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestConversation(store ChatStore, model llm.Client) *ConversationService {
	return NewConversationService(store, model, time.Second)
}

func TestTranscriptSeedsWelcomeOnce(t *testing.T) {
	store := newFakeChatStore()
	svc := newTestConversation(store, &fakeModel{reply: "ok"})

	first, err := svc.Transcript(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if len(first) != 1 || first[0].Sender != domain.SenderAssistant {
		t.Fatalf("expected one assistant welcome turn, got %+v", first)
	}
	if !strings.HasPrefix(first[0].Text, "Hello alice!") {
		t.Fatalf("welcome should be personalized, got %q", first[0].Text)
	}
	if first[0].Timestamp == "" {
		t.Fatal("welcome turn must carry a timestamp")
	}

	second, err := svc.Transcript(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Transcript again: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("welcome must be seeded once, got %d turns", len(second))
	}
}

func TestHandleEmptyMessage(t *testing.T) {
	svc := newTestConversation(newFakeChatStore(), &fakeModel{reply: "ok"})
	for _, msg := range []string{"", "   ", "\n\t"} {
		if _, err := svc.Handle(context.Background(), "alice", msg); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("message %q: expected ErrEmptyMessage, got %v", msg, err)
		}
	}
}

func TestHandleAppendsPairAndReturnsReply(t *testing.T) {
	store := newFakeChatStore()
	model := &fakeModel{reply: "That sounds hard. Tell me more."}
	svc := newTestConversation(store, model)

	rep, err := svc.Handle(context.Background(), "alice", "rough day at work")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if rep.Crisis {
		t.Fatal("plain message must not be flagged")
	}
	if rep.Text != model.reply {
		t.Fatalf("unexpected reply %q", rep.Text)
	}

	turns := store.data["alice"]
	if len(turns) != 2 {
		t.Fatalf("expected user+assistant pair, got %d turns", len(turns))
	}
	if turns[0].Sender != domain.SenderUser || turns[0].Text != "rough day at work" {
		t.Fatalf("unexpected user turn %+v", turns[0])
	}
	if turns[1].Sender != domain.SenderAssistant || turns[1].Text != model.reply {
		t.Fatalf("unexpected assistant turn %+v", turns[1])
	}
	if turns[0].Timestamp == "" || turns[0].Timestamp != turns[1].Timestamp {
		t.Fatalf("pair must share a timestamp, got %q / %q", turns[0].Timestamp, turns[1].Timestamp)
	}
}

func TestHandleWindowIncludesHistoryAndMessage(t *testing.T) {
	store := newFakeChatStore()
	store.data["alice"] = []domain.ChatTurn{
		{Sender: domain.SenderAssistant, Text: "welcome"},
		{Sender: domain.SenderUser, Text: "earlier"},
	}
	model := &fakeModel{reply: "ok"}
	svc := newTestConversation(store, model)

	if _, err := svc.Handle(context.Background(), "alice", "now"); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	// Framing pair + 2 history turns + new message.
	if len(model.window) != 5 {
		t.Fatalf("expected 5 window turns, got %d", len(model.window))
	}
	last := model.window[len(model.window)-1]
	if last.Role != llm.RoleUser || last.Text != "now" {
		t.Fatalf("window must end with the new message, got %+v", last)
	}
}

func TestHandleCrisisPrefixesResources(t *testing.T) {
	store := newFakeChatStore()
	model := &fakeModel{reply: "I'm here with you."}
	svc := newTestConversation(store, model)

	rep, err := svc.Handle(context.Background(), "alice", "I want to end it all")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !rep.Crisis {
		t.Fatal("expected crisis flag")
	}
	if !strings.HasPrefix(rep.Text, safety.CrisisResources) {
		t.Fatalf("crisis reply must start with resources block, got %q", rep.Text)
	}
	if !strings.HasSuffix(rep.Text, model.reply) {
		t.Fatalf("crisis reply must keep the model text, got %q", rep.Text)
	}
	// The persisted assistant turn carries the prefixed text.
	turns := store.data["alice"]
	if turns[1].Text != rep.Text {
		t.Fatalf("persisted turn %q differs from reply %q", turns[1].Text, rep.Text)
	}
}

func TestHandleModelFailureUsesFallback(t *testing.T) {
	store := newFakeChatStore()
	svc := newTestConversation(store, &fakeModel{err: errors.New("upstream down")})

	rep, err := svc.Handle(context.Background(), "alice", "hello")
	if err != nil {
		t.Fatalf("model failure must not surface as error, got %v", err)
	}
	if rep.Text != safety.FallbackReply {
		t.Fatalf("expected fallback reply, got %q", rep.Text)
	}
	if !strings.Contains(rep.Text, "988") {
		t.Fatal("fallback must name the 988 line")
	}
	if len(store.data["alice"]) != 2 {
		t.Fatal("fallback exchange must still be persisted")
	}
}

func TestHandleCrisisWithModelFailure(t *testing.T) {
	svc := newTestConversation(newFakeChatStore(), &fakeModel{err: errors.New("down")})

	rep, err := svc.Handle(context.Background(), "alice", "thinking about suicide")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !rep.Crisis {
		t.Fatal("expected crisis flag")
	}
	// The fallback carries its own crisis contacts and is not prefixed.
	if rep.Text != safety.FallbackReply {
		t.Fatalf("expected bare fallback, got %q", rep.Text)
	}
}

func TestHandlePersistFailure(t *testing.T) {
	store := newFakeChatStore()
	store.saveErr = errors.New("disk full")
	svc := newTestConversation(store, &fakeModel{reply: "ok"})

	if _, err := svc.Handle(context.Background(), "alice", "hello"); err == nil {
		t.Fatal("expected persistence error to propagate")
	}
}

func TestClear(t *testing.T) {
	store := newFakeChatStore()
	store.data["alice"] = []domain.ChatTurn{{Sender: domain.SenderUser, Text: "hi"}}
	svc := newTestConversation(store, &fakeModel{reply: "ok"})

	if err := svc.Clear(context.Background(), "alice"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(store.data["alice"]) != 0 {
		t.Fatalf("expected empty transcript, got %+v", store.data["alice"])
	}
}
