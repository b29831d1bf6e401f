// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"polychat/internal/cloud"
	"polychat/internal/model"
	"polychat/internal/session"
	"polychat/internal/storage"
)

type memBackend struct {
	values map[string]string
}

func newMemBackend() *memBackend {
	return &memBackend{values: make(map[string]string)}
}

func (b *memBackend) Get(key string) (string, bool, error) {
	v, ok := b.values[key]
	return v, ok, nil
}

func (b *memBackend) Put(key, value string) error {
	b.values[key] = value
	return nil
}

// stubCompleter scripts completion outcomes and records what was sent.
type stubCompleter struct {
	mu          sync.Mutex
	reply       string
	err         error
	gotModel    string
	gotMessages []cloud.ChatMessage
	calls       int

	// started receives once per call, before any blocking.
	started chan struct{}

	// block, when set, holds the request open until released.
	block chan struct{}
}

func (s *stubCompleter) Complete(ctx context.Context, model string, messages []cloud.ChatMessage) (string, error) {
	s.mu.Lock()
	s.gotModel = model
	s.gotMessages = messages
	s.calls++
	started, block := s.started, s.block
	s.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reply, s.err
}

func (s *stubCompleter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fixture struct {
	registry   *model.Registry
	store      *storage.Store
	session    *session.Session
	completer  *stubCompleter
	dispatcher *Dispatcher
}

func newFixture() *fixture {
	registry := model.NewRegistry([]model.Info{
		{ID: "model-a", Name: "Model A"},
		{ID: "model-b", Name: "Model B"},
	})
	store := storage.NewStore(newMemBackend())
	sess := session.New(registry, store)
	completer := &stubCompleter{reply: "default reply"}
	return &fixture{
		registry:   registry,
		store:      store,
		session:    sess,
		completer:  completer,
		dispatcher: New(registry, store, sess, completer),
	}
}

// =============================================================================
// HAPPY PATH
// =============================================================================

func TestSend_FirstTurnCreatesAndPersistsConversation(t *testing.T) {
	f := newFixture()
	f.completer.reply = "hello to you"

	if err := f.dispatcher.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	convID := f.session.ActiveConversationID()
	if convID == "" {
		t.Fatal("session should bind the new conversation")
	}

	conv, ok := f.store.Get(convID)
	if !ok {
		t.Fatal("conversation should be persisted")
	}
	if conv.MessageCount() != 2 {
		t.Fatalf("stored messages = %d, want 2", conv.MessageCount())
	}
	if conv.Messages[0].Role != model.RoleUser || conv.Messages[0].Content != "hello" {
		t.Errorf("Messages[0] = %+v", conv.Messages[0])
	}
	if conv.Messages[1].Role != model.RoleAssistant || conv.Messages[1].Content != "hello to you" {
		t.Errorf("Messages[1] = %+v", conv.Messages[1])
	}
	if conv.ModelID != "model-a" {
		t.Errorf("ModelID = %q, want selected model", conv.ModelID)
	}

	shown := f.session.Messages()
	if len(shown) != 2 {
		t.Errorf("displayed messages = %d, want 2", len(shown))
	}
	if f.session.LastError() != "" {
		t.Errorf("LastError = %q, want empty", f.session.LastError())
	}
	if f.session.AwaitingResponse() {
		t.Error("turn should be settled")
	}
}

func TestSend_WhitespaceOnlyIsNoOp(t *testing.T) {
	f := newFixture()

	if err := f.dispatcher.Send(context.Background(), "   \n\t "); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if f.completer.callCount() != 0 {
		t.Errorf("completer called %d times, want 0", f.completer.callCount())
	}
	if f.session.ActiveConversationID() != "" {
		t.Error("no conversation should be created for blank input")
	}
}

func TestSend_TrimsInput(t *testing.T) {
	f := newFixture()

	if err := f.dispatcher.Send(context.Background(), "  hello  "); err != nil {
		t.Fatalf("Send: %v", err)
	}
	conv, _ := f.store.Get(f.session.ActiveConversationID())
	if conv.Messages[0].Content != "hello" {
		t.Errorf("content = %q, want trimmed", conv.Messages[0].Content)
	}
}

func TestSend_UsesSelectedModelAndContextWindow(t *testing.T) {
	f := newFixture()
	f.session.SelectModel("model-b")

	// Seed a long conversation, then send.
	conv := model.NewConversation("model-b")
	for i := 0; i < 20; i++ {
		conv.AddUserMessage(fmt.Sprintf("msg %d", i))
	}
	f.store.Upsert(conv)
	if err := f.session.SelectConversation(conv.ID); err != nil {
		t.Fatalf("SelectConversation: %v", err)
	}

	if err := f.dispatcher.Send(context.Background(), "latest"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if f.completer.gotModel != "model-b" {
		t.Errorf("model = %q, want %q", f.completer.gotModel, "model-b")
	}
	if len(f.completer.gotMessages) != ContextWindow {
		t.Fatalf("context = %d messages, want %d", len(f.completer.gotMessages), ContextWindow)
	}
	// The window ends with the new user message.
	last := f.completer.gotMessages[len(f.completer.gotMessages)-1]
	if last.Role != "user" || last.Content != "latest" {
		t.Errorf("window tail = %+v", last)
	}
}

func TestSend_ContinuesExistingConversation(t *testing.T) {
	f := newFixture()

	if err := f.dispatcher.Send(context.Background(), "first"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	firstID := f.session.ActiveConversationID()

	if err := f.dispatcher.Send(context.Background(), "second"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if f.session.ActiveConversationID() != firstID {
		t.Error("second turn should stay in the same conversation")
	}

	conv, _ := f.store.Get(firstID)
	if conv.MessageCount() != 4 {
		t.Errorf("stored messages = %d, want 4", conv.MessageCount())
	}
}

// =============================================================================
// FAILURE PATHS
// =============================================================================

func TestSend_RateLimitedKeepsUserMessage(t *testing.T) {
	f := newFixture()
	f.completer.err = cloud.ErrRateLimited

	if err := f.dispatcher.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	want := "Rate limit exceeded for Model A. Please wait or switch to another model."
	if f.session.LastError() != want {
		t.Errorf("LastError = %q, want %q", f.session.LastError(), want)
	}

	// Optimistic append is never rolled back.
	conv, _ := f.store.Get(f.session.ActiveConversationID())
	if conv.MessageCount() != 1 {
		t.Errorf("stored messages = %d, want just the user message", conv.MessageCount())
	}
	if f.session.AwaitingResponse() {
		t.Error("failed turn should still settle")
	}
}

func TestSend_UpstreamErrorUsesStatusText(t *testing.T) {
	f := newFixture()
	f.completer.err = &cloud.UpstreamError{Status: http.StatusBadGateway, StatusText: "Bad Gateway"}

	if err := f.dispatcher.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if f.session.LastError() != "Error: Bad Gateway" {
		t.Errorf("LastError = %q", f.session.LastError())
	}
}

func TestSend_TransportErrorAdvisory(t *testing.T) {
	f := newFixture()
	f.completer.err = &cloud.TransportError{Err: errors.New("connection refused")}

	if err := f.dispatcher.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	want := "Network or API error: transport error: connection refused"
	if f.session.LastError() != want {
		t.Errorf("LastError = %q, want %q", f.session.LastError(), want)
	}
}

func TestSend_SuccessClearsPreviousError(t *testing.T) {
	f := newFixture()

	f.completer.err = cloud.ErrRateLimited
	if err := f.dispatcher.Send(context.Background(), "first"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if f.session.LastError() == "" {
		t.Fatal("precondition: first turn should fail")
	}

	f.completer.err = nil
	f.completer.reply = "recovered"
	if err := f.dispatcher.Send(context.Background(), "second"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if f.session.LastError() != "" {
		t.Errorf("LastError = %q, want cleared on new turn", f.session.LastError())
	}
}

func TestAdvisory_FirstMatchClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "rate limited",
			err:  cloud.ErrRateLimited,
			want: "Rate limit exceeded for Model A. Please wait or switch to another model.",
		},
		{
			name: "wrapped rate limited",
			err:  fmt.Errorf("turn failed: %w", cloud.ErrRateLimited),
			want: "Rate limit exceeded for Model A. Please wait or switch to another model.",
		},
		{
			name: "upstream",
			err:  &cloud.UpstreamError{Status: 500, StatusText: "Internal Server Error"},
			want: "Error: Internal Server Error",
		},
		{
			name: "transport",
			err:  &cloud.TransportError{Err: errors.New("dial tcp: timeout")},
			want: "Network or API error: transport error: dial tcp: timeout",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Advisory(tt.err, "Model A"); got != tt.want {
				t.Errorf("Advisory = %q, want %q", got, tt.want)
			}
		})
	}
}

// =============================================================================
// IN-FLIGHT GUARD AND LATE SETTLEMENT
// =============================================================================

func TestSend_SecondSendWhileInFlightIsRejected(t *testing.T) {
	f := newFixture()
	f.completer.started = make(chan struct{}, 1)
	f.completer.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- f.dispatcher.Send(context.Background(), "slow turn")
	}()
	<-f.completer.started

	if err := f.dispatcher.Send(context.Background(), "impatient"); !errors.Is(err, session.ErrTurnInFlight) {
		t.Errorf("second Send = %v, want ErrTurnInFlight", err)
	}

	close(f.completer.block)
	if err := <-done; err != nil {
		t.Fatalf("first Send: %v", err)
	}
	if f.completer.callCount() != 1 {
		t.Errorf("completer called %d times, want 1", f.completer.callCount())
	}
}

func TestSend_ModelSwitchMidFlightDoesNotAffectPendingTurn(t *testing.T) {
	f := newFixture()
	f.completer.started = make(chan struct{}, 1)
	f.completer.block = make(chan struct{})
	f.completer.reply = "from model-a"

	done := make(chan error, 1)
	go func() {
		done <- f.dispatcher.Send(context.Background(), "hello")
	}()
	<-f.completer.started

	f.session.SelectModel("model-b")
	close(f.completer.block)
	if err := <-done; err != nil {
		t.Fatalf("Send: %v", err)
	}

	if f.completer.gotModel != "model-a" {
		t.Errorf("dispatched model = %q, want captured %q", f.completer.gotModel, "model-a")
	}
	// The reply still lands in the original conversation.
	conv, _ := f.store.Get(f.session.ActiveConversationID())
	if conv.ModelID != "model-a" {
		t.Errorf("conversation model = %q, want %q", conv.ModelID, "model-a")
	}
	if conv.MessageCount() != 2 {
		t.Errorf("stored messages = %d, want 2", conv.MessageCount())
	}
	// But the next turn uses the new selection.
	if f.session.SelectedModelID() != "model-b" {
		t.Errorf("SelectedModelID = %q, want %q", f.session.SelectedModelID(), "model-b")
	}
}

func TestSend_EvictedActiveConversationIsRebuilt(t *testing.T) {
	f := newFixture()

	if err := f.dispatcher.Send(context.Background(), "original"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	activeID := f.session.ActiveConversationID()

	// Flood the store until the active conversation is evicted.
	for i := 0; i < storage.MaxConversations+2; i++ {
		filler := model.NewConversation("model-a")
		filler.AddUserMessage("filler")
		f.store.Upsert(filler)
	}
	if _, ok := f.store.Get(activeID); ok {
		t.Fatal("precondition: active conversation should be evicted")
	}

	if err := f.dispatcher.Send(context.Background(), "after eviction"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	conv, ok := f.store.Get(activeID)
	if !ok {
		t.Fatal("conversation should be re-persisted under its original ID")
	}
	// Displayed transcript survives: 2 from the first turn + 2 new.
	if conv.MessageCount() != 4 {
		t.Errorf("stored messages = %d, want 4", conv.MessageCount())
	}
}
