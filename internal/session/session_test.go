// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"testing"

	"polychat/internal/model"
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

func testRegistry() *model.Registry {
	return model.NewRegistry([]model.Info{
		{ID: "model-a", Name: "Model A", Color: "#111111"},
		{ID: "model-b", Name: "Model B", Color: "#222222"},
	})
}

func newTestSession() (*Session, *storage.Store) {
	store := storage.NewStore(newMemBackend())
	return New(testRegistry(), store), store
}

func TestNew_DefaultsToFirstModelNoConversation(t *testing.T) {
	sess, _ := newTestSession()

	if sess.SelectedModelID() != "model-a" {
		t.Errorf("SelectedModelID = %q, want %q", sess.SelectedModelID(), "model-a")
	}
	if sess.ActiveConversationID() != "" {
		t.Errorf("ActiveConversationID = %q, want empty", sess.ActiveConversationID())
	}
	if len(sess.Messages()) != 0 {
		t.Errorf("Messages = %d, want 0", len(sess.Messages()))
	}
}

func TestSelectConversation_LoadsTranscriptAndModel(t *testing.T) {
	sess, store := newTestSession()

	conv := model.NewConversation("model-b")
	conv.AddUserMessage("hi")
	conv.AddAssistantMessage("hello")
	store.Upsert(conv)

	if err := sess.SelectConversation(conv.ID); err != nil {
		t.Fatalf("SelectConversation: %v", err)
	}
	if sess.ActiveConversationID() != conv.ID {
		t.Errorf("ActiveConversationID = %q", sess.ActiveConversationID())
	}
	if len(sess.Messages()) != 2 {
		t.Errorf("Messages = %d, want 2", len(sess.Messages()))
	}
	if sess.SelectedModelID() != "model-b" {
		t.Errorf("SelectedModelID = %q, want %q", sess.SelectedModelID(), "model-b")
	}
}

func TestSelectConversation_UnknownModelFallsBack(t *testing.T) {
	sess, store := newTestSession()

	conv := model.NewConversation("retired-model")
	conv.AddUserMessage("hi")
	store.Upsert(conv)

	if err := sess.SelectConversation(conv.ID); err != nil {
		t.Fatalf("SelectConversation: %v", err)
	}
	if sess.SelectedModelID() != "model-a" {
		t.Errorf("SelectedModelID = %q, want default", sess.SelectedModelID())
	}
}

func TestSelectConversation_ClearsError(t *testing.T) {
	sess, store := newTestSession()

	conv := model.NewConversation("model-a")
	conv.AddUserMessage("hi")
	store.Upsert(conv)

	sess.SetError("", "something went wrong")
	if sess.LastError() == "" {
		t.Fatal("precondition: error should be set")
	}
	if err := sess.SelectConversation(conv.ID); err != nil {
		t.Fatalf("SelectConversation: %v", err)
	}
	if sess.LastError() != "" {
		t.Errorf("LastError = %q, want cleared", sess.LastError())
	}
}

func TestStartNew_ResetsToDefaults(t *testing.T) {
	sess, store := newTestSession()

	conv := model.NewConversation("model-b")
	conv.AddUserMessage("hi")
	store.Upsert(conv)
	if err := sess.SelectConversation(conv.ID); err != nil {
		t.Fatalf("SelectConversation: %v", err)
	}

	if err := sess.StartNew(); err != nil {
		t.Fatalf("StartNew: %v", err)
	}
	if sess.ActiveConversationID() != "" {
		t.Errorf("ActiveConversationID = %q, want empty", sess.ActiveConversationID())
	}
	if len(sess.Messages()) != 0 {
		t.Errorf("Messages = %d, want 0", len(sess.Messages()))
	}
	if sess.SelectedModelID() != "model-a" {
		t.Errorf("SelectedModelID = %q, want default", sess.SelectedModelID())
	}
}

func TestSwitchingRejectedWhileAwaiting(t *testing.T) {
	sess, store := newTestSession()

	conv := model.NewConversation("model-a")
	conv.AddUserMessage("hi")
	store.Upsert(conv)

	if err := sess.BeginTurn(); err != nil {
		t.Fatalf("BeginTurn: %v", err)
	}

	if err := sess.StartNew(); !errors.Is(err, ErrTurnInFlight) {
		t.Errorf("StartNew while awaiting = %v, want ErrTurnInFlight", err)
	}
	if err := sess.SelectConversation(conv.ID); !errors.Is(err, ErrTurnInFlight) {
		t.Errorf("SelectConversation while awaiting = %v, want ErrTurnInFlight", err)
	}

	// Model switching stays allowed mid-flight.
	sess.SelectModel("model-b")
	if sess.SelectedModelID() != "model-b" {
		t.Errorf("SelectModel mid-flight should apply")
	}

	sess.EndTurn()
	if err := sess.StartNew(); err != nil {
		t.Errorf("StartNew after settle: %v", err)
	}
}

func TestBeginTurn_SingleInFlight(t *testing.T) {
	sess, _ := newTestSession()

	if err := sess.BeginTurn(); err != nil {
		t.Fatalf("first BeginTurn: %v", err)
	}
	if err := sess.BeginTurn(); !errors.Is(err, ErrTurnInFlight) {
		t.Errorf("second BeginTurn = %v, want ErrTurnInFlight", err)
	}
	sess.EndTurn()
	if err := sess.BeginTurn(); err != nil {
		t.Errorf("BeginTurn after EndTurn: %v", err)
	}
}

func TestSelectModel_KeepsTranscript(t *testing.T) {
	sess, store := newTestSession()

	conv := model.NewConversation("model-a")
	conv.AddUserMessage("hi")
	store.Upsert(conv)
	if err := sess.SelectConversation(conv.ID); err != nil {
		t.Fatalf("SelectConversation: %v", err)
	}

	sess.SelectModel("model-b")
	if len(sess.Messages()) != 1 {
		t.Errorf("Messages = %d, transcript should survive model switch", len(sess.Messages()))
	}
	if sess.ActiveConversationID() != conv.ID {
		t.Errorf("conversation should stay open across model switch")
	}
}

func TestAppendMessage_DroppedWhenStale(t *testing.T) {
	sess, _ := newTestSession()
	sess.BindConversation("conv_live")

	sess.AppendMessage("conv_live", model.NewUserMessage("shown"))
	sess.AppendMessage("conv_other", model.NewAssistantMessage("stale"))

	msgs := sess.Messages()
	if len(msgs) != 1 || msgs[0].Content != "shown" {
		t.Errorf("Messages = %+v, stale append should be dropped", msgs)
	}
}

func TestSetError_DroppedWhenStale(t *testing.T) {
	sess, _ := newTestSession()
	sess.BindConversation("conv_live")

	sess.SetError("conv_other", "stale failure")
	if sess.LastError() != "" {
		t.Errorf("LastError = %q, stale error should be dropped", sess.LastError())
	}

	sess.SetError("conv_live", "live failure")
	if sess.LastError() != "live failure" {
		t.Errorf("LastError = %q", sess.LastError())
	}
}
