// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"polychat/internal/model"
	"polychat/internal/util"
)

// MaxConversations is the maximum number of retained conversations.
// After every upsert the least-recently-updated entries are evicted
// until the history holds at most this many.
const MaxConversations = 10

// historyKey is the single fixed key the serialized history lives under.
const historyKey = "history"

// EmptyPreview is the summary placeholder for a conversation whose final
// message has no content.
const EmptyPreview = "Empty chat"

// =============================================================================
// HISTORY STORE
// =============================================================================

// Store is the durable mapping from conversation ID to conversation.
// It exclusively owns all conversation records; accessors hand out clones.
// All methods are safe for concurrent use: the UI reads summaries while
// the dispatcher settles turns from another goroutine.
type Store struct {
	mu            sync.Mutex
	backend       Backend
	conversations map[string]*model.Conversation
}

// NewStore creates a store over the given backend and loads the persisted
// history. Corruption is treated as "no history", never as a fatal error.
func NewStore(backend Backend) *Store {
	s := &Store{
		backend:       backend,
		conversations: make(map[string]*model.Conversation),
	}
	s.load()
	return s
}

// load reconstructs the mapping from the backend.
func (s *Store) load() {
	value, ok, err := s.backend.Get(historyKey)
	if err != nil {
		log.Printf("history: read failed, starting empty: %v", err)
		return
	}
	if !ok {
		return
	}

	var convs map[string]*model.Conversation
	if err := json.Unmarshal([]byte(value), &convs); err != nil {
		log.Printf("history: corrupt data, starting empty: %v", err)
		return
	}
	if convs == nil {
		return
	}
	s.conversations = convs
}

// Save serializes the full mapping back through the backend. Best-effort:
// callers log a failure and carry on with the in-memory history.
func (s *Store) Save() error {
	s.mu.Lock()
	data, err := json.Marshal(s.conversations)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.backend.Put(historyKey, string(data))
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Get returns a clone of the conversation with the given ID.
func (s *Store) Get(id string) (*model.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, false
	}
	return conv.Clone(), true
}

// Len returns the number of retained conversations, empty ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// =============================================================================
// UPSERT AND EVICTION
// =============================================================================

// Upsert inserts or replaces the conversation keyed by its ID, stamps
// UpdatedAt, and applies the retention cap.
func (s *Store) Upsert(conv *model.Conversation) {
	clone := conv.Clone()
	clone.UpdatedAt = time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[clone.ID] = clone
	s.conversations = EvictOldest(s.conversations, MaxConversations)
}

// EvictOldest drops the least-recently-updated conversations until at most
// max remain. Ties on UpdatedAt drop the lexically smaller ID first, so
// eviction is deterministic. Pure: the input map is returned unchanged when
// already within the cap.
func EvictOldest(convs map[string]*model.Conversation, max int) map[string]*model.Conversation {
	if max <= 0 || len(convs) <= max {
		return convs
	}

	ids := make([]string, 0, len(convs))
	for id := range convs {
		ids = append(ids, id)
	}
	// Oldest first; ties by ID.
	sort.Slice(ids, func(i, j int) bool {
		a, b := convs[ids[i]], convs[ids[j]]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.Before(b.UpdatedAt)
		}
		return ids[i] < ids[j]
	})

	out := make(map[string]*model.Conversation, max)
	for _, id := range ids[len(ids)-max:] {
		out[id] = convs[id]
	}
	return out
}

// =============================================================================
// SUMMARIES
// =============================================================================

// Summary is a lightweight listing entry for the history panel.
type Summary struct {
	ID        string
	ModelID   string
	ModelName string
	Preview   string
	UpdatedAt time.Time
}

// Summaries lists retained conversations newest-first. Conversations with
// zero messages are treated as not-yet-persisted and excluded. The preview
// is the content of the final message, collapsed to one line.
func (s *Store) Summaries(reg *model.Registry) []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	summaries := make([]Summary, 0, len(s.conversations))
	for _, conv := range s.conversations {
		if conv.IsEmpty() {
			continue
		}

		preview := EmptyPreview
		if last, ok := conv.LastMessage(); ok && last.Content != "" {
			preview = util.Truncate(util.CollapseWhitespace(last.Content), 80)
		}

		summaries = append(summaries, Summary{
			ID:        conv.ID,
			ModelID:   conv.ModelID,
			ModelName: reg.ResolveOrDefault(conv.ModelID).Name,
			Preview:   preview,
			UpdatedAt: conv.UpdatedAt,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].UpdatedAt.Equal(summaries[j].UpdatedAt) {
			return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
		}
		return summaries[i].ID < summaries[j].ID
	})

	return summaries
}

// FormatSummaryList formats summaries as a human-readable table for the
// `polychat history` command.
func FormatSummaryList(summaries []Summary) string {
	if len(summaries) == 0 {
		return "No past chats."
	}

	var sb strings.Builder
	sb.WriteString("Chats:\n")
	sb.WriteString("-----------------------------------------------------\n")
	sb.WriteString(util.Pad("ID", 14) + " " + util.Pad("Updated", 17) + " " + util.Pad("Model", 24) + " Preview\n")
	sb.WriteString("-----------------------------------------------------\n")

	for _, s := range summaries {
		id := s.ID
		if len(id) > 14 {
			id = id[:14]
		}
		sb.WriteString(util.Pad(id, 14) + " " +
			util.Pad(s.UpdatedAt.Format("2006-01-02 15:04"), 17) + " " +
			util.Pad(util.Truncate(s.ModelName, 24), 24) + " " +
			util.Truncate(s.Preview, 30) + "\n")
	}
	return sb.String()
}
