package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/syncoria/assistant-go/internal/chat"
	"github.com/syncoria/assistant-go/internal/gateway"
	"github.com/syncoria/assistant-go/internal/logger"
	"github.com/syncoria/assistant-go/internal/table"
)

// Session is one server-tracked conversation context. The id is assigned by
// the backend; the title mutates once, from the generic placeholder to the
// session's first query.
type Session struct {
	ID        string
	CreatedAt time.Time
	Title     string
}

const genericTitlePrefix = "New chat "

// titleLimit is the rune count beyond which a query is truncated for use as
// a session title.
const titleLimit = 45

// Store is the process-lifetime registry of known sessions plus the active
// session pointer and its transcript. It is the whole client state: sessions
// live exactly as long as the process, persistence belongs to the backend.
type Store struct {
	mu sync.Mutex

	gw           *gateway.Client
	historyLimit int

	sessions   map[string]*Session
	activeID   string
	exchanges  map[string]int
	transcript *chat.Transcript
}

// NewStore creates an empty store backed by the given gateway.
func NewStore(gw *gateway.Client, historyLimit int) *Store {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &Store{
		gw:           gw,
		historyLimit: historyLimit,
		sessions:     make(map[string]*Session),
		exchanges:    make(map[string]int),
		transcript:   &chat.Transcript{},
	}
}

// Transcript returns the active session's transcript.
func (s *Store) Transcript() *chat.Transcript { return s.transcript }

// ActiveID returns the active session id, empty when no session exists yet.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Get returns the session with the given id, or nil.
func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// Create asks the backend for a new session, registers it under a generic
// title, makes it active and clears the transcript. On failure the active
// session and transcript are left untouched.
func (s *Store) Create(ctx context.Context) (*Session, error) {
	info, err := s.gw.CreateSession(ctx)
	if err != nil {
		logger.L.Error("failed to create session", "error", err)
		return nil, err
	}

	createdAt := chat.ParseTimestamp(info.CreatedAt)
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	s.mu.Lock()
	sess := &Session{
		ID:        info.SessionID,
		CreatedAt: createdAt,
		Title:     fmt.Sprintf("%s%d", genericTitlePrefix, len(s.sessions)+1),
	}
	s.sessions[sess.ID] = sess
	s.activeID = sess.ID
	s.mu.Unlock()

	s.transcript.Clear()
	logger.L.Info("session created", "session_id", sess.ID)
	return sess, nil
}

// List returns known sessions most recent first. The slice is recomputed
// from the store on every call.
func (s *Store) List() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SwitchActive makes the session active and wholesale-replaces the
// transcript from a history fetch. On fetch failure the transcript is
// cleared and the error returned for user-facing display.
func (s *Store) SwitchActive(ctx context.Context, id string) error {
	s.mu.Lock()
	s.activeID = id
	s.mu.Unlock()

	items, err := s.gw.History(ctx, id, s.historyLimit)
	if err != nil {
		logger.L.Error("failed to fetch history", "session_id", id, "error", err)
		s.transcript.Clear()
		return err
	}
	s.transcript.Load(items)
	s.backfillTables(ctx)
	return nil
}

// backfillTables fetches data tables for history entries that reference a
// CSV export. Best-effort: a failed fetch leaves the entry without a table.
func (s *Store) backfillTables(ctx context.Context) {
	for i, msg := range s.transcript.Messages() {
		am, ok := msg.(chat.AssistantMessage)
		if !ok || am.CSVURL == "" || am.Dataframe != nil {
			continue
		}
		tbl, err := table.Fetch(ctx, am.CSVURL)
		if err != nil {
			logger.L.Warn("could not load data table from previous session", "csv_url", am.CSVURL, "error", err)
			continue
		}
		am.Dataframe = tbl
		s.transcript.ReplaceAt(i, am)
	}
}

// RenameOnFirstExchange records a completed exchange and, on the first one,
// replaces the generic title with the truncated query. Tracked with an
// explicit exchange counter rather than transcript length, and additionally
// guarded on the placeholder title so repeated triggers stay idempotent.
func (s *Store) RenameOnFirstExchange(id, query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.exchanges[id]++
	if s.exchanges[id] != 1 {
		return
	}
	sess := s.sessions[id]
	if sess == nil || !strings.HasPrefix(sess.Title, genericTitlePrefix) {
		return
	}
	sess.Title = TruncateTitle(query)
	logger.L.Debug("session renamed", "session_id", id, "title", sess.Title)
}

// TruncateTitle shortens a query for use as a session title: longer than 45
// runes becomes the first 45 plus an ellipsis, shorter is kept verbatim.
func TruncateTitle(query string) string {
	runes := []rune(query)
	if len(runes) > titleLimit {
		return string(runes[:titleLimit]) + "..."
	}
	return query
}
