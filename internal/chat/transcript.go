package chat

import (
	"errors"
	"sync"
	"time"

	"github.com/syncoria/assistant-go/internal/logger"
)

// ErrNoPending reports a resolution attempt with no pending placeholder in
// the transcript. It signals a protocol violation but is recoverable: the
// presentation layer can re-trigger resolution after a forced refresh.
var ErrNoPending = errors.New("transcript: no pending assistant message")

// Transcript is the ordered message history of the active session.
// Invariant: at most one pending placeholder, always the last entry, always
// preceded by the user message that triggered it.
//
// The mutex exists because the presentation layer reads while the single
// in-flight reconciliation goroutine resolves; there is never more than one
// concurrent writer.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
}

// AppendUser appends a user message stamped with the current time.
func (t *Transcript) AppendUser(content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, UserMessage{Content: content, Timestamp: time.Now()})
}

// AppendPending appends the provisional assistant placeholder. A second
// placeholder, or a placeholder without a preceding user message, would
// break the transcript invariant, so those calls log and no-op.
func (t *Transcript) AppendPending() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.hasPendingLocked() {
		logger.L.Warn("pending placeholder already present; ignoring append")
		return
	}
	if n := len(t.messages); n == 0 || t.messages[n-1].Role() != RoleUser {
		logger.L.Warn("pending placeholder requires a preceding user message; ignoring append")
		return
	}
	t.messages = append(t.messages, AssistantMessage{Pending: true, Timestamp: time.Now()})
}

// HasPending reports whether the last entry is a pending placeholder.
func (t *Transcript) HasPending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hasPendingLocked()
}

func (t *Transcript) hasPendingLocked() bool {
	n := len(t.messages)
	if n == 0 {
		return false
	}
	am, ok := t.messages[n-1].(AssistantMessage)
	return ok && am.Pending
}

// ResolvePending replaces the pending placeholder in place with the final
// message. Resolving with no placeholder present logs a warning and returns
// ErrNoPending; callers treat it as a no-op.
func (t *Transcript) ResolvePending(final AssistantMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasPendingLocked() {
		logger.L.Warn("resolve called with no pending placeholder")
		return ErrNoPending
	}
	final.Pending = false
	t.messages[len(t.messages)-1] = final
	return nil
}

// Load wholesale-replaces the transcript from a history fetch.
func (t *Transcript) Load(items []HistoryItem) {
	SortBySequence(items)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = t.messages[:0]
	for _, it := range items {
		if msg, ok := it.normalize(); ok {
			t.messages = append(t.messages, msg)
		}
	}
}

// Messages returns a snapshot of the transcript in display order.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// Clear drops all entries, e.g. when a new session becomes active.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = t.messages[:0]
}

// ReplaceAt swaps the entry at index i. Used to backfill lazily fetched
// data tables on history entries.
func (t *Transcript) ReplaceAt(i int, msg Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.messages) {
		return
	}
	t.messages[i] = msg
}
