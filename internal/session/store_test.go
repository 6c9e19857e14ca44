package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syncoria/assistant-go/internal/gateway"
)

// fakeBackend serves the session and history endpoints with canned data.
func fakeBackend(t *testing.T, history string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var created atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session":
			n := created.Add(1)
			json.NewEncoder(w).Encode(map[string]any{
				"session_id": "sess-" + string(rune('0'+n)),
				"created_at": "2025-03-01T10:00:0" + string(rune('0'+n)) + "Z",
			})
		case "/history":
			io.WriteString(w, history)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &created
}

func TestCreate_RegistersAndActivates(t *testing.T) {
	srv, _ := fakeBackend(t, `{"messages":[]}`)
	store := NewStore(gateway.New(srv.URL, false), 50)

	store.Transcript().AppendUser("leftover")
	sess, err := store.Create(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sess-1", sess.ID)
	require.Equal(t, "New chat 1", sess.Title)
	require.Equal(t, "sess-1", store.ActiveID())
	require.Equal(t, 0, store.Transcript().Len())

	sess2, err := store.Create(context.Background())
	require.NoError(t, err)
	require.Equal(t, "New chat 2", sess2.Title)
	require.Equal(t, sess2.ID, store.ActiveID())
}

func TestCreate_FailureLeavesStateUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	store := NewStore(gateway.New(srv.URL, false), 50)

	store.Transcript().AppendUser("keep me")
	_, err := store.Create(context.Background())
	require.Error(t, err)
	require.Empty(t, store.ActiveID())
	require.Equal(t, 1, store.Transcript().Len())
}

func TestList_MostRecentFirst(t *testing.T) {
	srv, _ := fakeBackend(t, `{"messages":[]}`)
	store := NewStore(gateway.New(srv.URL, false), 50)

	_, err := store.Create(context.Background())
	require.NoError(t, err)
	_, err = store.Create(context.Background())
	require.NoError(t, err)

	got := store.List()
	require.Len(t, got, 2)
	require.Equal(t, "sess-2", got[0].ID)
	require.Equal(t, "sess-1", got[1].ID)

	// Restartable: a second call recomputes the same sequence.
	again := store.List()
	require.Equal(t, got[0].ID, again[0].ID)
}

func TestSwitchActive_ReplacesTranscript(t *testing.T) {
	srv, _ := fakeBackend(t, `{"messages":[
		{"role":"assistant","analysis":"a1","sequence_number":2},
		{"role":"user","query":"q1","sequence_number":1}
	]}`)
	store := NewStore(gateway.New(srv.URL, false), 50)

	store.Transcript().AppendUser("old")
	require.NoError(t, store.SwitchActive(context.Background(), "sess-9"))
	require.Equal(t, "sess-9", store.ActiveID())
	require.Equal(t, 2, store.Transcript().Len())
}

func TestSwitchActive_HistoryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()
	store := NewStore(gateway.New(srv.URL, false), 50)

	store.Transcript().AppendUser("old")
	err := store.SwitchActive(context.Background(), "sess-9")
	require.Error(t, err)
	require.Equal(t, "sess-9", store.ActiveID())
	require.Equal(t, 0, store.Transcript().Len())
}

// Title renaming fires exactly once per session.
func TestRenameOnFirstExchange_Once(t *testing.T) {
	srv, _ := fakeBackend(t, `{"messages":[]}`)
	store := NewStore(gateway.New(srv.URL, false), 50)

	sess, err := store.Create(context.Background())
	require.NoError(t, err)

	store.RenameOnFirstExchange(sess.ID, "first question")
	require.Equal(t, "first question", store.Get(sess.ID).Title)

	store.RenameOnFirstExchange(sess.ID, "second question")
	require.Equal(t, "first question", store.Get(sess.ID).Title)
}

func TestRenameOnFirstExchange_UnknownSession(t *testing.T) {
	srv, _ := fakeBackend(t, `{"messages":[]}`)
	store := NewStore(gateway.New(srv.URL, false), 50)

	store.RenameOnFirstExchange("ghost", "whatever") // must not panic
}

func TestTruncateTitle(t *testing.T) {
	long := strings.Repeat("x", 46)
	require.Equal(t, strings.Repeat("x", 45)+"...", TruncateTitle(long))
	require.Len(t, TruncateTitle(strings.Repeat("x", 200)), 48)

	short := strings.Repeat("x", 45)
	require.Equal(t, short, TruncateTitle(short))
	require.Equal(t, "hi", TruncateTitle("hi"))
}
