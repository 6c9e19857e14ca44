package stream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syncoria/assistant-go/internal/chat"
	"github.com/syncoria/assistant-go/internal/gateway"
	"github.com/syncoria/assistant-go/internal/session"
)

// backend fakes /session plus whatever the handler serves; it returns the
// server so tests can build absolute URLs for CSV fixtures.
func backend(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *gateway.Client, *session.Store) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session" {
			json.NewEncoder(w).Encode(map[string]string{"session_id": "sess-1", "created_at": "2025-03-01T10:00:00Z"})
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	gw := gateway.New(srv.URL, false)
	return srv, gw, session.NewStore(gw, 50)
}

func submitOne(t *testing.T, gw *gateway.Client, store *session.Store, query string, streaming bool) error {
	t.Helper()
	tr := store.Transcript()
	tr.AppendUser(query)
	tr.AppendPending()
	return Submit(context.Background(), gw, store, store.ActiveID(), query, streaming, nil)
}

func TestSubmit_StreamingResolvesAndRenames(t *testing.T) {
	_, gw, store := backend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/query/stream", r.URL.Path)
		io.WriteString(w, "event: status\ndata: {\"message\":\"crunching\"}\n")
		io.WriteString(w, "event: complete\ndata: {\"analysis\":\"all good\",\"chart_generated\":true,\"chart_s3_url\":\"https://x/c.png\"}\n")
	})

	sess, err := store.Create(context.Background())
	require.NoError(t, err)

	require.NoError(t, submitOne(t, gw, store, "how are sales?", true))

	tr := store.Transcript()
	require.Equal(t, 2, tr.Len())
	require.False(t, tr.HasPending())
	final := tr.Messages()[1].(chat.AssistantMessage)
	require.Equal(t, "all good", final.Analysis)
	require.True(t, final.ChartGenerated)
	require.Equal(t, "https://x/c.png", final.ChartURL)
	require.False(t, final.Timestamp.IsZero())

	require.Equal(t, "how are sales?", store.Get(sess.ID).Title)
}

func TestSubmit_BlockingVariant(t *testing.T) {
	_, gw, store := backend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/query", r.URL.Path)
		io.WriteString(w, `{"analysis":"blocking answer"}`)
	})

	_, err := store.Create(context.Background())
	require.NoError(t, err)

	require.NoError(t, submitOne(t, gw, store, "count orders", false))
	final := store.Transcript().Messages()[1].(chat.AssistantMessage)
	require.Equal(t, "blocking answer", final.Analysis)
}

// A failed dispatch still resolves the placeholder into a visible error
// message; the user's query is never silently dropped.
func TestSubmit_GatewayErrorResolvesWithFallback(t *testing.T) {
	_, gw, store := backend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	_, err := store.Create(context.Background())
	require.NoError(t, err)

	err = submitOne(t, gw, store, "anything", true)
	require.Error(t, err)

	tr := store.Transcript()
	require.Equal(t, 2, tr.Len())
	require.False(t, tr.HasPending())
	require.Equal(t, "anything", tr.Messages()[0].(chat.UserMessage).Content)
	require.Equal(t, FallbackAnalysis, tr.Messages()[1].(chat.AssistantMessage).Analysis)
}

func TestSubmit_EmptyAnalysisDefaults(t *testing.T) {
	_, gw, store := backend(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "event: complete\ndata: {\"chart_generated\":false}\n")
	})

	_, err := store.Create(context.Background())
	require.NoError(t, err)

	require.NoError(t, submitOne(t, gw, store, "q", true))
	require.Equal(t, NoAnalysis, store.Transcript().Messages()[1].(chat.AssistantMessage).Analysis)
}

func TestSubmit_CSVFetchedIntoDataframe(t *testing.T) {
	var base string
	srv, gw, store := backend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/table.csv":
			io.WriteString(w, "region,total\nnorth,10\n")
		case "/query/stream":
			io.WriteString(w, "event: complete\ndata: {\"analysis\":\"table attached\",\"csv_url\":\""+base+"/table.csv\"}\n")
		default:
			http.NotFound(w, r)
		}
	})
	base = srv.URL

	_, err := store.Create(context.Background())
	require.NoError(t, err)

	require.NoError(t, submitOne(t, gw, store, "table please", true))
	final := store.Transcript().Messages()[1].(chat.AssistantMessage)
	require.NotNil(t, final.Dataframe)
	require.Equal(t, []string{"region", "total"}, final.Dataframe.Columns)
}

func TestSubmit_CSVFailureIsNonFatal(t *testing.T) {
	var base string
	srv, gw, store := backend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/table.csv":
			http.Error(w, "gone", http.StatusNotFound)
		case "/query/stream":
			io.WriteString(w, "event: complete\ndata: {\"analysis\":\"no table\",\"csv_url\":\""+base+"/table.csv\"}\n")
		}
	})
	base = srv.URL

	_, err := store.Create(context.Background())
	require.NoError(t, err)

	require.NoError(t, submitOne(t, gw, store, "q", true))
	final := store.Transcript().Messages()[1].(chat.AssistantMessage)
	require.Equal(t, "no table", final.Analysis)
	require.Nil(t, final.Dataframe)
}

// Finalization after a forced double-resolution does not rename the session
// a second time or duplicate messages.
func TestSubmit_DoubleFinalizeIsSafe(t *testing.T) {
	_, gw, store := backend(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "event: complete\ndata: {\"analysis\":\"ok\"}\n")
	})

	sess, err := store.Create(context.Background())
	require.NoError(t, err)

	require.NoError(t, submitOne(t, gw, store, "first", true))
	// Re-running Submit with no pending placeholder resolves nothing.
	require.NoError(t, Submit(context.Background(), gw, store, sess.ID, "duplicate", true, nil))

	require.Equal(t, 2, store.Transcript().Len())
	require.Equal(t, "first", store.Get(sess.ID).Title)
}
