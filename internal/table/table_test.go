package table

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	in := "name,amount\nwidgets,12\ngears,3\n"

	tbl, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, []string{"name", "amount"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)
	require.Equal(t, []string{"gears", "3"}, tbl.Rows[1])
}

func TestParse_Empty(t *testing.T) {
	tbl, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, tbl.Columns)
	require.Empty(t, tbl.Rows)
}

func TestParse_Malformed(t *testing.T) {
	// Unterminated quote is a CSV syntax error.
	_, err := Parse(strings.NewReader("a,b\n\"oops,1\n2,\"three"))
	require.Error(t, err)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("product,total\nchairs,5\n"))
	}))
	defer srv.Close()

	tbl, err := Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, []string{"product", "total"}, tbl.Columns)
	require.Equal(t, [][]string{{"chairs", "5"}}, tbl.Rows)
}

func TestFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.URL)
	require.Error(t, err)
}
