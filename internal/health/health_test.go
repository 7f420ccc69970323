package health

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanpaul/cookbook/internal/codec"
	"github.com/jeanpaul/cookbook/internal/store"
)

func TestCheck_Reachable(t *testing.T) {
	var gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := Check(context.Background(), srv.URL, "https://example.test/game/")
	assert.True(t, s.Reachable)
	assert.False(t, s.Blocked)
	assert.Empty(t, s.Error)
	assert.Equal(t, http.StatusOK, s.StatusCode)
	assert.Equal(t, "https://example.test/game/", gotReferer)
}

func TestCheck_Blocked(t *testing.T) {
	for _, code := range []int{http.StatusForbidden, http.StatusTooManyRequests} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		s := Check(context.Background(), srv.URL, "")
		srv.Close()

		assert.True(t, s.Reachable, "%d", code)
		assert.True(t, s.Blocked, "%d", code)
		assert.NotEmpty(t, s.Error, "%d", code)
	}
}

func TestCheck_Unreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	s := Check(context.Background(), "http://"+addr, "")
	assert.False(t, s.Reachable)
	assert.Contains(t, s.Error, "cannot reach")
}

func TestCheckCollection(t *testing.T) {
	dir := t.TempDir()

	missing := CheckCollection(filepath.Join(dir, "none.ron"), 10)
	assert.False(t, missing.Exists)
	assert.Empty(t, missing.Error)

	path := filepath.Join(dir, "collection.ron")
	st := store.New()
	st.MarkExhausted("Fire", "Fire")
	require.NoError(t, codec.NewFile(codec.New(codec.DefaultLevel, nil), path, 10).Save(st))

	ok := CheckCollection(path, 10)
	assert.True(t, ok.Exists)
	assert.True(t, ok.Loadable)
	assert.Equal(t, 4, ok.Items)
	assert.Equal(t, 1, ok.Exhausted)
	assert.Positive(t, ok.Size)

	bad := filepath.Join(dir, "bad.ron")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0644))
	broken := CheckCollection(bad, 10)
	assert.True(t, broken.Exists)
	assert.False(t, broken.Loadable)
	assert.NotEmpty(t, broken.Error)
}
