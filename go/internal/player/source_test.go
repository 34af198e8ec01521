package player

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSource_FetchCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/players":
			if r.Header.Get("X-Api-Key") != "k" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"players":[{"id":"2","position":"wr","adp":9.5},{"id":"1","position":"QB","adp":3}]}`))
		case "/players.yaml":
			_, _ = w.Write([]byte("players:\n  - {id: \"7\", position: TE}\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	ctx := context.Background()

	src := NewHTTPSource(srv.URL + "/")
	_, err := src.FetchCatalog(ctx, "/players")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	src.SetHeader("X-Api-Key", "k")
	c, err := src.FetchCatalog(ctx, "/players")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, c.Ranked())

	c, err = Load(ctx, srv.URL+"/players.yaml")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	_, err = Load(ctx, srv.URL+"/missing")
	require.Error(t, err)
}
