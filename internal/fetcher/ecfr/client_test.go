package ecfr

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func newTestClient(baseURL string) *Client {
	return New(
		Config{BaseURL: baseURL},
		fixedClock{now: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)},
		zap.NewNop(),
	)
}

func TestClient_ListTitles(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/titles", r.URL.Path)
		fmt.Fprint(w, `{"titles":[{"number":1,"name":"General Provisions"},{"number":40,"name":"Protection of Environment"}]}`)
	}))
	defer srv.Close()

	titles, err := newTestClient(srv.URL).ListTitles(context.Background())
	require.NoError(t, err)
	require.Len(t, titles, 2)
	require.Equal(t, 40, titles[1].Number)
	require.Equal(t, "Protection of Environment", titles[1].Name)
}

func TestClient_ListTitles_BadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	titles, err := newTestClient(srv.URL).ListTitles(context.Background())
	require.Error(t, err)
	require.Empty(t, titles)
}

func TestClient_ListTitles_MalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"titles":`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ListTitles(context.Background())
	require.Error(t, err)
}

func TestClient_FetchTitleContent_MeasuresExactBytes(t *testing.T) {
	t.Parallel()

	payload := `{"title":"Protection of Environment","chapters":["I","II"]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/full/2026-03-15/title-40.json", r.URL.Path)
		fmt.Fprint(w, payload)
	}))
	defer srv.Close()

	ts, err := newTestClient(srv.URL).FetchTitleContent(context.Background(), 40)
	require.NoError(t, err)
	require.Equal(t, 40, ts.TitleNumber)
	require.Equal(t, "Protection of Environment", ts.TitleName)
	require.Equal(t, int64(len(payload)), ts.SizeBytes)
}

func TestClient_FetchTitleContent_NameFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"chapters":[]}`)
	}))
	defer srv.Close()

	ts, err := newTestClient(srv.URL).FetchTitleContent(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "Title 7", ts.TitleName)
}

func TestClient_FetchTitleContent_MalformedJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html>not json</html>`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchTitleContent(context.Background(), 3)
	require.Error(t, err)
}

func TestClient_FetchTitleContent_BadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchTitleContent(context.Background(), 35)
	require.Error(t, err)
}

func TestClient_FetchTitleContent_Timeout(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	client := New(
		Config{BaseURL: srv.URL, FetchTimeout: 50 * time.Millisecond},
		fixedClock{now: time.Now()},
		zap.NewNop(),
	)

	_, err := client.FetchTitleContent(context.Background(), 1)
	require.Error(t, err)
}
