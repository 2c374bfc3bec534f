package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{BaseURL: srv.URL + "/", Token: "tok", PageSize: 2, Timeout: 5 * time.Second}, nil)
	c.retryDelay = time.Millisecond
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func catsQuery() domain.QueryState {
	return domain.QueryState{Text: "cats", Filters: domain.DefaultFilters()}
}

func TestFetchPage_Params(t *testing.T) {
	var got url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/method/video.search", r.URL.Path)
		got = r.URL.Query()
		writeJSON(t, w, Envelope{Response: &SearchResponse{}})
	})

	minDur, maxDur := uint(60), uint(600)
	q := domain.QueryState{Text: "cats", Filters: domain.Filters{
		HDOnly:       true,
		IncludeAdult: false,
		Sort:         domain.SortRelevance,
		MinDuration:  &minDur,
		MaxDuration:  &maxDur,
	}}

	_, err := c.FetchPage(context.Background(), q, "4")
	require.NoError(t, err)

	assert.Equal(t, "cats", got.Get("q"))
	assert.Equal(t, "2", got.Get("sort"))
	assert.Equal(t, "1", got.Get("hd"))
	assert.Equal(t, "0", got.Get("adult"))
	assert.Equal(t, "60", got.Get("longer"))
	assert.Equal(t, "600", got.Get("shorter"))
	assert.Equal(t, "4", got.Get("offset"))
	assert.Equal(t, "2", got.Get("count"))
	assert.Equal(t, "tok", got.Get("access_token"))
	assert.Equal(t, defaultAPIVersion, got.Get("v"))
}

func TestFetchPage_OptionalDurationsOmitted(t *testing.T) {
	var got url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		writeJSON(t, w, Envelope{Response: &SearchResponse{}})
	})

	_, err := c.FetchPage(context.Background(), catsQuery(), "")
	require.NoError(t, err)

	assert.False(t, got.Has("longer"))
	assert.False(t, got.Has("shorter"))
	assert.Equal(t, "0", got.Get("offset"))
	assert.Equal(t, "0", got.Get("sort"))
}

func TestFetchPage_Paging(t *testing.T) {
	items := []Video{
		{ID: 1, OwnerID: -10, Title: "a", Duration: 61, Photo320: "p1", Files: Files{MP4720: "u720", HLS: "uhls"}},
		{ID: 2, OwnerID: -10, Title: "b", Files: Files{MP4240: "u240"}},
		{ID: 3, OwnerID: 7, Title: "c"},
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var offset int
		fmt.Sscan(r.URL.Query().Get("offset"), &offset)
		end := min(offset+2, len(items))
		writeJSON(t, w, Envelope{Response: &SearchResponse{Count: len(items), Items: items[offset:end]}})
	})

	first, err := c.FetchPage(context.Background(), catsQuery(), "")
	require.NoError(t, err)
	require.Len(t, first.Records, 2)
	assert.Equal(t, domain.Cursor("2"), first.Next)

	a := first.Records[0]
	assert.Equal(t, "-10_1", a.ID)
	assert.Equal(t, uint(61), a.Duration)
	assert.Equal(t, "p1", a.ThumbnailURL)
	stream, ok := a.PlayableURL()
	assert.True(t, ok)
	assert.Equal(t, "u720", stream)

	last, err := c.FetchPage(context.Background(), catsQuery(), first.Next)
	require.NoError(t, err)
	require.Len(t, last.Records, 1)
	assert.Equal(t, "7_3", last.Records[0].ID)
	assert.True(t, last.Next.Done())

	_, ok = last.Records[0].PlayableURL()
	assert.False(t, ok)
}

func TestFetchPage_EmptyPageEnds(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Count says more, but the page is empty
		writeJSON(t, w, Envelope{Response: &SearchResponse{Count: 100}})
	})

	page, err := c.FetchPage(context.Background(), catsQuery(), "50")
	require.NoError(t, err)
	assert.Empty(t, page.Records)
	assert.True(t, page.Next.Done())
}

func TestFetchPage_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(t, w, Envelope{Response: &SearchResponse{Count: 1, Items: []Video{{ID: 1, OwnerID: 1}}}})
	})

	page, err := c.FetchPage(context.Background(), catsQuery(), "")
	require.NoError(t, err)
	assert.Len(t, page.Records, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchPage_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.FetchPage(context.Background(), catsQuery(), "")
	assert.ErrorContains(t, err, "503")
	assert.Equal(t, int32(maxRetries+1), calls.Load())
}

func TestFetchPage_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(t, w, Envelope{Error: &APIError{Code: errCodeTooManyReqs, Message: "Too many requests per second"}})
			return
		}
		writeJSON(t, w, Envelope{Response: &SearchResponse{}})
	})

	_, err := c.FetchPage(context.Background(), catsQuery(), "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchPage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name:    "http unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
			check:   func(t *testing.T, err error) { assert.ErrorIs(t, err, domain.ErrAuthFailed) },
		},
		{
			name: "api auth error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, Envelope{Error: &APIError{Code: errCodeAuth, Message: "invalid access_token"}})
			},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, domain.ErrAuthFailed) },
		},
		{
			name: "api error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, Envelope{Error: &APIError{Code: 100, Message: "bad param"}})
			},
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, 100, apiErr.Code)
			},
		},
		{
			name:    "not found",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			check:   func(t *testing.T, err error) { assert.ErrorContains(t, err, "404") },
		},
		{
			name:    "garbage",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("<html>")) },
			check:   func(t *testing.T, err error) { assert.ErrorContains(t, err, "parse") },
		},
		{
			name:    "empty envelope",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("{}")) },
			check:   func(t *testing.T, err error) { assert.Error(t, err) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.FetchPage(context.Background(), catsQuery(), "")
			tt.check(t, err)
		})
	}
}

func TestFetchPage_ServerOffline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, nil)
	_, err := c.FetchPage(context.Background(), catsQuery(), "")
	assert.ErrorIs(t, err, domain.ErrServerOffline)
}

func TestFetchPage_InvalidCursor(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://unused"}, nil)
	_, err := c.FetchPage(context.Background(), catsQuery(), "next-please")
	assert.ErrorContains(t, err, "invalid cursor")
}

func TestFetchPage_CancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchPage(ctx, catsQuery(), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMapFiles(t *testing.T) {
	variants := MapFiles(Files{MP4480: "u480", MP41080: "u1080"})
	require.Len(t, variants, 6)

	stream, ok := domain.ResolveVariant(variants)
	assert.True(t, ok)
	assert.Equal(t, "u480", stream, "primary qualities win over 1080")
}
