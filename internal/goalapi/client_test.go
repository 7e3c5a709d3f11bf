package goalapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/sgp/internal/model"
	"github.com/theirongolddev/sgp/internal/pipeline"
)

type recorded struct {
	Method    string
	Path      string
	Body      string
	RequestID string
	CType     string
}

// fakeAPI serves canned responses and records requests.
type fakeAPI struct {
	mu       sync.Mutex
	requests []recorded
	status   int
	body     string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{
		Method:    r.Method,
		Path:      r.URL.EscapedPath(),
		Body:      string(raw),
		RequestID: r.Header.Get("X-Request-Id"),
		CType:     r.Header.Get("Content-Type"),
	})
	status, body := f.status, f.body
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *fakeAPI) last(t *testing.T) recorded {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests, "no requests recorded")
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, api *fakeAPI, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/api/", opts...)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:5000", "ftp://host/api", "http://"} {
		if _, err := New(raw); !errors.Is(err, ErrInvalidBaseURL) {
			t.Fatalf("New(%q) err = %v, want ErrInvalidBaseURL", raw, err)
		}
	}
}

func TestList(t *testing.T) {
	api := &fakeAPI{body: `[
		{"id": 1, "name": "Trip", "category": "Travel", "targetAmount": 1000, "savedAmount": "250", "deadline": "2026-12-01"},
		{"id": "b", "name": "Fund", "category": "Emergency", "targetAmount": null}
	]`}
	c := newTestClient(t, api)

	goals, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, goals, 2)
	require.Equal(t, model.ID("1"), goals[0].ID)
	require.Equal(t, 250.0, goals[0].Saved())
	require.Equal(t, 0.0, goals[1].Target())

	req := api.last(t)
	require.Equal(t, http.MethodGet, req.Method)
	require.Equal(t, "/api/goals", req.Path)
	require.NotEmpty(t, req.RequestID)
}

func TestList_NullBodyIsEmpty(t *testing.T) {
	c := newTestClient(t, &fakeAPI{body: `null`})
	goals, err := c.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, goals)
	require.Empty(t, goals)
}

func TestCreate_StampsCreatedAt(t *testing.T) {
	api := &fakeAPI{status: http.StatusCreated, body: `{"id":"new1","name":"Bike","category":"Vehicle","targetAmount":800,"savedAmount":0,"deadline":"2026-09-01","createdAt":"2026-05-04T03:02:01.000Z"}`}
	fixed := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	c := newTestClient(t, api, WithClock(func() time.Time { return fixed }))

	g, err := c.Create(context.Background(), model.Draft{
		Name:         "Bike",
		TargetAmount: 800,
		Category:     model.CategoryVehicle,
		Deadline:     "2026-09-01",
	})
	require.NoError(t, err)
	require.Equal(t, model.ID("new1"), g.ID)

	req := api.last(t)
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "/api/goals", req.Path)
	require.Equal(t, "application/json", req.CType)

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &sent))
	require.Equal(t, "2026-05-04T03:02:01.000Z", sent["createdAt"])
	require.Equal(t, "Bike", sent["name"])
	require.Equal(t, 800.0, sent["targetAmount"])
	require.Equal(t, 0.0, sent["savedAmount"])
	require.NotContains(t, sent, "id")
}

func TestUpdate(t *testing.T) {
	api := &fakeAPI{body: `{"id":"7","name":"Renamed","targetAmount":100,"savedAmount":40}`}
	c := newTestClient(t, api)

	name := "Renamed"
	g, err := c.Update(context.Background(), model.Goal{ID: "7", Name: "Old"}, model.Patch{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Renamed", g.Name)
	require.Equal(t, 40.0, g.Saved())

	req := api.last(t)
	require.Equal(t, http.MethodPut, req.Method)
	require.Equal(t, "/api/goals/7", req.Path)
	require.JSONEq(t, `{"name":"Renamed"}`, req.Body)
}

func TestUpdate_EmptyBodyFallsBackToPatch(t *testing.T) {
	api := &fakeAPI{status: http.StatusNoContent}
	c := newTestClient(t, api)

	orig := model.Goal{ID: "a/b", Name: "Car", Category: model.CategoryVehicle, TargetAmount: 9000, SavedAmount: 10, Deadline: "2027-05-01", CreatedAt: "2026-01-01T00:00:00.000Z"}
	in := model.InputFromGoal(orig)
	in.Saved = "55"

	g, err := c.Update(context.Background(), orig, model.PatchFrom(in.Apply(orig)))
	require.NoError(t, err)
	require.Equal(t, model.ID("a/b"), g.ID)
	require.Equal(t, 55.0, g.Saved())
	require.Equal(t, orig.CreatedAt, g.CreatedAt)

	list := pipeline.WithUpdated([]model.Goal{orig}, g)
	require.Equal(t, orig.CreatedAt, list[0].CreatedAt)
	require.Equal(t, "/api/goals/a%2Fb", api.last(t).Path)
}

func TestUpdate_PartialBodyKeepsLocalFields(t *testing.T) {
	c := newTestClient(t, &fakeAPI{body: `{"id":3,"savedAmount":"250"}`})

	orig := model.Goal{ID: "3", Name: "Fund", Category: model.CategoryEmergency, TargetAmount: 500, SavedAmount: 5, CreatedAt: "2026-02-02T00:00:00.000Z"}
	saved := model.Amount(250)
	g, err := c.Update(context.Background(), orig, model.Patch{SavedAmount: &saved})
	require.NoError(t, err)
	require.Equal(t, "Fund", g.Name)
	require.Equal(t, 250.0, g.Saved())
	require.Equal(t, 500.0, g.Target())
	require.Equal(t, orig.CreatedAt, g.CreatedAt)
}

func TestResponseTooLarge(t *testing.T) {
	c := newTestClient(t, &fakeAPI{body: "[" + strings.Repeat(" ", maxBodySize) + "]"})

	_, err := c.List(context.Background())
	require.ErrorIs(t, err, ErrFetchFailed)
	require.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestDelete(t *testing.T) {
	api := &fakeAPI{status: http.StatusNoContent}
	c := newTestClient(t, api)

	require.NoError(t, c.Delete(context.Background(), "a/b"))
	req := api.last(t)
	require.Equal(t, http.MethodDelete, req.Method)
	require.Equal(t, "/api/goals/a%2Fb", req.Path)
}

func TestFailuresWrapFetchFailed(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeAPI
		call func(*Client) error
	}{
		{"list 500", &fakeAPI{status: 500, body: `{"error":"boom"}`}, func(c *Client) error {
			_, err := c.List(context.Background())
			return err
		}},
		{"list bad json", &fakeAPI{body: `{"not":"a list"}`}, func(c *Client) error {
			_, err := c.List(context.Background())
			return err
		}},
		{"create 400", &fakeAPI{status: 400}, func(c *Client) error {
			_, err := c.Create(context.Background(), model.Draft{Name: "x"})
			return err
		}},
		{"update 404", &fakeAPI{status: 404}, func(c *Client) error {
			_, err := c.Update(context.Background(), model.Goal{ID: "1"}, model.Patch{})
			return err
		}},
		{"delete 503", &fakeAPI{status: 503}, func(c *Client) error {
			return c.Delete(context.Background(), "1")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.api)
			err := tt.call(c)
			if !errors.Is(err, ErrFetchFailed) {
				t.Fatalf("err = %v, want ErrFetchFailed", err)
			}
			if strings.Contains(err.Error(), "boom") {
				t.Fatalf("err = %v, response body should not be surfaced", err)
			}
		})
	}
}

func TestNetworkErrorWrapsFetchFailed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(base)
	require.NoError(t, err)
	_, err = c.List(context.Background())
	require.ErrorIs(t, err, ErrFetchFailed)
}

func TestCancelledContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(block) })

	c, err := New(srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.List(ctx)
	require.ErrorIs(t, err, ErrFetchFailed)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoad(t *testing.T) {
	ok := newTestClient(t, &fakeAPI{body: `[{"id":"1","name":"a"}]`})
	st := ok.Load(context.Background())
	require.Equal(t, StatusLoaded, st.Status)
	require.True(t, st.Ready())
	require.Len(t, st.Goals, 1)
	require.False(t, st.FetchedAt.IsZero())

	bad := newTestClient(t, &fakeAPI{status: 502})
	st = bad.Load(context.Background())
	require.Equal(t, StatusFailed, st.Status)
	require.ErrorIs(t, st.Err, ErrFetchFailed)
	require.Equal(t, "Failed to fetch goals", st.Message())
	require.Equal(t, "Loading...", Loading().Message())
}
