package lookup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/graaaaa/vrc-albums/internal/config"
)

func TestClient_SearchUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search"); got != "alice" {
			t.Errorf("search = %q, want alice", got)
		}
		if got := r.URL.Query().Get("n"); got != "5" {
			t.Errorf("n = %q, want 5", got)
		}
		c, err := r.Cookie("auth")
		if err != nil || c.Value != "secret-token" {
			t.Errorf("auth cookie = %v, %v", c, err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"usr_1","displayName":"alice","isFriend":true}]`))
	}))
	defer srv.Close()

	c := NewClient(config.Secret("secret-token"), WithBaseURL(srv.URL))
	users, err := c.SearchUsers(context.Background(), "alice", 5)
	if err != nil {
		t.Fatalf("SearchUsers: %v", err)
	}
	if len(users) != 1 || users[0].ID != "usr_1" || !users[0].IsFriend {
		t.Errorf("users = %+v", users)
	}
}

func TestClient_SearchUsers_StatusClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient(config.Secret("token"), WithBaseURL(srv.URL))
			_, err := c.SearchUsers(context.Background(), "x", 1)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_SearchUsers_EmptyCookie(t *testing.T) {
	c := NewClient(config.Secret(""))
	_, err := c.SearchUsers(context.Background(), "x", 1)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}
}

// fakeSearcher records call order and timing.
type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	times   []time.Time
	err     error
}

func (f *fakeSearcher) SearchUsers(_ context.Context, query string, _ int) ([]User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	f.times = append(f.times, time.Now())
	if f.err != nil {
		return nil, f.err
	}
	return []User{{ID: "usr_" + query, DisplayName: query}}, nil
}

func TestQueue_ServesFIFO(t *testing.T) {
	fake := &fakeSearcher{}
	q := NewQueue(fake, WithSpacing(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	for _, query := range []string{"a", "b", "c"} {
		users, err := q.Search(ctx, query, 1)
		if err != nil {
			t.Fatalf("Search(%s): %v", query, err)
		}
		if len(users) != 1 || users[0].DisplayName != query {
			t.Errorf("Search(%s) = %+v", query, users)
		}
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.queries) != 3 {
		t.Fatalf("served %d requests, want 3", len(fake.queries))
	}
	for i, want := range []string{"a", "b", "c"} {
		if fake.queries[i] != want {
			t.Errorf("queries[%d] = %s, want %s", i, fake.queries[i], want)
		}
	}
}

func TestQueue_EnforcesSpacing(t *testing.T) {
	fake := &fakeSearcher{}
	spacing := 50 * time.Millisecond
	q := NewQueue(fake, WithSpacing(spacing))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	if _, err := q.Search(ctx, "a", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := q.Search(ctx, "b", 1); err != nil {
		t.Fatal(err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if gap := fake.times[1].Sub(fake.times[0]); gap < spacing {
		t.Errorf("dispatch gap = %v, want >= %v", gap, spacing)
	}
}

func TestQueue_PropagatesErrors(t *testing.T) {
	wantErr := errors.New("search exploded")
	fake := &fakeSearcher{err: wantErr}
	q := NewQueue(fake, WithSpacing(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	_, err := q.Search(ctx, "a", 1)
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
}

func TestQueue_FullRejects(t *testing.T) {
	fake := &fakeSearcher{}
	q := NewQueue(fake, WithMaxPending(1))
	// Run is intentionally not started, so the first request fills the
	// queue and the second is rejected.

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		q.Search(ctx, "a", 1)
	}()

	time.Sleep(10 * time.Millisecond)
	_, err := q.Search(context.Background(), "b", 1)
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("error = %v, want ErrQueueFull", err)
	}
	<-done
}

func TestQueue_CancelDrainsPending(t *testing.T) {
	fake := &fakeSearcher{}
	q := NewQueue(fake, WithSpacing(time.Hour)) // never dispatches a second request

	ctx, cancel := context.WithCancel(context.Background())
	go q.Run(ctx)

	// First request dispatches immediately; the second sits in the queue
	// behind the one-hour spacing until cancellation.
	if _, err := q.Search(ctx, "a", 1); err != nil {
		t.Fatal(err)
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Search(context.Background(), "b", 1)
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("pending request not drained after cancel")
	}
}
