package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/veldra/credvault-go/internal/core/domain"
	"github.com/veldra/credvault-go/internal/core/service"
	"github.com/veldra/credvault-go/internal/storage/memory"
	"github.com/veldra/credvault-go/pkg/crypto/sealed"
)

// ==== Test doubles ====

type staticTokens struct {
	mu  sync.Mutex
	tok string
}

func (s *staticTokens) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tok
}

func (s *staticTokens) set(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = tok
}

type fakeCoordinator struct {
	calls int32
	token string
	err   error
	// onRefresh lets a test swap the token source mid-refresh.
	onRefresh func()
}

func (f *fakeCoordinator) Refresh(ctx context.Context) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.onRefresh != nil {
		f.onRefresh()
	}
	return f.token, f.err
}

// ==== RoundTrip behavior ====

func TestTransportAttachesBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := &http.Client{Transport: &AuthTransport{
		Tokens:      &staticTokens{tok: "eyJ.access"},
		Coordinator: &fakeCoordinator{},
	}}
	resp, err := client.Get(srv.URL + "/profile")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer eyJ.access" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestTransportNoTokenNoHeader(t *testing.T) {
	var gotAuth string
	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, hasAuth = r.Header["Authorization"]
	}))
	defer srv.Close()

	client := &http.Client{Transport: &AuthTransport{
		Tokens:      &staticTokens{},
		Coordinator: &fakeCoordinator{},
	}}
	resp, err := client.Get(srv.URL + "/profile")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	if hasAuth {
		t.Errorf("Authorization header sent without a session: %q", gotAuth)
	}
}

func TestTransportRetriesOnceAfterRefresh(t *testing.T) {
	tokens := &staticTokens{tok: "eyJ.stale"}
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Header.Get("Authorization") != "Bearer eyJ.fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	coord := &fakeCoordinator{token: "eyJ.fresh"}
	coord.onRefresh = func() { tokens.set("eyJ.fresh") }

	client := &http.Client{Transport: &AuthTransport{Tokens: tokens, Coordinator: coord}}
	resp, err := client.Get(srv.URL + "/profile")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("status = %d, body = %q", resp.StatusCode, body)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("server hits = %d, want 2", got)
	}
	if got := atomic.LoadInt32(&coord.calls); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
}

func TestTransportRetryBodyResent(t *testing.T) {
	tokens := &staticTokens{tok: "eyJ.stale"}
	var bodies []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer eyJ.fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}))
	defer srv.Close()

	coord := &fakeCoordinator{token: "eyJ.fresh"}
	client := &http.Client{Transport: &AuthTransport{Tokens: tokens, Coordinator: coord}}

	resp, err := client.Post(srv.URL+"/update-profile", "application/json", strings.NewReader(`{"full_name":"New Name"}`))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 2 {
		t.Fatalf("server saw %d requests, want 2", len(bodies))
	}
	for i, b := range bodies {
		if b != `{"full_name":"New Name"}` {
			t.Errorf("request %d body = %q", i, b)
		}
	}
}

func TestTransportSecondUnauthorizedSurfaced(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	coord := &fakeCoordinator{token: "eyJ.still.bad"}
	client := &http.Client{Transport: &AuthTransport{
		Tokens:      &staticTokens{tok: "eyJ.stale"},
		Coordinator: coord,
	}}
	resp, err := client.Get(srv.URL + "/profile")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("server hits = %d, want exactly 2", got)
	}
	if got := atomic.LoadInt32(&coord.calls); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
}

func TestTransportRefreshFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	coord := &fakeCoordinator{err: domain.ErrRefreshFailed}
	client := &http.Client{Transport: &AuthTransport{
		Tokens:      &staticTokens{tok: "eyJ.stale"},
		Coordinator: coord,
	}}
	_, err := client.Get(srv.URL + "/profile")
	if err == nil || !errors.Is(err, domain.ErrRefreshFailed) {
		t.Errorf("error = %v, want ErrRefreshFailed", err)
	}
}

func TestTransportExemptPathsSkipRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	for _, path := range []string{PathLogin, PathRefreshToken, PathVerifyPasswordReset, PathResetPassword} {
		t.Run(strings.TrimPrefix(path, "/"), func(t *testing.T) {
			coord := &fakeCoordinator{token: "eyJ.fresh"}
			client := &http.Client{Transport: &AuthTransport{
				Tokens:      &staticTokens{tok: "eyJ.stale"},
				Coordinator: coord,
			}}
			resp, err := client.Post(srv.URL+path, "application/json", strings.NewReader("{}"))
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			resp.Body.Close()

			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401 passed through", resp.StatusCode)
			}
			if got := atomic.LoadInt32(&coord.calls); got != 0 {
				t.Errorf("refresh calls = %d, want 0", got)
			}
		})
	}
}

// ==== End to end through the real coordinator ====

// A burst of concurrent requests with a stale token must collapse into
// exactly one backend refresh call, and every request must succeed with
// the rotated token.
func TestTransportConcurrentRefreshSingleFlight(t *testing.T) {
	const workers = 8

	var refreshCalls, rejected int32
	var mu sync.Mutex
	validToken := "eyJ.stale"
	allRejected := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc(PathRefreshToken, func(w http.ResponseWriter, r *http.Request) {
		// Hold the refresh until every worker has been rejected once, so
		// all of them are queued on the coordinator when it settles.
		<-allRejected
		time.Sleep(50 * time.Millisecond)

		n := atomic.AddInt32(&refreshCalls, 1)
		fresh := fmt.Sprintf("eyJ.fresh.%d", n)
		mu.Lock()
		validToken = fresh
		mu.Unlock()
		json.NewEncoder(w).Encode(apiResponse{Token: fresh, RefreshToken: "eyJ.refresh.rotated"})
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		valid := "Bearer " + validToken
		stale := validToken == "eyJ.stale"
		mu.Unlock()
		if r.Header.Get("Authorization") != valid || stale {
			if atomic.AddInt32(&rejected, 1) == workers {
				close(allRejected)
			}
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, "ok")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	codec, err := sealed.NewCodec([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	store := service.NewCredentialStore(memory.NewStore(), codec)
	defer store.Close()
	store.Load(context.Background())
	if err := store.SetSession("eyJ.stale", &domain.User{Email: "dev@example.com"}, "eyJ.refresh.0"); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	backend := NewClient(srv.URL)
	coord := service.NewRefreshCoordinator(store, backend)

	client := &http.Client{Transport: &AuthTransport{Tokens: store, Coordinator: coord}}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := client.Get(srv.URL + "/profile")
			if err != nil {
				errs <- err
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				errs <- fmt.Errorf("status %d", resp.StatusCode)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("worker: %v", err)
	}

	if got := atomic.LoadInt32(&refreshCalls); got != 1 {
		t.Errorf("backend refresh calls = %d, want exactly 1", got)
	}
	if got := store.AccessToken(); got != "eyJ.fresh.1" {
		t.Errorf("stored access token = %q", got)
	}
	if got := store.RefreshToken(); got != "eyJ.refresh.rotated" {
		t.Errorf("stored refresh token = %q", got)
	}
}
