package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/festa/internal/models"
	"github.com/desertthunder/festa/internal/services"
	"github.com/desertthunder/festa/internal/shared"
	tu "github.com/desertthunder/festa/internal/testing"
)

func newFake(t *testing.T) *tu.FakeAPI {
	t.Helper()
	fake := tu.NewFakeAPI(t)
	fake.AddUser("alice", "secret", models.Profile{UID: "uid-alice", Name: "Alice", Role: models.RoleUser})
	fake.AddUser("guest", "secret", models.Profile{UID: "uid-guest", Name: "Guest", Role: models.RoleGuest})
	fake.SeedFestivals(3)
	return fake
}

func newManager(t *testing.T, fake *tu.FakeAPI, store Store) *Manager {
	t.Helper()
	m, err := New(context.Background(), Options{
		Auth:  services.NewUserService(services.NewAPIService(fake.URL(), nil)),
		Store: store,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return m
}

// stubAuth lets a test control each account call.
type stubAuth struct {
	login   func(ctx context.Context, id, pw string) (*models.TokenPair, error)
	profile func(ctx context.Context, access string) (*models.Profile, error)
	refresh func(ctx context.Context, refresh string) (string, error)
}

func (s *stubAuth) Login(ctx context.Context, id, pw string) (*models.TokenPair, error) {
	return s.login(ctx, id, pw)
}

func (s *stubAuth) Profile(ctx context.Context, access string) (*models.Profile, error) {
	return s.profile(ctx, access)
}

func (s *stubAuth) Refresh(ctx context.Context, refresh string) (string, error) {
	return s.refresh(ctx, refresh)
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	t.Run("New", func(t *testing.T) {
		t.Run("Requires Authenticator", func(t *testing.T) {
			if _, err := New(ctx, Options{}); !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})

		t.Run("Loads Stored Tokens", func(t *testing.T) {
			fake := newFake(t)
			access := tu.Token(t, "alice", time.Hour)
			m := newManager(t, fake, NewMemoryStore(access, "r1"))

			a, r := m.Tokens()
			if a != access || r != "r1" {
				t.Errorf("expected stored tokens, got %q %q", a, r)
			}
			if s := m.Snapshot(); s.Authenticated || s.Expiry.IsZero() {
				t.Errorf("expected unauthenticated state with expiry, got %+v", s)
			}
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("Persists Tokens And Profile", func(t *testing.T) {
			fake := newFake(t)
			store := NewMemoryStore("", "")
			m := newManager(t, fake, store)

			profile, err := m.Login(ctx, "alice", "secret")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if profile.UID != "uid-alice" {
				t.Errorf("unexpected profile %+v", profile)
			}

			s := m.Snapshot()
			if !s.Authenticated || s.User == nil || s.Loading {
				t.Errorf("expected authenticated idle state, got %+v", s)
			}
			if v, _ := store.Get(KeyAccessToken); v != s.AccessToken {
				t.Error("expected access token persisted")
			}
			if v, _ := store.Get(KeyRefreshToken); v != s.RefreshToken || v == "" {
				t.Error("expected refresh token persisted")
			}
		})

		t.Run("Unapproved Account Stores Nothing", func(t *testing.T) {
			fake := newFake(t)
			store := NewMemoryStore("", "")
			m := newManager(t, fake, store)

			_, err := m.Login(ctx, "guest", "secret")
			if !errors.Is(err, shared.ErrAccountNotApproved) {
				t.Fatalf("expected ErrAccountNotApproved, got %v", err)
			}
			if store.Len() != 0 {
				t.Errorf("expected empty store, got %d keys", store.Len())
			}
			if a, r := m.Tokens(); a != "" || r != "" {
				t.Errorf("expected no tokens held, got %q %q", a, r)
			}
		})

		t.Run("Profile Failure Keeps Degraded Session", func(t *testing.T) {
			fake := newFake(t)
			fake.FailProfile(http.StatusInternalServerError)
			store := NewMemoryStore("", "")
			m := newManager(t, fake, store)

			profile, err := m.Login(ctx, "alice", "secret")
			if err != nil {
				t.Fatalf("expected login to succeed, got %v", err)
			}
			if profile != nil {
				t.Errorf("expected no profile, got %+v", profile)
			}

			s := m.Snapshot()
			if s.Authenticated || s.User != nil || s.AccessToken == "" {
				t.Errorf("expected degraded session, got %+v", s)
			}
			if store.Len() != 2 {
				t.Errorf("expected both tokens persisted, got %d keys", store.Len())
			}
		})

		t.Run("Bad Credentials", func(t *testing.T) {
			m := newManager(t, newFake(t), nil)
			if _, err := m.Login(ctx, "alice", "wrong"); !errors.Is(err, shared.ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	})

	t.Run("Logout", func(t *testing.T) {
		fake := newFake(t)
		store := NewMemoryStore("", "")
		m := newManager(t, fake, store)
		if _, err := m.Login(ctx, "alice", "secret"); err != nil {
			t.Fatalf("expected login to succeed, got %v", err)
		}

		for range 2 {
			if err := m.Logout(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			s := m.Snapshot()
			if s.AccessToken != "" || s.RefreshToken != "" || s.User != nil || s.Authenticated {
				t.Errorf("expected empty state, got %+v", s)
			}
			if store.Len() != 0 {
				t.Errorf("expected empty store, got %d keys", store.Len())
			}
		}
	})

	t.Run("Initialize", func(t *testing.T) {
		t.Run("No Stored Token", func(t *testing.T) {
			m := newManager(t, newFake(t), nil)
			if err := m.Initialize(ctx); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})

		t.Run("Valid Stored Token", func(t *testing.T) {
			fake := newFake(t)
			pair := fake.Grant(t, "alice")
			m := newManager(t, fake, NewMemoryStore(pair.AccessToken, pair.RefreshToken))

			if err := m.Initialize(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if s := m.Snapshot(); !s.Authenticated || s.User.Name != "Alice" {
				t.Errorf("expected restored session, got %+v", s)
			}
		})

		t.Run("Expired Access Token Is Refreshed", func(t *testing.T) {
			fake := newFake(t)
			pair := fake.Grant(t, "alice")
			fake.Expire(pair.AccessToken)
			store := NewMemoryStore(pair.AccessToken, pair.RefreshToken)
			m := newManager(t, fake, store)

			if err := m.Initialize(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			a, _ := m.Tokens()
			if a == pair.AccessToken {
				t.Error("expected a new access token")
			}
			if v, _ := store.Get(KeyAccessToken); v != a {
				t.Error("expected refreshed token persisted")
			}
			if fake.Hits("refresh") != 1 {
				t.Errorf("expected one refresh, got %d", fake.Hits("refresh"))
			}
		})

		t.Run("Unrecoverable Clears Session", func(t *testing.T) {
			fake := newFake(t)
			pair := fake.Grant(t, "alice")
			fake.Expire(pair.AccessToken)
			fake.Revoke(pair.RefreshToken)
			store := NewMemoryStore(pair.AccessToken, pair.RefreshToken)
			m := newManager(t, fake, store)

			if err := m.Initialize(ctx); !errors.Is(err, shared.ErrProfileFetch) {
				t.Fatalf("expected ErrProfileFetch, got %v", err)
			}
			if store.Len() != 0 {
				t.Errorf("expected store cleared, got %d keys", store.Len())
			}
		})
	})

	t.Run("RefreshAccessToken", func(t *testing.T) {
		t.Run("No Refresh Token", func(t *testing.T) {
			m := newManager(t, newFake(t), NewMemoryStore("a1", ""))
			if _, err := m.RefreshAccessToken(ctx); !errors.Is(err, shared.ErrNoRefreshToken) {
				t.Errorf("expected ErrNoRefreshToken, got %v", err)
			}
		})

		t.Run("Commits Only The Access Token", func(t *testing.T) {
			fake := newFake(t)
			pair := fake.Grant(t, "alice")
			m := newManager(t, fake, NewMemoryStore(pair.AccessToken, pair.RefreshToken))

			access, err := m.RefreshAccessToken(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			a, r := m.Tokens()
			if a != access || r != pair.RefreshToken {
				t.Errorf("expected new access and unchanged refresh, got %q %q", a, r)
			}
		})

		t.Run("Completion After Logout Is Discarded", func(t *testing.T) {
			started := make(chan struct{})
			release := make(chan struct{})
			auth := &stubAuth{refresh: func(ctx context.Context, refresh string) (string, error) {
				close(started)
				<-release
				return "a2", nil
			}}
			m, err := New(ctx, Options{Auth: auth, Store: NewMemoryStore("a1", "r1")})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			done := make(chan error, 1)
			go func() {
				_, err := m.RefreshAccessToken(ctx)
				done <- err
			}()

			<-started
			if err := m.Logout(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			close(release)

			if err := <-done; !errors.Is(err, shared.ErrSessionExpired) {
				t.Errorf("expected ErrSessionExpired, got %v", err)
			}
			if a, r := m.Tokens(); a != "" || r != "" {
				t.Errorf("expected session to stay cleared, got %q %q", a, r)
			}
		})
	})

	t.Run("Subscribe", func(t *testing.T) {
		fake := newFake(t)
		m := newManager(t, fake, nil)
		ch, cancel := m.Subscribe()

		if _, err := m.Login(ctx, "alice", "secret"); err != nil {
			t.Fatalf("expected login to succeed, got %v", err)
		}

		select {
		case s := <-ch:
			if !s.Authenticated || s.Loading {
				t.Errorf("expected latest state after login, got %+v", s)
			}
		default:
			t.Fatal("expected a state on the channel")
		}

		cancel()
		cancel()
		if _, ok := <-ch; ok {
			t.Error("expected channel closed after cancel")
		}
		if err := m.Logout(ctx); err != nil {
			t.Fatalf("expected logout after unsubscribe to succeed, got %v", err)
		}
	})
}

func TestTransport(t *testing.T) {
	ctx := context.Background()

	t.Run("Scenario: 401 Is Refreshed And Resent", func(t *testing.T) {
		var refreshBody models.RefreshRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/app/user/refresh-token":
				json.NewDecoder(r.Body).Decode(&refreshBody)
				json.NewEncoder(w).Encode(models.RefreshResponse{AccessToken: "a2"})
			case "/thing":
				if r.Header.Get("Authorization") != "Bearer a2" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				w.Write([]byte(`ok`))
			}
		}))
		defer server.Close()

		m, err := New(ctx, Options{
			Auth:  services.NewUserService(services.NewAPIService(server.URL, nil)),
			Store: NewMemoryStore("a1", "r1"),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tr, err := NewTransport(m, server.URL, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		resp, err := tr.Client().Get(server.URL + "/thing")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200 after retry, got %d", resp.StatusCode)
		}
		if refreshBody.RefreshToken != "r1" {
			t.Errorf("expected refresh with r1, got %q", refreshBody.RefreshToken)
		}
		if a, _ := m.Tokens(); a != "a2" {
			t.Errorf("expected a2 committed, got %q", a)
		}
	})

	t.Run("Concurrent 401s Share One Refresh", func(t *testing.T) {
		fake := newFake(t)
		pair := fake.Grant(t, "alice")
		fake.Expire(pair.AccessToken)
		m := newManager(t, fake, NewMemoryStore(pair.AccessToken, pair.RefreshToken))
		tr, _ := NewTransport(m, fake.URL(), nil)
		festivals := services.NewFestivalService(services.NewAPIService(fake.URL(), tr.Client()))

		const n = 16
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := festivals.List(ctx, 1)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			if err != nil {
				t.Errorf("expected every request to recover, got %v", err)
			}
		}
		if got := fake.Hits("refresh"); got != 1 {
			t.Errorf("expected exactly one refresh, got %d", got)
		}
	})

	t.Run("Unrecoverable 401 Expires Once", func(t *testing.T) {
		fake := newFake(t)
		pair := fake.Grant(t, "alice")
		fake.Expire(pair.AccessToken)
		fake.Revoke(pair.RefreshToken)
		store := NewMemoryStore(pair.AccessToken, pair.RefreshToken)
		m := newManager(t, fake, store)

		var mu sync.Mutex
		fired := 0
		m.OnExpired(func() {
			mu.Lock()
			fired++
			mu.Unlock()
		})

		tr, _ := NewTransport(m, fake.URL(), nil)
		festivals := services.NewFestivalService(services.NewAPIService(fake.URL(), tr.Client()))

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				festivals.List(ctx, 1)
			}()
		}
		wg.Wait()

		if fired != 1 {
			t.Errorf("expected the expiry hook once, got %d", fired)
		}
		if store.Len() != 0 {
			t.Errorf("expected store cleared, got %d keys", store.Len())
		}

		if _, err := m.Login(ctx, "alice", "secret"); err != nil {
			t.Fatalf("expected login to succeed, got %v", err)
		}
		a, _ := m.Tokens()
		fake.Expire(a)
		fake.FailRefresh(http.StatusUnauthorized)
		festivals.List(ctx, 1)
		if fired != 2 {
			t.Errorf("expected the hook re-armed after login, got %d calls", fired)
		}
	})

	t.Run("Anonymous 401 Is Silent", func(t *testing.T) {
		fake := newFake(t)
		m := newManager(t, fake, nil)
		fired := false
		m.OnExpired(func() { fired = true })

		tr, _ := NewTransport(m, fake.URL(), nil)
		festivals := services.NewFestivalService(services.NewAPIService(fake.URL(), tr.Client()))

		_, err := festivals.ToggleLike(ctx, 1)
		if services.StatusCode(err) != http.StatusUnauthorized {
			t.Errorf("expected the original 401, got %v", err)
		}
		if fired {
			t.Error("expected no expiry hook for an anonymous request")
		}
		if fake.Hits("refresh") != 0 {
			t.Error("expected no refresh attempt")
		}
	})

	t.Run("Access Token Without Refresh Token Expires", func(t *testing.T) {
		fake := newFake(t)
		m := newManager(t, fake, NewMemoryStore("not-a-valid-token", ""))
		fired := false
		m.OnExpired(func() { fired = true })

		tr, _ := NewTransport(m, fake.URL(), nil)
		festivals := services.NewFestivalService(services.NewAPIService(fake.URL(), tr.Client()))
		festivals.List(ctx, 1)

		if !fired {
			t.Error("expected the expiry hook")
		}
		if a, _ := m.Tokens(); a != "" {
			t.Errorf("expected tokens cleared, got %q", a)
		}
	})

	t.Run("Other Origins Get No Token", func(t *testing.T) {
		var got http.Header
		other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()
		}))
		defer other.Close()

		m := newManager(t, newFake(t), NewMemoryStore("a1", "r1"))
		tr, _ := NewTransport(m, "https://api.example.com", nil)

		resp, err := tr.Client().Get(other.URL)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		resp.Body.Close()

		if got.Get("Authorization") != "" || got.Get(RequestIDHeader) != "" {
			t.Errorf("expected no session headers, got %v", got)
		}
	})

	t.Run("Body Is Replayed On Retry", func(t *testing.T) {
		fake := newFake(t)
		pair := fake.Grant(t, "alice")
		fake.Expire(pair.AccessToken)
		m := newManager(t, fake, NewMemoryStore(pair.AccessToken, pair.RefreshToken))
		tr, _ := NewTransport(m, fake.URL(), nil)
		jobs := services.NewJobService(services.NewAPIService(fake.URL(), tr.Client()))

		job, err := jobs.Create(ctx, 1, models.JobRequest{Title: "Ticket booth"})
		if err != nil {
			t.Fatalf("expected create to recover, got %v", err)
		}
		if job.Title != "Ticket booth" {
			t.Errorf("expected body to survive the retry, got %+v", job)
		}
	})

	t.Run("Request ID Is Attached", func(t *testing.T) {
		var id string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id = r.Header.Get(RequestIDHeader)
		}))
		defer server.Close()

		m := newManager(t, newFake(t), nil)
		tr, _ := NewTransport(m, server.URL, nil)
		resp, err := tr.Client().Get(server.URL + "/x")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		resp.Body.Close()

		if len(id) != 36 {
			t.Errorf("expected a uuid request id, got %q", id)
		}
	})

	t.Run("Invalid Base URL", func(t *testing.T) {
		m := newManager(t, newFake(t), nil)
		if _, err := NewTransport(m, "not a url", nil); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestExpiryOf(t *testing.T) {
	tc := []struct {
		name  string
		token string
		zero  bool
	}{
		{"Opaque Token", "a1", true},
		{"Empty Token", "", true},
		{"Signed Token", tu.Token(t, "alice", time.Hour), false},
	}
	for _, c := range tc {
		t.Run(c.name, func(t *testing.T) {
			if got := expiryOf(c.token); got.IsZero() != c.zero {
				t.Errorf("expected zero=%v, got %v", c.zero, got)
			}
		})
	}
}
