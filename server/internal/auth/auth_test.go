package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestGuard_CorrectPassword_Passes(t *testing.T) {
	g := NewGuard("supersecret")
	if err := g.Check("supersecret"); err != nil {
		t.Errorf("Check: unexpected error %v", err)
	}
	if !g.Configured() {
		t.Error("Configured: got false")
	}
}

func TestGuard_WrongPassword_Rejected(t *testing.T) {
	g := NewGuard("supersecret")
	for _, pw := range []string{"", "wrong", "supersecre", "supersecret "} {
		if err := g.Check(pw); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Check(%q): got %v, want ErrUnauthorized", pw, err)
		}
	}
}

func TestGuard_EmptyConfiguredPassword_RejectsAll(t *testing.T) {
	g := NewGuard("")
	if g.Configured() {
		t.Error("Configured: got true for empty password")
	}
	if err := g.Check(""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Check(\"\"): got %v, want ErrUnauthorized", err)
	}
}

func TestGuard_SetPassword(t *testing.T) {
	g := NewGuard("old")
	g.SetPassword("new")
	if err := g.Check("old"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("old password: got %v, want ErrUnauthorized", err)
	}
	if err := g.Check("new"); err != nil {
		t.Errorf("new password: %v", err)
	}
}

func TestGuard_ConcurrentSetAndCheck(t *testing.T) {
	g := NewGuard("a")
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); g.SetPassword("b") }()
		go func() { defer wg.Done(); _ = g.Check("b") }()
	}
	wg.Wait()
	if err := g.Check("b"); err != nil {
		t.Errorf("Check after updates: %v", err)
	}
}

func TestThrottle_Disabled_PassesEverything(t *testing.T) {
	h := NewThrottle(0, 0).Middleware(okHandler())
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/load-result", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i, rec.Code)
		}
	}
}

func TestThrottle_BurstExhausted_Returns429(t *testing.T) {
	// One token per hour: only the burst gets through during the test.
	h := NewThrottle(1.0/3600, 2).Middleware(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/load-result", nil))
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type: got %q", ct)
			}
			if !strings.Contains(rec.Body.String(), `"detail"`) {
				t.Errorf("body: got %q, want detail field", rec.Body.String())
			}
		}
	}
	want := []int{200, 200, 429}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("codes: got %v, want %v", codes, want)
			break
		}
	}
}

func TestThrottle_SetLimit_Disables(t *testing.T) {
	th := NewThrottle(1.0/3600, 1)
	if !th.Allow() {
		t.Fatal("first request should pass")
	}
	if th.Allow() {
		t.Fatal("second request should be throttled")
	}
	th.SetLimit(0, 0)
	if !th.Allow() {
		t.Error("after disabling: request should pass")
	}
}
