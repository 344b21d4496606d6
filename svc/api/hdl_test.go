package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pastebox/cfg"
	"pastebox/pkg/domain"
	"pastebox/svc/cache"
	"pastebox/svc/lim"
	"pastebox/svc/store"
	"pastebox/svc/svc"
)

func newTestServer(t *testing.T) (*Server, *lim.Limiter) {
	t.Helper()
	c := &cfg.Cfg{
		Port:           "0",
		Environment:    "test",
		MaxContentSize: domain.MaxContentLen,
		MaxTitleLen:    domain.MaxTitleLen,
		LRUCacheSize:   100,
		ContextTimeout: 5 * time.Second,
		RateLimit:      cfg.RateLimitCfg{RPM: 6000, Burst: 1000},
	}
	st := store.NewMemStore()
	lru, err := cache.NewLRU(c.LRUCacheSize)
	if err != nil {
		t.Fatal(err)
	}
	pasteSvc := svc.NewPaste(st, lru, c)
	limiter := lim.New(c.RateLimit.RPM, c.RateLimit.Burst, nil)
	t.Cleanup(limiter.Stop)
	return NewServer(c, pasteSvc, limiter), limiter
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	return w
}

func TestCreateAndGetPaste(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, "POST", "/pastes", CreateReq{Content: "hello", Expiry: "never"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	var created CreateResp
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Fatal("missing id in create response")
	}
	if created.ExpiresAt != nil {
		t.Errorf("expiry never must yield null expiresAt, got %v", created.ExpiresAt)
	}

	w = doJSON(t, s, "GET", "/pastes/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got domain.Paste
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Content != "hello" {
		t.Errorf("content = %q", got.Content)
	}
	if got.Title != domain.DefaultTitle {
		t.Errorf("blank title must default, got %q", got.Title)
	}
}

func TestCreatePaste_ExpiryPreset(t *testing.T) {
	s, _ := newTestServer(t)
	before := time.Now().UnixMilli()
	w := doJSON(t, s, "POST", "/pastes", CreateReq{Content: "x", Expiry: "10m"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	var created CreateResp
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ExpiresAt == nil {
		t.Fatal("expected expiresAt for 10m preset")
	}
	min := before + (10 * time.Minute).Milliseconds()
	max := time.Now().UnixMilli() + (10 * time.Minute).Milliseconds()
	if *created.ExpiresAt < min || *created.ExpiresAt > max {
		t.Errorf("expiresAt %d outside [%d, %d]", *created.ExpiresAt, min, max)
	}
}

func TestCreatePaste_Validation(t *testing.T) {
	s, _ := newTestServer(t)
	cases := []struct {
		name string
		req  CreateReq
		code int
	}{
		{"empty content", CreateReq{Content: "   "}, http.StatusBadRequest},
		{"bad expiry", CreateReq{Content: "x", Expiry: "yesterday"}, http.StatusBadRequest},
		{"expiry too short", CreateReq{Content: "x", Expiry: "5s"}, http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if w := doJSON(t, s, "POST", "/pastes", c.req); w.Code != c.code {
				t.Errorf("status = %d, want %d", w.Code, c.code)
			}
		})
	}
}

func TestGetPaste_NotFound(t *testing.T) {
	s, _ := newTestServer(t)
	if w := doJSON(t, s, "GET", "/pastes/does-not-exist", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeletePaste(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, "POST", "/pastes", CreateReq{Content: "bye"})
	if w.Code != http.StatusCreated {
		t.Fatal(w.Body.String())
	}
	var created CreateResp
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if w := doJSON(t, s, "DELETE", "/pastes/"+created.ID, nil); w.Code != http.StatusOK {
		t.Errorf("delete status = %d", w.Code)
	}
	if w := doJSON(t, s, "DELETE", "/pastes/"+created.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
	if w := doJSON(t, s, "GET", "/pastes/"+created.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", w.Code)
	}
}

func TestListPastes_NewestFirst(t *testing.T) {
	s, _ := newTestServer(t)
	for _, content := range []string{"first", "second"} {
		if w := doJSON(t, s, "POST", "/pastes", CreateReq{Content: content}); w.Code != http.StatusCreated {
			t.Fatal(w.Body.String())
		}
		time.Sleep(2 * time.Millisecond)
	}
	w := doJSON(t, s, "GET", "/pastes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var pastes []domain.Paste
	if err := json.Unmarshal(w.Body.Bytes(), &pastes); err != nil {
		t.Fatal(err)
	}
	if len(pastes) != 2 {
		t.Fatalf("expected 2 pastes, got %d", len(pastes))
	}
	if pastes[0].Content != "second" || pastes[1].Content != "first" {
		t.Errorf("unexpected order: [%s %s]", pastes[0].Content, pastes[1].Content)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	if w := doJSON(t, s, "GET", "/health", nil); w.Code != http.StatusOK {
		t.Errorf("health status = %d", w.Code)
	}
	w := doJSON(t, s, "GET", "/ready", nil)
	if w.Code != http.StatusOK {
		t.Errorf("ready status = %d", w.Code)
	}
	var ready ReadyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &ready); err != nil {
		t.Fatal(err)
	}
	if ready.Mode != "memory" {
		t.Errorf("mode = %q", ready.Mode)
	}
}

func TestParseExpiry(t *testing.T) {
	now := int64(1_000_000)
	if exp, err := parseExpiry("never", now); err != nil || exp != nil {
		t.Errorf("never → (%v, %v)", exp, err)
	}
	if exp, err := parseExpiry("", now); err != nil || exp != nil {
		t.Errorf("empty → (%v, %v)", exp, err)
	}
	exp, err := parseExpiry("1d", now)
	if err != nil || exp == nil {
		t.Fatalf("1d failed: %v", err)
	}
	if *exp != now+(24*time.Hour).Milliseconds() {
		t.Errorf("1d = %d", *exp)
	}
	if _, err := parseExpiry("500d", now); err == nil {
		t.Error("out-of-bounds expiry must fail")
	}
	if _, err := parseExpiry("90m", now); err != nil {
		t.Errorf("plain duration must parse: %v", err)
	}
}
