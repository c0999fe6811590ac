package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/playsync/internal/shared"
	"golang.org/x/oauth2"
)

type stubExchanger struct {
	token *oauth2.Token
	err   error
	codes []string
}

func (s *stubExchanger) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	s.codes = append(s.codes, code)
	return s.token, s.err
}

func TestOAuthHandler(t *testing.T) {
	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh"}

	tests := []struct {
		name       string
		query      string
		exchanger  *stubExchanger
		wantStatus int
		wantToken  bool
	}{
		{"success", "?state=s1&code=abc", &stubExchanger{token: tok}, http.StatusOK, true},
		{"wrong state", "?state=bad&code=abc", &stubExchanger{token: tok}, http.StatusBadRequest, false},
		{"denied", "?state=s1&error=access_denied", &stubExchanger{token: tok}, http.StatusBadRequest, false},
		{"exchange fails", "?state=s1&code=abc", &stubExchanger{err: errors.New("invalid_grant")}, http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOAuthHandler("Spotify", tt.exchanger, "s1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback"+tt.query, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			result := <-h.Result()
			if tt.wantToken {
				if result.Error() != nil || result.Token.AccessToken != "access" {
					t.Errorf("unexpected result: token=%v err=%v", result.Token, result.Error())
				}
				if !strings.Contains(rec.Body.String(), "Spotify connected") {
					t.Errorf("success page should name the service, got %s", rec.Body.String())
				}
			} else if result.Error() == nil {
				t.Error("expected an error result")
			}
		})
	}

	t.Run("second callback rejected", func(t *testing.T) {
		ex := &stubExchanger{token: tok}
		h := NewOAuthHandler("YouTube", ex, "s1")

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=s1&code=one", nil))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s1&code=two", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if len(ex.codes) != 1 || ex.codes[0] != "one" {
			t.Errorf("only the first code should be exchanged, got %v", ex.codes)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	router := NewBasicRouter()
	router.Use(mw("outer"), mw("inner"))
	router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	}))

	t.Run("middleware order", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		if rec.Body.String() != "pong" {
			t.Errorf("body = %q", rec.Body.String())
		}
		if strings.Join(order, ",") != "outer,inner" {
			t.Errorf("middleware order = %v", order)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})
}

func TestCallbackServer(t *testing.T) {
	t.Run("receives token", func(t *testing.T) {
		h := NewOAuthHandler("Spotify", &stubExchanger{token: &oauth2.Token{AccessToken: "access"}}, "s1")
		srv, err := NewCallbackServer("127.0.0.1:0", h, shared.NewNopLogger())
		if err != nil {
			t.Fatalf("NewCallbackServer() error = %v", err)
		}
		srv.Start()

		go func() {
			resp, err := http.Get("http://" + srv.Addr() + "/callback?state=s1&code=abc")
			if err == nil {
				resp.Body.Close()
			}
		}()

		tok, err := srv.Wait(context.Background(), 5*time.Second)
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if tok.AccessToken != "access" {
			t.Errorf("token = %q", tok.AccessToken)
		}
	})

	t.Run("times out", func(t *testing.T) {
		h := NewOAuthHandler("Spotify", &stubExchanger{}, "s1")
		srv, err := NewCallbackServer("127.0.0.1:0", h, nil)
		if err != nil {
			t.Fatalf("NewCallbackServer() error = %v", err)
		}
		srv.Start()

		_, err = srv.Wait(context.Background(), 50*time.Millisecond)
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("failed flow", func(t *testing.T) {
		h := NewOAuthHandler("Spotify", &stubExchanger{}, "s1")
		srv, err := NewCallbackServer("127.0.0.1:0", h, nil)
		if err != nil {
			t.Fatalf("NewCallbackServer() error = %v", err)
		}
		srv.Start()
		h.Send(OAuthResult{err: errors.New("access_denied")})

		_, err = srv.Wait(context.Background(), time.Second)
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})
}
