package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/faves/internal/models"
	"github.com/desertthunder/faves/internal/services"
	"github.com/desertthunder/faves/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

func newTestServer(t *testing.T, products ...string) (*httptest.Server, *services.APIService) {
	t.Helper()

	store := NewStore(products).WithBcryptCost(bcrypt.MinCost)
	server := httptest.NewServer(New(store, nil))
	t.Cleanup(server.Close)

	return server, services.NewAPIService(server.URL, server.Client())
}

func do(t *testing.T, method, url, token, body string) (*http.Response, models.ErrorResponse) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if token != "" {
		req.Header["authorization"] = []string{token}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var envelope models.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&envelope)
	return resp, envelope
}

func TestBasicRouter(t *testing.T) {
	t.Run("Method Patterns", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusTeapot {
			t.Errorf("expected 418, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("Request Logger Records Status", func(t *testing.T) {
		var buf bytes.Buffer
		router := NewBasicRouter()
		router.Use(RequestLogger(shared.NewLogger(&buf)))
		router.Handle(http.MethodGet, "/missing", http.NotFoundHandler())
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

		if !strings.Contains(buf.String(), "404") || !strings.Contains(buf.String(), "/missing") {
			t.Errorf("expected status and path in log, got %q", buf.String())
		}
	})
}

func TestAPI(t *testing.T) {
	ctx := context.Background()
	alice := models.Credentials{Username: "alice", Password: "pw"}

	t.Run("Products Seeded In Order", func(t *testing.T) {
		_, api := newTestServer(t, "Coffee", "Tea")

		products, err := api.Products(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(products) != 2 || products[0].Name != "Coffee" || products[1].ID != models.NumericID(2) {
			t.Errorf("unexpected products %+v", products)
		}
	})

	t.Run("Default Products", func(t *testing.T) {
		_, api := newTestServer(t)

		products, _ := api.Products(ctx)
		if len(products) != len(DefaultProducts) {
			t.Errorf("expected %d default products, got %d", len(DefaultProducts), len(products))
		}
	})

	t.Run("Register Login And Me", func(t *testing.T) {
		_, api := newTestServer(t)

		registered, err := api.Register(ctx, alice)
		if err != nil {
			t.Fatalf("register failed: %v", err)
		}
		loggedIn, err := api.Login(ctx, alice)
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if registered == loggedIn {
			t.Error("expected a fresh token per login")
		}

		for _, tok := range []string{registered, loggedIn} {
			identity, err := api.Me(ctx, tok)
			if err != nil {
				t.Fatalf("me failed: %v", err)
			}
			if identity.Username != "alice" || identity.ID != models.NumericID(1) {
				t.Errorf("unexpected identity %+v", identity)
			}
		}
	})

	t.Run("Auth Failures", func(t *testing.T) {
		server, api := newTestServer(t)
		if _, err := api.Register(ctx, alice); err != nil {
			t.Fatal(err)
		}

		tests := []struct {
			name   string
			path   string
			body   string
			status int
			msg    string
		}{
			{"Taken Username", "/api/auth/register", `{"username":"alice","password":"x"}`, http.StatusConflict, "username already taken"},
			{"Empty Password", "/api/auth/register", `{"username":"bob","password":""}`, http.StatusBadRequest, "missing credentials"},
			{"Wrong Password", "/api/auth/login", `{"username":"alice","password":"nope"}`, http.StatusUnauthorized, "invalid credentials"},
			{"Unknown User", "/api/auth/login", `{"username":"carol","password":"pw"}`, http.StatusUnauthorized, "invalid credentials"},
			{"Malformed Body", "/api/auth/login", `{`, http.StatusBadRequest, "invalid request body"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				resp, envelope := do(t, http.MethodPost, server.URL+tt.path, "", tt.body)
				if resp.StatusCode != tt.status {
					t.Errorf("expected %d, got %d", tt.status, resp.StatusCode)
				}
				if envelope.Error != tt.msg {
					t.Errorf("expected error %q, got %q", tt.msg, envelope.Error)
				}
			})
		}
	})

	t.Run("Me Rejects Unknown Token", func(t *testing.T) {
		_, api := newTestServer(t)

		_, err := api.Me(ctx, "nope")
		var apiErr *services.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 APIError, got %v", err)
		}
	})

	t.Run("Favorites Lifecycle", func(t *testing.T) {
		_, api := newTestServer(t)
		tok, _ := api.Register(ctx, alice)
		me, _ := api.Me(ctx, tok)

		favorites, err := api.Favorites(ctx, tok, me.ID)
		if err != nil || len(favorites) != 0 {
			t.Fatalf("expected empty favorites, got %v (%v)", favorites, err)
		}

		added, err := api.AddFavorite(ctx, tok, me.ID, models.NumericID(3))
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if added.ProductID != models.NumericID(3) || added.UserID != me.ID || added.ID.IsZero() {
			t.Errorf("unexpected favorite %+v", added)
		}

		_, err = api.AddFavorite(ctx, tok, me.ID, models.NumericID(3))
		if err == nil || err.Error() != "product is already a favorite" {
			t.Errorf("expected duplicate error, got %v", err)
		}

		_, err = api.AddFavorite(ctx, tok, me.ID, models.NumericID(404))
		if err == nil || err.Error() != "product not found" {
			t.Errorf("expected unknown product error, got %v", err)
		}

		if err := api.RemoveFavorite(ctx, tok, me.ID, added.ID); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		if err := api.RemoveFavorite(ctx, tok, me.ID, added.ID); err == nil || err.Error() != "favorite not found" {
			t.Errorf("expected not found on second remove, got %v", err)
		}

		favorites, _ = api.Favorites(ctx, tok, me.ID)
		if len(favorites) != 0 {
			t.Errorf("expected favorites empty again, got %v", favorites)
		}
	})

	t.Run("Favorites Belong To Path User", func(t *testing.T) {
		server, api := newTestServer(t)
		aliceTok, _ := api.Register(ctx, alice)
		bobTok, _ := api.Register(ctx, models.Credentials{Username: "bob", Password: "pw"})

		resp, envelope := do(t, http.MethodGet, server.URL+"/api/users/1/favorites", bobTok, "")
		if resp.StatusCode != http.StatusForbidden || envelope.Error != "forbidden" {
			t.Errorf("expected 403 forbidden, got %d %q", resp.StatusCode, envelope.Error)
		}

		resp, _ = do(t, http.MethodGet, server.URL+"/api/users/1/favorites", "", "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401 without token, got %d", resp.StatusCode)
		}

		resp, _ = do(t, http.MethodGet, server.URL+"/api/users/1/favorites", "Bearer "+aliceTok, "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401 for a prefixed token, got %d", resp.StatusCode)
		}
	})

	t.Run("Delete Answers No Content", func(t *testing.T) {
		server, api := newTestServer(t)
		tok, _ := api.Register(ctx, alice)
		fav, _ := api.AddFavorite(ctx, tok, models.NumericID(1), models.NumericID(1))

		resp, _ := do(t, http.MethodDelete, server.URL+"/api/users/1/favorites/"+fav.ID.String(), tok, "")
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("expected 204, got %d", resp.StatusCode)
		}
	})

	t.Run("Missing Product Id", func(t *testing.T) {
		server, api := newTestServer(t)
		tok, _ := api.Register(ctx, alice)

		resp, envelope := do(t, http.MethodPost, server.URL+"/api/users/1/favorites", tok, `{}`)
		if resp.StatusCode != http.StatusBadRequest || envelope.Error != "product_id is required" {
			t.Errorf("expected 400, got %d %q", resp.StatusCode, envelope.Error)
		}
	})
}

func TestListenAndServe(t *testing.T) {
	t.Run("Stops On Cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- ListenAndServe(ctx, "127.0.0.1:0", http.NotFoundHandler(), shared.NewLogger(&bytes.Buffer{}))
		}()

		cancel()
		if err := <-done; err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	})
}
