package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/desertthunder/faves/internal/models"
	"github.com/desertthunder/faves/internal/shared"
)

// authResponse is the body of a successful login or register.
type authResponse struct {
	Token    string    `json:"token"`
	ID       models.ID `json:"id"`
	Username string    `json:"username"`
}

// APIHandler serves the favorites REST API from a [Store].
type APIHandler struct {
	store *Store
	mux   *http.ServeMux
}

var _ Handler = (*APIHandler)(nil)

// NewAPIHandler creates an [APIHandler] over store.
func NewAPIHandler(store *Store) *APIHandler {
	h := &APIHandler{store: store, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /api/auth/me", h.me)
	h.mux.HandleFunc("POST /api/auth/register", h.register)
	h.mux.HandleFunc("POST /api/auth/login", h.login)
	h.mux.HandleFunc("GET /api/products", h.products)
	h.mux.HandleFunc("GET /api/users/{id}/favorites", h.favorites)
	h.mux.HandleFunc("POST /api/users/{id}/favorites", h.addFavorite)
	h.mux.HandleFunc("DELETE /api/users/{id}/favorites/{favoriteId}", h.removeFavorite)
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *APIHandler) Routes() []string {
	return []string{
		"GET /api/auth/me",
		"POST /api/auth/register",
		"POST /api/auth/login",
		"GET /api/products",
		"GET /api/users/{id}/favorites",
		"POST /api/users/{id}/favorites",
		"DELETE /api/users/{id}/favorites/{favoriteId}",
	}
}

func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *APIHandler) me(w http.ResponseWriter, r *http.Request) {
	identity, err := h.store.Identity(token(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func (h *APIHandler) register(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, h.store.Register)
}

func (h *APIHandler) login(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, h.store.Login)
}

func (h *APIHandler) authenticate(w http.ResponseWriter, r *http.Request, fn func(models.Credentials) (string, models.Identity, error)) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tok, identity, err := fn(creds)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: tok, ID: identity.ID, Username: identity.Username})
}

func (h *APIHandler) products(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Products())
}

func (h *APIHandler) favorites(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.authorize(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.store.Favorites(identity.ID))
}

func (h *APIHandler) addFavorite(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req models.FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID.IsZero() {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	favorite, err := h.store.AddFavorite(identity.ID, req.ProductID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, favorite)
}

func (h *APIHandler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if err := h.store.RemoveFavorite(identity.ID, models.ParseID(r.PathValue("favoriteId"))); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authorize resolves the request token and checks it owns the {id} path segment.
func (h *APIHandler) authorize(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	identity, err := h.store.Identity(token(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return models.Identity{}, false
	}
	if models.ParseID(r.PathValue("id")) != identity.ID {
		writeStoreError(w, shared.ErrForbidden)
		return models.Identity{}, false
	}
	return identity, true
}

// token reads the raw authorization header; a "Bearer " prefix is not expected.
func token(r *http.Request) string {
	return r.Header.Get("Authorization")
}

func writeStoreError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, shared.ErrMissingCredentials):
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrInvalidCredentials), errors.Is(err, shared.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, shared.ErrProductNotFound), errors.Is(err, shared.ErrFavoriteNotFound):
		status = http.StatusNotFound
	case errors.Is(err, shared.ErrUsernameTaken), errors.Is(err, shared.ErrAlreadyFavorite):
		status = http.StatusConflict
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
