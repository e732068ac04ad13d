package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"echofm/apperr"
	"echofm/core/auth"
	"echofm/core/engagement"
	"echofm/core/search"
	"echofm/logger"
	"echofm/repository"

	"github.com/gorilla/mux"
)

type contextKey string

const (
	userIDKey   contextKey = "userID"
	usernameKey contextKey = "username"
)

// APIHandler handles all API requests.
type APIHandler struct {
	engagement *engagement.Service
	search     *search.Service
	trackRepo  repository.TrackRepository
	userRepo   repository.UserRepository
	tokens     *auth.TokenIssuer
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	engagementSvc *engagement.Service,
	searchSvc *search.Service,
	trackRepo repository.TrackRepository,
	userRepo repository.UserRepository,
	tokens *auth.TokenIssuer,
) *APIHandler {
	return &APIHandler{
		engagement: engagementSvc,
		search:     searchSvc,
		trackRepo:  trackRepo,
		userRepo:   userRepo,
		tokens:     tokens,
	}
}

// AuthMiddleware requires a valid bearer token and stores the resolved
// identity in the request context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := h.bearerClaims(r)
		if !ok {
			respondError(w, apperr.New(apperr.KindUnauthorized, "missing or invalid authorization"))
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), claims)))
	}
}

// OptionalAuthMiddleware resolves the identity when a token is present but
// lets anonymous requests through. Used by record-play.
func (h *APIHandler) OptionalAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := h.bearerClaims(r); ok {
			r = r.WithContext(withIdentity(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	}
}

func (h *APIHandler) bearerClaims(r *http.Request) (*auth.Claims, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}
	claims, err := h.tokens.ParseToken(parts[1])
	if err != nil {
		return nil, false
	}
	return claims, true
}

func withIdentity(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, userIDKey, claims.UserID)
	return context.WithValue(ctx, usernameKey, claims.Username)
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}

// pathID parses the {id} route variable as a positive identifier.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Newf(apperr.KindInvalidArgument, "invalid %s: %q", name, raw)
	}
	return id, nil
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("Failed to encode response", logger.ErrorField(err))
		}
	}
}

// respondError maps a classified error to its HTTP status. Unclassified
// errors surface as 500 without leaking internals; transient store failures
// are never folded into a success response.
func respondError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", logger.ErrorField(err))
	}
	respondJSON(w, status, map[string]string{"error": publicMessage(err, status)})
}

func publicMessage(err error, status int) string {
	if status == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
