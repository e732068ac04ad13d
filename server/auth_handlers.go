package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"echofm/apperr"
	"echofm/core/auth"
	"echofm/logger"
	"echofm/model"
)

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username"` // username or email
	Password string `json:"password"`
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// LoginHandler handles user login requests.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindInvalidArgument, "invalid request body"))
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, apperr.New(apperr.KindInvalidArgument, "username and password are required"))
		return
	}

	var user *model.User
	var err error
	if strings.Contains(req.Username, "@") {
		user, err = h.userRepo.GetUserByEmail(r.Context(), req.Username)
	} else {
		user, err = h.userRepo.GetUserByUsername(r.Context(), req.Username)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		respondError(w, apperr.New(apperr.KindUnauthorized, "invalid username or password"))
		return
	}

	token, err := h.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		respondError(w, err)
		return
	}

	logger.Info("User logged in", logger.Int64("userId", user.ID))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// RegisterHandler handles user registration requests.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindInvalidArgument, "invalid request body"))
		return
	}
	if req.Username == "" || req.Password == "" || req.Email == "" {
		respondError(w, apperr.New(apperr.KindInvalidArgument, "username, password and email are required"))
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
	}
	userID, err := h.userRepo.CreateUser(r.Context(), user)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate entry") {
			respondJSON(w, http.StatusConflict, map[string]string{"error": "username or email already exists"})
			return
		}
		respondError(w, err)
		return
	}
	user.ID = userID

	token, err := h.tokens.GenerateToken(userID, user.Username)
	if err != nil {
		respondError(w, err)
		return
	}

	logger.Info("User registered", logger.Int64("userId", userID))
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}
