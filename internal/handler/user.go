package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/service"
)

// UserHandler serves registration, login and the current user.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleRegister creates an account.
//
// HTTP: POST /api/users
// REQUEST BODY: {"user":{"username":"jake","email":"jake@jake.jake","password":"jakejake"}}
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User service.RegisterInput `json:"user"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	res, err := h.users.Register(r.Context(), req.User)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newUserEnvelope(res.User, res.Token))
}

// HandleLogin exchanges credentials for a token.
//
// HTTP: POST /api/users/login
// REQUEST BODY: {"user":{"email":"jake@jake.jake","password":"jakejake"}}
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User service.LoginInput `json:"user"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	res, err := h.users.Login(r.Context(), req.User)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserEnvelope(res.User, res.Token))
}

// HandleCurrent returns the signed-in user. The token in the response is the
// one the client sent, not a new one.
//
// HTTP: GET /api/user (requires auth)
func (h *UserHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	user, err := h.users.Current(r.Context(), session.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserEnvelope(user, session.Token))
}

// HandleUpdate applies a partial update to the signed-in user.
//
// HTTP: PUT /api/user (requires auth)
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var req struct {
		User service.UpdateUserInput `json:"user"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	user, err := h.users.Update(r.Context(), session.UserID, req.User)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserEnvelope(user, session.Token))
}
