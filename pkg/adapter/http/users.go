package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/damianoneill/user-service/pkg/domain/database"
	"github.com/damianoneill/user-service/pkg/domain/logging"
	"github.com/damianoneill/user-service/pkg/domain/users"
)

// UserHandler serves the /users routes.
type UserHandler struct {
	svc    users.Service
	logger logging.Logger
}

func NewUserHandler(svc users.Service, logger logging.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// Register adds the user routes to r.
func (h *UserHandler) Register(r chi.Router) {
	r.Get("/users", h.list)
	r.Post("/users", h.create)
	r.Get("/users/{id}", h.get)
}

type listResponse struct {
	Users []users.User `json:"users"`
}

type createRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

type createResponse struct {
	Message string     `json:"message"`
	User    users.User `json:"user"`
}

func (h *UserHandler) list(w http.ResponseWriter, req *http.Request) {
	all, err := h.svc.List(req.Context())
	if err != nil {
		h.fail(w, req, err, "Failed to fetch users")
		return
	}
	if all == nil {
		all = []users.User{}
	}
	h.write(w, req, http.StatusOK, listResponse{Users: all})
}

func (h *UserHandler) create(w http.ResponseWriter, req *http.Request) {
	var body createRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		_ = writeDetail(w, http.StatusUnprocessableEntity, "Request body must be a JSON object")
		return
	}
	if body.Username == nil || body.Email == nil {
		_ = writeDetail(w, http.StatusUnprocessableEntity, "username and email are required")
		return
	}

	u, err := h.svc.Create(req.Context(), users.NewUser{Username: *body.Username, Email: *body.Email})
	if err != nil {
		h.fail(w, req, err, "Failed to create user")
		return
	}
	h.write(w, req, http.StatusOK, createResponse{Message: "User created", User: u})
}

func (h *UserHandler) get(w http.ResponseWriter, req *http.Request) {
	// ids are SERIAL, so anything outside int32 cannot exist
	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 32)
	if errors.Is(err, strconv.ErrRange) {
		_ = writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		_ = writeDetail(w, http.StatusUnprocessableEntity, "User id must be an integer")
		return
	}

	u, err := h.svc.Get(req.Context(), id)
	if err != nil {
		h.fail(w, req, err, "Failed to fetch user")
		return
	}
	h.write(w, req, http.StatusOK, u)
}

// fail maps a service error to a response. The use case has already logged
// and counted the failure.
func (h *UserHandler) fail(w http.ResponseWriter, req *http.Request, err error, generic string) {
	code, detail := http.StatusInternalServerError, generic

	switch {
	case errors.Is(err, database.ErrUnavailable):
		code, detail = http.StatusServiceUnavailable, "Database not connected"
	case errors.Is(err, database.ErrConstraintViolation):
		code, detail = http.StatusBadRequest, "Username or email already exists"
	case errors.Is(err, database.ErrNotFound):
		code, detail = http.StatusNotFound, "User not found"
	}

	h.write(w, req, code, errorBody{Detail: detail})
}

func (h *UserHandler) write(w http.ResponseWriter, req *http.Request, code int, v interface{}) {
	if err := writeJSON(w, code, v); err != nil {
		h.logger.WithContext(req.Context()).WarnWith("Failed to write response", logging.Fields{
			"error": err.Error(),
		})
	}
}
