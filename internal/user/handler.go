package user

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/redforge/authsvc/internal/httputil"
	"github.com/redforge/authsvc/internal/logging"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// currentUserID matches auth.GetUserIDFromContext without importing the
// auth package (which imports this one).
type currentUserID func(ctx context.Context) (uuid.UUID, bool)

// Handler exposes the user profile endpoints.
type Handler struct {
	store         Store
	logger        *logging.Logger
	currentUserID currentUserID
}

func NewHandler(store Store, logger *logging.Logger, currentUser func(ctx context.Context) (uuid.UUID, bool)) *Handler {
	return &Handler{
		store:         store,
		logger:        logger,
		currentUserID: currentUser,
	}
}

// Me handles GET /users/me and returns the authenticated user's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := h.currentUserID(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	current, err := h.store.FindByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "could not validate credentials", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}
		logger.Error("failed to load current user", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, NewResponse(current), http.StatusOK)
}

// List handles GET /users with offset/limit paging. Admin only, enforced
// by the router.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	offset := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", defaultListLimit)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}

	users, err := h.store.List(r.Context(), offset, limit)
	if err != nil {
		logger.Error("failed to list users", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list users", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	responses := make([]Response, 0, len(users))
	for _, u := range users {
		responses = append(responses, NewResponse(u))
	}

	httputil.RespondJSON(w, responses, http.StatusOK)
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
