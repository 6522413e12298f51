package handlers

import (
	"context"
	"net/http"
	"time"

	"careerHubAPI/internal/logger"
	"careerHubAPI/internal/types/user"
	"careerHubAPI/services"
)

type UserHandler struct {
	userService *services.UserService
	log         *logger.Logger
}

func NewUserHandler(userService *services.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         log.With("handler", "user"),
	}
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := requireClerkID(w, r)
	if !ok {
		return
	}

	u, err := h.userService.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		respondWithAppError(w, h.log, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

// UpdateProfile applies a partial update. Fields missing from the body are
// left as they are.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := requireClerkID(w, r)
	if !ok {
		return
	}

	var req user.UpdateProfileRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	u, err := h.userService.UpdateProfileByClerkID(ctx, clerkID, &req)
	if err != nil {
		respondWithAppError(w, h.log, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}
