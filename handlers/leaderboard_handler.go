package handlers

import (
	"context"
	"net/http"
	"time"

	"careerHubAPI/internal/logger"
	"careerHubAPI/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
	log                *logger.Logger
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService, log *logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
		log:                log.With("handler", "leaderboard"),
	}
}

func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := requireClerkID(w, r)
	if !ok {
		return
	}

	board, err := h.leaderboardService.GetLeaderboard(ctx, clerkID)
	if err != nil {
		respondWithAppError(w, h.log, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}

func (h *LeaderboardHandler) Join(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := requireClerkID(w, r)
	if !ok {
		return
	}

	participant, err := h.leaderboardService.Join(ctx, clerkID)
	if err != nil {
		respondWithAppError(w, h.log, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, participant)
}

func (h *LeaderboardHandler) Leave(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := requireClerkID(w, r)
	if !ok {
		return
	}

	if err := h.leaderboardService.Leave(ctx, clerkID); err != nil {
		respondWithAppError(w, h.log, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Left the leaderboard"})
}
