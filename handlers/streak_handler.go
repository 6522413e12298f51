package handlers

import (
	"context"
	"net/http"
	"time"

	"careerHubAPI/internal/logger"
	"careerHubAPI/internal/types/streak"
	"careerHubAPI/services"
)

type StreakHandler struct {
	streakService *services.StreakService
	log           *logger.Logger
}

func NewStreakHandler(streakService *services.StreakService, log *logger.Logger) *StreakHandler {
	return &StreakHandler{
		streakService: streakService,
		log:           log.With("handler", "streak"),
	}
}

func (h *StreakHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := requireClerkID(w, r)
	if !ok {
		return
	}

	var req streak.RecordActivityRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	result, err := h.streakService.RecordActivity(ctx, clerkID, &req)
	if err != nil {
		respondWithAppError(w, h.log, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// LoginPing counts the login toward the general streak. It never fails the
// caller: a broken streak write must not break sign-in.
func (h *StreakHandler) LoginPing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := requireClerkID(w, r)
	if !ok {
		return
	}

	h.streakService.RecordLogin(ctx, clerkID)
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *StreakHandler) GetStreaks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := requireClerkID(w, r)
	if !ok {
		return
	}

	records, err := h.streakService.GetStreaks(ctx, clerkID)
	if err != nil {
		respondWithAppError(w, h.log, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, records)
}

func (h *StreakHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := requireClerkID(w, r)
	if !ok {
		return
	}

	stats, err := h.streakService.GetStats(ctx, clerkID)
	if err != nil {
		respondWithAppError(w, h.log, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// GetCalendar defaults to the current month when year or month is missing.
func (h *StreakHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := requireClerkID(w, r)
	if !ok {
		return
	}

	curYear, curMonth := h.streakService.CurrentMonth()
	year, ok := queryInt(w, r, "year", curYear)
	if !ok {
		return
	}
	month, ok := queryInt(w, r, "month", curMonth)
	if !ok {
		return
	}

	cal, err := h.streakService.GetCalendar(ctx, clerkID, year, month, r.URL.Query().Get("activity_type"))
	if err != nil {
		respondWithAppError(w, h.log, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, cal)
}

func (h *StreakHandler) GetActivityLog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := requireClerkID(w, r)
	if !ok {
		return
	}

	limit, ok := queryInt(w, r, "limit", 0)
	if !ok {
		return
	}

	entries, err := h.streakService.GetActivityLog(ctx, clerkID, r.URL.Query().Get("activity_type"), limit)
	if err != nil {
		respondWithAppError(w, h.log, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}
