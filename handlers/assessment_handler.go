package handlers

import (
	"context"
	"net/http"
	"time"

	"careerHubAPI/internal/logger"
	"careerHubAPI/internal/types/assessment"
	"careerHubAPI/services"
)

// scoring calls the model, so submissions get far more time than reads.
const submitTimeout = 70 * time.Second

type AssessmentHandler struct {
	assessmentService *services.AssessmentService
	log               *logger.Logger
}

func NewAssessmentHandler(assessmentService *services.AssessmentService, log *logger.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		assessmentService: assessmentService,
		log:               log.With("handler", "assessment"),
	}
}

func (h *AssessmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), submitTimeout)
	defer cancel()

	clerkID, ok := requireClerkID(w, r)
	if !ok {
		return
	}

	var req assessment.SubmitRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	a, err := h.assessmentService.Submit(ctx, clerkID, &req)
	if err != nil {
		respondWithAppError(w, h.log, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, a)
}

func (h *AssessmentHandler) List(w http.ResponseWriter, r *http.Request) {
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

	list, err := h.assessmentService.List(ctx, clerkID, limit)
	if err != nil {
		respondWithAppError(w, h.log, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, list)
}

func (h *AssessmentHandler) Latest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := requireClerkID(w, r)
	if !ok {
		return
	}

	a, err := h.assessmentService.Latest(ctx, clerkID)
	if err != nil {
		respondWithAppError(w, h.log, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, a)
}
