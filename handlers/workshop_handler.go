package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"careerHubAPI/internal/logger"
	"careerHubAPI/internal/types/workshop"
	"careerHubAPI/services"
)

type WorkshopHandler struct {
	workshopService *services.WorkshopService
	log             *logger.Logger
}

func NewWorkshopHandler(workshopService *services.WorkshopService, log *logger.Logger) *WorkshopHandler {
	return &WorkshopHandler{
		workshopService: workshopService,
		log:             log.With("handler", "workshop"),
	}
}

func (h *WorkshopHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := requireClerkID(w, r)
	if !ok {
		return
	}

	var req workshop.CreateRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	ws, err := h.workshopService.Create(ctx, clerkID, &req)
	if err != nil {
		respondWithAppError(w, h.log, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, ws)
}

func (h *WorkshopHandler) List(w http.ResponseWriter, r *http.Request) {
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

	list, err := h.workshopService.List(ctx, clerkID, r.URL.Query().Get("status"), limit)
	if err != nil {
		respondWithAppError(w, h.log, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, list)
}

func (h *WorkshopHandler) ListPending(w http.ResponseWriter, r *http.Request) {
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

	list, err := h.workshopService.ListPending(ctx, clerkID, limit)
	if err != nil {
		respondWithAppError(w, h.log, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, list)
}

func (h *WorkshopHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := requireClerkID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	ws, err := h.workshopService.Get(ctx, clerkID, id)
	if err != nil {
		respondWithAppError(w, h.log, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ws)
}

func (h *WorkshopHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, clerkID string, id uuid.UUID) (*workshop.Workshop, error) {
		return h.workshopService.Approve(ctx, clerkID, id)
	})
}

// Reject requires a JSON body with a non-empty reason.
func (h *WorkshopHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req workshop.RejectRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	h.transition(w, r, func(ctx context.Context, clerkID string, id uuid.UUID) (*workshop.Workshop, error) {
		return h.workshopService.Reject(ctx, clerkID, id, req.Reason)
	})
}

func (h *WorkshopHandler) Resubmit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, clerkID string, id uuid.UUID) (*workshop.Workshop, error) {
		return h.workshopService.Resubmit(ctx, clerkID, id)
	})
}

func (h *WorkshopHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, string, uuid.UUID) (*workshop.Workshop, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := requireClerkID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	ws, err := apply(ctx, clerkID, id)
	if err != nil {
		respondWithAppError(w, h.log, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ws)
}
