package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	svix "github.com/svix/svix-webhooks/go"

	"careerHubAPI/internal/apperr"
	"careerHubAPI/internal/logger"
	"careerHubAPI/internal/types/clerk"
	"careerHubAPI/internal/types/user"
	"careerHubAPI/services"
)

const maxWebhookBytes = 64 << 10

type WebhookHandler struct {
	userService   *services.UserService
	streakService *services.StreakService
	webhook       *svix.Webhook
	log           *logger.Logger
}

// NewWebhookHandler handles Clerk events signed with secret ("whsec_..."). An
// empty secret disables signature checks and is only meant for local
// development.
func NewWebhookHandler(userService *services.UserService, streakService *services.StreakService, secret string, log *logger.Logger) (*WebhookHandler, error) {
	h := &WebhookHandler{
		userService:   userService,
		streakService: streakService,
		log:           log.With("handler", "webhook"),
	}
	if secret != "" {
		wh, err := svix.NewWebhook(secret)
		if err != nil {
			return nil, fmt.Errorf("invalid clerk webhook secret: %w", err)
		}
		h.webhook = wh
	}
	return h, nil
}

func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, string(apperr.KindValidation), "Error reading body")
		return
	}

	if h.webhook == nil {
		h.log.Warn("CLERK_WEBHOOK_SECRET not set, skipping signature verification")
	} else if err := h.webhook.Verify(body, r.Header); err != nil {
		h.log.Warn("webhook rejected", "error", err)
		respondWithError(w, http.StatusUnauthorized, "unauthorized", "Invalid signature")
		return
	}

	var event clerk.ClerkWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondWithError(w, http.StatusBadRequest, string(apperr.KindValidation), "Error parsing webhook")
		return
	}

	h.log.Info("received webhook event", "type", event.Type)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	switch event.Type {
	case "user.created":
		err = h.handleUserCreated(ctx, event.Data)
	case "user.updated":
		err = h.handleUserUpdated(ctx, event.Data)
	case "user.deleted":
		err = h.handleUserDeleted(ctx, event.Data)
	case "session.created":
		err = h.handleSessionCreated(ctx, event.Data)
	default:
		h.log.Debug("unhandled webhook event type", "type", event.Type)
	}
	if err != nil {
		h.log.Error("error handling webhook", "type", event.Type, "error", err)
		// Non-2xx makes svix retry, which only helps for server-side failures.
		if apperr.Is(err, apperr.KindValidation) {
			respondWithError(w, http.StatusBadRequest, string(apperr.KindValidation), apperr.PublicMessage(err))
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal", "Error processing webhook")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *WebhookHandler) handleUserCreated(ctx context.Context, data json.RawMessage) error {
	var userData clerk.ClerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return apperr.Validation("malformed user payload")
	}

	u, err := h.userService.CreateUser(ctx, createRequest(&userData))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	h.log.Info("user created from webhook", "user_id", u.ID, "clerk_id", u.ClerkID)
	return nil
}

// handleUserUpdated creates the user when the created event was missed.
func (h *WebhookHandler) handleUserUpdated(ctx context.Context, data json.RawMessage) error {
	var userData clerk.ClerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return apperr.Validation("malformed user payload")
	}

	req := &user.UpdateProfileRequest{
		FirstName: &userData.FirstName,
		LastName:  &userData.LastName,
	}
	if userData.Username != "" {
		req.Username = &userData.Username
	}
	if img := imageURL(&userData); img != "" {
		req.ImageURL = &img
	}
	if email := userData.PrimaryEmail(); email != "" {
		req.Email = &email
	}

	_, err := h.userService.UpdateProfileByClerkID(ctx, userData.ID, req)
	if apperr.Is(err, apperr.KindNotFound) {
		h.log.Warn("update for unknown user, creating it", "clerk_id", userData.ID)
		_, err = h.userService.CreateUser(ctx, createRequest(&userData))
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (h *WebhookHandler) handleUserDeleted(ctx context.Context, data json.RawMessage) error {
	var userData struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &userData); err != nil {
		return apperr.Validation("malformed user payload")
	}

	err := h.userService.DeleteUserByClerkID(ctx, userData.ID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// handleSessionCreated counts a sign-in toward the general streak.
func (h *WebhookHandler) handleSessionCreated(ctx context.Context, data json.RawMessage) error {
	var session clerk.ClerkSessionData
	if err := json.Unmarshal(data, &session); err != nil {
		return apperr.Validation("malformed session payload")
	}
	if session.UserID == "" {
		return nil
	}
	h.streakService.RecordLogin(ctx, session.UserID)
	return nil
}

func createRequest(d *clerk.ClerkUserData) *user.CreateUserRequest {
	return &user.CreateUserRequest{
		ClerkID:   d.ID,
		Email:     d.PrimaryEmail(),
		Username:  d.Username,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		ImageURL:  imageURL(d),
	}
}

func imageURL(d *clerk.ClerkUserData) string {
	if d.ImageURL != "" {
		return d.ImageURL
	}
	return d.ProfileImageURL
}
