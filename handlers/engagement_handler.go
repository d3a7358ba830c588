package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fitSquadAPI/internal/badge"
	"fitSquadAPI/internal/checkin"
	"fitSquadAPI/internal/comment"
	"fitSquadAPI/internal/store"
	"fitSquadAPI/services"
)

type EngagementHandler struct {
	userService *services.UserService
	engagement  *services.EngagementService
	syncService *services.SyncService
}

func NewEngagementHandler(
	userService *services.UserService,
	engagement *services.EngagementService,
	syncService *services.SyncService,
) *EngagementHandler {
	return &EngagementHandler{
		userService: userService,
		engagement:  engagement,
		syncService: syncService,
	}
}

func (h *EngagementHandler) RecordCheckin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}
	challengeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req checkin.ManualCheckinRequest
	if r.Body != nil {
		// an empty body means a bare check-in without evidence
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	c, err := h.engagement.RecordManualCheckin(ctx, challengeID, u.ID, req.EvidenceNote)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotParticipant):
			respondWithError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, services.ErrChallengeInactive):
			respondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, services.ErrAlreadyCheckedIn):
			respondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, store.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Challenge not found")
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to record check-in")
		}
		return
	}
	respondWithJSON(w, http.StatusCreated, c)
}

// GetMyCheckins returns the authenticated user's check-in history for a
// challenge, oldest first.
func (h *EngagementHandler) GetMyCheckins(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}
	challengeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	history, err := h.engagement.UserCheckins(ctx, challengeID, u.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load check-ins")
		return
	}
	if history == nil {
		history = []*checkin.Checkin{}
	}
	respondWithJSON(w, http.StatusOK, history)
}

func (h *EngagementHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	challengeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	standings, err := h.engagement.Leaderboard(ctx, challengeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Challenge not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to compute leaderboard")
		return
	}
	respondWithJSON(w, http.StatusOK, standings)
}

func (h *EngagementHandler) GetChallengeBadges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	challengeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	badges, err := h.engagement.ChallengeBadges(ctx, challengeID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load badges")
		return
	}
	if badges == nil {
		badges = []*badge.Badge{}
	}
	respondWithJSON(w, http.StatusOK, badges)
}

// TriggerSync lets a client force a synchronizer pass, e.g. right after
// logging a workout, instead of waiting for the next view load.
func (h *EngagementHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}
	challengeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	recorded, err := h.syncService.Sync(ctx, challengeID, u.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Sync failed")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"synced": recorded})
}

func (h *EngagementHandler) GetTodayActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}

	items, err := h.engagement.TodayActivity(ctx, u.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load activity")
		return
	}
	if items == nil {
		items = []*services.FeedItem{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

type addCommentRequest struct {
	FeedEventID string `json:"feed_event_id"`
	Body        string `json:"body"`
}

func (h *EngagementHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := currentUser(ctx, w, h.userService)
	if !ok {
		return
	}
	challengeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Body == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	feedEventID, err := parseUUIDField(req.FeedEventID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid feed_event_id")
		return
	}

	c, err := h.engagement.CommentOnEvent(ctx, challengeID, feedEventID, u.ID, req.Body)
	if err != nil {
		if errors.Is(err, services.ErrNotParticipant) {
			respondWithError(w, http.StatusForbidden, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to add comment")
		return
	}
	respondWithJSON(w, http.StatusCreated, c)
}

func (h *EngagementHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	challengeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	feedEventID, err := parseUUIDField(r.URL.Query().Get("feedEventId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'feedEventId' is required")
		return
	}

	comments, err := h.engagement.EventComments(ctx, challengeID, feedEventID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load comments")
		return
	}
	if comments == nil {
		comments = []*comment.Comment{}
	}
	respondWithJSON(w, http.StatusOK, comments)
}
