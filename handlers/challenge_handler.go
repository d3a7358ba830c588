package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"fitSquadAPI/internal/badge"
	"fitSquadAPI/internal/challenge"
	"fitSquadAPI/internal/leaderboard"
	"fitSquadAPI/internal/participant"
	"fitSquadAPI/internal/store"
	"fitSquadAPI/internal/user"
	"fitSquadAPI/middleware"
	"fitSquadAPI/services"
)

type ChallengeHandler struct {
	userService      *services.UserService
	challengeService *services.ChallengeService
	syncService      *services.SyncService
	finalizerService *services.FinalizerService
	engagement       *services.EngagementService
}

func NewChallengeHandler(
	userService *services.UserService,
	challengeService *services.ChallengeService,
	syncService *services.SyncService,
	finalizerService *services.FinalizerService,
	engagement *services.EngagementService,
) *ChallengeHandler {
	return &ChallengeHandler{
		userService:      userService,
		challengeService: challengeService,
		syncService:      syncService,
		finalizerService: finalizerService,
		engagement:       engagement,
	}
}

type ChallengeDetailResponse struct {
	Challenge    *challenge.Challenge       `json:"challenge"`
	Participants []*participant.Participant `json:"participants"`
	Standings    *leaderboard.Standings     `json:"standings"`
	MyStreak     int                        `json:"my_streak"`
	MyBadges     []*badge.Badge             `json:"my_badges"`
	Synced       bool                       `json:"synced"`
}

func (h *ChallengeHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}

	var req challenge.CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ch, err := h.challengeService.CreateChallenge(ctx, u.ID, &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRequest) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to create challenge")
		return
	}

	respondWithJSON(w, http.StatusCreated, ch)
}

// GetChallenge serves the challenge detail view. Loading the view is also the
// trigger for the reactive processes: an auto check-in sync while the
// challenge runs, finalization once it has ended. Both are best-effort; their
// failures never fail the view.
func (h *ChallengeHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	u, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}
	challengeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	ch, err := h.challengeService.GetChallenge(ctx, challengeID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Challenge not found")
		return
	}

	synced := false
	if ch.HasEnded(ch.DayOf(h.finalizerService.Now())) {
		if _, err := h.finalizerService.Finalize(ctx, challengeID); err != nil {
			log.Printf("GetChallenge: finalization of %s failed: %v", challengeID, err)
		}
		// re-read: finalization may have flipped the status
		if refreshed, err := h.challengeService.GetChallenge(ctx, challengeID); err == nil {
			ch = refreshed
		}
	} else {
		synced, err = h.syncService.Sync(ctx, challengeID, u.ID)
		if err != nil {
			log.Printf("GetChallenge: sync of %s failed: %v", challengeID, err)
		}
	}

	participants, err := h.challengeService.Participants(ctx, challengeID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load participants")
		return
	}
	standings, err := h.engagement.Leaderboard(ctx, challengeID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load standings")
		return
	}
	myStreak, err := h.engagement.Streak(ctx, challengeID, u.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load streak")
		return
	}
	myBadges, err := h.engagement.UserBadges(ctx, challengeID, u.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load badges")
		return
	}

	respondWithJSON(w, http.StatusOK, &ChallengeDetailResponse{
		Challenge:    ch,
		Participants: participants,
		Standings:    standings,
		MyStreak:     myStreak,
		MyBadges:     myBadges,
		Synced:       synced,
	})
}

func (h *ChallengeHandler) ListMyChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}

	challenges, err := h.challengeService.ListUserChallenges(ctx, u.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list challenges")
		return
	}
	if challenges == nil {
		challenges = []*challenge.Challenge{}
	}
	respondWithJSON(w, http.StatusOK, challenges)
}

func (h *ChallengeHandler) UpdateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}
	challengeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req challenge.UpdateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ch, err := h.challengeService.UpdateChallenge(ctx, challengeID, u.ID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotAuthorized):
			respondWithError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, services.ErrInvalidRequest):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Challenge not found")
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to update challenge")
		}
		return
	}
	respondWithJSON(w, http.StatusOK, ch)
}

func (h *ChallengeHandler) DeleteChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}
	challengeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.challengeService.DeleteChallenge(ctx, challengeID, u.ID); err != nil {
		switch {
		case errors.Is(err, services.ErrNotAuthorized):
			respondWithError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, store.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Challenge not found")
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to delete challenge")
		}
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Challenge deleted"})
}

func (h *ChallengeHandler) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}
	challengeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.challengeService.JoinChallenge(ctx, challengeID, u.ID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrChallengeFull):
			respondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, services.ErrAlreadyJoined):
			respondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, store.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Challenge not found")
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to join challenge")
		}
		return
	}
	respondWithJSON(w, http.StatusCreated, p)
}

func (h *ChallengeHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}
	challengeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	targetID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.challengeService.RemoveParticipant(ctx, challengeID, u.ID, targetID); err != nil {
		switch {
		case errors.Is(err, services.ErrNotAuthorized):
			respondWithError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, services.ErrCannotRemoveOwner):
			respondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, store.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Participant not found")
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to remove participant")
		}
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Participant removed"})
}

func (h *ChallengeHandler) currentUser(ctx context.Context, w http.ResponseWriter) (*user.User, bool) {
	return currentUser(ctx, w, h.userService)
}

func currentUser(ctx context.Context, w http.ResponseWriter, userService *services.UserService) (*user.User, bool) {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return nil, false
	}
	u, err := userService.EnsureUser(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve user")
		return nil, false
	}
	return u, true
}

func parseUUIDField(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, errors.New("missing id")
	}
	return uuid.Parse(raw)
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
