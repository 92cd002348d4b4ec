package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/tennis-tournament/middleware"
	"github.com/Dosada05/tennis-tournament/models"
	"github.com/Dosada05/tennis-tournament/repositories"
	"github.com/Dosada05/tennis-tournament/services"
)

type UserHandler struct {
	userService       services.UserService
	tournamentService services.TournamentService
}

func NewUserHandler(us services.UserService, ts services.TournamentService) *UserHandler {
	return &UserHandler{
		userService:       us,
		tournamentService: ts,
	}
}

// GetByIDHandler обрабатывает GET /users/{userID}
func (h *UserHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.GetUser(r.Context(), currentUserID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler обрабатывает PUT /users/{userID}
func (h *UserHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateUserInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), currentUserID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler обрабатывает DELETE /users/{userID}
func (h *UserHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.userService.DeleteUser(r.Context(), currentUserID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "user deleted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /users?role=player&username=iv&tournament_id=3
// Фильтр по tournament_id сужает выборку до игроков этого турнира.
func (h *UserHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	query := r.URL.Query()

	if tournamentIDStr := query.Get("tournament_id"); tournamentIDStr != "" {
		tournamentID, err := strconv.Atoi(tournamentIDStr)
		if err != nil || tournamentID <= 0 {
			badRequestResponse(w, r, fmt.Errorf("invalid tournament_id query parameter"))
			return
		}
		users, err := h.userService.FilterPlayers(r.Context(), query.Get("username"), &tournamentID)
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		if err := writeJSON(w, http.StatusOK, jsonResponse{"users": users}, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}

	var filter repositories.ListUsersFilter
	if roleStr := query.Get("role"); roleStr != "" {
		role := models.UserRole(roleStr)
		if !role.Valid() {
			badRequestResponse(w, r, fmt.Errorf("invalid role query parameter: %q", roleStr))
			return
		}
		filter.Role = &role
	}
	filter.UsernamePart = query.Get("username")

	users, err := h.userService.ListUsers(r.Context(), currentUserID, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"users": users}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListTournamentsHandler обрабатывает GET /users/{userID}/tournaments
// По умолчанию возвращает турниры с подтверждённой регистрацией; с параметром
// ?seated=true — турниры, где игрок уже в составе участников.
func (h *UserHandler) ListTournamentsHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var tournaments []models.Tournament
	if r.URL.Query().Get("seated") == "true" {
		tournaments, err = h.tournamentService.ListForPlayer(r.Context(), currentUserID, userID)
	} else {
		tournaments, err = h.tournamentService.ListApprovedForPlayer(r.Context(), currentUserID, userID)
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
