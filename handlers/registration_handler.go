package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Dosada05/tennis-tournament/middleware"
	"github.com/Dosada05/tennis-tournament/models"
	"github.com/Dosada05/tennis-tournament/services"
)

type RegistrationHandler struct {
	registrationService services.RegistrationService
}

func NewRegistrationHandler(rs services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: rs}
}

// ListHandler обрабатывает GET /requests?status=PENDING
// Без параметра status возвращает все запросы.
func (h *RegistrationHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	statusParam := r.URL.Query().Get("status")

	var requests []models.RegistrationRequest
	if statusParam == "" {
		requests, err = h.registrationService.ListAll(r.Context(), currentUserID)
	} else {
		status := models.RegistrationStatus(strings.ToUpper(statusParam))
		switch status {
		case models.RegistrationPending, models.RegistrationApproved, models.RegistrationDenied:
		default:
			badRequestResponse(w, r, fmt.Errorf("invalid status query parameter: %q", statusParam))
			return
		}
		requests, err = h.registrationService.ListByStatus(r.Context(), currentUserID, status)
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"requests": requests}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ApproveHandler обрабатывает POST /requests/{requestID}/approve
func (h *RegistrationHandler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	requestID, err := getIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	request, err := h.registrationService.Approve(r.Context(), currentUserID, requestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"request": request}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DenyHandler обрабатывает POST /requests/{requestID}/deny
func (h *RegistrationHandler) DenyHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	requestID, err := getIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	request, err := h.registrationService.Deny(r.Context(), currentUserID, requestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"request": request}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
