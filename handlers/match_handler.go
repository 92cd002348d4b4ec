package handlers

import (
	"net/http"

	"github.com/Dosada05/tennis-tournament/middleware"
	"github.com/Dosada05/tennis-tournament/services"
)

type MatchHandler struct {
	matchService  services.MatchService
	exportService services.ExportService
}

func NewMatchHandler(ms services.MatchService, es services.ExportService) *MatchHandler {
	return &MatchHandler{
		matchService:  ms,
		exportService: es,
	}
}

// CreateHandler обрабатывает POST /matches
func (h *MatchHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to create match")
		return
	}

	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.CreateMatch(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateScoreHandler обрабатывает PATCH /matches/{matchID}/score
func (h *MatchHandler) UpdateScoreHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Score string `json:"score"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.UpdateScore(r.Context(), currentUserID, matchID, input.Score)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByRefereeHandler обрабатывает GET /referees/{refereeID}/matches
func (h *MatchHandler) ListByRefereeHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	refereeID, err := getIDFromURL(r, "refereeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListByReferee(r.Context(), currentUserID, refereeID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ExportHandler обрабатывает GET /matches/export?format=csv&archive=true
// Отдаёт отчёт телом ответа; с archive=true дополнительно кладёт его в R2.
func (h *MatchHandler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	archive := r.URL.Query().Get("archive") == "true"

	result, err := h.exportService.ExportMatches(r.Context(), currentUserID, format, archive)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if archive {
		if err := writeJSON(w, http.StatusOK, jsonResponse{"archive_url": result.ArchiveURL}, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(result.Content)); err != nil {
		serverErrorResponse(w, r, err)
	}
}
