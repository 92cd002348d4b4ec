package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/tennis-tournament/models"
	"github.com/Dosada05/tennis-tournament/repositories"
	"github.com/Dosada05/tennis-tournament/storage"
	"github.com/google/uuid"
)

var ErrExportFormatUnknown = errors.New("unknown export format")

// ExportStrategy renders a match list into one of the supported report
// formats.
type ExportStrategy interface {
	Export(matches []models.Match) string
	ContentType() string
	Extension() string
}

type CSVExportStrategy struct{}

func (CSVExportStrategy) Export(matches []models.Match) string {
	var b strings.Builder
	b.WriteString("MatchID,TournamentID,Player1ID,Player2ID,RefereeID,Score,StartTime,EndTime\n")
	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("%d,%d,%d,%d,%d,%s,%s,%s",
			m.ID, m.TournamentID, m.Player1ID, m.Player2ID, m.RefereeID,
			m.Score, m.StartTime.Format(time.RFC3339), m.EndTime.Format(time.RFC3339)))
	}
	return b.String()
}

func (CSVExportStrategy) ContentType() string { return "text/csv" }
func (CSVExportStrategy) Extension() string   { return ".csv" }

type TXTExportStrategy struct{}

func (TXTExportStrategy) Export(matches []models.Match) string {
	lines := make([]string, 0, len(matches))
	for _, m := range matches {
		lines = append(lines, fmt.Sprintf(
			"Match ID: %d, Tournament: %d, Player1: %d, Player2: %d, Referee: %d, Score: %s, Date: %s",
			m.ID, m.TournamentID, m.Player1ID, m.Player2ID, m.RefereeID, m.Score,
			m.StartTime.Format(time.RFC3339)))
	}
	return strings.Join(lines, "\n")
}

func (TXTExportStrategy) ContentType() string { return "text/plain" }
func (TXTExportStrategy) Extension() string   { return ".txt" }

type ExportResult struct {
	Content     string `json:"content,omitempty"`
	ContentType string `json:"content_type"`
	ArchiveURL  string `json:"archive_url,omitempty"`
}

type ExportService interface {
	// ExportMatches renders every match in the given format. When archive is
	// true and an uploader is configured, the report is also stored in object
	// storage and its public URL returned. Admin only.
	ExportMatches(ctx context.Context, callerID int, format string, archive bool) (*ExportResult, error)
}

type exportService struct {
	matchRepo repositories.MatchRepository
	userRepo  repositories.UserRepository
	uploader  storage.FileUploader // nil when archiving is not configured
}

func NewExportService(
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
) ExportService {
	return &exportService{
		matchRepo: matchRepo,
		userRepo:  userRepo,
		uploader:  uploader,
	}
}

func strategyFor(format string) (ExportStrategy, error) {
	switch strings.ToLower(format) {
	case "csv":
		return CSVExportStrategy{}, nil
	case "txt":
		return TXTExportStrategy{}, nil
	default:
		return nil, ErrExportFormatUnknown
	}
}

func (s *exportService) ExportMatches(ctx context.Context, callerID int, format string, archive bool) (*ExportResult, error) {
	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if caller.Role != models.RoleAdmin {
		return nil, ErrAdminRoleRequired
	}

	strategy, err := strategyFor(format)
	if err != nil {
		return nil, err
	}

	matches, err := s.matchRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for export: %w", err)
	}

	result := &ExportResult{
		Content:     strategy.Export(matches),
		ContentType: strategy.ContentType(),
	}

	if archive && s.uploader != nil {
		key := fmt.Sprintf("exports/matches-%s%s", uuid.NewString(), strategy.Extension())
		uploaded, err := s.uploader.Upload(ctx, key, strategy.ContentType(), strings.NewReader(result.Content))
		if err != nil {
			return nil, fmt.Errorf("failed to archive export: %w", err)
		}
		result.ArchiveURL = uploaded.Location
	}
	return result, nil
}
