package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/Dosada05/tennis-tournament/models"
	"github.com/Dosada05/tennis-tournament/repositories"
)

// scorePattern is the permitted-character grammar for scores: digits, hyphen,
// comma, space. Example: "6-4,3-6,7-5".
var scorePattern = regexp.MustCompile(`^[0-9\- ,]+$`)

type CreateMatchInput struct {
	TournamentID int       `json:"tournament_id"`
	Player1ID    int       `json:"player1_id"`
	Player2ID    int       `json:"player2_id"`
	RefereeID    int       `json:"referee_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

type MatchService interface {
	CreateMatch(ctx context.Context, callerID int, input CreateMatchInput) (*models.Match, error)
	UpdateScore(ctx context.Context, callerID, matchID int, newScore string) (*models.Match, error)
	ListByTournament(ctx context.Context, callerID, tournamentID int) ([]models.Match, error)
	ListByReferee(ctx context.Context, callerID, refereeID int) ([]models.Match, error)

	// Authorization predicates over persisted state, reusable by the routing
	// layer independently of the mutating operations.
	IsParticipantOrAdmin(ctx context.Context, tournamentID, userID int) (bool, error)
	IsRefereeOfMatch(ctx context.Context, matchID, userID int) (bool, error)
	IsRefereeOfTournament(ctx context.Context, tournamentID, userID int) (bool, error)
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	userRepo       repositories.UserRepository
	now            func() time.Time
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
) MatchService {
	return &matchService{
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		userRepo:       userRepo,
		now:            time.Now,
	}
}

func (s *matchService) CreateMatch(ctx context.Context, callerID int, input CreateMatchInput) (*models.Match, error) {
	caller, err := s.getUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.Role != models.RoleAdmin {
		return nil, ErrAdminRoleRequired
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, input.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	p1, err := s.getUser(ctx, input.Player1ID)
	if err != nil {
		return nil, err
	}
	p2, err := s.getUser(ctx, input.Player2ID)
	if err != nil {
		return nil, err
	}
	referee, err := s.getUser(ctx, input.RefereeID)
	if err != nil {
		return nil, err
	}

	// Validation order mirrors the booking contract; every check completes
	// before the repository is touched.
	if p1.ID == p2.ID {
		return nil, ErrSamePlayers
	}
	for _, playerID := range []int{p1.ID, p2.ID} {
		seated, err := s.tournamentRepo.HasPlayer(ctx, tournament.ID, playerID)
		if err != nil {
			return nil, fmt.Errorf("failed to check tournament membership: %w", err)
		}
		if !seated {
			return nil, ErrPlayersNotInTournament
		}
	}
	if p1.Role != models.RolePlayer || p2.Role != models.RolePlayer {
		return nil, ErrParticipantsNotPlayers
	}
	if referee.Role != models.RoleReferee {
		return nil, ErrRefereeRoleRequired
	}
	if referee.ID == p1.ID || referee.ID == p2.ID {
		return nil, ErrRefereeIsPlayer
	}
	if !input.StartTime.Before(input.EndTime) {
		return nil, ErrMatchInvalidTimeRange
	}
	matchDay := truncateToDay(input.StartTime)
	if matchDay.Before(truncateToDay(tournament.StartDate)) || matchDay.After(truncateToDay(tournament.EndDate)) {
		return nil, ErrMatchOutsideTournamentDates
	}

	match := &models.Match{
		TournamentID: tournament.ID,
		Player1ID:    p1.ID,
		Player2ID:    p2.ID,
		RefereeID:    referee.ID,
		Score:        "",
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
	}

	// The repository runs overlap check and insert in one serializable
	// transaction; concurrent colliding bookings cannot both land.
	if err := s.matchRepo.Create(ctx, match); err != nil {
		if errors.Is(err, repositories.ErrMatchScheduleConflict) {
			return nil, ErrScheduleConflict
		}
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	return match, nil
}

func (s *matchService) UpdateScore(ctx context.Context, callerID, matchID int, newScore string) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	caller, err := s.getUser(ctx, callerID)
	if err != nil {
		return nil, err
	}

	// Admins may always update; the assigned referee only while the match is
	// running; everyone else is rejected.
	switch caller.Role {
	case models.RoleAdmin:
		// always allowed
	case models.RoleReferee:
		if match.RefereeID != caller.ID {
			return nil, ErrNotAssignedReferee
		}
		if !match.InWindow(s.now()) {
			return nil, ErrScoreOutsideMatchWindow
		}
	default:
		return nil, ErrForbiddenOperation
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, match.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if truncateToDay(s.now()).After(truncateToDay(tournament.EndDate)) {
		return nil, ErrTournamentEnded
	}

	if !scorePattern.MatchString(newScore) {
		return nil, ErrScoreFormatInvalid
	}

	match.Score = newScore
	if err := s.matchRepo.UpdateScore(ctx, match); err != nil {
		if errors.Is(err, repositories.ErrVersionConflict) {
			// Surfaced as-is: the caller re-fetches and decides, no retry here.
			return nil, ErrVersionConflict
		}
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *matchService) ListByTournament(ctx context.Context, callerID, tournamentID int) ([]models.Match, error) {
	allowed, err := s.IsParticipantOrAdmin(ctx, tournamentID, callerID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbiddenOperation
	}
	return s.matchRepo.ListByTournament(ctx, tournamentID)
}

func (s *matchService) ListByReferee(ctx context.Context, callerID, refereeID int) ([]models.Match, error) {
	if callerID != refereeID {
		caller, err := s.getUser(ctx, callerID)
		if err != nil {
			return nil, err
		}
		if caller.Role != models.RoleAdmin {
			return nil, ErrForbiddenOperation
		}
	}
	return s.matchRepo.ListByReferee(ctx, refereeID)
}

func (s *matchService) IsParticipantOrAdmin(ctx context.Context, tournamentID, userID int) (bool, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if user.Role == models.RoleAdmin {
		return true, nil
	}
	return s.tournamentRepo.HasPlayer(ctx, tournamentID, userID)
}

func (s *matchService) IsRefereeOfMatch(ctx context.Context, matchID, userID int) (bool, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return false, nil
		}
		return false, err
	}
	return match.RefereeID == userID, nil
}

func (s *matchService) IsRefereeOfTournament(ctx context.Context, tournamentID, userID int) (bool, error) {
	return s.matchRepo.ExistsByRefereeInTournament(ctx, tournamentID, userID)
}

func (s *matchService) getUser(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
