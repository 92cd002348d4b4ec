package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tennis-tournament/models"
	"github.com/Dosada05/tennis-tournament/repositories"
)

type CreateTournamentInput struct {
	Name                 string    `json:"name"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	RegistrationDeadline time.Time `json:"registration_deadline"`
	MaxPlayers           int       `json:"max_players"`
	MinPlayers           int       `json:"min_players"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, callerID int, input CreateTournamentInput) (*models.Tournament, error)
	GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context) ([]models.Tournament, error)
	// ListForPlayer returns tournaments where the player sits in the approved
	// set. Self or admin.
	ListForPlayer(ctx context.Context, callerID, playerID int) ([]models.Tournament, error)
	// ListApprovedForPlayer returns only confirmed registrations, driven by
	// the APPROVED requests of the player. Self or admin.
	ListApprovedForPlayer(ctx context.Context, callerID, playerID int) ([]models.Tournament, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	userRepo       repositories.UserRepository
	now            func() time.Time
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		userRepo:       userRepo,
		now:            time.Now,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, callerID int, input CreateTournamentInput) (*models.Tournament, error) {
	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch caller: %w", err)
	}
	if caller.Role != models.RoleAdmin {
		return nil, ErrAdminRoleRequired
	}

	if err := validateTournamentInput(input, s.now()); err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		Name:                 input.Name,
		StartDate:            input.StartDate,
		EndDate:              input.EndDate,
		RegistrationDeadline: input.RegistrationDeadline,
		MaxPlayers:           input.MaxPlayers,
		MinPlayers:           input.MinPlayers,
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

// validateTournamentInput runs every date/capacity invariant before any
// persistence call.
func validateTournamentInput(input CreateTournamentInput, now time.Time) error {
	if input.Name == "" {
		return ErrTournamentNameRequired
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() || input.RegistrationDeadline.IsZero() {
		return ErrTournamentInvalidDateRange
	}
	if !input.StartDate.After(now) {
		return ErrTournamentStartNotFuture
	}
	if !input.RegistrationDeadline.Before(input.StartDate) {
		return ErrTournamentInvalidDeadline
	}
	if input.StartDate.After(input.EndDate) {
		return ErrTournamentInvalidDateRange
	}
	if input.MaxPlayers < input.MinPlayers {
		return ErrTournamentInvalidCapacity
	}
	return nil
}

func (s *tournamentService) GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	players, err := s.tournamentRepo.ListPlayers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament players: %w", err)
	}
	for i := range players {
		players[i].PasswordHash = ""
	}
	tournament.Players = players
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context) ([]models.Tournament, error) {
	return s.tournamentRepo.List(ctx)
}

func (s *tournamentService) ListForPlayer(ctx context.Context, callerID, playerID int) ([]models.Tournament, error) {
	if err := s.ensureSelfOrAdmin(ctx, callerID, playerID); err != nil {
		return nil, err
	}
	return s.tournamentRepo.ListByPlayer(ctx, playerID)
}

func (s *tournamentService) ListApprovedForPlayer(ctx context.Context, callerID, playerID int) ([]models.Tournament, error) {
	if err := s.ensureSelfOrAdmin(ctx, callerID, playerID); err != nil {
		return nil, err
	}
	return s.tournamentRepo.ListApprovedByPlayer(ctx, playerID)
}

func (s *tournamentService) ensureSelfOrAdmin(ctx context.Context, callerID, playerID int) error {
	if callerID == playerID {
		return nil
	}
	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if caller.Role != models.RoleAdmin {
		return ErrForbiddenOperation
	}
	return nil
}
