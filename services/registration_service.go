package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tennis-tournament/models"
	"github.com/Dosada05/tennis-tournament/repositories"
)

// RegistrationNotifier is the outbound notification sink. Delivery is
// fire-and-forget: a failed notification never rolls back the state
// transition that triggered it.
type RegistrationNotifier interface {
	NotifyRegistrationOutcome(ctx context.Context, player *models.User, tournament *models.Tournament, approved bool) error
}

type RegistrationService interface {
	// Register is the player's self-registration entry point. It runs the
	// pre-registration guard chain and inserts a PENDING request.
	Register(ctx context.Context, tournamentID, playerID int) (*models.RegistrationRequest, error)
	// Approve flips a PENDING request to APPROVED and seats the player into
	// the tournament's approved set atomically. Admin only.
	Approve(ctx context.Context, callerID, requestID int) (*models.RegistrationRequest, error)
	// Deny flips a PENDING request to DENIED. Admin only.
	Deny(ctx context.Context, callerID, requestID int) (*models.RegistrationRequest, error)
	ListByStatus(ctx context.Context, callerID int, status models.RegistrationStatus) ([]models.RegistrationRequest, error)
	ListAll(ctx context.Context, callerID int) ([]models.RegistrationRequest, error)
}

type registrationService struct {
	registrationRepo repositories.RegistrationRepository
	tournamentRepo   repositories.TournamentRepository
	userRepo         repositories.UserRepository
	notifier         RegistrationNotifier
	logger           *slog.Logger
	now              func() time.Time
}

func NewRegistrationService(
	registrationRepo repositories.RegistrationRepository,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	notifier RegistrationNotifier,
	logger *slog.Logger,
) RegistrationService {
	return &registrationService{
		registrationRepo: registrationRepo,
		tournamentRepo:   tournamentRepo,
		userRepo:         userRepo,
		notifier:         notifier,
		logger:           logger,
		now:              time.Now,
	}
}

func (s *registrationService) Register(ctx context.Context, tournamentID, playerID int) (*models.RegistrationRequest, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	if tournament.Cancelled {
		return nil, ErrTournamentCancelled
	}
	if s.now().After(tournament.RegistrationDeadline) {
		return nil, ErrRegistrationDeadlinePassed
	}

	player, err := s.userRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if player.Role != models.RolePlayer {
		return nil, ErrPlayerRoleRequired
	}

	// Capacity is checked against the approved set, not pending requests:
	// more requests than remaining seats may pile up and all be approved
	// later. Documented behavior, not tightened here.
	seated, err := s.tournamentRepo.CountPlayers(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tournament players: %w", err)
	}
	if seated >= tournament.MaxPlayers {
		return nil, ErrTournamentFull
	}

	if err := s.ensureNoOverlap(ctx, tournament, playerID); err != nil {
		return nil, err
	}

	request := &models.RegistrationRequest{
		TournamentID: tournamentID,
		PlayerID:     playerID,
	}
	if err := s.registrationRepo.Create(ctx, request); err != nil {
		if errors.Is(err, repositories.ErrRequestExists) {
			return nil, ErrRegistrationConflict
		}
		return nil, fmt.Errorf("failed to create registration request: %w", err)
	}
	return request, nil
}

// ensureNoOverlap rejects the registration when the player already holds a
// pending or approved registration for a tournament whose date range
// intersects the new one.
func (s *registrationService) ensureNoOverlap(ctx context.Context, newTournament *models.Tournament, playerID int) error {
	existing, err := s.tournamentRepo.ListWithOpenRequestByPlayer(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to list player tournaments: %w", err)
	}
	for i := range existing {
		if existing[i].Overlaps(newTournament) {
			return ErrOverlappingTournaments
		}
	}
	return nil
}

func (s *registrationService) Approve(ctx context.Context, callerID, requestID int) (*models.RegistrationRequest, error) {
	if err := s.ensureAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.Status.CanTransitionTo(models.RegistrationApproved) {
		return nil, ErrRequestAlreadyResolved
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, request.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	// Status flip and seating commit together; the tournament version bump
	// makes a concurrent sweep or approval lose cleanly.
	if err := s.registrationRepo.ApproveAndSeat(ctx, request, tournament); err != nil {
		return nil, mapRegistrationRepoError(err)
	}

	s.notifyOutcome(request, tournament, true)
	return request, nil
}

func (s *registrationService) Deny(ctx context.Context, callerID, requestID int) (*models.RegistrationRequest, error) {
	if err := s.ensureAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.Status.CanTransitionTo(models.RegistrationDenied) {
		return nil, ErrRequestAlreadyResolved
	}

	if err := s.registrationRepo.Deny(ctx, request); err != nil {
		return nil, mapRegistrationRepoError(err)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, request.TournamentID)
	if err == nil {
		s.notifyOutcome(request, tournament, false)
	}
	return request, nil
}

func (s *registrationService) ListByStatus(ctx context.Context, callerID int, status models.RegistrationStatus) ([]models.RegistrationRequest, error) {
	if err := s.ensureAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	return s.registrationRepo.ListByStatus(ctx, status)
}

func (s *registrationService) ListAll(ctx context.Context, callerID int) ([]models.RegistrationRequest, error) {
	if err := s.ensureAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	return s.registrationRepo.ListAll(ctx)
}

// notifyOutcome delivers the registration outcome in the background.
func (s *registrationService) notifyOutcome(request *models.RegistrationRequest, tournament *models.Tournament, approved bool) {
	if s.notifier == nil {
		return
	}
	playerID := request.PlayerID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		player, err := s.userRepo.GetByID(ctx, playerID)
		if err != nil {
			s.logger.Error("registration notification: failed to load player",
				slog.Int("player_id", playerID), slog.Any("error", err))
			return
		}
		if err := s.notifier.NotifyRegistrationOutcome(ctx, player, tournament, approved); err != nil {
			s.logger.Error("registration notification failed",
				slog.Int("request_id", request.ID), slog.Any("error", err))
		}
	}()
}

func (s *registrationService) getRequest(ctx context.Context, requestID int) (*models.RegistrationRequest, error) {
	request, err := s.registrationRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return request, nil
}

func (s *registrationService) ensureAdmin(ctx context.Context, callerID int) error {
	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if caller.Role != models.RoleAdmin {
		return ErrAdminRoleRequired
	}
	return nil
}

func mapRegistrationRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrRequestNotFound):
		return ErrRequestNotFound
	case errors.Is(err, repositories.ErrRequestNotPending):
		return ErrRequestAlreadyResolved
	case errors.Is(err, repositories.ErrVersionConflict):
		return ErrVersionConflict
	default:
		return err
	}
}
