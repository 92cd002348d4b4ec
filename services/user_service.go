package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/tennis-tournament/models"
	"github.com/Dosada05/tennis-tournament/repositories"
	"golang.org/x/crypto/bcrypt"
)

type UpdateUserInput struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

type UserService interface {
	GetUser(ctx context.Context, callerID, userID int) (*models.User, error)
	// UpdateUser mutates profile fields of the target user; permitted for the
	// user themselves or an admin. A stale concurrent write surfaces as a
	// version conflict.
	UpdateUser(ctx context.Context, callerID, userID int, input UpdateUserInput) (*models.User, error)
	// DeleteUser removes a user and cascades through matches, registration
	// requests and tournament seats. Admin only.
	DeleteUser(ctx context.Context, callerID, userID int) error
	ListUsers(ctx context.Context, callerID int, filter repositories.ListUsersFilter) ([]models.User, error)
	// FilterPlayers returns players matched by a username fragment and,
	// optionally, membership of a given tournament.
	FilterPlayers(ctx context.Context, usernamePart string, tournamentID *int) ([]models.User, error)
}

type userService struct {
	userRepo       repositories.UserRepository
	tournamentRepo repositories.TournamentRepository
}

func NewUserService(userRepo repositories.UserRepository, tournamentRepo repositories.TournamentRepository) UserService {
	return &userService{userRepo: userRepo, tournamentRepo: tournamentRepo}
}

func (s *userService) GetUser(ctx context.Context, callerID, userID int) (*models.User, error) {
	if err := s.ensureSelfOrAdmin(ctx, callerID, userID); err != nil {
		return nil, err
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, callerID, userID int, input UpdateUserInput) (*models.User, error) {
	if err := s.ensureSelfOrAdmin(ctx, callerID, userID); err != nil {
		return nil, err
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil && *input.Username != "" {
		user.Username = *input.Username
	}
	if input.Email != nil && *input.Email != "" {
		user.Email = *input.Email
	}
	if input.Password != nil && *input.Password != "" {
		if len(*input.Password) < 6 {
			return nil, ErrPasswordTooShort
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrVersionConflict):
			return nil, ErrVersionConflict
		case errors.Is(err, repositories.ErrUserEmailConflict):
			return nil, ErrUserEmailConflict
		case errors.Is(err, repositories.ErrUserUsernameConflict):
			return nil, ErrUserUsernameConflict
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, callerID, userID int) error {
	caller, err := s.getUser(ctx, callerID)
	if err != nil {
		return err
	}
	if caller.Role != models.RoleAdmin {
		return ErrAdminRoleRequired
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *userService) ListUsers(ctx context.Context, callerID int, filter repositories.ListUsersFilter) ([]models.User, error) {
	caller, err := s.getUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.Role != models.RoleAdmin {
		return nil, ErrAdminRoleRequired
	}

	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *userService) FilterPlayers(ctx context.Context, usernamePart string, tournamentID *int) ([]models.User, error) {
	role := models.RolePlayer
	players, err := s.userRepo.List(ctx, repositories.ListUsersFilter{Role: &role, UsernamePart: usernamePart})
	if err != nil {
		return nil, err
	}

	if tournamentID != nil {
		if _, err := s.tournamentRepo.GetByID(ctx, *tournamentID); err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return nil, ErrTournamentNotFound
			}
			return nil, err
		}
		filtered := players[:0]
		for _, p := range players {
			seated, err := s.tournamentRepo.HasPlayer(ctx, *tournamentID, p.ID)
			if err != nil {
				return nil, err
			}
			if seated {
				filtered = append(filtered, p)
			}
		}
		players = filtered
	}

	for i := range players {
		players[i].PasswordHash = ""
	}
	return players, nil
}

func (s *userService) ensureSelfOrAdmin(ctx context.Context, callerID, userID int) error {
	if callerID == userID {
		return nil
	}
	caller, err := s.getUser(ctx, callerID)
	if err != nil {
		return err
	}
	if caller.Role != models.RoleAdmin {
		return ErrForbiddenOperation
	}
	return nil
}

func (s *userService) getUser(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
