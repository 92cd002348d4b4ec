package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
//
// Four groups, each with a distinct HTTP mapping: validation (400),
// not found (404), authorization (403), conflict (409). Validation always
// runs to completion before any persistence call, so a failed mutation never
// leaves a partial write.
var (
	// Ресурс не найден
	ErrUserNotFound       = errors.New("user not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrRequestNotFound    = errors.New("registration request not found")

	// Ошибки валидации и бизнес-правил
	ErrTournamentNameRequired      = errors.New("tournament name is required")
	ErrTournamentStartNotFuture    = errors.New("tournament start date must be greater than the current date")
	ErrTournamentInvalidDeadline   = errors.New("registration deadline must be smaller than the tournament start date")
	ErrTournamentInvalidDateRange  = errors.New("start date must be before the end date")
	ErrTournamentInvalidCapacity   = errors.New("max players cannot be less than min players")
	ErrTournamentCancelled         = errors.New("tournament is cancelled, no new registrations allowed")
	ErrRegistrationDeadlinePassed  = errors.New("registration deadline has passed")
	ErrTournamentFull              = errors.New("tournament is at max capacity")
	ErrOverlappingTournaments      = errors.New("cannot join overlapping tournaments")
	ErrPlayerRoleRequired          = errors.New("only the player role can register for tournaments")
	ErrSamePlayers                 = errors.New("player1 and player2 cannot be the same user")
	ErrPlayersNotInTournament      = errors.New("both players must be approved members of the tournament")
	ErrParticipantsNotPlayers      = errors.New("both participants must have the player role")
	ErrRefereeRoleRequired         = errors.New("referee must have the referee role")
	ErrRefereeIsPlayer             = errors.New("referee cannot also be one of the players")
	ErrMatchInvalidTimeRange       = errors.New("start time must be before end time")
	ErrMatchOutsideTournamentDates = errors.New("match must be scheduled within the tournament's start/end dates")
	ErrScoreFormatInvalid          = errors.New("score format invalid, example: 6-4,3-6,7-5")
	ErrScoreOutsideMatchWindow     = errors.New("cannot update score outside of match time")
	ErrTournamentEnded             = errors.New("cannot update score after the tournament's end date")
	ErrPasswordTooShort            = errors.New("password must be at least 6 characters")
	ErrUsernameRequired            = errors.New("username is required")

	// Ошибки конфликтов
	ErrRegistrationConflict   = errors.New("request already exists for this player in this tournament")
	ErrRequestAlreadyResolved = errors.New("request has already been approved or denied")
	ErrScheduleConflict       = errors.New("scheduling conflict: participant(s) already have a match overlapping this time")
	ErrVersionConflict        = errors.New("entity was concurrently updated, please refresh")
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrUserUsernameConflict   = errors.New("username is already in use")
	ErrTournamentNameConflict = errors.New("tournament name already exists")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrAdminRoleRequired      = errors.New("only admin can perform this operation")
	ErrNotAssignedReferee     = errors.New("you are not the assigned referee for this match")
)
