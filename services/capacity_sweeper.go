package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tennis-tournament/models"
	"github.com/Dosada05/tennis-tournament/repositories"
	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"
)

// sweepConcurrency bounds parallel tournament checks within one sweep run.
const sweepConcurrency = 4

// CapacitySweeper periodically cancels tournaments whose registration
// deadline has passed with fewer approved players than the minimum. It is the
// only autonomous mutation path in the system and goes through the same
// versioned Save as every other caller: a lost race against a concurrent
// approval is logged and retried on the next tick, never silently absorbed.
type CapacitySweeper struct {
	tournamentRepo repositories.TournamentRepository
	logger         *slog.Logger
	interval       time.Duration
	now            func() time.Time

	scheduler gocron.Scheduler
}

func NewCapacitySweeper(
	tournamentRepo repositories.TournamentRepository,
	logger *slog.Logger,
	interval time.Duration,
) *CapacitySweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CapacitySweeper{
		tournamentRepo: tournamentRepo,
		logger:         logger,
		interval:       interval,
		now:            time.Now,
	}
}

// Start schedules the sweep and runs it once immediately.
func (s *CapacitySweeper) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create sweep scheduler: %w", err)
	}
	s.scheduler = scheduler

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			if err := s.Run(ctx); err != nil {
				s.logger.Error("capacity sweep failed", slog.Any("error", err))
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule capacity sweep: %w", err)
	}

	scheduler.Start()
	s.logger.Info("capacity sweeper started", slog.Duration("interval", s.interval))
	return nil
}

// Stop shuts the scheduler down, waiting for a running sweep to finish.
func (s *CapacitySweeper) Stop() error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Shutdown()
}

// Run performs one sweep over all non-cancelled tournaments. Idempotent:
// already-cancelled tournaments are not scanned, and a second run over the
// same state changes nothing.
func (s *CapacitySweeper) Run(ctx context.Context) error {
	tournaments, err := s.tournamentRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active tournaments: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for i := range tournaments {
		tournament := tournaments[i]
		g.Go(func() error {
			return s.checkAndCancel(ctx, &tournament)
		})
	}
	return g.Wait()
}

// checkAndCancel cancels a single tournament when its deadline has passed and
// the approved set is under the minimum. Cancellation is monotonic.
func (s *CapacitySweeper) checkAndCancel(ctx context.Context, tournament *models.Tournament) error {
	if tournament.Cancelled || !s.now().After(tournament.RegistrationDeadline) {
		return nil
	}

	seated, err := s.tournamentRepo.CountPlayers(ctx, tournament.ID)
	if err != nil {
		return fmt.Errorf("failed to count players of tournament %d: %w", tournament.ID, err)
	}
	if seated >= tournament.MinPlayers {
		return nil
	}

	tournament.Cancelled = true
	if err := s.tournamentRepo.Save(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrVersionConflict) {
			// An admin approval landed between our read and write; the next
			// tick re-evaluates against the fresh state.
			s.logger.Warn("capacity sweep lost a version race",
				slog.Int("tournament_id", tournament.ID))
			return nil
		}
		return fmt.Errorf("failed to cancel tournament %d: %w", tournament.ID, err)
	}

	s.logger.Info("tournament cancelled: not enough players by deadline",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("approved_players", seated),
		slog.Int("min_players", tournament.MinPlayers))
	return nil
}
