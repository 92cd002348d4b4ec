package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/tennis-tournament/models"
)

var exportStart = time.Date(2026, 7, 12, 10, 0, 0, 0, time.UTC)

func newExportFixture(uploader *fakeUploader) (ExportService, *fakeUserRepo, *fakeMatchRepo) {
	userRepo := newFakeUserRepo()
	matchRepo := newFakeMatchRepo()
	var svc ExportService
	if uploader != nil {
		svc = NewExportService(matchRepo, userRepo, uploader)
	} else {
		svc = NewExportService(matchRepo, userRepo, nil)
	}
	return svc, userRepo, matchRepo
}

func TestExportMatchesCSV(t *testing.T) {
	svc, userRepo, matchRepo := newExportFixture(nil)
	admin := userRepo.add(models.User{Username: "boss", Role: models.RoleAdmin})

	matchRepo.add(models.Match{
		TournamentID: 1, Player1ID: 2, Player2ID: 3, RefereeID: 4,
		Score:     "6-4,6-4",
		StartTime: exportStart,
		EndTime:   exportStart.Add(2 * time.Hour),
	})

	result, err := svc.ExportMatches(context.Background(), admin.ID, "csv", false)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.ContentType != "text/csv" {
		t.Fatalf("unexpected content type %q", result.ContentType)
	}
	lines := strings.Split(strings.TrimSpace(result.Content), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if lines[0] != "MatchID,TournamentID,Player1ID,Player2ID,RefereeID,Score,StartTime,EndTime" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "6-4,6-4") {
		t.Fatalf("row missing score: %q", lines[1])
	}
}

func TestExportMatchesTXT(t *testing.T) {
	svc, userRepo, matchRepo := newExportFixture(nil)
	admin := userRepo.add(models.User{Username: "boss", Role: models.RoleAdmin})

	matchRepo.add(models.Match{
		TournamentID: 1, Player1ID: 2, Player2ID: 3, RefereeID: 4,
		StartTime: exportStart,
		EndTime:   exportStart.Add(time.Hour),
	})

	result, err := svc.ExportMatches(context.Background(), admin.ID, "txt", false)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.ContentType != "text/plain" {
		t.Fatalf("unexpected content type %q", result.ContentType)
	}
	if result.Content == "" {
		t.Fatal("expected non-empty report")
	}
}

func TestExportMatchesUnknownFormat(t *testing.T) {
	svc, userRepo, _ := newExportFixture(nil)
	admin := userRepo.add(models.User{Username: "boss", Role: models.RoleAdmin})

	_, err := svc.ExportMatches(context.Background(), admin.ID, "xlsx", false)
	if !errors.Is(err, ErrExportFormatUnknown) {
		t.Fatalf("expected ErrExportFormatUnknown, got %v", err)
	}
}

func TestExportMatchesRequiresAdmin(t *testing.T) {
	svc, userRepo, _ := newExportFixture(nil)
	player := userRepo.add(models.User{Username: "ivan", Role: models.RolePlayer})

	_, err := svc.ExportMatches(context.Background(), player.ID, "csv", false)
	if !errors.Is(err, ErrAdminRoleRequired) {
		t.Fatalf("expected ErrAdminRoleRequired, got %v", err)
	}
}

func TestExportMatchesArchives(t *testing.T) {
	uploader := newFakeUploader()
	svc, userRepo, matchRepo := newExportFixture(uploader)
	admin := userRepo.add(models.User{Username: "boss", Role: models.RoleAdmin})

	matchRepo.add(models.Match{
		TournamentID: 1, Player1ID: 2, Player2ID: 3, RefereeID: 4,
		StartTime: exportStart,
		EndTime:   exportStart.Add(time.Hour),
	})

	result, err := svc.ExportMatches(context.Background(), admin.ID, "csv", true)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.ArchiveURL == "" {
		t.Fatal("expected archive URL")
	}

	uploader.mu.Lock()
	defer uploader.mu.Unlock()
	if len(uploader.uploaded) != 1 {
		t.Fatalf("expected one uploaded object, got %d", len(uploader.uploaded))
	}
	for key, content := range uploader.uploaded {
		if !strings.HasPrefix(key, "exports/matches-") || !strings.HasSuffix(key, ".csv") {
			t.Fatalf("unexpected object key %q", key)
		}
		if content != result.Content {
			t.Fatal("uploaded content differs from the report body")
		}
	}
}
