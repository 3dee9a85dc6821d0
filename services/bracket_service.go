package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/esports-admin/brackets"
	"github.com/Dosada05/esports-admin/models"
	"github.com/Dosada05/esports-admin/repositories"
	"github.com/Dosada05/esports-admin/storage"
	"github.com/google/uuid"
)

const (
	maxProgressBatch = 100
)

// RoomBroadcaster pushes messages to the dashboards watching a tournament.
type RoomBroadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

type BracketService interface {
	Estimate(input EstimateInput) EstimateResult
	GetOverview(ctx context.Context, tournamentID int) (*BracketOverview, error)
	GetProgress(ctx context.Context, tournamentID int) (ProgressReport, error)
	ListProgress(ctx context.Context, tournamentIDs []int) ([]ProgressReport, error)
	SaveConfiguration(ctx context.Context, tournamentID int, input EstimateInput) (*BracketOverview, error)
	SaveSnapshot(ctx context.Context, tournamentID int, raw json.RawMessage) (ProgressReport, error)
	GenerateSnapshot(ctx context.Context, tournamentID int) (models.Snapshot, ProgressReport, error)
	ExportBracket(ctx context.Context, tournamentID int) (*ExportResult, error)
	DeleteExport(ctx context.Context, tournamentID int, exportID string) error
}

type EstimateInput struct {
	BracketType models.BracketType   `json:"bracketType"`
	TeamCount   int                  `json:"teamCount"`
	Config      models.BracketConfig `json:"config"`
}

type EstimateResult struct {
	MatchCount int      `json:"matchCount"`
	Summary    []string `json:"summary"`
}

// ProgressReport is the progress of one tournament. Percent is omitted when the bracket
// has no matches.
type ProgressReport struct {
	TournamentID int      `json:"tournament_id"`
	Total        int      `json:"total"`
	Completed    int      `json:"completed"`
	Percent      *float64 `json:"percent,omitempty"`
}

type BracketOverview struct {
	Tournament *models.Tournament `json:"tournament"`
	Estimate   EstimateResult     `json:"estimate"`
	Progress   ProgressReport     `json:"progress"`
}

// ExportResult locates an uploaded bracket export. ExportID addresses it in DeleteExport.
type ExportResult struct {
	ExportID string `json:"export_id"`
	storage.UploadResult
}

type exportDocument struct {
	ExportedAt time.Time        `json:"exported_at"`
	Overview   *BracketOverview `json:"overview"`
}

type bracketService struct {
	tournamentRepo repositories.TournamentRepository
	uploader       storage.FileUploader
	broadcaster    RoomBroadcaster
	logger         *slog.Logger
	now            func() time.Time
}

// NewBracketService wires the bracket service. uploader and broadcaster may be nil, which
// disables exports and live updates respectively.
func NewBracketService(
	tournamentRepo repositories.TournamentRepository,
	uploader storage.FileUploader,
	broadcaster RoomBroadcaster,
	logger *slog.Logger,
) BracketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &bracketService{
		tournamentRepo: tournamentRepo,
		uploader:       uploader,
		broadcaster:    broadcaster,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *bracketService) Estimate(input EstimateInput) EstimateResult {
	return EstimateResult{
		MatchCount: brackets.EstimateMatchCount(input.BracketType, input.TeamCount, input.Config),
		Summary:    brackets.ConfigSummary(input.BracketType, input.Config),
	}
}

func (s *bracketService) loadTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", tournamentID, err)
	}
	return t, nil
}

// progressOf never fails: a stored snapshot that no longer decodes counts as no progress.
func (s *bracketService) progressOf(t *models.Tournament) ProgressReport {
	snapshot, err := models.DecodeSnapshot(t.State)
	if err != nil {
		s.logger.Warn("stored bracket snapshot is unreadable", slog.Int("tournament_id", t.ID), slog.Any("error", err))
		snapshot = nil
	}
	return newProgressReport(t.ID, brackets.CountMatches(snapshot))
}

func newProgressReport(tournamentID int, p models.Progress) ProgressReport {
	report := ProgressReport{TournamentID: tournamentID, Total: p.Total, Completed: p.Completed}
	if pct, ok := p.Percent(); ok {
		report.Percent = &pct
	}
	return report
}

func (s *bracketService) overviewOf(t *models.Tournament) *BracketOverview {
	return &BracketOverview{
		Tournament: t,
		Estimate:   s.Estimate(EstimateInput{BracketType: t.BracketType, TeamCount: t.TeamCount, Config: t.Config}),
		Progress:   s.progressOf(t),
	}
}

func (s *bracketService) GetOverview(ctx context.Context, tournamentID int) (*BracketOverview, error) {
	t, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return s.overviewOf(t), nil
}

func (s *bracketService) GetProgress(ctx context.Context, tournamentID int) (ProgressReport, error) {
	t, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return ProgressReport{}, err
	}
	return s.progressOf(t), nil
}

// ListProgress returns the progress of several tournaments, ordered by id. Unknown ids are
// left out of the result.
func (s *bracketService) ListProgress(ctx context.Context, tournamentIDs []int) ([]ProgressReport, error) {
	ids := make([]int, 0, len(tournamentIDs))
	seen := make(map[int]bool, len(tournamentIDs))
	for _, id := range tournamentIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []ProgressReport{}, nil
	}
	if len(ids) > maxProgressBatch {
		return nil, fmt.Errorf("%w: %d ids (max %d)", ErrTooManyTournaments, len(ids), maxProgressBatch)
	}

	tournaments, err := s.tournamentRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}

	reports := make([]ProgressReport, 0, len(tournaments))
	for i := range tournaments {
		reports = append(reports, s.progressOf(&tournaments[i]))
	}
	return reports, nil
}

func validateBracketInput(input EstimateInput) error {
	if !input.BracketType.Known() {
		return fmt.Errorf("%w: %q", ErrInvalidBracketType, input.BracketType)
	}
	if input.TeamCount < 0 {
		return fmt.Errorf("%w: teamCount must not be negative", ErrValidationFailed)
	}
	for i, stage := range input.Config.Stages {
		if !stage.BracketType.Known() {
			return fmt.Errorf("%w: stage %d has type %q", ErrInvalidBracketType, i+1, stage.BracketType)
		}
	}
	return nil
}

func (s *bracketService) SaveConfiguration(ctx context.Context, tournamentID int, input EstimateInput) (*BracketOverview, error) {
	if err := validateBracketInput(input); err != nil {
		return nil, err
	}

	err := s.tournamentRepo.UpdateBracketConfig(ctx, tournamentID, input.BracketType, input.TeamCount, input.Config)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to save bracket config for tournament %d: %w", tournamentID, err)
	}

	overview, err := s.GetOverview(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	s.broadcast(tournamentID, brackets.MessageBracketUpdated, overview)
	return overview, nil
}

func (s *bracketService) SaveSnapshot(ctx context.Context, tournamentID int, raw json.RawMessage) (ProgressReport, error) {
	snapshot, err := models.DecodeSnapshot(raw)
	if err != nil {
		return ProgressReport{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	var compact bytes.Buffer
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Compact(&compact, raw); err != nil {
			return ProgressReport{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
	}

	if err := s.storeState(ctx, tournamentID, compact.Bytes()); err != nil {
		return ProgressReport{}, err
	}

	report := newProgressReport(tournamentID, brackets.CountMatches(snapshot))
	s.broadcast(tournamentID, brackets.MessageBracketProgress, report)
	return report, nil
}

func (s *bracketService) storeState(ctx context.Context, tournamentID int, state json.RawMessage) error {
	if err := s.tournamentRepo.UpdateBracketState(ctx, tournamentID, state); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to save bracket state for tournament %d: %w", tournamentID, err)
	}
	return nil
}

func (s *bracketService) GenerateSnapshot(ctx context.Context, tournamentID int) (models.Snapshot, ProgressReport, error) {
	t, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, ProgressReport{}, err
	}

	generator, err := brackets.GeneratorFor(t.BracketType)
	if err != nil {
		return nil, ProgressReport{}, fmt.Errorf("%w: %q", ErrBracketNotGeneratable, t.BracketType)
	}

	s.logger.Info("generating bracket",
		slog.Int("tournament_id", t.ID),
		slog.String("generator", generator.GetName()),
		slog.Int("team_count", t.TeamCount),
	)

	snapshot, err := generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
		Config:       t.Config,
		Participants: brackets.SeedParticipants(t.TeamCount, t.Config),
	})
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughParticipants) {
			return nil, ProgressReport{}, fmt.Errorf("%w: %v", ErrNotEnoughTeams, err)
		}
		return nil, ProgressReport{}, fmt.Errorf("failed to generate bracket for tournament %d: %w", t.ID, err)
	}

	state, err := json.Marshal(snapshot)
	if err != nil {
		return nil, ProgressReport{}, fmt.Errorf("failed to encode generated bracket: %w", err)
	}
	if err := s.storeState(ctx, t.ID, state); err != nil {
		return nil, ProgressReport{}, err
	}

	report := newProgressReport(t.ID, brackets.CountMatches(snapshot))
	s.broadcast(t.ID, brackets.MessageBracketUpdated, snapshot)
	return snapshot, report, nil
}

func exportKey(tournamentID int, exportID string) string {
	return fmt.Sprintf("brackets/%d/%s.json", tournamentID, exportID)
}

func (s *bracketService) ExportBracket(ctx context.Context, tournamentID int) (*ExportResult, error) {
	if s.uploader == nil {
		return nil, ErrExportDisabled
	}

	overview, err := s.GetOverview(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	body, err := json.MarshalIndent(exportDocument{ExportedAt: s.now().UTC(), Overview: overview}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode bracket export: %w", err)
	}

	exportID := uuid.NewString()
	result, err := s.uploader.Upload(ctx, exportKey(tournamentID, exportID), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to export bracket for tournament %d: %w", tournamentID, err)
	}
	s.logger.Info("bracket exported", slog.Int("tournament_id", tournamentID), slog.String("key", result.Key))
	return &ExportResult{ExportID: exportID, UploadResult: *result}, nil
}

func (s *bracketService) DeleteExport(ctx context.Context, tournamentID int, exportID string) error {
	if s.uploader == nil {
		return ErrExportDisabled
	}
	id, err := uuid.Parse(exportID)
	if err != nil {
		return fmt.Errorf("%w: export id %q is not a UUID", ErrValidationFailed, exportID)
	}
	if _, err := s.loadTournament(ctx, tournamentID); err != nil {
		return err
	}

	key := exportKey(tournamentID, id.String())
	if err := s.uploader.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete bracket export %s: %w", key, err)
	}
	s.logger.Info("bracket export deleted", slog.Int("tournament_id", tournamentID), slog.String("key", key))
	return nil
}

func (s *bracketService) broadcast(tournamentID int, messageType string, payload interface{}) {
	if s.broadcaster == nil {
		return
	}
	room := brackets.TournamentRoom(tournamentID)
	s.broadcaster.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    messageType,
		Payload: payload,
		RoomID:  room,
	})
}
