package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"milguard_backend/internal/config"
	"milguard_backend/internal/detection"
	"milguard_backend/internal/model"
	"milguard_backend/internal/repository"
	"milguard_backend/internal/util"
	"milguard_backend/pkg/logger"
	"milguard_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Detector fans a submission out to the external providers.
type Detector interface {
	Detect(ctx context.Context, content detection.Content) (*detection.Outcome, error)
}

// Upload is a file received from the client, fully buffered.
type Upload struct {
	FileName string
	Size     int64
	Data     []byte
}

type AnalyzeResponse struct {
	AnalysisID      string                 `json:"analysisId"`
	Results         model.DetectionResults `json:"results"`
	NewAchievements []model.Achievement    `json:"newAchievements,omitempty"`
}

// AnalysisView is a stored analysis plus its display band.
type AnalysisView struct {
	model.Analysis
	Severity detection.Level `json:"severity"`
}

func NewAnalysisView(a model.Analysis) AnalysisView {
	return AnalysisView{Analysis: a, Severity: detection.Severity(a.OverallConfidence)}
}

type AnalysisService struct {
	Analyses     repository.AnalysisStore
	Detector     Detector
	Achievements *AchievementService
	Archive      *StorageService
	Cfg          config.DetectionConfig
}

func NewAnalysisService(store *repository.Store, detector Detector, achievements *AchievementService, archive *StorageService, cfg config.DetectionConfig) *AnalysisService {
	return &AnalysisService{
		Analyses:     store.Analyses,
		Detector:     detector,
		Achievements: achievements,
		Archive:      archive,
		Cfg:          cfg,
	}
}

func (s *AnalysisService) maxTextChars() int {
	if s.Cfg.MaxTextChars <= 0 {
		return 50000
	}
	return s.Cfg.MaxTextChars
}

func (s *AnalysisService) AnalyzeText(ctx context.Context, userID, text string) (*AnalyzeResponse, error) {
	if userID == "" {
		return nil, util.ErrAuthRequired
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, util.NewValidationError("text", "must not be empty")
	}
	if n := utf8.RuneCountInString(text); n > s.maxTextChars() {
		return nil, util.NewValidationError("text", "is %d characters, the limit is %d", n, s.maxTextChars())
	}

	content := detection.Content{Type: model.ContentText, Text: text}
	record := &model.Analysis{
		UserID:      userID,
		ContentType: model.ContentText,
		ContentText: text,
	}
	return s.run(ctx, content, record)
}

func (s *AnalysisService) AnalyzeFile(ctx context.Context, userID string, contentType model.ContentType, upload *Upload) (*AnalyzeResponse, error) {
	if userID == "" {
		return nil, util.ErrAuthRequired
	}
	if !contentType.IsFile() {
		return nil, util.NewValidationError("contentType", "unsupported content type %q", contentType)
	}
	if upload == nil || upload.Size <= 0 || len(upload.Data) == 0 {
		return nil, util.NewValidationError("file", "is required")
	}
	if limit := s.Cfg.MaxUploadBytes(); upload.Size > limit || int64(len(upload.Data)) > limit {
		return nil, util.NewValidationError("file", "exceeds the %d MB limit", limit>>20)
	}

	// sniff the real type, the client's content type header is not trusted
	mimeType := util.DetectMimeType(upload.Data)
	switch contentType {
	case model.ContentImage:
		if !util.IsImage(mimeType) {
			return nil, util.NewValidationError("file", "expected an image, got %s", mimeType)
		}
	case model.ContentAudio:
		if !util.IsAudio(mimeType) {
			return nil, util.NewValidationError("file", "expected an audio file, got %s", mimeType)
		}
	}

	record := &model.Analysis{
		UserID:      userID,
		ContentType: contentType,
		FileName:    filepath.Base(upload.FileName),
		FileType:    mimeType,
		FileSize:    int64(len(upload.Data)),
	}

	// optional decode check, needs ffprobe on the host
	if contentType == model.ContentAudio && s.Cfg.ProbeAudio {
		info, err := util.ProbeAudioBytes(upload.Data)
		if err != nil {
			logger.Log.Debug("Audio probe rejected upload", zap.Error(err))
			return nil, util.NewValidationError("file", "audio could not be decoded")
		}
		record.DurationSeconds = info.Duration
	}

	content := detection.Content{
		Type:     contentType,
		Data:     upload.Data,
		FileName: record.FileName,
		MimeType: mimeType,
	}
	return s.run(ctx, content, record)
}

// run queries the providers, aggregates, persists and evaluates achievements.
func (s *AnalysisService) run(ctx context.Context, content detection.Content, record *model.Analysis) (*AnalyzeResponse, error) {
	// query every eligible provider
	outcome, err := s.Detector.Detect(ctx, content)
	if err != nil {
		return nil, err
	}

	// combine into one verdict
	results, err := detection.Aggregate(outcome.Results)
	if err != nil {
		return nil, err
	}
	results.Overall.Note = detection.PartialNote(len(outcome.Queried), outcome.Failed)

	// archive the upload
	var archivedKey string
	if s.Archive != nil && content.Type.IsFile() {
		key := fmt.Sprintf("analyses/%s/%s%s", record.UserID, model.GenerateUUID(), strings.ToLower(filepath.Ext(record.FileName)))
		url, err := s.Archive.Upload(ctx, key, bytes.NewReader(content.Data), int64(len(content.Data)), content.MimeType)
		if err != nil {
			logger.Log.Warn("Upload archive failed", zap.String("user_id", record.UserID), zap.Error(err))
		} else {
			archivedKey = key
			record.FileURL = url
		}
	}

	// persist the record
	record.Results = datatypes.NewJSONType(results)
	record.OverallConfidence = results.Overall.Confidence
	record.IsAIGenerated = results.Overall.IsAIGenerated
	if err := s.Analyses.Create(ctx, record); err != nil {
		if archivedKey != "" {
			if delErr := s.Archive.Delete(ctx, archivedKey); delErr != nil {
				logger.Log.Warn("Failed to remove orphaned upload", zap.String("key", archivedKey), zap.Error(delErr))
			}
		}
		return nil, err
	}

	verdict := "human"
	if record.IsAIGenerated {
		verdict = "ai"
	}
	monitoring.AnalysesTotal.WithLabelValues(string(record.ContentType), verdict).Inc()

	resp := &AnalyzeResponse{AnalysisID: record.ID, Results: results}
	// badges never fail the analysis
	if s.Achievements != nil {
		awarded, err := s.Achievements.OnAnalysisCreated(ctx, record.UserID)
		if err != nil {
			logger.Log.Error("Achievement evaluation failed after analysis",
				zap.String("user_id", record.UserID),
				zap.String("analysis_id", record.ID),
				zap.Error(err))
		}
		resp.NewAchievements = awarded
	}
	return resp, nil
}

func (s *AnalysisService) ListHistory(ctx context.Context, userID string, limit int) ([]AnalysisView, error) {
	if userID == "" {
		return nil, util.ErrAuthRequired
	}
	if limit <= 0 {
		limit = util.DefaultHistoryLimit
	}
	analyses, err := s.Analyses.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	views := make([]AnalysisView, 0, len(analyses))
	for _, a := range analyses {
		views = append(views, NewAnalysisView(a))
	}
	return views, nil
}

// GetAnalysis hides other users' analyses behind a not-found error.
func (s *AnalysisService) GetAnalysis(ctx context.Context, userID, id string) (*AnalysisView, error) {
	if userID == "" {
		return nil, util.ErrAuthRequired
	}
	a, err := s.Analyses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, util.ErrAnalysisNotFound.WithID(id)
	}
	view := NewAnalysisView(*a)
	return &view, nil
}
