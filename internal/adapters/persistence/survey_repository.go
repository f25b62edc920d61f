package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/forge-industries/fleet-miner/internal/domain/survey"
)

// SurveyRepository persists survey tickets. It has no equivalent in the
// teacher repo; it is authored fresh, following the teacher's general
// GORM-repository shape (player_repository.go's model<->domain conversion).
type SurveyRepository struct {
	db *gorm.DB
}

// NewSurveyRepository creates a new GORM-backed survey repository.
func NewSurveyRepository(db *gorm.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

// Create inserts a new survey and returns it with its assigned id.
func (r *SurveyRepository) Create(ctx context.Context, s *survey.Survey) (*survey.Survey, error) {
	model, err := surveyToModel(s)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, fmt.Errorf("failed to create survey: %w", err)
	}
	out := *s
	out.ID = model.ID
	return &out, nil
}

// LoadActive loads every survey matching the store's load query:
// extract_state = 0 AND expires_at > now().
func (r *SurveyRepository) LoadActive(ctx context.Context, now time.Time) ([]*survey.Survey, error) {
	var models []SurveyModel
	err := r.db.WithContext(ctx).
		Where("extract_state = ? AND expires_at > ?", int(survey.StateActive), now).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load active surveys: %w", err)
	}
	out := make([]*survey.Survey, 0, len(models))
	for _, model := range models {
		s, err := modelToSurvey(&model)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// MarkExhausted sets extract_state = 2 for the given survey id, used after
// the API returns codes 4221 or 4224.
func (r *SurveyRepository) MarkExhausted(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).
		Model(&SurveyModel{}).
		Where("id = ?", id).
		Update("extract_state", int(survey.StateExhausted)).Error
	if err != nil {
		return fmt.Errorf("failed to mark survey exhausted: %w", err)
	}
	return nil
}

func surveyToModel(s *survey.Survey) (*SurveyModel, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal survey: %w", err)
	}
	return &SurveyModel{
		ID:             s.ID,
		AsteroidSymbol: s.AsteroidSymbol,
		Survey:         string(body),
		ExpiresAt:      s.ExpiresAt,
		ExtractState:   int(s.ExtractState),
	}, nil
}

func modelToSurvey(model *SurveyModel) (*survey.Survey, error) {
	var s survey.Survey
	if err := json.Unmarshal([]byte(model.Survey), &s); err != nil {
		return nil, fmt.Errorf("invalid survey json in database: %w", err)
	}
	s.ID = model.ID
	s.ExtractState = survey.State(model.ExtractState)
	return &s, nil
}
