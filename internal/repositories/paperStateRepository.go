package repositories

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"PredictionTradeBot/internal/models"
)

// paper state is a single full-document row, not an append log
const paperStateRowID = 1

type PaperStateRepository struct {
	db *gorm.DB
}

// NewPaperStateRepository creates a new instance of PaperStateRepository
func NewPaperStateRepository(db *gorm.DB) *PaperStateRepository {
	return &PaperStateRepository{db: db}
}

// Save serializes the full engine state and upserts the single state row.
func (r *PaperStateRepository) Save(state *models.PaperState) error {
	if state == nil {
		return errors.New("state cannot be nil")
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode paper state: %w", err)
	}

	record := models.PaperStateRecord{
		ID:    paperStateRowID,
		State: string(payload),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(&record).Error
}

// Load reads the state row back verbatim. Returns (nil, nil) when the row
// has never been written; decoding failures are returned to the caller,
// which falls back to fresh-state initialization.
func (r *PaperStateRepository) Load() (*models.PaperState, error) {
	var record models.PaperStateRecord
	err := r.db.First(&record, paperStateRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state models.PaperState
	if err := json.Unmarshal([]byte(record.State), &state); err != nil {
		return nil, fmt.Errorf("failed to decode paper state: %w", err)
	}
	return &state, nil
}
