package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/zulandar/crewcall/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileStore persists finished profiles. It is a collaborator: the
// conversation engine calls it exactly once per confirmed flow and treats
// failures as transient.
type ProfileStore interface {
	Save(ctx context.Context, draft *Draft) error
}

// GormProfileStore stores profiles in the profiles table, replacing any
// previous row for the same user.
type GormProfileStore struct {
	db *gorm.DB
}

// NewGormProfileStore creates a GormProfileStore.
func NewGormProfileStore(db *gorm.DB) (*GormProfileStore, error) {
	if db == nil {
		return nil, fmt.Errorf("bot: profile store: db is required")
	}
	return &GormProfileStore{db: db}, nil
}

// Save upserts the profile row for the draft's user.
func (ps *GormProfileStore) Save(ctx context.Context, draft *Draft) error {
	row, err := profileRow(draft)
	if err != nil {
		return err
	}

	result := ps.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "age", "area", "bio", "fields", "updated_at"}),
	}).Create(row)
	if result.Error != nil {
		return fmt.Errorf("bot: save profile for %s: %w", draft.UserID, result.Error)
	}
	return nil
}

// profileRow converts a Draft into a Profile model row. The draft came
// out of the validated flow, so a missing or malformed field here means a
// programming error, not bad user input.
func profileRow(draft *Draft) (*models.Profile, error) {
	name, ok := draft.Value("name")
	if !ok {
		return nil, fmt.Errorf("bot: draft for %s is missing name", draft.UserID)
	}
	ageRaw, ok := draft.Value("age")
	if !ok {
		return nil, fmt.Errorf("bot: draft for %s is missing age", draft.UserID)
	}
	age, err := strconv.Atoi(ageRaw)
	if err != nil {
		return nil, fmt.Errorf("bot: draft for %s has non-numeric age %q", draft.UserID, ageRaw)
	}
	area, _ := draft.Value("area")
	bio, _ := draft.Value("bio")

	fields := make(map[string]string, len(draft.Values))
	for _, fv := range draft.Values {
		fields[fv.Name] = fv.Value
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("bot: marshal fields for %s: %w", draft.UserID, err)
	}

	return &models.Profile{
		UserID: draft.UserID,
		Name:   name,
		Age:    age,
		Area:   area,
		Bio:    bio,
		Fields: string(raw),
	}, nil
}
