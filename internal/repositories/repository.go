package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrStatusMismatch is returned by conditional updates when the row exists
	// but is no longer in the expected status.
	ErrStatusMismatch = errors.New("record is not in the expected status")
)

// Filters are equality predicates keyed by column name.
type Filters map[string]interface{}

func (f Filters) apply(db *gorm.DB, allowed map[string]struct{}) (*gorm.DB, error) {
	for column, value := range f {
		if _, ok := allowed[column]; !ok {
			return nil, fmt.Errorf("cannot filter on column %q", column)
		}
		db = db.Where(map[string]interface{}{column: value})
	}
	return db, nil
}

func columns(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func wrapError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// conditionalResult converts the outcome of an UPDATE ... WHERE id = ? AND
// status = ? into ErrNotFound or ErrStatusMismatch when no row changed.
func conditionalResult(db *gorm.DB, result *gorm.DB, model interface{}, id string) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrStatusMismatch
}
