package form

import (
	"errors"
	"fmt"

	"github.com/mbolis/quick-event/model"
)

var (
	ErrMissingEmail      = errors.New("form has no email field")
	ErrDuplicateEmail    = errors.New("form has more than one email field")
	ErrEmailNotRequired  = errors.New("email field must be required")
	ErrEmailDeletable    = errors.New("email field must not be deletable")
	ErrDuplicateID       = errors.New("duplicate field id")
	ErrUnknownFieldType  = errors.New("unknown field type")
	ErrNotStandard       = errors.New("unknown standard field")
	ErrStandardIDClaimed = errors.New("custom field uses a reserved id")
)

// Validate checks the invariants of a collection about to be saved.
func Validate(fields []model.Field) error {
	ids := make(map[int64]bool, len(fields))
	emails := 0
	for _, f := range fields {
		if ids[f.ID] {
			return fmt.Errorf("%w: %d", ErrDuplicateID, f.ID)
		}
		ids[f.ID] = true

		if !f.FieldType.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownFieldType, f.FieldType)
		}
		if f.SystemName != "" && !IsStandard(f) {
			return fmt.Errorf("%w: %q", ErrNotStandard, f.SystemName)
		}
		if f.SystemName == "" && f.ID < 0 {
			return fmt.Errorf("%w: %d", ErrStandardIDClaimed, f.ID)
		}

		if f.SystemName == SysEmail {
			emails++
			if !f.Required {
				return ErrEmailNotRequired
			}
			if f.Deletable {
				return ErrEmailDeletable
			}
		}
	}

	switch {
	case emails == 0:
		return ErrMissingEmail
	case emails > 1:
		return ErrDuplicateEmail
	}
	return nil
}
