package validation

import (
	"errors"
	"strings"

	"github.com/templui/dashh/internal/model"
)

const maxNameLength = 100

// ValidateName validates profile name
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("name is required")
	}

	if len(trimmed) > maxNameLength {
		return errors.New("name is too long (max 100 characters)")
	}

	return nil
}

// ValidateProfilePatch checks the fields present in the patch. First and
// last names may be cleared; the display name may not.
func ValidateProfilePatch(patch model.ProfilePatch) error {
	if patch.Name == nil && patch.FirstName == nil && patch.LastName == nil {
		return errors.New("nothing to update")
	}

	if patch.Name != nil {
		err := ValidateName(*patch.Name)
		if err != nil {
			return err
		}
	}

	for _, v := range []*string{patch.FirstName, patch.LastName} {
		if v != nil && len(strings.TrimSpace(*v)) > maxNameLength {
			return errors.New("name is too long (max 100 characters)")
		}
	}

	return nil
}
