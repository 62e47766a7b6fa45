package bot

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Field length bounds.
const (
	maxNameRunes = 64
	maxBioRunes  = 300
	minAge       = 18
	maxAge       = 99
)

// bioSkipToken lets the user skip the optional bio field.
const bioSkipToken = "-"

// FieldDef is one named, validated piece of data collected during the
// profile flow. Validate is pure and total: it trims and normalizes raw
// input and either returns the normalized value or a user-facing reason.
type FieldDef struct {
	Name     string
	Prompt   string
	Validate func(raw string) (string, error)
}

// ProfileFields returns the field definitions in prompt order. The order
// is fixed here and nowhere else; the flow never reorders or skips fields.
func ProfileFields(areas []string) []FieldDef {
	return []FieldDef{
		{
			Name:     "name",
			Prompt:   "What name should go on your profile?",
			Validate: validateName,
		},
		{
			Name:     "age",
			Prompt:   "How old are you?",
			Validate: validateAge,
		},
		{
			Name:     "area",
			Prompt:   fmt.Sprintf("Which area do you work in? (%s)", strings.Join(areas, ", ")),
			Validate: areaValidator(areas),
		},
		{
			Name:     "bio",
			Prompt:   fmt.Sprintf("Add a short bio, or send %q to skip.", bioSkipToken),
			Validate: validateBio,
		},
	}
}

// validateName accepts any non-empty trimmed string up to maxNameRunes.
func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", &ValidationError{Field: "name", Reason: "the name can't be empty."}
	}
	if utf8.RuneCountInString(name) > maxNameRunes {
		return "", &ValidationError{
			Field:  "name",
			Reason: fmt.Sprintf("the name must be at most %d characters.", maxNameRunes),
		}
	}
	return name, nil
}

// validateAge accepts an integer between minAge and maxAge.
func validateAge(raw string) (string, error) {
	age, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return "", &ValidationError{Field: "age", Reason: "please send your age as a number."}
	}
	if age < minAge {
		return "", &ValidationError{
			Field:  "age",
			Reason: fmt.Sprintf("you must be at least %d.", minAge),
		}
	}
	if age > maxAge {
		return "", &ValidationError{Field: "age", Reason: "that doesn't look like a real age."}
	}
	return strconv.Itoa(age), nil
}

// areaValidator matches the input against the configured area set,
// case-insensitively.
func areaValidator(areas []string) func(string) (string, error) {
	return func(raw string) (string, error) {
		in := strings.ToLower(strings.TrimSpace(raw))
		for _, a := range areas {
			if strings.ToLower(a) == in {
				return a, nil
			}
		}
		return "", &ValidationError{
			Field:  "area",
			Reason: fmt.Sprintf("please pick one of: %s.", strings.Join(areas, ", ")),
		}
	}
}

// validateBio accepts free text up to maxBioRunes, or the skip token for
// an empty bio.
func validateBio(raw string) (string, error) {
	bio := strings.TrimSpace(raw)
	if bio == bioSkipToken {
		return "", nil
	}
	if utf8.RuneCountInString(bio) > maxBioRunes {
		return "", &ValidationError{
			Field:  "bio",
			Reason: fmt.Sprintf("the bio must be at most %d characters.", maxBioRunes),
		}
	}
	return bio, nil
}
