// Package validation checks user-supplied names before they reach the group
// model. The model itself only insists on non-empty names; these rules keep
// names printable and package identifiers in the shape editor package
// managers accept.
package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/bcnelson/pkg-groups/internal/domain"
)

const (
	maxNameLength    = 128
	maxPackageLength = 214
)

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isNum(b byte) bool {
	return b >= '0' && b <= '9'
}

// ValidateGroupName validates a group or meta-group name.
// Names are 1-128 characters, printable, with no leading or trailing space.
func ValidateGroupName(name string) error {
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("name must be at most %d characters", maxNameLength)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("name must not start or end with whitespace")
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return fmt.Errorf("name must contain only printable characters")
		}
	}
	return nil
}

// ValidatePackageName validates an extension identifier.
// Identifiers start with a letter or digit and contain only letters, digits,
// '-', '_' or '.'; an optional npm-style "@scope/" prefix is allowed.
func ValidatePackageName(name string) error {
	if name == "" {
		return fmt.Errorf("package name must not be empty")
	}
	if len(name) > maxPackageLength {
		return fmt.Errorf("package name must be at most %d characters", maxPackageLength)
	}
	id := name
	if strings.HasPrefix(id, "@") {
		scope, rest, ok := strings.Cut(id[1:], "/")
		if !ok || scope == "" || rest == "" {
			return fmt.Errorf("scoped package names must look like @scope/name")
		}
		if err := validateIdentifier(scope); err != nil {
			return err
		}
		id = rest
	}
	return validateIdentifier(id)
}

func validateIdentifier(id string) error {
	if !isAlpha(id[0]) && !isNum(id[0]) {
		return fmt.Errorf("package name must start with a letter or digit")
	}
	for _, b := range []byte(id) {
		if !isAlpha(b) && !isNum(b) && b != '-' && b != '_' && b != '.' {
			return fmt.Errorf("package names can only contain letters, numbers, '-', '_' or '.'")
		}
	}
	return nil
}

// ValidateState validates an enabled/disabled state.
func ValidateState(state string) error {
	if _, err := domain.ParseState(state); err != nil {
		return fmt.Errorf("state must be %q or %q", domain.StateEnabled, domain.StateDisabled)
	}
	return nil
}

// ValidatePackages validates every entry of a package list, reporting each
// failure against field[i].
func ValidatePackages(field string, packages []string) ValidationErrors {
	var errs ValidationErrors
	for i, pkg := range packages {
		if err := ValidatePackageName(pkg); err != nil {
			errs.Add(fmt.Sprintf("%s[%d]", field, i), pkg, err.Error())
		}
	}
	return errs
}

// ValidateStates validates the keys and values of a meta-group assignment.
func ValidateStates(field string, states domain.StateMap) ValidationErrors {
	var errs ValidationErrors
	for _, e := range states {
		key := fmt.Sprintf("%s[%s]", field, e.Name)
		if err := ValidateGroupName(e.Name); err != nil {
			errs.Add(key, e.Name, err.Error())
			continue
		}
		if err := ValidateState(string(e.State)); err != nil {
			errs.Add(key, string(e.State), err.Error())
		}
	}
	return errs
}

// ValidateRecord checks every name in a serialized store.
func ValidateRecord(rec domain.Record) ValidationErrors {
	var errs ValidationErrors
	for i, g := range rec.Groups {
		field := fmt.Sprintf("groups[%d]", i)
		if err := ValidateGroupName(g.Name); err != nil {
			errs.Add(field+".name", g.Name, err.Error())
		}
		errs = append(errs, ValidatePackages(field+".packages", g.Packages)...)
	}
	for i, m := range rec.Metas {
		field := fmt.Sprintf("metas[%d]", i)
		if err := ValidateGroupName(m.Name); err != nil {
			errs.Add(field+".name", m.Name, err.Error())
		}
		errs = append(errs, ValidateStates(field+".states", m.States)...)
	}
	for i, name := range rec.Enabled {
		if err := ValidateGroupName(name); err != nil {
			errs.Add(fmt.Sprintf("enabled[%d]", i), name, err.Error())
		}
	}
	for i, name := range rec.Disabled {
		if err := ValidateGroupName(name); err != nil {
			errs.Add(fmt.Sprintf("disabled[%d]", i), name, err.Error())
		}
	}
	return errs
}
