package apt

import (
	"regexp"
	"strings"

	"github.com/feelpp/aptforge/pkg/errors"
)

var (
	nonToken   = regexp.MustCompile(`[^a-z0-9]+`)
	tokenShape = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// NormalizeComponent maps an arbitrary project name onto the component token
// grammar: lowercased, every run of non-alphanumeric characters collapsed to
// a single hyphen, leading and trailing hyphens stripped. Names that leave
// nothing behind ("---", "!!!", "") are rejected.
//
// Normalization is idempotent: feeding a normalized name back in returns it
// unchanged.
func NormalizeComponent(name string) (string, error) {
	s := strings.ToLower(name)
	s = nonToken.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "", errors.NewInvalidNameError("component", name)
	}
	return s, nil
}

// ValidToken reports whether s already satisfies the component token
// grammar: nonempty runs of [a-z0-9] separated by single hyphens.
func ValidToken(s string) bool {
	return tokenShape.MatchString(s)
}

// ValidateChannel checks that a channel name is already a valid token.
// Channels are publication prefixes chosen by operators, not derived from
// project names, so they are validated rather than silently rewritten.
func ValidateChannel(name string) error {
	if !ValidToken(name) {
		return errors.NewInvalidNameError("channel", name)
	}
	return nil
}
