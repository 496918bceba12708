package apt

import (
	"regexp"
	"strings"

	"github.com/feelpp/aptforge/pkg/errors"
)

// debFilename matches the canonical name_version_arch.deb form. The name may
// itself contain underscores; version and architecture may not.
var debFilename = regexp.MustCompile(`^(.+)_([^_]+)_([^_]+)\.deb$`)

// DebFile holds the fields encoded in a Debian package filename.
type DebFile struct {
	Name         string
	Version      string
	Architecture string
}

// ParseDebFilename splits a package filename of the name_version_arch.deb
// form. The input must be a base filename, not a path.
func ParseDebFilename(filename string) (DebFile, error) {
	if strings.ContainsRune(filename, '/') {
		return DebFile{}, errors.NewValidationError("filename", filename, "must be a base filename, not a path")
	}
	m := debFilename.FindStringSubmatch(filename)
	if m == nil {
		return DebFile{}, errors.NewValidationError("filename", filename, "not in name_version_arch.deb form")
	}
	return DebFile{Name: m[1], Version: m[2], Architecture: m[3]}, nil
}
