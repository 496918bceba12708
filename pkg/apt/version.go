package apt

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// CompareVersions orders two Debian package versions and returns -1, 0, or 1.
// It implements the dpkg comparison algorithm: the numeric epoch is compared
// first, then the upstream version, then the revision after the last hyphen.
// Within the version strings, alternating non-digit and digit spans are
// compared, with '~' sorting before everything including end of string, so
// "1.0~rc1" precedes "1.0" and "1.0" precedes "1.0+git20260101".
//
// A missing revision compares equal to "-0".
func CompareVersions(a, b string) int {
	ae, au, ar := splitVersion(a)
	be, bu, br := splitVersion(b)
	if ae != be {
		if ae < be {
			return -1
		}
		return 1
	}
	if c := verrevcmp(au, bu); c != 0 {
		return sign(c)
	}
	return sign(verrevcmp(ar, br))
}

// SortVersions orders version strings ascending, oldest first.
func SortVersions(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		return CompareVersions(versions[i], versions[j]) < 0
	})
}

// splitVersion separates a version into epoch, upstream, and revision parts.
// The epoch precedes the first colon; the revision follows the last hyphen.
func splitVersion(v string) (epoch int, upstream, revision string) {
	if i := strings.IndexByte(v, ':'); i >= 0 {
		if n, err := strconv.Atoi(v[:i]); err == nil {
			epoch = n
			v = v[i+1:]
		}
	}
	if i := strings.LastIndexByte(v, '-'); i >= 0 {
		return epoch, v[:i], v[i+1:]
	}
	return epoch, v, ""
}

// charOrder ranks a byte for the non-digit span comparison. Tilde sorts
// before end of string (0), letters by their code point, and all other
// characters after every letter.
func charOrder(c byte) int {
	switch {
	case c == '~':
		return -1
	case c >= '0' && c <= '9':
		return 0
	case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		return int(c)
	default:
		return int(c) + 256
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// verrevcmp compares two version fragments by alternating non-digit and
// digit spans, mirroring dpkg's ordering.
func verrevcmp(a, b string) int {
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		firstDiff := 0

		for (i < len(a) && !isDigit(a[i])) || (j < len(b) && !isDigit(b[j])) {
			ac, bc := 0, 0
			if i < len(a) {
				ac = charOrder(a[i])
			}
			if j < len(b) {
				bc = charOrder(b[j])
			}
			if ac != bc {
				return ac - bc
			}
			i++
			j++
		}

		for i < len(a) && a[i] == '0' {
			i++
		}
		for j < len(b) && b[j] == '0' {
			j++
		}
		for i < len(a) && j < len(b) && isDigit(a[i]) && isDigit(b[j]) {
			if firstDiff == 0 {
				firstDiff = int(a[i]) - int(b[j])
			}
			i++
			j++
		}
		if i < len(a) && isDigit(a[i]) {
			return 1
		}
		if j < len(b) && isDigit(b[j]) {
			return -1
		}
		if firstDiff != 0 {
			return firstDiff
		}
	}
	return 0
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// prereleasePattern matches Debian pre-release version conventions: tilde
// suffixes (~alpha1, ~rc2, ~git20260101), date-stamped VCS builds, and bare
// alpha/beta/rc markers.
var prereleasePattern = regexp.MustCompile(`(?i)(~alpha\d*|~beta\d*|~rc\d*|~pre\d*|~dev|~git\d*|~svn\d*|~bzr\d*|\+git\d{8}|\+svn\d+|alpha\d+|beta\d+|rc\d+|\.0~)`)

// IsPrerelease reports whether a version string marks a pre-release build.
func IsPrerelease(version string) bool {
	return prereleasePattern.MatchString(version)
}
