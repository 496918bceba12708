package apt

import (
	"bufio"
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/feelpp/aptforge/pkg/errors"
)

// FileChecksum is one entry of a manifest checksum block: the checksum and
// size of one file under the distribution's metadata tree.
type FileChecksum struct {
	Sum  string
	Size int64
	Path string
}

// Release is the typed form of a distribution's top-level manifest. It is
// the authoritative record of which components a publication contains.
type Release struct {
	Origin        string
	Label         string
	Suite         string
	Codename      string
	Date          string
	Architectures []string
	Components    []string

	// SHA256 lists the checksums of the metadata files below dists/.
	SHA256 []FileChecksum

	// Fields holds every scalar field as parsed, including ones this type
	// does not model. Unknown fields are carried, never rejected.
	Fields map[string]string

	// Clearsigned records whether the input carried a signature armor.
	Clearsigned bool
}

const (
	pgpSignedMessage = "-----BEGIN PGP SIGNED MESSAGE-----"
	pgpSignature     = "-----BEGIN PGP SIGNATURE-----"
)

// checksumBlocks are the field names that introduce indented checksum lists.
var checksumBlocks = map[string]bool{
	"MD5Sum": true,
	"SHA1":   true,
	"SHA256": true,
	"SHA512": true,
}

// ParseRelease parses a Release manifest. Clearsigned input (InRelease) is
// accepted: the signature armor is stripped and the embedded body parsed.
//
// The grammar is colon-delimited fields with space-indented continuation
// lines; checksum fields introduce indented "<sum> <size> <path>" entries.
// Unknown fields are preserved in Fields. Structural damage, a line that is
// neither a field nor a continuation, or a malformed checksum entry, is an
// error: a half-read manifest must never be acted on.
func ParseRelease(data []byte) (*Release, error) {
	body, clearsigned := stripClearsign(data)

	r := &Release{
		Fields:      make(map[string]string),
		Clearsigned: clearsigned,
	}

	var (
		block   string // active checksum block name, "" outside one
		lastKey string
		lineNo  int
	)

	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lineNo++
		line := sc.Text()

		if strings.TrimSpace(line) == "" {
			continue
		}

		if line[0] == ' ' || line[0] == '\t' {
			if block != "" {
				entry, err := parseChecksumLine(line)
				if err != nil {
					return nil, parseErr(lineNo, err.Error())
				}
				if block == "SHA256" {
					r.SHA256 = append(r.SHA256, entry)
				}
				continue
			}
			if lastKey == "" {
				return nil, parseErr(lineNo, "continuation line without a preceding field")
			}
			r.Fields[lastKey] += "\n" + strings.TrimSpace(line)
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, parseErr(lineNo, fmt.Sprintf("not a field or continuation: %q", line))
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if checksumBlocks[key] && value == "" {
			block = key
			lastKey = ""
			continue
		}
		block = ""
		lastKey = key
		r.Fields[key] = value
		r.setKnownField(key, value)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.WrapParse("release", "", err)
	}

	if len(r.Fields) == 0 && len(r.SHA256) == 0 {
		return nil, parseErr(0, "manifest carries no fields")
	}
	return r, nil
}

// Has reports whether the manifest carried the named scalar field.
func (r *Release) Has(field string) bool {
	_, ok := r.Fields[field]
	return ok
}

// ComponentsEqual reports whether two manifests list the same component set,
// ignoring order.
func (r *Release) ComponentsEqual(o *Release) bool {
	a := slices.Clone(r.Components)
	b := slices.Clone(o.Components)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

// ChecksumsEqual reports whether two manifests carry identical SHA256
// checksum sets.
func (r *Release) ChecksumsEqual(o *Release) bool {
	if len(r.SHA256) != len(o.SHA256) {
		return false
	}
	byPath := make(map[string]FileChecksum, len(r.SHA256))
	for _, c := range r.SHA256 {
		byPath[c.Path] = c
	}
	for _, c := range o.SHA256 {
		have, ok := byPath[c.Path]
		if !ok || have.Sum != c.Sum || have.Size != c.Size {
			return false
		}
	}
	return true
}

func (r *Release) setKnownField(key, value string) {
	switch key {
	case "Origin":
		r.Origin = value
	case "Label":
		r.Label = value
	case "Suite":
		r.Suite = value
	case "Codename":
		r.Codename = value
	case "Date":
		r.Date = value
	case "Architectures":
		r.Architectures = strings.Fields(value)
	case "Components":
		r.Components = strings.Fields(value)
	}
}

func parseChecksumLine(line string) (FileChecksum, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return FileChecksum{}, fmt.Errorf("checksum entry has %d fields, want 3", len(fields))
	}
	size, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return FileChecksum{}, fmt.Errorf("checksum entry size %q is not a number", fields[1])
	}
	return FileChecksum{Sum: fields[0], Size: size, Path: fields[2]}, nil
}

func parseErr(line int, message string) error {
	return &errors.ParseError{Format: "release", Line: line, Message: message}
}

// stripClearsign removes the PGP clearsign armor from a signed manifest and
// returns the embedded body. Unsigned input passes through untouched.
// Dash-escaped body lines ("- " prefix, RFC 4880) are unescaped.
func stripClearsign(data []byte) (body []byte, clearsigned bool) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte(pgpSignedMessage)) {
		return data, false
	}

	lines := strings.Split(string(trimmed), "\n")
	// Skip the BEGIN line and armor headers up to the first blank line.
	i := 1
	for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
		i++
	}
	i++

	var out []string
	for ; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], pgpSignature) {
			break
		}
		out = append(out, strings.TrimPrefix(lines[i], "- "))
	}
	return []byte(strings.Join(out, "\n")), true
}
