package apt

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/feelpp/aptforge/pkg/errors"
)

// ParsePackages parses a binary package index into artifact records. Input
// is a sequence of blank-line separated stanzas of colon-delimited fields
// with space-indented continuation lines.
//
// Each stanza must carry Package, Version, Architecture and Filename; a
// stanza missing any of them is structural damage and aborts the parse.
// Size is read when present, SHA256 likewise. All other fields are skipped.
func ParsePackages(data []byte) ([]Artifact, error) {
	var (
		artifacts []Artifact
		stanza    = make(map[string]string)
		lastKey   string
		lineNo    int
		stanzaAt  int
	)

	flush := func() error {
		if len(stanza) == 0 {
			return nil
		}
		a, err := stanzaArtifact(stanza)
		if err != nil {
			return &errors.ParseError{
				Format:  "packages",
				Line:    stanzaAt,
				Message: err.Error(),
			}
		}
		artifacts = append(artifacts, a)
		stanza = make(map[string]string)
		lastKey = ""
		return nil
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lineNo++
		line := sc.Text()

		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}

		if line[0] == ' ' || line[0] == '\t' {
			if lastKey == "" {
				return nil, &errors.ParseError{
					Format:  "packages",
					Line:    lineNo,
					Message: "continuation line without a preceding field",
				}
			}
			stanza[lastKey] += "\n" + strings.TrimSpace(line)
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, &errors.ParseError{
				Format:  "packages",
				Line:    lineNo,
				Message: fmt.Sprintf("not a field or continuation: %q", line),
			}
		}
		if len(stanza) == 0 {
			stanzaAt = lineNo
		}
		lastKey = strings.TrimSpace(key)
		stanza[lastKey] = strings.TrimSpace(value)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.WrapParse("packages", "", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// requiredStanzaFields must be present in every package stanza.
var requiredStanzaFields = []string{"Package", "Version", "Architecture", "Filename"}

func stanzaArtifact(stanza map[string]string) (Artifact, error) {
	for _, field := range requiredStanzaFields {
		if stanza[field] == "" {
			return Artifact{}, fmt.Errorf("stanza for %q is missing %s", stanza["Package"], field)
		}
	}

	a := Artifact{
		Name:         stanza["Package"],
		Version:      stanza["Version"],
		Architecture: stanza["Architecture"],
		Filename:     stanza["Filename"],
		SHA256:       stanza["SHA256"],
		PoolPath:     stanza["Filename"],
	}
	if raw := stanza["Size"]; raw != "" {
		size, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Artifact{}, fmt.Errorf("stanza for %q has unreadable Size %q", a.Name, raw)
		}
		a.Size = size
	}
	return a, nil
}
