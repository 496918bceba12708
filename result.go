package aptforge

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/utc"
)

// Result represents a completed publish run.
type Result struct {
	// Identity of the publication
	Channel      string `json:"channel"`
	Distribution string `json:"distribution"`
	Component    string `json:"component"`

	// Introduced is true when the component was not part of the previous
	// publication.
	Introduced bool `json:"introduced"`

	// Components is the full published union, in publication order.
	Components []string `json:"components"`

	// Snapshots are the snapshot names the publication was created from,
	// aligned with Components.
	Snapshots []string `json:"snapshots"`

	// Artifact counts: new files ingested for the target component and
	// files carried forward from the previous publication.
	NewArtifacts     int `json:"new_artifacts"`
	CarriedArtifacts int `json:"carried_artifacts"`

	// Timestamp is the run's shared snapshot timestamp.
	Timestamp utc.Time `json:"timestamp"`

	// Hosting outcome. Pushed is false when the run was a no-op: the
	// republished tree was byte-identical to the previous commit.
	CommitHash string `json:"commit_hash,omitempty"`
	Pushed     bool   `json:"pushed"`

	Duration time.Duration `json:"duration"`
}

// Summary returns a human-readable summary of the publish result.
func (r *Result) Summary() string {
	var b strings.Builder

	verb := "updated"
	if r.Introduced {
		verb = "introduced"
	}
	fmt.Fprintf(&b, "%s %s in %s/%s", verb, r.Component, r.Channel, r.Distribution)
	fmt.Fprintf(&b, " (%d new, %d carried)", r.NewArtifacts, r.CarriedArtifacts)
	fmt.Fprintf(&b, "; published components: %s", strings.Join(r.Components, ", "))

	if r.Pushed {
		fmt.Fprintf(&b, "; pushed %s", shortHash(r.CommitHash))
	} else {
		b.WriteString("; no changes to push")
	}

	return b.String()
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
