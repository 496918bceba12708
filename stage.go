package aptforge

import (
	"context"
	"fmt"
	"path"

	"github.com/agentstation/utc"

	"github.com/feelpp/aptforge/internal/aptly"
	"github.com/feelpp/aptforge/pkg/apt"
	"github.com/feelpp/aptforge/pkg/constants"
	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/logging"
)

// staged records one component's staging outcome.
type staged struct {
	component string
	repo      string
	snapshot  string
	files     int
}

// stage builds a fresh local repository and a snapshot for every component
// of the plan. All snapshots of one run share the stamp, so their names
// collide across components only if two components share a name, which the
// union construction rules out. Nothing here touches the live publication.
func (p *publisher) stage(ctx context.Context, client *aptly.Client, pub apt.Publication, plan *Plan, stamp utc.Time, overwrite bool) ([]staged, error) {
	tag := stamp.Format(constants.SnapshotTimeFormat)
	results := make([]staged, 0, len(plan.Components))

	for _, component := range plan.Components {
		files, err := componentFiles(plan, component, overwrite)
		if err != nil {
			return nil, err
		}

		repo := repoName(component, pub)
		if err := client.CreateRepo(ctx, repo, component, pub.Distribution); err != nil {
			return nil, err
		}
		if err := client.AddPackages(ctx, repo, files); err != nil {
			return nil, err
		}

		snapshot := repo + "-" + tag
		if err := client.CreateSnapshot(ctx, snapshot, repo); err != nil {
			return nil, errors.NewSnapshotError(component, snapshot, err)
		}

		logging.FromContext(ctx).Debug().
			Str("component", component).
			Str("snapshot", snapshot).
			Int("files", len(files)).
			Msg("Staged component")
		results = append(results, staged{component: component, repo: repo, snapshot: snapshot, files: len(files)})
	}

	return results, nil
}

// repoName is the staging repository name for one component of a
// publication.
func repoName(component string, pub apt.Publication) string {
	return fmt.Sprintf("%s-%s-%s", component, pub.Distribution, pub.Channel)
}

// componentFiles resolves the local files staged into one component. The
// target merges its published artifacts with the incoming ones; every other
// component republishes exactly what was scanned. A target with neither
// prior nor incoming artifacts stages an empty repository, which is the
// bootstrap case.
func componentFiles(plan *Plan, component string, overwrite bool) ([]string, error) {
	if component == plan.Target {
		return mergeArtifacts(component, plan.Prior, plan.Incoming, overwrite)
	}
	for _, c := range plan.CarryForward {
		if c.Name == component {
			return localPaths(c.Artifacts), nil
		}
	}
	return nil, nil
}

// mergeArtifacts applies the conflict policy between published and incoming
// artifacts sharing a filename: identical content is an idempotent
// re-publish, differing content aborts unless overwrite was requested, and
// with overwrite the incoming file wins. Published filenames come from the
// package index as pool paths, so identity is always the base name.
func mergeArtifacts(component string, prior, incoming []apt.Artifact, overwrite bool) ([]string, error) {
	published := make(map[string]apt.Artifact, len(prior))
	for _, artifact := range prior {
		published[path.Base(artifact.Filename)] = artifact
	}

	files := make([]string, 0, len(prior)+len(incoming))
	replaced := make(map[string]bool)

	for _, in := range incoming {
		name := path.Base(in.Filename)
		if prev, ok := published[name]; ok {
			if !overwrite && (prev.SHA256 == "" || prev.SHA256 != in.SHA256) {
				return nil, errors.NewConflictError(component, name, prev.SHA256, in.SHA256)
			}
			replaced[name] = true
		}
		files = append(files, in.LocalPath)
	}

	for _, artifact := range prior {
		if replaced[path.Base(artifact.Filename)] {
			continue
		}
		files = append(files, artifact.LocalPath)
	}

	return files, nil
}

func localPaths(artifacts []apt.Artifact) []string {
	paths := make([]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		paths = append(paths, artifact.LocalPath)
	}
	return paths
}
