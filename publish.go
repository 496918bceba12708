package aptforge

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agentstation/utc"

	"github.com/feelpp/aptforge/internal/aptly"
	"github.com/feelpp/aptforge/internal/pages"
	"github.com/feelpp/aptforge/internal/pool"
	"github.com/feelpp/aptforge/internal/treesync"
	"github.com/feelpp/aptforge/pkg/apt"
	"github.com/feelpp/aptforge/pkg/constants"
	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/logging"
)

// Publish runs one full publication: recover local state from the hosting
// branch, reconstruct every published component, stage the component union
// with the new artifacts, republish, and push the rebuilt tree.
func (p *publisher) Publish(ctx context.Context, req Request) (*Result, error) {
	// Step 0: Set context
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()

	// Step 1: Normalize and validate the request
	component, pub, err := p.resolveRequest(&req)
	if err != nil {
		return nil, err
	}

	// Step 2: One timestamp for the whole run. Every snapshot shares it,
	// and it doubles as the run id in logs.
	stamp := utc.Now()
	ctx = logging.WithRunID(ctx, stamp.Format(constants.SnapshotTimeFormat))
	ctx = logging.WithChannel(ctx, pub.Channel)
	ctx = logging.WithDistribution(ctx, pub.Distribution)
	ctx = logging.WithComponent(ctx, component)
	logger := logging.FromContext(ctx)
	logger.Info().
		Str("repository", p.config.repoURL).
		Str("branch", p.config.branch).
		Bool("signed", req.Sign.Enabled).
		Msg("Starting publish")

	// Step 3: Read the incoming artifacts before touching any state
	incoming, err := readArtifactDir(req.ArtifactDir)
	if err != nil {
		return nil, err
	}

	// Step 4: Workspace: hosting checkout plus a fresh aptly home
	ws, err := p.newWorkspace(ctx, pub)
	if err != nil {
		return nil, err
	}
	defer ws.cleanup()

	if version, verr := ws.client.Version(ctx); verr == nil && version != "" {
		logger.Debug().Str("aptly", version).Msg("Repository tool version")
	}

	// Step 5: Recover local state from the hosting tree
	if err := p.recoverState(ctx, ws, pub); err != nil {
		return nil, errors.NewPhaseError("recover", "", nil, err)
	}

	// Step 6: Read the published manifest
	release, err := pool.ReadRelease(ws.setup.PublicDir, pub)
	if errors.IsNotFound(err) {
		logger.Info().Msg("No existing publication, starting fresh")
		release = nil
	} else if err != nil {
		return nil, errors.NewPhaseError("read", "", nil, err)
	}

	// Step 7: Reconstruct every published component, verifying each
	// artifact is retrievable before anything is destroyed
	var scanned []apt.Component
	if release != nil {
		scanner := p.scanner(ws.setup.PublicDir, filepath.Join(ws.root, "downloads"))
		if scanned, err = scanner.Scan(ctx, pub, release); err != nil {
			return nil, errors.NewPhaseError("scan", "", release.Components, err)
		}
	}

	// Step 8: Build the reconciliation plan
	plan := buildPlan(component, release, scanned, incoming)
	logger.Info().
		Strs("components", plan.Components).
		Bool("introduced", plan.Introduced).
		Int("incoming", len(plan.Incoming)).
		Int("carried", plan.CarriedCount()).
		Msg("Publication plan")

	// Step 9: Stage every component's repository and snapshot. Nothing
	// live is touched yet; a failure here leaves the publication intact.
	results, err := p.stage(ctx, ws.client, pub, plan, stamp, req.Overwrite)
	if err != nil {
		return nil, errors.NewPhaseError("stage", component, plan.Existing, err)
	}

	// Step 10: Replace the live publication
	if err := p.publishStaged(ctx, ws.client, ws.setup.PublicDir, pub, results, signConfig(req.Sign)); err != nil {
		return nil, errors.NewPhaseError("publish", component, nil, err)
	}

	// Step 11: Reconcile the manifest forms
	if _, err := p.fixupManifests(ctx, ws.setup.PublicDir, pub, req.Sign.Enabled); err != nil {
		return nil, errors.NewPhaseError("fixup", component, plan.Components, err)
	}

	// Step 12: Mirror the rebuilt tree back into the checkout
	if err := p.syncBack(ctx, ws); err != nil {
		return nil, errors.NewPhaseError("sync", component, plan.Existing, err)
	}

	// Step 13: Commit and push. A rejected push means the branch advanced
	// under us; the error is retryable and the whole run must repeat.
	message := fmt.Sprintf("Publish %s (%s/%s) %s", component, pub.Distribution, pub.Channel, stamp.Format(time.RFC3339))
	hash, pushed, err := p.commitAndPush(ctx, ws.checkout, message)
	if err != nil {
		return nil, errors.NewPhaseError("push", component, plan.Existing, err)
	}

	// Step 14: Assemble the result
	snapshots := make([]string, 0, len(results))
	for _, s := range results {
		snapshots = append(snapshots, s.snapshot)
	}
	result := &Result{
		Channel:          pub.Channel,
		Distribution:     pub.Distribution,
		Component:        component,
		Introduced:       plan.Introduced,
		Components:       plan.Components,
		Snapshots:        snapshots,
		NewArtifacts:     len(plan.Incoming),
		CarriedArtifacts: plan.CarriedCount(),
		Timestamp:        stamp,
		CommitHash:       hash,
		Pushed:           pushed,
		Duration:         time.Since(started),
	}

	logger.Info().
		Bool("pushed", result.Pushed).
		Dur("duration", result.Duration).
		Msg(result.Summary())
	return result, nil
}

// workspace bundles the per-run working state: the hosting checkout and the
// aptly home it feeds.
type workspace struct {
	root     string
	checkout *pages.Checkout
	setup    *aptly.Setup
	client   *aptly.Client
	cleanup  func()
}

// newWorkspace prepares the run's working directories, clones the hosting
// branch, and generates the aptly configuration.
func (p *publisher) newWorkspace(ctx context.Context, pub apt.Publication) (*workspace, error) {
	root := p.config.workDir
	remove := false
	if root == "" {
		var err error
		if root, err = os.MkdirTemp("", "aptforge-"); err != nil {
			return nil, errors.WrapIO("create", "workspace", err)
		}
		remove = !p.config.keepWork
	} else if err := os.MkdirAll(root, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", root, err)
	}

	ws := &workspace{root: root}
	ws.cleanup = func() {
		if remove {
			os.RemoveAll(root)
		} else {
			logging.FromContext(ctx).Info().Str("workspace", root).Msg("Workspace retained")
		}
	}

	ok := false
	defer func() {
		if !ok {
			ws.cleanup()
		}
	}()

	pagesDir, err := os.MkdirTemp(root, constants.PagesWorkPrefix)
	if err != nil {
		return nil, errors.WrapIO("create", "pages workspace", err)
	}
	aptlyDir, err := os.MkdirTemp(root, constants.AptlyWorkPrefix)
	if err != nil {
		return nil, errors.WrapIO("create", "aptly workspace", err)
	}

	ws.checkout, err = pages.Clone(ctx, pagesDir, pages.Options{
		URL:    p.config.repoURL,
		Branch: p.config.branch,
		Token:  p.config.token,
		Author: pages.Author{Name: p.config.authorName, Email: p.config.authorEmail},
	})
	if err != nil {
		return nil, err
	}

	ws.setup, err = aptly.Configure(aptlyDir, p.config.aptlyRoot, p.config.aptlyConfig)
	if err != nil {
		return nil, err
	}

	runner := p.config.runner
	if runner == nil {
		execRunner := ws.setup.Runner()
		if p.config.aptlyBinary != "" {
			execRunner.Binary = p.config.aptlyBinary
		}
		runner = execRunner
	}
	ws.client = aptly.NewClient(runner)

	ok = true
	return ws, nil
}

// scanner builds the pool scanner for one run.
func (p *publisher) scanner(root, downloadDir string) *pool.Scanner {
	opts := []pool.Option{}
	if downloadDir != "" {
		opts = append(opts, pool.WithDownloadDir(downloadDir))
	}
	if p.config.baseURL != "" {
		opts = append(opts, pool.WithRemoteFallback(p.config.baseURL))
	}
	return pool.NewScanner(root, opts...)
}

// syncBack mirrors the aptly public tree into the checkout and refreshes
// the marker file that keeps GitHub Pages from mangling dists paths.
func (p *publisher) syncBack(ctx context.Context, ws *workspace) error {
	err := treesync.Mirror(ctx, ws.setup.PublicDir, ws.checkout.Path(), treesync.Options{
		Delete:   true,
		Preserve: []string{gitDirName},
	})
	if err != nil {
		return err
	}

	marker := filepath.Join(ws.checkout.Path(), constants.NoJekyllFile)
	if err := os.WriteFile(marker, nil, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", constants.NoJekyllFile, err)
	}
	return nil
}

// commitAndPush commits the checkout and pushes it. An unchanged tree is a
// completed no-op publish, not an error.
func (p *publisher) commitAndPush(ctx context.Context, checkout *pages.Checkout, message string) (string, bool, error) {
	hash, err := checkout.CommitAll(ctx, message)
	if stderrors.Is(err, pages.ErrNoChanges) {
		logging.FromContext(ctx).Info().Msg("Published tree unchanged, nothing to push")
		return hash, false, nil
	}
	if err != nil {
		return "", false, err
	}

	if err := checkout.Push(ctx); err != nil {
		return "", false, err
	}
	return hash, true, nil
}
