// Package publish implements the publish command: one reconciliation run
// against the hosted repository.
package publish

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/feelpp/aptforge"
	"github.com/feelpp/aptforge/cmd/application"
	"github.com/feelpp/aptforge/internal/cmd/output"
	"github.com/feelpp/aptforge/internal/deps"
	"github.com/feelpp/aptforge/pkg/constants"
	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/logging"
)

// flags holds the publish command's flag values.
type flags struct {
	component    string
	distribution string
	channel      string
	debs         string
	pagesRepo    string
	branch       string
	sign         bool
	keyID        string
	passphrase   string
	aptlyConfig  string
	aptlyRoot    string
	overwrite    bool
	retries      int
	dryRun       bool
	keep         bool
}

// NewCommand creates the publish command with app dependencies.
func NewCommand(app application.Application) *cobra.Command {
	defaults := app.Defaults()
	f := &flags{}

	cmd := &cobra.Command{
		Use:     "publish",
		GroupID: "publish",
		Short:   "Publish Debian packages to the hosted repository",
		Long: `Publish reconstructs the published state of one channel/distribution
pair from the hosting branch, merges the packages from --debs into the
named component, republishes the full component union through aptly, and
pushes the rebuilt tree back.

Without --debs the run bootstraps an empty component so later runs can
fill it. Already-published components are carried forward untouched.`,
		Example: `  # Publish a directory of packages to stable
  aptforge publish --component mmg --distro noble --debs ./packages/

  # Bootstrap an empty component in testing
  aptforge publish --component new-project --channel testing

  # Publish signed, retrying once on transient hosting races
  aptforge publish --component feelpp --debs ./build/ --sign --keyid 7DF7A2C1 --retries 1`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app, f)
		},
	}

	cmd.Flags().StringVar(&f.component, "component", "", "component to publish (normalized to a lowercase token)")
	_ = cmd.MarkFlagRequired("component")
	cmd.Flags().StringVar(&f.distribution, "distro", defaults.Distribution, "distribution codename to publish under")
	cmd.Flags().StringVar(&f.channel, "channel", constants.DefaultChannel, "publication channel: stable, testing, or pr")
	cmd.Flags().StringVar(&f.debs, "debs", "", "directory of .deb files; omit to bootstrap an empty component")
	cmd.Flags().StringVar(&f.pagesRepo, "pages-repo", defaults.PagesRepo, "hosting repository URL (env PAGES_REPO)")
	cmd.Flags().StringVar(&f.branch, "branch", defaults.Branch, "hosting branch (env BRANCH)")
	cmd.Flags().BoolVar(&f.sign, "sign", false, "sign the publication with GPG")
	cmd.Flags().StringVar(&f.keyID, "keyid", defaults.SigningKey, "GPG key ID, required with --sign (env GPG_KEYID)")
	cmd.Flags().StringVar(&f.passphrase, "passphrase", defaults.Passphrase, "GPG passphrase (env GPG_PASSPHRASE)")
	cmd.Flags().StringVar(&f.aptlyConfig, "aptly-config", defaults.AptlyConfig, "existing aptly config file to reuse")
	cmd.Flags().StringVar(&f.aptlyRoot, "aptly-root", defaults.AptlyRoot, "aptly root directory (default: inside the run workspace)")
	cmd.Flags().BoolVar(&f.overwrite, "overwrite", false, "replace a published file whose content differs instead of failing")
	cmd.Flags().IntVar(&f.retries, "retries", 0, "rerun the publication this many times on retryable failures")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "compute and print the reconciliation plan without publishing")
	cmd.Flags().BoolVar(&f.keep, "keep-workspace", false, "keep the run workspace for debugging")

	return cmd
}

func run(cmd *cobra.Command, app application.Application, f *flags) error {
	ctx := logging.WithLogger(cmd.Context(), app.Logger())

	if !slices.Contains(constants.Channels, f.channel) {
		return errors.NewValidationError("channel", f.channel, "must be one of stable, testing, pr")
	}
	if f.sign && f.keyID == "" {
		return errors.NewValidationError("keyid", "", "--keyid is required when --sign is used")
	}

	req := aptforge.Request{
		Component:    f.component,
		Channel:      f.channel,
		Distribution: f.distribution,
		ArtifactDir:  f.debs,
		Overwrite:    f.overwrite,
		Sign: aptforge.Signing{
			Enabled:    f.sign,
			KeyID:      f.keyID,
			Passphrase: f.passphrase,
		},
	}

	engine, err := app.Publisher(engineOptions(f)...)
	if err != nil {
		return err
	}

	if f.dryRun {
		plan, err := engine.Plan(ctx, req)
		if err != nil {
			return err
		}
		return printPlan(cmd, app, plan, req)
	}

	// The plan path never shells out; only a real publish needs the
	// binaries.
	if err := preflight(ctx, cmd, f.sign); err != nil {
		return err
	}

	result, err := publishWithRetries(ctx, app, engine, req, f.retries)
	if err != nil {
		return err
	}
	return printResult(cmd, app, result)
}

// engineOptions translates command flags into engine options. These land
// after the configuration-derived options, so they win.
func engineOptions(f *flags) []aptforge.Option {
	opts := []aptforge.Option{
		aptforge.WithRepository(f.pagesRepo),
		aptforge.WithBranch(f.branch),
	}
	if f.aptlyConfig != "" {
		opts = append(opts, aptforge.WithAptlyConfig(f.aptlyConfig))
	}
	if f.aptlyRoot != "" {
		opts = append(opts, aptforge.WithAptlyRoot(f.aptlyRoot))
	}
	if f.keep {
		opts = append(opts, aptforge.WithKeepWorkspace(true))
	}
	return opts
}

// preflight verifies the external binaries and prints install hints for
// whatever is missing before returning the failure.
func preflight(ctx context.Context, cmd *cobra.Command, signing bool) error {
	err := deps.Preflight(ctx, signing)
	if err == nil {
		return nil
	}

	var depErr *errors.DependencyError
	if stderrors.As(err, &depErr) {
		required := deps.Required(signing)
		statuses := deps.CheckAll(ctx, required)
		deps.ShowMissingSummary(cmd.ErrOrStderr(), deps.Missing(required, statuses))
	}
	return err
}

// publishWithRetries runs the publication, rerunning the whole request on
// retryable failures up to the requested attempt budget. Anything else
// fails immediately.
func publishWithRetries(ctx context.Context, app application.Application, engine aptforge.Publisher, req aptforge.Request, retries int) (*aptforge.Result, error) {
	for attempt := 0; ; attempt++ {
		result, err := engine.Publish(ctx, req)
		if err == nil || attempt >= retries || !errors.IsRetryable(err) {
			return result, err
		}

		app.Logger().Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("retries", retries).
			Msg("Publication hit a retryable failure, rerunning")
	}
}

func printPlan(cmd *cobra.Command, app application.Application, plan *aptforge.Plan, req aptforge.Request) error {
	if format, ok := structuredFormat(app); ok {
		return output.NewFormatter(format).Format(cmd.OutOrStdout(), plan)
	}

	w := cmd.OutOrStdout()
	verb := "update"
	if plan.Introduced {
		verb = "introduce"
	}
	fmt.Fprintf(w, "would %s %s in %s/%s\n", verb, plan.Target, req.Channel, req.Distribution)
	fmt.Fprintf(w, "  new artifacts:     %d\n", len(plan.Incoming))
	fmt.Fprintf(w, "  carried artifacts: %d\n", plan.CarriedCount())
	fmt.Fprintf(w, "  components after:  %s\n", strings.Join(plan.Components, ", "))
	return nil
}

func printResult(cmd *cobra.Command, app application.Application, result *aptforge.Result) error {
	if format, ok := structuredFormat(app); ok {
		return output.NewFormatter(format).Format(cmd.OutOrStdout(), result)
	}

	_, err := fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
	return err
}

// structuredFormat reports whether an explicit machine-readable format
// was requested. The default rendering is the one-line summary.
func structuredFormat(app application.Application) (output.Format, bool) {
	switch format := output.Format(app.OutputFormat()); format {
	case output.FormatJSON, output.FormatYAML:
		return format, true
	default:
		return "", false
	}
}
