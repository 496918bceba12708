package aptforge_test

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	extgogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	gitclient "github.com/go-git/go-git/v5/plumbing/transport/client"
	gitserver "github.com/go-git/go-git/v5/plumbing/transport/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feelpp/aptforge"
	"github.com/feelpp/aptforge/pkg/apt"
	pkgerrors "github.com/feelpp/aptforge/pkg/errors"
)

// Local-path remotes normally shell out to the git binaries. Serving them
// in process keeps the tests hermetic.
func init() {
	gitclient.InstallProtocol("file", gitserver.DefaultServer)
}

// harness carries one hosting remote shared by consecutive publish runs.
// Every run gets a fresh engine, aptly root, and fake runner, the way real
// CI invocations start from nothing but the remote.
type harness struct {
	remote string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	remote := filepath.Join(t.TempDir(), "apt.git")
	_, err := extgogit.PlainInit(remote, true)
	require.NoError(t, err)
	return &harness{remote: remote}
}

func (h *harness) engine(t *testing.T, opts ...aptforge.Option) (aptforge.Publisher, *fakeAptly) {
	t.Helper()
	root := t.TempDir()
	fake := newFakeAptly(filepath.Join(root, "public"))
	base := []aptforge.Option{
		aptforge.WithRepository(h.remote),
		aptforge.WithAptlyRoot(root),
		aptforge.WithRunner(fake),
	}
	publisher, err := aptforge.New(append(base, opts...)...)
	require.NoError(t, err)
	return publisher, fake
}

// seed publishes component into noble from a fresh engine, failing the test
// on any error.
func (h *harness) seed(t *testing.T, component string, debs map[string]string) *aptforge.Result {
	t.Helper()
	engine, _ := h.engine(t)
	result, err := engine.Publish(context.Background(), aptforge.Request{
		Component:    component,
		Distribution: "noble",
		ArtifactDir:  debDir(t, debs),
	})
	require.NoError(t, err)
	return result
}

// debDir writes the given .deb files into a fresh directory.
func debDir(t *testing.T, debs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range debs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

// clonedTree checks the hosting branch out into a fresh directory.
func clonedTree(t *testing.T, remote string) string {
	t.Helper()
	dir := t.TempDir()
	_, err := extgogit.PlainClone(dir, false, &extgogit.CloneOptions{
		URL:           remote,
		ReferenceName: plumbing.NewBranchReferenceName("gh-pages"),
		SingleBranch:  true,
	})
	require.NoError(t, err)
	return dir
}

func readTreeFile(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

// remoteHead returns the hosting branch's commit hash straight from the
// bare remote.
func remoteHead(t *testing.T, remote string) string {
	t.Helper()
	repo, err := extgogit.PlainOpen(remote)
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.NewBranchReferenceName("gh-pages"), true)
	require.NoError(t, err)
	return ref.Hash().String()
}

// tamperRemote clones the hosting branch, applies mutate to the worktree,
// and pushes the result, simulating history the engine did not write.
func tamperRemote(t *testing.T, remote string, mutate func(dir string)) {
	t.Helper()
	dir := t.TempDir()
	repo, err := extgogit.PlainClone(dir, false, &extgogit.CloneOptions{
		URL:           remote,
		ReferenceName: plumbing.NewBranchReferenceName("gh-pages"),
		SingleBranch:  true,
	})
	require.NoError(t, err)

	mutate(dir)

	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.AddWithOptions(&extgogit.AddOptions{All: true}))
	_, err = wt.Commit("tamper", &extgogit.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Push(&extgogit.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{"refs/heads/gh-pages:refs/heads/gh-pages"},
	}))
}

// clearsign wraps body in the PGP armor aptly's signed publishes produce.
func clearsign(body string) string {
	return "-----BEGIN PGP SIGNED MESSAGE-----\nHash: SHA256\n\n" + body +
		"-----BEGIN PGP SIGNATURE-----\n\nbm90IGEgcmVhbCBzaWduYXR1cmU=\n-----END PGP SIGNATURE-----\n"
}

// fakeAptly implements the Runner seam with enough of the repository tool's
// behavior to run full publishes: local repositories, snapshots, and a
// publish step that materializes a real dists/pool tree under the public
// directory, the same tree the engine scans and mirrors back to the
// hosting branch.
type fakeAptly struct {
	publicDir string

	mu        sync.Mutex
	calls     [][]string
	repos     map[string]fakeRepo
	snapshots map[string]fakeSnapshot
	published map[string]bool

	// failPublish makes the publish step fail after the old publication
	// was already dropped, opening the publication window.
	failPublish bool

	// staleInRelease, when set, is written as InRelease after an unsigned
	// publish, emulating the tool leaving a stale signed form behind.
	staleInRelease string

	// mangleSignature makes signed publishes write an InRelease that does
	// not match the Release.
	mangleSignature bool
}

type fakeRepo struct {
	component    string
	distribution string
	files        []string
}

type fakeSnapshot struct {
	component string
	files     []string
}

type fakePackage struct {
	name    string
	version string
	arch    string
	poolRel string
	size    int64
	sha256  string
	src     string
}

func newFakeAptly(publicDir string) *fakeAptly {
	return &fakeAptly{
		publicDir: publicDir,
		repos:     make(map[string]fakeRepo),
		snapshots: make(map[string]fakeSnapshot),
		published: make(map[string]bool),
	}
}

func (f *fakeAptly) Run(_ context.Context, args ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), args...))

	switch {
	case len(args) == 1 && args[0] == "version":
		return "aptly version: 1.6.2", nil
	case len(args) == 2 && args[0] == "db" && args[1] == "recover":
		return "", nil
	case len(args) > 2 && args[0] == "repo" && args[1] == "create":
		return f.repoCreate(args[2:])
	case len(args) > 3 && args[0] == "repo" && args[1] == "add":
		return f.repoAdd(args[2], args[3:])
	case len(args) == 6 && args[0] == "snapshot" && args[1] == "create" && args[3] == "from" && args[4] == "repo":
		return f.snapshotCreate(args[2], args[5])
	case len(args) == 4 && args[0] == "publish" && args[1] == "show":
		return f.publishShow(args[2], args[3])
	case len(args) == 4 && args[0] == "publish" && args[1] == "drop":
		return f.publishDrop(args[2], args[3])
	case len(args) > 2 && args[0] == "publish" && args[1] == "snapshot":
		return f.publishSnapshot(args[2:])
	}
	return "", fmt.Errorf("unexpected aptly invocation: %q", args)
}

// allCalls returns every recorded invocation.
func (f *fakeAptly) allCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

// callsWith returns the recorded invocations starting with the given words.
func (f *fakeAptly) callsWith(prefix ...string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]string
	for _, call := range f.calls {
		if len(call) < len(prefix) {
			continue
		}
		match := true
		for i, word := range prefix {
			if call[i] != word {
				match = false
				break
			}
		}
		if match {
			out = append(out, append([]string(nil), call...))
		}
	}
	return out
}

func (f *fakeAptly) repoCreate(args []string) (string, error) {
	var component, distribution, name string
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "-component="):
			component = strings.TrimPrefix(arg, "-component=")
		case strings.HasPrefix(arg, "-distribution="):
			distribution = strings.TrimPrefix(arg, "-distribution=")
		case strings.HasPrefix(arg, "-"):
			return "", fmt.Errorf("repo create: unexpected flag %q", arg)
		default:
			name = arg
		}
	}
	if name == "" || component == "" || distribution == "" {
		return "", fmt.Errorf("repo create: incomplete arguments %q", args)
	}
	if _, ok := f.repos[name]; ok {
		return "", fmt.Errorf("local repo with name %s already exists", name)
	}
	f.repos[name] = fakeRepo{component: component, distribution: distribution}
	return fmt.Sprintf("Local repo [%s] successfully added.", name), nil
}

func (f *fakeAptly) repoAdd(name string, files []string) (string, error) {
	repo, ok := f.repos[name]
	if !ok {
		return "", fmt.Errorf("local repo with name %s not found", name)
	}
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			return "", fmt.Errorf("unable to process %s: %v", file, err)
		}
	}
	repo.files = append(repo.files, files...)
	f.repos[name] = repo
	return "", nil
}

func (f *fakeAptly) snapshotCreate(snapshot, repoName string) (string, error) {
	repo, ok := f.repos[repoName]
	if !ok {
		return "", fmt.Errorf("local repo with name %s not found", repoName)
	}
	if _, ok := f.snapshots[snapshot]; ok {
		return "", fmt.Errorf("snapshot with name %s already exists", snapshot)
	}
	f.snapshots[snapshot] = fakeSnapshot{
		component: repo.component,
		files:     append([]string(nil), repo.files...),
	}
	return "", nil
}

func (f *fakeAptly) publishShow(distribution, prefix string) (string, error) {
	if !f.published[prefix+"/"+distribution] {
		return "", fmt.Errorf("unable to show: published repo with prefix/distribution %s/%s not found", prefix, distribution)
	}
	return "Prefix: " + prefix, nil
}

func (f *fakeAptly) publishDrop(distribution, prefix string) (string, error) {
	key := prefix + "/" + distribution
	if !f.published[key] {
		return "", fmt.Errorf("unable to remove: publish %s not found", key)
	}
	delete(f.published, key)
	dists := filepath.Join(f.publicDir, prefix, "dists", distribution)
	if err := os.RemoveAll(dists); err != nil {
		return "", err
	}
	return "", nil
}

func (f *fakeAptly) publishSnapshot(args []string) (string, error) {
	var (
		distribution string
		componentCSV string
		skipSigning  bool
		gpgKey       string
		rest         []string
	)
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "-distribution="):
			distribution = strings.TrimPrefix(arg, "-distribution=")
		case strings.HasPrefix(arg, "-component="):
			componentCSV = strings.TrimPrefix(arg, "-component=")
		case arg == "-force-overwrite":
		case arg == "-skip-signing":
			skipSigning = true
		case strings.HasPrefix(arg, "-gpg-key="):
			gpgKey = strings.TrimPrefix(arg, "-gpg-key=")
		case strings.HasPrefix(arg, "-passphrase="):
		case strings.HasPrefix(arg, "-"):
			return "", fmt.Errorf("publish snapshot: unexpected flag %q", arg)
		default:
			rest = append(rest, arg)
		}
	}
	if f.failPublish {
		return "", fmt.Errorf("unable to publish: simulated failure")
	}
	if len(rest) < 2 {
		return "", fmt.Errorf("publish snapshot: need snapshots and a prefix, got %q", rest)
	}
	if !skipSigning && gpgKey == "" {
		return "", fmt.Errorf("publish snapshot: neither -skip-signing nor -gpg-key given")
	}

	prefix := rest[len(rest)-1]
	snapshots := rest[:len(rest)-1]
	components := strings.Split(componentCSV, ",")
	if len(components) != len(snapshots) {
		return "", fmt.Errorf("publish snapshot: %d components for %d snapshots", len(components), len(snapshots))
	}

	if err := f.materialize(prefix, distribution, components, snapshots, gpgKey); err != nil {
		return "", err
	}
	f.published[prefix+"/"+distribution] = true
	return "", nil
}

// fakeReleaseDate keeps repeated publishes of identical content byte
// identical, which the no-op republish detection depends on.
const fakeReleaseDate = "Sat, 01 Mar 2025 00:00:00 UTC"

// materialize writes the published tree for one publish snapshot call:
// per-component package indexes for the architecture union, pool copies of
// every staged file, and the Release manifest, plus the signed forms the
// signing flags call for.
func (f *fakeAptly) materialize(prefix, distribution string, components, snapshots []string, gpgKey string) error {
	root := filepath.Join(f.publicDir, prefix)
	distsDir := filepath.Join(root, "dists", distribution)
	if err := os.RemoveAll(distsDir); err != nil {
		return err
	}
	if err := os.MkdirAll(distsDir, 0o755); err != nil {
		return err
	}

	packages := make(map[string][]fakePackage, len(snapshots))
	archSet := make(map[string]bool)
	for i, name := range snapshots {
		snapshot, ok := f.snapshots[name]
		if !ok {
			return fmt.Errorf("snapshot with name %s not found", name)
		}
		component := components[i]
		for _, file := range snapshot.files {
			pkg, err := loadFakePackage(component, file)
			if err != nil {
				return err
			}
			packages[component] = append(packages[component], pkg)
			if pkg.arch != "all" {
				archSet[pkg.arch] = true
			}
		}
		sort.Slice(packages[component], func(a, b int) bool {
			return packages[component][a].poolRel < packages[component][b].poolRel
		})
	}

	arches := make([]string, 0, len(archSet))
	for arch := range archSet {
		arches = append(arches, arch)
	}
	sort.Strings(arches)

	// Pool copies. A carried artifact already living in this tree copies
	// onto itself, which the buffered read/write makes a no-op.
	for _, pkgs := range packages {
		for _, pkg := range pkgs {
			dest := filepath.Join(root, filepath.FromSlash(pkg.poolRel))
			if dest == pkg.src {
				continue
			}
			data, err := os.ReadFile(pkg.src)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(dest, data, 0o644); err != nil {
				return err
			}
		}
	}

	// Every published architecture gets an index in every component,
	// empty or not, the way aptly lays multi-component publications out.
	var checksums []string
	for _, component := range components {
		for _, arch := range arches {
			var b strings.Builder
			for _, pkg := range packages[component] {
				if pkg.arch != arch && pkg.arch != "all" {
					continue
				}
				fmt.Fprintf(&b, "Package: %s\nVersion: %s\nArchitecture: %s\nFilename: %s\nSize: %d\nSHA256: %s\n\n",
					pkg.name, pkg.version, pkg.arch, pkg.poolRel, pkg.size, pkg.sha256)
			}
			rel := path.Join(component, "binary-"+arch, "Packages")
			target := filepath.Join(distsDir, filepath.FromSlash(rel))
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			content := []byte(b.String())
			if err := os.WriteFile(target, content, 0o644); err != nil {
				return err
			}
			checksums = append(checksums, fmt.Sprintf(" %x %d %s", sha256.Sum256(content), len(content), rel))
		}
	}

	release := fakeRelease(prefix, distribution, components, arches, checksums)
	if err := os.WriteFile(filepath.Join(distsDir, "Release"), []byte(release), 0o644); err != nil {
		return err
	}

	switch {
	case gpgKey != "":
		signed := release
		if f.mangleSignature {
			signed = strings.Replace(release, "Components:", "Components: phantom", 1)
		}
		if err := os.WriteFile(filepath.Join(distsDir, "InRelease"), []byte(clearsign(signed)), 0o644); err != nil {
			return err
		}
		armor := "-----BEGIN PGP SIGNATURE-----\n\nbm90IGEgcmVhbCBzaWduYXR1cmU=\n-----END PGP SIGNATURE-----\n"
		if err := os.WriteFile(filepath.Join(distsDir, "Release.gpg"), []byte(armor), 0o644); err != nil {
			return err
		}
	case f.staleInRelease != "":
		if err := os.WriteFile(filepath.Join(distsDir, "InRelease"), []byte(f.staleInRelease), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func fakeRelease(prefix, distribution string, components, arches, checksums []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Origin: . %s\n", prefix)
	fmt.Fprintf(&b, "Suite: %s\n", distribution)
	fmt.Fprintf(&b, "Codename: %s\n", distribution)
	fmt.Fprintf(&b, "Date: %s\n", fakeReleaseDate)
	if len(arches) > 0 {
		fmt.Fprintf(&b, "Architectures: %s\n", strings.Join(arches, " "))
	}
	fmt.Fprintf(&b, "Components: %s\n", strings.Join(components, " "))
	if len(checksums) > 0 {
		b.WriteString("SHA256:\n")
		for _, line := range checksums {
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

func loadFakePackage(component, file string) (fakePackage, error) {
	base := filepath.Base(file)
	deb, err := apt.ParseDebFilename(base)
	if err != nil {
		return fakePackage{}, err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fakePackage{}, err
	}
	return fakePackage{
		name:    deb.Name,
		version: deb.Version,
		arch:    deb.Architecture,
		poolRel: path.Join("pool", component, base[:1], deb.Name, base),
		size:    int64(len(data)),
		sha256:  fmt.Sprintf("%x", sha256.Sum256(data)),
		src:     file,
	}, nil
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	_, err := aptforge.New(aptforge.WithRepository(""))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidationError(err))

	_, err = aptforge.New(aptforge.WithBranch(""))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestPublishValidatesRequest(t *testing.T) {
	h := newHarness(t)
	engine, fake := h.engine(t)

	missing := filepath.Join(t.TempDir(), "never-built")
	empty := t.TempDir()

	tests := []struct {
		name  string
		req   aptforge.Request
		check func(error) bool
	}{
		{
			name:  "blank component",
			req:   aptforge.Request{Distribution: "noble"},
			check: pkgerrors.IsInvalidName,
		},
		{
			name:  "component normalizes to nothing",
			req:   aptforge.Request{Component: "--_--", Distribution: "noble"},
			check: pkgerrors.IsInvalidName,
		},
		{
			name:  "missing distribution",
			req:   aptforge.Request{Component: "mmg"},
			check: pkgerrors.IsValidationError,
		},
		{
			name:  "distribution with spaces",
			req:   aptforge.Request{Component: "mmg", Distribution: "no ble"},
			check: pkgerrors.IsValidationError,
		},
		{
			name:  "invalid channel",
			req:   aptforge.Request{Component: "mmg", Channel: "Stable!", Distribution: "noble"},
			check: pkgerrors.IsInvalidName,
		},
		{
			name:  "absent artifact directory",
			req:   aptforge.Request{Component: "mmg", Distribution: "noble", ArtifactDir: missing},
			check: pkgerrors.IsValidationError,
		},
		{
			name:  "artifact directory without packages",
			req:   aptforge.Request{Component: "mmg", Distribution: "noble", ArtifactDir: empty},
			check: pkgerrors.IsValidationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Publish(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}

	assert.Empty(t, fake.allCalls(), "rejected requests must not reach the repository tool")
}

func TestPlanPreviewsWithoutMutating(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "mmg", map[string]string{
		"mmg_5.8.0_amd64.deb":   "mmg bytes",
		"mmg-doc_5.8.0_all.deb": "doc bytes",
	})
	head := remoteHead(t, h.remote)

	engine, fake := h.engine(t)

	plan, err := engine.Plan(context.Background(), aptforge.Request{
		Component:    "parmmg",
		Distribution: "noble",
		ArtifactDir:  debDir(t, map[string]string{"parmmg_1.5.0_amd64.deb": "parmmg bytes"}),
	})
	require.NoError(t, err)
	assert.Equal(t, "parmmg", plan.Target)
	assert.True(t, plan.Introduced)
	assert.Equal(t, []string{"mmg"}, plan.Existing)
	assert.Equal(t, []string{"mmg", "parmmg"}, plan.Components)
	assert.Len(t, plan.Incoming, 1)
	assert.Empty(t, plan.Prior)
	assert.Equal(t, 2, plan.CarriedCount())

	// Planning the already-published component is an update, not an
	// introduction, and the raw name is normalized on the way in.
	plan, err = engine.Plan(context.Background(), aptforge.Request{
		Component:    "MMG",
		Distribution: "noble",
	})
	require.NoError(t, err)
	assert.Equal(t, "mmg", plan.Target)
	assert.False(t, plan.Introduced)
	assert.Equal(t, []string{"mmg"}, plan.Components)
	assert.Len(t, plan.Prior, 2)
	assert.Equal(t, 2, plan.CarriedCount())

	assert.Empty(t, fake.allCalls(), "planning never invokes the repository tool")
	assert.Equal(t, head, remoteHead(t, h.remote), "planning never touches the remote")
}
