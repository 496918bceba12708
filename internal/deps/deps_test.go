package deps_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feelpp/aptforge/internal/deps"
	pkgerrors "github.com/feelpp/aptforge/pkg/errors"
)

// installFake drops an executable script named name into dir that prints
// the given version banner regardless of arguments.
func installFake(t *testing.T, dir, name, banner string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake executables require a POSIX shell")
	}
	script := "#!/bin/sh\necho \"" + banner + "\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755))
}

// isolatePath points PATH at dir alone so lookups only see the fakes.
func isolatePath(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("PATH", dir)
}

func fakeDep(name, minVersion string) deps.Dependency {
	return deps.Dependency{
		Name:          name,
		DisplayName:   name,
		CheckCommands: []string{name},
		MinVersion:    minVersion,
	}
}

func TestCheckFindsTool(t *testing.T) {
	dir := t.TempDir()
	installFake(t, dir, "faketool", "faketool version: 1.6.2")
	isolatePath(t, dir)

	status := deps.Check(context.Background(), fakeDep("faketool", "1.4.0"))

	assert.True(t, status.Available)
	assert.Equal(t, filepath.Join(dir, "faketool"), status.Path)
	assert.Equal(t, "1.6.2", status.Version)
	assert.NoError(t, status.CheckError)
}

func TestCheckMissingTool(t *testing.T) {
	isolatePath(t, t.TempDir())

	status := deps.Check(context.Background(), fakeDep("no-such-tool", ""))

	assert.False(t, status.Available)
	require.Error(t, status.CheckError)
	assert.Contains(t, status.CheckError.Error(), "not found in PATH")
}

func TestCheckTriesCommandsInOrder(t *testing.T) {
	dir := t.TempDir()
	installFake(t, dir, "gpg2", "gpg (GnuPG) 2.4.4")
	isolatePath(t, dir)

	dep := deps.Dependency{
		Name:          "gpg",
		DisplayName:   "GnuPG",
		CheckCommands: []string{"gpg", "gpg2"},
	}
	status := deps.Check(context.Background(), dep)

	assert.True(t, status.Available)
	assert.True(t, strings.HasSuffix(status.Path, "gpg2"))
}

func TestCheckVersionBelowMinimum(t *testing.T) {
	dir := t.TempDir()
	installFake(t, dir, "faketool", "faketool version: 1.2.0")
	isolatePath(t, dir)

	status := deps.Check(context.Background(), fakeDep("faketool", "1.4.0"))

	assert.True(t, status.Available, "an old tool is still usable, the warning is advisory")
	assert.Equal(t, "1.2.0", status.Version)
	require.Error(t, status.CheckError)
	assert.Contains(t, status.CheckError.Error(), "requires 1.4.0 or later")
}

func TestCheckVersionOrdersNumerically(t *testing.T) {
	dir := t.TempDir()
	installFake(t, dir, "faketool", "faketool version: 1.10.0")
	isolatePath(t, dir)

	// 1.10 sorts after 1.9 numerically even though it sorts before it
	// as a string.
	status := deps.Check(context.Background(), fakeDep("faketool", "1.9.0"))

	assert.True(t, status.Available)
	assert.NoError(t, status.CheckError)
}

func TestCheckAllAndMissing(t *testing.T) {
	dir := t.TempDir()
	installFake(t, dir, "present", "present version: 2.0.0")
	isolatePath(t, dir)

	list := []deps.Dependency{
		fakeDep("present", ""),
		fakeDep("absent", ""),
	}
	statuses := deps.CheckAll(context.Background(), list)

	require.Len(t, statuses, 2)
	assert.True(t, statuses["present"].Available)
	assert.False(t, statuses["absent"].Available)

	missing := deps.Missing(list, statuses)
	require.Len(t, missing, 1)
	assert.Equal(t, "absent", missing[0].Name)
}

func TestRequiredIncludesGPGOnlyWhenSigning(t *testing.T) {
	unsigned := deps.Required(false)
	require.Len(t, unsigned, 1)
	assert.Equal(t, "aptly", unsigned[0].Name)

	signed := deps.Required(true)
	require.Len(t, signed, 2)
	assert.Equal(t, "gpg", signed[1].Name)
	assert.True(t, signed[1].Required)
}

func TestPreflightMissingAptly(t *testing.T) {
	isolatePath(t, t.TempDir())

	err := deps.Preflight(context.Background(), false)
	require.Error(t, err)

	var depErr *pkgerrors.DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "aptly", depErr.Dependency)
}

func TestPreflightWithSigning(t *testing.T) {
	dir := t.TempDir()
	installFake(t, dir, "aptly", "aptly version: 1.5.0")
	isolatePath(t, dir)

	// aptly alone is not enough once signing is requested.
	err := deps.Preflight(context.Background(), true)
	var depErr *pkgerrors.DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "gpg", depErr.Dependency)

	installFake(t, dir, "gpg", "gpg (GnuPG) 2.4.4")
	assert.NoError(t, deps.Preflight(context.Background(), true))
}

func TestShowMissingSummary(t *testing.T) {
	var buf bytes.Buffer
	deps.ShowMissingSummary(&buf, []deps.Dependency{deps.Aptly()})

	out := buf.String()
	assert.Contains(t, out, "aptly")
	assert.Contains(t, out, "apt-get install")

	buf.Reset()
	deps.ShowMissingSummary(&buf, nil)
	assert.Empty(t, buf.String())
}

func TestShowInstallInstructions(t *testing.T) {
	var buf bytes.Buffer
	deps.ShowInstallInstructions(&buf, deps.GPG())

	out := buf.String()
	assert.Contains(t, out, "GnuPG")
	assert.Contains(t, out, "https://gnupg.org/download/")
}
