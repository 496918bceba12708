package apt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feelpp/aptforge/pkg/apt"
	pkgerrors "github.com/feelpp/aptforge/pkg/errors"
)

const packagesFixture = `Package: mmg
Version: 5.8.0
Architecture: amd64
Maintainer: Feel++ Team <contact@feelpp.org>
Installed-Size: 12000
Filename: pool/mmg/m/mmg/mmg_5.8.0_amd64.deb
Size: 4096123
SHA256: 93cb82c3f1b5fbbd1bf02b7016f252372a2e0e1a1f0b39c6fa3a2ed111cbd1d8
Description: Robust mesh adaptation library
 Long description line one.
 Long description line two.

Package: mmg
Version: 5.8.1
Architecture: amd64
Filename: pool/mmg/m/mmg/mmg_5.8.1_amd64.deb
Size: 4097001
SHA256: 50c8a6ba3d3b9fb1edb654e4a92b8f90ed1d8c302b1e8ae6e20a6aa257d24c6b
`

func TestParsePackages(t *testing.T) {
	artifacts, err := apt.ParsePackages([]byte(packagesFixture))
	require.NoError(t, err)
	require.Len(t, artifacts, 2)

	first := artifacts[0]
	assert.Equal(t, "mmg", first.Name)
	assert.Equal(t, "5.8.0", first.Version)
	assert.Equal(t, "amd64", first.Architecture)
	assert.Equal(t, "pool/mmg/m/mmg/mmg_5.8.0_amd64.deb", first.Filename)
	assert.Equal(t, first.Filename, first.PoolPath)
	assert.Equal(t, int64(4096123), first.Size)
	assert.Equal(t, "93cb82c3f1b5fbbd1bf02b7016f252372a2e0e1a1f0b39c6fa3a2ed111cbd1d8", first.SHA256)

	assert.Equal(t, "5.8.1", artifacts[1].Version)
}

func TestParsePackagesTrailingStanza(t *testing.T) {
	// The final stanza may end at EOF without a separating blank line.
	input := "Package: mmg\nVersion: 1.0\nArchitecture: all\nFilename: pool/mmg/m/mmg/mmg_1.0_all.deb"
	artifacts, err := apt.ParsePackages([]byte(input))
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "mmg", artifacts[0].Name)
}

func TestParsePackagesEmpty(t *testing.T) {
	artifacts, err := apt.ParsePackages(nil)
	require.NoError(t, err)
	assert.Empty(t, artifacts)

	artifacts, err = apt.ParsePackages([]byte("\n\n\n"))
	require.NoError(t, err)
	assert.Empty(t, artifacts)
}

func TestParsePackagesMissingRequiredField(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		missing string
	}{
		{
			name:    "no filename",
			input:   "Package: mmg\nVersion: 1.0\nArchitecture: amd64\n",
			missing: "Filename",
		},
		{
			name:    "no version",
			input:   "Package: mmg\nArchitecture: amd64\nFilename: pool/x.deb\n",
			missing: "Version",
		},
		{
			name:    "no architecture",
			input:   "Package: mmg\nVersion: 1.0\nFilename: pool/x.deb\n",
			missing: "Architecture",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := apt.ParsePackages([]byte(tt.input))
			require.Error(t, err)

			var parseErr *pkgerrors.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, "packages", parseErr.Format)
			assert.Contains(t, parseErr.Message, tt.missing)
		})
	}
}

func TestParsePackagesStructuralDamage(t *testing.T) {
	_, err := apt.ParsePackages([]byte("Package: mmg\ntruncated garbage\n"))
	require.Error(t, err)

	_, err = apt.ParsePackages([]byte(" orphan continuation\n"))
	require.Error(t, err)

	_, err = apt.ParsePackages([]byte("Package: mmg\nVersion: 1.0\nArchitecture: all\nFilename: pool/x.deb\nSize: twelve\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Size")
}
