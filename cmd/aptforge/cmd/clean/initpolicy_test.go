package clean

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feelpp/aptforge/cmd/application"
	"github.com/feelpp/aptforge/pkg/retention"
)

func TestInitPolicyWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retention-policy.json")

	cmd := NewInitPolicyCommand(&application.Mock{})
	stdout, _, err := runCommand(t, cmd, "--output", path)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Created retention policy configuration: "+path)

	policy, err := retention.LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, retention.DefaultPolicy(), policy)
}

func TestInitPolicyRejectsUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "retention-policy.json")

	cmd := NewInitPolicyCommand(&application.Mock{})
	_, _, err := runCommand(t, cmd, "--output", path)
	require.Error(t, err)
}
