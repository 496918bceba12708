package apt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feelpp/aptforge/pkg/apt"
	pkgerrors "github.com/feelpp/aptforge/pkg/errors"
)

func TestNormalizeComponent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already normalized", input: "mmg", want: "mmg"},
		{name: "case folded", input: "ParMmg", want: "parmmg"},
		{name: "slash and dots collapse", input: "parmmg/5.8.1", want: "parmmg-5-8-1"},
		{name: "underscores become hyphens", input: "feelpp_toolboxes", want: "feelpp-toolboxes"},
		{name: "runs collapse to one hyphen", input: "a//b..c", want: "a-b-c"},
		{name: "leading and trailing junk trimmed", input: "--mmg--", want: "mmg"},
		{name: "plus signs dropped", input: "Feel++", want: "feel"},
		{name: "spaces", input: "My Project", want: "my-project"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := apt.NormalizeComponent(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeComponentIdempotent(t *testing.T) {
	inputs := []string{"Feel++/Toolboxes", "mmg 5.8", "__a__b__", "stable"}

	for _, input := range inputs {
		first, err := apt.NormalizeComponent(input)
		require.NoError(t, err)
		second, err := apt.NormalizeComponent(first)
		require.NoError(t, err)
		assert.Equal(t, first, second, "normalizing %q twice changed the result", input)
		assert.True(t, apt.ValidToken(first), "normalized %q is not a valid token", input)
	}
}

func TestNormalizeComponentRejectsEmptyResults(t *testing.T) {
	for _, input := range []string{"", "---", "!!!", "   ", "/."} {
		_, err := apt.NormalizeComponent(input)
		require.Error(t, err, "input %q should be rejected", input)
		assert.True(t, pkgerrors.IsInvalidName(err))
		assert.True(t, pkgerrors.IsValidationError(err))
	}
}

func TestValidToken(t *testing.T) {
	valid := []string{"mmg", "parmmg-5-8-1", "pr2048", "a"}
	for _, s := range valid {
		assert.True(t, apt.ValidToken(s), "%q should be a valid token", s)
	}

	invalid := []string{"", "-mmg", "mmg-", "a--b", "MMG", "feel++", "a b"}
	for _, s := range invalid {
		assert.False(t, apt.ValidToken(s), "%q should not be a valid token", s)
	}
}

func TestValidateChannel(t *testing.T) {
	assert.NoError(t, apt.ValidateChannel("stable"))
	assert.NoError(t, apt.ValidateChannel("testing"))
	assert.NoError(t, apt.ValidateChannel("pr1234"))

	err := apt.ValidateChannel("Stable")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsInvalidName(err))

	var nameErr *pkgerrors.InvalidNameError
	require.ErrorAs(t, err, &nameErr)
	assert.Equal(t, "channel", nameErr.Kind)
	assert.Equal(t, "Stable", nameErr.Input)
}
