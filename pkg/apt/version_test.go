package apt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/feelpp/aptforge/pkg/apt"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{name: "equal", a: "5.8.0", b: "5.8.0", want: 0},
		{name: "missing revision equals zero revision", a: "1.0", b: "1.0-0", want: 0},
		{name: "missing epoch equals zero epoch", a: "1.0", b: "0:1.0", want: 0},
		{name: "patch ordering", a: "5.8.0", b: "5.8.1", want: -1},
		{name: "numeric spans compare as numbers", a: "1.9", b: "1.10", want: -1},
		{name: "leading zeros ignored", a: "1.09", b: "1.9", want: 0},
		{name: "revision ordering", a: "5.8.0-1", b: "5.8.0-2", want: -1},
		{name: "epoch dominates upstream", a: "1:1.0", b: "2.0", want: 1},
		{name: "tilde sorts before release", a: "1.0~rc1", b: "1.0", want: -1},
		{name: "tilde chains sort lowest first", a: "1.0~beta1~svn1245", b: "1.0~beta1", want: -1},
		{name: "plus suffix sorts after release", a: "1.0", b: "1.0+git20260101", want: -1},
		{name: "letters sort before other characters", a: "1.0a", b: "1.0+", want: -1},
		{name: "distro suffix after bare revision", a: "2.0-1", b: "2.0-1ubuntu1", want: -1},
		{name: "revision splits at last hyphen", a: "1.0-2-1", b: "1.0-2-2", want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apt.CompareVersions(tt.a, tt.b))
			assert.Equal(t, -tt.want, apt.CompareVersions(tt.b, tt.a), "comparison is not antisymmetric")
		})
	}
}

func TestSortVersions(t *testing.T) {
	versions := []string{"5.8.1", "5.8.0~rc1", "1:0.1", "5.8.0", "5.8.0-2"}
	apt.SortVersions(versions)
	assert.Equal(t, []string{"5.8.0~rc1", "5.8.0", "5.8.0-2", "5.8.1", "1:0.1"}, versions)
}

func TestSortVersionsStable(t *testing.T) {
	// Equal versions keep their input order.
	versions := []string{"1.0-0", "1.0", "0.9"}
	apt.SortVersions(versions)
	assert.Equal(t, []string{"0.9", "1.0-0", "1.0"}, versions)
}

func TestIsPrerelease(t *testing.T) {
	pre := []string{
		"1.0~rc1",
		"5.8.0~alpha2",
		"1.0~beta1",
		"2.0~pre3",
		"1.0~dev",
		"1.0+git20260101",
		"3.0rc1",
		"1.2~git20250101",
	}
	for _, v := range pre {
		assert.True(t, apt.IsPrerelease(v), "%s should read as a pre-release", v)
	}

	release := []string{"5.8.0", "5.8.0-2", "1:2.0-1ubuntu3", "1.0+feelpp1"}
	for _, v := range release {
		assert.False(t, apt.IsPrerelease(v), "%s should not read as a pre-release", v)
	}
}
