package pkgver

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParse covers the tag shapes found in the wild.
func TestParse(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"1.2.3":           "1.2.3",
		"v1.2.3":          "1.2.3",
		"2.0":             "2.0.0",
		"7":               "7.0.0",
		"release-1.4.2":   "1.4.2",
		"pkg_0.9":         "0.9.0",
		" 1.2.3\n":        "1.2.3",
		"1.0.0-beta.1":    "1.0.0-beta.1",
		"1.0rc1":          "1.0.0-rc1",
		"1.0.0_rc_1":      "1.0.0-rc-1",
		"1.0.0.Final":     "1.0.0",
		"1.2.3.4":         "1.2.3+4",
		"1.2.3+build.5":   "1.2.3+build.5",
		"1.0.0-alpha.007": "1.0.0-alpha.7",
		"2024.01.05":      "2024.1.5",
		"1.0.post1":       "1.0.0+post1",
		"2.1-post.2":      "2.1.0+post.2",
		"1.0.0.post":      "1.0.0+post",
		"1.0postgres":     "1.0.0-postgres",
	}

	for input, expected := range cases {
		v, err := Parse(input)
		require.NoError(t, err, input)
		require.Equal(t, expected, v.String(), input)
		require.Equal(t, input, v.Original(), input)
	}
}

// TestParse_Invalid ensures text without a numeric major is rejected.
func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "latest", "v", "nightly-build", "99999999999999999999999"} {
		_, err := Parse(input)
		require.ErrorIs(t, err, ErrParse, input)
	}
}

// TestCompare checks numeric, pre-release and metadata ordering rules.
func TestCompare(t *testing.T) {
	t.Parallel()

	require.True(t, MustParse("1.2.0").LessThan(MustParse("1.10.0")))
	require.True(t, MustParse("1.0.0-rc.1").LessThan(MustParse("1.0.0")))
	require.True(t, MustParse("1.0.0-alpha").LessThan(MustParse("1.0.0-alpha.1")))
	require.True(t, MustParse("1.0.0-alpha.2").LessThan(MustParse("1.0.0-alpha.10")))
	require.True(t, MustParse("1.0.0-alpha.beta").LessThan(MustParse("1.0.0-beta")))
	require.True(t, MustParse("0.1.1").GreaterThan(MustParse("0.1.0")))
	require.True(t, MustParse("v2.0.0").Equal(MustParse("2.0")))
	require.True(t, MustParse("1.2.3+a").Equal(MustParse("1.2.3+b")))

	versions := []Version{MustParse("1.10"), MustParse("v1.2"), MustParse("1.2.0-rc1"), MustParse("0.9")}
	slices.SortFunc(versions, Version.Compare)

	originals := make([]string, 0, len(versions))
	for _, v := range versions {
		originals = append(originals, v.Original())
	}

	require.Equal(t, []string{"0.9", "1.2.0-rc1", "v1.2", "1.10"}, originals)
}

// TestCleanOriginal verifies that only a "v" directly followed by a digit is stripped.
func TestCleanOriginal(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"v2.0.0":   "2.0.0",
		"2.0.0":    "2.0.0",
		"vv1.0":    "vv1.0",
		"version1": "version1",
		"v1":       "1",
		"V1.0":     "V1.0",
	}

	for input, expected := range cases {
		v, err := Parse(input)
		require.NoError(t, err, input)
		require.Equal(t, expected, v.CleanOriginal(), input)
	}
}

// TestIsPrerelease distinguishes releases from pre-releases.
func TestIsPrerelease(t *testing.T) {
	t.Parallel()

	require.True(t, MustParse("3.0.0b1").IsPrerelease())
	require.True(t, MustParse("1.0-rc.2").IsPrerelease())
	require.False(t, MustParse("3.0.1").IsPrerelease())
	require.False(t, MustParse("1.2.3.4").IsPrerelease())
	require.False(t, MustParse("1.0.post1").IsPrerelease())
	require.False(t, MustParse("1.0.post1").LessThan(MustParse("1.0")))
}

// TestZeroValue makes sure an unparsed Version is usable and orders first.
func TestZeroValue(t *testing.T) {
	t.Parallel()

	var v Version

	require.True(t, v.IsZero())
	require.Equal(t, "0.0.0", v.String())
	require.True(t, v.LessThan(MustParse("0.0.1")))
}
