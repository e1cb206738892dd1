package guid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lost-server/internal/pkg/guid"
)

func TestString_CompactForm(t *testing.T) {
	g := guid.New()

	s := g.String()
	assert.Len(t, s, 22)
	assert.NotContains(t, s, "=")
	assert.NotContains(t, s, "-")

	parsed, err := guid.Parse(s)
	require.NoError(t, err)
	assert.Equal(t, g, parsed)
}

func TestParse_CanonicalForm(t *testing.T) {
	g := guid.New()

	parsed, err := guid.Parse(g.Canonical())
	require.NoError(t, err)
	assert.Equal(t, g, parsed)
	assert.Equal(t, g.String(), parsed.String())
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"", "not-a-guid", "AAAAAAAAAAAAAAAAAAAAA!"} {
		_, err := guid.Parse(s)
		assert.Error(t, err, s)
	}
}

func TestScan(t *testing.T) {
	g := guid.New()

	var fromString guid.GUID
	require.NoError(t, fromString.Scan(g.Canonical()))
	assert.Equal(t, g, fromString)

	var fromBytes guid.GUID
	require.NoError(t, fromBytes.Scan([]byte(g.Canonical())))
	assert.Equal(t, g, fromBytes)

	var fromNil guid.GUID
	require.NoError(t, fromNil.Scan(nil))
	assert.True(t, fromNil.IsZero())
}

func TestValue(t *testing.T) {
	g := guid.New()
	v, err := g.Value()
	require.NoError(t, err)
	assert.Equal(t, g.Canonical(), v)

	v, err = guid.GUID{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
