package badgermedium

import (
	"testing"

	"github.com/ValentinKolb/rKV/lib/medium"
	mediumtesting "github.com/ValentinKolb/rKV/lib/medium/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test(t *testing.T) {
	mediumtesting.RunMediumTests(t, "Badger", func(t *testing.T) func() medium.IMedium {
		origin, err := Open(InMemoryConfig())
		require.NoError(t, err)
		t.Cleanup(func() { _ = origin.Close() })

		return func() medium.IMedium {
			c, err := origin.NewContext()
			require.NoError(t, err)
			t.Cleanup(func() { _ = c.Close() })
			return c
		}
	})
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	origin, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	c, err := origin.NewContext()
	require.NoError(t, err)
	require.NoError(t, c.SetItem("cw-user_code", `"barista"`))
	require.NoError(t, c.Close())
	require.NoError(t, origin.Close())

	origin, err = Open(DefaultConfig(dir))
	require.NoError(t, err)
	defer origin.Close()
	c, err = origin.NewContext()
	require.NoError(t, err)
	defer c.Close()

	value, found, err := c.GetItem("cw-user_code")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `"barista"`, value)
}

func TestDecodeRejectsShortValues(t *testing.T) {
	_, _, _, err := decode([]byte("v123"))
	assert.Error(t, err)
}
