package source_test

import (
	"testing"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/periplus/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPlaceNames(t *testing.T) {
	t.Run("skips header and blank lines", func(t *testing.T) {
		defer filet.CleanUp(t)
		input := filet.TmpFile(t, "", "city\nPrague\n\n  Vienna  \nNew York, USA\n")

		names, err := source.ReadPlaceNames(input.Name())

		require.NoError(t, err)
		assert.Equal(t, []string{"Prague", "Vienna", "New York, USA"}, names)
	})

	t.Run("header only", func(t *testing.T) {
		defer filet.CleanUp(t)
		input := filet.TmpFile(t, "", "city\n")

		names, err := source.ReadPlaceNames(input.Name())

		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("empty file", func(t *testing.T) {
		defer filet.CleanUp(t)
		input := filet.TmpFile(t, "", "")

		names, err := source.ReadPlaceNames(input.Name())

		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("missing file", func(t *testing.T) {
		names, err := source.ReadPlaceNames("does-not-exist.csv")

		require.Error(t, err)
		assert.Nil(t, names)
	})
}
