package rowid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidRowIDIsZeroValue(t *testing.T) {
	var id RowID
	assert.Equal(t, InvalidRowID, id)
	assert.False(t, id.IsValid())
	assert.Equal(t, Invalid, id.Kind())
}

func TestNewRealRowID(t *testing.T) {
	id := NewReal(42)
	assert.True(t, id.IsValid())
	assert.False(t, id.IsGenerated())
	assert.Equal(t, int64(42), id.Value())
}

func TestGeneratorProducesIncreasingIDs(t *testing.T) {
	g := NewGenerator()
	a := g.Next()
	b := g.Next()

	assert.True(t, a.IsGenerated())
	assert.True(t, b.IsGenerated())
	assert.NotEqual(t, a, b)
	assert.Greater(t, b.Value(), a.Value())
}

func TestGeneratorNextPanicsOnReentry(t *testing.T) {
	g := NewGenerator()
	assert.Panics(t, func() {
		_ = func() RowID {
			g.entering = true
			defer func() { g.entering = false }()
			return g.Next()
		}()
	})
}

func TestRowIDString(t *testing.T) {
	assert.Equal(t, "RowID(invalid)", InvalidRowID.String())
	assert.Contains(t, NewReal(7).String(), "Real")
}
