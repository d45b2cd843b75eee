package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shock-sim/shock-sim/sim/field"
)

// mustShock returns a default shock field for engine tests.
func mustShock(t *testing.T) *field.ObliqueShockField {
	t.Helper()
	shock, err := field.NewObliqueShockField(1, 0.5, 4, 1)
	require.NoError(t, err)
	return shock
}
