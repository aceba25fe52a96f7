package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFullIncludesInjectedValues(t *testing.T) {
	old := Commit
	Commit = "abc123"
	t.Cleanup(func() { Commit = old })

	full := Full()
	require.True(t, strings.HasPrefix(full, Version+" "))
	require.Contains(t, full, "commit:abc123")
}
