package connectjson

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swcstudio/fsl-continuum-sub003/internal/rpc"
)

func TestCodec(t *testing.T) {
	c := Codec{}
	require.Equal(t, "json", c.Name())

	data, err := c.Marshal(&rpc.RunEnsembleRequest{Task: "t", Backends: []string{"a", "b"}})
	require.NoError(t, err)

	var out rpc.RunEnsembleRequest
	require.NoError(t, c.Unmarshal(data, &out))
	require.Equal(t, "t", out.Task)
	require.Equal(t, []string{"a", "b"}, out.Backends)

	empty := rpc.RunEnsembleRequest{Task: "kept"}
	require.NoError(t, c.Unmarshal([]byte("  "), &empty))
	require.Equal(t, "kept", empty.Task)

	require.Error(t, c.Unmarshal([]byte("{"), &out))
}
