package segment

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

func encodeEnvelope(w io.Writer, env *treeEnvelope) error {
	return msgpack.NewEncoder(w).Encode(env)
}
