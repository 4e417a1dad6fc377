package driver

import (
	"bytes"
	"crypto/sha256"
	"maps"
	"slices"

	"github.com/vmihailenco/msgpack/v5"

	"sqlreflow/internal/reflow"
	"sqlreflow/internal/version"
)

// Digest is a SHA-256 cache key.
type Digest [sha256.Size]byte

type namedBlockConfig struct {
	Name   string
	Config reflow.BlockConfig
}

// digestForm is the ordered shape of a reflow.Config; msgpack only sorts
// keys of a few map types, so Types becomes a slice sorted by name.
type digestForm struct {
	IndentUnit        string
	TabSpaceSize      int
	MaxLineLength     int
	SkipIndentationIn []string
	Types             []namedBlockConfig
}

// configDigest fingerprints a layout configuration. Equal configurations
// hash equally.
func configDigest(cfg *reflow.Config) (Digest, error) {
	form := digestForm{
		IndentUnit:        cfg.IndentUnit,
		TabSpaceSize:      cfg.TabSpaceSize,
		MaxLineLength:     cfg.MaxLineLength,
		SkipIndentationIn: cfg.SkipIndentationIn,
	}
	for _, name := range slices.Sorted(maps.Keys(cfg.Types)) {
		form.Types = append(form.Types, namedBlockConfig{Name: name, Config: cfg.Types[name]})
	}
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(&form); err != nil {
		return Digest{}, err
	}
	return sha256.Sum256(buf.Bytes()), nil
}

// combineDigest: H(version || config || content || rules).
func combineDigest(cfg Digest, content []byte, rules []byte) Digest {
	h := sha256.New()
	_, _ = h.Write([]byte(version.Version))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(cfg[:])
	_, _ = h.Write(content)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(rules)
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
