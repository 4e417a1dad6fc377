package segment

import (
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when the tree encoding changes
const treeSchemaVersion uint16 = 1

// ErrSchema reports a tree dump written by an incompatible version.
var ErrSchema = errors.New("segment: unsupported tree schema")

// treeEnvelope wraps an encoded tree with its schema version.
type treeEnvelope struct {
	Schema uint16   `msgpack:"v"`
	Root   *Segment `msgpack:"root"`
}

// Encode writes the tree rooted at root in msgpack form.
func Encode(w io.Writer, root *Segment) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(&treeEnvelope{Schema: treeSchemaVersion, Root: root})
}

// Decode reads a tree previously written by Encode and validates it.
func Decode(r io.Reader) (*Segment, error) {
	var env treeEnvelope
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&env); err != nil {
		return nil, err
	}
	if env.Schema != treeSchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrSchema, env.Schema)
	}
	if env.Root == nil {
		return nil, errors.New("segment: empty tree")
	}
	if err := Validate(env.Root); err != nil {
		return nil, err
	}
	return env.Root, nil
}

// Validate checks the structural invariants of a tree.
func Validate(root *Segment) error {
	var err error
	root.Walk(func(s *Segment) bool {
		if err != nil {
			return false
		}
		switch {
		case s.IsRaw() && len(s.Children) > 0:
			err = fmt.Errorf("segment: leaf %s has children", s)
		case !s.IsRaw() && s.Raw != "":
			err = fmt.Errorf("segment: node %s carries raw text", s)
		case s.Kind == KindIndent && s.IndentVal != 1:
			err = fmt.Errorf("segment: indent marker with value %d", s.IndentVal)
		case s.Kind == KindDedent && s.IndentVal != -1:
			err = fmt.Errorf("segment: dedent marker with value %d", s.IndentVal)
		case s.IsIndent() && s.Raw != "":
			err = fmt.Errorf("segment: indent marker %s is not zero-width", s)
		case s.Kind > KindEndOfFile:
			err = fmt.Errorf("segment: unknown kind %d", s.Kind)
		}
		return err == nil
	})
	return err
}
