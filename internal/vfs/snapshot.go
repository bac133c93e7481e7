package vfs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SnapshotNode is the serialisable form of a tree node. The shape
// round-trips losslessly through ToSnapshot/FromSnapshot and is shared
// with the host's fixture documents.
type SnapshotNode struct {
	Name        string                   `json:"name" yaml:"name"`
	Type        Kind                     `json:"type" yaml:"type"`
	Content     string                   `json:"content,omitempty" yaml:"content,omitempty"`
	Target      string                   `json:"target,omitempty" yaml:"target,omitempty"`
	Permissions string                   `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	Children    map[string]*SnapshotNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// snapshotSchema validates snapshot documents before they are grafted
// into a live tree. Kept alongside the struct so the two cannot drift.
const snapshotSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "proctord/fs-snapshot-v1.schema.json",
  "$defs": {
    "node": {
      "type": "object",
      "required": ["name", "type"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "type": {"enum": ["file", "directory", "symlink"]},
        "content": {"type": "string"},
        "target": {"type": "string"},
        "permissions": {"type": "string"},
        "children": {
          "type": "object",
          "additionalProperties": {"$ref": "#/$defs/node"}
        }
      },
      "additionalProperties": false
    }
  },
  "$ref": "#/$defs/node"
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func snapshotValidator() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("fs-snapshot-v1.schema.json",
			bytes.NewReader([]byte(snapshotSchema))); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("fs-snapshot-v1.schema.json")
	})
	return compiledSchema, schemaErr
}

// ValidateSnapshot checks a JSON snapshot document against the schema.
func ValidateSnapshot(data []byte) error {
	schema, err := snapshotValidator()
	if err != nil {
		return fmt.Errorf("vfs: compile snapshot schema: %w", err)
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("vfs: parse snapshot: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("vfs: invalid snapshot: %w", err)
	}
	return nil
}

// ToSnapshot captures the whole tree.
func (fs *FS) ToSnapshot() *SnapshotNode {
	return nodeToSnapshot(fs.root)
}

func nodeToSnapshot(n *Node) *SnapshotNode {
	s := &SnapshotNode{
		Name:        n.Name,
		Type:        n.Kind,
		Content:     n.Content,
		Target:      n.Target,
		Permissions: n.Permissions,
	}
	if n.IsDir() {
		s.Children = make(map[string]*SnapshotNode, len(n.children))
		for name, child := range n.children {
			s.Children[name] = nodeToSnapshot(child)
		}
	}
	return s
}

// FromSnapshot rebuilds a filesystem from a snapshot tree.
func FromSnapshot(snap *SnapshotNode) (*FS, error) {
	if snap == nil {
		return nil, fmt.Errorf("vfs: nil snapshot")
	}
	root, err := snapshotToNode(snap)
	if err != nil {
		return nil, err
	}
	if !root.IsDir() {
		return nil, fmt.Errorf("vfs: snapshot root %q: %w", snap.Name, ErrNotDirectory)
	}
	root.Name = "/"
	return &FS{root: root}, nil
}

// FromSnapshotJSON validates and decodes a JSON snapshot document.
func FromSnapshotJSON(data []byte) (*FS, error) {
	if err := ValidateSnapshot(data); err != nil {
		return nil, err
	}
	var snap SnapshotNode
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("vfs: decode snapshot: %w", err)
	}
	return FromSnapshot(&snap)
}

// MarshalJSON on FS emits the snapshot document.
func (fs *FS) MarshalJSON() ([]byte, error) {
	return json.Marshal(fs.ToSnapshot())
}

func snapshotToNode(s *SnapshotNode) (*Node, error) {
	switch s.Type {
	case KindFile, KindDirectory, KindSymlink:
	default:
		return nil, fmt.Errorf("vfs: snapshot node %q: unknown type %q", s.Name, s.Type)
	}
	n := &Node{
		Name:        s.Name,
		Kind:        s.Type,
		Content:     s.Content,
		Target:      s.Target,
		Permissions: s.Permissions,
		Modified:    time.Now(),
	}
	if n.Permissions == "" {
		switch n.Kind {
		case KindDirectory:
			n.Permissions = "drwxr-xr-x"
		case KindSymlink:
			n.Permissions = "lrwxrwxrwx"
		default:
			n.Permissions = "-rw-r--r--"
		}
	}
	if s.Type == KindDirectory {
		n.children = make(map[string]*Node, len(s.Children))
		for name, child := range s.Children {
			childNode, err := snapshotToNode(child)
			if err != nil {
				return nil, err
			}
			// The map key wins over an inconsistent inner name.
			childNode.Name = name
			n.children[name] = childNode
		}
	}
	return n, nil
}
