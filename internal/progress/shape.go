package progress

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type (
	Kind    string
	Variant string
)

//go:embed shapes.yaml
var defaultShapesYAML []byte

var ErrUnknownVariant = errors.New("progress: unknown tree variant")

// Shape describes one tree variant: its kinds ordered root to leaf and the
// interior kind whose done flag is materialized.
type Shape struct {
	Variant      Variant `yaml:"variant"`
	Kinds        []Kind  `yaml:"kinds"`
	Materialized Kind    `yaml:"materialized"`
}

func (s Shape) Validate() error {
	if strings.TrimSpace(string(s.Variant)) == "" {
		return errors.New("shape: missing variant")
	}
	if len(s.Kinds) < 2 {
		return fmt.Errorf("shape %q: need at least 2 kinds, got %d", s.Variant, len(s.Kinds))
	}
	seen := make(map[Kind]struct{}, len(s.Kinds))
	for _, k := range s.Kinds {
		if strings.TrimSpace(string(k)) == "" {
			return fmt.Errorf("shape %q: empty kind", s.Variant)
		}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("shape %q: duplicate kind %q", s.Variant, k)
		}
		seen[k] = struct{}{}
	}
	if !s.Has(s.Materialized) {
		return fmt.Errorf("shape %q: materialized kind %q not in kinds", s.Variant, s.Materialized)
	}
	if s.IsLeaf(s.Materialized) {
		return fmt.Errorf("shape %q: materialized kind %q must be interior", s.Variant, s.Materialized)
	}
	return nil
}

func (s Shape) Root() Kind { return s.Kinds[0] }

func (s Shape) Leaf() Kind { return s.Kinds[len(s.Kinds)-1] }

func (s Shape) IsLeaf(k Kind) bool { return len(s.Kinds) > 0 && k == s.Leaf() }

func (s Shape) Has(k Kind) bool { return s.Depth(k) >= 0 }

// Depth returns the 0-based position of k (root = 0), or -1.
func (s Shape) Depth(k Kind) int {
	for i, kk := range s.Kinds {
		if kk == k {
			return i
		}
	}
	return -1
}

// ChildKind returns the kind directly below k.
func (s Shape) ChildKind(k Kind) (Kind, bool) {
	d := s.Depth(k)
	if d < 0 || d >= len(s.Kinds)-1 {
		return "", false
	}
	return s.Kinds[d+1], true
}

// Shapes is the set of known tree variants.
type Shapes struct {
	byVariant map[Variant]Shape
	order     []Variant
}

type shapesDoc struct {
	Shapes []Shape `yaml:"shapes"`
}

// ParseShapes decodes and validates a shapes document.
func ParseShapes(data []byte) (*Shapes, error) {
	var doc shapesDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse shapes: %w", err)
	}
	return NewShapes(doc.Shapes...)
}

func NewShapes(shapes ...Shape) (*Shapes, error) {
	if len(shapes) == 0 {
		return nil, errors.New("shapes: none defined")
	}
	out := &Shapes{byVariant: make(map[Variant]Shape, len(shapes))}
	for _, s := range shapes {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := out.byVariant[s.Variant]; dup {
			return nil, fmt.Errorf("shapes: duplicate variant %q", s.Variant)
		}
		out.byVariant[s.Variant] = s
		out.order = append(out.order, s.Variant)
	}
	return out, nil
}

// DefaultShapes returns the built-in lesson and trainer shapes.
func DefaultShapes() *Shapes {
	s, err := ParseShapes(defaultShapesYAML)
	if err != nil {
		panic(err)
	}
	return s
}

// LoadShapes reads path when set, otherwise falls back to the built-in shapes.
func LoadShapes(path string) (*Shapes, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultShapes(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shapes file: %w", err)
	}
	return ParseShapes(data)
}

func (s *Shapes) Get(v Variant) (Shape, error) {
	if s == nil {
		return Shape{}, ErrUnknownVariant
	}
	sh, ok := s.byVariant[v]
	if !ok {
		return Shape{}, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
	return sh, nil
}

func (s *Shapes) Variants() []Variant {
	if s == nil {
		return nil
	}
	return append([]Variant(nil), s.order...)
}

// IsLeaf reports whether n is a leaf of its variant's shape.
// Nodes of unknown variants are never leaves.
func (s *Shapes) IsLeaf(n *Node) bool {
	if n == nil {
		return false
	}
	sh, err := s.Get(n.Variant)
	if err != nil {
		return false
	}
	return sh.IsLeaf(n.Kind)
}
