package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a dot path. Numeric segments address array elements.
type Segment struct {
	Name    string
	Index   int
	IsIndex bool
}

func (s Segment) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Name
}

// ParsePath splits a dot-separated address like "allergyHistory.food.0.severity"
// into segments. Purely syntactic; the segments still have to resolve against
// the descriptor tree.
func ParsePath(path string) ([]Segment, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("empty path")
	}
	parts := strings.Split(path, ".")
	segments := make([]Segment, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("path %q has an empty segment", path)
		}
		if idx, err := strconv.Atoi(part); err == nil {
			if idx < 0 {
				return nil, fmt.Errorf("path %q has a negative index", path)
			}
			segments = append(segments, Segment{Index: idx, IsIndex: true})
			continue
		}
		segments = append(segments, Segment{Name: part})
	}
	return segments, nil
}

// ResolveDescriptor walks the record schema along the parsed segments and
// returns the descriptor of the addressed node. Index segments must land on
// array nodes and name segments on declared object members; anything else
// fails with the offending prefix in the error.
func ResolveDescriptor(segments []Segment) (*Field, error) {
	node := Root()
	for i, seg := range segments {
		prefix := formatSegments(segments[:i+1])
		if seg.IsIndex {
			if node.Kind != KindArray {
				return nil, fmt.Errorf("path %s: index into non-array (%s)", prefix, node.Kind)
			}
			node = node.Elem
			continue
		}
		child, ok := node.lookup(seg.Name)
		if !ok {
			if node.Kind != KindObject {
				return nil, fmt.Errorf("path %s: member of non-object (%s)", prefix, node.Kind)
			}
			return nil, fmt.Errorf("path %s: no such field", prefix)
		}
		node = child
	}
	return node, nil
}

func formatSegments(segments []Segment) string {
	parts := make([]string, len(segments))
	for i, seg := range segments {
		parts[i] = seg.String()
	}
	return strings.Join(parts, ".")
}
