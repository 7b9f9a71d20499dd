package extraction

import (
	"encoding/json"
	"fmt"

	"github.com/scribe/scribe/internal/schema"
)

// ApplyEdit returns a copy of rec with the value assigned at the dot path.
// The path is resolved against the record schema before any mutation and the
// value is validated against the addressed node's sub-schema, so a rejected
// edit leaves no partial writes and the input record is never touched. Array
// indices must address existing elements; adding or removing elements is
// done by assigning the enclosing array path.
func ApplyEdit(rec *schema.ClinicalExtraction, path string, value json.RawMessage) (*schema.ClinicalExtraction, error) {
	segments, err := schema.ParsePath(path)
	if err != nil {
		return nil, &EditError{Path: path, Reason: err.Error()}
	}
	desc, err := schema.ResolveDescriptor(segments)
	if err != nil {
		return nil, &EditError{Path: path, Reason: err.Error()}
	}

	var v interface{}
	if err := json.Unmarshal(value, &v); err != nil {
		return nil, &EditError{Path: path, Expected: desc.ShapeString(), Reason: "value is not valid JSON"}
	}
	normalized, ferrs := schema.NormalizeValue(desc, path, v)
	if len(ferrs) > 0 {
		return nil, &EditError{Path: path, Expected: desc.ShapeString(), Reason: schema.ValidationErrors(ferrs).Error()}
	}

	// Doc() deep-copies through a JSON round-trip, so mutating the copy
	// keeps the caller's record intact.
	doc, err := rec.Doc()
	if err != nil {
		return nil, fmt.Errorf("copy record: %w", err)
	}
	if err := setAtPath(doc, segments, normalized); err != nil {
		return nil, &EditError{Path: path, Expected: desc.ShapeString(), Reason: err.Error()}
	}

	// Re-normalize so containers materialized along the spine regain the
	// empty-array and enum-default invariants.
	renormalized, ferrs := schema.NormalizeValue(schema.Root(), "", doc)
	if len(ferrs) > 0 {
		return nil, fmt.Errorf("record invalid after edit: %w", schema.ValidationErrors(ferrs))
	}
	return schema.FromDoc(renormalized.(map[string]interface{}))
}

// setAtPath walks the document along the segments and assigns the value at
// the final one. Null intermediate objects are materialized; array indices
// must land inside the existing slice.
func setAtPath(doc map[string]interface{}, segments []schema.Segment, value interface{}) error {
	var cur interface{} = doc
	for _, seg := range segments[:len(segments)-1] {
		next, err := descend(cur, seg)
		if err != nil {
			return err
		}
		if next == nil {
			next = map[string]interface{}{}
			if err := assign(cur, seg, next); err != nil {
				return err
			}
		}
		cur = next
	}
	return assign(cur, segments[len(segments)-1], value)
}

func descend(cur interface{}, seg schema.Segment) (interface{}, error) {
	if seg.IsIndex {
		arr, ok := cur.([]interface{})
		if !ok {
			return nil, fmt.Errorf("segment %s indexes a non-array", seg)
		}
		if seg.Index >= len(arr) {
			return nil, fmt.Errorf("index %d out of range (length %d)", seg.Index, len(arr))
		}
		return arr[seg.Index], nil
	}
	m, ok := cur.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("segment %s addresses a non-object", seg)
	}
	return m[seg.Name], nil
}

func assign(cur interface{}, seg schema.Segment, value interface{}) error {
	if seg.IsIndex {
		arr, ok := cur.([]interface{})
		if !ok {
			return fmt.Errorf("segment %s indexes a non-array", seg)
		}
		if seg.Index >= len(arr) {
			return fmt.Errorf("index %d out of range (length %d)", seg.Index, len(arr))
		}
		arr[seg.Index] = value
		return nil
	}
	m, ok := cur.(map[string]interface{})
	if !ok {
		return fmt.Errorf("segment %s addresses a non-object", seg)
	}
	m[seg.Name] = value
	return nil
}
