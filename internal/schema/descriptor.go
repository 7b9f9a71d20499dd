package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind discriminates the shape variants a field descriptor can take.
type Kind int

const (
	KindString Kind = iota
	KindEnum
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindEnum:
		return "enum"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Field describes one node of the record schema. Exactly the members relevant
// to its Kind are set: Enum/Default for enums, Fields for objects, Elem for
// arrays. Required marks scalars/enums that must be present and non-null;
// arrays are never null regardless. NeverNull marks objects that normalize
// absence to an empty object instead of null.
type Field struct {
	Kind      Kind
	Required  bool
	NeverNull bool
	Enum      []string
	Default   string // enum default when the key is absent ("" means none)
	Fields    []ObjectField
	Elem      *Field
}

// ObjectField pairs a JSON key with its descriptor. Order is preserved so
// rendered schemas stay stable.
type ObjectField struct {
	Name  string
	Field *Field
}

func str() *Field                { return &Field{Kind: KindString} }
func reqStr() *Field             { return &Field{Kind: KindString, Required: true} }
func enum(vals ...string) *Field { return &Field{Kind: KindEnum, Enum: vals} }

// enumD is an enum that falls back to def when the key is absent or null.
func enumD(def string, vals ...string) *Field {
	return &Field{Kind: KindEnum, Enum: vals, Default: def}
}

// reqEnum is an enum that must be present with no default fallback.
func reqEnum(vals ...string) *Field {
	return &Field{Kind: KindEnum, Enum: vals, Required: true}
}

func arr(elem *Field) *Field { return &Field{Kind: KindArray, Elem: elem} }

func obj(fields ...ObjectField) *Field {
	return &Field{Kind: KindObject, Fields: fields}
}

func f(name string, field *Field) ObjectField {
	return ObjectField{Name: name, Field: field}
}

func neverNull(field *Field) *Field {
	field.NeverNull = true
	return field
}

func strArr() *Field { return arr(reqStr()) }

var (
	foodDrugItem = obj(
		f("allergen", reqStr()),
		f("reaction", str()),
		f("dateOrAge", str()),
		f("treatmentUsed", str()),
		f("severity", enum(SeverityMild, SeverityModerate, SeveritySevere, SeverityUnknown)),
		f("timing", enum("immediate", "delayed", "unknown")),
		f("certainty", enumD(CertaintyUnclear, CertaintyConfirmed, CertaintyReported, CertaintyUnclear)),
	)

	environmentalItem = obj(
		f("allergen", reqStr()),
		f("reaction", str()),
		f("seasonality", str()),
		f("certainty", enumD(CertaintyUnclear, CertaintyConfirmed, CertaintyReported, CertaintyUnclear)),
	)

	// Severity stays free text in these two categories so narrative grades
	// like "anaphylaxis" survive extraction verbatim.
	otherAllergyItem = obj(
		f("allergen", reqStr()),
		f("reaction", str()),
		f("severity", str()),
		f("certainty", enumD(CertaintyUnclear, CertaintyConfirmed, CertaintyReported, CertaintyUnclear)),
	)

	yesNoUnknown = enumD("unknown", "yes", "no", "unknown")

	root = obj(
		f("patientAlias", str()),
		f("visitContext", obj(
			f("date", str()),
			f("setting", enum(SettingSelf, SettingClinic, SettingTelevisit)),
		)),
		f("chiefComplaint", str()),
		f("hpi", obj(
			f("narrative", str()),
			f("onset", str()),
			f("duration", str()),
			f("course", str()),
			f("triggers", strArr()),
			f("relievingFactors", strArr()),
			f("associatedSymptoms", strArr()),
			f("priorTreatments", strArr()),
		)),
		f("allergyHistory", obj(
			f("food", arr(foodDrugItem)),
			f("drug", arr(foodDrugItem)),
			f("environmental", arr(environmentalItem)),
			f("stingingInsects", arr(otherAllergyItem)),
			f("latexOther", arr(otherAllergyItem)),
		)),
		f("atopicComorbidities", obj(
			f("asthma", yesNoUnknown),
			f("eczema", yesNoUnknown),
			f("chronicRhinitis", yesNoUnknown),
			f("sinusitis", yesNoUnknown),
			f("urticariaAngioedema", yesNoUnknown),
		)),
		f("medications", arr(obj(
			f("name", reqStr()),
			f("dose", str()),
			f("frequency", str()),
			f("indication", str()),
			f("response", str()),
			f("adverseEffects", str()),
		))),
		f("pmh", strArr()),
		f("psh", strArr()),
		f("fh", strArr()),
		f("sh", strArr()),
		f("ros", neverNull(obj(
			f("positives", strArr()),
			f("negatives", strArr()),
		))),
		f("exam", strArr()),
		f("testsAndLabs", obj(
			f("allergyTesting", arr(obj(
				f("type", reqEnum("SPT", "sIgE", "component", "patch", "challenge", "other")),
				f("date", str()),
				f("keyFindings", str()),
				f("allergensPositive", strArr()),
				f("allergensNegative", strArr()),
				f("confidence", enumD("low", "high", "medium", "low")),
			))),
			f("labs", arr(obj(
				f("name", reqStr()),
				f("value", str()),
				f("date", str()),
				f("interpretation", str()),
			))),
			f("imagingOrOther", arr(obj(
				f("study", reqStr()),
				f("findings", str()),
				f("date", str()),
			))),
		)),
		f("assessmentCandidates", arr(obj(
			f("problem", reqStr()),
			f("supportingEvidence", strArr()),
			f("confidence", enumD("low", "high", "medium", "low")),
		))),
		f("planCandidates", arr(obj(
			f("item", reqStr()),
			f("rationale", str()),
			f("priority", enumD("low", "high", "medium", "low")),
		))),
		f("needsConfirmation", strArr()),
		f("sourceQualityFlags", strArr()),
	)
)

// Root returns the descriptor for the full extraction record.
func Root() *Field { return root }

// ShapeString renders a short human-readable description of the expected
// shape at a descriptor node, for use in edit rejection messages.
func (fl *Field) ShapeString() string {
	switch fl.Kind {
	case KindString:
		if fl.Required {
			return "string"
		}
		return "string or null"
	case KindEnum:
		return "one of [" + strings.Join(fl.Enum, ", ") + "]"
	case KindArray:
		return "array of " + fl.Elem.shapeWord()
	case KindObject:
		names := make([]string, 0, len(fl.Fields))
		for _, of := range fl.Fields {
			names = append(names, of.Name)
		}
		return "object {" + strings.Join(names, ", ") + "}"
	default:
		return "unknown"
	}
}

func (fl *Field) shapeWord() string {
	switch fl.Kind {
	case KindString:
		return "string"
	case KindEnum:
		return "enum"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// JSONSchema renders the descriptor tree as a JSON Schema document. The
// extraction engine hands this to the text-to-structure capability so output
// is biased toward the expected shape before validation.
func (fl *Field) JSONSchema() json.RawMessage {
	data, err := json.Marshal(fl.jsonSchemaNode())
	if err != nil {
		// Descriptor trees contain only marshalable members.
		panic(fmt.Sprintf("render schema: %v", err))
	}
	return data
}

func (fl *Field) jsonSchemaNode() map[string]interface{} {
	switch fl.Kind {
	case KindString:
		if fl.Required {
			return map[string]interface{}{"type": "string"}
		}
		return map[string]interface{}{"type": []string{"string", "null"}}
	case KindEnum:
		vals := make([]interface{}, len(fl.Enum))
		for i, v := range fl.Enum {
			vals[i] = v
		}
		node := map[string]interface{}{"type": "string", "enum": vals}
		if fl.Default == "" && !fl.Required {
			node["type"] = []string{"string", "null"}
		}
		return node
	case KindArray:
		return map[string]interface{}{
			"type":  "array",
			"items": fl.Elem.jsonSchemaNode(),
		}
	case KindObject:
		props := make(map[string]interface{}, len(fl.Fields))
		required := make([]string, 0, len(fl.Fields))
		for _, of := range fl.Fields {
			props[of.Name] = of.Field.jsonSchemaNode()
			if of.Field.Required || of.Field.NeverNull || of.Field.Kind == KindArray || of.Field.Default != "" {
				required = append(required, of.Name)
			}
		}
		return map[string]interface{}{
			"type":                 "object",
			"properties":           props,
			"required":             required,
			"additionalProperties": false,
		}
	default:
		return map[string]interface{}{}
	}
}

// lookup returns the descriptor for a named member of an object node.
func (fl *Field) lookup(name string) (*Field, bool) {
	if fl.Kind != KindObject {
		return nil, false
	}
	for _, of := range fl.Fields {
		if of.Name == name {
			return of.Field, true
		}
	}
	return nil, false
}
