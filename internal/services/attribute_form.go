package services

import (
	"fmt"
	"strconv"

	"samsonix/internal/domain"
)

// The attribute form engine turns a category's attribute schema into a list
// of typed editors, one per schema position, and serializes them back into
// the product payload. Each attribute kind is its own editor type so render,
// apply and serialize cannot drift apart on a stray type string.

type AttributeEditor interface {
	Schema() domain.CategoryAttribute
	// Value is the current draft value as it will appear on the wire.
	Value() string
	// SetValue applies a posted form value; dropdowns reject values outside
	// their option list, checkboxes normalize to "true"/"false".
	SetValue(raw string) error
	Serialize() domain.ProductAttribute
}

type DropdownEditor struct {
	attr  domain.CategoryAttribute
	value string
}

func (e *DropdownEditor) Schema() domain.CategoryAttribute { return e.attr }
func (e *DropdownEditor) Value() string                    { return e.value }

func (e *DropdownEditor) SetValue(raw string) error {
	if raw == "" {
		e.value = ""
		return nil
	}
	for _, opt := range e.attr.PossibleValues {
		if raw == opt {
			e.value = raw
			return nil
		}
	}
	return fmt.Errorf("%s: %q is not one of the allowed values", e.attr.AttributeName, raw)
}

func (e *DropdownEditor) Serialize() domain.ProductAttribute {
	return serializeAttr(e.attr, e.value)
}

type TextEditor struct {
	attr  domain.CategoryAttribute
	value string
}

func (e *TextEditor) Schema() domain.CategoryAttribute { return e.attr }
func (e *TextEditor) Value() string                    { return e.value }
func (e *TextEditor) SetValue(raw string) error        { e.value = raw; return nil }
func (e *TextEditor) Serialize() domain.ProductAttribute {
	return serializeAttr(e.attr, e.value)
}

type CheckboxEditor struct {
	attr    domain.CategoryAttribute
	checked bool
}

func (e *CheckboxEditor) Schema() domain.CategoryAttribute { return e.attr }

// Value serializes the literal strings "true"/"false", never a bare boolean;
// the attribute-value contract is string-typed throughout.
func (e *CheckboxEditor) Value() string { return strconv.FormatBool(e.checked) }

func (e *CheckboxEditor) SetValue(raw string) error {
	switch raw {
	case "true", "on", "1":
		e.checked = true
	default:
		e.checked = false
	}
	return nil
}

func (e *CheckboxEditor) Serialize() domain.ProductAttribute {
	return serializeAttr(e.attr, e.Value())
}

func serializeAttr(attr domain.CategoryAttribute, value string) domain.ProductAttribute {
	return domain.ProductAttribute{
		CategoryAttrID: attr.AttributeID,
		AttributeName:  attr.AttributeName,
		AttributeValue: value,
		Type:           attr.Type,
	}
}

// BuildEditors regenerates the editor list from the category's current
// schema. Existing values are carried over only for attributes whose id is
// still in the schema; values from a previously selected category are
// dropped rather than left dangling.
func BuildEditors(schema []domain.CategoryAttribute, existing []domain.ProductAttribute) ([]AttributeEditor, error) {
	prior := make(map[string]string, len(existing))
	for _, pa := range existing {
		if pa.CategoryAttrID != "" {
			prior[pa.CategoryAttrID] = pa.AttributeValue
		}
	}

	editors := make([]AttributeEditor, 0, len(schema))
	for _, attr := range schema {
		var ed AttributeEditor
		switch attr.Type {
		case domain.AttributeDropdown:
			ed = &DropdownEditor{attr: attr}
		case domain.AttributeString:
			ed = &TextEditor{attr: attr}
		case domain.AttributeCheckbox:
			ed = &CheckboxEditor{attr: attr}
		default:
			return nil, fmt.Errorf("attribute %q: unknown type %q", attr.AttributeName, attr.Type)
		}
		if v, ok := prior[attr.AttributeID]; ok && attr.AttributeID != "" {
			// A stale value that no longer fits (dropdown option removed
			// from the schema) is silently discarded.
			_ = ed.SetValue(v)
		}
		editors = append(editors, ed)
	}
	return editors, nil
}

// ApplyFormValues writes posted values into the editors. Values are keyed by
// list position (attr_0, attr_1, ...) just like the dialog lays them out.
func ApplyFormValues(editors []AttributeEditor, get func(name string) string) error {
	for i, ed := range editors {
		if err := ed.SetValue(get(fmt.Sprintf("attr_%d", i))); err != nil {
			return err
		}
	}
	return nil
}

// ValidateEditors reports per-attribute required-field violations, keyed by
// attribute name. Checkboxes always carry a value and never fail required.
func ValidateEditors(editors []AttributeEditor) map[string]string {
	errs := map[string]string{}
	for _, ed := range editors {
		attr := ed.Schema()
		if !attr.IsRequired || attr.Type == domain.AttributeCheckbox {
			continue
		}
		if ed.Value() == "" {
			errs[attr.AttributeName] = attr.AttributeName + " is required"
		}
	}
	return errs
}

// SerializeEditors emits one wire attribute per schema position.
func SerializeEditors(editors []AttributeEditor) []domain.ProductAttribute {
	out := make([]domain.ProductAttribute, 0, len(editors))
	for _, ed := range editors {
		out = append(out, ed.Serialize())
	}
	return out
}
