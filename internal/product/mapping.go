package product

import (
	"fmt"
	"strings"
)

// fieldAliases maps each canonical field to the alternative names accepted in
// raw input, in priority order. The first alias present wins.
var fieldAliases = map[string][]string{
	"name":           {"name", "product_name", "title", "product_title"},
	"product_type":   {"product_type", "concentration", "type", "version", "strength", "potency", "formula"},
	"target_users":   {"target_users", "skin_type", "skin_types", "user_type", "target_audience", "suitable_for", "for"},
	"key_features":   {"key_features", "key_ingredients", "ingredients", "features", "active_ingredients"},
	"benefits":       {"benefits", "advantages", "key_benefits", "pros"},
	"how_to_use":     {"how_to_use", "usage", "instructions", "how_to", "directions"},
	"considerations": {"considerations", "side_effects", "warnings", "cautions", "notes", "limitations"},
	"price":          {"price", "cost", "pricing", "amount"},
}

// listFields are canonical fields whose values are string lists. A scalar
// string supplied for one of these is split on commas.
var listFields = map[string]bool{
	"target_users": true,
	"key_features": true,
	"benefits":     true,
}

// FromRaw maps a raw input record onto a validated Product. It resolves
// alternative field names, fills defaults for missing optional fields, and
// validates the result.
func FromRaw(raw map[string]any) (*Product, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("product: input is empty")
	}

	mapped := mapFields(raw)
	applyDefaults(mapped)

	p := &Product{
		Name:           asString(mapped["name"]),
		ProductType:    asString(mapped["product_type"]),
		TargetUsers:    asStringList(mapped["target_users"]),
		KeyFeatures:    asStringList(mapped["key_features"]),
		Benefits:       asStringList(mapped["benefits"]),
		HowToUse:       asString(mapped["how_to_use"]),
		Considerations: asString(mapped["considerations"]),
		Price:          asString(mapped["price"]),
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// mapFields resolves aliases to canonical names. Each input key is consumed at
// most once; unmapped keys are ignored.
func mapFields(raw map[string]any) map[string]any {
	mapped := make(map[string]any, len(fieldAliases))
	used := make(map[string]bool, len(raw))

	for canonical, aliases := range fieldAliases {
		for _, alias := range aliases {
			value, ok := raw[alias]
			if !ok || used[alias] {
				continue
			}
			if listFields[canonical] {
				if s, isStr := value.(string); isStr {
					value = splitCommaList(s)
				}
			}
			mapped[canonical] = value
			used[alias] = true
			break
		}
	}
	return mapped
}

// applyDefaults fills fields that may legitimately be absent from terse input.
// Name, key features and benefits stay unset so Validate rejects records with
// no real substance.
func applyDefaults(mapped map[string]any) {
	defaults := map[string]any{
		"product_type":   "Standard",
		"target_users":   []string{"All"},
		"how_to_use":     "Use as directed",
		"considerations": "None known",
		"price":          "Contact for pricing",
	}
	for field, def := range defaults {
		if v, ok := mapped[field]; !ok || isEmptyValue(v) {
			mapped[field] = def
		}
	}
}

func splitCommaList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func asStringList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, asString(item))
		}
		return out
	case string:
		return splitCommaList(t)
	default:
		return []string{asString(t)}
	}
}
