// Package product defines the validated product record and generated-question
// model that flow through the content pipeline.
package product

import (
	"fmt"
	"strings"
)

// Product is the validated product description every stage reads from.
// All generated content is derived from this record.
type Product struct {
	Name           string   `json:"name"`
	ProductType    string   `json:"product_type"`
	TargetUsers    []string `json:"target_users"`
	KeyFeatures    []string `json:"key_features"`
	Benefits       []string `json:"benefits"`
	HowToUse       string   `json:"how_to_use"`
	Considerations string   `json:"considerations"`
	Price          string   `json:"price"`
}

// Validate checks that every required field is present and non-empty.
// String fields are trimmed in place; list fields drop blank entries.
func (p *Product) Validate() error {
	var missing []string

	strFields := []struct {
		name  string
		value *string
	}{
		{"name", &p.Name},
		{"product_type", &p.ProductType},
		{"how_to_use", &p.HowToUse},
		{"considerations", &p.Considerations},
		{"price", &p.Price},
	}
	for _, f := range strFields {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			missing = append(missing, f.name)
		}
	}

	listFields := []struct {
		name  string
		value *[]string
	}{
		{"target_users", &p.TargetUsers},
		{"key_features", &p.KeyFeatures},
		{"benefits", &p.Benefits},
	}
	for _, f := range listFields {
		cleaned := make([]string, 0, len(*f.value))
		for _, item := range *f.value {
			if s := strings.TrimSpace(item); s != "" {
				cleaned = append(cleaned, s)
			}
		}
		*f.value = cleaned
		if len(cleaned) == 0 {
			missing = append(missing, f.name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("product: missing or empty fields: %s", strings.Join(missing, ", "))
	}
	return nil
}
