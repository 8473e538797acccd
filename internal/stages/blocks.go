package stages

import (
	"strings"

	"github.com/dusk-indust/contentgen/internal/product"
)

// Logic blocks are pure transformations of the product record into structured
// content fragments. Stages assemble pages from blocks and record which
// blocks fed each answer.

// Block names, recorded per FAQ item in LogicBlocksUsed.
const (
	blockBenefits = "benefits_block"
	blockUsage    = "usage_block"
	blockSafety   = "safety_block"
	blockFeatures = "features_block"
)

// benefitsBlock organizes the product's benefits.
func benefitsBlock(p *product.Product) map[string]any {
	detailed := make([]map[string]string, 0, len(p.Benefits))
	for _, b := range p.Benefits {
		detailed = append(detailed, map[string]string{
			"benefit":     b,
			"description": p.Name + " delivers " + strings.ToLower(b) + " through " + strings.Join(p.KeyFeatures, " and ") + ".",
		})
	}
	return map[string]any{
		"primary_benefits":  p.Benefits,
		"detailed_benefits": detailed,
		"total_benefits":    len(p.Benefits),
	}
}

// usageBlock structures the usage instructions.
func usageBlock(p *product.Product) map[string]any {
	return map[string]any{
		"instructions": p.HowToUse,
		"suitable_for": p.TargetUsers,
		"tips": []string{
			"Follow the recommended usage guidelines for best results",
			"Review the considerations before first use",
		},
	}
}

// safetyBlock structures considerations and suitability.
func safetyBlock(p *product.Product) map[string]any {
	return map[string]any{
		"considerations": p.Considerations,
		"suitable_for":   p.TargetUsers,
		"disclaimer":     "Review all considerations before use.",
	}
}

// featuresBlock structures the key feature list.
func featuresBlock(p *product.Product) map[string]any {
	return map[string]any{
		"key_features":   p.KeyFeatures,
		"total_features": len(p.KeyFeatures),
	}
}

// compareFeaturesBlock splits two products' features into common and unique
// sets. Comparison is exact on the feature strings.
func compareFeaturesBlock(a, b *product.Product) map[string]any {
	setB := make(map[string]bool, len(b.KeyFeatures))
	for _, f := range b.KeyFeatures {
		setB[f] = true
	}

	var common, uniqueA []string
	seen := make(map[string]bool, len(a.KeyFeatures))
	for _, f := range a.KeyFeatures {
		seen[f] = true
		if setB[f] {
			common = append(common, f)
		} else {
			uniqueA = append(uniqueA, f)
		}
	}
	var uniqueB []string
	for _, f := range b.KeyFeatures {
		if !seen[f] {
			uniqueB = append(uniqueB, f)
		}
	}

	return map[string]any{
		"common":              common,
		"unique_to_product_a": uniqueA,
		"unique_to_product_b": uniqueB,
	}
}

// compareBenefitsBlock splits two products' benefits into common and unique
// sets, comparing case-insensitively but preserving original casing.
func compareBenefitsBlock(a, b *product.Product) map[string]any {
	lowerB := make(map[string]bool, len(b.Benefits))
	for _, v := range b.Benefits {
		lowerB[strings.ToLower(v)] = true
	}

	var common, uniqueA []string
	commonLower := make(map[string]bool)
	for _, v := range a.Benefits {
		if lowerB[strings.ToLower(v)] {
			common = append(common, v)
			commonLower[strings.ToLower(v)] = true
		} else {
			uniqueA = append(uniqueA, v)
		}
	}
	var uniqueB []string
	for _, v := range b.Benefits {
		if !commonLower[strings.ToLower(v)] {
			uniqueB = append(uniqueB, v)
		}
	}

	return map[string]any{
		"common":              common,
		"unique_to_product_a": uniqueA,
		"unique_to_product_b": uniqueB,
	}
}

// pricingBlock pairs the two products' prices for the comparison page.
func pricingBlock(a, b *product.Product) map[string]any {
	return map[string]any{
		"product_a": a.Price,
		"product_b": b.Price,
	}
}
