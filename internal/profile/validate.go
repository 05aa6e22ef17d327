package profile

import (
	"fmt"
	"strings"
)

func hasMarker(insight string) bool {
	return strings.HasPrefix(strings.TrimSpace(insight), SuccessMarker)
}

// StripMarker removes the success marker prefix from an insight, if present.
func StripMarker(insight string) string {
	trimmed := strings.TrimSpace(insight)
	if !strings.HasPrefix(trimmed, SuccessMarker) {
		return trimmed
	}
	return strings.TrimSpace(strings.TrimPrefix(trimmed, SuccessMarker))
}

func validLevel(level string) bool {
	switch level {
	case "", LevelHigh, LevelMedium, LevelLow:
		return true
	}
	return false
}

// Validate checks the profile invariants and returns one message per
// violation. Content-authoring mistakes must not break prompt assembly, so
// callers log the issues and keep going rather than rejecting the profile.
func (p *Profile) Validate() []string {
	if p == nil {
		return nil
	}
	var issues []string

	for i, pain := range p.PainPoints {
		if !validLevel(pain.Severity) {
			issues = append(issues, fmt.Sprintf("pain_points[%d]: invalid severity %q", i, pain.Severity))
		}
	}
	for i, fn := range p.Functions {
		if !validLevel(fn.Priority) {
			issues = append(issues, fmt.Sprintf("recommended_functions[%d]: invalid priority %q", i, fn.Priority))
		}
	}
	for i, integ := range p.Integrations {
		if !validLevel(integ.Priority) {
			issues = append(issues, fmt.Sprintf("integrations[%d]: invalid priority %q", i, integ.Priority))
		}
	}

	if pricing := p.Pricing; pricing != nil {
		if len(pricing.BudgetRange) == 2 && pricing.BudgetRange[0] >= pricing.BudgetRange[1] {
			issues = append(issues, fmt.Sprintf("pricing_context: budget_range min %.2f must be below max %.2f",
				pricing.BudgetRange[0], pricing.BudgetRange[1]))
		}
		if len(pricing.BudgetRange) != 0 && len(pricing.BudgetRange) != 2 {
			issues = append(issues, fmt.Sprintf("pricing_context: budget_range needs [min, max], got %d values", len(pricing.BudgetRange)))
		}
		if pricing.EntryPoint < 0 {
			issues = append(issues, "pricing_context: entry_point must be positive")
		}
		for i, roi := range pricing.ROIExamples {
			if roi.MonthlySavings <= roi.MonthlyCost {
				issues = append(issues, fmt.Sprintf("pricing_context.roi_examples[%d]: monthly_savings %.2f must exceed monthly_cost %.2f",
					i, roi.MonthlySavings, roi.MonthlyCost))
			}
		}
	}

	return issues
}
