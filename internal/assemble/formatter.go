package assemble

import (
	"fmt"
	"strings"

	"anketa/internal/logging"
	"anketa/internal/profile"
)

// Formatter renders a profile's fields into phase-specific text blocks per
// the loaded template.
type Formatter struct {
	template *Template
	logger   logging.Logger
}

// NewFormatter builds a Formatter over a validated template. Unknown format
// names are warned about once here; at render time they produce empty output
// so one misconfigured block cannot take down a whole phase.
func NewFormatter(template *Template, logger logging.Logger) *Formatter {
	f := &Formatter{
		template: template,
		logger:   logging.OrNop(logger),
	}
	for phase, section := range template.Sections {
		for _, block := range section.Blocks {
			if !knownFormats[block.Format] {
				f.logger.Warn("sections.%s block %q: unknown format %q will render empty", phase, block.Key, block.Format)
			}
		}
	}
	return f
}

// BuildContext renders the phase's block list for the profile. Disabled
// phases, unknown phases and phases where every block renders empty all
// produce "".
func (f *Formatter) BuildContext(p *profile.Profile, phase string) string {
	if p == nil {
		return ""
	}
	section, ok := f.template.Sections[phase]
	if !ok || !section.enabled() {
		return ""
	}

	var rendered []string
	for _, block := range section.Blocks {
		content := f.renderBlock(p, block)
		if content == "" {
			continue
		}
		var b strings.Builder
		if block.Label != "" {
			b.WriteString(block.Label)
			b.WriteString(":\n")
		}
		b.WriteString(content)
		if block.Instruction != "" {
			b.WriteString("\n")
			b.WriteString(block.Instruction)
		}
		rendered = append(rendered, b.String())
	}
	if len(rendered) == 0 {
		return ""
	}

	var out []string
	if section.Header != "" {
		out = append(out, section.Header)
	}
	out = append(out, rendered...)
	return strings.Join(out, "\n\n")
}

func (f *Formatter) renderBlock(p *profile.Profile, block Block) string {
	labels := f.template.labels(block.Format)
	switch block.Format {
	case "bullets":
		return formatBullets(stringField(p, block.Key))
	case "severity_bullets":
		return formatPainPoints(p.PainPoints, labels)
	case "priority_bullets":
		return formatFunctions(p.Functions, labels)
	case "integration_examples":
		return formatIntegrations(p.Integrations, labels)
	case "qa_pairs":
		return formatFAQ(p.FAQ)
	case "objection_pairs":
		return formatObjections(p.Objections)
	case "kpi_bullets":
		if p.Benchmarks == nil {
			return ""
		}
		return formatBullets(p.Benchmarks.KPIs)
	case "locale_summary":
		return formatLocale(p)
	case "learning_list":
		return formatLearnings(p.Learnings, labels)
	case "script_list":
		return formatScripts(p.SalesScripts)
	case "competitor_list":
		return formatCompetitors(p.Competitors)
	case "pricing_summary":
		return formatPricing(p.Pricing)
	case "market_summary":
		return formatMarket(p.Market)
	default:
		f.logger.Warn("template block %q uses unknown format %q, rendering empty", block.Key, block.Format)
		return ""
	}
}

// stringField resolves the string-list fields the plain bullets format
// accepts. Keys are pre-validated at template load.
func stringField(p *profile.Profile, key string) []string {
	switch key {
	case "aliases":
		return p.Aliases
	case "market_trends":
		if p.Market == nil {
			return nil
		}
		return p.Market.Trends
	case "success_benchmarks":
		if p.Benchmarks == nil {
			return nil
		}
		return p.Benchmarks.KPIs
	default:
		return nil
	}
}

func label(labels map[string]string, key, fallback string) string {
	if value, ok := labels[key]; ok && value != "" {
		return value
	}
	return fallback
}

func formatBullets(items []string) string {
	var lines []string
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			lines = append(lines, "- "+trimmed)
		}
	}
	return strings.Join(lines, "\n")
}

func formatPainPoints(pains []profile.PainPoint, labels map[string]string) string {
	var lines []string
	for _, pain := range pains {
		if strings.TrimSpace(pain.Description) == "" {
			continue
		}
		line := fmt.Sprintf("- %s %s", label(labels, pain.Severity, "["+pain.Severity+"]"), pain.Description)
		if pain.Severity == "" {
			line = "- " + pain.Description
		}
		if pain.Hint != "" {
			line += " (" + pain.Hint + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatFunctions(functions []profile.Function, labels map[string]string) string {
	var lines []string
	for _, fn := range functions {
		if strings.TrimSpace(fn.Name) == "" {
			continue
		}
		line := fmt.Sprintf("- %s %s", label(labels, fn.Priority, "["+fn.Priority+"]"), fn.Name)
		if fn.Priority == "" {
			line = "- " + fn.Name
		}
		if fn.Reason != "" {
			line += " — " + fn.Reason
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatIntegrations(integrations []profile.Integration, labels map[string]string) string {
	var lines []string
	for _, integ := range integrations {
		if strings.TrimSpace(integ.Name) == "" {
			continue
		}
		line := "- " + integ.Name
		if integ.Priority != "" {
			line = fmt.Sprintf("- %s %s", label(labels, integ.Priority, "["+integ.Priority+"]"), integ.Name)
		}
		if len(integ.Examples) > 0 {
			line += ": " + strings.Join(integ.Examples, ", ")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatFAQ(faq []profile.QA) string {
	var lines []string
	for _, qa := range faq {
		if qa.Question == "" || qa.Answer == "" {
			continue
		}
		lines = append(lines, "Q: "+qa.Question, "A: "+qa.Answer)
	}
	return strings.Join(lines, "\n")
}

func formatObjections(objections []profile.Objection) string {
	var lines []string
	for _, obj := range objections {
		if obj.Objection == "" || obj.Response == "" {
			continue
		}
		lines = append(lines, "- "+obj.Objection+" => "+obj.Response)
	}
	return strings.Join(lines, "\n")
}

func formatLocale(p *profile.Profile) string {
	var parts []string
	if p.Country != "" {
		parts = append(parts, "country: "+p.Country)
	}
	if p.Region != "" {
		parts = append(parts, "region: "+p.Region)
	}
	if p.Language != "" {
		parts = append(parts, "language: "+p.Language)
	}
	if p.Currency != "" {
		parts = append(parts, "currency: "+p.Currency)
	}
	if p.Timezone != "" {
		parts = append(parts, "timezone: "+p.Timezone)
	}
	if len(p.PhoneCodes) > 0 {
		parts = append(parts, "phone: "+strings.Join(p.PhoneCodes, ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	return "- " + strings.Join(parts, "\n- ")
}

func formatScripts(scripts []profile.SalesScript) string {
	var lines []string
	for _, script := range scripts {
		if strings.TrimSpace(script.Script) == "" {
			continue
		}
		trigger := script.Trigger
		if trigger == "" {
			trigger = script.Situation
		}
		line := "- "
		if trigger != "" {
			line += trigger + ": "
		}
		line += script.Script
		if script.Goal != "" {
			line += " (goal: " + script.Goal + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatCompetitors(competitors []profile.Competitor) string {
	var lines []string
	for _, comp := range competitors {
		if strings.TrimSpace(comp.Name) == "" {
			continue
		}
		line := "- " + comp.Name
		if comp.Positioning != "" {
			line += " — " + comp.Positioning
		}
		if comp.Differentiation != "" {
			line += "; our edge: " + comp.Differentiation
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatPricing(pricing *profile.PricingContext) string {
	if pricing == nil {
		return ""
	}
	var lines []string
	if len(pricing.BudgetRange) == 2 {
		lines = append(lines, fmt.Sprintf("- budget: %.0f-%.0f %s", pricing.BudgetRange[0], pricing.BudgetRange[1], pricing.Currency))
	}
	if pricing.EntryPoint > 0 {
		lines = append(lines, fmt.Sprintf("- entry point: %.0f %s", pricing.EntryPoint, pricing.Currency))
	}
	for _, roi := range pricing.ROIExamples {
		lines = append(lines, fmt.Sprintf("- ROI: cost %.0f, savings %.0f, payback %.1f months",
			roi.MonthlyCost, roi.MonthlySavings, roi.PaybackMonths))
	}
	return strings.Join(lines, "\n")
}

func formatMarket(market *profile.MarketContext) string {
	if market == nil {
		return ""
	}
	var lines []string
	if market.Size != "" {
		lines = append(lines, "- market size: "+market.Size)
	}
	if market.Growth != "" {
		lines = append(lines, "- growth: "+market.Growth)
	}
	for _, trend := range market.Trends {
		lines = append(lines, "- trend: "+trend)
	}
	if len(market.Seasonality.High) > 0 {
		lines = append(lines, "- high season: "+strings.Join(market.Seasonality.High, ", "))
	}
	if len(market.Seasonality.Low) > 0 {
		lines = append(lines, "- low season: "+strings.Join(market.Seasonality.Low, ", "))
	}
	return strings.Join(lines, "\n")
}

// formatLearnings renders the log with the success marker stripped and
// replaced by a distinguishing prefix, so the raw marker string never leaks
// into a prompt.
func formatLearnings(learnings []profile.Learning, labels map[string]string) string {
	successPrefix := label(labels, "success", "★")
	var lines []string
	for _, learning := range learnings {
		insight := profile.StripMarker(learning.Insight)
		if insight == "" {
			continue
		}
		prefix := "-"
		if learning.IsSuccess() {
			prefix = "- " + successPrefix
		}
		line := prefix + " " + insight
		if learning.Date != "" {
			line += " (" + learning.Date + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
