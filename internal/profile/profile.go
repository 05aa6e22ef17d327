// Package profile defines the category profile data model: the structured
// knowledge-base record for one business category that the interview flow
// draws on when talking to a prospective client.
package profile

// Severity / priority levels used across weighted content lists.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// SuccessMarker is the reserved prefix that tags a learning as a confirmed
// success story. It is stored inside the insight text so the learnings log
// stays a plain append-only list.
const SuccessMarker = "[SUCCESS]"

// Profile is one category's knowledge record. Field names follow the YAML
// layout of the files under config/categories/.
type Profile struct {
	ID      string `yaml:"id"`
	Version string `yaml:"version,omitempty"`
	Name    string `yaml:"name,omitempty"`

	// Locale metadata. Empty fields are backfilled from the country
	// metadata table after a regional merge.
	Region     string   `yaml:"region,omitempty"`
	Country    string   `yaml:"country,omitempty"`
	Language   string   `yaml:"language,omitempty"`
	Currency   string   `yaml:"currency,omitempty"`
	Timezone   string   `yaml:"timezone,omitempty"`
	PhoneCodes []string `yaml:"phone_codes,omitempty"`

	Aliases []string `yaml:"aliases,omitempty"`

	PainPoints   []PainPoint   `yaml:"pain_points,omitempty"`
	Functions    []Function    `yaml:"recommended_functions,omitempty"`
	Integrations []Integration `yaml:"integrations,omitempty"`
	FAQ          []QA          `yaml:"faq,omitempty"`
	Objections   []Objection   `yaml:"objections,omitempty"`
	SalesScripts []SalesScript `yaml:"sales_scripts,omitempty"`
	Competitors  []Competitor  `yaml:"competitors,omitempty"`

	Pricing    *PricingContext `yaml:"pricing_context,omitempty"`
	Market     *MarketContext  `yaml:"market_context,omitempty"`
	Benchmarks *Benchmarks     `yaml:"success_benchmarks,omitempty"`

	// Learnings is append-only; entries are never rewritten in place.
	Learnings []Learning `yaml:"learnings,omitempty"`

	Metrics Metrics `yaml:"metrics,omitempty"`
}

// PainPoint describes a recurring problem of businesses in the category.
type PainPoint struct {
	Description string `yaml:"description"`
	Severity    string `yaml:"severity,omitempty"`
	Hint        string `yaml:"hint,omitempty"`
}

// Function is a product capability recommended for the category.
type Function struct {
	Name     string `yaml:"name"`
	Priority string `yaml:"priority,omitempty"`
	Reason   string `yaml:"reason,omitempty"`
}

// Integration names an external system the category typically connects to.
type Integration struct {
	Name     string   `yaml:"name"`
	Examples []string `yaml:"examples,omitempty"`
	Priority string   `yaml:"priority,omitempty"`
}

// QA is one FAQ pair.
type QA struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// Objection pairs a typical client objection with the recommended response.
type Objection struct {
	Objection string `yaml:"objection"`
	Response  string `yaml:"response"`
}

// SalesScript is a scripted move for a known conversation situation.
type SalesScript struct {
	Trigger       string `yaml:"trigger,omitempty"`
	Situation     string `yaml:"situation,omitempty"`
	Script        string `yaml:"script"`
	Goal          string `yaml:"goal,omitempty"`
	Effectiveness string `yaml:"effectiveness,omitempty"`
}

// Competitor describes a competing product the client may bring up.
type Competitor struct {
	Name            string   `yaml:"name"`
	Positioning     string   `yaml:"positioning,omitempty"`
	Strengths       []string `yaml:"strengths,omitempty"`
	Weaknesses      []string `yaml:"weaknesses,omitempty"`
	Differentiation string   `yaml:"differentiation,omitempty"`
}

// ROIExample is a worked cost/savings case for the pricing pitch.
type ROIExample struct {
	MonthlyCost    float64 `yaml:"monthly_cost"`
	MonthlySavings float64 `yaml:"monthly_savings"`
	PaybackMonths  float64 `yaml:"payback_months,omitempty"`
}

// PricingContext carries the category's budget expectations.
type PricingContext struct {
	Currency    string       `yaml:"currency,omitempty"`
	BudgetRange []float64    `yaml:"budget_range,omitempty"` // [min, max]
	EntryPoint  float64      `yaml:"entry_point,omitempty"`
	ROIExamples []ROIExample `yaml:"roi_examples,omitempty"`
}

// Seasonality lists high and low season markers.
type Seasonality struct {
	High []string `yaml:"high,omitempty"`
	Low  []string `yaml:"low,omitempty"`
}

// MarketContext summarizes the category's market.
type MarketContext struct {
	Size        string      `yaml:"size,omitempty"`
	Growth      string      `yaml:"growth,omitempty"`
	Trends      []string    `yaml:"trends,omitempty"`
	Seasonality Seasonality `yaml:"seasonality,omitempty"`
}

// Benchmarks holds the KPI targets considered a success in the category.
type Benchmarks struct {
	KPIs []string `yaml:"kpis,omitempty"`
}

// Learning is one append-only log entry with a field-level date stamp.
// A SuccessMarker prefix on Insight tags the entry as a success story.
type Learning struct {
	Date    string `yaml:"date"`
	Insight string `yaml:"insight"`
	Source  string `yaml:"source,omitempty"`
}

// IsSuccess reports whether the entry carries the success marker.
func (l Learning) IsSuccess() bool {
	return hasMarker(l.Insight)
}

// Metrics tracks consultation quality for the category.
type Metrics struct {
	AvgScore float64 `yaml:"avg_score,omitempty"`
	Runs     int     `yaml:"runs,omitempty"`
}

// IndexEntry bootstraps category discovery without loading the full profile.
type IndexEntry struct {
	File        string   `yaml:"file"`
	Name        string   `yaml:"name,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Aliases     []string `yaml:"aliases,omitempty"`
}

// UsageStats are the index-level usage counters. Read-modify-write of this
// block is not safe against concurrent writers; the surrounding system runs
// a single writer per knowledge directory.
type UsageStats struct {
	TotalUses int            `yaml:"total_uses,omitempty"`
	MostUsed  string         `yaml:"most_used,omitempty"`
	Counts    map[string]int `yaml:"counts,omitempty"`
}

// Index is the top-level _index.yaml document.
type Index struct {
	Categories map[string]IndexEntry `yaml:"categories"`
	Usage      UsageStats            `yaml:"usage_stats,omitempty"`
}
