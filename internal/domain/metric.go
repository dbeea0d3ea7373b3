package domain

import (
	"bytes"
	"fmt"
	"text/template"
)

// MetricDefinition describes one qualitative metric that the oracle is asked
// to rate. Definitions are immutable at runtime and owned by the Registry;
// the set of registry keys defines the schema every record is validated and
// merged against.
type MetricDefinition struct {
	// Key uniquely identifies the metric and is the field name under which
	// elicited values are stored in a MetricRecord.
	Key string

	// DisplayName is the human-readable label used in rankings and reports.
	DisplayName string

	// Template is the elicitation prompt with a single {{.Company}} slot
	// for the entity label.
	Template string

	// Reverse marks metrics where a low raw score is favorable (for
	// example riskiness). Aggregation inverts reverse metrics before
	// weighting.
	Reverse bool

	// Weight scales the metric's contribution to the total. Must be >= 0.
	Weight float64
}

// Registry is the static, ordered catalog of metric definitions. Adding a
// metric to the catalog requires no changes elsewhere: acquisition,
// aggregation, and display all iterate the registry rather than enumerating
// fields by name. A Registry must not be mutated after construction.
type Registry struct {
	defs    []MetricDefinition
	byKey   map[string]int
	parsed  map[string]*template.Template
	maxable float64
}

// NewRegistry builds a Registry from an ordered list of definitions.
// It validates key uniqueness, weight bounds, and that every elicitation
// template parses.
func NewRegistry(defs []MetricDefinition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, ErrEmptyRegistry
	}

	r := &Registry{
		defs:   make([]MetricDefinition, len(defs)),
		byKey:  make(map[string]int, len(defs)),
		parsed: make(map[string]*template.Template, len(defs)),
	}
	copy(r.defs, defs)

	for i, def := range r.defs {
		if def.Key == "" {
			return nil, fmt.Errorf("metric at position %d has an empty key", i)
		}
		if _, dup := r.byKey[def.Key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMetric, def.Key)
		}
		if def.Weight < 0 {
			return nil, fmt.Errorf("metric %s has negative weight %v", def.Key, def.Weight)
		}

		tmpl, err := template.New(def.Key).Parse(def.Template)
		if err != nil {
			return nil, fmt.Errorf("metric %s: invalid elicitation template: %w", def.Key, err)
		}

		r.byKey[def.Key] = i
		r.parsed[def.Key] = tmpl
		r.maxable += def.Weight * ScaleMax
	}

	return r, nil
}

// Metrics returns the definitions in catalog order.
// The returned slice is a copy; mutating it does not affect the registry.
func (r *Registry) Metrics() []MetricDefinition {
	out := make([]MetricDefinition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Len returns the number of metrics in the catalog.
func (r *Registry) Len() int { return len(r.defs) }

// Lookup returns the definition for key.
// It returns ErrUnknownMetric (wrapped with the key) for keys outside the
// catalog.
func (r *Registry) Lookup(key string) (MetricDefinition, error) {
	i, ok := r.byKey[key]
	if !ok {
		return MetricDefinition{}, fmt.Errorf("%w: %s", ErrUnknownMetric, key)
	}
	return r.defs[i], nil
}

// Has reports whether key belongs to the catalog.
func (r *Registry) Has(key string) bool {
	_, ok := r.byKey[key]
	return ok
}

// RenderPrompt substitutes the entity label into the metric's elicitation
// template. The key must belong to the catalog.
func (r *Registry) RenderPrompt(key, label string) (string, error) {
	tmpl, ok := r.parsed[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownMetric, key)
	}

	var buf bytes.Buffer
	data := struct{ Company string }{Company: label}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("metric %s: rendering elicitation template: %w", key, err)
	}
	return buf.String(), nil
}

// MaxPossible returns the highest achievable total: the sum of all weights
// multiplied by the top of the rating scale.
func (r *Registry) MaxPossible() float64 { return r.maxable }

// Rating scale bounds shared by every metric. The oracle is asked for
// ratings on this scale and reverse metrics are inverted against ScaleMax.
const (
	ScaleMin = 0.0
	ScaleMax = 10.0
)

const ratingInstruction = "\n\nRespond with ONLY the numerical score (0-10), no explanation needed."

// DefaultRegistry returns the standard thirteen-metric catalog for rating a
// company's competitive position. All metrics carry equal weight; the three
// reverse metrics (disruption risk, competition intensity, riskiness) score
// favorably when low.
func DefaultRegistry() *Registry {
	const w = 10.0

	r, err := NewRegistry([]MetricDefinition{
		{
			Key:         "moat_score",
			DisplayName: "Competitive Moat",
			Weight:      w,
			Template: `Rate the competitive moat strength of {{.Company}} on a scale of 0-10, where:
- 0 = No competitive advantage, easily replaceable
- 5 = Moderate competitive advantages
- 10 = Extremely strong moat, nearly impossible to compete against

Consider factors like brand strength and customer loyalty, network effects,
switching costs, economies of scale, patents and intellectual property,
regulatory barriers, and unique resources or capabilities.` + ratingInstruction,
		},
		{
			Key:         "barriers_score",
			DisplayName: "Barriers to Entry",
			Weight:      w,
			Template: `Rate the barriers to entry for {{.Company}} on a scale of 0-10, where:
- 0 = No barriers, extremely easy for competitors to enter
- 5 = Moderate barriers to entry
- 10 = Extremely high barriers, nearly impossible for new competitors to enter

Consider factors like capital requirements, regulatory and licensing
requirements, technological complexity, distribution channel access, brand
recognition, network effects, and switching costs for customers.` + ratingInstruction,
		},
		{
			Key:         "disruption_risk",
			DisplayName: "Disruption Risk",
			Reverse:     true,
			Weight:      w,
			Template: `Rate the disruption risk for {{.Company}} on a scale of 0-10, where:
- 0 = No risk, very stable industry
- 5 = Moderate disruption risk
- 10 = Very high risk of being disrupted by new technology or competitors

Consider factors like technology disruption potential, regulatory risk,
changing consumer preferences, emerging competitors with new business
models, obsolescence risk, and substitution threats.` + ratingInstruction,
		},
		{
			Key:         "switching_cost",
			DisplayName: "Switching Cost",
			Weight:      w,
			Template: `Rate the switching costs for customers of {{.Company}} on a scale of 0-10, where:
- 0 = No switching costs, customers can easily leave
- 5 = Moderate switching costs
- 10 = Very high switching costs, customers are locked in

Consider factors like learning curve for new products, data migration
complexity, contractual commitments, integration with existing systems,
financial switching costs, and compatibility issues.` + ratingInstruction,
		},
		{
			Key:         "brand_strength",
			DisplayName: "Brand Strength",
			Weight:      w,
			Template: `Rate the brand strength for {{.Company}} on a scale of 0-10, where:
- 0 = No brand recognition or loyalty
- 5 = Moderate brand strength
- 10 = Extremely strong brand with high customer loyalty and recognition

Consider factors like brand recognition and awareness, customer loyalty and
emotional attachment, reputation and trust, ability to charge premium
prices, and global brand presence.` + ratingInstruction,
		},
		{
			Key:         "competition_intensity",
			DisplayName: "Competition Intensity",
			Reverse:     true,
			Weight:      w,
			Template: `Rate the intensity of competition for {{.Company}} on a scale of 0-10, where:
- 0 = No competition, monopoly-like market
- 5 = Moderate competition
- 10 = Extremely intense competition with many aggressive competitors

Consider factors like the number of competitors in the market,
competitiveness of pricing strategies, market share fragmentation,
competitor capabilities and resources, and the frequency of competitive
actions.` + ratingInstruction,
		},
		{
			Key:         "network_effect",
			DisplayName: "Network Effect",
			Weight:      w,
			Template: `Rate the network effects for {{.Company}} on a scale of 0-10, where:
- 0 = No network effects, value doesn't increase with more users
- 5 = Moderate network effects
- 10 = Extremely strong network effects, value increases dramatically with more users

Consider factors like whether value increases as more users join, network
density and interconnectedness, platform and ecosystem benefits, data
network effects, two-sided market effects, and viral growth potential.` + ratingInstruction,
		},
		{
			Key:         "product_differentiation",
			DisplayName: "Product Differentiation",
			Weight:      w,
			Template: `Rate the product differentiation (vs commoditization) for {{.Company}} on a scale of 0-10, where:
- 0 = Completely commoditized, interchangeable with competitors, price competition
- 5 = Some differentiation, moderate pricing power
- 10 = Highly differentiated, unique products/services with strong pricing power

Consider factors like product uniqueness, ability to command premium prices,
customer perception of differentiation, proprietary features or technology,
and service or experience differentiation.` + ratingInstruction,
		},
		{
			Key:         "innovativeness_score",
			DisplayName: "Innovativeness",
			Weight:      w,
			Template: `Rate the innovativeness of {{.Company}} on a scale of 0-10, where:
- 0 = Not innovative, relies on existing technologies and practices, minimal R&D
- 5 = Moderately innovative, some product improvements and incremental innovation
- 10 = Extremely innovative, breakthrough technologies, disruptive innovation, industry-leading R&D

Consider factors like R&D investment as a percentage of revenue, patents and
technological breakthroughs, track record of introducing new products, speed
of innovation cycles, and investment in emerging technologies.` + ratingInstruction,
		},
		{
			Key:         "growth_opportunity",
			DisplayName: "Growth Opportunity",
			Weight:      w,
			Template: `Rate the growth opportunity for {{.Company}} on a scale of 0-10, where:
- 0 = Minimal growth opportunity, mature/declining market, limited expansion potential
- 5 = Moderate growth opportunity, steady market growth, some expansion possibilities
- 10 = Exceptional growth opportunity, rapidly expanding market, multiple growth vectors, high scalability

Consider factors like market size and growth rate, addressable market,
geographic and product expansion opportunities, market penetration
potential, ability to scale operations, and margin expansion
opportunities.` + ratingInstruction,
		},
		{
			Key:         "riskiness_score",
			DisplayName: "Riskiness",
			Reverse:     true,
			Weight:      w,
			Template: `Rate the overall riskiness of investing in {{.Company}} on a scale of 0-10, where:
- 0 = Very low risk, stable and predictable business model
- 5 = Moderate risk, some uncertainty in business outlook
- 10 = Very high risk, highly volatile or uncertain business model

Consider factors like financial leverage and debt levels, business model
stability, regulatory and legal risks, market cyclicality, management and
execution risks, dependency on key customers or suppliers, and geographic
and political risks.` + ratingInstruction,
		},
		{
			Key:         "pricing_power",
			DisplayName: "Pricing Power",
			Weight:      w,
			Template: `Rate the pricing power of {{.Company}} on a scale of 0-10, where:
- 0 = No pricing power, commodity-like product with intense price competition
- 5 = Moderate pricing power, some ability to set prices above cost
- 10 = Exceptional pricing power, strong ability to raise prices without losing customers

Consider factors like the ability to increase prices without significant
demand loss, customer price sensitivity, unique value proposition, brand
strength and customer lock-in, substitution availability, and historical
pricing power demonstrated.` + ratingInstruction,
		},
		{
			Key:         "ambition_score",
			DisplayName: "Ambition",
			Weight:      w,
			Template: `Rate the company and culture ambition of {{.Company}} on a scale of 0-10, where:
- 0 = Low ambition, complacent, maintaining status quo, no transformative goals
- 5 = Moderate ambition, some growth and improvement goals, incremental progress
- 10 = Extremely high ambition, transformative vision, aggressive growth targets, industry-changing goals

Consider factors like vision clarity and boldness, growth targets and
expansion ambitions, market leadership aspirations, willingness to take
calculated risks, executive drive, and a culture of continuous
improvement.` + ratingInstruction,
		},
	})
	if err != nil {
		// The default catalog is validated by tests; a failure here is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return r
}
