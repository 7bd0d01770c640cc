package domain

import "strings"

// ClassificationRule maps a qualifier-code marker to a category.
type ClassificationRule struct {
	Marker   string
	Category Category
}

// DefaultClassificationRules returns the standard marker table in precedence
// order. Each call returns a fresh slice.
func DefaultClassificationRules() []ClassificationRule {
	return []ClassificationRule{
		{Marker: "FAL", Category: CategoryClosure},              // aerodrome closed
		{Marker: "FAX", Category: CategoryClosure},              // aerodrome, unspecified
		{Marker: "WPL", Category: CategoryWarningArea},          // warning area
		{Marker: "WRL", Category: CategoryWarningArea},          // warning area, restricted
		{Marker: "RDC", Category: CategoryHazardNotice},         // danger area activated
		{Marker: "RTC", Category: CategoryTemporaryRestriction}, // temporary restricted area
		{Marker: "RRC", Category: CategoryTemporaryRestriction}, // restricted area activated
		{Marker: "RPC", Category: CategoryTemporaryRestriction}, // prohibited area activated
	}
}

// Classifier assigns a category from qualifier codes using a flat lookup
// table. The first rule whose marker occurs in the codes wins.
type Classifier struct {
	rules []ClassificationRule
}

// NewClassifier creates a Classifier over a copy of rules. A nil or empty
// table classifies everything as CategoryRestriction.
func NewClassifier(rules []ClassificationRule) *Classifier {
	return &Classifier{rules: append([]ClassificationRule(nil), rules...)}
}

// Classify returns the category for codes, or CategoryRestriction when no
// marker matches.
func (c *Classifier) Classify(codes string) Category {
	codes = strings.ToUpper(codes)
	if codes == "" {
		return CategoryRestriction
	}
	for _, r := range c.rules {
		if r.Marker != "" && strings.Contains(codes, r.Marker) {
			return r.Category
		}
	}
	return CategoryRestriction
}
