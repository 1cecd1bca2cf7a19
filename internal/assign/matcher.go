// Package assign determines the responsible accountant for an invoice:
// deterministic rule matching first, a language-model fallback when no rule
// applies.
package assign

import (
	"fmt"
	"strings"

	"github.com/twcfin/invoice-pipeline/internal/rules"
)

// Confidence levels reported with an assignment.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Assignment is the outcome of a successful accountant resolution.
type Assignment struct {
	Accountant  string `json:"accountant"`
	RuleMatched string `json:"rule_matched"`
	Confidence  string `json:"confidence"`
}

// matchRuleSet evaluates the rule set deterministically: exception rules in
// order first, then standard rules. A rule applies when its vendor token is a
// case-insensitive prefix of the vendor name and, if an invoice pattern is
// set, the pattern is a prefix of the invoice number. Returns nil when no
// rule applies.
func matchRuleSet(ruleSet []rules.Rule, vendorName, invoiceNumber string) *Assignment {
	for _, exceptionsOnly := range []bool{true, false} {
		for _, rule := range ruleSet {
			if rule.IsException != exceptionsOnly {
				continue
			}
			if !ruleApplies(rule, vendorName, invoiceNumber) {
				continue
			}
			return &Assignment{
				Accountant:  rule.AccountantName,
				RuleMatched: describeRule(rule),
				Confidence:  ruleConfidence(rule),
			}
		}
	}
	return nil
}

func ruleApplies(rule rules.Rule, vendorName, invoiceNumber string) bool {
	token := strings.ToLower(strings.TrimSpace(rule.Rule))
	if token != "" && !strings.HasPrefix(strings.ToLower(strings.TrimSpace(vendorName)), token) {
		return false
	}

	if pattern := strings.TrimSpace(rule.InvoicePattern); pattern != "" {
		if !strings.HasPrefix(strings.ToUpper(invoiceNumber), strings.ToUpper(pattern)) {
			return false
		}
	}

	// A rule with neither a vendor token nor a pattern matches nothing.
	return token != "" || strings.TrimSpace(rule.InvoicePattern) != ""
}

// ruleConfidence grades the match: exception and full vendor-token rules are
// clear matches, single-letter prefix rules only probable ones.
func ruleConfidence(rule rules.Rule) string {
	if rule.IsException || rule.InvoicePattern != "" {
		return ConfidenceHigh
	}
	if len(strings.TrimSpace(rule.Rule)) > 1 {
		return ConfidenceHigh
	}
	return ConfidenceMedium
}

func describeRule(rule rules.Rule) string {
	kind := "vendor prefix rule"
	if rule.IsException {
		kind = "exception rule"
	}
	if rule.InvoicePattern != "" {
		return fmt.Sprintf("%s %q with invoice pattern %q", kind, rule.Rule, rule.InvoicePattern)
	}
	return fmt.Sprintf("%s %q", kind, rule.Rule)
}
