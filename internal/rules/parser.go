package rules

import "strings"

// Markers of the rule table inside an "UPDATED ACCOUNT ASSIGNMENTS" email
// body. The table is two columns of alternating lines (rule token, then
// accountant name); a lone "*" line flags the preceding pair as an exception.
const (
	headerVendor     = "*Vendor Name begins with*"
	headerAccountant = "*Accountant Name*"
	headerException  = "*Exception*"
	exceptionMark    = "*"
)

// ParseEmailBody extracts the assignment rule table from a plain-text email
// body. It returns nil when no table is found.
func ParseEmailBody(body string) []Rule {
	var (
		ruleSet      []Rule
		tableStarted bool
		headerRead   bool
		current      Rule
	)

	for _, line := range strings.Split(body, "\n") {
		if strings.Contains(line, headerVendor) || strings.Contains(line, headerAccountant) {
			tableStarted = true
			continue
		}
		if strings.Contains(line, headerException) {
			headerRead = true
			continue
		}
		if !tableStarted || !headerRead {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if line == exceptionMark {
			current.IsException = true
			ruleSet = append(ruleSet, current)
			current = Rule{}
			continue
		}

		if current.Rule != "" && current.AccountantName != "" {
			ruleSet = append(ruleSet, current)
			current = Rule{}
		}

		if current.Rule == "" {
			current.Rule = line
		} else if current.AccountantName == "" {
			current.AccountantName = line
		}
	}

	if current.Rule != "" && current.AccountantName != "" {
		ruleSet = append(ruleSet, current)
	}

	return ruleSet
}
