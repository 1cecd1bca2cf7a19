// Package rules holds the accountant-assignment rule set: its model, the
// artifact-store loader, and the email-body parser used by the update flow.
package rules

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twcfin/invoice-pipeline/internal/storage"
	"go.uber.org/zap"
)

// ArtifactKey is where the rule-set JSON lives in the artifact store.
const ArtifactKey = "account_assignment_rules.json"

// Rule is one accountant-assignment rule. Rule is a single letter, number, or
// vendor token matched against vendor-name prefixes; exception rules take
// precedence over standard ones; InvoicePattern, when set, must match the
// invoice number.
type Rule struct {
	Rule           string `json:"rule"`
	AccountantName string `json:"accountant_name"`
	IsException    bool   `json:"is_exception"`
	InvoicePattern string `json:"invoice_pattern,omitempty"`
}

// Loader fetches the rule set from the artifact store. It never caches:
// every Load round-trips to the store so a rule-set update takes effect on
// the next job.
type Loader struct {
	store  storage.ObjectStore
	logger *zap.Logger
}

// NewLoader creates a Loader reading from store.
func NewLoader(store storage.ObjectStore, logger *zap.Logger) *Loader {
	return &Loader{
		store:  store,
		logger: logger,
	}
}

// Load fetches and decodes the current rule set.
func (l *Loader) Load(ctx context.Context) ([]Rule, error) {
	l.logger.Debug("Fetching assignment rule set", zap.String("key", ArtifactKey))

	content, err := l.store.Get(ctx, ArtifactKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rule set: %w", err)
	}

	var ruleSet []Rule
	if err := json.Unmarshal(content, &ruleSet); err != nil {
		return nil, fmt.Errorf("failed to decode rule set: %w", err)
	}

	return ruleSet, nil
}

// Save writes the rule set back to the artifact store.
func Save(ctx context.Context, store storage.ObjectStore, ruleSet []Rule) error {
	content, err := json.MarshalIndent(ruleSet, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode rule set: %w", err)
	}

	if err := store.Put(ctx, ArtifactKey, content); err != nil {
		return fmt.Errorf("failed to save rule set: %w", err)
	}

	return nil
}
