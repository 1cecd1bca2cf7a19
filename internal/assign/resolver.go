package assign

import (
	"context"

	"github.com/twcfin/invoice-pipeline/internal/rules"
	"go.uber.org/zap"
)

// Resolver loads the rule set fresh per invocation, tries the deterministic
// matcher, and falls back to the classification service only when no rule
// applied. Rule-set and transport failures surface to the caller; the
// pipeline downgrades them to an unassigned invoice row.
type Resolver struct {
	loader     *rules.Loader
	classifier *Classifier
	logger     *zap.Logger
}

// NewResolver creates a Resolver.
func NewResolver(loader *rules.Loader, classifier *Classifier, logger *zap.Logger) *Resolver {
	return &Resolver{
		loader:     loader,
		classifier: classifier,
		logger:     logger,
	}
}

// Assign resolves the accountant for the given vendor and invoice number.
func (r *Resolver) Assign(ctx context.Context, vendorName, invoiceNumber string) (*Assignment, error) {
	ruleSet, err := r.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	if assignment := matchRuleSet(ruleSet, vendorName, invoiceNumber); assignment != nil {
		r.logger.Info("Deterministic rule matched",
			zap.String("vendor", vendorName),
			zap.String("rule", assignment.RuleMatched),
			zap.String("accountant", assignment.Accountant))
		return assignment, nil
	}

	r.logger.Info("No deterministic rule matched, falling back to classification service",
		zap.String("vendor", vendorName),
		zap.String("invoice_number", invoiceNumber))

	return r.classifier.Classify(ctx, vendorName, invoiceNumber, ruleSet)
}
