package rules

import (
	"context"
	"fmt"

	"github.com/twcfin/invoice-pipeline/internal/mailbox"
	"github.com/twcfin/invoice-pipeline/internal/storage"
	"go.uber.org/zap"
)

// Updater replaces the stored rule set from an instruction email. The
// email's body carries the full rule set, so every update is a wholesale
// replacement rather than a merge.
type Updater struct {
	mail      *mailbox.Reader
	artifacts storage.ObjectStore
	logger    *zap.Logger
}

func NewUpdater(mail *mailbox.Reader, artifacts storage.ObjectStore, logger *zap.Logger) *Updater {
	return &Updater{
		mail:      mail,
		artifacts: artifacts,
		logger:    logger,
	}
}

// UpdateFromMessage parses the rule email and saves the resulting rule set.
// It returns the number of rules saved. A body that yields no rules is
// rejected so a malformed email cannot wipe the live rule set.
func (u *Updater) UpdateFromMessage(ctx context.Context, messageID string) (int, error) {
	body, err := u.mail.Body(ctx, messageID)
	if err != nil {
		return 0, fmt.Errorf("failed to read rule email %s: %w", messageID, err)
	}

	ruleSet := ParseEmailBody(body)
	if len(ruleSet) == 0 {
		return 0, fmt.Errorf("rule email %s contained no parseable rules", messageID)
	}

	if err := Save(ctx, u.artifacts, ruleSet); err != nil {
		return 0, fmt.Errorf("failed to save rule set: %w", err)
	}

	u.logger.Info("Account assignment rules updated",
		zap.String("message_id", messageID),
		zap.Int("rules", len(ruleSet)))
	return len(ruleSet), nil
}
