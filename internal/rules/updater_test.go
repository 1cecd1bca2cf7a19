package rules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twcfin/invoice-pipeline/internal/mailbox"
	"github.com/twcfin/invoice-pipeline/internal/storage"
	"go.uber.org/zap"
)

const ruleEmail = "From: controller@example.com\r\n" +
	"Date: Mon, 15 Jan 2024 10:00:00 -0600\r\n" +
	"Subject: UPDATED ACCOUNT ASSIGNMENTS\r\n" +
	"\r\n" +
	"*Vendor Name begins with* *Accountant Name*\r\n" +
	"*Exception*\r\n" +
	"Acme\r\n" +
	"Jane\r\n" +
	"Workquest\r\n" +
	"Carol\r\n" +
	"*\r\n"

const emptyRuleEmail = "From: controller@example.com\r\n" +
	"Date: Mon, 15 Jan 2024 10:00:00 -0600\r\n" +
	"Subject: hello\r\n" +
	"\r\n" +
	"nothing to see here\r\n"

func newUpdater(t *testing.T) (*Updater, *storage.MemoryStore, *storage.MemoryStore) {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	mailStore := storage.NewMemoryStore()
	artifactStore := storage.NewMemoryStore()
	updater := NewUpdater(mailbox.NewReader(mailStore, loc, zap.NewNop()), artifactStore, zap.NewNop())
	return updater, mailStore, artifactStore
}

func TestUpdateFromMessage_ReplacesRuleSet(t *testing.T) {
	updater, mailStore, artifactStore := newUpdater(t)
	ctx := context.Background()
	require.NoError(t, mailStore.Put(ctx, "rules-msg", []byte(ruleEmail)))

	// Pre-existing rules are replaced wholesale.
	require.NoError(t, Save(ctx, artifactStore, []Rule{{Rule: "Old", AccountantName: "Gone"}}))

	count, err := updater.UpdateFromMessage(ctx, "rules-msg")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	loaded, err := NewLoader(artifactStore, zap.NewNop()).Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, Rule{Rule: "Acme", AccountantName: "Jane"}, loaded[0])
	assert.Equal(t, Rule{Rule: "Workquest", AccountantName: "Carol", IsException: true}, loaded[1])
}

func TestUpdateFromMessage_EmptyBodyRejected(t *testing.T) {
	updater, mailStore, artifactStore := newUpdater(t)
	ctx := context.Background()
	require.NoError(t, mailStore.Put(ctx, "plain-msg", []byte(emptyRuleEmail)))
	require.NoError(t, Save(ctx, artifactStore, []Rule{{Rule: "Keep", AccountantName: "Me"}}))

	_, err := updater.UpdateFromMessage(ctx, "plain-msg")
	require.Error(t, err)

	// Live rule set untouched.
	loaded, err := NewLoader(artifactStore, zap.NewNop()).Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Keep", loaded[0].Rule)
}

func TestUpdateFromMessage_MissingMessage(t *testing.T) {
	updater, _, _ := newUpdater(t)
	_, err := updater.UpdateFromMessage(context.Background(), "no-such-msg")
	require.Error(t, err)
}
