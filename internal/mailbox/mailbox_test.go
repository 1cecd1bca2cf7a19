package mailbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twcfin/invoice-pipeline/internal/storage"
	"go.uber.org/zap"
)

const plainEmail = "From: vendor@example.com\r\n" +
	"To: invoices@example.com\r\n" +
	"Date: Mon, 15 Jan 2024 14:30:00 -0600\r\n" +
	"Subject: Invoice INV-1\r\n" +
	"\r\n" +
	"Please find the invoice attached.\r\n"

const multipartEmail = "From: office@example.com\r\n" +
	"Date: Tue, 16 Jan 2024 10:00:00 +0000\r\n" +
	"Content-Type: multipart/alternative; boundary=\"xyz\"\r\n" +
	"\r\n" +
	"--xyz\r\n" +
	"Content-Type: text/html\r\n" +
	"\r\n" +
	"<p>ignored</p>\r\n" +
	"--xyz\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"the plain body\r\n" +
	"--xyz--\r\n"

func newReader(t *testing.T) (*Reader, *storage.MemoryStore) {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	store := storage.NewMemoryStore()
	return NewReader(store, loc, zap.NewNop()), store
}

func TestReceivedAt(t *testing.T) {
	reader, store := newReader(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "msg-1", []byte(plainEmail)))

	got, err := reader.ReceivedAt(ctx, "msg-1")
	require.NoError(t, err)

	assert.Equal(t, "America/Chicago", got.Location().String())
	assert.Equal(t, 14, got.Hour())
	assert.Equal(t, time.Monday, got.Weekday())
}

func TestReceivedAt_MissingMessage(t *testing.T) {
	reader, _ := newReader(t)

	_, err := reader.ReceivedAt(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestReceivedAt_NoDateHeader(t *testing.T) {
	reader, store := newReader(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "msg-2", []byte("From: a@b.c\r\n\r\nhi\r\n")))

	_, err := reader.ReceivedAt(ctx, "msg-2")
	assert.ErrorContains(t, err, "Date header")
}

func TestBody_Plain(t *testing.T) {
	reader, store := newReader(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "msg-1", []byte(plainEmail)))

	body, err := reader.Body(ctx, "msg-1")
	require.NoError(t, err)
	assert.Contains(t, body, "Please find the invoice attached.")
}

func TestBody_MultipartPicksPlainText(t *testing.T) {
	reader, store := newReader(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "msg-3", []byte(multipartEmail)))

	body, err := reader.Body(ctx, "msg-3")
	require.NoError(t, err)
	assert.Equal(t, "the plain body", body)
	assert.NotContains(t, body, "ignored")
}
