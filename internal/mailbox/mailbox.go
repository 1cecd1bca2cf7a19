// Package mailbox reads raw stored emails: the Date header that governs
// business-day bucketing, and the plain-text body the rule-update flow
// parses.
package mailbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"time"

	"github.com/twcfin/invoice-pipeline/internal/storage"
	"go.uber.org/zap"
)

// Reader fetches raw messages from the mail store by message id.
type Reader struct {
	store  storage.ObjectStore
	loc    *time.Location
	logger *zap.Logger
}

// NewReader creates a Reader; timestamps are converted to loc.
func NewReader(store storage.ObjectStore, loc *time.Location, logger *zap.Logger) *Reader {
	return &Reader{
		store:  store,
		loc:    loc,
		logger: logger,
	}
}

// ReceivedAt returns the message's Date header converted to the business
// timezone. This is the email's originating time, not the processing time.
func (r *Reader) ReceivedAt(ctx context.Context, messageID string) (time.Time, error) {
	msg, err := r.fetch(ctx, messageID)
	if err != nil {
		return time.Time{}, err
	}

	date, err := msg.Header.Date()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse Date header of message %s: %w", messageID, err)
	}

	return date.In(r.loc), nil
}

// Body returns the message's plain-text body. For multipart messages the
// first text/plain part wins.
func (r *Reader) Body(ctx context.Context, messageID string) (string, error) {
	msg, err := r.fetch(ctx, messageID)
	if err != nil {
		return "", err
	}

	contentType := msg.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err == nil && strings.HasPrefix(mediaType, "multipart/") {
		return firstPlainTextPart(msg.Body, params["boundary"])
	}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body of message %s: %w", messageID, err)
	}
	return string(body), nil
}

func (r *Reader) fetch(ctx context.Context, messageID string) (*mail.Message, error) {
	r.logger.Debug("Fetching message from mail store", zap.String("message_id", messageID))

	content, err := r.store.Get(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message %s: %w", messageID, err)
	}

	msg, err := mail.ReadMessage(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message %s: %w", messageID, err)
	}
	return msg, nil
}

func firstPlainTextPart(body io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", fmt.Errorf("multipart message without boundary")
	}

	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return "", fmt.Errorf("no text/plain part found")
		}
		if err != nil {
			return "", fmt.Errorf("failed to read multipart body: %w", err)
		}

		partType, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err == nil && partType == "text/plain" {
			content, err := io.ReadAll(part)
			if err != nil {
				return "", fmt.Errorf("failed to read text part: %w", err)
			}
			return string(content), nil
		}
	}
}
