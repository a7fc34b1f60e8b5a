package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// uploadBackoff is the fixed pause between upload attempts
const uploadBackoff = 2 * time.Second

// ErrUploadExhausted indicates every upload attempt failed
var ErrUploadExhausted = errors.New("openai: upload attempts exhausted")

// Transport is one way of getting a local file to the provider
type Transport interface {
	// Name identifies the transport in logs
	Name() string
	// Upload sends the file and returns the provider's file id
	Upload(ctx context.Context, path string) (string, error)
}

// multipartTransport uploads with a buffered multipart body
type multipartTransport struct{ client *Client }

func (t *multipartTransport) Name() string { return "multipart" }
func (t *multipartTransport) Upload(ctx context.Context, path string) (string, error) {
	return t.client.UploadFile(ctx, path)
}

// streamedTransport uploads with a streamed multipart body
type streamedTransport struct{ client *Client }

func (t *streamedTransport) Name() string { return "streamed" }
func (t *streamedTransport) Upload(ctx context.Context, path string) (string, error) {
	return t.client.UploadFileStreamed(ctx, path)
}

// sessionTransport uploads through an upload session with raw bytes
type sessionTransport struct{ client *Client }

func (t *sessionTransport) Name() string { return "session" }
func (t *sessionTransport) Upload(ctx context.Context, path string) (string, error) {
	return t.client.UploadFileViaSession(ctx, path)
}

// DefaultTransports returns the ordered transport list the uploader cycles
// through: buffered multipart first, then streamed, then session-based.
func DefaultTransports(client *Client) []Transport {
	return []Transport{
		&multipartTransport{client: client},
		&streamedTransport{client: client},
		&sessionTransport{client: client},
	}
}

// Uploader retries file uploads round-robin across its transports, so a
// transport-specific failure mode does not burn the whole attempt budget.
type Uploader struct {
	transports []Transport
	attempts   int
	logger     *zap.Logger
	sleep      func(time.Duration)
}

// NewUploader creates a new Uploader over the given transports.
// attempts is the total attempt budget per file, not per transport.
func NewUploader(transports []Transport, attempts int, logger *zap.Logger) *Uploader {
	if attempts <= 0 {
		attempts = 3
	}
	return &Uploader{
		transports: transports,
		attempts:   attempts,
		logger:     logger.Named("uploader"),
		sleep:      time.Sleep,
	}
}

// Upload sends a file, cycling through the transports until one succeeds
// or the attempt budget is exhausted.
func (u *Uploader) Upload(ctx context.Context, path string) (string, error) {
	if len(u.transports) == 0 {
		return "", fmt.Errorf("%w: no transports configured", ErrUploadExhausted)
	}

	var lastErr error
	for attempt := 0; attempt < u.attempts; attempt++ {
		transport := u.transports[attempt%len(u.transports)]

		fileID, err := transport.Upload(ctx, path)
		if err == nil {
			u.logger.Info("file uploaded",
				zap.String("path", path),
				zap.String("transport", transport.Name()),
				zap.String("file_id", fileID),
			)
			return fileID, nil
		}
		lastErr = err
		u.logger.Warn("upload attempt failed",
			zap.String("path", path),
			zap.String("transport", transport.Name()),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		if attempt < u.attempts-1 {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			u.sleep(uploadBackoff)
		}
	}
	return "", fmt.Errorf("%w after %d attempts: %v", ErrUploadExhausted, u.attempts, lastErr)
}
