package openai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTransport struct {
	name  string
	calls int
	errs  []error
	id    string
}

func (f *fakeTransport) Name() string { return f.name }

func (f *fakeTransport) Upload(context.Context, string) (string, error) {
	call := f.calls
	f.calls++
	if call < len(f.errs) && f.errs[call] != nil {
		return "", f.errs[call]
	}
	return f.id, nil
}

func newTestUploader(attempts int, transports ...Transport) (*Uploader, *int) {
	u := NewUploader(transports, attempts, zap.NewNop())
	sleeps := 0
	u.sleep = func(d time.Duration) {
		sleeps++
	}
	return u, &sleeps
}

func TestUploader_FirstTransportSucceeds(t *testing.T) {
	first := &fakeTransport{name: "multipart", id: "file-1"}
	second := &fakeTransport{name: "streamed", id: "file-2"}
	uploader, sleeps := newTestUploader(3, first, second)

	fileID, err := uploader.Upload(context.Background(), "orders.csv")
	require.NoError(t, err)

	assert.Equal(t, "file-1", fileID)
	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls)
	assert.Zero(t, *sleeps)
}

func TestUploader_RoundRobinOnFailure(t *testing.T) {
	boom := errors.New("connection reset")
	first := &fakeTransport{name: "multipart", errs: []error{boom}}
	second := &fakeTransport{name: "streamed", id: "file-2"}
	third := &fakeTransport{name: "session", id: "file-3"}
	uploader, sleeps := newTestUploader(3, first, second, third)

	fileID, err := uploader.Upload(context.Background(), "orders.csv")
	require.NoError(t, err)

	assert.Equal(t, "file-2", fileID)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Zero(t, third.calls)
	assert.Equal(t, 1, *sleeps)
}

func TestUploader_WrapsAroundTransportList(t *testing.T) {
	boom := errors.New("boom")
	only := &fakeTransport{name: "multipart", errs: []error{boom, boom}, id: "file-late"}
	uploader, sleeps := newTestUploader(3, only)

	fileID, err := uploader.Upload(context.Background(), "orders.csv")
	require.NoError(t, err)

	assert.Equal(t, "file-late", fileID)
	assert.Equal(t, 3, only.calls)
	assert.Equal(t, 2, *sleeps)
}

func TestUploader_Exhaustion(t *testing.T) {
	boom := errors.New("always down")
	first := &fakeTransport{name: "multipart", errs: []error{boom, boom, boom}}
	second := &fakeTransport{name: "streamed", errs: []error{boom, boom, boom}}
	uploader, sleeps := newTestUploader(3, first, second)

	_, err := uploader.Upload(context.Background(), "orders.csv")
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrUploadExhausted)
	assert.Contains(t, err.Error(), "always down")
	assert.Equal(t, 2, first.calls)
	assert.Equal(t, 1, second.calls)
	// no backoff after the final attempt
	assert.Equal(t, 2, *sleeps)
}

func TestUploader_NoTransports(t *testing.T) {
	uploader, _ := newTestUploader(3)
	_, err := uploader.Upload(context.Background(), "orders.csv")
	assert.ErrorIs(t, err, ErrUploadExhausted)
}
