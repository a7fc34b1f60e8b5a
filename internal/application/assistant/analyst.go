// Package assistant drives the provider-side analyst: it owns the lifecycle
// of the uploaded knowledge files, the assistant and its conversation
// thread, and answers questions by running the assistant against the thread.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	assistantdomain "github.com/shopsync/backend/internal/domain/assistant"
	"github.com/shopsync/backend/internal/infrastructure/openai"
	"go.uber.org/zap"
)

const (
	// pollInterval and maxPollAttempts bound run polling: 30 polls at 3 s
	// gives a run 90 s to finish before the caller gets a timeout.
	pollInterval    = 3 * time.Second
	maxPollAttempts = 30

	analystName         = "Order Analyst"
	analystInstructions = "You are a data analyst for an ecommerce store. " +
		"Use the attached CSV exports of orders and products to answer questions " +
		"about sales, revenue, customers and inventory. Prefer concrete numbers " +
		"computed from the data over estimates."
)

var (
	// ErrNotConfigured indicates Ask was called before any knowledge setup
	ErrNotConfigured = errors.New("assistant: no assistant configured")
	// ErrRunTimeout indicates a run did not reach a terminal state in time
	ErrRunTimeout = errors.New("assistant: run polling timed out")
)

// ProviderAPI is the slice of the provider client the analyst needs
type ProviderAPI interface {
	CreateVectorStore(ctx context.Context, name string, fileIDs []string) (string, error)
	CreateAssistant(ctx context.Context, name, instructions, vectorStoreID string) (string, error)
	UpdateAssistantVectorStore(ctx context.Context, assistantID, vectorStoreID string) error
	CreateThread(ctx context.Context) (string, error)
	CreateMessage(ctx context.Context, threadID, role, content string) error
	CreateRun(ctx context.Context, threadID, assistantID string) (string, error)
	GetRun(ctx context.Context, threadID, runID string) (*openai.Run, error)
	LatestMessage(ctx context.Context, threadID string) (string, error)
	DeleteFile(ctx context.Context, fileID string) error
	DeleteAssistant(ctx context.Context, assistantID string) error
}

// Uploader sends local files to the provider
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

// Analyst is the order analyst session. Its identity survives restarts via
// the durable store; the thread id additionally survives via the cache.
type Analyst struct {
	provider ProviderAPI
	uploader Uploader
	durable  assistantdomain.IdentityStore
	cache    assistantdomain.IdentityStore
	logger   *zap.Logger
	sleep    func(time.Duration)

	mu sync.Mutex
	id assistantdomain.Identity
}

// NewAnalyst creates an Analyst, recovering its identity with the standard
// priority: explicit constructor ids, then the durable store, then the cache.
func NewAnalyst(
	ctx context.Context,
	provider ProviderAPI,
	uploader Uploader,
	durable, cache assistantdomain.IdentityStore,
	explicit assistantdomain.Identity,
	logger *zap.Logger,
) *Analyst {
	a := &Analyst{
		provider: provider,
		uploader: uploader,
		durable:  durable,
		cache:    cache,
		logger:   logger.Named("analyst"),
		sleep:    time.Sleep,
	}

	durableID, err := durable.Load(ctx, assistantdomain.SessionTypeOrderAnalyst)
	if err != nil && !errors.Is(err, assistantdomain.ErrIdentityNotFound) {
		a.logger.Warn("durable identity load failed", zap.Error(err))
	}
	cachedID, err := cache.Load(ctx, assistantdomain.SessionTypeOrderAnalyst)
	if err != nil && !errors.Is(err, assistantdomain.ErrIdentityNotFound) {
		a.logger.Warn("cached identity load failed", zap.Error(err))
	}

	a.id = assistantdomain.Resolve(explicit, durableID, cachedID)
	if a.id.Complete() {
		a.logger.Info("analyst identity recovered",
			zap.String("assistant_id", a.id.AssistantID),
			zap.Bool("has_thread", a.id.ThreadID != ""),
		)
	}
	return a
}

// Identity returns a copy of the current identity
func (a *Analyst) Identity() assistantdomain.Identity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.id
}

// Setup uploads the knowledge files and creates the provider resources for
// a fresh analyst. It is the same operation as UpdateKnowledge; the split
// names the two call sites.
func (a *Analyst) Setup(ctx context.Context, paths []string) error {
	return a.UpdateKnowledge(ctx, paths)
}

// UpdateKnowledge uploads the given files (aborting on the first failure),
// binds them to a new vector store, and either creates the assistant or
// repoints the existing one. The resulting identity is persisted durably
// and cached.
func (a *Analyst) UpdateKnowledge(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return errors.New("assistant: no knowledge files given")
	}

	fileIDs := make([]string, 0, len(paths))
	for _, path := range paths {
		fileID, err := a.uploader.Upload(ctx, path)
		if err != nil {
			return fmt.Errorf("assistant: upload %s: %w", path, err)
		}
		fileIDs = append(fileIDs, fileID)
	}

	storeID, err := a.provider.CreateVectorStore(ctx, analystName, fileIDs)
	if err != nil {
		return fmt.Errorf("assistant: create vector store: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.id.AssistantID == "" {
		assistantID, err := a.provider.CreateAssistant(ctx, analystName, analystInstructions, storeID)
		if err != nil {
			return fmt.Errorf("assistant: create assistant: %w", err)
		}
		a.id.AssistantID = assistantID
	} else {
		if err := a.provider.UpdateAssistantVectorStore(ctx, a.id.AssistantID, storeID); err != nil {
			return fmt.Errorf("assistant: update assistant: %w", err)
		}
	}
	a.id.FileID = fileIDs[0]

	return a.persistIdentity(ctx)
}

// EnsureThread creates the conversation thread if none exists yet
func (a *Analyst) EnsureThread(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ensureThreadLocked(ctx)
}

func (a *Analyst) ensureThreadLocked(ctx context.Context) (string, error) {
	if a.id.ThreadID != "" {
		return a.id.ThreadID, nil
	}

	threadID, err := a.provider.CreateThread(ctx)
	if err != nil {
		return "", fmt.Errorf("assistant: create thread: %w", err)
	}
	a.id.ThreadID = threadID

	if err := a.persistIdentity(ctx); err != nil {
		return "", err
	}
	return threadID, nil
}

// Ask posts a question to the thread, runs the assistant and polls until
// the run finishes, returning the assistant's answer.
func (a *Analyst) Ask(ctx context.Context, question string) (string, error) {
	a.mu.Lock()
	if a.id.AssistantID == "" {
		a.mu.Unlock()
		return "", ErrNotConfigured
	}
	assistantID := a.id.AssistantID

	threadID, err := a.ensureThreadLocked(ctx)
	a.mu.Unlock()
	if err != nil {
		return "", err
	}

	if err := a.provider.CreateMessage(ctx, threadID, "user", question); err != nil {
		return "", fmt.Errorf("assistant: post question: %w", err)
	}
	runID, err := a.provider.CreateRun(ctx, threadID, assistantID)
	if err != nil {
		return "", fmt.Errorf("assistant: start run: %w", err)
	}

	for attempt := 0; attempt < maxPollAttempts; attempt++ {
		run, err := a.provider.GetRun(ctx, threadID, runID)
		if err != nil {
			return "", fmt.Errorf("assistant: poll run: %w", err)
		}

		if run.Terminal() {
			if run.Status != openai.RunStatusCompleted {
				message := run.Status
				if run.LastError != nil && run.LastError.Message != "" {
					message = run.LastError.Message
				}
				return "", fmt.Errorf("assistant: run %s: %s", run.Status, message)
			}
			answer, err := a.provider.LatestMessage(ctx, threadID)
			if err != nil {
				return "", fmt.Errorf("assistant: read answer: %w", err)
			}
			return answer, nil
		}

		if attempt < maxPollAttempts-1 {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			a.sleep(pollInterval)
		}
	}
	return "", ErrRunTimeout
}

// Cleanup deletes the provider-side resources best-effort and clears the
// cached identity. When removeDurable is set, the durable row is also
// cleared, but only if it still matches this session's ids.
func (a *Analyst) Cleanup(ctx context.Context, removeDurable bool) error {
	a.mu.Lock()
	id := a.id
	a.id = assistantdomain.Identity{}
	a.mu.Unlock()

	if id.AssistantID != "" {
		if err := a.provider.DeleteAssistant(ctx, id.AssistantID); err != nil {
			a.logger.Warn("assistant deletion failed", zap.String("assistant_id", id.AssistantID), zap.Error(err))
		}
	}
	if id.FileID != "" {
		if err := a.provider.DeleteFile(ctx, id.FileID); err != nil {
			a.logger.Warn("file deletion failed", zap.String("file_id", id.FileID), zap.Error(err))
		}
	}

	if err := a.cache.Clear(ctx, assistantdomain.SessionTypeOrderAnalyst); err != nil {
		a.logger.Warn("cache clear failed", zap.Error(err))
	}

	if !removeDurable {
		return nil
	}
	stored, err := a.durable.Load(ctx, assistantdomain.SessionTypeOrderAnalyst)
	if err != nil {
		if errors.Is(err, assistantdomain.ErrIdentityNotFound) {
			return nil
		}
		return err
	}
	if stored.FileID == id.FileID && stored.AssistantID == id.AssistantID {
		return a.durable.Clear(ctx, assistantdomain.SessionTypeOrderAnalyst)
	}
	return nil
}

// persistIdentity writes the current identity to both stores. Callers must
// hold the mutex. Only the cache retains the thread id.
func (a *Analyst) persistIdentity(ctx context.Context) error {
	if err := a.durable.Save(ctx, assistantdomain.SessionTypeOrderAnalyst, a.id); err != nil {
		return fmt.Errorf("assistant: persist identity: %w", err)
	}
	if err := a.cache.Save(ctx, assistantdomain.SessionTypeOrderAnalyst, a.id); err != nil {
		a.logger.Warn("identity cache write failed", zap.Error(err))
	}
	return nil
}
