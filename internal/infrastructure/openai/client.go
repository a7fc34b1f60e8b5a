package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response

	// assistantsBetaHeader opts requests into the Assistants v2 API surface
	assistantsBetaHeader = "assistants=v2"

	// filePurpose marks uploaded files as assistant knowledge
	filePurpose = "assistants"
)

// ErrRequestFailed indicates the provider returned a non-success status
var ErrRequestFailed = errors.New("openai: request failed")

// Client is an OpenAI Assistants API client covering the endpoints the
// analyst assistant needs: files, vector stores, assistants, threads and runs.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new OpenAI API client
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger.Named("openai"),
	}, nil
}

// Model returns the configured assistant model
func (c *Client) Model() string {
	return c.config.Model
}

// do performs a request with auth and beta headers set, decoding the JSON
// response into out when it is non-nil.
func (c *Client) do(ctx context.Context, method, rawURL string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("openai: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("OpenAI-Beta", assistantsBetaHeader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai: request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("openai: read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("%w: %s %s returned %d: %s",
				ErrRequestFailed, method, redactURL(rawURL), resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("%w: %s %s returned %d",
			ErrRequestFailed, method, redactURL(rawURL), resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("openai: decode response: %w", err)
		}
	}
	return nil
}

// doJSON marshals payload as a JSON body and performs the request
func (c *Client) doJSON(ctx context.Context, method, rawURL string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("openai: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, method, rawURL, body, "application/json", out)
}

// UploadFile uploads a file with a fully buffered multipart body
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("openai: open file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("purpose", filePurpose); err != nil {
		return "", fmt.Errorf("openai: write multipart field: %w", err)
	}
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("openai: create multipart part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("openai: buffer file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("openai: finish multipart body: %w", err)
	}

	var file File
	if err := c.do(ctx, http.MethodPost, c.config.BaseURL+"/files", &buf, writer.FormDataContentType(), &file); err != nil {
		return "", err
	}
	return file.ID, nil
}

// UploadFileStreamed uploads a file with a streamed multipart body, keeping
// memory flat regardless of file size.
func (c *Client) UploadFileStreamed(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("openai: open file: %w", err)
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		defer f.Close()
		if err := writer.WriteField("purpose", filePurpose); err != nil {
			pw.CloseWithError(err)
			return
		}
		part, err := writer.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	var file File
	if err := c.do(ctx, http.MethodPost, c.config.BaseURL+"/files", pr, writer.FormDataContentType(), &file); err != nil {
		return "", err
	}
	return file.ID, nil
}

// UploadFileViaSession creates an upload session and then PUTs the raw
// bytes against it, returning the resulting file id.
func (c *Client) UploadFileViaSession(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("openai: stat file: %w", err)
	}

	var session UploadSession
	err = c.doJSON(ctx, http.MethodPost, c.config.UploadBaseURL+"/uploads", map[string]any{
		"filename": filepath.Base(path),
		"purpose":  filePurpose,
		"bytes":    info.Size(),
	}, &session)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("openai: open file: %w", err)
	}
	defer f.Close()

	var file File
	contentURL := fmt.Sprintf("%s/uploads/%s/content", c.config.UploadBaseURL, session.ID)
	if err := c.do(ctx, http.MethodPut, contentURL, f, "application/octet-stream", &file); err != nil {
		return "", err
	}
	return file.ID, nil
}

// CreateVectorStore creates a vector store holding the given files
func (c *Client) CreateVectorStore(ctx context.Context, name string, fileIDs []string) (string, error) {
	var store VectorStore
	err := c.doJSON(ctx, http.MethodPost, c.config.BaseURL+"/vector_stores", map[string]any{
		"name":     name,
		"file_ids": fileIDs,
	}, &store)
	if err != nil {
		return "", err
	}
	return store.ID, nil
}

// CreateAssistant creates an assistant with code_interpreter and file_search
// tools, bound to the given vector store.
func (c *Client) CreateAssistant(ctx context.Context, name, instructions, vectorStoreID string) (string, error) {
	var assistant Assistant
	err := c.doJSON(ctx, http.MethodPost, c.config.BaseURL+"/assistants", map[string]any{
		"name":         name,
		"instructions": instructions,
		"model":        c.config.Model,
		"tools": []map[string]string{
			{"type": "code_interpreter"},
			{"type": "file_search"},
		},
		"tool_resources": map[string]any{
			"file_search": map[string]any{
				"vector_store_ids": []string{vectorStoreID},
			},
		},
	}, &assistant)
	if err != nil {
		return "", err
	}
	return assistant.ID, nil
}

// UpdateAssistantVectorStore repoints an existing assistant at a new vector store
func (c *Client) UpdateAssistantVectorStore(ctx context.Context, assistantID, vectorStoreID string) error {
	return c.doJSON(ctx, http.MethodPost, c.config.BaseURL+"/assistants/"+assistantID, map[string]any{
		"tool_resources": map[string]any{
			"file_search": map[string]any{
				"vector_store_ids": []string{vectorStoreID},
			},
		},
	}, nil)
}

// CreateThread creates an empty conversation thread
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	var thread Thread
	if err := c.doJSON(ctx, http.MethodPost, c.config.BaseURL+"/threads", map[string]any{}, &thread); err != nil {
		return "", err
	}
	return thread.ID, nil
}

// CreateMessage appends a message to a thread
func (c *Client) CreateMessage(ctx context.Context, threadID, role, content string) error {
	return c.doJSON(ctx, http.MethodPost, c.config.BaseURL+"/threads/"+threadID+"/messages", map[string]any{
		"role":    role,
		"content": content,
	}, nil)
}

// CreateRun starts a run of the assistant against a thread
func (c *Client) CreateRun(ctx context.Context, threadID, assistantID string) (string, error) {
	var run Run
	err := c.doJSON(ctx, http.MethodPost, c.config.BaseURL+"/threads/"+threadID+"/runs", map[string]any{
		"assistant_id": assistantID,
	}, &run)
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// GetRun fetches the current state of a run
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var run Run
	url := fmt.Sprintf("%s/threads/%s/runs/%s", c.config.BaseURL, threadID, runID)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// LatestMessage returns the newest message in a thread with its text
// segments concatenated; image segments render as an "[image]" marker.
func (c *Client) LatestMessage(ctx context.Context, threadID string) (string, error) {
	var list messageList
	url := fmt.Sprintf("%s/threads/%s/messages?limit=1&order=desc", c.config.BaseURL, threadID)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &list); err != nil {
		return "", err
	}
	if len(list.Data) == 0 {
		return "", nil
	}

	var parts []string
	for _, segment := range list.Data[0].Content {
		switch {
		case segment.Type == "text" && segment.Text != nil:
			parts = append(parts, segment.Text.Value)
		case strings.HasPrefix(segment.Type, "image"):
			parts = append(parts, "[image]")
		}
	}
	return strings.Join(parts, "\n"), nil
}

// DeleteFile deletes an uploaded file
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	return c.doJSON(ctx, http.MethodDelete, c.config.BaseURL+"/files/"+fileID, nil, nil)
}

// DeleteAssistant deletes an assistant
func (c *Client) DeleteAssistant(ctx context.Context, assistantID string) error {
	return c.doJSON(ctx, http.MethodDelete, c.config.BaseURL+"/assistants/"+assistantID, nil, nil)
}

// redactURL strips query parameters from a URL for error messages
func redactURL(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
