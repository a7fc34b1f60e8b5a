package openai

// File is the provider's file object
type File struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Bytes    int64  `json:"bytes"`
	Purpose  string `json:"purpose"`
}

// UploadSession is an in-progress upload created ahead of the raw bytes
type UploadSession struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Filename string `json:"filename"`
}

// VectorStore is the provider's vector store object
type VectorStore struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Assistant is the provider's assistant object
type Assistant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model"`
}

// Thread is the provider's conversation thread object
type Thread struct {
	ID string `json:"id"`
}

// Run states reported by the provider
const (
	RunStatusQueued     = "queued"
	RunStatusInProgress = "in_progress"
	RunStatusCompleted  = "completed"
	RunStatusFailed     = "failed"
	RunStatusCancelled  = "cancelled"
	RunStatusExpired    = "expired"
)

// Run is the provider's run object
type Run struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	LastError *RunError `json:"last_error"`
}

// Terminal reports whether polling should stop. Only queued and in_progress
// mean the run is still moving; anything else (including requires_action,
// which no configured tool can answer) is final for this client.
func (r *Run) Terminal() bool {
	switch r.Status {
	case RunStatusQueued, RunStatusInProgress:
		return false
	}
	return true
}

// RunError carries the provider's failure detail for a run
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Message is the provider's thread message object
type Message struct {
	ID      string           `json:"id"`
	Role    string           `json:"role"`
	Content []MessageContent `json:"content"`
}

// MessageContent is one segment of a message: text or an image reference
type MessageContent struct {
	Type string       `json:"type"`
	Text *MessageText `json:"text,omitempty"`
}

// MessageText is the text payload of a message segment
type MessageText struct {
	Value string `json:"value"`
}

// messageList is the envelope of the list-messages endpoint
type messageList struct {
	Data []Message `json:"data"`
}

// apiError is the provider's error envelope
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
