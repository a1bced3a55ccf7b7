// Package feedback handles post-call feedback for practice interview calls.
//
// Scoring a candidate's answers is a separate concern from question
// generation, so the call controller only depends on the [Creator] interface.
// The bundled [FileStore] implementation records finished interview
// transcripts as append-only JSON lines so a scoring job can process them
// later; a full model-driven scorer can replace it without touching the
// controller.
package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/voxprep/voxprep/internal/transcript"
)

// Request carries everything needed to produce feedback for a finished
// practice interview call.
type Request struct {
	// InterviewID identifies the question set the call was conducted against.
	InterviewID string

	// UserID is the candidate the feedback belongs to.
	UserID string

	// Messages is the full finalized transcript of the call.
	Messages []transcript.Message
}

// Creator produces feedback from a finished interview call.
// Implementations must be safe for concurrent use.
type Creator interface {
	// Create processes the finished call. Returns an error if the feedback
	// could not be recorded.
	Create(ctx context.Context, req Request) error
}

// Record is a single transcript entry written to the file store.
type Record struct {
	Timestamp   time.Time            `json:"timestamp"`
	InterviewID string               `json:"interview_id"`
	UserID      string               `json:"user_id"`
	Messages    []transcript.Message `json:"messages"`
}

// FileStore persists finished interview transcripts as JSON lines in a local
// file. Thread-safe for concurrent use.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// Compile-time interface check.
var _ Creator = (*FileStore)(nil)

// NewFileStore creates a FileStore that writes to the given path. An empty
// path defaults to "feedback.jsonl" in the working directory. The file is
// created if it does not exist.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = "feedback.jsonl"
	}
	return &FileStore{path: path}
}

// Create appends the call transcript to the file.
func (fs *FileStore) Create(_ context.Context, req Request) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	record := Record{
		Timestamp:   time.Now().UTC(),
		InterviewID: req.InterviewID,
		UserID:      req.UserID,
		Messages:    req.Messages,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("feedback: marshal: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(fs.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("feedback: open file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("feedback: write: %w", err)
	}
	return nil
}
