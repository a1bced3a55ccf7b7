package feedback

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/voxprep/voxprep/internal/transcript"
)

func TestFileStoreCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.jsonl")
	fs := NewFileStore(path)

	req := Request{
		InterviewID: "iv-1",
		UserID:      "u1",
		Messages: []transcript.Message{
			{Role: "assistant", Content: "Tell me about yourself."},
			{Role: "user", Content: "I build web apps."},
		},
	}
	if err := fs.Create(context.Background(), req); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := fs.Create(context.Background(), Request{InterviewID: "iv-2", UserID: "u2"}); err != nil {
		t.Fatalf("second Create() error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].InterviewID != "iv-1" || len(records[0].Messages) != 2 {
		t.Fatalf("record = %+v", records[0])
	}
	if records[0].Timestamp.IsZero() {
		t.Fatal("Timestamp not set")
	}
}
