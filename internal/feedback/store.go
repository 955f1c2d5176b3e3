// Package feedback provides a clinician feedback storage layer. Feedback on
// mapped terms and normalization rewrites is stored as append-only JSON
// lines in a local file, to be reviewed when curating the rule tables.
//
// Recording feedback never alters in-process behavior; rule tables stay
// immutable for the life of the process.
package feedback

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hakimlabs/tashih/pkg/types"
)

// Verdict is a clinician's judgement of a pipeline decision.
type Verdict string

const (
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
	VerdictUnsure    Verdict = "unsure"
)

// IsValid reports whether v is a recognised verdict.
func (v Verdict) IsValid() bool {
	switch v {
	case VerdictCorrect, VerdictIncorrect, VerdictUnsure:
		return true
	}
	return false
}

// TermRecord is a single feedback entry on a mapped term.
type TermRecord struct {
	Timestamp  time.Time              `json:"timestamp"`
	Transcript string                 `json:"transcript"`
	Term       types.StandardizedTerm `json:"term"`
	Verdict    Verdict                `json:"verdict"`
	Notes      string                 `json:"notes,omitempty"`
}

// TransformationRecord is a single feedback entry on a normalization rewrite.
type TransformationRecord struct {
	Timestamp      time.Time            `json:"timestamp"`
	Transcript     string               `json:"transcript"`
	Transformation types.Transformation `json:"transformation"`
	Verdict        Verdict              `json:"verdict"`
	Notes          string               `json:"notes,omitempty"`
}

// FileStore persists feedback as JSON lines in a local file.
// Thread-safe for concurrent use.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore that writes to the given path.
// The file is created if it does not exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// SaveTermFeedback appends a term feedback record to the file.
func (fs *FileStore) SaveTermFeedback(transcript string, term types.StandardizedTerm, verdict Verdict, notes string) error {
	if !verdict.IsValid() {
		return fmt.Errorf("feedback: invalid verdict %q", verdict)
	}
	return fs.append(TermRecord{
		Timestamp:  time.Now().UTC(),
		Transcript: transcript,
		Term:       term,
		Verdict:    verdict,
		Notes:      notes,
	})
}

// SaveTransformationFeedback appends a transformation feedback record to the
// file.
func (fs *FileStore) SaveTransformationFeedback(transcript string, t types.Transformation, verdict Verdict, notes string) error {
	if !verdict.IsValid() {
		return fmt.Errorf("feedback: invalid verdict %q", verdict)
	}
	return fs.append(TransformationRecord{
		Timestamp:      time.Now().UTC(),
		Transcript:     transcript,
		Transformation: t,
		Verdict:        verdict,
		Notes:          notes,
	})
}

func (fs *FileStore) append(record any) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

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
