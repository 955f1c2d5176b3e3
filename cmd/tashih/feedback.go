package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/hakimlabs/tashih/internal/feedback"
	"github.com/hakimlabs/tashih/pkg/types"
)

// submission is one clinician feedback line. Exactly one of Term or
// Transformation must be present.
type submission struct {
	Transcript     string                  `json:"transcript"`
	Term           *types.StandardizedTerm `json:"term,omitempty"`
	Transformation *types.Transformation   `json:"transformation,omitempty"`
	Verdict        feedback.Verdict        `json:"verdict"`
	Notes          string                  `json:"notes,omitempty"`
}

// collectFeedback reads one JSON submission per line from r and appends each
// to the store. A malformed line is logged and skipped so one bad entry does
// not lose the rest of the batch.
func collectFeedback(store *feedback.FileStore, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var sub submission
		if err := json.Unmarshal(raw, &sub); err != nil {
			slog.Warn("skipping malformed feedback line", "line", line, "err", err)
			continue
		}

		var err error
		switch {
		case sub.Term != nil && sub.Transformation != nil:
			err = fmt.Errorf("line %d: both term and transformation present", line)
		case sub.Term != nil:
			err = store.SaveTermFeedback(sub.Transcript, *sub.Term, sub.Verdict, sub.Notes)
		case sub.Transformation != nil:
			err = store.SaveTransformationFeedback(sub.Transcript, *sub.Transformation, sub.Verdict, sub.Notes)
		default:
			err = fmt.Errorf("line %d: neither term nor transformation present", line)
		}
		if err != nil {
			slog.Warn("skipping feedback line", "line", line, "err", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read feedback: %w", err)
	}
	return nil
}
