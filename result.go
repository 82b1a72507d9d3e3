package main

import (
	"fmt"
	"os"
	"time"
)

// Outcome classifies how a run ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeCategoryUnavailable
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCategoryUnavailable:
		return "category unavailable"
	case OutcomeAborted:
		return "aborted"
	}
	return "unknown"
}

// FlowResult is the single summary a run produces.
type FlowResult struct {
	Outcome   Outcome
	Reference string
	Reason    string
}

// writeResultArtifact records the run outcome next to the binary so the
// payment reference survives the browser being closed. Reference may be
// empty when extraction did not confirm one.
func writeResultArtifact(runID, eventURL, reference string) (string, error) {
	path := fmt.Sprintf("purchase-%s.txt", runID)

	ref := reference
	if ref == "" {
		ref = "(not confirmed, check the open browser)"
	}
	content := fmt.Sprintf("run: %s\ntime: %s\nevent: %s\nreference: %s\n",
		runID, time.Now().Format(time.RFC3339), eventURL, ref)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
