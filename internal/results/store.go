// Package results persists analysis responses and their rendered CI files,
// keyed by run id.
package results

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store holds named blobs per run.
type Store interface {
	Put(ctx context.Context, runID, name string, content []byte) error
	Get(ctx context.Context, runID, name string) ([]byte, error)
	List(ctx context.Context, runID string) ([]string, error)
}

var (
	ErrNotFound   = errors.New("results: not found")
	ErrInvalidKey = errors.New("results: invalid key")
)

func checkKey(runID, name string) (string, string, error) {
	runID = strings.TrimSpace(runID)
	name = strings.TrimSpace(name)
	if err := checkRunID(runID); err != nil {
		return "", "", err
	}
	if name == "" {
		return "", "", fmt.Errorf("%w: name is required", ErrInvalidKey)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", "", fmt.Errorf("%w: name %q", ErrInvalidKey, name)
	}
	return runID, name, nil
}

func checkRunID(runID string) error {
	if runID == "" {
		return fmt.Errorf("%w: run_id is required", ErrInvalidKey)
	}
	if strings.ContainsAny(runID, `/\`) || strings.Contains(runID, "..") {
		return fmt.Errorf("%w: run_id %q", ErrInvalidKey, runID)
	}
	return nil
}
