package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"repo2pipe/internal/analyzer"
	"repo2pipe/internal/render"
)

// ResponseFile is the name the full response is stored under.
const ResponseFile = "response.json"

// Service stores analyzer responses: the JSON document plus every rendered
// template under its conventional file name.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Store returns the backing store.
func (s *Service) Store() Store { return s.store }

// Save assigns resp.RunID and persists the response. On failure RunID is
// cleared.
func (s *Service) Save(ctx context.Context, resp *analyzer.Response) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("results: no store configured")
	}
	if resp == nil {
		return fmt.Errorf("results: response is nil")
	}
	resp.RunID = uuid.NewString()

	for _, name := range render.Targets() {
		text, ok := resp.CITemplates[name]
		if !ok {
			continue
		}
		r, _ := render.Lookup(name)
		if err := s.store.Put(ctx, resp.RunID, r.FileName(), []byte(text)); err != nil {
			resp.RunID = ""
			return err
		}
	}
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		resp.RunID = ""
		return fmt.Errorf("results: encode response: %w", err)
	}
	if err := s.store.Put(ctx, resp.RunID, ResponseFile, data); err != nil {
		resp.RunID = ""
		return err
	}
	return nil
}

// Load returns the stored response for runID.
func (s *Service) Load(ctx context.Context, runID string) (*analyzer.Response, error) {
	data, err := s.store.Get(ctx, runID, ResponseFile)
	if err != nil {
		return nil, err
	}
	var resp analyzer.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("results: decode %s: %w", runID, err)
	}
	return &resp, nil
}

// File returns one stored file of a run.
func (s *Service) File(ctx context.Context, runID, name string) ([]byte, error) {
	return s.store.Get(ctx, runID, name)
}

// Files lists the stored files of a run; an unknown run yields ErrNotFound.
func (s *Service) Files(ctx context.Context, runID string) ([]string, error) {
	names, err := s.store.List(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrNotFound
	}
	return names, nil
}

// IsNotFound reports whether err means the run or file does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
