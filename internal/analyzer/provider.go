package analyzer

import (
	"context"

	"repo2pipe/internal/repo"
)

// RepoProvider adapts repo.Provider to Provider.
type RepoProvider struct {
	*repo.Provider
}

func (p RepoProvider) Acquire(ctx context.Context, locator, branch string) (Checkout, error) {
	ws, err := p.Provider.Acquire(ctx, locator, branch)
	if err != nil {
		return nil, err
	}
	return ws, nil
}
