// Package workers provides the client's background jobs: the connectivity
// probe and the periodic sync loop. Workers run until their context is
// cancelled and are managed as one aggregate.
package workers

import "context"

// Worker is a long-running background job. Run blocks until ctx is
// cancelled.
type Worker interface {
	Run(ctx context.Context)
}
