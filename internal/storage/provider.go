// Package storage archives finished export artifacts to a secondary
// destination (a local directory or an S3 bucket). Exports are always
// written to the local filesystem first; providers copy the finished
// files, they never stream partial output.
package storage

import "context"

// Provider stores one finished artifact under a key.
type Provider interface {
	// Save stores the file at path under key. Keys may contain slashes.
	Save(ctx context.Context, key, path string) error
}
