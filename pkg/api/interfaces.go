// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/ssargent/ceoskit/pkg/storage"
)

// ArchiveService is an archive the server can serve and the caller must
// close
type ArchiveService interface {
	IArchive

	// Close releases the underlying database
	Close() error
}

// ArchiveFactory opens archives
type ArchiveFactory interface {
	// OpenArchive opens or creates the archive described by config
	OpenArchive(config storage.ArchiveConfig) (ArchiveService, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves the API until ctx is cancelled
	StartServer(ctx context.Context, archive IArchive, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
