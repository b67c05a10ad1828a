// Package di provides dependency injection container
package di

import (
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/ssargent/ceoskit/pkg/api" //nolint:depguard
	"github.com/ssargent/ceoskit/pkg/config"
	"github.com/ssargent/ceoskit/pkg/source"
)

// S3ClientFactory builds the S3 client used for s3:// locations
type S3ClientFactory func(cfg source.S3Config) (s3iface.S3API, error)

// Container holds all the dependencies for the application
type Container struct {
	archiveFactory  api.ArchiveFactory
	serverFactory   api.ServerFactory
	s3ClientFactory S3ClientFactory
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		archiveFactory:  api.NewArchiveFactory(),
		serverFactory:   api.NewServerFactory(),
		s3ClientFactory: source.NewS3Client,
	}
}

// GetArchiveFactory returns the archive factory
func (c *Container) GetArchiveFactory() api.ArchiveFactory {
	return c.archiveFactory
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// GetOpener returns an opener for cfg. S3 locations are only readable when
// cfg enables S3.
func (c *Container) GetOpener(cfg *config.Config) (*source.Opener, error) {
	if !cfg.S3.Enabled {
		return source.NewOpener(nil), nil
	}
	client, err := c.s3ClientFactory(cfg.S3Config())
	if err != nil {
		return nil, err
	}
	return source.NewOpener(client), nil
}

// SetArchiveFactory allows overriding the archive factory (for testing)
func (c *Container) SetArchiveFactory(factory api.ArchiveFactory) {
	c.archiveFactory = factory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// SetS3ClientFactory allows overriding the S3 client (for testing)
func (c *Container) SetS3ClientFactory(factory S3ClientFactory) {
	c.s3ClientFactory = factory
}
