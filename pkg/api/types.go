package api

//go:generate mockgen -destination=./mock_archive.go -package=api . IArchive

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/ssargent/ceoskit/pkg/codec"
	"github.com/ssargent/ceoskit/pkg/leader"
	"github.com/ssargent/ceoskit/pkg/leaderfile"
	"github.com/ssargent/ceoskit/pkg/storage"
)

// DefaultMaxUploadSize bounds the body of decode and ingest requests.
const DefaultMaxUploadSize = 64 << 20

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// LayoutSummary describes one layout in the catalog listing
type LayoutSummary struct {
	Name string `json:"name"`
	Key  string `json:"key,omitempty"` // only set for top-level record types
	Size int    `json:"size"`
}

// LayoutDetail is a layout with its flattened field table
type LayoutDetail struct {
	LayoutSummary
	Fields []leader.FieldInfo `json:"fields"`
}

// DecodeResponse is returned by the decode endpoint
type DecodeResponse struct {
	Records  []*leader.Record `json:"records"`
	Counts   map[string]int   `json:"counts"`
	Warnings []string         `json:"warnings,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind          string
	Port          int
	APIKey        string
	Mode          codec.Mode // default decode mode, overridden by ?mode=
	MaxRecordSize int        // defaults to leaderfile.DefaultMaxRecordSize
	MaxUploadSize int64      // defaults to DefaultMaxUploadSize
	Catalog       *leader.Catalog
	Logger        logrus.FieldLogger
	Registry      *prometheus.Registry // metrics registry served on /metrics
}

// IArchive defines the archive operations the API serves
type IArchive interface {
	Ingest(ctx context.Context, location string, r *leaderfile.Reader) (*storage.Scan, error)
	ListScans(ctx context.Context) ([]storage.Scan, error)
	GetScan(id string) (*storage.Scan, error)
	GetRecord(id string, index int) (*leader.Record, error)
	DeleteScan(id string) error
}
