package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/ssargent/ceoskit/pkg/codec"
	"github.com/ssargent/ceoskit/pkg/leader"
	"github.com/ssargent/ceoskit/pkg/leaderfile"
	"github.com/ssargent/ceoskit/pkg/logging"
	"github.com/ssargent/ceoskit/pkg/storage"
)

// Server holds the API server state
type Server struct {
	archive IArchive
	catalog *leader.Catalog
	config  ServerConfig
	metrics *Metrics
	log     logrus.FieldLogger
}

// NewServer creates a new API server. A nil archive disables the scan
// endpoints.
func NewServer(archive IArchive, config ServerConfig, metrics *Metrics) *Server {
	if config.Catalog == nil {
		config.Catalog = leader.RadarsatCatalog()
	}
	if config.MaxRecordSize <= 0 {
		config.MaxRecordSize = leaderfile.DefaultMaxRecordSize
	}
	if config.MaxUploadSize <= 0 {
		config.MaxUploadSize = DefaultMaxUploadSize
	}
	if config.Logger == nil {
		config.Logger = logging.Discard()
	}
	return &Server{
		archive: archive,
		catalog: config.Catalog,
		config:  config,
		metrics: metrics,
		log:     config.Logger,
	}
}

// handleHealth returns the health status of the API
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleListLayouts lists every layout the catalog knows, nested ones
// included
func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	keys := make(map[string]leader.Key)
	for _, e := range s.catalog.Entries() {
		keys[e.Layout.Name()] = e.Key
	}

	layouts := []LayoutSummary{}
	for _, name := range s.catalog.Layouts() {
		l, _ := s.catalog.FindLayout(name)
		layouts = append(layouts, s.summarize(l, keys))
	}
	sendSuccess(w, layouts)
}

// handleGetLayout returns the field table of one layout
func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	l, ok := s.catalog.FindLayout(name)
	if !ok {
		sendError(w, fmt.Sprintf("Layout %q not found", name), http.StatusNotFound)
		return
	}

	keys := make(map[string]leader.Key)
	if e, ok := s.catalog.ByName(name); ok {
		keys[name] = e.Key
	}
	sendSuccess(w, LayoutDetail{
		LayoutSummary: s.summarize(l, keys),
		Fields:        leader.Describe(l),
	})
}

func (s *Server) summarize(l *codec.Layout, keys map[string]leader.Key) LayoutSummary {
	summary := LayoutSummary{Name: l.Name(), Size: l.Size()}
	if k, ok := keys[l.Name()]; ok {
		summary.Key = k.String()
	}
	return summary
}

// handleDecode decodes the leader file in the request body. The mode query
// parameter (strict or lenient) overrides the server default and type
// keeps only records of one type.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	mode, err := s.requestMode(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	reader := s.newReader(body, mode)
	filter := r.URL.Query().Get("type")
	resp := DecodeResponse{
		Records: []*leader.Record{},
		Counts:  make(map[string]int),
	}
	for {
		rec, err := reader.ReadNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.metrics.RecordDecodeError(err)
			s.log.WithError(err).Warn("decode request failed")
			sendError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		s.metrics.RecordDecoded(rec)
		resp.Counts[rec.Name()]++
		if filter == "" || filter == rec.Name() {
			resp.Records = append(resp.Records, rec)
		}
	}

	warnings := reader.Warnings()
	s.metrics.RecordDecodeWarnings(len(warnings))
	for _, warning := range warnings {
		resp.Warnings = append(resp.Warnings, warning.Error())
	}
	sendSuccess(w, resp)
}

// handleIngest archives the leader file in the request body. The source
// query parameter labels the scan.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if !s.archiveEnabled(w) {
		return
	}
	mode, err := s.requestMode(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "upload"
	}

	start := time.Now()
	scan, err := s.archive.Ingest(r.Context(), source, s.newReader(body, mode))
	s.metrics.RecordArchiveOperation("ingest", err == nil, time.Since(start))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			sendError(w, "Request cancelled", http.StatusRequestTimeout)
			return
		}
		s.metrics.RecordDecodeError(err)
		sendError(w, fmt.Sprintf("Failed to ingest: %v", err), http.StatusUnprocessableEntity)
		return
	}
	sendSuccess(w, scan)
}

// handleListScans lists the archived scans, oldest first
func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	if !s.archiveEnabled(w) {
		return
	}
	start := time.Now()
	scans, err := s.archive.ListScans(r.Context())
	s.metrics.RecordArchiveOperation("list", err == nil, time.Since(start))
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to list scans: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, scans)
}

// handleGetScan returns one scan summary
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	if !s.archiveEnabled(w) {
		return
	}
	id := chi.URLParam(r, "id")
	start := time.Now()
	scan, err := s.archive.GetScan(id)
	s.metrics.RecordArchiveOperation("get_scan", err == nil, time.Since(start))
	if err != nil {
		sendArchiveError(w, err)
		return
	}
	sendSuccess(w, scan)
}

// handleGetRecord returns one decoded record of a scan
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	if !s.archiveEnabled(w) {
		return
	}
	id := chi.URLParam(r, "id")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		sendError(w, "Record index must be a non-negative integer", http.StatusBadRequest)
		return
	}

	start := time.Now()
	rec, err := s.archive.GetRecord(id, index)
	s.metrics.RecordArchiveOperation("get_record", err == nil, time.Since(start))
	if err != nil {
		sendArchiveError(w, err)
		return
	}
	s.metrics.RecordDecoded(rec)
	sendSuccess(w, rec)
}

// handleDeleteScan removes a scan and its records
func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	if !s.archiveEnabled(w) {
		return
	}
	id := chi.URLParam(r, "id")
	start := time.Now()
	err := s.archive.DeleteScan(id)
	s.metrics.RecordArchiveOperation("delete", err == nil, time.Since(start))
	if err != nil {
		sendArchiveError(w, err)
		return
	}
	sendSuccess(w, map[string]string{"status": "deleted", "id": id})
}

func (s *Server) archiveEnabled(w http.ResponseWriter) bool {
	if s.archive == nil {
		sendError(w, "Archive is not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) requestMode(r *http.Request) (codec.Mode, error) {
	switch m := r.URL.Query().Get("mode"); m {
	case "":
		return s.config.Mode, nil
	case "strict":
		return codec.Strict, nil
	case "lenient":
		return codec.Lenient, nil
	default:
		return s.config.Mode, fmt.Errorf("unknown mode %q (want strict or lenient)", m)
	}
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxUploadSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	if len(body) == 0 {
		sendError(w, "Request body is empty", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func (s *Server) newReader(body []byte, mode codec.Mode) *leaderfile.Reader {
	return leaderfile.NewStreamReader(bytes.NewReader(body), leaderfile.ReaderConfig{
		Catalog:       s.catalog,
		Mode:          mode,
		MaxRecordSize: s.config.MaxRecordSize,
		Logger:        s.log,
	})
}

// sendArchiveError maps archive errors to HTTP status codes
func sendArchiveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrScanNotFound), errors.Is(err, storage.ErrRecordNotFound):
		sendError(w, err.Error(), http.StatusNotFound)
	default:
		sendError(w, err.Error(), http.StatusInternalServerError)
	}
}
