package footage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reel/internal/catalog"
	"reel/internal/config"
	"reel/internal/contenthash"
	"reel/internal/fileutil"
	"reel/internal/logging"
	"reel/internal/media"
	"reel/internal/metrics"
	"reel/internal/preview"
	"reel/internal/services"
	"reel/internal/textutil"
)

// Store is the catalog surface the lifecycle manager needs.
type Store interface {
	CreateFootage(ctx context.Context, f *catalog.Footage) error
	GetFootage(ctx context.Context, id int64) (*catalog.Footage, error)
	ListFootage(ctx context.Context, filter catalog.LoggedFilter) ([]*catalog.Footage, error)
	UpdateFootageDetails(ctx context.Context, id int64, notes string, logged bool) error
	ApplyContent(ctx context.Context, id int64, expectedHash string, update catalog.ContentUpdate) error
	DeleteFootage(ctx context.Context, id int64) error
	PreviewReferences(ctx context.Context, preview string, excludeID int64) (int, error)
}

// Prober extracts stream facts from a media file.
type Prober interface {
	Probe(ctx context.Context, path, contentHash string) (media.MediaInfo, error)
}

// Renderer produces preview artifacts.
type Renderer interface {
	Generate(ctx context.Context, sourcePath, contentHash string, info media.MediaInfo) (*preview.Artifact, error)
}

// Outcome describes what a reconcile did.
type Outcome struct {
	FootageID int64
	Changed   bool
	Hash      string
	Info      media.MediaInfo
	Preview   string
	// PreviewReused is set when an identical artifact already existed.
	PreviewReused bool
}

// Manager coordinates hashing, probing, preview generation and persistence.
type Manager struct {
	store    Store
	prober   Prober
	renderer Renderer
	previews *preview.Store
	cfg      *config.Config
	locks    *itemLocks
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option customizes a Manager.
type Option func(*Manager)

// WithMetrics records lifecycle results on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

// NewManager wires a lifecycle manager.
func NewManager(cfg *config.Config, store Store, prober Prober, renderer Renderer, previews *preview.Store, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		prober:   prober,
		renderer: renderer,
		previews: previews,
		cfg:      cfg,
		locks:    newItemLocks(),
		logger:   logging.NewComponentLogger(logger, "footage"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Lock serializes work on footageID; the organizer shares it.
func (m *Manager) Lock(footageID int64) func() {
	return m.locks.Lock(footageID)
}

// Reconcile brings the derived content of footage id in line with its bytes.
// When the hash matches the stored one nothing else runs. Otherwise the file
// is probed and a preview generated before the new hash is persisted.
func (m *Manager) Reconcile(ctx context.Context, id int64) (Outcome, error) {
	ctx = services.WithFootageID(services.WithOperation(ctx, "reconcile"), id)
	unlock := m.Lock(id)
	defer unlock()

	started := time.Now()
	outcome, err := m.reconcileLocked(ctx, id)
	label := "unchanged"
	switch {
	case err != nil:
		label = services.Kind(err)
	case outcome.Changed:
		label = "updated"
	}
	m.metrics.RecordReconcile(label, time.Since(started))
	return outcome, err
}

func (m *Manager) reconcileLocked(ctx context.Context, id int64) (Outcome, error) {
	logger := logging.WithContext(ctx, m.logger)
	f, err := m.store.GetFootage(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	outcome := Outcome{FootageID: id, Hash: f.ContentHash, Preview: f.Preview}

	digest, changed, err := contenthash.Changed(f.Path, f.ContentHash)
	if err != nil {
		return outcome, err
	}
	if !changed {
		logger.Debug("content unchanged", logging.String("hash", digest))
		return outcome, nil
	}

	info, err := m.prober.Probe(ctx, f.Path, digest)
	if err != nil {
		return outcome, err
	}
	outcome.Info = info

	artifact, err := m.renderer.Generate(ctx, f.Path, digest, info)
	if err != nil {
		m.metrics.RecordPreview(containerFor(info), "failed")
		return outcome, m.handleTranscodeFailure(ctx, f, info, err)
	}

	update := catalog.ContentUpdate{
		ContentHash: digest,
		Length:      time.Duration(info.Duration) * time.Second,
		HasAudio:    info.HasAudio,
		HasVideo:    info.HasVideo,
	}
	switch {
	case artifact == nil:
		m.metrics.RecordPreview("", "skipped")
	case artifact.Reused:
		update.Preview = artifact.Name
		m.metrics.RecordPreview(string(artifact.Container), "reused")
	default:
		update.Preview = artifact.Name
		m.metrics.RecordPreview(string(artifact.Container), "generated")
	}
	if err := m.store.ApplyContent(ctx, id, f.ContentHash, update); err != nil {
		return outcome, err
	}

	if f.Preview != update.Preview {
		m.releasePreview(ctx, id, f.Preview)
	}

	outcome.Changed = true
	outcome.Hash = digest
	outcome.Preview = update.Preview
	outcome.PreviewReused = artifact != nil && artifact.Reused
	logger.Info("footage reconciled",
		logging.String(logging.FieldEventType, "footage_reconciled"),
		logging.String("hash", digest),
		logging.Bool("has_video", info.HasVideo),
		logging.Bool("has_audio", info.HasAudio),
		logging.Int("duration_seconds", info.Duration),
		logging.String("preview", update.Preview),
	)
	return outcome, nil
}

// handleTranscodeFailure applies the configured flag policy. With keep_flags
// the probed flags and length are stored, the preview is cleared, and the old
// hash is kept so the next reconcile retries.
func (m *Manager) handleTranscodeFailure(ctx context.Context, f *catalog.Footage, info media.MediaInfo, cause error) error {
	logger := logging.WithContext(ctx, m.logger)
	if m.cfg.RollbackFlagsOnTranscodeFailure() {
		logging.WarnWithContext(logger, "preview transcode failed; record left unchanged", "preview_failed",
			logging.Error(cause),
			logging.String(logging.FieldErrorHint, "inspect the source with ffprobe and retry reconcile"),
			logging.String(logging.FieldImpact, "no preview, stream flags not updated"),
		)
		return cause
	}

	update := catalog.ContentUpdate{
		ContentHash: f.ContentHash,
		Length:      time.Duration(info.Duration) * time.Second,
		HasAudio:    info.HasAudio,
		HasVideo:    info.HasVideo,
	}
	if err := m.store.ApplyContent(ctx, f.ID, f.ContentHash, update); err != nil {
		return errors.Join(cause, err)
	}
	m.releasePreview(ctx, f.ID, f.Preview)
	logging.WarnWithContext(logger, "preview transcode failed; stream flags kept", "preview_failed",
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "inspect the source with ffprobe and retry reconcile"),
		logging.String(logging.FieldImpact, "no preview until the next successful reconcile"),
	)
	return cause
}

// releasePreview deletes an artifact no other footage references.
func (m *Manager) releasePreview(ctx context.Context, id int64, name string) {
	if name == "" || m.previews == nil {
		return
	}
	refs, err := m.store.PreviewReferences(ctx, name, id)
	if err != nil {
		m.logger.Warn("could not count preview references", logging.String("preview", name), logging.Error(err))
		return
	}
	if refs > 0 {
		return
	}
	if err := m.previews.Remove(name); err != nil {
		m.logger.Warn("failed to remove preview", logging.String("preview", name), logging.Error(err))
	}
}

// ReconcileAll reconciles every footage item and returns per-item errors keyed
// by footage ID.
func (m *Manager) ReconcileAll(ctx context.Context) ([]Outcome, map[int64]error, error) {
	items, err := m.store.ListFootage(ctx, catalog.LoggedAny)
	if err != nil {
		return nil, nil, err
	}
	var outcomes []Outcome
	failures := make(map[int64]error)
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return outcomes, failures, err
		}
		outcome, err := m.Reconcile(ctx, item.ID)
		if err != nil {
			failures[item.ID] = err
			continue
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, failures, nil
}

// IngestOptions tunes Ingest.
type IngestOptions struct {
	// RemoveSource deletes the source after it has been stored and reconciled.
	RemoveSource bool
}

// Ingest copies source into the unlogged directory, creates its record and
// reconciles it. Any failure removes both the copy and the record.
func (m *Manager) Ingest(ctx context.Context, source string, opts IngestOptions) (*catalog.Footage, Outcome, error) {
	ctx = services.WithOperation(ctx, "ingest")
	logger := logging.WithContext(ctx, m.logger)

	info, err := os.Stat(source)
	if err != nil {
		return nil, Outcome{}, services.Wrap(services.ErrContentUnreadable, "ingest", "stat source", source, err)
	}
	if !info.Mode().IsRegular() {
		return nil, Outcome{}, services.Wrap(services.ErrValidation, "ingest", "stat source", source+" is not a regular file", nil)
	}

	name := textutil.SanitizeFileName(filepath.Base(source))
	if name == "" {
		return nil, Outcome{}, services.Wrap(services.ErrValidation, "ingest", "name", "source has no usable file name", nil)
	}
	landing := m.cfg.UnloggedDir()
	if err := fileutil.EnsureDirectory(landing); err != nil {
		return nil, Outcome{}, err
	}
	dest, err := fileutil.UniquePath(landing, name)
	if err != nil {
		return nil, Outcome{}, fmt.Errorf("choose destination: %w", err)
	}
	if err := fileutil.CopyFileVerified(source, dest); err != nil {
		return nil, Outcome{}, services.Wrap(services.ErrContentUnreadable, "ingest", "copy", source, err)
	}

	record := &catalog.Footage{Path: dest, OriginalFilename: textutil.OriginalName(source)}
	if err := m.store.CreateFootage(ctx, record); err != nil {
		_ = os.Remove(dest)
		return nil, Outcome{}, err
	}

	outcome, err := m.Reconcile(ctx, record.ID)
	if err != nil {
		if cleanupErr := m.Delete(ctx, record.ID); cleanupErr != nil {
			err = errors.Join(err, fmt.Errorf("discard footage %d: %w", record.ID, cleanupErr))
		}
		return nil, outcome, err
	}

	if opts.RemoveSource {
		if err := os.Remove(source); err != nil {
			logger.Warn("ingested but could not remove source", logging.String("source", source), logging.Error(err))
		}
	}

	stored, err := m.store.GetFootage(ctx, record.ID)
	if err != nil {
		return nil, outcome, err
	}
	logger.Info("footage ingested",
		logging.String(logging.FieldEventType, "footage_ingested"),
		logging.Int64(logging.FieldFootageID, stored.ID),
		logging.String("source", source),
		logging.String("path", stored.Path),
	)
	return stored, outcome, nil
}

// UpdateDetails writes notes and the logged flag. Content is not touched.
func (m *Manager) UpdateDetails(ctx context.Context, id int64, notes string, logged bool) error {
	return m.store.UpdateFootageDetails(ctx, id, notes, logged)
}

// Delete removes the source file if present, the preview if no other footage
// shares it, and finally the record.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	ctx = services.WithFootageID(services.WithOperation(ctx, "delete"), id)
	unlock := m.Lock(id)
	defer unlock()

	f, err := m.store.GetFootage(ctx, id)
	if err != nil {
		return err
	}
	if err := fileutil.RemoveIfExists(f.Path); err != nil {
		return fmt.Errorf("remove footage file %s: %w", f.Path, err)
	}
	m.releasePreview(ctx, id, f.Preview)
	if err := m.store.DeleteFootage(ctx, id); err != nil {
		return err
	}
	m.metrics.RecordFootageDeleted()
	logging.WithContext(ctx, m.logger).Info("footage deleted",
		logging.String(logging.FieldEventType, "footage_deleted"),
		logging.String("path", f.Path),
	)
	return nil
}

// PreviewStream is an open preview artifact ready to be served.
type PreviewStream struct {
	io.ReadSeekCloser
	Name        string
	Size        int64
	ContentType string
	Container   preview.Container
	ModTime     time.Time
}

// OpenPreview returns the stored preview of footage id without transforming
// it. Footage without a preview yields services.ErrNotFound.
func (m *Manager) OpenPreview(ctx context.Context, id int64) (*PreviewStream, error) {
	f, err := m.store.GetFootage(ctx, id)
	if err != nil {
		return nil, err
	}
	if !f.HasPreview() {
		return nil, services.Wrap(services.ErrNotFound, "preview", "open", fmt.Sprintf("footage %d has no preview", id), nil)
	}
	reader, size, err := m.previews.Open(f.Preview)
	if err != nil {
		return nil, err
	}
	return &PreviewStream{
		ReadSeekCloser: reader,
		Name:           f.Preview,
		Size:           size,
		ContentType:    preview.ContentType(f.Preview),
		Container:      m.containerOf(f.Preview),
		ModTime:        f.UpdatedAt,
	}, nil
}

func (m *Manager) containerOf(name string) preview.Container {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if strings.EqualFold(ext, m.cfg.Preview.AudioExtension) {
		return preview.ContainerAudio
	}
	return preview.ContainerVideo
}

func containerFor(info media.MediaInfo) string {
	switch {
	case info.HasVideo:
		return string(preview.ContainerVideo)
	case info.HasAudio:
		return string(preview.ContainerAudio)
	}
	return ""
}
