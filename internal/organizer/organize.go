package organizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"reel/internal/catalog"
	"reel/internal/fileutil"
	"reel/internal/logging"
	"reel/internal/metrics"
	"reel/internal/services"
)

const lockFileName = ".organize.lock"

// Store is the catalog surface the organizer needs.
type Store interface {
	ListFootage(ctx context.Context, filter catalog.LoggedFilter) ([]*catalog.Footage, error)
	TakesForFootage(ctx context.Context, footageID int64) ([]catalog.LinkedTake, error)
	Ratings(ctx context.Context, footageID int64) (catalog.Ratings, error)
	UpdateFootagePath(ctx context.Context, id int64, path string) error
	ListScenes(ctx context.Context) ([]catalog.Scene, error)
	ListShots(ctx context.Context, scene int) ([]catalog.Shot, error)
	ListTakes(ctx context.Context) ([]catalog.Take, error)
}

// ItemLocker serializes work on a single footage item across components.
type ItemLocker interface {
	Lock(footageID int64) (unlock func())
}

// ItemResult reports what happened to one footage item.
type ItemResult struct {
	FootageID int64
	From      string
	To        string
	Identity  Identity
	Moved     bool
	Err       error
	// Kind is services.Kind(Err): "ok" on success.
	Kind string
}

// Result summarizes an organize batch.
type Result struct {
	Items     []ItemResult
	Moved     int
	Unchanged int
	Failed    int
	// ScaffoldErrors lists directories that could not be pre-created.
	ScaffoldErrors []error
}

// Failures returns the items that did not reach their target.
func (r Result) Failures() []ItemResult {
	var failed []ItemResult
	for _, item := range r.Items {
		if item.Err != nil {
			failed = append(failed, item)
		}
	}
	return failed
}

// Organizer moves footage files into the layout described by a Policy.
type Organizer struct {
	store     Store
	formatter *Formatter
	root      string
	lock      *flock.Flock
	locker    ItemLocker
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option customizes an Organizer.
type Option func(*Organizer)

// WithItemLocker shares per-footage locks with other components.
func WithItemLocker(locker ItemLocker) Option {
	return func(o *Organizer) { o.locker = locker }
}

// WithMetrics records batch results on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Organizer) { o.metrics = m }
}

// New constructs an organizer for the footage tree rooted at footageRoot.
func New(store Store, footageRoot string, logger *slog.Logger, opts ...Option) *Organizer {
	o := &Organizer{
		store:     store,
		formatter: NewFormatter(footageRoot),
		root:      footageRoot,
		lock:      flock.New(filepath.Join(footageRoot, lockFileName)),
		logger:    logging.NewComponentLogger(logger, "organizer"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Organize applies policy to every known footage item.
func (o *Organizer) Organize(ctx context.Context, policy Policy) (Result, error) {
	filter := catalog.LoggedAny
	if policy.OnlyLoggedFootage {
		filter = catalog.LoggedOnly
	}
	items, err := o.store.ListFootage(ctx, filter)
	if err != nil {
		return Result{}, err
	}
	return o.OrganizeFootage(ctx, items, policy)
}

// OrganizeFootage applies policy to items. Per-item failures are collected in
// the result and never stop the batch; the returned error is reserved for
// batch-level problems such as a concurrent organize or cancellation.
func (o *Organizer) OrganizeFootage(ctx context.Context, items []*catalog.Footage, policy Policy) (Result, error) {
	logger := logging.WithContext(ctx, o.logger)
	if err := fileutil.EnsureDirectory(o.root); err != nil {
		return Result{}, err
	}
	locked, err := o.lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("acquire organize lock: %w", err)
	}
	if !locked {
		return Result{}, services.Wrap(services.ErrConflict, "organizer", "lock", "another organize is already running", nil)
	}
	defer func() {
		if err := o.lock.Unlock(); err != nil {
			logger.Warn("failed to release organize lock", logging.Error(err))
		}
	}()

	started := time.Now()
	defer func() { o.metrics.ObserveOrganize(time.Since(started)) }()

	var result Result
	if !policy.OnlyCreateUsedDirectories {
		result.ScaffoldErrors = o.scaffold(ctx, policy.SortFoldersBy)
	}

	for _, footage := range items {
		if policy.OnlyLoggedFootage && !footage.Logged {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		item := o.organizeOne(ctx, footage, policy)
		result.Items = append(result.Items, item)
		switch {
		case item.Err != nil:
			result.Failed++
			o.metrics.RecordOrganizeItem(item.Kind)
			logging.WarnWithContext(logger, "footage not organized", "organize_item_failed",
				logging.Int64(logging.FieldFootageID, item.FootageID),
				logging.String("from", item.From),
				logging.String("to", item.To),
				logging.String("kind", item.Kind),
				logging.Error(item.Err),
				logging.String(logging.FieldErrorHint, "check that the source file exists and the footage root is writable"),
				logging.String(logging.FieldImpact, "file left at its previous path"),
			)
		case item.Moved:
			result.Moved++
			o.metrics.RecordOrganizeItem("moved")
		default:
			result.Unchanged++
			o.metrics.RecordOrganizeItem("unchanged")
		}
	}

	logger.Info("organize complete",
		logging.String(logging.FieldEventType, "organize_complete"),
		logging.Int("moved", result.Moved),
		logging.Int("unchanged", result.Unchanged),
		logging.Int("failed", result.Failed),
		logging.String("sort_folders_by", policy.SortFoldersBy.String()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func (o *Organizer) organizeOne(ctx context.Context, footage *catalog.Footage, policy Policy) (item ItemResult) {
	item = ItemResult{FootageID: footage.ID, From: footage.Path}
	defer func() { item.Kind = services.Kind(item.Err) }()

	if o.locker != nil {
		unlock := o.locker.Lock(footage.ID)
		defer unlock()
	}

	takes, err := o.store.TakesForFootage(ctx, footage.ID)
	if err != nil {
		item.Err = err
		return item
	}
	ratings, err := o.store.Ratings(ctx, footage.ID)
	if err != nil {
		item.Err = err
		return item
	}
	item.Identity = Resolve(footage.ID, takes, policy.ForMultipleTakesUse, policy.BaseTakesOn)

	dir, name, err := o.formatter.Format(footage, item.Identity, ratings, policy)
	if err != nil {
		item.Err = err
		return item
	}
	item.To = filepath.Join(dir, name)
	if filepath.Clean(item.To) == filepath.Clean(footage.Path) {
		return item
	}

	if err := fileutil.MoveFile(footage.Path, item.To); err != nil {
		item.Err = err
		return item
	}
	if err := o.store.UpdateFootagePath(ctx, footage.ID, item.To); err != nil {
		// Put the file back so the stored path stays truthful.
		if rollbackErr := fileutil.MoveFile(item.To, footage.Path); rollbackErr != nil {
			err = errors.Join(err, fmt.Errorf("restore %s: %w", footage.Path, rollbackErr))
		}
		item.Err = err
		return item
	}
	footage.Path = item.To
	item.Moved = true
	return item
}

// scaffold pre-creates the directory tree for every known scene, shot and take.
func (o *Organizer) scaffold(ctx context.Context, sort FolderSort) []error {
	var dirs []string
	if sort >= SortScene && sort <= SortSceneShotTake {
		scenes, err := o.store.ListScenes(ctx)
		if err != nil {
			return []error{err}
		}
		for _, scene := range scenes {
			dirs = append(dirs, Directory(Identity{Scene: scene.Number}, SortScene))
		}
	} else {
		dirs = append(dirs, Directory(Identity{}, SortNone))
	}
	if sort == SortSceneShot || sort == SortSceneShotTake {
		shots, err := o.store.ListShots(ctx, 0)
		if err != nil {
			return []error{err}
		}
		for _, shot := range shots {
			dirs = append(dirs, Directory(Identity{Scene: shot.Scene, Shot: shot.Name}, SortSceneShot))
		}
	}
	if sort == SortSceneShotTake {
		takes, err := o.store.ListTakes(ctx)
		if err != nil {
			return []error{err}
		}
		for _, take := range takes {
			dirs = append(dirs, Directory(Identity{Scene: take.Scene, Shot: take.Shot, Take: int64(take.TakeNo)}, SortSceneShotTake))
		}
	}

	var errs []error
	for _, dir := range dirs {
		if err := fileutil.EnsureDirectory(filepath.Join(o.root, dir)); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
