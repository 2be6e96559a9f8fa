package catalog

import (
	"path/filepath"
	"strings"
	"time"
)

// Footage is one physical media file.
type Footage struct {
	ID               int64
	Path             string
	ContentHash      string
	Length           time.Duration
	HasAudio         bool
	HasVideo         bool
	Notes            string
	Logged           bool
	Preview          string
	OriginalFilename string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Filename returns the base name of the footage path.
func (f Footage) Filename() string {
	return filepath.Base(f.Path)
}

// Filetype returns the extension of the footage path without the dot, or ""
// when the file has none.
func (f Footage) Filetype() string {
	return strings.TrimPrefix(filepath.Ext(f.Path), ".")
}

// HasPreview reports whether a preview artifact has been generated.
func (f Footage) HasPreview() bool {
	return f.Preview != ""
}

// ContentUpdate carries the derived fields written after a reconcile.
type ContentUpdate struct {
	ContentHash string
	Length      time.Duration
	HasAudio    bool
	HasVideo    bool
	Preview     string
}

// Scene is identified by its script number.
type Scene struct {
	Number      int
	Title       string
	Description string
}

// Shot belongs to a scene and is identified by (scene, name).
type Shot struct {
	Scene       int
	Name        string
	Description string
}

// TakeKey identifies a take by its true administrative identity.
type TakeKey struct {
	Scene  int
	Shot   string
	TakeNo int
}

// Take is one recorded performance attempt. Marked fields hold the identity
// as slated; zero values mean unset.
type Take struct {
	TakeKey
	MarkedScene int
	MarkedShot  string
	MarkedTake  int
	Rating      int
	Notes       string
}

// LinkedTake is a take as seen from one footage item.
type LinkedTake struct {
	Take
	StartTime time.Duration
	// ShotMissing is set when the parent shot row could not be found.
	ShotMissing bool
}

// FootageTake links a footage item to a take.
type FootageTake struct {
	FootageID int64
	TakeKey
	StartTime time.Duration
}

// Comment is a timestamped note on a footage item.
type Comment struct {
	ID        int64
	FootageID int64
	Time      time.Duration
	Body      string
}

// Ratings aggregates the ratings of the takes linked to a footage item.
type Ratings struct {
	Average float64
	Max     int
	Count   int
}

// LoggedFilter restricts footage listings.
type LoggedFilter int

const (
	LoggedAny LoggedFilter = iota
	LoggedOnly
	UnloggedOnly
)
