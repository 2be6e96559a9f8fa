package httpapi

import (
	"reel/internal/catalog"
)

// FootageView is the JSON shape of one footage record.
type FootageView struct {
	ID               int64         `json:"id"`
	Path             string        `json:"path"`
	Filename         string        `json:"filename"`
	Filetype         string        `json:"filetype,omitempty"`
	OriginalFilename string        `json:"original_filename,omitempty"`
	ContentHash      string        `json:"content_hash,omitempty"`
	LengthSeconds    float64       `json:"length_seconds"`
	HasAudio         bool          `json:"has_audio"`
	HasVideo         bool          `json:"has_video"`
	Logged           bool          `json:"logged"`
	Notes            string        `json:"notes,omitempty"`
	Preview          string        `json:"preview,omitempty"`
	PreviewURL       string        `json:"preview_url,omitempty"`
	Takes            []TakeView    `json:"takes,omitempty"`
	Comments         []CommentView `json:"comments,omitempty"`
}

// TakeView is a take linked to footage.
type TakeView struct {
	Scene            int     `json:"scene"`
	Shot             string  `json:"shot"`
	Take             int     `json:"take"`
	MarkedScene      int     `json:"marked_scene,omitempty"`
	MarkedShot       string  `json:"marked_shot,omitempty"`
	MarkedTake       int     `json:"marked_take,omitempty"`
	Rating           int     `json:"rating"`
	StartTimeSeconds float64 `json:"start_time_seconds"`
}

// CommentView is a timestamped note on footage.
type CommentView struct {
	ID          int64   `json:"id"`
	TimeSeconds float64 `json:"time_seconds"`
	Body        string  `json:"body"`
}

// ListResponse wraps a footage listing.
type ListResponse struct {
	Items []FootageView `json:"items"`
}

// ReconcileResponse reports a reconcile run.
type ReconcileResponse struct {
	ID      int64  `json:"id"`
	Changed bool   `json:"changed"`
	Hash    string `json:"content_hash,omitempty"`
	Preview string `json:"preview,omitempty"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func footageView(f *catalog.Footage) FootageView {
	view := FootageView{
		ID:               f.ID,
		Path:             f.Path,
		Filename:         f.Filename(),
		Filetype:         f.Filetype(),
		OriginalFilename: f.OriginalFilename,
		ContentHash:      f.ContentHash,
		LengthSeconds:    f.Length.Seconds(),
		HasAudio:         f.HasAudio,
		HasVideo:         f.HasVideo,
		Logged:           f.Logged,
		Notes:            f.Notes,
		Preview:          f.Preview,
	}
	if f.HasPreview() {
		view.PreviewURL = previewURL(f.ID)
	}
	return view
}

// DescribeFootage builds the detailed view of f with its takes and comments.
func DescribeFootage(f *catalog.Footage, takes []catalog.LinkedTake, comments []catalog.Comment) FootageView {
	view := footageView(f)
	view.Takes = takeViews(takes)
	view.Comments = commentViews(comments)
	return view
}

func takeViews(takes []catalog.LinkedTake) []TakeView {
	views := make([]TakeView, 0, len(takes))
	for _, t := range takes {
		views = append(views, TakeView{
			Scene:            t.Scene,
			Shot:             t.Shot,
			Take:             t.TakeNo,
			MarkedScene:      t.MarkedScene,
			MarkedShot:       t.MarkedShot,
			MarkedTake:       t.MarkedTake,
			Rating:           t.Rating,
			StartTimeSeconds: t.StartTime.Seconds(),
		})
	}
	return views
}

func commentViews(comments []catalog.Comment) []CommentView {
	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, CommentView{ID: c.ID, TimeSeconds: c.Time.Seconds(), Body: c.Body})
	}
	return views
}
