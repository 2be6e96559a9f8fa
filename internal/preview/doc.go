// Package preview derives lightweight, browser-playable preview artifacts from
// footage files.
//
// BuildPlan turns probed MediaInfo into a down-sampling plan (width, frame rate
// and sample rate caps plus the output container), Generator runs ffmpeg for a
// plan, and Store keeps the resulting artifacts content-addressed under the
// preview directory as "{hash}.{ext}".
package preview
