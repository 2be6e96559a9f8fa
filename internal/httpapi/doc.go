// Package httpapi exposes footage previews and catalog state over HTTP using
// echo. Previews are streamed unmodified with range support; service errors
// map to HTTP statuses by their classification.
package httpapi
