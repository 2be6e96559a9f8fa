// Package textutil holds small string helpers shared by ingestion and the
// footage filename formatter.
package textutil
