package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reel/internal/catalog"
	"reel/internal/services"
)

func parseFootageID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, services.Wrap(services.ErrValidation, "cli", "parse id", fmt.Sprintf("invalid footage id %q", arg), nil)
	}
	return id, nil
}

func parsePositive(label, arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n <= 0 {
		return 0, services.Wrap(services.ErrValidation, "cli", "parse "+label, fmt.Sprintf("invalid %s %q", label, arg), nil)
	}
	return n, nil
}

// parseTakeKey reads "<scene> <shot> <take>" positional arguments.
func parseTakeKey(args []string) (catalog.TakeKey, error) {
	if len(args) != 3 {
		return catalog.TakeKey{}, fmt.Errorf("expected <scene> <shot> <take>")
	}
	scene, err := parsePositive("scene", args[0])
	if err != nil {
		return catalog.TakeKey{}, err
	}
	takeNo, err := parsePositive("take", args[2])
	if err != nil {
		return catalog.TakeKey{}, err
	}
	return catalog.TakeKey{Scene: scene, Shot: strings.TrimSpace(args[1]), TakeNo: takeNo}, nil
}

func formatLength(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	total := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	if hash == "" {
		return "-"
	}
	return hash
}

func streams(f *catalog.Footage) string {
	switch {
	case f.HasVideo && f.HasAudio:
		return "video+audio"
	case f.HasVideo:
		return "video"
	case f.HasAudio:
		return "audio"
	}
	return "-"
}

// writeJSON prints v as indented JSON. Paths are written unescaped.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
