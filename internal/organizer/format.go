package organizer

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"reel/internal/catalog"
	"reel/internal/fileutil"
	"reel/internal/textutil"
)

const (
	filenameDelimiter = "-"
	loggedDirName     = "logged"
)

// SymbolForRating maps a rating onto the coarse symbol scale used in filenames.
func SymbolForRating(rating int) string {
	switch {
	case rating < -15:
		return "XXX"
	case rating < -10:
		return "XX"
	case rating < -5:
		return "X"
	case rating < 0:
		return "x"
	case rating < 5:
		return "^"
	case rating < 10:
		return "o"
	default:
		return "O"
	}
}

// RoundRating rounds an average rating half to even.
func RoundRating(avg float64) int {
	return int(math.RoundToEven(avg))
}

// Filename assembles the target filename for footage.
func Filename(f *catalog.Footage, id Identity, ratings catalog.Ratings, policy Policy) string {
	parts := make([]string, 0, 6)
	if policy.IncludeUID {
		parts = append(parts, strconv.FormatInt(f.ID, 10))
	}
	if policy.IncludeHash {
		parts = append(parts, f.ContentHash)
	}
	if policy.IncludeOriginalFilename {
		parts = append(parts, textutil.SanitizeFileName(f.OriginalFilename))
	}
	if policy.IncludeTakeInFilename {
		parts = append(parts,
			strconv.Itoa(id.Scene)+textutil.SanitizeFileName(id.Shot),
			strconv.FormatInt(id.Take, 10),
		)
	}
	if policy.IncludeRating == RatingNumber || policy.IncludeRating == RatingSymbol {
		rating := RoundRating(ratings.Average)
		if policy.UseRating == RatingMax {
			rating = ratings.Max
		}
		if policy.IncludeRating == RatingSymbol {
			parts = append(parts, SymbolForRating(rating))
		} else {
			parts = append(parts, strconv.Itoa(rating))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, strconv.FormatInt(f.ID, 10))
	}

	name := strings.Join(parts, filenameDelimiter)
	if ext := f.Filetype(); ext != "" {
		name += "." + ext
	}
	return name
}

// Directory returns the footage-root-relative directory for id.
func Directory(id Identity, sort FolderSort) string {
	scene := strconv.Itoa(id.Scene)
	shot := scene + textutil.SanitizeFileName(id.Shot)
	take := shot + strconv.FormatInt(id.Take, 10)
	switch sort {
	case SortScene:
		return "scene" + scene
	case SortSceneShot:
		return filepath.Join("scene"+scene, "shot"+shot)
	case SortSceneShotTake:
		return filepath.Join("scene"+scene, "shot"+shot, "take"+take)
	default:
		return loggedDirName
	}
}

// Formatter resolves target paths under a footage root.
type Formatter struct {
	root string
}

// NewFormatter returns a formatter rooted at the footage directory.
func NewFormatter(footageRoot string) *Formatter {
	return &Formatter{root: footageRoot}
}

// Format returns the absolute target directory and filename for footage,
// creating every missing directory level.
func (fm *Formatter) Format(f *catalog.Footage, id Identity, ratings catalog.Ratings, policy Policy) (string, string, error) {
	dir := filepath.Join(fm.root, Directory(id, policy.SortFoldersBy))
	if err := fileutil.EnsureDirectory(dir); err != nil {
		return "", "", err
	}
	return dir, Filename(f, id, ratings, policy), nil
}
