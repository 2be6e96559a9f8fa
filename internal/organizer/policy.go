package organizer

import (
	"fmt"
	"strings"

	"reel/internal/config"
	"reel/internal/services"
)

// RatingMode controls whether and how the rating appears in filenames.
type RatingMode int

const (
	RatingNone RatingMode = iota + 1
	RatingNumber
	RatingSymbol
)

// RatingSource selects which aggregate rating is used.
type RatingSource int

const (
	RatingAverage RatingSource = iota + 1
	RatingMax
)

// TakeBasis selects between the true and the marked take identity.
type TakeBasis int

const (
	TrueTake TakeBasis = iota + 1
	MarkedTakeFirst
)

// TakeSelection picks one take when footage has several.
type TakeSelection int

const (
	SelectFirst TakeSelection = iota + 1
	SelectLast
	SelectMedian
)

// FolderSort controls how deeply footage directories are nested.
type FolderSort int

const (
	SortNone FolderSort = iota + 1
	SortScene
	SortSceneShot
	SortSceneShotTake
)

// Policy is the full formatting policy applied by the organizer.
type Policy struct {
	IncludeUID                bool
	IncludeHash               bool
	IncludeOriginalFilename   bool
	IncludeTakeInFilename     bool
	IncludeRating             RatingMode
	UseRating                 RatingSource
	BaseTakesOn               TakeBasis
	ForMultipleTakesUse       TakeSelection
	SortFoldersBy             FolderSort
	OnlyLoggedFootage         bool
	OnlyCreateUsedDirectories bool
}

// PolicyFromConfig parses the [format] section.
func PolicyFromConfig(format config.Format) (Policy, error) {
	includeRating, err := ParseRatingMode(format.IncludeRating)
	if err != nil {
		return Policy{}, err
	}
	useRating, err := ParseRatingSource(format.UseRating)
	if err != nil {
		return Policy{}, err
	}
	basis, err := ParseTakeBasis(format.BaseTakesOn)
	if err != nil {
		return Policy{}, err
	}
	selection, err := ParseTakeSelection(format.ForMultipleTakesUse)
	if err != nil {
		return Policy{}, err
	}
	sort, err := ParseFolderSort(format.SortFoldersBy)
	if err != nil {
		return Policy{}, err
	}
	return Policy{
		IncludeUID:                format.IncludeUID,
		IncludeHash:               format.IncludeHash,
		IncludeOriginalFilename:   format.IncludeOriginalFilename,
		IncludeTakeInFilename:     format.IncludeTakeInFilename,
		IncludeRating:             includeRating,
		UseRating:                 useRating,
		BaseTakesOn:               basis,
		ForMultipleTakesUse:       selection,
		SortFoldersBy:             sort,
		OnlyLoggedFootage:         format.OnlyLoggedFootage,
		OnlyCreateUsedDirectories: format.OnlyCreateUsedDirectories,
	}, nil
}

// ParseRatingMode accepts no/number/symbol or 1/2/3.
func ParseRatingMode(value string) (RatingMode, error) {
	switch normalizeSelector(value) {
	case "no", "none", "1":
		return RatingNone, nil
	case "number", "2":
		return RatingNumber, nil
	case "symbol", "3":
		return RatingSymbol, nil
	}
	return 0, invalidSelector("include_rating", value)
}

// ParseRatingSource accepts average/max or 1/2.
func ParseRatingSource(value string) (RatingSource, error) {
	switch normalizeSelector(value) {
	case "average", "avg", "1":
		return RatingAverage, nil
	case "max", "2":
		return RatingMax, nil
	}
	return 0, invalidSelector("use_rating", value)
}

// ParseTakeBasis accepts true_take/marked_take_first or 1/2.
func ParseTakeBasis(value string) (TakeBasis, error) {
	switch normalizeSelector(value) {
	case "true_take", "true", "1":
		return TrueTake, nil
	case "marked_take_first", "marked", "2":
		return MarkedTakeFirst, nil
	}
	return 0, invalidSelector("base_takes_on", value)
}

// ParseTakeSelection accepts first/last/median or 1/2/3.
func ParseTakeSelection(value string) (TakeSelection, error) {
	switch normalizeSelector(value) {
	case "first", "1":
		return SelectFirst, nil
	case "last", "2":
		return SelectLast, nil
	case "median", "3":
		return SelectMedian, nil
	}
	return 0, invalidSelector("for_multiple_takes_use", value)
}

// ParseFolderSort accepts none/scene/scene_shot/scene_shot_take or 1..4.
func ParseFolderSort(value string) (FolderSort, error) {
	switch normalizeSelector(value) {
	case "none", "1":
		return SortNone, nil
	case "scene", "2":
		return SortScene, nil
	case "scene_shot", "3":
		return SortSceneShot, nil
	case "scene_shot_take", "4":
		return SortSceneShotTake, nil
	}
	return 0, invalidSelector("sort_folders_by", value)
}

func normalizeSelector(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	return strings.NewReplacer("-", "_", " ", "_").Replace(value)
}

func invalidSelector(field, value string) error {
	return services.Wrap(services.ErrConfiguration, "organizer", "parse policy",
		fmt.Sprintf("format.%s: unsupported value %q", field, value), nil)
}

func (m RatingMode) String() string {
	switch m {
	case RatingNone:
		return "no"
	case RatingNumber:
		return "number"
	case RatingSymbol:
		return "symbol"
	}
	return fmt.Sprintf("RatingMode(%d)", int(m))
}

func (s TakeSelection) String() string {
	switch s {
	case SelectFirst:
		return "first"
	case SelectLast:
		return "last"
	case SelectMedian:
		return "median"
	}
	return fmt.Sprintf("TakeSelection(%d)", int(s))
}

func (f FolderSort) String() string {
	switch f {
	case SortNone:
		return "none"
	case SortScene:
		return "scene"
	case SortSceneShot:
		return "scene_shot"
	case SortSceneShotTake:
		return "scene_shot_take"
	}
	return fmt.Sprintf("FolderSort(%d)", int(f))
}
