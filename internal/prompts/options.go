package prompts

import (
	"errors"
	"strings"
)

// ErrEnvironmentConflict is returned when more than one environment option
// is chosen.
var ErrEnvironmentConflict = errors.New("only one environment option can be chosen")

// DefaultEnvironment is used when no environment option is chosen.
const DefaultEnvironment = OptionPlaceOnLot

// Option identifies one of the choices offered when a project is created.
// Each option contributes exactly one fixed fragment to the first
// generation instruction.
type Option string

const (
	OptionPlaceOnLot         Option = "place_on_lot"
	OptionGenerateWithGarden Option = "generate_with_garden"
	OptionKeepSurroundings   Option = "keep_surroundings"
	OptionExtractProject     Option = "extract_project"
	OptionModernBarnStyle    Option = "modern_barn_style"
	OptionAddGarage          Option = "add_garage"
)

// OptionGroup separates the single-choice environment options from the
// freely combinable style options.
type OptionGroup string

const (
	GroupEnvironment OptionGroup = "environment"
	GroupStyle       OptionGroup = "style"
)

// OptionInfo describes an option for display.
type OptionInfo struct {
	ID          Option      `json:"id"`
	Group       OptionGroup `json:"group"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	fragment    string
}

var options = []OptionInfo{
	{
		ID:          OptionPlaceOnLot,
		Group:       GroupEnvironment,
		Title:       "Place on a plot",
		Description: "Clean lawn and a simple fence.",
		fragment:    "Place the building on a flat, square plot entirely covered with a perfectly mown green lawn. Add a simple, modern anthracite fence about 6 metres from each wall of the building.",
	},
	{
		ID:          OptionGenerateWithGarden,
		Group:       GroupEnvironment,
		Title:       "Generate with a garden",
		Description: "Lush planting and flowers around the house.",
		fragment:    "Create a lush, varied garden around the house with flowers, shrubs and a few trees. Keep the planting aesthetically composed.",
	},
	{
		ID:          OptionKeepSurroundings,
		Group:       GroupEnvironment,
		Title:       "Keep the surroundings",
		Description: "Finish only the building, background unchanged.",
		fragment:    "Keep the existing surroundings (trees, neighbouring buildings, terrain) untouched. Your only task is to photorealistically finish the building itself, fitting it perfectly into the existing landscape.",
	},
	{
		ID:          OptionExtractProject,
		Group:       GroupEnvironment,
		Title:       "Extract the project",
		Description: "Remove the background, keep only the building.",
		fragment:    "Completely remove the existing background and surroundings, replacing them with a neutral, uniform background. Focus exclusively on the building.",
	},
	{
		ID:          OptionModernBarnStyle,
		Group:       GroupStyle,
		Title:       "Modern barn style",
		Description: "Dark roof, timber and large windows.",
		fragment:    "Give the building a modern barn style. Use an anthracite standing-seam metal roof. On the facade combine vertical dark timber boards with sections of smooth white render. Use large, modern glazing.",
	},
	{
		ID:          OptionAddGarage,
		Group:       GroupStyle,
		Title:       "Add a garage",
		Description: "Build a modern double garage.",
		fragment:    "If the building has no garage, add an aesthetically matching, modern double garage with a flat roof.",
	},
}

// Options lists every known option in display order.
func Options() []OptionInfo {
	return append([]OptionInfo(nil), options...)
}

// Fragment returns the instruction fragment for id. Unknown ids report false.
func Fragment(id string) (string, bool) {
	id = strings.TrimSpace(id)
	for _, o := range options {
		if string(o.ID) == id {
			return o.fragment, true
		}
	}
	return "", false
}

// NormalizeOptions trims the chosen option ids and enforces the single
// environment choice, prepending DefaultEnvironment when none is given.
// Unknown ids are kept and later ignored by ComposeInitial.
func NormalizeOptions(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids)+1)
	environments := 0
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if group, ok := groupOf(id); ok && group == GroupEnvironment {
			environments++
		}
		out = append(out, id)
	}
	switch {
	case environments > 1:
		return nil, ErrEnvironmentConflict
	case environments == 0:
		out = append([]string{string(DefaultEnvironment)}, out...)
	}
	return out, nil
}

func groupOf(id string) (OptionGroup, bool) {
	for _, o := range options {
		if string(o.ID) == id {
			return o.Group, true
		}
	}
	return "", false
}
