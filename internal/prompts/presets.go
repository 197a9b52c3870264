package prompts

// Category groups presets the way the control panel shows them.
type Category string

const (
	CategoryFacade      Category = "facade"
	CategoryEnvironment Category = "environment"
	CategoryLighting    Category = "lighting"
	CategoryAccessories Category = "accessories"
	CategoryView        Category = "view"
)

// Preset is a one-click edit with a fixed label and instruction.
type Preset struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Instruction string   `json:"-"`
}

var presets = []Preset{
	{ID: "facade_white_render", Name: "White render", Category: CategoryFacade,
		Instruction: "Change the facade finish to smooth, bright white render. Keep every other element unchanged."},
	{ID: "facade_graphite_render", Name: "Graphite render", Category: CategoryFacade,
		Instruction: "Change the facade finish to a matt graphite-grey render. Keep every other element unchanged."},
	{ID: "facade_wood_cladding", Name: "Wood cladding", Category: CategoryFacade,
		Instruction: "Clad the facade with horizontal natural larch boards, keeping window and door openings exactly where they are."},
	{ID: "facade_clinker_brick", Name: "Clinker brick", Category: CategoryFacade,
		Instruction: "Finish the facade with red clinker brick, keeping window and door openings exactly where they are."},
	{ID: "facade_stone", Name: "Stone accents", Category: CategoryFacade,
		Instruction: "Add light natural stone cladding to the plinth and selected wall sections, keeping the rest of the facade unchanged."},

	{ID: "env_lawn", Name: "Fresh lawn", Category: CategoryEnvironment,
		Instruction: "Replace the ground around the building with a neat, freshly mown green lawn."},
	{ID: "env_paving", Name: "Paved driveway", Category: CategoryEnvironment,
		Instruction: "Add a grey concrete-block driveway and paths leading to the entrance and the garage."},
	{ID: "env_hedge", Name: "Hedge fence", Category: CategoryEnvironment,
		Instruction: "Surround the plot with a dense, evenly trimmed green hedge."},
	{ID: "env_trees", Name: "Mature trees", Category: CategoryEnvironment,
		Instruction: "Add several mature deciduous trees around the plot without covering the building."},

	{ID: "light_sunny", Name: "Sunny day", Category: CategoryLighting,
		Instruction: "Change the lighting to a bright sunny day with a clear blue sky and soft shadows."},
	{ID: "light_golden_hour", Name: "Golden hour", Category: CategoryLighting,
		Instruction: "Change the lighting to warm golden-hour sunlight just before sunset."},
	{ID: "light_evening", Name: "Evening", Category: CategoryLighting,
		Instruction: "Change the scene to dusk with a deep blue sky and warm light glowing from the windows and outdoor lamps."},
	{ID: "light_overcast", Name: "Overcast", Category: CategoryLighting,
		Instruction: "Change the weather to a soft overcast day with diffuse light."},
	{ID: "light_winter", Name: "Winter", Category: CategoryLighting,
		Instruction: "Turn the scene into a winter day with a light layer of snow on the roof and the ground."},

	{ID: "roof_anthracite_tiles", Name: "Anthracite tiles", Category: CategoryAccessories,
		Instruction: "Change the roof covering to anthracite ceramic tiles, keeping the roof geometry unchanged."},
	{ID: "roof_standing_seam", Name: "Standing seam", Category: CategoryAccessories,
		Instruction: "Change the roof covering to dark standing-seam metal sheet, keeping the roof geometry unchanged."},
	{ID: "acc_solar_panels", Name: "Solar panels", Category: CategoryAccessories,
		Instruction: "Add black photovoltaic panels on the sunniest roof slope."},
	{ID: "acc_terrace", Name: "Terrace", Category: CategoryAccessories,
		Instruction: "Add a wooden terrace with simple garden furniture next to the largest glazing."},
	{ID: "acc_external_blinds", Name: "External blinds", Category: CategoryAccessories,
		Instruction: "Add discreet anthracite external roller-blind boxes above the windows."},

	{ID: "view_front", Name: "Front view", Category: CategoryView,
		Instruction: "Show the same building from a straight front view at eye level."},
	{ID: "view_corner", Name: "Corner view", Category: CategoryView,
		Instruction: "Show the same building from a three-quarter corner perspective at eye level."},
	{ID: "view_aerial", Name: "Bird's-eye view", Category: CategoryView,
		Instruction: "Show the same building and plot from a high aerial perspective."},
}

// Presets lists every preset in display order.
func Presets() []Preset {
	return append([]Preset(nil), presets...)
}

// Lookup finds a preset by id.
func Lookup(id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}
