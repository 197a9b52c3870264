package prompts

import "strings"

// BaseInstruction drives the first generation from the construction photo.
const BaseInstruction = "IMPORTANT: Before starting, remove any watermarks, logos or text from the base photo. " +
	"Then, based on the attached construction-site photo, create a single, coherent, photorealistic visualization of the building with a facade finished in smooth white render. " +
	"The final image must show the building completely finished and ready to live in, entirely free of any signs of a building under construction. " +
	"Aim for the highest level of photorealism and detail, faithfully reproducing the layout of windows, walls, roof, doors and all key structural elements from the original photo. " +
	"It is especially important to preserve the function of wall openings: an opening for a window must remain a window, an opening for a door must remain a door, and a garage opening must remain a garage door. Do not change their purpose. " +
	"Complete every unfinished element visible in the photo (for example missing render, an unfinished roof, missing gutters). " +
	"For the remaining materials use anthracite roof tiles and simple windows. " +
	"Create a clean, polished background for further work."

// UpscaleInstruction asks for more resolution without changing the picture.
const UpscaleInstruction = "Upscale the image to a higher resolution, significantly enhancing details and textures while maintaining photorealism. " +
	"Do not change the composition, objects, or style of the image."

// ComposeInitial appends the fragment of every known option to
// BaseInstruction, in the order given. Unknown ids are ignored.
func ComposeInitial(optionIDs []string) string {
	var b strings.Builder
	b.WriteString(BaseInstruction)
	for _, id := range optionIDs {
		if fragment, ok := Fragment(id); ok {
			b.WriteString(" ")
			b.WriteString(fragment)
		}
	}
	return b.String()
}

const (
	GeneratingMessage = "Generating the base visualization..."
	UpscaleMessage    = "Upscaling the image and enhancing details..."
	ReferenceMessage  = "Applying the reference image..."
)

func PresetMessage(p Preset) string {
	return "Applying: " + p.Name + "..."
}

// PromptMessage is the busy text for a free-text edit. An empty prompt means
// the edit is driven by the reference image alone.
func PromptMessage(prompt string) string {
	if strings.TrimSpace(prompt) == "" {
		return ReferenceMessage
	}
	return "Running instruction: " + prompt + "..."
}
