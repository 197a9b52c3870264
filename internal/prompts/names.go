package prompts

import "math/rand/v2"

var projectNames = []string{
	"Rhododendron House",
	"Park Villa",
	"City Apartment",
	"Attic Loft",
	"Sunny Street House",
	"Project Z7",
	"Liquorice House",
	"Coral Villa",
	"Avocado House",
	"Oak Tree Residence",
	"Dream House",
	"Modern Barn",
	"Hilltop House",
	"Forest Refuge",
	"Cypress Street House",
	"Villa Kalina",
	"Virtual Fireplace",
	"Ctrl+S Residence",
	"Render Farm Cottage",
	"404: Roof Not Found",
	"Eternal Beta Manor",
	"Lorem Ipsum Estate",
}

// SuggestName picks a random default project name.
func SuggestName() string {
	return projectNames[rand.IntN(len(projectNames))]
}
