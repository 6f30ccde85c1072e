package airline

import (
	"strings"

	"github.com/voyagehq/farebot/internal/models"
)

// ssrCatalog maps SSR type and preference keywords to industry codes, the
// same catalog the mocked backend accepts.
var ssrCatalog = map[models.SSRType]map[string]models.SSR{
	models.SSRTypeMeal: {
		"vegetarian": {Type: models.SSRTypeMeal, Code: "VGML", Description: "Vegetarian Meal"},
		"vegan":      {Type: models.SSRTypeMeal, Code: "VLML", Description: "Vegan Meal"},
		"halal":      {Type: models.SSRTypeMeal, Code: "MOML", Description: "Halal Meal"},
		"kosher":     {Type: models.SSRTypeMeal, Code: "KSML", Description: "Kosher Meal"},
		"diabetic":   {Type: models.SSRTypeMeal, Code: "DBML", Description: "Diabetic Meal"},
		"child":      {Type: models.SSRTypeMeal, Code: "CHML", Description: "Child Meal"},
	},
	models.SSRTypeSeat: {
		"window":        {Type: models.SSRTypeSeat, Code: "WINDOW", Description: "Window Seat Preference"},
		"aisle":         {Type: models.SSRTypeSeat, Code: "AISLE", Description: "Aisle Seat Preference"},
		"extra_legroom": {Type: models.SSRTypeSeat, Code: "LEGROOM", Description: "Extra Legroom Seat"},
	},
	models.SSRTypeAssistance: {
		"wheelchair": {Type: models.SSRTypeAssistance, Code: "WCHR", Description: "Wheelchair Assistance"},
		"blind":      {Type: models.SSRTypeAssistance, Code: "BLND", Description: "Assistance for Blind Passenger"},
		"deaf":       {Type: models.SSRTypeAssistance, Code: "DEAF", Description: "Assistance for Deaf Passenger"},
	},
	models.SSRTypeBaggage: {
		"extra":  {Type: models.SSRTypeBaggage, Code: "XBAG", Description: "Extra Baggage (15kg)"},
		"sports": {Type: models.SSRTypeBaggage, Code: "SPBG", Description: "Sports Equipment"},
	},
}

// ResolveSSR maps a service type and preference keyword to a catalog entry.
func ResolveSSR(ssrType models.SSRType, preference string) (models.SSR, bool) {
	prefs, ok := ssrCatalog[ssrType]
	if !ok {
		return models.SSR{}, false
	}
	ssr, ok := prefs[strings.ToLower(strings.TrimSpace(preference))]
	return ssr, ok
}
