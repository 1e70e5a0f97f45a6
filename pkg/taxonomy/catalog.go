package taxonomy

// catalog is the closed set of product lines. Order matters only as the
// final tie-breaker in classification.
var catalog = []Entry{
	// Panini
	{
		Slug:      "prizm",
		Brand:     "panini",
		Required:  []string{"prizm"},
		Aliases:   []string{"panini prizm"},
		Forbidden: []string{"select", "optic", "mosaic", "phoenix", "prizmatic", "chronicles", "contenders", "obsidian", "spectra", "hoops"},
	},
	{
		Slug:      "prizm-draft-picks",
		Brand:     "panini",
		Parent:    "prizm",
		Required:  []string{"prizm", "draft picks"},
		Forbidden: []string{"select", "optic", "mosaic", "phoenix", "prizmatic"},
	},
	// Select parallels are named "... Prizm" (e.g. Concourse Silver Prizm).
	{
		Slug:     "select",
		Brand:    "panini",
		Required: []string{"select"},
		Aliases:  []string{"panini select"},
		Allowed:  []string{"prizm"},
	},
	{
		Slug:      "optic",
		Brand:     "panini",
		Required:  []string{"optic"},
		Aliases:   []string{"donruss optic"},
		Allowed:   []string{"donruss", "prizm"},
		Forbidden: []string{"contenders optic"},
	},
	{
		Slug:     "contenders-optic",
		Brand:    "panini",
		Parent:   "contenders",
		Required: []string{"contenders", "optic"},
		Allowed:  []string{"prizm"},
	},
	{
		Slug:      "donruss",
		Brand:     "panini",
		Required:  []string{"donruss"},
		Forbidden: []string{"optic", "elite"},

		ToleratesGeneric: true,
	},
	{
		Slug:     "mosaic",
		Brand:    "panini",
		Required: []string{"mosaic"},
		Aliases:  []string{"panini mosaic"},
		Allowed:  []string{"prizm"},
	},
	{
		Slug:     "phoenix",
		Brand:    "panini",
		Required: []string{"phoenix"},
	},
	// Chronicles is a multi-brand product with embedded sub-brands.
	{
		Slug:     "chronicles",
		Brand:    "panini",
		Required: []string{"chronicles"},

		ToleratesGeneric: true,
	},
	{
		Slug:      "contenders",
		Brand:     "panini",
		Required:  []string{"contenders"},
		Forbidden: []string{"optic"},
	},
	{
		Slug:     "national-treasures",
		Brand:    "panini",
		Required: []string{"national treasures"},
	},
	{
		Slug:     "flawless",
		Brand:    "panini",
		Required: []string{"flawless"},
	},
	{
		Slug:     "immaculate",
		Brand:    "panini",
		Required: []string{"immaculate"},
	},
	{
		Slug:     "obsidian",
		Brand:    "panini",
		Required: []string{"obsidian"},
	},
	{
		Slug:     "spectra",
		Brand:    "panini",
		Required: []string{"spectra"},
	},
	{
		Slug:     "hoops",
		Brand:    "panini",
		Required: []string{"hoops"},

		ToleratesGeneric: true,
	},
	// Topps
	{
		Slug:      "topps",
		Brand:     "topps",
		Required:  []string{"topps"},
		Forbidden: []string{"chrome", "bowman", "finest", "stadium club", "heritage", "sapphire"},

		ToleratesGeneric: true,
	},
	{
		Slug:      "topps-chrome",
		Brand:     "topps",
		Parent:    "topps",
		Required:  []string{"topps", "chrome"},
		Forbidden: []string{"bowman", "sapphire", "update"},
	},
	{
		Slug:      "topps-chrome-update",
		Brand:     "topps",
		Parent:    "topps-chrome",
		Required:  []string{"topps", "chrome", "update"},
		Forbidden: []string{"bowman", "sapphire"},
	},
	{
		Slug:      "topps-chrome-sapphire",
		Brand:     "topps",
		Parent:    "topps-chrome",
		Required:  []string{"topps", "chrome", "sapphire"},
		Forbidden: []string{"bowman"},
	},
	{
		Slug:     "topps-finest",
		Brand:    "topps",
		Required: []string{"finest"},
		Aliases:  []string{"topps finest"},
	},
	{
		Slug:     "stadium-club",
		Brand:    "topps",
		Required: []string{"stadium club"},
	},
	{
		Slug:     "topps-heritage",
		Brand:    "topps",
		Parent:   "topps",
		Required: []string{"topps", "heritage"},
	},
	{
		Slug:      "bowman",
		Brand:     "topps",
		Required:  []string{"bowman"},
		Forbidden: []string{"chrome", "draft"},

		ToleratesGeneric: true,
	},
	{
		Slug:      "bowman-chrome",
		Brand:     "topps",
		Parent:    "bowman",
		Required:  []string{"bowman", "chrome"},
		Forbidden: []string{"draft"},
	},
	{
		Slug:     "bowman-draft",
		Brand:    "topps",
		Parent:   "bowman",
		Required: []string{"bowman", "draft"},
		Allowed:  []string{"chrome"},
	},
	// Upper Deck
	{
		Slug:      "upper-deck",
		Brand:     "upper deck",
		Required:  []string{"upper deck"},
		Forbidden: []string{"sp authentic", "exquisite"},

		ToleratesGeneric: true,
	},
	{
		Slug:     "sp-authentic",
		Brand:    "upper deck",
		Required: []string{"sp authentic"},
		Allowed:  []string{"upper deck"},
	},
	{
		Slug:     "exquisite",
		Brand:    "upper deck",
		Required: []string{"exquisite"},
		Allowed:  []string{"upper deck"},
	},
	{
		Slug:     "fleer",
		Brand:    "fleer",
		Required: []string{"fleer"},

		ToleratesGeneric: true,
	},
}

// Parallels is the catalog of known parallel / variant names, normalized.
var Parallels = []string{
	"silver prizm",
	"silver",
	"holo",
	"red white blue",
	"red white and blue",
	"green",
	"neon green",
	"blue",
	"red",
	"gold",
	"gold vinyl",
	"black",
	"black finite",
	"orange",
	"purple",
	"pink",
	"camo",
	"tie dye",
	"shimmer",
	"mojo",
	"cracked ice",
	"disco",
	"hyper",
	"wave",
	"refractor",
	"xfractor",
	"superfractor",
	"atomic",
	"fast break",
	"no huddle",
	"choice",
	"concourse",
	"premier level",
	"courtside",
	"field level",
	"club level",
	"ice",
	"snakeskin",
	"nebula",
	"white sparkle",
}

// teamPhrases collide with product line names and are blanked before
// classification.
var teamPhrases = []string{
	"phoenix suns",
	"phoenix mercury",
	"phoenix coyotes",
}

// insertTerms mark insert and sub-set cards that are a different product
// from the base card even within the same line.
var insertTerms = []string{
	"insert",
	"kaboom",
	"downtown",
	"color blast",
	"stained glass",
	"my house",
	"fireworks",
	"instant impact",
	"manga",
	"case hit",
	"uptown",
	"night moves",
	"emergent",
	"fearless",
	"sensational",
}

// InsertTerms returns the insert / sub-set vocabulary.
func InsertTerms() []string {
	return insertTerms
}
