package taxonomy

// DefaultSeed is the base taxonomy for legal/administrative documents. Every
// document session starts from this seed and is then augmented with UNKNOWN
// children for types discovered in the document's own annotation sets.
func DefaultSeed() []SeedNode {
	return []SeedNode{
		{
			Key:   "persona",
			Label: "Persona",
			Color: "#e74c3c",
			Children: []SeedNode{
				{Key: "parte", Label: "Parte", Recognizable: true},
				{Key: "controparte", Label: "Controparte", Recognizable: true},
				{Key: "giudice", Label: "Giudice", Recognizable: true},
			},
		},
		{Key: "luogo", Label: "Luogo", Color: "#2980b9", Recognizable: true},
		{Key: "organizzazione", Label: "Organizzazione", Color: "#27ae60", Recognizable: true},
		{Key: "data", Label: "Data", Color: "#8e44ad", Recognizable: true},
		{Key: "money", Label: "Money", Color: "#f39c12", Recognizable: true},
		{
			Key:   "norma",
			Label: "Norma",
			Color: "#16a085",
			Children: []SeedNode{
				{Key: "legge", Label: "Legge", Recognizable: true},
				{Key: "articolo", Label: "Articolo", Recognizable: true},
			},
		},
		{Key: "id", Label: "Id", Color: "#7f8c8d", Recognizable: true},
		{Key: UnknownKey, Label: "Altro", Color: "#95a5a6"},
	}
}
