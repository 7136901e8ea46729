package providers

// Model describes one entry in a provider's static catalog. Catalogs are
// defined at load time and never mutated.
type Model struct {
	ID              string
	DisplayName     string
	MaxInputTokens  int
	MaxOutputTokens int
	Provider        string
	Default         bool
	Hidden          bool
}

// DefaultModel returns the catalog's default entry, or the first entry when
// none is flagged.
func DefaultModel(models []Model) (Model, bool) {
	for _, m := range models {
		if m.Default {
			return m, true
		}
	}
	if len(models) > 0 {
		return models[0], true
	}
	return Model{}, false
}
