package model

// AppConfig holds desktop viewer preferences and the default run parameters
// new sessions start from.
type AppConfig struct {
	// Default run parameters applied to new sessions
	DefaultGeneSize       int     `json:"default_gene_size"`
	DefaultBoxSide        float64 `json:"default_box_side"`
	DefaultPopulationSize int     `json:"default_population_size"`
	DefaultMutationRate   float64 `json:"default_mutation_rate"`
	DefaultWorkers        int     `json:"default_workers"`

	// Application preferences
	RefreshMillis int      `json:"refresh_millis"` // Canvas redraw interval, 0 = every generation
	RecentConfigs []string `json:"recent_configs"`
	Theme         string   `json:"theme"` // "light", "dark", "system"
	ShowVertices  bool     `json:"show_vertices"`
}

// DefaultAppConfig returns an AppConfig populated with defaults matching
// DefaultConfig().
func DefaultAppConfig() AppConfig {
	defaults := DefaultConfig()
	return AppConfig{
		DefaultGeneSize:       defaults.GeneSize,
		DefaultBoxSide:        defaults.BoxSide,
		DefaultPopulationSize: defaults.PopulationSize,
		DefaultMutationRate:   defaults.MutationRate,
		DefaultWorkers:        defaults.Workers,
		RefreshMillis:         100,
		RecentConfigs:         []string{},
		Theme:                 "system",
		ShowVertices:          false,
	}
}

// ApplyToConfig copies the default values from AppConfig into a Config.
func (c AppConfig) ApplyToConfig(cfg *Config) {
	cfg.GeneSize = c.DefaultGeneSize
	cfg.BoxSide = c.DefaultBoxSide
	cfg.PopulationSize = c.DefaultPopulationSize
	cfg.MutationRate = c.DefaultMutationRate
	cfg.Workers = c.DefaultWorkers
}

// AddRecentConfig records path as the most recently used config file,
// keeping at most limit entries without duplicates.
func (c *AppConfig) AddRecentConfig(path string, limit int) {
	out := []string{path}
	for _, p := range c.RecentConfigs {
		if p != path && len(out) < limit {
			out = append(out, p)
		}
	}
	c.RecentConfigs = out
}
