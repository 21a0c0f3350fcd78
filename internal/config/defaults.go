package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Artifacts.Dir == "" {
		cfg.Artifacts.Dir = "/usr/local/var/animerec/artifacts"
	}
	if cfg.Artifacts.UserWeights == "" {
		cfg.Artifacts.UserWeights = "user_weights.bin"
	}
	if cfg.Artifacts.AnimeWeights == "" {
		cfg.Artifacts.AnimeWeights = "anime_weights.bin"
	}
	if cfg.Artifacts.UserCodec == "" {
		cfg.Artifacts.UserCodec = "user_codec.json"
	}
	if cfg.Artifacts.AnimeCodec == "" {
		cfg.Artifacts.AnimeCodec = "anime_codec.json"
	}
	if cfg.Artifacts.CatalogDB == "" {
		cfg.Artifacts.CatalogDB = "catalog.db"
	}
	if cfg.Recommend.DefaultLimit == 0 {
		cfg.Recommend.DefaultLimit = 10
	}
	if cfg.Recommend.MaxLimit == 0 {
		cfg.Recommend.MaxLimit = 100
	}
	if cfg.Recommend.TopKUsers == 0 {
		cfg.Recommend.TopKUsers = 10
	}
	if cfg.Recommend.TopKContent == 0 {
		cfg.Recommend.TopKContent = 10
	}
	if cfg.Recommend.UserWeight == 0 && cfg.Recommend.ContentWeight == 0 {
		cfg.Recommend.UserWeight = 0.5
		cfg.Recommend.ContentWeight = 0.5
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 2000
	}
}
