package config

// FeedSeed declares one feed to register at startup.
type FeedSeed struct {
	URL        string `yaml:"url"`
	AutoUpdate bool   `yaml:"auto_update"`
}

// SeedFile is the on-disk format of the optional feed seed file.
type SeedFile struct {
	Feeds []FeedSeed `yaml:"feeds"`
}
