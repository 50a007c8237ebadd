package config

// Manifest represents the structure of the ripple.yaml manifest.
type Manifest struct {
	Version string     `yaml:"version"`
	Root    string     `yaml:"root"`
	State   string     `yaml:"state"`
	Units   []*UnitDTO `yaml:"units"`
}

// UnitDTO represents a unit definition in the manifest.
type UnitDTO struct {
	Name    string   `yaml:"name"`
	Sources []string `yaml:"sources"`
	Record  string   `yaml:"record"`
}
