package types

// NetworkDescriptor describes one selectable chain
type NetworkDescriptor struct {
	Value    string `json:"value" yaml:"value" toml:"value"`
	Name     string `json:"name" yaml:"name" toml:"name"`
	Color    string `json:"color" yaml:"color" toml:"color"`
	ChainID  int64  `json:"chain_id" yaml:"chain_id" toml:"chain_id"`
	Layer2   bool   `json:"layer2" yaml:"layer2" toml:"layer2"`
	Disabled bool   `json:"disabled" yaml:"disabled" toml:"disabled"`
}

// BadgeIcon returns the menu icon name for the network
func (n NetworkDescriptor) BadgeIcon(dark bool) string {
	base := "ethereum"
	if n.Layer2 {
		base = n.Value
	}
	icon := base + "Badge"
	if dark {
		icon += "Dark"
	}
	return icon
}
