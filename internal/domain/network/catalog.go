package network

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

var (
	// ErrUnknownNetwork is returned for a value that is not in the catalog
	ErrUnknownNetwork = errors.New("unknown network")
	// ErrNetworkDisabled is returned when selecting a network hidden from the menu
	ErrNetworkDisabled = errors.New("network disabled")
)

// Catalog is an immutable, ordered set of networks
type Catalog struct {
	networks     []types.NetworkDescriptor
	byValue      map[string]int
	byChain      map[int64]int
	defaultValue string
}

// DefaultNetworks returns the built-in network set
func DefaultNetworks() []types.NetworkDescriptor {
	return []types.NetworkDescriptor{
		{Value: "mainnet", Name: "Ethereum", Color: "#25292E", ChainID: 1},
		{Value: "ropsten", Name: "Ropsten", Color: "#FF4A8D", ChainID: 3},
		{Value: "kovan", Name: "Kovan", Color: "#7057FF", ChainID: 42, Disabled: true},
		{Value: "rinkeby", Name: "Rinkeby", Color: "#F6C343", ChainID: 4},
		{Value: "goerli", Name: "Goerli", Color: "#3099F2", ChainID: 5},
		{Value: "arbitrum", Name: "Arbitrum", Color: "#2D374B", ChainID: 42161, Layer2: true},
		{Value: "optimism", Name: "Optimism", Color: "#FF4040", ChainID: 10, Layer2: true},
		{Value: "polygon", Name: "Polygon", Color: "#8247E5", ChainID: 137, Layer2: true, Disabled: true},
	}
}

// Default returns the catalog of built-in networks with mainnet preselected
func Default() *Catalog {
	c, err := New(DefaultNetworks(), "mainnet")
	if err != nil {
		panic(err)
	}
	return c
}

// New validates networks and builds a catalog.
// defaultValue must name an enabled network.
func New(networks []types.NetworkDescriptor, defaultValue string) (*Catalog, error) {
	if len(networks) == 0 {
		return nil, errors.New("network catalog is empty")
	}

	c := &Catalog{
		networks: make([]types.NetworkDescriptor, len(networks)),
		byValue:  make(map[string]int, len(networks)),
		byChain:  make(map[int64]int, len(networks)),
	}
	copy(c.networks, networks)

	for i, n := range c.networks {
		if n.Value == "" {
			return nil, fmt.Errorf("network %d: missing value", i)
		}
		if n.ChainID <= 0 {
			return nil, fmt.Errorf("network %s: invalid chain id %d", n.Value, n.ChainID)
		}
		if _, dup := c.byValue[n.Value]; dup {
			return nil, fmt.Errorf("network %s: duplicate value", n.Value)
		}
		if _, dup := c.byChain[n.ChainID]; dup {
			return nil, fmt.Errorf("network %s: duplicate chain id %d", n.Value, n.ChainID)
		}
		if n.Name == "" {
			c.networks[i].Name = n.Value
		}
		c.byValue[n.Value] = i
		c.byChain[n.ChainID] = i
	}

	if defaultValue == "" {
		defaultValue = c.networks[0].Value
	}
	if _, err := c.Select(defaultValue); err != nil {
		return nil, fmt.Errorf("default network: %w", err)
	}
	c.defaultValue = defaultValue

	return c, nil
}

// All returns every network, including disabled ones, in catalog order
func (c *Catalog) All() []types.NetworkDescriptor {
	out := make([]types.NetworkDescriptor, len(c.networks))
	copy(out, c.networks)
	return out
}

// Available returns the networks offered in the selector, in catalog order
func (c *Catalog) Available() []types.NetworkDescriptor {
	out := make([]types.NetworkDescriptor, 0, len(c.networks))
	for _, n := range c.networks {
		if !n.Disabled {
			out = append(out, n)
		}
	}
	return out
}

// Lookup finds a network by value, disabled or not
func (c *Catalog) Lookup(value string) (types.NetworkDescriptor, error) {
	i, ok := c.byValue[value]
	if !ok {
		return types.NetworkDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, value)
	}
	return c.networks[i], nil
}

// Select finds a network that may be picked in the selector
func (c *Catalog) Select(value string) (types.NetworkDescriptor, error) {
	n, err := c.Lookup(value)
	if err != nil {
		return n, err
	}
	if n.Disabled {
		return types.NetworkDescriptor{}, fmt.Errorf("%w: %q", ErrNetworkDisabled, value)
	}
	return n, nil
}

// ByChainID finds a network by chain id
func (c *Catalog) ByChainID(chainID int64) (types.NetworkDescriptor, bool) {
	i, ok := c.byChain[chainID]
	if !ok {
		return types.NetworkDescriptor{}, false
	}
	return c.networks[i], true
}

// NameForChainID returns the display name for a chain id
func (c *Catalog) NameForChainID(chainID int64) string {
	if n, ok := c.ByChainID(chainID); ok {
		return n.Name
	}
	return fmt.Sprintf("chain %d", chainID)
}

// DefaultNetwork returns the network preselected for new sessions
func (c *Catalog) DefaultNetwork() types.NetworkDescriptor {
	return c.networks[c.byValue[c.defaultValue]]
}

// Preselect picks the initial network for a session. A known, enabled
// chain id wins; otherwise the catalog default is used.
func (c *Catalog) Preselect(chainID int64) types.NetworkDescriptor {
	if n, ok := c.ByChainID(chainID); ok && !n.Disabled {
		return n
	}
	return c.DefaultNetwork()
}
