/*
Package rewards provides the static reward catalog: the mapping from
reward code to sticker cost that redemption checks against.

The catalog is configuration, not engine state. A built-in default ships
with the binary; deployments can replace it with a YAML file:

  MUG: 5
  TOTE: 12

There is no catalog management surface. Changing rewards means changing
the file and restarting.
*/
package rewards

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Catalog maps reward code to sticker cost.
type Catalog map[string]int64

// Default returns the built-in catalog.
func Default() Catalog {
	return Catalog{
		"MUG":      5,
		"TOTE":     12,
		"CAP":      20,
		"GIFTCARD": 50,
	}
}

// Cost returns the sticker cost of a reward code.
func (c Catalog) Cost(code string) (int64, bool) {
	cost, ok := c[code]
	return cost, ok
}

// Codes returns all reward codes, sorted, for stable listings.
func (c Catalog) Codes() []string {
	codes := make([]string, 0, len(c))
	for code := range c {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Load reads a catalog from a YAML file. Every cost must be positive.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c) == 0 {
		return nil, fmt.Errorf("catalog %s is empty", path)
	}
	for code, cost := range c {
		if cost <= 0 {
			return nil, fmt.Errorf("reward %q has non-positive cost %d", code, cost)
		}
	}
	return c, nil
}
