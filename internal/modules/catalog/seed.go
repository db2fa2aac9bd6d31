package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadSeed reads a YAML list of products, e.g.
//
//   - id: us_10
//     name: PSN 10 USD
//     region: USA
//     currency: RUB
//     price: 774
//     discount: 10
func LoadSeed(path string) ([]*Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog seed: %w", err)
	}
	var products []*Product
	if err := yaml.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse catalog seed %s: %w", path, err)
	}
	return products, nil
}
