package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Victor-armando18/service-giftbuilder/internal/domain"
	"github.com/Victor-armando18/service-giftbuilder/internal/interfaces"
)

type document struct {
	Boxes    []interfaces.BoxDefinition     `yaml:"boxes"`
	Products []interfaces.ProductDefinition `yaml:"products"`
}

// FileCatalog serves a catalog snapshot read once from a YAML or JSON file.
type FileCatalog struct {
	boxes    []interfaces.BoxDefinition
	products []interfaces.ProductDefinition
	boxByID  map[string]int
	prodByID map[string]int
}

var _ interfaces.CatalogService = (*FileCatalog)(nil)

// LoadFile reads a catalog file. JSON files parse as YAML.
func LoadFile(path string) (*FileCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*FileCatalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	return New(doc.Boxes, doc.Products)
}

func New(boxes []interfaces.BoxDefinition, products []interfaces.ProductDefinition) (*FileCatalog, error) {
	c := &FileCatalog{
		boxes:    boxes,
		products: products,
		boxByID:  make(map[string]int, len(boxes)),
		prodByID: make(map[string]int, len(products)),
	}
	for i, b := range boxes {
		if b.ID == "" {
			return nil, fmt.Errorf("catalog box %d has no id", i)
		}
		if _, dup := c.boxByID[b.ID]; dup {
			return nil, fmt.Errorf("catalog box %s is duplicated", b.ID)
		}
		if b.MaxProducts < 0 {
			return nil, fmt.Errorf("catalog box %s has negative maxProducts", b.ID)
		}
		c.boxByID[b.ID] = i
	}
	for i, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog product %d has no id", i)
		}
		if _, dup := c.prodByID[p.ID]; dup {
			return nil, fmt.Errorf("catalog product %s is duplicated", p.ID)
		}
		c.prodByID[p.ID] = i
	}
	return c, nil
}

func (c *FileCatalog) ListBoxes(_ context.Context) ([]interfaces.BoxDefinition, error) {
	out := make([]interfaces.BoxDefinition, len(c.boxes))
	copy(out, c.boxes)
	return out, nil
}

func (c *FileCatalog) GetBox(_ context.Context, id string) (interfaces.BoxDefinition, error) {
	i, ok := c.boxByID[id]
	if !ok {
		return interfaces.BoxDefinition{}, fmt.Errorf("%w: %s", domain.ErrBoxNotFound, id)
	}
	return c.boxes[i], nil
}

func (c *FileCatalog) ListProducts(_ context.Context) ([]interfaces.ProductDefinition, error) {
	out := make([]interfaces.ProductDefinition, len(c.products))
	copy(out, c.products)
	return out, nil
}

func (c *FileCatalog) GetProduct(_ context.Context, id string) (interfaces.ProductDefinition, error) {
	i, ok := c.prodByID[id]
	if !ok {
		return interfaces.ProductDefinition{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return c.products[i], nil
}
