// Package products is the catalog of product lines the funnel serves.
package products

import (
	"fmt"
	"sort"

	"github.com/aretw0/funnel/pkg/display"
	"github.com/aretw0/funnel/pkg/persona"
	"github.com/aretw0/funnel/pkg/products/common"
	"github.com/aretw0/funnel/pkg/products/health"
	"github.com/aretw0/funnel/pkg/products/life"
	"github.com/aretw0/funnel/pkg/products/motor"
)

// Factory assembles one product.
type Factory func(opts ...persona.Option) (*common.Product, error)

var factories = map[string]Factory{
	health.Name: health.New,
	motor.Name:  motor.New,
	life.Name:   life.New,
}

// Names returns the known product names, sorted.
func Names() []string {
	out := make([]string, 0, len(factories))
	for name := range factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Load assembles the named product.
func Load(name string, opts ...persona.Option) (*common.Product, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown product %q (known: %v)", name, Names())
	}
	return f(opts...)
}

// Catalog holds every product, assembled once.
type Catalog struct {
	products map[string]*common.Product
	mapper   *display.Mapper
}

// NewCatalog assembles all products.
func NewCatalog(opts ...persona.Option) (*Catalog, error) {
	c := &Catalog{products: make(map[string]*common.Product, len(factories))}
	var tables []display.Table
	for _, name := range Names() {
		p, err := Load(name, opts...)
		if err != nil {
			return nil, err
		}
		c.products[name] = p
		tables = append(tables, p.Display)
	}
	c.mapper = display.NewMapper(tables...)
	return c, nil
}

// Get returns a product by name.
func (c *Catalog) Get(name string) (*common.Product, bool) {
	p, ok := c.products[name]
	return p, ok
}

// Display returns the resume card mapper over all products.
func (c *Catalog) Display() *display.Mapper {
	return c.mapper
}
