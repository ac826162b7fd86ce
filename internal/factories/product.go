package factories

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

var MenuCategories = []string{"starters", "mains", "sides", "desserts", "drinks"}

var menuItems = map[string][]string{
	"starters": {"Guacamole", "Nachos", "Sopa de Tortilla", "Ceviche", "Elote", "Queso Fundido"},
	"mains":    {"Tacos al Pastor", "Burrito", "Enchiladas Verdes", "Mole Poblano", "Quesadilla", "Chiles Rellenos", "Pozole", "Carnitas"},
	"sides":    {"Arroz Rojo", "Frijoles Charros", "Pico de Gallo", "Tortillas"},
	"desserts": {"Flan", "Churros", "Tres Leches", "Arroz con Leche"},
	"drinks":   {"Horchata", "Agua de Jamaica", "Limonada", "Café de Olla", "Cerveza", "Refresco"},
}

var priceRanges = map[string][2]float64{
	"starters": {4, 9},
	"mains":    {8, 18},
	"sides":    {2, 5},
	"desserts": {3, 7},
	"drinks":   {1.5, 5},
}

var variants = []string{"Especial", "de la Casa", "Picante", "Grande", "Vegetariano"}

var half = decimal.NewFromFloat(0.5)

type ProductFactory struct {
	src  *Source
	used map[string]bool
}

func NewProductFactory(src *Source) *ProductFactory {
	return &ProductFactory{src: src, used: make(map[string]bool)}
}

// CreateProduct draws a menu entry whose name is unique within this factory.
func (pf *ProductFactory) CreateProduct() (models.Product, error) {
	category := MenuCategories[pf.src.Rng.Intn(len(MenuCategories))]
	id, err := uuid.NewRandomFromReader(pf.src.Rng)
	if err != nil {
		return models.Product{}, fmt.Errorf("generate product id: %w", err)
	}
	return models.Product{
		ID:       id.String(),
		Name:     pf.uniqueName(category),
		Category: category,
		Price:    pf.price(category),
	}, nil
}

func (pf *ProductFactory) CreateCatalog(n int) ([]models.Product, error) {
	catalog := make([]models.Product, 0, n)
	for i := 0; i < n; i++ {
		p, err := pf.CreateProduct()
		if err != nil {
			return nil, err
		}
		catalog = append(catalog, p)
	}
	return catalog, nil
}

func (pf *ProductFactory) uniqueName(category string) string {
	names := menuItems[category]
	name := names[pf.src.Rng.Intn(len(names))]
	if !pf.used[name] {
		pf.used[name] = true
		return name
	}
	for _, v := range variants {
		candidate := name + " " + v
		if !pf.used[candidate] {
			pf.used[candidate] = true
			return candidate
		}
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s %d", name, i)
		if !pf.used[candidate] {
			pf.used[candidate] = true
			return candidate
		}
	}
}

// price lands on a multiple of 0.50 inside the category's range.
func (pf *ProductFactory) price(category string) float64 {
	r := priceRanges[category]
	raw := decimal.NewFromFloat(r[0] + pf.src.Rng.Float64()*(r[1]-r[0]))
	return raw.Div(half).Round(0).Mul(half).InexactFloat64()
}
