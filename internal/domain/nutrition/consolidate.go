package nutrition

import (
	"fmt"
	"strings"

	"github.com/alchemorsel/recipes/internal/domain/ingredient"
)

// MassBucket groups every usage that is measured in the reference basis,
// including named units that were converted through their base value
const MassBucket int64 = -1

// Format selects how consolidated amounts are rendered
type Format int

const (
	// FormatRecipe renders a single recipe with two decimals and keeps the
	// named unit of a group for display
	FormatRecipe Format = iota
	// FormatWeek renders a week's shopping list in whole grams
	FormatWeek
)

// Item is one consolidated shopping-list line
type Item struct {
	IngredientID int64
	Name         string
	Spec         string
	Annotation   string
}

type groupKey struct {
	ingredientID int64
	bucket       int64
}

type group struct {
	name        string
	total       float64
	annotations []string

	countUnit *ingredient.Unit

	// Display tracking for FormatRecipe: set while every usage in the group
	// carried the same named unit
	unit       *ingredient.Unit
	unitAmount float64
	unitMixed  bool
	scale      float64
}

// Consolidator merges usages of the same ingredient across recipes
type Consolidator struct {
	format Format
	order  []groupKey
	groups map[groupKey]*group
}

// NewConsolidator returns an empty consolidator for the given format
func NewConsolidator(format Format) *Consolidator {
	return &Consolidator{
		format: format,
		groups: make(map[groupKey]*group),
	}
}

// Consolidate merges the usages of one scaled usage set
func Consolidate(usages []Usage, scale float64, format Format) []Item {
	c := NewConsolidator(format)
	c.Add(usages, scale)
	return c.Items()
}

// Add accumulates usages multiplied by scale
func (c *Consolidator) Add(usages []Usage, scale float64) {
	for _, u := range usages {
		c.add(u, scale)
	}
}

func (c *Consolidator) add(u Usage, scale float64) {
	key := groupKey{ingredientID: u.Ingredient.ID, bucket: MassBucket}
	factor := 1.0
	counted := u.Unit != nil && u.Unit.Identifier.IsCount()

	switch {
	case counted:
		key.bucket = u.Unit.ID
	case u.Unit != nil:
		factor = u.Unit.BaseValue
	}

	g, ok := c.groups[key]
	if !ok {
		g = &group{name: u.Ingredient.Name}
		if counted {
			unit := *u.Unit
			g.countUnit = &unit
		}
		c.groups[key] = g
		c.order = append(c.order, key)
	}

	var amount float64
	if u.Amount != nil {
		amount = *u.Amount
	}
	g.total += amount * factor * scale
	g.scale = scale

	if note := strings.TrimSpace(u.Annotation); note != "" {
		g.annotations = append(g.annotations, note)
	}

	if counted {
		return
	}
	switch {
	case u.Unit == nil:
		g.unitMixed = true
	case g.unit == nil && !g.unitMixed:
		unit := *u.Unit
		g.unit = &unit
		g.unitAmount = amount * scale
	case g.unit != nil && g.unit.ID == u.Unit.ID:
		g.unitAmount += amount * scale
	default:
		g.unitMixed = true
	}
}

// Items returns one item per group in first-seen order
func (c *Consolidator) Items() []Item {
	items := make([]Item, 0, len(c.order))
	for _, key := range c.order {
		g := c.groups[key]
		items = append(items, Item{
			IngredientID: key.ingredientID,
			Name:         g.name,
			Spec:         c.spec(g),
			Annotation:   strings.Join(g.annotations, ", "),
		})
	}
	return items
}

func (c *Consolidator) spec(g *group) string {
	if g.total <= 0 {
		return ""
	}

	if g.countUnit != nil {
		return fmt.Sprintf("%s %s", c.amount(g.total), g.countUnit.Identifier.DisplayName())
	}

	if c.format == FormatRecipe && g.unit != nil && !g.unitMixed {
		// unitAmount is already scaled; grams applies the scale again
		grams := g.unitAmount * g.scale * g.unit.BaseValue
		return fmt.Sprintf("%.2f %s (%.2fg)", g.unitAmount, g.unit.Identifier.DisplayName(), grams)
	}

	return c.amount(g.total) + "g"
}

func (c *Consolidator) amount(v float64) string {
	if c.format == FormatWeek {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
