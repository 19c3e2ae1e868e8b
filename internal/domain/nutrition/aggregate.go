package nutrition

// Energy density in kcal per gram
const (
	KcalPerGramCarbs   = 4.1
	KcalPerGramFat     = 9.3
	KcalPerGramProtein = 4.1
	KcalPerGramAlcohol = 7.1
)

// Totals are the summed macros of a set of usages
type Totals struct {
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fats"`
	Protein  float64 `json:"proteins"`
	Alcohol  float64 `json:"alcohol"`
	Calories float64 `json:"calories"`
}

// Add folds one usage into the totals. Calories are recomputed from the
// running macro sums so they always match them
func (t *Totals) Add(u Usage) {
	factor := u.Normalized() / 100.0
	m := u.Ingredient.Macros

	t.Carbs += m.Carbs * factor
	t.Fat += m.Fat * factor
	t.Protein += m.Proteins * factor
	t.Alcohol += m.Alcohol * factor
	t.Calories = Calories(t.Carbs, t.Fat, t.Protein, t.Alcohol)
}

// Calories applies the fixed energy-density formula
func Calories(carbs, fat, protein, alcohol float64) float64 {
	return carbs*KcalPerGramCarbs + fat*KcalPerGramFat + protein*KcalPerGramProtein + alcohol*KcalPerGramAlcohol
}

// Aggregate sums the macros of all usages
func Aggregate(usages []Usage) Totals {
	var t Totals
	for _, u := range usages {
		t.Add(u)
	}
	return t
}
