package gorm

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alchemorsel/recipes/internal/domain/ingredient"
	"github.com/alchemorsel/recipes/internal/domain/nutrition"
	"github.com/alchemorsel/recipes/internal/domain/recipe"
	"github.com/alchemorsel/recipes/internal/domain/step"
	"github.com/alchemorsel/recipes/internal/domain/tag"
	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/domain/weekplan"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type RepositoryTestSuite struct {
	suite.Suite
	ctx         context.Context
	db          *gorm.DB
	tx          outbound.Transactor
	recipes     outbound.RecipeRepository
	steps       outbound.StepRepository
	ingredients outbound.IngredientRepository
	units       outbound.UnitRepository
	tags        outbound.TagRepository
	users       outbound.UserRepository
	weekplans   outbound.WeekplanRepository
	week        weekplan.Week
}

func (s *RepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: NewLogger(zap.NewNop(), 0, false)})
	require.NoError(s.T(), err)
	sqlDB, err := db.DB()
	require.NoError(s.T(), err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(s.T(), db.AutoMigrate(AllModels()...))

	s.db = db
	s.tx = NewTransactor(db)
	s.recipes = NewRecipeRepository(db)
	s.steps = NewStepRepository(db)
	s.ingredients = NewIngredientRepository(db)
	s.units = NewUnitRepository(db)
	s.tags = NewTagRepository(db)
	s.users = NewUserRepository(db)
	s.weekplans = NewWeekplanRepository(db)
	s.week = weekplan.WeekOf(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
}

func (s *RepositoryTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

func (s *RepositoryTestSuite) user(email string) *user.User {
	entity, err := user.NewUser(email, "Cook", user.RoleUser)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.users.Create(s.ctx, entity))
	return entity
}

func (s *RepositoryTestSuite) tag(name string) *tag.Tag {
	entity, err := tag.NewTag(name)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.tags.Create(s.ctx, entity))
	return entity
}

func (s *RepositoryTestSuite) recipe(name string, ownerID *int64, tags ...*tag.Tag) *recipe.Recipe {
	entity, err := recipe.NewRecipe(name, nil, 2, ownerID)
	require.NoError(s.T(), err)
	ids := make([]int64, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	entity.SetTags(ids)
	require.NoError(s.T(), s.recipes.Create(s.ctx, entity))
	return entity
}

func (s *RepositoryTestSuite) ingredient(name string) *ingredient.Ingredient {
	entity, err := ingredient.NewIngredient(name, ingredient.ReferenceGrams, ingredient.Macros{Carbs: 10, Fat: 1, Proteins: 2})
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.ingredients.Create(s.ctx, entity))
	return entity
}

func (s *RepositoryTestSuite) unit(ingredientID int64, identifier ingredient.UnitIdentifier, base float64) *ingredient.Unit {
	entity, err := ingredient.NewUnit(ingredientID, identifier, base)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.units.Create(s.ctx, entity))
	return entity
}

func (s *RepositoryTestSuite) step(recipeID int64, position int, usages ...step.Ingredient) *step.Step {
	entity, err := step.NewStep(recipeID, position, nil, 5, 10, usages)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.steps.Create(s.ctx, entity))
	return entity
}

func (s *RepositoryTestSuite) plan(userID, recipeID int64, day int) *weekplan.Entry {
	entry, err := weekplan.NewEntry(userID, recipeID, s.week.Start.AddDate(0, 0, day), 2)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.weekplans.Create(s.ctx, entry))
	return entry
}

func amount(v float64) *float64 { return &v }

func (s *RepositoryTestSuite) TestRecipeLinksRoundTrip() {
	// Arrange
	vegan := s.tag("vegan")
	quick := s.tag("quick")
	salad := s.recipe("Salad", nil)
	soup := s.recipe("Soup", nil, vegan, quick)
	require.NoError(s.T(), soup.SetFitting([]int64{salad.ID()}))
	require.NoError(s.T(), s.recipes.Update(s.ctx, soup))

	// Act
	soup.SetTags([]int64{quick.ID})
	require.NoError(s.T(), s.recipes.Update(s.ctx, soup))
	found, err := s.recipes.FindByID(s.ctx, soup.ID())

	// Assert
	require.NoError(s.T(), err)
	require.NotNil(s.T(), found)
	assert.Equal(s.T(), "Soup", found.Name())
	assert.Equal(s.T(), 2, found.DefaultServings())
	assert.Equal(s.T(), []int64{quick.ID}, found.TagIDs())
	assert.Equal(s.T(), []int64{salad.ID()}, found.FittingIDs())
}

func (s *RepositoryTestSuite) TestFindMissingRecipe() {
	found, err := s.recipes.FindByID(s.ctx, 999)

	assert.NoError(s.T(), err)
	assert.Nil(s.T(), found)
}

func (s *RepositoryTestSuite) TestListFiltersByTermsAndAnyTag() {
	vegan := s.tag("vegan")
	quick := s.tag("quick")
	s.recipe("Tomato Soup", nil, vegan)
	s.recipe("Quick Tomato Salad", nil, quick, vegan)
	s.recipe("Potato Soup", nil)

	tests := []struct {
		name   string
		filter outbound.RecipeFilter
		want   []string
	}{
		{name: "all", filter: outbound.RecipeFilter{}, want: []string{"Tomato Soup", "Quick Tomato Salad", "Potato Soup"}},
		{name: "terms are anded", filter: outbound.RecipeFilter{Search: []string{"tomato", "soup"}}, want: []string{"Tomato Soup"}},
		{name: "any tag without duplicates", filter: outbound.RecipeFilter{Tags: []string{"vegan", "quick"}}, want: []string{"Tomato Soup", "Quick Tomato Salad"}},
		{name: "paged", filter: outbound.RecipeFilter{Limit: 1, Offset: 1}, want: []string{"Quick Tomato Salad"}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			found, err := s.recipes.List(s.ctx, tt.filter)
			require.NoError(s.T(), err)

			names := make([]string, 0, len(found))
			for _, r := range found {
				names = append(names, r.Name())
			}
			assert.Equal(s.T(), tt.want, names)
		})
	}

	count, err := s.recipes.Count(s.ctx, outbound.RecipeFilter{Tags: []string{"vegan"}, Limit: 1})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), count)
}

func (s *RepositoryTestSuite) TestRandomCandidateNeedsAllTagsAndSkipsPlanned() {
	// Arrange
	cook := s.user("cook@example.com")
	other := s.user("other@example.com")
	vegan := s.tag("vegan")
	quick := s.tag("quick")
	s.recipe("Vegan only", nil, vegan)
	both := s.recipe("Vegan and quick", nil, vegan, quick)
	planned := s.recipe("Planned", nil, vegan, quick)
	s.plan(cook.ID(), planned.ID(), 2)
	s.plan(other.ID(), both.ID(), 2)

	// Act
	for i := 0; i < 5; i++ {
		candidate, err := s.recipes.RandomCandidate(s.ctx, cook.ID(), s.week, []string{"vegan", "quick"})

		// Assert
		require.NoError(s.T(), err)
		require.NotNil(s.T(), candidate)
		assert.Equal(s.T(), both.ID(), candidate.ID())
	}

	s.plan(cook.ID(), both.ID(), 3)
	candidate, err := s.recipes.RandomCandidate(s.ctx, cook.ID(), s.week, []string{"vegan", "quick"})
	require.NoError(s.T(), err)
	assert.Nil(s.T(), candidate)

	nextWeek := weekplan.WeekOf(s.week.Start.AddDate(0, 0, 7))
	candidate, err = s.recipes.RandomCandidate(s.ctx, cook.ID(), nextWeek, []string{"quick", "vegan"})
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), candidate)
}

func (s *RepositoryTestSuite) TestUsagesFollowStepOrder() {
	flour := s.ingredient("Flour")
	egg := s.ingredient("Egg")
	pieces := s.unit(egg.ID, ingredient.UnitPieces, 50)
	cake := s.recipe("Cake", nil)
	s.step(cake.ID(), 1, step.Ingredient{IngredientID: egg.ID, Amount: amount(2), UnitID: &pieces.ID})
	s.step(cake.ID(), 0, step.Ingredient{IngredientID: flour.ID, Amount: amount(200)})
	other := s.recipe("Bread", nil)
	s.step(other.ID(), 0, step.Ingredient{IngredientID: flour.ID, Amount: amount(500)})

	usages, err := s.recipes.Usages(s.ctx, []int64{cake.ID()})

	require.NoError(s.T(), err)
	require.Len(s.T(), usages[cake.ID()], 2)
	first, second := usages[cake.ID()][0], usages[cake.ID()][1]
	assert.Equal(s.T(), "Flour", first.Ingredient.Name)
	assert.Nil(s.T(), first.Unit)
	assert.Equal(s.T(), 10.0, first.Ingredient.Macros.Carbs)
	assert.Equal(s.T(), "Egg", second.Ingredient.Name)
	require.NotNil(s.T(), second.Unit)
	assert.Equal(s.T(), ingredient.UnitPieces, second.Unit.Identifier)
	assert.Equal(s.T(), 50.0, second.Unit.BaseValue)
	assert.NotContains(s.T(), usages, other.ID())

	ids, err := s.recipes.IDsUsingIngredient(s.ctx, flour.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []int64{cake.ID(), other.ID()}, ids)
}

func (s *RepositoryTestSuite) TestUsagesResolveUnitsAcrossRecipes() {
	sugar := s.ingredient("Sugar")
	tbsp := s.unit(sugar.ID, ingredient.UnitTablespoon, 15)
	s.unit(sugar.ID, ingredient.UnitPinch, 0.5)
	cake := s.recipe("Cake", nil)
	tea := s.recipe("Tea", nil)
	s.step(cake.ID(), 0,
		step.Ingredient{IngredientID: sugar.ID, Amount: amount(3), UnitID: &tbsp.ID},
		step.Ingredient{IngredientID: sugar.ID, Amount: amount(40)},
	)
	s.step(tea.ID(), 0, step.Ingredient{IngredientID: sugar.ID, Amount: amount(1), UnitID: &tbsp.ID})

	usages, err := s.recipes.Usages(s.ctx, []int64{cake.ID(), tea.ID()})

	require.NoError(s.T(), err)
	require.Len(s.T(), usages[cake.ID()], 2)
	require.NotNil(s.T(), usages[cake.ID()][0].Unit)
	assert.Equal(s.T(), tbsp.ID, usages[cake.ID()][0].Unit.ID)
	assert.Equal(s.T(), 15.0, usages[cake.ID()][0].Unit.BaseValue)
	assert.Nil(s.T(), usages[cake.ID()][1].Unit, "no unit means grams at face value")
	require.Len(s.T(), usages[tea.ID()], 1)
	require.NotNil(s.T(), usages[tea.ID()][0].Unit)
	assert.Equal(s.T(), ingredient.UnitTablespoon, usages[tea.ID()][0].Unit.Identifier)
	assert.Equal(s.T(), 45.0, nutrition.Normalize(usages[cake.ID()][0].Amount, usages[cake.ID()][0].Unit))
}

func (s *RepositoryTestSuite) TestStepUpdateReplacesUsages() {
	flour := s.ingredient("Flour")
	sugar := s.ingredient("Sugar")
	cake := s.recipe("Cake", nil)
	stored := s.step(cake.ID(), 0,
		step.Ingredient{IngredientID: flour.ID, Amount: amount(100)},
		step.Ingredient{IngredientID: sugar.ID, Amount: amount(50)},
	)
	require.NotNil(s.T(), stored.Ingredients[0].ID)
	keep := *stored.Ingredients[0].ID
	drop := *stored.Ingredients[1].ID

	next := *stored
	next.Ingredients = []step.Ingredient{
		{ID: &keep, IngredientID: flour.ID, Amount: amount(150)},
		{IngredientID: sugar.ID, Amount: amount(20)},
	}
	removed := stored.Replace(&next)
	require.Equal(s.T(), []int64{drop}, removed)
	require.NoError(s.T(), s.steps.Update(s.ctx, stored, removed))

	found, err := s.steps.FindByID(s.ctx, stored.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), found.Ingredients, 2)
	assert.Equal(s.T(), keep, *found.Ingredients[0].ID)
	assert.Equal(s.T(), 150.0, *found.Ingredients[0].Amount)
	assert.NotEqual(s.T(), drop, *found.Ingredients[1].ID)
	assert.Equal(s.T(), 20.0, *found.Ingredients[1].Amount)
}

func (s *RepositoryTestSuite) TestStepNeighboursAndPositions() {
	cake := s.recipe("Cake", nil)
	first := s.step(cake.ID(), 0)
	second := s.step(cake.ID(), 1)
	third := s.step(cake.ID(), 2)

	prev, err := s.steps.Previous(s.ctx, cake.ID(), second.Position)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), first.ID, prev.ID)

	next, err := s.steps.Next(s.ctx, cake.ID(), third.Position)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), next)

	changed := step.MoveUp(third, second)
	require.NoError(s.T(), s.steps.SavePositions(s.ctx, changed))

	steps, err := s.steps.ListByRecipe(s.ctx, cake.ID())
	require.NoError(s.T(), err)
	order := []int64{steps[0].ID, steps[1].ID, steps[2].ID}
	assert.Equal(s.T(), []int64{first.ID, third.ID, second.ID}, order)

	count, err := s.steps.CountByRecipe(s.ctx, cake.ID())
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(3), count)
}

func (s *RepositoryTestSuite) TestDeleteRecipeRemovesStepsAndPlans() {
	cook := s.user("cook@example.com")
	flour := s.ingredient("Flour")
	cake := s.recipe("Cake", nil)
	stored := s.step(cake.ID(), 0, step.Ingredient{IngredientID: flour.ID, Amount: amount(100)})
	s.plan(cook.ID(), cake.ID(), 0)

	require.NoError(s.T(), s.recipes.Delete(s.ctx, cake.ID()))

	found, err := s.steps.FindByID(s.ctx, stored.ID)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), found)
	entries, err := s.weekplans.ListWeek(s.ctx, cook.ID(), s.week)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), entries)
}

func (s *RepositoryTestSuite) TestIngredientInUseCannotBeDeleted() {
	flour := s.ingredient("Flour")
	cake := s.recipe("Cake", nil)
	s.step(cake.ID(), 0, step.Ingredient{IngredientID: flour.ID, Amount: amount(100)})

	err := s.ingredients.Delete(s.ctx, flour.ID)

	assert.Error(s.T(), err)
}

func (s *RepositoryTestSuite) TestDeletingUnitRemovesItsUsages() {
	egg := s.ingredient("Egg")
	pieces := s.unit(egg.ID, ingredient.UnitPieces, 50)
	cake := s.recipe("Cake", nil)
	stored := s.step(cake.ID(), 0, step.Ingredient{IngredientID: egg.ID, Amount: amount(2), UnitID: &pieces.ID})

	require.NoError(s.T(), s.units.Delete(s.ctx, pieces.ID))

	found, err := s.steps.FindByID(s.ctx, stored.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), found.Ingredients)
}

func (s *RepositoryTestSuite) TestDeletingOwnerKeepsRecipe() {
	cook := s.user("cook@example.com")
	ownerID := cook.ID()
	cake := s.recipe("Cake", &ownerID)

	require.NoError(s.T(), s.users.Delete(s.ctx, cook.ID()))

	found, err := s.recipes.FindByID(s.ctx, cake.ID())
	require.NoError(s.T(), err)
	require.NotNil(s.T(), found)
	assert.Nil(s.T(), found.OwnerID())
}

func (s *RepositoryTestSuite) TestUserLookupAndSearch() {
	s.user("zoe@example.com")
	ada := s.user("ada@example.com")
	ada.SetPasswordHash("hash")
	require.NoError(s.T(), s.users.Update(s.ctx, ada))

	found, err := s.users.FindByEmail(s.ctx, "ada@example.com")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), found)
	assert.Equal(s.T(), "hash", found.PasswordHash())
	assert.True(s.T(), found.IsActive())

	listed, err := s.users.List(s.ctx, outbound.ListFilter{Search: "example"})
	require.NoError(s.T(), err)
	require.Len(s.T(), listed, 2)
	assert.Equal(s.T(), "ada@example.com", listed[0].Email())
}

func (s *RepositoryTestSuite) TestTagUniqueness() {
	s.tag("vegan")

	duplicate, err := tag.NewTag("Vegan")
	require.NoError(s.T(), err)
	assert.Error(s.T(), s.tags.Create(s.ctx, duplicate))

	found, err := s.tags.FindByName(s.ctx, "vegan")
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), found)
}

func (s *RepositoryTestSuite) TestListWeekStaysInsideWeek() {
	cook := s.user("cook@example.com")
	cake := s.recipe("Cake", nil)
	bread := s.recipe("Bread", nil)
	sunday := s.plan(cook.ID(), bread.ID(), 6)
	monday := s.plan(cook.ID(), cake.ID(), 0)
	s.plan(cook.ID(), cake.ID(), 7)
	s.plan(cook.ID(), cake.ID(), -1)

	entries, err := s.weekplans.ListWeek(s.ctx, cook.ID(), s.week)

	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 2)
	assert.Equal(s.T(), monday.ID, entries[0].ID)
	assert.Equal(s.T(), sunday.ID, entries[1].ID)
	assert.True(s.T(), entries[0].Date.Equal(s.week.Start))
}

func (s *RepositoryTestSuite) TestTransactionRollsBack() {
	cook := s.user("cook@example.com")
	cake := s.recipe("Cake", nil)

	err := s.tx.WithinTransaction(s.ctx, func(ctx context.Context) error {
		entry, err := weekplan.NewEntry(cook.ID(), cake.ID(), s.week.Start, 2)
		require.NoError(s.T(), err)
		if err := s.weekplans.Create(ctx, entry); err != nil {
			return err
		}
		return assert.AnError
	})

	assert.ErrorIs(s.T(), err, assert.AnError)
	entries, err := s.weekplans.ListWeek(s.ctx, cook.ID(), s.week)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), entries)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
