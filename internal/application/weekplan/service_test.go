package weekplan

import (
	"context"
	"testing"
	"time"

	"github.com/alchemorsel/recipes/internal/domain/ingredient"
	"github.com/alchemorsel/recipes/internal/domain/nutrition"
	"github.com/alchemorsel/recipes/internal/domain/recipe"
	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/domain/weekplan"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"github.com/alchemorsel/recipes/pkg/errors"
	"github.com/alchemorsel/recipes/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type WeekplanServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	factory  *testutils.Factory
	plans    *testutils.MockWeekplanRepository
	recipes  *testutils.MockRecipeRepository
	recorder *testutils.RecordingAutoFill
	service  *WeekplanService
	actor    *user.User
	week     weekplan.Week
}

func (s *WeekplanServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.factory = testutils.NewFactory(11)
	s.plans = &testutils.MockWeekplanRepository{}
	s.recipes = &testutils.MockRecipeRepository{}
	s.recorder = &testutils.RecordingAutoFill{}
	s.service = NewWeekplanService(s.plans, s.recipes, testutils.NoopTransactor{}, s.recorder, zap.NewNop())
	s.actor = s.factory.User(1, user.RoleUser)
	s.week = weekplan.WeekOf(time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC))
}

func (s *WeekplanServiceTestSuite) entry(id, recipeID int64, day int, portions int) *weekplan.Entry {
	return &weekplan.Entry{
		ID:       id,
		UserID:   s.actor.ID(),
		RecipeID: recipeID,
		Date:     s.week.Start.AddDate(0, 0, day),
		Portions: portions,
	}
}

func (s *WeekplanServiceTestSuite) TestAutoFillSkipsPlannedAndFilteredDays() {
	// Arrange
	monday := s.entry(1, 4, 0, 3)
	tuesday := s.entry(2, 5, 1, 2)
	s.plans.On("ListWeek", mock.Anything, int64(1), s.week).Return([]*weekplan.Entry{monday}, nil).Once()
	s.plans.On("ListWeek", mock.Anything, int64(1), s.week).Return([]*weekplan.Entry{monday, tuesday}, nil).Once()
	s.recipes.On("RandomCandidate", mock.Anything, int64(1), s.week, []string{"vegan"}).Return(s.factory.Recipe(5, 0), nil).Once()
	s.recipes.On("RandomCandidate", mock.Anything, int64(1), s.week, []string{"vegan"}).Return(nil, nil).Once()
	s.plans.On("Create", mock.Anything, mock.MatchedBy(func(e *weekplan.Entry) bool {
		return e.RecipeID == 5 && e.Portions == weekplan.DefaultPortions && e.Date.Equal(s.week.Start.AddDate(0, 0, 1))
	})).Return(nil).Once()
	s.recipes.On("FindByIDs", mock.Anything, []int64{4, 5}).
		Return([]*recipe.Recipe{s.factory.Recipe(4, 0), s.factory.Recipe(5, 0)}, nil)

	// Act
	dtos, err := s.service.AutoFill(s.ctx, s.actor, inbound.AutoFillCommand{
		Week: s.week.Start.AddDate(0, 0, 4),
		Tags: []string{" Vegan", "vegan"},
		Days: []int{1, 2, 3},
	})

	// Assert
	require.NoError(s.T(), err)
	require.Len(s.T(), dtos, 2)
	assert.Equal(s.T(), "2024-01-08", dtos[0].Date)
	assert.Equal(s.T(), "2024-01-09", dtos[1].Date)
	require.NotNil(s.T(), dtos[1].Recipe)
	assert.Equal(s.T(), int64(5), dtos[1].Recipe.ID)
	assert.Equal(s.T(), 1, s.recorder.Filled)
	assert.Equal(s.T(), 1, s.recorder.Unfilled)
	s.plans.AssertExpectations(s.T())
	s.recipes.AssertNumberOfCalls(s.T(), "RandomCandidate", 2)
}

func (s *WeekplanServiceTestSuite) TestAutoFillValidation() {
	tests := []struct {
		name string
		cmd  inbound.AutoFillCommand
	}{
		{name: "zero portions", cmd: inbound.AutoFillCommand{Portions: testutils.Ptr(0)}},
		{name: "weekday out of range", cmd: inbound.AutoFillCommand{Days: []int{0}}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.AutoFill(s.ctx, s.actor, tt.cmd)
			assert.Equal(s.T(), errors.CodeValidationFailed, errors.GetCode(err))
		})
	}
}

func (s *WeekplanServiceTestSuite) TestAutoFillNeedsUser() {
	_, err := s.service.AutoFill(s.ctx, nil, inbound.AutoFillCommand{})

	assert.Equal(s.T(), errors.CodeUnauthorized, errors.GetCode(err))
}

func (s *WeekplanServiceTestSuite) TestForeignEntryIsMissing() {
	foreign := s.entry(9, 4, 2, 2)
	foreign.UserID = 77
	s.plans.On("FindByID", mock.Anything, int64(9)).Return(foreign, nil)

	_, err := s.service.GetEntry(s.ctx, s.actor, 9)
	assert.Equal(s.T(), errors.CodeWeekplanNotFound, errors.GetCode(err))

	err = s.service.DeleteEntry(s.ctx, s.actor, 9)
	assert.Equal(s.T(), errors.CodeWeekplanNotFound, errors.GetCode(err))
	s.plans.AssertNotCalled(s.T(), "Delete", mock.Anything, mock.Anything)
}

func (s *WeekplanServiceTestSuite) TestReplaceRecipeWithoutCandidate() {
	s.plans.On("FindByID", mock.Anything, int64(2)).Return(s.entry(2, 5, 1, 2), nil)
	s.recipes.On("RandomCandidate", mock.Anything, int64(1), s.week, []string{"quick"}).Return(nil, nil)

	_, err := s.service.ReplaceRecipe(s.ctx, s.actor, 2, []string{"Quick"})

	assert.Equal(s.T(), errors.CodeNoCandidateRecipe, errors.GetCode(err))
	s.plans.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything)
}

func (s *WeekplanServiceTestSuite) TestReplaceWithRecipe() {
	entry := s.entry(2, 5, 1, 2)
	s.plans.On("FindByID", mock.Anything, int64(2)).Return(entry, nil)
	s.recipes.On("FindByID", mock.Anything, int64(8)).Return(s.factory.Recipe(8, 0), nil)
	s.plans.On("Update", mock.Anything, entry).Return(nil)

	dto, err := s.service.ReplaceWithRecipe(s.ctx, s.actor, 2, 8)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(8), dto.RecipeID)
	assert.Equal(s.T(), int64(8), dto.Recipe.ID)
}

func (s *WeekplanServiceTestSuite) TestShoppingListScalesByPortions() {
	flour := s.factory.Ingredient(3)
	flour.Name = "Flour"
	s.plans.On("ListWeek", mock.Anything, int64(1), s.week).
		Return([]*weekplan.Entry{s.entry(1, 4, 0, 2), s.entry(2, 4, 2, 1)}, nil)
	s.recipes.On("Usages", mock.Anything, []int64{4}).Return(map[int64][]nutrition.Usage{
		4: {{Ingredient: *flour, Amount: testutils.Ptr(100.0)}},
	}, nil)

	items, err := s.service.ShoppingList(s.ctx, s.actor, s.week.Start)

	require.NoError(s.T(), err)
	require.Len(s.T(), items, 1)
	assert.Equal(s.T(), "Flour", items[0].Name)
	assert.Equal(s.T(), "300g", items[0].Spec)
}

func (s *WeekplanServiceTestSuite) TestBringExportCountsPieces() {
	egg := s.factory.Ingredient(6)
	egg.Name = "Egg"
	pieces := s.factory.Unit(12, 6, ingredient.UnitPieces, 50)
	s.plans.On("ListWeek", mock.Anything, int64(1), s.week).
		Return([]*weekplan.Entry{s.entry(1, 4, 0, 2)}, nil)
	s.recipes.On("Usages", mock.Anything, []int64{4}).Return(map[int64][]nutrition.Usage{
		4: {{Ingredient: *egg, Amount: testutils.Ptr(2.0), Unit: pieces}},
	}, nil)

	export, err := s.service.BringExport(s.ctx, s.actor, s.week.Start)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Weekplan 2024-W02", export.Name)
	assert.Equal(s.T(), []inbound.BringItem{{ItemID: "Egg", Spec: "4 Stück"}}, export.Items)
}

func (s *WeekplanServiceTestSuite) TestEmptyWeekShoppingList() {
	s.plans.On("ListWeek", mock.Anything, int64(1), s.week).Return([]*weekplan.Entry{}, nil)

	items, err := s.service.ShoppingList(s.ctx, s.actor, s.week.Start)

	require.NoError(s.T(), err)
	assert.Empty(s.T(), items)
	s.recipes.AssertNotCalled(s.T(), "Usages", mock.Anything, mock.Anything)
}

func TestWeekplanServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WeekplanServiceTestSuite))
}
