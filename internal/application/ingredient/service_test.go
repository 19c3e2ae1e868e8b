package ingredient

import (
	"context"
	"testing"

	"github.com/alchemorsel/recipes/internal/domain/ingredient"
	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/alchemorsel/recipes/pkg/errors"
	"github.com/alchemorsel/recipes/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type IngredientServiceTestSuite struct {
	suite.Suite
	ctx         context.Context
	factory     *testutils.Factory
	ingredients *testutils.MockIngredientRepository
	units       *testutils.MockUnitRepository
	recipes     *testutils.MockRecipeRepository
	cache       *testutils.MockCacheRepository
	service     *IngredientService
}

func (s *IngredientServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.factory = testutils.NewFactory(7)
	s.ingredients = &testutils.MockIngredientRepository{}
	s.units = &testutils.MockUnitRepository{}
	s.recipes = &testutils.MockRecipeRepository{}
	s.cache = testutils.NewMockCacheRepository()
	s.service = NewIngredientService(s.ingredients, s.units, s.recipes, s.cache, zap.NewNop())
}

func (s *IngredientServiceTestSuite) TestCreateIngredientNeedsUser() {
	_, err := s.service.CreateIngredient(s.ctx, nil, inbound.IngredientCommand{Name: "Flour", Reference: "g"})

	assert.Equal(s.T(), errors.CodeUnauthorized, errors.GetCode(err))
}

func (s *IngredientServiceTestSuite) TestCreateIngredient() {
	s.ingredients.On("Create", mock.Anything, mock.AnythingOfType("*ingredient.Ingredient")).Return(nil)

	dto, err := s.service.CreateIngredient(s.ctx, s.factory.User(2, user.RoleUser), inbound.IngredientCommand{
		Name: "Flour", Reference: "g", Carbs: 72, Fat: 1, Proteins: 10,
	})

	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Flour", dto.Name)
	assert.Equal(s.T(), ingredient.ReferenceGrams, dto.Reference)
	assert.Equal(s.T(), 72.0, dto.Carbs)
}

func (s *IngredientServiceTestSuite) TestUpdateIngredientNeedsRoot() {
	s.ingredients.On("FindByID", mock.Anything, int64(3)).Return(s.factory.Ingredient(3), nil)

	_, err := s.service.UpdateIngredient(s.ctx, s.factory.User(2, user.RoleUser), 3, inbound.IngredientCommand{Name: "x", Reference: "g"})

	assert.Equal(s.T(), errors.CodeForbidden, errors.GetCode(err))
}

func (s *IngredientServiceTestSuite) TestUpdateIngredientDropsCachedNutrition() {
	s.ingredients.On("FindByID", mock.Anything, int64(3)).Return(s.factory.Ingredient(3), nil)
	s.ingredients.On("Update", mock.Anything, mock.Anything).Return(nil)
	s.recipes.On("IDsUsingIngredient", mock.Anything, int64(3)).Return([]int64{1, 2}, nil)
	for _, key := range []string{"recipe:1:nutrition", "recipe:2:nutrition", "recipe:9:nutrition"} {
		require.NoError(s.T(), s.cache.Set(s.ctx, key, []byte("{}"), 0))
	}

	_, err := s.service.UpdateIngredient(s.ctx, s.factory.Root(1), 3, inbound.IngredientCommand{
		Name: "Sugar", Reference: "g", Carbs: 100,
	})

	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"recipe:9:nutrition"}, s.cache.Keys())
}

func (s *IngredientServiceTestSuite) TestDeleteIngredientInUse() {
	s.ingredients.On("FindByID", mock.Anything, int64(3)).Return(s.factory.Ingredient(3), nil)
	s.recipes.On("IDsUsingIngredient", mock.Anything, int64(3)).Return([]int64{4}, nil)

	err := s.service.DeleteIngredient(s.ctx, s.factory.Root(1), 3)

	assert.Equal(s.T(), errors.CodeConflict, errors.GetCode(err))
	s.ingredients.AssertNotCalled(s.T(), "Delete", mock.Anything, mock.Anything)
}

func (s *IngredientServiceTestSuite) TestGetIngredientIncludesUnits() {
	s.ingredients.On("FindByID", mock.Anything, int64(3)).Return(s.factory.Ingredient(3), nil)
	s.units.On("ListByIngredient", mock.Anything, int64(3)).
		Return([]*ingredient.Unit{s.factory.Unit(8, 3, ingredient.UnitTablespoon, 15)}, nil)

	dto, err := s.service.GetIngredient(s.ctx, nil, 3)

	require.NoError(s.T(), err)
	require.Len(s.T(), dto.Units, 1)
	assert.Equal(s.T(), "Esslöffel", dto.Units[0].DisplayName)
}

func (s *IngredientServiceTestSuite) TestCreateUnitForUnknownIngredient() {
	s.ingredients.On("FindByID", mock.Anything, int64(5)).Return(nil, nil)

	_, err := s.service.CreateUnit(s.ctx, s.factory.User(2, user.RoleUser), 5, inbound.UnitCommand{Identifier: "pcs", BaseValue: 50})

	assert.Equal(s.T(), errors.CodeIngredientNotFound, errors.GetCode(err))
}

func (s *IngredientServiceTestSuite) TestCreateUnitByAnyUser() {
	s.ingredients.On("FindByID", mock.Anything, int64(3)).Return(s.factory.Ingredient(3), nil)
	s.units.On("Create", mock.Anything, mock.AnythingOfType("*ingredient.Unit")).Return(nil)

	dto, err := s.service.CreateUnit(s.ctx, s.factory.User(2, user.RoleUser), 3, inbound.UnitCommand{Identifier: "pcs", BaseValue: 50})

	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Stück", dto.DisplayName)
	assert.Equal(s.T(), int64(3), dto.IngredientID)
}

func (s *IngredientServiceTestSuite) TestDeleteUnitNeedsRoot() {
	s.units.On("FindByID", mock.Anything, int64(8)).Return(s.factory.Unit(8, 3, ingredient.UnitPinch, 0.5), nil)
	s.ingredients.On("FindByID", mock.Anything, int64(3)).Return(s.factory.Ingredient(3), nil)

	err := s.service.DeleteUnit(s.ctx, s.factory.User(2, user.RoleUser), 8)

	assert.Equal(s.T(), errors.CodeForbidden, errors.GetCode(err))
	s.units.AssertNotCalled(s.T(), "Delete", mock.Anything, mock.Anything)
}

func (s *IngredientServiceTestSuite) TestListIngredientsClampsPage() {
	s.ingredients.On("List", mock.Anything, outbound.ListFilter{Search: "egg", Limit: inbound.MaxPageSize}).
		Return([]*ingredient.Ingredient{s.factory.Ingredient(1)}, nil)

	dtos, err := s.service.ListIngredients(s.ctx, nil, inbound.ListQuery{
		Search:           "  Egg ",
		PaginationParams: inbound.PaginationParams{Limit: 10000},
	})

	require.NoError(s.T(), err)
	assert.Len(s.T(), dtos, 1)
	assert.Nil(s.T(), dtos[0].Units)
}

func TestIngredientServiceTestSuite(t *testing.T) {
	suite.Run(t, new(IngredientServiceTestSuite))
}
