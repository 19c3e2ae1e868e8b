// Package ingredient provides the application layer for ingredients and
// their custom units
package ingredient

import (
	"context"
	"strings"

	"github.com/alchemorsel/recipes/internal/application/authz"
	recipeapp "github.com/alchemorsel/recipes/internal/application/recipe"
	"github.com/alchemorsel/recipes/internal/domain/ingredient"
	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/alchemorsel/recipes/pkg/errors"
	"go.uber.org/zap"
)

var policy = authz.Ingredients[ingredient.Ingredient]

// IngredientService implements the ingredient and unit use cases
type IngredientService struct {
	ingredientRepo outbound.IngredientRepository
	unitRepo       outbound.UnitRepository
	recipeRepo     outbound.RecipeRepository
	cache          outbound.CacheRepository
	logger         *zap.Logger
}

// NewIngredientService creates a new ingredient service
func NewIngredientService(
	ingredientRepo outbound.IngredientRepository,
	unitRepo outbound.UnitRepository,
	recipeRepo outbound.RecipeRepository,
	cache outbound.CacheRepository,
	logger *zap.Logger,
) *IngredientService {
	return &IngredientService{
		ingredientRepo: ingredientRepo,
		unitRepo:       unitRepo,
		recipeRepo:     recipeRepo,
		cache:          cache,
		logger:         logger.Named("ingredient-service"),
	}
}

var _ inbound.IngredientService = (*IngredientService)(nil)

// ListIngredients lists ingredients whose name contains the search term
func (s *IngredientService) ListIngredients(ctx context.Context, actor *user.User, query inbound.ListQuery) ([]*inbound.IngredientDTO, error) {
	if err := authz.Authorize(policy, authz.ActionList, actor, nil); err != nil {
		return nil, err
	}

	ingredients, err := s.ingredientRepo.List(ctx, toFilter(query))
	if err != nil {
		return nil, errors.NewDatabaseError("list ingredients", err)
	}
	dtos := make([]*inbound.IngredientDTO, 0, len(ingredients))
	for _, ing := range ingredients {
		dtos = append(dtos, toDTO(ing, nil))
	}
	return dtos, nil
}

// CountIngredients counts ingredients matching the search term
func (s *IngredientService) CountIngredients(ctx context.Context, actor *user.User, query inbound.ListQuery) (int64, error) {
	if err := authz.Authorize(policy, authz.ActionList, actor, nil); err != nil {
		return 0, err
	}

	count, err := s.ingredientRepo.Count(ctx, toFilter(query))
	if err != nil {
		return 0, errors.NewDatabaseError("count ingredients", err)
	}
	return count, nil
}

// GetIngredient returns an ingredient with its units
func (s *IngredientService) GetIngredient(ctx context.Context, actor *user.User, id int64) (*inbound.IngredientDTO, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(policy, authz.ActionGet, actor, entity); err != nil {
		return nil, err
	}

	units, err := s.unitRepo.ListByIngredient(ctx, id)
	if err != nil {
		return nil, errors.NewDatabaseError("list units", err)
	}
	return toDTO(entity, units), nil
}

// CreateIngredient creates a new ingredient
func (s *IngredientService) CreateIngredient(ctx context.Context, actor *user.User, cmd inbound.IngredientCommand) (*inbound.IngredientDTO, error) {
	if err := authz.Authorize(policy, authz.ActionCreate, actor, nil); err != nil {
		return nil, err
	}

	entity, err := ingredient.NewIngredient(cmd.Name, ingredient.Reference(cmd.Reference), macrosOf(cmd))
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := s.ingredientRepo.Create(ctx, entity); err != nil {
		return nil, errors.NewDatabaseError("create ingredient", err)
	}

	s.logger.Info("Ingredient created",
		zap.Int64("ingredient_id", entity.ID),
		zap.String("name", entity.Name),
	)
	return toDTO(entity, nil), nil
}

// UpdateIngredient changes an ingredient. Cached nutrition of every recipe
// using it is dropped.
func (s *IngredientService) UpdateIngredient(ctx context.Context, actor *user.User, id int64, cmd inbound.IngredientCommand) (*inbound.IngredientDTO, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(policy, authz.ActionUpdate, actor, entity); err != nil {
		return nil, err
	}

	if err := entity.Update(cmd.Name, ingredient.Reference(cmd.Reference), macrosOf(cmd)); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := s.ingredientRepo.Update(ctx, entity); err != nil {
		return nil, errors.NewDatabaseError("update ingredient", err)
	}
	s.invalidateUsers(ctx, id)

	s.logger.Info("Ingredient updated", zap.Int64("ingredient_id", id))
	return toDTO(entity, nil), nil
}

// DeleteIngredient removes an ingredient that no step uses anymore
func (s *IngredientService) DeleteIngredient(ctx context.Context, actor *user.User, id int64) error {
	entity, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Authorize(policy, authz.ActionDelete, actor, entity); err != nil {
		return err
	}

	used, err := s.recipeRepo.IDsUsingIngredient(ctx, id)
	if err != nil {
		return errors.NewDatabaseError("find recipes using ingredient", err)
	}
	if len(used) > 0 {
		return errors.NewConflictError("Ingredient is still used by recipes").WithMetadata("recipe_ids", used)
	}

	if err := s.ingredientRepo.Delete(ctx, id); err != nil {
		return errors.NewDatabaseError("delete ingredient", err)
	}

	s.logger.Info("Ingredient deleted", zap.Int64("ingredient_id", id))
	return nil
}

// ListUnits lists the custom units of an ingredient
func (s *IngredientService) ListUnits(ctx context.Context, actor *user.User, ingredientID int64) ([]*inbound.UnitDTO, error) {
	entity, err := s.load(ctx, ingredientID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(policy, authz.ActionGet, actor, entity); err != nil {
		return nil, err
	}

	units, err := s.unitRepo.ListByIngredient(ctx, ingredientID)
	if err != nil {
		return nil, errors.NewDatabaseError("list units", err)
	}
	return unitDTOs(units), nil
}

// CreateUnit adds a unit to an ingredient
func (s *IngredientService) CreateUnit(ctx context.Context, actor *user.User, ingredientID int64, cmd inbound.UnitCommand) (*inbound.UnitDTO, error) {
	entity, err := s.load(ctx, ingredientID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(policy, authz.ActionCreate, actor, entity); err != nil {
		return nil, err
	}

	unit, err := ingredient.NewUnit(ingredientID, ingredient.UnitIdentifier(cmd.Identifier), cmd.BaseValue)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := s.unitRepo.Create(ctx, unit); err != nil {
		return nil, errors.NewDatabaseError("create unit", err)
	}

	s.logger.Info("Unit created",
		zap.Int64("ingredient_id", ingredientID),
		zap.String("identifier", string(unit.Identifier)),
	)
	return unitDTO(unit), nil
}

// UpdateUnit changes a unit and drops the cached nutrition of affected recipes
func (s *IngredientService) UpdateUnit(ctx context.Context, actor *user.User, id int64, cmd inbound.UnitCommand) (*inbound.UnitDTO, error) {
	unit, err := s.loadUnit(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	if err := unit.Update(ingredient.UnitIdentifier(cmd.Identifier), cmd.BaseValue); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := s.unitRepo.Update(ctx, unit); err != nil {
		return nil, errors.NewDatabaseError("update unit", err)
	}
	s.invalidateUsers(ctx, unit.IngredientID)

	s.logger.Info("Unit updated", zap.Int64("unit_id", id))
	return unitDTO(unit), nil
}

// DeleteUnit removes a unit. Step usages measured in it are removed with it.
func (s *IngredientService) DeleteUnit(ctx context.Context, actor *user.User, id int64) error {
	unit, err := s.loadUnit(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return err
	}

	s.invalidateUsers(ctx, unit.IngredientID)
	if err := s.unitRepo.Delete(ctx, id); err != nil {
		return errors.NewDatabaseError("delete unit", err)
	}

	s.logger.Info("Unit deleted", zap.Int64("unit_id", id))
	return nil
}

func (s *IngredientService) load(ctx context.Context, id int64) (*ingredient.Ingredient, error) {
	entity, err := s.ingredientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.NewDatabaseError("find ingredient", err)
	}
	if entity == nil {
		return nil, errors.NewIngredientNotFoundError(id)
	}
	return entity, nil
}

// loadUnit authorizes against the owning ingredient
func (s *IngredientService) loadUnit(ctx context.Context, actor *user.User, id int64, action authz.Action) (*ingredient.Unit, error) {
	unit, err := s.unitRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.NewDatabaseError("find unit", err)
	}
	if unit == nil {
		return nil, errors.NewUnitNotFoundError(id)
	}
	owner, err := s.load(ctx, unit.IngredientID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(policy, action, actor, owner); err != nil {
		return nil, err
	}
	return unit, nil
}

func (s *IngredientService) invalidateUsers(ctx context.Context, ingredientID int64) {
	ids, err := s.recipeRepo.IDsUsingIngredient(ctx, ingredientID)
	if err != nil {
		s.logger.Warn("Cannot resolve recipes using ingredient",
			zap.Int64("ingredient_id", ingredientID),
			zap.Error(err),
		)
		return
	}
	for _, id := range ids {
		recipeapp.InvalidateNutrition(ctx, s.cache, s.logger, id)
	}
}

func toFilter(query inbound.ListQuery) outbound.ListFilter {
	page := query.Clamp()
	return outbound.ListFilter{
		Search: strings.ToLower(strings.TrimSpace(query.Search)),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
}

func macrosOf(cmd inbound.IngredientCommand) ingredient.Macros {
	return ingredient.Macros{
		Carbs:    cmd.Carbs,
		Fat:      cmd.Fat,
		Proteins: cmd.Proteins,
		Alcohol:  cmd.Alc,
	}
}

func toDTO(entity *ingredient.Ingredient, units []*ingredient.Unit) *inbound.IngredientDTO {
	dto := &inbound.IngredientDTO{
		ID:        entity.ID,
		Name:      entity.Name,
		Reference: entity.Reference,
		Carbs:     entity.Macros.Carbs,
		Fat:       entity.Macros.Fat,
		Proteins:  entity.Macros.Proteins,
		Alc:       entity.Macros.Alcohol,
		CreatedAt: entity.CreatedAt,
		UpdatedAt: entity.UpdatedAt,
	}
	if units != nil {
		dto.Units = unitDTOs(units)
	}
	return dto
}

func unitDTO(unit *ingredient.Unit) *inbound.UnitDTO {
	return &inbound.UnitDTO{
		ID:           unit.ID,
		IngredientID: unit.IngredientID,
		Identifier:   unit.Identifier,
		DisplayName:  unit.Identifier.DisplayName(),
		BaseValue:    unit.BaseValue,
	}
}

func unitDTOs(units []*ingredient.Unit) []*inbound.UnitDTO {
	out := make([]*inbound.UnitDTO, 0, len(units))
	for _, u := range units {
		out = append(out, unitDTO(u))
	}
	return out
}
