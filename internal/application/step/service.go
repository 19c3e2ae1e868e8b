// Package step provides the application layer for recipe steps
package step

import (
	"context"

	"github.com/alchemorsel/recipes/internal/application/authz"
	recipeapp "github.com/alchemorsel/recipes/internal/application/recipe"
	"github.com/alchemorsel/recipes/internal/domain/ingredient"
	"github.com/alchemorsel/recipes/internal/domain/recipe"
	"github.com/alchemorsel/recipes/internal/domain/step"
	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/alchemorsel/recipes/pkg/errors"
	"go.uber.org/zap"
)

// StepService implements the step use cases. Access follows the parent
// recipe: reading needs Get, writing needs Update.
type StepService struct {
	stepRepo       outbound.StepRepository
	recipeRepo     outbound.RecipeRepository
	ingredientRepo outbound.IngredientRepository
	unitRepo       outbound.UnitRepository
	tx             outbound.Transactor
	cache          outbound.CacheRepository
	logger         *zap.Logger
}

// NewStepService creates a new step service
func NewStepService(
	stepRepo outbound.StepRepository,
	recipeRepo outbound.RecipeRepository,
	ingredientRepo outbound.IngredientRepository,
	unitRepo outbound.UnitRepository,
	tx outbound.Transactor,
	cache outbound.CacheRepository,
	logger *zap.Logger,
) *StepService {
	return &StepService{
		stepRepo:       stepRepo,
		recipeRepo:     recipeRepo,
		ingredientRepo: ingredientRepo,
		unitRepo:       unitRepo,
		tx:             tx,
		cache:          cache,
		logger:         logger.Named("step-service"),
	}
}

var _ inbound.StepService = (*StepService)(nil)

// ListSteps lists the steps of a recipe ordered by position
func (s *StepService) ListSteps(ctx context.Context, actor *user.User, recipeID int64) ([]*inbound.StepDTO, error) {
	if _, err := s.authorizeRecipe(ctx, actor, recipeID, authz.ActionGet); err != nil {
		return nil, err
	}

	steps, err := s.stepRepo.ListByRecipe(ctx, recipeID)
	if err != nil {
		return nil, errors.NewDatabaseError("list steps", err)
	}
	return toDTOs(steps), nil
}

// CountSteps counts the steps of a recipe
func (s *StepService) CountSteps(ctx context.Context, actor *user.User, recipeID int64) (int64, error) {
	if _, err := s.authorizeRecipe(ctx, actor, recipeID, authz.ActionGet); err != nil {
		return 0, err
	}

	count, err := s.stepRepo.CountByRecipe(ctx, recipeID)
	if err != nil {
		return 0, errors.NewDatabaseError("count steps", err)
	}
	return count, nil
}

// GetStep returns a single step
func (s *StepService) GetStep(ctx context.Context, actor *user.User, id int64) (*inbound.StepDTO, error) {
	entity, err := s.loadAuthorized(ctx, actor, id, authz.ActionGet)
	if err != nil {
		return nil, err
	}
	return toDTO(entity), nil
}

// CreateStep adds a step with its ingredient usages to a recipe
func (s *StepService) CreateStep(ctx context.Context, actor *user.User, recipeID int64, cmd inbound.StepCommand) (*inbound.StepDTO, error) {
	if _, err := s.authorizeRecipe(ctx, actor, recipeID, authz.ActionUpdate); err != nil {
		return nil, err
	}

	entity, err := step.NewStep(recipeID, cmd.Position, cmd.Description, cmd.PreparationTime, cmd.CookingTime, toIngredients(cmd.StepIngredients))
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	for _, in := range entity.Ingredients {
		if in.ID != nil {
			return nil, errors.NewValidationError("new steps cannot reference stored step ingredients")
		}
	}
	if err := s.checkReferences(ctx, entity.Ingredients); err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.stepRepo.Create(ctx, entity)
	})
	if err != nil {
		return nil, errors.NewDatabaseError("create step", err)
	}
	recipeapp.InvalidateNutrition(ctx, s.cache, s.logger, recipeID)

	s.logger.Info("Step created",
		zap.Int64("recipe_id", recipeID),
		zap.Int64("step_id", entity.ID),
		zap.Int("ingredients", len(entity.Ingredients)),
	)
	return toDTO(entity), nil
}

// UpdateStep replaces a step and its ingredient usages. Usages missing from
// the command are deleted.
func (s *StepService) UpdateStep(ctx context.Context, actor *user.User, id int64, cmd inbound.StepCommand) (*inbound.StepDTO, error) {
	entity, err := s.loadAuthorized(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	next, err := step.NewStep(entity.RecipeID, cmd.Position, cmd.Description, cmd.PreparationTime, cmd.CookingTime, toIngredients(cmd.StepIngredients))
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	owned := make(map[int64]struct{}, len(entity.Ingredients))
	for _, in := range entity.Ingredients {
		if in.ID != nil {
			owned[*in.ID] = struct{}{}
		}
	}
	for _, in := range next.Ingredients {
		if in.ID == nil {
			continue
		}
		if _, ok := owned[*in.ID]; !ok {
			return nil, errors.NewValidationError("step ingredient does not belong to the step")
		}
	}
	if err := s.checkReferences(ctx, next.Ingredients); err != nil {
		return nil, err
	}

	removed := entity.Replace(next)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.stepRepo.Update(ctx, entity, removed)
	})
	if err != nil {
		return nil, errors.NewDatabaseError("update step", err)
	}
	recipeapp.InvalidateNutrition(ctx, s.cache, s.logger, entity.RecipeID)

	s.logger.Info("Step updated",
		zap.Int64("step_id", id),
		zap.Int("removed_ingredients", len(removed)),
	)
	return toDTO(entity), nil
}

// DeleteStep removes a step and its usages
func (s *StepService) DeleteStep(ctx context.Context, actor *user.User, id int64) error {
	entity, err := s.loadAuthorized(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return err
	}

	if err := s.stepRepo.Delete(ctx, id); err != nil {
		return errors.NewDatabaseError("delete step", err)
	}
	recipeapp.InvalidateNutrition(ctx, s.cache, s.logger, entity.RecipeID)

	s.logger.Info("Step deleted", zap.Int64("step_id", id))
	return nil
}

// MoveStepUp swaps a step with its predecessor
func (s *StepService) MoveStepUp(ctx context.Context, actor *user.User, id int64) ([]*inbound.StepDTO, error) {
	return s.move(ctx, actor, id, func(ctx context.Context, entity *step.Step) ([]*step.Step, error) {
		if entity.Position < 1 {
			return nil, nil
		}
		prev, err := s.stepRepo.Previous(ctx, entity.RecipeID, entity.Position)
		if err != nil {
			return nil, err
		}
		return step.MoveUp(entity, prev), nil
	})
}

// MoveStepDown swaps a step with its successor
func (s *StepService) MoveStepDown(ctx context.Context, actor *user.User, id int64) ([]*inbound.StepDTO, error) {
	return s.move(ctx, actor, id, func(ctx context.Context, entity *step.Step) ([]*step.Step, error) {
		next, err := s.stepRepo.Next(ctx, entity.RecipeID, entity.Position)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, nil
		}
		return step.MoveDown(entity, next), nil
	})
}

func (s *StepService) move(ctx context.Context, actor *user.User, id int64, swap func(context.Context, *step.Step) ([]*step.Step, error)) ([]*inbound.StepDTO, error) {
	entity, err := s.loadAuthorized(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	var changed []*step.Step
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if changed, err = swap(ctx, entity); err != nil || len(changed) == 0 {
			return err
		}
		return s.stepRepo.SavePositions(ctx, changed)
	})
	if err != nil {
		return nil, errors.NewDatabaseError("move step", err)
	}

	if len(changed) == 0 {
		return toDTOs([]*step.Step{entity}), nil
	}
	s.logger.Debug("Step moved", zap.Int64("step_id", id), zap.Int("position", entity.Position))
	return toDTOs(changed), nil
}

func (s *StepService) authorizeRecipe(ctx context.Context, actor *user.User, recipeID int64, action authz.Action) (*recipe.Recipe, error) {
	parent, err := s.recipeRepo.FindByID(ctx, recipeID)
	if err != nil {
		return nil, errors.NewDatabaseError("find recipe", err)
	}
	if parent == nil {
		return nil, errors.NewRecipeNotFoundError(recipeID)
	}
	if err := authz.Authorize(authz.Recipes, action, actor, parent); err != nil {
		return nil, err
	}
	return parent, nil
}

func (s *StepService) loadAuthorized(ctx context.Context, actor *user.User, id int64, action authz.Action) (*step.Step, error) {
	entity, err := s.stepRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.NewDatabaseError("find step", err)
	}
	if entity == nil {
		return nil, errors.NewStepNotFoundError(id)
	}
	if _, err := s.authorizeRecipe(ctx, actor, entity.RecipeID, action); err != nil {
		return nil, err
	}
	return entity, nil
}

// checkReferences verifies every usage points at an existing ingredient and,
// when given, at a unit of that same ingredient.
func (s *StepService) checkReferences(ctx context.Context, usages []step.Ingredient) error {
	known := map[int64]bool{}
	for _, in := range usages {
		if !known[in.IngredientID] {
			ing, err := s.ingredientRepo.FindByID(ctx, in.IngredientID)
			if err != nil {
				return errors.NewDatabaseError("find ingredient", err)
			}
			if ing == nil {
				return errors.NewIngredientNotFoundError(in.IngredientID)
			}
			known[in.IngredientID] = true
		}
		if in.UnitID == nil {
			continue
		}
		unit, err := s.unitRepo.FindByID(ctx, *in.UnitID)
		if err != nil {
			return errors.NewDatabaseError("find unit", err)
		}
		if unit == nil {
			return errors.NewUnitNotFoundError(*in.UnitID)
		}
		if unit.IngredientID != in.IngredientID {
			return errors.NewValidationError(ingredient.ErrUnitMismatch.Error())
		}
	}
	return nil
}

func toIngredients(cmds []inbound.StepIngredientCommand) []step.Ingredient {
	out := make([]step.Ingredient, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, step.Ingredient{
			ID:           c.ID,
			IngredientID: c.IngredientID,
			Amount:       c.Amount,
			UnitID:       c.UnitID,
			Annotation:   c.Annotation,
		})
	}
	return out
}

func toDTO(entity *step.Step) *inbound.StepDTO {
	dto := &inbound.StepDTO{
		ID:              entity.ID,
		RecipeID:        entity.RecipeID,
		Position:        entity.Position,
		Description:     entity.Description,
		PreparationTime: entity.PreparationTime,
		CookingTime:     entity.CookingTime,
		StepIngredients: make([]inbound.StepIngredientDTO, 0, len(entity.Ingredients)),
		CreatedAt:       entity.CreatedAt,
		UpdatedAt:       entity.UpdatedAt,
	}
	for _, in := range entity.Ingredients {
		var id int64
		if in.ID != nil {
			id = *in.ID
		}
		dto.StepIngredients = append(dto.StepIngredients, inbound.StepIngredientDTO{
			ID:           id,
			IngredientID: in.IngredientID,
			Amount:       in.Amount,
			UnitID:       in.UnitID,
			Annotation:   in.Annotation,
		})
	}
	return dto
}

func toDTOs(steps []*step.Step) []*inbound.StepDTO {
	out := make([]*inbound.StepDTO, 0, len(steps))
	for _, st := range steps {
		out = append(out, toDTO(st))
	}
	return out
}
