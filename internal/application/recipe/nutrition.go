package recipe

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"time"

	"github.com/alchemorsel/recipes/internal/application/authz"
	"github.com/alchemorsel/recipes/internal/domain/nutrition"
	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/alchemorsel/recipes/pkg/errors"
	"go.uber.org/zap"
)

const nutritionCacheTTL = 30 * time.Minute

// Nutrition returns the macro and calorie totals of a recipe
func (s *RecipeService) Nutrition(ctx context.Context, actor *user.User, id int64) (*nutrition.Totals, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(authz.Recipes, authz.ActionGet, actor, entity); err != nil {
		return nil, err
	}

	if totals, ok := s.getCachedNutrition(ctx, id); ok {
		return totals, nil
	}

	usages, err := s.recipeRepo.Usages(ctx, []int64{id})
	if err != nil {
		return nil, errors.NewDatabaseError("load recipe ingredients", err)
	}
	totals := nutrition.Aggregate(usages[id])

	s.cacheNutrition(ctx, id, &totals)
	return &totals, nil
}

// ShoppingList consolidates the recipe's ingredients for the given number
// of portions. Negative, NaN and infinite portions count as one.
func (s *RecipeService) ShoppingList(ctx context.Context, actor *user.User, id int64, portions float64) (*inbound.BringExport, error) {
	if portions < 0 || math.IsNaN(portions) || math.IsInf(portions, 0) {
		portions = 1
	}

	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(authz.Recipes, authz.ActionGet, actor, entity); err != nil {
		return nil, err
	}

	var author string
	if ownerID := entity.OwnerID(); ownerID != nil {
		owner, err := s.userRepo.FindByID(ctx, *ownerID)
		if err != nil {
			return nil, errors.NewDatabaseError("find recipe owner", err)
		}
		if owner != nil {
			author = owner.DisplayName()
		}
	}

	usages, err := s.recipeRepo.Usages(ctx, []int64{id})
	if err != nil {
		return nil, errors.NewDatabaseError("load recipe ingredients", err)
	}

	items := nutrition.Consolidate(usages[id], portions, nutrition.FormatRecipe)
	return &inbound.BringExport{
		Name:   entity.Name(),
		Author: author,
		Items:  BringItems(items),
	}, nil
}

// BringItems converts consolidated items to Bring! lines
func BringItems(items []nutrition.Item) []inbound.BringItem {
	out := make([]inbound.BringItem, 0, len(items))
	for _, item := range items {
		out = append(out, inbound.BringItem{ItemID: item.Name, Spec: item.Spec})
	}
	return out
}

// Cache operations

func nutritionKey(id int64) string {
	return fmt.Sprintf("recipe:%d:nutrition", id)
}

func (s *RecipeService) getCachedNutrition(ctx context.Context, id int64) (*nutrition.Totals, bool) {
	data, err := s.cache.Get(ctx, nutritionKey(id))
	if err != nil {
		if !stderrors.Is(err, outbound.ErrCacheMiss) {
			s.logger.Warn("Nutrition cache read failed", zap.Int64("recipe_id", id), zap.Error(err))
		}
		return nil, false
	}
	var totals nutrition.Totals
	if err := json.Unmarshal(data, &totals); err != nil {
		return nil, false
	}
	return &totals, true
}

func (s *RecipeService) cacheNutrition(ctx context.Context, id int64, totals *nutrition.Totals) {
	data, err := json.Marshal(totals)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, nutritionKey(id), data, nutritionCacheTTL); err != nil {
		s.logger.Warn("Nutrition cache write failed", zap.Int64("recipe_id", id), zap.Error(err))
	}
}

func (s *RecipeService) invalidateRecipeCache(ctx context.Context, id int64) {
	InvalidateNutrition(ctx, s.cache, s.logger, id)
}

// InvalidateNutrition drops the cached totals of a recipe. Step and
// ingredient changes call it too.
func InvalidateNutrition(ctx context.Context, cache outbound.CacheRepository, logger *zap.Logger, id int64) {
	if err := cache.Delete(ctx, nutritionKey(id)); err != nil {
		logger.Warn("Nutrition cache invalidation failed", zap.Int64("recipe_id", id), zap.Error(err))
	}
}
