package recipe

import (
	"context"
	"sort"

	"github.com/alchemorsel/recipes/internal/domain/recipe"
	"github.com/alchemorsel/recipes/internal/domain/tag"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"github.com/alchemorsel/recipes/pkg/errors"
)

// SummaryOf converts a recipe into its short reference form
func SummaryOf(entity *recipe.Recipe) inbound.RecipeSummaryDTO {
	return inbound.RecipeSummaryDTO{
		ID:    entity.ID(),
		Name:  entity.Name(),
		Image: entity.ImageURLs(),
	}
}

func (s *RecipeService) entityToDTO(ctx context.Context, entity *recipe.Recipe) (*inbound.RecipeDTO, error) {
	dtos, err := s.entitiesToDTOs(ctx, []*recipe.Recipe{entity})
	if err != nil {
		return nil, err
	}
	return dtos[0], nil
}

// entitiesToDTOs resolves tags and fitting recipes for a page of recipes
// with one query each.
func (s *RecipeService) entitiesToDTOs(ctx context.Context, entities []*recipe.Recipe) ([]*inbound.RecipeDTO, error) {
	var tagIDs, fittingIDs []int64
	for _, e := range entities {
		tagIDs = append(tagIDs, e.TagIDs()...)
		fittingIDs = append(fittingIDs, e.FittingIDs()...)
	}

	tags := map[int64]*tag.Tag{}
	if len(tagIDs) > 0 {
		found, err := s.tagRepo.FindByIDs(ctx, tagIDs)
		if err != nil {
			return nil, errors.NewDatabaseError("find recipe tags", err)
		}
		for _, t := range found {
			tags[t.ID] = t
		}
	}

	fitting := map[int64]*recipe.Recipe{}
	if len(fittingIDs) > 0 {
		found, err := s.recipeRepo.FindByIDs(ctx, fittingIDs)
		if err != nil {
			return nil, errors.NewDatabaseError("find fitting recipes", err)
		}
		for _, r := range found {
			fitting[r.ID()] = r
		}
	}

	dtos := make([]*inbound.RecipeDTO, 0, len(entities))
	for _, e := range entities {
		dto := &inbound.RecipeDTO{
			ID:              e.ID(),
			Name:            e.Name(),
			Description:     e.Description(),
			DefaultServings: e.DefaultServings(),
			OwnerID:         e.OwnerID(),
			Image:           e.ImageURLs(),
			Tags:            []inbound.TagDTO{},
			FittingRecipes:  []inbound.RecipeSummaryDTO{},
			CreatedAt:       e.CreatedAt(),
			UpdatedAt:       e.UpdatedAt(),
		}
		for _, id := range e.TagIDs() {
			if t, ok := tags[id]; ok {
				dto.Tags = append(dto.Tags, inbound.TagDTO{ID: t.ID, Name: t.Name})
			}
		}
		sort.Slice(dto.Tags, func(i, j int) bool { return dto.Tags[i].Name < dto.Tags[j].Name })
		for _, id := range e.FittingIDs() {
			if r, ok := fitting[id]; ok {
				dto.FittingRecipes = append(dto.FittingRecipes, SummaryOf(r))
			}
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}
