// Package recipe provides the application layer for recipe management
// This implements the use cases defined in the inbound ports
package recipe

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/alchemorsel/recipes/internal/application/authz"
	"github.com/alchemorsel/recipes/internal/domain/recipe"
	"github.com/alchemorsel/recipes/internal/domain/tag"
	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/alchemorsel/recipes/pkg/errors"
	"go.uber.org/zap"
)

// RecipeService implements the recipe use cases
type RecipeService struct {
	recipeRepo outbound.RecipeRepository
	tagRepo    outbound.TagRepository
	userRepo   outbound.UserRepository
	tx         outbound.Transactor
	storage    outbound.StorageService
	cache      outbound.CacheRepository
	events     outbound.EventPublisher
	logger     *zap.Logger
}

// NewRecipeService creates a new recipe service
func NewRecipeService(
	recipeRepo outbound.RecipeRepository,
	tagRepo outbound.TagRepository,
	userRepo outbound.UserRepository,
	tx outbound.Transactor,
	storage outbound.StorageService,
	cache outbound.CacheRepository,
	events outbound.EventPublisher,
	logger *zap.Logger,
) *RecipeService {
	return &RecipeService{
		recipeRepo: recipeRepo,
		tagRepo:    tagRepo,
		userRepo:   userRepo,
		tx:         tx,
		storage:    storage,
		cache:      cache,
		events:     events,
		logger:     logger.Named("recipe-service"),
	}
}

var _ inbound.RecipeService = (*RecipeService)(nil)

// CreateRecipe creates a new recipe owned by the actor
func (s *RecipeService) CreateRecipe(ctx context.Context, actor *user.User, cmd inbound.RecipeCommand) (*inbound.RecipeDTO, error) {
	if err := authz.Authorize(authz.Recipes, authz.ActionCreate, actor, nil); err != nil {
		return nil, err
	}

	s.logger.Info("Creating new recipe",
		zap.String("name", cmd.Name),
		zap.Int64("owner_id", actor.ID()),
	)

	ownerID := actor.ID()
	entity, err := recipe.NewRecipe(cmd.Name, cmd.Description, cmd.DefaultServings, &ownerID)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := s.applyAssociations(ctx, entity, cmd); err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.recipeRepo.Create(ctx, entity)
	})
	if err != nil {
		return nil, errors.NewDatabaseError("create recipe", err)
	}

	s.logger.Info("Recipe created successfully",
		zap.Int64("recipe_id", entity.ID()),
		zap.String("name", entity.Name()),
	)

	return s.entityToDTO(ctx, entity)
}

// UpdateRecipe updates an existing recipe, replacing its tags and fitting recipes
func (s *RecipeService) UpdateRecipe(ctx context.Context, actor *user.User, id int64, cmd inbound.RecipeCommand) (*inbound.RecipeDTO, error) {
	s.logger.Info("Updating recipe", zap.Int64("recipe_id", id))

	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(authz.Recipes, authz.ActionUpdate, actor, entity); err != nil {
		return nil, err
	}

	servings := cmd.DefaultServings
	if servings == 0 {
		servings = entity.DefaultServings()
	}
	if err := entity.Update(cmd.Name, cmd.Description, servings); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := s.applyAssociations(ctx, entity, cmd); err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.recipeRepo.Update(ctx, entity)
	})
	if err != nil {
		return nil, errors.NewDatabaseError("update recipe", err)
	}

	s.logger.Info("Recipe updated successfully", zap.Int64("recipe_id", id))

	return s.entityToDTO(ctx, entity)
}

// DeleteRecipe deletes a recipe with its steps
func (s *RecipeService) DeleteRecipe(ctx context.Context, actor *user.User, id int64) error {
	entity, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Authorize(authz.Recipes, authz.ActionDelete, actor, entity); err != nil {
		return err
	}

	if err := s.recipeRepo.Delete(ctx, id); err != nil {
		return errors.NewDatabaseError("delete recipe", err)
	}
	s.invalidateRecipeCache(ctx, id)

	s.logger.Info("Recipe deleted successfully", zap.Int64("recipe_id", id))
	return nil
}

// AttachImage stores an uploaded original image. Variants are generated in
// the background once the attach event is published.
func (s *RecipeService) AttachImage(ctx context.Context, actor *user.User, id int64, filename string, data io.Reader) (*inbound.RecipeDTO, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(authz.Recipes, authz.ActionUpdate, actor, entity); err != nil {
		return nil, err
	}

	ext := strings.ToLower(recipe.ImageExt(filename))
	contentType, ok := ImageContentType(ext)
	if !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("unsupported image type %q", ext))
	}
	original := "original." + ext
	key := path.Join("pictures", fmt.Sprint(id), original)

	if err := s.storage.Put(ctx, key, data, contentType); err != nil {
		return nil, errors.NewStorageError("store recipe image", err)
	}
	if err := entity.AttachImage(original); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.recipeRepo.Update(ctx, entity)
	})
	if err != nil {
		return nil, errors.NewDatabaseError("update recipe image", err)
	}

	for _, event := range entity.Events() {
		s.events.Publish(ctx, event)
	}

	s.logger.Info("Recipe image attached",
		zap.Int64("recipe_id", id),
		zap.String("key", key),
	)

	return s.entityToDTO(ctx, entity)
}

// ListRecipes lists recipes matching the query
func (s *RecipeService) ListRecipes(ctx context.Context, actor *user.User, query inbound.RecipeQuery) ([]*inbound.RecipeDTO, error) {
	if err := authz.Authorize(authz.Recipes, authz.ActionList, actor, nil); err != nil {
		return nil, err
	}

	recipes, err := s.recipeRepo.List(ctx, toFilter(query))
	if err != nil {
		return nil, errors.NewDatabaseError("list recipes", err)
	}
	return s.entitiesToDTOs(ctx, recipes)
}

// CountRecipes counts recipes matching the query, ignoring pagination
func (s *RecipeService) CountRecipes(ctx context.Context, actor *user.User, query inbound.RecipeQuery) (int64, error) {
	if err := authz.Authorize(authz.Recipes, authz.ActionList, actor, nil); err != nil {
		return 0, err
	}

	count, err := s.recipeRepo.Count(ctx, toFilter(query))
	if err != nil {
		return 0, errors.NewDatabaseError("count recipes", err)
	}
	return count, nil
}

// GetRecipe returns a single recipe
func (s *RecipeService) GetRecipe(ctx context.Context, actor *user.User, id int64) (*inbound.RecipeDTO, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(authz.Recipes, authz.ActionGet, actor, entity); err != nil {
		return nil, err
	}
	return s.entityToDTO(ctx, entity)
}

func (s *RecipeService) load(ctx context.Context, id int64) (*recipe.Recipe, error) {
	entity, err := s.recipeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.NewDatabaseError("find recipe", err)
	}
	if entity == nil {
		return nil, errors.NewRecipeNotFoundError(id)
	}
	return entity, nil
}

// applyAssociations checks that every referenced tag and fitting recipe
// exists before attaching them.
func (s *RecipeService) applyAssociations(ctx context.Context, entity *recipe.Recipe, cmd inbound.RecipeCommand) error {
	entity.SetTags(cmd.Tags)
	if err := entity.SetFitting(cmd.FittingRecipes); err != nil {
		return errors.NewValidationError(err.Error())
	}

	if ids := entity.TagIDs(); len(ids) > 0 {
		tags, err := s.tagRepo.FindByIDs(ctx, ids)
		if err != nil {
			return errors.NewDatabaseError("find tags", err)
		}
		if len(tags) != len(ids) {
			return errors.NewValidationError("unknown tag in tags")
		}
	}
	if ids := entity.FittingIDs(); len(ids) > 0 {
		fitting, err := s.recipeRepo.FindByIDs(ctx, ids)
		if err != nil {
			return errors.NewDatabaseError("find fitting recipes", err)
		}
		if len(fitting) != len(ids) {
			return errors.NewValidationError("unknown recipe in fitting_recipes")
		}
	}
	return nil
}

func toFilter(query inbound.RecipeQuery) outbound.RecipeFilter {
	page := query.Clamp()
	return outbound.RecipeFilter{
		Search: strings.Fields(strings.ToLower(query.Search)),
		Tags:   tag.NormalizeNames(query.Tags),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
}

var contentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
}

// ImageContentType maps an accepted upload extension to its MIME type
func ImageContentType(ext string) (string, bool) {
	ct, ok := contentTypes[ext]
	return ct, ok
}
