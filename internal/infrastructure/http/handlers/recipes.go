package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"github.com/alchemorsel/recipes/pkg/errors"
	"go.uber.org/zap"
)

// RecipeHandlers handles recipe and step requests
type RecipeHandlers struct {
	base
	recipes   inbound.RecipeService
	steps     inbound.StepService
	maxUpload int64
}

// NewRecipeHandlers creates a new recipe handlers instance
func NewRecipeHandlers(recipes inbound.RecipeService, steps inbound.StepService, validator Validator, maxUpload int64, logger *zap.Logger) *RecipeHandlers {
	return &RecipeHandlers{
		base:      base{validator: validator, logger: logger},
		recipes:   recipes,
		steps:     steps,
		maxUpload: maxUpload,
	}
}

func recipeQuery(r *http.Request) (inbound.RecipeQuery, error) {
	page, err := pagination(r)
	if err != nil {
		return inbound.RecipeQuery{}, err
	}
	q := r.URL.Query()
	return inbound.RecipeQuery{
		Search:           q.Get("search"),
		Tags:             csv(q.Get("tags")),
		PaginationParams: page,
	}, nil
}

// ListRecipes handles GET /api/v1/recipes?search=&tags=a,b&limit=&offset=
func (h *RecipeHandlers) ListRecipes(w http.ResponseWriter, r *http.Request) {
	query, err := recipeQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	recipes, err := h.recipes.ListRecipes(r.Context(), actor(r), query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, recipes)
}

// CountRecipes handles GET /api/v1/recipes/count
func (h *RecipeHandlers) CountRecipes(w http.ResponseWriter, r *http.Request) {
	query, err := recipeQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	count, err := h.recipes.CountRecipes(r.Context(), actor(r), query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeCount(w, count)
}

// GetRecipe handles GET /api/v1/recipes/{id}
func (h *RecipeHandlers) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	recipe, err := h.recipes.GetRecipe(r.Context(), actor(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, recipe)
}

// CreateRecipe handles POST /api/v1/recipes
func (h *RecipeHandlers) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.RecipeCommand
	if err := h.decode(r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	recipe, err := h.recipes.CreateRecipe(r.Context(), actor(r), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, recipe)
}

// UpdateRecipe handles PUT /api/v1/recipes/{id}
func (h *RecipeHandlers) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.RecipeCommand
	if err := h.decode(r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	recipe, err := h.recipes.UpdateRecipe(r.Context(), actor(r), id, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, recipe)
}

// DeleteRecipe handles DELETE /api/v1/recipes/{id}
func (h *RecipeHandlers) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.recipes.DeleteRecipe(r.Context(), actor(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Nutrition handles GET /api/v1/recipes/{id}/nutrition
func (h *RecipeHandlers) Nutrition(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	totals, err := h.recipes.Nutrition(r.Context(), actor(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, totals)
}

// BringExport handles GET /api/v1/recipes/{id}/bring.json?portions=
func (h *RecipeHandlers) BringExport(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	portions := 1.0
	if raw := r.URL.Query().Get("portions"); raw != "" {
		portions, err = strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(portions) || math.IsInf(portions, 0) {
			h.writeError(w, r, errors.NewBadRequestError("Invalid portions "+strconv.Quote(raw)))
			return
		}
	}

	export, err := h.recipes.ShoppingList(r.Context(), actor(r), id, portions)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, export)
}

// UploadImage handles PUT /api/v1/recipes/{id}/image with a multipart
// "image" file
func (h *RecipeHandlers) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	file, filename, err := upload(w, r, "image", h.maxUpload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer file.Close()

	recipe, err := h.recipes.AttachImage(r.Context(), actor(r), id, filename, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, recipe)
}

// ListSteps handles GET /api/v1/recipes/{id}/steps
func (h *RecipeHandlers) ListSteps(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	steps, err := h.steps.ListSteps(r.Context(), actor(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, steps)
}

// CountSteps handles GET /api/v1/recipes/{id}/steps/count
func (h *RecipeHandlers) CountSteps(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	count, err := h.steps.CountSteps(r.Context(), actor(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeCount(w, count)
}

// CreateStep handles POST /api/v1/recipes/{id}/steps
func (h *RecipeHandlers) CreateStep(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.StepCommand
	if err := h.decode(r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	step, err := h.steps.CreateStep(r.Context(), actor(r), id, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, step)
}

// GetStep handles GET /api/v1/steps/{id}
func (h *RecipeHandlers) GetStep(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	step, err := h.steps.GetStep(r.Context(), actor(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, step)
}

// UpdateStep handles PUT /api/v1/steps/{id}
func (h *RecipeHandlers) UpdateStep(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.StepCommand
	if err := h.decode(r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	step, err := h.steps.UpdateStep(r.Context(), actor(r), id, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, step)
}

// DeleteStep handles DELETE /api/v1/steps/{id}
func (h *RecipeHandlers) DeleteStep(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.steps.DeleteStep(r.Context(), actor(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveStepUp handles POST /api/v1/steps/{id}/move-up and returns the
// reordered steps of the recipe
func (h *RecipeHandlers) MoveStepUp(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.steps.MoveStepUp)
}

// MoveStepDown handles POST /api/v1/steps/{id}/move-down
func (h *RecipeHandlers) MoveStepDown(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.steps.MoveStepDown)
}

func (h *RecipeHandlers) move(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actor *user.User, id int64) ([]*inbound.StepDTO, error)) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	steps, err := fn(r.Context(), actor(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, steps)
}
