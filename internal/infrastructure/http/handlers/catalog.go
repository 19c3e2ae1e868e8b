package handlers

import (
	"net/http"

	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"go.uber.org/zap"
)

// CatalogHandlers handles ingredients, their units, and tags
type CatalogHandlers struct {
	base
	ingredients inbound.IngredientService
	tags        inbound.TagService
}

// NewCatalogHandlers creates a new catalog handlers instance
func NewCatalogHandlers(ingredients inbound.IngredientService, tags inbound.TagService, validator Validator, logger *zap.Logger) *CatalogHandlers {
	return &CatalogHandlers{
		base:        base{validator: validator, logger: logger},
		ingredients: ingredients,
		tags:        tags,
	}
}

// ListIngredients handles GET /api/v1/ingredients?search=&limit=&offset=
func (h *CatalogHandlers) ListIngredients(w http.ResponseWriter, r *http.Request) {
	query, err := listQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ingredients, err := h.ingredients.ListIngredients(r.Context(), actor(r), query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ingredients)
}

// CountIngredients handles GET /api/v1/ingredients/count
func (h *CatalogHandlers) CountIngredients(w http.ResponseWriter, r *http.Request) {
	query, err := listQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	count, err := h.ingredients.CountIngredients(r.Context(), actor(r), query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeCount(w, count)
}

// GetIngredient handles GET /api/v1/ingredients/{id}
func (h *CatalogHandlers) GetIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ingredient, err := h.ingredients.GetIngredient(r.Context(), actor(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ingredient)
}

// CreateIngredient handles POST /api/v1/ingredients
func (h *CatalogHandlers) CreateIngredient(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.IngredientCommand
	if err := h.decode(r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	ingredient, err := h.ingredients.CreateIngredient(r.Context(), actor(r), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, ingredient)
}

// UpdateIngredient handles PUT /api/v1/ingredients/{id}
func (h *CatalogHandlers) UpdateIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.IngredientCommand
	if err := h.decode(r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	ingredient, err := h.ingredients.UpdateIngredient(r.Context(), actor(r), id, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ingredient)
}

// DeleteIngredient handles DELETE /api/v1/ingredients/{id}
func (h *CatalogHandlers) DeleteIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.ingredients.DeleteIngredient(r.Context(), actor(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUnits handles GET /api/v1/ingredients/{id}/units
func (h *CatalogHandlers) ListUnits(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	units, err := h.ingredients.ListUnits(r.Context(), actor(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, units)
}

// CreateUnit handles POST /api/v1/ingredients/{id}/units
func (h *CatalogHandlers) CreateUnit(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.UnitCommand
	if err := h.decode(r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	unit, err := h.ingredients.CreateUnit(r.Context(), actor(r), id, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, unit)
}

// UpdateUnit handles PUT /api/v1/units/{id}
func (h *CatalogHandlers) UpdateUnit(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.UnitCommand
	if err := h.decode(r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	unit, err := h.ingredients.UpdateUnit(r.Context(), actor(r), id, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, unit)
}

// DeleteUnit handles DELETE /api/v1/units/{id}
func (h *CatalogHandlers) DeleteUnit(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.ingredients.DeleteUnit(r.Context(), actor(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTags handles GET /api/v1/tags?search=&limit=&offset=
func (h *CatalogHandlers) ListTags(w http.ResponseWriter, r *http.Request) {
	query, err := listQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	tags, err := h.tags.ListTags(r.Context(), actor(r), query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tags)
}

// CountTags handles GET /api/v1/tags/count
func (h *CatalogHandlers) CountTags(w http.ResponseWriter, r *http.Request) {
	query, err := listQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	count, err := h.tags.CountTags(r.Context(), actor(r), query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeCount(w, count)
}

// GetTag handles GET /api/v1/tags/{id}
func (h *CatalogHandlers) GetTag(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	tag, err := h.tags.GetTag(r.Context(), actor(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tag)
}

// CreateTag handles POST /api/v1/tags
func (h *CatalogHandlers) CreateTag(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.TagCommand
	if err := h.decode(r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	tag, err := h.tags.CreateTag(r.Context(), actor(r), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, tag)
}

// UpdateTag handles PUT /api/v1/tags/{id}
func (h *CatalogHandlers) UpdateTag(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.TagCommand
	if err := h.decode(r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	tag, err := h.tags.UpdateTag(r.Context(), actor(r), id, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tag)
}

// DeleteTag handles DELETE /api/v1/tags/{id}
func (h *CatalogHandlers) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.tags.DeleteTag(r.Context(), actor(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
