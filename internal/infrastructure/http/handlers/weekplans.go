package handlers

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"github.com/alchemorsel/recipes/pkg/errors"
	"go.uber.org/zap"
)

// WeekplanHandlers handles weekly menu requests
type WeekplanHandlers struct {
	base
	weekplans inbound.WeekplanService
	now       func() time.Time
}

// NewWeekplanHandlers creates a new weekplan handlers instance
func NewWeekplanHandlers(weekplans inbound.WeekplanService, validator Validator, logger *zap.Logger) *WeekplanHandlers {
	return &WeekplanHandlers{
		base:      base{validator: validator, logger: logger},
		weekplans: weekplans,
		now:       time.Now,
	}
}

var isoWeek = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// parseWeek reads a day of the week from ?week=. Both a date such as
// "2024-01-10" and an ISO week such as "2024-W02" are accepted; empty is
// today.
func parseWeek(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}

	if match := isoWeek.FindStringSubmatch(raw); match != nil {
		year, _ := strconv.Atoi(match[1])
		week, _ := strconv.Atoi(match[2])
		if week < 1 || week > 53 {
			return time.Time{}, errors.NewBadRequestError(fmt.Sprintf("Invalid week %q", raw))
		}
		// January 4th always falls in week 1
		jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
		offset := (int(jan4.Weekday()) + 6) % 7
		monday := jan4.AddDate(0, 0, -offset+(week-1)*7)
		if y, w := monday.ISOWeek(); y != year || w != week {
			return time.Time{}, errors.NewBadRequestError(fmt.Sprintf("Invalid week %q", raw))
		}
		return monday, nil
	}

	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, errors.NewBadRequestError(fmt.Sprintf("Invalid week %q, expected YYYY-MM-DD or YYYY-Www", raw))
	}
	return date, nil
}

func (h *WeekplanHandlers) week(r *http.Request) (time.Time, error) {
	return parseWeek(r.URL.Query().Get("week"), h.now())
}

// ListWeek handles GET /api/v1/weekplans?week=
func (h *WeekplanHandlers) ListWeek(w http.ResponseWriter, r *http.Request) {
	week, err := h.week(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	entries, err := h.weekplans.ListWeek(r.Context(), actor(r), week)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// AutoFill handles POST /api/v1/weekplans?week= and fills the open days
func (h *WeekplanHandlers) AutoFill(w http.ResponseWriter, r *http.Request) {
	week, err := h.week(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.AutoFillCommand
	if err := h.decodeOptional(r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}
	cmd.Week = week

	entries, err := h.weekplans.AutoFill(r.Context(), actor(r), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// GetEntry handles GET /api/v1/weekplans/{id}
func (h *WeekplanHandlers) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	entry, err := h.weekplans.GetEntry(r.Context(), actor(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entry)
}

type replaceRequest struct {
	Tags []string `json:"tags"`
}

// ReplaceRecipe handles PUT /api/v1/weekplans/{id}/replace with a random
// recipe carrying all given tags
func (h *WeekplanHandlers) ReplaceRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req replaceRequest
	if err := h.decodeOptional(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	entry, err := h.weekplans.ReplaceRecipe(r.Context(), actor(r), id, req.Tags)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entry)
}

type setRecipeRequest struct {
	RecipeID int64 `json:"recipe_id" validate:"required,gt=0"`
}

// SetRecipe handles PUT /api/v1/weekplans/{id}/recipe
func (h *WeekplanHandlers) SetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req setRecipeRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	entry, err := h.weekplans.ReplaceWithRecipe(r.Context(), actor(r), id, req.RecipeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entry)
}

// DeleteEntry handles DELETE /api/v1/weekplans/{id}
func (h *WeekplanHandlers) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.weekplans.DeleteEntry(r.Context(), actor(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ShoppingList handles GET /api/v1/weekplans/shopping-list?week=
func (h *WeekplanHandlers) ShoppingList(w http.ResponseWriter, r *http.Request) {
	week, err := h.week(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items, err := h.weekplans.ShoppingList(r.Context(), actor(r), week)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

// BringExport handles GET /api/v1/weekplans/bring.json?week=
func (h *WeekplanHandlers) BringExport(w http.ResponseWriter, r *http.Request) {
	week, err := h.week(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	export, err := h.weekplans.BringExport(r.Context(), actor(r), week)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, export)
}
