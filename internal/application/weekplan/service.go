// Package weekplan provides the application layer for weekly menus,
// including random auto-fill and week shopping lists
package weekplan

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemorsel/recipes/internal/application/authz"
	recipeapp "github.com/alchemorsel/recipes/internal/application/recipe"
	"github.com/alchemorsel/recipes/internal/domain/nutrition"
	"github.com/alchemorsel/recipes/internal/domain/recipe"
	"github.com/alchemorsel/recipes/internal/domain/tag"
	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/domain/weekplan"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/alchemorsel/recipes/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// WeekplanService implements the weekly menu use cases
type WeekplanService struct {
	weekplanRepo outbound.WeekplanRepository
	recipeRepo   outbound.RecipeRepository
	tx           outbound.Transactor
	recorder     outbound.AutoFillRecorder
	tracer       trace.Tracer
	logger       *zap.Logger
}

// NewWeekplanService creates a new weekplan service
func NewWeekplanService(
	weekplanRepo outbound.WeekplanRepository,
	recipeRepo outbound.RecipeRepository,
	tx outbound.Transactor,
	recorder outbound.AutoFillRecorder,
	logger *zap.Logger,
) *WeekplanService {
	return &WeekplanService{
		weekplanRepo: weekplanRepo,
		recipeRepo:   recipeRepo,
		tx:           tx,
		recorder:     recorder,
		tracer:       otel.Tracer("github.com/alchemorsel/recipes/internal/application/weekplan"),
		logger:       logger.Named("weekplan-service"),
	}
}

var _ inbound.WeekplanService = (*WeekplanService)(nil)

// ListWeek returns the actor's entries of the week containing date
func (s *WeekplanService) ListWeek(ctx context.Context, actor *user.User, date time.Time) ([]*inbound.WeekplanDTO, error) {
	if err := authz.Authorize(authz.Weekplans, authz.ActionList, actor, nil); err != nil {
		return nil, err
	}

	entries, err := s.weekplanRepo.ListWeek(ctx, actor.ID(), weekplan.WeekOf(date))
	if err != nil {
		return nil, errors.NewDatabaseError("list weekplan", err)
	}
	return s.toDTOs(ctx, entries)
}

// AutoFill plans one random recipe for every open, allowed day of the week.
// A recipe is a candidate when it carries all requested tags and is not yet
// planned in that week. Days without any candidate stay empty.
func (s *WeekplanService) AutoFill(ctx context.Context, actor *user.User, cmd inbound.AutoFillCommand) ([]*inbound.WeekplanDTO, error) {
	if err := authz.Authorize(authz.Weekplans, authz.ActionCreate, actor, nil); err != nil {
		return nil, err
	}

	portions := weekplan.DefaultPortions
	if cmd.Portions != nil {
		portions = *cmd.Portions
	}
	if portions <= 0 {
		return nil, errors.NewValidationError(weekplan.ErrInvalidPortions.Error())
	}
	days, err := weekplan.NewDayFilter(cmd.Days)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	tags := tag.NormalizeNames(cmd.Tags)
	week := weekplan.WeekOf(cmd.Week)

	ctx, span := s.tracer.Start(ctx, "weekplan.AutoFill", trace.WithAttributes(
		attribute.Int64("user.id", actor.ID()),
		attribute.String("week.start", week.Start.Format(dateLayout)),
		attribute.StringSlice("tags", tags),
		attribute.Int("portions", portions),
	))
	defer span.End()

	started := time.Now()
	var filled, unfilled int
	var entries []*weekplan.Entry

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.weekplanRepo.ListWeek(ctx, actor.ID(), week)
		if err != nil {
			return err
		}
		planned := make(map[time.Time]bool, len(existing))
		for _, e := range existing {
			planned[weekplan.Day(e.Date)] = true
		}

		for _, day := range week.Days() {
			if planned[day] || !days.Allows(day) {
				continue
			}
			candidate, err := s.recipeRepo.RandomCandidate(ctx, actor.ID(), week, tags)
			if err != nil {
				return err
			}
			if candidate == nil {
				unfilled++
				continue
			}
			entry, err := weekplan.NewEntry(actor.ID(), candidate.ID(), day, portions)
			if err != nil {
				return err
			}
			if err := s.weekplanRepo.Create(ctx, entry); err != nil {
				return err
			}
			filled++
		}

		entries, err = s.weekplanRepo.ListWeek(ctx, actor.ID(), week)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "auto-fill failed")
		return nil, errors.NewDatabaseError("fill weekplan", err)
	}

	elapsed := time.Since(started)
	s.recorder.RecordAutoFill(filled, unfilled, elapsed)
	span.SetAttributes(attribute.Int("days.filled", filled), attribute.Int("days.unfilled", unfilled))

	s.logger.Info("Week auto-filled",
		zap.Int64("user_id", actor.ID()),
		zap.String("week", week.Start.Format(dateLayout)),
		zap.Strings("tags", tags),
		zap.Int("filled", filled),
		zap.Int("unfilled", unfilled),
		zap.Duration("duration", elapsed),
	)
	return s.toDTOs(ctx, entries)
}

// GetEntry returns one of the actor's entries
func (s *WeekplanService) GetEntry(ctx context.Context, actor *user.User, id int64) (*inbound.WeekplanDTO, error) {
	entry, err := s.loadOwned(ctx, actor, id, authz.ActionGet)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, entry)
}

// ReplaceRecipe swaps the entry's recipe for another random candidate
func (s *WeekplanService) ReplaceRecipe(ctx context.Context, actor *user.User, id int64, tags []string) (*inbound.WeekplanDTO, error) {
	entry, err := s.loadOwned(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	tags = tag.NormalizeNames(tags)
	candidate, err := s.recipeRepo.RandomCandidate(ctx, actor.ID(), weekplan.WeekOf(entry.Date), tags)
	if err != nil {
		return nil, errors.NewDatabaseError("find candidate recipe", err)
	}
	if candidate == nil {
		return nil, errors.NewNoCandidateRecipeError(tags)
	}
	return s.assign(ctx, entry, candidate)
}

// ReplaceWithRecipe puts a chosen recipe on the entry's day
func (s *WeekplanService) ReplaceWithRecipe(ctx context.Context, actor *user.User, id, recipeID int64) (*inbound.WeekplanDTO, error) {
	entry, err := s.loadOwned(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	chosen, err := s.recipeRepo.FindByID(ctx, recipeID)
	if err != nil {
		return nil, errors.NewDatabaseError("find recipe", err)
	}
	if chosen == nil {
		return nil, errors.NewRecipeNotFoundError(recipeID)
	}
	return s.assign(ctx, entry, chosen)
}

// DeleteEntry clears a planned day
func (s *WeekplanService) DeleteEntry(ctx context.Context, actor *user.User, id int64) error {
	if _, err := s.loadOwned(ctx, actor, id, authz.ActionDelete); err != nil {
		return err
	}
	if err := s.weekplanRepo.Delete(ctx, id); err != nil {
		return errors.NewDatabaseError("delete weekplan", err)
	}

	s.logger.Info("Weekplan entry deleted", zap.Int64("weekplan_id", id))
	return nil
}

// ShoppingList consolidates the ingredients of every planned recipe of the
// week, each scaled by its entry's portions.
func (s *WeekplanService) ShoppingList(ctx context.Context, actor *user.User, date time.Time) ([]inbound.ShoppingItemDTO, error) {
	items, err := s.consolidate(ctx, actor, date)
	if err != nil {
		return nil, err
	}

	out := make([]inbound.ShoppingItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, inbound.ShoppingItemDTO{
			IngredientID: item.IngredientID,
			Name:         item.Name,
			Spec:         item.Spec,
			Annotation:   item.Annotation,
		})
	}
	return out, nil
}

// BringExport renders the week's shopping list for the Bring! importer
func (s *WeekplanService) BringExport(ctx context.Context, actor *user.User, date time.Time) (*inbound.BringExport, error) {
	items, err := s.consolidate(ctx, actor, date)
	if err != nil {
		return nil, err
	}

	year, number := weekplan.WeekOf(date).Start.ISOWeek()
	return &inbound.BringExport{
		Name:   fmt.Sprintf("Weekplan %d-W%02d", year, number),
		Author: actor.DisplayName(),
		Items:  recipeapp.BringItems(items),
	}, nil
}

func (s *WeekplanService) consolidate(ctx context.Context, actor *user.User, date time.Time) ([]nutrition.Item, error) {
	if err := authz.Authorize(authz.Weekplans, authz.ActionList, actor, nil); err != nil {
		return nil, err
	}

	entries, err := s.weekplanRepo.ListWeek(ctx, actor.ID(), weekplan.WeekOf(date))
	if err != nil {
		return nil, errors.NewDatabaseError("list weekplan", err)
	}
	if len(entries) == 0 {
		return []nutrition.Item{}, nil
	}

	usages, err := s.recipeRepo.Usages(ctx, recipeIDs(entries))
	if err != nil {
		return nil, errors.NewDatabaseError("load recipe ingredients", err)
	}

	c := nutrition.NewConsolidator(nutrition.FormatWeek)
	for _, e := range entries {
		c.Add(usages[e.RecipeID], float64(e.Portions))
	}
	return c.Items(), nil
}

// loadOwned finds an entry of the actor. Entries of other users are
// reported as missing.
func (s *WeekplanService) loadOwned(ctx context.Context, actor *user.User, id int64, action authz.Action) (*weekplan.Entry, error) {
	if actor == nil {
		return nil, errors.NewUnauthorizedError("")
	}

	entry, err := s.weekplanRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.NewDatabaseError("find weekplan", err)
	}
	if entry == nil || !entry.IsOwnedBy(actor.ID()) {
		return nil, errors.NewWeekplanNotFoundError(id)
	}
	if err := authz.Authorize(authz.Weekplans, action, actor, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *WeekplanService) assign(ctx context.Context, entry *weekplan.Entry, chosen *recipe.Recipe) (*inbound.WeekplanDTO, error) {
	entry.RecipeID = chosen.ID()
	entry.UpdatedAt = time.Now().UTC()
	if err := s.weekplanRepo.Update(ctx, entry); err != nil {
		return nil, errors.NewDatabaseError("update weekplan", err)
	}

	s.logger.Info("Weekplan recipe replaced",
		zap.Int64("weekplan_id", entry.ID),
		zap.Int64("recipe_id", chosen.ID()),
	)
	summary := recipeapp.SummaryOf(chosen)
	dto := toDTO(entry)
	dto.Recipe = &summary
	return dto, nil
}

func (s *WeekplanService) toDTO(ctx context.Context, entry *weekplan.Entry) (*inbound.WeekplanDTO, error) {
	dtos, err := s.toDTOs(ctx, []*weekplan.Entry{entry})
	if err != nil {
		return nil, err
	}
	return dtos[0], nil
}

// toDTOs attaches recipe summaries loaded in one query
func (s *WeekplanService) toDTOs(ctx context.Context, entries []*weekplan.Entry) ([]*inbound.WeekplanDTO, error) {
	dtos := make([]*inbound.WeekplanDTO, 0, len(entries))
	if len(entries) == 0 {
		return dtos, nil
	}

	recipes, err := s.recipeRepo.FindByIDs(ctx, recipeIDs(entries))
	if err != nil {
		return nil, errors.NewDatabaseError("find planned recipes", err)
	}
	byID := make(map[int64]*recipe.Recipe, len(recipes))
	for _, r := range recipes {
		byID[r.ID()] = r
	}

	for _, e := range entries {
		dto := toDTO(e)
		if r, ok := byID[e.RecipeID]; ok {
			summary := recipeapp.SummaryOf(r)
			dto.Recipe = &summary
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

func toDTO(e *weekplan.Entry) *inbound.WeekplanDTO {
	return &inbound.WeekplanDTO{
		ID:       e.ID,
		Date:     e.Date.Format(dateLayout),
		UserID:   e.UserID,
		RecipeID: e.RecipeID,
		Portions: e.Portions,
	}
}

func recipeIDs(entries []*weekplan.Entry) []int64 {
	seen := make(map[int64]struct{}, len(entries))
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.RecipeID]; ok {
			continue
		}
		seen[e.RecipeID] = struct{}{}
		ids = append(ids, e.RecipeID)
	}
	return ids
}
