package gorm

import (
	"github.com/alchemorsel/recipes/internal/domain/ingredient"
	"github.com/alchemorsel/recipes/internal/domain/recipe"
	"github.com/alchemorsel/recipes/internal/domain/step"
	"github.com/alchemorsel/recipes/internal/domain/tag"
	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/domain/weekplan"
)

// UserToModel converts a domain user to a GORM model
func UserToModel(u *user.User) *UserModel {
	s := u.Snapshot()
	return &UserModel{
		ID:                s.ID,
		Email:             s.Email,
		Name:              optional(s.Name),
		EncryptedPassword: optional(s.PasswordHash),
		Active:            s.Active,
		Role:              string(s.Role),
		Avatar:            optional(s.Avatar),
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

// ModelToUser converts a GORM model to a domain user
func ModelToUser(m *UserModel) *user.User {
	return user.Rehydrate(user.Snapshot{
		ID:           m.ID,
		Email:        m.Email,
		Name:         deref(m.Name),
		PasswordHash: deref(m.EncryptedPassword),
		Active:       m.Active,
		Role:         user.Role(m.Role),
		Avatar:       deref(m.Avatar),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	})
}

// RecipeToModel converts a domain recipe to a GORM model. Tag and fitting
// links are written separately.
func RecipeToModel(r *recipe.Recipe) *RecipeModel {
	s := r.Snapshot()
	return &RecipeModel{
		ID:              s.ID,
		Name:            s.Name,
		Description:     s.Description,
		DefaultServings: s.DefaultServings,
		OwnerID:         s.OwnerID,
		Image:           s.Image,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

// ModelToRecipe converts a GORM model with its links to a domain recipe
func ModelToRecipe(m *RecipeModel) *recipe.Recipe {
	tagIDs := make([]int64, 0, len(m.TagLinks))
	for _, link := range m.TagLinks {
		tagIDs = append(tagIDs, link.TagID)
	}
	fittingIDs := make([]int64, 0, len(m.Fitting))
	for _, link := range m.Fitting {
		fittingIDs = append(fittingIDs, link.FittingID)
	}

	return recipe.Rehydrate(recipe.Snapshot{
		ID:              m.ID,
		Name:            m.Name,
		Description:     m.Description,
		DefaultServings: m.DefaultServings,
		OwnerID:         m.OwnerID,
		Image:           m.Image,
		TagIDs:          tagIDs,
		FittingIDs:      fittingIDs,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	})
}

// StepToModel converts a domain step with its usages to a GORM model
func StepToModel(s *step.Step) *StepModel {
	model := &StepModel{
		ID:              s.ID,
		RecipeID:        s.RecipeID,
		Position:        s.Position,
		Description:     s.Description,
		PreparationTime: s.PreparationTime,
		CookingTime:     s.CookingTime,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	for _, in := range s.Ingredients {
		model.Ingredients = append(model.Ingredients, StepIngredientToModel(s.ID, in))
	}
	return model
}

// StepIngredientToModel converts a step ingredient usage to a GORM model
func StepIngredientToModel(stepID int64, in step.Ingredient) StepIngredientModel {
	model := StepIngredientModel{
		StepID:       stepID,
		IngredientID: in.IngredientID,
		Amount:       in.Amount,
		UnitID:       in.UnitID,
		Annotation:   in.Annotation,
	}
	if in.ID != nil {
		model.ID = *in.ID
	}
	return model
}

// ModelToStep converts a GORM model to a domain step
func ModelToStep(m *StepModel) *step.Step {
	s := &step.Step{
		ID:              m.ID,
		RecipeID:        m.RecipeID,
		Position:        m.Position,
		Description:     m.Description,
		PreparationTime: m.PreparationTime,
		CookingTime:     m.CookingTime,
		Ingredients:     make([]step.Ingredient, 0, len(m.Ingredients)),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	for _, in := range m.Ingredients {
		id := in.ID
		s.Ingredients = append(s.Ingredients, step.Ingredient{
			ID:           &id,
			StepID:       in.StepID,
			IngredientID: in.IngredientID,
			Amount:       in.Amount,
			UnitID:       in.UnitID,
			Annotation:   in.Annotation,
		})
	}
	return s
}

// IngredientToModel converts a domain ingredient to a GORM model
func IngredientToModel(i *ingredient.Ingredient) *IngredientModel {
	return &IngredientModel{
		ID:        i.ID,
		Name:      i.Name,
		Reference: string(i.Reference),
		Carbs:     i.Macros.Carbs,
		Fat:       i.Macros.Fat,
		Proteins:  i.Macros.Proteins,
		Alcohol:   i.Macros.Alcohol,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

// ModelToIngredient converts a GORM model to a domain ingredient
func ModelToIngredient(m *IngredientModel) *ingredient.Ingredient {
	return &ingredient.Ingredient{
		ID:        m.ID,
		Name:      m.Name,
		Reference: ingredient.Reference(m.Reference),
		Macros: ingredient.Macros{
			Carbs:    m.Carbs,
			Fat:      m.Fat,
			Proteins: m.Proteins,
			Alcohol:  m.Alcohol,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// UnitToModel converts a domain unit to a GORM model
func UnitToModel(u *ingredient.Unit) *IngredientUnitModel {
	return &IngredientUnitModel{
		ID:           u.ID,
		IngredientID: u.IngredientID,
		Identifier:   string(u.Identifier),
		BaseValue:    u.BaseValue,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// ModelToUnit converts a GORM model to a domain unit
func ModelToUnit(m *IngredientUnitModel) *ingredient.Unit {
	return &ingredient.Unit{
		ID:           m.ID,
		IngredientID: m.IngredientID,
		Identifier:   ingredient.UnitIdentifier(m.Identifier),
		BaseValue:    m.BaseValue,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// TagToModel converts a domain tag to a GORM model
func TagToModel(t *tag.Tag) *TagModel {
	return &TagModel{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt}
}

// ModelToTag converts a GORM model to a domain tag
func ModelToTag(m *TagModel) *tag.Tag {
	return &tag.Tag{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

// WeekplanToModel converts a weekplan entry to a GORM model
func WeekplanToModel(e *weekplan.Entry) *WeekplanModel {
	return &WeekplanModel{
		ID:        e.ID,
		UserID:    e.UserID,
		RecipeID:  e.RecipeID,
		Date:      weekplan.Day(e.Date),
		Portions:  e.Portions,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// ModelToWeekplan converts a GORM model to a weekplan entry
func ModelToWeekplan(m *WeekplanModel) *weekplan.Entry {
	return &weekplan.Entry{
		ID:        m.ID,
		UserID:    m.UserID,
		RecipeID:  m.RecipeID,
		Date:      weekplan.Day(m.Date),
		Portions:  m.Portions,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
