// Package gorm provides GORM model definitions and repositories
package gorm

import (
	"time"
)

// UserModel represents the GORM model for users
type UserModel struct {
	ID                int64   `gorm:"primaryKey;autoIncrement"`
	Email             string  `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name              *string `gorm:"type:varchar(255)"`
	EncryptedPassword *string `gorm:"type:varchar(255)"`
	Active            bool    `gorm:"not null;default:true"`
	Role              string  `gorm:"type:varchar(16);not null;default:'user'"`
	Avatar            *string `gorm:"type:varchar(255)"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Relationships
	Recipes   []RecipeModel   `gorm:"foreignKey:OwnerID;constraint:OnDelete:SET NULL"`
	Weekplans []WeekplanModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for UserModel
func (UserModel) TableName() string {
	return "users"
}

// RecipeModel represents the GORM model for recipes
type RecipeModel struct {
	ID              int64   `gorm:"primaryKey;autoIncrement"`
	Name            string  `gorm:"type:varchar(255);not null;index"`
	Description     *string `gorm:"type:text"`
	DefaultServings int     `gorm:"not null;default:1"`
	OwnerID         *int64  `gorm:"index"`
	Image           *string `gorm:"type:varchar(255)"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Relationships
	Steps     []StepModel      `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	TagLinks  []RecipeTagModel `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Fitting   []FittingModel   `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	FittedBy  []FittingModel   `gorm:"foreignKey:FittingID;constraint:OnDelete:CASCADE"`
	Weekplans []WeekplanModel  `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for RecipeModel
func (RecipeModel) TableName() string {
	return "recipes"
}

// TagModel represents the GORM model for tags
type TagModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"type:varchar(255);uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	RecipeLinks []RecipeTagModel `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for TagModel
func (TagModel) TableName() string {
	return "tags"
}

// RecipeTagModel links recipes and tags
type RecipeTagModel struct {
	RecipeID int64 `gorm:"primaryKey;autoIncrement:false"`
	TagID    int64 `gorm:"primaryKey;autoIncrement:false;index"`
}

// TableName specifies the table name for RecipeTagModel
func (RecipeTagModel) TableName() string {
	return "recipes_tags"
}

// FittingModel links a recipe to a recipe that goes well with it
type FittingModel struct {
	RecipeID  int64 `gorm:"primaryKey;autoIncrement:false"`
	FittingID int64 `gorm:"primaryKey;autoIncrement:false;index"`
}

// TableName specifies the table name for FittingModel
func (FittingModel) TableName() string {
	return "fitting"
}

// StepModel represents the GORM model for recipe steps
type StepModel struct {
	ID              int64   `gorm:"primaryKey;autoIncrement"`
	RecipeID        int64   `gorm:"not null;index:idx_steps_recipe_position,priority:1"`
	Position        int     `gorm:"not null;index:idx_steps_recipe_position,priority:2"`
	Description     *string `gorm:"type:text"`
	PreparationTime int     `gorm:"not null;default:0"`
	CookingTime     int     `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Ingredients []StepIngredientModel `gorm:"foreignKey:StepID;constraint:OnDelete:RESTRICT"`
}

// TableName specifies the table name for StepModel
func (StepModel) TableName() string {
	return "steps"
}

// StepIngredientModel is an ingredient usage within a step
type StepIngredientModel struct {
	ID           int64    `gorm:"primaryKey;autoIncrement"`
	StepID       int64    `gorm:"not null;index"`
	IngredientID int64    `gorm:"not null;index"`
	Amount       *float64 `gorm:"type:double precision"`
	UnitID       *int64   `gorm:"index"`
	Annotation   *string  `gorm:"type:varchar(255)"`
}

// TableName specifies the table name for StepIngredientModel
func (StepIngredientModel) TableName() string {
	return "step_ingredients"
}

// IngredientModel represents the GORM model for ingredients
type IngredientModel struct {
	ID        int64   `gorm:"primaryKey;autoIncrement"`
	Name      string  `gorm:"type:varchar(255);not null;index"`
	Reference string  `gorm:"type:varchar(8);not null;default:'g'"`
	Carbs     float64 `gorm:"type:double precision;not null;default:0"`
	Fat       float64 `gorm:"type:double precision;not null;default:0"`
	Proteins  float64 `gorm:"type:double precision;not null;default:0"`
	Alcohol   float64 `gorm:"type:double precision;not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Units  []IngredientUnitModel `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
	Usages []StepIngredientModel `gorm:"foreignKey:IngredientID;constraint:OnDelete:RESTRICT"`
}

// TableName specifies the table name for IngredientModel
func (IngredientModel) TableName() string {
	return "ingredients"
}

// IngredientUnitModel maps a unit to the ingredient's reference basis
type IngredientUnitModel struct {
	ID           int64   `gorm:"primaryKey;autoIncrement"`
	IngredientID int64   `gorm:"not null;uniqueIndex:idx_ingredient_units_identifier,priority:1"`
	Identifier   string  `gorm:"type:varchar(16);not null;uniqueIndex:idx_ingredient_units_identifier,priority:2"`
	BaseValue    float64 `gorm:"type:double precision;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Usages []StepIngredientModel `gorm:"foreignKey:UnitID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for IngredientUnitModel
func (IngredientUnitModel) TableName() string {
	return "ingredient_units"
}

// WeekplanModel assigns a recipe to a day of a user's week
type WeekplanModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"not null;index:idx_weekplans_user_date,priority:1"`
	RecipeID  int64     `gorm:"not null;index"`
	Date      time.Time `gorm:"type:date;not null;index:idx_weekplans_user_date,priority:2"`
	Portions  int       `gorm:"not null;default:2"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for WeekplanModel
func (WeekplanModel) TableName() string {
	return "weekplans"
}

// AllModels lists every model in dependency order for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&UserModel{},
		&RecipeModel{},
		&TagModel{},
		&RecipeTagModel{},
		&FittingModel{},
		&StepModel{},
		&IngredientModel{},
		&IngredientUnitModel{},
		&StepIngredientModel{},
		&WeekplanModel{},
	}
}
