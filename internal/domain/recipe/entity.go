// Package recipe contains the core domain logic for recipe management.
package recipe

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/alchemorsel/recipes/internal/domain/shared"
)

const (
	maxNameLength        = 255
	maxDescriptionLength = 12288
	defaultImageExt      = "jpg"
)

// Recipe represents the core recipe entity in our domain
type Recipe struct {
	id              int64
	name            string
	description     *string
	defaultServings int
	ownerID         *int64
	image           *string

	tagIDs     []int64
	fittingIDs []int64

	createdAt time.Time
	updatedAt time.Time

	// Domain events to be dispatched
	events []shared.DomainEvent
}

// Snapshot carries persisted recipe state for rehydration
type Snapshot struct {
	ID              int64
	Name            string
	Description     *string
	DefaultServings int
	OwnerID         *int64
	Image           *string
	TagIDs          []int64
	FittingIDs      []int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ImageURLs are the public paths of a stored recipe image and its variants
type ImageURLs struct {
	Thumbnail string `json:"thumb"`
	Large     string `json:"large"`
	Original  string `json:"original"`
}

// NewRecipe creates a new Recipe with validation
func NewRecipe(name string, description *string, defaultServings int, ownerID *int64) (*Recipe, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	if defaultServings == 0 {
		defaultServings = 1
	}
	if defaultServings < 0 {
		return nil, ErrInvalidServings
	}

	now := time.Now().UTC()
	return &Recipe{
		name:            name,
		description:     description,
		defaultServings: defaultServings,
		ownerID:         ownerID,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// Rehydrate rebuilds a recipe from storage
func Rehydrate(s Snapshot) *Recipe {
	return &Recipe{
		id:              s.ID,
		name:            s.Name,
		description:     s.Description,
		defaultServings: s.DefaultServings,
		ownerID:         s.OwnerID,
		image:           s.Image,
		tagIDs:          s.TagIDs,
		fittingIDs:      s.FittingIDs,
		createdAt:       s.CreatedAt,
		updatedAt:       s.UpdatedAt,
	}
}

// Snapshot exports the recipe state for persistence
func (r *Recipe) Snapshot() Snapshot {
	return Snapshot{
		ID:              r.id,
		Name:            r.name,
		Description:     r.description,
		DefaultServings: r.defaultServings,
		OwnerID:         r.ownerID,
		Image:           r.image,
		TagIDs:          append([]int64(nil), r.tagIDs...),
		FittingIDs:      append([]int64(nil), r.fittingIDs...),
		CreatedAt:       r.createdAt,
		UpdatedAt:       r.updatedAt,
	}
}

// ID returns the recipe's unique identifier
func (r *Recipe) ID() int64 {
	return r.id
}

// AssignID is called by the repository after insert
func (r *Recipe) AssignID(id int64) {
	r.id = id
}

// Name returns the recipe's name
func (r *Recipe) Name() string {
	return r.name
}

// Description returns the recipe's description
func (r *Recipe) Description() *string {
	return r.description
}

// DefaultServings returns the number of servings the amounts are given for
func (r *Recipe) DefaultServings() int {
	return r.defaultServings
}

// OwnerID returns the owning user, nil for orphaned recipes
func (r *Recipe) OwnerID() *int64 {
	return r.ownerID
}

// IsOwnedBy reports whether userID owns the recipe
func (r *Recipe) IsOwnedBy(userID int64) bool {
	return r.ownerID != nil && *r.ownerID == userID
}

// Image returns the stored original file name
func (r *Recipe) Image() *string {
	return r.image
}

// TagIDs returns the attached tag ids
func (r *Recipe) TagIDs() []int64 {
	return r.tagIDs
}

// FittingIDs returns the ids of recipes that go well with this one
func (r *Recipe) FittingIDs() []int64 {
	return r.fittingIDs
}

// CreatedAt returns when the recipe was created
func (r *Recipe) CreatedAt() time.Time {
	return r.createdAt
}

// UpdatedAt returns when the recipe was last updated
func (r *Recipe) UpdatedAt() time.Time {
	return r.updatedAt
}

// Update replaces the editable attributes
func (r *Recipe) Update(name string, description *string, defaultServings int) error {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return err
	}
	if err := validateDescription(description); err != nil {
		return err
	}
	if defaultServings <= 0 {
		return ErrInvalidServings
	}

	r.name = name
	r.description = description
	r.defaultServings = defaultServings
	r.updatedAt = time.Now().UTC()
	return nil
}

// SetTags replaces the tag set, dropping duplicates
func (r *Recipe) SetTags(ids []int64) {
	r.tagIDs = dedupe(ids)
	r.updatedAt = time.Now().UTC()
}

// SetFitting replaces the fitting recipe set
func (r *Recipe) SetFitting(ids []int64) error {
	ids = dedupe(ids)
	for _, id := range ids {
		if r.id != 0 && id == r.id {
			return ErrSelfFitting
		}
	}
	r.fittingIDs = ids
	r.updatedAt = time.Now().UTC()
	return nil
}

// AttachImage records a newly stored original image
func (r *Recipe) AttachImage(filename string) error {
	if filename == "" || strings.ContainsAny(filename, `/\`) {
		return ErrInvalidImageName
	}

	r.image = &filename
	r.updatedAt = time.Now().UTC()
	r.addEvent(ImageAttachedEvent{
		RecipeID:   r.id,
		Filename:   filename,
		AttachedAt: r.updatedAt,
	})
	return nil
}

// ImageURLs returns the public image paths, nil without an image
func (r *Recipe) ImageURLs() *ImageURLs {
	if r.image == nil {
		return nil
	}
	ext := ImageExt(*r.image)
	return &ImageURLs{
		Thumbnail: fmt.Sprintf("/pictures/%d/thumbnail.%s", r.id, ext),
		Large:     fmt.Sprintf("/pictures/%d/large.%s", r.id, ext),
		Original:  fmt.Sprintf("/pictures/%d/original.%s", r.id, ext),
	}
}

// ImageExt returns the extension of filename without the dot, "jpg" if none
func ImageExt(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return defaultImageExt
	}
	return ext
}

// Events returns and clears pending domain events
func (r *Recipe) Events() []shared.DomainEvent {
	events := r.events
	r.events = nil
	return events
}

func (r *Recipe) addEvent(event shared.DomainEvent) {
	r.events = append(r.events, event)
}

func validateName(name string) error {
	if name == "" {
		return ErrNameRequired
	}
	if len(name) > maxNameLength {
		return ErrNameTooLong
	}
	return nil
}

func validateDescription(description *string) error {
	if description != nil && len(*description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
