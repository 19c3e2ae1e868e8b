package recipe

import "time"

// ImageAttachedEvent is raised after an original image was stored. Variant
// generation listens for it
type ImageAttachedEvent struct {
	RecipeID   int64
	Filename   string
	AttachedAt time.Time
}

func (e ImageAttachedEvent) EventName() string {
	return "recipe.image.attached"
}

func (e ImageAttachedEvent) OccurredAt() time.Time {
	return e.AttachedAt
}
