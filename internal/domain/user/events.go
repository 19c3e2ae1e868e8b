package user

import "time"

// AvatarAttachedEvent is raised when a new avatar file has been stored
type AvatarAttachedEvent struct {
	UserID     int64
	Filename   string
	AttachedAt time.Time
}

func (e AvatarAttachedEvent) EventName() string {
	return "user.avatar.attached"
}

func (e AvatarAttachedEvent) OccurredAt() time.Time {
	return e.AttachedAt
}
