// Package user provides the application layer for user management
package user

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/alchemorsel/recipes/internal/application/authz"
	recipeapp "github.com/alchemorsel/recipes/internal/application/recipe"
	"github.com/alchemorsel/recipes/internal/domain/recipe"
	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/alchemorsel/recipes/pkg/errors"
	"go.uber.org/zap"
)

// UserService implements user management use cases
type UserService struct {
	userRepo outbound.UserRepository
	hasher   outbound.PasswordHasher
	storage  outbound.StorageService
	events   outbound.EventPublisher
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo outbound.UserRepository,
	hasher outbound.PasswordHasher,
	storage outbound.StorageService,
	events outbound.EventPublisher,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
		storage:  storage,
		events:   events,
		logger:   logger.Named("user-service"),
	}
}

var _ inbound.UserService = (*UserService)(nil)

// ListUsers lists users ordered by email
func (s *UserService) ListUsers(ctx context.Context, actor *user.User, query inbound.ListQuery) ([]*inbound.UserDTO, error) {
	if err := authz.Authorize(authz.Users, authz.ActionList, actor, nil); err != nil {
		return nil, err
	}

	users, err := s.userRepo.List(ctx, toFilter(query))
	if err != nil {
		return nil, errors.NewDatabaseError("list users", err)
	}
	dtos := make([]*inbound.UserDTO, 0, len(users))
	for _, u := range users {
		dto := ToDTO(u)
		dtos = append(dtos, &dto)
	}
	return dtos, nil
}

// CountUsers counts users whose email matches the search term
func (s *UserService) CountUsers(ctx context.Context, actor *user.User, query inbound.ListQuery) (int64, error) {
	if err := authz.Authorize(authz.Users, authz.ActionList, actor, nil); err != nil {
		return 0, err
	}

	count, err := s.userRepo.Count(ctx, toFilter(query))
	if err != nil {
		return 0, errors.NewDatabaseError("count users", err)
	}
	return count, nil
}

// GetUser returns a single user
func (s *UserService) GetUser(ctx context.Context, actor *user.User, id int64) (*inbound.UserDTO, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(authz.Users, authz.ActionGet, actor, entity); err != nil {
		return nil, err
	}
	dto := ToDTO(entity)
	return &dto, nil
}

// CreateUser registers a new account. Only root may create root accounts.
func (s *UserService) CreateUser(ctx context.Context, actor *user.User, cmd inbound.UserCommand) (*inbound.UserDTO, error) {
	if err := authz.Authorize(authz.Users, authz.ActionCreate, actor, nil); err != nil {
		return nil, err
	}
	if err := checkRole(actor, cmd.Role); err != nil {
		return nil, err
	}

	s.logger.Info("Registering new user", zap.String("email", cmd.Email))

	entity, err := user.NewUser(cmd.Email, cmd.Name, cmd.Role)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := s.ensureEmailFree(ctx, entity.Email(), 0); err != nil {
		return nil, err
	}
	if err := s.applyPassword(entity, cmd.Password); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, entity); err != nil {
		return nil, errors.NewDatabaseError("create user", err)
	}

	s.logger.Info("User registered successfully",
		zap.Int64("user_id", entity.ID()),
		zap.String("email", entity.Email()),
	)
	dto := ToDTO(entity)
	return &dto, nil
}

// UpdateUser changes an account. The password only changes when given and
// an empty role keeps the current one.
func (s *UserService) UpdateUser(ctx context.Context, actor *user.User, id int64, cmd inbound.UserCommand) (*inbound.UserDTO, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(authz.Users, authz.ActionUpdate, actor, entity); err != nil {
		return nil, err
	}

	role := cmd.Role
	if role == "" {
		role = entity.Role()
	}
	if role != entity.Role() {
		if err := checkRole(actor, role); err != nil {
			return nil, err
		}
	}

	if err := entity.Update(cmd.Email, cmd.Name, role); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := s.ensureEmailFree(ctx, entity.Email(), id); err != nil {
		return nil, err
	}
	if err := s.applyPassword(entity, cmd.Password); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, entity); err != nil {
		return nil, errors.NewDatabaseError("update user", err)
	}

	s.logger.Info("User updated", zap.Int64("user_id", id))
	dto := ToDTO(entity)
	return &dto, nil
}

// DeleteUser removes an account. Owned recipes lose their owner and
// weekplan entries are deleted with it.
func (s *UserService) DeleteUser(ctx context.Context, actor *user.User, id int64) error {
	entity, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Authorize(authz.Users, authz.ActionDelete, actor, entity); err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return errors.NewDatabaseError("delete user", err)
	}

	s.logger.Info("User deleted", zap.Int64("user_id", id))
	return nil
}

// AttachAvatar stores an uploaded avatar and queues its variants
func (s *UserService) AttachAvatar(ctx context.Context, actor *user.User, id int64, filename string, data io.Reader) (*inbound.UserDTO, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(authz.Users, authz.ActionUpdate, actor, entity); err != nil {
		return nil, err
	}

	ext := strings.ToLower(recipe.ImageExt(filename))
	contentType, ok := recipeapp.ImageContentType(ext)
	if !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("unsupported image type %q", ext))
	}
	original := "original." + ext
	key := path.Join("avatars", fmt.Sprint(id), original)

	if err := s.storage.Put(ctx, key, data, contentType); err != nil {
		return nil, errors.NewStorageError("store avatar", err)
	}
	entity.AttachAvatar(original)
	if err := s.userRepo.Update(ctx, entity); err != nil {
		return nil, errors.NewDatabaseError("update avatar", err)
	}
	for _, event := range entity.Events() {
		s.events.Publish(ctx, event)
	}

	s.logger.Info("Avatar attached", zap.Int64("user_id", id), zap.String("key", key))
	dto := ToDTO(entity)
	return &dto, nil
}

func (s *UserService) load(ctx context.Context, id int64) (*user.User, error) {
	entity, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.NewDatabaseError("find user", err)
	}
	if entity == nil {
		return nil, errors.NewUserNotFoundError(id)
	}
	return entity, nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string, self int64) error {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return errors.NewDatabaseError("find user by email", err)
	}
	if existing != nil && existing.ID() != self {
		return errors.NewEmailAlreadyExistsError(email)
	}
	return nil
}

func (s *UserService) applyPassword(entity *user.User, password *string) error {
	if password == nil {
		return nil
	}
	if err := user.ValidatePassword(*password); err != nil {
		return errors.NewValidationError(err.Error())
	}
	hash, err := s.hasher.Hash(*password)
	if err != nil {
		return errors.NewInternalError("failed to hash password").WithCause(err)
	}
	entity.SetPasswordHash(hash)
	return nil
}

// checkRole keeps non-root actors from granting root
func checkRole(actor *user.User, role user.Role) error {
	if role == user.RoleRoot && !authz.IsRoot(actor) {
		if actor == nil {
			return errors.NewUnauthorizedError("")
		}
		return errors.NewForbiddenError("grant the root role")
	}
	return nil
}

func toFilter(query inbound.ListQuery) outbound.ListFilter {
	page := query.Clamp()
	return outbound.ListFilter{
		Search: strings.ToLower(strings.TrimSpace(query.Search)),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
}

// ToDTO converts a user entity to its public form
func ToDTO(entity *user.User) inbound.UserDTO {
	dto := inbound.UserDTO{
		ID:        entity.ID(),
		Email:     entity.Email(),
		Name:      entity.Name(),
		Active:    entity.IsActive(),
		Role:      entity.Role(),
		CreatedAt: entity.CreatedAt(),
		UpdatedAt: entity.UpdatedAt(),
	}
	if avatar := entity.Avatar(); avatar != "" {
		url := fmt.Sprintf("/avatars/%d/%s", entity.ID(), avatar)
		dto.Avatar = &url
	}
	return dto
}
