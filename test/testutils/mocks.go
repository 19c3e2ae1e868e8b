// Package testutils provides mock implementations for testing
package testutils

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/alchemorsel/recipes/internal/domain/ingredient"
	"github.com/alchemorsel/recipes/internal/domain/nutrition"
	"github.com/alchemorsel/recipes/internal/domain/recipe"
	"github.com/alchemorsel/recipes/internal/domain/shared"
	"github.com/alchemorsel/recipes/internal/domain/step"
	"github.com/alchemorsel/recipes/internal/domain/tag"
	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/domain/weekplan"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockRecipeRepository provides a mock implementation of RecipeRepository
type MockRecipeRepository struct {
	mock.Mock
}

func (m *MockRecipeRepository) Create(ctx context.Context, r *recipe.Recipe) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRecipeRepository) Update(ctx context.Context, r *recipe.Recipe) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRecipeRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRecipeRepository) FindByID(ctx context.Context, id int64) (*recipe.Recipe, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*recipe.Recipe)
	return r, args.Error(1)
}

func (m *MockRecipeRepository) FindByIDs(ctx context.Context, ids []int64) ([]*recipe.Recipe, error) {
	args := m.Called(ctx, ids)
	r, _ := args.Get(0).([]*recipe.Recipe)
	return r, args.Error(1)
}

func (m *MockRecipeRepository) List(ctx context.Context, filter outbound.RecipeFilter) ([]*recipe.Recipe, error) {
	args := m.Called(ctx, filter)
	r, _ := args.Get(0).([]*recipe.Recipe)
	return r, args.Error(1)
}

func (m *MockRecipeRepository) Count(ctx context.Context, filter outbound.RecipeFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRecipeRepository) RandomCandidate(ctx context.Context, userID int64, week weekplan.Week, tags []string) (*recipe.Recipe, error) {
	args := m.Called(ctx, userID, week, tags)
	r, _ := args.Get(0).(*recipe.Recipe)
	return r, args.Error(1)
}

func (m *MockRecipeRepository) Usages(ctx context.Context, recipeIDs []int64) (map[int64][]nutrition.Usage, error) {
	args := m.Called(ctx, recipeIDs)
	u, _ := args.Get(0).(map[int64][]nutrition.Usage)
	return u, args.Error(1)
}

func (m *MockRecipeRepository) IDsUsingIngredient(ctx context.Context, ingredientID int64) ([]int64, error) {
	args := m.Called(ctx, ingredientID)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

// MockStepRepository provides a mock implementation of StepRepository
type MockStepRepository struct {
	mock.Mock
}

func (m *MockStepRepository) Create(ctx context.Context, s *step.Step) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockStepRepository) Update(ctx context.Context, s *step.Step, removed []int64) error {
	return m.Called(ctx, s, removed).Error(0)
}

func (m *MockStepRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStepRepository) FindByID(ctx context.Context, id int64) (*step.Step, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*step.Step)
	return s, args.Error(1)
}

func (m *MockStepRepository) ListByRecipe(ctx context.Context, recipeID int64) ([]*step.Step, error) {
	args := m.Called(ctx, recipeID)
	s, _ := args.Get(0).([]*step.Step)
	return s, args.Error(1)
}

func (m *MockStepRepository) CountByRecipe(ctx context.Context, recipeID int64) (int64, error) {
	args := m.Called(ctx, recipeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStepRepository) Previous(ctx context.Context, recipeID int64, position int) (*step.Step, error) {
	args := m.Called(ctx, recipeID, position)
	s, _ := args.Get(0).(*step.Step)
	return s, args.Error(1)
}

func (m *MockStepRepository) Next(ctx context.Context, recipeID int64, position int) (*step.Step, error) {
	args := m.Called(ctx, recipeID, position)
	s, _ := args.Get(0).(*step.Step)
	return s, args.Error(1)
}

func (m *MockStepRepository) SavePositions(ctx context.Context, steps []*step.Step) error {
	return m.Called(ctx, steps).Error(0)
}

// MockIngredientRepository provides a mock implementation of IngredientRepository
type MockIngredientRepository struct {
	mock.Mock
}

func (m *MockIngredientRepository) Create(ctx context.Context, i *ingredient.Ingredient) error {
	return m.Called(ctx, i).Error(0)
}

func (m *MockIngredientRepository) Update(ctx context.Context, i *ingredient.Ingredient) error {
	return m.Called(ctx, i).Error(0)
}

func (m *MockIngredientRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockIngredientRepository) FindByID(ctx context.Context, id int64) (*ingredient.Ingredient, error) {
	args := m.Called(ctx, id)
	i, _ := args.Get(0).(*ingredient.Ingredient)
	return i, args.Error(1)
}

func (m *MockIngredientRepository) List(ctx context.Context, filter outbound.ListFilter) ([]*ingredient.Ingredient, error) {
	args := m.Called(ctx, filter)
	i, _ := args.Get(0).([]*ingredient.Ingredient)
	return i, args.Error(1)
}

func (m *MockIngredientRepository) Count(ctx context.Context, filter outbound.ListFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockUnitRepository provides a mock implementation of UnitRepository
type MockUnitRepository struct {
	mock.Mock
}

func (m *MockUnitRepository) Create(ctx context.Context, u *ingredient.Unit) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUnitRepository) Update(ctx context.Context, u *ingredient.Unit) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUnitRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUnitRepository) FindByID(ctx context.Context, id int64) (*ingredient.Unit, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*ingredient.Unit)
	return u, args.Error(1)
}

func (m *MockUnitRepository) ListByIngredient(ctx context.Context, ingredientID int64) ([]*ingredient.Unit, error) {
	args := m.Called(ctx, ingredientID)
	u, _ := args.Get(0).([]*ingredient.Unit)
	return u, args.Error(1)
}

// MockTagRepository provides a mock implementation of TagRepository
type MockTagRepository struct {
	mock.Mock
}

func (m *MockTagRepository) Create(ctx context.Context, t *tag.Tag) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTagRepository) Update(ctx context.Context, t *tag.Tag) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTagRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTagRepository) FindByID(ctx context.Context, id int64) (*tag.Tag, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*tag.Tag)
	return t, args.Error(1)
}

func (m *MockTagRepository) FindByName(ctx context.Context, name string) (*tag.Tag, error) {
	args := m.Called(ctx, name)
	t, _ := args.Get(0).(*tag.Tag)
	return t, args.Error(1)
}

func (m *MockTagRepository) FindByIDs(ctx context.Context, ids []int64) ([]*tag.Tag, error) {
	args := m.Called(ctx, ids)
	t, _ := args.Get(0).([]*tag.Tag)
	return t, args.Error(1)
}

func (m *MockTagRepository) List(ctx context.Context, filter outbound.ListFilter) ([]*tag.Tag, error) {
	args := m.Called(ctx, filter)
	t, _ := args.Get(0).([]*tag.Tag)
	return t, args.Error(1)
}

func (m *MockTagRepository) Count(ctx context.Context, filter outbound.ListFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserRepository provides a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter outbound.ListFilter) ([]*user.User, error) {
	args := m.Called(ctx, filter)
	u, _ := args.Get(0).([]*user.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context, filter outbound.ListFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockWeekplanRepository provides a mock implementation of WeekplanRepository
type MockWeekplanRepository struct {
	mock.Mock
}

func (m *MockWeekplanRepository) Create(ctx context.Context, e *weekplan.Entry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockWeekplanRepository) Update(ctx context.Context, e *weekplan.Entry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockWeekplanRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockWeekplanRepository) FindByID(ctx context.Context, id int64) (*weekplan.Entry, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*weekplan.Entry)
	return e, args.Error(1)
}

func (m *MockWeekplanRepository) ListWeek(ctx context.Context, userID int64, week weekplan.Week) ([]*weekplan.Entry, error) {
	args := m.Called(ctx, userID, week)
	e, _ := args.Get(0).([]*weekplan.Entry)
	return e, args.Error(1)
}

// NoopTransactor runs the function directly on the given context
type NoopTransactor struct{}

func (NoopTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MockCacheRepository is an in-memory cache that records calls
type MockCacheRepository struct {
	mock.Mock
	data map[string][]byte
	mu   sync.RWMutex
}

// NewMockCacheRepository creates a new mock cache repository
func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string][]byte)}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, outbound.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *MockCacheRepository) Ping(ctx context.Context) error {
	return nil
}

// Keys returns the stored cache keys
func (m *MockCacheRepository) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

// MockStorageService keeps uploaded objects in memory
type MockStorageService struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

// NewMockStorageService creates an empty in-memory storage
func NewMockStorageService() *MockStorageService {
	return &MockStorageService{Objects: make(map[string][]byte)}
}

func (m *MockStorageService) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	if m.Err != nil {
		return m.Err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = data
	return nil
}

func (m *MockStorageService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.Objects[key]
	if !ok {
		return nil, outbound.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockStorageService) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, key)
	return nil
}

// RecordingPublisher collects published events
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []shared.DomainEvent
}

func (p *RecordingPublisher) Publish(ctx context.Context, event shared.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
}

// Names returns the names of the published events in order
func (p *RecordingPublisher) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		names = append(names, e.EventName())
	}
	return names
}

// PlainHasher is a reversible PasswordHasher for tests
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) {
	return "plain:" + password, nil
}

func (PlainHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "plain:"+password, nil
}

// MockTokenService provides a mock implementation of TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Issue(userID int64) (string, *outbound.TokenClaims, error) {
	args := m.Called(userID)
	claims, _ := args.Get(1).(*outbound.TokenClaims)
	return args.String(0), claims, args.Error(2)
}

func (m *MockTokenService) Parse(token string) (*outbound.TokenClaims, error) {
	args := m.Called(token)
	claims, _ := args.Get(0).(*outbound.TokenClaims)
	return claims, args.Error(1)
}

// RecordingAutoFill collects auto-fill observations
type RecordingAutoFill struct {
	Filled   int
	Unfilled int
	Runs     int
}

func (r *RecordingAutoFill) RecordAutoFill(filled, unfilled int, duration time.Duration) {
	r.Filled += filled
	r.Unfilled += unfilled
	r.Runs++
}
