//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/alchemorsel/recipes/internal/application/weekplan"
	"github.com/alchemorsel/recipes/internal/domain/recipe"
	"github.com/alchemorsel/recipes/internal/domain/tag"
	"github.com/alchemorsel/recipes/internal/domain/user"
	gormrepo "github.com/alchemorsel/recipes/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"github.com/alchemorsel/recipes/pkg/healthcheck"
	"github.com/alchemorsel/recipes/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type PostgresTestSuite struct {
	suite.Suite
	db  *testutils.TestDatabase
	ctx context.Context
}

func (s *PostgresTestSuite) SetupSuite() {
	s.db = testutils.SetupTestDatabase(s.T())
	s.ctx = context.Background()
}

func (s *PostgresTestSuite) TearDownTest() {
	s.db.TruncateAllTables()
}

func (s *PostgresTestSuite) TestMigratedSchemaIsHealthy() {
	check := healthcheck.NewDatabaseChecker(s.db.Conn.SQLDB).Check(s.ctx)
	assert.Equal(s.T(), healthcheck.StatusHealthy, check.Status)
}

func (s *PostgresTestSuite) TestAutoFillAgainstPostgres() {
	// Arrange
	db := s.db.Conn.DB
	users := gormrepo.NewUserRepository(db)
	tags := gormrepo.NewTagRepository(db)
	recipes := gormrepo.NewRecipeRepository(db)

	cook, err := user.NewUser("cook@example.com", "Cook", user.RoleUser)
	require.NoError(s.T(), err)
	require.NoError(s.T(), users.Create(s.ctx, cook))

	vegan, err := tag.NewTag("vegan")
	require.NoError(s.T(), err)
	require.NoError(s.T(), tags.Create(s.ctx, vegan))

	for _, name := range []string{"Lentil Soup", "Chickpea Curry", "Steak"} {
		r, err := recipe.NewRecipe(name, nil, 2, nil)
		require.NoError(s.T(), err)
		if name != "Steak" {
			r.SetTags([]int64{vegan.ID})
		}
		require.NoError(s.T(), recipes.Create(s.ctx, r))
	}

	service := weekplan.NewWeekplanService(
		gormrepo.NewWeekplanRepository(db),
		recipes,
		gormrepo.NewTransactor(db),
		&testutils.RecordingAutoFill{},
		zap.NewNop(),
	)

	// Act
	entries, err := service.AutoFill(s.ctx, cook, inbound.AutoFillCommand{
		Week: time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
		Tags: []string{"vegan"},
	})

	// Assert
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 2, "only two vegan recipes exist and none repeats within a week")
	assert.NotEqual(s.T(), entries[0].RecipeID, entries[1].RecipeID)
	for _, entry := range entries {
		require.NotNil(s.T(), entry.Recipe)
		assert.NotEqual(s.T(), "Steak", entry.Recipe.Name)
	}
}

func TestPostgresTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping postgres integration tests in short mode")
	}
	suite.Run(t, new(PostgresTestSuite))
}
