package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// MigrationsTestSuite covers the embedded migration listing
type MigrationsTestSuite struct {
	suite.Suite
}

func (s *MigrationsTestSuite) TestEmbedded() {
	s.Run("StartsWithInit", func() {
		// Act
		list, err := Embedded()

		// Assert
		require.NoError(s.T(), err)
		require.NotEmpty(s.T(), list)
		assert.Equal(s.T(), Migration{Version: 1, Name: "init"}, list[0])
		assert.Equal(s.T(), "000001_init", list[0].String())
	})

	s.Run("VersionsAscend", func() {
		list, err := Embedded()

		require.NoError(s.T(), err)
		for i := 1; i < len(list); i++ {
			assert.Greater(s.T(), list[i].Version, list[i-1].Version)
		}
	})
}

func (s *MigrationsTestSuite) TestPendingAfter() {
	embedded := []Migration{{Version: 1, Name: "init"}, {Version: 2, Name: "plans"}, {Version: 3, Name: "tags"}}

	s.Run("FreshSchema_ShouldListEverything", func() {
		assert.Equal(s.T(), embedded, pendingAfter(embedded, 0))
	})

	s.Run("PartlyMigrated_ShouldListNewerOnly", func() {
		assert.Equal(s.T(), embedded[1:], pendingAfter(embedded, 1))
	})

	s.Run("UpToDate_ShouldListNothing", func() {
		assert.Empty(s.T(), pendingAfter(embedded, 3))
	})
}

func TestMigrationsTestSuite(t *testing.T) {
	suite.Run(t, new(MigrationsTestSuite))
}
