package companies

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/collections/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "companies.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Company{}, &entities.Collection{}, &entities.Association{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewRepository(db, entities.CollectionNameLiked), db
}

func TestRepository_FetchCompaniesWithLiked(t *testing.T) {
	repo, db := setupTestDB(t)

	require.NoError(t, repo.UpsertCompanies([]entities.Company{
		{ID: 1, CompanyName: "Acme"},
		{ID: 2, CompanyName: "Globex"},
		{ID: 3, CompanyName: "Initech"},
	}))

	liked := entities.Collection{ID: uuid.New(), CollectionName: entities.CollectionNameLiked}
	require.NoError(t, db.Create(&liked).Error)
	require.NoError(t, db.Create(&entities.Association{CompanyID: 2, CollectionID: liked.ID}).Error)

	result, err := repo.FetchCompaniesWithLiked([]int{3, 2, 99, 1})
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.Equal(t, entities.CompanyWithLiked{ID: 3, CompanyName: "Initech", Liked: false}, result[0])
	assert.Equal(t, entities.CompanyWithLiked{ID: 2, CompanyName: "Globex", Liked: true}, result[1])
	assert.Equal(t, entities.CompanyWithLiked{ID: 1, CompanyName: "Acme", Liked: false}, result[2])
}

func TestRepository_FetchCompaniesWithLiked_Empty(t *testing.T) {
	repo, _ := setupTestDB(t)

	result, err := repo.FetchCompaniesWithLiked(nil)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestRepository_UpsertCompanies(t *testing.T) {
	repo, _ := setupTestDB(t)

	require.NoError(t, repo.UpsertCompanies([]entities.Company{{ID: 1, CompanyName: "Old"}}))
	require.NoError(t, repo.UpsertCompanies([]entities.Company{{ID: 1, CompanyName: "New"}, {ID: 2, CompanyName: "Two"}}))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	result, err := repo.FetchCompaniesWithLiked([]int{1})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "New", result[0].CompanyName)
}
