package associations

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
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "associations.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Association{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewRepository(db), db
}

func TestRepository_CreateFindDelete(t *testing.T) {
	repo, _ := setupTestDB(t)
	collectionID := uuid.New()

	missing, err := repo.Find(1, collectionID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	created, err := repo.Create(1, collectionID)
	require.NoError(t, err)

	found, err := repo.Find(1, collectionID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	exists, err := repo.Exists(1, collectionID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.Delete(found))

	exists, err = repo.Exists(1, collectionID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepository_CreateRejectsDuplicatePair(t *testing.T) {
	repo, _ := setupTestDB(t)
	collectionID := uuid.New()

	_, err := repo.Create(7, collectionID)
	require.NoError(t, err)

	_, err = repo.Create(7, collectionID)
	assert.Error(t, err)
}

func TestRepository_WithTxRollsBack(t *testing.T) {
	repo, db := setupTestDB(t)
	collectionID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := repo.WithTx(tx).Create(3, collectionID); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	exists, err := repo.Exists(3, collectionID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepository_ExistingCompanyIDs(t *testing.T) {
	repo, _ := setupTestDB(t)
	collectionID := uuid.New()
	require.NoError(t, repo.AddCompanies(collectionID, []int{1, 3, 5}))

	ids, err := repo.ExistingCompanyIDs(collectionID, []int{5, 2, 3, 5})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 3}, ids)

	ids, err = repo.ExistingCompanyIDs(collectionID, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRepository_AddCompaniesSkipsExisting(t *testing.T) {
	repo, _ := setupTestDB(t)
	collectionID := uuid.New()

	require.NoError(t, repo.AddCompanies(collectionID, []int{1, 2}))
	require.NoError(t, repo.AddCompanies(collectionID, []int{2, 3}))

	count, err := repo.CountInCollection(collectionID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
