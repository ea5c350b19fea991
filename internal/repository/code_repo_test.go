package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/coa_server/internal/model"
	"github.com/qs3c/coa_server/internal/testutil"
)

func TestCodeRepository_GetByNames(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewCodeRepository(db)
	goCode := testutil.TestCode(t, db, "Go", model.CodeTypeLanguage)
	testutil.TestCode(t, db, "Backend", model.CodeTypeJob)

	found, err := repo.GetByNames([]string{"Go", "Cobol"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, goCode.ID, found["Go"].ID)

	empty, err := repo.GetByNames(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCodeRepository_CreateMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewCodeRepository(db)
	testutil.TestCode(t, db, "Go", model.CodeTypeLanguage)

	defaults := model.DefaultCodes()
	created, err := repo.CreateMissing(defaults)
	require.NoError(t, err)
	assert.Equal(t, int64(len(defaults)-1), created)

	// 重复执行不新增
	created, err = repo.CreateMissing(model.DefaultCodes())
	require.NoError(t, err)
	assert.Equal(t, int64(0), created)

	var count int64
	require.NoError(t, db.Model(&model.Code{}).Count(&count).Error)
	assert.Equal(t, int64(len(defaults)), count)
}
