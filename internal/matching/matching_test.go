package matching

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"dorm-allocation-backend/internal/model"
	"dorm-allocation-backend/internal/store"
)

// newTestStore creates a sqlite-backed store with a fresh schema.
func newTestStore(t *testing.T) (store.Store, *gorm.DB) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "matching_test.db")
	testDB, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, testDB.AutoMigrate(
		&model.Student{},
		&model.Dormitory{},
		&model.Bed{},
		&model.Allocation{},
		&model.RoommateTag{},
		&model.AlgorithmWeight{},
		&model.AllocationFeedback{},
	))

	return store.NewGormStore(testDB), testDB
}

func seedStudent(t *testing.T, db *gorm.DB, id, gender, major string) model.Student {
	t.Helper()
	student := model.Student{ID: id, Name: "学生" + id, Gender: gender, Major: major, College: "计算机学院"}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func seedDorm(t *testing.T, db *gorm.DB, id string, bedCount int) model.Dormitory {
	t.Helper()
	dorm := model.Dormitory{ID: id, Name: id, BedCount: bedCount, Status: "NORMAL"}
	require.NoError(t, db.Create(&dorm).Error)
	return dorm
}

func seedBed(t *testing.T, db *gorm.DB, id, dormID, bedType string, bedNumber int) model.Bed {
	t.Helper()
	bed := model.Bed{ID: id, DormitoryID: dormID, BedNumber: bedNumber, BedType: bedType, Status: model.BedStatusAvailable}
	require.NoError(t, db.Create(&bed).Error)
	return bed
}

func seedTag(t *testing.T, db *gorm.DB, studentID, tagName string) {
	t.Helper()
	require.NoError(t, db.Create(&model.RoommateTag{StudentID: studentID, TagName: tagName}).Error)
}
