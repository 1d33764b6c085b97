// Package testhelpers wires store-backed tests to a disposable MySQL
// database. Tests that need it skip unless WORKFORCE_TEST_DSN is set.
package testhelpers

import (
	"os"
	"testing"

	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/types"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var allModels = []interface{}{
	&types.Company{}, &types.LinkedInProfile{}, &types.Category{},
	&types.CategoryRule{}, &types.CooldownRule{},
	&types.ResearchTask{}, &types.ResearchSubmission{},
	&types.InquiryTask{}, &types.InquiryAction{}, &types.InquirySnapshot{},
	&types.CooldownRecord{}, &types.LastContact{}, &types.ScreenshotHash{},
	&types.AuditDecision{}, &types.FlaggedAction{},
}

// DB opens the test database, migrates the schema and clears all rows so
// every test starts from an empty store.
func DB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("WORKFORCE_TEST_DSN")
	if dsn == "" {
		t.Skip("WORKFORCE_TEST_DSN not set; skipping store-backed test")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	for _, m := range allModels {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
			t.Fatalf("clear test db: %v", err)
		}
	}
	return db
}
