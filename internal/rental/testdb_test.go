package rental

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/talkincode/toughrent/internal/domain"
	"github.com/talkincode/toughrent/pkg/common"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbfile := filepath.Join(t.TempDir(), "rental_test.db")
	db, err := gorm.Open(sqlite.Open(dbfile), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *domain.Category {
	t.Helper()
	cat := &domain.Category{Name: name}
	require.NoError(t, db.Create(cat).Error)
	return cat
}

func seedProduct(t *testing.T, db *gorm.DB, categoryID int64, brand, model, status string) *domain.Product {
	t.Helper()
	p := &domain.Product{
		Brand:      brand,
		Model:      model,
		Status:     status,
		CategoryID: categoryID,
		Quantity:   1,
	}
	require.NoError(t, db.Create(p).Error)
	code := brand + "_" + model + "_" + strconv.FormatInt(p.ID, 10)
	require.NoError(t, db.Model(p).Update("code", code).Error)
	p.Code = &code
	return p
}

func seedKomplet(t *testing.T, db *gorm.DB, name, status string, products ...*domain.Product) *domain.Komplet {
	t.Helper()
	k := &domain.Komplet{Name: name, Status: status}
	for _, p := range products {
		k.Products = append(k.Products, *p)
	}
	require.NoError(t, db.Omit("Products.*").Create(k).Error)
	return k
}

func seedUser(t *testing.T, db *gorm.DB, username, level string) *domain.SysUser {
	t.Helper()
	u := &domain.SysUser{
		ID:       common.UUIDint64(),
		Username: username,
		Level:    level,
		Status:   common.ENABLED,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
