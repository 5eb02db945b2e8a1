package rental

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkincode/toughrent/internal/domain"
)

func TestCreateProductAssignsCode(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalog(db)
	cat := seedCategory(t, db, "audio")

	p, err := catalog.CreateProduct(&domain.Product{
		Brand:      "Shure",
		Model:      "SM58",
		CategoryID: cat.ID,
		Quantity:   2,
	})
	require.NoError(t, err)
	require.NotNil(t, p.Code)
	assert.Equal(t, fmt.Sprintf("Shure_SM58_%d", p.ID), *p.Code)
	assert.Equal(t, domain.ItemStatusInStock, p.Status)
}

func TestCreateProductValidation(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalog(db)
	cat := seedCategory(t, db, "audio")

	var valErr *ValidationError
	_, err := catalog.CreateProduct(&domain.Product{Model: "SM58", CategoryID: cat.ID})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "brand", valErr.Field)

	_, err = catalog.CreateProduct(&domain.Product{Brand: "Shure", CategoryID: cat.ID})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "model", valErr.Field)

	_, err = catalog.CreateProduct(&domain.Product{Brand: "Shure", Model: "SM58", CategoryID: 99999})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "category_id", valErr.Field)
}

func TestUpdateProductNeverTouchesCode(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalog(db)
	cat := seedCategory(t, db, "audio")

	p, err := catalog.CreateProduct(&domain.Product{
		Brand: "Shure", Model: "SM58", CategoryID: cat.ID,
	})
	require.NoError(t, err)
	originalCode := *p.Code

	updated, err := catalog.UpdateProduct(p.ID, map[string]interface{}{
		"brand":  "Sennheiser",
		"code":   "evil_override",
		"status": domain.ItemStatusRetired,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sennheiser", updated.Brand)
	require.NotNil(t, updated.Code)
	assert.Equal(t, originalCode, *updated.Code)
	assert.Equal(t, domain.ItemStatusInStock, updated.Status)
}

func TestCategoryUniqueAndProtected(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalog(db)

	cat, err := catalog.CreateCategory("audio")
	require.NoError(t, err)

	_, err = catalog.CreateCategory("audio")
	var confErr *ConflictError
	require.ErrorAs(t, err, &confErr)

	_, err = catalog.CreateProduct(&domain.Product{Brand: "Shure", Model: "SM58", CategoryID: cat.ID})
	require.NoError(t, err)

	err = catalog.DeleteCategory(cat.ID)
	var inUseErr *InUseError
	require.ErrorAs(t, err, &inUseErr)
	assert.Equal(t, int64(1), inUseErr.Count)

	err = catalog.DeleteCategory(55555)
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestKompletMembership(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalog(db)
	cat := seedCategory(t, db, "audio")
	p1 := seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusInStock)
	p2 := seedProduct(t, db, cat.ID, "Sennheiser", "e935", domain.ItemStatusInStock)

	k, err := catalog.CreateKomplet("Scena A", []int64{p1.ID})
	require.NoError(t, err)

	_, err = catalog.CreateKomplet("Scena A", nil)
	var confErr *ConflictError
	require.ErrorAs(t, err, &confErr)

	_, err = catalog.CreateKomplet("Scena B", []int64{987654})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	require.NoError(t, catalog.SetKompletProducts(k.ID, []int64{p1.ID, p2.ID}))

	var got domain.Komplet
	require.NoError(t, db.Preload("Products").First(&got, k.ID).Error)
	assert.Len(t, got.Products, 2)

	// membership does not change member statuses
	var gotP domain.Product
	require.NoError(t, db.First(&gotP, p1.ID).Error)
	assert.Equal(t, domain.ItemStatusInStock, gotP.Status)
}

func TestInStockListings(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalog(db)
	cat := seedCategory(t, db, "audio")
	seedProduct(t, db, cat.ID, "Shure", "SM58", domain.ItemStatusInStock)
	seedProduct(t, db, cat.ID, "Sennheiser", "e935", domain.ItemStatusCheckedOut)
	seedKomplet(t, db, "Scena A", domain.ItemStatusInStock)
	seedKomplet(t, db, "Scena B", domain.ItemStatusInRepair)

	products, err := catalog.InStockProducts()
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Shure", products[0].Brand)

	komplets, err := catalog.InStockKomplets()
	require.NoError(t, err)
	require.Len(t, komplets, 1)
	assert.Equal(t, "Scena A", komplets[0].Name)
}
