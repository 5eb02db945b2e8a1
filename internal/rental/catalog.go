package rental

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/talkincode/toughrent/internal/domain"
)

// Catalog is the CRUD layer for categories, products and komplets. It owns
// uniqueness and referential constraints plus the derived product code, but
// no workflow logic.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) CreateCategory(name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "name is required"}
	}
	var count int64
	if err := c.db.Model(&domain.Category{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "query category")
	}
	if count > 0 {
		return nil, &ConflictError{Message: "category name already exists"}
	}
	cat := &domain.Category{Name: name}
	if err := c.db.Create(cat).Error; err != nil {
		return nil, errors.Wrap(err, "create category")
	}
	return cat, nil
}

// DeleteCategory refuses to delete a category that still has products.
func (c *Catalog) DeleteCategory(id int64) error {
	var count int64
	if err := c.db.Model(&domain.Product{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
		return errors.Wrap(err, "query category products")
	}
	if count > 0 {
		return &InUseError{Entity: "category", Count: count}
	}
	res := c.db.Where("id = ?", id).Delete(&domain.Category{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete category")
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "category"}
	}
	return nil
}

// CreateProduct inserts the product and assigns its derived code in one
// transaction. The insert has to happen first because the code embeds the
// generated row ID.
func (c *Catalog) CreateProduct(p *domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(p.Brand) == "" {
		return nil, &ValidationError{Field: "brand", Message: "brand is required"}
	}
	if strings.TrimSpace(p.Model) == "" {
		return nil, &ValidationError{Field: "model", Message: "model is required"}
	}
	if p.Quantity < 0 {
		return nil, &ValidationError{Field: "quantity", Message: "quantity must be >= 0"}
	}
	var count int64
	if err := c.db.Model(&domain.Category{}).Where("id = ?", p.CategoryID).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "query category")
	}
	if count == 0 {
		return nil, &ValidationError{Field: "category_id", Message: "unknown category"}
	}

	p.Brand = strings.TrimSpace(p.Brand)
	p.Model = strings.TrimSpace(p.Model)
	p.Code = nil
	if p.Status == "" {
		p.Status = domain.ItemStatusInStock
	}
	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return errors.Wrap(err, "create product")
		}
		code := fmt.Sprintf("%s_%s_%d", p.Brand, p.Model, p.ID)
		if err := tx.Model(p).Update("code", code).Error; err != nil {
			return errors.Wrap(err, "assign product code")
		}
		p.Code = &code
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProduct writes the mutable fields; code and status are owned
// elsewhere and never touched here.
func (c *Catalog) UpdateProduct(id int64, updates map[string]interface{}) (*domain.Product, error) {
	delete(updates, "code")
	delete(updates, "status")
	delete(updates, "id")
	if cid, ok := updates["category_id"]; ok {
		var count int64
		if err := c.db.Model(&domain.Category{}).Where("id = ?", cid).Count(&count).Error; err != nil {
			return nil, errors.Wrap(err, "query category")
		}
		if count == 0 {
			return nil, &ValidationError{Field: "category_id", Message: "unknown category"}
		}
	}
	var p domain.Product
	if err := c.db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "product"}
		}
		return nil, errors.Wrap(err, "query product")
	}
	if len(updates) > 0 {
		if err := c.db.Model(&p).Updates(updates).Error; err != nil {
			return nil, errors.Wrap(err, "update product")
		}
	}
	if err := c.db.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, errors.Wrap(err, "reload product")
	}
	return &p, nil
}

func (c *Catalog) CreateKomplet(name string, productIDs []int64) (*domain.Komplet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "name is required"}
	}
	var count int64
	if err := c.db.Model(&domain.Komplet{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "query komplet")
	}
	if count > 0 {
		return nil, &ConflictError{Message: "komplet name already exists"}
	}
	if len(productIDs) > 0 {
		var found int64
		if err := c.db.Model(&domain.Product{}).Where("id IN ?", productIDs).Count(&found).Error; err != nil {
			return nil, errors.Wrap(err, "query komplet products")
		}
		if found != int64(len(productIDs)) {
			return nil, &ValidationError{Field: "product_ids", Message: "unknown product in komplet"}
		}
	}

	komplet := &domain.Komplet{Name: name, Status: domain.ItemStatusInStock}
	for _, id := range productIDs {
		komplet.Products = append(komplet.Products, domain.Product{ID: id})
	}
	if err := c.db.Omit("Products.*").Create(komplet).Error; err != nil {
		return nil, errors.Wrap(err, "create komplet")
	}
	return komplet, nil
}

// SetKompletProducts replaces the member set; membership does not touch
// member statuses.
func (c *Catalog) SetKompletProducts(kompletID int64, productIDs []int64) error {
	var komplet domain.Komplet
	if err := c.db.Where("id = ?", kompletID).First(&komplet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "komplet"}
		}
		return errors.Wrap(err, "query komplet")
	}
	products := make([]domain.Product, 0, len(productIDs))
	for _, id := range productIDs {
		products = append(products, domain.Product{ID: id})
	}
	if err := c.db.Model(&komplet).Omit("Products.*").Association("Products").Replace(products); err != nil {
		return errors.Wrap(err, "replace komplet products")
	}
	return nil
}

// InStockProducts is the availability listing used by clients.
func (c *Catalog) InStockProducts() ([]domain.Product, error) {
	var products []domain.Product
	err := c.db.Where("status = ?", domain.ItemStatusInStock).Order("id").Find(&products).Error
	if err != nil {
		return nil, errors.Wrap(err, "query in-stock products")
	}
	return products, nil
}

// InStockKomplets is the availability listing used by clients.
func (c *Catalog) InStockKomplets() ([]domain.Komplet, error) {
	var komplets []domain.Komplet
	err := c.db.Preload("Products").
		Where("status = ?", domain.ItemStatusInStock).Order("id").Find(&komplets).Error
	if err != nil {
		return nil, errors.Wrap(err, "query in-stock komplets")
	}
	return komplets, nil
}
