package domain

import "time"

// Item statuses (stable wire values, shared by Product and Komplet)
const (
	ItemStatusInStock    = "magazyn"   // available in stock
	ItemStatusCheckedOut = "wyjazd"    // currently rented out
	ItemStatusInRepair   = "serwis"    // blocked, in repair
	ItemStatusRetired    = "odrzucone" // withdrawn from use
)

// Order statuses (stable wire values)
const (
	OrderStatusReserved = "reserved"
	OrderStatusOngoing  = "ongoing"
	OrderStatusReturned = "returned"
	OrderStatusCanceled = "canceled"
)

type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:100;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "rental_category"
}

// Product is a single rentable piece of equipment. Code is derived from
// brand, model and the row ID after the first insert and never changes.
type Product struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Brand        string    `gorm:"size:100" json:"brand"`
	Model        string    `gorm:"size:100" json:"model"`
	Code         *string   `gorm:"size:50;uniqueIndex" json:"code"`
	SerialNumber string    `gorm:"size:100" json:"serial_number"`
	Description  string    `json:"description"`
	Status       string    `gorm:"size:10;index" json:"status"`
	CategoryID   int64     `gorm:"index" json:"category_id"`
	Quantity     int       `json:"quantity"` // informational, not decremented per rental
	Weight       *float64  `json:"weight,omitempty"`
	EanCode      string    `gorm:"size:13" json:"ean_code"`
	Image        string    `gorm:"size:1024" json:"image"` // opaque storage handle
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "rental_product"
}

// Label returns the human-readable form used in listings and mails.
func (p Product) Label() string {
	code := ""
	if p.Code != nil {
		code = *p.Code
	}
	return p.Brand + " " + p.Model + " (" + code + ")"
}

// Komplet is a named bundle of products rented as one unit. Its status is
// tracked independently of the member products' statuses.
type Komplet struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:100;uniqueIndex" json:"name"`
	Status    string    `gorm:"size:10;index" json:"status"`
	Products  []Product `gorm:"many2many:rental_komplet_products" json:"products,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Komplet) TableName() string {
	return "rental_komplet"
}

type Order struct {
	ID             int64      `json:"id,string"`
	UserID         int64      `gorm:"index" json:"user_id,string"`
	ConferenceCode string     `gorm:"size:50" json:"conference_code"`
	Products       []Product  `gorm:"many2many:rental_order_products" json:"products,omitempty"`
	Komplets       []Komplet  `gorm:"many2many:rental_order_komplets" json:"komplets,omitempty"`
	Status         string     `gorm:"size:10;index" json:"status"`
	ReservedAt     time.Time  `json:"reserved_at"`
	PickupDate     *time.Time `json:"pickup_date"` // planned
	ReturnDate     *time.Time `json:"return_date"` // planned
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Order) TableName() string {
	return "rental_order"
}

// BorrowHistory is an append-only audit row; exactly one of ProductID or
// KompletID is set.
type BorrowHistory struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64      `gorm:"index" json:"user_id,string"`
	ProductID  *int64     `gorm:"index" json:"product_id,omitempty"`
	KompletID  *int64     `gorm:"index" json:"komplet_id,omitempty"`
	BorrowDate time.Time  `json:"borrow_date"`
	ReturnDate *time.Time `json:"return_date"`
}

func (BorrowHistory) TableName() string {
	return "rental_borrow_history"
}

// Serwis is an external repair vendor contact record.
type Serwis struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:255;index" json:"name"`
	PhoneNumber string    `gorm:"size:15" json:"phone_number"`
	Email       string    `gorm:"size:255" json:"email"`
	Street      string    `gorm:"size:255" json:"street"`
	Number      string    `gorm:"size:10" json:"number"`
	PostalCode  string    `gorm:"size:10" json:"postal_code"`
	City        string    `gorm:"size:100" json:"city"`
	Country     string    `gorm:"size:100;default:Polska" json:"country"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Serwis) TableName() string {
	return "rental_serwis"
}

// Service is a repair ticket against a product or komplet; exactly one of
// ProductID or KompletID is set. SerwisID goes null when the vendor is removed.
type Service struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   *int64     `gorm:"index" json:"product_id,omitempty"`
	KompletID   *int64     `gorm:"index" json:"komplet_id,omitempty"`
	SerwisID    *int64     `gorm:"index" json:"serwis_id,omitempty"`
	Description string     `json:"description"`
	ReportedAt  time.Time  `json:"reported_at"`
	Resolved    bool       `gorm:"index" json:"resolved"`
	ResolvedAt  *time.Time `json:"resolved_at"`
}

func (Service) TableName() string {
	return "rental_service"
}
