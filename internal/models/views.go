package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookDetail is a row of the book_details view.
type BookDetail struct {
	ID                 int64               `db:"id" json:"id"`
	Title              string              `db:"title" json:"title"`
	Subtitle           *string             `db:"subtitle" json:"subtitle,omitempty"`
	Slug               string              `db:"slug" json:"slug"`
	ISBN               *string             `db:"isbn" json:"isbn,omitempty"`
	Price              decimal.Decimal     `db:"price" json:"price"`
	OriginalPrice      decimal.NullDecimal `db:"original_price" json:"original_price"`
	DiscountPercentage decimal.Decimal     `db:"discount_percentage" json:"discount_percentage"`
	StockQuantity      int                 `db:"stock_quantity" json:"stock_quantity"`
	SoldQuantity       int                 `db:"sold_quantity" json:"sold_quantity"`
	RatingAverage      decimal.Decimal     `db:"rating_average" json:"rating_average"`
	RatingCount        int                 `db:"rating_count" json:"rating_count"`
	CoverType          *string             `db:"cover_type" json:"cover_type,omitempty"`
	Language           string              `db:"language" json:"language"`
	PublicationYear    *int                `db:"publication_year" json:"publication_year,omitempty"`
	Pages              *int                `db:"pages" json:"pages,omitempty"`
	IsActive           bool                `db:"is_active" json:"is_active"`
	IsFeatured         bool                `db:"is_featured" json:"is_featured"`
	IsBestseller       bool                `db:"is_bestseller" json:"is_bestseller"`
	IsNewRelease       bool                `db:"is_new_release" json:"is_new_release"`
	PublisherName      *string             `db:"publisher_name" json:"publisher_name,omitempty"`
	SupplierName       *string             `db:"supplier_name" json:"supplier_name,omitempty"`
	CategoryName       *string             `db:"category_name" json:"category_name,omitempty"`
	CategorySlug       *string             `db:"category_slug" json:"category_slug,omitempty"`
	Authors            *string             `db:"authors" json:"authors,omitempty"`
	Tags               *string             `db:"tags" json:"tags,omitempty"`
	PrimaryImage       *string             `db:"primary_image" json:"primary_image,omitempty"`
	CreatedAt          time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time           `db:"updated_at" json:"updated_at"`
}

// OrderDetail is a row of the order_details view.
type OrderDetail struct {
	ID              int64           `db:"id" json:"id"`
	OrderNumber     string          `db:"order_number" json:"order_number"`
	UserID          *int64          `db:"user_id" json:"user_id,omitempty"`
	Status          OrderStatus     `db:"status" json:"status"`
	PaymentStatus   PaymentStatus   `db:"payment_status" json:"payment_status"`
	Subtotal        decimal.Decimal `db:"subtotal" json:"subtotal"`
	DiscountAmount  decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	ShippingFee     decimal.Decimal `db:"shipping_fee" json:"shipping_fee"`
	TaxAmount       decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"total_amount"`
	CustomerName    *string         `db:"customer_name" json:"customer_name,omitempty"`
	CustomerEmail   *string         `db:"customer_email" json:"customer_email,omitempty"`
	CustomerPhone   *string         `db:"customer_phone" json:"customer_phone,omitempty"`
	PaymentMethod   *string         `db:"payment_method" json:"payment_method,omitempty"`
	RecipientName   *string         `db:"recipient_name" json:"recipient_name,omitempty"`
	ShippingPhone   *string         `db:"shipping_phone" json:"shipping_phone,omitempty"`
	ShippingAddress *string         `db:"shipping_address" json:"shipping_address,omitempty"`
	VoucherCode     *string         `db:"voucher_code" json:"voucher_code,omitempty"`
	VoucherName     *string         `db:"voucher_name" json:"voucher_name,omitempty"`
	ItemCount       int             `db:"item_count" json:"item_count"`
	TrackingNumber  *string         `db:"tracking_number" json:"tracking_number,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

const (
	StockIn  = "in_stock"
	StockLow = "low_stock"
	StockOut = "out_of_stock"
)

// BookStatistic is a row of the book_statistics view.
type BookStatistic struct {
	ID            int64           `db:"id" json:"id"`
	Title         string          `db:"title" json:"title"`
	Slug          string          `db:"slug" json:"slug"`
	Price         decimal.Decimal `db:"price" json:"price"`
	StockQuantity int             `db:"stock_quantity" json:"stock_quantity"`
	MinStockLevel int             `db:"min_stock_level" json:"min_stock_level"`
	SoldQuantity  int             `db:"sold_quantity" json:"sold_quantity"`
	ViewCount     int             `db:"view_count" json:"view_count"`
	RatingAverage decimal.Decimal `db:"rating_average" json:"rating_average"`
	RatingCount   int             `db:"rating_count" json:"rating_count"`
	Revenue       decimal.Decimal `db:"revenue" json:"revenue"`
	StockStatus   string          `db:"stock_status" json:"stock_status"`
}
