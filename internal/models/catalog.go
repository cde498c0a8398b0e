package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CoverHardcover = "hardcover"
	CoverPaperback = "paperback"
	CoverEbook     = "ebook"
	CoverAudiobook = "audiobook"
)

const (
	AuthorRoleAuthor      = "author"
	AuthorRoleCoAuthor    = "co-author"
	AuthorRoleEditor      = "editor"
	AuthorRoleTranslator  = "translator"
	AuthorRoleIllustrator = "illustrator"
)

const (
	ImageCover   = "cover"
	ImageBack    = "back"
	ImageSpine   = "spine"
	ImageSample  = "sample"
	ImageGallery = "gallery"
	ImageOther   = "other"
)

type Publisher struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	Website      *string   `json:"website,omitempty"`
	ContactEmail *string   `json:"contact_email,omitempty"`
	ContactPhone *string   `json:"contact_phone,omitempty"`
	Address      *string   `json:"address,omitempty"`
	LogoURL      *string   `json:"logo_url,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type Supplier struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	ContactPerson *string         `json:"contact_person,omitempty"`
	Email         *string         `json:"email,omitempty"`
	Phone         *string         `json:"phone,omitempty"`
	Address       *string         `json:"address,omitempty"`
	PaymentTerms  *string         `json:"payment_terms,omitempty"`
	CreditLimit   decimal.Decimal `json:"credit_limit"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	SortOrder   int       `json:"sort_order"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type Author struct {
	ID          int64      `json:"id"`
	FirstName   *string    `json:"first_name,omitempty"`
	LastName    *string    `json:"last_name,omitempty"`
	PenName     *string    `json:"pen_name,omitempty"`
	Biography   *string    `json:"biography,omitempty"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	DeathDate   *time.Time `json:"death_date,omitempty"`
	Nationality *string    `json:"nationality,omitempty"`
	Website     *string    `json:"website,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
}

// DisplayName prefers the pen name, matching the book_details view.
func (a *Author) DisplayName() string {
	if a.PenName != nil && *a.PenName != "" {
		return *a.PenName
	}
	var first, last string
	if a.FirstName != nil {
		first = *a.FirstName
	}
	if a.LastName != nil {
		last = *a.LastName
	}
	return first + " " + last
}

type Book struct {
	ID                 int64               `json:"id"`
	Title              string              `json:"title"`
	Subtitle           *string             `json:"subtitle,omitempty"`
	Slug               string              `json:"slug"`
	ISBN               *string             `json:"isbn,omitempty"`
	Description        *string             `json:"description,omitempty"`
	Summary            *string             `json:"summary,omitempty"`
	TableOfContents    *string             `json:"table_of_contents,omitempty"`
	PublicationYear    *int                `json:"publication_year,omitempty"`
	Pages              *int                `json:"pages,omitempty"`
	Length             decimal.NullDecimal `json:"length"`
	Width              decimal.NullDecimal `json:"width"`
	Thickness          decimal.NullDecimal `json:"thickness"`
	Weight             *int                `json:"weight,omitempty"`
	CoverType          *string             `json:"cover_type,omitempty"`
	Language           string              `json:"language"`
	Price              decimal.Decimal     `json:"price"`
	OriginalPrice      decimal.NullDecimal `json:"original_price"`
	DiscountPercentage decimal.Decimal     `json:"discount_percentage"`
	CostPrice          decimal.NullDecimal `json:"cost_price"`
	StockQuantity      int                 `json:"stock_quantity"`
	MinStockLevel      int                 `json:"min_stock_level"`
	SoldQuantity       int                 `json:"sold_quantity"`
	ViewCount          int                 `json:"view_count"`
	RatingAverage      decimal.Decimal     `json:"rating_average"`
	RatingCount        int                 `json:"rating_count"`
	PublisherID        *int64              `json:"publisher_id,omitempty"`
	SupplierID         *int64              `json:"supplier_id,omitempty"`
	CategoryID         *int64              `json:"category_id,omitempty"`
	IsActive           bool                `json:"is_active"`
	IsFeatured         bool                `json:"is_featured"`
	IsBestseller       bool                `json:"is_bestseller"`
	IsNewRelease       bool                `json:"is_new_release"`
	MetaTitle          *string             `json:"meta_title,omitempty"`
	MetaDescription    *string             `json:"meta_description,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

type BookAuthor struct {
	ID        int64  `json:"id"`
	BookID    int64  `json:"book_id"`
	AuthorID  int64  `json:"author_id"`
	Role      string `json:"role"`
	SortOrder int    `json:"sort_order"`
}

type BookImage struct {
	ID        int64     `json:"id"`
	BookID    int64     `json:"book_id"`
	ImageURL  string    `json:"image_url"`
	ImageType string    `json:"image_type"`
	AltText   *string   `json:"alt_text,omitempty"`
	SortOrder int       `json:"sort_order"`
	IsPrimary bool      `json:"is_primary"`
	FileSize  *int      `json:"file_size,omitempty"`
	Width     *int      `json:"width,omitempty"`
	Height    *int      `json:"height,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}
