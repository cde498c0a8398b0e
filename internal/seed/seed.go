// Package seed loads the reference data a fresh bookstore database needs:
// roles, payment methods, the category tree, publishers, suppliers, authors,
// system settings, the three staff/customer accounts and an optional sample
// catalog with vouchers. Every insert is ON CONFLICT DO NOTHING, so running it
// again only fills in what is missing.
package seed

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/safar/go-bookstore/internal/auth"
	"github.com/safar/go-bookstore/internal/config"
	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
	"github.com/safar/go-bookstore/internal/slug"
)

// Result counts the rows each step actually inserted.
type Result struct {
	Roles          int64 `json:"roles"`
	PaymentMethods int64 `json:"payment_methods"`
	Categories     int64 `json:"categories"`
	Publishers     int64 `json:"publishers"`
	Suppliers      int64 `json:"suppliers"`
	Authors        int64 `json:"authors"`
	Settings       int64 `json:"settings"`
	Users          int64 `json:"users"`
	Books          int64 `json:"books"`
	BookAuthors    int64 `json:"book_authors"`
	Vouchers       int64 `json:"vouchers"`
}

func (r *Result) Total() int64 {
	return r.Roles + r.PaymentMethods + r.Categories + r.Publishers + r.Suppliers +
		r.Authors + r.Settings + r.Users + r.Books + r.BookAuthors + r.Vouchers
}

type step struct {
	name string
	fn   func() error
}

type seeder struct {
	ctx context.Context
	tx  *sql.Tx
	cfg config.SeedConfig
	log *zap.Logger
	res *Result
}

// Run seeds everything in one transaction.
func Run(ctx context.Context, db *sql.DB, cfg config.SeedConfig, log *zap.Logger) (*Result, error) {
	res := &Result{}
	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		s := &seeder{ctx: ctx, tx: tx, cfg: cfg, log: log, res: res}

		steps := []step{
			{"roles", s.roles},
			{"payment methods", s.paymentMethods},
			{"categories", s.categories},
			{"publishers", s.publishers},
			{"suppliers", s.suppliers},
			{"authors", s.authors},
			{"settings", s.settings},
			{"users", s.users},
		}
		if cfg.SampleCatalog {
			steps = append(steps, step{"books", s.books}, step{"vouchers", s.vouchers})
		}

		for _, st := range steps {
			if err := st.fn(); err != nil {
				return fmt.Errorf("seed %s: %w", st.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("seed complete",
		zap.Int64("roles", res.Roles),
		zap.Int64("payment_methods", res.PaymentMethods),
		zap.Int64("categories", res.Categories),
		zap.Int64("users", res.Users),
		zap.Int64("books", res.Books),
		zap.Int64("vouchers", res.Vouchers),
		zap.Int64("total", res.Total()))
	return res, nil
}

func (s *seeder) exec(query string, args ...any) (int64, error) {
	result, err := s.tx.ExecContext(s.ctx, query, args...)
	if err != nil {
		return 0, database.TranslateError(err)
	}
	return result.RowsAffected()
}

func (s *seeder) roles() error {
	for _, r := range roles {
		perms, err := json.Marshal(r.Permissions)
		if err != nil {
			return err
		}
		n, err := s.exec(
			`INSERT INTO user_roles (id, role_name, description, permissions)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT DO NOTHING`,
			r.ID, r.Name, r.Description, string(perms))
		if err != nil {
			return fmt.Errorf("role %s: %w", r.Name, err)
		}
		s.res.Roles += n
	}

	// Explicit ids leave the sequence behind.
	_, err := s.tx.ExecContext(s.ctx,
		`SELECT setval(pg_get_serial_sequence('user_roles', 'id'), (SELECT MAX(id) FROM user_roles))`)
	return err
}

func (s *seeder) paymentMethods() error {
	for i, pm := range paymentMethods {
		n, err := s.exec(
			`INSERT INTO payment_methods (name, description, sort_order)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (name) DO NOTHING`,
			pm.Name, pm.Description, i+1)
		if err != nil {
			return fmt.Errorf("payment method %s: %w", pm.Name, err)
		}
		s.res.PaymentMethods += n
	}
	return nil
}

func (s *seeder) categories() error {
	for i, c := range categories {
		if derived := slug.Make(c.Name); derived != c.Slug {
			return fmt.Errorf("category %s: slug %q does not match derived %q", c.Name, c.Slug, derived)
		}
		n, err := s.exec(
			`INSERT INTO categories (name, slug, description, sort_order)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT DO NOTHING`,
			c.Name, c.Slug, c.Description, i+1)
		if err != nil {
			return fmt.Errorf("category %s: %w", c.Slug, err)
		}
		s.res.Categories += n
	}
	return nil
}

func (s *seeder) publishers() error {
	for _, p := range publishers {
		n, err := s.exec(
			`INSERT INTO publishers (name, contact_email, contact_phone)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (name) DO NOTHING`,
			p.Name, p.Email, p.Phone)
		if err != nil {
			return fmt.Errorf("publisher %s: %w", p.Name, err)
		}
		s.res.Publishers += n
	}
	return nil
}

func (s *seeder) suppliers() error {
	for _, sup := range suppliers {
		n, err := s.exec(
			`INSERT INTO suppliers (name, contact_person, email, phone, address)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (name) DO NOTHING`,
			sup.Name, sup.ContactPerson, sup.Email, sup.Phone, sup.Address)
		if err != nil {
			return fmt.Errorf("supplier %s: %w", sup.Name, err)
		}
		s.res.Suppliers += n
	}
	return nil
}

func (s *seeder) authors() error {
	for _, name := range authors {
		n, err := s.exec(
			`INSERT INTO authors (pen_name) VALUES ($1)
			 ON CONFLICT (pen_name) WHERE pen_name IS NOT NULL DO NOTHING`,
			name)
		if err != nil {
			return fmt.Errorf("author %s: %w", name, err)
		}
		s.res.Authors += n
	}
	return nil
}

func (s *seeder) settings() error {
	for _, st := range settings {
		n, err := s.exec(
			`INSERT INTO system_settings (setting_key, setting_value, setting_type, description, is_public)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (setting_key) DO NOTHING`,
			st.Key, st.Value, st.Type, st.Description, st.Public)
		if err != nil {
			return fmt.Errorf("setting %s: %w", st.Key, err)
		}
		s.res.Settings += n
	}
	return nil
}

func (s *seeder) password(username string) (string, bool, error) {
	var configured string
	switch username {
	case adminUsername:
		configured = s.cfg.AdminPassword
	case staffUsername:
		configured = s.cfg.StaffPassword
	case customerUsername:
		configured = s.cfg.CustomerPassword
	}
	if configured != "" {
		return configured, false, nil
	}

	generated, err := auth.RandomPassword()
	if err != nil {
		return "", false, err
	}
	return generated, true, nil
}

// users hashes each password separately. A generated password is logged
// once, when its account is actually created.
func (s *seeder) users() error {
	for _, a := range accounts {
		var exists bool
		err := s.tx.QueryRowContext(s.ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`,
			a.Username, a.Email).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		password, generated, err := s.password(a.Username)
		if err != nil {
			return fmt.Errorf("password for %s: %w", a.Username, err)
		}
		hash, err := auth.HashPassword(password, s.cfg.BcryptCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", a.Username, err)
		}

		n, err := s.exec(
			`INSERT INTO users (username, email, password_hash, first_name, last_name, role_id, email_verified)
			 VALUES ($1, $2, $3, $4, $5, $6, TRUE)
			 ON CONFLICT DO NOTHING`,
			a.Username, a.Email, hash, a.FirstName, a.LastName, a.RoleID)
		if err != nil {
			return fmt.Errorf("user %s: %w", a.Username, err)
		}
		s.res.Users += n

		if n > 0 && generated {
			s.log.Warn("generated password for seeded account, change it after first login",
				zap.String("username", a.Username),
				zap.String("password", password))
		}
	}
	return nil
}

func (s *seeder) books() error {
	for _, b := range books {
		bookSlug := slug.Make(b.Title)

		n, err := s.exec(
			`INSERT INTO books (title, slug, isbn, description, summary, publication_year, pages,
			     length, width, thickness, weight, cover_type, price, original_price,
			     discount_percentage, cost_price, stock_quantity, category_id, publisher_id,
			     supplier_id, is_featured, is_bestseller)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			     (SELECT id FROM categories WHERE slug = $18),
			     (SELECT id FROM publishers WHERE name = $19),
			     (SELECT id FROM suppliers WHERE name = $20),
			     $21, $22)
			 ON CONFLICT DO NOTHING`,
			b.Title, bookSlug, b.ISBN, b.Description, b.Summary, b.Year, b.Pages,
			b.Length, b.Width, b.Thickness, b.Weight, b.CoverType, b.Price, b.OriginalPrice,
			b.Discount, b.CostPrice, b.Stock, b.Category, b.Publisher, b.Supplier,
			b.Featured, b.Bestseller)
		if err != nil {
			return fmt.Errorf("book %s: %w", bookSlug, err)
		}
		s.res.Books += n

		n, err = s.exec(
			`INSERT INTO book_authors (book_id, author_id, role)
			 SELECT b.id, a.id, $3
			 FROM books b, authors a
			 WHERE b.slug = $1 AND a.pen_name = $2
			 ON CONFLICT (book_id, author_id, role) DO NOTHING`,
			bookSlug, b.Author, models.AuthorRoleAuthor)
		if err != nil {
			return fmt.Errorf("author link %s: %w", bookSlug, err)
		}
		s.res.BookAuthors += n
	}
	return nil
}

func (s *seeder) vouchers() error {
	now := time.Now()
	for _, v := range vouchers {
		n, err := s.exec(
			`INSERT INTO vouchers (code, name, description, discount_type, discount_value,
			     min_order_amount, max_discount_amount, usage_limit, user_limit,
			     start_date, end_date, created_by)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			     (SELECT id FROM users WHERE username = $12))
			 ON CONFLICT DO NOTHING`,
			v.Code, v.Name, v.Description, v.Type, v.Value, v.MinOrder, v.MaxDiscount,
			v.UsageLimit, v.UserLimit, now, now.AddDate(0, 0, v.Days), adminUsername)
		if err != nil {
			return fmt.Errorf("voucher %s: %w", v.Code, err)
		}
		s.res.Vouchers += n
	}
	return nil
}
