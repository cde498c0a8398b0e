package seed

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/safar/go-bookstore/internal/auth"
	"github.com/safar/go-bookstore/internal/config"
	"github.com/safar/go-bookstore/internal/dbtest"
	"github.com/safar/go-bookstore/internal/slug"
	"github.com/safar/go-bookstore/internal/store"
)

func TestCategorySlugsMatchSlugifier(t *testing.T) {
	for _, c := range categories {
		assert.Equal(t, c.Slug, slug.Make(c.Name), c.Name)
	}
}

func TestRun(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	cfg := config.SeedConfig{
		BcryptCost:    bcrypt.MinCost,
		AdminPassword: "admin-secret-1",
		SampleCatalog: true,
	}

	res, err := Run(ctx, db, cfg, log)
	require.NoError(t, err)
	assert.Equal(t, Result{
		Roles:          3,
		PaymentMethods: 5,
		Categories:     12,
		Publishers:     6,
		Suppliers:      3,
		Authors:        5,
		Settings:       int64(len(settings)),
		Users:          3,
		Books:          3,
		BookAuthors:    3,
		Vouchers:       3,
	}, *res)

	generated := logs.FilterMessageSnippet("generated password").All()
	require.Len(t, generated, 2)
	var usernames []string
	for _, entry := range generated {
		usernames = append(usernames, entry.ContextMap()["username"].(string))
	}
	assert.ElementsMatch(t, []string{staffUsername, customerUsername}, usernames)

	hashes := map[string]string{}
	rows, err := db.QueryContext(ctx, `SELECT username, password_hash FROM users`)
	require.NoError(t, err)
	for rows.Next() {
		var username, hash string
		require.NoError(t, rows.Scan(&username, &hash))
		hashes[username] = hash
	}
	require.NoError(t, rows.Err())
	rows.Close()

	require.NoError(t, auth.CheckPassword("admin-secret-1", hashes[adminUsername]))
	assert.NotEqual(t, hashes[staffUsername], hashes[customerUsername])

	staffPassword := generated[0].ContextMap()["password"].(string)
	if generated[0].ContextMap()["username"] != staffUsername {
		staffPassword = generated[1].ContextMap()["password"].(string)
	}
	assert.NoError(t, auth.CheckPassword(staffPassword, hashes[staffUsername]))

	t.Run("second run inserts nothing", func(t *testing.T) {
		again, err := Run(ctx, db, cfg, log)
		require.NoError(t, err)
		assert.Zero(t, again.Total())
		assert.Len(t, logs.FilterMessageSnippet("generated password").All(), 2)
	})

	t.Run("seeded rows are usable", func(t *testing.T) {
		roles, err := store.ListRoles(ctx, db)
		require.NoError(t, err)
		assert.Len(t, roles, 3)

		book, err := store.GetBookBySlug(ctx, db, "dac-nhan-tam")
		require.NoError(t, err)
		assert.Equal(t, "150000.00", book.Price.StringFixed(2))

		detail, err := store.GetBookDetail(ctx, store.NewViewReader(db), book.ID)
		require.NoError(t, err)
		require.NotNil(t, detail.Authors)
		assert.Equal(t, "Dale Carnegie", *detail.Authors)
		require.NotNil(t, detail.CategorySlug)
		assert.Equal(t, "tam-ly-hoc", *detail.CategorySlug)

		welcome, err := store.GetVoucherByCode(ctx, db, "WELCOME10")
		require.NoError(t, err)
		require.NotNil(t, welcome.CreatedBy)
		assert.True(t, welcome.IsActive)

		fee, err := store.GetSettingDecimal(ctx, db, "shipping_fee", decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, "30000", fee.String())

		user, err := store.CreateUser(ctx, db, store.CreateUserRequest{
			Username:     "reader",
			Email:        "reader@example.com",
			PasswordHash: hashes[customerUsername],
			FirstName:    "Lan",
			LastName:     "Pham",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), user.RoleID)
	})
}

func TestRunWithoutSampleCatalog(t *testing.T) {
	db := dbtest.New(t)

	res, err := Run(context.Background(), db, config.SeedConfig{BcryptCost: bcrypt.MinCost}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Users)
	assert.Zero(t, res.Books)
	assert.Zero(t, res.Vouchers)
}
