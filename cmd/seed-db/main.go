// Command seed-db loads the service catalog, sample coupons, and an
// administrator account into the database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/dhobighat/dhobighat/internal/domain/auth"
	"github.com/dhobighat/dhobighat/internal/domain/catalog"
	"github.com/dhobighat/dhobighat/internal/domain/coupon"
	"github.com/dhobighat/dhobighat/internal/domain/customer"
	"github.com/dhobighat/dhobighat/internal/repository"
)

type serviceJSON struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
}

type couponJSON struct {
	Code        string           `json:"code"`
	Kind        string           `json:"kind"`
	Value       decimal.Decimal  `json:"value"`
	MinOrder    decimal.Decimal  `json:"minOrder"`
	MaxDiscount *decimal.Decimal `json:"maxDiscount"`
	ValidDays   int              `json:"validDays"`
	UsageLimit  int              `json:"usageLimit"`
	Description string           `json:"description"`
}

func main() {
	var (
		databaseURL   string
		servicesFile  string
		couponsFile   string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&servicesFile, "services-file", "db/seed/services.json", "path to services JSON file")
	flag.StringVar(&couponsFile, "coupons-file", "db/seed/coupons.json", "path to coupons JSON file")
	flag.StringVar(&adminEmail, "admin-email", "", "administrator email to seed (or DHOBI_SEED_ADMIN_EMAIL env)")
	flag.StringVar(&adminPassword, "admin-password", "", "administrator password to seed (or DHOBI_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminEmail == "" {
		adminEmail = os.Getenv("DHOBI_SEED_ADMIN_EMAIL")
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("DHOBI_SEED_ADMIN_PASSWORD")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, servicesFile, couponsFile, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, servicesFile, couponsFile, adminEmail, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedServices(ctx, repository.NewCatalogRepository(pool), servicesFile); err != nil {
		return errors.Wrap(err, "seed services")
	}
	if err := seedCoupons(ctx, repository.NewCouponRepository(pool), couponsFile); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	if adminEmail != "" && adminPassword != "" {
		if err := seedAdmin(ctx, repository.NewCustomerRepository(pool), adminEmail, adminPassword); err != nil {
			return errors.Wrap(err, "seed admin")
		}
	}

	return nil
}

func seedServices(ctx context.Context, repo *repository.CatalogRepository, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}

	var services []serviceJSON
	if err := json.Unmarshal(data, &services); err != nil {
		return errors.Wrap(err, "parse services")
	}

	for _, s := range services {
		err := repo.Create(ctx, &catalog.Service{
			ID:          uuid.NewString(),
			Name:        s.Name,
			Category:    s.Category,
			Price:       s.Price,
			Description: s.Description,
			Icon:        s.Icon,
			Active:      true,
		})
		if err != nil {
			return errors.Wrapf(err, "create service %q", s.Name)
		}
	}

	slog.Info("services seeded", slog.Int("count", len(services)))
	return nil
}

func seedCoupons(ctx context.Context, repo *repository.CouponRepository, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}

	var coupons []couponJSON
	if err := json.Unmarshal(data, &coupons); err != nil {
		return errors.Wrap(err, "parse coupons")
	}

	now := time.Now()
	for _, c := range coupons {
		err := repo.Upsert(ctx, &coupon.Coupon{
			Code:        coupon.NormalizeCode(c.Code),
			Kind:        coupon.DiscountKind(c.Kind),
			Value:       c.Value,
			MinOrder:    c.MinOrder,
			MaxDiscount: c.MaxDiscount,
			ValidFrom:   now,
			ValidUntil:  now.AddDate(0, 0, c.ValidDays),
			UsageLimit:  c.UsageLimit,
			Active:      true,
			Description: c.Description,
		})
		if err != nil {
			return errors.Wrapf(err, "upsert coupon %q", c.Code)
		}
	}

	slog.Info("coupons seeded", slog.Int("count", len(coupons)))
	return nil
}

func seedAdmin(ctx context.Context, repo *repository.CustomerRepository, email, password string) error {
	if _, err := repo.GetByEmail(ctx, email); err == nil {
		slog.Info("admin already exists", slog.String("email", email))
		return nil
	} else if !errors.Is(err, customer.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	err = repo.Create(ctx, &customer.Customer{
		ID:           uuid.NewString(),
		Name:         "Administrator",
		Email:        email,
		Phone:        "",
		PasswordHash: string(hash),
		Role:         auth.RoleAdmin,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return errors.Wrap(err, "create admin")
	}

	slog.Info("admin seeded", slog.String("email", email))
	return nil
}
