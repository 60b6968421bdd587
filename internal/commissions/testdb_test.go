package commissions

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketadmin-backend/internal/activitylog"
	"github.com/angelmondragon/marketadmin-backend/internal/catalog"
	"github.com/angelmondragon/marketadmin-backend/internal/users"
	"github.com/angelmondragon/marketadmin-backend/internal/vendors"
	"github.com/angelmondragon/marketadmin-backend/pkg/db"
	"github.com/angelmondragon/marketadmin-backend/pkg/db/models"
	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
	"github.com/angelmondragon/marketadmin-backend/pkg/logger"
	"github.com/angelmondragon/marketadmin-backend/pkg/metrics"
)

var commissionsSchema = []string{
	`CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  username TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  user_type TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE vendor_profiles (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  business_name TEXT NOT NULL,
  business_registration_number TEXT NOT NULL,
  classification TEXT NOT NULL DEFAULT 'bronze',
  is_verified INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE subcategories (
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  description TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE vendor_type_commissions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  percentage NUMERIC NOT NULL CHECK (percentage >= 0 AND percentage <= 100),
  is_active INTEGER NOT NULL DEFAULT 1,
  created_by_id TEXT,
  updated_by_id TEXT,
  vendor_classification TEXT NOT NULL,
  vendor_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX ux_vendor_type_commissions_active
  ON vendor_type_commissions (vendor_classification, COALESCE(vendor_id, ''))
  WHERE is_active = 1;`,
	`CREATE TABLE time_period_commissions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  percentage NUMERIC NOT NULL CHECK (percentage >= 0 AND percentage <= 100),
  is_active INTEGER NOT NULL DEFAULT 1,
  created_by_id TEXT,
  updated_by_id TEXT,
  start_date DATETIME NOT NULL,
  end_date DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE offer_type_commissions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  percentage NUMERIC NOT NULL CHECK (percentage >= 0 AND percentage <= 100),
  is_active INTEGER NOT NULL DEFAULT 1,
  created_by_id TEXT,
  updated_by_id TEXT,
  category_id TEXT NOT NULL,
  subcategory_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX ux_offer_type_commissions_active
  ON offer_type_commissions (category_id, COALESCE(subcategory_id, ''))
  WHERE is_active = 1;`,
	`CREATE TABLE activity_logs (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  activity_type TEXT NOT NULL,
  object_type TEXT NOT NULL,
  object_id TEXT,
  details BLOB,
  created_at DATETIME
);`,
}

// testClock hands out strictly increasing UTC instants so created_at ordering is deterministic.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newCommissionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                clock.Now,
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range commissionsSchema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

type fixture struct {
	db       *gorm.DB
	svc      Service
	registry *prometheus.Registry
	admin    uuid.UUID
	ctx      context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn := newCommissionsTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "commissions-test", Output: io.Discard})
	audit, err := activitylog.NewService(activitylog.NewRepository(conn), logg)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Tx:          db.Wrap(conn),
		VendorTypes: NewVendorTypeStore(conn),
		TimePeriods: NewTimePeriodStore(conn),
		OfferTypes:  NewOfferTypeStore(conn),
		Users:       users.NewRepository(conn),
		Vendors:     vendors.NewRepository(conn),
		Catalog:     catalog.NewRepository(conn),
		Audit:       audit,
		Metrics:     metrics.NewCommissionMetrics(registry),
		Logger:      logg,
	})
	require.NoError(t, err)

	f := &fixture{db: conn, svc: svc, registry: registry, ctx: context.Background()}
	f.admin = f.user(t, "admin", enums.UserTypeSuperAdmin).ID
	return f
}

func (f *fixture) user(t *testing.T, username string, userType enums.UserType) *models.User {
	t.Helper()
	user := &models.User{
		ID:       uuid.New(),
		Email:    username + "@example.com",
		Username: username,
		UserType: userType,
		IsActive: true,
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *fixture) vendor(t *testing.T, username string, classification enums.VendorClassification) *models.User {
	t.Helper()
	user := f.user(t, username, enums.UserTypeVendor)
	require.NoError(t, f.db.Create(&models.VendorProfile{
		ID:                         uuid.New(),
		UserID:                     user.ID,
		BusinessName:               username + " Supply",
		BusinessRegistrationNumber: "REG-" + username,
		Classification:             classification,
	}).Error)
	return user
}

func (f *fixture) profile(t *testing.T, userID uuid.UUID) models.VendorProfile {
	t.Helper()
	var profile models.VendorProfile
	require.NoError(t, f.db.First(&profile, "user_id = ?", userID).Error)
	return profile
}

func (f *fixture) category(t *testing.T, name string) *models.Category {
	t.Helper()
	category := &models.Category{ID: uuid.New(), Name: name, Slug: strings.ToLower(name), IsActive: true}
	require.NoError(t, f.db.Create(category).Error)
	return category
}

func (f *fixture) subCategory(t *testing.T, parent uuid.UUID, name string) *models.SubCategory {
	t.Helper()
	sub := &models.SubCategory{ID: uuid.New(), CategoryID: parent, Name: name, Slug: strings.ToLower(name), IsActive: true}
	require.NoError(t, f.db.Create(sub).Error)
	return sub
}

// counter returns the value of the counter series matching labels, or 0.
func (f *fixture) counter(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := f.registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelsMatch(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, pair := range metric.GetLabel() {
		want, ok := labels[pair.GetName()]
		if !ok {
			continue
		}
		if want != pair.GetValue() {
			return false
		}
		matched++
	}
	return matched == len(labels)
}
