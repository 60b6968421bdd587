package vendors

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketadmin-backend/internal/activitylog"
	"github.com/angelmondragon/marketadmin-backend/internal/users"
	"github.com/angelmondragon/marketadmin-backend/pkg/db/models"
	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketadmin-backend/pkg/errors"
	"github.com/angelmondragon/marketadmin-backend/pkg/logger"
)

type stubTx struct{}

func (stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubUsers struct {
	byID map[uuid.UUID]*models.User
}

func (s *stubUsers) WithTx(*gorm.DB) users.Repository { return s }

func (s *stubUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsers) ListByType(context.Context, enums.UserType) ([]models.User, error) {
	return nil, nil
}

type stubRepo struct {
	profiles map[uuid.UUID]*models.VendorProfile
	counts   map[enums.VendorClassification]int64
}

func (s *stubRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*models.VendorProfile, error) {
	if p, ok := s.profiles[userID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindByUserIDs(context.Context, []uuid.UUID) (map[uuid.UUID]models.VendorProfile, error) {
	return nil, nil
}

func (s *stubRepo) Create(_ context.Context, profile *models.VendorProfile) error {
	profile.ID = uuid.New()
	s.profiles[profile.UserID] = profile
	return nil
}

func (s *stubRepo) UpdateClassification(_ context.Context, profileID uuid.UUID, classification enums.VendorClassification) error {
	for _, p := range s.profiles {
		if p.ID == profileID {
			p.Classification = classification
		}
	}
	return nil
}

func (s *stubRepo) CountByClassification(context.Context) (map[enums.VendorClassification]int64, error) {
	return s.counts, nil
}

type stubEnsurer struct {
	calls   []enums.VendorClassification
	id      uuid.UUID
	created bool
}

func (s *stubEnsurer) EnsureDefault(_ context.Context, _ *gorm.DB, c enums.VendorClassification) (uuid.UUID, bool, error) {
	s.calls = append(s.calls, c)
	return s.id, s.created, nil
}

type stubSink struct {
	entries []activitylog.Entry
}

func (s *stubSink) Record(_ context.Context, entry activitylog.Entry) {
	s.entries = append(s.entries, entry)
}

type harness struct {
	svc      Service
	users    *stubUsers
	repo     *stubRepo
	defaults *stubEnsurer
	sink     *stubSink
	admin    uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	admin := &models.User{ID: uuid.New(), Username: "root", UserType: enums.UserTypeSuperAdmin, IsActive: true}
	h := &harness{
		users:    &stubUsers{byID: map[uuid.UUID]*models.User{admin.ID: admin}},
		repo:     &stubRepo{profiles: map[uuid.UUID]*models.VendorProfile{}},
		defaults: &stubEnsurer{id: uuid.New()},
		sink:     &stubSink{},
		admin:    admin.ID,
	}
	logg := logger.New(logger.Options{ServiceName: "vendors-test", Output: io.Discard})
	svc, err := NewService(stubTx{}, h.repo, h.users, h.defaults, h.sink, logg)
	require.NoError(t, err)
	h.svc = svc
	return h
}

func (h *harness) addUser(userType enums.UserType, username string) *models.User {
	u := &models.User{ID: uuid.New(), Username: username, UserType: userType, IsActive: true}
	h.users.byID[u.ID] = u
	return u
}

func TestCountsFillsEveryClassification(t *testing.T) {
	h := newHarness(t)
	h.repo.counts = map[enums.VendorClassification]int64{
		enums.VendorClassificationBronze: 4,
		enums.VendorClassificationGold:   1,
	}

	counts, err := h.svc.Counts(context.Background(), h.admin)
	require.NoError(t, err)
	assert.Len(t, counts.ByClassification, 5)
	assert.EqualValues(t, 0, counts.ByClassification[enums.VendorClassificationSpecial])
	assert.EqualValues(t, 5, counts.Total)
}

func TestSetClassificationEnsuresDefaultForStandardTier(t *testing.T) {
	h := newHarness(t)
	vendor := h.addUser(enums.UserTypeVendor, "greenleaf")

	out, err := h.svc.SetClassification(context.Background(), h.admin, vendor.ID, enums.VendorClassificationSilver)
	require.NoError(t, err)
	assert.Equal(t, enums.VendorClassificationSilver, out.Classification)
	require.NotNil(t, out.CommissionID)
	assert.Equal(t, h.defaults.id, *out.CommissionID)
	assert.Equal(t, []enums.VendorClassification{enums.VendorClassificationSilver}, h.defaults.calls)
	assert.Equal(t, "greenleaf's Business", out.BusinessName)
	require.Len(t, h.sink.entries, 1)
	assert.Equal(t, "vendor_profile", h.sink.entries[0].ObjectType)
}

func TestSetClassificationSpecialSkipsDefault(t *testing.T) {
	h := newHarness(t)
	vendor := h.addUser(enums.UserTypeVendor, "greenleaf")

	out, err := h.svc.SetClassification(context.Background(), h.admin, vendor.ID, enums.VendorClassificationSpecial)
	require.NoError(t, err)
	assert.Nil(t, out.CommissionID)
	assert.Empty(t, h.defaults.calls)
}

func TestSetClassificationRejects(t *testing.T) {
	h := newHarness(t)
	client := h.addUser(enums.UserTypeClient, "shopper")
	vendor := h.addUser(enums.UserTypeVendor, "greenleaf")
	ctx := context.Background()

	_, err := h.svc.SetClassification(ctx, h.admin, vendor.ID, "diamond")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = h.svc.SetClassification(ctx, h.admin, client.ID, enums.VendorClassificationGold)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = h.svc.SetClassification(ctx, client.ID, vendor.ID, enums.VendorClassificationGold)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	_, err = h.svc.SetClassification(ctx, h.admin, uuid.New(), enums.VendorClassificationGold)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	assert.Empty(t, h.defaults.calls)
	assert.Empty(t, h.sink.entries)
}

func TestSetClassificationAuditsCreatedDefault(t *testing.T) {
	h := newHarness(t)
	h.defaults.created = true
	vendor := h.addUser(enums.UserTypeVendor, "greenleaf")

	_, err := h.svc.SetClassification(context.Background(), h.admin, vendor.ID, enums.VendorClassificationGold)
	require.NoError(t, err)
	require.Len(t, h.sink.entries, 2)
	assert.Equal(t, "vendor_type_commission", h.sink.entries[0].ObjectType)
	assert.Equal(t, enums.ActivityTypeCreate, h.sink.entries[0].Type)
	require.NotNil(t, h.sink.entries[0].ObjectID)
	assert.Equal(t, h.defaults.id, *h.sink.entries[0].ObjectID)
	assert.Equal(t, "vendor_profile", h.sink.entries[1].ObjectType)
}
