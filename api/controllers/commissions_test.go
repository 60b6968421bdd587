package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketadmin-backend/api/middleware"
	"github.com/angelmondragon/marketadmin-backend/internal/commissions"
	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketadmin-backend/pkg/errors"
)

type stubCommissionService struct {
	commissions.Service
	list          func(ctx context.Context, actorID uuid.UUID, query commissions.ListQuery) (commissions.Page, error)
	get           func(ctx context.Context, actorID, id uuid.UUID, hint *enums.CommissionKind) (commissions.Record, error)
	create        func(ctx context.Context, actorID uuid.UUID, payload commissions.Payload) (commissions.Record, error)
	update        func(ctx context.Context, actorID, id uuid.UUID, hint *enums.CommissionKind, payload commissions.Payload) (commissions.Record, error)
	getDefault    func(ctx context.Context, actorID uuid.UUID, classification enums.VendorClassification) (commissions.Record, error)
	assign        func(ctx context.Context, actorID, vendorID, commissionID uuid.UUID) (commissions.Assignment, error)
	special       func(ctx context.Context, actorID uuid.UUID, input commissions.SpecialInput) (commissions.Assignment, error)
	resolveVendor func(ctx context.Context, actorID, vendorID uuid.UUID) (commissions.Resolution, error)
	resolveOffer  func(ctx context.Context, actorID, categoryID uuid.UUID, sub *uuid.UUID) (commissions.Resolution, error)
	activePeriod  func(ctx context.Context, actorID uuid.UUID, at time.Time) (commissions.Resolution, error)
	vendorRates   func(ctx context.Context, actorID uuid.UUID) ([]commissions.VendorCommission, error)
}

func (s stubCommissionService) List(ctx context.Context, actorID uuid.UUID, query commissions.ListQuery) (commissions.Page, error) {
	return s.list(ctx, actorID, query)
}

func (s stubCommissionService) Get(ctx context.Context, actorID, id uuid.UUID, hint *enums.CommissionKind) (commissions.Record, error) {
	return s.get(ctx, actorID, id, hint)
}

func (s stubCommissionService) Create(ctx context.Context, actorID uuid.UUID, payload commissions.Payload) (commissions.Record, error) {
	return s.create(ctx, actorID, payload)
}

func (s stubCommissionService) Update(ctx context.Context, actorID, id uuid.UUID, hint *enums.CommissionKind, payload commissions.Payload) (commissions.Record, error) {
	return s.update(ctx, actorID, id, hint, payload)
}

func (s stubCommissionService) GetOrCreateDefault(ctx context.Context, actorID uuid.UUID, classification enums.VendorClassification) (commissions.Record, error) {
	return s.getDefault(ctx, actorID, classification)
}

func (s stubCommissionService) AssignToVendor(ctx context.Context, actorID, vendorID, commissionID uuid.UUID) (commissions.Assignment, error) {
	return s.assign(ctx, actorID, vendorID, commissionID)
}

func (s stubCommissionService) CreateSpecial(ctx context.Context, actorID uuid.UUID, input commissions.SpecialInput) (commissions.Assignment, error) {
	return s.special(ctx, actorID, input)
}

func (s stubCommissionService) ResolveVendor(ctx context.Context, actorID, vendorID uuid.UUID) (commissions.Resolution, error) {
	return s.resolveVendor(ctx, actorID, vendorID)
}

func (s stubCommissionService) ResolveOfferCategory(ctx context.Context, actorID, categoryID uuid.UUID, sub *uuid.UUID) (commissions.Resolution, error) {
	return s.resolveOffer(ctx, actorID, categoryID, sub)
}

func (s stubCommissionService) ActivePeriod(ctx context.Context, actorID uuid.UUID, at time.Time) (commissions.Resolution, error) {
	return s.activePeriod(ctx, actorID, at)
}

func (s stubCommissionService) VendorCommissions(ctx context.Context, actorID uuid.UUID) ([]commissions.VendorCommission, error) {
	return s.vendorRates(ctx, actorID)
}

type errorBody struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func newActorRequest(method, target, body string, actorID uuid.UUID, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := middleware.WithUserID(req.Context(), actorID.String())
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for key, value := range params {
			rctx.URLParams.Add(key, value)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestCommissionListPassesFilters(t *testing.T) {
	actorID := uuid.New()
	var captured commissions.ListQuery
	svc := stubCommissionService{
		list: func(ctx context.Context, gotActor uuid.UUID, query commissions.ListQuery) (commissions.Page, error) {
			if gotActor != actorID {
				t.Fatalf("unexpected actor %s", gotActor)
			}
			captured = query
			return commissions.Page{Items: []commissions.Record{{ID: uuid.New(), Kind: enums.CommissionKindTimePeriod}}, NextCursor: "next"}, nil
		},
	}

	req := newActorRequest(http.MethodGet, "/api/admin/commissions?type=time_period&is_active=true&limit=5&cursor=abc", "", actorID, nil)
	rec := httptest.NewRecorder()
	CommissionList(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Kind != "time_period" || captured.Limit != 5 || captured.Cursor != "abc" {
		t.Fatalf("unexpected query %+v", captured)
	}
	if captured.Active == nil || !*captured.Active {
		t.Fatalf("expected is_active=true filter")
	}

	var envelope struct {
		Data commissions.Page `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.NextCursor != "next" {
		t.Fatalf("unexpected page %+v", envelope.Data)
	}
}

func TestCommissionListRequiresActor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/commissions", nil)
	rec := httptest.NewRecorder()
	CommissionList(stubCommissionService{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestCommissionListRejectsBadBoolean(t *testing.T) {
	req := newActorRequest(http.MethodGet, "/api/admin/commissions?is_active=sometimes", "", uuid.New(), nil)
	rec := httptest.NewRecorder()
	CommissionList(stubCommissionService{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	body := decodeError(t, rec)
	if _, ok := body.Error.Details["is_active"]; !ok {
		t.Fatalf("expected is_active detail, got %+v", body.Error.Details)
	}
}

func TestCommissionGetUsesKindHint(t *testing.T) {
	id := uuid.New()
	var hint *enums.CommissionKind
	svc := stubCommissionService{
		get: func(ctx context.Context, actorID, gotID uuid.UUID, gotHint *enums.CommissionKind) (commissions.Record, error) {
			hint = gotHint
			return commissions.Record{ID: gotID, Kind: enums.CommissionKindOfferType}, nil
		},
	}

	req := newActorRequest(http.MethodGet, "/api/admin/commissions/"+id.String()+"?type=offer_type", "", uuid.New(), map[string]string{"commissionID": id.String()})
	rec := httptest.NewRecorder()
	CommissionGet(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if hint == nil || *hint != enums.CommissionKindOfferType {
		t.Fatalf("expected offer_type hint, got %v", hint)
	}
}

func TestCommissionGetIgnoresUnknownKindHint(t *testing.T) {
	id := uuid.New()
	called := false
	var hint *enums.CommissionKind
	svc := stubCommissionService{
		get: func(ctx context.Context, actorID, gotID uuid.UUID, gotHint *enums.CommissionKind) (commissions.Record, error) {
			called = true
			hint = gotHint
			return commissions.Record{ID: gotID, Kind: enums.CommissionKindVendorType}, nil
		},
	}

	req := newActorRequest(http.MethodGet, "/api/admin/commissions/"+id.String()+"?type=weekly", "", uuid.New(), map[string]string{"commissionID": id.String()})
	rec := httptest.NewRecorder()
	CommissionGet(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !called || hint != nil {
		t.Fatalf("expected lookup without hint, called=%v hint=%v", called, hint)
	}
}

func TestCommissionGetNotFound(t *testing.T) {
	id := uuid.New()
	svc := stubCommissionService{
		get: func(context.Context, uuid.UUID, uuid.UUID, *enums.CommissionKind) (commissions.Record, error) {
			return commissions.Record{}, pkgerrors.New(pkgerrors.CodeNotFound, "commission not found")
		},
	}
	req := newActorRequest(http.MethodGet, "/api/admin/commissions/"+id.String(), "", uuid.New(), map[string]string{"commissionID": id.String()})
	rec := httptest.NewRecorder()
	CommissionGet(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestCommissionCreateDecodesPayload(t *testing.T) {
	var captured commissions.Payload
	svc := stubCommissionService{
		create: func(ctx context.Context, actorID uuid.UUID, payload commissions.Payload) (commissions.Record, error) {
			captured = payload
			return commissions.Record{ID: uuid.New(), Kind: payload.Kind, Percentage: *payload.Percentage}, nil
		},
	}

	body := `{"commission_type":"vendor_type","name":"Gold","percentage":"12.50","vendor_classification":"gold"}`
	req := newActorRequest(http.MethodPost, "/api/admin/commissions", body, uuid.New(), nil)
	rec := httptest.NewRecorder()
	CommissionCreate(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Kind != enums.CommissionKindVendorType {
		t.Fatalf("unexpected kind %q", captured.Kind)
	}
	if captured.Percentage == nil || !captured.Percentage.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected percentage %v", captured.Percentage)
	}
	if captured.VendorClassification == nil || *captured.VendorClassification != enums.VendorClassificationGold {
		t.Fatalf("unexpected classification %v", captured.VendorClassification)
	}
}

func TestCommissionCreateSurfacesFieldErrors(t *testing.T) {
	svc := stubCommissionService{
		create: func(context.Context, uuid.UUID, commissions.Payload) (commissions.Record, error) {
			return commissions.Record{}, pkgerrors.Field("end_date", "End date must be after start date.")
		},
	}
	body := `{"commission_type":"time_period","start_date":"2026-02-01T00:00:00Z","end_date":"2026-01-01T00:00:00Z"}`
	req := newActorRequest(http.MethodPost, "/api/admin/commissions", body, uuid.New(), nil)
	rec := httptest.NewRecorder()
	CommissionCreate(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if got := decodeError(t, rec).Error.Details["end_date"]; got == "" {
		t.Fatalf("expected end_date detail")
	}
}

func TestCommissionCreateRejectsUnknownFields(t *testing.T) {
	req := newActorRequest(http.MethodPost, "/api/admin/commissions", `{"commission_type":"vendor_type","rate":5}`, uuid.New(), nil)
	rec := httptest.NewRecorder()
	CommissionCreate(stubCommissionService{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCommissionUpdatePassesIDAndPayload(t *testing.T) {
	id := uuid.New()
	svc := stubCommissionService{
		update: func(ctx context.Context, actorID, gotID uuid.UUID, hint *enums.CommissionKind, payload commissions.Payload) (commissions.Record, error) {
			if gotID != id {
				t.Fatalf("unexpected id %s", gotID)
			}
			if payload.IsActive == nil || *payload.IsActive {
				t.Fatalf("expected is_active=false")
			}
			return commissions.Record{ID: gotID}, nil
		},
	}
	req := newActorRequest(http.MethodPatch, "/api/admin/commissions/"+id.String(), `{"is_active":false}`, uuid.New(), map[string]string{"commissionID": id.String()})
	rec := httptest.NewRecorder()
	CommissionUpdate(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCommissionDefaultParsesClassification(t *testing.T) {
	var got enums.VendorClassification
	svc := stubCommissionService{
		getDefault: func(ctx context.Context, actorID uuid.UUID, classification enums.VendorClassification) (commissions.Record, error) {
			got = classification
			return commissions.Record{ID: uuid.New()}, nil
		},
	}
	req := newActorRequest(http.MethodPost, "/api/admin/commissions/defaults/silver", "", uuid.New(), map[string]string{"classification": "silver"})
	rec := httptest.NewRecorder()
	CommissionDefault(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || got != enums.VendorClassificationSilver {
		t.Fatalf("unexpected status %d classification %q", rec.Code, got)
	}

	req = newActorRequest(http.MethodPost, "/api/admin/commissions/defaults/diamond", "", uuid.New(), map[string]string{"classification": "diamond"})
	rec = httptest.NewRecorder()
	CommissionDefault(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCommissionAssignRequiresVendor(t *testing.T) {
	id := uuid.New()
	req := newActorRequest(http.MethodPost, "/api/admin/commissions/"+id.String()+"/assign", `{}`, uuid.New(), map[string]string{"commissionID": id.String()})
	rec := httptest.NewRecorder()
	CommissionAssign(stubCommissionService{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if got := decodeError(t, rec).Error.Details["vendor_id"]; got != "is required" {
		t.Fatalf("unexpected vendor_id detail %q", got)
	}
}

func TestCommissionAssignCallsService(t *testing.T) {
	commissionID, vendorID := uuid.New(), uuid.New()
	svc := stubCommissionService{
		assign: func(ctx context.Context, actorID, gotVendor, gotCommission uuid.UUID) (commissions.Assignment, error) {
			if gotVendor != vendorID || gotCommission != commissionID {
				t.Fatalf("unexpected ids vendor=%s commission=%s", gotVendor, gotCommission)
			}
			return commissions.Assignment{
				Vendor:     commissions.VendorSummary{ID: vendorID, Classification: enums.VendorClassificationGold},
				Commission: commissions.Record{ID: commissionID},
			}, nil
		},
	}
	body := `{"vendor_id":"` + vendorID.String() + `"}`
	req := newActorRequest(http.MethodPost, "/api/admin/commissions/"+commissionID.String()+"/assign", body, uuid.New(), map[string]string{"commissionID": commissionID.String()})
	rec := httptest.NewRecorder()
	CommissionAssign(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCommissionCreateSpecialForwardsInput(t *testing.T) {
	vendorID := uuid.New()
	var captured commissions.SpecialInput
	svc := stubCommissionService{
		special: func(ctx context.Context, actorID uuid.UUID, input commissions.SpecialInput) (commissions.Assignment, error) {
			captured = input
			return commissions.Assignment{Vendor: commissions.VendorSummary{ID: vendorID}}, nil
		},
	}
	body := `{"vendor_id":"` + vendorID.String() + `","percentage":3.5}`
	req := newActorRequest(http.MethodPost, "/api/admin/commissions/special", body, uuid.New(), nil)
	rec := httptest.NewRecorder()
	CommissionCreateSpecial(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.VendorID == nil || *captured.VendorID != vendorID {
		t.Fatalf("unexpected vendor %v", captured.VendorID)
	}
	if captured.Percentage == nil || !captured.Percentage.Equal(decimal.RequireFromString("3.5")) {
		t.Fatalf("unexpected percentage %v", captured.Percentage)
	}
	if captured.Name != nil {
		t.Fatalf("expected name to be left for defaulting")
	}
}

func TestCommissionResolveEndpoints(t *testing.T) {
	vendorID, categoryID, subID := uuid.New(), uuid.New(), uuid.New()
	pct := decimal.NewFromInt(10)
	var gotSub *uuid.UUID
	var gotAt time.Time
	svc := stubCommissionService{
		resolveVendor: func(ctx context.Context, actorID, id uuid.UUID) (commissions.Resolution, error) {
			return commissions.Resolution{Percentage: &pct, Source: commissions.SourceDefault}, nil
		},
		resolveOffer: func(ctx context.Context, actorID, id uuid.UUID, sub *uuid.UUID) (commissions.Resolution, error) {
			gotSub = sub
			return commissions.Resolution{Source: commissions.SourceUndetermined}, nil
		},
		activePeriod: func(ctx context.Context, actorID uuid.UUID, at time.Time) (commissions.Resolution, error) {
			gotAt = at
			return commissions.Resolution{Source: commissions.SourceUndetermined}, nil
		},
	}

	req := newActorRequest(http.MethodGet, "/", "", uuid.New(), map[string]string{"vendorID": vendorID.String()})
	rec := httptest.NewRecorder()
	CommissionResolveVendor(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve vendor: expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data commissions.Resolution `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Source != commissions.SourceDefault || envelope.Data.Percentage == nil || !envelope.Data.Percentage.Equal(pct) {
		t.Fatalf("unexpected resolution %+v", envelope.Data)
	}

	req = newActorRequest(http.MethodGet, "/?subcategory_id="+subID.String(), "", uuid.New(), map[string]string{"categoryID": categoryID.String()})
	rec = httptest.NewRecorder()
	CommissionResolveCategory(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || gotSub == nil || *gotSub != subID {
		t.Fatalf("resolve category: status %d sub %v", rec.Code, gotSub)
	}

	req = newActorRequest(http.MethodGet, "/?at=2026-03-01T12:00:00Z", "", uuid.New(), nil)
	rec = httptest.NewRecorder()
	CommissionActivePeriod(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !gotAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("active period: status %d at %v", rec.Code, gotAt)
	}
}

func TestCommissionHandlersWithoutService(t *testing.T) {
	req := newActorRequest(http.MethodGet, "/", "", uuid.New(), nil)
	rec := httptest.NewRecorder()
	CommissionSummary(nil, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}
