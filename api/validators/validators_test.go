package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/marketadmin-backend/pkg/errors"
)

type sampleBody struct {
	Name  string `json:"name" validate:"required,max=5"`
	Count int    `json:"count" validate:"min=1"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"too long","count":0}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(pkgerrors.FieldDetails)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	if details["name"] != "must be at most 5" || details["count"] != "must be at least 1" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ok","count":1,"extra":true}`))
	var body sampleBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestQueryParsers(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/?limit=10&is_active=false&sub="+id.String()+"&at=2026-01-05T10:00:00Z", nil)

	limit, err := ParseQueryInt(req, "limit", 25, 1, 100)
	if err != nil || limit != 10 {
		t.Fatalf("unexpected limit %d err %v", limit, err)
	}
	active, err := ParseQueryBool(req, "is_active")
	if err != nil || active == nil || *active {
		t.Fatalf("unexpected is_active %v err %v", active, err)
	}
	sub, err := ParseQueryUUID(req, "sub")
	if err != nil || sub == nil || *sub != id {
		t.Fatalf("unexpected sub %v err %v", sub, err)
	}
	at, err := ParseQueryTime(req, "at")
	if err != nil || at.Hour() != 10 {
		t.Fatalf("unexpected at %v err %v", at, err)
	}

	missing, err := ParseQueryBool(req, "absent")
	if err != nil || missing != nil {
		t.Fatalf("absent bool should be nil")
	}

	bad := httptest.NewRequest(http.MethodGet, "/?limit=500&is_active=maybe", nil)
	if _, err := ParseQueryInt(bad, "limit", 25, 1, 100); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected out of range error")
	}
	if _, err := ParseQueryBool(bad, "is_active"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected boolean error")
	}
}

func TestParseURLUUID(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("commissionID", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := ParseURLUUID(req, "commissionID")
	if err != nil || got != id {
		t.Fatalf("unexpected id %s err %v", got, err)
	}
	if _, err := ParseURLUUID(req, "vendorID"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing param")
	}
}
