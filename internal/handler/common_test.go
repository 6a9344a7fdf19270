package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/fitforxe/gym-backend/internal/gateway"
	"github.com/fitforxe/gym-backend/internal/model"
	"github.com/fitforxe/gym-backend/internal/repository"
	"github.com/fitforxe/gym-backend/internal/service"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"service not found", service.ErrNotFound, http.StatusNotFound},
		{"repository not found", fmt.Errorf("get: %w", repository.ErrNotFound), http.StatusNotFound},
		{"conflict", service.ErrConflict, http.StatusConflict},
		{"email exists", repository.ErrEmailExists, http.StatusConflict},
		{"open checkout", repository.ErrOpenCheckout, http.StatusConflict},
		{"unauthorized", service.ErrUnauthorized, http.StatusUnauthorized},
		{"reset token", service.ErrInvalidOrExpiredToken, http.StatusBadRequest},
		{"signature", service.ErrSignatureInvalid, http.StatusBadRequest},
		{"gateway not configured", fmt.Errorf("%w: create: %w", service.ErrGateway, gateway.ErrNotConfigured), http.StatusServiceUnavailable},
		{"gateway", fmt.Errorf("%w: boom", service.ErrGateway), http.StatusBadGateway},
		{"field", &model.FieldError{Field: "status", Reason: "bad"}, http.StatusUnprocessableEntity},
		{"validation", fmt.Errorf("%w: x", service.ErrValidation), http.StatusUnprocessableEntity},
		{"timeout", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			if err := respondError(c, tt.err); err != nil {
				t.Fatal(err)
			}
			wantStatus(t, rec, tt.want)
			var body map[string]string
			decode(t, rec, &body)
			if body["error"] == "" {
				t.Fatalf("missing error message: %s", rec.Body.String())
			}
		})
	}
}

func TestPaging(t *testing.T) {
	tests := []struct {
		query     string
		skip, lim int
		wantErr   bool
	}{
		{"", 0, 100, false},
		{"?skip=20&limit=10", 20, 10, false},
		{"?limit=10000", 0, 500, false},
		{"?skip=-1", 0, 0, true},
		{"?limit=0", 0, 0, true},
		{"?limit=abc", 0, 0, true},
	}
	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil), httptest.NewRecorder())
			skip, limit, err := paging(c)
			if tt.wantErr {
				if !errors.Is(err, service.ErrValidation) {
					t.Fatalf("err = %v, want validation error", err)
				}
				return
			}
			if err != nil || skip != tt.skip || limit != tt.lim {
				t.Fatalf("paging = %d, %d, %v; want %d, %d", skip, limit, err, tt.skip, tt.lim)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2025-03-01")
	if err != nil || d.Day() != 1 || d.Location().String() != "UTC" {
		t.Fatalf("parseDate = %v, %v", d, err)
	}
	if _, err := parseDate("01/03/2025"); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}
