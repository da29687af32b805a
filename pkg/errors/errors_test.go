package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/paichan/paichan/pkg/model"
)

func TestAppErrorCodes(t *testing.T) {
	err := New(CodeCapacityExceeded, "产能不足")
	if !Is(err, CodeCapacityExceeded) {
		t.Error("Is should match the error code")
	}
	if Is(err, CodeInvalidInput) {
		t.Error("Is should not match a different code")
	}
	if GetCode(err) != CodeCapacityExceeded {
		t.Errorf("GetCode = %s, want CAPACITY_EXCEEDED", GetCode(err))
	}
}

func TestAppErrorWrapUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, CodeDatabaseError, "查询失败")

	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
	if GetCode(err) != CodeDatabaseError {
		t.Errorf("GetCode = %s, want DATABASE_ERROR", GetCode(err))
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeInsufficientData, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeCapacityExceeded, http.StatusUnprocessableEntity},
		{CodeSchedulingInfeasible, http.StatusUnprocessableEntity},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, c := range cases {
		if got := New(c.code, "x").HTTPStatus; got != c.status {
			t.Errorf("HTTPStatus(%s) = %d, want %d", c.code, got, c.status)
		}
	}
}

func TestCapacityExceededFields(t *testing.T) {
	err := CapacityExceeded(model.WeekdayMon, 200, 120)

	if err.Fields["shortfall_hours"] != 80.0 {
		t.Errorf("Expected shortfall 80, got %v", err.Fields["shortfall_hours"])
	}
	if err.Fields["deadline"] != "Mon" {
		t.Errorf("Expected deadline Mon, got %v", err.Fields["deadline"])
	}
	if err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", err.HTTPStatus)
	}
}

func TestSchedulingInfeasibleFields(t *testing.T) {
	err := SchedulingInfeasible("alpha", 12.5, model.WeekdayWed)

	if err.Fields["product"] != "alpha" {
		t.Errorf("Expected product alpha, got %v", err.Fields["product"])
	}
	if err.Fields["unplaced_hours"] != 12.5 {
		t.Errorf("Expected unplaced 12.5, got %v", err.Fields["unplaced_hours"])
	}
}
