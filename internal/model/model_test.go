package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestSkipSet_Contains(t *testing.T) {
	s := NewSkipSet([]string{"u1", "u2"})

	if !s.Contains("u1") {
		t.Error("u1 は SkipSet に含まれるべき")
	}
	if s.Contains("u3") {
		t.Error("u3 は SkipSet に含まれてはならない")
	}
}

func TestSkipSet_NilContainsNothing(t *testing.T) {
	var s SkipSet
	if s.Contains("u1") {
		t.Error("nil の SkipSet は何も含まない")
	}
}

func TestUserPage_HasNext(t *testing.T) {
	if (UserPage{}).HasNext() {
		t.Error("NextLink が空なら HasNext は false")
	}
	if !(UserPage{NextLink: "https://api.example.com/next"}).HasNext() {
		t.Error("NextLink があれば HasNext は true")
	}
}

func TestIsUnauthorized_ThroughWrapping(t *testing.T) {
	base := &HTTPError{StatusCode: 401, Method: "DELETE", URL: "https://api.example.com/u1"}
	wrapped := fmt.Errorf("delete: %w", NewDeleteError("u1", 1, base))

	if !IsUnauthorized(wrapped) {
		t.Error("ラップされた401は IsUnauthorized で検出されるべき")
	}

	other := &HTTPError{StatusCode: 500}
	if IsUnauthorized(other) {
		t.Error("500 は IsUnauthorized ではない")
	}
	if IsUnauthorized(errors.New("network down")) {
		t.Error("HTTPError 以外は IsUnauthorized ではない")
	}
}

func TestAuthError_Unwrap(t *testing.T) {
	base := &HTTPError{StatusCode: 400}
	err := NewAuthError(base)

	var authErr *AuthError
	if !errors.As(fmt.Errorf("startup: %w", err), &authErr) {
		t.Fatal("errors.As で AuthError を取り出せるべき")
	}
	if authErr.Code != ErrCodeAuthFailed {
		t.Errorf("Code = %q, want %q", authErr.Code, ErrCodeAuthFailed)
	}
	if _, ok := AsHTTPError(err); !ok {
		t.Error("AuthError から HTTPError を取り出せるべき")
	}
}

func TestSummary_Record(t *testing.T) {
	var s Summary
	s.Record(OutcomeDeleted)
	s.Record(OutcomeDeleted)
	s.Record(OutcomeAbandoned)

	if s.Deleted != 2 || s.Abandoned != 1 {
		t.Errorf("Summary = %+v, want Deleted=2 Abandoned=1", s)
	}
}
