package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindMatching(t *testing.T) {
	err := fmt.Errorf("fetch post: %w", NotFound("post not found"))

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected wrapped error to match ErrNotFound")
	}
	if errors.Is(err, ErrConflict) {
		t.Fatalf("not found must not match conflict")
	}
	if KindOf(err) != KindNotFound {
		t.Fatalf("KindOf = %q", KindOf(err))
	}
}

func TestUntypedErrorIsUpstream(t *testing.T) {
	err := errors.New("connection reset")
	if KindOf(err) != KindUpstream {
		t.Fatalf("KindOf = %q, want upstream", KindOf(err))
	}
	if HTTPStatus(err) != http.StatusInternalServerError {
		t.Fatalf("HTTPStatus = %d", HTTPStatus(err))
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Denied("x", true), http.StatusForbidden},
		{Conflict("x"), http.StatusConflict},
		{Invalid("x"), http.StatusBadRequest},
		{Upstream("x", errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestUpgradePrompt(t *testing.T) {
	if !UpgradePrompt(Denied("premium only", true)) {
		t.Fatal("expected upgrade prompt")
	}
	if UpgradePrompt(Denied("not yours", false)) {
		t.Fatal("identity denial must not prompt an upgrade")
	}
	if UpgradePrompt(errors.New("x")) {
		t.Fatal("untyped errors never prompt")
	}
}

func TestUpstreamUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Upstream("fetch profile", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable")
	}
	if err.Error() != "fetch profile: dial tcp: refused" {
		t.Fatalf("Error() = %q", err.Error())
	}
}
