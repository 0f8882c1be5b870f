package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	t.Parallel()

	sentinel := New(CodeNotFound, "no such member")
	wrapped := fmt.Errorf("load member: %w", Wrap(CodeNotFound, "row missing", errors.New("sql: no rows")))

	if !errors.Is(wrapped, sentinel) {
		t.Fatalf("errors with the same code must match")
	}
	if errors.Is(wrapped, New(CodeConflict, "conflict")) {
		t.Fatalf("errors with different codes must not match")
	}
}

func TestErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := Wrap(CodeExternalService, "put member", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("wrapped cause must stay reachable")
	}

	var domainErr *Error
	if !errors.As(fmt.Errorf("outer: %w", err), &domainErr) {
		t.Fatalf("domain error must survive further wrapping")
	}
	if domainErr.Code != CodeExternalService {
		t.Fatalf("code = %q, want %q", domainErr.Code, CodeExternalService)
	}
}

func TestWithMetadata(t *testing.T) {
	t.Parallel()

	err := WithMetadata(CodeMemberIntegrity, "approved member without decision timestamp", map[string]string{
		"member_id": "member-1",
	})
	if err.Metadata["member_id"] != "member-1" {
		t.Fatalf("metadata = %v", err.Metadata)
	}
	if err.Error() != "approved member without decision timestamp" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestCodeKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code Code
		want Kind
	}{
		{CodeMemberRejectReasonEmpty, KindValidation},
		{CodeMemberTierInvalid, KindValidation},
		{CodeIdentityEmailTaken, KindValidation},
		{CodeAuthzNotAdmin, KindAuthorization},
		{CodeIdentityCredentialsInvalid, KindAuthorization},
		{CodeNotFound, KindNotFound},
		{CodeNoticeDelivery, KindExternalService},
		{CodeViewerTierUnset, KindIntegrity},
		{CodeMemberIntegrity, KindIntegrity},
		{CodeUnknown, KindUnknown},
		{Code("SOMETHING_NEW"), KindUnknown},
	}

	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			t.Parallel()
			if got := tc.code.Kind(); got != tc.want {
				t.Fatalf("kind = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCodeHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code Code
		want int
	}{
		{CodeMemberRejectReasonEmpty, http.StatusBadRequest},
		{CodeAuthzNotAdmin, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeNoticeDelivery, http.StatusBadGateway},
		{CodeViewerTierUnset, http.StatusInternalServerError},
		{CodeUnknown, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			t.Parallel()
			if got := tc.code.HTTPStatus(); got != tc.want {
				t.Fatalf("status = %d, want %d", got, tc.want)
			}
		})
	}
}
