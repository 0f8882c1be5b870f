// Package errors provides structured error handling for Wholesail services.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Member errors
	CodeMemberUsernameEmpty     Code = "MEMBER_USERNAME_EMPTY"
	CodeMemberUsernameInvalid   Code = "MEMBER_USERNAME_INVALID"
	CodeMemberEmailEmpty        Code = "MEMBER_EMAIL_EMPTY"
	CodeMemberEmailInvalid      Code = "MEMBER_EMAIL_INVALID"
	CodeMemberTierInvalid       Code = "MEMBER_TIER_INVALID"
	CodeMemberIDRequired        Code = "MEMBER_ID_REQUIRED"
	CodeMemberRejectReasonEmpty Code = "MEMBER_REJECT_REASON_EMPTY"
	CodeMemberStatusInvalid     Code = "MEMBER_STATUS_INVALID"
	CodeMemberIntegrity         Code = "MEMBER_INTEGRITY_VIOLATION"

	// Authorization errors
	CodeAuthzNotAdmin       Code = "AUTHZ_NOT_ADMIN"
	CodeAuthzSessionInvalid Code = "AUTHZ_SESSION_INVALID"

	// Identity errors
	CodeIdentityEmailTaken         Code = "IDENTITY_EMAIL_TAKEN"
	CodeIdentityCredentialsInvalid Code = "IDENTITY_CREDENTIALS_INVALID"
	CodeIdentityPasswordTooShort   Code = "IDENTITY_PASSWORD_TOO_SHORT"

	// Catalog errors
	CodeProductNameEmpty    Code = "PRODUCT_NAME_EMPTY"
	CodeProductPriceInvalid Code = "PRODUCT_PRICE_INVALID"
	CodeViewerTierUnset     Code = "VIEWER_TIER_UNSET"

	// Notification errors
	CodeNoticeRecipientEmpty Code = "NOTICE_RECIPIENT_EMPTY"
	CodeNoticeTopicEmpty     Code = "NOTICE_TOPIC_EMPTY"
	CodeNoticeDelivery       Code = "NOTICE_DELIVERY_FAILED"

	// Storage/external errors
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeExternalService Code = "EXTERNAL_SERVICE"
)

// Kind groups codes into the coarse failure classes callers branch on.
type Kind string

const (
	// KindValidation marks caller input rejected before any mutation.
	KindValidation Kind = "VALIDATION"
	// KindAuthorization marks callers lacking administrative rights.
	KindAuthorization Kind = "AUTHORIZATION"
	// KindNotFound marks lookups with no matching record.
	KindNotFound Kind = "NOT_FOUND"
	// KindExternalService marks store or delivery channel failures.
	KindExternalService Kind = "EXTERNAL_SERVICE"
	// KindIntegrity marks stored state that violates domain invariants.
	KindIntegrity Kind = "DATA_INTEGRITY"
	// KindUnknown marks unclassified failures.
	KindUnknown Kind = "UNKNOWN"
)

// Kind classifies the code into its failure class.
func (c Code) Kind() Kind {
	switch c {
	case CodeMemberUsernameEmpty,
		CodeMemberUsernameInvalid,
		CodeMemberEmailEmpty,
		CodeMemberEmailInvalid,
		CodeMemberTierInvalid,
		CodeMemberIDRequired,
		CodeMemberRejectReasonEmpty,
		CodeMemberStatusInvalid,
		CodeProductNameEmpty,
		CodeProductPriceInvalid,
		CodeNoticeRecipientEmpty,
		CodeNoticeTopicEmpty,
		CodeIdentityPasswordTooShort,
		CodeConflict,
		CodeIdentityEmailTaken:
		return KindValidation
	case CodeAuthzNotAdmin, CodeAuthzSessionInvalid, CodeIdentityCredentialsInvalid:
		return KindAuthorization
	case CodeNotFound:
		return KindNotFound
	case CodeExternalService, CodeNoticeDelivery:
		return KindExternalService
	case CodeMemberIntegrity, CodeViewerTierUnset:
		return KindIntegrity
	default:
		return KindUnknown
	}
}

// HTTPStatus maps domain codes to HTTP response statuses.
func (c Code) HTTPStatus() int {
	switch c.Kind() {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindExternalService:
		return http.StatusBadGateway
	case KindIntegrity:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
