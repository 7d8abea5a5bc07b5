// Package workflow defines, per request type, the process status codes, the
// UI bucket each code belongs to, and the named transitions between them.
package workflow

import (
	"backoffice/internal/domain"
)

// StatusCode is the value stored in a request's process_status column.
type StatusCode string

const (
	RechargePending      StatusCode = "0"
	RechargeSupport      StatusCode = "1"
	RechargeVerification StatusCode = "2"
	RechargeFinance      StatusCode = "3"
	RechargeCompleted    StatusCode = "4"
)

const (
	RedeemPending       StatusCode = "1"
	RedeemOperation     StatusCode = "2"
	RedeemVerification  StatusCode = "3"
	RedeemFinance       StatusCode = "4"
	RedeemLive          StatusCode = "5"
	RedeemPartiallyPaid StatusCode = "6"
	RedeemCompleted     StatusCode = "7"
)

// Transfer, reset-password and new-account requests share a two-stage lifecycle.
const (
	SimplePending   StatusCode = "0"
	SimpleCompleted StatusCode = "1"
)

// Status describes one code of a request type.
type Status struct {
	Code   StatusCode    `json:"code"`
	Label  string        `json:"label"`
	Bucket domain.Bucket `json:"bucket"`
}

var rechargeStatuses = []Status{
	{RechargePending, "Pending", domain.BucketPending},
	{RechargeSupport, "Support", domain.BucketPending},
	{RechargeVerification, "Verification", domain.BucketLive},
	{RechargeFinance, "Finance", domain.BucketLive},
	{RechargeCompleted, "Completed", domain.BucketCompleted},
}

var redeemStatuses = []Status{
	{RedeemPending, "Pending", domain.BucketPending},
	{RedeemOperation, "Operation", domain.BucketPending},
	{RedeemVerification, "Verification", domain.BucketPending},
	{RedeemFinance, "Finance", domain.BucketPending},
	{RedeemLive, "Live", domain.BucketLive},
	{RedeemPartiallyPaid, "Partially Paid", domain.BucketLive},
	{RedeemCompleted, "Completed", domain.BucketCompleted},
}

var simpleStatuses = []Status{
	{SimplePending, "Pending", domain.BucketPending},
	{SimpleCompleted, "Completed", domain.BucketCompleted},
}

// Strings converts codes to plain strings for query parameters.
func Strings(codes []StatusCode) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	return out
}

// BucketForPath returns the status codes shown under the URL status segment of
// a request type. Unknown segments, and "live" on a type without a live stage,
// fall back to the pending bucket.
func BucketForPath(rt domain.RequestType, segment string) []StatusCode {
	m := For(rt)
	if m == nil {
		return nil
	}
	if codes := m.Bucket(domain.Bucket(segment)); len(codes) > 0 {
		return codes
	}
	return m.Bucket(domain.BucketPending)
}

// ResolveBucket is BucketForPath's bucket name: the segment when it names a
// bucket of rt, otherwise pending.
func ResolveBucket(rt domain.RequestType, segment string) domain.Bucket {
	m := For(rt)
	if m != nil && len(m.Bucket(domain.Bucket(segment))) > 0 {
		return domain.Bucket(segment)
	}
	return domain.BucketPending
}
