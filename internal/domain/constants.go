package domain

import "strings"

// Role is an agent role carried in the session's user metadata.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleOperation    Role = "operation"
	RoleSupport      Role = "support"
	RoleFinance      Role = "finance"
	RoleVerification Role = "verification"
	RoleExecutive    Role = "executive"
)

// Roles lists every role in a fixed order.
var Roles = []Role{RoleAdmin, RoleOperation, RoleSupport, RoleFinance, RoleVerification, RoleExecutive}

// Section is a gated area of the back office.
type Section string

const (
	SectionSupport      Section = "support"
	SectionVerification Section = "verification"
	SectionOperation    Section = "operation"
	SectionFinance      Section = "finance"
)

var Sections = []Section{SectionSupport, SectionVerification, SectionOperation, SectionFinance}

// ParseSection returns the section for a URL segment such as /home/:department.
func ParseSection(s string) (Section, bool) {
	for _, sec := range Sections {
		if string(sec) == strings.ToLower(s) {
			return sec, true
		}
	}
	return "", false
}

// RequestType identifies one of the user activity tabs.
type RequestType string

const (
	RequestRecharge      RequestType = "recharge"
	RequestRedeem        RequestType = "redeem"
	RequestTransfer      RequestType = "transfer"
	RequestResetPassword RequestType = "resetpassword"
	RequestNewAccount    RequestType = "newaccount"
)

var RequestTypes = []RequestType{RequestRecharge, RequestRedeem, RequestTransfer, RequestResetPassword, RequestNewAccount}

// ParseRequestType maps a tab segment to its request type. Unknown segments
// report ok=false; callers dispatching tabs fall back to recharge.
func ParseRequestType(s string) (RequestType, bool) {
	for _, rt := range RequestTypes {
		if string(rt) == strings.ToLower(s) {
			return rt, true
		}
	}
	return RequestRecharge, false
}

// Bucket is the UI grouping a set of status codes is shown under.
type Bucket string

const (
	BucketPending   Bucket = "pending"
	BucketLive      Bucket = "live"
	BucketCompleted Bucket = "completed"
)

// Recharge targets.
const (
	TargetCompany = "company"
	TargetRedeem  = "redeem"
)

// Chat senders.
const (
	SenderAgent  = "agent"
	SenderPlayer = "player"
)
