package workflow

import (
	"errors"
	"fmt"

	"backoffice/internal/domain"
)

var (
	ErrUnknownTransition = errors.New("unknown transition")
	ErrIllegalTransition = errors.New("illegal transition")
)

// Transition names.
const (
	AssignCompanyTag    = "assign_company_tag"
	AssignRedeem        = "assign_redeem"
	Submit              = "submit"
	Verify              = "verify"
	Complete            = "complete"
	ApproveSupport      = "approve_support"
	ApproveOperation    = "approve_operation"
	ApproveVerification = "approve_verification"
	ApproveFinance      = "approve_finance"
	RecordPayment       = "record_payment"
)

// Transition moves a request from any of From to To. Section is the area an
// agent must be able to open to perform it.
type Transition struct {
	Name    string         `json:"name"`
	From    []StatusCode   `json:"from"`
	To      StatusCode     `json:"to"`
	Section domain.Section `json:"section"`
}

func (t Transition) allows(from StatusCode) bool {
	for _, f := range t.From {
		if f == from {
			return true
		}
	}
	return false
}

// Machine is the lifecycle of one request type.
type Machine struct {
	Type        domain.RequestType
	statuses    []Status
	transitions []Transition
	byCode      map[StatusCode]Status
}

func newMachine(rt domain.RequestType, statuses []Status, transitions []Transition) *Machine {
	m := &Machine{Type: rt, statuses: statuses, transitions: transitions, byCode: make(map[StatusCode]Status)}
	for _, s := range statuses {
		m.byCode[s.Code] = s
	}
	return m
}

var machines = map[domain.RequestType]*Machine{
	domain.RequestRecharge: newMachine(domain.RequestRecharge, rechargeStatuses, []Transition{
		{AssignCompanyTag, []StatusCode{RechargePending}, RechargeSupport, domain.SectionSupport},
		{AssignRedeem, []StatusCode{RechargePending}, RechargeSupport, domain.SectionSupport},
		{Submit, []StatusCode{RechargeSupport}, RechargeVerification, domain.SectionSupport},
		{Verify, []StatusCode{RechargeVerification}, RechargeFinance, domain.SectionVerification},
		{Complete, []StatusCode{RechargeFinance}, RechargeCompleted, domain.SectionFinance},
	}),
	domain.RequestRedeem: newMachine(domain.RequestRedeem, redeemStatuses, []Transition{
		{ApproveSupport, []StatusCode{RedeemPending}, RedeemOperation, domain.SectionSupport},
		{ApproveOperation, []StatusCode{RedeemOperation}, RedeemVerification, domain.SectionOperation},
		{ApproveVerification, []StatusCode{RedeemVerification}, RedeemFinance, domain.SectionVerification},
		{ApproveFinance, []StatusCode{RedeemFinance}, RedeemLive, domain.SectionFinance},
		{RecordPayment, []StatusCode{RedeemLive, RedeemPartiallyPaid}, RedeemPartiallyPaid, domain.SectionFinance},
		{Complete, []StatusCode{RedeemLive, RedeemPartiallyPaid}, RedeemCompleted, domain.SectionFinance},
	}),
	domain.RequestTransfer:      newMachine(domain.RequestTransfer, simpleStatuses, simpleTransitions()),
	domain.RequestResetPassword: newMachine(domain.RequestResetPassword, simpleStatuses, simpleTransitions()),
	domain.RequestNewAccount:    newMachine(domain.RequestNewAccount, simpleStatuses, simpleTransitions()),
}

func simpleTransitions() []Transition {
	return []Transition{{Complete, []StatusCode{SimplePending}, SimpleCompleted, domain.SectionSupport}}
}

// For returns the machine of rt, or nil for an unknown type.
func For(rt domain.RequestType) *Machine {
	return machines[rt]
}

// Initial is the code a newly created request starts in.
func (m *Machine) Initial() StatusCode {
	return m.statuses[0].Code
}

func (m *Machine) Statuses() []Status {
	return append([]Status(nil), m.statuses...)
}

func (m *Machine) Transitions() []Transition {
	return append([]Transition(nil), m.transitions...)
}

// Buckets returns the buckets used by the type, in lifecycle order.
func (m *Machine) Buckets() []domain.Bucket {
	var out []domain.Bucket
	seen := make(map[domain.Bucket]bool)
	for _, s := range m.statuses {
		if !seen[s.Bucket] {
			seen[s.Bucket] = true
			out = append(out, s.Bucket)
		}
	}
	return out
}

// Bucket returns the codes in bucket b; empty when the type has no such bucket.
func (m *Machine) Bucket(b domain.Bucket) []StatusCode {
	var out []StatusCode
	for _, s := range m.statuses {
		if s.Bucket == b {
			out = append(out, s.Code)
		}
	}
	return out
}

// BucketOf returns the bucket a code belongs to.
func (m *Machine) BucketOf(code StatusCode) (domain.Bucket, bool) {
	s, ok := m.byCode[code]
	return s.Bucket, ok
}

// Label returns the human label of code, or the code itself if unknown.
func (m *Machine) Label(code StatusCode) string {
	if s, ok := m.byCode[code]; ok {
		return s.Label
	}
	return string(code)
}

func (m *Machine) Transition(name string) (Transition, bool) {
	for _, t := range m.transitions {
		if t.Name == name {
			return t, true
		}
	}
	return Transition{}, false
}

// Apply validates moving a request currently in current through the named
// transition and returns it.
func (m *Machine) Apply(current StatusCode, name string) (Transition, error) {
	t, ok := m.Transition(name)
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s has no %q", ErrUnknownTransition, m.Type, name)
	}
	if !t.allows(current) {
		return Transition{}, fmt.Errorf("%w: %s %q from status %s", ErrIllegalTransition, m.Type, name, current)
	}
	return t, nil
}

// Available lists the transitions that may be applied from current.
func (m *Machine) Available(current StatusCode) []Transition {
	var out []Transition
	for _, t := range m.transitions {
		if t.allows(current) {
			out = append(out, t)
		}
	}
	return out
}
