package service

import (
	"strings"
	"time"

	"backoffice/config"

	"github.com/shopspring/decimal"
)

const (
	missingText      = "-"
	missingProcessor = "N/A"
	// en-US short date and time, e.g. 3/14/2024, 9:05:00 AM
	displayTimeLayout = "1/2/2006, 3:04:05 PM"
)

// Formatter renders raw column values as the strings shown in tables.
type Formatter struct {
	loc      *time.Location
	currency string
}

func NewFormatter(cfg config.DisplayConfig) Formatter {
	currency := cfg.CurrencySymbol
	if currency == "" {
		currency = "$"
	}
	return Formatter{loc: cfg.Location(), currency: currency}
}

func (f Formatter) Money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + f.currency + d.Abs().StringFixed(2)
	}
	return f.currency + d.StringFixed(2)
}

func (f Formatter) Text(s string) string {
	if strings.TrimSpace(s) == "" {
		return missingText
	}
	return s
}

func (f Formatter) Processor(agentID *string) string {
	if agentID == nil || *agentID == "" {
		return missingProcessor
	}
	return *agentID
}

func (f Formatter) Time(t time.Time) string {
	if t.IsZero() {
		return missingText
	}
	return t.In(f.loc).Format(displayTimeLayout)
}

func (f Formatter) TimePtr(t *time.Time) string {
	if t == nil {
		return missingText
	}
	return f.Time(*t)
}
