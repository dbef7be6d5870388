package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Series names an independent counter within a tenant.
type Series string

const (
	SeriesOrder    Series = "order"
	SeriesCustomer Series = "customer"
)

const (
	orderPrefix    = "INV"
	customerPrefix = "CUST"

	tenantSuffixLen = 4
)

// ParseSeries validates a series name. Series are lowercase identifiers so that new
// counters can be introduced without schema changes.
func ParseSeries(name string) (Series, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: "series", Reason: "must not be empty"}
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return "", &ValidationError{Field: "series", Reason: fmt.Sprintf("%q contains invalid characters", name)}
		}
	}
	return Series(name), nil
}

// Prefix returns the code prefix used when formatting values of this series.
func (s Series) Prefix() string {
	switch s {
	case SeriesOrder:
		return orderPrefix
	case SeriesCustomer:
		return customerPrefix
	default:
		return strings.ToUpper(string(s))
	}
}

// TenantSuffix returns the last four characters of the tenant id, or the whole id when shorter.
func TenantSuffix(tenantID string) string {
	runes := []rune(tenantID)
	if len(runes) <= tenantSuffixLen {
		return tenantID
	}
	return string(runes[len(runes)-tenantSuffixLen:])
}

// FormatCode renders a sequence value as "<PREFIX>-<seq padded to 4>-<tenant suffix>",
// e.g. INV-0007-ab12.
func FormatCode(prefix string, seq int64, tenantID string) string {
	return fmt.Sprintf("%s-%04d-%s", prefix, seq, TenantSuffix(tenantID))
}

// ParseSequence extracts the numeric part of a code produced by FormatCode.
func ParseSequence(code string) (int64, error) {
	parts := strings.SplitN(code, "-", 3)
	if len(parts) != 3 || parts[0] == "" {
		return 0, &ValidationError{Field: "code", Reason: fmt.Sprintf("%q is not a sequence code", code)}
	}
	seq, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || seq < 1 {
		return 0, &ValidationError{Field: "code", Reason: fmt.Sprintf("%q has no valid sequence number", code)}
	}
	return seq, nil
}
