// Package timeunit implements the calendar-aware lock-delay arithmetic.
//
// The unit set is closed: minutes, hours, days, weeks, months. LockTime
// must handle every enumerated unit and must reject anything else with
// ErrUnsupportedUnit; callers rely on that totality rather than on a
// silent default.
package timeunit

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Unit is one of the enumerated lock-delay units.
type Unit string

const (
	Minutes Unit = "minutes"
	Hours   Unit = "hours"
	Days    Unit = "days"
	Weeks   Unit = "weeks"
	Months  Unit = "months"
)

// ErrUnsupportedUnit is returned when a unit outside the closed
// enumeration reaches LockTime or ParseUnit.
var ErrUnsupportedUnit = errors.New("unsupported time unit")

// Units returns the closed enumeration in display order.
func Units() []Unit {
	return []Unit{Minutes, Hours, Days, Weeks, Months}
}

// ParseUnit maps a config string onto the enumeration.
func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	switch u {
	case Minutes, Hours, Days, Weeks, Months:
		return u, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedUnit, s)
	}
}

// LockTime adds amount units to base. A negative amount subtracts, which
// is how the due-post cutoff is computed. Days, weeks and months use
// calendar arithmetic (time.AddDate), not fixed-length blocks, so adding
// a month in January lands on the same day-of-month in February.
func LockTime(base time.Time, amount int, unit Unit) (time.Time, error) {
	switch unit {
	case Minutes:
		return base.Add(time.Duration(amount) * time.Minute), nil
	case Hours:
		return base.Add(time.Duration(amount) * time.Hour), nil
	case Days:
		return base.AddDate(0, 0, amount), nil
	case Weeks:
		return base.AddDate(0, 0, 7*amount), nil
	case Months:
		return base.AddDate(0, amount, 0), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnsupportedUnit, unit)
	}
}
