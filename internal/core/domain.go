package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	Failure Outcome = 0
	Success Outcome = 1
)

type (
	// Outcome is the binary launch result stored in the "class" column.
	Outcome int

	// LaunchRecord is one row of the launch dataset.
	LaunchRecord struct {
		Site          string  `json:"site"`
		PayloadMassKg float64 `json:"payloadMassKg"`
		Outcome       Outcome `json:"class"`
	}

	// PayloadRange is an inclusive payload mass interval in kilograms.
	PayloadRange struct {
		Low  float64 `json:"low"`
		High float64 `json:"high"`
	}
)

var (
	ErrInvalidOutcome = errors.New("invalid outcome class")
	ErrEmptySite      = errors.New("empty launch site")
	ErrInvalidPayload = errors.New("invalid payload mass")
	ErrInvalidRange   = errors.New("invalid payload range")
)

// ParseOutcome accepts the textual forms found in exported datasets ("1", "0", "1.0").
func ParseOutcome(s string) (Outcome, error) {
	switch strings.TrimSpace(s) {
	case "1", "1.0":
		return Success, nil
	case "0", "0.0":
		return Failure, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidOutcome, s)
}

func (o Outcome) Valid() bool {
	return o == Failure || o == Success
}

func (o Outcome) String() string {
	if o == Success {
		return "1"
	}
	return "0"
}

func (r LaunchRecord) Validate() error {
	if strings.TrimSpace(r.Site) == "" {
		return ErrEmptySite
	}
	if r.PayloadMassKg < 0 || math.IsNaN(r.PayloadMassKg) || math.IsInf(r.PayloadMassKg, 0) {
		return ErrInvalidPayload
	}
	if !r.Outcome.Valid() {
		return ErrInvalidOutcome
	}
	return nil
}

// Validate checks 0 <= Low <= High <= max. A non-positive max disables the upper check.
func (p PayloadRange) Validate(max float64) error {
	if p.Low < 0 || p.High < p.Low {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidRange, p.Low, p.High)
	}
	if max > 0 && p.High > max {
		return fmt.Errorf("%w: high %g exceeds %g", ErrInvalidRange, p.High, max)
	}
	return nil
}

// Contains reports whether mass lies inside the range, bounds included.
func (p PayloadRange) Contains(mass float64) bool {
	return mass >= p.Low && mass <= p.High
}
