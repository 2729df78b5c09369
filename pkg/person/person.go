// Package person defines the genealogical record model and the repository
// contract the relationship engine reads from.
package person

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID identifies a person. The zero value means "no person" and is used for
// absent father, mother and spouse references.
type ID int64

// Valid reports whether id refers to a person.
func (id ID) Valid() bool { return id > 0 }

func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

// ParseID parses a decimal person ID.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", ErrInvalidPerson, s)
	}
	return ID(n), nil
}

// Gender is a coarse, self-reported gender marker.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

// ParseGender maps free-form input onto a Gender. Unrecognised values map to
// GenderUnknown.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return GenderMale
	case "female", "f":
		return GenderFemale
	case "other":
		return GenderOther
	default:
		return GenderUnknown
	}
}

// DateLayout is the wire format for birth dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time component.
type Date struct {
	time.Time
}

// NewDate returns the date for the given year, month and day in UTC.
func NewDate(year int, month time.Month, day int) *Date {
	return &Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDate(s string) (*Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return &Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid birth date %q", ErrInvalidPerson, s)
	}
	y, m, d := t.Date()
	return NewDate(y, m, d), nil
}

func (d Date) String() string { return d.Format(DateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	if parsed != nil {
		*d = *parsed
	}
	return nil
}

func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Date) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	if parsed != nil {
		*d = *parsed
	}
	return nil
}

// Person is a single genealogical record. Relationship fields hold the zero
// ID when the relative is unknown.
type Person struct {
	ID        ID     `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	BirthDate *Date  `json:"birthdate,omitempty" yaml:"birthdate,omitempty"`
	Gender    Gender `json:"gender,omitempty" yaml:"gender,omitempty"`
	Location  string `json:"currentlocation,omitempty" yaml:"location,omitempty"`
	FatherID  ID     `json:"fatherid,omitempty" yaml:"father,omitempty"`
	MotherID  ID     `json:"motherid,omitempty" yaml:"mother,omitempty"`
	SpouseID  ID     `json:"spouseid,omitempty" yaml:"spouse,omitempty"`
}

// DisplayName returns the name used in rendered trees.
func (p Person) DisplayName() string {
	if strings.TrimSpace(p.Name) == "" {
		return "Unknown"
	}
	return p.Name
}

// HasParents reports whether at least one parent reference is set.
func (p Person) HasParents() bool {
	return p.FatherID.Valid() || p.MotherID.Valid()
}

// SharesParentWith reports whether p and other have a common non-null parent.
func (p Person) SharesParentWith(other Person) bool {
	if p.FatherID.Valid() && p.FatherID == other.FatherID {
		return true
	}
	return p.MotherID.Valid() && p.MotherID == other.MotherID
}

// IsChildOf reports whether id is one of p's parents.
func (p Person) IsChildOf(id ID) bool {
	return id.Valid() && (p.FatherID == id || p.MotherID == id)
}

// Age returns the age in full years at now, or -1 when the birth date is unknown.
func (p Person) Age(now time.Time) int {
	if p.BirthDate == nil {
		return -1
	}
	b := p.BirthDate.Time
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	return age
}

// ByName orders people by name, then ID.
func ByName(a, b Person) int {
	if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}
