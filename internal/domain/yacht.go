package domain

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindYacht     Kind = "yacht"
	KindBrokerage Kind = "brokerage"
)

var Kinds = []Kind{KindYacht, KindBrokerage}

func (k Kind) Valid() bool { return k == KindYacht || k == KindBrokerage }

// Collection is the Mongo collection / table partition for the kind.
func (k Kind) Collection() string {
	if k == KindBrokerage {
		return "brokerage"
	}
	return "yachts"
}

func (k Kind) HasCabin() bool { return k == KindYacht }

// Record is the persisted yacht document. Brokerage records share the shape
// without Cabin.
type Record struct {
	ID       string              `json:"_id,omitempty" bson:"_id,omitempty"`
	Name     Localized[string]   `json:"name,omitzero" bson:"name,omitempty"`
	Type     Localized[string]   `json:"type,omitzero" bson:"type,omitempty"`
	Length   float64             `json:"length" bson:"length"`
	People   int                 `json:"people" bson:"people"`
	Cabin    *int                `json:"cabin,omitempty" bson:"cabin,omitempty"`
	Location Localized[string]   `json:"location,omitzero" bson:"location,omitempty"`
	Features Localized[[]string] `json:"features,omitzero" bson:"features,omitempty"`
	Images   int                 `json:"images" bson:"images"`
}

// ForKind drops fields the kind does not carry.
func (r Record) ForKind(k Kind) Record {
	if !k.HasCabin() {
		r.Cabin = nil
	}
	return r
}

// Validate checks required fields and shapes for writes.
func (r Record) Validate(k Kind) error {
	if !k.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrValidation, k)
	}
	var problems []string
	text := func(field string, v Localized[string], pairOnly bool) {
		switch v.Shape {
		case ShapeAbsent:
			problems = append(problems, field+" is required")
		case ShapeScalar:
			if pairOnly {
				problems = append(problems, field+" must be an object with tr and en")
			} else if strings.TrimSpace(v.Value) == "" {
				problems = append(problems, field+" is required")
			}
		case ShapePair:
			if v.TR == nil || strings.TrimSpace(*v.TR) == "" {
				problems = append(problems, field+".tr is required")
			}
			if v.EN == nil || strings.TrimSpace(*v.EN) == "" {
				problems = append(problems, field+".en is required")
			}
		}
	}

	brokerage := k == KindBrokerage
	text("name", r.Name, brokerage)
	text("type", r.Type, brokerage)
	text("location", r.Location, false)

	if r.Length <= 0 {
		problems = append(problems, "length must be positive")
	}
	if r.People <= 0 {
		problems = append(problems, "people must be positive")
	}
	if k.HasCabin() && (r.Cabin == nil || *r.Cabin < 0) {
		problems = append(problems, "cabin must be a non-negative integer")
	}
	if r.Images < 0 {
		problems = append(problems, "images must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

// FlatRecord is the single-language listing view. Field order is part of the
// output contract; Description keeps its slot but is never filled.
type FlatRecord struct {
	Name        *string  `json:"name,omitempty"`
	Type        *string  `json:"type,omitempty"`
	Description *string  `json:"description,omitempty"`
	Length      float64  `json:"length"`
	People      int      `json:"people"`
	Cabin       *int     `json:"cabin,omitempty"`
	Location    *string  `json:"location,omitempty"`
	Features    []string `json:"features,omitzero"`
	Images      int      `json:"images"`
}
