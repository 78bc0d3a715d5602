package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindTable
	KindBed
	KindCloset
	KindChair
	KindSofa
)

func (k Kind) String() string {
	switch k {
	case KindTable:
		return "Table"
	case KindBed:
		return "Bed"
	case KindCloset:
		return "Closet"
	case KindChair:
		return "Chair"
	case KindSofa:
		return "Sofa"
	default:
		return "Unknown"
	}
}

// ParseKind matches a category name case-insensitively.
func ParseKind(s string) (Kind, bool) {
	for _, k := range []Kind{KindTable, KindBed, KindCloset, KindChair, KindSofa} {
		if strings.EqualFold(k.String(), s) {
			return k, true
		}
	}
	return KindUnknown, false
}

// Details is the variant-specific payload of a StoreItem. The set of
// implementations is closed to this package.
type Details interface {
	kind() Kind
}

type Table struct{}

type Bed struct {
	PillowCount int
}

type Closet struct {
	WithMirror bool
}

type Chair struct {
	Material string
}

type Sofa struct {
	SeatingCapacity int
}

func (Table) kind() Kind  { return KindTable }
func (Bed) kind() Kind    { return KindBed }
func (Closet) kind() Kind { return KindCloset }
func (Chair) kind() Kind  { return KindChair }
func (Sofa) kind() Kind   { return KindSofa }

// StoreItem is a catalog entry. It is a value and is never mutated after
// construction; quantities live in the inventory.
type StoreItem struct {
	ID          int
	Title       string
	Price       decimal.Decimal
	Height      int
	Width       int
	Weight      decimal.Decimal
	Description string
	Details     Details
}

func (i StoreItem) Kind() Kind {
	if i.Details == nil {
		return KindUnknown
	}
	return i.Details.kind()
}

func (i StoreItem) Category() string {
	return i.Kind().String()
}

// DiscountedPrice returns price * (1 - fraction).
func (i StoreItem) DiscountedPrice(fraction decimal.Decimal) decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(1).Sub(fraction))
}

func (i StoreItem) Describe() string {
	var extra string
	switch d := i.Details.(type) {
	case Table:
		extra = fmt.Sprintf("%dx%d table", i.Width, i.Height)
	case Bed:
		extra = fmt.Sprintf("bed with %d pillows", d.PillowCount)
	case Closet:
		if d.WithMirror {
			extra = "closet with mirror"
		} else {
			extra = "closet without mirror"
		}
	case Chair:
		extra = fmt.Sprintf("%s chair", strings.ToLower(d.Material))
	case Sofa:
		extra = fmt.Sprintf("sofa, seats %d", d.SeatingCapacity)
	default:
		return i.Description
	}
	if i.Description == "" {
		return extra
	}
	return fmt.Sprintf("%s (%s)", i.Description, extra)
}

func (i StoreItem) Validate() error {
	switch {
	case i.ID <= 0:
		return errors.New("item id must be positive")
	case strings.TrimSpace(i.Title) == "":
		return errors.New("item title is required")
	case i.Price.IsNegative():
		return errors.New("item price must not be negative")
	case i.Details == nil:
		return errors.New("item details are required")
	}
	return nil
}
