package domain

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// Value types inmutables. Cada uno se construye con NewX (valida) y se lee con String()/Decimal().
// No hay conversiones implícitas hacia o desde primitivos.

type Name struct{ value string }

func NewName(raw string) (Name, error) {
	if strings.TrimSpace(raw) == "" {
		return Name{}, newValidationError("name", "must not be blank")
	}
	return Name{value: raw}, nil
}

func (n Name) String() string { return n.value }

type Category struct{ value string }

func NewCategory(raw string) (Category, error) {
	if strings.TrimSpace(raw) == "" {
		return Category{}, newValidationError("category", "must not be blank")
	}
	return Category{value: raw}, nil
}

func (c Category) String() string { return c.value }

type Status struct{ value string }

// StatusAvailable es el estado por defecto cuando el alta no indica ninguno.
const StatusAvailable = "disponible"

func NewStatus(raw string) (Status, error) {
	if strings.TrimSpace(raw) == "" {
		return Status{}, newValidationError("status", "must not be blank")
	}
	return Status{value: raw}, nil
}

func (s Status) String() string { return s.value }

// OwnerID puede ir vacío.
type OwnerID struct{ value string }

func NewOwnerID(raw string) OwnerID { return OwnerID{value: raw} }

func (o OwnerID) String() string { return o.value }

type ImageURL struct{ value string }

// NewImageURL exige una URI absoluta bien formada (esquema y host).
func NewImageURL(raw string) (ImageURL, error) {
	if strings.TrimSpace(raw) == "" {
		return ImageURL{}, newValidationError("image_url", "must not be blank")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ImageURL{}, newValidationError("image_url", "malformed uri")
	}
	if !u.IsAbs() || u.Host == "" {
		return ImageURL{}, newValidationError("image_url", "must be an absolute uri")
	}
	return ImageURL{value: raw}, nil
}

func (i ImageURL) String() string { return i.value }

// Price envuelve un decimal estrictamente positivo.
// Al contener un decimal.Decimal no es comparable con ==; usar Equal.
type Price struct{ value decimal.Decimal }

// Límites que comparten todos los almacenes (NUMERIC(18,2) en Postgres).
const priceScale = 2

var maxPrice = decimal.New(1, 16) // 10^16, exclusivo

// NewPrice rechaza precios con más de dos decimales significativos para que el
// valor almacenado y el publicado sean el mismo.
func NewPrice(d decimal.Decimal) (Price, error) {
	if !d.IsPositive() {
		return Price{}, newValidationError("price", "must be greater than zero")
	}
	if !d.Equal(d.Truncate(priceScale)) {
		return Price{}, newValidationError("price", "at most 2 decimal places")
	}
	if d.GreaterThanOrEqual(maxPrice) {
		return Price{}, newValidationError("price", "too large")
	}
	return Price{value: d}, nil
}

// ParsePrice construye un Price a partir de su representación numérica en texto.
func ParsePrice(raw string) (Price, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return Price{}, newValidationError("price", "not a number")
	}
	return NewPrice(d)
}

func (p Price) Decimal() decimal.Decimal { return p.value }

func (p Price) String() string { return p.value.String() }

func (p Price) Equal(other Price) bool { return p.value.Equal(other.value) }
