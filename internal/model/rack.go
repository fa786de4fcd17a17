package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock remaining")
	ErrRackEntryNotFound = errors.New("no stock entry for product in this rack")
	ErrNonPositiveQty    = errors.New("quantity must be greater than zero")
)

// ProductRef is a product reference as stored inside a rack's products list.
// Historical schema changes left three encodings in the wild: a bare canonical
// uuid string, a looser string form of the uuid, and an embedded object
// carrying the uuid under an "_id" (or "id") field. The raw JSON is kept
// verbatim so saving a rack never rewrites entries that were not touched.
type ProductRef struct {
	raw json.RawMessage
}

// NewProductRef builds a reference in the current canonical encoding.
func NewProductRef(id uuid.UUID) ProductRef {
	raw, _ := json.Marshal(id.String())
	return ProductRef{raw: raw}
}

func (r ProductRef) MarshalJSON() ([]byte, error) {
	if r.raw == nil {
		return []byte("null"), nil
	}
	return r.raw, nil
}

func (r *ProductRef) UnmarshalJSON(b []byte) error {
	r.raw = append(r.raw[:0], b...)
	return nil
}

// refMatchers are the match strategies, tried strictly in order. Keeping them
// in one list keeps every rack-mutating code path on identical matching
// behavior instead of scattering encoding checks across call sites.
var refMatchers = []func(ref ProductRef, id uuid.UUID) bool{
	matchBareID,
	matchStringID,
	matchEmbeddedID,
}

// matchBareID: the reference is the canonical uuid string.
func matchBareID(ref ProductRef, id uuid.UUID) bool {
	var s string
	if err := json.Unmarshal(ref.raw, &s); err != nil {
		return false
	}
	return s == id.String()
}

// matchStringID: the reference is any string that parses to the same uuid
// (upper case, urn prefix, braces).
func matchStringID(ref ProductRef, id uuid.UUID) bool {
	var s string
	if err := json.Unmarshal(ref.raw, &s); err != nil {
		return false
	}
	parsed, err := uuid.Parse(s)
	return err == nil && parsed == id
}

// matchEmbeddedID: the reference is an object carrying the uuid under an
// "_id"-like inner field, itself in either string form.
func matchEmbeddedID(ref ProductRef, id uuid.UUID) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(ref.raw, &obj); err != nil {
		return false
	}
	for _, key := range []string{"_id", "id"} {
		inner, ok := obj[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(inner, &s); err != nil {
			continue
		}
		if parsed, err := uuid.Parse(s); err == nil && parsed == id {
			return true
		}
	}
	return false
}

// Matches reports whether the stored reference points at the given product,
// regardless of which encoding it was written with.
func (r ProductRef) Matches(id uuid.UUID) bool {
	for _, match := range refMatchers {
		if match(r, id) {
			return true
		}
	}
	return false
}

// ProductID decodes the referenced product id when the encoding allows it.
func (r ProductRef) ProductID() (uuid.UUID, bool) {
	var s string
	if err := json.Unmarshal(r.raw, &s); err == nil {
		if id, err := uuid.Parse(s); err == nil {
			return id, true
		}
		return uuid.Nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(r.raw, &obj); err != nil {
		return uuid.Nil, false
	}
	for _, key := range []string{"_id", "id"} {
		inner, ok := obj[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(inner, &s); err != nil {
			continue
		}
		if id, err := uuid.Parse(s); err == nil {
			return id, true
		}
	}
	return uuid.Nil, false
}

// RackProductEntry is one (product, stock) pair inside a rack.
type RackProductEntry struct {
	Product ProductRef `json:"product"`
	Stock   int        `json:"stock"`
}

// RackProducts is the rack's product list, persisted as one JSONB column.
type RackProducts []RackProductEntry

func (p RackProducts) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *RackProducts) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported type %T for rack products column", src)
	}
}

// Rack is a named storage location owned by exactly one project. Its products
// list is the authoritative stock source of truth: at most one entry per
// product, stock never negative.
type Rack struct {
	BaseModel
	RackNumber string       `gorm:"type:varchar(50);not null" json:"rack_number" validate:"required"`
	ProjectID  uuid.UUID    `gorm:"type:uuid;not null;index" json:"project_id"`
	Project    *Project     `json:"project,omitempty" validate:"-"`
	Products   RackProducts `gorm:"type:jsonb;default:'[]'" json:"products"`

	// Version backs the compare-and-set write of the products column. A
	// read-then-write race between concurrent movements on the same rack
	// remains possible; the version check turns it into a retried conflict
	// instead of a silent lost update (known limitation, see DESIGN.md).
	Version int `gorm:"not null;default:1" json:"-"`
}

// findEntry returns the index of the product's stock entry, or -1.
func (r *Rack) findEntry(productID uuid.UUID) int {
	for i := range r.Products {
		if r.Products[i].Product.Matches(productID) {
			return i
		}
	}
	return -1
}

// StockOf returns the current stock for a product and whether an entry exists.
func (r *Rack) StockOf(productID uuid.UUID) (int, bool) {
	if i := r.findEntry(productID); i >= 0 {
		return r.Products[i].Stock, true
	}
	return 0, false
}

// ApplyDelta applies one stock movement to the in-memory rack.
//
// Direction in adds quantity, appending a fresh entry when the product has
// none yet. Direction out subtracts and fails with ErrRackEntryNotFound when
// no entry matches, or ErrInsufficientStock when the entry holds less than the
// requested quantity. On error the rack is left unmodified.
func (r *Rack) ApplyDelta(productID uuid.UUID, direction TransactionDirection, qty int) (previous, current int, err error) {
	if qty <= 0 {
		return 0, 0, ErrNonPositiveQty
	}

	idx := r.findEntry(productID)

	switch direction {
	case DirectionIn:
		if idx < 0 {
			r.Products = append(r.Products, RackProductEntry{Product: NewProductRef(productID), Stock: qty})
			return 0, qty, nil
		}
		previous = r.Products[idx].Stock
		r.Products[idx].Stock = previous + qty
		return previous, previous + qty, nil

	case DirectionOut:
		if idx < 0 {
			return 0, 0, ErrRackEntryNotFound
		}
		previous = r.Products[idx].Stock
		if previous < qty {
			return previous, previous, ErrInsufficientStock
		}
		r.Products[idx].Stock = previous - qty
		return previous, previous - qty, nil

	default:
		return 0, 0, fmt.Errorf("unknown transaction direction %q", direction)
	}
}

// SetStock overwrites the on-hand quantity for a product, inserting an entry
// when none exists. Used by stock adjustment approval, which writes an
// absolute value rather than a delta.
func (r *Rack) SetStock(productID uuid.UUID, qty int) (previous int) {
	if idx := r.findEntry(productID); idx >= 0 {
		previous = r.Products[idx].Stock
		r.Products[idx].Stock = qty
		return previous
	}
	r.Products = append(r.Products, RackProductEntry{Product: NewProductRef(productID), Stock: qty})
	return 0
}
