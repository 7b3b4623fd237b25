package domain

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product es el agregado del lado de escritura. Solo se modifica a través de Update.
type Product struct {
	id       uuid.UUID
	name     Name
	price    Price
	category Category
	imageURL ImageURL
	status   Status
	ownerID  OwnerID
}

// Snapshot es la vista en primitivos del agregado (HTTP, caché, persistencia).
type Snapshot struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"nombre"`
	Price    decimal.Decimal `json:"precioBase"`
	Category string          `json:"categoria"`
	ImageURL string          `json:"imagenUrl"`
	Status   string          `json:"estado"`
	OwnerID  string          `json:"idUsuario"`
}

type fields struct {
	name     Name
	price    Price
	category Category
	imageURL ImageURL
	status   Status
	ownerID  OwnerID
}

// validateFields construye todos los value types antes de tocar el agregado.
func validateFields(name string, price decimal.Decimal, category, imageURL, status, ownerID string) (fields, error) {
	var (
		f   fields
		err error
	)
	if f.name, err = NewName(name); err != nil {
		return fields{}, err
	}
	if f.price, err = NewPrice(price); err != nil {
		return fields{}, err
	}
	if f.category, err = NewCategory(category); err != nil {
		return fields{}, err
	}
	if f.imageURL, err = NewImageURL(imageURL); err != nil {
		return fields{}, err
	}
	if f.status, err = NewStatus(status); err != nil {
		return fields{}, err
	}
	f.ownerID = NewOwnerID(ownerID)
	return f, nil
}

// NewProduct valida todos los campos y construye el agregado.
// También se usa para rehidratar desde cualquier almacén.
func NewProduct(id uuid.UUID, name string, price decimal.Decimal, category, imageURL, status, ownerID string) (*Product, error) {
	if id == uuid.Nil {
		return nil, newValidationError("id", "must not be empty")
	}
	f, err := validateFields(name, price, category, imageURL, status, ownerID)
	if err != nil {
		return nil, err
	}
	p := &Product{id: id}
	p.assign(f)
	return p, nil
}

// FromSnapshot rehidrata el agregado desde su forma en primitivos.
func FromSnapshot(s Snapshot) (*Product, error) {
	return NewProduct(s.ID, s.Name, s.Price, s.Category, s.ImageURL, s.Status, s.OwnerID)
}

// Update reemplaza todos los campos mutables. Si alguno es inválido el agregado no cambia.
func (p *Product) Update(name string, price decimal.Decimal, category, imageURL, status, ownerID string) error {
	f, err := validateFields(name, price, category, imageURL, status, ownerID)
	if err != nil {
		return err
	}
	p.assign(f)
	return nil
}

func (p *Product) assign(f fields) {
	p.name = f.name
	p.price = f.price
	p.category = f.category
	p.imageURL = f.imageURL
	p.status = f.status
	p.ownerID = f.ownerID
}

func (p *Product) ID() uuid.UUID      { return p.id }
func (p *Product) Name() Name         { return p.name }
func (p *Product) Price() Price       { return p.price }
func (p *Product) Category() Category { return p.category }
func (p *Product) ImageURL() ImageURL { return p.imageURL }
func (p *Product) Status() Status     { return p.status }
func (p *Product) OwnerID() OwnerID   { return p.ownerID }

func (p *Product) Snapshot() Snapshot {
	return Snapshot{
		ID:       p.id,
		Name:     p.name.String(),
		Price:    p.price.Decimal(),
		Category: p.category.String(),
		ImageURL: p.imageURL.String(),
		Status:   p.status.String(),
		OwnerID:  p.ownerID.String(),
	}
}

func (p *Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Snapshot())
}
