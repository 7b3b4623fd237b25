package domain

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType es la etiqueta de tipo que viaja con cada mensaje del broker.
type EventType string

const (
	EventProductCreated EventType = "ProductoCreadoEvent"
	EventProductUpdated EventType = "ProductoActualizadoEvent"
	EventProductDeleted EventType = "ProductoEliminadoEvent"
)

var eventTypes = []EventType{EventProductCreated, EventProductUpdated, EventProductDeleted}

// ParseEventType resuelve la etiqueta del mensaje sin distinguir mayúsculas.
func ParseEventType(tag string) (EventType, bool) {
	for _, t := range eventTypes {
		if strings.EqualFold(tag, string(t)) {
			return t, true
		}
	}
	return "", false
}

// Event es la variante cerrada {ProductCreated, ProductUpdated, ProductDeleted}.
type Event interface {
	Type() EventType
	ProductID() uuid.UUID
	RoutingKey() string
	PartitionKey() string
	isProductEvent()
}

// --- Variantes ---
// Los tags JSON forman parte del contrato de cable con los consumidores existentes.

type ProductCreated struct {
	ID       uuid.UUID       `json:"Id"`
	Name     string          `json:"Nombre"`
	Price    decimal.Decimal `json:"PrecioBase"`
	Category string          `json:"Categoria"`
	ImageURL string          `json:"ImagenUrl"`
	Status   string          `json:"Estado"`
	OwnerID  string          `json:"Id_Usuario"`
}

type ProductUpdated struct {
	ID       uuid.UUID       `json:"Id"`
	Name     string          `json:"Nombre"`
	Price    decimal.Decimal `json:"PrecioBase"`
	Category string          `json:"Categoria"`
	ImageURL string          `json:"ImagenUrl"`
	Status   string          `json:"Estado"`
	OwnerID  string          `json:"Id_Usuario"`
}

type ProductDeleted struct {
	ID uuid.UUID `json:"Id"`
}

func NewProductCreated(p *Product) ProductCreated {
	s := p.Snapshot()
	return ProductCreated{
		ID:       s.ID,
		Name:     s.Name,
		Price:    s.Price,
		Category: s.Category,
		ImageURL: s.ImageURL,
		Status:   s.Status,
		OwnerID:  s.OwnerID,
	}
}

func NewProductUpdated(p *Product) ProductUpdated {
	s := p.Snapshot()
	return ProductUpdated{
		ID:       s.ID,
		Name:     s.Name,
		Price:    s.Price,
		Category: s.Category,
		ImageURL: s.ImageURL,
		Status:   s.Status,
		OwnerID:  s.OwnerID,
	}
}

func NewProductDeleted(id uuid.UUID) ProductDeleted {
	return ProductDeleted{ID: id}
}

func (ProductCreated) Type() EventType { return EventProductCreated }
func (ProductUpdated) Type() EventType { return EventProductUpdated }
func (ProductDeleted) Type() EventType { return EventProductDeleted }

func (e ProductCreated) ProductID() uuid.UUID { return e.ID }
func (e ProductUpdated) ProductID() uuid.UUID { return e.ID }
func (e ProductDeleted) ProductID() uuid.UUID { return e.ID }

func (ProductCreated) RoutingKey() string { return RoutingKeyCreated }
func (ProductUpdated) RoutingKey() string { return RoutingKeyUpdated }
func (ProductDeleted) RoutingKey() string { return RoutingKeyDeleted }

func (e ProductCreated) PartitionKey() string { return e.ID.String() }
func (e ProductUpdated) PartitionKey() string { return e.ID.String() }
func (e ProductDeleted) PartitionKey() string { return e.ID.String() }

func (ProductCreated) isProductEvent() {}
func (ProductUpdated) isProductEvent() {}
func (ProductDeleted) isProductEvent() {}

// Snapshot devuelve los campos del evento como vista en primitivos.
func (e ProductCreated) Snapshot() Snapshot {
	return Snapshot{ID: e.ID, Name: e.Name, Price: e.Price, Category: e.Category, ImageURL: e.ImageURL, Status: e.Status, OwnerID: e.OwnerID}
}

func (e ProductUpdated) Snapshot() Snapshot {
	return Snapshot{ID: e.ID, Name: e.Name, Price: e.Price, Category: e.Category, ImageURL: e.ImageURL, Status: e.Status, OwnerID: e.OwnerID}
}

// --- Serialización ---

var errEmptyPayload = errors.New("empty event payload")

// productPayload es la forma de cable de Creado/Actualizado. PrecioBase viaja
// como número JSON, no como texto; al decodificar se aceptan ambas formas.
type productPayload struct {
	ID       uuid.UUID   `json:"Id"`
	Name     string      `json:"Nombre"`
	Price    json.Number `json:"PrecioBase"`
	Category string      `json:"Categoria"`
	ImageURL string      `json:"ImagenUrl"`
	Status   string      `json:"Estado"`
	OwnerID  string      `json:"Id_Usuario"`
}

func marshalProductPayload(s Snapshot) ([]byte, error) {
	return json.Marshal(productPayload{
		ID:       s.ID,
		Name:     s.Name,
		Price:    json.Number(s.Price.String()),
		Category: s.Category,
		ImageURL: s.ImageURL,
		Status:   s.Status,
		OwnerID:  s.OwnerID,
	})
}

func (e ProductCreated) MarshalJSON() ([]byte, error) { return marshalProductPayload(e.Snapshot()) }

func (e ProductUpdated) MarshalJSON() ([]byte, error) { return marshalProductPayload(e.Snapshot()) }

func EncodeEvent(evt Event) ([]byte, error) {
	return json.Marshal(evt)
}

// DecodeEvent decodifica el payload JSON en la variante E.
// Un payload sin id (null, {}) cuenta como vacío y se rechaza.
func DecodeEvent[E Event](payload []byte) (E, error) {
	var evt E
	if err := json.Unmarshal(payload, &evt); err != nil {
		return evt, &DeserializationError{EventType: evt.Type(), Err: err}
	}
	if evt.ProductID() == uuid.Nil {
		return evt, &DeserializationError{EventType: evt.Type(), Err: errEmptyPayload}
	}
	return evt, nil
}
