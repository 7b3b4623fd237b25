package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventType(t *testing.T) {
	testCases := []struct {
		tag    string
		want   EventType
		wantOK bool
	}{
		{"ProductoCreadoEvent", EventProductCreated, true},
		{"productocreadoevent", EventProductCreated, true},
		{"PRODUCTOACTUALIZADOEVENT", EventProductUpdated, true},
		{"ProductoEliminadoEvent", EventProductDeleted, true},
		{"ProductoVendidoEvent", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.tag, func(t *testing.T) {
			got, ok := ParseEventType(tc.tag)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewProductCreated_CopiesAggregate(t *testing.T) {
	p := newTestProduct(t)

	evt := NewProductCreated(p)

	assert.Equal(t, EventProductCreated, evt.Type())
	assert.Equal(t, p.ID(), evt.ProductID())
	assert.Equal(t, p.Snapshot(), evt.Snapshot())
	assert.Equal(t, RoutingKeyCreated, evt.RoutingKey())
	assert.Equal(t, p.ID().String(), evt.PartitionKey())
}

func TestEncodeEvent_WireFieldNames(t *testing.T) {
	p := newTestProduct(t)

	data, err := EncodeEvent(NewProductUpdated(p))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	for _, key := range []string{"Id", "Nombre", "PrecioBase", "Categoria", "ImagenUrl", "Estado", "Id_Usuario"} {
		assert.Contains(t, body, key)
	}
	assert.Equal(t, p.ID().String(), body["Id"])
	assert.Equal(t, 49.99, body["PrecioBase"], "El precio se decodifica como número")
}

func TestEncodeEvent_PriceIsJSONNumber(t *testing.T) {
	for _, evt := range []Event{NewProductCreated(newTestProduct(t)), NewProductUpdated(newTestProduct(t))} {
		t.Run(string(evt.Type()), func(t *testing.T) {
			data, err := EncodeEvent(evt)
			require.NoError(t, err)

			var raw map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(data, &raw))
			assert.Equal(t, "49.99", string(raw["PrecioBase"]), "PrecioBase viaja como número, sin comillas")
		})
	}
}

func TestEncodeDecode_PreservesPriceScale(t *testing.T) {
	p := newTestProduct(t)
	created := NewProductCreated(p)

	data, err := EncodeEvent(created)
	require.NoError(t, err)
	back, err := DecodeEvent[ProductCreated](data)

	require.NoError(t, err)
	assert.Equal(t, created.Snapshot().ID, back.ID)
	assert.True(t, created.Price.Equal(back.Price))
	assert.Equal(t, p.Snapshot().Name, back.Name)
}

func TestDecodeEvent(t *testing.T) {
	id := uuid.New()

	t.Run("payload válido", func(t *testing.T) {
		payload := []byte(`{"Id":"` + id.String() + `","Nombre":"Chair","PrecioBase":49.99,"Categoria":"Furniture","ImagenUrl":"https://x/img.png","Estado":"disponible","Id_Usuario":""}`)

		evt, err := DecodeEvent[ProductCreated](payload)

		require.NoError(t, err)
		assert.Equal(t, id, evt.ID)
		assert.Equal(t, "49.99", evt.Price.String())
	})

	t.Run("precio como texto", func(t *testing.T) {
		payload := []byte(`{"Id":"` + id.String() + `","PrecioBase":"12.5"}`)

		evt, err := DecodeEvent[ProductUpdated](payload)

		require.NoError(t, err)
		assert.Equal(t, "12.5", evt.Price.String())
	})

	t.Run("json inválido", func(t *testing.T) {
		_, err := DecodeEvent[ProductCreated]([]byte("not json"))

		var dErr *DeserializationError
		require.ErrorAs(t, err, &dErr)
		assert.Equal(t, EventProductCreated, dErr.EventType)
	})

	t.Run("payload null", func(t *testing.T) {
		_, err := DecodeEvent[ProductDeleted]([]byte("null"))
		assert.True(t, IsDeserialization(err))
	})

	t.Run("objeto vacío", func(t *testing.T) {
		_, err := DecodeEvent[ProductDeleted]([]byte("{}"))
		assert.True(t, IsDeserialization(err))
	})
}

func TestQueueFor(t *testing.T) {
	assert.Equal(t, QueueProductCreated, QueueFor(EventProductCreated))
	assert.Equal(t, QueueProductUpdated, QueueFor(EventProductUpdated))
	assert.Equal(t, QueueProductDeleted, QueueFor(EventProductDeleted))
	assert.Empty(t, QueueFor("otro"))
}
