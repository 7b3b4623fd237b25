package domain

// Topología del broker. Un exchange fan-out compartido y una cola durable por tipo de evento.
const (
	ProductExchange = "productos_exchange"

	QueueProductCreated = "productos_creado_mongo_queue"
	QueueProductUpdated = "productos_actualizado_mongo_queue"
	QueueProductDeleted = "productos_eliminado_mongo_queue"
)

// Claves de enrutado. El exchange fan-out las ignora.
const (
	RoutingKeyCreated = ""
	RoutingKeyUpdated = "producto.actualizado"
	RoutingKeyDeleted = "producto.eliminado"
)

// QueueFor devuelve la cola durable asociada a cada tipo de evento.
func QueueFor(t EventType) string {
	switch t {
	case EventProductCreated:
		return QueueProductCreated
	case EventProductUpdated:
		return QueueProductUpdated
	case EventProductDeleted:
		return QueueProductDeleted
	default:
		return ""
	}
}
