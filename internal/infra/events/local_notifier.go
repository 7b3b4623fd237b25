package events

import (
	"context"
	"sync"

	"github.com/davicafu/catalogo/internal/product/domain"
)

// LocalNotifier reparte eventos entre suscriptores del mismo proceso.
// Si el canal de un suscriptor está lleno, el evento se descarta para ese suscriptor.
type LocalNotifier struct {
	subscribers []chan domain.Event
	mu          sync.RWMutex
}

var _ domain.EventNotifier = (*LocalNotifier)(nil)

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{subscribers: make([]chan domain.Event, 0)}
}

func (n *LocalNotifier) Notify(ctx context.Context, evt domain.Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, sub := range n.subscribers {
		select {
		case sub <- evt:
		default:
		}
	}
}

func (n *LocalNotifier) Subscribe(bufferSize int) <-chan domain.Event {
	n.mu.Lock()
	defer n.mu.Unlock()

	sub := make(chan domain.Event, bufferSize)
	n.subscribers = append(n.subscribers, sub)
	return sub
}
