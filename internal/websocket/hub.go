package websocket

import (
	"bytes"
	"sync"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"signalbot/internal/models"
	"signalbot/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// broadcastBuffer - ёмкость очереди broadcast; при переполнении сообщение отбрасывается
const broadcastBuffer = 256

var (
	wsClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signalbot_ws_clients",
		Help: "Connected websocket clients",
	})
	wsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signalbot_ws_dropped_messages_total",
		Help: "Websocket messages dropped because of a full buffer",
	})
)

// ============ sync.Pool для JSON буферов ============

var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// Hub управляет всеми активными WebSocket соединениями
//
// Назначение:
// Рассылает оператору уведомления движка и снимки позиций без polling.
//
// Типы сообщений:
// - notification: открытие/закрытие сделки, SL/TP, сверка, override
// - positions: снимок леджера после пересчёта PnL
//
// Использование:
// 1. hub := NewHub(origins)
// 2. go hub.Run()
// 3. engine вызывает BroadcastNotification / BroadcastPositions
// 4. hub.Stop() при shutdown
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	origins *OriginChecker
	dropped atomic.Int64

	stopCh   chan struct{}
	stopOnce sync.Once

	log *utils.Logger
	mu  sync.RWMutex
}

// NewHub создает Hub; origins - разрешённые Origin для браузерных клиентов
func NewHub(origins []string) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		origins:    NewOriginChecker(origins),
		stopCh:     make(chan struct{}),
		log:        utils.L().WithComponent("ws_hub"),
	}
}

// Run - главный цикл; запускать в отдельной горутине
//
// Список клиентов копируется под RLock, отправка идёт без блокировки,
// медленные клиенты удаляются под Write Lock.
func (h *Hub) Run() {
	for {
		select {
		case <-h.stopCh:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			wsClients.Set(float64(n))
			h.log.Debug("client connected", utils.Int("clients", n))
			h.greet(client, n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			wsClients.Set(float64(n))
			h.log.Debug("client disconnected", utils.Int("clients", n))

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var toRemove []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					toRemove = append(toRemove, client)
				}
			}

			if len(toRemove) > 0 {
				h.mu.Lock()
				for _, client := range toRemove {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				n := len(h.clients)
				h.mu.Unlock()
				wsClients.Set(float64(n))
				h.log.Warn("removed slow clients", utils.Int("removed", len(toRemove)), utils.Int("clients", n))
			}
		}
	}
}

// Stop останавливает Run и закрывает все соединения. Повторный вызов безопасен.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
	wsClients.Set(0)
}

func (h *Hub) greet(client *Client, clients int) {
	data, err := encode(&HelloMessage{
		BaseMessage: BaseMessage{Type: MessageTypeHello},
		Clients:     clients,
	})
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

// Broadcast сериализует сообщение и ставит его в очередь рассылки
func (h *Hub) Broadcast(message interface{}) {
	data, err := encode(message)
	if err != nil {
		h.log.Error("failed to marshal broadcast message", utils.Err(err))
		return
	}
	h.BroadcastRaw(data)
}

// BroadcastRaw ставит в очередь уже сериализованное сообщение.
// Не блокирует: при полной очереди сообщение отбрасывается.
func (h *Hub) BroadcastRaw(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		h.dropped.Add(1)
		wsDropped.Inc()
	}
}

// BroadcastNotification отправляет уведомление движка
func (h *Hub) BroadcastNotification(notif *models.Notification) {
	if notif == nil {
		return
	}
	h.Broadcast(NewNotificationMessage(notif))
}

// BroadcastPositions отправляет снимок позиций
func (h *Hub) BroadcastPositions(positions []*models.Position) {
	h.Broadcast(NewPositionsMessage(positions))
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// DroppedMessages - сколько сообщений отброшено из-за переполнения очереди
func (h *Hub) DroppedMessages() int64 {
	return h.dropped.Load()
}

// encode сериализует через пул буферов и возвращает копию без trailing newline
func encode(message interface{}) ([]byte, error) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer jsonBufferPool.Put(buf)

	if err := json.NewEncoder(buf).Encode(message); err != nil {
		return nil, err
	}

	data := bytes.TrimRight(buf.Bytes(), "\n")
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
