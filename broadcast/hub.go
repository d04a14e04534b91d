// Package broadcast реализует канал рассылки уведомлений об изменениях
// всем подключенным клиентам через WebSocket, а также внутрипроцессным
// подписчикам. Доставка негарантированная, без упорядочивания и без
// подтверждений: клиент, пропустивший событие, догонит состояние при
// следующей полной перезагрузке месяца.
//
// Канал не фильтрует отправителя: событие доставляется и его инициатору.
// Вместо этого каждое событие несет идентификатор сессии-источника, и
// получатель детерминированно отбрасывает собственные события.
package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/UmetsuJunya/Workplace-Scheduler/models"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Topic — семейство событий. Клиент планирует перезагрузку отдельно по
// каждому семейству.
type Topic string

const (
	TopicSchedule Topic = "schedule"
	TopicUser     Topic = "user"
	TopicProject  Topic = "project"
	TopicLocation Topic = "location"
)

// Действия внутри семейства.
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
	ActionReordered = "reordered"
)

// Event — одно событие рассылки.
type Event struct {
	Topic     Topic           `json:"topic"`
	Action    string          `json:"action"`
	Origin    string          `json:"origin,omitempty"` // ID сессии-источника
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// helloMessage отправляется клиенту сразу после подключения и сообщает ему
// ID сессии, которым он помечает свои REST-запросы (заголовок X-Session-Id).
type helloMessage struct {
	Type      string    `json:"type"` // всегда "hello"
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler — внутрипроцессный подписчик.
type Handler func(Event)

// Hub управляет WebSocket-подключениями и рассылает события.
type Hub struct {
	clients   map[*websocket.Conn]string // conn -> ID сессии
	clientsMu sync.RWMutex

	subscribers   map[Topic]map[int64]Handler
	nextSubID     int64
	subscribersMu sync.RWMutex

	broadcast chan Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHub создает канал рассылки.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[*websocket.Conn]string),
		subscribers: make(map[Topic]map[int64]Handler),
		broadcast:   make(chan Event, 100),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start запускает цикл рассылки.
func (h *Hub) Start() {
	h.wg.Add(1)
	go h.broadcastLoop()
}

// Stop останавливает рассылку и закрывает все подключения.
func (h *Hub) Stop() {
	h.cancel()

	h.clientsMu.Lock()
	for conn := range h.clients {
		_ = conn.Close(websocket.StatusGoingAway, "Server shutting down")
		delete(h.clients, conn)
	}
	h.clientsMu.Unlock()

	h.wg.Wait()
	log.Println("Канал рассылки остановлен")
}

// Publish отправляет событие в рассылку. Без гарантии доставки: при
// переполненном буфере событие отбрасывается, клиенты догонят состояние
// при следующей перезагрузке.
func (h *Hub) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case h.broadcast <- event:
	case <-h.ctx.Done():
	default:
		log.Println("Предупреждение: буфер рассылки переполнен, событие отброшено")
	}
}

// Subscribe регистрирует внутрипроцессного подписчика на семейство событий.
// Возвращает функцию отписки.
func (h *Hub) Subscribe(topic Topic, handler Handler) func() {
	h.subscribersMu.Lock()
	defer h.subscribersMu.Unlock()

	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[int64]Handler)
	}
	h.nextSubID++
	id := h.nextSubID
	h.subscribers[topic][id] = handler

	return func() {
		h.subscribersMu.Lock()
		defer h.subscribersMu.Unlock()
		delete(h.subscribers[topic], id)
	}
}

// broadcastLoop доставляет события внутрипроцессным подписчикам и
// WebSocket-клиентам.
func (h *Hub) broadcastLoop() {
	defer h.wg.Done()

	for {
		select {
		case <-h.ctx.Done():
			return

		case event := <-h.broadcast:
			h.subscribersMu.RLock()
			handlers := make([]Handler, 0, len(h.subscribers[event.Topic]))
			for _, handler := range h.subscribers[event.Topic] {
				handlers = append(handlers, handler)
			}
			h.subscribersMu.RUnlock()
			for _, handler := range handlers {
				handler(event)
			}

			data, err := json.Marshal(event)
			if err != nil {
				log.Printf("Ошибка сериализации события: %v", err)
				continue
			}

			h.clientsMu.RLock()
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for conn := range h.clients {
				conns = append(conns, conn)
			}
			h.clientsMu.RUnlock()

			// Запись вне блокировки, чтобы медленный клиент не тормозил рассылку.
			for _, conn := range conns {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()
				if err != nil {
					log.Printf("Ошибка отправки клиенту: %v", err)
					h.removeClient(conn)
				}
			}
		}
	}
}

// HandleWebSocket обслуживает подключение клиента. GET /ws
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("Ошибка при обновлении соединения до WebSocket: %v", err)
		return
	}

	sessionID := uuid.NewString()

	h.clientsMu.Lock()
	h.clients[conn] = sessionID
	clientCount := len(h.clients)
	h.clientsMu.Unlock()

	log.Printf("Клиент подключен: %s (всего: %d)", sessionID, clientCount)

	// Сообщаем клиенту его ID сессии: им он помечает свои REST-запросы,
	// чтобы потом отбрасывать собственные события.
	hello, _ := json.Marshal(helloMessage{Type: "hello", SessionID: sessionID, Timestamp: time.Now()})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = conn.Write(ctx, websocket.MessageText, hello)
	cancel()

	go h.readLoop(conn)
}

// readLoop поддерживает соединение и обнаруживает отключение клиента.
// Сообщения от клиента не обрабатываются: все изменения идут через REST.
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.removeClient(conn)

	for {
		_, _, err := conn.Read(h.ctx)
		if err != nil {
			return
		}
	}
}

// removeClient безопасно удаляет подключение.
func (h *Hub) removeClient(conn *websocket.Conn) {
	h.clientsMu.Lock()
	sessionID, exists := h.clients[conn]
	if exists {
		delete(h.clients, conn)
	}
	clientCount := len(h.clients)
	h.clientsMu.Unlock()

	if exists {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		log.Printf("Клиент отключен: %s (всего: %d)", sessionID, clientCount)
	}
}

// --- Вспомогательные методы публикации для слоя данных и контроллеров ---

func (h *Hub) publishPayload(topic Topic, action, origin string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Ошибка сериализации полезной нагрузки события %s:%s: %v", topic, action, err)
		return
	}
	h.Publish(Event{Topic: topic, Action: action, Origin: origin, Payload: data})
}

// deletedPayload — полезная нагрузка событий удаления: только ID.
type deletedPayload struct {
	ID int64 `json:"id"`
}

// ScheduleUpserted публикует событие создания/обновления ячейки расписания.
// Вместе со ScheduleDeleted реализует интерфейс data.ScheduleEvents.
func (h *Hub) ScheduleUpserted(origin string, schedule *models.Schedule) {
	h.publishPayload(TopicSchedule, ActionUpdated, origin, schedule)
}

// ScheduleDeleted публикует событие удаления ячейки расписания.
func (h *Hub) ScheduleDeleted(origin string, id int64) {
	h.publishPayload(TopicSchedule, ActionDeleted, origin, deletedPayload{ID: id})
}

// UserCreated публикует событие создания пользователя.
func (h *Hub) UserCreated(origin string, user models.UserPublicInfo) {
	h.publishPayload(TopicUser, ActionCreated, origin, user)
}

// UserUpdated публикует событие обновления пользователя.
func (h *Hub) UserUpdated(origin string, user models.UserPublicInfo) {
	h.publishPayload(TopicUser, ActionUpdated, origin, user)
}

// UserDeleted публикует событие удаления пользователя.
func (h *Hub) UserDeleted(origin string, id int64) {
	h.publishPayload(TopicUser, ActionDeleted, origin, deletedPayload{ID: id})
}

// ProjectCreated публикует событие создания проекта.
func (h *Hub) ProjectCreated(origin string, project *models.Project) {
	h.publishPayload(TopicProject, ActionCreated, origin, project)
}

// ProjectUpdated публикует событие обновления проекта.
func (h *Hub) ProjectUpdated(origin string, project *models.Project) {
	h.publishPayload(TopicProject, ActionUpdated, origin, project)
}

// ProjectDeleted публикует событие удаления проекта.
func (h *Hub) ProjectDeleted(origin string, id int64) {
	h.publishPayload(TopicProject, ActionDeleted, origin, deletedPayload{ID: id})
}

// LocationCreated публикует событие создания предустановки места.
func (h *Hub) LocationCreated(origin string, preset *models.LocationPreset) {
	h.publishPayload(TopicLocation, ActionCreated, origin, preset)
}

// LocationUpdated публикует событие обновления предустановки места.
func (h *Hub) LocationUpdated(origin string, preset *models.LocationPreset) {
	h.publishPayload(TopicLocation, ActionUpdated, origin, preset)
}

// LocationDeleted публикует событие удаления предустановки места.
func (h *Hub) LocationDeleted(origin string, id int64) {
	h.publishPayload(TopicLocation, ActionDeleted, origin, deletedPayload{ID: id})
}

// LocationReordered публикует полный список предустановок в новом порядке.
func (h *Hub) LocationReordered(origin string, presets []models.LocationPreset) {
	h.publishPayload(TopicLocation, ActionReordered, origin, presets)
}
