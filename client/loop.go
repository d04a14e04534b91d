// Package client реализует клиентский цикл сверки: локальный снимок месяца,
// оптимистичные правки, и перезагрузку по событиям рассылки с дебаунсом и
// подавлением на время собственного сохранения.
//
// Цикл держит состояние отдельно по каждому семейству событий (конечный
// автомат Idle/Saving с дедлайном льготного периода), а не общий булев флаг:
// сохранения разных семейств не мешают друг другу.
package client

import (
	"sync"
	"time"

	"github.com/UmetsuJunya/Workplace-Scheduler/broadcast"
	"github.com/UmetsuJunya/Workplace-Scheduler/models"
)

// State — состояние цикла для одного семейства событий.
type State int

const (
	// StateIdle — нет сохранения в полете и льготный период истек.
	StateIdle State = iota
	// StateSaving — идет сохранение либо не истек льготный период после него.
	// Перезагрузки этого семейства в этом состоянии отбрасываются, чтобы
	// перезагрузка устаревшего состояния не затерла локальную правку.
	StateSaving
)

// Значения по умолчанию: дебаунс коалесцирует шквал событий одной массовой
// правки в одну перезагрузку, льготный период дает событиям собственного
// сохранения долететь до нас прежде, чем перезагрузки снова разрешены.
const (
	DefaultDebounceInterval = 500 * time.Millisecond
	DefaultGracePeriod      = 2 * time.Second
)

// Store — узкий интерфейс к серверу, потребляемый циклом.
type Store interface {
	// LoadMonth возвращает полный снимок месяца.
	LoadMonth(month models.YearMonth) (models.MonthSnapshot, error)
	// SaveMonth приводит сохраненное состояние месяца к снимку (сверка).
	SaveMonth(month models.YearMonth, snapshot models.MonthSnapshot) error
	// LoadUsers возвращает актуальный список пользователей.
	LoadUsers() ([]models.UserPublicInfo, error)
	// LoadProjects возвращает актуальный список проектов.
	LoadProjects() ([]models.Project, error)
	// LoadLocationPresets возвращает актуальный список предустановок мест.
	LoadLocationPresets() ([]models.LocationPreset, error)
}

// Config задает интервалы таймеров цикла.
type Config struct {
	DebounceInterval time.Duration
	GracePeriod      time.Duration
	// OnError вызывается при невосстановимой ошибке сохранения или перезагрузки.
	OnError func(error)
}

// topicState — состояние конечного автомата одного семейства событий.
type topicState struct {
	state         State
	graceDeadline time.Time   // Информационно: когда Saving истечет
	debounce      *time.Timer // Отложенная перезагрузка
	grace         *time.Timer // Возврат Saving -> Idle
	saveSeq       uint64      // Поколение последнего запущенного сохранения
}

// Loop — цикл сверки одной вкладки.
type Loop struct {
	mu sync.Mutex

	sessionID string // ID сессии, полученный от канала рассылки
	store     Store
	cfg       Config

	month    models.YearMonth
	snapshot models.MonthSnapshot

	users    []models.UserPublicInfo
	projects []models.Project
	presets  []models.LocationPreset

	topics map[broadcast.Topic]*topicState
	closed bool
}

// NewLoop создает цикл сверки для заданного месяца.
// sessionID — идентификатор, которым сервер помечает события этой сессии.
func NewLoop(sessionID string, month models.YearMonth, store Store, cfg Config) *Loop {
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = DefaultDebounceInterval
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	return &Loop{
		sessionID: sessionID,
		store:     store,
		cfg:       cfg,
		month:     month,
		snapshot:  make(models.MonthSnapshot),
		topics:    make(map[broadcast.Topic]*topicState),
	}
}

// topic возвращает состояние семейства, создавая его при первом обращении.
// Вызывается под мьютексом.
func (l *Loop) topic(t broadcast.Topic) *topicState {
	ts, ok := l.topics[t]
	if !ok {
		ts = &topicState{state: StateIdle}
		l.topics[t] = ts
	}
	return ts
}

// Snapshot возвращает копию локального снимка. Цикл никогда не отдает
// ссылку на внутреннее состояние.
func (l *Loop) Snapshot() models.MonthSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return copySnapshot(l.snapshot)
}

// State возвращает текущее состояние семейства событий.
func (l *Loop) State(t broadcast.Topic) State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.topic(t).state
}

// SetMonth переключает цикл на другой месяц: отменяет отложенные операции
// и заменяет снимок целиком результатом полной загрузки.
func (l *Loop) SetMonth(month models.YearMonth) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.month = month
	l.cancelTimersLocked()
	l.mu.Unlock()

	return l.reloadMonth()
}

// OnLocalEdit применяет правку ячейки к локальному снимку синхронно
// (оптимистичное обновление), переводит семейство schedule в Saving и
// асинхронно запускает сверку месяца. value == nil очищает ячейку.
//
// По завершении сохранения взводится таймер льготного периода; пока он идет,
// перезагрузки семейства schedule отбрасываются. При ошибке сохранения
// оптимистичная правка откатывается и вызывается OnError.
func (l *Loop) OnLocalEdit(userID int64, dateISO string, value *models.CellValue) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}

	// Запоминаем прежнее значение ячейки для отката
	var prev *models.CellValue
	if cells := l.snapshot[userID]; cells != nil {
		prev = cells[dateISO]
	}

	if value == nil || value.IsEmpty() {
		if cells := l.snapshot[userID]; cells != nil {
			cells[dateISO] = nil // Явно очищенная ячейка: сверка удалит строку
		} else {
			l.snapshot[userID] = map[string]*models.CellValue{dateISO: nil}
		}
	} else {
		v := *value
		if l.snapshot[userID] == nil {
			l.snapshot[userID] = make(map[string]*models.CellValue)
		}
		l.snapshot[userID][dateISO] = &v
	}

	ts := l.topic(broadcast.TopicSchedule)
	ts.state = StateSaving
	ts.saveSeq++
	seq := ts.saveSeq
	if ts.debounce != nil {
		ts.debounce.Stop()
		ts.debounce = nil
	}
	if ts.grace != nil {
		ts.grace.Stop()
		ts.grace = nil
	}

	month := l.month
	snapshot := copySnapshot(l.snapshot)
	l.mu.Unlock()

	go l.save(month, snapshot, userID, dateISO, prev, seq)
}

// save выполняет сверку и управляет переходами Saving -> Idle.
// seq — поколение сохранения: завершение сохранения, вытесненного более
// поздней правкой, не меняет состояние — им управляет новое сохранение.
func (l *Loop) save(month models.YearMonth, snapshot models.MonthSnapshot, userID int64, dateISO string, prev *models.CellValue, seq uint64) {
	err := l.store.SaveMonth(month, snapshot)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	ts := l.topic(broadcast.TopicSchedule)
	if seq != ts.saveSeq {
		// Снимок этого сохранения устарел: новая правка уже отправила более
		// полный, и ее завершение взведет льготный период. Откат здесь тоже
		// неуместен — ячейка могла быть переписана новой правкой.
		l.mu.Unlock()
		return
	}

	if err != nil {
		// Откат оптимистичной правки: локальный снимок не должен
		// расходиться с сервером после невосстановимого сбоя.
		if cells := l.snapshot[userID]; cells != nil {
			if prev != nil {
				cells[dateISO] = prev
			} else {
				delete(cells, dateISO)
			}
		}
		ts.state = StateIdle
		ts.grace = nil
		onError := l.cfg.OnError
		l.mu.Unlock()
		if onError != nil {
			onError(err)
		}
		return
	}

	// Льготный период: события нашего собственного сохранения еще летят по
	// каналу рассылки, перезагрузка сейчас затерла бы только что сохраненное.
	ts.graceDeadline = time.Now().Add(l.cfg.GracePeriod)
	if ts.grace != nil {
		ts.grace.Stop()
	}
	ts.grace = time.AfterFunc(l.cfg.GracePeriod, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.closed {
			return
		}
		state := l.topic(broadcast.TopicSchedule)
		if state.saveSeq != seq {
			return // Таймер пережил Stop: им уже управляет новое сохранение
		}
		state.state = StateIdle
		state.grace = nil
	})
	l.mu.Unlock()
}

// OnRemoteNotification обрабатывает событие канала рассылки.
//
// Собственные события (Origin совпадает с ID сессии) отбрасываются
// детерминированно. События чужих сессий перезапускают дебаунс-таймер
// семейства: шквал событий одной массовой правки коалесцируется в одну
// перезагрузку. Если семейство в состоянии Saving, событие отбрасывается.
func (l *Loop) OnRemoteNotification(event broadcast.Event) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	if event.Origin != "" && event.Origin == l.sessionID {
		l.mu.Unlock()
		return // Собственное событие: локальный снимок уже актуальнее
	}

	ts := l.topic(event.Topic)
	if ts.state == StateSaving {
		l.mu.Unlock()
		return
	}

	if ts.debounce != nil {
		ts.debounce.Stop()
	}
	topic := event.Topic
	ts.debounce = time.AfterFunc(l.cfg.DebounceInterval, func() {
		l.fireReload(topic)
	})
	l.mu.Unlock()
}

// fireReload выполняет отложенную перезагрузку, если цикл все еще может
// ее принять.
func (l *Loop) fireReload(topic broadcast.Topic) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	ts := l.topic(topic)
	ts.debounce = nil
	if ts.state == StateSaving {
		// Сохранение началось, пока таймер ждал: перезагрузка отменяется
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	var err error
	switch topic {
	case broadcast.TopicSchedule:
		err = l.reloadMonth()
	case broadcast.TopicUser:
		err = l.reloadUsers()
	case broadcast.TopicProject:
		err = l.reloadProjects()
	case broadcast.TopicLocation:
		err = l.reloadLocationPresets()
	}
	if err != nil && l.cfg.OnError != nil {
		l.cfg.OnError(err)
	}
}

// reloadMonth заменяет локальный снимок целиком состоянием сервера.
// Снимок никогда не сливается с серверным по полям.
func (l *Loop) reloadMonth() error {
	l.mu.Lock()
	month := l.month
	l.mu.Unlock()

	snapshot, err := l.store.LoadMonth(month)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.month != month {
		return nil // Месяц сменился, пока шла загрузка
	}
	l.snapshot = snapshot
	return nil
}

func (l *Loop) reloadUsers() error {
	users, err := l.store.LoadUsers()
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.users = users
	}
	return nil
}

func (l *Loop) reloadProjects() error {
	projects, err := l.store.LoadProjects()
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.projects = projects
	}
	return nil
}

func (l *Loop) reloadLocationPresets() error {
	presets, err := l.store.LoadLocationPresets()
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.presets = presets
	}
	return nil
}

// Users возвращает копию списка пользователей.
func (l *Loop) Users() []models.UserPublicInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.UserPublicInfo(nil), l.users...)
}

// Projects возвращает копию списка проектов.
func (l *Loop) Projects() []models.Project {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Project(nil), l.projects...)
}

// LocationPresets возвращает копию списка предустановок.
func (l *Loop) LocationPresets() []models.LocationPreset {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.LocationPreset(nil), l.presets...)
}

// Close останавливает цикл: отменяет все таймеры. После Close ни одна
// перезагрузка и ни одно сохранение не изменят состояние.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.cancelTimersLocked()
}

// cancelTimersLocked останавливает все таймеры. Вызывается под мьютексом.
func (l *Loop) cancelTimersLocked() {
	for _, ts := range l.topics {
		if ts.debounce != nil {
			ts.debounce.Stop()
			ts.debounce = nil
		}
		if ts.grace != nil {
			ts.grace.Stop()
			ts.grace = nil
		}
		ts.state = StateIdle
	}
}

// copySnapshot делает глубокую копию снимка месяца.
func copySnapshot(snapshot models.MonthSnapshot) models.MonthSnapshot {
	out := make(models.MonthSnapshot, len(snapshot))
	for userID, cells := range snapshot {
		copied := make(map[string]*models.CellValue, len(cells))
		for dateISO, cell := range cells {
			if cell == nil {
				copied[dateISO] = nil
				continue
			}
			v := *cell
			copied[dateISO] = &v
		}
		out[userID] = copied
	}
	return out
}
