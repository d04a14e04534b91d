package client

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/UmetsuJunya/Workplace-Scheduler/broadcast"
	"github.com/UmetsuJunya/Workplace-Scheduler/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore считает обращения и отдает настраиваемые ответы.
type fakeStore struct {
	mu sync.Mutex

	monthSnapshot models.MonthSnapshot
	users         []models.UserPublicInfo
	saveErr       error
	saveGates     map[int]chan struct{} // Номер вызова SaveMonth -> канал, закрытие которого завершает вызов

	loadMonthCalls int
	saveCalls      int
	loadUserCalls  int
	lastSaved      models.MonthSnapshot
}

func (s *fakeStore) LoadMonth(month models.YearMonth) (models.MonthSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadMonthCalls++
	if s.monthSnapshot == nil {
		return make(models.MonthSnapshot), nil
	}
	return s.monthSnapshot, nil
}

func (s *fakeStore) SaveMonth(month models.YearMonth, snapshot models.MonthSnapshot) error {
	s.mu.Lock()
	s.saveCalls++
	gate := s.saveGates[s.saveCalls]
	s.lastSaved = snapshot
	err := s.saveErr
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (s *fakeStore) LoadUsers() ([]models.UserPublicInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadUserCalls++
	return s.users, nil
}

func (s *fakeStore) LoadProjects() ([]models.Project, error) {
	return nil, nil
}

func (s *fakeStore) LoadLocationPresets() ([]models.LocationPreset, error) {
	return nil, nil
}

func (s *fakeStore) counts() (loadMonth, save, loadUsers int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadMonthCalls, s.saveCalls, s.loadUserCalls
}

func strPtr(s string) *string { return &s }

// Короткие интервалы, чтобы тесты не ждали реальных таймаутов.
func testConfig(onError func(error)) Config {
	return Config{
		DebounceInterval: 20 * time.Millisecond,
		GracePeriod:      60 * time.Millisecond,
		OnError:          onError,
	}
}

func newTestLoop(t *testing.T, store Store, cfg Config) *Loop {
	t.Helper()
	loop := NewLoop("my-session", models.YearMonth{Year: 2024, Month: 6}, store, cfg)
	t.Cleanup(loop.Close)
	return loop
}

// Локальная правка применяется к снимку синхронно и уходит на сервер.
func TestOnLocalEditOptimisticAndSaves(t *testing.T) {
	store := &fakeStore{}
	loop := newTestLoop(t, store, testConfig(nil))

	value := models.CellValue{Am: strPtr("Office"), Pm: nil, Note: ""}
	loop.OnLocalEdit(1, "2024-06-03", &value)

	// Оптимистично: снимок обновлен до завершения сохранения
	snapshot := loop.Snapshot()
	require.NotNil(t, snapshot[1]["2024-06-03"])
	assert.Equal(t, "Office", *snapshot[1]["2024-06-03"].Am)
	assert.Equal(t, StateSaving, loop.State(broadcast.TopicSchedule))

	require.Eventually(t, func() bool {
		_, saves, _ := store.counts()
		return saves == 1
	}, time.Second, 5*time.Millisecond)

	// После льготного периода семейство возвращается в Idle
	require.Eventually(t, func() bool {
		return loop.State(broadcast.TopicSchedule) == StateIdle
	}, time.Second, 5*time.Millisecond)
}

// Шквал событий одной массовой правки коалесцируется в одну перезагрузку.
func TestDebounceCoalescesBurst(t *testing.T) {
	store := &fakeStore{monthSnapshot: models.MonthSnapshot{
		1: {"2024-06-03": {Am: strPtr("WFH")}},
	}}
	loop := newTestLoop(t, store, testConfig(nil))

	for i := 0; i < 10; i++ {
		loop.OnRemoteNotification(broadcast.Event{Topic: broadcast.TopicSchedule, Origin: "other-session"})
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		loads, _, _ := store.counts()
		return loads == 1
	}, time.Second, 5*time.Millisecond)

	// Больше перезагрузок не приходит
	time.Sleep(60 * time.Millisecond)
	loads, _, _ := store.counts()
	assert.Equal(t, 1, loads)

	// Снимок заменен целиком состоянием сервера
	snapshot := loop.Snapshot()
	require.NotNil(t, snapshot[1]["2024-06-03"])
	assert.Equal(t, "WFH", *snapshot[1]["2024-06-03"].Am)
}

// Собственные события отбрасываются по ID сессии.
func TestOwnEventsAreFiltered(t *testing.T) {
	store := &fakeStore{}
	loop := newTestLoop(t, store, testConfig(nil))

	loop.OnRemoteNotification(broadcast.Event{Topic: broadcast.TopicSchedule, Origin: "my-session"})

	time.Sleep(80 * time.Millisecond)
	loads, _, _ := store.counts()
	assert.Equal(t, 0, loads, "собственное событие не должно вызывать перезагрузку")
}

// События, пришедшие во время сохранения или льготного периода,
// отбрасываются: перезагрузка затерла бы локальную правку.
func TestNotificationsSuppressedWhileSaving(t *testing.T) {
	store := &fakeStore{}
	loop := newTestLoop(t, store, testConfig(nil))

	loop.OnLocalEdit(1, "2024-06-03", &models.CellValue{Am: strPtr("Office")})
	require.Equal(t, StateSaving, loop.State(broadcast.TopicSchedule))

	loop.OnRemoteNotification(broadcast.Event{Topic: broadcast.TopicSchedule, Origin: "other-session"})

	// Даже после возврата в Idle отброшенное событие не воскресает
	require.Eventually(t, func() bool {
		return loop.State(broadcast.TopicSchedule) == StateIdle
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	loads, _, _ := store.counts()
	assert.Equal(t, 0, loads)
}

// После льготного периода чужие события снова приводят к перезагрузке.
func TestNotificationsHonoredAfterGrace(t *testing.T) {
	store := &fakeStore{}
	loop := newTestLoop(t, store, testConfig(nil))

	loop.OnLocalEdit(1, "2024-06-03", &models.CellValue{Am: strPtr("Office")})
	require.Eventually(t, func() bool {
		return loop.State(broadcast.TopicSchedule) == StateIdle
	}, time.Second, 5*time.Millisecond)

	loop.OnRemoteNotification(broadcast.Event{Topic: broadcast.TopicSchedule, Origin: "other-session"})

	require.Eventually(t, func() bool {
		loads, _, _ := store.counts()
		return loads == 1
	}, time.Second, 5*time.Millisecond)
}

// Сохранение семейства schedule не подавляет перезагрузки других семейств.
func TestTopicStatesAreIndependent(t *testing.T) {
	store := &fakeStore{users: []models.UserPublicInfo{{ID: 1, Name: "alice"}}}
	loop := newTestLoop(t, store, testConfig(nil))

	loop.OnLocalEdit(1, "2024-06-03", &models.CellValue{Am: strPtr("Office")})
	require.Equal(t, StateSaving, loop.State(broadcast.TopicSchedule))

	loop.OnRemoteNotification(broadcast.Event{Topic: broadcast.TopicUser, Origin: "other-session"})

	require.Eventually(t, func() bool {
		_, _, userLoads := store.counts()
		return userLoads == 1
	}, time.Second, 5*time.Millisecond)

	users := loop.Users()
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Name)
}

// При ошибке сохранения оптимистичная правка откатывается и вызывается OnError.
func TestSaveFailureRollsBack(t *testing.T) {
	saveErr := errors.New("сервер недоступен")
	store := &fakeStore{}

	errs := make(chan error, 1)
	loop := newTestLoop(t, store, testConfig(func(err error) { errs <- err }))

	// Исходное значение ячейки
	loop.OnLocalEdit(1, "2024-06-03", &models.CellValue{Am: strPtr("Office")})
	require.Eventually(t, func() bool {
		return loop.State(broadcast.TopicSchedule) == StateIdle
	}, time.Second, 5*time.Millisecond)

	// Правка, которую сервер отвергнет
	store.mu.Lock()
	store.saveErr = saveErr
	store.mu.Unlock()
	loop.OnLocalEdit(1, "2024-06-03", &models.CellValue{Am: strPtr("WFH")})

	select {
	case err := <-errs:
		require.ErrorIs(t, err, saveErr)
	case <-time.After(time.Second):
		t.Fatal("OnError не вызван")
	}

	snapshot := loop.Snapshot()
	require.NotNil(t, snapshot[1]["2024-06-03"])
	assert.Equal(t, "Office", *snapshot[1]["2024-06-03"].Am, "правка откачена к прежнему значению")
	assert.Equal(t, StateIdle, loop.State(broadcast.TopicSchedule))
}

// Завершение сохранения, вытесненного более поздней правкой, не взводит
// льготный период: пока новое сохранение в полете, семейство остается в
// Saving и перезагрузки по-прежнему отбрасываются.
func TestStaleSaveCompletionKeepsSuppression(t *testing.T) {
	firstGate := make(chan struct{})
	secondGate := make(chan struct{})
	store := &fakeStore{saveGates: map[int]chan struct{}{1: firstGate, 2: secondGate}}
	loop := newTestLoop(t, store, testConfig(nil))

	loop.OnLocalEdit(1, "2024-06-03", &models.CellValue{Am: strPtr("Office")})
	require.Eventually(t, func() bool {
		_, saves, _ := store.counts()
		return saves == 1
	}, time.Second, 5*time.Millisecond)

	loop.OnLocalEdit(1, "2024-06-04", &models.CellValue{Am: strPtr("WFH")})
	require.Eventually(t, func() bool {
		_, saves, _ := store.counts()
		return saves == 2
	}, time.Second, 5*time.Millisecond)

	// Первое сохранение завершается, пока второе еще в полете
	close(firstGate)

	// Даже спустя льготный период семейство остается в Saving: устаревшее
	// сохранение не имеет права вернуть его в Idle
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, StateSaving, loop.State(broadcast.TopicSchedule))

	loop.OnRemoteNotification(broadcast.Event{Topic: broadcast.TopicSchedule, Origin: "other-session"})
	time.Sleep(50 * time.Millisecond)
	loads, _, _ := store.counts()
	assert.Equal(t, 0, loads, "перезагрузка подавлена, пока второе сохранение в полете")

	// Завершение актуального сохранения взводит льготный период как обычно
	close(secondGate)
	require.Eventually(t, func() bool {
		return loop.State(broadcast.TopicSchedule) == StateIdle
	}, time.Second, 5*time.Millisecond)
}

// Очистка ячейки (nil) сохраняется как явно пустая и уходит на сверку.
func TestOnLocalEditClearCell(t *testing.T) {
	store := &fakeStore{}
	loop := newTestLoop(t, store, testConfig(nil))

	loop.OnLocalEdit(1, "2024-06-03", &models.CellValue{Am: strPtr("Office")})
	require.Eventually(t, func() bool {
		_, saves, _ := store.counts()
		return saves == 1
	}, time.Second, 5*time.Millisecond)

	loop.OnLocalEdit(1, "2024-06-03", nil)

	require.Eventually(t, func() bool {
		_, saves, _ := store.counts()
		return saves == 2
	}, time.Second, 5*time.Millisecond)

	store.mu.Lock()
	saved := store.lastSaved
	store.mu.Unlock()
	require.Contains(t, saved, int64(1))
	assert.Nil(t, saved[int64(1)]["2024-06-03"], "очищенная ячейка присутствует в снимке как пустая")
}

// Смена месяца заменяет снимок целиком и отменяет отложенные операции.
func TestSetMonthReplacesSnapshot(t *testing.T) {
	store := &fakeStore{monthSnapshot: models.MonthSnapshot{
		2: {"2024-07-01": {Am: strPtr("Office")}},
	}}
	loop := newTestLoop(t, store, testConfig(nil))

	loop.OnRemoteNotification(broadcast.Event{Topic: broadcast.TopicSchedule, Origin: "other-session"})

	require.NoError(t, loop.SetMonth(models.YearMonth{Year: 2024, Month: 7}))

	snapshot := loop.Snapshot()
	require.NotNil(t, snapshot[2]["2024-07-01"])

	// Отложенная дебаунсом перезагрузка старого месяца отменена
	time.Sleep(60 * time.Millisecond)
	loads, _, _ := store.counts()
	assert.Equal(t, 1, loads, "единственная загрузка — из SetMonth")
}

// После Close ни таймеры, ни завершающиеся сохранения не меняют состояние.
func TestCloseCancelsPendingWork(t *testing.T) {
	store := &fakeStore{}
	loop := NewLoop("my-session", models.YearMonth{Year: 2024, Month: 6}, store, testConfig(nil))

	loop.OnRemoteNotification(broadcast.Event{Topic: broadcast.TopicSchedule, Origin: "other-session"})
	loop.Close()

	time.Sleep(80 * time.Millisecond)
	loads, _, _ := store.counts()
	assert.Equal(t, 0, loads, "отложенная перезагрузка не должна сработать после Close")

	// Правки после Close игнорируются
	loop.OnLocalEdit(1, "2024-06-03", &models.CellValue{Am: strPtr("Office")})
	assert.Empty(t, loop.Snapshot())
}
