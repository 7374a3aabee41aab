package bot

import "sync"

// Flow сценарий диалога с владельцем.
type Flow string

const (
	FlowCloseDates Flow = "close_dates"
	FlowOpenDates  Flow = "open_dates"
	FlowCalendar   Flow = "calendar"
)

// Step текущий шаг сценария.
type Step string

const (
	StepSelectingListing Step = "selecting_listing"
	StepAwaitingDates    Step = "awaiting_dates"
	StepAwaitingPeriod   Step = "awaiting_period"
)

// Session состояние одного диалога пользователя. Живёт только в памяти и
// только до завершения сценария; ListingID == 0 значит объявление ещё
// не выбрано.
type Session struct {
	Flow      Flow
	Step      Step
	ListingID int64
	ChatID    int64
}

// SessionStore сессии по ID пользователя Telegram. На пользователя — не
// больше одного активного сценария: новый Entry безусловно перетирает
// старую сессию (последняя команда выигрывает). Срока жизни у сессий нет:
// брошенный на середине диалог висит до следующей команды.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*Session)}
}

// Get сессия пользователя или nil.
func (s *SessionStore) Get(userID int64) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[userID]
}

// Set заменяет сессию пользователя.
func (s *SessionStore) Set(userID int64, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = sess
}

// Clear удаляет сессию пользователя. Вызывается на любом терминальном
// выходе сценария, чтобы состояние не протекло в следующий диалог.
func (s *SessionStore) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
