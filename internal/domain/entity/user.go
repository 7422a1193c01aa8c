package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // В главном меню
	StateAwaitingZones UserState = "awaiting_zones" // Ожидание JSON со списком зон
	StateAwaitingVideo UserState = "awaiting_video" // Ожидание видео для анализа
	StateProcessing    UserState = "processing"     // Идёт сканирование видео
)

// User представляет пользователя бота
type User struct {
	ID     int64     // Telegram User ID
	ChatID int64     // Telegram Chat ID
	State  UserState // Текущее состояние пользователя
	Zones  []Zone    // Зоны для следующего анализа; пусто: весь кадр
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// SetZones сохраняет зоны для следующего анализа
func (u *User) SetZones(zones []Zone) {
	u.Zones = append([]Zone(nil), zones...)
}

// Mode возвращает режим анализа для сохранённых зон
func (u *User) Mode() ScanMode {
	if len(u.Zones) == 0 {
		return ModeWholeFrame
	}
	return ModeZones
}
