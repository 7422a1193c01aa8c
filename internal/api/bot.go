package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	app "zonewatch/internal/application"
	"zonewatch/internal/container"
	"zonewatch/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я ищу людей на видео.

🎬 Отправьте видео, и я найду кадры, где появляются люди. Можно задать зоны, тогда я отмечу только людей внутри них.

📋 Команды:
/scan — анализ всего кадра
/zones — задать зоны и анализировать только их
/report <id> — повторить отчёт по сканированию
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ /scan или /zones
2️⃣ Отправьте видео (mp4, avi, mov, mkv, webm) файлом или как видео
3️⃣ Получите отчёт и кадры с разметкой

🗺 Зоны задаются JSON-массивом, координаты в долях кадра от 0 до 1:
[{"id":"door","color":"#ff0000","points":[{"x":0,"y":0},{"x":0.5,"y":0},{"x":0.5,"y":1},{"x":0,"y":1}]}]

/whole — забыть зоны и анализировать весь кадр`

	msgAwaitingVideo   = "🎬 Отправьте видео для анализа."
	msgAwaitingZones   = "🗺 Отправьте зоны JSON-массивом (пример в /help)."
	msgZonesAccepted   = "✅ Зон принято: %d. Теперь отправьте видео."
	msgZonesCleared    = "✅ Зоны сброшены, анализирую весь кадр. Отправьте видео."
	msgBadZones        = "⚠️ Не удалось разобрать зоны: %v"
	msgCancelled       = "❌ Операция отменена. Отправьте /scan для нового анализа."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgSendVideo       = "🎬 Пожалуйста, отправьте видео или выберите режим: /scan, /zones."
	msgBadExtension    = "⚠️ Поддерживаются только видео: %s."
	msgBusy            = "⏳ Предыдущее видео ещё обрабатывается."
	msgProcessing      = "⏳ Обрабатываю видео, это может занять несколько минут..."
	msgNoPeople        = "✅ Люди не обнаружены. Проанализировано кадров: %d."
	msgProcessingError = "⚠️ Не удалось обработать видео."
	msgReportUsage     = "Использование: /report <id сканирования>"
	msgReportNotFound  = "❓ Отчёт не найден."
)

var allowedExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".webm"}

// Bot представляет Telegram-бота
type Bot struct {
	api       *tgbotapi.BotAPI
	users     *app.UserService
	analysis  *app.AnalysisService
	maxFrames int
	timeout   time.Duration
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Info().Str("account", api.Self.UserName).Msg("Authorized")

	return &Bot{
		api:       api,
		users:     c.UserService,
		analysis:  c.AnalysisService,
		maxFrames: c.Config.Scan.MaxReplyFrames,
		timeout:   c.Config.Scan.Timeout,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("Error getting user")
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	if file, ok := videoFile(msg); ok {
		b.handleVideo(ctx, msg, user, file)
		return
	}

	if user.State == entity.StateAwaitingZones && msg.Text != "" {
		b.handleZones(ctx, msg)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendVideo)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.setState(ctx, user, b.users.Cancel)
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "scan":
		b.setState(ctx, user, b.users.BeginScan)
		b.sendMessage(chatID, msgAwaitingVideo)

	case "zones":
		b.setState(ctx, user, b.users.BeginZones)
		b.sendMessage(chatID, msgAwaitingZones)

	case "whole":
		b.setState(ctx, user, b.users.ClearZones)
		b.sendMessage(chatID, msgZonesCleared)

	case "cancel":
		b.setState(ctx, user, b.users.Cancel)
		b.sendMessage(chatID, msgCancelled)

	case "report":
		b.handleReport(ctx, chatID, strings.TrimSpace(msg.CommandArguments()))

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

func (b *Bot) setState(ctx context.Context, user *entity.User, transition func(context.Context, int64, int64) (*entity.User, error)) {
	if _, err := transition(ctx, user.ID, user.ChatID); err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Error saving user state")
	}
}

func (b *Bot) handleZones(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.AcceptZones(ctx, msg.From.ID, msg.Chat.ID, msg.Text)
	if err != nil {
		b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgBadZones, err))
		return
	}
	b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgZonesAccepted, len(user.Zones)))
}

func (b *Bot) handleReport(ctx context.Context, chatID int64, scanID string) {
	if scanID == "" {
		b.sendMessage(chatID, msgReportUsage)
		return
	}

	result, err := b.analysis.Report(ctx, scanID)
	if err != nil {
		log.Error().Err(err).Str("scan_id", scanID).Msg("Error loading report")
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	if result == nil {
		b.sendMessage(chatID, msgReportNotFound)
		return
	}

	b.sendMessage(chatID, formatReport(scanID, result, app.Summarize(result, b.maxFrames)))
}

// incomingVideo видео из сообщения: файл Telegram и его имя
type incomingVideo struct {
	FileID   string
	FileName string
}

func videoFile(msg *tgbotapi.Message) (incomingVideo, bool) {
	switch {
	case msg.Video != nil:
		name := msg.Video.FileName
		if name == "" {
			name = "video.mp4"
		}
		return incomingVideo{FileID: msg.Video.FileID, FileName: name}, true
	case msg.Document != nil:
		return incomingVideo{FileID: msg.Document.FileID, FileName: msg.Document.FileName}, true
	}
	return incomingVideo{}, false
}

// allowedVideo проверяет расширение файла
func allowedVideo(name string) bool {
	return slices.Contains(allowedExtensions, strings.ToLower(filepath.Ext(name)))
}

// handleVideo скачивает видео и запускает анализ в фоне
func (b *Bot) handleVideo(ctx context.Context, msg *tgbotapi.Message, user *entity.User, file incomingVideo) {
	chatID := msg.Chat.ID

	if !allowedVideo(file.FileName) {
		b.sendMessage(chatID, fmt.Sprintf(msgBadExtension, strings.Join(allowedExtensions, ", ")))
		return
	}
	if user.State == entity.StateProcessing {
		b.sendMessage(chatID, msgBusy)
		return
	}

	zones := user.Zones
	if _, err := b.users.SetState(ctx, user.ID, chatID, entity.StateProcessing); err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Error saving user state")
		return
	}
	b.sendMessage(chatID, msgProcessing)

	go func() {
		defer func() {
			if _, err := b.users.Cancel(ctx, user.ID, chatID); err != nil {
				log.Error().Err(err).Int64("user_id", user.ID).Msg("Error saving user state")
			}
		}()
		b.analyze(ctx, chatID, file, zones)
	}()
}

func (b *Bot) analyze(ctx context.Context, chatID int64, file incomingVideo, zones []entity.Zone) {
	path, err := b.downloadFile(file)
	if err != nil {
		log.Error().Err(err).Msg("Error downloading video")
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	defer os.Remove(path)

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	out, err := b.analysis.Analyze(ctx, app.AnalyzeRequest{VideoPath: path, Zones: zones})
	if out == nil {
		log.Error().Err(err).Msg("Video analysis rejected")
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("scan_id", out.ScanID).Msg("Video analysis incomplete")
	}

	summary := app.Summarize(out.Result, b.maxFrames)
	if summary.Total == 0 && err == nil {
		b.sendMessage(chatID, fmt.Sprintf(msgNoPeople, out.Result.FramesAnalyzed))
		return
	}

	b.sendMessage(chatID, formatReport(out.ScanID, out.Result, summary))
	b.sendFrames(ctx, chatID, out.ScanID, summary.Frames)
}

// formatReport текст отчёта о сканировании
func formatReport(scanID string, result *entity.ScanResult, s app.Summary) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "📊 Сканирование %s\n", scanID)
	fmt.Fprintf(&sb, "Кадров проанализировано: %d\n", result.FramesAnalyzed)
	fmt.Fprintf(&sb, "Время обработки: %.1f с\n", result.ProcessingTime.Seconds())
	fmt.Fprintf(&sb, "Обнаружений: %d\n", s.Total)

	if s.Total > 0 {
		fmt.Fprintf(&sb, "Первое: %s, последнее: %s\n",
			entity.FormatTimestamp(s.FirstSeen), entity.FormatTimestamp(s.LastSeen))
	}

	zoneIDs := make([]string, 0, len(s.PerZone))
	for id := range s.PerZone {
		zoneIDs = append(zoneIDs, id)
	}
	slices.Sort(zoneIDs)
	for _, id := range zoneIDs {
		fmt.Fprintf(&sb, "• зона %s: %d\n", id, s.PerZone[id])
	}

	if result.Err != nil {
		fmt.Fprintf(&sb, "⚠️ Анализ прерван: %v\n", result.Err)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) sendFrames(ctx context.Context, chatID int64, scanID string, frameIDs []string) {
	for _, id := range frameIDs {
		data, err := b.analysis.Frame(ctx, scanID, id)
		if err != nil {
			log.Warn().Err(err).Str("frame_id", id).Msg("Annotated frame unavailable")
			continue
		}

		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "frame_" + id + ".jpg", Bytes: data})
		photo.Caption = id
		if _, err := b.api.Send(photo); err != nil {
			log.Error().Err(err).Str("frame_id", id).Msg("Error sending frame")
		}
	}
}

// downloadFile скачивает файл из Telegram во временный файл
func (b *Bot) downloadFile(video incomingVideo) (string, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: video.FileID})
	if err != nil {
		return "", fmt.Errorf("get file: %w", err)
	}

	resp, err := http.Get(file.Link(b.api.Token))
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download file: status %s", resp.Status)
	}

	out, err := os.CreateTemp("", "zonewatch-*"+strings.ToLower(filepath.Ext(video.FileName)))
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("save file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Error sending message")
	}
}
