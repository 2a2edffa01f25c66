package service

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"time"

	"puntibot/config"
	"puntibot/logger"
	"puntibot/util/common"
	"puntibot/web/locale"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpproxy"
	"go.uber.org/atomic"
)

// awardTrigger is the text payload that claims the daily point, matched as a
// substring of any chat message.
const awardTrigger = "+1"

var (
	bot        *telego.Bot
	botHandler *th.BotHandler
	isRunning  atomic.Bool
)

type Tgbot struct {
	scoreboardService *ScoreboardService
	serverService     *ServerService
}

func NewTgbot(scoreboardService *ScoreboardService, serverService *ServerService) *Tgbot {
	return &Tgbot{
		scoreboardService: scoreboardService,
		serverService:     serverService,
	}
}

func (t *Tgbot) I18nBot(name string, params ...string) string {
	return locale.I18n(locale.Bot, name, params...)
}

func (t *Tgbot) Start(i18nFS fs.FS) error {
	err := locale.InitLocalizer(i18nFS, config.GetTgLang())
	if err != nil {
		return err
	}

	tgBotToken := config.GetBotToken()
	if tgBotToken == "" {
		return common.NewError("BOT_TOKEN is not set")
	}

	bot, err = t.NewBot(tgBotToken, config.GetTgProxy())
	if err != nil {
		logger.Error("Failed to initialize Telegram bot API:", err)
		return err
	}

	err = bot.SetMyCommands(context.Background(), &telego.SetMyCommandsParams{
		Commands: []telego.BotCommand{
			{Command: "start", Description: t.I18nBot("tgbot.commands.startDesc")},
			{Command: "help", Description: t.I18nBot("tgbot.commands.helpDesc")},
			{Command: "register", Description: t.I18nBot("tgbot.commands.registerDesc")},
			{Command: "classifica", Description: t.I18nBot("tgbot.commands.rankingDesc")},
			{Command: "miei", Description: t.I18nBot("tgbot.commands.mineDesc")},
			{Command: "vittorie", Description: t.I18nBot("tgbot.commands.victoriesDesc")},
			{Command: "status", Description: t.I18nBot("tgbot.commands.statusDesc")},
			{Command: "id", Description: t.I18nBot("tgbot.commands.idDesc")},
		},
	})
	if err != nil {
		logger.Warning("Failed to set bot commands:", err)
	}

	if !isRunning.Load() {
		logger.Info("Telegram bot receiver started")
		go t.OnReceive()
		isRunning.Store(true)
	}

	return nil
}

func (t *Tgbot) NewBot(token string, proxyUrl string) (*telego.Bot, error) {
	if proxyUrl == "" {
		return telego.NewBot(token)
	}

	if !strings.HasPrefix(proxyUrl, "socks5://") {
		logger.Warning("Invalid socks5 URL, using default")
		return telego.NewBot(token)
	}

	_, err := url.Parse(proxyUrl)
	if err != nil {
		logger.Warningf("Can't parse proxy URL, using default instance for tgbot: %v", err)
		return telego.NewBot(token)
	}

	return telego.NewBot(token, telego.WithFastHTTPClient(&fasthttp.Client{
		Dial: fasthttpproxy.FasthttpSocksDialer(proxyUrl),
	}))
}

func (t *Tgbot) IsRunning() bool {
	return isRunning.Load()
}

func (t *Tgbot) Stop() {
	if botHandler != nil {
		botHandler.Stop()
	}
	logger.Info("Stop Telegram receiver ...")
	isRunning.Store(false)
}

func (t *Tgbot) OnReceive() {
	params := telego.GetUpdatesParams{
		Timeout: 10,
	}

	updates, _ := bot.UpdatesViaLongPolling(context.Background(), &params)

	botHandler, _ = th.NewBotHandler(bot, updates)

	botHandler.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		t.answerCommand(&message, message.Chat.ID)
		return nil
	}, th.AnyCommand())

	botHandler.HandleCallbackQuery(func(ctx *th.Context, query telego.CallbackQuery) error {
		t.answerCallback(&query)
		return nil
	}, th.AnyCallbackQueryWithMessage())

	botHandler.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		t.onText(&message)
		return nil
	}, th.AnyMessage())

	botHandler.Start()
}

func (t *Tgbot) answerCommand(message *telego.Message, chatId int64) {
	if message.From == nil {
		return
	}

	msg, onlyMessage := "", false

	command, _, _ := tu.ParseCommand(message.Text)

	// first contact doubles as implicit registration
	t.scoreboardService.EnsureChat(chatId)

	switch command {
	case "help":
		msg += t.I18nBot("tgbot.commands.help")
		msg += "\n\n" + t.I18nBot("tgbot.commands.pleaseChoose")
	case "start":
		msg += t.I18nBot("tgbot.commands.start", "Firstname=="+message.From.FirstName)
		msg += "\n\n" + t.I18nBot("tgbot.commands.pleaseChoose")
	case "register":
		onlyMessage = true
		t.scoreboardService.RegisterChat(chatId)
		msg += t.I18nBot("tgbot.messages.registered")
	case "classifica":
		onlyMessage = true
		msg += t.rankingMsg()
	case "miei":
		onlyMessage = true
		user := userKey(message.From)
		total := t.scoreboardService.Total(user)
		msg += t.I18nBot("tgbot.messages.myPoints", "User=="+user, "Total=="+strconv.Itoa(total))
	case "vittorie":
		onlyMessage = true
		msg += t.victoriesMsg()
	case "status":
		onlyMessage = true
		msg += t.statusMsg()
	case "id":
		onlyMessage = true
		msg += t.I18nBot("tgbot.commands.getID", "ID=="+strconv.FormatInt(message.From.ID, 10))
	default:
		msg += t.I18nBot("tgbot.commands.unknown")
	}

	if msg != "" {
		t.sendResponse(chatId, msg, onlyMessage)
	}
}

// Helper function to send the message based on onlyMessage flag.
func (t *Tgbot) sendResponse(chatId int64, msg string, onlyMessage bool) {
	if onlyMessage {
		t.SendMsgToTgbot(chatId, msg)
	} else {
		t.SendAnswer(chatId, msg)
	}
}

func (t *Tgbot) answerCallback(callbackQuery *telego.CallbackQuery) {
	chatId := callbackQuery.Message.GetChat().ID
	user := userKey(&callbackQuery.From)

	t.scoreboardService.EnsureChat(chatId)

	switch callbackQuery.Data {
	case "award_point":
		t.sendCallbackAnswerTgBot(callbackQuery.ID, "")
		t.SendMsgToTgbot(chatId, t.awardMsg(user))
	case "get_ranking":
		t.sendCallbackAnswerTgBot(callbackQuery.ID, "")
		t.SendMsgToTgbot(chatId, t.rankingMsg())
	case "get_mine":
		t.sendCallbackAnswerTgBot(callbackQuery.ID, "")
		total := t.scoreboardService.Total(user)
		t.SendMsgToTgbot(chatId, t.I18nBot("tgbot.messages.myPoints", "User=="+user, "Total=="+strconv.Itoa(total)))
	case "get_victories":
		t.sendCallbackAnswerTgBot(callbackQuery.ID, "")
		t.SendMsgToTgbot(chatId, t.victoriesMsg())
	default:
		t.sendCallbackAnswerTgBot(callbackQuery.ID, t.I18nBot("tgbot.commands.unknown"))
	}
}

func (t *Tgbot) onText(message *telego.Message) {
	t.scoreboardService.EnsureChat(message.Chat.ID)

	if message.From == nil || message.Text == "" {
		return
	}
	if !strings.Contains(message.Text, awardTrigger) {
		return
	}
	t.SendMsgToTgbot(message.Chat.ID, t.awardMsg(userKey(message.From)))
}

func (t *Tgbot) awardMsg(user string) string {
	today := time.Now().UTC().Format(DateLayout)
	total, err := t.scoreboardService.AwardPoint(user, today)
	if err != nil {
		return t.I18nBot("tgbot.messages.awardRefused", "User=="+user)
	}
	return t.I18nBot("tgbot.messages.awardSuccess", "User=="+user, "Total=="+strconv.Itoa(total))
}

func (t *Tgbot) rankingMsg() string {
	standings := t.scoreboardService.Ranking()
	if len(standings) == 0 {
		return t.I18nBot("tgbot.messages.rankingEmpty")
	}
	lines := make([]string, 0, len(standings)+1)
	lines = append(lines, t.I18nBot("tgbot.messages.rankingHeader"))
	for i, standing := range standings {
		lines = append(lines, fmt.Sprintf("%d. %s: %d", i+1, standing.User, standing.Score))
	}
	return strings.Join(lines, "\n")
}

func (t *Tgbot) victoriesMsg() string {
	victories := t.scoreboardService.Victories()
	if len(victories) == 0 {
		return t.I18nBot("tgbot.messages.victoriesEmpty")
	}
	lines := make([]string, 0, len(victories)+1)
	lines = append(lines, t.I18nBot("tgbot.messages.victoriesHeader"))
	for _, victory := range victories {
		lines = append(lines, fmt.Sprintf("• %s — %s", victory.Winner, victory.Date))
	}
	return strings.Join(lines, "\n")
}

func (t *Tgbot) statusMsg() string {
	status := t.serverService.GetStatus()
	return t.I18nBot("tgbot.messages.status",
		"Cpu=="+strconv.FormatFloat(status.Cpu, 'f', 1, 64),
		"MemUsed=="+strconv.FormatUint(status.MemUsed/1024/1024, 10),
		"MemTotal=="+strconv.FormatUint(status.MemTotal/1024/1024, 10),
		"Uptime=="+formatUptime(status.Uptime),
	)
}

func formatUptime(seconds uint64) string {
	d := time.Duration(seconds) * time.Second
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// userKey derives the stable leaderboard identity from Telegram user data:
// the handle when there is one, otherwise the first name, otherwise a
// synthetic id-based key.
func userKey(user *telego.User) string {
	if user == nil {
		return ""
	}
	if user.Username != "" {
		return "@" + user.Username
	}
	if user.FirstName != "" {
		return user.FirstName
	}
	return "user" + strconv.FormatInt(user.ID, 10)
}

func (t *Tgbot) SendAnswer(chatId int64, msg string) {
	numericKeyboard := tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(t.I18nBot("tgbot.buttons.award")).WithCallbackData("award_point"),
			tu.InlineKeyboardButton(t.I18nBot("tgbot.buttons.ranking")).WithCallbackData("get_ranking"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(t.I18nBot("tgbot.buttons.mine")).WithCallbackData("get_mine"),
			tu.InlineKeyboardButton(t.I18nBot("tgbot.buttons.victories")).WithCallbackData("get_victories"),
		),
	)
	t.SendMsgToTgbot(chatId, msg, numericKeyboard)
}

func (t *Tgbot) SendMsgToTgbot(chatId int64, msg string, replyMarkup ...telego.ReplyMarkup) {
	if !isRunning.Load() {
		return
	}

	if msg == "" {
		logger.Info("[tgbot] message is empty!")
		return
	}

	var allMessages []string
	limit := 2000

	// paging message if it is big
	if len(msg) > limit {
		messages := strings.Split(msg, "\r\n\r\n")
		lastIndex := -1

		for _, message := range messages {
			if (len(allMessages) == 0) || (len(allMessages[lastIndex])+len(message) > limit) {
				allMessages = append(allMessages, message)
				lastIndex++
			} else {
				allMessages[lastIndex] += "\r\n\r\n" + message
			}
		}
		if strings.TrimSpace(allMessages[len(allMessages)-1]) == "" {
			allMessages = allMessages[:len(allMessages)-1]
		}
	} else {
		allMessages = append(allMessages, msg)
	}
	for n, message := range allMessages {
		params := telego.SendMessageParams{
			ChatID:    tu.ID(chatId),
			Text:      message,
			ParseMode: "HTML",
		}
		// only add replyMarkup to last message
		if len(replyMarkup) > 0 && n == (len(allMessages)-1) {
			params.ReplyMarkup = replyMarkup[0]
		}
		_, err := bot.SendMessage(context.Background(), &params)
		if err != nil {
			logger.Warning("Error sending telegram message :", err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

// SendMsgToChat delivers a single message to the given chat. Used by the
// cron jobs; a send failure is returned for the caller to log, never retried.
func (t *Tgbot) SendMsgToChat(chatId int64, msg string) error {
	if !isRunning.Load() {
		return common.NewError("Telegram bot is not running")
	}
	params := telego.SendMessageParams{
		ChatID:    tu.ID(chatId),
		Text:      msg,
		ParseMode: "HTML",
	}
	_, err := bot.SendMessage(context.Background(), &params)
	return err
}

func (t *Tgbot) sendCallbackAnswerTgBot(id string, message string) {
	params := telego.AnswerCallbackQueryParams{
		CallbackQueryID: id,
		Text:            message,
	}
	if err := bot.AnswerCallbackQuery(context.Background(), &params); err != nil {
		logger.Warning(err)
	}
}
