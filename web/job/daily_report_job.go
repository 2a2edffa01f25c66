package job

import (
	"strconv"
	"time"

	"puntibot/logger"
	"puntibot/web/locale"
	"puntibot/web/service"
)

// Messenger is the slice of the Telegram service the jobs need. It keeps the
// jobs testable without a live bot.
type Messenger interface {
	SendMsgToChat(chatId int64, msg string) error
	IsRunning() bool
}

// DailyReportJob watches for the UTC day to change. On every change it runs
// exactly one rollover: close the day on the scoreboard, then best-effort
// deliver the report to the registered chat. Delivery failures never touch
// the bookkeeping.
type DailyReportJob struct {
	scoreboardService *service.ScoreboardService
	messenger         Messenger
	now               func() time.Time
	lastDay           string
}

func NewDailyReportJob(scoreboardService *service.ScoreboardService, messenger Messenger) *DailyReportJob {
	j := &DailyReportJob{
		scoreboardService: scoreboardService,
		messenger:         messenger,
		now:               time.Now,
	}
	j.lastDay = j.today()
	return j
}

func (j *DailyReportJob) today() string {
	return j.now().UTC().Format(service.DateLayout)
}

func (j *DailyReportJob) Run() {
	day := j.today()
	if day == j.lastDay {
		return
	}
	j.lastDay = day

	report := j.scoreboardService.CloseDay(day)
	msg := j.buildMessage(report)

	chatId := j.scoreboardService.ChatID()
	if chatId == 0 {
		logger.Debug("no chat registered, skipping daily report")
		return
	}
	if !j.messenger.IsRunning() {
		logger.Warning("Telegram bot is not running, skipping daily report")
		return
	}
	if err := j.messenger.SendMsgToChat(chatId, msg); err != nil {
		logger.Warning("Error sending daily report:", err)
	}
}

func (j *DailyReportJob) buildMessage(report service.DayReport) string {
	switch len(report.Standings) {
	case 0:
		return locale.I18n(locale.Bot, "tgbot.messages.dayEndEmpty")
	case 1:
		standing := report.Standings[0]
		return locale.I18n(locale.Bot, "tgbot.messages.dayEndSingle",
			"User=="+standing.User,
			"Score=="+strconv.Itoa(standing.Score))
	default:
		leader, second := report.Standings[0], report.Standings[1]
		msg := locale.I18n(locale.Bot, "tgbot.messages.dayEndTop",
			"Leader=="+leader.User,
			"LeaderScore=="+strconv.Itoa(leader.Score),
			"Second=="+second.User,
			"SecondScore=="+strconv.Itoa(second.Score),
			"Diff=="+strconv.Itoa(report.Diff))
		if report.Victory {
			msg += "\n\n" + locale.I18n(locale.Bot, "tgbot.messages.dayEndWinner", "Winner=="+report.Winner)
		}
		return msg
	}
}
