package job

import (
	"strconv"
	"time"

	"puntibot/logger"
	"puntibot/web/locale"
	"puntibot/web/service"

	"github.com/shirou/gopsutil/v4/cpu"
)

// CheckCpuJob alarms the registered chat when the CPU stays above the
// configured threshold for three consecutive samples.
type CheckCpuJob struct {
	scoreboardService  *service.ScoreboardService
	messenger          Messenger
	threshold          int
	overThresholdCount int
	lastNotifyTime     time.Time
}

func NewCheckCpuJob(scoreboardService *service.ScoreboardService, messenger Messenger, threshold int) *CheckCpuJob {
	return &CheckCpuJob{
		scoreboardService: scoreboardService,
		messenger:         messenger,
		threshold:         threshold,
	}
}

func (j *CheckCpuJob) Run() {
	notifyInterval := 10 * time.Minute

	percent, err := cpu.Percent(10*time.Second, false)
	if err != nil || len(percent) == 0 {
		return
	}

	now := time.Now()
	if percent[0] > float64(j.threshold) {
		j.overThresholdCount++
	} else {
		j.overThresholdCount = 0
	}

	if j.overThresholdCount >= 3 && now.Sub(j.lastNotifyTime) > notifyInterval {
		chatId := j.scoreboardService.ChatID()
		if chatId == 0 || !j.messenger.IsRunning() {
			return
		}
		msg := locale.I18n(locale.Bot, "tgbot.messages.cpuThreshold",
			"Percent=="+strconv.FormatFloat(percent[0], 'f', 2, 64),
			"Threshold=="+strconv.Itoa(j.threshold))
		if err := j.messenger.SendMsgToChat(chatId, msg); err != nil {
			logger.Warning("Error sending cpu alarm:", err)
		}
		j.lastNotifyTime = now
		j.overThresholdCount = 0
	}
}
