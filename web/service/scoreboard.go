package service

import (
	"errors"
	"sort"
	"sync"

	"puntibot/database"
	"puntibot/database/model"
	"puntibot/logger"
)

// DateLayout is the calendar-day format used everywhere: award dates,
// victory dates and the rollover day sampling. Always UTC.
const DateLayout = "2006-01-02"

// VictoryMargin is the minimum lead over the runner-up that registers a
// victory at the daily rollover.
const VictoryMargin = 3

// ErrAlreadyAwarded is the expected rejection when a user asks for a second
// point on the same day. It is user-visible, not an internal failure.
var ErrAlreadyAwarded = errors.New("point already awarded today")

// Standing is one leaderboard row.
type Standing struct {
	User  string
	Score int
}

// DayReport is the outcome of a daily rollover: the ranking snapshot, the
// lead over the runner-up and the victory decision.
type DayReport struct {
	Standings []Standing
	Diff      int
	Victory   bool
	Winner    string
}

// ScoreboardService owns the in-memory tables. Every mutation happens under
// its mutex and is persisted before the lock is released, so a concurrent
// award and the rollover check-and-act can never interleave.
type ScoreboardService struct {
	mu        sync.Mutex
	points    map[string]int
	lastAward map[string]string
	victories []model.Victory
	settings  model.Settings
}

func NewScoreboardService() *ScoreboardService {
	docs := database.Load()
	return &ScoreboardService{
		points:    docs.Points,
		lastAward: docs.LastAward,
		victories: docs.Victories,
		settings:  docs.Settings,
	}
}

// AwardPoint gives the user one point for the given day. The second attempt
// on the same day fails with ErrAlreadyAwarded and mutates nothing; the
// returned total is the current one either way.
func (s *ScoreboardService) AwardPoint(user string, today string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastAward[user] == today {
		return s.points[user], ErrAlreadyAwarded
	}

	s.points[user]++
	s.lastAward[user] = today
	s.persist()
	return s.points[user], nil
}

func (s *ScoreboardService) Total(user string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.points[user]
}

// Ranking returns the standings sorted by score descending. Ties are broken
// by user key ascending, which keeps the order reproducible across calls and
// restarts, unlike map iteration order.
func (s *ScoreboardService) Ranking() []Standing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rankingLocked()
}

func (s *ScoreboardService) rankingLocked() []Standing {
	standings := make([]Standing, 0, len(s.points))
	for user, score := range s.points {
		standings = append(standings, Standing{User: user, Score: score})
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Score != standings[j].Score {
			return standings[i].Score > standings[j].Score
		}
		return standings[i].User < standings[j].User
	})
	return standings
}

// Victories returns a copy of the victory log in insertion order.
func (s *ScoreboardService) Victories() []model.Victory {
	s.mu.Lock()
	defer s.mu.Unlock()
	victories := make([]model.Victory, len(s.victories))
	copy(victories, s.victories)
	return victories
}

// RegisterChat sets the daily report chat. Last writer wins.
func (s *ScoreboardService) RegisterChat(chatId int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.ChatID = chatId
	s.persist()
}

// EnsureChat registers the chat only when none is set yet: the first chat
// the bot hears from becomes the report target until /register says
// otherwise.
func (s *ScoreboardService) EnsureChat(chatId int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings.ChatID != 0 {
		return
	}
	s.settings.ChatID = chatId
	s.persist()
}

func (s *ScoreboardService) ChatID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.ChatID
}

// CloseDay runs the rollover bookkeeping for the day that just started:
// snapshot the ranking and, when the leader's margin over the runner-up
// reaches VictoryMargin, append a victory dated today. The whole
// check-and-act runs under the lock so no award can slip in between the
// snapshot and the decision.
func (s *ScoreboardService) CloseDay(today string) DayReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := DayReport{Standings: s.rankingLocked()}
	if len(report.Standings) < 2 {
		return report
	}

	report.Diff = report.Standings[0].Score - report.Standings[1].Score
	if report.Diff < VictoryMargin {
		return report
	}
	// at most one victory per calendar day
	if n := len(s.victories); n > 0 && s.victories[n-1].Date == today {
		return report
	}

	report.Victory = true
	report.Winner = report.Standings[0].User
	s.victories = append(s.victories, model.Victory{Winner: report.Winner, Date: today})
	s.persist()
	return report
}

// persist saves all four documents. A write failure is logged and swallowed:
// losing one mutation to a full disk must not take down the event loop.
func (s *ScoreboardService) persist() {
	err := database.Save(database.Documents{
		Points:    s.points,
		LastAward: s.lastAward,
		Victories: s.victories,
		Settings:  s.settings,
	})
	if err != nil {
		logger.Warning("persist state failed:", err)
	}
}
