package job

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"puntibot/database"
	"puntibot/web/locale"
	"puntibot/web/service"
)

type fakeMessenger struct {
	running  bool
	failing  bool
	attempts int
	chatId   int64
	sent     []string
}

func (m *fakeMessenger) SendMsgToChat(chatId int64, msg string) error {
	m.attempts++
	m.chatId = chatId
	if m.failing {
		return errors.New("send failed")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMessenger) IsRunning() bool {
	return m.running
}

func newTestJob(t *testing.T, scores map[string]int) (*DailyReportJob, *service.ScoreboardService, *fakeMessenger) {
	t.Helper()

	if err := locale.InitLocalizer(os.DirFS(".."), "it"); err != nil {
		t.Fatal(err)
	}
	if err := database.Init(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	scoreboard := service.NewScoreboardService()
	for user, score := range scores {
		for i := 0; i < score; i++ {
			if _, err := scoreboard.AwardPoint(user, fmt.Sprintf("2026-07-%02d", i+1)); err != nil {
				t.Fatalf("seeding %s: %v", user, err)
			}
		}
	}

	messenger := &fakeMessenger{running: true}
	j := NewDailyReportJob(scoreboard, messenger)
	return j, scoreboard, messenger
}

// setClock pins the job's clock and resets the observed day to match.
func setClock(j *DailyReportJob, now time.Time) {
	j.now = func() time.Time { return now }
	j.lastDay = j.today()
}

func TestRunWithoutDayChange(t *testing.T) {
	j, scoreboard, messenger := newTestJob(t, map[string]int{"@anna": 5, "@bruno": 2})
	scoreboard.RegisterChat(42)
	setClock(j, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))

	j.Run()
	j.Run()

	if messenger.attempts != 0 {
		t.Errorf("attempts = %d, want 0", messenger.attempts)
	}
	if got := len(scoreboard.Victories()); got != 0 {
		t.Errorf("Victories len = %d, want 0", got)
	}
}

func TestRolloverWithVictory(t *testing.T) {
	j, scoreboard, messenger := newTestJob(t, map[string]int{"@anna": 5, "@bruno": 2})
	scoreboard.RegisterChat(42)

	now := time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)
	setClock(j, now)
	j.Run()

	j.now = func() time.Time { return now.Add(2 * time.Minute) }
	j.Run()

	if len(messenger.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(messenger.sent))
	}
	if messenger.chatId != 42 {
		t.Errorf("chatId = %d, want 42", messenger.chatId)
	}

	msg := messenger.sent[0]
	for _, want := range []string{"@anna", "5", "@bruno", "2", "Differenza: +3", "Vincitore del giorno: @anna"} {
		if !strings.Contains(msg, want) {
			t.Errorf("report %q does not contain %q", msg, want)
		}
	}

	victories := scoreboard.Victories()
	if len(victories) != 1 {
		t.Fatalf("Victories len = %d, want 1", len(victories))
	}
	if victories[0].Winner != "@anna" || victories[0].Date != "2026-08-31" {
		t.Errorf("victory = %+v, want {@anna 2026-08-31}", victories[0])
	}

	// same day again: the rollover must not re-fire
	j.Run()
	if len(messenger.sent) != 1 {
		t.Errorf("sent %d messages after repeat run, want 1", len(messenger.sent))
	}
}

func TestRolloverBelowMargin(t *testing.T) {
	j, scoreboard, messenger := newTestJob(t, map[string]int{"@anna": 4, "@bruno": 3})
	scoreboard.RegisterChat(42)

	now := time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)
	setClock(j, now)
	j.now = func() time.Time { return now.Add(2 * time.Minute) }
	j.Run()

	if len(messenger.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(messenger.sent))
	}
	msg := messenger.sent[0]
	for _, want := range []string{"@anna", "4", "@bruno", "3", "Differenza: +1"} {
		if !strings.Contains(msg, want) {
			t.Errorf("report %q does not contain %q", msg, want)
		}
	}
	if strings.Contains(msg, "Vincitore") {
		t.Errorf("report %q names a winner, want none", msg)
	}
	if got := len(scoreboard.Victories()); got != 0 {
		t.Errorf("Victories len = %d, want 0", got)
	}
}

func TestRolloverEmptyBoard(t *testing.T) {
	j, scoreboard, messenger := newTestJob(t, nil)
	scoreboard.RegisterChat(42)

	now := time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)
	setClock(j, now)
	j.now = func() time.Time { return now.Add(2 * time.Minute) }
	j.Run()

	if len(messenger.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(messenger.sent))
	}
	if !strings.Contains(messenger.sent[0], "nessun punto") {
		t.Errorf("report %q, want a no-points notice", messenger.sent[0])
	}
}

func TestRolloverSinglePlayer(t *testing.T) {
	j, scoreboard, messenger := newTestJob(t, map[string]int{"@anna": 5})
	scoreboard.RegisterChat(42)

	now := time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)
	setClock(j, now)
	j.now = func() time.Time { return now.Add(2 * time.Minute) }
	j.Run()

	if len(messenger.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(messenger.sent))
	}
	msg := messenger.sent[0]
	if !strings.Contains(msg, "Solo un giocatore") || !strings.Contains(msg, "@anna") {
		t.Errorf("report %q, want the single-player notice for @anna", msg)
	}
	if got := len(scoreboard.Victories()); got != 0 {
		t.Errorf("Victories len = %d, want 0", got)
	}
}

func TestRolloverWithoutRegisteredChat(t *testing.T) {
	j, scoreboard, messenger := newTestJob(t, map[string]int{"@anna": 5, "@bruno": 2})

	now := time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)
	setClock(j, now)
	j.now = func() time.Time { return now.Add(2 * time.Minute) }
	j.Run()

	// no destination: nothing sent, but the victory bookkeeping still ran
	if messenger.attempts != 0 {
		t.Errorf("attempts = %d, want 0", messenger.attempts)
	}
	if got := len(scoreboard.Victories()); got != 1 {
		t.Errorf("Victories len = %d, want 1", got)
	}
}

func TestDeliveryFailureDoesNotAffectBookkeeping(t *testing.T) {
	j, scoreboard, messenger := newTestJob(t, map[string]int{"@anna": 5, "@bruno": 2})
	scoreboard.RegisterChat(42)
	messenger.failing = true

	now := time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)
	setClock(j, now)
	j.now = func() time.Time { return now.Add(2 * time.Minute) }
	j.Run()

	if messenger.attempts != 1 {
		t.Fatalf("attempts = %d, want 1", messenger.attempts)
	}
	if got := len(scoreboard.Victories()); got != 1 {
		t.Errorf("Victories len = %d, want 1 despite delivery failure", got)
	}

	// the day was still consumed: no retry on the next tick
	j.Run()
	if messenger.attempts != 1 {
		t.Errorf("attempts after second run = %d, want 1 (no retry)", messenger.attempts)
	}
}
