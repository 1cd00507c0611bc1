package cron

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	rcron "github.com/robfig/cron/v3"
)

// Schedule describes when a job fires. Kind "cron" uses a 6-field cron
// expression (with seconds); kind "every" repeats on a fixed interval.
type Schedule struct {
	Kind    string `json:"kind"`
	Expr    string `json:"expr,omitempty"`
	EveryMs int64  `json:"everyMs,omitempty"`
}

var exprParser = rcron.NewParser(
	rcron.Second | rcron.Minute | rcron.Hour | rcron.Dom | rcron.Month | rcron.Dow | rcron.Descriptor,
)

func (s Schedule) validate() error {
	switch s.Kind {
	case "cron":
		if _, err := exprParser.Parse(s.Expr); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", s.Expr, err)
		}
	case "every":
		if s.EveryMs <= 0 {
			return fmt.Errorf("every schedule needs a positive interval, got %dms", s.EveryMs)
		}
	default:
		return fmt.Errorf("unknown schedule kind %q", s.Kind)
	}
	return nil
}

// Payload is what a firing job asks the agent to do. Message is a natural
// language prompt (e.g. "summarize open items on the sprint board"). When
// Deliver is set the result is pushed to the given channel/chat.
type Payload struct {
	Message string `json:"message"`
	Deliver bool   `json:"deliver,omitempty"`
	Channel string `json:"channel,omitempty"`
	To      string `json:"to,omitempty"`
}

type JobState struct {
	LastRunAtMs int64  `json:"lastRunAtMs,omitempty"`
	LastStatus  string `json:"lastStatus,omitempty"`
	LastError   string `json:"lastError,omitempty"`
}

type CronJob struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Schedule    Schedule `json:"schedule"`
	Payload     Payload  `json:"payload"`
	Enabled     bool     `json:"enabled"`
	CreatedAtMs int64    `json:"createdAtMs"`
	State       JobState `json:"state"`
}

func NewCronJob(name string, schedule Schedule, payload Payload) CronJob {
	return CronJob{
		ID:          uuid.NewString(),
		Name:        name,
		Schedule:    schedule,
		Payload:     payload,
		Enabled:     true,
		CreatedAtMs: time.Now().UnixMilli(),
	}
}
