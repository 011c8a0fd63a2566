package handlers

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"pickupwatch/pkg/apple"
	"pickupwatch/pkg/config"
	"pickupwatch/pkg/scheduler"
	"pickupwatch/pkg/tasks"
)

// JobLister is the part of the scheduler the status endpoints read.
type JobLister interface {
	Jobs() []scheduler.ScheduledJob
}

// HandlerService provides HTTP handlers for the status API
type HandlerService struct {
	config    *config.Config
	selection apple.Selection
	status    *tasks.StatusStore
	jobs      JobLister
	runner    tasks.Runner
	started   time.Time
	checking  atomic.Bool
	limiter   *rate.Limiter
	every     time.Duration
}

// DefaultCheckInterval is the minimum spacing of manual checks.
const DefaultCheckInterval = 10 * time.Second

type Option func(*HandlerService)

// WithCheckInterval changes how often POST /api/v1/check may run.
func WithCheckInterval(every time.Duration) Option {
	return func(h *HandlerService) { h.every = every }
}

// WithJobs exposes the watch schedule. Without it the job list is empty.
func WithJobs(j JobLister) Option {
	return func(h *HandlerService) { h.jobs = j }
}

// WithRunner enables POST /api/v1/check.
func WithRunner(r tasks.Runner) Option {
	return func(h *HandlerService) { h.runner = r }
}

func NewHandlerService(cfg *config.Config, sel apple.Selection, status *tasks.StatusStore, opts ...Option) *HandlerService {
	h := &HandlerService{
		config:    cfg,
		selection: sel,
		status:    status,
		started:   time.Now(),
		every:     DefaultCheckInterval,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.limiter = rate.NewLimiter(rate.Every(h.every), 1)
	return h
}

func (h *HandlerService) scheduledJobs() []scheduler.ScheduledJob {
	if h.jobs == nil {
		return []scheduler.ScheduledJob{}
	}
	return h.jobs.Jobs()
}

// sanitizeConfig removes credentials before the config leaves the process.
func (h *HandlerService) sanitizeConfig() map[string]interface{} {
	cfg := h.config
	out := map[string]interface{}{
		"twilio": map[string]interface{}{
			"account":    maskSecret(cfg.TwilioAccount),
			"configured": len(cfg.MissingCredentials()) == 0,
			"from":       maskNumber(cfg.FromNumber),
			"to":         maskNumber(cfg.ToNumber),
		},
		"app":     cfg.App,
		"monitor": cfg.Monitor,
		"server":  cfg.Server,
	}
	if cfg.Twilio != nil {
		out["twilio"].(map[string]interface{})["base_url"] = cfg.Twilio.BaseURL
	}
	if cfg.Telegram != nil {
		out["telegram"] = map[string]interface{}{
			"enabled":    cfg.Telegram.Enabled,
			"configured": cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "",
		}
	}
	return out
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return s[:4] + "****"
}

// maskNumber keeps the last four digits of a phone number.
func maskNumber(s string) string {
	if len(s) <= 4 {
		return s
	}
	return "****" + s[len(s)-4:]
}
