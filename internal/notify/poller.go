package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
)

// DefaultSchedule checks for due alerts every ten seconds.
const DefaultSchedule = "@every 10s"

// Source supplies the current event collection.
type Source interface {
	Events() []model.Event
}

// Poller periodically moves due events into a Feed.
type Poller struct {
	src  Source
	feed *Feed
	loc  *time.Location
	now  func() time.Time
	cron *cron.Cron
}

// NewPoller schedules checks on spec, a cron expression or descriptor such
// as "@every 10s". Event times are read as wall-clock times in loc (time.Local
// if nil). The poller does not run until Start.
func NewPoller(src Source, feed *Feed, spec string, loc *time.Location) (*Poller, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	if loc == nil {
		loc = time.Local
	}
	p := &Poller{
		src:  src,
		feed: feed,
		loc:  loc,
		now:  time.Now,
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{}))),
	}
	if _, err := p.cron.AddFunc(spec, func() { p.Check() }); err != nil {
		return nil, fmt.Errorf("notify: bad schedule %q: %w", spec, err)
	}
	return p, nil
}

// Start begins the scheduled checks in the background.
func (p *Poller) Start() {
	appLog.Info("notification poller started", "entries", len(p.cron.Entries()))
	p.cron.Start()
}

// Stop halts scheduling and waits for a running check to finish or ctx to end.
func (p *Poller) Stop(ctx context.Context) {
	done := p.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	appLog.Info("notification poller stopped")
}

// Check pushes alerts for all due events and returns the ones added.
func (p *Poller) Check() []Alert {
	now := p.now().In(p.loc)
	due := Upcoming(p.src.Events(), now, p.feed.Notified)

	added := make([]Alert, 0, len(due))
	for _, ev := range due {
		if !p.feed.Push(ev, now) {
			continue
		}
		alert := Alert{EventID: ev.ID, Message: Message(ev), At: now}
		added = append(added, alert)
		appLog.Info("event alert", "id", ev.ID, "title", ev.Title, "minutes", ev.NotificationTime)
	}
	appLog.Debug("notification check", "due", len(due), "added", len(added))
	return added
}

// cronLogger routes cron's own logging into appLog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	appLog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	appLog.Error("cron: "+msg, err, keysAndValues...)
}
