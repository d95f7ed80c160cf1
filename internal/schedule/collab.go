package schedule

import (
	"context"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
)

// Persistence is the authoritative event store. Each call succeeds or fails
// as a whole.
type Persistence interface {
	List(ctx context.Context) ([]model.Event, error)
	Create(ctx context.Context, f model.EventForm) (model.Event, error)
	BulkCreate(ctx context.Context, forms []model.EventForm) ([]model.Event, error)
	Update(ctx context.Context, id string, ev model.Event) (model.Event, error)
	Delete(ctx context.Context, id string) error
}

// Scope is the answer to "this instance only, or the whole series?".
type Scope int

const (
	ScopeCancel Scope = iota
	ScopeSingle
	ScopeSeries
)

func (s Scope) String() string {
	switch s {
	case ScopeSingle:
		return "single"
	case ScopeSeries:
		return "series"
	default:
		return "cancel"
	}
}

// ParseScope maps "single" and "series" to their scope; anything else is
// ScopeCancel.
func ParseScope(s string) Scope {
	switch s {
	case "single":
		return ScopeSingle
	case "series":
		return ScopeSeries
	default:
		return ScopeCancel
	}
}

// Action names the mutation a scope prompt is asked for.
type Action string

const (
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Prompter is the confirmation dialog shown during a mutation.
type Prompter interface {
	// ChooseScope asks whether a mutation of a recurring instance applies to
	// that instance only or to its whole series.
	ChooseScope(ctx context.Context, target model.Event, action Action) (Scope, error)
	// ProceedDespite asks whether to save a form that overlaps existing events.
	ProceedDespite(ctx context.Context, f model.EventForm, conflicts []model.Event) (bool, error)
}

// Answers is a Prompter with answers fixed in advance, as an HTTP request
// carries them in its query string.
type Answers struct {
	Scope Scope
	Force bool
}

func (a Answers) ChooseScope(context.Context, model.Event, Action) (Scope, error) {
	return a.Scope, nil
}

func (a Answers) ProceedDespite(context.Context, model.EventForm, []model.Event) (bool, error) {
	return a.Force, nil
}

const (
	NoticeCreated   = "일정이 추가되었습니다"
	NoticeUpdated   = "일정이 수정되었습니다"
	NoticeDeleted   = "일정이 삭제되었습니다"
	NoticeMoved     = "일정이 이동되었습니다"
	NoticeLoaded    = "일정 로딩 완료!"
	NoticeLoadFail  = "이벤트 로딩 실패"
	NoticeSaveFail  = "일정 저장 실패"
	NoticeDeleteErr = "일정 삭제 실패"
)

// Notice is a one-shot message for the user.
type Notice struct {
	Message string
	Failure bool
}

// Notifier delivers notices. It must not block.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// logNotifier writes notices to the application log.
type logNotifier struct{}

func (logNotifier) Notify(n Notice) {
	if n.Failure {
		appLog.Warn("notice", "message", n.Message)
		return
	}
	appLog.Info("notice", "message", n.Message)
}
