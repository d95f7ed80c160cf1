package model

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MsgRequired         = "필수 정보를 모두 입력해주세요."
	MsgStartAfterEnd    = "시작 시간은 종료 시간보다 빨라야 합니다."
	MsgEndBeforeStart   = "종료 시간은 시작 시간보다 늦어야 합니다."
	MsgRepeatEndMissing = "반복 종료일을 입력해주세요."
	MsgRepeatEndBefore  = "반복 종료일은 시작일 이후여야 합니다."
	MsgRepeatInterval   = "반복 간격은 1 이상이어야 합니다."
	MsgRepeatTooMany    = "반복 횟수가 너무 많습니다. 반복 종료일을 앞당겨주세요."
	MsgCategory         = "카테고리를 선택해주세요."
	MsgRepeatType       = "반복 유형이 올바르지 않습니다."
	MsgNotification     = "알림 시간이 올바르지 않습니다."
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json field names so messages line up with the form.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// TimeErrors returns the inline messages for the start and end fields, or
// empty strings when the pair is valid. Unset times produce no message.
func TimeErrors(start, end TimeOfDay) (startMsg, endMsg string) {
	if !start.IsValid() || !end.IsValid() {
		return "", ""
	}
	if start >= end {
		return MsgStartAfterEnd, MsgEndBeforeStart
	}
	return "", ""
}

// Validate checks the form before expansion or persistence. The first
// problem found is returned as a *ValidationError.
func (f EventForm) Validate() error {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return err
	}

	if !f.Date.IsValid() {
		return NewValidationError("date", MsgRequired)
	}
	if !f.StartTime.IsValid() {
		return NewValidationError("startTime", MsgRequired)
	}
	if !f.EndTime.IsValid() {
		return NewValidationError("endTime", MsgRequired)
	}
	if msg, _ := TimeErrors(f.StartTime, f.EndTime); msg != "" {
		return NewValidationError("startTime", msg)
	}

	return f.Repeat.validateFor(f.Date)
}

func (r RepeatRule) validateFor(start Date) error {
	if r.Type == "" || r.Type == RepeatNone {
		return nil
	}
	if r.Interval < 1 {
		return NewValidationError("repeat.interval", MsgRepeatInterval)
	}
	if r.EndDate == nil || !r.EndDate.IsValid() {
		return NewValidationError("repeat.endDate", MsgRepeatEndMissing)
	}
	if r.EndDate.Before(start) {
		return NewValidationError("repeat.endDate", MsgRepeatEndBefore)
	}
	return nil
}

func fieldError(fe validator.FieldError) error {
	field := fe.Field()
	switch field {
	case "category":
		if fe.Tag() == "oneof" {
			return NewValidationError(field, MsgCategory)
		}
	case "type":
		return NewValidationError("repeat.type", MsgRepeatType)
	case "notificationTime":
		return NewValidationError(field, MsgNotification)
	}
	return NewValidationError(field, MsgRequired)
}
