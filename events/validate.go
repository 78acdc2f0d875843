package events

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownEventType = errors.New("unknown event type")

// ValidationError 는 발행 전에 잡힌 잘못된 payload 다. 재시도하지 않는다.
type ValidationError struct {
	Type  EventType
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s payload: %s %s", e.Type, e.Field, e.Msg)
}

func invalid(t EventType, field, msg string) error {
	return &ValidationError{Type: t, Field: field, Msg: msg}
}

func validateBase(e BaseEvent, want EventType) error {
	if e.Type != want {
		return invalid(want, "type", fmt.Sprintf("must be %q, got %q", want, e.Type))
	}
	if strings.TrimSpace(e.ID) == "" {
		return invalid(want, "id", "is required")
	}
	return nil
}

func (e *GenerateRequestedEvent) Validate() error {
	if err := validateBase(e.BaseEvent, GenerateRequested); err != nil {
		return err
	}
	if strings.TrimSpace(e.Prompt) == "" {
		return invalid(GenerateRequested, "prompt", "must not be empty")
	}
	if strings.TrimSpace(e.UserID) == "" {
		return invalid(GenerateRequested, "user_id", "is required")
	}
	for i, tag := range e.Tags {
		if strings.TrimSpace(tag) == "" {
			return invalid(GenerateRequested, fmt.Sprintf("tags[%d]", i), "must not be empty")
		}
	}
	return nil
}

func (e *GenerateCompletedEvent) Validate() error {
	if err := validateBase(e.BaseEvent, GenerateCompleted); err != nil {
		return err
	}
	if strings.TrimSpace(e.EducationPersonalID) == "" {
		return invalid(GenerateCompleted, "education_personal_id", "is required")
	}
	if strings.TrimSpace(e.UserID) == "" {
		return invalid(GenerateCompleted, "user_id", "is required")
	}
	return e.Content.Validate()
}

func (e *GenerateFailedEvent) Validate() error {
	if err := validateBase(e.BaseEvent, GenerateFailed); err != nil {
		return err
	}
	if strings.TrimSpace(e.Error) == "" {
		return invalid(GenerateFailed, "error", "must not be empty")
	}
	if strings.TrimSpace(e.Prompt) == "" {
		return invalid(GenerateFailed, "prompt", "must not be empty")
	}
	if strings.TrimSpace(e.UserID) == "" {
		return invalid(GenerateFailed, "user_id", "is required")
	}
	return nil
}

// Validate 는 title, content 가 비어 있지 않은지 확인한다. sections 는 비어도 된다.
func (c GeneratedContent) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return invalid(GenerateCompleted, "content.title", "must not be empty")
	}
	if strings.TrimSpace(c.Content) == "" {
		return invalid(GenerateCompleted, "content.content", "must not be empty")
	}
	for i, s := range c.Sections {
		if strings.TrimSpace(s.Title) == "" && strings.TrimSpace(s.Content) == "" {
			return invalid(GenerateCompleted, fmt.Sprintf("content.sections[%d]", i), "must not be blank")
		}
	}
	return nil
}
