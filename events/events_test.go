package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRequestedValidate(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(e *GenerateRequestedEvent)
		wantField string
	}{
		{name: "valid"},
		{name: "empty prompt", mutate: func(e *GenerateRequestedEvent) { e.Prompt = "   " }, wantField: "prompt"},
		{name: "missing user", mutate: func(e *GenerateRequestedEvent) { e.UserID = "" }, wantField: "user_id"},
		{name: "blank tag", mutate: func(e *GenerateRequestedEvent) { e.Tags = []string{"plastik", ""} }, wantField: "tags[1]"},
		{name: "wrong type", mutate: func(e *GenerateRequestedEvent) { e.Type = GenerateFailed }, wantField: "type"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			e := &GenerateRequestedEvent{
				BaseEvent: NewBaseEvent(GenerateRequested, "api"),
				Prompt:    "Cara memilah plastik",
				Tags:      []string{"plastik"},
				UserID:    "user-1",
			}
			if testCase.mutate != nil {
				testCase.mutate(e)
			}

			err := e.Validate()
			if testCase.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "expected ValidationError, got %v", err)
			assert.Equal(t, testCase.wantField, vErr.Field)
		})
	}
}

func TestGenerateCompletedRequiresTitleAndContent(t *testing.T) {
	e := &GenerateCompletedEvent{
		BaseEvent:           NewBaseEvent(GenerateCompleted, "worker"),
		EducationPersonalID: "edu-1",
		UserID:              "user-1",
		Content:             GeneratedContent{Title: "Judul", Content: "Isi"},
	}
	assert.NoError(t, e.Validate(), "empty sections are allowed")

	e.Content.Title = ""
	assert.Error(t, e.Validate())

	e.Content.Title = "Judul"
	e.Content.Content = ""
	assert.Error(t, e.Validate())
}

func TestGenerateFailedRequiresErrorAndPrompt(t *testing.T) {
	e := &GenerateFailedEvent{
		BaseEvent: NewBaseEvent(GenerateFailed, "worker"),
		Error:     "provider timeout",
		Prompt:    "Cara memilah plastik",
		UserID:    "user-1",
	}
	assert.NoError(t, e.Validate(), "education_personal_id is optional")

	e.Error = ""
	assert.Error(t, e.Validate())
}

func TestDecodeReturnsConcreteVariant(t *testing.T) {
	in := &GenerateFailedEvent{
		BaseEvent:           NewBaseEvent(GenerateFailed, "worker"),
		EducationPersonalID: "edu-1",
		Error:               "boom",
		Prompt:              "p",
		UserID:              "u",
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	out, err := Decode(data)
	require.NoError(t, err)

	failed, ok := out.(*GenerateFailedEvent)
	require.True(t, ok, "expected *GenerateFailedEvent, got %T", out)
	assert.Equal(t, "edu-1", failed.EducationPersonalID)
	assert.Equal(t, GenerateFailed, failed.GetType())
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"post.created"}`))
	assert.ErrorIs(t, err, ErrUnknownEventType)
}

func TestDeriveEducationPersonalIDIsDeterministic(t *testing.T) {
	a := DeriveEducationPersonalID("event-1")
	b := DeriveEducationPersonalID("event-1")
	c := DeriveEducationPersonalID("event-2")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	e := &GenerateRequestedEvent{BaseEvent: BaseEvent{ID: "event-1"}}
	assert.Equal(t, a, e.ResolveEducationPersonalID())
	assert.Equal(t, a, e.Key())

	e.EducationPersonalID = "draft-9"
	assert.Equal(t, "draft-9", e.ResolveEducationPersonalID())
}
