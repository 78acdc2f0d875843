package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GenerationState is the worker-owned lifecycle of a generation request.
type GenerationState string

const (
	GenerationPending    GenerationState = "pending"
	GenerationGenerating GenerationState = "generating"
	GenerationCompleted  GenerationState = "completed"
	GenerationFailed     GenerationState = "failed"
)

// GenerationRecord tracks one generation request keyed by education_personal_id.
// Collection: generation_requests
type GenerationRecord struct {
	ID        string          `bson:"_id" json:"education_personal_id"`
	UserID    string          `bson:"user_id" json:"user_id"`
	Prompt    string          `bson:"prompt" json:"prompt"`
	Tags      []string        `bson:"tags,omitempty" json:"tags,omitempty"`
	State     GenerationState `bson:"state" json:"state"`
	Attempts  int             `bson:"attempts" json:"attempts"`
	LastError string          `bson:"last_error,omitempty" json:"last_error,omitempty"`
	ErrorKind string          `bson:"error_kind,omitempty" json:"error_kind,omitempty"`
	// LastEventID is the generate event currently being processed; retries re-emit with a new one.
	LastEventID string              `bson:"last_event_id,omitempty" json:"-"`
	ArticleID   *primitive.ObjectID `bson:"article_id,omitempty" json:"article_id,omitempty"`
	Slug        string              `bson:"slug,omitempty" json:"slug,omitempty"`
	// TerminalPublished is set once the completed/failed event of the current attempt is on the bus.
	TerminalPublished bool       `bson:"terminal_published" json:"terminal_published"`
	CreatedAt         time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `bson:"updated_at" json:"updated_at"`
	CompletedAt       *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}
