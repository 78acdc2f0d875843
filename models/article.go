package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ArticleStatus string

const (
	ArticleDraft     ArticleStatus = "draft"
	ArticlePublished ArticleStatus = "published"
)

// EducationArticle is generated educational content.
// Collection: education_articles, unique education_personal_id, unique sparse slug.
type EducationArticle struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EducationPersonalID string             `bson:"education_personal_id" json:"education_personal_id"`
	UserID              string             `bson:"user_id" json:"user_id"`
	Title               string             `bson:"title" json:"title"`
	Content             string             `bson:"content" json:"content"`
	Sections            []ArticleSection   `bson:"sections" json:"sections"`
	Tags                []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Slug                string             `bson:"slug,omitempty" json:"slug,omitempty"`
	ReadingTime         int                `bson:"reading_time" json:"reading_time"`
	Excerpt             string             `bson:"excerpt" json:"excerpt"`
	Status              ArticleStatus      `bson:"status" json:"status"`
	Image               *ImageRef          `bson:"image,omitempty" json:"image,omitempty"`
	ModelName           string             `bson:"model_name,omitempty" json:"model_name,omitempty"`
	CreatedAt           time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time          `bson:"updated_at" json:"updated_at"`
	GeneratedAt         *time.Time         `bson:"generated_at,omitempty" json:"generated_at,omitempty"`
}

type ArticleSection struct {
	Title   string `bson:"title" json:"title"`
	Content string `bson:"content" json:"content"`
}

// ImageRef points at an image held by the external image storage provider.
type ImageRef struct {
	SecureURL string `bson:"secure_url" json:"secure_url"`
	PublicID  string `bson:"public_id" json:"public_id"`
}

// IsGenerated reports whether the worker has already filled the content fields.
func (a *EducationArticle) IsGenerated() bool {
	return a.GeneratedAt != nil
}
