package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"edu-gen/content"
	"edu-gen/models"
)

const (
	slugIndex                = "uniq_slug"
	educationPersonalIDIndex = "uniq_education_personal_id"
)

type ArticleRepository struct {
	col *mongo.Collection
}

func NewArticleRepository(db *mongo.Database) *ArticleRepository {
	return &ArticleRepository{col: db.Collection("education_articles")}
}

// ListFilter 는 공개 목록 조회 조건이다. Page 는 1부터 시작한다.
type ListFilter struct {
	Tags     []string
	Page     int
	PageSize int
}

// Create 는 새 글을 저장하고 id 를 반환한다. 상태가 비어 있으면 draft 로 저장한다.
func (r *ArticleRepository) Create(ctx context.Context, a *models.EducationArticle) (primitive.ObjectID, error) {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = models.ArticleDraft
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, a); err != nil {
		return primitive.NilObjectID, err
	}
	return a.ID, nil
}

// GetBySlug 는 includeUnpublished 가 false 이면 published 글만 찾는다.
// 공개되지 않은 글은 존재 여부를 드러내지 않도록 ErrNotFound 로 취급한다.
func (r *ArticleRepository) GetBySlug(ctx context.Context, slug string, includeUnpublished bool) (*models.EducationArticle, error) {
	filter := bson.M{"slug": slug}
	if !includeUnpublished {
		filter["status"] = models.ArticlePublished
	}
	var a models.EducationArticle
	if err := r.col.FindOne(ctx, filter).Decode(&a); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *ArticleRepository) MarkStatus(ctx context.Context, id primitive.ObjectID, status models.ArticleStatus) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"status": status, "updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ArticleRepository) FindByEducationPersonalID(ctx context.Context, id string) (*models.EducationArticle, error) {
	var a models.EducationArticle
	if err := r.col.FindOne(ctx, bson.M{"education_personal_id": id}).Decode(&a); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// SaveGenerated 는 생성 결과를 education_personal_id 기준으로 upsert 한다.
// 미리 만든 초안이 있으면 내용만 채우고 상태는 유지한다.
// slug 는 제목에서 만들고 충돌하면 content.SlugCandidate 순서대로 다음 후보를 쓴다.
func (r *ArticleRepository) SaveGenerated(ctx context.Context, a *models.EducationArticle) (*models.EducationArticle, error) {
	now := time.Now()
	base := content.Slugify(a.Title)
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	for attempt := 1; attempt <= content.MaxSlugAttempts+1; {
		slug := content.SlugCandidate(base, attempt, a.EducationPersonalID)
		update := bson.M{
			"$setOnInsert": bson.M{
				"user_id":    a.UserID,
				"status":     models.ArticleDraft,
				"created_at": now,
			},
			"$set": bson.M{
				"title":        a.Title,
				"content":      a.Content,
				"sections":     a.Sections,
				"tags":         a.Tags,
				"slug":         slug,
				"reading_time": a.ReadingTime,
				"excerpt":      a.Excerpt,
				"model_name":   a.ModelName,
				"generated_at": now,
				"updated_at":   now,
			},
		}

		var saved models.EducationArticle
		err := r.col.FindOneAndUpdate(ctx, bson.M{"education_personal_id": a.EducationPersonalID}, update, opts).Decode(&saved)
		switch {
		case err == nil:
			return &saved, nil
		case isDuplicateOn(err, slugIndex):
			attempt++
		case isDuplicateOn(err, educationPersonalIDIndex):
			// 동시 upsert 가 먼저 삽입했다. 같은 후보로 다시 시도하면 update 로 처리된다.
			continue
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSlugExhausted, base)
}

// List 는 published 글을 최신순으로 반환한다. Tags 가 있으면 모두 포함하는 글만.
func (r *ArticleRepository) List(ctx context.Context, f ListFilter) ([]models.EducationArticle, int64, error) {
	page, size := NormalizePage(f.Page, f.PageSize)

	filter := bson.M{"status": models.ArticlePublished}
	if len(f.Tags) > 0 {
		filter["tags"] = bson.M{"$all": f.Tags}
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * size)).
		SetLimit(int64(size)).
		SetProjection(bson.M{"content": 0, "sections": 0})

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []models.EducationArticle
	for cur.Next(ctx) {
		var a models.EducationArticle
		if err := cur.Decode(&a); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, cur.Err()
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}
