package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"edupanel/internal/database"
	"edupanel/internal/models"
)

var ErrLessonNotFound = errors.New("lesson not found")

type LessonFilter struct {
	Grade string
	Skip  int64
	Limit int64
}

type LessonRepository struct {
	coll *mongo.Collection
}

func NewLessonRepository(db *database.Mongo) *LessonRepository {
	return &LessonRepository{coll: db.Collection(database.LessonsCollection)}
}

func (r *LessonRepository) EnsureIndexes(ctx context.Context) error {
	// grade+week uniqueness is checked in the service, so this index is not unique
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "grade", Value: 1}, {Key: "week", Value: 1}}},
		{Keys: bson.D{{Key: "videos.key", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create lesson indexes: %w", err)
	}
	return nil
}

func (r *LessonRepository) Create(ctx context.Context, lesson models.Lesson) (models.Lesson, error) {
	now := time.Now().UTC()
	lesson.ID = primitive.NewObjectID()
	lesson.CreatedAt = now
	lesson.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, lesson); err != nil {
		return models.Lesson{}, fmt.Errorf("insert lesson: %w", err)
	}
	return lesson, nil
}

func (r *LessonRepository) Update(ctx context.Context, id primitive.ObjectID, lesson models.Lesson) (models.Lesson, error) {
	update := bson.M{"$set": bson.M{
		"name":          lesson.Name,
		"grade":         lesson.Grade,
		"week":          lesson.Week,
		"payment_state": lesson.PaymentState,
		"videos":        lesson.Videos,
		"updated_at":    time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Lesson
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Lesson{}, ErrLessonNotFound
		}
		return models.Lesson{}, fmt.Errorf("update lesson: %w", err)
	}
	return updated, nil
}

func (r *LessonRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrLessonNotFound
	}
	return nil
}

func (r *LessonRepository) GetByID(ctx context.Context, id primitive.ObjectID) (models.Lesson, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *LessonRepository) FindByGradeWeek(ctx context.Context, grade string, week int) (models.Lesson, error) {
	return r.findOne(ctx, bson.M{"grade": grade, "week": week})
}

func (r *LessonRepository) findOne(ctx context.Context, filter bson.M) (models.Lesson, error) {
	var lesson models.Lesson
	if err := r.coll.FindOne(ctx, filter).Decode(&lesson); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Lesson{}, ErrLessonNotFound
		}
		return models.Lesson{}, fmt.Errorf("find lesson: %w", err)
	}
	return lesson, nil
}

func (r *LessonRepository) List(ctx context.Context, filter LessonFilter) ([]models.Lesson, int64, error) {
	query := bson.M{}
	if filter.Grade != "" {
		query["grade"] = filter.Grade
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count lessons: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "grade", Value: 1}, {Key: "week", Value: 1}}).
		SetSkip(filter.Skip).
		SetLimit(filter.Limit)

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find lessons: %w", err)
	}
	defer cursor.Close(ctx)

	lessons := make([]models.Lesson, 0, filter.Limit)
	if err := cursor.All(ctx, &lessons); err != nil {
		return nil, 0, fmt.Errorf("decode lessons: %w", err)
	}
	return lessons, total, nil
}

// ReferencesKey reports whether any lesson plays the stored object key.
func (r *LessonRepository) ReferencesKey(ctx context.Context, key string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"videos.key": key}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count key references: %w", err)
	}
	return n > 0, nil
}
