package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VideoType string

const (
	VideoYouTube VideoType = "youtube"
	VideoStorage VideoType = "storage"
)

type PaymentState string

const (
	PaymentFree PaymentState = "free"
	PaymentPaid PaymentState = "paid"
)

type Video struct {
	Type    VideoType `bson:"type" json:"type"`
	VideoID string    `bson:"video_id,omitempty" json:"video_id,omitempty"`
	Key     string    `bson:"key,omitempty" json:"key,omitempty"`
}

// Lesson is stored in the "sessions" collection; the admin UI calls it a session.
type Lesson struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Grade        string             `bson:"grade" json:"grade"`
	Week         int                `bson:"week" json:"week"`
	PaymentState PaymentState       `bson:"payment_state" json:"payment_state"`
	Videos       []Video            `bson:"videos" json:"videos"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// StorageKeys lists the object-store keys referenced by the lesson.
func (l Lesson) StorageKeys() []string {
	var keys []string
	for _, video := range l.Videos {
		if video.Type == VideoStorage && video.Key != "" {
			keys = append(keys, video.Key)
		}
	}
	return keys
}
