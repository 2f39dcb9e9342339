package entity

import "time"

type Category struct {
	ID          string    `json:"id" firestore:"id" gorm:"primaryKey;size:36"`
	Name        string    `json:"name" firestore:"name" gorm:"size:100;not null"`
	Slug        string    `json:"slug" firestore:"slug" gorm:"uniqueIndex;size:100;not null"`
	Description string    `json:"description,omitempty" firestore:"description,omitempty" gorm:"size:500"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
}
