package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Book is a catalog entry. AddedBy is fixed at creation and decides who may edit it.
type Book struct {
	ID          uuid.UUID `json:"_id" gorm:"type:char(36);primaryKey"`
	Title       string    `json:"title" gorm:"size:255;not null;index"`
	Author      string    `json:"author" gorm:"size:255;not null;index"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Genre       string    `json:"genre" gorm:"size:100;not null;index"`
	Year        int       `json:"year" gorm:"not null;index"`
	AddedBy     uuid.UUID `json:"-" gorm:"type:char(36);not null;index"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// AverageRating is only filled by catalog listings.
	AverageRating *float64 `json:"averageRating,omitempty" gorm:"->;-:migration"`

	// Relations
	Creator *User `json:"-" gorm:"foreignKey:AddedBy"`
}

// BeforeCreate sets UUID before creating the record.
func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BookRef is how a book appears when joined into a review.
type BookRef struct {
	ID    uuid.UUID `json:"_id"`
	Title string    `json:"title"`
}

// MarshalJSON writes addedBy as the creator object when it was joined, else as the id.
func (b Book) MarshalJSON() ([]byte, error) {
	type alias Book
	var addedBy any = b.AddedBy
	if b.Creator != nil {
		addedBy = b.Creator.Ref()
	}
	return json.Marshal(struct {
		alias
		AddedBy any `json:"addedBy"`
	}{alias: alias(b), AddedBy: addedBy})
}

// UnmarshalJSON accepts both forms written by MarshalJSON.
func (b *Book) UnmarshalJSON(data []byte) error {
	type alias Book
	aux := struct {
		*alias
		AddedBy json.RawMessage `json:"addedBy"`
	}{alias: (*alias)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ref, err := decodeRef[UserRef](aux.AddedBy, &b.AddedBy)
	if err != nil {
		return err
	}
	if ref != nil {
		b.AddedBy = ref.ID
		b.Creator = &User{ID: ref.ID, Name: ref.Name, Email: ref.Email}
	}
	return nil
}

// decodeRef decodes raw either as a joined object (returned) or as a bare id written into id.
func decodeRef[T any](raw json.RawMessage, id *uuid.UUID) (*T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '{' {
		var ref T
		if err := json.Unmarshal(raw, &ref); err != nil {
			return nil, err
		}
		return &ref, nil
	}
	return nil, json.Unmarshal(raw, id)
}
