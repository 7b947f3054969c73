package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is one user's rating of one book. The composite unique index allows
// at most one review per (book, user).
type Review struct {
	ID         uuid.UUID `json:"_id" gorm:"type:char(36);primaryKey"`
	BookID     uuid.UUID `json:"-" gorm:"type:char(36);not null;uniqueIndex:idx_reviews_book_user,priority:1"`
	UserID     uuid.UUID `json:"-" gorm:"type:char(36);not null;uniqueIndex:idx_reviews_book_user,priority:2;index"`
	Rating     int       `json:"rating" gorm:"not null"`
	ReviewText string    `json:"reviewText" gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	// Relations
	Book *Book `json:"-" gorm:"foreignKey:BookID"`
	User *User `json:"-" gorm:"foreignKey:UserID"`
}

// BeforeCreate sets UUID before creating the record.
func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// MarshalJSON writes bookId and userId as joined objects when loaded, else as ids.
func (r Review) MarshalJSON() ([]byte, error) {
	type alias Review
	var bookID any = r.BookID
	if r.Book != nil {
		bookID = BookRef{ID: r.Book.ID, Title: r.Book.Title}
	}
	var userID any = r.UserID
	if r.User != nil {
		userID = r.User.Ref()
	}
	return json.Marshal(struct {
		alias
		BookID any `json:"bookId"`
		UserID any `json:"userId"`
	}{alias: alias(r), BookID: bookID, UserID: userID})
}

// UnmarshalJSON accepts both forms written by MarshalJSON.
func (r *Review) UnmarshalJSON(data []byte) error {
	type alias Review
	aux := struct {
		*alias
		BookID json.RawMessage `json:"bookId"`
		UserID json.RawMessage `json:"userId"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	book, err := decodeRef[BookRef](aux.BookID, &r.BookID)
	if err != nil {
		return err
	}
	if book != nil {
		r.BookID = book.ID
		r.Book = &Book{ID: book.ID, Title: book.Title}
	}

	user, err := decodeRef[UserRef](aux.UserID, &r.UserID)
	if err != nil {
		return err
	}
	if user != nil {
		r.UserID = user.ID
		r.User = &User{ID: user.ID, Name: user.Name, Email: user.Email}
	}
	return nil
}
