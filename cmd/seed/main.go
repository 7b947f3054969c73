package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bookreview/internal/config"
	"bookreview/internal/db"
	"bookreview/internal/logger"
	"bookreview/internal/model"
	"bookreview/internal/repository"
)

const seedPassword = "password123"

type seedUser struct {
	Name  string
	Email string
}

var users = []seedUser{
	{Name: "Alice", Email: "alice@example.com"},
	{Name: "Bob", Email: "bob@example.com"},
	{Name: "Charlie", Email: "charlie@example.com"},
}

var books = []model.Book{
	{
		Title:       "The Great Gatsby",
		Author:      "F. Scott Fitzgerald",
		Description: "A novel set in the Jazz Age that tells the story of Jay Gatsby and his unrequited love for Daisy Buchanan.",
		Genre:       "Classic",
		Year:        1925,
	},
	{
		Title:       "To Kill a Mockingbird",
		Author:      "Harper Lee",
		Description: "A novel about racial injustice in the Deep South seen through the eyes of young Scout Finch.",
		Genre:       "Classic",
		Year:        1960,
	},
	{
		Title:       "1984",
		Author:      "George Orwell",
		Description: "A dystopian novel about totalitarianism and surveillance.",
		Genre:       "Dystopian",
		Year:        1949,
	},
}

var reviews = []model.Review{
	{Rating: 5, ReviewText: "A masterpiece of American literature."},
	{Rating: 4, ReviewText: "A powerful and moving story."},
	{Rating: 5, ReviewText: "Chilling and thought-provoking."},
}

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Error("connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Error("migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := seed(context.Background(), gormDB); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("seed data created",
		slog.Int("users", len(users)),
		slog.Int("books", len(books)),
		slog.Int("reviews", len(reviews)),
	)
}

// seed replaces all data with the demo set. Book i is added by user i and
// review i is written by user i on book i.
func seed(ctx context.Context, gormDB *gorm.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&model.Review{}, &model.Book{}, &model.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return fmt.Errorf("clear %T: %w", m, err)
			}
		}

		userRepo := repository.NewUserRepository(tx)
		bookRepo := repository.NewBookRepository(tx)
		reviewRepo := repository.NewReviewRepository(tx)

		saved := make([]*model.User, 0, len(users))
		for _, u := range users {
			user := &model.User{Name: u.Name, Email: u.Email, PasswordHash: string(hash)}
			if err := userRepo.Create(ctx, user); err != nil {
				return fmt.Errorf("create user %s: %w", u.Email, err)
			}
			saved = append(saved, user)
		}

		savedBooks := make([]*model.Book, 0, len(books))
		for i := range books {
			book := books[i]
			book.AddedBy = saved[i%len(saved)].ID
			if err := bookRepo.Create(ctx, &book); err != nil {
				return fmt.Errorf("create book %q: %w", book.Title, err)
			}
			savedBooks = append(savedBooks, &book)
		}

		for i := range reviews {
			review := reviews[i]
			review.BookID = savedBooks[i%len(savedBooks)].ID
			review.UserID = saved[i%len(saved)].ID
			if err := reviewRepo.Create(ctx, &review); err != nil {
				return fmt.Errorf("create review %d: %w", i, err)
			}
		}
		return nil
	})
}
