// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"

	"quorum/internal/models"
	"quorum/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumCompanies int
	NumUsers     int
	NumPosts     int
	ShouldClean  bool
}

// Seeder populates the database with demo companies, users, posts, comment
// threads, likes and solved problems so rankings have real data behind them.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, SeedOptions{})}
}

// ClearAll removes all seeded data. Delete order respects foreign keys.
func (s *Seeder) ClearAll() error {
	tables := []interface{}{
		&models.UserPoint{},
		&models.PointSummary{},
		&models.CommentLike{},
		&models.Comment{},
		&models.Post{},
		&models.User{},
		&models.Company{},
	}
	for _, table := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(table).Error; err != nil {
			return fmt.Errorf("failed to clear table %T: %w", table, err)
		}
	}
	log.Println("✓ Existing data cleared")
	return nil
}

// Seed populates the database with test data
func (s *Seeder) Seed(opts Options) error {
	if opts.NumCompanies <= 0 {
		opts.NumCompanies = 5
	}
	if opts.NumUsers <= 0 {
		opts.NumUsers = 50
	}
	if opts.NumPosts <= 0 {
		opts.NumPosts = 200
	}

	log.Printf("🌱 Starting database seeding with %d companies, %d users and %d posts...",
		opts.NumCompanies, opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	companies := make([]*models.Company, 0, opts.NumCompanies)
	for i := 0; i < opts.NumCompanies; i++ {
		company, err := s.factory.CreateCompany()
		if err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}
		companies = append(companies, company)

		// One company account per company so scoped rankings are exercisable.
		if _, err := s.factory.CreateUser(func(u *models.User) {
			u.Role = models.RoleCompany
			u.CompanyID = &company.ID
			u.FullName = company.Name + " (account)"
		}); err != nil {
			return fmt.Errorf("failed to create company account: %w", err)
		}
	}
	log.Printf("✓ %d companies created", len(companies))

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		company := companies[i%len(companies)]
		user, err := s.factory.CreateUser(func(u *models.User) {
			u.CompanyID = &company.ID
		})
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}

	// One admin so moderation flows are reachable with seeded data.
	if _, err := s.factory.CreateUser(func(u *models.User) {
		u.Role = models.RoleAdmin
		u.Username = "admin" + fmt.Sprintf("%d", gofakeit.Number(100, 999))
	}); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	log.Printf("✓ %d test users created", len(users))

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[gofakeit.Number(0, len(users)-1)]
		post, err := s.factory.CreatePost(author)
		if err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		posts = append(posts, post)
	}
	log.Printf("✓ %d posts created", len(posts))

	if err := s.seedThreads(users, posts); err != nil {
		return fmt.Errorf("failed to seed comment threads: %w", err)
	}

	log.Println("✓ Seeding complete")
	return nil
}

// seedThreads grows a small reply tree under each post, sprinkles likes, and
// marks a solution on roughly a third of the posts through the same ledger
// path the API uses, so point summaries stay consistent with the flags.
func (s *Seeder) seedThreads(users []*models.User, posts []*models.Post) error {
	solved := 0
	for _, post := range posts {
		numComments := gofakeit.Number(0, 6)
		comments := make([]*models.Comment, 0, numComments)

		for i := 0; i < numComments; i++ {
			author := users[gofakeit.Number(0, len(users)-1)]
			var overrides []func(*models.Comment)
			// Half of the non-first comments reply to an earlier one.
			if len(comments) > 0 && gofakeit.Bool() {
				parent := comments[gofakeit.Number(0, len(comments)-1)]
				overrides = append(overrides, func(c *models.Comment) {
					c.ParentID = &parent.ID
				})
			}
			comment, err := s.factory.CreateComment(author, post, overrides...)
			if err != nil {
				return err
			}
			comments = append(comments, comment)

			for _, liker := range users {
				if gofakeit.Number(0, 9) == 0 {
					if err := s.factory.CreateLike(liker, comment); err != nil {
						return err
					}
				}
			}
		}

		if len(comments) > 0 && gofakeit.Number(0, 2) == 0 {
			winner := comments[gofakeit.Number(0, len(comments)-1)]
			err := s.db.Transaction(func(tx *gorm.DB) error {
				if err := tx.Model(winner).Update("is_solution", true).Error; err != nil {
					return err
				}
				if _, err := repository.AwardPoint(tx, winner.UserID, winner.ID); err != nil {
					return err
				}
				return tx.Model(&models.Post{}).Where("id = ?", post.ID).
					Update("status", models.PostStatusSolve).Error
			})
			if err != nil {
				return err
			}
			solved++
		}
	}
	log.Printf("✓ Comment threads grown, %d posts marked solved", solved)
	return nil
}
