// internal/seed/seed.go
package seed

import (
	"context"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/sbasnet-dev/reddit-go-backend/internal/repository"
	"github.com/sbasnet-dev/reddit-go-backend/internal/types"
)

// EnsureReportTypes inserts the built-in report types if they are
// missing. Safe to run on every startup in every environment.
func EnsureReportTypes(repos *repository.Repositories) {
	ctx := context.Background()

	reportTypes := []struct {
		name        string
		description string
	}{
		{"spam", "Unsolicited advertising or repetitive content"},
		{"harassment", "Targeted abuse of another user"},
		{"misinformation", "Demonstrably false or misleading claims"},
		{"other", "Anything not covered by the other categories"},
	}

	for _, rt := range reportTypes {
		if err := repos.ReportRepo.EnsureType(ctx, rt.name, rt.description); err != nil {
			log.Printf("[Seed] Error ensuring report type %q: %v", rt.name, err)
		}
	}
	log.Println("[Seed] Report types ensured")
}

// SeedData creates demo users, groups and posts. Development only.
func SeedData(repos *repository.Repositories) {
	ctx := context.Background()

	existing, err := repos.UserRepo.FindByUsername(ctx, "sanjay")
	if err != nil {
		log.Printf("[Seed] Error checking existing data: %v", err)
		return
	}
	if existing != nil {
		log.Println("[Seed] Data already exists, skipping...")
		return
	}

	log.Println("[Seed] Creating demo data...")

	// ============================================
	// CREATE USERS
	// ============================================
	password, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	// 1. SANJAY - owner of both demo groups
	sanjay := &repository.User{
		Username: "sanjay",
		Email:    "sanjay@example.com",
		Password: string(password),
	}
	repos.UserRepo.Create(ctx, sanjay)

	// 2. ANITA - moderator of golang
	anita := &repository.User{
		Username: "anita",
		Email:    "anita@example.com",
		Password: string(password),
	}
	repos.UserRepo.Create(ctx, anita)

	// 3. RAVI - plain member, has a pending request to rust-lang
	ravi := &repository.User{
		Username: "ravi",
		Email:    "ravi@example.com",
		Password: string(password),
	}
	repos.UserRepo.Create(ctx, ravi)

	log.Printf("[Seed] Created 3 users: sanjay (owner), anita (moderator), ravi (member)")

	// ============================================
	// PUBLIC GROUP: golang
	// ============================================
	golang := &repository.Group{
		Name:        "golang",
		Description: stringPtr("Discussion about the Go programming language"),
		Visibility:  types.VisibilityPublic,
		OwnerID:     sanjay.ID,
	}
	// Create inserts sanjay's owner membership with the group
	repos.GroupRepo.Create(ctx, golang)

	repos.GroupRepo.AddMember(ctx, &repository.GroupMember{
		GroupID: golang.ID,
		UserID:  anita.ID,
		Role:    types.RoleModerator,
	})
	repos.GroupRepo.AddMember(ctx, &repository.GroupMember{
		GroupID: golang.ID,
		UserID:  ravi.ID,
		Role:    types.RoleMember,
	})

	// ============================================
	// PRIVATE GROUP: rust-lang
	// ============================================
	rust := &repository.Group{
		Name:        "rust-lang",
		Description: stringPtr("Members-only Rust discussion"),
		Visibility:  types.VisibilityPrivate,
		OwnerID:     sanjay.ID,
	}
	repos.GroupRepo.Create(ctx, rust)

	// Ravi has asked to join rust-lang; left pending so the request
	// workflow can be exercised from a fresh database.
	repos.GroupRepo.CreateRequest(ctx, &repository.MemberRequest{
		GroupID: rust.ID,
		UserID:  ravi.ID,
		Message: stringPtr("I write Rust at work and would like to join."),
	})

	log.Printf("[Seed] Created groups: golang (public), rust-lang (private)")

	// ============================================
	// POSTS
	// ============================================
	welcome := &repository.Post{
		GroupID:  golang.ID,
		AuthorID: sanjay.ID,
		Title:    "Welcome to golang",
		Body:     stringPtr("Introduce yourself and share what you are building."),
		Status:   types.PostPublished,
	}
	repos.PostRepo.Create(ctx, welcome)

	generics := &repository.Post{
		GroupID:  golang.ID,
		AuthorID: anita.ID,
		Title:    "Generics in practice",
		URL:      stringPtr("https://go.dev/blog/intro-generics"),
		Status:   types.PostPublished,
	}
	repos.PostRepo.Create(ctx, generics)

	draft := &repository.Post{
		GroupID:  golang.ID,
		AuthorID: ravi.ID,
		Title:    "WIP: my first CLI tool",
		Body:     stringPtr("Still writing this up."),
		Status:   types.PostDraft,
	}
	repos.PostRepo.Create(ctx, draft)

	repos.PostRepo.CreateComment(ctx, &repository.Comment{
		PostID:   welcome.ID,
		AuthorID: ravi.ID,
		Body:     "Hi! Working through the tour right now.",
	})

	repos.PostRepo.UpsertVote(ctx, &repository.Vote{
		PostID: generics.ID,
		UserID: sanjay.ID,
		Value:  types.VoteUp,
	})

	log.Println("[Seed] Demo data created")
	log.Println("[Seed] Login with sanjay@example.com / password123")
}

func stringPtr(s string) *string {
	return &s
}
