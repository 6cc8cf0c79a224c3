package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"massiliafm/config"
	"massiliafm/core/auth"
	"massiliafm/db"
	"massiliafm/model"
	"massiliafm/repository"
	"massiliafm/storage"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with starter accounts",
	Long:  `Create the admin and test DJ accounts plus a couple of sample tracks. Existing accounts are left alone.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.DB.Close()

		if err := db.InitDB(); err != nil {
			log.Fatalf("failed to initialize schema: %v", err)
		}

		userRepo := repository.NewMySQLUserRepository(db.DB)
		trackRepo := repository.NewMySQLTrackRepository()

		seedUser(userRepo, "admin@massiliaradio.com", "Admin Massilia", "admin123", model.RoleAdmin)
		dj := seedUser(userRepo, "dj@massiliaradio.com", "DJ Test", "dj123", model.RoleDJ)

		if dj != nil {
			seedTrack(trackRepo, cfg, dj.ID, "Summer Vibes", "DJ Test", "House", "3:45", "audio/summer-vibes.mp3", true)
			seedTrack(trackRepo, cfg, dj.ID, "Midnight Drive", "DJ Test", "Techno", "4:20", "audio/midnight-drive.mp3", false)
		}

		fmt.Println("Seeding done.")
		fmt.Println("Admin - Email: admin@massiliaradio.com | Password: admin123")
		fmt.Println("DJ    - Email: dj@massiliaradio.com    | Password: dj123")
	},
}

func seedUser(repo repository.UserRepository, email, name, password, role string) *model.User {
	existing, err := repo.GetByEmail(email)
	if err != nil {
		log.Fatalf("failed to look up %s: %v", email, err)
	}
	if existing != nil {
		fmt.Printf("User %s already exists, skipping\n", email)
		return existing
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	id, err := repo.Create(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			fmt.Printf("User %s already exists, skipping\n", email)
			return user
		}
		log.Fatalf("failed to create %s: %v", email, err)
	}
	user.ID = id
	fmt.Printf("Created %s account %s\n", role, email)
	return user
}

func seedTrack(repo repository.TrackRepository, cfg *config.Config, uploader int64, title, artist, genre, duration, objectPath string, published bool) {
	track := &model.Track{
		Title:         title,
		Artist:        artist,
		Genre:         sql.NullString{String: genre, Valid: true},
		DurationLabel: sql.NullString{String: duration, Valid: true},
		AudioURL:      storage.PublicURL(cfg, objectPath),
		IsPublished:   published,
		UploadedBy:    uploader,
	}
	if _, err := repo.Create(track); err != nil {
		log.Printf("failed to create track %q: %v", title, err)
		return
	}
	fmt.Printf("Created track %q\n", title)
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
