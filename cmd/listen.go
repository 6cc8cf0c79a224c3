package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"massiliafm/config"
	"massiliafm/core/player"
	"massiliafm/core/showcase"
	"massiliafm/db"
	"massiliafm/model"
	"massiliafm/repository"
)

var (
	listenGenre    string
	listenFeatured bool
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Play the published catalog on this machine",
	Long:  `Station monitor: loads the published catalog and plays it through the local speakers, advancing track by track.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.DB.Close()

		trackRepo := repository.NewMySQLTrackRepository()

		var tracks []*model.Track
		var err error
		if listenGenre != "" {
			tracks, err = trackRepo.ListByGenre(listenGenre)
		} else {
			tracks, err = trackRepo.ListPublished(cfg.PublicPageCap, 0)
		}
		if err != nil {
			log.Fatalf("failed to load catalog: %v", err)
		}
		if len(tracks) == 0 {
			fmt.Println("Nothing published to play.")
			return
		}

		playlist := make([]model.TrackView, 0, len(tracks))
		for _, t := range tracks {
			playlist = append(playlist, t.View())
		}

		handle := player.NewSpeakerHandle()
		defer handle.Close()
		engine := player.NewEngine(handle)

		sub := engine.Subscribe()
		defer sub.Close()
		go func() {
			for snap := range sub.C {
				if snap.CurrentTrack == nil {
					continue
				}
				state := "paused"
				if snap.IsPlaying {
					state = "playing"
				}
				fmt.Printf("[%d/%d] %s - %s (%s)\n",
					snap.CurrentIndex+1, len(snap.Playlist),
					snap.CurrentTrack.Title, snap.CurrentTrack.Artist, state)
			}
		}()

		if listenFeatured {
			// Featured mode mirrors the site carousel: a short
			// rotating shortlist, starting on the first slide.
			slides := playlist
			if len(slides) > 5 {
				slides = slides[:5]
			}
			carousel := showcase.New(engine, slides)
			carousel.PlayCurrent()
			carousel.Start(cfg.FeaturedInterval)
			defer carousel.Stop()
		} else {
			engine.LoadAndPlay(playlist[0], playlist)
		}

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		fmt.Println("Stopping.")
	},
}

func init() {
	listenCmd.Flags().StringVarP(&listenGenre, "genre", "g", "", "play only one genre")
	listenCmd.Flags().BoolVar(&listenFeatured, "featured", false, "rotate a featured shortlist instead of the full catalog")
	rootCmd.AddCommand(listenCmd)
}
