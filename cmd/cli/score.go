package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/hud203/leadengine/cmd"
	"github.com/hud203/leadengine/internal/analytics"
	"github.com/hud203/leadengine/internal/config"
	"github.com/hud203/leadengine/internal/repository"
)

// ScoreCmd computes a visitor's lead score from their stored event history.
var ScoreCmd = &cobra.Command{
	Use:   "score [visitor-id]",
	Short: "Compute the lead score for a visitor",
	Long:  `Sums the fixed per-action weights over the visitor's recorded events.`,
	Args:  cobra.ExactArgs(1),
	Run:   runScore,
}

func init() {
	cmd.RootCmd.AddCommand(ScoreCmd)
}

func runScore(cobraCmd *cobra.Command, args []string) {
	visitorID := args[0]
	if visitorID == "" {
		fmt.Println("Error: visitor id is required")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying SQL database: %v", err)
	}
	defer sqlDB.Close()

	eventRepo := repository.NewEventRepository(db)

	names, err := eventRepo.EventNamesByVisitor(visitorID)
	if err != nil {
		log.Fatalf("Failed to load events for visitor: %v", err)
	}
	if len(names) == 0 {
		fmt.Printf("No events recorded for visitor %s\n", visitorID)
		os.Exit(0)
	}

	fmt.Printf("Visitor: %s\n", visitorID)
	fmt.Printf("Recorded events: %d\n", len(names))
	fmt.Printf("Lead score: %d\n", analytics.ScoreEventNames(names))
}
