package cli

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/hud203/leadengine/cmd"
	"github.com/hud203/leadengine/internal/config"
	"github.com/hud203/leadengine/internal/repository"
)

// StatsCmd prints aggregate numbers from the stored analytics events.
var StatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate analytics event statistics",
	Long:  `Prints stored event totals broken down by category and event name.`,
	Run:   runStats,
}

func init() {
	cmd.RootCmd.AddCommand(StatsCmd)
}

func runStats(cobraCmd *cobra.Command, args []string) {
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

	total, err := eventRepo.CountEvents()
	if err != nil {
		log.Fatalf("Failed to count events: %v", err)
	}

	byCategory, err := eventRepo.CountByCategory()
	if err != nil {
		log.Fatalf("Failed to aggregate events by category: %v", err)
	}

	byName, err := eventRepo.CountByName()
	if err != nil {
		log.Fatalf("Failed to aggregate events by name: %v", err)
	}

	fmt.Printf("Total events: %d\n", total)
	fmt.Println("\nBy category:")
	for _, row := range byCategory {
		fmt.Printf("  %-20s %d\n", row.Category, row.Count)
	}
	fmt.Println("\nBy event:")
	for _, row := range byName {
		fmt.Printf("  %-25s %d\n", row.Name, row.Count)
	}
}
