package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"tg-filedrop/internal/config"
	"tg-filedrop/internal/storage"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "dbmigrate",
	Short:        "Manage the tg-filedrop database schema",
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update all tables and seed default messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			fmt.Fprintln(cmd.OutOrStdout(), "Migrating database...")
			if err := storage.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migration completed successfully")
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop all tables and recreate them",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("yes")
		return withDB(func(db *gorm.DB) error {
			if !force && !confirm(cmd.InOrStdin(), cmd.OutOrStdout()) {
				return fmt.Errorf("operation cancelled by user")
			}
			if err := resetDatabase(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database reset completed successfully")
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which tables exist and how many rows they hold",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			return checkStatus(db, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to configuration file")
	resetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(migrateCmd, resetCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func withDB(fn func(db *gorm.DB) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := storage.Open(cfg)
	if err != nil {
		return err
	}
	defer storage.Close(db)

	return fn(db)
}

func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "WARNING: This will delete all data! Are you sure? (y/N): ")
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.TrimSpace(answer)
	return answer == "y" || answer == "Y"
}

// resetDatabase drops tables in reverse creation order and recreates them
func resetDatabase(db *gorm.DB) error {
	all := storage.AllModels()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", all[i], err)
		}
	}
	return storage.Migrate(db)
}

func checkStatus(db *gorm.DB, out io.Writer) error {
	fmt.Fprintln(out, "Checking database status...")

	for _, model := range storage.AllModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return fmt.Errorf("failed to parse model %T: %w", model, err)
		}
		table := stmt.Schema.Table

		if !db.Migrator().HasTable(model) {
			fmt.Fprintf(out, "❌ %s table does not exist\n", table)
			continue
		}

		var count int64
		if err := db.Model(model).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count %s: %w", table, err)
		}
		fmt.Fprintf(out, "✅ %s table exists\n", table)
		fmt.Fprintf(out, "   - Contains %d records\n", count)
	}
	return nil
}
