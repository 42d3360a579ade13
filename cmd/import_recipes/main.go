package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"kitchenops/internal/config"
	"kitchenops/internal/db"
)

var (
	ownerEmail string
	dryRun     bool

	loadConfigFunc = config.Load
	openDatabase   = func(cfg config.DatabaseConfig) (*gorm.DB, error) {
		if cfg.UseMock {
			return nil, errors.New("DATABASE_URL must point at a real database to import recipes")
		}
		return db.Configure(cfg)
	}
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import_recipes <book.yaml>",
		Short: "Import a YAML recipe book into the kitchen database",
		Long: `Reads a YAML recipe book and upserts each recipe by name for the owning user.
Ingredient lines may reference other recipes through sub_recipe; references are
resolved against the book first and then against the owner's stored recipes.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runImport,
	}
	cmd.Flags().StringVar(&ownerEmail, "owner", os.Getenv("KITCHENOPS_IMPORT_OWNER_EMAIL"), "email of the user who owns the imported recipes (defaults to the first user)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the book without touching the database")
	return cmd
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	book, err := readBook(args[0])
	if err != nil {
		return fmt.Errorf("read book: %w", err)
	}

	out := cmd.OutOrStdout()
	if dryRun {
		fmt.Fprintf(out, "Validated %d recipes\n", len(book.Recipes))
		return nil
	}

	cfg, err := loadConfigFunc()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := openDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	ownerID, err := resolveOwner(ctx, database, ownerEmail)
	if err != nil {
		return fmt.Errorf("resolve owner: %w", err)
	}

	summary, err := importBook(ctx, database, ownerID, book)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Imported %d recipes (%d new, %d updated, %d ingredient lines)\n",
		summary.Created+summary.Updated, summary.Created, summary.Updated, summary.Lines)
	return nil
}
