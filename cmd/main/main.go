package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"shopadmin/catalog/internal/categorytree"
	"shopadmin/catalog/internal/config"
	"shopadmin/catalog/internal/container"
	"shopadmin/catalog/internal/logger"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "shopadmin",
	Short: "Category tree and product form backend for the shop admin",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logger.Init(cfg.Log)
		log.Debug("Configuration loaded successfully")
		return nil
	},
	SilenceUsage: true,
}

// serveCmd runs the HTTP API together with the submission workers
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and submission workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := container.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer app.Close()

		return app.Run(ctx)
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the category tree, orphans and unreachable categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		forest, err := container.NewCatalog(cfg).Forest(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		forest.Walk(func(n *categorytree.Node, depth int) bool {
			fmt.Fprintf(out, "%s%s  [%s]\n", strings.Repeat("  ", depth), n.Title, n.ID)
			return true
		})
		if orphans := forest.Orphans(); len(orphans) > 0 {
			fmt.Fprintf(out, "\norphans: %s\n", strings.Join(orphans, ", "))
		}
		if unreachable := forest.Unreachable(); len(unreachable) > 0 {
			fmt.Fprintf(out, "unreachable: %s\n", strings.Join(unreachable, ", "))
		}
		return nil
	},
}

var pathCmd = &cobra.Command{
	Use:   "path <category-id>",
	Short: "Print the root-to-category path of a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := container.NewCatalog(cfg).Path(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", strings.Join(path.IDs, " / "), strings.Join(path.Titles, " › "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, treeCmd, pathCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("❌ %v", err)
	}
}
