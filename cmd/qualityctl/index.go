package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/JonMunkholm/qualityfeed/internal/core"
	"github.com/JonMunkholm/qualityfeed/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func newIndexCmd() *cobra.Command {
	var dbURL string

	cmd := &cobra.Command{
		Use:   "index FEED DATE REF",
		Short: "Register where a feed file lives for the database index source",
		Long: "Records REF (a path or an http(s) URL) as the file of FEED on DATE\n" +
			"(YYYY-MM-DD). The server reads it back when FEED_SOURCE=index.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			feed, date, ref := args[0], args[1], args[2]
			if _, ok := core.Feed(feed); !ok {
				return fmt.Errorf("%w: %q", core.ErrUnknownFeed, feed)
			}
			if err := core.ValidateDate(date); err != nil {
				return err
			}
			if dbURL == "" {
				return errors.New("DATABASE_URL is not set (use --database-url)")
			}

			ctx := cmd.Context()
			pool, err := pgxpool.New(ctx, dbURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer pool.Close()

			db := store.New(pool)
			if err := db.EnsureSchema(ctx); err != nil {
				return err
			}
			if err := db.IndexFeed(ctx, feed, date, ref); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %s %s -> %s\n", feed, date, ref)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection URL")
	return cmd
}
