package main

import (
	"fmt"
	"time"

	"ticketbari/config"
	"ticketbari/db"
	"ticketbari/identity"
	"ticketbari/logger"
	"ticketbari/tickets"
	"ticketbari/users"

	"github.com/spf13/cobra"
)

// ticketbari indexes: create the Mongo indexes and exit.
var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create MongoDB indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger.Setup(cfg.Environment)

		conn, err := db.Connect(cmd.Context(), cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return err
		}
		defer conn.Close(cmd.Context())

		if err := conn.CreateIndexes(cmd.Context()); err != nil {
			return err
		}
		for coll, idx := range db.Indexes() {
			fmt.Printf("%-14s %d index(es)\n", coll, len(idx))
		}
		return nil
	},
}

// ticketbari bootstrap-admin <email>: the only way to create the first admin.
var bootstrapAdminCmd = &cobra.Command{
	Use:   "bootstrap-admin <email>",
	Short: "Create or promote a user straight to admin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger.Setup(cfg.Environment)
		if cfg.StoreDriver == "memory" {
			return fmt.Errorf("bootstrap-admin needs a persistent store (STORE_DRIVER=mongo)")
		}

		st, err := openStores(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.close(cmd.Context())

		dir := users.NewDirectory(st.users, tickets.NewCatalog(st.tickets, nil), st.tx)
		user, err := dir.BootstrapAdmin(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✅  %s is now %s (id %s)\n", user.Email, user.Role, user.ID.Hex())
		return nil
	},
}

var tokenTTL time.Duration

// ticketbari token <email>: mint an HS256 bearer for local testing.
var tokenCmd = &cobra.Command{
	Use:   "token <email>",
	Short: "Print a signed development bearer token for email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, err := devToken(config.Load(), args[0], tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}

func devToken(cfg *config.Config, email string, ttl time.Duration) (string, error) {
	if cfg.IsProduction() {
		return "", fmt.Errorf("token is a development command")
	}
	if cfg.JWTSecret == "" {
		return "", fmt.Errorf("JWT_SECRET is not set")
	}
	return identity.NewJWTVerifier([]byte(cfg.JWTSecret), cfg.JWTIssuer).Sign(email, ttl)
}
