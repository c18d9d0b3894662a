package cmd

import (
	"fmt"
	"time"

	"dryfruit_store/internal/database"
	"dryfruit_store/internal/middleware"
	"dryfruit_store/internal/order"

	"github.com/spf13/cobra"
)

var (
	seedUPIID     string
	seedPayeeName string
	seedAdminID   string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo catalogue data and print a dev admin token",
	Long: `Insert demo categories, products with sizes and the payment settings row.
Running it again does not duplicate rows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		if err := database.Seed(db, seedUPIID, seedPayeeName); err != nil {
			return err
		}
		token, err := middleware.SignToken(cfg.JWTSecret, seedAdminID, order.RoleAdmin, 30*24*time.Hour)
		if err != nil {
			return fmt.Errorf("sign admin token: %w", err)
		}
		fmt.Println("seed done")
		fmt.Printf("admin token (%s, 30 days):\n%s\n", seedAdminID, token)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedUPIID, "upi-id", "dryfruits@okaxis", "payee UPI VPA")
	seedCmd.Flags().StringVar(&seedPayeeName, "payee-name", "Dry Fruits Store", "payee display name")
	seedCmd.Flags().StringVar(&seedAdminID, "admin-id", "admin-1", "user id embedded in the admin token")
	rootCmd.AddCommand(seedCmd)
}
