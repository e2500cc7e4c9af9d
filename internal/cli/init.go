package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			switch viper.GetString("backend") {
			case "postgres":
				fmt.Printf("initialized postgres schema %q\n", viper.GetString("postgres_schema"))
			default:
				fmt.Printf("initialized %s\n", viper.GetString("db"))
			}
			return nil
		},
	}
}
