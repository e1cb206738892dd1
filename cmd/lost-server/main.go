package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lost-server",
		Short: "LoST (RFC 5222) mapping server",
		Long: "A Location-to-Service Translation server: maps geographic locations\n" +
			"to service provider URIs through a hierarchy of authoritative servers.",
	}

	rootCmd.AddCommand(serveCmd(), loadCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bindFlags lets command-line flags override environment configuration.
func bindFlags(cmd *cobra.Command, flags map[string]string) error {
	for flag, key := range flags {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}
