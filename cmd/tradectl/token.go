package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"signalbot/pkg/crypto"
)

func newTokenCmd(rc *rootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the control-plane bearer token",
	}

	var cost int
	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a token and its bcrypt hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, hash, err := crypto.NewToken(cost)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "token: %s\n", token)
			fmt.Fprintf(out, "CONTROL_TOKEN_HASH=%s\n", hash)
			fmt.Fprintln(out, "store the token in the client, the hash in the server env")
			return nil
		},
	}
	newCmd.Flags().IntVar(&cost, "cost", crypto.DefaultCost, "bcrypt cost")

	cmd.AddCommand(newCmd)
	return cmd
}
