package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "usersvc",
		Short:        "gRPC user management service",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newUserCmd())
	return root
}
