// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agartex Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Agartex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agartex",
		Short: "Agartex authentication service",
		Long: `Agartex verifies user credentials, issues session tokens and
validates them on behalf of other services.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
