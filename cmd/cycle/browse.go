// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cycle/connectors/base"
	"cycle/federation"
	"cycle/shared/logger"
)

// cliLogger logs to stderr so command output stays clean.
func cliLogger(cmd *cobra.Command) *logger.Logger {
	l := logger.New("cycle")
	l.SetOutput(cmd.ErrOrStderr())
	return l
}

func lsCmd(opts *rootOptions) *cobra.Command {
	var connectorID string

	cmd := &cobra.Command{
		Use:   "ls [folder]",
		Short: "List a folder",
		Long: `List the children of a folder. Without --connector the virtual root
is listed: one entry per configured connector.

Examples:
  cycle ls
  cycle ls --connector files /models`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cliLogger(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.service(ctx, opts)
			if err != nil {
				return err
			}

			folder := ""
			if len(args) == 1 {
				folder = args[0]
			}
			if connectorID == "" {
				connectorID = federation.RootID
			}
			nodes, err := svc.GetChildren(ctx, connectorID, folder)
			if err != nil {
				return err
			}
			return printNodes(cmd, nodes)
		},
	}

	cmd.Flags().StringVarP(&connectorID, "connector", "c", "", "Connector id (default: virtual root)")
	return cmd
}

func printNodes(cmd *cobra.Command, nodes *base.NodeCollection) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KIND\tCONNECTOR\tID\tNAME\tTYPE")
	for _, n := range nodes.Nodes {
		kind, typeName := base.KindFolder, "-"
		if a, ok := n.(*base.Artifact); ok {
			kind = base.KindArtifact
			if a.Type != nil {
				typeName = a.Type.Name
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", kind, n.NodeConnectorID(), n.NodeID(), n.NodeMetadata().Name, typeName)
	}
	return w.Flush()
}

func catCmd(opts *rootOptions) *cobra.Command {
	var connectorID, representation string

	cmd := &cobra.Command{
		Use:   "cat <artifact>",
		Short: "Print an artifact's content",
		Long: `Write an artifact's content to stdout.

Examples:
  cycle cat --connector files /models/loan.bpmn
  cycle cat --connector signavio --representation svg /directory/abc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if connectorID == "" {
				return fmt.Errorf("--connector is required")
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cliLogger(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.service(ctx, opts)
			if err != nil {
				return err
			}
			content, err := svc.GetContent(ctx, connectorID, args[0], representation)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(content.Data)
			return err
		},
	}

	cmd.Flags().StringVarP(&connectorID, "connector", "c", "", "Connector id (required)")
	cmd.Flags().StringVarP(&representation, "representation", "r", "", "Content representation")
	return cmd
}
