// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cycle/federation"
)

func linksCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "Manage artifact links",
		Long: `Create and list links between artifacts of different connectors.

With the default in-memory link store links do not outlive the command; set
CYCLE_LINK_STORE to sqlite, postgres, mysql, redis or mongo to keep them.`,
	}

	cmd.AddCommand(linksAddCmd(opts))
	cmd.AddCommand(linksListCmd(opts))
	return cmd
}

// parseRef splits "connector:artifact".
func parseRef(ref string) (string, string, error) {
	connectorID, artifactID, ok := strings.Cut(ref, ":")
	if !ok || connectorID == "" || artifactID == "" {
		return "", "", fmt.Errorf("invalid artifact reference %q (want connector:artifact)", ref)
	}
	return connectorID, artifactID, nil
}

func linksAddCmd(opts *rootOptions) *cobra.Command {
	var id, from, to, fromElement, toElement string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Link two artifacts",
		Long: `Link a source artifact to a target artifact. Both must exist.

Examples:
  cycle links add --from files:/models/loan.bpmn --to signavio:/directory/abc
  cycle links add --id l1 --from demo:/processes/order.bpmn --from-element Task_1 --to files:/notes.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			srcConn, srcID, err := parseRef(from)
			if err != nil {
				return err
			}
			dstConn, dstID, err := parseRef(to)
			if err != nil {
				return err
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
			src, err := svc.GetRepositoryArtifact(ctx, srcConn, srcID)
			if err != nil {
				return fmt.Errorf("source: %w", err)
			}
			dst, err := svc.GetRepositoryArtifact(ctx, dstConn, dstID)
			if err != nil {
				return fmt.Errorf("target: %w", err)
			}

			link := &federation.ArtifactLink{
				ID:              id,
				SourceArtifact:  src,
				SourceElementID: fromElement,
				TargetArtifact:  dst,
				TargetElementID: toElement,
			}
			if err := svc.AddArtifactLink(ctx, link); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Link id (default: new UUID)")
	cmd.Flags().StringVar(&from, "from", "", "Source artifact as connector:artifact (required)")
	cmd.Flags().StringVar(&to, "to", "", "Target artifact as connector:artifact (required)")
	cmd.Flags().StringVar(&fromElement, "from-element", "", "Source element id")
	cmd.Flags().StringVar(&toElement, "to-element", "", "Target element id")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func linksListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <connector:artifact>",
		Short: "List the links of a source artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			connectorID, artifactID, err := parseRef(args[0])
			if err != nil {
				return err
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
			result, err := svc.GetArtifactLinks(ctx, connectorID, artifactID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tSOURCE\tTARGET\tTARGET REV")
			for _, l := range result {
				fmt.Fprintf(w, "%s\t%s:%s\t%s:%s\t%d\n", l.ID,
					l.SourceArtifact.ConnectorID, l.SourceArtifact.ID,
					l.TargetArtifact.ConnectorID, l.TargetArtifact.ID,
					l.TargetArtifact.Revision())
			}
			return w.Flush()
		},
	}
}
