package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmax-ai/blockgen/pkg/archive"
	"github.com/rmax-ai/blockgen/pkg/canvas"
	"github.com/rmax-ai/blockgen/pkg/client"
	"github.com/rmax-ai/blockgen/pkg/diagram"
	"github.com/rmax-ai/blockgen/pkg/graph"
	"github.com/rmax-ai/blockgen/pkg/mcp"
	"github.com/rmax-ai/blockgen/pkg/reports"
	"github.com/rmax-ai/blockgen/pkg/store"
)

func newGenerateCmd(opts *options) *cobra.Command {
	var (
		asJSON    bool
		save      bool
		toArchive bool
	)
	cmd := &cobra.Command{
		Use:   "generate <description>",
		Short: "Generate a diagram from a product description",
		Example: `  blockgen generate "Bluetooth speaker with RGB lighting effects"
  blockgen generate --save --archive "smart thermostat with Wi-Fi"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			description := strings.TrimSpace(strings.Join(args, " "))

			d, err := client.NewClient(opts.endpoint).Generate(ctx, description)
			if err != nil {
				n := client.Notify(err)
				return fmt.Errorf("%s: %s", n.Title, n.Message)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, d); err != nil {
					return err
				}
			} else {
				printDiagram(out, d)
			}
			for _, f := range diagram.Lint(d) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", f.Message)
			}

			nodes, edges := graph.ToPresentation(d)
			if save {
				ws, err := openWorkspaces(opts)
				if err != nil {
					return err
				}
				defer ws.close()
				if err := canvas.New(ws.backend).Replace(ctx, nodes, edges); err != nil {
					return err
				}
				if err := ws.backend.SetDescription(ctx, description); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "saved to workspace %s\n", ws.backend.Name())
			}
			if toArchive {
				key, err := archive.New(opts.archiveDir).Save(ctx, graph.NewExport(description, nodes, edges, time.Now()))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "archived as %s\n", key)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the diagram as JSON")
	cmd.Flags().BoolVar(&save, "save", false, "replace the current workspace with the result")
	cmd.Flags().BoolVar(&toArchive, "archive", false, "store an export document in the archive")
	return cmd
}

func newTemplateCmd(opts *options) *cobra.Command {
	var (
		remote bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Show the default five block template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := diagram.DefaultTemplate()
			if remote {
				var err error
				d, err = client.NewClient(opts.endpoint).Template(cmd.Context())
				if err != nil {
					return err
				}
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), d)
			}
			printDiagram(cmd.OutOrStdout(), d)
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "fetch the template from the daemon")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the diagram as JSON")
	return cmd
}

func newBOMCmd(opts *options) *cobra.Command {
	var (
		format     string
		reportType string
	)
	cmd := &cobra.Command{
		Use:   "bom [export.json]",
		Short: "Print the bill of materials of an export file or the current workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var d diagram.Diagram
			if len(args) == 1 {
				doc, err := readExport(args[0])
				if err != nil {
					return err
				}
				d = graph.ToCanonical(doc.Restore())
			} else {
				ws, err := openWorkspaces(opts)
				if err != nil {
					return err
				}
				defer ws.close()
				loaded, err := ws.backend.Load(ctx)
				if err != nil {
					return err
				}
				d = loaded.Snapshot().Diagram()
			}

			gen, err := reports.NewReportGenerator(reports.ReportType(reportType), reports.ReportFormat(format))
			if err != nil {
				return err
			}
			r, err := gen.Generate(ctx, d)
			if err != nil {
				return err
			}
			_, err = io.Copy(cmd.OutOrStdout(), r)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(reports.ReportFormatCSV), "output format: csv|json")
	cmd.Flags().StringVarP(&reportType, "type", "t", string(reports.ReportTypeBOM), "report: bom|connections")
	return cmd
}

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <export.json>",
		Short: "Replace the current workspace with an export file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := readExport(args[0])
			if err != nil {
				return err
			}

			ws, err := openWorkspaces(opts)
			if err != nil {
				return err
			}
			defer ws.close()

			nodes, edges := doc.Restore()
			if err := canvas.New(ws.backend).Replace(ctx, nodes, edges); err != nil {
				return err
			}
			if err := ws.backend.SetDescription(ctx, doc.Description); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d blocks and %d connections into %s\n", len(nodes), len(edges), ws.backend.Name())
			return nil
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	var toArchive bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current workspace as an export document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := openWorkspaces(opts)
			if err != nil {
				return err
			}
			defer ws.close()

			loaded, err := ws.backend.Load(ctx)
			if err != nil {
				return err
			}
			doc := graph.NewExport(loaded.Description, loaded.Nodes, loaded.Edges, time.Now())
			if !toArchive {
				return doc.Encode(cmd.OutOrStdout())
			}
			key, err := archive.New(opts.archiveDir).Save(ctx, doc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
	cmd.Flags().BoolVar(&toArchive, "archive", false, "store in the archive instead of printing")
	return cmd
}

func newArchiveCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Manage archived export documents",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List archived exports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := archive.New(opts.archiveDir).List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tSIZE\tMODIFIED")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Key, e.Size, e.ModTime.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <key>",
		Short: "Print an archived export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := archive.New(opts.archiveDir).Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return doc.Encode(cmd.OutOrStdout())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <key>",
		Short: "Remove an archived export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return archive.New(opts.archiveDir).Delete(cmd.Context(), args[0])
		},
	})
	return cmd
}

func newWorkspacesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspaces",
		Short: "List saved workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspaces(opts)
			if err != nil {
				return err
			}
			defer ws.close()

			list, err := ws.list(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tREV\tBLOCKS\tLINKS\tUPDATED\tDESCRIPTION")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%s\n", s.Name, s.Revision, s.Nodes, s.Edges, s.UpdatedAt.Format(time.RFC3339), s.Description)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspaces(opts)
			if err != nil {
				return err
			}
			defer ws.close()

			err = ws.remove(cmd.Context(), args[0])
			if errors.Is(err, store.ErrWorkspaceNotFound) {
				return fmt.Errorf("no workspace named %q", args[0])
			}
			return err
		},
	})
	return cmd
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that blockgen-d is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := client.NewClient(opts.endpoint).Ping(cmd.Context())
			if err != nil {
				return fmt.Errorf("daemon unreachable at %s: %w", opts.endpoint, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", st.Status, st.Version)
			return nil
		},
	}
}

func newMCPCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the Model Context Protocol on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mcp.NewServer(opts.endpoint).Serve()
		},
	}
}

func readExport(path string) (graph.ExportDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return graph.ExportDocument{}, err
	}
	defer f.Close()
	return graph.ParseExport(f)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printDiagram writes a plain text outline of d.
func printDiagram(w io.Writer, d diagram.Diagram) {
	for _, b := range d.Blocks {
		fmt.Fprintf(w, "[%s] %s (%s)\n", b.Type, b.Title, b.ID)
		for _, c := range b.Components {
			fmt.Fprintf(w, "    - %s\n", c)
		}
	}
	if len(d.Connections) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, c := range d.Connections {
		if c.Label != "" {
			fmt.Fprintf(w, "%s -> %s: %s\n", c.Source, c.Target, c.Label)
		} else {
			fmt.Fprintf(w, "%s -> %s\n", c.Source, c.Target)
		}
	}
}
