package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vflow-labs/vflow/registry"
)

// NewNodesCmd creates the "nodes" subcommand.
func NewNodesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List the registered node types",
		Args:  cobra.NoArgs,
		RunE:  runNodes,
	}

	cmd.Flags().String("format", "text", "Output format: text | json")
	cmd.Flags().String("category", "", "Show only this category")
	cmd.Flags().String("side", "", "Show only one runtime side: host | target")

	return cmd
}

func runNodes(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	category, _ := cmd.Flags().GetString("category")
	side, _ := cmd.Flags().GetString("side")
	out := cmd.OutOrStdout()

	defs := registry.Global().All()
	filtered := defs[:0:0]
	for _, def := range defs {
		if category != "" && def.Category != category {
			continue
		}
		if side != "" && string(def.Runtime) != side {
			continue
		}
		filtered = append(filtered, def)
	}

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(filtered)
	}

	printNodeTable(out, filtered)
	return nil
}

func printNodeTable(out io.Writer, defs []registry.NodeTypeDef) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tCATEGORY\tSIDE\tPORTS\tDESCRIPTION")
	for _, def := range defs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			def.Type, def.Category, def.Runtime, portSummary(def), def.Description)
	}
	_ = w.Flush()
}

// portSummary renders the port schema as "in -> out" name lists.
func portSummary(def registry.NodeTypeDef) string {
	names := func(ports []registry.PortDef) string {
		out := make([]string, len(ports))
		for i, p := range ports {
			out[i] = p.Name
		}
		return strings.Join(out, ",")
	}
	in := names(def.Ports.Inputs)
	out := names(def.Ports.Outputs)
	switch {
	case in == "" && out == "":
		return "-"
	case in == "":
		return "-> " + out
	case out == "":
		return in + " ->"
	default:
		return in + " -> " + out
	}
}
