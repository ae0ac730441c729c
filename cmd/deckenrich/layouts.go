package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dusk-indust/deckenrich/internal/layout"
	"github.com/spf13/cobra"
)

func newLayoutsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "layouts",
		Short: "List the built-in slide layouts",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cat := layout.Default()
			layouts := make([]layout.Layout, 0, len(cat.IDs()))
			for _, id := range cat.IDs() {
				l, _ := cat.Lookup(id)
				layouts = append(layouts, l)
			}

			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(layouts)
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tREQUIRED FIELDS")
			for _, l := range layouts {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", l.ID, l.Name, strings.Join(l.Constraints.RequiredFields, ", "))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print layouts with their full constraints as JSON")
	return cmd
}
