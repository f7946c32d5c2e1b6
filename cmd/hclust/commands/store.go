package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TrevorS/hclust/errors"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved dendrograms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			names, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newLoadCmd(a *app) *cobra.Command {
	var (
		asJSON bool
		matrix bool
	)
	cmd := &cobra.Command{
		Use:   "load <name>",
		Short: "Print a saved dendrogram",
		Long: `Print a saved dendrogram.

The default output lists the clusters of every level by example index.
--matrix prints the merges as a linkage matrix, one "a b distance size" row
per merge, in the layout used by scipy.cluster.hierarchy.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			d, err := st.Load(cmd.Context(), args[0])
			if err != nil {
				if errors.IsNotFoundError(err) {
					return errors.WithHint(err, "run 'hclust list' to see saved dendrograms")
				}
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				body, err := json.MarshalIndent(d, "", "  ")
				if err != nil {
					return errors.Wrap(err, "encode dendrogram")
				}
				fmt.Fprintln(out, string(body))
			case matrix:
				for _, row := range d.LinkageMatrix() {
					fmt.Fprintf(out, "%g %g %g %g\n", row[0], row[1], row[2], row[3])
				}
			default:
				fmt.Fprint(out, d.String())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the dendrogram as JSON")
	cmd.Flags().BoolVar(&matrix, "matrix", false, "Print the linkage matrix")
	cmd.MarkFlagsMutuallyExclusive("json", "matrix")
	return cmd
}
