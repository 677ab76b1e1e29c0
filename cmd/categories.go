package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var categoriesJSON bool

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the categories in scope for the current variant",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(false)
		if err != nil {
			return err
		}
		defer d.Close()

		v, err := CurrentVariant()
		if err != nil {
			return err
		}
		cats, err := d.Categories(cmd.Context(), v.ScopePredicates())
		if err != nil {
			return fmt.Errorf("listing categories: %w", err)
		}

		if categoriesJSON {
			if cats == nil {
				cats = []string{}
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cats)
		}
		for _, c := range cats {
			fmt.Println(c)
		}
		return nil
	},
}

func init() {
	categoriesCmd.Flags().BoolVar(&categoriesJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(categoriesCmd)
}
