package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"datacurator/curate/internal/variant"
)

var variantsJSON bool

var variantsCmd = &cobra.Command{
	Use:   "variants",
	Short: "List status vocabularies and their key and swipe bindings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := cfg.Registry()
		if err != nil {
			return err
		}
		var all []*variant.Variant
		for _, name := range reg.Names() {
			v, err := reg.Get(name)
			if err != nil {
				return err
			}
			all = append(all, v)
		}

		if variantsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(all)
		}

		current := variantName
		if current == "" {
			current = cfg.Variant
		}
		for _, v := range all {
			fmt.Print(describeVariant(v, v.Name == current))
		}
		return nil
	},
}

func init() {
	variantsCmd.Flags().BoolVar(&variantsJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(variantsCmd)
}

func describeVariant(v *variant.Variant, current bool) string {
	var b strings.Builder
	marker := " "
	if current {
		marker = "*"
	}
	fmt.Fprintf(&b, "%s %s  %s\n", marker, v.Name, v.Description)
	fmt.Fprintf(&b, "    field:    %s (%s | %s)\n", v.StatusField, v.Pending, strings.Join(v.Statuses, " | "))
	if v.Secondary != nil {
		fmt.Fprintf(&b, "    filter:   %s in %s\n", v.Secondary.Field, strings.Join(v.Secondary.Values, ", "))
	}

	var swipes []string
	for _, d := range variant.Directions {
		if a := v.SwipeAction(d); a != "" {
			swipes = append(swipes, fmt.Sprintf("%s→%s", d, a))
		}
	}
	fmt.Fprintf(&b, "    swipes:   %s\n", strings.Join(swipes, "  "))

	keys := make([]string, 0, len(v.Keys))
	for k := range v.Keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		keys[i] = k + "=" + v.Keys[k]
	}
	fmt.Fprintf(&b, "    keys:     %s\n", strings.Join(keys, "  "))
	if v.NotesStatus != "" {
		fmt.Fprintf(&b, "    notes:    saved as %s\n", v.NotesStatus)
	}
	return b.String()
}
