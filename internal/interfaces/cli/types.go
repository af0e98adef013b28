package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var typesJSON bool

// NewTypesCmd creates the types command, which lists the functional group
// catalog the matcher recognises.
func NewTypesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the functional group catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypes(cmd)
		},
	}

	cmd.Flags().BoolVar(&typesJSON, "json", false, "output as JSON")

	return cmd
}

func runTypes(cmd *cobra.Command) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	infos := cliCtx.Service.GroupTypes(cmd.Context())
	if typesJSON {
		return printJSON(cmd, infos)
	}

	rows := make([][]string, len(infos))
	for i, info := range infos {
		rows[i] = []string{
			info.Name,
			strconv.Itoa(info.Bonders),
			strconv.Itoa(info.Deleters),
			info.Pattern,
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), FormatTable(
		[]string{"NAME", "BONDERS", "DELETERS", "PATTERN"}, rows,
	))
	return nil
}
