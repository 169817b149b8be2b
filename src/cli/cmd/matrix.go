package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/postgis/imagectl/src/matrix"
)

var matrixFormat string

var matrixCmd = &cobra.Command{
	Use:   "matrix [KEY=VALUE...]",
	Short: "Emit the CI build matrix",
	Long: `Prints one cell per (postgres, postgis, variant) selected target.
Master and prerelease PostGIS versions carry experimental: true, meant
for continue-on-error. JSON output fits a GitHub Actions fromJSON matrix.`,
	Args: paramArgs(0),
	RunE: runMatrix,
}

func init() {
	matrixCmd.Flags().StringVar(&matrixFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(matrixCmd)
}

func runMatrix(cmd *cobra.Command, args []string) error {
	sel, err := selectTargets()
	if err != nil {
		return err
	}
	doc := struct {
		Include []matrix.Cell `json:"include" yaml:"include"`
	}{Include: matrix.Cells(sel.targets)}
	if doc.Include == nil {
		doc.Include = []matrix.Cell{}
	}

	w := cmd.OutOrStdout()
	switch matrixFormat {
	case "json":
		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", matrixFormat)
	}
	return nil
}
