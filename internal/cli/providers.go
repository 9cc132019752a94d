package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/genefit/genefit-link/internal/models"
)

func newProvidersCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List supported DNA providers",
		Long: `List the DNA providers accepted by 'dna upload --provider'.

Short spellings such as 23andme or ancestrydna are accepted as well.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutputFormat(output); err != nil {
				return err
			}
			providers := models.Providers()
			return writeOutput(cmd.OutOrStdout(), output, providers, func(w io.Writer) { renderProviders(w, providers) })
		},
	}

	addOutputFlag(cmd, &output)
	return cmd
}
