package tools

import (
	"fmt"
	"io"
	"strings"

	"github.com/Manu343726/chip8/pkg/hw/cpu/mc"
	"github.com/Manu343726/chip8/pkg/utils"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var supportedModules = map[string]func() (string, error){
	"cpu.machine_code": func() (string, error) { return mc.Descriptor.DocString() },
}

var docsCmd = &cobra.Command{
	Use:   "docs module",
	Short: "Show chip8 documentation",
	Long: `Dumps the documentation of the specified chip8 module.
By default the tool dumps the documentation to stdout, but it can be redirected to a file using the --output flag.

Supported modules:
` + strings.Join(utils.Map(utils.SortedKeys(supportedModules), func(module string) string { return "  " + module }), "\n"),
	Args:      cobra.MatchAll(cobra.OnlyValidArgs, cobra.ExactArgs(1)),
	ValidArgs: utils.SortedKeys(supportedModules),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, _ := cmd.Flags().GetString("output")
		return writeDocs(afero.NewOsFs(), args[0], outputFile, cmd.OutOrStdout())
	},
}

func writeDocs(fs afero.Fs, module, outputFile string, stdout io.Writer) error {
	generate, ok := supportedModules[module]
	if !ok {
		return fmt.Errorf("unknown module '%s'", module)
	}

	docs, err := generate()
	if err != nil {
		return fmt.Errorf("error generating %s documentation: %w", module, err)
	}

	if outputFile == "" {
		_, err := fmt.Fprintln(stdout, docs)
		return err
	}

	if err := afero.WriteFile(fs, outputFile, []byte(docs+"\n"), 0o644); err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}

	return nil
}

func init() {
	ToolsCmd.AddCommand(docsCmd)
	docsCmd.Flags().StringP("output", "o", "", "Output file. If not specified, the documentation is dumped to stdout.")
}
