package tools

import (
	"github.com/spf13/cobra"
)

// ToolsCmd groups the tools working on CHIP-8 programs without running them
var ToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "CHIP-8 miscellaneous tools",
}
