package vm

import (
	"fmt"
	"log/slog"

	"github.com/Manu343726/chip8/pkg/config"
	"github.com/Manu343726/chip8/pkg/logging"
	"github.com/Manu343726/chip8/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/chip8/pkg/hw/cpu/loader"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// VmCmd groups the commands running CHIP-8 programs
var VmCmd = &cobra.Command{
	Use:   "vm",
	Short: "Run and debug CHIP-8 programs",
	Long: `Runs CHIP-8 programs on the terminal, headless or under a debugger.

Programs are raw binary images (.ch8, .c8, anything else) or hex text
listings (.hex, .txt) and are loaded at address 0x200.`,
}

var vmVerbose bool

func init() {
	flags := VmCmd.PersistentFlags()
	flags.Int("speed", 0, "instructions per second (default from config, 500)")
	flags.Int("timer-hz", 0, "timer decrements per second (default from config, 60)")
	flags.Uint64("seed", 0, "random number generator seed, 0 means time based")
	flags.Bool("shift-uses-vy", false, "8XY6/8XYE shift VY into VX instead of shifting VX")
	flags.Bool("load-store-increments-index", false, "FX55/FX65 leave I pointing past the last register")
	flags.BoolVarP(&vmVerbose, "verbose", "v", false, "print loading details")

	bindings := map[string]string{
		"cpu.speed_hz":                       "speed",
		"cpu.timer_hz":                       "timer-hz",
		"cpu.seed":                           "seed",
		"quirks.shift_uses_vy":               "shift-uses-vy",
		"quirks.load_store_increments_index": "load-store-increments-index",
	}
	for key, flag := range bindings {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(flag)))
	}

	VmCmd.AddCommand(runCmd, monitorCmd, debugCmd, execCmd)
}

// ExitError is a command failure that must end the process with a specific
// exit status
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// machine is a loaded program ready to run
type machine struct {
	config *config.Config
	rom    *loader.Result
	interp *interpreter.Interpreter
	logger *slog.Logger
}

// loadMachine reads the configuration and the program file and returns an
// interpreter with the program loaded. Diagnostics go to the logger carried by
// the command context
func loadMachine(cmd *cobra.Command, path string) (*machine, error) {
	logger := logging.FromContext(cmd.Context())

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	rom, err := loader.LoadFile(afero.NewOsFs(), path, &loader.Options{
		Verbose: vmVerbose,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("error loading program: %w", err)
	}

	interp := interpreter.New(interpreter.Options{
		Quirks: cfg.Quirks,
		Logger: logger,
		Seed:   cfg.CPU.Seed,
	})
	if err := interp.LoadROM(rom.ROM); err != nil {
		return nil, fmt.Errorf("error loading program: %w", err)
	}

	return &machine{
		config: cfg,
		rom:    rom,
		interp: interp,
		logger: logger,
	}, nil
}
