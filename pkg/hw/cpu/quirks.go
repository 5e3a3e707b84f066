package cpu

// Quirks selects between behaviours that differ across historical interpreters
type Quirks struct {
	// 8XY6/8XYE shift VY and store the result in VX instead of shifting VX in place
	ShiftUsesVY bool `mapstructure:"shift_uses_vy" yaml:"shift_uses_vy"`
	// FX55/FX65 leave I pointing past the last transferred byte (I += X + 1)
	LoadStoreIncrementsIndex bool `mapstructure:"load_store_increments_index" yaml:"load_store_increments_index"`
}
