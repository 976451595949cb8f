package landing

// Config locates and parses landed source files.
type Config struct {
	Dir             string `yaml:"dir" json:"dir" mapstructure:"dir"`
	EmployeePrefix  string `yaml:"employee_prefix" json:"employee_prefix" mapstructure:"employee_prefix"`
	TimesheetPrefix string `yaml:"timesheet_prefix" json:"timesheet_prefix" mapstructure:"timesheet_prefix"`
	Extension       string `yaml:"extension" json:"extension" mapstructure:"extension"`
	Delimiter       string `yaml:"delimiter" json:"delimiter" mapstructure:"delimiter"`
	ChunkSize       int    `yaml:"chunk_size" json:"chunk_size" mapstructure:"chunk_size"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Dir:             "datasets",
		EmployeePrefix:  "employee",
		TimesheetPrefix: "timesheet",
		Extension:       ".csv",
		Delimiter:       "|",
		ChunkSize:       1000,
	}
}

func applyDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Dir == "" {
		cfg.Dir = def.Dir
	}
	if cfg.EmployeePrefix == "" {
		cfg.EmployeePrefix = def.EmployeePrefix
	}
	if cfg.TimesheetPrefix == "" {
		cfg.TimesheetPrefix = def.TimesheetPrefix
	}
	if cfg.Extension == "" {
		cfg.Extension = def.Extension
	}
	if cfg.Delimiter == "" {
		cfg.Delimiter = def.Delimiter
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	return cfg
}
