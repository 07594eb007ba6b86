package plan

// planFile is the on-disk shape of a plan, shared by the YAML and HCL decoders.
type planFile struct {
	Name       string          `yaml:"name" hcl:"name,optional"`
	SearchPath *searchPathFile `yaml:"search_path" hcl:"search_path,block"`
	Coverage   *coverageFile   `yaml:"coverage" hcl:"coverage,block"`
	Examples   *examplesFile   `yaml:"examples" hcl:"examples,block"`
}

type searchPathFile struct {
	Variable string   `yaml:"variable" hcl:"variable,optional"`
	Dirs     []string `yaml:"dirs" hcl:"dirs,optional"`
}

type coverageFile struct {
	Run    []string `yaml:"run" hcl:"run,optional"`
	Report []string `yaml:"report" hcl:"report,optional"`
}

type examplesFile struct {
	SkipEnv string   `yaml:"skip_env" hcl:"skip_env,optional"`
	Command []string `yaml:"command" hcl:"command,optional"`
	Dirs    []string `yaml:"dirs" hcl:"dirs,optional"`
}
