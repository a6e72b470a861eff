package config

// Config holds pagecheck configuration.
// Stored at: ./pagecheck.yaml or ~/.pagecheck/pagecheck.yaml
type Config struct {
	Paths  PathsCfg  `mapstructure:"paths" yaml:"paths" json:"paths"`
	Audit  AuditCfg  `mapstructure:"audit" yaml:"audit" json:"audit"`
	Render RenderCfg `mapstructure:"render" yaml:"render" json:"render"`
}

// PathsCfg locates every file and directory the pipeline touches.
// Relative paths are resolved against Root (the working directory when empty).
type PathsCfg struct {
	Root      string `mapstructure:"root" yaml:"root" json:"root"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"` // <root>.pdf.jsonld + page PNGs
	DebugDir  string `mapstructure:"debug_dir" yaml:"debug_dir" json:"debug_dir"`
	DebugFile string `mapstructure:"debug_file" yaml:"debug_file" json:"debug_file"` // report name inside DebugDir
	RerunList string `mapstructure:"rerun_list" yaml:"rerun_list" json:"rerun_list"`
	InputDir  string `mapstructure:"input_dir" yaml:"input_dir" json:"input_dir"`    // source PDFs
	RenderDir string `mapstructure:"render_dir" yaml:"render_dir" json:"render_dir"` // high resolution re-renders
}

// AuditCfg bounds the accepted sources-per-page ratio. Both ends are inclusive.
type AuditCfg struct {
	MinSourcesPerPage float64 `mapstructure:"min_sources_per_page" yaml:"min_sources_per_page" json:"min_sources_per_page"`
	MaxSourcesPerPage float64 `mapstructure:"max_sources_per_page" yaml:"max_sources_per_page" json:"max_sources_per_page"`
}

// RenderCfg configures page rasterization.
type RenderCfg struct {
	Zoom     float64 `mapstructure:"zoom" yaml:"zoom" json:"zoom"`             // multiplier over the 72 DPI baseline
	Pdftoppm string  `mapstructure:"pdftoppm" yaml:"pdftoppm" json:"pdftoppm"` // rasterizer binary

	// StripJSONLD looks up <root>.pdf when a <root>.pdf.jsonld entry has no
	// file of that name. Off by default: entries are used verbatim.
	StripJSONLD bool `mapstructure:"strip_jsonld" yaml:"strip_jsonld" json:"strip_jsonld"`
}

// BaseDPI is the PDF user-space resolution that Zoom multiplies.
const BaseDPI = 72.0

// DPI returns the effective render resolution.
func (r RenderCfg) DPI() float64 {
	return r.Zoom * BaseDPI
}

// DefaultConfig returns the conventional FinPapers/output/debug layout.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsCfg{
			OutputDir: "output",
			DebugDir:  "debug",
			DebugFile: "RDFS1",
			RerunList: "debug/files_to_rerun.txt",
			InputDir:  "FinPapers",
			RenderDir: "output2",
		},
		Audit: AuditCfg{
			MinSourcesPerPage: 0.5,
			MaxSourcesPerPage: 1.0,
		},
		Render: RenderCfg{
			Zoom:     8.33,
			Pdftoppm: "pdftoppm",
		},
	}
}
