package config

const (
	defaultStagingDir        = "~/.local/share/pandora/staging"
	defaultLogDir            = "~/.local/share/pandora/logs"
	defaultLatexBinary       = "latex"
	defaultDvisvgmBinary     = "dvisvgm"
	defaultLatexTimeoutSec   = 120
	defaultManimBinary       = "manim"
	defaultManimQuality      = "low"
	defaultManimTimeoutSec   = 900
	defaultRenderWorkers     = 4
	defaultRenderCacheMaxMiB = 512
	defaultServeBind         = "127.0.0.1:7474"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Latex: Latex{
			Binary:        defaultLatexBinary,
			DvisvgmBinary: defaultDvisvgmBinary,
			TimeoutSec:    defaultLatexTimeoutSec,
		},
		Manim: Manim{
			Binary:     defaultManimBinary,
			Quality:    defaultManimQuality,
			TimeoutSec: defaultManimTimeoutSec,
		},
		Render: Render{
			Workers: defaultRenderWorkers,
		},
		RenderCache: RenderCache{
			Dir:    defaultRenderCacheDir(),
			MaxMiB: defaultRenderCacheMaxMiB,
		},
		Serve: Serve{
			Bind: defaultServeBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
