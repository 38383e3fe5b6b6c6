// Package config loads the settings of a load run from command-line flags and
// an optional JSON or YAML file.
//
// Values are resolved in three layers: built-in defaults, then the config file
// read through viper, then any flag explicitly set on the command line:
//
//	cfg, err := config.NewLoader().Load(os.Args[1:])
//	if errors.Is(err, config.ErrHelpRequested) {
//		return nil
//	}
//	if err := cfg.Validate(); err != nil {
//		// err is a ValidationError listing every problem
//	}
//
// A config file uses the same keys as the flags, with underscores:
//
//	targets:
//	  - http://localhost:7100/api/test/applications?page=
//	  - http://localhost:7100/api/test/issues?page=
//	total: 50000
//	concurrency: 5000
//	page_min: 1
//	page_max: 100
//	timeout: 30s
//	thresholds:
//	  - "latency:p99 < 500"
//	tracing:
//	  endpoint: localhost:4317
//	  insecure: true
package config
