package tool

import (
	"flag"

	"github.com/rutno/clouddrive-go/types"
)

// SetFlags parses CLI flags and returns the override config.
func SetFlags() types.Config {
	var cfg types.Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod|none")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.StringVar(&cfg.UseDataDir, "useDataDir", "", "override metadata/data directory")
	flag.StringVar(&cfg.UseBlobDir, "useBlobDir", "", "override blob storage directory")
	flag.IntVar(&cfg.UsePort, "usePort", 0, "override listen port")
	flag.StringVar(&cfg.UseBaseURL, "useBaseURL", "", "override public base URL used in share links")
	flag.Parse()
	return cfg
}
