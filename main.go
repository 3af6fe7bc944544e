package main

import (
	"path/filepath"

	"github.com/rutno/clouddrive-go/api"
	"github.com/rutno/clouddrive-go/api/notifyhub"
	"github.com/rutno/clouddrive-go/chunk"
	"github.com/rutno/clouddrive-go/drive"
	"github.com/rutno/clouddrive-go/share"
	"github.com/rutno/clouddrive-go/store"
	"github.com/rutno/clouddrive-go/tool"
)

func main() {
	cfg := tool.SetFlags()
	appCfg, err := tool.LoadConfig(cfg.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	if cfg.UseDataDir != "" {
		appCfg.DataDir = cfg.UseDataDir
	}
	if cfg.UseBlobDir != "" {
		appCfg.BlobDir = cfg.UseBlobDir
	}
	if cfg.UsePort > 0 {
		appCfg.Port = cfg.UsePort
	}
	if cfg.UseBaseURL != "" {
		appCfg.BaseURL = cfg.UseBaseURL
	}
	tool.CurrentConfig = appCfg

	tool.InitLogger()
	tool.SetLogMode(cfg.Log)

	st, err := store.New(appCfg.DataDir)
	if err != nil {
		tool.DefaultLogger.Fatalf("Metadata store startup failed: %v", err)
	}
	assembler, err := chunk.NewAssembler(filepath.Join(appCfg.DataDir, "chunks"))
	if err != nil {
		tool.DefaultLogger.Fatalf("Chunk assembler startup failed: %v", err)
	}

	driveSvc := drive.NewService(st, appCfg.BlobDir)
	accessLog := share.NewAccessLog(filepath.Join(appCfg.DataDir, "access.log"))
	shareEngine := share.NewEngine(st, accessLog)
	hub := notifyhub.New()

	apiServer := api.NewServer(appCfg.Port, appCfg.BaseURL, driveSvc, assembler, shareEngine, hub)
	if err := apiServer.Start(); err != nil {
		tool.DefaultLogger.Fatalf("API server startup failed: %v", err)
	}
}
