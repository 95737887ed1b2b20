package main

import (
	"context"
	"net"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"

	"github.com/ondrejsika/audioserve-go/pkg/chapters"
	"github.com/ondrejsika/audioserve-go/pkg/collection"
	"github.com/ondrejsika/audioserve-go/pkg/config"
	"github.com/ondrejsika/audioserve-go/pkg/httpapi"
	"github.com/ondrejsika/audioserve-go/pkg/index"
	"github.com/ondrejsika/audioserve-go/pkg/kvstore"
	"github.com/ondrejsika/audioserve-go/pkg/position"
	"github.com/ondrejsika/audioserve-go/pkg/supervisor"
	"github.com/ondrejsika/audioserve-go/pkg/token"
	"github.com/ondrejsika/audioserve-go/pkg/transcode"
	"github.com/ondrejsika/audioserve-go/pkg/version"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting audioserve", logger.Data{"version": version.Version})

	cfg, _, err := config.Load(os.Args[1:])
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	kvMgr := kvstore.NewManager(cfg.DataDir)

	specs := collectionSpecs(cfg)
	registry, err := collection.NewRegistry(specs, kvMgr)
	if err != nil {
		log.Err(err).Fatal("collection registry error")
	}

	ingestOpts := index.IngestOptions{
		AllowSymlinks:     cfg.AllowSymlinks,
		CollapseCDFolders: cfg.CollapseCDFolders,
		CDFolderRegexp:    cfg.CDFolderRegexp,
		NoDirCollaps:      cfg.NoDirCollaps,
		ExtractTags:       cfg.ExtractTags,
		CustomTags:        cfg.CustomTags,
		Chapters: chapters.Options{
			IgnoreContainerMeta: cfg.IgnoreChaptersMeta,
			SynthesizeFromMS:    uint64(cfg.ChaptersFromDuration.Milliseconds()),
			SynthesizeChunkMS:   uint64(cfg.ChaptersDuration.Milliseconds()),
		},
	}

	indexes := make(map[int]*index.Index, registry.Count())
	var watchers []*index.Watcher
	var allIndexes []*index.Index

	for _, col := range registry.All() {
		idx := index.New(col, ingestOpts, log)
		indexes[col.ID] = idx
		allIndexes = append(allIndexes, idx)

		scan := index.VerificationWalk
		if cfg.ForceCacheUpdate || col.NoCache {
			scan = index.FullScan
		}
		if err := scan(idx); err != nil {
			log.Err(err).Error("initial collection scan failed")
		}

		w := index.NewWatcher(idx)
		go w.Run()
		watchers = append(watchers, w)
	}

	posManager := position.NewManager(registry, log)
	loadedBackup, err := posManager.LoadBackup(cfg.PositionsBackupFile)
	if err != nil {
		log.Err(err).Error("positions backup load failed, falling back to per-collection stores")
	}
	if !loadedBackup {
		if err := posManager.LoadFromStores(); err != nil {
			log.Err(err).Error("positions load from stores failed")
		}
	}

	var cache *transcode.Cache
	if !cfg.TranscodeCacheDisable {
		cache, err = transcode.OpenCache(cfg.TranscodeCacheDir, cfg.TranscodeCacheMaxBytes, cfg.TranscodeCacheMaxFiles)
		if err != nil {
			log.Err(err).Fatal("transcoding cache error")
		}
	}
	pipeline := transcode.NewPipeline(cfg.MaxTranscodings, cache, log)

	signer := token.New(cfg.ServerSecret, cfg.TokenValidFor)

	srv, err := httpapi.New(&httpapi.Deps{
		Config:     cfg,
		Registry:   registry,
		Indexes:    indexes,
		Pipeline:   pipeline,
		PosManager: posManager,
		Signer:     signer,
		Log:        log,
	})
	if err != nil {
		log.Err(err).Fatal("http server setup error")
	}

	go func() {
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", cfg.Listen)
		if err != nil {
			log.Err(err).Fatal("failed to bind listener")
		}
		log.Info("server listening", logger.Data{"addr": listener.Addr().String()})

		err = srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
	}()

	sv := &supervisor.Supervisor{
		Log:                 log,
		Indexes:             allIndexes,
		Watchers:            watchers,
		PosManager:          posManager,
		PositionsBackupFile: cfg.PositionsBackupFile,
		BackupSchedule:      cfg.PositionsBackupSchedule,
		Server:              srv,
	}
	if err := sv.Run(ctx); err != nil {
		log.Err(err).Fatal("supervisor error")
	}

	if cache != nil {
		if err := cache.Close(); err != nil {
			log.Err(err).Error("transcoding cache close error")
		}
	}
	if err := registry.Close(); err != nil {
		log.Err(err).Error("collection registry close error")
	}
	if err := kvMgr.CloseAll(); err != nil {
		log.Err(err).Error("kv store close error")
	}

	log.Info("audioserve stopped", logger.Data{})
}

func collectionSpecs(cfg *config.Config) []collection.Spec {
	specs := make([]collection.Spec, 0, len(cfg.Collections))
	for _, c := range cfg.Collections {
		specs = append(specs, collection.Spec{
			Root:    c.Root,
			NoCache: c.NoCache,
			Options: collection.Options{
				CollapseCDFolders: cfg.CollapseCDFolders,
				CDFolderRegexp:    cfg.CDFolderRegexp,
			},
		})
	}
	return specs
}
