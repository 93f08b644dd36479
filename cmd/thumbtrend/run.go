package cmd

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/thumbtrend/thumbtrend/config"
	"github.com/thumbtrend/thumbtrend/pkg/annotation"
	"github.com/thumbtrend/thumbtrend/pkg/auth"
	"github.com/thumbtrend/thumbtrend/pkg/crawler"
	"github.com/thumbtrend/thumbtrend/pkg/labelstudio"
	"github.com/thumbtrend/thumbtrend/pkg/models"
	"github.com/thumbtrend/thumbtrend/pkg/server"
	"github.com/thumbtrend/thumbtrend/pkg/store"
	"github.com/thumbtrend/thumbtrend/pkg/vision"
)

const (
	ErrStoreTypeNotSet  = "store.type must be set"
	ErrSQLiteDSNNotSet  = "store.sqlite.dsn must be set"
	StoreTypeSQLite     = "sqlite"
	defaultPollInterval = 15 * time.Second
)

// run is the entrypoint for the thumbtrend dashboard server
func run() {
	cfg := loadConfig()

	log.Infof("Starting thumbtrend server version %s", config.VersionString)

	appState := NewAppState(cfg)

	srv := server.Create(appState)

	log.Infof("Listening on: %s", srv.Addr)
	err := srv.ListenAndServe()
	if err != nil {
		log.Fatal(err)
	}
}

// NewAppState creates an AppState struct from the config file / ENV,
// initializes the store, and creates the detection service clients
func NewAppState(cfg *config.Config) *models.AppState {
	appState := &models.AppState{
		TrainingClient:   vision.NewTrainingClient(cfg),
		PredictionClient: vision.NewPredictionClient(cfg),
		Config:           cfg,
	}

	initializeStore(appState)
	setupSignalHandler(appState)
	setupPurgeProcessor(context.Background(), appState)

	return appState
}

// loadConfig loads the config and handles CLI options that don't require
// the server or pipeline to run
func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Error configuring thumbtrend: %s", err)
	}

	handleCLIOptions(cfg)
	config.SetLogLevel(cfg)

	return cfg
}

// handleCLIOptions handles CLI options that don't require the server to run
func handleCLIOptions(cfg *config.Config) {
	if showVersion {
		fmt.Println(config.VersionString)
		os.Exit(0)
	}
	if generateKey {
		fmt.Println(auth.GenerateJWT(cfg))
		os.Exit(0)
	}
	if dumpConfig {
		fmt.Printf("%+v\n", cfg)
		os.Exit(0)
	}
}

// initializeStore initializes the store based on the config file / ENV
func initializeStore(appState *models.AppState) {
	if appState.Config.Store.Type == "" {
		log.Fatal(ErrStoreTypeNotSet)
	}

	switch appState.Config.Store.Type {
	case StoreTypeSQLite:
		if appState.Config.Store.SQLite.DSN == "" {
			log.Fatal(ErrSQLiteDSNNotSet)
		}
		sqliteStore, err := store.NewSQLiteStore(appState.Config.Store.SQLite.DSN)
		if err != nil {
			log.Fatal(err)
		}
		if appState.Config.Log.Level == "debug" {
			store.DebugLogging(sqliteStore.DB(), log)
		}
		appState.Store = sqliteStore
	default:
		log.Fatal(
			fmt.Sprintf("store.type (%s) is not supported", appState.Config.Store.Type),
		)
	}

	log.Info("Using store: ", appState.Config.Store.Type)
}

// setupSignalHandler sets up a signal handler to close the store connection
// on termination
func setupSignalHandler(appState *models.AppState) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh
		if err := appState.Store.Close(); err != nil {
			log.Errorf("Error closing store connection: %v", err)
		}
		os.Exit(0)
	}()
}

// setupPurgeProcessor sets up a go routine to purge stale analysis records
// from the store at a regular interval. It's cancellable via the passed
// context. If Config.DataConfig.PurgeEvery is 0, this function does nothing.
func setupPurgeProcessor(ctx context.Context, appState *models.AppState) {
	interval := time.Duration(appState.Config.DataConfig.PurgeEvery) * time.Minute
	if interval == 0 {
		log.Debug("analysis purge processor disabled")
		return
	}
	ttl := time.Duration(appState.Config.DataConfig.AnalysisTTL) * time.Minute
	if ttl == 0 {
		log.Debug("analysis purge processor disabled: no TTL configured")
		return
	}

	log.Infof("Starting analysis purge processor. Purging every %v", interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Info("Stopping analysis purge processor")
				return
			default:
				purged, err := appState.Store.PurgeAnalyses(ctx, time.Now().Add(-ttl))
				if err != nil {
					log.Errorf("error purging stale analyses: %v", err)
				} else if purged > 0 {
					log.Infof("purged %d stale analyses", purged)
				}
			}
			time.Sleep(interval)
		}
	}()
}

// runCrawl downloads thumbnails from the named source into the data root
// and records the run in the store
func runCrawl(source string) {
	cfg := loadConfig()

	st := newStore(cfg)
	defer st.Close()

	c := crawler.New(cfg, st)
	ctx := context.Background()

	var (
		crawlRun *models.CrawlRun
		err      error
	)
	switch source {
	case "youtube":
		crawlRun, err = c.CrawlYouTube(ctx)
	case "playboard":
		crawlRun, err = c.CrawlPlayboard(ctx)
	default:
		log.Fatalf("unknown crawl source %q", source)
	}
	if err != nil {
		log.Fatalf("crawl failed: %s", err)
	}

	log.Infof(
		"crawl complete: %d saved, %d skipped, %d failed in %s",
		crawlRun.Saved,
		crawlRun.Skipped,
		crawlRun.Failed,
		crawlRun.FinishedAt.Sub(crawlRun.StartedAt).Round(time.Second),
	)
}

// runPredict detects objects in every image under the --images directory
// and writes the predictions as a COCO annotation file
func runPredict() {
	cfg := loadConfig()
	ctx := context.Background()

	trainingClient := vision.NewTrainingClient(cfg)
	predictionClient := vision.NewPredictionClient(cfg)

	publish := iteration
	if publish == "" {
		latest, err := vision.LatestPublishedIteration(ctx, trainingClient)
		if err != nil {
			log.Fatalf("failed to resolve a published iteration: %s", err)
		}
		publish = latest.PublishName
		log.Infof("using latest published iteration %q", publish)
	}

	images, err := listImages(imageDir)
	if err != nil {
		log.Fatal(err)
	}
	if len(images) == 0 {
		log.Fatalf("no images found under %s", imageDir)
	}

	builder := annotation.NewCOCOBuilder(predictLabels(cfg))
	for i, name := range images {
		data, err := os.ReadFile(filepath.Join(imageDir, name))
		if err != nil {
			log.Fatalf("failed to read %s: %s", name, err)
		}
		imgConfig, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			log.Warnf("skipping %s: %s", name, err)
			continue
		}

		result, err := predictionClient.Detect(ctx, publish, data)
		if err != nil {
			log.Fatalf("detection failed for %s: %s", name, err)
		}
		builder.AddImage(name, imgConfig.Width, imgConfig.Height, result.Predictions)
		log.Infof("analyzed %s (%d/%d): %d predictions", name, i+1, len(images), len(result.Predictions))
	}

	coco := builder.COCO()
	if err := annotation.WriteJSONFile(outputFile, coco); err != nil {
		log.Fatal(err)
	}
	log.Infof(
		"wrote %d annotations across %d images to %s",
		len(coco.Annotations), len(coco.Images), outputFile,
	)

	if startLabeler {
		tasksPath := strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + "_tasks.json"
		count, err := labelstudio.WriteTasks(coco, imageDir, tasksPath)
		if err != nil {
			log.Fatal(err)
		}
		log.Infof("wrote %d labeling tasks to %s", count, tasksPath)
		if err := labelstudio.NewRunner(cfg).Start(); err != nil {
			log.Fatal(err)
		}
	}
}

// predictLabels applies the --threshold override, when given, to every
// configured label
func predictLabels(cfg *config.Config) []config.LabelConfig {
	if threshold <= 0 {
		return cfg.Labels
	}
	labels := make([]config.LabelConfig, len(cfg.Labels))
	copy(labels, cfg.Labels)
	for i := range labels {
		labels[i].Threshold = threshold
	}
	return labels
}

// runExport converts a COCO file into labeling tasks
func runExport() {
	loadConfig()

	coco, err := annotation.LoadCOCOFile(labelFile)
	if err != nil {
		log.Fatal(err)
	}
	count, err := labelstudio.WriteTasks(coco, imageDir, outputFile)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("wrote %d labeling tasks to %s", count, outputFile)
}

// runTrain uploads corrected COCO annotations to the detection service,
// trains a new iteration, waits for it to complete, and publishes it
func runTrain() {
	cfg := loadConfig()
	ctx := context.Background()

	coco, err := annotation.LoadCOCOFile(labelFile)
	if err != nil {
		log.Fatal(err)
	}

	trainingClient := vision.NewTrainingClient(cfg)

	tagMap, err := vision.TagMap(ctx, trainingClient)
	if err != nil {
		log.Fatalf("failed to list project tags: %s", err)
	}

	regionsByFile, fileOrder, err := annotation.ToUploadRegions(coco, tagMap)
	if err != nil {
		log.Fatal(err)
	}

	entries := make([]models.ImageFileEntry, 0, len(fileOrder))
	for _, name := range fileOrder {
		data, err := os.ReadFile(filepath.Join(imageDir, name))
		if err != nil {
			log.Warnf("skipping %s: %s", name, err)
			continue
		}
		entries = append(entries, models.ImageFileEntry{
			Name:     name,
			Contents: base64.StdEncoding.EncodeToString(data),
			Regions:  regionsByFile[name],
		})
	}
	if len(entries) == 0 {
		log.Fatal("no annotated images to upload")
	}

	if err := vision.UploadInBatches(ctx, trainingClient, entries); err != nil {
		log.Fatal(err)
	}

	iterationName, err := vision.NextIterationName(ctx, trainingClient)
	if err != nil {
		log.Fatalf("failed to determine the next iteration name: %s", err)
	}
	log.Infof("training %q", iterationName)
	if err := trainingClient.Train(ctx, iterationName); err != nil {
		log.Fatalf("failed to start training: %s", err)
	}

	waitCtx := ctx
	if cfg.Vision.TrainingTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(
			ctx,
			time.Duration(cfg.Vision.TrainingTimeout)*time.Minute,
		)
		defer cancel()
	}
	interval := defaultPollInterval
	if cfg.Vision.PollInterval > 0 {
		interval = time.Duration(cfg.Vision.PollInterval) * time.Second
	}
	if err := vision.WaitForCompletion(waitCtx, trainingClient, iterationName, interval); err != nil {
		log.Fatal(err)
	}

	trained, err := findIteration(ctx, trainingClient, iterationName)
	if err != nil {
		log.Fatal(err)
	}
	publish := publishName
	if publish == "" {
		publish = iterationName
	}
	if err := trainingClient.Publish(ctx, trained.ID, publish); err != nil {
		log.Fatalf("failed to publish %q: %s", iterationName, err)
	}
	log.Infof("published %q as %q", iterationName, publish)
}

func findIteration(
	ctx context.Context,
	tc models.VisionTrainingClient,
	name string,
) (*models.Iteration, error) {
	iterations, err := tc.ListIterations(ctx)
	if err != nil {
		return nil, err
	}
	for i := range iterations {
		if iterations[i].Name == name {
			return &iterations[i], nil
		}
	}
	return nil, fmt.Errorf("iteration %q not found after training", name)
}

// runLabelStudio starts or stops the labeling tool
func runLabelStudio(start bool) {
	cfg := loadConfig()

	runner := labelstudio.NewRunner(cfg)
	if start {
		if err := runner.Start(); err != nil {
			log.Fatal(err)
		}
		return
	}
	if err := runner.Stop(); err != nil {
		log.Fatal(err)
	}
}

// newStore opens the configured store for a pipeline command
func newStore(cfg *config.Config) models.Store {
	if cfg.Store.Type != StoreTypeSQLite {
		log.Fatalf("store.type (%s) is not supported", cfg.Store.Type)
	}
	if cfg.Store.SQLite.DSN == "" {
		log.Fatal(ErrSQLiteDSNNotSet)
	}
	st, err := store.NewSQLiteStore(cfg.Store.SQLite.DSN)
	if err != nil {
		log.Fatal(err)
	}
	return st
}

// listImages returns the image file names directly under dir, sorted by
// the directory's natural ordering
func listImages(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}
	var names []string
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png", ".webp":
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
