package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/thumbtrend/thumbtrend/config"
	"github.com/thumbtrend/thumbtrend/internal"
)

var (
	log *logrus.Logger

	cfgFile     string
	showVersion bool
	dumpConfig  bool
	generateKey bool

	labelFile   string
	imageDir    string
	outputFile  string
	iteration   string
	publishName string
	threshold   float64
	startLabeler bool
)

var cmd = &cobra.Command{
	Use:   "thumbtrend",
	Short: "thumbtrend crawls trending thumbnails, scores them with hosted detection models, and serves a comparison dashboard",
	Run:   func(cmd *cobra.Command, args []string) { run() },
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl thumbnail sources",
}

var crawlYouTubeCmd = &cobra.Command{
	Use:   "youtube",
	Short: "Download thumbnails from the trending page",
	Run:   func(cmd *cobra.Command, args []string) { runCrawl("youtube") },
}

var crawlPlayboardCmd = &cobra.Command{
	Use:   "playboard",
	Short: "Download thumbnails from the daily view-count charts",
	Run:   func(cmd *cobra.Command, args []string) { runCrawl("playboard") },
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Detect objects in a directory of images and write the results as a COCO file",
	Run:   func(cmd *cobra.Command, args []string) { runPredict() },
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Convert a COCO file into labeling tasks",
	Run:   func(cmd *cobra.Command, args []string) { runExport() },
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Upload corrected COCO annotations, train a new iteration, and publish it",
	Run:   func(cmd *cobra.Command, args []string) { runTrain() },
}

var labelStudioCmd = &cobra.Command{
	Use:   "label-studio",
	Short: "Manage the local labeling tool",
}

var labelStudioStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the labeling tool with local file serving enabled",
	Run:   func(cmd *cobra.Command, args []string) { runLabelStudio(true) },
}

var labelStudioStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a previously started labeling tool",
	Run:   func(cmd *cobra.Command, args []string) { runLabelStudio(false) },
}

var dumpJsonSchemaCmd = &cobra.Command{
	Use:     "json-schema",
	Short:   "Generates JSON Schema for thumbtrend's configuration file",
	Example: "thumbtrend json-schema > thumbtrend_config_schema.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := config.JSONSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(schema))
		return nil
	},
}

func init() {
	crawlCmd.AddCommand(crawlYouTubeCmd)
	crawlCmd.AddCommand(crawlPlayboardCmd)
	labelStudioCmd.AddCommand(labelStudioStartCmd)
	labelStudioCmd.AddCommand(labelStudioStopCmd)
	cmd.AddCommand(crawlCmd)
	cmd.AddCommand(predictCmd)
	cmd.AddCommand(exportCmd)
	cmd.AddCommand(trainCmd)
	cmd.AddCommand(labelStudioCmd)
	cmd.AddCommand(dumpJsonSchemaCmd)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default config.yaml)")
	cmd.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "print version number")
	cmd.PersistentFlags().BoolVarP(&dumpConfig, "dump-config", "d", false, "dump config")
	cmd.PersistentFlags().
		BoolVarP(&generateKey, "generate-token", "g", false, "generate a new JWT token")

	predictCmd.Flags().StringVarP(&imageDir, "images", "i", "", "directory of images to analyze")
	predictCmd.Flags().StringVarP(&outputFile, "output", "o", "predictions_coco.json", "COCO output path")
	predictCmd.Flags().
		StringVar(&iteration, "iteration", "", "published iteration name (default: latest published)")
	predictCmd.Flags().Float64VarP(&threshold, "threshold", "t", 0, "override per-label confidence thresholds")
	predictCmd.Flags().
		BoolVar(&startLabeler, "label-studio", false, "also write labeling tasks and start the labeling tool")
	_ = predictCmd.MarkFlagRequired("images")

	exportCmd.Flags().StringVarP(&labelFile, "coco", "c", "", "COCO file to convert")
	exportCmd.Flags().StringVarP(&imageDir, "images", "i", "", "image directory the tasks point at")
	exportCmd.Flags().StringVarP(&outputFile, "output", "o", "tasks.json", "task file output path")
	_ = exportCmd.MarkFlagRequired("coco")
	_ = exportCmd.MarkFlagRequired("images")

	trainCmd.Flags().StringVarP(&labelFile, "coco", "c", "", "corrected COCO annotation file")
	trainCmd.Flags().StringVarP(&imageDir, "images", "i", "", "directory holding the annotated images")
	trainCmd.Flags().
		StringVar(&publishName, "publish-name", "", "publish name for the trained iteration (default: the iteration name)")
	_ = trainCmd.MarkFlagRequired("coco")
	_ = trainCmd.MarkFlagRequired("images")
}

// Execute executes the root cobra command.
func Execute() {
	log = internal.GetLogger()
	log.SetLevel(logrus.InfoLevel)

	err := cmd.Execute()

	if err != nil {
		os.Exit(1)
	}
}
