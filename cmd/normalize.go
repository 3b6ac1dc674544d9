package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ArnaudCalmettes/histonorm/batch"
	"github.com/ArnaudCalmettes/histonorm/imp"
	"github.com/ArnaudCalmettes/histonorm/models"
	"github.com/ArnaudCalmettes/histonorm/norm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	resume       bool
	skipExisting bool
)

// normalizeCmd represents the normalize command
var normalizeCmd = &cobra.Command{
	Use:   "normalize DIR...",
	Short: "Normalize every image found under the given directories",
	Long: `Normalize scans the given directories recursively and writes a normalized
copy of every image next to it, named after the input with a suffix
(cells.tif -> cells_adjusted.tif). A failing image is reported and the
batch goes on.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return normalize(args)
	},
}

func normalize(roots []string) error {
	log := newLogger(os.Stderr)

	cfg, err := engineConfig()
	if err != nil {
		return err
	}
	engine, err := norm.New(cfg)
	if err != nil {
		return err
	}
	compression, err := imp.ParseCompression(viper.GetString("output.tiff_compression"))
	if err != nil {
		return err
	}

	suffix := viper.GetString("output.suffix")
	scanner := batch.Scanner{
		Extensions: viper.GetStringSlice("scan.extensions"),
		Suffix:     suffix,
	}
	inputs, err := scanner.Scan(roots...)
	if err != nil {
		return err
	}
	log.Info().Str("component", "cli").Int("images", len(inputs)).Str("policy", string(cfg.Policy)).Msg("starting batch")

	runner := &batch.Runner{
		Engine:       engine,
		Suffix:       suffix,
		Compression:  compression,
		Workers:      viper.GetInt("workers"),
		SkipExisting: skipExisting,
		Log:          log,
	}

	if path := viper.GetString("journal"); path != "" {
		db, err := models.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()

		if resume {
			if runner.Completed, err = models.CompletedInputs(db, batch.StatusOK); err != nil {
				return err
			}
		}
		j, err := models.NewJournal(db, string(cfg.Policy), strings.Join(roots, ","))
		if err != nil {
			return err
		}
		runner.Journal = j
		log.Debug().Str("component", "journal").Uint("run", j.Run().ID).Msg("journaling outcomes")
	} else if resume {
		log.Warn().Str("component", "cli").Msg("--resume has no effect without a journal")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep := runner.Run(ctx, inputs)
	log.Info().Str("component", "cli").
		Int("ok", rep.OK).Int("failed", rep.Failed).Int("skipped", rep.Skipped).
		Msg("batch done")
	for _, res := range rep.Degenerate() {
		log.Warn().Str("component", "cli").Str("input", res.Input).Msg("left untouched, check the acquisition")
	}
	return rep.Err()
}

func init() {
	rootCmd.AddCommand(normalizeCmd)

	flags := normalizeCmd.Flags()
	flags.StringP("suffix", "s", batch.DefaultSuffix, "suffix of output file names")
	flags.String("compression", "none", "tiff output compression (none or deflate)")
	flags.StringSlice("ext", batch.DefaultExtensions, "extensions of the images to process")
	flags.IntP("workers", "j", 0, "images processed concurrently (default is the CPU count)")
	flags.BoolVar(&resume, "resume", false, "skip images successfully processed by a journaled run")
	flags.BoolVar(&skipExisting, "skip-existing", false, "skip images whose output already exists")

	viper.BindPFlag("output.suffix", flags.Lookup("suffix"))
	viper.BindPFlag("output.tiff_compression", flags.Lookup("compression"))
	viper.BindPFlag("scan.extensions", flags.Lookup("ext"))
	viper.BindPFlag("workers", flags.Lookup("workers"))
}
