package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ArnaudCalmettes/histonorm/batch"
	"github.com/ArnaudCalmettes/histonorm/norm"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "histonorm",
	Short: "Batch intensity normalization of 16-bit microscopy images",
	Long: `Histonorm rescales the foreground of 16-bit grayscale images to a common
median and spread, leaving their background untouched, so that acquisitions
made with different exposure or gain become comparable.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	zerolog.DurationFieldInteger = true
	zerolog.DurationFieldUnit = time.Millisecond

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.histonorm.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console or json)")
	flags.String("journal", "", "sqlite database recording the outcome of each image (disabled if empty)")
	flags.String("policy", string(norm.MedianMatch), "normalization policy ("+strings.Join(norm.Policies(), ", ")+")")
	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("log.format", flags.Lookup("log-format"))
	viper.BindPFlag("journal", flags.Lookup("journal"))
	viper.BindPFlag("policy", flags.Lookup("policy"))

	d := norm.DefaultConfig()
	flags.String("median-reference", string(d.MedianReference), "samples the median offset is computed from (foreground or image)")
	flags.Float64("desired-median", d.DesiredMedian, "median the foreground is moved to")
	flags.Float64("desired-width", d.DesiredWidth, "foreground spread targeted by the peakwidth policy")
	flags.Float64("exclusion-fraction", d.ExclusionFraction, "fraction of 65535 above which pixels are zeroed (peakwidth policy)")
	viper.BindPFlag("median_reference", flags.Lookup("median-reference"))
	viper.BindPFlag("desired_median", flags.Lookup("desired-median"))
	viper.BindPFlag("desired_width", flags.Lookup("desired-width"))
	viper.BindPFlag("exclusion_fraction", flags.Lookup("exclusion-fraction"))

	setDefaults()
}

// setDefaults registers the historical parameter set under the config keys.
func setDefaults() {
	d := norm.DefaultConfig()
	viper.SetDefault("median_reference", string(d.MedianReference))
	viper.SetDefault("desired_median", d.DesiredMedian)
	viper.SetDefault("desired_width", d.DesiredWidth)
	viper.SetDefault("exclusion_fraction", d.ExclusionFraction)
	viper.SetDefault("roi_intensity_fraction", d.ROIIntensityFraction)
	viper.SetDefault("width_fraction", d.WidthFraction)
	viper.SetDefault("quantile", d.Quantile)
	viper.SetDefault("histogram.bins", d.Bins)
	viper.SetDefault("histogram.valley_start", d.ValleyWindow.Start)
	viper.SetDefault("histogram.valley_end", d.ValleyWindow.End)
	viper.SetDefault("histogram.peak_start", d.PeakWindow.Start)
	viper.SetDefault("histogram.peak_end", d.PeakWindow.End)
	viper.SetDefault("histogram.peak_offset", d.PeakOffset)
	viper.SetDefault("output.suffix", batch.DefaultSuffix)
	viper.SetDefault("output.tiff_compression", "none")
	viper.SetDefault("scan.extensions", batch.DefaultExtensions)
}

func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in home directory with name ".histonorm" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".histonorm")
	}

	viper.AutomaticEnv() // read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetEnvPrefix("HNORM")

	// If a config file is found, read it in.
	err := viper.ReadInConfig()
	log := newLogger(os.Stderr)
	if err == nil {
		log.Info().Str("component", "cli").Str("file", viper.ConfigFileUsed()).Msg("using config file")
	} else if cfgFile != "" {
		log.Fatal().Str("component", "cli").Err(err).Msg("couldn't read config file")
	}
}

// engineConfig builds the engine configuration from flags, environment and
// config file.
func engineConfig() (norm.Config, error) {
	policy, err := norm.ParsePolicy(viper.GetString("policy"))
	if err != nil {
		return norm.Config{}, err
	}

	cfg := norm.Config{
		Policy:               policy,
		MedianReference:      norm.Reference(viper.GetString("median_reference")),
		DesiredMedian:        viper.GetFloat64("desired_median"),
		DesiredWidth:         viper.GetFloat64("desired_width"),
		ExclusionFraction:    viper.GetFloat64("exclusion_fraction"),
		ROIIntensityFraction: viper.GetFloat64("roi_intensity_fraction"),
		WidthFraction:        viper.GetFloat64("width_fraction"),
		Quantile:             viper.GetFloat64("quantile"),
		Bins:                 viper.GetInt("histogram.bins"),
		PeakOffset:           viper.GetInt("histogram.peak_offset"),
	}
	cfg.ValleyWindow.Start = viper.GetInt("histogram.valley_start")
	cfg.ValleyWindow.End = viper.GetInt("histogram.valley_end")
	cfg.PeakWindow.Start = viper.GetInt("histogram.peak_start")
	cfg.PeakWindow.End = viper.GetInt("histogram.peak_end")
	return cfg, cfg.Validate()
}

// newLogger returns a logger configured from the log.* keys.
func newLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(viper.GetString("log.level"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if viper.GetString("log.format") == "json" {
		return zerolog.New(w).Level(level).With().Timestamp().Logger()
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
