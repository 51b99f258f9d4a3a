package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/swatch/internal/colour"
	"github.com/jmylchreest/swatch/internal/config"
	"github.com/jmylchreest/swatch/internal/image"
	"github.com/jmylchreest/swatch/internal/seed"
)

// extractOptions holds the extract command's flag values.
type extractOptions struct {
	colours            int
	method             string
	format             string
	output             string
	includeTransparent bool
	alphaThreshold     int
	levels             int
	sampleStep         int
	iterations         int
	maxDimension       int
	seedMode           string
	seed               int64
	preview            bool
	cacheDir           string
}

func newExtractCmd(a *app) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <image|directory|url>...",
		Short: "Extract a colour palette from one or more images",
		Long: `Extract a colour palette from images using one of several methods.

Each input produces its own palette, ordered by prevalence. Directories are
expanded to the images they contain and http(s) URLs are downloaded. Images
wrapped in gzip, bzip2 or xz are decompressed transparently.

Methods:
  kmeans     cluster a sample of pixels (default, seeded and deterministic)
  histogram  count pixels in quantized colour buckets
  dominant   weighted k-means from the dominantcolor library

Supported image formats: JPEG, PNG, GIF, WebP, BMP, TIFF

Examples:
  # Extract 8 colours (default) from an image
  swatch extract wallpaper.jpg

  # Extract 5 colours with the histogram method as a table
  swatch extract -c 5 -m histogram -f table wallpaper.png

  # Keep semi-transparent pixels of an icon and emit JSON
  swatch extract --alpha-threshold 1 -f json icon.png

  # Palettes for every image in a directory, reproducible across machines
  swatch extract --seed 42 ~/Pictures/walls`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, a, args)
		},
	}

	opts.addFlags(cmd.Flags(), a.cfg)
	return cmd
}

func (o *extractOptions) addFlags(fs *pflag.FlagSet, defaults config.Config) {
	fs.IntVarP(&o.colours, "colours", "c", defaults.Colours, fmt.Sprintf("number of colours to extract (1-%d)", colour.MaxCount))
	fs.StringVarP(&o.method, "method", "m", string(defaults.Method), fmt.Sprintf("extraction method %v", colour.ValidMethods()))
	fs.StringVarP(&o.format, "format", "f", defaults.Format, fmt.Sprintf("output format %v", validFormats()))
	fs.StringVarP(&o.output, "output", "o", "", "output file (default: stdout)")
	fs.BoolVar(&o.includeTransparent, "include-transparent", defaults.IncludeTransparent, "keep pixels below the alpha threshold")
	fs.IntVar(&o.alphaThreshold, "alpha-threshold", defaults.AlphaThreshold, "minimum alpha (0-255) for a pixel to count")
	fs.IntVar(&o.levels, "levels", defaults.Levels, "histogram quantization levels per channel (power of two, 2-256)")
	fs.IntVar(&o.sampleStep, "sample-step", defaults.SampleStep, "k-means sampling stride (0 = automatic)")
	fs.IntVar(&o.iterations, "iterations", defaults.Iterations, "maximum k-means iterations")
	fs.IntVar(&o.maxDimension, "max-dimension", defaults.MaxDimension, "downscale images larger than this before extraction (0 = never)")
	fs.StringVar(&o.seedMode, "seed-mode", string(defaults.SeedMode), fmt.Sprintf("k-means seed source %v", seed.ValidModes()))
	fs.Int64Var(&o.seed, "seed", 0, "k-means seed (implies --seed-mode manual)")
	fs.BoolVar(&o.preview, "preview", false, "show colour swatches when writing to a terminal")
	fs.StringVar(&o.cacheDir, "cache-dir", defaults.CacheDir, "cache downloaded images in this directory")
}

// resolve merges the flag values into validated extraction settings.
func (o *extractOptions) resolve(fs *pflag.FlagSet) (config.Config, seed.Config, error) {
	method, err := colour.ParseMethod(o.method)
	if err != nil {
		return config.Config{}, seed.Config{}, err
	}
	format, err := parseFormat(o.format)
	if err != nil {
		return config.Config{}, seed.Config{}, err
	}
	mode, err := seed.ParseMode(o.seedMode)
	if err != nil {
		return config.Config{}, seed.Config{}, &colour.ConfigurationError{Field: "seed mode", Value: o.seedMode, Reason: err.Error()}
	}

	seedCfg := seed.Config{Mode: mode}
	if fs.Changed("seed") {
		if !fs.Changed("seed-mode") {
			seedCfg.Mode = seed.ModeManual
		}
		v := o.seed
		seedCfg.Value = &v
	}
	if seedCfg.Mode == seed.ModeManual && seedCfg.Value == nil {
		return config.Config{}, seed.Config{}, &colour.ConfigurationError{Field: "seed", Value: "", Reason: "--seed is required with --seed-mode manual"}
	}

	cfg := config.Config{
		Colours:            o.colours,
		Method:             method,
		Format:             format,
		IncludeTransparent: o.includeTransparent,
		AlphaThreshold:     o.alphaThreshold,
		Levels:             o.levels,
		SampleStep:         o.sampleStep,
		Iterations:         o.iterations,
		MaxDimension:       o.maxDimension,
		SeedMode:           seedCfg.Mode,
		CacheDir:           o.cacheDir,
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, seed.Config{}, err
	}
	return cfg, seedCfg, nil
}

func (o *extractOptions) run(cmd *cobra.Command, a *app, args []string) error {
	cfg, seedCfg, err := o.resolve(cmd.Flags())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	inputs, err := image.ResolveInputs(args)
	if err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}

	loader := image.NewSmartLoader()
	if cfg.CacheDir != "" {
		loader = loader.WithCache(cfg.CacheDir)
	}

	preview := o.preview && o.output == "" && writerSupportsColour(cmd)
	if o.preview && !preview {
		a.logger.Debug("colour preview disabled, output is not a colour terminal")
	}

	var (
		sources  []string
		palettes []*colour.Palette
	)
	for _, input := range inputs {
		palette, err := extractOne(cmd.Context(), a.logger, loader, input, cfg, seedCfg)
		if err != nil {
			return err
		}
		if palette.IsEmpty() {
			continue
		}
		sources = append(sources, input)
		palettes = append(palettes, palette)
	}

	output, err := render(sources, palettes, cfg.Format, preview, len(inputs) > 1)
	if err != nil {
		return err
	}

	if o.output == "" {
		fmt.Fprint(cmd.OutOrStdout(), output)
		return nil
	}
	if err := os.WriteFile(o.output, []byte(output), 0o644); err != nil { // #nosec G306 - palette output is not sensitive
		return fmt.Errorf("failed to write output file: %w", err)
	}
	a.logger.Debug("wrote palettes", "path", o.output, "count", len(palettes))
	return nil
}

// extractOne loads, prepares and extracts a single input. Empty palettes are
// logged and returned without error.
func extractOne(ctx context.Context, logger hclog.Logger, loader image.Loader, input string, cfg config.Config, seedCfg seed.Config) (*colour.Palette, error) {
	log := logger.With("run", uuid.NewString(), "input", input)
	start := time.Now()

	img, err := loader.Load(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	bounds := img.Bounds()
	log.Debug("image loaded", "width", bounds.Dx(), "height", bounds.Dy())

	if cfg.MaxDimension > 0 {
		img = image.Downscale(img, cfg.MaxDimension)
		if b := img.Bounds(); b != bounds {
			log.Debug("image downscaled", "width", b.Dx(), "height", b.Dy())
		}
	}

	ecfg := cfg.ExtractorConfig()
	ecfg.Logger = log.Named("colour")
	if ecfg.Method == colour.MethodKMeans {
		s, err := seed.Calculate(img, input, seedCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate seed: %w", err)
		}
		ecfg.Seed = s
		log.Debug("seed selected", "mode", seedCfg.Mode, "seed", s)
	}

	palette, err := colour.Extract(img, ecfg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract colours from %s: %w", input, err)
	}

	if palette.Warning != nil {
		log.Warn("no colours extracted", "reason", palette.Warning.Error())
		return palette, nil
	}
	log.Info("palette extracted",
		"method", palette.Method,
		"colours", palette.Len(),
		"sampled", palette.Sampled,
		"excluded", palette.Excluded,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return palette, nil
}

// render formats the non-empty palettes. multi reports whether the run had
// several inputs, in which case each palette is labelled with its source.
func render(sources []string, palettes []*colour.Palette, format string, preview, multi bool) (string, error) {
	if !multi {
		if len(palettes) == 0 {
			return "", nil
		}
		return formatPalette(palettes[0], format, preview)
	}
	if format == FormatJSON {
		return formatJSONSet(sources, palettes)
	}

	var sb strings.Builder
	for i, p := range palettes {
		if i > 0 {
			sb.WriteByte('\n')
		}
		out, err := formatPalette(p, format, preview)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "# %s\n%s", sources[i], out)
	}
	return sb.String(), nil
}

func writerSupportsColour(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && colour.SupportsANSIColours(f)
}
