package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dgallion1/blackout/internal/config"
	"github.com/dgallion1/blackout/internal/dom"
	"github.com/dgallion1/blackout/internal/export"
	"github.com/dgallion1/blackout/internal/parser"
	"github.com/dgallion1/blackout/internal/policy"
	"github.com/dgallion1/blackout/internal/redact"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	redactMode         string
	redactIntensity    float64
	redactKeepProper   bool
	redactKeepLong     bool
	redactKeepNumbers  bool
	redactAllWords     bool
	redactSeed         uint64
	redactSettingsFile string
	redactFormat       string
	redactOutput       string
	redactNoColor      bool
	redactReveal       bool
	redactNoSanitize   bool
)

var redactCmd = &cobra.Command{
	Use:   "redact FILE",
	Short: "Redact a document and write the result",
	Long: `Parse FILE, run one auto-redaction pass over it and write the result.

Supported inputs: .html .htm .md .markdown .txt .csv .docx .pdf

Settings come from the mode preset, then --settings (YAML), then any flag
given explicitly on the command line.

Examples:
  blackout redact notes.md
  blackout redact --mode privacy --format html page.html -o out.html
  blackout redact --all --reveal report.docx`,
	Args: cobra.ExactArgs(1),
	RunE: runRedact,
}

func init() {
	f := redactCmd.Flags()
	f.StringVar(&redactMode, "mode", string(policy.ModePoetry), "Redaction mode (poetry, privacy, random)")
	f.Float64Var(&redactIntensity, "intensity", policy.DefaultIntensity, "Redaction intensity between 0 and 1")
	f.BoolVar(&redactKeepProper, "keep-proper-nouns", true, "Keep capitalized words visible (poetry mode)")
	f.BoolVar(&redactKeepLong, "keep-long-words", true, "Keep long words visible (poetry mode)")
	f.BoolVar(&redactKeepNumbers, "keep-numbers", false, "Keep words containing digits visible")
	f.BoolVar(&redactAllWords, "all", false, "Redact every eligible word")
	f.Uint64Var(&redactSeed, "seed", 0, "Random seed (0 uses the clock)")
	f.StringVar(&redactSettingsFile, "settings", "", "YAML settings file")
	f.StringVar(&redactFormat, "format", "text", "Output format (html, markdown, text)")
	f.StringVarP(&redactOutput, "output", "o", "", "Output file (default stdout)")
	f.BoolVar(&redactNoColor, "no-color", false, "Disable colored text output")
	f.BoolVar(&redactReveal, "reveal", false, "Print redacted words in text output instead of masking them")
	f.BoolVar(&redactNoSanitize, "no-sanitize", false, "Parse HTML input without sanitizing it")
	rootCmd.AddCommand(redactCmd)
}

func runRedact(cmd *cobra.Command, args []string) error {
	log := newLogger()

	format, err := export.ParseFormat(redactFormat)
	if err != nil {
		return err
	}
	settings, err := redactSettings(cmd)
	if err != nil {
		return err
	}

	start := time.Now()
	doc, err := parser.ParseFile(args[0], parser.Options{
		Sanitize:          !redactNoSanitize,
		FallbackPdftotext: true,
	})
	if err != nil {
		return err
	}

	seed := redactSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	sess := redact.NewSession(doc, redact.Options{Seed: seed, Defaults: settings, Logger: log})

	var res redact.Result
	if redactAllWords {
		res = sess.RedactAll()
	} else {
		res = sess.AutoRedact(settings)
	}
	log.Info("redacted", "file", args[0], "mode", settings.Mode, "spans", res.Redacted, "duration", time.Since(start))

	var w io.Writer = cmd.OutOrStdout()
	useColor := !redactNoColor && redactOutput == ""
	if redactOutput != "" {
		f, err := os.Create(redactOutput)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if redactNoColor {
		color.NoColor = true
	}
	return writeDocument(w, doc, format, export.TextOptions{Reveal: redactReveal, Color: useColor})
}

// redactSettings layers the preset, the settings file and explicit flags.
func redactSettings(cmd *cobra.Command) (policy.Settings, error) {
	flags := cmd.Flags()
	if !policy.Mode(redactMode).Valid() {
		return policy.Settings{}, fmt.Errorf("unknown mode %q", redactMode)
	}
	settings := policy.Preset(policy.Mode(redactMode))
	if redactSettingsFile != "" {
		s, err := config.LoadSettingsFile(redactSettingsFile)
		if err != nil {
			return policy.Settings{}, err
		}
		settings = s
		if flags.Changed("mode") {
			settings.Mode = policy.Mode(redactMode)
		}
	}
	if flags.Changed("intensity") {
		settings.Intensity = redactIntensity
	}
	if flags.Changed("keep-proper-nouns") {
		settings.KeepProperNouns = redactKeepProper
	}
	if flags.Changed("keep-long-words") {
		settings.KeepLongWords = redactKeepLong
	}
	if flags.Changed("keep-numbers") {
		settings.KeepNumbers = redactKeepNumbers
	}
	return settings.Normalize(), nil
}

func writeDocument(w io.Writer, doc *dom.Document, format export.Format, opts export.TextOptions) error {
	switch format {
	case export.FormatHTML:
		_, err := io.WriteString(w, export.HTML(doc))
		return err
	case export.FormatMarkdown:
		md, err := export.Markdown(doc)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, md)
		return err
	default:
		return export.WriteText(w, doc, opts)
	}
}
