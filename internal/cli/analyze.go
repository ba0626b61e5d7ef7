package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/xhad/langdetect/internal/models"
	"github.com/xhad/langdetect/internal/types"
	"github.com/xhad/langdetect/pkg/analysis"
	"github.com/xhad/langdetect/pkg/export"
	"github.com/xhad/langdetect/pkg/registry"
	"github.com/xhad/langdetect/pkg/session"
	"github.com/xhad/langdetect/pkg/view"
)

var (
	analyzeMethod  string
	analyzeSave    bool
	analyzeOutDir  string
	analyzeTimings bool
	analyzeNoColor bool
)

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [files...]",
		Short: "Analyze documents from the terminal",
		Long: `Send one or more documents to the analysis service and print the detected
language and summaries of each one.

Examples:
  langdetect analyze --method ngram page.html
  langdetect analyze -m neural --save --out-dir ./out a.html b.html`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringVarP(&analyzeMethod, "method", "m", "", "detection method (ngram, alphabet, neural)")
	cmd.Flags().BoolVar(&analyzeSave, "save", false, "save the results file")
	cmd.Flags().StringVar(&analyzeOutDir, "out-dir", "", "directory for the results file (overrides config)")
	cmd.Flags().BoolVar(&analyzeTimings, "timings", false, "show per-stage processing times")
	cmd.Flags().BoolVar(&analyzeNoColor, "no-color", false, "disable colored output")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flag("out-dir").Changed {
		cfg.Export.Dir = analyzeOutDir
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	client, err := analysis.NewWithConfig(analysis.ClientConfig{
		BaseURL:    cfg.API.BaseURL,
		UploadPath: cfg.API.UploadPath,
		Timeout:    cfg.API.Timeout,
		RateLimit:  cfg.API.RateLimit,
	}, log.Named("analysis"))
	if err != nil {
		return fmt.Errorf("failed to initialize analysis client: %w", err)
	}

	sess := session.New(client, registry.New(cfg.Server.FilesPath), log.Named("session"))

	if analyzeMethod != "" {
		method, err := models.ParseMethod(analyzeMethod)
		if err != nil {
			return err
		}
		if err := sess.SelectMethod(method); err != nil {
			return err
		}
	}

	files, local, err := readFiles(args)
	if err != nil {
		return err
	}
	sess.SetFiles(files)

	out := cmd.OutOrStdout()
	spinner := getSpinner(cmd.ErrOrStderr(), fmt.Sprintf(" Analyzing %d file(s)...", len(files)), analyzeNoColor)
	results, err := sess.Submit(context.Background())
	_ = spinner.Finish()
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if err := view.RenderText(out, results, local, view.TextOptions{
		NoColor: analyzeNoColor,
		Timings: analyzeTimings,
	}); err != nil {
		return err
	}

	if !analyzeSave {
		return nil
	}
	artifact, err := export.Export(results)
	if err != nil {
		return err
	}
	path, err := artifact.Save(cfg.Export.Dir)
	if err != nil {
		return err
	}

	saved := color.New(color.FgGreen)
	if analyzeNoColor {
		saved.DisableColor()
	}
	saved.Fprintf(out, "✓ Results saved to %s\n", path)
	return nil
}

// localFiles resolves result names back to the files read from disk.
type localFiles map[string]string

func (l localFiles) Resolve(name string) (types.Reference, bool) {
	path, ok := l[name]
	if !ok {
		return types.Reference{}, false
	}
	return types.Reference{Name: name, URL: path}, true
}

func readFiles(paths []string) ([]models.UploadedFile, localFiles, error) {
	files := make([]models.UploadedFile, 0, len(paths))
	local := make(localFiles, len(paths))

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		name := filepath.Base(p)
		files = append(files, models.NewUploadedFile(name, "", data))
		if abs, err := filepath.Abs(p); err == nil {
			local[name] = abs
		} else {
			local[name] = p
		}
	}
	return files, local, nil
}

func getSpinner(w io.Writer, description string, noColor bool) *progressbar.ProgressBar {
	if !noColor {
		description = color.CyanString(description)
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(!noColor),
		progressbar.OptionSetRenderBlankState(true),
	)
}
