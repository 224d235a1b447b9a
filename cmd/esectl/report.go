package main

import (
	"sync"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/joshuapare/esekit/internal/report"
	"github.com/joshuapare/esekit/internal/scan"
	"github.com/joshuapare/esekit/internal/sqlitestore"
	"github.com/joshuapare/esekit/pkg/ese"
	"github.com/joshuapare/esekit/pkg/types"
)

func init() {
	rootCmd.AddCommand(newReportCmd())
}

func newReportCmd() *cobra.Command {
	var (
		formatFlag string
		outputFlag string
		outDir     string
		checksums  bool
	)
	cmd := &cobra.Command{
		Use:   "report <input>",
		Short: "Recover reports from every index store under a directory",
		Long: `The report command walks the input directory for Windows Search index
databases and writes a File Report, Activity History Report and Internet
History Report per store. A single store file may be given instead of a
directory.

Example:
  esectl report /evidence/C --outdir reports
  esectl report Windows.edb --format csv --output stdout`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			dest, err := report.ParseDestination(outputFlag)
			if err != nil {
				return err
			}
			return runReport(args[0], format, dest, outDir, checksums)
		},
	}
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "json", "Report format: json or csv")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "file", "Report destination: file or stdout")
	cmd.Flags().StringVarP(&outDir, "outdir", "d", ".", "Directory for report files")
	cmd.Flags().BoolVar(&checksums, "verify-checksums", false, "Verify page checksums while reading")
	return cmd
}

func runReport(input string, format report.Format, dest report.Destination, outDir string, checksums bool) error {
	if dest == report.ToStdout {
		// Report records own stdout; keep status chatter off it.
		quiet = true
	}
	fs := afero.NewOsFs()
	stores, err := scan.Discover(fs, input)
	if err != nil {
		return err
	}
	if len(stores) == 0 {
		printInfo("No index stores found under %s\n", input)
		return nil
	}

	producer, err := report.NewProducer(fs, outDir, format, dest)
	if err != nil {
		return err
	}

	// One worker per store; stores are independent and the producer
	// serializes stdout-bound writers itself.
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for _, store := range stores {
		store := store
		wg.Add(1)
		go func() {
			defer wg.Done()
			paths, err := processStore(store, producer, checksums)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Partial reports may still have been written.
				failed++
				printError("%s: %v\n", store.Path, err)
			} else {
				printVerbose("Processed %s (%s)\n", store.Path, store.Kind)
			}
			for _, p := range paths {
				printVerbose("  wrote %s\n", p)
			}
		}()
	}
	wg.Wait()

	printInfo("Processed %d store(s), %d failed\n", len(stores), failed)
	return nil
}

func processStore(store scan.Store, producer *report.Producer, checksums bool) ([]string, error) {
	if store.Kind == scan.KindSQLite {
		return sqlitestore.GenerateReport(store.Path, producer)
	}
	opts := types.OpenOptions{
		AcceptDirty:     true,
		VerifyChecksums: checksums,
		OnDiagnostic: func(d types.Diagnostic) {
			printVerbose("%s: %s\n", store.Path, d)
		},
	}
	return ese.GenerateReport(store.Path, producer, opts)
}
