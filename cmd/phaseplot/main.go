package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/phaseplot/internal/api"
	"github.com/banshee-data/phaseplot/internal/config"
	"github.com/banshee-data/phaseplot/internal/db"
	"github.com/banshee-data/phaseplot/internal/monitoring"
	"github.com/banshee-data/phaseplot/internal/phaseplot"
	"github.com/banshee-data/phaseplot/internal/security"
	"github.com/banshee-data/phaseplot/internal/snapshot"
	"github.com/banshee-data/phaseplot/internal/surface"
	"github.com/banshee-data/phaseplot/internal/version"
)

const defaultDBPath = "phaseplot.db"

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: phaseplot <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  import   Import a gas CSV table as a snapshot")
	fmt.Fprintln(w, "  list     List stored snapshots")
	fmt.Fprintln(w, "  delete   Delete a stored snapshot")
	fmt.Fprintln(w, "  plot     Draw a phase plot from a stored snapshot or a CSV file")
	fmt.Fprintln(w, "  serve    Serve snapshots and plots over HTTP")
	fmt.Fprintln(w, "  migrate  Manage the database schema")
	fmt.Fprintln(w, "  version  Print build information")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Plot kinds: %s\n", strings.Join(phaseplot.Kinds(), ", "))
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		usage(stdout)
		return fmt.Errorf("missing command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "import":
		return runImport(rest, stdout)
	case "list":
		return runList(rest, stdout)
	case "delete":
		return runDelete(rest, stdout)
	case "plot":
		return runPlot(rest, stdout)
	case "serve":
		return runServe(rest)
	case "migrate":
		return runMigrate(rest, stdout)
	case "version":
		fmt.Fprintln(stdout, version.String())
		return nil
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		usage(stdout)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// newFlagSet returns a flag set with the options shared by every command.
func newFlagSet(name string, stdout io.Writer) (*flag.FlagSet, *string, *bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stdout)
	dbPath := fs.String("db", defaultDBPath, "Path to the snapshot database")
	verbose := fs.Bool("v", false, "Verbose logging")
	return fs, dbPath, verbose
}

func runImport(args []string, stdout io.Writer) error {
	fs, dbPath, verbose := newFlagSet("import", stdout)
	name := fs.String("name", "", "Snapshot name (default: file name without extension)")
	z := fs.Float64("z", 0, "Redshift of the snapshot")
	if err := fs.Parse(args); err != nil {
		return err
	}
	monitoring.SetVerbose(*verbose)
	if fs.NArg() != 1 {
		return fmt.Errorf("import needs exactly one CSV file")
	}
	path := fs.Arg(0)
	if *name == "" {
		*name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	m, err := readCSVFile(path, *z)
	if err != nil {
		return err
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	id, err := database.ImportSnapshot(*name, m)
	if err != nil {
		return err
	}
	monitoring.Logf("imported %d particles from %s", m.Len(), path)
	fmt.Fprintln(stdout, id)
	return nil
}

func readCSVFile(path string, z float64) (*snapshot.Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := snapshot.ReadCSV(f, z)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func runList(args []string, stdout io.Writer) error {
	fs, dbPath, _ := newFlagSet("list", stdout)
	if err := fs.Parse(args); err != nil {
		return err
	}
	database, err := db.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	list, err := database.ListSnapshots()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tREDSHIFT\tPARTICLES\tFIELDS\tCREATED")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%.3g\t%d\t%s\t%s\n",
			s.ID, s.Name, s.Redshift, s.Particles, strings.Join(s.Fields, ","), s.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func runDelete(args []string, stdout io.Writer) error {
	fs, dbPath, _ := newFlagSet("delete", stdout)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("delete needs exactly one snapshot ID")
	}
	database, err := db.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := database.DeleteSnapshot(fs.Arg(0)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "deleted %s\n", fs.Arg(0))
	return nil
}

// plotFlags are command-line overrides applied on top of the config file.
type plotFlags struct {
	gridSize int
	binning  string
	xscale   string
	yscale   string
	cmap     string
	title    string
	noCMB    bool
}

func (f plotFlags) apply(cfg *config.PlotConfig) error {
	if f.gridSize != 0 {
		cfg.GridSize = &f.gridSize
	}
	for _, o := range []struct {
		val string
		dst **string
	}{
		{f.binning, &cfg.Binning},
		{f.xscale, &cfg.XScale},
		{f.yscale, &cfg.YScale},
		{f.cmap, &cfg.Cmap},
		{f.title, &cfg.Title},
	} {
		if o.val != "" {
			v := o.val
			*o.dst = &v
		}
	}
	if f.noCMB {
		off := false
		cfg.CMBLine = &off
	}
	return cfg.Validate()
}

func runPlot(args []string, stdout io.Writer) error {
	fs, dbPath, verbose := newFlagSet("plot", stdout)
	var pf plotFlags
	snapID := fs.String("snapshot", "", "ID of a stored snapshot")
	csvPath := fs.String("csv", "", "Plot directly from a CSV file instead of the database")
	z := fs.Float64("z", 0, "Redshift for -csv input")
	kind := fs.String("kind", "temperature", "Plot kind: "+strings.Join(phaseplot.Kinds(), ", "))
	out := fs.String("o", "", "Output file (default: <name>_<kind>.<format>)")
	cfgPath := fs.String("config", "", "JSON plot configuration")
	fs.IntVar(&pf.gridSize, "gridsize", 0, "Number of bin edges per axis")
	fs.StringVar(&pf.binning, "binning", "", "Colour scaling: log or linear")
	fs.StringVar(&pf.xscale, "xscale", "", "x bin spacing: log or linear")
	fs.StringVar(&pf.yscale, "yscale", "", "y bin spacing: log or linear")
	fs.StringVar(&pf.cmap, "cmap", "", "Colour map name")
	fs.StringVar(&pf.title, "title", "", "Plot title")
	fs.BoolVar(&pf.noCMB, "no-cmb", false, "Omit the CMB reference line on temperature plots")
	if err := fs.Parse(args); err != nil {
		return err
	}
	monitoring.SetVerbose(*verbose)

	plotFn, err := phaseplot.Lookup(*kind)
	if err != nil {
		return err
	}

	cfg := config.EmptyPlotConfig()
	if *cfgPath != "" {
		if cfg, err = config.LoadPlotConfig(*cfgPath); err != nil {
			return err
		}
	}
	if err := pf.apply(cfg); err != nil {
		return err
	}

	var (
		snap snapshot.Snapshot
		name string
	)
	switch {
	case *csvPath != "" && *snapID != "":
		return fmt.Errorf("use either -snapshot or -csv, not both")
	case *csvPath != "":
		m, err := readCSVFile(*csvPath, *z)
		if err != nil {
			return err
		}
		snap, name = m, strings.TrimSuffix(filepath.Base(*csvPath), filepath.Ext(*csvPath))
	case *snapID != "":
		database, err := db.NewDB(*dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()
		info, err := database.GetSnapshot(*snapID)
		if err != nil {
			return err
		}
		m, err := database.LoadSnapshot(*snapID)
		if err != nil {
			return err
		}
		snap, name = m, info.Name
	default:
		return fmt.Errorf("plot needs -snapshot or -csv")
	}

	format := cfg.GetFormat()
	outPath := *out
	if outPath == "" {
		outPath = fmt.Sprintf("%s_%s.%s", security.SanitizeFilename(name), *kind, format)
	} else if f := surface.FormatFromPath(outPath); f != "" {
		format = f
	} else {
		outPath = surface.WithFormatExt(outPath, format)
	}
	if err := security.ValidateExportPath(outPath); err != nil {
		return err
	}

	canvas, err := surface.New(format, cfg.GetSize())
	if err != nil {
		return err
	}
	title := cfg.GetTitle()
	if title == "" {
		title = fmt.Sprintf("%s  z=%.2f", name, snap.Redshift())
	}
	canvas.SetTitle(title)

	if _, err := plotFn(snap, canvas, cfg.ToParams()); err != nil {
		return err
	}
	if err := canvas.Save(outPath); err != nil {
		return err
	}
	fmt.Fprintln(stdout, outPath)
	return nil
}

func runServe(args []string) error {
	fs, dbPath, verbose := newFlagSet("serve", os.Stderr)
	listen := fs.String("listen", ":8080", "Listen address")
	cfgPath := fs.String("config", "", "JSON plot configuration used for defaults")
	if err := fs.Parse(args); err != nil {
		return err
	}
	monitoring.SetVerbose(*verbose)

	cfg := config.EmptyPlotConfig()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.LoadPlotConfig(*cfgPath); err != nil {
			return err
		}
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	mux := api.NewServer(database, cfg).ServeMux()
	if err := database.AttachAdminRoutes(mux); err != nil {
		return err
	}

	server := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(mux),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Printf("serving on %s", *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Printf("Graceful shutdown complete")
	return nil
}

func runMigrate(args []string, stdout io.Writer) error {
	fs, dbPath, verbose := newFlagSet("migrate", stdout)
	if err := fs.Parse(args); err != nil {
		return err
	}
	monitoring.SetVerbose(*verbose)

	database, err := db.OpenDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()
	return db.RunMigrateCommand(stdout, database, fs.Args())
}
