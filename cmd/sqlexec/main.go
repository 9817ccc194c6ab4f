package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joho/godotenv"

	"sql-executor/internal/config"
	"sql-executor/internal/db"
	"sql-executor/internal/executor"
	"sql-executor/internal/exporter"
	"sql-executor/internal/storage"
)

var version = "dev"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "sqlexec %s - run SQL scripts and export the results to flat files\n\n", version)
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  sqlexec -script report.sql -out ./exports/report [flags]\n")
		fmt.Fprintf(os.Stderr, "  sqlexec -dir ./sql -out ./exports [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nDirectives (inside SQL block comments, per statement):\n")
		fmt.Fprintf(os.Stderr, "  /* PAGINATE SIZE 500 */   fetch in pages of 500 rows\n")
		fmt.Fprintf(os.Stderr, "  /* ROW LIMIT 10000 */     stop after 10000 rows\n")
		fmt.Fprintf(os.Stderr, "  /* NAME daily_report */   tag a statement for lookup\n")
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  sqlexec -config config.ini -env prod -vendor postgres \\\n")
		fmt.Fprintf(os.Stderr, "      -script daily.sql -out ./exports/daily -format csv -batch-size 1000\n")
	}

	var (
		showVersion = flag.Bool("version", false, "Show version")
		initConfig  = flag.String("init-config", "", "Write a sample config file to the given path and exit")
		configPath  = flag.String("config", config.DefaultPath(), "Path to the ini config file")
		environment = flag.String("env", "test", "Environment name (config sections are {env}_{vendor})")
		vendorName  = flag.String("vendor", "postgres", "Database vendor: postgres, oracle or mysql")
		script      = flag.String("script", "", "SQL script file to execute")
		dir         = flag.String("dir", "", "Directory of SQL script files to execute")
		out         = flag.String("out", "", "Output base path (script) or directory (dir)")
		format      = flag.String("format", "csv", "Output format: csv, txt, xlsx or pdf")
		batchSize   = flag.Int("batch-size", 0, "Default page size for paginated fetching (0 = single shot)")
		rowLimit    = flag.Int("row-limit", 0, "Default maximum rows per statement (0 = all rows)")
		appendOut   = flag.Bool("append", false, "Append to existing output files instead of overwriting")
		delimiter   = flag.String("delimiter", ",", "CSV field delimiter")
		archiveDir  = flag.String("archive", "", "Copy finished exports into this directory")
		s3Bucket    = flag.String("s3-bucket", "", "Upload finished exports to this S3 bucket")
		s3Prefix    = flag.String("s3-prefix", "exports", "Key prefix for S3 uploads")
		s3Region    = flag.String("s3-region", "us-east-1", "AWS region for S3 uploads")
		s3Endpoint  = flag.String("s3-endpoint", "", "Custom S3 endpoint (MinIO etc.)")
		s3PathStyle = flag.Bool("s3-path-style", false, "Use path-style S3 addressing")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("sqlexec %s\n", version)
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *initConfig != "" {
		if err := config.WriteTemplate(*initConfig); err != nil {
			logger.Error("Failed to write config template", "error", err)
			os.Exit(1)
		}
		logger.Info("Config template written", "path", *initConfig)
		return
	}

	if (*script == "") == (*dir == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -script or -dir is required")
		flag.Usage()
		os.Exit(2)
	}
	if *out == "" {
		fmt.Fprintln(os.Stderr, "-out is required")
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, options{
		configPath:  *configPath,
		environment: *environment,
		vendorName:  *vendorName,
		script:      *script,
		dir:         *dir,
		out:         *out,
		format:      *format,
		batchSize:   *batchSize,
		rowLimit:    *rowLimit,
		appendOut:   *appendOut,
		delimiter:   *delimiter,
		archiveDir:  *archiveDir,
		s3Bucket:    *s3Bucket,
		s3Prefix:    *s3Prefix,
		s3Region:    *s3Region,
		s3Endpoint:  *s3Endpoint,
		s3PathStyle: *s3PathStyle,
	}); err != nil {
		logger.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	environment string
	vendorName  string
	script      string
	dir         string
	out         string
	format      string
	batchSize   int
	rowLimit    int
	appendOut   bool
	delimiter   string
	archiveDir  string
	s3Bucket    string
	s3Prefix    string
	s3Region    string
	s3Endpoint  string
	s3PathStyle bool
}

func run(ctx context.Context, logger *slog.Logger, opts options) error {
	vendor, err := db.ParseVendor(opts.vendorName)
	if err != nil {
		return err
	}
	ft, err := exporter.ParseFileType(opts.format)
	if err != nil {
		return err
	}
	var delim rune
	if opts.delimiter != "" {
		delim = []rune(opts.delimiter)[0]
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	conn, err := db.New(vendor, logger)
	if err != nil {
		return err
	}

	exec, err := executor.New(ctx, conn, cfg, opts.environment, executor.WithLogger(logger))
	if err != nil {
		return err
	}
	defer exec.Close()

	saveOpts := executor.SaveOptions{
		BatchSize: opts.batchSize,
		RowLimit:  opts.rowLimit,
		Append:    opts.appendOut,
		Delimiter: delim,
	}

	var written []string
	if opts.script != "" {
		written, err = exec.ExecuteFileAndSave(ctx, opts.script, opts.out, ft, saveOpts)
	} else {
		written, err = exec.ExecuteFolderAndSave(ctx, opts.dir, opts.out, ft, saveOpts)
	}
	if err != nil {
		return err
	}
	logger.Info("Export complete", "files", len(written))

	return archive(ctx, logger, opts, written)
}

// archive copies finished artifacts to the secondary destinations, if
// any were requested.
func archive(ctx context.Context, logger *slog.Logger, opts options, written []string) error {
	if opts.archiveDir != "" {
		p := storage.NewLocalProvider(opts.archiveDir, logger)
		if err := saveAll(ctx, p, "", written); err != nil {
			return fmt.Errorf("local archive failed: %w", err)
		}
	}
	if opts.s3Bucket != "" {
		client := storage.NewS3Client(storage.S3Options{
			Region:    opts.s3Region,
			Endpoint:  opts.s3Endpoint,
			PathStyle: opts.s3PathStyle,
		})
		p := storage.NewS3Provider(client, opts.s3Bucket, logger)
		if err := saveAll(ctx, p, opts.s3Prefix, written); err != nil {
			return fmt.Errorf("s3 archive failed: %w", err)
		}
	}
	return nil
}

func saveAll(ctx context.Context, p storage.Provider, prefix string, paths []string) error {
	for _, path := range paths {
		key := filepath.Base(path)
		if prefix != "" {
			key = prefix + "/" + key
		}
		if err := p.Save(ctx, key, path); err != nil {
			return err
		}
	}
	return nil
}
