package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/zkrizaj/hramba/internal/api"
	"github.com/zkrizaj/hramba/internal/backup"
	"github.com/zkrizaj/hramba/internal/config"
	"github.com/zkrizaj/hramba/internal/db"
	"github.com/zkrizaj/hramba/internal/logging"
	"github.com/zkrizaj/hramba/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "export":
		err = runExport(os.Args[2:])
	case "import":
		err = runImport(os.Args[2:])
	case "sweep":
		err = runSweep(os.Args[2:])
	case "help", "-h", "-help", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stdout, `Usage: hramba <command> [flags]

Commands:
  init     create the database and set the owner password
  serve    run the HTTP server
  export   write a snapshot of the whole inventory
  import   replace the inventory with a snapshot
  sweep    expire stale review marks once and exit

Run hramba <command> -h for the flags of each command.
`)
}

// parseFlags finishes a flag set the same way for every command:
// help exits cleanly, bad flags and stray arguments exit with an
// error.
func parseFlags(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies the command line
// database override.
func loadConfig(path, dbPath string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	return cfg, nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("hramba init", flag.ContinueOnError)

	var configPath, dbPath, password string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")
	fs.StringVar(&password, "password", "", "")
	fs.StringVar(&password, "p", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: hramba init [flags]

Flags:
  -c, -config <path>     configuration file (default: hramba.yaml if present)
  -d, -db <path>         SQLite database path (overrides the configuration)
  -p, -password <pass>   owner password (default: generated)
  -h, -help              show this help and exit
`)
	}
	parseFlags(fs, args)

	cfg, err := loadConfig(configPath, dbPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.Database.Path); err == nil {
		return fmt.Errorf("database already exists: %s", cfg.Database.Path)
	}

	generated := false
	if password == "" {
		password, err = generatePassword(16)
		if err != nil {
			return fmt.Errorf("generating password: %w", err)
		}
		generated = true
	}

	database, err := initDatabase(cfg.Database.Path, password)
	if err != nil {
		return err
	}
	database.Close()

	printInitResult(cfg.Database.Path, password, generated)
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("hramba serve", flag.ContinueOnError)

	var configPath, dbPath, addr string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: hramba serve [flags]

Flags:
  -c, -config <path>     configuration file (default: hramba.yaml if present)
  -d, -db <path>         SQLite database path (overrides the configuration)
  -a, -addr <host:port>  listen address (overrides the configuration)
  -h, -help              show this help and exit
`)
	}
	parseFlags(fs, args)

	cfg, err := loadConfig(configPath, dbPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	if err := logging.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.Path); err != nil {
		return err
	}
	defer logging.Sync()

	// First run: create the database and a generated owner password.
	if _, err := os.Stat(cfg.Database.Path); os.IsNotExist(err) {
		password, err := generatePassword(16)
		if err != nil {
			return fmt.Errorf("generating password: %w", err)
		}
		database, err := initDatabase(cfg.Database.Path, password)
		if err != nil {
			return err
		}
		database.Close()

		printInitResult(cfg.Database.Path, password, true)
		fmt.Println()
	}

	database, err := openDatabase(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	logging.Infow("database ready", "path", cfg.Database.Path)

	// The signing secret lives in the database, generated on first
	// run, so tokens survive restarts.
	jwtSecret, err := store.GetJWTSecret(context.Background(), database)
	if err != nil {
		return err
	}

	router := api.NewRouter(database, jwtSecret, api.Options{
		ReviewThreshold: cfg.Review.Threshold(),
		LoginRate:       cfg.Server.LoginRate,
		LoginBurst:      cfg.Server.LoginBurst,
	})
	handler := api.LoggingMiddleware(router)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweepLoop(sweepCtx, database, cfg.Review.Threshold(), cfg.Review.SweepInterval)

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		logging.Infow("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logging.Errorw("server forced to shutdown", "error", err)
		}
	}()

	logging.Infow("server started", "addr", cfg.Server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	logging.Infow("server stopped, closing database")
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("hramba export", flag.ContinueOnError)

	var configPath, dbPath, out string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")
	fs.StringVar(&out, "out", "", "")
	fs.StringVar(&out, "o", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: hramba export [flags]

Flags:
  -c, -config <path>   configuration file (default: hramba.yaml if present)
  -d, -db <path>       SQLite database path (overrides the configuration)
  -o, -out <path>      snapshot file to write (default: stdout)
  -h, -help            show this help and exit
`)
	}
	parseFlags(fs, args)

	cfg, err := loadConfig(configPath, dbPath)
	if err != nil {
		return err
	}

	database, err := openDatabase(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	snap, err := backup.Export(context.Background(), database)
	if err != nil {
		return err
	}

	if out == "" {
		return backup.Encode(os.Stdout, snap)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	if err := backup.Encode(f, snap); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	fmt.Printf("Exported %d locations, %d items and %d tags to %s\n",
		len(snap.Locations), len(snap.Items), len(snap.Tags), out)
	return nil
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("hramba import", flag.ContinueOnError)

	var configPath, dbPath, in string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")
	fs.StringVar(&in, "in", "", "")
	fs.StringVar(&in, "i", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: hramba import [flags]

Replaces the whole inventory with the snapshot. The snapshot is
validated first; if it is corrupt, the database is left untouched.

Flags:
  -c, -config <path>   configuration file (default: hramba.yaml if present)
  -d, -db <path>       SQLite database path (overrides the configuration)
  -i, -in <path>       snapshot file to read (default: stdin)
  -h, -help            show this help and exit
`)
	}
	parseFlags(fs, args)

	cfg, err := loadConfig(configPath, dbPath)
	if err != nil {
		return err
	}

	r := io.Reader(os.Stdin)
	if in != "" {
		f, err := os.Open(in)
		if err != nil {
			return fmt.Errorf("opening %s: %w", in, err)
		}
		defer f.Close()
		r = f
	}

	snap, err := backup.Decode(r)
	if err != nil {
		return err
	}

	database, err := openDatabase(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := backup.Import(context.Background(), database, snap)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d locations, %d items, %d tags and %d review entries.\n",
		stats.Locations, stats.Items, stats.Tags, stats.ReviewEntries)
	return nil
}

func runSweep(args []string) error {
	fs := flag.NewFlagSet("hramba sweep", flag.ContinueOnError)

	var configPath, dbPath string
	var days int
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")
	fs.IntVar(&days, "days", 0, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: hramba sweep [flags]

Flags:
  -c, -config <path>   configuration file (default: hramba.yaml if present)
  -d, -db <path>       SQLite database path (overrides the configuration)
  -days <n>            expire review marks older than n days
                       (default: the configured threshold)
  -h, -help            show this help and exit
`)
	}
	parseFlags(fs, args)

	cfg, err := loadConfig(configPath, dbPath)
	if err != nil {
		return err
	}

	threshold := cfg.Review.Threshold()
	if days > 0 {
		threshold = time.Duration(days) * 24 * time.Hour
	}
	if threshold <= 0 {
		return errors.New("review sweeping is disabled, set review.threshold_days or pass -days")
	}

	database, err := openDatabase(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	swept, err := store.SweepReviews(context.Background(), database, time.Now().UTC(), threshold)
	if err != nil {
		return err
	}

	if len(swept) == 0 {
		fmt.Println("No stale review marks.")
		return nil
	}
	fmt.Printf("Expired %d review marks:\n", len(swept))
	for _, loc := range swept {
		fmt.Printf("  %s\n", loc.Name)
	}
	return nil
}

// sweepLoop expires stale review marks on a timer, once right away and
// then at every interval. A zero threshold or interval disables it.
func sweepLoop(ctx context.Context, database *sql.DB, threshold, interval time.Duration) {
	if threshold <= 0 || interval <= 0 {
		return
	}

	sweep := func() {
		swept, err := store.SweepReviews(ctx, database, time.Now().UTC(), threshold)
		if err != nil {
			logging.Errorw("review sweep failed", "error", err)
			return
		}
		if len(swept) > 0 {
			logging.Infow("review sweep", "expired", len(swept))
		}
	}

	sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}

// openDatabase opens an existing database and brings its schema up to
// date.
func openDatabase(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("database does not exist: %s (run hramba init first)", path)
	}

	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("ensuring database schema: %w", err)
	}
	return database, nil
}

// initDatabase creates a new database, ensures the schema, and stores
// the owner's password hash.
func initDatabase(path, password string) (*sql.DB, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		os.Remove(path)
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	if err := store.SetPasswordHash(context.Background(), database, string(hash)); err != nil {
		database.Close()
		os.Remove(path)
		return nil, fmt.Errorf("storing password: %w", err)
	}

	return database, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, password string, generated bool) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	if generated {
		fmt.Println("Owner password:")
		fmt.Printf("  %s\n", password)
		fmt.Println()
		fmt.Println("Save this password, it cannot be recovered.")
		fmt.Println("It can be changed after logging in.")
	} else {
		fmt.Println("Owner password set.")
	}
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
