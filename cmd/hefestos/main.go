// Command hefestos runs one SQL statement on the database described by the
// hefestos configuration file and prints the outcome as JSON.
//
//	hefestos -sql "SELECT * FROM users WHERE age >= ?" 18
//	hefestos -sql "SELECT name FROM users WHERE id = ?" -first -column name 5
//	hefestos -sql "DELETE FROM sessions"
//
// Extra arguments are bound positionally to the "?" placeholders of the
// statement.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	hefestos "github.com/brunoggdev/hefestos-go"
	"github.com/brunoggdev/hefestos-go/config"
	"github.com/brunoggdev/hefestos-go/logging"
)

// Version information, set at build time via ldflags
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the command-line flags of a run
type options struct {
	configPath string
	sql        string
	column     string
	first      bool
	args       []interface{}
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("hefestos", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	opts := &options{}
	fs.StringVar(&opts.configPath, "config", config.Path(), "path to the YAML configuration file")
	fs.StringVar(&opts.sql, "sql", "", "SQL statement to run")
	fs.StringVar(&opts.column, "column", "", "only print this column")
	fs.BoolVar(&opts.first, "first", false, "only print the first row")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.sql == "" {
		return nil, errors.New("missing -sql")
	}
	for _, arg := range fs.Args() {
		opts.args = append(opts.args, arg)
	}
	return opts, nil
}

// run is the actual command, separated from main for testability.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, version)

	settings := hefestos.FromConfig(cfg.Database)
	conn, err := hefestos.Connection(&settings)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if closeErr := hefestos.CloseConnection(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	conn.SetLogger(log.Logger)
	log.Debug("database connected", "driver", conn.Driver())

	db := conn.Database().WithContext(ctx)
	db.Query(opts.sql, opts.args...)
	if err := db.Err(); err != nil {
		return err
	}

	out, err := collect(db, opts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// collect fetches what the statement produced: rows for queries, the
// affected rows and inserted id otherwise.
func collect(db *hefestos.Database, opts *options) (interface{}, error) {
	if db.LastResult().Rows() == nil {
		return map[string]interface{}{
			"affected_rows":  db.AffectedRows(),
			"last_insert_id": db.LastInsertID(),
		}, nil
	}

	if opts.first {
		if opts.column != "" {
			return db.FirstColumn(opts.column)
		}
		return db.FirstRecord()
	}

	records, err := db.AllRecords()
	if err != nil || opts.column == "" {
		return records, err
	}

	values := make([]interface{}, 0, len(records))
	for _, record := range records {
		values = append(values, record[opts.column])
	}
	return values, nil
}
