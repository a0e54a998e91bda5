package command

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-colorable"
	_ "github.com/mattn/go-sqlite3"
	"github.com/posener/complete"
	"github.com/sirupsen/logrus"

	"github.com/vdbetype/sqlitetypes"
)

// ExplainCommand runs the interpreter against a live database and
// prints the inferred type of each result column, in the
// mitchellh/cli Command shape the teacher's ListenCommand follows.
type ExplainCommand struct{}

func (c *ExplainCommand) Help() string {
	helpText := `
Usage: sqlitetypes explain [options] <query>

Options:

	-config=""	Optional YAML config file (dsn, log_level)
	-verbose	Log every abandoned interpreter path
`
	return strings.TrimSpace(helpText)
}

func (c *ExplainCommand) Synopsis() string {
	return "Infer result column types and nullability for a query"
}

func (c *ExplainCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictAnything
}

func (c *ExplainCommand) AutocompleteFlags() complete.Flags {
	return complete.Flags{
		"-config":  complete.PredictFiles("*.yml"),
		"-verbose": complete.PredictNothing,
	}
}

func (c *ExplainCommand) Run(args []string) int {
	var configPath string
	var verbose bool

	flags := flag.NewFlagSet("explain", flag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "config file")
	flags.BoolVar(&verbose, "verbose", false, "log abandoned paths")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	rest := flags.Args()
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "Error: a query argument is required")
		return 1
	}
	query := strings.Join(rest, " ")

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config: %s\n", err.Error())
		return 1
	}

	log := logrus.New()
	log.SetOutput(colorable.NewColorableStderr())
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		log.WithError(err).Error("opening database")
		return 1
	}
	defer db.Close()

	types, nullable, err := sqlitetypes.Explain(context.Background(), db, query, sqlitetypes.WithLogger(log))
	if err != nil {
		log.WithError(err).Error("explain failed")
		return 1
	}

	out := colorable.NewColorableStdout()
	for i, t := range types {
		nullLabel := "unknown"
		if nullable[i] != nil {
			if *nullable[i] {
				nullLabel = "nullable"
			} else {
				nullLabel = "not null"
			}
		}
		fmt.Fprintf(out, "col %d: %-10s %s\n", i, t.Datatype, nullLabel)
	}

	return 0
}
