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

	"github.com/vdbetype/sqlitetypes/internal/catalog"
)

// DescribeCommand lists the names of schema objects (optionally
// filtered by name prefix) from the loaded catalog, without running the
// interpreter at all. Column types are not printed.
type DescribeCommand struct{}

func (c *DescribeCommand) Help() string {
	helpText := `
Usage: sqlitetypes describe [options] [prefix]

Options:

	-config=""	Optional YAML config file (dsn, log_level)
`
	return strings.TrimSpace(helpText)
}

func (c *DescribeCommand) Synopsis() string {
	return "List schema object names from the catalog"
}

func (c *DescribeCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictAnything
}

func (c *DescribeCommand) AutocompleteFlags() complete.Flags {
	return complete.Flags{
		"-config": complete.PredictFiles("*.yml"),
	}
}

func (c *DescribeCommand) Run(args []string) int {
	var configPath string

	flags := flag.NewFlagSet("describe", flag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "config file")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	prefix := ""
	if rest := flags.Args(); len(rest) > 0 {
		prefix = rest[0]
	}

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

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		log.WithError(err).Error("opening database")
		return 1
	}
	defer db.Close()

	cat, err := catalog.Load(context.Background(), db, log)
	if err != nil {
		log.WithError(err).Error("loading catalog")
		return 1
	}

	out := colorable.NewColorableStdout()
	for _, name := range cat.NamesWithPrefix(prefix) {
		fmt.Fprintln(out, name)
	}

	return 0
}
