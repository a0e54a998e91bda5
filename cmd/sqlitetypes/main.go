package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/cli"

	"github.com/vdbetype/sqlitetypes/cmd/sqlitetypes/command"
)

func main() {
	args := os.Args[1:]

	commands := map[string]cli.CommandFactory{
		"explain": func() (cli.Command, error) {
			return &command.ExplainCommand{}, nil
		},
		"describe": func() (cli.Command, error) {
			return &command.DescribeCommand{}, nil
		},
	}

	app := &cli.CLI{
		Name:        "sqlitetypes",
		Args:        args,
		Commands:    commands,
		HelpFunc:    cli.BasicHelpFunc("sqlitetypes"),
		Autocomplete: true,
	}

	exitCode, err := app.Run()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}

	os.Exit(exitCode)
}
