package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/enrollment"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp    = errors.New("help provided")
	errAborted = errors.New("aborted")
)

type commandLine struct {
	db   *sqlx.DB
	svc  *enrollment.Service
	in   io.Reader
	inFd int
	out  io.Writer
	ctx  context.Context
}

func newCommandLine(db *sqlx.DB, svc *enrollment.Service) *commandLine {
	return &commandLine{
		db:   db,
		svc:  svc,
		in:   os.Stdin,
		inFd: int(os.Stdin.Fd()),
		out:  os.Stdout,
		ctx:  core.WithOperator(context.Background(), core.Operator{ID: "admin-cli", Name: "admin CLI"}),
	}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, redo, status, ...)")
	fmt.Fprintln(cli.out, "  import -file ROWS.json [-dry-run] - import a roster export")
	fmt.Fprintln(cli.out, "  staging - list the students waiting for a section")
	fmt.Fprintln(cli.out, "  allocate -to SECTION_ID|unassigned -students ID,ID [-yes] - move students")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	importCmd := cli.newFlagSet("import")
	importFile := importCmd.String("file", "", "JSON file holding the roster rows.")
	importDryRun := importCmd.Bool("dry-run", false, "Only show how rows resolve, write nothing.")

	allocateCmd := cli.newFlagSet("allocate")
	allocateTo := allocateCmd.String("to", "", "Destination section id, or \"unassigned\".")
	allocateStudents := allocateCmd.String("students", "", "Comma separated student ids.")
	allocateYes := allocateCmd.Bool("yes", false, "Do not ask for confirmation.")

	switch args[1] {
	case "migrate":
		return cli.migrate(args[2:])
	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importRows(*importFile, *importDryRun)
	case "staging":
		return cli.staging()
	case "allocate":
		if err := allocateCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *allocateTo == "" || *allocateStudents == "" {
			allocateCmd.Usage()
			return errHelp
		}
		return cli.allocate(*allocateTo, *allocateStudents, *allocateYes)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// confirm asks a yes/no question. Without a terminal on stdin there is nobody to ask.
func (cli *commandLine) confirm(question string) (bool, error) {
	if !isTerminalFunc(cli.inFd) {
		return true, nil
	}
	fmt.Fprintf(cli.out, "%s [y/N] ", question)
	line, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := core.CleanString(line, true /* lower */)
	return answer == "y" || answer == "yes", nil
}
