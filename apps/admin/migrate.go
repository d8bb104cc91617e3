package main

import (
	"fmt"

	"github.com/trezcool/placement/storage/database/migrations"
)

var gooseRunFunc = migrations.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	if len(args) == 0 {
		cli.printMigrateUsage()
		return errHelp
	}
	return gooseRunFunc(cli.ctx, args[0], cli.db, args[1:]...)
}

func (cli *commandLine) printMigrateUsage() {
	fmt.Fprintln(cli.out, "Usage: migrate COMMAND [ARGS]")
	fmt.Fprintln(cli.out, "  up | up-by-one | up-to VERSION - apply migrations")
	fmt.Fprintln(cli.out, "  down | down-to VERSION | redo | reset - roll migrations back")
	fmt.Fprintln(cli.out, "  status | version - show the applied migrations")
}
