package main

import (
	"fmt"

	"github.com/pkg/errors"
)

func (cli *commandLine) staging() error {
	pool, err := cli.svc.Staging(cli.ctx)
	if err != nil {
		return errors.Wrap(err, "loading staging")
	}
	missing, err := cli.svc.MissingOrigins(cli.ctx)
	if err != nil {
		return errors.Wrap(err, "listing missing origins")
	}

	fmt.Fprintf(cli.out, "%d student(s) in staging\n", pool.Len())
	for _, rec := range pool.Records() {
		label := rec.OriginLabel()
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(cli.out, "  %s  %s  (%s, %s)\n", rec.ID, rec.Name, label, rec.Unit)
	}
	if len(missing) > 0 {
		fmt.Fprintln(cli.out, "classes with no matching section:")
		for _, label := range missing {
			fmt.Fprintf(cli.out, "  %s\n", label)
		}
	}
	return nil
}
