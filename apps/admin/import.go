package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/trezcool/placement/core/enrollment"
)

func readRows(path string) ([]enrollment.ExternalRosterRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading rows")
	}
	var rows []enrollment.ExternalRosterRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return rows, nil
}

// importRows imports the rows of file, or only shows where they would go.
func (cli *commandLine) importRows(file string, dryRun bool) error {
	rows, err := readRows(file)
	if err != nil {
		return err
	}

	if dryRun {
		resolutions, err := cli.svc.ResolveRows(cli.ctx, rows)
		if err != nil {
			return errors.Wrap(err, "resolving rows")
		}
		w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tORIGIN\tUNIT\tSECTION\tSTRATEGY")
		for _, rr := range resolutions {
			section, unit := "-", string(rr.Unit)
			if rr.Result.Resolved {
				section = rr.Result.Section.Name
			}
			if !rr.UnitRecognized {
				unit += " (?)"
			}
			fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\n", rr.Row.Name, rr.Row.Grade, rr.Row.Suffix, unit, section, rr.Result.Strategy)
		}
		return w.Flush()
	}

	report, err := cli.svc.Import(cli.ctx, rows)
	if err != nil {
		return errors.Wrap(err, "importing rows")
	}
	fmt.Fprintf(cli.out, "%d student(s) imported: %d placed, %d staged\n", len(report.Records), report.Placed, report.Staged)
	for _, ce := range report.Overflows {
		fmt.Fprintf(cli.out, "  left in staging: %s\n", ce.Error())
	}
	if len(report.MissingOrigins) > 0 {
		fmt.Fprintln(cli.out, "classes with no matching section:")
		for _, label := range report.MissingOrigins {
			fmt.Fprintf(cli.out, "  %s\n", label)
		}
	}
	return nil
}
