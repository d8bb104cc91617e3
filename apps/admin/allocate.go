package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/enrollment"
)

func parseDestination(s string) (uuid.UUID, error) {
	s = core.CleanString(s, true /* lower */)
	if s == "unassigned" {
		return enrollment.Unassigned, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.Wrapf(err, "invalid destination %q", s)
	}
	return id, nil
}

func parseIDs(s string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, part := range strings.Split(s, ",") {
		if part = core.CleanString(part); part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid student id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (cli *commandLine) allocate(to, students string, yes bool) error {
	dest, err := parseDestination(to)
	if err != nil {
		return err
	}
	ids, err := parseIDs(students)
	if err != nil {
		return err
	}

	destName := "staging"
	if dest != enrollment.Unassigned {
		sec, err := cli.svc.GetSection(cli.ctx, dest)
		if err != nil {
			return err
		}
		destName = fmt.Sprintf("%s (%s, %d free seat(s))", sec.Name, sec.Unit, sec.FreeSeats())
	}

	if !yes {
		ok, err := cli.confirm(fmt.Sprintf("Move %d student(s) to %s?", len(ids), destName))
		if err != nil {
			return err
		}
		if !ok {
			return errAborted
		}
	}

	res, err := cli.svc.Allocate(cli.ctx, ids, dest)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d student(s) moved to %s, %d already there\n", len(res.Moved), destName, len(res.Skipped))
	return nil
}
