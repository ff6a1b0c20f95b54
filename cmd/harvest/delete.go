package main

import (
	"fmt"

	"github.com/fwojciec/harvest"
)

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return harvest.Errorf(harvest.EINVALID, "use --force to confirm deletion")
	}

	coll, err := findCollection(deps.Ctx, deps.Collections, c.Collection)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	if err := deps.Collections.DeleteCollection(deps.Ctx, coll.ID); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted collection %q\n", coll.ForeignID)
	return nil
}
