package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/runnerr0/chronicle-mcp/internal/history"
)

// stdin is read for the confirmation prompt; tests replace it.
var stdin io.Reader = os.Stdin

// Execute implements the go-flags Commander interface for DeleteCommand.
func (c *DeleteCommand) Execute(args []string) error {
	ctx, stop := signalContext()
	defer stop()
	return c.execute(ctx, args)
}

func (c *DeleteCommand) execute(ctx context.Context, args []string) error {
	a, err := appFor(c.app, c.globals)
	if err != nil {
		return err
	}
	req := history.DeleteRequest{
		Query:   strings.Join(args, " "),
		Limit:   c.Limit,
		Browser: c.Browser,
	}

	return a.serve(ctx, func(ctx context.Context) error {
		preview, err := a.svc.Delete(ctx, req)
		if err != nil {
			return err
		}
		if preview.Count == 0 {
			return c.report(preview, "No entries match; nothing to delete.")
		}

		if !c.Force {
			fmt.Printf("%d entries in %s history match %q (up to %d will be deleted).\n",
				preview.Count, preview.Browser, preview.Query, req.Limit)
			fmt.Println("Only the working snapshot is changed; the browser's own database is untouched.")
			fmt.Println()
			fmt.Print(`Type "DELETE" to confirm: `)

			scanner := bufio.NewScanner(stdin)
			if !scanner.Scan() {
				return fmt.Errorf("aborted: no input received")
			}
			if strings.TrimSpace(scanner.Text()) != "DELETE" {
				return fmt.Errorf("aborted: confirmation text did not match")
			}
		}

		req.Confirm = true
		res, err := a.svc.Delete(ctx, req)
		if err != nil {
			return err
		}
		return c.report(res, res.Message)
	})
}

func (c *DeleteCommand) report(res *history.DeleteResult, message string) error {
	if c.globals != nil && c.globals.JSON {
		return json.NewEncoder(os.Stdout).Encode(res)
	}
	fmt.Println(message)
	return nil
}
