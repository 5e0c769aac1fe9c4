package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/PaesslerAG/jsonpath"
	"github.com/google/subcommands"

	"fintrack/internal/backup"
	"fintrack/internal/log"
)

type exportCmd struct {
	app    *App
	output string
	query  string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the current user's data as JSON" }
func (*exportCmd) Usage() string {
	return `export [-o <file>] [-query <jsonpath>]

  Writes every collection of the current user as one JSON document. With
  -query, only the values selected by the JSONPath expression are written,
  e.g. -query '$.expenses[*].amount'.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file, defaults to stdout")
	f.StringVar(&c.query, "query", "", "JSONPath expression applied to the export")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	snap, err := backup.Export(ctx, svc.Repos, svc.UserID, c.app.Now())
	if err != nil {
		return c.app.fail(err)
	}
	data, err := backup.Marshal(snap)
	if err != nil {
		return c.app.fail(err)
	}
	if c.query != "" {
		if data, err = queryJSON(data, c.query); err != nil {
			return c.app.fail(err)
		}
	}
	data = append(data, '\n')

	if c.output == "" {
		if _, err := c.app.Out.Write(data); err != nil {
			return c.app.fail(err)
		}
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(c.output, data, 0o600); err != nil {
		return c.app.fail(fmt.Errorf("write export: %w", err))
	}
	c.app.logger.WithComponent(log.ComponentBackup).InfoContext(ctx, "Exported backup",
		log.FieldOperation, log.OpExport, log.FieldUserID, svc.UserID, "path", c.output)
	fmt.Fprintf(c.app.Err, "Exported to %s\n", c.output)
	return subcommands.ExitSuccess
}

// queryJSON evaluates a JSONPath expression over a JSON document.
func queryJSON(data []byte, path string) ([]byte, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	val, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", path, err)
	}
	return json.MarshalIndent(val, "", "  ")
}

type importCmd struct {
	app   *App
	input string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replace the current user's data from a JSON export" }
func (*importCmd) Usage() string {
	return `import [-i <file>]

  Reads a document written by export and replaces every collection of the
  current user with its content. The document is validated first; nothing is
  written when validation fails.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input, "i", "", "Input file, defaults to stdin")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var (
		data []byte
		err  error
	)
	if c.input == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(c.input)
	}
	if err != nil {
		return c.app.fail(fmt.Errorf("read import: %w", err))
	}

	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	snap, err := backup.Import(ctx, svc.Repos, data)
	if err != nil {
		return c.app.fail(err)
	}

	c.app.logger.WithComponent(log.ComponentBackup).InfoContext(ctx, "Imported backup",
		log.FieldOperation, log.OpImport, log.FieldUserID, svc.UserID, "source_user", snap.UserID)

	counts := snap.Counts()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c.app.printf("%s: %d\n", name, counts[name])
	}
	return subcommands.ExitSuccess
}
