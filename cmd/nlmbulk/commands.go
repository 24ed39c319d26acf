package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/nlmtools/nlmbulk/internal/api"
	"github.com/nlmtools/nlmbulk/internal/bulk"
	"github.com/nlmtools/nlmbulk/internal/config"
	"github.com/nlmtools/nlmbulk/internal/dispatch"
	"github.com/nlmtools/nlmbulk/internal/wire"
)

type app struct {
	client   *api.Client
	log      *zap.Logger
	settings config.Settings
	account  int
}

// Command handlers

func (a *app) handleList(args []string) error {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "output JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nlmbulk ls [-json]\n\n")
		fmt.Fprintf(os.Stderr, "List notebooks.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	notebooks, err := a.client.ListNotebooks(context.Background())
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(notebooks)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSOURCES\tEMOJI")
	for _, nb := range notebooks {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", nb.ID, nb.Name, nb.SourceCount, nb.Emoji)
	}
	return w.Flush()
}

func (a *app) handleCreate(args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "output JSON")
	emoji := fs.String("emoji", "", "notebook emoji")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nlmbulk create [-json] [-emoji=glyph] <title>\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("notebook title required")
	}

	nb, err := a.client.CreateNotebook(context.Background(), fs.Arg(0), *emoji)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(nb)
	}
	fmt.Printf("Created %s %q (%s)\n", nb.Emoji, nb.Name, nb.ID)
	fmt.Println(wire.NotebookURL(nb.ID, a.account))
	return nil
}

func (a *app) handleDeleteNotebook(args []string) error {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	force := fs.Bool("force", false, "skip confirmation")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nlmbulk rm [-force] <notebook-id>\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("notebook id required")
	}

	id := fs.Arg(0)
	if !*force && !confirm(fmt.Sprintf("Delete notebook %s?", id)) {
		return fmt.Errorf("aborted")
	}
	if err := a.client.DeleteNotebook(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("Deleted notebook %s\n", id)
	return nil
}

func (a *app) handleDeleteNotebooks(args []string) error {
	fs := flag.NewFlagSet("rm-batch", flag.ExitOnError)
	force := fs.Bool("force", false, "skip confirmation")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nlmbulk rm-batch [-force] <notebook-id>...\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("at least one notebook id required")
	}

	ids := fs.Args()
	if !*force && !confirm(fmt.Sprintf("Delete %d notebooks?", len(ids))) {
		return fmt.Errorf("aborted")
	}

	result, err := a.client.DeleteNotebooks(context.Background(), ids)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d, failed %d\n", result.Succeeded, result.Failed)
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", e.ItemID, e.Message)
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d notebooks not deleted", result.Failed)
	}
	return nil
}

func (a *app) handleSources(args []string) error {
	fs := flag.NewFlagSet("sources", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "output JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nlmbulk sources [-json] <notebook-id>\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("notebook id required")
	}

	detail, err := a.client.GetNotebook(context.Background(), fs.Arg(0))
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(detail)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tTITLE")
	for _, s := range detail.Sources {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ID, s.Type, s.Status, s.Title)
	}
	return w.Flush()
}

func (a *app) handleAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nlmbulk add <notebook-id> <url>...\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return fmt.Errorf("notebook id and at least one url required")
	}

	added, err := a.client.AddSources(context.Background(), fs.Arg(0), fs.Args()[1:])
	if err != nil {
		return err
	}
	fmt.Printf("Added %d sources\n", added)
	return nil
}

func (a *app) handleAddText(args []string) error {
	fs := flag.NewFlagSet("add-text", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nlmbulk add-text <notebook-id> <title> < text\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("notebook id and title required")
	}

	text, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if err := a.client.AddTextSource(context.Background(), fs.Arg(0), string(text), fs.Arg(1)); err != nil {
		return err
	}
	fmt.Println("Added text source")
	return nil
}

func (a *app) handleDeleteSource(args []string) error {
	fs := flag.NewFlagSet("rm-source", flag.ExitOnError)
	force := fs.Bool("force", false, "skip confirmation")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nlmbulk rm-source [-force] <notebook-id> <source-id>\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("notebook id and source id required")
	}

	if !*force && !confirm(fmt.Sprintf("Delete source %s?", fs.Arg(1))) {
		return fmt.Errorf("aborted")
	}
	if err := a.client.DeleteSource(context.Background(), fs.Arg(0), fs.Arg(1)); err != nil {
		return err
	}
	fmt.Println("Deleted source")
	return nil
}

func (a *app) handleDeleteSources(args []string) error {
	fs := flag.NewFlagSet("rm-sources", flag.ExitOnError)
	force := fs.Bool("force", false, "skip confirmation")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nlmbulk rm-sources [-force] <notebook-id> <source-id>...\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return fmt.Errorf("notebook id and at least one source id required")
	}

	ids := fs.Args()[1:]
	if !*force && !confirm(fmt.Sprintf("Delete %d sources?", len(ids))) {
		return fmt.Errorf("aborted")
	}

	deleted, err := a.client.DeleteSources(context.Background(), fs.Arg(0), ids)
	if err != nil {
		if deleted > 0 {
			fmt.Fprintf(os.Stderr, "deleted %d before failure\n", deleted)
		}
		return err
	}
	fmt.Printf("Deleted %d sources\n", deleted)
	return nil
}

func (a *app) handleWait(args []string) error {
	fs := flag.NewFlagSet("wait", flag.ExitOnError)
	attempts := fs.Int("attempts", 30, "maximum probe attempts, one per second")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nlmbulk wait [-attempts=n] <notebook-id>\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("notebook id required")
	}

	if a.client.WaitForSources(context.Background(), fs.Arg(0), *attempts) {
		fmt.Println("Sources ready")
	} else {
		fmt.Printf("Sources still processing after %d attempts\n", *attempts)
	}
	return nil
}

func (a *app) handleImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	title := fs.String("title", "Imported links", "title when creating a notebook")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nlmbulk import [-title=t] <notebook-id|new> <file>\n\n")
		fmt.Fprintf(os.Stderr, "Import urls listed one per line; use - to read stdin.\n")
		fmt.Fprintf(os.Stderr, "Pass \"new\" as the notebook id to create one first.\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("notebook id and url file required")
	}

	urls, err := readURLs(fs.Arg(1))
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no urls in %s", fs.Arg(1))
	}

	ctx := context.Background()
	notebookID := fs.Arg(0)
	if notebookID == "new" {
		nb, err := a.client.CreateNotebook(ctx, *title, bulk.EmojiForURLs(urls))
		if err != nil {
			return err
		}
		notebookID = nb.ID
		fmt.Printf("Created %s %q (%s)\n", nb.Emoji, nb.Name, nb.ID)
	}

	importer := bulk.New(a.client,
		bulk.WithLogger(a.log),
		bulk.WithBatchSize(a.settings.BatchSize))
	result, err := importer.ImportURLs(ctx, notebookID, urls, func(done, total int) {
		fmt.Printf("Imported %d/%d\n", done, total)
	})
	if err != nil {
		return err
	}

	switch result.Outcome {
	case bulk.OutcomeSuccess:
		fmt.Printf("Successfully imported %d items\n", result.Imported)
	case bulk.OutcomePartial:
		fmt.Printf("Imported %d items, %d failed\n", result.Imported, result.Failed)
	case bulk.OutcomeFailure:
		return fmt.Errorf("failed to import any of %d items", result.Failed)
	}
	if !result.Ready {
		fmt.Println("Sources are still processing")
	}
	if a.settings.AutoOpenNotebook {
		fmt.Println(wire.NotebookURL(notebookID, a.account))
	}
	return nil
}

func (a *app) handleAccounts(args []string) error {
	fs := flag.NewFlagSet("accounts", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "output JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nlmbulk accounts [-json]\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	accounts := a.client.ListAccounts(context.Background())
	if *asJSON {
		return printJSON(accounts)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tEMAIL\tNAME\tACTIVE")
	for _, acc := range accounts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%v\n", acc.Index, acc.Email, acc.Name, acc.IsActive)
	}
	return w.Flush()
}

func (a *app) handleCall(args []string) error {
	fs := flag.NewFlagSet("call", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nlmbulk call <cmd> [json-params]\n\n")
		fmt.Fprintf(os.Stderr, "Invoke a command through the message boundary, e.g.:\n")
		fmt.Fprintf(os.Stderr, "  nlmbulk call list-notebooks\n")
		fmt.Fprintf(os.Stderr, "  nlmbulk call add-sources '{\"notebookId\":\"...\",\"urls\":[\"https://a.com\"]}'\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return fmt.Errorf("command name required")
	}

	req := dispatch.Request{Cmd: fs.Arg(0)}
	if fs.NArg() == 2 {
		if err := json.Unmarshal([]byte(fs.Arg(1)), &req); err != nil {
			return fmt.Errorf("parse params: %w", err)
		}
		req.Cmd = fs.Arg(0)
	}

	handler := dispatch.New(a.client, a.log)
	return printJSON(handler.Handle(context.Background(), req))
}

func confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

func readURLs(path string) ([]string, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open url file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var urls []string
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read urls: %w", err)
	}
	return urls, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
