package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fenggwsx/NickDirectory/internal/protocol"
	"github.com/fenggwsx/NickDirectory/internal/storage"
)

// formatter renders responses as text or JSON.
type formatter struct {
	format string
	w      io.Writer
}

func newFormatter(opts *RootOptions, w io.Writer) formatter {
	return formatter{format: opts.Format, w: w}
}

func (f formatter) writeJSON(v interface{}) error {
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// records prints a listing. Text output follows the directory's familiar
// "<name> has nickname: <nickname>" form.
func (f formatter) records(resp protocol.Response) error {
	if f.format == "json" {
		if resp.Records == nil {
			resp.Records = []storage.Record{}
		}
		return f.writeJSON(resp)
	}
	if len(resp.Records) == 0 {
		_, err := fmt.Fprintln(f.w, "Content Provider Results: no content yet!")
		return err
	}
	if _, err := fmt.Fprintln(f.w, "Content Provider Results:"); err != nil {
		return err
	}
	for _, rec := range resp.Records {
		if _, err := fmt.Fprintf(f.w, "%d\t%s has nickname: %s\n", rec.ID, rec.Name, rec.Nickname); err != nil {
			return err
		}
	}
	return nil
}

func (f formatter) record(rec storage.Record) error {
	if f.format == "json" {
		return f.writeJSON(rec)
	}
	_, err := fmt.Fprintf(f.w, "%d\t%s has nickname: %s\n", rec.ID, rec.Name, rec.Nickname)
	return err
}

func (f formatter) inserted(resp protocol.Response) error {
	if f.format == "json" {
		return f.writeJSON(resp)
	}
	_, err := fmt.Fprintf(f.w, "Record inserted: %s\n", resp.Location)
	return err
}

func (f formatter) affected(resp protocol.Response, verb string) error {
	if f.format == "json" {
		return f.writeJSON(resp)
	}
	_, err := fmt.Fprintf(f.w, "%d records are %s.\n", resp.Affected, verb)
	return err
}

func (f formatter) message(key, value string) error {
	if f.format == "json" {
		return f.writeJSON(map[string]string{key: value})
	}
	_, err := fmt.Fprintln(f.w, value)
	return err
}
