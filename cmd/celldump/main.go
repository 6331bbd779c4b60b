package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/carlmjohnson/versioninfo"
	"github.com/charmbracelet/fang"
	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"
	"github.com/ugorji/go/codec"

	"github.com/cvsouth/torcell/cell"
)

// supportedVersions are the link protocols a VERSIONS cell is matched against
// when --versions-first is set.
var supportedVersions = []uint16{3, 4, 5}

// Config holds the command line configuration.
type Config struct {
	LinkVersion   uint16
	VersionsFirst bool
	Hex           bool
	Format        string
	Verbose       bool
}

func newRootCommand() *cobra.Command {
	var cfg Config

	cmd := &cobra.Command{
		Use:   "celldump [file]",
		Short: "Decode Tor link cells from a captured byte stream",
		Long: `celldump decodes the cells in a block of bytes read from a Tor link
connection and prints them one per line. Input is read from the named file or
from stdin, either raw or hex encoded.`,
		Example: `  # Decode a responder's first flight captured before negotiation
  celldump --versions-first capture.bin

  # Decode hex from stdin as link protocol 4 and emit JSON
  echo 0000000080000108 | celldump --hex -l 4 -f json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				in = f
			}
			return run(cfg, in, cmd.OutOrStdout(), newLogger(cmd.ErrOrStderr(), cfg.Verbose))
		},
	}

	cmd.Flags().Uint16VarP(&cfg.LinkVersion, "link-version", "l", 4, "link protocol version used to frame cells")
	cmd.Flags().BoolVar(&cfg.VersionsFirst, "versions-first", false, "decode the first cell as VERSIONS and switch to the negotiated version")
	cmd.Flags().BoolVar(&cfg.Hex, "hex", false, "input is hex encoded")
	cmd.Flags().StringVarP(&cfg.Format, "format", "f", "text", "output format (text, json, cbor)")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "debug logging")

	return cmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func readInput(in io.Reader, isHex bool) ([]byte, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if !isHex {
		return data, nil
	}
	data = bytes.Join(bytes.Fields(data), nil)
	out := make([]byte, hex.DecodedLen(len(data)))
	if _, err := hex.Decode(out, data); err != nil {
		return nil, fmt.Errorf("decode hex input: %w", err)
	}
	return out, nil
}

func run(cfg Config, in io.Reader, out io.Writer, logger *slog.Logger) error {
	emit, err := newEmitter(cfg.Format, out)
	if err != nil {
		return err
	}
	data, err := readInput(in, cfg.Hex)
	if err != nil {
		return err
	}
	logger.Debug("read input", "bytes", len(data))

	version := cell.LinkVersion(cfg.LinkVersion)
	if cfg.VersionsFirst {
		version = 2
	}
	d := cell.NewDecoder(data, version)

	for n := 0; ; n++ {
		c, err := d.Next()
		if errors.Is(err, io.EOF) {
			logger.Debug("done", "cells", n)
			return nil
		}
		if err != nil {
			return fmt.Errorf("cell %d at offset %d: %w", n, len(data)-len(d.Remaining()), err)
		}
		logger.Debug("decoded cell", "index", n, "cmd", c.Command(), "circ_id", d.CircID())

		if err := emit(describe(d.CircID(), c)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}

		if cfg.VersionsFirst && n == 0 {
			v, ok := c.(cell.Versions)
			if !ok {
				return fmt.Errorf("first cell is %s, not VERSIONS", c.Command())
			}
			negotiated := v.Highest(supportedVersions)
			if negotiated == 0 {
				return fmt.Errorf("no common link protocol version (offered %v)", v.Versions)
			}
			logger.Info("version negotiated", "version", negotiated)
			d.SetVersion(cell.LinkVersion(negotiated))
		}
	}
}

// newEmitter returns a function writing one record in the given format.
func newEmitter(format string, w io.Writer) (func(record) error, error) {
	switch format {
	case "text":
		return func(r record) error {
			_, err := fmt.Fprintln(w, r.String())
			return err
		}, nil
	case "json":
		enc := codec.NewEncoder(w, &codec.JsonHandle{})
		return func(r record) error {
			if err := enc.Encode(r); err != nil {
				return err
			}
			_, err := io.WriteString(w, "\n")
			return err
		}, nil
	case "cbor":
		enc := cbor.NewEncoder(w)
		return func(r record) error { return enc.Encode(r) }, nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCommand(),
		fang.WithVersion(versioninfo.Short()),
	); err != nil {
		os.Exit(1)
	}
}
