// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

// Package packcmd implements the "nmbuild pack" CLI subcommands for
// inspecting, verifying, and creating .nmres resource packs directly,
// outside a full pipeline run.
package packcmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/novelmind-foundation/nmbuild/cmd/nmbuild/cli"
	"github.com/novelmind-foundation/nmbuild/lib/packcodec"
	"github.com/novelmind-foundation/nmbuild/lib/respack"
	"github.com/novelmind-foundation/nmbuild/lib/sizereport"
)

// Command returns the top-level "pack" command with all subcommands.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "pack",
		Summary: "Inspect, verify, and create .nmres resource packs",
		Description: `Work with .nmres resource packs directly.

A pack is a self-describing binary container: its header records where
the resource table, string table, and data section live, so inspect
and verify need no external index. Create builds a pack from loose
files, which is useful for patch and mod packs assembled outside a
project build.`,
		Subcommands: []*cli.Command{
			inspectCommand(),
			verifyCommand(),
			createCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "List the resources in a pack",
				Command:     "nmbuild pack inspect dist/packs/Base.nmres",
			},
			{
				Description: "Check a pack's structure",
				Command:     "nmbuild pack verify dist/packs/Lang_en.nmres",
			},
			{
				Description: "Build a compressed pack from loose files",
				Command:     "nmbuild pack create patch.nmres fix1.png fix2.ogg --compression balanced",
			},
		},
	}
}

// --- inspect ---

type inspectParams struct {
	cli.JSONOutput
	Entries bool `flag:"entries" desc:"list every resource entry" default:"true"`
}

func inspectCommand() *cli.Command {
	var params inspectParams

	return &cli.Command{
		Name:    "inspect",
		Summary: "Show a pack's header, footer, and resource table",
		Usage:   "nmbuild pack inspect <file.nmres> [flags]",
		Params:  func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one pack file argument")
			}

			info, err := respack.Inspect(args[0])
			if err != nil {
				return cli.Internal("inspecting %s: %w", args[0], err)
			}

			if done, err := params.EmitJSON(info); done {
				return err
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
			fmt.Fprintf(writer, "Pack:\t%s\n", info.Path)
			fmt.Fprintf(writer, "Format:\tv%d.%d\n", info.VersionMajor, info.VersionMinor)
			fmt.Fprintf(writer, "Encrypted:\t%v\n", info.Encrypted)
			fmt.Fprintf(writer, "Compressed:\t%v\n", info.Compressed)
			fmt.Fprintf(writer, "Resources:\t%d\n", info.ResourceCount)
			fmt.Fprintf(writer, "Size:\t%s (%d bytes)\n",
				sizereport.FormatBytes(int64(info.TotalFileSize)), info.TotalFileSize)
			fmt.Fprintf(writer, "Written:\t%s\n", info.Timestamp.Format("2006-01-02 15:04:05 MST"))
			fmt.Fprintf(writer, "Build:\t#%d\n", info.BuildNumber)
			writer.Flush()

			if params.Entries && len(info.Entries) > 0 {
				fmt.Println("\nResources:")
				entryWriter := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
				fmt.Fprintf(entryWriter, "  NAME\tSTORED\tORIGINAL\tOFFSET\tCRC32\n")
				for _, entry := range info.Entries {
					crc := "-"
					if entry.CRC32 != 0 {
						crc = fmt.Sprintf("%08x", entry.CRC32)
					}
					fmt.Fprintf(entryWriter, "  %s\t%s\t%s\t%d\t%s\n",
						entry.Name,
						sizereport.FormatBytes(int64(entry.CompressedSize)),
						sizereport.FormatBytes(int64(entry.UncompressedSize)),
						entry.DataOffset,
						crc)
				}
				entryWriter.Flush()
			}
			return nil
		},
	}
}

// --- verify ---

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:    "verify",
		Summary: "Check a pack's magic numbers and structural consistency",
		Usage:   "nmbuild pack verify <file.nmres>...",
		Description: `Open each pack and walk its full structure: header and footer
magics, version, table and string-table bounds, and per-entry offsets.
Prints one line per pack and exits 1 if any pack fails.`,
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) == 0 {
				return cli.Validation("expected at least one pack file argument")
			}

			failed := 0
			for _, path := range args {
				if err := verifyPack(path); err != nil {
					fmt.Printf("%s: FAILED: %v\n", path, err)
					failed++
					continue
				}
				fmt.Printf("%s: ok\n", path)
			}
			if failed > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

// verifyPack runs the cheap magic probe first, then the full
// structural parse. Open validates every offset and the string table,
// so a pack that opens cleanly is structurally sound.
func verifyPack(path string) error {
	if err := respack.VerifyMagic(path); err != nil {
		return err
	}
	reader, err := respack.Open(path)
	if err != nil {
		return err
	}
	return reader.Close()
}

// --- create ---

type createParams struct {
	Compression string `flag:"compression" desc:"compression level: none, fast, balanced, or maximum" default:"none"`
	Encrypt     bool   `flag:"encrypt" desc:"encrypt resource payloads"`
	Key         string `flag:"encryption-key" desc:"passphrase for pack encryption"`
	BuildNumber uint32 `flag:"build-number" desc:"build number stamped into the footer" default:"1"`
}

func createCommand() *cli.Command {
	var params createParams

	return &cli.Command{
		Name:    "create",
		Summary: "Build a pack from loose files",
		Usage:   "nmbuild pack create <out.nmres> <file>... [flags]",
		Description: `Pack the named files into a new .nmres archive. Resources are named
by their basename and stored in argument order. The pack is written
atomically; a failed create leaves no partial file behind.`,
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) < 2 {
				return cli.Validation("expected an output pack and at least one input file")
			}
			output, inputs := args[0], args[1:]

			level, err := packcodec.ParseLevel(params.Compression)
			if err != nil {
				return cli.Validation("%v", err)
			}

			builder := respack.NewBuilder()
			for _, input := range inputs {
				if err := builder.Add(input); err != nil {
					return cli.Internal("%v", err)
				}
			}

			opts := respack.Options{
				Codec:       packcodec.ForConfig(level, params.Encrypt, params.Key),
				BuildNumber: params.BuildNumber,
			}
			if err := builder.WriteTo(output, opts); err != nil {
				return cli.Internal("writing pack: %w", err)
			}

			logger.Info("pack written", "path", output, "resources", builder.Len())
			return nil
		},
	}
}
