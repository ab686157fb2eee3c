// Command saturnctl is the host-side control surface for a saturncore
// Machine: backup-memory import/export/list/format, an IPL-image size
// check, and the interactive register/memory monitor.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/kamek-retro/saturncore/internal/backup"
	"github.com/kamek-retro/saturncore/internal/monitor"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "saturnctl:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "saturnctl",
		Short: "host-side control surface for a saturncore machine",
	}
	root.AddCommand(newBackupCmd())
	root.AddCommand(newIPLCmd())
	root.AddCommand(newMonitorCmd())
	return root
}

func newBackupCmd() *cobra.Command {
	var volumePath string
	var size int

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "inspect and edit a backup-memory volume image",
	}
	cmd.PersistentFlags().StringVar(&volumePath, "volume", "", "path to the backup-memory volume image")
	cmd.PersistentFlags().IntVar(&size, "size", backup.Size32K, "volume size in bytes, for --format")
	cmd.MarkPersistentFlagRequired("volume")

	cmd.AddCommand(newBackupListCmd(&volumePath))
	cmd.AddCommand(newBackupFormatCmd(&volumePath, &size))
	cmd.AddCommand(newBackupImportCmd(&volumePath))
	cmd.AddCommand(newBackupExportCmd(&volumePath))
	cmd.AddCommand(newBackupExportAllCmd(&volumePath))
	return cmd
}

func openVolume(path string) (*backup.Volume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read volume: %w", err)
	}
	vol, result := backup.LoadFromBytes(data)
	if vol == nil {
		return nil, fmt.Errorf("load volume: result code %d", result)
	}
	return vol, nil
}

func saveVolume(path string, vol *backup.Volume) error {
	return os.WriteFile(path, vol.Bytes(), 0o644)
}

func newBackupListCmd(volumePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list every file on the volume",
		RunE: func(cmd *cobra.Command, args []string) error {
			vol, err := openVolume(*volumePath)
			if err != nil {
				return err
			}
			for _, name := range vol.List() {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func newBackupFormatCmd(volumePath *string, size *int) *cobra.Command {
	return &cobra.Command{
		Use:   "format",
		Short: "create a freshly formatted volume at --volume",
		RunE: func(cmd *cobra.Command, args []string) error {
			vol, err := backup.NewVolume(*size)
			if err != nil {
				return err
			}
			return saveVolume(*volumePath, vol)
		},
	}
}

func newBackupImportCmd(volumePath *string) *cobra.Command {
	var overwrite bool
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "import a Ymir- or BUP-encoded save file into the volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vol, err := openVolume(*volumePath)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			f, err := decodeFor(format, raw)
			if err != nil {
				return err
			}
			switch vol.ImportFile(f, overwrite) {
			case backup.NoSpace:
				return fmt.Errorf("import %s: volume out of free blocks", f.Name)
			case backup.FileExists:
				return fmt.Errorf("import %s: already exists (use --overwrite)", f.Name)
			}
			return saveVolume(*volumePath, vol)
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing file of the same name")
	cmd.Flags().StringVar(&format, "format", "ymir", "source encoding: ymir or bup")
	return cmd
}

func newBackupExportCmd(volumePath *string) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "export one file from the volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vol, err := openVolume(*volumePath)
			if err != nil {
				return err
			}
			f, ok := vol.Export(args[0])
			if !ok {
				return fmt.Errorf("export: no such file %q", args[0])
			}
			raw := encodeFor(format, f)
			if out == "" {
				out = args[0]
			}
			return os.WriteFile(out, raw, 0o644)
		},
	}
	cmd.Flags().StringVar(&format, "format", "ymir", "destination encoding: ymir or bup")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output path (default: the saved file's name)")
	return cmd
}

// newBackupExportAllCmd exports every file on the volume concurrently —
// each file's own encode-and-write is independent I/O, so an errgroup
// fans them out and stops at the first failure rather than exporting
// serially.
func newBackupExportAllCmd(volumePath *string) *cobra.Command {
	var format, dir string
	cmd := &cobra.Command{
		Use:   "export-all",
		Short: "export every file on the volume into --dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			vol, err := openVolume(*volumePath)
			if err != nil {
				return err
			}
			files := vol.ExportAll()
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			var g errgroup.Group
			for _, f := range files {
				f := f
				g.Go(func() error {
					raw := encodeFor(format, f)
					path := dir + string(os.PathSeparator) + f.Name
					return os.WriteFile(path, raw, 0o644)
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&format, "format", "ymir", "destination encoding: ymir or bup")
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to write exported files into")
	return cmd
}

func decodeFor(format string, raw []byte) (backup.File, error) {
	switch format {
	case "ymir":
		return backup.DecodeYmir(raw)
	case "bup":
		return backup.DecodeBUP(raw)
	default:
		return backup.File{}, fmt.Errorf("unknown format %q (want ymir or bup)", format)
	}
}

func encodeFor(format string, f backup.File) []byte {
	if format == "bup" {
		return backup.EncodeBUP(f)
	}
	return backup.EncodeYmir(f)
}

func newIPLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ipl-check <file>",
		Short: "validate an IPL boot ROM image's size before loading it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			if info.Size() == 0 || info.Size() > 512*1024 {
				return fmt.Errorf("ipl-check: %s is %d bytes, want 1..524288", args[0], info.Size())
			}
			fmt.Printf("%s: %d bytes, OK\n", args[0], info.Size())
			return nil
		},
	}
}

// newMonitorCmd launches the interactive register/memory monitor. It is
// registered here with no components wired in: a host embedding
// saturncore builds its own Machine, registers a debug.Probe of its own
// for each CPU (the cores do not implement one), and calls monitor.Run
// directly rather than going through this binary — this subcommand
// exists to exercise the terminal plumbing (terminal detection via
// golang.org/x/term) standalone, e.g. under a test harness
// with no machine attached.
func newMonitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "start the interactive debugger REPL with no components attached",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return fmt.Errorf("monitor: stdin is not a terminal")
			}
			m := monitor.New(os.Stdout)
			return m.Run()
		},
	}
}
