package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"phototidy/internal/app"
	"phototidy/internal/config"
	"phototidy/internal/tidy"
)

var (
	jsonOutput bool
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a TidyApp. The caller must defer a.Close().
// Mutating commands hold the data-dir lock until Close.
func newApp(command string, mutating bool) (*app.TidyApp, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewTidyApp(cfg, command, app.Options{Mutating: mutating, Verbose: verbose})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func loadConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	path := defaults["config_path"]
	cfg, err := config.ReadFromFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading config (run `phototidy config init` first): %w", err)
	}
	return cfg, path, nil
}

var rootCmd = &cobra.Command{
	Use:          "phototidy",
	Short:        "Organize a photo library into date folders",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["home_dir"], defaults["data_dir"])
		cfg.LogDir = defaults["log_dir"]

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Home Dir: %s\n", cfg.HomeDir)
		fmt.Printf("Data Dir: %s\n", cfg.DataDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cfg)
		}

		paths, err := cfg.Derive()
		if err != nil {
			return fmt.Errorf("resolving library paths: %w", err)
		}
		exts := make([]string, 0, len(paths.Extensions))
		for ext := range paths.Extensions {
			exts = append(exts, ext)
		}
		sort.Strings(exts)

		fmt.Printf("Configuration from %s:\n\n", path)
		return printResult(nil, []kv{
			{"scan root", paths.ScanRoot},
			{"output root", paths.OutputRoot},
			{"duplicates", paths.DuplicatesDir},
			{"plan snapshot", paths.PlanSnapshotPath},
			{"origin info", paths.OriginInfoPath},
			{"extensions", strings.Join(exts, " ")},
			{"workers", workersLabel(cfg.Scan.Workers)},
			{"database", cfg.Database.Type + " " + cfg.DatabasePath()},
			{"encryption", cfg.Encryption.Type},
			{"log dir", cfg.LogDir},
		})
	},
}

func workersLabel(n int) string {
	if n <= 0 {
		return "auto"
	}
	return strconv.Itoa(n)
}

// pipeline commands
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Inventory media under the scan root",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("scan", true)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Scan(newProgress())
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		return printResult(s, []kv{
			{"files", strconv.Itoa(s.TotalFiles)},
			{"hashed", strconv.Itoa(s.HashedFiles)},
			{"unchanged", strconv.Itoa(s.SkippedFiles)},
			{"duplicates", strconv.Itoa(s.DuplicateFiles)},
		})
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute target paths for the inventory",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("plan", true)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Plan(newProgress())
		if err != nil {
			return fmt.Errorf("plan failed: %w", err)
		}
		return printResult(s, []kv{
			{"entries", strconv.Itoa(s.TotalEntries)},
			{"unique", strconv.Itoa(s.UniqueEntries)},
			{"duplicates", strconv.Itoa(s.DuplicateEntries)},
			{"folders", strconv.Itoa(s.DestinationBuckets)},
			{"size", humanize.Bytes(s.TotalBytes)},
			{"snapshot", s.PlanJSONPath},
		})
	},
}

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Copy or move files to their planned targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		a, err := newApp("execute", !dryRun)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Execute(mode, dryRun, newProgress())
		if err != nil {
			return fmt.Errorf("execute failed: %w", err)
		}
		return printResult(s, []kv{
			{"mode", string(s.Mode)},
			{"dry run", strconv.FormatBool(s.DryRun)},
			{"pending", strconv.Itoa(s.TotalEntries)},
			{"processed", strconv.Itoa(s.ProcessedEntries)},
			{"succeeded", strconv.Itoa(s.Succeeded)},
			{"failed", strconv.Itoa(s.Failed)},
			{"duplicates", strconv.Itoa(s.DuplicateEntries)},
		})
	},
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Move organized files back to where they came from",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("undo", true)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Undo(newProgress())
		if err != nil {
			return fmt.Errorf("undo failed: %w", err)
		}
		return printResult(s, []kv{
			{"processed", strconv.Itoa(s.ProcessedEntries)},
			{"restored", strconv.Itoa(s.Restored)},
			{"missing", strconv.Itoa(s.Missing)},
			{"failed", strconv.Itoa(s.Failed)},
		})
	},
}

// reporting commands
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show inventory and plan state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("status", false)
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.Status()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(st)
		}

		rows := []kv{{"inventory files", strconv.Itoa(st.InventoryLen)}}
		for _, s := range []tidy.PlanStatus{tidy.StatusPending, tidy.StatusCopied, tidy.StatusMoved, tidy.StatusFailed} {
			rows = append(rows, kv{"plan " + s.String(), strconv.Itoa(st.PlanCounts[s])})
		}
		keys := make([]string, 0, len(st.Meta))
		for k := range st.Meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			rows = append(rows, kv{k, st.Meta[k]})
		}
		return printResult(st, rows)
	},
}

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Export the inventory as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		a, err := newApp("inventory", false)
		if err != nil {
			return err
		}
		defer a.Close()

		path, n, err := a.ExportInventory(out)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		if jsonOutput {
			return printJSON(map[string]any{"path": path, "records": n})
		}
		fmt.Printf("Exported %d record(s) to %s\n", n, path)
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View the execute and undo log",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("logs", false)
		if err != nil {
			return err
		}
		defer a.Close()

		logs, err := a.Logs(limit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(logs)
		}
		if len(logs) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		rows := make([][]string, 0, len(logs))
		for _, l := range logs {
			rows = append(rows, []string{
				strconv.FormatInt(l.ID, 10),
				l.CreatedAt,
				l.Operation,
				l.Status,
				strconv.FormatInt(l.PlanEntryID, 10),
				l.Error,
			})
		}
		fmt.Println(renderTable(
			[]string{"#", "Time", "Operation", "Status", "Entry", "Error"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		))
		return nil
	},
}

var logsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the operation log",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("logs clear", true)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ClearLogs(); err != nil {
			return err
		}
		fmt.Println("Operation log cleared.")
		return nil
	},
}

var diskCmd = &cobra.Command{
	Use:   "disk",
	Short: "Show free space at the output root",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("disk", false)
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.DiskUsage()
		if err != nil {
			return err
		}
		return printResult(d, []kv{
			{"path", d.Path},
			{"available", humanize.Bytes(d.AvailableBytes)},
			{"total", humanize.Bytes(d.TotalBytes)},
		})
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the inventory database",
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database location and schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("db status", false)
		if err != nil {
			return err
		}
		defer a.Close()

		info, err := a.DatabaseStatus()
		if err != nil {
			return err
		}
		return printResult(info, []kv{
			{"path", info.Path},
			{"size", humanize.Bytes(uint64(info.SizeBytes))},
			{"schema version", info.SchemaVersion},
			{"encryption", info.Encryption},
			{"keys present", strconv.FormatBool(info.KeysPresent)},
		})
	},
}

var dbBackupCmd = &cobra.Command{
	Use:   "backup DEST",
	Short: "Write a snapshot of the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("db backup", false)
		if err != nil {
			return err
		}
		defer a.Close()

		sealed, err := a.BackupDatabase(args[0])
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		if jsonOutput {
			return printJSON(map[string]any{"path": args[0], "encrypted": sealed})
		}
		if sealed {
			fmt.Printf("Encrypted backup written to %s\n", args[0])
		} else {
			fmt.Printf("Backup written to %s (not encrypted)\n", args[0])
		}
		return nil
	},
}

var dbRestoreCmd = &cobra.Command{
	Use:   "restore SRC",
	Short: "Replace the database with a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("db restore", true)
		if err != nil {
			return err
		}
		defer a.Close()

		sealed, err := a.BackupSealed(args[0])
		if err != nil {
			return err
		}
		var passphrase string
		if sealed {
			if passphrase, err = readPassphrase("Passphrase: "); err != nil {
				return err
			}
		}

		if err := a.RestoreDatabase(args[0], passphrase); err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		fmt.Printf("Database restored from %s\n", args[0])
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage backup encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the backup key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("keys init", false)
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if passphrase != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := a.InitKeys(passphrase); err != nil {
			return err
		}
		fmt.Println("Encryption keys created.")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Mirror the log to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// pipeline
	executeCmd.Flags().String("mode", "copy", "How to apply the plan: copy or move")
	executeCmd.Flags().Bool("dry-run", false, "Report what would happen without touching files")

	// reporting
	inventoryCmd.Flags().StringP("out", "o", "", "Destination file (default: library.origin_info_name under the output root)")
	logsCmd.Flags().IntP("limit", "n", 50, "Maximum number of rows to show (0 for all)")
	logsCmd.AddCommand(logsClearCmd)

	// db subcommands
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbBackupCmd)
	dbCmd.AddCommand(dbRestoreCmd)

	keysCmd.AddCommand(keysInitCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(inventoryCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(diskCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(keysCmd)
}
