package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"alarm-go/internal/alarm"
	"alarm-go/internal/app"
	"alarm-go/internal/config"
	"alarm-go/internal/notify"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an AlarmApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Create", "Rearm").
func newApp(operation string) (*app.AlarmApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewAlarmApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid alarm id %q", s)
	}
	return id, nil
}

func printAlarm(w io.Writer, a *alarm.Alarm) {
	state := "on "
	if !a.Enabled {
		state = "off"
	}
	repeat := alarm.RepeatSummary(a)
	if repeat == "" {
		repeat = "Once"
	}
	fmt.Fprintf(w, "%-20d  %s  %s  %-22s  %s\n", a.ID, a.TimeString(), state, repeat, a.Label)
}

// applyAlarmFlags copies the alarm flags that were set on cmd into a.
func applyAlarmFlags(cmd *cobra.Command, a *alarm.Alarm) error {
	flags := cmd.Flags()

	if flags.Changed("time") {
		s, _ := flags.GetString("time")
		h, m, err := alarm.ParseTimeOfDay(s)
		if err != nil {
			return err
		}
		a.Hour, a.Minute = h, m
	}
	if flags.Changed("label") {
		a.Label, _ = flags.GetString("label")
	}
	if flags.Changed("days") {
		s, _ := flags.GetString("days")
		days, err := alarm.ParseRepeatDays(s)
		if err != nil {
			return err
		}
		a.RepeatDays = days
	}
	if flags.Changed("no-vibrate") {
		noVibrate, _ := flags.GetBool("no-vibrate")
		a.Vibrate = !noVibrate
	}
	if flags.Changed("ringtone") {
		n, _ := flags.GetInt("ringtone")
		a.SetRingtoneIndex(n - 1)
	}
	return nil
}

func addAlarmFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("time", "t", "", "Time of day, HH:MM (24-hour)")
	cmd.Flags().StringP("label", "l", "", "Label shown when the alarm fires")
	cmd.Flags().StringP("days", "d", "", "Repeat days: mon,wed,fri | daily | weekdays | weekends | none")
	cmd.Flags().Bool("no-vibrate", false, "Do not vibrate")
	cmd.Flags().Int("ringtone", 1, fmt.Sprintf("Ringtone number, 1-%d", alarm.RingtoneCount))
}

var rootCmd = &cobra.Command{
	Use:   "alarmctl",
	Short: "Manage alarms",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		cfg.Timer.SpoolDir = defaults["spool_dir"]

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Printf("Timers:   %s\n", cfg.Timer.SpoolDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Log Level: %s\n", cfg.LogLevel)
		fmt.Printf("Database:  %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Timer:     %s %s\n", cfg.Timer.Type, cfg.Timer.SpoolDir)
		fmt.Printf("Snooze:    %d min\n", cfg.Snooze.Minutes)
		return nil
	},
}

// add command
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an alarm",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("time") {
			return fmt.Errorf("--time is required")
		}

		al := alarm.New(0, 0)
		if err := applyAlarmFlags(cmd, al); err != nil {
			return err
		}
		if disabled, _ := cmd.Flags().GetBool("disabled"); disabled {
			al.Enabled = false
		}

		a, err := newApp("Create")
		if err != nil {
			return err
		}
		defer a.Close()

		created, err := a.Create(al)
		if err != nil {
			return fmt.Errorf("creating alarm: %w", err)
		}

		fmt.Printf("Created alarm %d at %s\n", created.ID, created.TimeString())
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List alarms",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("List")
		if err != nil {
			return err
		}
		defer a.Close()

		alarms, err := a.List()
		if err != nil {
			return err
		}

		if len(alarms) == 0 {
			fmt.Println("No alarms.")
			return nil
		}
		for _, al := range alarms {
			printAlarm(os.Stdout, al)
		}
		return nil
	},
}

// show command
var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one alarm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("Get")
		if err != nil {
			return err
		}
		defer a.Close()

		al, err := a.Get(id)
		if err != nil {
			return err
		}

		repeat := alarm.RepeatSummary(al)
		if repeat == "" {
			repeat = "Once"
		}
		fmt.Printf("ID:       %d\n", al.ID)
		fmt.Printf("Time:     %s\n", al.TimeString())
		fmt.Printf("Label:    %s\n", al.Label)
		fmt.Printf("Enabled:  %t\n", al.Enabled)
		fmt.Printf("Repeat:   %s\n", repeat)
		fmt.Printf("Vibrate:  %t\n", al.Vibrate)
		fmt.Printf("Ringtone: %s\n", alarm.RingtoneName(al.RingtoneIndex))
		return nil
	},
}

// edit command
var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change an alarm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("Update")
		if err != nil {
			return err
		}
		defer a.Close()

		al, err := a.Get(id)
		if err != nil {
			return err
		}
		if err := applyAlarmFlags(cmd, al); err != nil {
			return err
		}

		if err := a.Update(al); err != nil {
			return fmt.Errorf("updating alarm: %w", err)
		}

		fmt.Printf("Updated alarm %d\n", id)
		return nil
	},
}

func toggleCmd(use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp("SetEnabled")
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.SetEnabled(id, enabled); err != nil {
				return err
			}

			fmt.Printf("Alarm %d %sd\n", id, use)
			return nil
		},
	}
}

var enableCmd = toggleCmd("enable", "Turn an alarm on", true)
var disableCmd = toggleCmd("disable", "Turn an alarm off", false)

// confirm asks a yes/no question on the terminal. Non-interactive input is
// never taken as consent.
func confirm(prompt string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	fmt.Printf("%s [y/N] ", prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// delete command
var deleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an alarm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm(fmt.Sprintf("Delete alarm %d?", id)) {
			return fmt.Errorf("not confirmed (use --yes when not on a terminal)")
		}

		a, err := newApp("Delete")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Delete(id); err != nil {
			return err
		}

		fmt.Printf("Deleted alarm %d\n", id)
		return nil
	},
}

// snooze command
var snoozeCmd = &cobra.Command{
	Use:   "snooze ID",
	Short: "Ring again after the snooze interval",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("Snooze")
		if err != nil {
			return err
		}
		defer a.Close()

		until, err := a.Snooze(id)
		if err != nil {
			return err
		}

		fmt.Printf("Snoozed alarm %d until %s\n", id, until.Format("Mon 15:04"))
		return nil
	},
}

// next command
var nextCmd = &cobra.Command{
	Use:   "next ID",
	Short: "Show upcoming trigger times",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		count, _ := cmd.Flags().GetInt("count")

		a, err := newApp("Upcoming")
		if err != nil {
			return err
		}
		defer a.Close()

		times, err := a.Upcoming(id, count)
		if err != nil {
			return err
		}

		for _, t := range times {
			fmt.Println(t.Format("Mon 2006-01-02 15:04"))
		}
		return nil
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export enabled alarms as iCalendar",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		a, err := newApp("Export")
		if err != nil {
			return err
		}
		defer a.Close()

		var w io.Writer = os.Stdout
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			defer f.Close()
			w = f
		}

		return a.Export(w)
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View command history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("History")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt != nil {
				d := op.FinishedAt.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-12s  %s  %-8s  %-10s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Local().Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
		}
		return nil
	},
}

// rearm command
var rearmCmd = &cobra.Command{
	Use:   "rearm",
	Short: "Re-arm every alarm (run at boot)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Rearm")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Rearm()
		if err != nil {
			return err
		}

		fmt.Printf("Re-armed %d alarms\n", n)
		return nil
	},
}

// timers command
var timersCmd = &cobra.Command{
	Use:   "timers",
	Short: "List armed wake timers",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Pending")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.Pending()
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No timers armed.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%-26s  %s  %s\n", e.Slot, e.At.Format("Mon 2006-01-02 15:04"), e.Payload.Label)
		}
		return nil
	},
}

// watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Ring armed alarms as they come due",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp("Watch")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Watch(ctx, notify.NewConsole(os.Stdout))
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(addCmd)
	addAlarmFlags(addCmd)
	addCmd.Flags().Bool("disabled", false, "Create the alarm switched off")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(editCmd)
	addAlarmFlags(editCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(snoozeCmd)
	rootCmd.AddCommand(nextCmd)
	nextCmd.Flags().IntP("count", "c", 5, "Number of occurrences to show")
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("out", "o", "", "Write to file instead of stdout")
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(rearmCmd)
	rootCmd.AddCommand(timersCmd)
	rootCmd.AddCommand(watchCmd)
}
