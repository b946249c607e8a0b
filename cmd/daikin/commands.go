package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/zberg/go-daikin/pkg/daikin"
)

var (
	targetHost string
	targetUnit string
	configPath string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&targetHost, "host", "", "IP address of the unit's wireless adapter")
	rootCmd.PersistentFlags().StringVar(&targetUnit, "unit", "", "unit label from the units file")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the units file (default ~/.config/daikin/units.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(consumptionCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(wifiCmd)
	rootCmd.AddCommand(rebootCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(bridgeCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the unit's control and sensor state",
	Run: func(cmd *cobra.Command, args []string) {
		client := getClient()
		ctx := context.Background()

		s, err := client.Snapshot(ctx)
		if err != nil {
			fmt.Printf("Error fetching status: %v\n", err)
			os.Exit(1)
		}

		power := "OFF"
		if s.Control.Power {
			power = "ON"
		}
		fmt.Printf("%s (%s)\n", s.Basic.Name, s.Basic.MAC)
		fmt.Printf("  Power:    %s\n", power)
		fmt.Printf("  Mode:     %s\n", s.Control.Mode)
		fmt.Printf("  Target:   %s\n", formatTemp(s.Control.TargetTemperature))
		fmt.Printf("  Fan:      %s, sweep %s\n", s.Control.FanRate, s.Control.FanDirection)
		fmt.Printf("  Inside:   %s\n", formatTemp(s.Sensor.InsideTemperature))
		fmt.Printf("  Outside:  %s\n", formatTemp(s.Sensor.OutsideTemperature))
		fmt.Printf("  Runtime:  %d min today, %d W used\n", s.Week.TodayRuntime, s.Week.Today())
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show adapter and model details",
	Run: func(cmd *cobra.Command, args []string) {
		client := getClient()
		ctx := context.Background()

		bi, err := client.BasicInfo(ctx)
		if err != nil {
			fmt.Printf("Error fetching basic info: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Name:     %s\n", bi.Name)
		fmt.Printf("Type:     %s (region %s)\n", bi.Type, bi.Region)
		fmt.Printf("MAC:      %s\n", bi.MAC)
		fmt.Printf("Firmware: %s rev %s\n", bi.Version, bi.Revision)

		mi, err := client.ModelInfo(ctx)
		if err != nil {
			fmt.Printf("Error fetching model info: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Model:    %s\n", mi.Model)
		fmt.Printf("Features: schedule=%v fan-rate=%v fan-direction=%v\n",
			mi.ScheduleTimerSupported, mi.FanRateSupported, mi.FanDirectionSupported)

		dt, err := client.DateTime(ctx)
		if err == nil && dt.Current != "" {
			fmt.Printf("Clock:    %s\n", dt.Current)
		}
	},
}

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change control settings",
	Run: func(cmd *cobra.Command, args []string) {
		var patch daikin.ControlPatch

		if s, _ := cmd.Flags().GetString("power"); s != "" {
			on := s == "on"
			if !on && s != "off" {
				fmt.Printf("Invalid power state %q: must be on or off\n", s)
				os.Exit(1)
			}
			patch.Power = &on
		}
		if s, _ := cmd.Flags().GetString("mode"); s != "" {
			m, err := daikin.ParseMode(s)
			if err != nil {
				fmt.Printf("Invalid mode %q: must be auto, dry, cool, heat or fan\n", s)
				os.Exit(1)
			}
			patch.Mode = &m
		}
		if cmd.Flags().Changed("temp") {
			temp, _ := cmd.Flags().GetFloat64("temp")
			patch.TargetTemperature = &temp
		}
		if cmd.Flags().Changed("humidity") {
			hum, _ := cmd.Flags().GetFloat64("humidity")
			patch.TargetHumidity = &hum
		}
		if s, _ := cmd.Flags().GetString("fan"); s != "" {
			r, err := daikin.ParseFanRate(s)
			if err != nil {
				fmt.Printf("Invalid fan rate %q: must be auto, silent or 1-5\n", s)
				os.Exit(1)
			}
			patch.FanRate = &r
		}
		if s, _ := cmd.Flags().GetString("swing"); s != "" {
			d, err := daikin.ParseFanDirection(s)
			if err != nil {
				fmt.Printf("Invalid swing %q: must be off, vertical, horizontal or 3d\n", s)
				os.Exit(1)
			}
			patch.FanDirection = &d
		}

		client := getClient()
		if err := client.SetControl(context.Background(), patch); err != nil {
			fmt.Printf("Error setting controls: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Command sent successfully.")
	},
}

var consumptionCmd = &cobra.Command{
	Use:   "consumption",
	Short: "Show energy consumption counters",
	Run: func(cmd *cobra.Command, args []string) {
		client := getClient()
		ctx := context.Background()

		week, err := client.WeekPower(ctx)
		if err != nil {
			fmt.Printf("Error fetching week power: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Today:      %d W over %d min\n", week.Today(), week.TodayRuntime)

		kwh, err := client.CurrentMonthPowerConsumption(ctx)
		if err != nil {
			fmt.Printf("This month: unavailable (%v)\n", err)
		} else {
			fmt.Printf("This month: %.1f kWh\n", kwh)
		}

		if all, _ := cmd.Flags().GetBool("week"); all {
			fmt.Println("Past week (W, oldest first):")
			for i, w := range week.Days {
				fmt.Printf("  day %d: %d\n", i+1, w)
			}
		}
		if all, _ := cmd.Flags().GetBool("year"); all {
			year, err := client.YearPower(ctx)
			if err != nil {
				fmt.Printf("Error fetching year power: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("This year (kWh per month):")
			for i, tenths := range year.ThisYear {
				fmt.Printf("  %s: %.1f\n", time.Month(i+1), float64(tenths)/10.0)
			}
		}
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show the weekly timer program",
	Run: func(cmd *cobra.Command, args []string) {
		client := getClient()

		s, err := client.Schedule(context.Background())
		if err != nil {
			fmt.Printf("Error fetching schedule: %v\n", err)
			os.Exit(1)
		}

		state := "disabled"
		if s.Enabled {
			state = "enabled"
		}
		fmt.Printf("Schedule timer %s, %d entries\n", state, len(s.Entries))

		raw, _ := cmd.Flags().GetBool("raw")
		for _, e := range s.Entries {
			if raw {
				rec, err := e.Encode()
				if err != nil {
					fmt.Printf("Error encoding entry: %v\n", err)
					os.Exit(1)
				}
				fmt.Println(rec)
				continue
			}
			active := " "
			if !e.Enabled {
				active = "#"
			}
			action := "off"
			if e.Power {
				action = fmt.Sprintf("on, %s %s", e.Mode, formatTemp(e.Temperature))
			}
			fmt.Printf("%s %s %02d:%02d slot %d: %s\n", active, e.Weekday, e.Hour, e.Minute, e.Slot, action)
		}
	},
}

var wifiCmd = &cobra.Command{
	Use:   "wifi",
	Short: "Show or change the adapter's wireless settings",
}

var wifiShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current wireless settings",
	Run: func(cmd *cobra.Command, args []string) {
		client := getClient()

		ws, err := client.WifiSettings(context.Background())
		if err != nil {
			fmt.Printf("Error fetching wifi settings: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("SSID:     %s\n", ws.SSID)
		fmt.Printf("Security: %s\n", ws.Security)
		fmt.Printf("Link:     %d\n", ws.Link)
	},
}

var wifiSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Join a different wireless network",
	Run: func(cmd *cobra.Command, args []string) {
		ssid, _ := cmd.Flags().GetString("ssid")
		key, _ := cmd.Flags().GetString("key")
		if ssid == "" || key == "" {
			fmt.Println("Both --ssid and --key are required.")
			os.Exit(1)
		}
		noReboot, _ := cmd.Flags().GetBool("no-reboot")

		client := getClient()
		if err := client.SetWifi(context.Background(), ssid, key, !noReboot); err != nil {
			fmt.Printf("Error setting wifi: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Wifi settings updated.")
	},
}

var rebootCmd = &cobra.Command{
	Use:   "reboot",
	Short: "Reboot the wireless adapter",
	Run: func(cmd *cobra.Command, args []string) {
		client := getClient()
		if err := client.Reboot(context.Background()); err != nil {
			fmt.Printf("Error rebooting: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Reboot ordered.")
	},
}

func init() {
	setCmd.Flags().String("power", "", "Power state (on, off)")
	setCmd.Flags().String("mode", "", "Mode (auto, dry, cool, heat, fan)")
	setCmd.Flags().Float64("temp", 0, "Target temperature in degrees centigrade")
	setCmd.Flags().Float64("humidity", 0, "Target humidity percent")
	setCmd.Flags().String("fan", "", "Fan rate (auto, silent, 1-5)")
	setCmd.Flags().String("swing", "", "Louvre sweep (off, vertical, horizontal, 3d)")

	consumptionCmd.Flags().Bool("week", false, "show the daily table for the past week")
	consumptionCmd.Flags().Bool("year", false, "show the monthly table for this year")

	scheduleCmd.Flags().Bool("raw", false, "print wire-format records")

	wifiSetCmd.Flags().String("ssid", "", "SSID of the new network")
	wifiSetCmd.Flags().String("key", "", "key of the new network")
	wifiSetCmd.Flags().Bool("no-reboot", false, "do not reboot the adapter afterwards")
	wifiCmd.AddCommand(wifiShowCmd)
	wifiCmd.AddCommand(wifiSetCmd)
}

func newLogger() *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// resolveHost turns the --host/--unit flags into an adapter address,
// consulting the units file for labels.
func resolveHost() string {
	if targetHost != "" {
		return targetHost
	}
	if targetUnit == "" {
		fmt.Println("A target is required. Use --host or --unit.")
		os.Exit(1)
	}
	units, err := loadUnits(configPath)
	if err != nil {
		fmt.Printf("Error loading units file: %v\n", err)
		os.Exit(1)
	}
	host, ok := units.Host(targetUnit)
	if !ok {
		fmt.Printf("Unknown unit %q: not in the units file.\n", targetUnit)
		os.Exit(1)
	}
	return host
}

func getClient() *daikin.Client {
	client, err := daikin.NewClient(resolveHost(), daikin.WithLogger(newLogger()))
	if err != nil {
		fmt.Printf("Error creating client: %v\n", err)
		os.Exit(1)
	}
	return client
}

func formatTemp(t *float64) string {
	if t == nil {
		return "-"
	}
	return strconv.FormatFloat(*t, 'f', 1, 64) + "°C"
}
