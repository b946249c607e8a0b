package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/zberg/go-daikin/pkg/daikin"
)

const (
	exporterReadTimeout  = 15 * time.Second
	exporterWriteTimeout = 15 * time.Second
	exporterIdleTimeout  = 60 * time.Second
)

var (
	insideTemperature = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "daikin_inside_temperature_celsius",
			Help: "Current room temperature in degrees centigrade",
		},
		[]string{"unit"},
	)

	outsideTemperature = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "daikin_outside_temperature_celsius",
			Help: "Current outdoor temperature in degrees centigrade",
		},
		[]string{"unit"},
	)

	insideHumidity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "daikin_inside_humidity_percent",
			Help: "Current room relative humidity",
		},
		[]string{"unit"},
	)

	targetTemperature = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "daikin_target_temperature_celsius",
			Help: "Temperature setpoint in degrees centigrade",
		},
		[]string{"unit"},
	)

	powerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "daikin_power_state",
			Help: "Unit power state (1=on, 0=off)",
		},
		[]string{"unit"},
	)

	compressorFrequency = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "daikin_compressor_frequency",
			Help: "Outdoor compressor frequency, roughly proportional to load",
		},
		[]string{"unit"},
	)

	todayConsumption = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "daikin_today_power_consumption_watts",
			Help: "Energy consumed today in watts",
		},
		[]string{"unit"},
	)

	scrapeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daikin_scrape_failures_total",
			Help: "Number of failed polls per unit",
		},
		[]string{"unit"},
	)
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Serve Prometheus metrics for one or more units",
	Run: func(cmd *cobra.Command, args []string) {
		listen, _ := cmd.Flags().GetString("listen")
		interval, _ := cmd.Flags().GetDuration("interval")

		units, err := exportTargets()
		if err != nil {
			fmt.Printf("Error resolving units: %v\n", err)
			os.Exit(1)
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(insideTemperature, outsideTemperature, insideHumidity,
			targetTemperature, powerState, compressorFrequency, todayConsumption,
			scrapeFailures)

		logger := newLogger()
		clients := make(map[string]*daikin.Client, len(units))
		for label, host := range units {
			c, err := daikin.NewClient(host, daikin.WithLogger(logger))
			if err != nil {
				fmt.Printf("Error creating client for %s: %v\n", label, err)
				os.Exit(1)
			}
			clients[label] = c
		}

		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				for label, client := range clients {
					pollUnit(label, client)
				}
				<-ticker.C
			}
		}()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{
			Addr:         listen,
			Handler:      mux,
			ReadTimeout:  exporterReadTimeout,
			WriteTimeout: exporterWriteTimeout,
			IdleTimeout:  exporterIdleTimeout,
		}

		fmt.Printf("Serving metrics for %d unit(s) on %s\n", len(clients), listen)
		if err := srv.ListenAndServe(); err != nil {
			fmt.Printf("Metrics server failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	exportCmd.Flags().String("listen", ":9265", "listen address for /metrics")
	exportCmd.Flags().Duration("interval", time.Minute, "poll interval")
}

// exportTargets returns label->host for every unit to poll: the single
// --host/--unit target, or every entry in the units file.
func exportTargets() (map[string]string, error) {
	if targetHost != "" {
		return map[string]string{targetHost: targetHost}, nil
	}
	units, err := loadUnits(configPath)
	if err != nil {
		return nil, err
	}
	if targetUnit != "" {
		host, ok := units.Host(targetUnit)
		if !ok {
			return nil, fmt.Errorf("unknown unit %q", targetUnit)
		}
		return map[string]string{targetUnit: host}, nil
	}
	if len(units.Unit) == 0 {
		return nil, fmt.Errorf("no units configured")
	}
	out := make(map[string]string, len(units.Unit))
	for _, e := range units.Unit {
		out[e.Label] = e.Host
	}
	return out, nil
}

func pollUnit(label string, client *daikin.Client) {
	s, err := client.Snapshot(context.Background())
	if err != nil {
		scrapeFailures.WithLabelValues(label).Inc()
		return
	}

	if s.Sensor.InsideTemperature != nil {
		insideTemperature.WithLabelValues(label).Set(*s.Sensor.InsideTemperature)
	}
	if s.Sensor.OutsideTemperature != nil {
		outsideTemperature.WithLabelValues(label).Set(*s.Sensor.OutsideTemperature)
	}
	if s.Sensor.InsideHumidity != nil {
		insideHumidity.WithLabelValues(label).Set(*s.Sensor.InsideHumidity)
	}
	if s.Control.TargetTemperature != nil {
		targetTemperature.WithLabelValues(label).Set(*s.Control.TargetTemperature)
	}
	power := 0.0
	if s.Control.Power {
		power = 1.0
	}
	powerState.WithLabelValues(label).Set(power)
	compressorFrequency.WithLabelValues(label).Set(float64(s.Sensor.CompressorFrequency))
	todayConsumption.WithLabelValues(label).Set(float64(s.Week.Today()))
}
