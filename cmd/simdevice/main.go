// Command simdevice posts fake meter telemetry to a running wattbill server,
// one stream per configured device token. Useful for filling a local
// emulator with data to chart.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/wattbill/wattbill/pkg/common"
	"github.com/wattbill/wattbill/pkg/log"
	"github.com/wattbill/wattbill/pkg/types"
)

type simDevice struct {
	token string
	// load profile bounds in amps
	minA, maxA float64
	// cumulative meter counter
	energyKWH float64
}

func main() {
	baseURL := lflag.String("base-url", "http://127.0.0.1:8080", "Base URL of the wattbill server")
	tokens := lflag.String("device-tokens", "", "Comma-delimited device upload tokens")
	interval := lflag.Duration("interval", 2*time.Second, "Delay between telemetry rounds")
	lflag.Configure()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var devices []*simDevice
	for i, token := range strings.Split(*tokens, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		d := &simDevice{token: token}
		// differentiate the streams so the charts aren't flat
		switch i % 3 {
		case 0: // fridge, constant low draw
			d.minA, d.maxA = 0.5, 1.5
		case 1: // AC, heavy
			d.minA, d.maxA = 5.0, 10.0
		default: // lights and fans
			d.minA, d.maxA = 1.0, 3.0
		}
		devices = append(devices, d)
	}
	if len(devices) == 0 {
		log.Ctx(ctx).Error("no device tokens configured")
		os.Exit(1)
	}

	client := common.HTTPClient(5 * time.Second)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	log.Ctx(ctx).InfoContext(ctx, "starting simulation", slog.Int("devices", len(devices)))

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		for _, d := range devices {
			if err := sendTelemetry(ctx, client, *baseURL, d, rng, *interval); err != nil {
				log.Ctx(ctx).WarnContext(ctx, "upload failed", slog.Any("error", err))
			}
		}
		select {
		case <-ctx.Done():
			log.Ctx(ctx).InfoContext(ctx, "simulation stopped")
			return
		case <-ticker.C:
		}
	}
}

func sendTelemetry(ctx context.Context, client *http.Client, baseURL string, d *simDevice, rng *rand.Rand, interval time.Duration) error {
	voltage := 220 + rng.Float64()*20
	current := d.minA + rng.Float64()*(d.maxA-d.minA)
	power := voltage * current
	// advance the cumulative counter by the energy used this interval
	d.energyKWH += power / 1000 * interval.Hours()

	sample := types.MeterSample{
		Timestamp: time.Now().UTC(),
		VoltageV:  round2(voltage),
		CurrentA:  round2(current),
		PowerW:    round2(power),
		EnergyKWH: d.energyKWH,
	}

	body, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/telemetry/upload", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Device-Token", d.token)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	log.Ctx(ctx).InfoContext(ctx, "sample uploaded", slog.Float64("powerW", sample.PowerW))
	return nil
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
