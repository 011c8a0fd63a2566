package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"pickupwatch/pkg/apple"
	"pickupwatch/pkg/config"
	"pickupwatch/pkg/logger"
)

// pickupprobe sends one pickup-message request and dumps the decoded result.
// It never notifies.
func main() {
	var (
		model    = flag.String("model", string(apple.ModelSeven), "iPhone model (plus|seven)")
		color    = flag.String("color", string(apple.ColorBlack), "color")
		capacity = flag.Int("capacity", 128, "capacity in GB")
		carrier  = flag.String("carrier", apple.DefaultCarrier, "carrier")
		zip      = flag.String("zip", "95014", "zip code")
		endpoint = flag.String("endpoint", config.DefaultPickupEndpoint, "pickup-message endpoint")
		timeout  = flag.Duration("timeout", config.DefaultRequestTimeout, "request timeout")
	)
	flag.Parse()

	if err := logger.InitLogger(true, "", "debug"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func() { _ = logger.Sync() }()

	sel := apple.Selection{
		Model:    apple.Model(*model),
		Color:    apple.Color(*color),
		Capacity: *capacity,
		Carrier:  *carrier,
		Zip:      *zip,
	}

	checker := apple.NewChecker(apple.WithBaseURL(*endpoint), apple.WithTimeout(*timeout))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout+5*time.Second)
	defer cancel()

	logger.Info("🔍 Probing pickup endpoint", zap.String("selection", sel.String()))
	result, err := checker.Check(ctx, sel)
	if err != nil {
		logger.Error("❌ Probe failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	logger.Info("📊 Probe result",
		zap.String("url", result.URL),
		zap.Int("stores_seen", result.StoresSeen),
		zap.Int("available", len(result.Available)))

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}
