package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	match "github.com/0x5487/orderbook"
)

func main() {
	configPath := flag.String("config", "", "path to a yaml config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := match.LoadConfig(configPath)
	if err != nil {
		return err
	}

	log, sync := match.NewLogger(cfg.Log.Production)
	defer func() { _ = sync() }()
	match.SetLogger(log)

	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	book := match.NewOrderBook(opts...)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := book.Shutdown(ctx); err != nil {
			log.Error("order book shutdown", "error", err)
		}
	}()

	const orderID match.OrderID = 1

	if _, err := book.AddOrder(match.NewOrder(match.GoodTillCancel, orderID, match.Buy, 100, 10)); err != nil {
		return err
	}
	log.Info("order added", slog.Int("size", book.Size()))

	book.CancelOrder(orderID)
	log.Info("order cancelled", slog.Int("size", book.Size()))

	return nil
}
