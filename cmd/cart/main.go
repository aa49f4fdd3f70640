package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dukerupert/ostara/internal"
	"github.com/dukerupert/ostara/internal/auth"
	"github.com/dukerupert/ostara/internal/cart"
	"github.com/dukerupert/ostara/internal/cartstore"
	"github.com/dukerupert/ostara/internal/domain"
	"github.com/dukerupert/ostara/internal/gateway"
	"github.com/dukerupert/ostara/internal/order"
	"github.com/dukerupert/ostara/internal/telemetry"
)

const usage = `usage: cart <command> [args]

commands:
  show                                   print the current cart
  add <product-id> <name> <cents> [qty]  add a product
  update <product-id> <qty>              change a line's quantity
  rm <product-id>                        remove a line
  clear                                  empty the cart
  submit <email> <phone> [notes]         submit the order
`

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel)

	// Resolve the bearer credential; its presence decides the session mode.
	cred, err := auth.Load(cfg.API.Token, cfg.API.TokenPath)
	if err != nil {
		logger.Warn("credential unavailable, starting guest session", "error", err)
		cred = auth.Credential{}
	}

	// Initialize guest snapshot store
	store, err := cartstore.NewFileStore(cfg.Snapshot.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize cart snapshot store: %w", err)
	}

	// Initialize remote gateway
	gw, err := gateway.NewClient(gateway.Config{
		BaseURL:     cfg.API.BaseURL,
		BearerToken: cred.Token,
		Timeout:     cfg.API.Timeout,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize cart gateway: %w", err)
	}

	// Initialize metrics
	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer, "ostara")

	// Initialize orchestrator and submission pipeline
	orchestrator := cart.New(store, gw, cred, logger, metrics)
	if err := orchestrator.Bootstrap(ctx); err != nil {
		return fmt.Errorf("cart bootstrap failed: %s", domain.ErrorMessage(err))
	}
	pipeline := order.NewPipeline(orchestrator, gw, logger, metrics)

	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("no command given")
	}

	switch args[0] {
	case "show":
		printCart(orchestrator)
		return nil

	case "add":
		if len(args) < 4 {
			return fmt.Errorf("usage: cart add <product-id> <name> <cents> [qty]")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product id: %q", args[1])
		}
		cents, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid price: %q", args[3])
		}
		qty := int32(1)
		if len(args) > 4 {
			q, err := strconv.ParseInt(args[4], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid quantity: %q", args[4])
			}
			qty = int32(q)
		}
		p := domain.Product{ID: id, Name: args[2], UnitPriceCents: cents}
		if err := orchestrator.AddItem(ctx, p, qty); err != nil {
			return fmt.Errorf("%s", domain.ErrorMessage(err))
		}
		printCart(orchestrator)
		return nil

	case "update":
		if len(args) < 3 {
			return fmt.Errorf("usage: cart update <product-id> <qty>")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product id: %q", args[1])
		}
		qty, err := strconv.ParseInt(args[2], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid quantity: %q", args[2])
		}
		if err := orchestrator.UpdateQuantity(ctx, id, int32(qty)); err != nil {
			return fmt.Errorf("%s", domain.ErrorMessage(err))
		}
		printCart(orchestrator)
		return nil

	case "rm":
		if len(args) < 2 {
			return fmt.Errorf("usage: cart rm <product-id>")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product id: %q", args[1])
		}
		if err := orchestrator.RemoveItem(ctx, id); err != nil {
			return fmt.Errorf("%s", domain.ErrorMessage(err))
		}
		printCart(orchestrator)
		return nil

	case "clear":
		if err := orchestrator.Clear(ctx); err != nil {
			return fmt.Errorf("%s", domain.ErrorMessage(err))
		}
		fmt.Println("cart cleared")
		return nil

	case "submit":
		if len(args) < 3 {
			return fmt.Errorf("usage: cart submit <email> <phone> [notes]")
		}
		contact := domain.Contact{Email: args[1], Phone: args[2]}
		if len(args) > 3 {
			contact.Notes = args[3]
		}
		conf, err := pipeline.Submit(ctx, contact)
		if err != nil {
			if fields := domain.GetValidationFields(err); fields != nil {
				for field, msg := range fields {
					fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
				}
				return fmt.Errorf("please correct the fields above")
			}
			return fmt.Errorf("%s", domain.ErrorMessage(err))
		}
		fmt.Printf("order %s confirmed", conf.OrderID)
		if conf.TotalCents > 0 {
			fmt.Printf(", total %s", formatCents(conf.TotalCents))
		}
		fmt.Println()
		if conf.Message != "" {
			fmt.Println(conf.Message)
		}
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command: %q", args[0])
	}
}

func printCart(o *cart.Orchestrator) {
	lines := o.Lines()
	if len(lines) == 0 {
		fmt.Printf("cart is empty (%s mode)\n", o.Mode())
		return
	}

	for _, l := range lines {
		fmt.Printf("  %6d  %-30s  x%-3d  %10s\n", l.ProductID, l.DisplayName, l.Quantity, formatCents(l.SubtotalCents()))
	}
	fmt.Printf("  %d items, total %s (%s mode)\n", o.ItemCount(), formatCents(o.TotalCents()), o.Mode())
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
