package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/powerzone/gymclient/internal/api"
	"github.com/powerzone/gymclient/internal/catalog"
	"github.com/powerzone/gymclient/internal/config"
	"github.com/powerzone/gymclient/internal/credentials"
	"github.com/powerzone/gymclient/internal/domain"
	"github.com/powerzone/gymclient/internal/store"
)

func usage() {
	fmt.Println("Usage: gymcart <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  cart show")
	fmt.Println("  cart add <product-id> [quantity]")
	fmt.Println("  cart update <line-id> <quantity>")
	fmt.Println("  cart remove <line-id>")
	fmt.Println("  sessions list")
	fmt.Println("  sessions cart")
	fmt.Println("  sessions book <session-id>")
	fmt.Println("  sessions unbook <cart-item-id>")
	fmt.Println("  sessions clear")
	fmt.Println("  products")
	fmt.Println("  equipments")
	fmt.Println("  rate <product-id> <stars>")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	creds := credentials.NewFileStore(cfg.API.TokenFile)
	client := api.NewClient(cfg.API, creds, logger)
	cart := store.NewCartStore(client, logger)
	sessions := store.NewSessionCartStore(client, logger)
	shop := catalog.NewClient(client, logger)

	ctx := context.Background()

	switch os.Args[1] {
	case "cart":
		runCart(ctx, cart, os.Args[2:])
	case "sessions":
		runSessions(ctx, sessions, shop, os.Args[2:])
	case "products":
		products, err := shop.ListProducts(ctx)
		exitOn(err)
		for _, p := range products {
			fmt.Printf("#%d  %-24s %8.2f  stock %d  rating %.1f (%d)\n",
				p.ID, p.Name, p.Price, p.Stock, p.Rating, p.RatingCount)
		}
	case "equipments":
		items, err := shop.ListEquipment(ctx)
		exitOn(err)
		for _, e := range items {
			fmt.Printf("#%d  %-24s [%s]\n", e.ID, e.Name, e.Category)
		}
	case "rate":
		if len(os.Args) < 4 {
			usage()
		}
		productID := parseID(os.Args[2])
		stars := parseCount(os.Args[3], "stars")
		products, err := shop.ListProducts(ctx)
		exitOn(err)
		var target *domain.Product
		for i := range products {
			if products[i].ID == productID {
				target = &products[i]
				break
			}
		}
		if target == nil {
			fmt.Fprintf(os.Stderr, "Product %d not found\n", productID)
			os.Exit(1)
		}
		updated, err := shop.SubmitRating(ctx, *target, stars)
		exitOn(err)
		fmt.Printf("⭐ %s now rated %.1f (%d ratings)\n", updated.Name, updated.Rating, updated.RatingCount)
	default:
		usage()
	}
}

func runCart(ctx context.Context, cart *store.CartStore, args []string) {
	if len(args) < 1 {
		usage()
	}

	switch args[0] {
	case "show":
		exitOn(cart.Refresh(ctx))
		printCart(cart.Snapshot())
	case "add":
		if len(args) < 2 {
			usage()
		}
		quantity := 1
		if len(args) >= 3 {
			quantity = parseCount(args[2], "quantity")
		}
		report(cart.AddItem(ctx, parseID(args[1]), quantity))
		printCart(cart.Snapshot())
	case "update":
		if len(args) < 3 {
			usage()
		}
		quantity := parseCount(args[2], "quantity")
		report(cart.UpdateQuantity(ctx, parseID(args[1]), quantity))
		printCart(cart.Snapshot())
	case "remove":
		if len(args) < 2 {
			usage()
		}
		report(cart.RemoveItem(ctx, parseID(args[1])))
		printCart(cart.Snapshot())
	default:
		usage()
	}
}

func runSessions(ctx context.Context, sessions *store.SessionCartStore, shop *catalog.Client, args []string) {
	if len(args) < 1 {
		usage()
	}

	switch args[0] {
	case "list":
		all, err := shop.ListSessions(ctx)
		exitOn(err)
		for _, day := range catalog.GroupSessionsByDate(all) {
			fmt.Printf("%s\n", day.Date)
			for _, s := range day.Sessions {
				fmt.Printf("  #%d  %s-%s  %-10s with %-14s %6.2f  (%d/%d booked)\n",
					s.ID, s.StartTime, s.EndTime, s.ClassType, s.TrainerName, s.Price, s.Booked, s.Capacity)
			}
		}
	case "cart":
		exitOn(sessions.Refresh(ctx))
		printSessionCart(sessions.Snapshot())
	case "book":
		if len(args) < 2 {
			usage()
		}
		res := sessions.AddSession(ctx, parseID(args[1]))
		report(res.Result)
		if res.Line != nil {
			fmt.Printf("📅 Booked %s on %s at %s\n", res.Line.ClassType, res.Line.Date, res.Line.StartTime)
		}
		printSessionCart(sessions.Snapshot())
	case "unbook":
		if len(args) < 2 {
			usage()
		}
		report(sessions.RemoveSession(ctx, parseID(args[1])))
		printSessionCart(sessions.Snapshot())
	case "clear":
		report(sessions.ClearAll(ctx))
		printSessionCart(sessions.Snapshot())
	default:
		usage()
	}
}

func printCart(snap *domain.CartSnapshot) {
	if !snap.HasItems() {
		fmt.Println("Cart is empty")
		return
	}
	for _, line := range snap.Items {
		fmt.Printf("  line %d: %s x%d @ %.2f = %.2f\n",
			line.ID, line.ProductName, line.Quantity, line.Price, line.ItemTotal)
	}
	fmt.Printf("  %d items, total %.2f\n", snap.TotalItems, snap.TotalPrice)
}

func printSessionCart(snap *domain.SessionCartSnapshot) {
	if !snap.HasItems() {
		fmt.Println("No sessions booked")
		return
	}
	for _, line := range snap.Items {
		fmt.Printf("  booking %d: %s with %s on %s %s-%s, %.2f\n",
			line.CartItemID, line.ClassType, line.TrainerName, line.Date, line.StartTime, line.EndTime, line.Price)
	}
	fmt.Printf("  %d sessions, total %.2f\n", snap.TotalItems, snap.TotalPrice)
}

func report(res store.Result) {
	if !res.Success {
		fmt.Fprintf(os.Stderr, "❌ %s\n", res.Error)
		os.Exit(1)
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid id %q\n", s)
		os.Exit(1)
	}
	return id
}

func parseCount(s, what string) int {
	n, err := parseCountArg(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid %s %q\n", what, s)
		os.Exit(1)
	}
	return n
}

// parseCountArg rejects anything that is not a plain base-10 integer, so
// a mistyped argument aborts the command instead of silently falling back
// to a default count.
func parseCountArg(s string) (int, error) {
	return strconv.Atoi(s)
}
