package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"food-checkout/internal/checkout"
	"food-checkout/internal/client"
	"food-checkout/internal/domain"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

// itemFlags collects repeated -item id:qty values.
type itemFlags []string

func (f *itemFlags) String() string     { return strings.Join(*f, ",") }
func (f *itemFlags) Set(v string) error { *f = append(*f, v); return nil }

func main() {
	var (
		server     = flag.String("server", "http://localhost:8006", "checkout API base URL")
		email      = flag.String("email", "", "diner email")
		name       = flag.String("name", "", "diner display name")
		address    = flag.String("address", "", "prefilled delivery address")
		restaurant = flag.String("restaurant", "", "restaurant id")
		verbose    = flag.Bool("v", false, "log failed requests")
		items      itemFlags
	)
	flag.Var(&items, "item", "menu item as id:qty, repeatable")
	flag.Parse()

	if *email == "" || *restaurant == "" || len(items) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger := zap.NewNop()
	if *verbose {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.New(*server)
	r, err := api.Restaurant(ctx, *restaurant)
	if err != nil {
		log.Fatalf("load restaurant %s: %v", *restaurant, err)
	}
	cart, err := buildCart(r, items)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s, %d items, total %s\n", r.Name, cart.Count(), cart.Total().StringFixed(2))
	for _, it := range cart {
		fmt.Printf("  %dx %s  %s\n", it.Quantity, it.Name, it.LineTotal().StringFixed(2))
	}

	ctl := checkout.NewController(api,
		checkout.Diner{Email: *email, Name: *name, Address: *address},
		cart,
		checkout.WithObserver(printStatus),
		checkout.WithLogger(logger),
	)

	fmt.Println("commands: address <text> | otp <code> | resend | confirm | cancel")
	in := bufio.NewScanner(os.Stdin)
	for !ctl.Session().State.Closed() {
		fmt.Printf("[%s] > ", ctl.Session().State)
		if !in.Scan() {
			ctl.Cancel()
			break
		}
		cmd, arg, _ := strings.Cut(strings.TrimSpace(in.Text()), " ")
		switch cmd {
		case "address":
			ctl.SubmitAddress(ctx, arg)
		case "otp":
			ctl.SubmitOtp(ctx, arg)
		case "resend":
			ctl.ResendOtp(ctx)
		case "confirm":
			ctl.ConfirmOrder(ctx)
		case "cancel":
			ctl.Cancel()
		case "":
		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
	}

	if s := ctl.Session(); s.State == checkout.Placed {
		fmt.Println("order id:", s.OrderID)
	}
}

func printStatus(s checkout.Session) {
	if s.Status.Text == "" {
		return
	}
	fmt.Printf("  %s: %s\n", s.Status.Severity, s.Status.Text)
}

func buildCart(r *domain.Restaurant, items []string) (domain.Cart, error) {
	var cart domain.Cart
	for _, raw := range items {
		id, qty, ok := strings.Cut(raw, ":")
		if !ok {
			qty = "1"
		}
		n, err := strconv.Atoi(qty)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("bad quantity in %q", raw)
		}
		m, found := r.MenuItem(id)
		if !found {
			return nil, fmt.Errorf("%s has no menu item %q", r.Name, id)
		}
		cart = append(cart, domain.CartItem{
			ID:        domain.ItemID(m.ID),
			Name:      m.Name,
			UnitPrice: m.Price,
			Quantity:  n,
		})
	}
	return cart, cart.Validate()
}
