package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/shopfront/client/internal/application/admin"
	"github.com/shopfront/client/internal/application/auth"
	"github.com/shopfront/client/internal/application/guard"
	"github.com/shopfront/client/internal/application/store"
	"github.com/shopfront/client/internal/domain/shop"
	"github.com/shopfront/client/internal/infrastructure/api"
	"github.com/shopfront/client/internal/infrastructure/config"
	"github.com/shopfront/client/internal/infrastructure/localdata"
	"github.com/shopfront/client/internal/infrastructure/logger"
	"github.com/shopfront/client/internal/infrastructure/sessionstore"
)

const usage = `shopctl - storefront client

Usage:
  shopctl login <email> <password>
  shopctl register <name> <email> <password>
  shopctl logout
  shopctl whoami
  shopctl products [search]
  shopctl product <id>
  shopctl cart
  shopctl cart add <product-id> <size> <quantity>
  shopctl cart update <line-id> <quantity>
  shopctl cart remove <line-id>
  shopctl wishlist
  shopctl wishlist toggle <product-id>
  shopctl orders
  shopctl checkout <address> <cod|card>
  shopctl admin dashboard
  shopctl admin users [search]
  shopctl admin block <user-id>
  shopctl admin unblock <user-id>
  shopctl admin orders [status]
  shopctl admin set-status <order-id> <status>
`

// app bundles the wired client: session store, resource client, domain
// stores and services. The CLI is the view-layer analog; domain state is
// owned exclusively by the stores.
type app struct {
	log      *zap.Logger
	sessions *sessionstore.Store
	guest    *localdata.GuestStore
	cart     *store.Cart
	wishlist *store.Wishlist
	orders   *store.Orders
	catalog  *store.Catalog
	auth     *auth.Service
	admin    *admin.Service
	printer  *message.Printer
	unit     currency.Unit
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		return 1
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		return 1
	}
	defer log.Sync() //nolint:errcheck

	sessions := sessionstore.New(cfg.Storage.SessionPath(), log)
	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, sessions, log)

	// Global failure policy: 401 and 403 both force re-authentication; 403
	// is the blocked-account path.
	client.OnSessionInvalid(func(blocked bool) {
		sessions.Clear()
		if blocked {
			fmt.Println("Your account has been blocked. Redirecting to login.")
		} else {
			fmt.Println("Your session is no longer valid. Please sign in again.")
		}
	})

	var guest *localdata.GuestStore
	if cfg.GuestCart.Enabled {
		guest, err = localdata.Open(cfg.GuestCartPath(), log)
		if err != nil {
			log.Warn("guest store unavailable, continuing without local fallback", zap.Error(err))
		} else {
			defer guest.Close() //nolint:errcheck
		}
	}

	a := &app{
		log:      log,
		sessions: sessions,
		guest:    guest,
		cart:     store.NewCart(client, sessions, log),
		wishlist: store.NewWishlist(client, sessions, log),
		orders:   store.NewOrders(client, sessions, log),
		catalog:  store.NewCatalog(client, sessions, log),
		admin:    admin.NewService(client, sessions, log),
		printer:  message.NewPrinter(language.English),
	}
	a.auth = auth.NewService(client, sessions, guest, a.cart, log)

	if unit, err := currency.ParseISO(cfg.App.Currency); err == nil {
		a.unit = unit
	} else {
		a.unit = currency.USD
	}

	sessions.Restore()

	if len(args) == 0 {
		fmt.Print(usage)
		return 2
	}
	if err := a.dispatch(context.Background(), args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// navigate runs the route guard for the given requirement and reports
// whether the command may render. Redirect outcomes print the navigation the
// browser client would perform.
func (a *app) navigate(req guard.Requirement) bool {
	state := guard.SessionState{
		Restored: a.sessions.Restored(),
		Session:  a.sessions.Current(),
	}
	switch guard.Decide(state, req) {
	case guard.Render:
		return true
	case guard.CheckingSession:
		fmt.Println("Checking session...")
	case guard.RedirectLogin:
		fmt.Println("Sign in required. Redirecting to login.")
	case guard.RedirectBlocked:
		fmt.Println("Your account has been blocked.")
	case guard.RedirectHome:
		fmt.Println("Administrator access required. Redirecting to home.")
	case guard.RedirectAdminHome:
		fmt.Println("Admin accounts use the admin console. Redirecting.")
	}
	return false
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	switch args[0] {
	case "login":
		return a.cmdLogin(ctx, args[1:])
	case "register":
		return a.cmdRegister(ctx, args[1:])
	case "logout":
		a.auth.Logout(ctx)
		fmt.Println("Signed out.")
		return nil
	case "whoami":
		return a.cmdWhoami()
	case "products":
		return a.cmdProducts(ctx, args[1:])
	case "product":
		return a.cmdProduct(ctx, args[1:])
	case "cart":
		return a.cmdCart(ctx, args[1:])
	case "wishlist":
		return a.cmdWishlist(ctx, args[1:])
	case "orders":
		return a.cmdOrders(ctx)
	case "checkout":
		return a.cmdCheckout(ctx, args[1:])
	case "admin":
		return a.cmdAdmin(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: shopctl login <email> <password>")
	}
	sess, err := a.auth.Login(ctx, auth.LoginInput{Email: args[0], Password: args[1]})
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s (%s).\n", sess.Name, sess.Role)
	return nil
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errors.New("usage: shopctl register <name> <email> <password>")
	}
	sess, err := a.auth.Register(ctx, auth.RegisterInput{Name: args[0], Email: args[1], Password: args[2]})
	if err != nil {
		return err
	}
	fmt.Printf("Welcome, %s! You are signed in.\n", sess.Name)
	return nil
}

func (a *app) cmdWhoami() error {
	sess := a.sessions.Current()
	if sess == nil {
		fmt.Println("Browsing as guest.")
		return nil
	}
	fmt.Printf("%s <%s> role=%s\n", sess.Name, sess.Email, sess.Role)
	return nil
}

func (a *app) cmdProducts(ctx context.Context, args []string) error {
	if !a.navigate(guard.AnonymousOK) {
		return nil
	}
	filter := store.ProductFilter{}
	if len(args) > 0 {
		filter.Search = args[0]
	}
	page, err := a.catalog.Search(ctx, filter)
	if err != nil {
		return err
	}
	fmt.Printf("%d products (%d pages)\n", page.Count, page.TotalPages)
	for _, p := range page.Results {
		stock := "in stock"
		if !p.InStock() {
			stock = "out of stock"
		}
		fmt.Printf("  #%-6d %-40s %12s  %s\n", p.ID, p.Name, a.money(p.Price), stock)
	}
	return nil
}

func (a *app) cmdProduct(ctx context.Context, args []string) error {
	if !a.navigate(guard.AnonymousOK) {
		return nil
	}
	if len(args) != 1 {
		return errors.New("usage: shopctl product <id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid product id %q", args[0])
	}
	p, err := a.catalog.Get(ctx, id)
	if err != nil {
		if api.IsNotFound(err) {
			fmt.Println("Product not found.")
			return nil
		}
		return err
	}
	fmt.Printf("#%d %s\n%s\nPrice: %s  Stock: %d  Sizes: %v\n", p.ID, p.Name, p.Description, a.money(p.Price), p.Stock, p.Sizes)
	return nil
}

func (a *app) cmdCart(ctx context.Context, args []string) error {
	if !a.navigate(guard.AnonymousOK) {
		return nil
	}
	if a.sessions.Current() == nil {
		return a.cmdGuestCart(args)
	}

	if len(args) == 0 {
		if err := a.cart.Load(ctx); err != nil {
			return err
		}
		lines := a.cart.Lines()
		if len(lines) == 0 {
			fmt.Println("Your cart is empty.")
			return nil
		}
		for _, l := range lines {
			fmt.Printf("  line %-5d %-30s size=%-4s qty=%-3d %s\n",
				l.ID, l.ProductName, l.Size, l.Quantity, a.money(l.LineTotal()))
		}
		fmt.Printf("Subtotal: %s\n", a.money(a.cart.Subtotal()))
		return nil
	}

	switch args[0] {
	case "add":
		if len(args) != 4 {
			return errors.New("usage: shopctl cart add <product-id> <size> <quantity>")
		}
		productID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[1])
		}
		qty, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[3])
		}
		if err := a.cart.Add(ctx, shop.AddToCartInput{ProductID: productID, Size: args[2], Quantity: qty}); err != nil {
			return err
		}
		fmt.Println("Added to cart.")
		return nil
	case "update":
		if len(args) != 3 {
			return errors.New("usage: shopctl cart update <line-id> <quantity>")
		}
		lineID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid line id %q", args[1])
		}
		qty, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[2])
		}
		if err := a.cart.UpdateQuantity(ctx, lineID, qty); err != nil {
			return err
		}
		fmt.Println("Cart updated.")
		return nil
	case "remove":
		if len(args) != 2 {
			return errors.New("usage: shopctl cart remove <line-id>")
		}
		lineID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid line id %q", args[1])
		}
		if err := a.cart.Remove(ctx, lineID); err != nil {
			return err
		}
		fmt.Println("Removed from cart.")
		return nil
	default:
		return fmt.Errorf("unknown cart command %q", args[0])
	}
}

// cmdGuestCart serves the anonymous cart view backed by local storage.
// Guests see their local cart, not a login redirect.
func (a *app) cmdGuestCart(args []string) error {
	if a.guest == nil {
		fmt.Println("Guest cart unavailable. Sign in to use your cart.")
		return nil
	}

	if len(args) == 0 {
		lines, err := a.guest.Lines()
		if err != nil {
			return err
		}
		fmt.Println("Guest cart (stored on this device; merges into your account on sign-in):")
		if len(lines) == 0 {
			fmt.Println("  empty")
			return nil
		}
		for _, l := range lines {
			fmt.Printf("  line %-5d product=%-8d size=%-4s qty=%d\n", l.ID, l.ProductID, l.Size, l.Quantity)
		}
		return nil
	}

	switch args[0] {
	case "add":
		if len(args) != 4 {
			return errors.New("usage: shopctl cart add <product-id> <size> <quantity>")
		}
		productID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[1])
		}
		qty, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[3])
		}
		if err := a.guest.AddLine(productID, args[2], qty); err != nil {
			return err
		}
		fmt.Println("Added to guest cart.")
		return nil
	case "update":
		if len(args) != 3 {
			return errors.New("usage: shopctl cart update <line-id> <quantity>")
		}
		lineID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid line id %q", args[1])
		}
		qty, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[2])
		}
		if err := a.guest.UpdateLine(lineID, qty); err != nil {
			return err
		}
		fmt.Println("Guest cart updated.")
		return nil
	case "remove":
		if len(args) != 2 {
			return errors.New("usage: shopctl cart remove <line-id>")
		}
		lineID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid line id %q", args[1])
		}
		if err := a.guest.RemoveLine(lineID); err != nil {
			return err
		}
		fmt.Println("Removed from guest cart.")
		return nil
	default:
		return fmt.Errorf("unknown cart command %q", args[0])
	}
}

func (a *app) cmdWishlist(ctx context.Context, args []string) error {
	if !a.navigate(guard.AnonymousOK) {
		return nil
	}

	if a.sessions.Current() == nil {
		if a.guest == nil {
			fmt.Println("Sign in to use your wishlist.")
			return nil
		}
		if len(args) == 2 && args[0] == "toggle" {
			productID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid product id %q", args[1])
			}
			added, err := a.guest.ToggleWishlist(productID)
			if err != nil {
				return err
			}
			if added {
				fmt.Println("Added to guest wishlist.")
			} else {
				fmt.Println("Removed from guest wishlist.")
			}
			return nil
		}
		entries, err := a.guest.WishlistEntries()
		if err != nil {
			return err
		}
		fmt.Println("Guest wishlist (stored on this device):")
		for _, e := range entries {
			fmt.Printf("  product %d\n", e.ProductID)
		}
		return nil
	}

	if len(args) == 2 && args[0] == "toggle" {
		productID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[1])
		}
		if err := a.wishlist.Load(ctx); err != nil {
			return err
		}
		added, err := a.wishlist.Toggle(ctx, productID)
		if err != nil {
			return err
		}
		if added {
			fmt.Println("Added to wishlist.")
		} else {
			fmt.Println("Removed from wishlist.")
		}
		return nil
	}

	if err := a.wishlist.Load(ctx); err != nil {
		return err
	}
	entries := a.wishlist.Entries()
	if len(entries) == 0 {
		fmt.Println("Your wishlist is empty.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("  product %-8d %s\n", e.ProductID, e.ProductName)
	}
	return nil
}

func (a *app) cmdOrders(ctx context.Context) error {
	if !a.navigate(guard.UserOnly) {
		return nil
	}
	if err := a.orders.Load(ctx); err != nil {
		return err
	}
	orders := a.orders.List()
	if len(orders) == 0 {
		fmt.Println("No orders yet.")
		return nil
	}
	for _, o := range orders {
		fmt.Printf("  order %-6d %-12s %12s  %s\n",
			o.ID, o.Status.DisplayName(), a.money(o.TotalAmount), o.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func (a *app) cmdCheckout(ctx context.Context, args []string) error {
	if !a.navigate(guard.UserOnly) {
		return nil
	}
	if len(args) != 2 {
		return errors.New("usage: shopctl checkout <address> <cod|card>")
	}
	order, err := a.orders.Checkout(ctx, shop.CheckoutInput{Address: args[0], PaymentMethod: args[1]})
	if err != nil {
		return err
	}
	fmt.Printf("Order %d placed: %s, total %s.\n", order.ID, order.Status.DisplayName(), a.money(order.TotalAmount))
	return nil
}

func (a *app) cmdAdmin(ctx context.Context, args []string) error {
	if !a.navigate(guard.AdminOnly) {
		return nil
	}
	if len(args) == 0 {
		return errors.New("usage: shopctl admin <dashboard|users|block|unblock|orders|set-status>")
	}

	switch args[0] {
	case "dashboard":
		stats, err := a.admin.Dashboard(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Orders: %d (%d pending)\nCustomers: %d\nProducts: %d\nRevenue: %s\n",
			stats.TotalOrders, stats.PendingOrders, stats.TotalCustomers,
			stats.TotalProducts, a.money(stats.TotalRevenue))
		return nil
	case "users":
		search := ""
		if len(args) > 1 {
			search = args[1]
		}
		page, err := a.admin.Customers(ctx, 1, search)
		if err != nil {
			return err
		}
		fmt.Printf("%d customers\n", page.Count)
		for _, c := range page.Results {
			state := ""
			if c.Blocked {
				state = " [blocked]"
			}
			fmt.Printf("  #%-6d %-25s %s%s\n", c.ID, c.Name, c.Email, state)
		}
		return nil
	case "block", "unblock":
		if len(args) != 2 {
			return fmt.Errorf("usage: shopctl admin %s <user-id>", args[0])
		}
		userID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[1])
		}
		if err := a.admin.SetCustomerBlocked(ctx, userID, args[0] == "block"); err != nil {
			return err
		}
		fmt.Printf("Customer %d %sed.\n", userID, args[0])
		return nil
	case "orders":
		filter := admin.OrderFilter{Page: 1}
		if len(args) > 1 {
			filter.Status = shop.OrderStatus(args[1])
		}
		page, err := a.admin.Orders(ctx, filter)
		if err != nil {
			return err
		}
		fmt.Printf("%d orders\n", page.Count)
		for _, o := range page.Results {
			fmt.Printf("  order %-6d %-12s %s\n", o.ID, o.Status.DisplayName(), a.money(o.TotalAmount))
		}
		return nil
	case "set-status":
		if len(args) != 3 {
			return errors.New("usage: shopctl admin set-status <order-id> <status>")
		}
		orderID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid order id %q", args[1])
		}
		order, err := a.admin.UpdateOrderStatus(ctx, orderID, shop.OrderStatus(args[2]))
		if err != nil {
			return err
		}
		fmt.Printf("Order %d is now %s.\n", order.ID, order.Status.DisplayName())
		return nil
	default:
		return fmt.Errorf("unknown admin command %q", args[0])
	}
}

// money renders a decimal amount in the configured display currency. The
// amount is formatted from its decimal form; no float round-trip.
func (a *app) money(amount decimal.Decimal) string {
	return a.printer.Sprintf("%v%s", currency.Symbol(a.unit), amount.StringFixed(2))
}
