package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

type productView struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Brand    string  `json:"brand"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
}

type orderView struct {
	ID     int64           `json:"id"`
	UserID int64           `json:"user_id"`
	Status string          `json:"status"`
	Total  float64         `json:"total"`
	Items  []orderLineView `json:"items"`
}

type orderLineView struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type userView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// --- products ---

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Look up catalog products",
}

var productsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		p, err := getProduct(cmd.Context(), client, id)
		if err != nil {
			return err
		}
		printProduct(p)
		return nil
	},
}

func getProduct(ctx context.Context, c *apiClient, id int64) (productView, error) {
	var p productView
	resp, err := c.get(ctx, fmt.Sprintf("/products/%d", id))
	if err != nil {
		return p, err
	}
	return p, decodeJSON(resp, &p)
}

func init() {
	productsCmd.AddCommand(productsShowCmd)
}

// --- orders ---

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Inspect orders and move them through fulfilment",
}

var ordersShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		var o orderView
		resp, err := client.get(cmd.Context(), fmt.Sprintf("/orders/%d", id))
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, &o); err != nil {
			return err
		}
		printOrder(o)
		return nil
	},
}

var ordersSetStatusCmd = &cobra.Command{
	Use:   "set-status <id> <status>",
	Short: "Move an order to a new status",
	Long: `Move an order to a new status.

Allowed transitions:
  pending    -> confirmed, cancelled
  confirmed  -> processing, cancelled
  processing -> shipped, cancelled
  shipped    -> delivered`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		o, err := setOrderStatus(cmd.Context(), client, id, args[1])
		if err != nil {
			return err
		}
		printSuccess("Order #%d is now %s", o.ID, o.Status)
		return nil
	},
}

func setOrderStatus(ctx context.Context, c *apiClient, id int64, status string) (orderView, error) {
	var o orderView
	resp, err := c.post(ctx, fmt.Sprintf("/orders/%d/status", id), map[string]string{"status": status})
	if err != nil {
		return o, err
	}
	return o, decodeJSON(resp, &o)
}

func init() {
	ordersCmd.AddCommand(ordersShowCmd)
	ordersCmd.AddCommand(ordersSetStatusCmd)
}

// --- users ---

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage shopper accounts",
}

var usersAddCmd = &cobra.Command{
	Use:   "add <name> <email>",
	Short: "Register a shopper",
	Long: `Register a shopper. The returned ID is what "shopbot chat --user" expects.

Examples:
  shopbot users add "Ada Lovelace" ada@example.com --password analytical-engine`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			return fmt.Errorf("--password is required")
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		u, err := addUser(cmd.Context(), client, args[0], args[1], password)
		if err != nil {
			return err
		}
		printSuccess("Registered %s <%s> as user %d", u.Name, u.Email, u.ID)
		return nil
	},
}

func addUser(ctx context.Context, c *apiClient, name, email, password string) (userView, error) {
	var u userView
	resp, err := c.post(ctx, "/users", map[string]string{"name": name, "email": email, "password": password})
	if err != nil {
		return u, err
	}
	return u, decodeJSON(resp, &u)
}

func init() {
	usersAddCmd.Flags().String("password", "", "initial password (at least 8 characters)")
	usersCmd.AddCommand(usersAddCmd)
}
