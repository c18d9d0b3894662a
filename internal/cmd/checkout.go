package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"dryfruit_store/internal/checkout"
	"dryfruit_store/internal/model"
	"dryfruit_store/internal/order"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var coOpts struct {
	api       string
	token     string
	productID uint
	size      string
	qty       int
	app       string
	address   order.AddressInput
	note      string
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Buy one item through the UPI payment confirmation flow",
	Long: `Drives the payment confirmation flow against a running API:
print the UPI deep link, press Enter once you are back from the payment app,
wait for the countdown (or type s to skip), then enter the UTR.
Type c at any prompt to cancel.`,
	RunE: runCheckout,
}

func init() {
	f := checkoutCmd.Flags()
	f.StringVar(&coOpts.api, "api", "http://localhost:8080", "API base url")
	f.StringVar(&coOpts.token, "token", "", "bearer token (optional, guest checkout otherwise)")
	f.UintVar(&coOpts.productID, "product", 1, "product id")
	f.StringVar(&coOpts.size, "size", "200g", "size label")
	f.IntVar(&coOpts.qty, "qty", 1, "quantity")
	f.StringVar(&coOpts.app, "app", "paytm", "UPI app: phonepe, gpay, paytm, bhim, other")
	f.StringVar(&coOpts.address.FullName, "name", "", "recipient name")
	f.StringVar(&coOpts.address.Phone, "phone", "", "recipient phone (10 digits)")
	f.StringVar(&coOpts.address.AddressLine1, "address", "", "address line 1")
	f.StringVar(&coOpts.address.City, "city", "", "city")
	f.StringVar(&coOpts.address.State, "state", "", "state")
	f.StringVar(&coOpts.address.Pincode, "pincode", "", "6 digit pincode")
	f.StringVar(&coOpts.note, "note", "", "order note")
	_ = checkoutCmd.MarkFlagRequired("phone")
	rootCmd.AddCommand(checkoutCmd)
}

func runCheckout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client := checkout.NewAPIClient(coOpts.api, coOpts.token)

	settings, err := client.PaymentSettings(ctx)
	if err != nil {
		return fmt.Errorf("load payment settings: %w", err)
	}
	p, err := client.Product(ctx, coOpts.productID)
	if err != nil {
		return fmt.Errorf("load product: %w", err)
	}
	size := p.SizeByLabel(coOpts.size)
	if size == nil {
		return fmt.Errorf("%s is not available in %s", p.Name, coOpts.size)
	}
	amount := settings.Pricing.Compute(size.Price.Mul(decimal.NewFromInt(int64(coOpts.qty)))).Total

	req := order.CreateRequest{
		Items:           []order.ItemInput{{ProductID: p.ID, Size: size.Label, Quantity: coOpts.qty}},
		ShippingAddress: coOpts.address,
		OrderNote:       coOpts.note,
	}
	m, err := checkout.New(req, checkout.Config{
		Payee:       checkout.Payee{VPA: settings.UPIID, Name: settings.PayeeName},
		Amount:      amount,
		Memo:        fmt.Sprintf("%s %s x%d", p.Name, size.Label, coOpts.qty),
		DirectOrder: true,
	}, checkout.Deps{Creator: client})
	if err != nil {
		return err
	}
	d := checkout.NewDriver(m, time.Second)

	if err := d.SelectApp(coOpts.app); err != nil {
		return err
	}
	uri, err := d.Pay()
	if err != nil {
		return err
	}
	fmt.Printf("Pay Rs %s with %s:\n  %s\n", amount.StringFixed(2), m.App().Name, uri)
	fmt.Println("Press Enter when you are back from the payment app.")

	lines := readLines()
	o, err := driveCheckout(ctx, d, lines)
	if err != nil {
		return err
	}
	if o == nil {
		fmt.Println("Payment cancelled, no order was placed.")
		return nil
	}
	fmt.Printf("Order %s placed, total Rs %s. We will verify your UTR shortly.\n",
		o.OrderNumber, o.Pricing.Total.StringFixed(2))
	return nil
}

// driveCheckout 返回 nil 订单表示用户取消。
func driveCheckout(ctx context.Context, d *checkout.Driver, lines <-chan string) (*model.Order, error) {
	for d.State() == checkout.AwaitingReturn {
		line, ok := <-lines
		if !ok {
			return nil, errors.New("stdin closed")
		}
		switch strings.TrimSpace(line) {
		case "c":
			return nil, d.Cancel()
		default:
			if !d.Returned(ctx, time.Now()) {
				fmt.Println("Give the payment app a moment, then press Enter again.")
			}
		}
	}

	if d.State() == checkout.Verifying {
		fmt.Printf("Checking for your payment, %d seconds... (s to skip, c to cancel)\n", d.Remaining())
	}
	for d.State() == checkout.Verifying {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case st := <-d.Changes():
			if st == checkout.Verifying && d.Remaining()%5 == 0 {
				fmt.Printf("  %ds\n", d.Remaining())
			}
		case line, ok := <-lines:
			if !ok {
				return nil, errors.New("stdin closed")
			}
			switch strings.TrimSpace(line) {
			case "c":
				return nil, d.Cancel()
			case "s":
				_ = d.Skip()
			}
		}
	}

	for {
		fmt.Print("Enter the UTR / reference number from your payment app: ")
		line, ok := <-lines
		if !ok {
			return nil, errors.New("stdin closed")
		}
		line = strings.TrimSpace(line)
		if line == "c" {
			return nil, d.Cancel()
		}
		if line == "" {
			line = d.UTR()
		}
		o, err := d.SubmitUTR(ctx, line)
		if err == nil {
			return o, nil
		}
		var f *checkout.Failure
		switch {
		case errors.Is(err, checkout.ErrInvalidUTR):
			fmt.Println("UTR must contain at least 10 digits.")
		case errors.As(err, &f):
			// UTR 保留在 session 里，改好购物车后可以原样重试
			fmt.Println(f.Message)
			fmt.Println("Press Enter to retry with the same UTR, enter a different UTR, or type c to cancel.")
		default:
			return nil, err
		}
	}
}

func readLines() <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}
