package order

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"dryfruit_store/internal/model"
	"dryfruit_store/internal/queue"
	"dryfruit_store/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingSink struct {
	mu     sync.Mutex
	events []queue.OrderEvent
}

func (r *recordingSink) Append(_ context.Context, ev queue.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingSink) types() []queue.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]queue.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	db           *gorm.DB
	svc          *Service
	sink         *recordingSink
	stockChanges atomic.Int32
	almonds      *model.Product
	cashews      *model.Product
	almond200    uint
	almond500    uint
	cashew200    uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	f := &fixture{db: db, sink: &recordingSink{}}
	f.svc = NewService(db, Options{
		Pricing: Pricing{
			FreeShippingThreshold: decimal.NewFromInt(500),
			ShippingFee:           decimal.NewFromInt(50),
			TaxPercent:            decimal.Zero,
		},
		Numbers:       NewNumberGenerator(rdb),
		Events:        f.sink,
		OnStockChange: func(context.Context) { f.stockChanges.Add(1) },
	})
	f.almonds = testutil.CreateProduct(t, db, "California Almonds",
		testutil.Size("200g", 300, 5), testutil.Size("500g", 700, 3))
	f.cashews = testutil.CreateProduct(t, db, "W240 Cashews", testutil.Size("200g", 320, 4))
	f.almond200 = f.almonds.SizeByLabel("200g").ID
	f.almond500 = f.almonds.SizeByLabel("500g").ID
	f.cashew200 = f.cashews.SizeByLabel("200g").ID
	return f
}

func address(phone string) AddressInput {
	return AddressInput{
		FullName:     "Asha Rao",
		Phone:        phone,
		AddressLine1: "12 MG Road",
		City:         "Pune",
		State:        "Maharashtra",
		Pincode:      "411001",
	}
}

func request(items ...ItemInput) CreateRequest {
	return CreateRequest{
		Items:           items,
		ShippingAddress: address("9876543210"),
		PaymentMethod:   model.PaymentCOD,
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

var customer = Actor{UserID: "u1"}
var admin = Actor{UserID: "a1", Role: RoleAdmin}

func TestCreate_ExampleCart(t *testing.T) {
	f := newFixture(t)

	o, err := f.svc.Create(context.Background(), request(
		ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 2},
	), customer)
	require.NoError(t, err)

	assert.Equal(t, 3, testutil.Stock(t, f.db, f.almond200))
	assertDecimal(t, "600", o.Pricing.Subtotal)
	assertDecimal(t, "0", o.Pricing.ShippingCharges)
	assertDecimal(t, "600", o.Pricing.Total)
	assert.Equal(t, model.OrderStatusPending, o.Status)
	assert.Regexp(t, `^DF\d{12}\d{4}$`, o.OrderNumber)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "California Almonds", o.Items[0].ProductName)
	assertDecimal(t, "300", o.Items[0].UnitPrice)
	require.Len(t, o.StatusHistory, 1)
	assert.Equal(t, "customer:u1", o.StatusHistory[0].Actor)
	assert.Equal(t, []queue.EventType{queue.EventOrderPlaced}, f.sink.types())
	assert.EqualValues(t, 1, f.stockChanges.Load())
}

func TestCreate_DecrementsEachSizeExactly(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), request(
		ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 1},
		ItemInput{ProductID: f.almonds.ID, Size: "500g", Quantity: 3},
		ItemInput{ProductID: f.cashews.ID, Size: "200g", Quantity: 2},
	), customer)
	require.NoError(t, err)

	assert.Equal(t, 4, testutil.Stock(t, f.db, f.almond200))
	assert.Equal(t, 0, testutil.Stock(t, f.db, f.almond500))
	assert.Equal(t, 2, testutil.Stock(t, f.db, f.cashew200))

	var p model.Product
	require.NoError(t, f.db.First(&p, f.almonds.ID).Error)
	assert.EqualValues(t, 4, p.SoldCount)
}

func TestCreate_ShortfallLeavesEveryStockUntouched(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), request(
		ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 2},
		ItemInput{ProductID: f.cashews.ID, Size: "200g", Quantity: 1},
		ItemInput{ProductID: f.almonds.ID, Size: "500g", Quantity: 4},
	), customer)
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Insufficient stock")

	assert.Equal(t, 5, testutil.Stock(t, f.db, f.almond200))
	assert.Equal(t, 3, testutil.Stock(t, f.db, f.almond500))
	assert.Equal(t, 4, testutil.Stock(t, f.db, f.cashew200))

	var n int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, f.sink.types())
}

func TestCreate_ProductChecks(t *testing.T) {
	f := newFixture(t)
	inactive := testutil.CreateProduct(t, f.db, "Old Figs", testutil.Size("250g", 200, 10))
	require.NoError(t, f.db.Model(inactive).Update("is_active", false).Error)

	cases := []struct {
		name string
		item ItemInput
		want error
	}{
		{"missing product", ItemInput{ProductID: 999, Size: "200g", Quantity: 1}, ErrProductNotFound},
		{"inactive product", ItemInput{ProductID: inactive.ID, Size: "250g", Quantity: 1}, ErrProductInactive},
		{"unknown size", ItemInput{ProductID: f.almonds.ID, Size: "1kg", Quantity: 1}, ErrSizeUnavailable},
		{"size label is exact", ItemInput{ProductID: f.almonds.ID, Size: "200G", Quantity: 1}, ErrSizeUnavailable},
		{"not enough stock", ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 6}, ErrInsufficientStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), request(tc.item), customer)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 5, testutil.Stock(t, f.db, f.almond200))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	item := ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 1}

	cases := []struct {
		name   string
		mutate func(r *CreateRequest)
		want   error
	}{
		{"no items", func(r *CreateRequest) { r.Items = nil }, ErrNoItems},
		{"zero quantity", func(r *CreateRequest) { r.Items[0].Quantity = 0 }, ErrInvalidQuantity},
		{"merged quantity over limit", func(r *CreateRequest) {
			r.Items = []ItemInput{{ProductID: item.ProductID, Size: "200g", Quantity: 700}, {ProductID: item.ProductID, Size: "200g", Quantity: 700}}
		}, ErrInvalidQuantity},
		{"bad payment method", func(r *CreateRequest) { r.PaymentMethod = "bitcoin" }, ErrInvalidPayment},
		{"short phone", func(r *CreateRequest) { r.ShippingAddress.Phone = "98765" }, ErrInvalidPhoneFormat},
		{"missing city", func(r *CreateRequest) { r.ShippingAddress.City = " " }, ErrMissingAddress},
		{"short utr", func(r *CreateRequest) {
			r.PaymentMethod = model.PaymentUPIPaytm
			r.PaymentDetails.UTRNumber = "12345"
		}, ErrInvalidUTR},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := request(item)
			tc.mutate(&req)
			_, err := f.svc.Create(context.Background(), req, customer)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 5, testutil.Stock(t, f.db, f.almond200))
}

func TestCreate_MergesDuplicateLines(t *testing.T) {
	f := newFixture(t)

	o, err := f.svc.Create(context.Background(), request(
		ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 2},
		ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 3},
	), customer)
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 5, o.Items[0].Quantity)
	assert.Equal(t, 0, testutil.Stock(t, f.db, f.almond200))
}

func TestCreate_ShippingFeeBelowThreshold(t *testing.T) {
	f := newFixture(t)

	o, err := f.svc.Create(context.Background(), request(
		ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 1},
	), customer)
	require.NoError(t, err)
	assertDecimal(t, "300", o.Pricing.Subtotal)
	assertDecimal(t, "50", o.Pricing.ShippingCharges)
	assertDecimal(t, "350", o.Pricing.Total)
}

func TestCreate_ClearsUserCart(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Create(&model.Cart{UserID: "u1", Items: []model.CartItem{{ProductID: f.almonds.ID, Size: "200g", Quantity: 1}}}).Error)
	require.NoError(t, f.db.Create(&model.Cart{UserID: "u2"}).Error)

	_, err := f.svc.Create(context.Background(), request(
		ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 1},
	), customer)
	require.NoError(t, err)

	var carts []model.Cart
	require.NoError(t, f.db.Find(&carts).Error)
	require.Len(t, carts, 1)
	assert.Equal(t, "u2", carts[0].UserID)
}

func TestCreate_ConcurrentOrdersNeverOversell(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, short := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), request(
				ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 1},
			), Actor{})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, ErrInsufficientStock) {
				short++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 15, short)
	assert.Equal(t, 0, testutil.Stock(t, f.db, f.almond200))
}

func TestCancel_RestoresStockAndAppendsHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.svc.Create(ctx, request(
		ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 2},
		ItemInput{ProductID: f.cashews.ID, Size: "200g", Quantity: 4},
	), customer)
	require.NoError(t, err)

	got, err := f.svc.Cancel(ctx, o.ID, customer, "changed my mind")
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusCancelled, got.Status)
	assert.Len(t, got.StatusHistory, len(o.StatusHistory)+1)
	assert.Equal(t, "changed my mind", got.CancelReason)
	assert.NotNil(t, got.CancelledAt)
	assert.Equal(t, 5, testutil.Stock(t, f.db, f.almond200))
	assert.Equal(t, 4, testutil.Stock(t, f.db, f.cashew200))

	var p model.Product
	require.NoError(t, f.db.First(&p, f.almonds.ID).Error)
	assert.Zero(t, p.SoldCount)

	reloaded, err := f.svc.Get(ctx, o.ID, customer)
	require.NoError(t, err)
	require.Len(t, reloaded.StatusHistory, 2)
	assert.Equal(t, model.OrderStatusCancelled, reloaded.StatusHistory[1].Status)

	f.sink.mu.Lock()
	last := f.sink.events[len(f.sink.events)-1]
	f.sink.mu.Unlock()
	assert.Equal(t, queue.EventOrderCancelled, last.Type)
	assert.Equal(t, string(model.OrderStatusPending), last.PrevStatus)
}

func TestCancel_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.svc.Create(ctx, request(ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 1}), customer)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, o.ID, Actor{UserID: "u2"}, "")
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = f.svc.Cancel(ctx, o.ID, Actor{}, "")
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = f.svc.Cancel(ctx, 999, customer, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = f.svc.Cancel(ctx, o.ID, customer, "")
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, o.ID, customer, "")
	assert.ErrorIs(t, err, ErrOrderNotCancellable)
	assert.Equal(t, 5, testutil.Stock(t, f.db, f.almond200), "stock is restored only once")
}

func TestCancel_AfterShippingIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.svc.Create(ctx, request(ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 1}), customer)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, o.ID, StatusUpdate{Status: "confirmed"}, admin)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, o.ID, StatusUpdate{Status: "shipped", Tracking: "AWB123"}, admin)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, o.ID, admin, "")
	assert.ErrorIs(t, err, ErrOrderNotCancellable)
	assert.Equal(t, 4, testutil.Stock(t, f.db, f.almond200))
}

func TestUpdateStatus_FollowsTransitionTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.svc.Create(ctx, request(ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 1}), customer)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, o.ID, StatusUpdate{Status: "confirmed"}, customer)
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = f.svc.UpdateStatus(ctx, o.ID, StatusUpdate{Status: "teleported"}, admin)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = f.svc.UpdateStatus(ctx, 999, StatusUpdate{Status: "confirmed"}, admin)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	_, err = f.svc.UpdateStatus(ctx, o.ID, StatusUpdate{Status: "delivered"}, admin)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := f.svc.UpdateStatus(ctx, o.ID, StatusUpdate{Status: "processing"}, admin)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, got.Status)

	got, err = f.svc.UpdateStatus(ctx, o.ID, StatusUpdate{Status: "shipped", Tracking: "AWB42"}, admin)
	require.NoError(t, err)
	assert.Equal(t, "AWB42", got.TrackingNumber)
	assert.NotNil(t, got.ShippedAt)

	got, err = f.svc.UpdateStatus(ctx, o.ID, StatusUpdate{Status: "delivered"}, admin)
	require.NoError(t, err)
	assert.NotNil(t, got.DeliveredAt)

	got, err = f.svc.UpdateStatus(ctx, o.ID, StatusUpdate{Status: "returned", Note: "damaged pouch"}, admin)
	require.NoError(t, err)
	assert.Equal(t, "damaged pouch", got.StatusHistory[len(got.StatusHistory)-1].Note)
	assert.Equal(t, "admin:a1", got.StatusHistory[len(got.StatusHistory)-1].Actor)

	_, err = f.svc.UpdateStatus(ctx, o.ID, StatusUpdate{Status: "pending"}, admin)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	reloaded, err := f.svc.Get(ctx, o.ID, admin)
	require.NoError(t, err)
	assert.Len(t, reloaded.StatusHistory, 5)
	// returned 不回补库存
	assert.Equal(t, 4, testutil.Stock(t, f.db, f.almond200))
}

func TestUpdateStatus_AdminCancelFromProcessingRestocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.svc.Create(ctx, request(ItemInput{ProductID: f.almonds.ID, Size: "500g", Quantity: 2}), customer)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, o.ID, StatusUpdate{Status: "processing"}, admin)
	require.NoError(t, err)

	got, err := f.svc.UpdateStatus(ctx, o.ID, StatusUpdate{Status: "cancelled", Note: "out of delivery area"}, admin)
	require.NoError(t, err)
	assert.Equal(t, "out of delivery area", got.CancelReason)
	assert.Equal(t, 3, testutil.Stock(t, f.db, f.almond500))
}

func TestTransition_StaleReadIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.svc.Create(ctx, request(ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 2}), customer)
	require.NoError(t, err)

	var stale model.Order
	require.NoError(t, loadOrder(f.db, o.ID, &stale))
	require.NoError(t, f.db.Model(&model.Order{}).Where("id = ?", o.ID).Update("status", model.OrderStatusConfirmed).Error)

	err = f.db.Transaction(func(tx *gorm.DB) error {
		return f.svc.transition(tx, &stale, model.OrderStatusCancelled, "race", "", System)
	})
	assert.ErrorIs(t, err, ErrStatusChanged)
	assert.Equal(t, 3, testutil.Stock(t, f.db, f.almond200))
}

func TestDraft_DoesNotReserveAndCanBePromoted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft, err := f.svc.SaveDraft(ctx, CreateRequest{
		Items:           []ItemInput{{ProductID: f.almonds.ID, Size: "200g", Quantity: 2}},
		ShippingAddress: AddressInput{Phone: "9876543210"},
	}, Actor{})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDraft, draft.Status)
	assert.Equal(t, model.PaymentPending, draft.Payment.Method)
	assert.Equal(t, 5, testutil.Stock(t, f.db, f.almond200))

	// 自动保存：覆盖同一张草稿
	req := request(
		ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 3},
		ItemInput{ProductID: 999, Size: "200g", Quantity: 1},
	)
	req.DraftID = draft.ID
	updated, err := f.svc.SaveDraft(ctx, req, Actor{})
	require.NoError(t, err)
	assert.Equal(t, draft.ID, updated.ID)
	require.Len(t, updated.Items, 2)
	assert.Equal(t, "unknown", updated.Items[1].ProductName)

	var items int64
	require.NoError(t, f.db.Model(&model.OrderItem{}).Where("order_id = ?", draft.ID).Count(&items).Error)
	assert.EqualValues(t, 2, items)

	// 无法识别的商品行不能转正
	_, err = f.svc.UpdateStatus(ctx, draft.ID, StatusUpdate{Status: "pending"}, admin)
	assert.ErrorIs(t, err, ErrProductNotFound)

	req.Items = req.Items[:1]
	_, err = f.svc.SaveDraft(ctx, req, Actor{})
	require.NoError(t, err)

	promoted, err := f.svc.UpdateStatus(ctx, draft.ID, StatusUpdate{Status: "pending"}, admin)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, promoted.Status)
	assertDecimal(t, "900", promoted.Pricing.Total)
	assert.True(t, promoted.Pricing.Balanced())
	assert.Equal(t, 2, testutil.Stock(t, f.db, f.almond200))
	assert.Contains(t, f.sink.types(), queue.EventOrderPlaced)
}

func TestDraft_OverwriteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft, err := f.svc.SaveDraft(ctx, CreateRequest{
		Items:           []ItemInput{{ProductID: f.almonds.ID, Size: "200g", Quantity: 1}},
		ShippingAddress: AddressInput{Phone: "9876543210"},
	}, Actor{})
	require.NoError(t, err)

	req := CreateRequest{
		Items:           []ItemInput{{ProductID: f.almonds.ID, Size: "200g", Quantity: 1}},
		ShippingAddress: AddressInput{Phone: "9123456789"},
		DraftID:         draft.ID,
	}
	_, err = f.svc.SaveDraft(ctx, req, Actor{})
	assert.ErrorIs(t, err, ErrAccessDenied)

	placed, err := f.svc.Create(ctx, request(ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 1}), Actor{})
	require.NoError(t, err)
	req.DraftID = placed.ID
	req.ShippingAddress.Phone = "9876543210"
	_, err = f.svc.SaveDraft(ctx, req, Actor{})
	assert.ErrorIs(t, err, ErrNotDraft)

	_, err = f.svc.SaveDraft(ctx, CreateRequest{Items: req.Items}, Actor{})
	assert.ErrorIs(t, err, ErrMissingAddress)
}

func TestTrackByPhone_MatchesVariantsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 1}

	for _, phone := range []string{"9876543210", "+919876543210", "91 9876543210", "9876543211"} {
		req := request(item)
		req.ShippingAddress.Phone = phone
		_, err := f.svc.Create(ctx, req, Actor{})
		require.NoError(t, err, phone)
	}
	_, err := f.svc.SaveDraft(ctx, CreateRequest{Items: []ItemInput{item}, ShippingAddress: AddressInput{Phone: "9876543210"}}, Actor{})
	require.NoError(t, err)

	list, err := f.svc.TrackByPhone(ctx, "98765 43210")
	require.NoError(t, err)
	require.Len(t, list, 3)
	for _, o := range list {
		assert.NotEqual(t, "9876543211", o.ShippingAddress.Phone)
		assert.NotEqual(t, model.OrderStatusDraft, o.Status)
	}
	assert.True(t, !list[0].CreatedAt.Before(list[2].CreatedAt), "newest first")

	_, err = f.svc.TrackByPhone(ctx, "+91 98765 43210")
	assert.ErrorIs(t, err, ErrInvalidPhoneFormat)
	_, err = f.svc.TrackByPhone(ctx, "12345")
	assert.ErrorIs(t, err, ErrInvalidPhoneFormat)
}

func TestTrackByPhone_FindsOrdersPlacedWithPunctuatedPhones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 1}

	for _, phone := range []string{"98765-43210", "(987) 654-3210", "+91 98765-43210"} {
		req := request(item)
		req.ShippingAddress.Phone = phone
		o, err := f.svc.Create(ctx, req, Actor{})
		require.NoError(t, err, phone)
		assert.Equal(t, "9876543210", o.ShippingAddress.Phone, phone)
	}

	list, err := f.svc.TrackByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := ItemInput{ProductID: f.almonds.ID, Size: "200g", Quantity: 1}

	mine, err := f.svc.Create(ctx, request(item), customer)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, request(item), Actor{UserID: "u2"})
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, mine.ID, customer, "")
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, mine.ID, Actor{UserID: "u2"})
	assert.ErrorIs(t, err, ErrAccessDenied)

	list, err := f.svc.ListMine(ctx, customer)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)
	_, err = f.svc.ListMine(ctx, Actor{})
	assert.ErrorIs(t, err, ErrAccessDenied)

	all, total, err := f.svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	cancelled, total, err := f.svc.List(ctx, ListFilter{Status: "cancelled", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, mine.ID, cancelled[0].ID)

	_, _, err = f.svc.List(ctx, ListFilter{Status: "lost"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestPersistedPricingBalances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.opts.Pricing.TaxPercent = decimal.RequireFromString("5")

	for _, qty := range []int{1, 1, 2} {
		_, err := f.svc.Create(ctx, request(ItemInput{ProductID: f.cashews.ID, Size: "200g", Quantity: qty}), customer)
		require.NoError(t, err)
	}
	_, err := f.svc.Create(ctx, request(ItemInput{ProductID: f.almonds.ID, Size: "500g", Quantity: 1}), customer)
	require.NoError(t, err)

	var orders []model.Order
	require.NoError(t, f.db.Order("id ASC").Find(&orders).Error)
	require.Len(t, orders, 4)
	for _, o := range orders {
		assert.True(t, o.Pricing.Balanced(), "order %s: %+v", o.OrderNumber, o.Pricing)
	}
	assertDecimal(t, "16", orders[0].Pricing.Tax)
	assertDecimal(t, "386", orders[0].Pricing.Total)
	assertDecimal(t, "672", orders[2].Pricing.Total)
	assertDecimal(t, "735", orders[3].Pricing.Total)
}
