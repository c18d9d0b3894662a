// Package order 负责下单、状态流转、取消与查单，以及随之发生的库存扣减/回补。
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dryfruit_store/internal/inventory"
	"dryfruit_store/internal/model"
	"dryfruit_store/internal/queue"
	"dryfruit_store/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EventSink 接收订单事件（Redis Stream outbox）。
type EventSink interface {
	Append(ctx context.Context, ev queue.OrderEvent) error
}

type Options struct {
	Pricing Pricing
	Numbers *NumberGenerator
	// Events 为 nil 时不发事件
	Events EventSink
	// OnStockChange 库存变化后回调，用于让商品列表缓存失效
	OnStockChange func(ctx context.Context)
}

type Service struct {
	db   *gorm.DB
	opts Options
	now  func() time.Time
}

func NewService(db *gorm.DB, opts Options) *Service {
	if opts.Numbers == nil {
		opts.Numbers = NewNumberGenerator(nil)
	}
	return &Service{db: db, opts: opts, now: time.Now}
}

// Pricing 返回当前计价规则（客户端展示用）。
func (s *Service) Pricing() Pricing { return s.opts.Pricing }

// Create 正式下单。
// 两阶段：先在事务内校验全部商品行（不存在/已下架/无此规格/库存不足），
// 全部通过后再逐行条件扣减；任何一行扣减失败整个事务回滚，不会留下部分扣减。
func (s *Service) Create(ctx context.Context, req CreateRequest, actor Actor) (*model.Order, error) {
	if err := req.validate(true); err != nil {
		return nil, err
	}
	inputs := mergeItems(req.Items)

	now := s.now()
	o := &model.Order{
		UserID:          actor.UserID,
		Status:          model.OrderStatusPending,
		ShippingAddress: req.ShippingAddress.toModel(),
		Payment: model.Payment{
			Method:        req.PaymentMethod,
			Status:        model.PaymentStatusPending,
			TransactionID: strings.TrimSpace(req.PaymentDetails.TransactionID),
			UTRNumber:     strings.TrimSpace(req.PaymentDetails.UTRNumber),
		},
		OrderNote: strings.TrimSpace(req.OrderNote),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items, err := resolveItems(tx, inputs)
		if err != nil {
			return err
		}
		if err := reserve(tx, items); err != nil {
			return err
		}

		o.Items = items
		o.Pricing = s.opts.Pricing.Compute(Subtotal(items))
		o.OrderNumber = s.opts.Numbers.Next(ctx)
		o.StatusHistory = []model.OrderStatusHistory{{
			Status: model.OrderStatusPending,
			At:     now,
			Note:   "Order placed",
			Actor:  actor.String(),
		}}
		if err := tx.Create(o).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		if actor.UserID != "" {
			if err := tx.Where("user_id = ?", actor.UserID).Delete(&model.Cart{}).Error; err != nil {
				return fmt.Errorf("clear cart: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("order placed",
		zap.String("order_number", o.OrderNumber),
		zap.String("actor", actor.String()),
		zap.String("total", o.Pricing.Total.StringFixed(2)))
	s.stockChanged(ctx)
	s.emit(ctx, queue.EventOrderPlaced, o, "", actor)
	return o, nil
}

// SaveDraft 保存/覆盖草稿。草稿不占库存，无法识别的商品行也会原样记下。
func (s *Service) SaveDraft(ctx context.Context, req CreateRequest, actor Actor) (*model.Order, error) {
	if err := req.validate(false); err != nil {
		return nil, err
	}
	inputs := mergeItems(req.Items)
	method := req.PaymentMethod
	if !method.Valid() {
		method = model.PaymentPending
	}

	var out model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items, err := resolveDraftItems(tx, inputs)
		if err != nil {
			return err
		}

		if req.DraftID != 0 {
			if err := loadOrder(tx, req.DraftID, &out); err != nil {
				return err
			}
			if out.Status != model.OrderStatusDraft {
				return ErrNotDraft
			}
			if !canTouchDraft(actor, &out, req.ShippingAddress.Phone) {
				return ErrAccessDenied
			}
			if err := tx.Where("order_id = ?", out.ID).Delete(&model.OrderItem{}).Error; err != nil {
				return fmt.Errorf("clear draft items: %w", err)
			}
		} else {
			out = model.Order{
				UserID:      actor.UserID,
				Status:      model.OrderStatusDraft,
				OrderNumber: s.opts.Numbers.Next(ctx),
				StatusHistory: []model.OrderStatusHistory{{
					Status: model.OrderStatusDraft,
					At:     s.now(),
					Note:   "Draft saved",
					Actor:  actor.String(),
				}},
			}
		}

		out.ShippingAddress = req.ShippingAddress.toModel()
		out.Payment = model.Payment{
			Method:    method,
			Status:    model.PaymentStatusPending,
			UTRNumber: strings.TrimSpace(req.PaymentDetails.UTRNumber),
		}
		out.OrderNote = strings.TrimSpace(req.OrderNote)
		out.Pricing = s.opts.Pricing.Compute(Subtotal(items))

		if out.ID == 0 {
			out.Items = items
			if err := tx.Create(&out).Error; err != nil {
				return fmt.Errorf("create draft: %w", err)
			}
			return nil
		}

		if err := tx.Omit("Items", "StatusHistory").Save(&out).Error; err != nil {
			return fmt.Errorf("update draft: %w", err)
		}
		for i := range items {
			items[i].OrderID = out.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("save draft items: %w", err)
			}
		}
		out.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus 管理员修改订单状态，只允许 transitions 表里的流转。
func (s *Service) UpdateStatus(ctx context.Context, id uint, in StatusUpdate, actor Actor) (*model.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrAccessDenied
	}
	next, ok := model.ParseOrderStatus(strings.TrimSpace(in.Status))
	if !ok {
		return nil, ErrInvalidStatus
	}

	var o model.Order
	var from model.OrderStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadOrder(tx, id, &o); err != nil {
			return err
		}
		from = o.Status
		note := strings.TrimSpace(in.Note)
		if note == "" {
			note = fmt.Sprintf("Status updated to %s", next)
		}
		return s.transition(tx, &o, next, note, strings.TrimSpace(in.Tracking), actor)
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, &o, from, actor)
	return &o, nil
}

// Cancel 客户或管理员取消订单，仅 pending / confirmed 可取消。
func (s *Service) Cancel(ctx context.Context, id uint, actor Actor, reason string) (*model.Order, error) {
	var o model.Order
	var from model.OrderStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadOrder(tx, id, &o); err != nil {
			return err
		}
		if !actor.IsAdmin() && !actor.Owns(o.UserID) {
			return ErrAccessDenied
		}
		if !Cancellable(o.Status) {
			return ErrOrderNotCancellable
		}
		from = o.Status
		note := strings.TrimSpace(reason)
		if note == "" {
			note = "Cancelled by customer"
		}
		return s.transition(tx, &o, model.OrderStatusCancelled, note, "", actor)
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, &o, from, actor)
	return &o, nil
}

// transition 执行一次状态流转：CAS 更新状态 → 按需扣减/回补库存 → 追加历史。
// 必须在事务内调用；任何一步失败整个事务回滚。
func (s *Service) transition(tx *gorm.DB, o *model.Order, next model.OrderStatus, note, tracking string, actor Actor) error {
	from := o.Status
	if !CanTransition(from, next) {
		return ErrInvalidTransition.Withf("Cannot move order from %s to %s", from, next)
	}

	now := s.now()
	updates := map[string]any{"status": next}
	switch next {
	case model.OrderStatusShipped:
		updates["shipped_at"] = now
		o.ShippedAt = &now
	case model.OrderStatusDelivered:
		updates["delivered_at"] = now
		o.DeliveredAt = &now
	case model.OrderStatusCancelled:
		updates["cancelled_at"] = now
		updates["cancel_reason"] = note
		o.CancelledAt = &now
		o.CancelReason = note
	}
	if tracking != "" {
		updates["tracking_number"] = tracking
		o.TrackingNumber = tracking
	}

	// 草稿转正：此刻才真正下单，重新校验商品、扣库存并固化价格
	promote := from == model.OrderStatusDraft && next == model.OrderStatusPending
	var promoted []model.OrderItem
	if promote {
		if err := validateFinalAddress(o.ShippingAddress); err != nil {
			return err
		}
		items, err := resolveItems(tx, inputsFromItems(o.Items))
		if err != nil {
			return err
		}
		promoted = items
		o.Pricing = s.opts.Pricing.Compute(Subtotal(items))
		updates["subtotal"] = o.Pricing.Subtotal
		updates["discount"] = o.Pricing.Discount
		updates["shipping_charges"] = o.Pricing.ShippingCharges
		updates["tax"] = o.Pricing.Tax
		updates["total"] = o.Pricing.Total
	}

	// CAS：只有状态仍是读到的 from 才更新，防止两个并发请求都执行库存回补
	res := tx.Model(&model.Order{}).Where("id = ? AND status = ?", o.ID, from).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStatusChanged
	}

	if promote {
		if err := reserve(tx, promoted); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", o.ID).Delete(&model.OrderItem{}).Error; err != nil {
			return fmt.Errorf("replace draft items: %w", err)
		}
		for i := range promoted {
			promoted[i].OrderID = o.ID
		}
		if err := tx.Create(&promoted).Error; err != nil {
			return fmt.Errorf("replace draft items: %w", err)
		}
		o.Items = promoted
	}

	if next == model.OrderStatusCancelled && from.HoldsStock() {
		restored, err := inventory.Release(tx, linesOf(o.Items))
		if err != nil {
			return err
		}
		if restored < len(o.Items) {
			logger.Warn("some order lines could not be restocked",
				zap.String("order_number", o.OrderNumber),
				zap.Int("lines", len(o.Items)),
				zap.Int("restored", restored))
		}
	}

	h := model.OrderStatusHistory{
		OrderID: o.ID,
		Status:  next,
		At:      now,
		Note:    note,
		Actor:   actor.String(),
	}
	if err := tx.Create(&h).Error; err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	o.Status = next
	o.StatusHistory = append(o.StatusHistory, h)
	return nil
}

func (s *Service) afterTransition(ctx context.Context, o *model.Order, from model.OrderStatus, actor Actor) {
	logger.Info("order status changed",
		zap.String("order_number", o.OrderNumber),
		zap.String("from", string(from)),
		zap.String("to", string(o.Status)),
		zap.String("actor", actor.String()))

	switch {
	case from == model.OrderStatusDraft && o.Status == model.OrderStatusPending:
		s.stockChanged(ctx)
		s.emit(ctx, queue.EventOrderPlaced, o, from, actor)
	case o.Status == model.OrderStatusCancelled:
		if from.HoldsStock() {
			s.stockChanged(ctx)
		}
		s.emit(ctx, queue.EventOrderCancelled, o, from, actor)
	default:
		s.emit(ctx, queue.EventOrderStatusChanged, o, from, actor)
	}
}

// Get 订单详情，仅本人或管理员可见。
func (s *Service) Get(ctx context.Context, id uint, actor Actor) (*model.Order, error) {
	var o model.Order
	if err := loadOrder(s.db.WithContext(ctx), id, &o); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(o.UserID) {
		return nil, ErrAccessDenied
	}
	return &o, nil
}

// ListMine 当前登录用户的订单（不含草稿），新的在前。
func (s *Service) ListMine(ctx context.Context, actor Actor) ([]model.Order, error) {
	if actor.UserID == "" {
		return nil, ErrAccessDenied
	}
	var list []model.Order
	err := withDetails(s.db.WithContext(ctx)).
		Where("user_id = ? AND status <> ?", actor.UserID, model.OrderStatusDraft).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// List 管理后台订单分页。
func (s *Service) List(ctx context.Context, f ListFilter) ([]model.Order, int64, error) {
	f, err := f.normalize()
	if err != nil {
		return nil, 0, err
	}
	q := s.db.WithContext(ctx).Model(&model.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Order
	err = withDetails(q).
		Order("created_at DESC").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&list).Error
	return list, total, err
}

// TrackByPhone 公开查单：按手机号的若干种写法精确匹配，草稿不返回。
func (s *Service) TrackByPhone(ctx context.Context, phone string) ([]model.Order, error) {
	variants, err := PhoneVariants(phone)
	if err != nil {
		return nil, err
	}
	var list []model.Order
	err = withDetails(s.db.WithContext(ctx)).
		Where("shipping_phone IN ? AND status <> ?", variants, model.OrderStatusDraft).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (s *Service) stockChanged(ctx context.Context) {
	if s.opts.OnStockChange != nil {
		s.opts.OnStockChange(ctx)
	}
}

func (s *Service) emit(ctx context.Context, typ queue.EventType, o *model.Order, prev model.OrderStatus, actor Actor) {
	if s.opts.Events == nil {
		return
	}
	ev := queue.OrderEvent{
		ID:          uuid.NewString(),
		Type:        typ,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      string(o.Status),
		PrevStatus:  string(prev),
		Total:       o.Pricing.Total,
		Items:       len(o.Items),
		Actor:       actor.String(),
		At:          s.now(),
	}
	// 订单已提交，事件写入失败只记日志，由对账补偿
	if err := s.opts.Events.Append(ctx, ev); err != nil {
		logger.Warn("append order event",
			zap.String("type", string(typ)),
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
	}
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Items").Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

func loadOrder(db *gorm.DB, id uint, o *model.Order) error {
	err := withDetails(db).First(o, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("load order %d: %w", id, err)
	}
	return nil
}

// resolveItems 按请求顺序逐行校验并生成价格快照，不做任何写操作。
func resolveItems(tx *gorm.DB, inputs []ItemInput) ([]model.OrderItem, error) {
	if len(inputs) == 0 {
		return nil, ErrNoItems
	}
	out := make([]model.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		var p model.Product
		err := tx.Preload("Sizes").First(&p, in.ProductID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound.Withf("Product not found: #%d", in.ProductID)
		}
		if err != nil {
			return nil, fmt.Errorf("load product %d: %w", in.ProductID, err)
		}
		if !p.IsActive {
			return nil, ErrProductInactive.Withf("%s is no longer available", p.Name)
		}
		size := p.SizeByLabel(in.Size)
		if size == nil {
			return nil, ErrSizeUnavailable.Withf("%s is not available in %s", p.Name, in.Size)
		}
		if size.Stock < in.Quantity {
			return nil, ErrInsufficientStock.Withf("Insufficient stock for %s (%s): only %d left", p.Name, size.Label, size.Stock)
		}
		out = append(out, model.OrderItem{
			ProductID:         p.ID,
			SizeID:            size.ID,
			ProductName:       p.Name,
			Size:              size.Label,
			Quantity:          in.Quantity,
			UnitPrice:         size.Price,
			UnitOriginalPrice: size.OriginalPrice,
		})
	}
	return out, nil
}

// resolveDraftItems 宽松版本：识别不了的行记为 unknown、单价 0，不看库存。
func resolveDraftItems(tx *gorm.DB, inputs []ItemInput) ([]model.OrderItem, error) {
	out := make([]model.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		item := model.OrderItem{ProductID: in.ProductID, ProductName: "unknown", Size: in.Size, Quantity: in.Quantity}
		var p model.Product
		err := tx.Preload("Sizes").First(&p, in.ProductID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return nil, fmt.Errorf("load product %d: %w", in.ProductID, err)
		default:
			item.ProductName = p.Name
			if size := p.SizeByLabel(in.Size); size != nil && p.IsActive {
				item.SizeID = size.ID
				item.UnitPrice = size.Price
				item.UnitOriginalPrice = size.OriginalPrice
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// reserve 条件扣减，把库存层的 ShortfallError 翻译成业务错误。
func reserve(tx *gorm.DB, items []model.OrderItem) error {
	err := inventory.Reserve(tx, linesOf(items))
	var short *inventory.ShortfallError
	if errors.As(err, &short) {
		for _, it := range items {
			if it.SizeID == short.Line.SizeID {
				return ErrInsufficientStock.Withf("Insufficient stock for %s (%s)", it.ProductName, it.Size)
			}
		}
		return ErrInsufficientStock
	}
	return err
}

func linesOf(items []model.OrderItem) []inventory.Line {
	lines := make([]inventory.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, inventory.Line{ProductID: it.ProductID, SizeID: it.SizeID, Quantity: it.Quantity})
	}
	return lines
}

func inputsFromItems(items []model.OrderItem) []ItemInput {
	in := make([]ItemInput, 0, len(items))
	for _, it := range items {
		in = append(in, ItemInput{ProductID: it.ProductID, Size: it.Size, Quantity: it.Quantity})
	}
	return mergeItems(in)
}

func validateFinalAddress(a model.Address) error {
	req := CreateRequest{
		Items: []ItemInput{{ProductID: 1, Size: "-", Quantity: 1}},
		ShippingAddress: AddressInput{
			FullName: a.FullName, Phone: a.Phone, AddressLine1: a.AddressLine1,
			City: a.City, State: a.State, Pincode: a.Pincode,
		},
		PaymentMethod: model.PaymentPending,
	}
	return req.validate(true)
}

// canTouchDraft 登录用户只能改自己的草稿；游客草稿需要手机号一致。
func canTouchDraft(actor Actor, o *model.Order, phone string) bool {
	if actor.IsAdmin() {
		return true
	}
	if o.UserID != "" {
		return actor.Owns(o.UserID)
	}
	return samePhone(o.ShippingAddress.Phone, phone)
}

func samePhone(a, b string) bool {
	na, okA := NationalNumber(a)
	nb, okB := NationalNumber(b)
	if okA && okB {
		return na == nb
	}
	return DigitsOnly(a) == DigitsOnly(b)
}
