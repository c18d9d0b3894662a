// Package checkout 驱动 UPI 付款确认流程：选 App → 拉起深链 → 回到页面 → 倒计时 →
// 手动填写 UTR → 下单。
//
// 整个流程不向服务端确认第三方支付是否真的完成，是否到账完全依赖用户填写的 UTR，
// 由后台人工核对。
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"dryfruit_store/internal/model"
	"dryfruit_store/internal/order"
	"dryfruit_store/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type State int

const (
	Idle State = iota
	AppSelected
	AwaitingReturn
	Verifying
	AwaitingUTR
	CreatingOrder
	Done
	Cancelled
)

var stateNames = [...]string{"Idle", "AppSelected", "AwaitingReturn", "Verifying", "AwaitingUTR", "CreatingOrder", "Done", "Cancelled"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// Terminal Done / Cancelled 之后不再接受任何操作。
func (s State) Terminal() bool { return s == Done || s == Cancelled }

var (
	ErrNotAllowed = errors.New("checkout: action not allowed in current state")
	ErrUnknownApp = errors.New("checkout: unknown payment app")
	ErrInvalidUTR = order.ErrInvalidUTR
)

const (
	DefaultGracePeriod = 2 * time.Second
	DefaultCountdown   = 20
)

// Payee 收款方，来自 GET /api/payment-settings。
type Payee struct {
	VPA  string
	Name string
}

// Launcher 把深链交给系统/浏览器。拉起失败不可感知，返回的错误只记日志。
type Launcher interface {
	Launch(uri string) error
}

type LauncherFunc func(uri string) error

func (f LauncherFunc) Launch(uri string) error { return f(uri) }

// OrderCreator 调用下单接口。
type OrderCreator interface {
	CreateOrder(ctx context.Context, req order.CreateRequest) (*model.Order, error)
}

type Config struct {
	Payee  Payee
	Amount decimal.Decimal
	Memo   string
	// GracePeriod 拉起 App 后这段时间内的回到页面事件视为误触
	GracePeriod time.Duration
	// Countdown 回到页面后等待的秒数
	Countdown int
	// DirectOrder 立即购买：商品不来自购物车，快照写入 session
	DirectOrder bool
	Now         func() time.Time
}

type Deps struct {
	Creator  OrderCreator
	Launcher Launcher
	Session  Storage
	Cart     Storage
}

// Machine 付款确认状态机。非并发安全，并发场景使用 Driver。
type Machine struct {
	cfg  Config
	deps Deps
	req  order.CreateRequest

	state      State
	app        App
	sessionID  string
	launchedAt time.Time
	remaining  int
	utr        string
	failure    *Failure
	result     *model.Order
	history    []State
}

// New req 中的 PaymentMethod / PaymentDetails 会在提交 UTR 时被覆盖。
func New(req order.CreateRequest, cfg Config, deps Deps) (*Machine, error) {
	if deps.Creator == nil {
		return nil, errors.New("checkout: order creator is required")
	}
	if deps.Launcher == nil {
		deps.Launcher = LauncherFunc(func(string) error { return nil })
	}
	if deps.Session == nil {
		deps.Session = NewMemoryStore()
	}
	if deps.Cart == nil {
		deps.Cart = NewMemoryStore()
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	if cfg.Countdown <= 0 {
		cfg.Countdown = DefaultCountdown
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Machine{cfg: cfg, deps: deps, req: req, state: Idle, history: []State{Idle}}, nil
}

func (m *Machine) State() State { return m.state }

// History 经过的全部状态（含初始 Idle）。
func (m *Machine) History() []State { return append([]State(nil), m.history...) }

func (m *Machine) App() App { return m.app }

// SessionID 本次付款的关联号，作为深链里的 tr 和订单的 transaction_id。
func (m *Machine) SessionID() string { return m.sessionID }

// Remaining 倒计时剩余秒数，只在 Verifying 有意义。
func (m *Machine) Remaining() int { return m.remaining }

// UTR 最近一次提交的 UTR，下单失败后保留供重试。
func (m *Machine) UTR() string { return m.utr }

// Failure 最近一次下单失败的分类结果。
func (m *Machine) Failure() *Failure { return m.failure }

// Order 成功后创建的订单。
func (m *Machine) Order() *model.Order { return m.result }

// SelectApp 可以反复切换 App，直到点击付款。
func (m *Machine) SelectApp(key string) error {
	if m.state != Idle && m.state != AppSelected {
		return ErrNotAllowed
	}
	app, ok := LookupApp(key)
	if !ok {
		return ErrUnknownApp
	}
	m.app = app
	if m.sessionID == "" {
		m.sessionID = uuid.NewString()
		m.deps.Session.Set(KeyCurrentOrderID, m.sessionID)
	}
	if m.cfg.DirectOrder {
		if b, err := json.Marshal(m.req.Items); err == nil {
			m.deps.Session.Set(KeyDirectOrder, string(b))
		}
	}
	m.moveTo(AppSelected)
	return nil
}

// Pay 拼深链并拉起 App，返回深链。
func (m *Machine) Pay() (string, error) {
	if m.state != AppSelected {
		return "", ErrNotAllowed
	}
	uri := DeepLink(m.app, m.cfg.Payee, m.cfg.Amount, m.cfg.Memo, m.sessionID)
	if err := m.deps.Launcher.Launch(uri); err != nil {
		logger.Debug("launch payment app", zap.String("app", m.app.Key), zap.Error(err))
	}
	m.launchedAt = m.cfg.Now()
	m.deps.Session.Set(KeyPaymentInProgress, "true")
	m.moveTo(AwaitingReturn)
	return uri, nil
}

// Returned 页面重新可见/获得焦点。宽限期内的事件忽略，返回是否进入倒计时。
func (m *Machine) Returned(at time.Time) bool {
	if m.state != AwaitingReturn {
		return false
	}
	if at.Sub(m.launchedAt) < m.cfg.GracePeriod {
		return false
	}
	m.remaining = m.cfg.Countdown
	m.moveTo(Verifying)
	return true
}

// Tick 倒计时走一秒，归零后进入 AwaitingUTR。
func (m *Machine) Tick() State {
	if m.state != Verifying {
		return m.state
	}
	m.remaining--
	if m.remaining <= 0 {
		m.remaining = 0
		m.moveTo(AwaitingUTR)
	}
	return m.state
}

// Skip 跳过倒计时直接填写 UTR。
func (m *Machine) Skip() error {
	if m.state != Verifying && m.state != AwaitingReturn {
		return ErrNotAllowed
	}
	m.remaining = 0
	m.moveTo(AwaitingUTR)
	return nil
}

// SubmitUTR 校验 UTR 后下单。UTR 不合法时状态保持 AwaitingUTR，不发请求；
// 下单失败回到 AwaitingUTR，保留已填写的 UTR。
func (m *Machine) SubmitUTR(ctx context.Context, utr string) (*model.Order, error) {
	switch m.state {
	case AwaitingReturn, Verifying:
		m.remaining = 0
		m.moveTo(AwaitingUTR)
	case AwaitingUTR:
	default:
		return nil, ErrNotAllowed
	}

	utr = strings.TrimSpace(utr)
	if err := order.ValidateUTR(utr); err != nil {
		return nil, ErrInvalidUTR
	}
	m.utr = utr
	m.failure = nil
	m.deps.Session.Set(KeyPaymentUTR, utr)
	m.moveTo(CreatingOrder)

	req := m.req
	req.PaymentMethod = m.app.Method
	req.PaymentDetails = order.PaymentDetails{
		UTRNumber:     utr,
		TransactionID: m.sessionID,
		UPIApp:        m.app.Key,
	}
	o, err := m.deps.Creator.CreateOrder(ctx, req)
	if err != nil {
		m.failure = Classify(err)
		m.moveTo(AwaitingUTR)
		logger.Warn("checkout create order failed",
			zap.String("session", m.sessionID),
			zap.String("kind", string(m.failure.Kind)),
			zap.Error(err))
		return nil, m.failure
	}

	m.result = o
	m.clear()
	m.moveTo(Done)
	return o, nil
}

// Cancel 放弃付款：清空 session 与购物车，不创建订单。
func (m *Machine) Cancel() error {
	if m.state.Terminal() || m.state == CreatingOrder {
		return ErrNotAllowed
	}
	m.clear()
	m.moveTo(Cancelled)
	return nil
}

func (m *Machine) clear() {
	for _, k := range sessionKeys {
		m.deps.Session.Delete(k)
	}
	m.deps.Cart.Delete(KeyCart)
}

func (m *Machine) moveTo(s State) {
	if m.state == s {
		return
	}
	m.state = s
	m.history = append(m.history, s)
}
