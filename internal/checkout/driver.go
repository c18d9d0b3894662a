package checkout

import (
	"context"
	"sync"
	"time"

	"dryfruit_store/internal/model"
)

// Driver 给 Machine 加锁，并在 Verifying 期间用 ticker 驱动倒计时。
// 所有状态变化都会非阻塞地推送到 Changes()。
type Driver struct {
	mu       sync.Mutex
	m        *Machine
	interval time.Duration
	changes  chan State
	wg       sync.WaitGroup
}

func NewDriver(m *Machine, interval time.Duration) *Driver {
	if interval <= 0 {
		interval = time.Second
	}
	return &Driver{m: m, interval: interval, changes: make(chan State, 32)}
}

func (d *Driver) Changes() <-chan State { return d.changes }

func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.m.State()
}

func (d *Driver) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.m.Remaining()
}

// UTR 最近一次提交的 UTR，下单失败后仍保留。
func (d *Driver) UTR() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.m.UTR()
}

func (d *Driver) SelectApp(key string) error {
	return d.do(func(m *Machine) error { return m.SelectApp(key) })
}

func (d *Driver) Pay() (string, error) {
	var uri string
	err := d.do(func(m *Machine) error {
		var err error
		uri, err = m.Pay()
		return err
	})
	return uri, err
}

// Returned 进入 Verifying 时启动倒计时 goroutine，ctx 取消即停止。
func (d *Driver) Returned(ctx context.Context, at time.Time) bool {
	var started bool
	_ = d.do(func(m *Machine) error {
		started = m.Returned(at)
		return nil
	})
	if started {
		d.wg.Add(1)
		go d.countdown(ctx)
	}
	return started
}

func (d *Driver) Skip() error {
	return d.do(func(m *Machine) error { return m.Skip() })
}

func (d *Driver) SubmitUTR(ctx context.Context, utr string) (*model.Order, error) {
	var o *model.Order
	err := d.do(func(m *Machine) error {
		var err error
		o, err = m.SubmitUTR(ctx, utr)
		return err
	})
	return o, err
}

func (d *Driver) Cancel() error {
	return d.do(func(m *Machine) error { return m.Cancel() })
}

// Wait 等待倒计时 goroutine 退出。
func (d *Driver) Wait() { d.wg.Wait() }

func (d *Driver) countdown(ctx context.Context) {
	defer d.wg.Done()
	t := time.NewTicker(d.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			var st State
			_ = d.do(func(m *Machine) error {
				st = m.Tick()
				return nil
			})
			if st != Verifying {
				return
			}
		}
	}
}

func (d *Driver) do(fn func(m *Machine) error) error {
	d.mu.Lock()
	before := d.m.State()
	err := fn(d.m)
	after := d.m.State()
	remaining := d.m.Remaining()
	d.mu.Unlock()

	if after != before || after == Verifying && remaining > 0 {
		d.notify(after)
	}
	return err
}

func (d *Driver) notify(s State) {
	select {
	case d.changes <- s:
	default:
	}
}
