// Package payment charges customers at checkout.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	ErrInvalidAmount     = errors.New("invalid payment amount")
	ErrUnknownCharge     = errors.New("unknown charge")
)

type Method string

const (
	MethodCreditCard Method = "credit_card"
	MethodPayPal     Method = "paypal"
)

// ParseMethod accepts "Credit Card", "credit_card", "PayPal" and similar spellings.
func ParseMethod(s string) (Method, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch Method(norm) {
	case MethodCreditCard, "card":
		return MethodCreditCard, nil
	case MethodPayPal, "pay_pal":
		return MethodPayPal, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, s)
}

type Receipt struct {
	ChargeID uuid.UUID
	Amount   decimal.Decimal
	Method   Method
}

// Processor charges and refunds. Implementations may block on the network and
// must honour ctx.
type Processor interface {
	Charge(ctx context.Context, amount decimal.Decimal, method Method) (*Receipt, error)
	Refund(ctx context.Context, receipt *Receipt) error
}

// MockProcessor accepts every valid charge and keeps them in memory.
type MockProcessor struct {
	mu      sync.Mutex
	charges map[uuid.UUID]Receipt
	refunds map[uuid.UUID]bool
}

func NewMockProcessor() *MockProcessor {
	return &MockProcessor{
		charges: make(map[uuid.UUID]Receipt),
		refunds: make(map[uuid.UUID]bool),
	}
}

func (p *MockProcessor) Charge(ctx context.Context, amount decimal.Decimal, method Method) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	r := Receipt{ChargeID: uuid.New(), Amount: amount, Method: method}
	p.mu.Lock()
	p.charges[r.ChargeID] = r
	p.mu.Unlock()
	return &r, nil
}

func (p *MockProcessor) Refund(ctx context.Context, receipt *Receipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.charges[receipt.ChargeID]; !ok {
		return ErrUnknownCharge
	}
	p.refunds[receipt.ChargeID] = true
	return nil
}

// Charged reports how many charges were taken and how many were refunded.
func (p *MockProcessor) Charged() (charges, refunds int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.charges), len(p.refunds)
}
