package pharmacy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clinicore/backend/internal/domain/billing"
	"github.com/clinicore/backend/internal/domain/inventory"
	"github.com/clinicore/backend/internal/domain/notification"
	"github.com/clinicore/backend/internal/domain/ordering"
	"github.com/clinicore/backend/internal/domain/patient"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/clinicore/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fulfillmentTimeout bounds the fulfillment transaction. A wedged
// transaction holds row versions hostage, so it is cut off rather than
// left to block the queue.
const fulfillmentTimeout = 20 * time.Second

// FulfillmentService dispenses pharmacy orders and walk-in sales. Every
// path runs the stock deduction, the invoice and the order update inside a
// single transaction; an insufficient-stock failure on any line rolls back
// the whole fulfillment.
type FulfillmentService struct {
	scope       TransactionScope
	patientRepo patient.PatientRepository
}

// NewFulfillmentService creates a new FulfillmentService
func NewFulfillmentService(scope TransactionScope, patientRepo patient.PatientRepository) *FulfillmentService {
	return &FulfillmentService{
		scope:       scope,
		patientRepo: patientRepo,
	}
}

// ProcessOrder fulfills a pharmacy order: deducts stock per line, raises
// the invoice and stamps the receipt onto the order. The invoice amount is
// the manual amount when one is given, otherwise the computed total over
// the dispensed lines with per-line price overrides applied.
func (s *FulfillmentService) ProcessOrder(ctx context.Context, clinicID, orderID uuid.UUID, req FulfillOrderRequest) (*FulfillmentResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, fulfillmentTimeout)
	defer cancel()

	ctx, span := telemetry.StartServiceSpan(ctx, "fulfillment", "process_order",
		telemetry.WithAttribute(telemetry.SpanAttrClinicID, clinicID),
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID),
	)
	defer span.End()

	var response *FulfillmentResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.OrderRepo().FindByIDForClinic(ctx, clinicID, orderID)
		if err != nil {
			return err
		}
		if order.Type != ordering.OrderTypePharmacy {
			return shared.NewDomainError("INVALID_ORDER_TYPE", "Only pharmacy orders can be dispensed")
		}
		if !order.IsVisibleToDepartment() {
			return shared.NewDomainError("PAYMENT_PENDING", "Order is awaiting payment and cannot be dispensed")
		}

		total := decimal.Zero
		dispensed := make([]string, 0, len(req.Items))
		for _, line := range req.Items {
			name, linePrice, err := s.deductLine(ctx, repos, clinicID, line.InventoryID, line.Quantity, line.PriceOverride)
			if err != nil {
				return err
			}
			total = total.Add(linePrice)
			dispensed = append(dispensed, fmt.Sprintf("%s x%d", name, line.Quantity))
		}

		amount := total
		if req.ManualAmount != nil && req.ManualAmount.IsPositive() {
			amount = *req.ManualAmount
		}

		// The invoice names what was actually dispensed; the prescription
		// text only stands in when nothing was matched to stock.
		service := strings.Join(dispensed, ", ")
		if service == "" {
			service = order.Result.PrescriptionSummary()
		}

		status := billing.InvoiceStatusPending
		if req.MarkPaid {
			status = billing.InvoiceStatusPaid
		}
		number := billing.NewInvoiceNumber(billing.OriginPharmacy)
		invoice, err := billing.NewInvoice(clinicID, number, order.PatientID, &order.DoctorID, "Pharmacy: "+service, amount, status)
		if err != nil {
			return err
		}
		if err := repos.InvoiceRepo().Save(ctx, invoice); err != nil {
			return err
		}

		receipt := ordering.FulfillmentReceipt{
			InvoiceNumber: number,
			Amount:        amount,
			Paid:          req.MarkPaid,
			Dispensed:     dispensed,
		}
		if err := order.Complete(receipt); err != nil {
			return err
		}
		if err := repos.OrderRepo().Save(ctx, order); err != nil {
			return err
		}

		response = &FulfillmentResponse{
			OrderID:       &order.ID,
			InvoiceNumber: number,
			Amount:        amount,
			Paid:          req.MarkPaid,
			Dispensed:     dispensed,
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceNumber, response.InvoiceNumber,
		telemetry.SpanAttrAmount, response.Amount.InexactFloat64(),
	)
	return response, nil
}

// DirectSale dispenses over the counter without a prior order. The invoice
// is raised Paid when the sale was settled at the desk, Pending otherwise.
func (s *FulfillmentService) DirectSale(ctx context.Context, clinicID uuid.UUID, req DirectSaleRequest) (*FulfillmentResponse, error) {
	exists, err := s.patientRepo.ExistsForClinic(ctx, clinicID, req.PatientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid patient selected")
	}

	ctx, cancel := context.WithTimeout(ctx, fulfillmentTimeout)
	defer cancel()

	ctx, span := telemetry.StartServiceSpan(ctx, "fulfillment", "direct_sale",
		telemetry.WithAttribute(telemetry.SpanAttrClinicID, clinicID),
		telemetry.WithAttribute(telemetry.SpanAttrPatientID, req.PatientID),
	)
	defer span.End()

	var response *FulfillmentResponse
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		total := decimal.Zero
		dispensed := make([]string, 0, len(req.Items))
		for _, line := range req.Items {
			name, linePrice, err := s.deductLine(ctx, repos, clinicID, line.InventoryID, line.Quantity, nil)
			if err != nil {
				return err
			}
			total = total.Add(linePrice)
			dispensed = append(dispensed, fmt.Sprintf("%s x%d", name, line.Quantity))
		}

		status := billing.InvoiceStatusPending
		if req.MarkPaid {
			status = billing.InvoiceStatusPaid
		}
		number := billing.NewInvoiceNumber(billing.OriginDirectSale)
		invoice, err := billing.NewInvoice(clinicID, number, req.PatientID, nil, "Pharmacy Sale: "+strings.Join(dispensed, ", "), total, status)
		if err != nil {
			return err
		}
		if err := repos.InvoiceRepo().Save(ctx, invoice); err != nil {
			return err
		}

		response = &FulfillmentResponse{
			InvoiceNumber: number,
			Amount:        total,
			Paid:          req.MarkPaid,
			Dispensed:     dispensed,
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceNumber, response.InvoiceNumber,
		telemetry.SpanAttrAmount, response.Amount.InexactFloat64(),
	)
	return response, nil
}

// deductLine removes the quantity from one stock item and returns the item
// name and the line total. Deductions use the versioned save so concurrent
// fulfillments of the same item serialize instead of over-deducting. An
// item that crosses the low-stock threshold raises a pharmacy notification
// inside the same transaction.
func (s *FulfillmentService) deductLine(ctx context.Context, repos TransactionalRepositories, clinicID, itemID uuid.UUID, quantity int64, priceOverride *decimal.Decimal) (string, decimal.Decimal, error) {
	item, err := repos.StockRepo().FindByIDForClinic(ctx, clinicID, itemID)
	if err != nil {
		return "", decimal.Zero, err
	}
	wasLow := item.IsLowStock(inventory.LowStockThreshold)
	if err := item.Deduct(quantity); err != nil {
		return "", decimal.Zero, err
	}
	if err := repos.StockRepo().SaveWithVersion(ctx, item); err != nil {
		return "", decimal.Zero, err
	}

	if !wasLow && item.IsLowStock(inventory.LowStockThreshold) {
		notice, err := notification.NewNotification(clinicID, ordering.OrderTypePharmacy.Department(), notification.Message{
			Type:   "INVENTORY",
			Action: "LOW_STOCK",
			Text:   fmt.Sprintf("%s is low on stock (%d remaining)", item.Name, item.Quantity),
		})
		if err != nil {
			return "", decimal.Zero, err
		}
		if err := repos.NotificationRepo().Save(ctx, notice); err != nil {
			return "", decimal.Zero, err
		}
	}

	price := item.UnitPrice
	if priceOverride != nil && !priceOverride.IsNegative() {
		price = *priceOverride
	}
	return item.Name, price.Mul(decimal.NewFromInt(quantity)), nil
}
