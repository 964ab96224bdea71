package ordering

import (
	"fmt"
	"time"

	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderType distinguishes the fulfilling department of a service order
type OrderType string

const (
	OrderTypeLab       OrderType = "LAB"
	OrderTypeRadiology OrderType = "RADIOLOGY"
	OrderTypePharmacy  OrderType = "PHARMACY"
)

// IsValid checks if the type is a known OrderType
func (t OrderType) IsValid() bool {
	switch t {
	case OrderTypeLab, OrderTypeRadiology, OrderTypePharmacy:
		return true
	}
	return false
}

// Department returns the notification department for the order type
func (t OrderType) Department() string {
	switch t {
	case OrderTypeLab:
		return "laboratory"
	case OrderTypeRadiology:
		return "radiology"
	case OrderTypePharmacy:
		return "pharmacy"
	}
	return ""
}

// TestStatus is the fulfillment state of a service order
type TestStatus string

const (
	TestStatusPending         TestStatus = "Pending"
	TestStatusSampleCollected TestStatus = "Sample Collected"
	TestStatusResultUploaded  TestStatus = "Result Uploaded"
	TestStatusPublished       TestStatus = "Published"
	TestStatusCompleted       TestStatus = "Completed"
	TestStatusRejected        TestStatus = "Rejected"
)

// IsTerminal reports whether no further transitions leave this state
func (s TestStatus) IsTerminal() bool {
	return s == TestStatusPublished || s == TestStatusCompleted || s == TestStatusRejected
}

// CanTransitionTo checks reachability for the given order type. Lab and
// radiology orders walk Pending -> Sample Collected -> Result Uploaded ->
// Published with a side exit to Rejected; pharmacy orders go straight from
// Pending to Completed or Rejected. No rollback transitions exist.
func (s TestStatus) CanTransitionTo(target TestStatus, orderType OrderType) bool {
	if orderType == OrderTypePharmacy {
		return s == TestStatusPending && (target == TestStatusCompleted || target == TestStatusRejected)
	}
	switch s {
	case TestStatusPending:
		return target == TestStatusSampleCollected || target == TestStatusRejected
	case TestStatusSampleCollected:
		return target == TestStatusResultUploaded
	case TestStatusResultUploaded:
		return target == TestStatusPublished
	}
	return false
}

// PaymentStatus gates department visibility of an order
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
)

// ServiceOrder is a request for a laboratory test, radiology scan or
// pharmacy dispensation tied to a patient encounter. Department staff only
// see an order once its payment status is Paid.
type ServiceOrder struct {
	shared.ClinicAggregateRoot
	PatientID     uuid.UUID      `gorm:"type:uuid;not null;index"`
	DoctorID      uuid.UUID      `gorm:"type:uuid;not null;index"`
	Type          OrderType      `gorm:"type:varchar(16);not null;index"`
	TestName      string         `gorm:"type:varchar(512);not null"`
	TestStatus    TestStatus     `gorm:"type:varchar(32);not null;default:'Pending'"`
	PaymentStatus PaymentStatus  `gorm:"type:varchar(16);not null;default:'Pending';index"`
	Result        ResultDocument `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ServiceOrder) TableName() string {
	return "service_orders"
}

// NewServiceOrder creates a service order in its initial state. Orders
// always start payment-pending and become visible to the fulfilling
// department only after the billing reconciler releases them.
func NewServiceOrder(clinicID, patientID, doctorID uuid.UUID, orderType OrderType, testName string) (*ServiceOrder, error) {
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PATIENT", "Patient ID cannot be empty")
	}
	if doctorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DOCTOR", "Doctor ID cannot be empty")
	}
	if !orderType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ORDER_TYPE", "Unknown order type: "+string(orderType))
	}
	if testName == "" {
		return nil, shared.NewDomainError("INVALID_TEST_NAME", "Test name cannot be empty")
	}
	return &ServiceOrder{
		ClinicAggregateRoot: shared.NewClinicAggregateRoot(clinicID),
		PatientID:           patientID,
		DoctorID:            doctorID,
		Type:                orderType,
		TestName:            testName,
		TestStatus:          TestStatusPending,
		PaymentStatus:       PaymentStatusPending,
	}, nil
}

// CollectSample marks the specimen as collected (lab/radiology only)
func (o *ServiceOrder) CollectSample() error {
	return o.transition(TestStatusSampleCollected)
}

// UploadReport attaches the findings and advances to Result Uploaded
func (o *ServiceOrder) UploadReport(findings string) error {
	if findings == "" {
		return shared.NewDomainError("INVALID_RESULT", "Report findings cannot be empty")
	}
	if err := o.transition(TestStatusResultUploaded); err != nil {
		return err
	}
	o.Result.Findings = findings
	return nil
}

// Publish releases the report to the patient-facing read path.
// Published is terminal; there is no way back to earlier states.
func (o *ServiceOrder) Publish() error {
	return o.transition(TestStatusPublished)
}

// Reject terminally rejects a pending order
func (o *ServiceOrder) Reject() error {
	return o.transition(TestStatusRejected)
}

// Complete marks a pharmacy order fulfilled and stamps the billing receipt
// produced in the same transaction.
func (o *ServiceOrder) Complete(receipt FulfillmentReceipt) error {
	if o.Type != OrderTypePharmacy {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot complete a %s order via pharmacy fulfillment", o.Type))
	}
	if receipt.InvoiceNumber == "" {
		return shared.NewDomainError("INVALID_RECEIPT", "Fulfillment receipt must reference an invoice")
	}
	if err := o.transition(TestStatusCompleted); err != nil {
		return err
	}
	o.Result.Receipt = &receipt
	return nil
}

// MarkCompleted closes the order out without a receipt. Used when staff
// resolve the work through the notification inbox rather than a
// fulfillment flow; the transition rules still apply.
func (o *ServiceOrder) MarkCompleted() error {
	return o.transition(TestStatusCompleted)
}

// ReleasePayment flips the payment gate so department staff can see the
// order. Only the billing reconciler calls this, as a consequence of the
// linked invoice becoming Paid.
func (o *ServiceOrder) ReleasePayment() {
	if o.PaymentStatus == PaymentStatusPaid {
		return
	}
	o.PaymentStatus = PaymentStatusPaid
	o.touch()
}

// IsVisibleToDepartment reports whether department staff may see the order
func (o *ServiceOrder) IsVisibleToDepartment() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// IsVisibleToPatient reports whether the patient-facing read path returns
// the order's result.
func (o *ServiceOrder) IsVisibleToPatient() bool {
	return o.TestStatus == TestStatusPublished
}

func (o *ServiceOrder) transition(target TestStatus) error {
	if !o.TestStatus.CanTransitionTo(target, o.Type) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot move %s order from %s to %s", o.Type, o.TestStatus, target))
	}
	o.TestStatus = target
	o.touch()
	return nil
}

func (o *ServiceOrder) touch() {
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}
