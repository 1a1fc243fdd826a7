package orders

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/finance"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// ReconstructOrderLine rehydrates a stored line through the constructor
// validation path, then restores picking progress. Stored picked quantities
// outside [0, quantity] mean the row was corrupted and are rejected.
func ReconstructOrderLine(id int64, stockItemID int64, description string, packageTypeID int64, financials finance.OrderLineFinancials, pickedQuantity int64, pickingCompletedWhen *time.Time, lastEditedBy int64, lastEditedWhen time.Time) (*OrderLine, error) {
	actor := shared.ActorContext{PersonID: lastEditedBy, At: lastEditedWhen}
	line, err := NewOrderLine(stockItemID, description, packageTypeID, financials, actor)
	if err != nil {
		return nil, err
	}
	if pickedQuantity < 0 || pickedQuantity > financials.Quantity() {
		return nil, shared.Validationf("pickedQuantity", "stored %d outside [0,%d]", pickedQuantity, financials.Quantity())
	}
	line.id = shared.PersistedIdentity(id)
	line.pickedQuantity = pickedQuantity
	if pickingCompletedWhen != nil {
		when := *pickingCompletedWhen
		line.pickingCompletedWhen = &when
	}
	return line, nil
}

// ReconstructOrder rehydrates a stored order and its lines.
func ReconstructOrder(id int64, customerID, salespersonPersonID int64, orderDate, expectedDeliveryDate time.Time, customerPurchaseOrder string, undersupplyBackordered bool, backorderOrderID *int64, comments, deliveryInstructions string, pickedByPersonID *int64, pickingCompletedWhen *time.Time, lines []*OrderLine, lastEditedBy int64, lastEditedWhen time.Time) (*Order, error) {
	actor := shared.ActorContext{PersonID: lastEditedBy, At: lastEditedWhen}
	order, err := NewOrder(customerID, salespersonPersonID, orderDate, expectedDeliveryDate, customerPurchaseOrder, undersupplyBackordered, actor)
	if err != nil {
		return nil, err
	}
	if err := shared.OptionalID("backorderOrderID", backorderOrderID); err != nil {
		return nil, err
	}
	if err := shared.OptionalID("pickedByPersonID", pickedByPersonID); err != nil {
		return nil, err
	}
	order.id = shared.PersistedIdentity(id)
	order.comments = comments
	order.deliveryInstructions = deliveryInstructions
	order.lines = lines
	if backorderOrderID != nil {
		v := *backorderOrderID
		order.backorderOrderID = &v
	}
	if pickedByPersonID != nil {
		v := *pickedByPersonID
		order.pickedByPersonID = &v
	}
	if pickingCompletedWhen != nil {
		when := *pickingCompletedWhen
		order.pickingCompletedWhen = &when
	}
	return order, nil
}
