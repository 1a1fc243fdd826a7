package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type createLineRequest struct {
	StockItemID   int64            `json:"stock_item_id" validate:"required,gt=0"`
	StockGroupID  *int64           `json:"stock_group_id,omitempty" validate:"omitempty,gt=0"`
	Description   string           `json:"description" validate:"required"`
	PackageTypeID int64            `json:"package_type_id" validate:"required,gt=0"`
	Quantity      int64            `json:"quantity" validate:"required"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"`
	TaxRate       decimal.Decimal  `json:"tax_rate"`
}

type createOrderRequest struct {
	CustomerID             int64               `json:"customer_id" validate:"required,gt=0"`
	CustomerCategoryID     *int64              `json:"customer_category_id,omitempty" validate:"omitempty,gt=0"`
	BuyingGroupID          *int64              `json:"buying_group_id,omitempty" validate:"omitempty,gt=0"`
	SalespersonPersonID    int64               `json:"salesperson_person_id" validate:"required,gt=0"`
	OrderDate              time.Time           `json:"order_date" validate:"required"`
	ExpectedDeliveryDate   time.Time           `json:"expected_delivery_date" validate:"required"`
	CustomerPurchaseOrder  string              `json:"customer_purchase_order"`
	UndersupplyBackordered bool                `json:"undersupply_backordered"`
	Comments               string              `json:"comments"`
	DeliveryInstructions   string              `json:"delivery_instructions"`
	Lines                  []createLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (r createOrderRequest) toInput() CreateOrderInput {
	input := CreateOrderInput{
		CustomerID:             r.CustomerID,
		CustomerCategoryID:     r.CustomerCategoryID,
		BuyingGroupID:          r.BuyingGroupID,
		SalespersonPersonID:    r.SalespersonPersonID,
		OrderDate:              r.OrderDate,
		ExpectedDeliveryDate:   r.ExpectedDeliveryDate,
		CustomerPurchaseOrder:  r.CustomerPurchaseOrder,
		UndersupplyBackordered: r.UndersupplyBackordered,
		Comments:               r.Comments,
		DeliveryInstructions:   r.DeliveryInstructions,
		Lines:                  make([]LineInput, 0, len(r.Lines)),
	}
	for _, line := range r.Lines {
		input.Lines = append(input.Lines, LineInput{
			StockItemID:   line.StockItemID,
			StockGroupID:  line.StockGroupID,
			Description:   line.Description,
			PackageTypeID: line.PackageTypeID,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			TaxRate:       line.TaxRate,
		})
	}
	return input
}

type assignPickerRequest struct {
	PersonID int64 `json:"person_id" validate:"required,gt=0"`
}

type completePickingRequest struct {
	When time.Time `json:"when" validate:"required"`
}

type recordPickRequest struct {
	Delta int64 `json:"delta" validate:"required"`
}

type adjustPickRequest struct {
	NewTotal int64  `json:"new_total" validate:"gte=0"`
	Reason   string `json:"reason" validate:"required"`
}

type updateSalespersonRequest struct {
	PersonID int64 `json:"person_id" validate:"required,gt=0"`
}

type updateBackorderPolicyRequest struct {
	UndersupplyBackordered bool `json:"undersupply_backordered"`
}

type updateLineQuantityRequest struct {
	Quantity int64 `json:"quantity" validate:"required"`
}

type updateLineUnitPriceRequest struct {
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type lineResponse struct {
	ID                   int64            `json:"id"`
	StockItemID          int64            `json:"stock_item_id"`
	Description          string           `json:"description"`
	PackageTypeID        int64            `json:"package_type_id"`
	Quantity             int64            `json:"quantity"`
	UnitPrice            *decimal.Decimal `json:"unit_price,omitempty"`
	TaxRate              decimal.Decimal  `json:"tax_rate"`
	ExtendedPrice        decimal.Decimal  `json:"extended_price"`
	TaxAmount            decimal.Decimal  `json:"tax_amount"`
	TotalIncludingTax    decimal.Decimal  `json:"total_including_tax"`
	PickedQuantity       int64            `json:"picked_quantity"`
	RemainingQuantity    int64            `json:"remaining_quantity"`
	Status               OrderLineStatus  `json:"status"`
	PickingCompletedWhen *time.Time       `json:"picking_completed_when,omitempty"`
}

type orderResponse struct {
	ID                     int64           `json:"id"`
	CustomerID             int64           `json:"customer_id"`
	SalespersonPersonID    int64           `json:"salesperson_person_id"`
	OrderDate              time.Time       `json:"order_date"`
	ExpectedDeliveryDate   time.Time       `json:"expected_delivery_date"`
	CustomerPurchaseOrder  string          `json:"customer_purchase_order,omitempty"`
	UndersupplyBackordered bool            `json:"undersupply_backordered"`
	BackorderOrderID       *int64          `json:"backorder_order_id,omitempty"`
	Comments               string          `json:"comments,omitempty"`
	DeliveryInstructions   string          `json:"delivery_instructions,omitempty"`
	PickedByPersonID       *int64          `json:"picked_by_person_id,omitempty"`
	PickingCompletedWhen   *time.Time      `json:"picking_completed_when,omitempty"`
	Status                 OrderStatus     `json:"status"`
	TotalExcludingTax      decimal.Decimal `json:"total_excluding_tax"`
	TotalIncludingTax      decimal.Decimal `json:"total_including_tax"`
	Lines                  []lineResponse  `json:"lines"`
}

type listOrdersResponse struct {
	Orders     []orderResponse   `json:"orders"`
	Pagination shared.Pagination `json:"pagination"`
}

func lineToResponse(line *OrderLine) lineResponse {
	resp := lineResponse{
		StockItemID:       line.StockItemID(),
		Description:       line.Description(),
		PackageTypeID:     line.PackageTypeID(),
		Quantity:          line.Quantity(),
		TaxRate:           line.Financials().TaxRate(),
		ExtendedPrice:     line.Financials().ExtendedPrice(),
		TaxAmount:         line.Financials().TaxAmount(),
		TotalIncludingTax: line.Financials().TotalIncludingTax(),
		PickedQuantity:    line.PickedQuantity(),
		RemainingQuantity: line.RemainingQuantity(),
		Status:            line.Status(),
	}
	if id, ok := line.ID().Value(); ok {
		resp.ID = id
	}
	if price, ok := line.Financials().UnitPrice(); ok {
		resp.UnitPrice = &price
	}
	if when, ok := line.PickingCompletedWhen(); ok {
		resp.PickingCompletedWhen = &when
	}
	return resp
}

func orderToResponse(order *Order) orderResponse {
	resp := orderResponse{
		CustomerID:             order.CustomerID(),
		SalespersonPersonID:    order.SalespersonPersonID(),
		OrderDate:              order.OrderDate(),
		ExpectedDeliveryDate:   order.ExpectedDeliveryDate(),
		CustomerPurchaseOrder:  order.CustomerPurchaseOrder(),
		UndersupplyBackordered: order.IsUndersupplyBackordered(),
		Comments:               order.Comments(),
		DeliveryInstructions:   order.DeliveryInstructions(),
		Status:                 order.Status(),
		TotalExcludingTax:      order.TotalExcludingTax(),
		TotalIncludingTax:      order.TotalIncludingTax(),
		Lines:                  make([]lineResponse, 0, len(order.Lines())),
	}
	if id, ok := order.ID().Value(); ok {
		resp.ID = id
	}
	if backorderID, ok := order.BackorderOrderID(); ok {
		resp.BackorderOrderID = &backorderID
	}
	if pickerID, ok := order.PickedByPersonID(); ok {
		resp.PickedByPersonID = &pickerID
	}
	if when, ok := order.PickingCompletedWhen(); ok {
		resp.PickingCompletedWhen = &when
	}
	for _, line := range order.Lines() {
		resp.Lines = append(resp.Lines, lineToResponse(line))
	}
	return resp
}
