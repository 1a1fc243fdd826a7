package invoices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type createLineRequest struct {
	StockItemID   int64            `json:"stock_item_id" validate:"required,gt=0"`
	Description   string           `json:"description" validate:"required"`
	PackageTypeID int64            `json:"package_type_id" validate:"required,gt=0"`
	Quantity      int64            `json:"quantity" validate:"required"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"`
	TaxRate       decimal.Decimal  `json:"tax_rate"`
	CostPrice     decimal.Decimal  `json:"cost_price"`
}

type createInvoiceRequest struct {
	CustomerID            int64               `json:"customer_id" validate:"required,gt=0"`
	OrderID               *int64              `json:"order_id,omitempty" validate:"omitempty,gt=0"`
	InvoiceDate           time.Time           `json:"invoice_date" validate:"required"`
	CustomerPurchaseOrder string              `json:"customer_purchase_order"`
	Comments              string              `json:"comments"`
	DeliveryInstructions  string              `json:"delivery_instructions"`
	Lines                 []createLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (r createInvoiceRequest) toInput() CreateInvoiceInput {
	input := CreateInvoiceInput{
		CustomerID:            r.CustomerID,
		OrderID:               r.OrderID,
		InvoiceDate:           r.InvoiceDate,
		CustomerPurchaseOrder: r.CustomerPurchaseOrder,
		Comments:              r.Comments,
		DeliveryInstructions:  r.DeliveryInstructions,
		Lines:                 make([]LineInput, 0, len(r.Lines)),
	}
	for _, line := range r.Lines {
		input.Lines = append(input.Lines, LineInput{
			StockItemID:   line.StockItemID,
			Description:   line.Description,
			PackageTypeID: line.PackageTypeID,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			TaxRate:       line.TaxRate,
			CostPrice:     line.CostPrice,
		})
	}
	return input
}

type createCreditNoteRequest struct {
	Reason string `json:"reason" validate:"required,max=200"`
}

type updateCommentsRequest struct {
	Comments string `json:"comments"`
}

type updateDeliveryInstructionsRequest struct {
	DeliveryInstructions string `json:"delivery_instructions"`
}

type lineResponse struct {
	ID                int64            `json:"id"`
	StockItemID       int64            `json:"stock_item_id"`
	Description       string           `json:"description"`
	PackageTypeID     int64            `json:"package_type_id"`
	Quantity          int64            `json:"quantity"`
	UnitPrice         *decimal.Decimal `json:"unit_price,omitempty"`
	TaxRate           decimal.Decimal  `json:"tax_rate"`
	CostPrice         decimal.Decimal  `json:"cost_price"`
	ExtendedPrice     decimal.Decimal  `json:"extended_price"`
	TaxAmount         decimal.Decimal  `json:"tax_amount"`
	LineProfit        decimal.Decimal  `json:"line_profit"`
	TotalIncludingTax decimal.Decimal  `json:"total_including_tax"`
}

type invoiceResponse struct {
	ID                    int64           `json:"id"`
	CustomerID            int64           `json:"customer_id"`
	OrderID               *int64          `json:"order_id,omitempty"`
	InvoiceDate           time.Time       `json:"invoice_date"`
	CustomerPurchaseOrder string          `json:"customer_purchase_order,omitempty"`
	IsCreditNote          bool            `json:"is_credit_note"`
	CreditNoteReason      string          `json:"credit_note_reason,omitempty"`
	Comments              string          `json:"comments,omitempty"`
	DeliveryInstructions  string          `json:"delivery_instructions,omitempty"`
	TotalExcludingTax     decimal.Decimal `json:"total_excluding_tax"`
	TotalTax              decimal.Decimal `json:"total_tax"`
	TotalIncludingTax     decimal.Decimal `json:"total_including_tax"`
	TotalProfit           decimal.Decimal `json:"total_profit"`
	Lines                 []lineResponse  `json:"lines"`
}

type listInvoicesResponse struct {
	Invoices   []invoiceResponse `json:"invoices"`
	Pagination shared.Pagination `json:"pagination"`
}

func lineToResponse(line *InvoiceLine) lineResponse {
	fin := line.Financials()
	resp := lineResponse{
		StockItemID:       line.StockItemID(),
		Description:       line.Description(),
		PackageTypeID:     line.PackageTypeID(),
		Quantity:          fin.Quantity(),
		TaxRate:           fin.TaxRate(),
		CostPrice:         fin.CostPrice(),
		ExtendedPrice:     fin.ExtendedPrice(),
		TaxAmount:         fin.TaxAmount(),
		LineProfit:        fin.LineProfit(),
		TotalIncludingTax: fin.TotalIncludingTax(),
	}
	if id, ok := line.ID().Value(); ok {
		resp.ID = id
	}
	if price, ok := fin.UnitPrice(); ok {
		resp.UnitPrice = &price
	}
	return resp
}

func invoiceToResponse(invoice *Invoice) invoiceResponse {
	resp := invoiceResponse{
		CustomerID:            invoice.CustomerID(),
		InvoiceDate:           invoice.InvoiceDate(),
		CustomerPurchaseOrder: invoice.CustomerPurchaseOrder(),
		IsCreditNote:          invoice.IsCreditNote(),
		CreditNoteReason:      invoice.CreditNoteReason(),
		Comments:              invoice.Comments(),
		DeliveryInstructions:  invoice.DeliveryInstructions(),
		TotalExcludingTax:     invoice.TotalExcludingTax(),
		TotalTax:              invoice.TotalTax(),
		TotalIncludingTax:     invoice.TotalIncludingTax(),
		TotalProfit:           invoice.TotalProfit(),
		Lines:                 make([]lineResponse, 0, len(invoice.Lines())),
	}
	if id, ok := invoice.ID().Value(); ok {
		resp.ID = id
	}
	if orderID, ok := invoice.OrderID(); ok {
		resp.OrderID = &orderID
	}
	for _, line := range invoice.Lines() {
		resp.Lines = append(resp.Lines, lineToResponse(line))
	}
	return resp
}
