package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpantry/vouchers-backend/internal/failures"
	"github.com/openpantry/vouchers-backend/pkg/enums"
)

// ItemInput is one requested cart line.
type ItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// ClientMeta carries request provenance into the forensic record.
type ClientMeta struct {
	Address     string `json:"address"`
	AgentString string `json:"agent_string"`
}

// CreateOrderInput is the inbound submission.
type CreateOrderInput struct {
	ParticipantID uuid.UUID   `json:"participant_id" validate:"required"`
	Items         []ItemInput `json:"items" validate:"required,dive"`
	ClientMeta    ClientMeta  `json:"client_meta"`
}

// ItemResponse echoes a committed line item.
type ItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderResponse is the outbound success payload.
type OrderResponse struct {
	ID           uuid.UUID         `json:"id"`
	OrderNumber  int64             `json:"order_number"`
	Status       enums.OrderStatus `json:"status"`
	Total        decimal.Decimal   `json:"total"`
	Items        []ItemResponse    `json:"items"`
	GoFreshTotal decimal.Decimal   `json:"go_fresh_total"`
}

// ValidationDetails rides on a rejection so the caller can render "you needed
// $X, you have $Y".
type ValidationDetails struct {
	Issues   []failures.Issue        `json:"issues"`
	Balances failures.BalanceContext `json:"balances"`
}
