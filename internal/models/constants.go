package models

const (
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCancelled OrderStatus = "cancelled"

	OrderModeDineIn  OrderMode = "dine-in"
	OrderModeTakeout OrderMode = "takeout"

	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
	PaymentMethodWallet   = "wallet"
)
