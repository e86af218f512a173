package paymentprovider

// Ключи метаданных checkout-сессии, по которым проводится сверка платежа.
const (
	MetadataUserUID  = "user_uid"
	MetadataPlanType = "plan_type"
)

// PaymentStatusPaid — статус полностью оплаченной сессии.
const PaymentStatusPaid = "paid"

// CreateSessionRequest — запрос на создание hosted checkout-сессии.
type CreateSessionRequest struct {
	ProductID  string            `json:"product_id"`            // Продукт тарифа у провайдера
	UnitAmount int64             `json:"unit_amount"`           // Цена в минорных единицах
	Currency   string            `json:"currency"`              // Валюта платежа
	Quantity   int               `json:"quantity"`              // Количество (всегда 1)
	Mode       string            `json:"mode"`                  // Режим сессии, "payment"
	SuccessURL string            `json:"success_url"`           // Возврат после успешной оплаты
	CancelURL  string            `json:"cancel_url"`            // Возврат после отмены
	Metadata   map[string]string `json:"metadata,omitempty"`    // user_uid и plan_type
}

// CheckoutSession — состояние checkout-сессии у провайдера.
type CheckoutSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}
