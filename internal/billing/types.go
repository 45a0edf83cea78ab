package billing

import "encoding/json"

// Типы событий провайдера, обрабатываемые синхронизатором.
const (
	EventSubscriptionCreated      = "customer.subscription.created"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
	EventSubscriptionTrialWillEnd = "customer.subscription.trial_will_end"
	EventSubscriptionPaused       = "customer.subscription.paused"
	EventSubscriptionResumed      = "customer.subscription.resumed"
	EventCheckoutCompleted        = "checkout.session.completed"
)

// Event конверт webhook-события провайдера.
type Event struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"` // unix-время создания события у провайдера
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// Subscription объект подписки провайдера в том виде,
// в котором он приходит внутри события.
type Subscription struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Items    struct {
		Data []struct {
			Price struct {
				ID      string `json:"id"`
				Product string `json:"product"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// PriceID возвращает price ID первой позиции подписки.
func (s *Subscription) PriceID() string {
	if len(s.Items.Data) == 0 {
		return ""
	}
	return s.Items.Data[0].Price.ID
}

// CheckoutSession объект завершённой checkout-сессии.
// ClientReferenceID несёт UID локального пользователя, начавшего оплату.
type CheckoutSession struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Mode              string `json:"mode"`
	ClientReferenceID string `json:"client_reference_id"`
}

// CreateCheckoutSessionRequest параметры создания checkout-сессии.
type CreateCheckoutSessionRequest struct {
	CustomerEmail     string `json:"customer_email"`
	ClientReferenceID string `json:"client_reference_id"`
	PriceID           string `json:"price_id"`
	Mode              string `json:"mode"`
	SuccessURL        string `json:"success_url"`
	CancelURL         string `json:"cancel_url"`
}

// CreateCheckoutSessionResponse ответ провайдера с URL страницы оплаты.
type CreateCheckoutSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
