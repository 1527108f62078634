package vendors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Musty2002/sm-data-app-sub000/pkg/config"
	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
)

const (
	vtpassCodeSuccess   = "000"
	vtpassCodeProcessed = "099"
)

// vtpassAdapter talks to the VTpass REST API. VTpass dedupes on request_id,
// so the purchase reference is forwarded verbatim.
type vtpassAdapter struct {
	baseURL   string
	apiKey    string
	secretKey string
	client    *http.Client
}

// NewVTPass builds the VTpass adapter from config.
func NewVTPass(cfg config.VendorsConfig) Adapter {
	return &vtpassAdapter{
		baseURL:   strings.TrimRight(cfg.VTPassBaseURL, "/"),
		apiKey:    cfg.VTPassAPIKey,
		secretKey: cfg.VTPassSecretKey,
		client:    newHTTPClient(cfg),
	}
}

func (a *vtpassAdapter) Name() enums.Vendor {
	return enums.VendorVTPass
}

func (a *vtpassAdapter) Supports(category enums.PurchaseCategory) bool {
	switch category {
	case enums.PurchaseCategoryData, enums.PurchaseCategoryAirtime,
		enums.PurchaseCategoryElectricity, enums.PurchaseCategoryTV:
		return true
	default:
		return false
	}
}

type vtpassPayRequest struct {
	RequestID     string `json:"request_id"`
	ServiceID     string `json:"serviceID"`
	BillersCode   string `json:"billersCode,omitempty"`
	VariationCode string `json:"variation_code,omitempty"`
	Amount        int64  `json:"amount,omitempty"`
	Phone         string `json:"phone"`
}

type vtpassPayResponse struct {
	Code    string `json:"code"`
	Content struct {
		Transactions struct {
			Status        string `json:"status"`
			TransactionID string `json:"transactionId"`
		} `json:"transactions"`
	} `json:"content"`
	ResponseDescription string `json:"response_description"`
}

func (a *vtpassAdapter) Execute(ctx context.Context, req Request) (Outcome, error) {
	if a.baseURL == "" {
		return Outcome{}, fmt.Errorf("vtpass base url not configured")
	}

	body := vtpassPayRequest{
		RequestID:     req.Reference,
		ServiceID:     vtpassServiceID(req),
		VariationCode: req.PlanCode,
		Amount:        req.AmountKobo / 100,
		Phone:         req.Recipient,
	}
	if req.Category == enums.PurchaseCategoryElectricity || req.Category == enums.PurchaseCategoryTV {
		body.BillersCode = req.Recipient
	}

	var decoded vtpassPayResponse
	outcome, ok := a.post(ctx, "/api/pay", body, &decoded)
	if !ok {
		return outcome, nil
	}
	return a.interpret(decoded), nil
}

func (a *vtpassAdapter) Query(ctx context.Context, reference string) (Outcome, error) {
	if a.baseURL == "" {
		return Outcome{}, fmt.Errorf("vtpass base url not configured")
	}

	var decoded vtpassPayResponse
	outcome, ok := a.post(ctx, "/api/requery", map[string]string{"request_id": reference}, &decoded)
	if !ok {
		return outcome, nil
	}
	return a.interpret(decoded), nil
}

// post sends the request and reports false with an ambiguous outcome when the
// response never arrived or could not be read.
func (a *vtpassAdapter) post(ctx context.Context, path string, payload any, out *vtpassPayResponse) (Outcome, bool) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Outcome{Status: OutcomeAmbiguous, Message: err.Error()}, false
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return Outcome{Status: OutcomeAmbiguous, Message: err.Error()}, false
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", a.apiKey)
	httpReq.Header.Set("secret-key", a.secretKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return Outcome{Status: OutcomeAmbiguous, Message: err.Error()}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Outcome{Status: OutcomeAmbiguous, Message: fmt.Sprintf("vtpass returned %d", resp.StatusCode)}, false
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Outcome{Status: OutcomeAmbiguous, Message: "unreadable vtpass response"}, false
	}
	return Outcome{}, true
}

func (a *vtpassAdapter) interpret(resp vtpassPayResponse) Outcome {
	ref := resp.Content.Transactions.TransactionID
	switch resp.Code {
	case vtpassCodeSuccess:
		if strings.EqualFold(resp.Content.Transactions.Status, "delivered") {
			return Outcome{Status: OutcomeSuccess, VendorRef: ref}
		}
		// accepted but not yet delivered
		return Outcome{Status: OutcomeAmbiguous, VendorRef: ref, Message: resp.Content.Transactions.Status}
	case vtpassCodeProcessed:
		return Outcome{Status: OutcomeAmbiguous, VendorRef: ref, Message: resp.ResponseDescription}
	default:
		return Outcome{Status: OutcomeFailure, VendorRef: ref, Message: resp.ResponseDescription}
	}
}

func vtpassServiceID(req Request) string {
	network := strings.ToLower(req.Network)
	switch req.Category {
	case enums.PurchaseCategoryData:
		return network + "-data"
	case enums.PurchaseCategoryAirtime:
		return network
	default:
		return req.PlanCode
	}
}
