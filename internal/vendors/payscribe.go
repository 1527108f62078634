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

// payscribeAdapter wraps the Payscribe bearer-token JSON API.
type payscribeAdapter struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewPayscribe builds the Payscribe adapter from config.
func NewPayscribe(cfg config.VendorsConfig) Adapter {
	return &payscribeAdapter{
		baseURL: strings.TrimRight(cfg.PayscribeBaseURL, "/"),
		token:   cfg.PayscribeToken,
		client:  newHTTPClient(cfg),
	}
}

func (a *payscribeAdapter) Name() enums.Vendor {
	return enums.VendorPayscribe
}

func (a *payscribeAdapter) Supports(category enums.PurchaseCategory) bool {
	switch category {
	case enums.PurchaseCategoryData, enums.PurchaseCategoryAirtime, enums.PurchaseCategoryTV:
		return true
	default:
		return false
	}
}

type payscribeResponse struct {
	Status      bool   `json:"status"`
	Message     string `json:"message"`
	Description string `json:"description"`
	Data        struct {
		TransID string `json:"trans_id"`
		Status  string `json:"status"`
	} `json:"data"`
}

func (a *payscribeAdapter) Execute(ctx context.Context, req Request) (Outcome, error) {
	if a.baseURL == "" {
		return Outcome{}, fmt.Errorf("payscribe base url not configured")
	}

	payload := map[string]any{
		"ref":       req.Reference,
		"recipient": req.Recipient,
		"network":   strings.ToLower(req.Network),
		"amount":    req.AmountKobo / 100,
	}
	path := "/api/v1/airtime"
	if req.Category == enums.PurchaseCategoryData {
		path = "/api/v1/data/vend"
		payload["plan"] = req.PlanCode
	} else if req.Category == enums.PurchaseCategoryTV {
		path = "/api/v1/multichoice/vend"
		payload["plan"] = req.PlanCode
	}

	return a.post(ctx, path, payload), nil
}

func (a *payscribeAdapter) Query(ctx context.Context, reference string) (Outcome, error) {
	if a.baseURL == "" {
		return Outcome{}, fmt.Errorf("payscribe base url not configured")
	}
	return a.post(ctx, "/api/v1/transactions/verify", map[string]any{"ref": reference}), nil
}

func (a *payscribeAdapter) post(ctx context.Context, path string, payload map[string]any) Outcome {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Outcome{Status: OutcomeAmbiguous, Message: err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return Outcome{Status: OutcomeAmbiguous, Message: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return Outcome{Status: OutcomeAmbiguous, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Outcome{Status: OutcomeAmbiguous, Message: fmt.Sprintf("payscribe returned %d", resp.StatusCode)}
	}

	var decoded payscribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Outcome{Status: OutcomeAmbiguous, Message: "unreadable payscribe response"}
	}
	return interpretPayscribe(decoded)
}

func interpretPayscribe(resp payscribeResponse) Outcome {
	ref := resp.Data.TransID
	state := strings.ToLower(resp.Data.Status)
	switch {
	case resp.Status && (state == "" || state == "success" || state == "delivered"):
		return Outcome{Status: OutcomeSuccess, VendorRef: ref}
	case resp.Status && (state == "pending" || state == "processing"):
		return Outcome{Status: OutcomeAmbiguous, VendorRef: ref, Message: resp.Message}
	default:
		msg := resp.Message
		if msg == "" {
			msg = resp.Description
		}
		return Outcome{Status: OutcomeFailure, VendorRef: ref, Message: msg}
	}
}
