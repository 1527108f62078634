package vendors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Musty2002/sm-data-app-sub000/pkg/config"
	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
)

// clubkonnectAdapter wraps the ClubKonnect query-string API. Only data and
// airtime are routed here; the provider has no bill payment surface we use.
type clubkonnectAdapter struct {
	baseURL string
	userID  string
	apiKey  string
	client  *http.Client
}

// NewClubKonnect builds the ClubKonnect adapter from config.
func NewClubKonnect(cfg config.VendorsConfig) Adapter {
	return &clubkonnectAdapter{
		baseURL: strings.TrimRight(cfg.ClubKonnectBaseURL, "/"),
		userID:  cfg.ClubKonnectUserID,
		apiKey:  cfg.ClubKonnectAPIKey,
		client:  newHTTPClient(cfg),
	}
}

func (a *clubkonnectAdapter) Name() enums.Vendor {
	return enums.VendorClubkonnect
}

func (a *clubkonnectAdapter) Supports(category enums.PurchaseCategory) bool {
	return category == enums.PurchaseCategoryData || category == enums.PurchaseCategoryAirtime
}

type clubkonnectResponse struct {
	OrderID    json.Number `json:"orderid"`
	StatusCode string      `json:"statuscode"`
	Status     string      `json:"status"`
	Remark     string      `json:"remark"`
}

func (a *clubkonnectAdapter) Execute(ctx context.Context, req Request) (Outcome, error) {
	if a.baseURL == "" {
		return Outcome{}, fmt.Errorf("clubkonnect base url not configured")
	}

	endpoint := "/APIAirtimeV1.asp"
	params := url.Values{}
	params.Set("UserID", a.userID)
	params.Set("APIKey", a.apiKey)
	params.Set("MobileNetwork", strings.ToLower(req.Network))
	params.Set("MobileNumber", req.Recipient)
	params.Set("RequestID", req.Reference)
	if req.Category == enums.PurchaseCategoryData {
		endpoint = "/APIDatabundleV1.asp"
		params.Set("DataPlan", req.PlanCode)
	} else {
		params.Set("Amount", strconv.FormatInt(req.AmountKobo/100, 10))
	}

	return a.call(ctx, endpoint, params), nil
}

func (a *clubkonnectAdapter) Query(ctx context.Context, reference string) (Outcome, error) {
	if a.baseURL == "" {
		return Outcome{}, fmt.Errorf("clubkonnect base url not configured")
	}

	params := url.Values{}
	params.Set("UserID", a.userID)
	params.Set("APIKey", a.apiKey)
	params.Set("RequestID", reference)
	return a.call(ctx, "/APIQueryV1.asp", params), nil
}

func (a *clubkonnectAdapter) call(ctx context.Context, endpoint string, params url.Values) Outcome {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return Outcome{Status: OutcomeAmbiguous, Message: err.Error()}
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return Outcome{Status: OutcomeAmbiguous, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Outcome{Status: OutcomeAmbiguous, Message: fmt.Sprintf("clubkonnect returned %d", resp.StatusCode)}
	}

	var decoded clubkonnectResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Outcome{Status: OutcomeAmbiguous, Message: "unreadable clubkonnect response"}
	}
	return interpretClubkonnect(decoded)
}

func interpretClubkonnect(resp clubkonnectResponse) Outcome {
	ref := resp.OrderID.String()
	status := strings.ToUpper(resp.Status)
	switch {
	case status == "ORDER_COMPLETED":
		return Outcome{Status: OutcomeSuccess, VendorRef: ref}
	case status == "ORDER_RECEIVED" || status == "ORDER_PROCESSING":
		return Outcome{Status: OutcomeAmbiguous, VendorRef: ref, Message: resp.Status}
	case status == "ORDER_CANCELLED" || status == "ORDER_FAILED" || strings.HasPrefix(resp.StatusCode, "4"):
		return Outcome{Status: OutcomeFailure, VendorRef: ref, Message: remarkOrStatus(resp)}
	default:
		return Outcome{Status: OutcomeAmbiguous, VendorRef: ref, Message: remarkOrStatus(resp)}
	}
}

func remarkOrStatus(resp clubkonnectResponse) string {
	if resp.Remark != "" {
		return resp.Remark
	}
	return resp.Status
}
