package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"FyersSentinel/internal/apperr"
	"FyersSentinel/internal/transport"
)

const (
	DefaultLoginBaseURL = "https://api-t2.fyers.in/vagator/v2"
	DefaultAPIBaseURL   = "https://api-t1.fyers.in"
)

// AuthCodeRequest carries the app registration details sent to the token endpoint.
type AuthCodeRequest struct {
	FyersID     string
	AppID       string
	AppType     string
	RedirectURI string
}

// Endpoints is the broker's login contract, one method per round trip.
type Endpoints interface {
	SendOTP(ctx context.Context, encodedID string) (requestKey string, err error)
	VerifyOTP(ctx context.Context, requestKey, code string) (nextKey string, err error)
	VerifyPIN(ctx context.Context, requestKey, encodedPIN string) (bearer string, err error)
	AuthCodeURL(ctx context.Context, bearer string, req AuthCodeRequest) (redirectURL string, err error)
	ExchangeCode(ctx context.Context, code, clientID, secretKey string) (accessToken string, err error)
}

// FyersEndpoints implements Endpoints against the Fyers API v3 login service.
type FyersEndpoints struct {
	Client       *transport.Client
	LoginBaseURL string
	APIBaseURL   string
}

func NewFyersEndpoints(client *transport.Client, loginBaseURL, apiBaseURL string) *FyersEndpoints {
	if loginBaseURL == "" {
		loginBaseURL = DefaultLoginBaseURL
	}
	if apiBaseURL == "" {
		apiBaseURL = DefaultAPIBaseURL
	}
	return &FyersEndpoints{
		Client:       client,
		LoginBaseURL: strings.TrimRight(loginBaseURL, "/"),
		APIBaseURL:   strings.TrimRight(apiBaseURL, "/"),
	}
}

type requestKeyResponse struct {
	RequestKey string `json:"request_key"`
}

func (e *FyersEndpoints) SendOTP(ctx context.Context, encodedID string) (string, error) {
	var resp requestKeyResponse
	body := map[string]string{"fy_id": encodedID, "app_id": "2"}
	if err := e.Client.Do(ctx, "send_login_otp", http.MethodPost, e.LoginBaseURL+"/send_login_otp_v2", nil, body, &resp); err != nil {
		return "", err
	}
	if resp.RequestKey == "" {
		return "", fmt.Errorf("send_login_otp: no request_key: %w", apperr.ErrProtocol)
	}
	return resp.RequestKey, nil
}

func (e *FyersEndpoints) VerifyOTP(ctx context.Context, requestKey, code string) (string, error) {
	var resp requestKeyResponse
	body := map[string]string{"request_key": requestKey, "otp": code}
	if err := e.Client.Do(ctx, "verify_otp", http.MethodPost, e.LoginBaseURL+"/verify_otp", nil, body, &resp); err != nil {
		return "", err
	}
	if resp.RequestKey == "" {
		return "", fmt.Errorf("verify_otp: no request_key: %w", apperr.ErrProtocol)
	}
	return resp.RequestKey, nil
}

func (e *FyersEndpoints) VerifyPIN(ctx context.Context, requestKey, encodedPIN string) (string, error) {
	var resp struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	body := map[string]string{"request_key": requestKey, "identity_type": "pin", "identifier": encodedPIN}
	if err := e.Client.Do(ctx, "verify_pin", http.MethodPost, e.LoginBaseURL+"/verify_pin_v2", nil, body, &resp); err != nil {
		return "", err
	}
	if resp.Data.AccessToken == "" {
		return "", fmt.Errorf("verify_pin: no data.access_token: %w", apperr.ErrProtocol)
	}
	return resp.Data.AccessToken, nil
}

func (e *FyersEndpoints) AuthCodeURL(ctx context.Context, bearer string, req AuthCodeRequest) (string, error) {
	var resp struct {
		URL string `json:"Url"`
	}
	body := map[string]any{
		"fyers_id":       req.FyersID,
		"app_id":         req.AppID,
		"redirect_uri":   req.RedirectURI,
		"appType":        req.AppType,
		"code_challenge": "",
		"state":          "None",
		"scope":          "",
		"nonce":          "",
		"response_type":  "code",
		"create_cookie":  true,
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+bearer)
	if err := e.Client.Do(ctx, "token", http.MethodPost, e.APIBaseURL+"/api/v3/token", h, body, &resp); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", fmt.Errorf("token: no Url in response: %w", apperr.ErrProtocol)
	}
	return resp.URL, nil
}

func (e *FyersEndpoints) ExchangeCode(ctx context.Context, code, clientID, secretKey string) (string, error) {
	var resp struct {
		S           string `json:"s"`
		Message     string `json:"message"`
		AccessToken string `json:"access_token"`
	}
	body := map[string]string{
		"grant_type": "authorization_code",
		"appIdHash":  AppIDHash(clientID, secretKey),
		"code":       code,
	}
	if err := e.Client.Do(ctx, "validate_authcode", http.MethodPost, e.APIBaseURL+"/api/v3/validate-authcode", nil, body, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("validate_authcode: %s %s: no access_token: %w", resp.S, resp.Message, apperr.ErrProtocol)
	}
	return resp.AccessToken, nil
}

// AppIDHash is the hex SHA-256 of "client_id:secret_key" the token exchange expects.
func AppIDHash(clientID, secretKey string) string {
	sum := sha256.Sum256([]byte(clientID + ":" + secretKey))
	return hex.EncodeToString(sum[:])
}
