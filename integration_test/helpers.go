package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"courseforge/core"
)

type RegisterResponse struct {
	Success bool             `json:"success"`
	User    *core.PublicUser `json:"user"`
	Error   string           `json:"error"`
}

type LoginResponse struct {
	User        *core.PublicUser `json:"user"`
	AccessToken string           `json:"accessToken"`
	Error       string           `json:"error"`
}

type RefreshResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
	Error       string `json:"error"`
}

func register(client *http.Client, baseURL, nickname, email, password string) (*http.Response, error) {
	body := map[string]string{
		"nickname": nickname,
		"email":    email,
		"password": password,
	}
	jsonBody, _ := json.Marshal(body)

	return client.Post(baseURL+"/auth/register", "application/json", bytes.NewReader(jsonBody))
}

func login(client *http.Client, baseURL, email, password string) (*http.Response, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	jsonBody, _ := json.Marshal(body)

	return client.Post(baseURL+"/auth/login", "application/json", bytes.NewReader(jsonBody))
}

func getProfile(client *http.Client, baseURL string) (*http.Response, error) {
	req, _ := http.NewRequest(http.MethodGet, baseURL+"/user/profile", nil)
	return client.Do(req)
}

func refresh(client *http.Client, baseURL string) (*http.Response, error) {
	req, _ := http.NewRequest(http.MethodPost, baseURL+"/auth/refresh", nil)
	return client.Do(req)
}

func refreshWithToken(baseURL, refreshToken string) (*http.Response, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	req, _ := http.NewRequest(http.MethodPost, baseURL+"/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: core.RefreshTokenCookie, Value: refreshToken})
	return client.Do(req)
}

func logout(client *http.Client, baseURL string) (*http.Response, error) {
	req, _ := http.NewRequest(http.MethodPost, baseURL+"/auth/logout", nil)
	return client.Do(req)
}

func logoutAll(client *http.Client, baseURL string) (*http.Response, error) {
	req, _ := http.NewRequest(http.MethodPost, baseURL+"/auth/logout-all", nil)
	return client.Do(req)
}

func decode(resp *http.Response, dest interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(dest)
}

func setCookieByName(resp *http.Response, name string) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}
