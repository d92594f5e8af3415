package panel

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func surface(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"both flags", `{"data":{"Connected":true,"LoggedIn":true}}`, StatusConnected},
		{"connected only", `{"data":{"Connected":true,"LoggedIn":false}}`, StatusDisconnected},
		{"logged in only", `{"data":{"Connected":false,"LoggedIn":true}}`, StatusDisconnected},
		{"missing flags", `{"data":{}}`, StatusDisconnected},
		{"missing data", `{}`, StatusDisconnected},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			client := surface(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, c.body)
			})
			got, err := client.Status("tok")
			if err != nil {
				t.Fatalf("Status failed: %v", err)
			}
			if got != c.want {
				t.Errorf("Status = %q, want %q", got, c.want)
			}
		})
	}
}

func TestErrorMessageMapping(t *testing.T) {
	client := surface(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"message":"gateway down"}`)
	})
	if _, err := client.Status("tok"); err == nil || err.Error() != "gateway down" {
		t.Errorf("Expected message from body, got %v", err)
	}

	client = surface(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"boom"}`)
	})
	if _, err := client.Status("tok"); err == nil || err.Error() != "boom" {
		t.Errorf("Expected error from body, got %v", err)
	}

	client = surface(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	if _, err := client.Status("tok"); err == nil || err.Error() != "HTTP 418" {
		t.Errorf("Expected HTTP status fallback, got %v", err)
	}
}

func TestBearerHeaderSent(t *testing.T) {
	var auth string
	client := surface(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"data":{"Qrcode":"img","Code":"raw"}}`)
	})

	qr, err := client.QR("tok-1")
	if err != nil {
		t.Fatalf("QR failed: %v", err)
	}
	if auth != "Bearer tok-1" {
		t.Errorf("Expected bearer header, got %q", auth)
	}
	if qr.Data.Qrcode != "img" || qr.Data.Code != "raw" {
		t.Errorf("Unexpected QR payload: %+v", qr)
	}
}

func TestCreateInstanceOmitsAuth(t *testing.T) {
	var auth string
	client := surface(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"name":"clinic","token":"tok-9"}`)
	})

	result, err := client.CreateInstance("clinic")
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	if auth != "" {
		t.Errorf("Create must not send a bearer token, got %q", auth)
	}
	if result.Token != "tok-9" {
		t.Errorf("Expected minted token, got %q", result.Token)
	}
}

func TestPairReturnsRawPayload(t *testing.T) {
	client := surface(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"PairingCode":"AB12"},"message":"ok"}`)
	})

	payload, err := client.Pair("tok", "41999999999")
	if err != nil {
		t.Fatalf("Pair failed: %v", err)
	}
	data, _ := payload["data"].(map[string]interface{})
	if data["PairingCode"] != "AB12" {
		t.Errorf("Expected untyped passthrough payload, got %v", payload)
	}
}
