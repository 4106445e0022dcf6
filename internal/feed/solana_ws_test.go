package feed

import "testing"

func TestDeriveWSEndpoint(t *testing.T) {
	cases := []struct {
		endpoint string
		port     int
		want     string
	}{
		{"https://api.mainnet-beta.solana.com", 0, "wss://api.mainnet-beta.solana.com"},
		{"http://localhost:8899", 0, "ws://localhost:8899"},
		{"https://rpc.example.com", 8900, "wss://rpc.example.com:8900"},
		{"http://localhost:8899", 8900, "ws://localhost:8900"},
	}
	for _, tc := range cases {
		got, err := deriveWSEndpoint(tc.endpoint, tc.port)
		if err != nil {
			t.Errorf("deriveWSEndpoint(%q, %d): %v", tc.endpoint, tc.port, err)
			continue
		}
		if got != tc.want {
			t.Errorf("deriveWSEndpoint(%q, %d) = %q, want %q", tc.endpoint, tc.port, got, tc.want)
		}
	}
}

func TestDeriveWSEndpointRejectsBadScheme(t *testing.T) {
	if _, err := deriveWSEndpoint("ftp://node", 0); err == nil {
		t.Error("expected error for unsupported scheme")
	}
}
