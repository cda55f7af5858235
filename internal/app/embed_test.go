package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/framebox/internal/hosting"
)

func TestIsLoopback(t *testing.T) {
	tests := map[string]bool{
		"http://localhost:8001":    true,
		"http://LOCALHOST":         true,
		"http://127.0.0.1:8001":    true,
		"http://127.8.9.10":        true,
		"http://[::1]:8001":        true,
		"https://app.example":      false,
		"http://192.168.1.20:8001": false,
		"http://0.0.0.0:8001":      false,
		"::not a url":              false,
	}
	for origin, want := range tests {
		assert.Equal(t, want, IsLoopback(origin), origin)
	}
}

func TestEmbedBase(t *testing.T) {
	suggestion := &hosting.ServerInfo{SuggestedURL: "https://demo.example/"}

	assert.Equal(t, "https://demo.example", EmbedBase("http://localhost:8001", suggestion))
	assert.Equal(t, "https://app.example", EmbedBase("https://app.example/", suggestion))
	assert.Equal(t, "http://localhost:8001", EmbedBase("http://localhost:8001", &hosting.ServerInfo{}))
	assert.Equal(t, "http://localhost:8001", EmbedBase("http://localhost:8001", nil))
}

func TestEmbedCode(t *testing.T) {
	assert.Equal(t,
		`<iframe src="https://demo.example/view/site/" width="100%" height="600" frameborder="0"></iframe>`,
		EmbedCode("https://demo.example", "site"))
}
