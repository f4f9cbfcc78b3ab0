package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	pkgauth "github.com/matiasleandrokruk/toolhost/pkg/auth"
)

// Client is an API client allowed to exchange its secret for a token.
type Client struct {
	ID          string
	SecretHash  string
	Permissions []string
}

// ClientDirectory finds clients by id.
type ClientDirectory interface {
	LookupClient(id string) (Client, bool)
}

// StaticClients is an in-memory ClientDirectory keyed by client id.
type StaticClients map[string]Client

func (c StaticClients) LookupClient(id string) (Client, bool) {
	client, ok := c[id]
	return client, ok
}

type tokenIssuer interface {
	Generate(clientID string, permissions []string) (string, error)
}

// AuthHandler issues bearer tokens to API clients.
type AuthHandler struct {
	clients ClientDirectory
	issuer  tokenIssuer
	expiry  int64
}

func NewAuthHandler(clients ClientDirectory, issuer *pkgauth.Issuer) *AuthHandler {
	return &AuthHandler{clients: clients, issuer: issuer, expiry: int64(issuer.Expiry().Seconds())}
}

// TokenRequest is the body of POST /auth/token.
type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

// Token handles POST /auth/token.
//
// Response codes:
//   - 200 OK: token issued
//   - 400 Bad Request: invalid JSON or missing fields
//   - 401 Unauthorized: unknown client or wrong secret (not distinguished)
//   - 500 Internal Server Error: signing failed
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ClientID = strings.TrimSpace(req.ClientID)
	if req.ClientID == "" || req.ClientSecret == "" {
		writeError(w, http.StatusBadRequest, "client_id and client_secret are required")
		return
	}

	client, ok := h.clients.LookupClient(req.ClientID)
	if !ok || !pkgauth.VerifySecret(client.SecretHash, req.ClientSecret) {
		writeError(w, http.StatusUnauthorized, "invalid client credentials")
		return
	}

	token, err := h.issuer.Generate(client.ID, client.Permissions)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token, TokenType: "Bearer", ExpiresIn: h.expiry})
}
