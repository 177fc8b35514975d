package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"food-expose-backend/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

const (
	jwksRefreshCooldown = time.Minute
	jwksFetchTimeout    = 10 * time.Second
)

// JWKS is the document served at the provider's .well-known/jwks.json.
type JWKS struct {
	Keys []JSONWebKey `json:"keys"`
}

type JSONWebKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// Provider resolves RS256 verification keys by kid. Keys are decoded once per
// refresh; an unknown kid triggers a refresh unless one ran within the cooldown.
type Provider struct {
	url    string
	client *http.Client

	mu          sync.Mutex
	keys        map[string]*rsa.PublicKey
	lastRefresh time.Time
}

func NewProvider(jwksURL string) *Provider {
	return &Provider{
		url:    jwksURL,
		client: &http.Client{Timeout: jwksFetchTimeout},
		keys:   map[string]*rsa.PublicKey{},
	}
}

// KeyFunc plugs the provider into jwt.Parse.
func (p *Provider) KeyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("token has no kid header")
	}

	ctx, cancel := context.WithTimeout(context.Background(), jwksFetchTimeout)
	defer cancel()
	return p.PublicKey(ctx, kid)
}

// PublicKey returns the key for kid, refreshing the set when kid is unknown.
func (p *Provider) PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if key, ok := p.keys[kid]; ok {
		return key, nil
	}
	if time.Since(p.lastRefresh) < jwksRefreshCooldown {
		return nil, fmt.Errorf("signing key %q not found", kid)
	}

	if err := p.refreshLocked(ctx); err != nil {
		logger.Log.Warn("JWKS refresh failed", "kid", kid, "url", p.url, "error", err)
		return nil, err
	}

	key, ok := p.keys[kid]
	if !ok {
		logger.Log.Warn("Token signed with unknown key", "kid", kid, "known_keys", len(p.keys))
		return nil, fmt.Errorf("signing key %q not found", kid)
	}
	return key, nil
}

func (p *Provider) refreshLocked(ctx context.Context) error {
	p.lastRefresh = time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks: unexpected status %d", resp.StatusCode)
	}

	var set JWKS
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := k.RSAPublicKey()
		if err != nil {
			logger.Log.Warn("Skipping malformed JWKS entry", "kid", k.Kid, "error", err)
			continue
		}
		keys[k.Kid] = pub
	}

	p.keys = keys
	logger.Log.Info("JWKS refreshed", "url", p.url, "keys", len(keys))
	return nil
}

// RSAPublicKey decodes the modulus and exponent of an RSA JWK.
func (k JSONWebKey) RSAPublicKey() (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("exponent: %w", err)
	}
	if len(n) == 0 || len(e) == 0 {
		return nil, errors.New("empty modulus or exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}, nil
}
