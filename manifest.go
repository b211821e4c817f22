package walletguard

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/allisson/walletguard/internal/errors"
	"github.com/allisson/walletguard/permissions"
	"github.com/allisson/walletguard/wallet"
)

// ManifestFetcher resolves the grouped permissions an originator publishes.
// Fetch returns nil without error when the originator publishes no manifest
// or no grouped permissions; the grouped flow is then skipped silently.
type ManifestFetcher interface {
	Fetch(ctx context.Context, originator string) (*permissions.GroupedPermissions, error)
}

// manifest.json document shape, as published by applications at
// https://<originator>/manifest.json.
type manifestDocument struct {
	Babbage *struct {
		GroupPermissions *manifestGroupPermissions `json:"groupPermissions"`
	} `json:"babbage"`
}

type manifestGroupPermissions struct {
	Description         string `json:"description"`
	ProtocolPermissions []struct {
		ProtocolID   []json.RawMessage `json:"protocolID"`
		Counterparty string            `json:"counterparty"`
		Description  string            `json:"description"`
	} `json:"protocolPermissions"`
	BasketAccess []struct {
		Basket      string `json:"basket"`
		Description string `json:"description"`
	} `json:"basketAccess"`
	CertificateAccess []struct {
		Type              string   `json:"type"`
		Fields            []string `json:"fields"`
		VerifierPublicKey string   `json:"verifierPublicKey"`
		Description       string   `json:"description"`
	} `json:"certificateAccess"`
	SpendingAuthorization *struct {
		Amount      int64  `json:"amount"`
		Description string `json:"description"`
	} `json:"spendingAuthorization"`
}

// HTTPManifestFetcher fetches manifests over HTTPS (plain HTTP for local
// development hosts) with a shared rate limit so a burst of authentications
// cannot hammer originator servers.
type HTTPManifestFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPManifestFetcher returns a fetcher limited to 5 fetches per second.
// A zero timeout selects 10 seconds per request.
func NewHTTPManifestFetcher(timeout time.Duration) *HTTPManifestFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPManifestFetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
}

// Fetch downloads and parses https://<originator>/manifest.json.
func (f *HTTPManifestFetcher) Fetch(ctx context.Context, originator string) (*permissions.GroupedPermissions, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := manifestURL(originator)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build manifest request")
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch manifest")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(fmt.Sprintf("manifest fetch returned status %d", resp.StatusCode))
	}

	var doc manifestDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "parse manifest")
	}
	if doc.Babbage == nil || doc.Babbage.GroupPermissions == nil {
		return nil, nil
	}
	return groupedFromManifest(doc.Babbage.GroupPermissions), nil
}

// manifestURL picks plain HTTP for localhost originators and HTTPS for
// everything else.
func manifestURL(originator string) string {
	host := originator
	if h, _, err := net.SplitHostPort(originator); err == nil {
		host = h
	}
	scheme := "https"
	if host == "localhost" || host == "127.0.0.1" || strings.HasSuffix(host, ".localhost") {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s/manifest.json", scheme, originator)
}

func groupedFromManifest(m *manifestGroupPermissions) *permissions.GroupedPermissions {
	out := &permissions.GroupedPermissions{Description: m.Description}
	for _, p := range m.ProtocolPermissions {
		id, ok := parseManifestProtocolID(p.ProtocolID)
		if !ok {
			continue
		}
		counterparty := p.Counterparty
		if counterparty == "" {
			counterparty = "self"
		}
		out.Protocols = append(out.Protocols, permissions.GroupedProtocol{
			ProtocolID:   id,
			Counterparty: counterparty,
			Description:  p.Description,
		})
	}
	for _, b := range m.BasketAccess {
		out.Baskets = append(out.Baskets, permissions.GroupedBasket{
			Basket:      b.Basket,
			Description: b.Description,
		})
	}
	for _, c := range m.CertificateAccess {
		out.Certificates = append(out.Certificates, permissions.GroupedCertificate{
			Type:        c.Type,
			Fields:      c.Fields,
			Verifier:    c.VerifierPublicKey,
			Description: c.Description,
		})
	}
	if m.SpendingAuthorization != nil {
		out.Spending = &permissions.GroupedSpending{
			AuthorizedAmount: m.SpendingAuthorization.Amount,
			Description:      m.SpendingAuthorization.Description,
		}
	}
	if out.Empty() {
		return nil
	}
	return out
}

// parseManifestProtocolID parses the two-element [securityLevel, name] form.
func parseManifestProtocolID(raw []json.RawMessage) (wallet.ProtocolID, bool) {
	if len(raw) != 2 {
		return wallet.ProtocolID{}, false
	}
	var level int
	if err := json.Unmarshal(raw[0], &level); err != nil {
		return wallet.ProtocolID{}, false
	}
	var name string
	if err := json.Unmarshal(raw[1], &name); err != nil {
		return wallet.ProtocolID{}, false
	}
	return wallet.ProtocolID{SecurityLevel: wallet.SecurityLevel(level), Name: name}, true
}
