package commerce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	oauthVersion         = "1.0"
	oauthSignatureMethod = "HMAC-SHA256"
)

// Signer produces OAuth 1.0a Authorization headers signed with HMAC-SHA256.
type Signer struct {
	consumerKey    string
	consumerSecret string
	token          string
	tokenSecret    string

	now   func() time.Time
	nonce func() string
}

// NewSigner creates a signer for the given consumer and access token pair.
func NewSigner(consumerKey, consumerSecret, token, tokenSecret string) *Signer {
	return &Signer{
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		token:          token,
		tokenSecret:    tokenSecret,
		now:            time.Now,
		nonce: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
	}
}

// Authorization returns the value of the Authorization header for a request.
// Query parameters of rawURL take part in the signature.
func (s *Signer) Authorization(method, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("commerce: invalid request url: %w", err)
	}

	oauthParams := map[string]string{
		"oauth_consumer_key":     s.consumerKey,
		"oauth_nonce":            s.nonce(),
		"oauth_signature_method": oauthSignatureMethod,
		"oauth_timestamp":        strconv.FormatInt(s.now().Unix(), 10),
		"oauth_token":            s.token,
		"oauth_version":          oauthVersion,
	}
	oauthParams["oauth_signature"] = s.sign(method, u, oauthParams)

	keys := sortedKeys(oauthParams)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, percentEncode(k), percentEncode(oauthParams[k])))
	}
	return "OAuth " + strings.Join(parts, ", "), nil
}

// sign computes the base64 HMAC-SHA256 of the signature base string.
func (s *Signer) sign(method string, u *url.URL, oauthParams map[string]string) string {
	key := percentEncode(s.consumerSecret) + "&" + percentEncode(s.tokenSecret)
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(baseString(method, u, oauthParams)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// baseString builds METHOD&encoded-base-url&encoded-parameter-string.
func baseString(method string, u *url.URL, oauthParams map[string]string) string {
	type pair struct{ k, v string }
	pairs := make([]pair, 0, len(oauthParams))
	for k, v := range oauthParams {
		pairs = append(pairs, pair{percentEncode(k), percentEncode(v)})
	}
	for k, values := range u.Query() {
		for _, v := range values {
			pairs = append(pairs, pair{percentEncode(k), percentEncode(v)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k == pairs[j].k {
			return pairs[i].v < pairs[j].v
		}
		return pairs[i].k < pairs[j].k
	})

	encoded := make([]string, len(pairs))
	for i, p := range pairs {
		encoded[i] = p.k + "=" + p.v
	}

	base := *u
	base.RawQuery = ""
	base.Fragment = ""

	return strings.ToUpper(method) + "&" +
		percentEncode(base.String()) + "&" +
		percentEncode(strings.Join(encoded, "&"))
}

// percentEncode escapes everything outside the RFC 3986 unreserved set.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z') || ('0' <= c && c <= '9') ||
			c == '-' || c == '.' || c == '_' || c == '~' {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
