package translation

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"ocrtranslate/internal/cache"
	"ocrtranslate/internal/logger"
)

// DefaultBaiduURL is the Baidu general translation endpoint.
const DefaultBaiduURL = "https://fanyi-api.baidu.com/api/trans/vip/translate"

// DefaultBaiduTimeout applies to each request.
const DefaultBaiduTimeout = 5 * time.Second

// baiduErrors maps Baidu error codes to readable categories.
var baiduErrors = map[string]string{
	"52001": "TIMEOUT - request timed out",
	"52002": "SYSTEM ERROR - system error",
	"52003": "UNAUTHORIZED USER - unauthorized user",
	"54000": "REQUIRED PARAMETER IS NULL - required parameter missing",
	"54001": "INVALID SIGN - bad signature",
	"54003": "ACCESS FREQUENCY LIMITED - rate limited",
	"54004": "INSUFFICIENT ACCOUNT BALANCE - insufficient balance",
	"54005": "LONG QUERY TOO FREQUENTLY - long queries too frequent",
	"58000": "CLIENT_IP_ILLEGAL - illegal client IP",
}

// BaiduConfig configures the Baidu translation backend.
type BaiduConfig struct {
	AppID     string
	SecretKey string
	APIURL    string
	From      string
	To        string
	Timeout   time.Duration
}

// BaiduBackend translates one text per signed request to the Baidu API.
type BaiduBackend struct {
	config     BaiduConfig
	httpClient *http.Client
	cache      cache.Cache
	salt       func() string
	log        zerolog.Logger
}

type baiduResponse struct {
	TransResult []struct {
		Src string `json:"src"`
		Dst string `json:"dst"`
	} `json:"trans_result"`
	ErrorCode json.RawMessage `json:"error_code"`
	ErrorMsg  string          `json:"error_msg"`
}

// NewBaiduBackend creates the backend. Missing credentials are allowed; the
// backend then answers every text with MsgNotConfigured. c may be nil.
func NewBaiduBackend(config BaiduConfig, c cache.Cache) *BaiduBackend {
	if config.APIURL == "" {
		config.APIURL = DefaultBaiduURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultBaiduTimeout
	}

	b := &BaiduBackend{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		cache:      c,
		salt:       randomSalt,
		log:        logger.WithComponent("translation-baidu"),
	}
	if !b.Available() {
		b.log.Warn().Msg("Baidu translation credentials not configured, set BAIDU_APPID and BAIDU_SECRET_KEY")
	}
	return b
}

// randomSalt returns a nonce in [32768, 65536].
func randomSalt() string {
	return strconv.Itoa(32768 + rand.IntN(32769))
}

// Sign computes the request signature md5(appid + q + salt + secret).
func Sign(appID, text, salt, secret string) string {
	sum := md5.Sum([]byte(appID + text + salt + secret))
	return hex.EncodeToString(sum[:])
}

// ErrorMessage maps a Baidu error code to a readable category.
func ErrorMessage(code string) string {
	if msg, ok := baiduErrors[code]; ok {
		return msg
	}
	return "unknown error code: " + code
}

// Name implements Backend.
func (b *BaiduBackend) Name() string { return "baidu" }

// Kind implements Backend.
func (b *BaiduBackend) Kind() Kind { return KindPerItem }

// Available implements Backend. It reports whether credentials are set.
func (b *BaiduBackend) Available() bool {
	return b.config.AppID != "" && b.config.SecretKey != ""
}

// Translate implements Backend.
func (b *BaiduBackend) Translate(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if !b.Available() {
		return MsgNotConfigured
	}

	key := cache.Key(b.Name(), b.config.From, b.config.To, text)
	if b.cache != nil {
		if value, err := b.cache.Get(ctx, key); err == nil {
			return value
		} else if !errors.Is(err, cache.ErrMiss) {
			b.log.Warn().Err(err).Msg("Translation cache lookup failed")
		}
	}

	outcome := b.call(ctx, text)
	switch {
	case outcome.Status == StatusOK:
		if b.cache != nil {
			if err := b.cache.Set(ctx, key, outcome.Text); err != nil {
				b.log.Warn().Err(err).Msg("Translation cache store failed")
			}
		}
		return outcome.Text
	case outcome.Status == StatusUnavailable:
		return MsgNotConfigured
	case outcome.Code != "":
		b.log.Warn().Str("error_code", outcome.Code).Msg("Baidu translation API returned an error")
		return apiErrorPrefix + ErrorMessage(outcome.Code)
	case errors.Is(outcome.Err, ErrEmptyResponse):
		return MsgTranslationFailed
	default:
		b.log.Error().Err(outcome.Err).Msg("Baidu translation request failed")
		return exceptionPrefix + outcome.Err.Error()
	}
}

// TranslateMany implements Backend by translating each text in turn.
func (b *BaiduBackend) TranslateMany(ctx context.Context, texts []string) []string {
	results := make([]string, len(texts))
	for i, text := range texts {
		results[i] = b.Translate(ctx, text)
	}
	return results
}

// call performs one signed request. Multiple result segments are joined with
// newlines because they belong to the same input text.
func (b *BaiduBackend) call(ctx context.Context, text string) Outcome {
	if !b.Available() {
		return Outcome{Status: StatusUnavailable, Err: ErrBackendUnavailable}
	}

	salt := b.salt()
	params := url.Values{}
	params.Set("q", text)
	params.Set("from", b.config.From)
	params.Set("to", b.config.To)
	params.Set("appid", b.config.AppID)
	params.Set("salt", salt)
	params.Set("sign", Sign(b.config.AppID, text, salt, b.config.SecretKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.config.APIURL+"?"+params.Encode(), nil)
	if err != nil {
		return failed(err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return failed(err)
	}
	defer resp.Body.Close()

	var parsed baiduResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return failed(fmt.Errorf("decode response: %w", err))
	}

	if parsed.TransResult != nil {
		segments := make([]string, len(parsed.TransResult))
		for i, r := range parsed.TransResult {
			segments[i] = r.Dst
		}
		return ok(strings.Join(segments, "\n"))
	}
	if len(parsed.ErrorCode) > 0 && string(parsed.ErrorCode) != "null" {
		code := strings.Trim(string(parsed.ErrorCode), `"`)
		return Outcome{Status: StatusError, Code: code, Err: fmt.Errorf("%w: %s %s", ErrRemoteAPI, code, parsed.ErrorMsg)}
	}
	return failed(ErrEmptyResponse)
}
