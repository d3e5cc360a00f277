package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// DefaultSignatureTolerance — допустимый возраст события; старее — replay-атака
// либо задержавшаяся доставка, которую провайдер всё равно повторит со свежей подписью.
const DefaultSignatureTolerance = 5 * time.Minute

// SignatureVerifier проверяет подпись webhook-событий до любого разбора
// бизнес-полей. Формат заголовка: `t=<unix>,v1=<hex>`, подпись —
// HMAC-SHA256 от строки `<t>.<body>` на общем секрете.
type SignatureVerifier struct {
	secret    []byte
	tolerance time.Duration

	now func() time.Time
}

// NewSignatureVerifier создаёт verifier с заданным секретом.
func NewSignatureVerifier(secret string, tolerance time.Duration) *SignatureVerifier {
	if tolerance <= 0 {
		tolerance = DefaultSignatureTolerance
	}
	return &SignatureVerifier{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Verify сверяет подпись заголовка с телом запроса. Сравнение дайджестов
// выполняется за константное время.
func (v *SignatureVerifier) Verify(body []byte, header string) error {
	ts, signature, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	eventTime := time.Unix(ts, 0)
	age := v.now().Sub(eventTime)
	if age > v.tolerance || age < -v.tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", domain.ErrWebhookSignature)
	}

	expected := computeSignature(v.secret, ts, body)
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: malformed signature hex", domain.ErrWebhookSignature)
	}
	if !hmac.Equal(expected, provided) {
		return domain.ErrWebhookSignature
	}

	return nil
}

// Sign строит значение заголовка подписи для заданного тела. Используется
// клиентами в тестах и утилитах.
func Sign(secret string, at time.Time, body []byte) string {
	ts := at.Unix()
	signature := computeSignature([]byte(secret), ts, body)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(signature))
}

func computeSignature(secret []byte, ts int64, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	return mac.Sum(nil)
}

func parseSignatureHeader(header string) (int64, string, error) {
	if strings.TrimSpace(header) == "" {
		return 0, "", fmt.Errorf("%w: signature header is missing", domain.ErrWebhookSignature)
	}

	var (
		tsRaw     string
		signature string
	)
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return 0, "", fmt.Errorf("%w: malformed signature header", domain.ErrWebhookSignature)
		}
		switch key {
		case "t":
			tsRaw = value
		case "v1":
			signature = value
		}
	}
	if tsRaw == "" || signature == "" {
		return 0, "", fmt.Errorf("%w: signature header lacks t or v1", domain.ErrWebhookSignature)
	}

	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: malformed timestamp", domain.ErrWebhookSignature)
	}

	return ts, signature, nil
}
