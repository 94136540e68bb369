package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyPaymentSignature checks the checkout callback signature:
// hex(HMAC-SHA256(order_id + "|" + payment_id, key secret)).
func VerifyPaymentSignature(providerOrderID, providerPaymentID, signature, secret string) bool {
	if providerOrderID == "" || providerPaymentID == "" || signature == "" || secret == "" {
		return false
	}
	return verify([]byte(providerOrderID+"|"+providerPaymentID), signature, secret)
}

// VerifyWebhookSignature checks a webhook body against its
// X-Razorpay-Signature header.
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	return verify(body, signature, secret)
}

func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func verify(payload []byte, signature, secret string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(got, mac.Sum(nil))
}
