package engine

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// ValueSigner produces short-lived, tamper-proof encodings of arbitrary values.
// It backs the nonces embedded in admin forms.
type ValueSigner[T any] struct {
	key []byte
}

// NewValueSigner returns a signer with a random key. Signatures don't survive restarts.
func NewValueSigner[T any]() *ValueSigner[T] {
	v := &ValueSigner[T]{key: make([]byte, 32)}
	if _, err := rand.Read(v.key); err != nil {
		panic(err)
	}
	return v
}

func (v *ValueSigner[T]) Sign(val T, ttl time.Duration) string {
	js, err := json.Marshal(&signedValue[T]{Value: val, Exp: time.Now().Add(ttl).Unix()})
	if err != nil {
		panic(err)
	}
	payload := base64.RawURLEncoding.EncodeToString(js)
	return payload + "." + v.mac(payload)
}

func (v *ValueSigner[T]) Verify(str string) (val T, valid bool) {
	payload, sig, ok := strings.Cut(str, ".")
	if !ok || !hmac.Equal([]byte(sig), []byte(v.mac(payload))) {
		return
	}

	js, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return
	}
	sv := &signedValue[T]{}
	if err := json.Unmarshal(js, sv); err != nil {
		return
	}
	if time.Now().Unix() > sv.Exp {
		return
	}
	return sv.Value, true
}

func (v *ValueSigner[T]) mac(payload string) string {
	h := hmac.New(sha256.New, v.key)
	h.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

type signedValue[T any] struct {
	Value T     `json:"v"`
	Exp   int64 `json:"e"`
}
