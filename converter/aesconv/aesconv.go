// Package aesconv encrypts item content with AES-256-GCM. Like zstdconv it
// decorates the rest of the converter chain, and only for methods tagged
// encrypt:"aes-gcm". Register it before any compressing factory: the outer
// decorator runs last on writes, so content is compressed and then encrypted.
package aesconv

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/gobeaver/drivekit"
)

const (
	// Tag is the method annotation key selecting encryption.
	Tag = "encrypt"
	// Algorithm is the Tag value this package handles.
	Algorithm = "aes-gcm"
	// EncryptionProperty is the body property recording the cipher.
	EncryptionProperty = "content-encryption"
)

// ErrInvalidKey is returned by New for keys that are not 32 bytes long.
var ErrInvalidKey = errors.New("aesconv: encryption key must be 32 bytes")

// ErrCiphertextTooShort is returned when stored content cannot hold a nonce.
var ErrCiphertextTooShort = errors.New("aesconv: ciphertext too short")

// Factory is a decorating drivekit.ConverterFactory.
type Factory struct {
	aead cipher.AEAD
}

// New creates a factory sealing content with key, which must be 32 bytes
// (AES-256).
func New(key []byte) (*Factory, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Factory{aead: gcm}, nil
}

func selected(annotations drivekit.Annotations) bool {
	v, ok := annotations.Get(Tag)
	return ok && v == Algorithm
}

// seal returns nonce || ciphertext.
func (f *Factory) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, f.aead.NonceSize(), f.aead.NonceSize()+len(plaintext)+f.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return f.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (f *Factory) open(sealed []byte) ([]byte, error) {
	n := f.aead.NonceSize()
	if len(sealed) < n+f.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	return f.aead.Open(nil, sealed[:n], sealed[n:], nil)
}

// ResponseConverter delegates to the next factory with a result set whose
// content is decrypted on open.
func (f *Factory) ResponseConverter(typ reflect.Type, annotations drivekit.Annotations, c *drivekit.Client) drivekit.ResponseConverter {
	if !selected(annotations) {
		return nil
	}
	next, err := c.NextResponseConverter(f, typ, annotations)
	if err != nil {
		return nil
	}
	return drivekit.ConverterFunc[*drivekit.ResultSet, any](func(ctx context.Context, rs *drivekit.ResultSet) (any, error) {
		opener := rs.Opener
		if opener == nil {
			return next.Convert(ctx, rs)
		}
		decrypted := &drivekit.ResultSet{
			Items: rs.Items,
			Opener: drivekit.OpenerFunc(func(ctx context.Context, item drivekit.Item) (io.ReadCloser, error) {
				rc, err := opener.Open(ctx, item)
				if err != nil {
					return nil, err
				}
				defer rc.Close()

				sealed, err := io.ReadAll(rc)
				if err != nil {
					return nil, err
				}
				plaintext, err := f.open(sealed)
				if err != nil {
					return nil, &drivekit.ConversionError{Type: typ, Err: fmt.Errorf("decrypt %s: %w", item.ID, err)}
				}
				return io.NopCloser(bytes.NewReader(plaintext)), nil
			}),
		}
		return next.Convert(ctx, decrypted)
	})
}

// RequestBodyConverter delegates to the next factory and encrypts the bytes
// it produces.
func (f *Factory) RequestBodyConverter(typ reflect.Type, paramAnnotations, methodAnnotations drivekit.Annotations, c *drivekit.Client) drivekit.RequestBodyConverter {
	if !selected(methodAnnotations) {
		return nil
	}
	next, err := c.NextRequestBodyConverter(f, typ, paramAnnotations, methodAnnotations)
	if err != nil {
		return nil
	}
	return drivekit.ConverterFunc[any, *drivekit.RequestBody](func(ctx context.Context, value any) (*drivekit.RequestBody, error) {
		body, err := next.Convert(ctx, value)
		if err != nil {
			return nil, err
		}
		sealed, err := f.seal(body.Bytes)
		if err != nil {
			return nil, &drivekit.ConversionError{Type: typ, Err: err}
		}

		props := make(map[string]string, len(body.Metadata.Properties)+1)
		for k, v := range body.Metadata.Properties {
			props[k] = v
		}
		props[EncryptionProperty] = Algorithm
		return drivekit.NewRequestBody(drivekit.Metadata{
			Description: body.Metadata.Description,
			Properties:  props,
		}, sealed), nil
	})
}

var _ drivekit.ConverterFactory = (*Factory)(nil)
